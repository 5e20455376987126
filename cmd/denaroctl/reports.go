package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"denaro/internal/core"
	"denaro/internal/period"
	"denaro/internal/report"
)

type summaryView struct {
	Period     string                  `json:"period"`
	Label      string                  `json:"label"`
	Summary    report.Summary          `json:"summary"`
	BudgetUsed string                  `json:"budgetUsed"`
	Expenses   []core.Expense          `json:"expenses"`
	Income     []core.Income           `json:"income"`
	Categories []report.CategoryAmount `json:"categories"`
}

func (a *app) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show a period's totals and transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := a.periodKey()
			if err != nil {
				return err
			}
			sum, err := a.svc().Summary(key)
			if err != nil {
				return err
			}
			cats, err := a.svc().Breakdown(key)
			if err != nil {
				return err
			}
			l, _ := a.svc().Lookup(key)
			label, _ := period.Label(key, a.svc().Settings().Language)
			v := summaryView{
				Period:     key,
				Label:      label,
				Summary:    sum,
				BudgetUsed: report.BudgetUsed(l).StringFixed(2),
				Expenses:   l.Expenses,
				Income:     l.Income,
				Categories: cats,
			}
			return a.render(cmd, v, func(w io.Writer) error { return a.printSummary(w, v) })
		},
	}
}

func (a *app) printSummary(w io.Writer, v summaryView) error {
	fmt.Fprintf(w, "%s (%s)\n\n", v.Label, v.Period)
	err := table(w, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "Budget\t%s\n", a.amount(v.Summary.Budget))
		fmt.Fprintf(tw, "Income\t%s\n", a.amount(v.Summary.TotalIncome))
		fmt.Fprintf(tw, "Expenses\t%s\n", a.amount(v.Summary.TotalExpenses))
		fmt.Fprintf(tw, "Savings\t%s\n", a.amount(v.Summary.Savings))
		fmt.Fprintf(tw, "Budget used\t%s%%\n", v.BudgetUsed)
		fmt.Fprintf(tw, "Biggest expense\t%s\n", a.amount(v.Summary.BiggestExpense))
		if v.Summary.TopCategory != "" {
			fmt.Fprintf(tw, "Top category\t%s\n", v.Summary.TopCategory)
		}
	})
	if err != nil {
		return err
	}

	if len(v.Expenses) > 0 {
		fmt.Fprintln(w, "\nExpenses")
		if err := table(w, func(tw *tabwriter.Writer) {
			for i, e := range v.Expenses {
				fmt.Fprintf(tw, "#%d\t%s\t%s\t%s\t%s\t%s\n", i, e.Date, e.Name, e.Category, a.amount(e.Amount), e.ID)
			}
		}); err != nil {
			return err
		}
	}
	if len(v.Income) > 0 {
		fmt.Fprintln(w, "\nIncome")
		if err := table(w, func(tw *tabwriter.Writer) {
			for i, in := range v.Income {
				fmt.Fprintf(tw, "#%d\t%s\t%s\t%s\t%s\t%s\n", i, in.Date, in.Source, in.Category, a.amount(in.Amount), in.ID)
			}
		}); err != nil {
			return err
		}
	}
	if len(v.Categories) > 0 {
		fmt.Fprintln(w, "\nBy category")
		return table(w, func(tw *tabwriter.Writer) {
			for _, c := range v.Categories {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Name, a.amount(c.Amount), c.Count)
			}
		})
	}
	return nil
}

func (a *app) trendCmd() *cobra.Command {
	var window int
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Show income, expenses and savings for the periods up to --period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := a.periodKey()
			if err != nil {
				return err
			}
			points, err := a.svc().Trend(key, window)
			if err != nil {
				return err
			}
			return a.render(cmd, points, func(w io.Writer) error {
				return table(w, func(tw *tabwriter.Writer) {
					fmt.Fprintln(tw, "PERIOD\tINCOME\tEXPENSES\tSAVINGS")
					for _, p := range points {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Period, a.amount(p.Income), a.amount(p.Expenses), a.amount(p.Savings))
					}
				})
			})
		},
	}
	cmd.Flags().IntVarP(&window, "window", "w", report.DefaultWindow, "number of periods to show")
	return cmd
}
