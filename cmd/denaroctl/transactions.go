package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"denaro/internal/core"
	"denaro/internal/ledger"
)

// parseDecimal accepts a comma or dot decimal separator and rounds to two
// places. Sign and range checks are left to the store.
func parseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err != nil {
		return decimal.Zero, &core.ValidationError{Field: field, Reason: fmt.Sprintf("%q is not a number", s), Err: core.ErrInvalidAmount}
	}
	return d.Round(2), nil
}

type transactionFlags struct {
	category string
	date     string
	label    string
	amount   string
}

// transactionCmd builds the add/edit/rm tree for expenses or income.
func (a *app) transactionCmd(kind string) *cobra.Command {
	labelName := "name"
	if kind == ledger.KindIncome {
		labelName = "source"
	}
	parent := &cobra.Command{
		Use:   kind,
		Short: fmt.Sprintf("Add, edit or remove %s records", kind),
	}

	var add transactionFlags
	addCmd := &cobra.Command{
		Use:   fmt.Sprintf("add <%s> <amount>", labelName),
		Short: fmt.Sprintf("Record a new %s", kind),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := a.periodForDate(add.date)
			if err != nil {
				return err
			}
			amount, err := core.ParseAmount(args[1])
			if err != nil {
				return err
			}
			var rec any
			if kind == ledger.KindIncome {
				rec, err = a.svc().AddIncome(cmd.Context(), key, args[0], amount, add.category, add.date)
			} else {
				rec, err = a.svc().AddExpense(cmd.Context(), key, args[0], amount, add.category, add.date)
			}
			if err != nil {
				return err
			}
			return a.render(cmd, rec, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Recorded %s %s of %s in %s\n", kind, recordID(rec), a.amount(amount), key)
				return err
			})
		},
	}
	addCmd.Flags().StringVarP(&add.category, "category", "c", "", "category (default Other)")
	addCmd.Flags().StringVarP(&add.date, "date", "d", "", "date as YYYY-MM-DD (default today)")

	var edit transactionFlags
	editCmd := &cobra.Command{
		Use:   "edit <ref>",
		Short: fmt.Sprintf("Change fields of an %s; ref is an id or #index", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := a.periodKey()
			if err != nil {
				return err
			}
			ref, err := core.ParseRef(args[0])
			if err != nil {
				return err
			}
			var patch core.TransactionPatch
			flags := cmd.Flags()
			if flags.Changed(labelName) {
				patch.Label = &edit.label
			}
			if flags.Changed("amount") {
				d, err := parseDecimal("amount", edit.amount)
				if err != nil {
					return err
				}
				patch.Amount = &d
			}
			if flags.Changed("category") {
				patch.Category = &edit.category
			}
			if flags.Changed("date") {
				patch.Date = &edit.date
			}

			var rec any
			if kind == ledger.KindIncome {
				rec, err = a.svc().EditIncome(cmd.Context(), key, ref, patch)
			} else {
				rec, err = a.svc().EditExpense(cmd.Context(), key, ref, patch)
			}
			if err != nil {
				return err
			}
			return a.render(cmd, rec, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Updated %s %s\n", kind, recordID(rec))
				return err
			})
		},
	}
	editCmd.Flags().StringVar(&edit.label, labelName, "", "new "+labelName)
	editCmd.Flags().StringVar(&edit.amount, "amount", "", "new amount")
	editCmd.Flags().StringVar(&edit.category, "category", "", "new category")
	editCmd.Flags().StringVar(&edit.date, "date", "", "new date as YYYY-MM-DD")

	rmCmd := &cobra.Command{
		Use:     "rm <ref>",
		Aliases: []string{"delete"},
		Short:   fmt.Sprintf("Remove an %s; ref is an id or #index", kind),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := a.periodKey()
			if err != nil {
				return err
			}
			ref, err := core.ParseRef(args[0])
			if err != nil {
				return err
			}
			var rec any
			if kind == ledger.KindIncome {
				rec, err = a.svc().DeleteIncome(cmd.Context(), key, ref)
			} else {
				rec, err = a.svc().DeleteExpense(cmd.Context(), key, ref)
			}
			if err != nil {
				return err
			}
			return a.render(cmd, rec, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Removed %s %s\n", kind, recordID(rec))
				return err
			})
		},
	}

	parent.AddCommand(addCmd, editCmd, rmCmd)
	return parent
}

func recordID(rec any) string {
	switch r := rec.(type) {
	case core.Expense:
		return r.ID
	case core.Income:
		return r.ID
	}
	return ""
}

func (a *app) budgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "budget <amount>",
		Short: "Set the period's budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := a.periodKey()
			if err != nil {
				return err
			}
			amount, err := parseDecimal("budget", args[0])
			if err != nil {
				return err
			}
			if err := a.svc().SetBudget(cmd.Context(), key, amount); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Budget for %s set to %s\n", key, a.amount(amount))
			return err
		},
	}
}

func (a *app) clearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Reset a period to empty and print what it held as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := confirm(yes, "clearing a period"); err != nil {
				return err
			}
			key, err := a.periodKey()
			if err != nil {
				return err
			}
			snapshot, err := a.svc().ClearPeriod(cmd.Context(), key)
			if err != nil {
				return err
			}
			a.asJSON = true
			return a.render(cmd, snapshot, nil)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm")
	return cmd
}
