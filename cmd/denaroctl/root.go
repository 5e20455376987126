package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"denaro/internal/cli"
	"denaro/internal/ledger"
	"denaro/internal/log"
	"denaro/internal/period"
	"denaro/internal/report"
	"denaro/internal/services"
)

// skipStore names a flag that, when set, lets the command run without
// opening the ledger.
const skipStore = "skip-store"

type opener func(ctx context.Context, verbose bool) (*cli.Runtime, error)

// openFromEnv opens the ledger configured by the environment. Diagnostics go
// to stderr so command output stays clean.
func openFromEnv(ctx context.Context, verbose bool) (*cli.Runtime, error) {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return nil, err
	}
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{
		Level:     level,
		Component: log.ComponentCLI,
		Handler:   slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	})
	return cli.OpenLedger(ctx, cfg, logger)
}

type app struct {
	open    opener
	rt      *cli.Runtime
	period  string
	asJSON  bool
	verbose bool
}

func newRootCmd(open opener) *cobra.Command {
	a := &app{open: open}
	root := &cobra.Command{
		Use:          "denaroctl",
		Short:        "Inspect and edit the denaro ledger",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if name, ok := cmd.Annotations[skipStore]; ok {
				if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
					return nil
				}
			}
			rt, err := a.open(cmd.Context(), a.verbose)
			if err != nil {
				return err
			}
			a.rt = rt
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.rt == nil || a.rt.Cleanup == nil {
				return nil
			}
			return a.rt.Cleanup()
		},
	}
	root.PersistentFlags().StringVarP(&a.period, "period", "p", "", "period key (YYYY-MM); defaults to the configured default period")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "print JSON instead of text")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log diagnostics to stderr")

	root.AddCommand(
		a.summaryCmd(),
		a.trendCmd(),
		a.transactionCmd(ledger.KindExpense),
		a.transactionCmd(ledger.KindIncome),
		a.budgetCmd(),
		a.clearCmd(),
		a.categoryCmd(),
		a.goalCmd(),
		a.settingsCmd(),
		a.migrateCmd(),
		a.reconcileCmd(),
		a.backupCmd(),
		a.restoreCmd(),
	)
	return root
}

func (a *app) svc() *services.LedgerService { return a.rt.Service }

// periodKey returns --period, or the store's default period.
func (a *app) periodKey() (string, error) {
	if a.period == "" {
		return a.svc().DefaultPeriodKey(), nil
	}
	if err := period.Validate(a.period); err != nil {
		return "", err
	}
	return a.period, nil
}

// periodForDate is periodKey, except that without --period a transaction
// date picks the period it falls in.
func (a *app) periodForDate(date string) (string, error) {
	if a.period != "" || date == "" {
		return a.periodKey()
	}
	return period.FromDate(date)
}

// render prints v as JSON when --json is set, otherwise calls text.
func (a *app) render(cmd *cobra.Command, v any, text func(w io.Writer) error) error {
	out := cmd.OutOrStdout()
	if a.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return text(out)
}

func table(w io.Writer, rows func(tw *tabwriter.Writer)) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	rows(tw)
	return tw.Flush()
}

// amount formats d in the store's currency.
func (a *app) amount(d decimal.Decimal) string {
	return report.FormatAmount(d, a.svc().Settings().Currency)
}

func confirm(yes bool, what string) error {
	if yes {
		return nil
	}
	return fmt.Errorf("%s needs --yes to proceed", what)
}
