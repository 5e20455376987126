package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"denaro/internal/core"
	"denaro/internal/ledger"
)

func (a *app) migrateCmd() *cobra.Command {
	var file, out string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade stored data to the current layout",
		Long: "Without --file, loads the configured store (which migrates and reconciles it)\n" +
			"and writes the result back. With --file, converts a JSON export offline.",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipStore: "file"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				return migrateFile(cmd, file, out)
			}
			rep := a.svc().LastLoad()
			if err := a.svc().Save(cmd.Context()); err != nil {
				return err
			}
			return a.render(cmd, rep, func(w io.Writer) error {
				return printMigration(w, rep.Migration, rep.Drift)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "export to convert instead of the configured store")
	cmd.Flags().StringVarP(&out, "out", "o", "", "where to write the converted file (default stdout)")
	return cmd
}

func migrateFile(cmd *cobra.Command, file, out string) error {
	raw, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	root, rep, err := ledger.Migrate(raw, core.UUIDGenerator{}, time.Local)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return err
	}
	if out == "" {
		_, err = cmd.OutOrStdout().Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(out, data, 0o600); err != nil {
		return err
	}
	return printMigration(cmd.ErrOrStderr(), rep, nil)
}

func printMigration(w io.Writer, rep ledger.MigrationReport, drift []ledger.Drift) error {
	var notes []string
	switch {
	case rep.Empty:
		notes = append(notes, "store was empty; started from defaults")
	case rep.Legacy:
		notes = append(notes, fmt.Sprintf("converted legacy layout (%d periods moved)", rep.PeriodsMoved))
	}
	if rep.Rekeyed > 0 {
		notes = append(notes, fmt.Sprintf("%d period keys normalized", rep.Rekeyed))
	}
	if len(rep.Skipped) > 0 {
		notes = append(notes, "skipped invalid keys: "+strings.Join(rep.Skipped, ", "))
	}
	if len(rep.Quarantined) > 0 {
		notes = append(notes, "kept unreadable values in quarantine: "+strings.Join(rep.Quarantined, ", "))
	}
	if rep.IDsGenerated > 0 {
		notes = append(notes, fmt.Sprintf("%d ids generated", rep.IDsGenerated))
	}
	if rep.DatesBackfilled > 0 {
		notes = append(notes, fmt.Sprintf("%d dates backfilled", rep.DatesBackfilled))
	}
	if rep.CategoriesDefaulted > 0 {
		notes = append(notes, fmt.Sprintf("%d categories defaulted", rep.CategoriesDefaulted))
	}
	if len(rep.SectionsDefaulted) > 0 {
		notes = append(notes, "sections defaulted: "+strings.Join(rep.SectionsDefaulted, ", "))
	}
	if len(rep.SettingsReset) > 0 {
		notes = append(notes, "settings reset: "+strings.Join(rep.SettingsReset, ", "))
	}
	if len(drift) > 0 {
		notes = append(notes, fmt.Sprintf("income totals repaired in %d periods", len(drift)))
	}
	if len(notes) == 0 {
		notes = append(notes, "already up to date")
	}
	for _, n := range notes {
		if _, err := fmt.Fprintln(w, n); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) reconcileCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Check every period's income total against its income records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			drift, err := a.svc().Reconcile(cmd.Context(), !dryRun)
			if err != nil {
				return err
			}
			return a.render(cmd, drift, func(w io.Writer) error {
				if len(drift) == 0 {
					_, err := fmt.Fprintln(w, "All income totals match")
					return err
				}
				verb := "Fixed"
				if dryRun {
					verb = "Found"
				}
				for _, d := range drift {
					if _, err := fmt.Fprintf(w, "%s %s: recorded %s, actual %s\n", verb, d.Period, a.amount(d.Recorded), a.amount(d.Actual)); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "report drift without fixing it")
	return cmd
}

func (a *app) backupCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export the whole store as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.svc().Export()
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(out, data, 0o600); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", out, len(data))
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "file to write (default stdout)")
	return cmd
}

func (a *app) restoreCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace the whole store with a backup; use - for stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := confirm(yes, "restoring a backup"); err != nil {
				return err
			}
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			rep, err := a.svc().Import(cmd.Context(), data)
			if err != nil {
				return err
			}
			return a.render(cmd, rep, func(w io.Writer) error {
				if _, err := fmt.Fprintf(w, "Restored %d periods\n", len(a.svc().Periods())); err != nil {
					return err
				}
				return printMigration(w, rep, nil)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm")
	return cmd
}
