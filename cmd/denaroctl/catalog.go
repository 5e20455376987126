package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"denaro/internal/core"
	"denaro/internal/report"
)

func (a *app) categoryCmd() *cobra.Command {
	parent := &cobra.Command{
		Use:     "category",
		Aliases: []string{"categories"},
		Short:   "Manage expense categories",
	}
	parent.AddCommand(
		&cobra.Command{
			Use:   "ls",
			Short: "List categories",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cats := a.svc().Categories()
				return a.render(cmd, cats, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, strings.Join(cats, "\n"))
					return err
				})
			},
		},
		&cobra.Command{
			Use:   "add <name>",
			Short: "Add a category",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				name, err := a.svc().AddCategory(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added category %q\n", name)
				return err
			},
		},
		&cobra.Command{
			Use:   "rename <old> <new>",
			Short: "Rename a category; existing records keep the old name",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				name, err := a.svc().RenameCategory(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Renamed category %q to %q\n", args[0], name)
				return err
			},
		},
		&cobra.Command{
			Use:   "rm <name>",
			Short: "Remove a category",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.svc().DeleteCategory(cmd.Context(), args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Removed category %q\n", args[0])
				return err
			},
		},
	)
	return parent
}

type goalFlags struct {
	date        string
	description string
	current     string
	name        string
	target      string
}

func (a *app) goalCmd() *cobra.Command {
	parent := &cobra.Command{
		Use:     "goal",
		Aliases: []string{"goals"},
		Short:   "Manage savings goals",
	}

	lsCmd := &cobra.Command{
		Use:   "ls",
		Short: "List goals, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			goals := a.svc().Goals()
			insights := report.Goals(goals)
			v := map[string]any{"goals": goals, "insights": insights}
			return a.render(cmd, v, func(w io.Writer) error {
				err := table(w, func(tw *tabwriter.Writer) {
					fmt.Fprintln(tw, "ID\tNAME\tSAVED\tTARGET\tPROGRESS\tBY")
					for _, g := range goals {
						by := "-"
						if g.TargetDate != nil {
							by = *g.TargetDate
						}
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s%%\t%s\n",
							g.ID, g.Name, a.amount(g.CurrentAmount), a.amount(g.TargetAmount),
							report.GoalProgress(g).StringFixed(0), by)
					}
				})
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(w, "\n%d active, %d completed, %s of %s saved\n",
					insights.Active, insights.Completed, a.amount(insights.TotalSaved), a.amount(insights.TotalTarget))
				return err
			})
		},
	}

	var add goalFlags
	addCmd := &cobra.Command{
		Use:   "add <name> <target>",
		Short: "Create a goal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseDecimal("targetAmount", args[1])
			if err != nil {
				return err
			}
			g := core.Goal{Name: args[0], TargetAmount: target, Description: add.description}
			if add.current != "" {
				if g.CurrentAmount, err = parseDecimal("currentAmount", add.current); err != nil {
					return err
				}
			}
			if add.date != "" {
				g.TargetDate = &add.date
			}
			created, err := a.svc().AddGoal(cmd.Context(), g)
			if err != nil {
				return err
			}
			return a.render(cmd, created, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Created goal %s (%s)\n", created.Name, created.ID)
				return err
			})
		},
	}
	addCmd.Flags().StringVar(&add.date, "by", "", "target date as YYYY-MM-DD")
	addCmd.Flags().StringVar(&add.description, "description", "", "free text")
	addCmd.Flags().StringVar(&add.current, "saved", "", "amount already saved")

	var edit goalFlags
	editCmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a goal; --by \"\" clears the target date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch core.GoalPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &edit.name
			}
			if flags.Changed("target") {
				d, err := parseDecimal("targetAmount", edit.target)
				if err != nil {
					return err
				}
				patch.TargetAmount = &d
			}
			if flags.Changed("saved") {
				d, err := parseDecimal("currentAmount", edit.current)
				if err != nil {
					return err
				}
				patch.CurrentAmount = &d
			}
			if flags.Changed("by") {
				patch.TargetDate = &edit.date
			}
			if flags.Changed("description") {
				patch.Description = &edit.description
			}
			g, err := a.svc().EditGoal(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			return a.render(cmd, g, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Updated goal %s: %s%% of %s\n", g.Name, report.GoalProgress(g).StringFixed(0), a.amount(g.TargetAmount))
				return err
			})
		},
	}
	editCmd.Flags().StringVar(&edit.name, "name", "", "new name")
	editCmd.Flags().StringVar(&edit.target, "target", "", "new target amount")
	editCmd.Flags().StringVar(&edit.current, "saved", "", "amount saved so far")
	editCmd.Flags().StringVar(&edit.date, "by", "", "target date as YYYY-MM-DD")
	editCmd.Flags().StringVar(&edit.description, "description", "", "free text")

	rmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.svc().DeleteGoal(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted goal %s\n", args[0])
			return err
		},
	}

	parent.AddCommand(lsCmd, addCmd, editCmd, rmCmd)
	return parent
}

// settingSetters maps "key=value" keys to patch fields.
var settingSetters = map[string]func(*core.SettingsPatch, string) error{
	"theme":         func(p *core.SettingsPatch, v string) error { p.Theme = &v; return nil },
	"currency":      func(p *core.SettingsPatch, v string) error { p.Currency = &v; return nil },
	"language":      func(p *core.SettingsPatch, v string) error { p.Language = &v; return nil },
	"dateFormat":    func(p *core.SettingsPatch, v string) error { p.DateFormat = &v; return nil },
	"accentColor":   func(p *core.SettingsPatch, v string) error { p.AccentColor = &v; return nil },
	"defaultPeriod": func(p *core.SettingsPatch, v string) error { p.DefaultPeriod = &v; return nil },
	"cloudSync": func(p *core.SettingsPatch, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &core.ValidationError{Field: "cloudSync", Reason: "must be true or false", Err: core.ErrInvalidSetting}
		}
		p.CloudSync = &b
		return nil
	},
}

func parseSettings(args []string) (core.SettingsPatch, error) {
	var patch core.SettingsPatch
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok {
			return patch, fmt.Errorf("expected key=value, got %q", arg)
		}
		set, known := settingSetters[k]
		if !known {
			keys := make([]string, 0, len(settingSetters))
			for name := range settingSetters {
				keys = append(keys, name)
			}
			sort.Strings(keys)
			return patch, fmt.Errorf("unknown setting %q (one of %s)", k, strings.Join(keys, ", "))
		}
		if err := set(&patch, v); err != nil {
			return patch, err
		}
	}
	return patch, nil
}

func (a *app) settingsCmd() *cobra.Command {
	parent := &cobra.Command{
		Use:   "settings",
		Short: "Show or change preferences",
	}
	show := func(cmd *cobra.Command, st core.Settings) error {
		return a.render(cmd, st, func(w io.Writer) error {
			return table(w, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "theme\t%s\n", st.Theme)
				fmt.Fprintf(tw, "currency\t%s\n", st.Currency)
				fmt.Fprintf(tw, "language\t%s\n", st.Language)
				fmt.Fprintf(tw, "dateFormat\t%s\n", st.DateFormat)
				fmt.Fprintf(tw, "accentColor\t%s\n", st.AccentColor)
				fmt.Fprintf(tw, "cloudSync\t%t\n", st.CloudSync)
				fmt.Fprintf(tw, "defaultPeriod\t%s\n", st.DefaultPeriod)
			})
		})
	}
	parent.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the current settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return show(cmd, a.svc().Settings())
			},
		},
		&cobra.Command{
			Use:   "set key=value...",
			Short: "Change one or more settings at once",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				patch, err := parseSettings(args)
				if err != nil {
					return err
				}
				st, err := a.svc().UpdateSettings(cmd.Context(), patch)
				if err != nil {
					return err
				}
				return show(cmd, st)
			},
		},
	)
	return parent
}
