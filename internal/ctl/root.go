// Package ctl implements the breakevenctl command line: quick calculations,
// PDF reports and the saved form draft.
package ctl

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"breakeven/internal/config"
	"breakeven/internal/core"
	"breakeven/internal/draft"
	"breakeven/internal/report"
)

// app holds what every subcommand needs, built once before it runs.
type app struct {
	money    *core.Formatter
	renderer *report.Renderer
	drafts   *draft.Store
}

// Execute runs the root command against the process arguments.
func Execute() error {
	return NewRootCommand(os.Stdout, os.Stderr).Execute()
}

// NewRootCommand builds the command tree writing to out and errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	var (
		draftDir string
		a        = &app{}
	)

	root := &cobra.Command{
		Use:           "breakevenctl",
		Short:         "Break-even calculator for salon professionals",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			format, err := cfg.CurrencyFormat()
			if err != nil {
				return fmt.Errorf("currency: %w", err)
			}
			a.money = core.NewFormatter(format)
			a.renderer = report.NewRenderer(a.money)
			a.drafts = draft.NewStore(draftDir)
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&draftDir, "draft-dir", "", "directory holding the saved draft (default $XDG_CONFIG_HOME/breakeven)")

	root.AddCommand(calcCmd(a), reportCmd(a), draftCmd(a))
	return root
}

// inputs resolves the expenses and work days for calc and report: explicit
// arguments win, otherwise the saved draft is used.
func (a *app) inputs(args []string, days int, daysSet bool) (core.ExpenseMap, int, error) {
	if len(args) == 0 {
		d, found, err := a.drafts.Load()
		if err != nil {
			return core.ExpenseMap{}, 0, err
		}
		if !found {
			return core.ExpenseMap{}, 0, fmt.Errorf("no expenses given and no saved draft; try: breakevenctl calc rent=800 supplies=150")
		}
		if daysSet {
			d.WorkDays = days
		}
		return d.Expenses, d.WorkDays, nil
	}

	expenses, err := ParseAssignments(args, a.money)
	if err != nil {
		return core.ExpenseMap{}, 0, err
	}
	return expenses, days, nil
}

// compute runs the calculator behind the sufficiency gate.
func compute(expenses core.ExpenseMap, days int) (core.CalculationResult, error) {
	if err := core.RequireSufficient(expenses); err != nil {
		return core.CalculationResult{}, fmt.Errorf("%w: %s", err, core.InsufficientMessage)
	}
	return core.Calculate(expenses, days)
}
