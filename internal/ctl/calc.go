package ctl

import (
	"fmt"

	"github.com/spf13/cobra"

	"breakeven/internal/draft"
)

func calcCmd(a *app) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "calc [category=amount ...]",
		Short: "Calculate the minimum daily earnings",
		Long: "Calculate the minimum daily earnings needed to cover monthly expenses.\n" +
			"Without arguments the saved draft is used.",
		Example: "  breakevenctl calc --days 4 rent=1200 supplies='$250' insurance=60",
		RunE: func(cmd *cobra.Command, args []string) error {
			expenses, workDays, err := a.inputs(args, days, cmd.Flags().Changed("days"))
			if err != nil {
				return err
			}
			result, err := compute(expenses, workDays)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderDocument(a.renderer.Render(result)))
			return nil
		},
	}
	cmd.Flags().IntVarP(&days, "days", "d", draft.DefaultWorkDays, "work days per week (1-7)")
	return cmd
}
