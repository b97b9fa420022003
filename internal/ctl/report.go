package ctl

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"breakeven/internal/draft"
	"breakeven/internal/report"
)

func reportCmd(a *app) *cobra.Command {
	var (
		days   int
		out    string
		format string
	)

	cmd := &cobra.Command{
		Use:   "report [category=amount ...]",
		Short: "Write the calculation report as PDF or text",
		RunE: func(cmd *cobra.Command, args []string) error {
			expenses, workDays, err := a.inputs(args, days, cmd.Flags().Changed("days"))
			if err != nil {
				return err
			}
			result, err := compute(expenses, workDays)
			if err != nil {
				return err
			}
			doc := a.renderer.Render(result)

			switch format {
			case "text":
				return report.WriteText(cmd.OutOrStdout(), doc)
			case "pdf":
			default:
				return fmt.Errorf("unknown format %q: use pdf or text", format)
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating %s: %w", out, err)
			}
			if err := report.WritePDF(f, doc, report.DefaultPDFOptions()); err != nil {
				f.Close()
				return fmt.Errorf("writing %s: %w", out, err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Report written to "+out))
			return nil
		},
	}
	cmd.Flags().IntVarP(&days, "days", "d", draft.DefaultWorkDays, "work days per week (1-7)")
	cmd.Flags().StringVarP(&out, "out", "o", report.Filename, "PDF output path")
	cmd.Flags().StringVarP(&format, "format", "f", "pdf", "output format: pdf or text (text goes to stdout)")
	return cmd
}
