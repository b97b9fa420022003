package ctl

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"breakeven/internal/core"
	"breakeven/internal/draft"
)

func draftCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Show or edit the saved calculator inputs",
	}
	cmd.AddCommand(draftShowCmd(a), draftSetCmd(a), draftDaysCmd(a), draftClearCmd(a))
	return cmd
}

func draftShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the saved draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, found, err := a.drafts.Load()
			if err != nil {
				return err
			}
			if !found {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("No saved draft."))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderDraft(d, a.money))
			return nil
		},
	}
}

func draftSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "set category=amount [category=amount ...]",
		Short:   "Set one or more expense amounts in the draft",
		Example: "  breakevenctl draft set rent=900 marketing=75",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			updates, err := ParseAssignments(args, a.money)
			if err != nil {
				return err
			}
			d, _, err := a.drafts.Load()
			if err != nil {
				return err
			}
			updates.Each(func(c core.Category, amount float64) {
				d.Expenses = d.Expenses.With(c, amount)
			})
			return a.saveDraft(cmd, d)
		},
	}
}

func draftDaysCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "days N",
		Short: "Set the work days per week in the draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: %q is not a whole number", core.ErrInvalidWorkDays, args[0])
			}
			d, _, err := a.drafts.Load()
			if err != nil {
				return err
			}
			d.WorkDays = n
			return a.saveDraft(cmd, d)
		},
	}
}

func draftClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the saved draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.drafts.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Draft cleared."))
			return nil
		},
	}
}

func (a *app) saveDraft(cmd *cobra.Command, d draft.Draft) error {
	saved, err := a.drafts.Save(d)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderDraft(saved, a.money))
	return nil
}
