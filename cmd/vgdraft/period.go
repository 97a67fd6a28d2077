package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vgreport/vgdraft/internal/report"
)

func newPeriodCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "period [initial|february|june]",
		Short: "Show or set the active reporting period",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), e.store.Period())
				return nil
			}

			period := report.Period(args[0])
			if err := e.settings.SetActivePeriod(ctx, period); err != nil {
				return err
			}
			if err := e.store.SetPeriod(ctx, period); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Active period set to %s\n", period)
			return nil
		},
	}

	return cmd
}

func newRoleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role [teacher|ece]",
		Short: "Show or set the active authorship role",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), e.store.Role())
				return nil
			}

			role := report.Role(args[0])
			if err := e.settings.SetActiveRole(ctx, role); err != nil {
				return err
			}
			if err := e.store.SetRole(role); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Active role set to %s\n", role)
			return nil
		},
	}

	return cmd
}
