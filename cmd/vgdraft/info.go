package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vgreport/vgdraft/internal/config"
	"github.com/vgreport/vgdraft/internal/export"
)

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show data locations and draft readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()
			e, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			students := e.store.Students()
			drafts := e.store.Drafts()

			ready, total := 0, 0
			for _, s := range students {
				r, t := export.BoxCounts(drafts[s.ID])
				ready += r
				total += t
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Version:     %s\n", version)
			fmt.Fprintf(out, "Data Dir:    %s\n", config.GetDataDir())
			fmt.Fprintf(out, "Database:    %s\n", config.GetDBPath())
			fmt.Fprintf(out, "Export Dir:  %s\n", config.GetExportDir())
			fmt.Fprintf(out, "Period:      %s\n", e.store.Period())
			fmt.Fprintf(out, "Role:        %s\n", e.store.Role())
			fmt.Fprintf(out, "Students:    %d\n", len(students))
			fmt.Fprintf(out, "Ready Boxes: %d/%d\n", ready, total)
			fmt.Fprintf(out, "Save Status: %s\n", e.store.SaveStatus().State)
			return nil
		},
	}

	return cmd
}
