package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vgreport/vgdraft/internal/report"
	"github.com/vgreport/vgdraft/internal/validation"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <student-id>",
		Short: "Run length and structure checks over a student's rendered boxes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			cfg, err := e.settings.ValidationConfig(ctx)
			if err != nil {
				return err
			}

			draft := e.store.Draft(args[0])
			out := cmd.OutOrStdout()
			flagged := 0

			for _, frame := range report.Frames() {
				for _, section := range report.Sections() {
					c := draft.Comment(frame.ID, section.ID)
					if c.Rendered == "" {
						continue
					}
					issues := validation.Analyze(c.Rendered, cfg)
					if len(issues) == 0 {
						continue
					}
					flagged++
					fmt.Fprintf(out, "%s / %s:\n", frame.Label, section.Label)
					for _, issue := range issues {
						fmt.Fprintf(out, "  [%s] %s\n", issue.Severity, issue.Message)
					}
				}
			}

			if flagged == 0 {
				fmt.Fprintln(out, "No issues found.")
			}
			return nil
		},
	}

	return cmd
}
