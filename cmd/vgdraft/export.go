package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vgreport/vgdraft/internal/config"
	"github.com/vgreport/vgdraft/internal/export"
	"github.com/vgreport/vgdraft/internal/report"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export approved comments",
	}

	cmd.AddCommand(newExportCSVCmd())
	cmd.AddCommand(newExportBoxCmd())
	cmd.AddCommand(newExportPrintCmd())

	return cmd
}

func newExportCSVCmd() *cobra.Command {
	var (
		studentID string
		outDir    string
	)

	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Write the class (or one student) as a 12-box CSV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()
			e, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			dir := outDir
			if dir == "" {
				dir = config.GetExportDir()
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create export directory: %w", err)
			}

			period := e.store.Period()
			drafts := e.store.Drafts()

			var name, content string
			if studentID != "" {
				student, err := e.roster.Get(ctx, studentID)
				if err != nil {
					return fmt.Errorf("failed to find student: %w", err)
				}
				name = export.StudentCSVFileName(period, *student)
				content = export.BuildStudentCSV(*student, drafts[student.ID], period)
			} else {
				name = export.ClassCSVFileName(period)
				content = export.BuildCSV(e.store.Students(), drafts, period)
			}

			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return fmt.Errorf("failed to write CSV: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&studentID, "student", "", "Export a single student instead of the whole class")
	cmd.Flags().StringVar(&outDir, "out", "", "Output directory (defaults to the app export directory)")

	return cmd
}

func newExportBoxCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "box <student-id> [frame] [section]",
		Short: "Print one export-ready box, or all 12 with --all",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			draft := e.store.Draft(args[0])

			if all {
				boxes := export.BuildClipboardAll(draft)
				fmt.Fprintln(cmd.OutOrStdout(), boxes.Text)
				if len(boxes.Missing) > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "Not export-ready: %d box(es)\n", len(boxes.Missing))
					for _, heading := range boxes.Missing {
						fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", heading)
					}
				}
				return nil
			}

			if len(args) != 3 {
				return fmt.Errorf("frame and section are required without --all")
			}
			frame := report.FrameID(args[1])
			section := report.SectionID(args[2])
			if err := report.ValidateCell(frame, section); err != nil {
				return err
			}

			box := export.BuildClipboardBox(draft, frame, section)
			fmt.Fprintln(cmd.OutOrStdout(), box.Text)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Print all 12 boxes with headings")

	return cmd
}

func newExportPrintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "print <student-id>",
		Short: "Print a student's report as a formatted document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			student, err := e.roster.Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to find student: %w", err)
			}

			doc := export.BuildPrintDocument(*student, e.store.Draft(student.ID))
			fmt.Fprintln(cmd.OutOrStdout(), doc)
			return nil
		},
	}

	return cmd
}
