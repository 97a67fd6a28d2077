package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/vgreport/vgdraft/internal/export"
	"github.com/vgreport/vgdraft/internal/report"
)

func newRosterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Manage the student roster",
	}

	cmd.AddCommand(newRosterListCmd())
	cmd.AddCommand(newRosterAddCmd())
	cmd.AddCommand(newRosterRemoveCmd())

	return cmd
}

func newRosterListCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List students with box readiness for the active period",
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

			switch format {
			case "json":
				return outputRosterJSON(cmd, students, drafts)
			case "table":
				outputRosterTable(cmd, students, drafts)
				return nil
			default:
				return fmt.Errorf("invalid format: %s (valid values: table, json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")

	return cmd
}

type rosterOutputEntry struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	ReadyBoxes  int    `json:"ready_boxes"`
	TotalBoxes  int    `json:"total_boxes"`
	NeedsReview bool   `json:"needs_review"`
}

func outputRosterJSON(cmd *cobra.Command, students []report.Student, drafts map[string]*report.ReportDraft) error {
	output := make([]rosterOutputEntry, 0, len(students))
	for _, s := range students {
		ready, total := export.BoxCounts(drafts[s.ID])
		output = append(output, rosterOutputEntry{
			ID:          s.ID,
			FirstName:   s.FirstName,
			LastName:    s.LastName,
			ReadyBoxes:  ready,
			TotalBoxes:  total,
			NeedsReview: export.NeedsReview(drafts[s.ID]),
		})
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func outputRosterTable(cmd *cobra.Command, students []report.Student, drafts map[string]*report.ReportDraft) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"ID", "Last Name", "First Name", "Ready", "Review"})
	for _, s := range students {
		ready, total := export.BoxCounts(drafts[s.ID])
		review := ""
		if export.NeedsReview(drafts[s.ID]) {
			review = "yes"
		}
		t.AppendRow(table.Row{s.ID, s.LastName, s.FirstName, fmt.Sprintf("%d/%d", ready, total), review})
	}

	t.Render()
}

func newRosterAddCmd() *cobra.Command {
	var (
		preferred string
		pronouns  string
		needs     []string
	)

	cmd := &cobra.Command{
		Use:   "add <first-name> <last-name>",
		Short: "Add a student to the roster",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			student := report.Student{
				FirstName:     args[0],
				LastName:      args[1],
				PreferredName: preferred,
				Needs:         needs,
			}
			if pronouns != "" {
				parts := strings.Split(pronouns, "/")
				if len(parts) != 3 {
					return fmt.Errorf("invalid pronouns %q (expected subject/object/possessive, e.g. she/her/hers)", pronouns)
				}
				student.Pronouns = report.Pronouns{Subject: parts[0], Object: parts[1], Possessive: parts[2]}
			}

			ctx := context.Background()
			e, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			stored, err := e.roster.Upsert(ctx, student)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s (%s)\n", stored.FirstName, stored.LastName, stored.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&preferred, "preferred", "", "Preferred name used in comments")
	cmd.Flags().StringVar(&pronouns, "pronouns", "", "Pronoun triple as subject/object/possessive")
	cmd.Flags().StringSliceVar(&needs, "need", nil, "Need tag, repeatable")

	return cmd
}

func newRosterRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <student-id>",
		Short: "Remove a student and all of their drafts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			deleted, err := e.roster.Delete(ctx, args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("student not found: %s", args[0])
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}

	return cmd
}
