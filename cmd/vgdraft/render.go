package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vgreport/vgdraft/internal/render"
)

func newRenderCmd() *cobra.Command {
	var (
		engineCmd string
		timeout   time.Duration
		slots     []string
		list      bool
		frame     string
		section   string
	)

	cmd := &cobra.Command{
		Use:   "render [template-id]",
		Short: "Render a comment through the template engine",
		Long:  "Render a comment through the external template engine, or list available templates with --list.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parts := strings.Fields(engineCmd)
			if len(parts) == 0 {
				return fmt.Errorf("empty --engine command")
			}
			launcher := &render.CommandLauncher{Command: parts[0], Args: parts[1:]}
			client := render.NewClient(launcher, render.WithTimeout(timeout))
			defer client.Close()

			ctx := context.Background()

			if list {
				filters := map[string]string{}
				if frame != "" {
					filters["frame"] = frame
				}
				if section != "" {
					filters["section"] = section
				}
				templates, err := client.ListTemplates(ctx, filters)
				if err != nil {
					return err
				}
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(templates)
			}

			if len(args) != 1 {
				return fmt.Errorf("template id is required without --list")
			}

			slotValues := make(map[string]string, len(slots))
			for _, pair := range slots {
				key, value, ok := strings.Cut(pair, "=")
				if !ok {
					return fmt.Errorf("invalid --slot %q (expected key=value)", pair)
				}
				slotValues[key] = value
			}

			result, err := client.RenderComment(ctx, args[0], slotValues)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Text)
			fmt.Fprintf(cmd.ErrOrStderr(), "%d characters, valid=%t\n", result.CharCount, result.Validation.Valid)
			for _, e := range result.Validation.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", e)
			}
			for _, w := range result.Validation.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&engineCmd, "engine", "vgreport-engine", "Engine command line")
	cmd.Flags().DurationVar(&timeout, "timeout", render.DefaultTimeout, "Per-request timeout")
	cmd.Flags().StringArrayVar(&slots, "slot", nil, "Slot value as key=value, repeatable")
	cmd.Flags().BoolVar(&list, "list", false, "List templates instead of rendering")
	cmd.Flags().StringVar(&frame, "frame", "", "Filter templates by frame (with --list)")
	cmd.Flags().StringVar(&section, "section", "", "Filter templates by section (with --list)")

	return cmd
}
