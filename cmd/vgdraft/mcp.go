package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/vgreport/vgdraft/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server",
		Long:  "Start the Model Context Protocol server for vgdraft",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			server, err := mcp.NewServer(ctx)
			if err != nil {
				log.Fatalf("Failed to create MCP server: %v", err)
			}

			return server.Run(ctx)
		},
	}

	return cmd
}
