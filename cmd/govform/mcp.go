package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/govform"
	"github.com/aretw0/govform/internal/cli"
	"github.com/aretw0/govform/pkg/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes application sessions as MCP tools so assistants can fill the
form on behalf of an applicant.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")

		// Logs go to stderr so they never corrupt JSON-RPC on stdout.
		logger := cli.NewLogger(cfg, cmd.ErrOrStderr())
		svc, err := cli.BuildService(cfg, logger, nil)
		if err != nil {
			return err
		}
		defer svc.Close()

		srv := mcp.NewServer(svc, govform.Version, mcp.WithLogger(logger))

		switch transport {
		case "stdio":
			logger.Info("Starting govform MCP Server (Stdio)...")
			return srv.ServeStdio()
		case "sse":
			sc := cli.NewSignalContext(cmd.Context())
			defer sc.Cancel()
			if err := srv.ServeSSE(sc, addr); err != nil {
				return err
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8081", "Address to listen on (only for SSE)")
}
