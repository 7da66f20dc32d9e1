package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tally/internal/cli"
	"github.com/aretw0/tally/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the calculator as an MCP Server so AI agents can evaluate
expressions, apply transforms and manage session modes as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")
		baseURL, _ := cmd.Flags().GetString("base-url")

		return withRuntime(cmd, func(ctx context.Context, rt *cli.Runtime) error {
			srv := mcp.NewServer(rt.Engine, mcp.WithLogger(rt.Logger))

			switch transport {
			case "stdio":
				// Ensure logs don't corrupt JSON-RPC on Stdout
				log.SetOutput(os.Stderr)
				rt.Logger.Info("starting MCP server", "transport", transport)
				return srv.ServeStdio()
			case "sse":
				if baseURL == "" {
					baseURL = "http://localhost" + addr
				}
				sc := cli.NewSignalContext(ctx)
				defer sc.Cancel()
				if err := srv.ServeSSE(sc, addr, baseURL); err != nil {
					return err
				}
				rt.Logger.Info("MCP server stopped gracefully")
				return nil
			default:
				return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8081", "Address to listen on (only for SSE)")
	mcpCmd.Flags().String("base-url", "", "Public base URL announced to SSE clients")
}
