package main

import (
	"github.com/jonathan/career-compass/internal/careers"
	"github.com/jonathan/career-compass/internal/tools"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the flows as MCP tools over stdin/stdout",
	Long: `Run an MCP server on stdin/stdout. Every flow becomes a tool whose argument
schema is the flow's input schema; the featured roadmaps are offered as a search
tool and a resource. Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	ctx, stop := stopOnSignal(cmd.Context())
	defer stop()

	invoker, client, err := a.newInvoker(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	catalog, err := newCatalog()
	if err != nil {
		return err
	}
	defer catalog.Close()

	s, err := tools.NewMCPServer(tools.MCPDeps{
		Flows:   careers.NewRegistry(),
		Invoker: invoker,
		Catalog: catalog,
		Logger:  a.logger,
	})
	if err != nil {
		return err
	}
	return tools.ServeStdio(ctx, s, cmd.InOrStdin(), cmd.OutOrStdout(), a.logger)
}
