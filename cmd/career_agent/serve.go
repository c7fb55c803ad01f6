package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/career-compass/internal/careers"
	"github.com/jonathan/career-compass/internal/config"
	"github.com/jonathan/career-compass/internal/server"
	"github.com/jonathan/career-compass/internal/tools"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	servePort     int
	serveMCPStdio bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server exposing authentication, profiles, applications, flows,
resume review, roadmaps and websocket chat. With --mcp-stdio the flows are also
served as MCP tools on stdin/stdout.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (defaults to PORT or 8080)")
	serveCmd.Flags().BoolVar(&serveMCPStdio, "mcp-stdio", false, "Also serve the flows as MCP tools over stdin/stdout")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if servePort != 0 {
		a.cfg.Port = servePort
	}

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return err
	}
	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return err
	}

	ctx, stop := stopOnSignal(cmd.Context())
	defer stop()

	store, err := a.openStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	blobs, err := a.openBlobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to open blob storage: %w", err)
	}
	publisher, err := a.openEvents()
	if err != nil {
		return err
	}
	defer publisher.Close()

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

	flows := careers.NewRegistry()
	srv, err := server.New(server.Config{
		Port:        a.cfg.Port,
		Store:       store,
		Blobs:       blobs,
		Events:      publisher,
		Flows:       flows,
		Invoker:     invoker,
		Jobs:        a.newJobFetcher(),
		Catalog:     catalog,
		JWT:         jwtConfig,
		Password:    passwordConfig,
		RateLimit:   a.cfg.RateLimit,
		CORSOrigins: a.cfg.CORSOrigins,
		Logger:      a.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer srv.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	if serveMCPStdio {
		mcpSrv, err := tools.NewMCPServer(tools.MCPDeps{
			Flows:   flows,
			Invoker: invoker,
			Catalog: catalog,
			Logger:  a.logger,
		})
		if err != nil {
			return err
		}
		g.Go(func() error {
			a.logger.Info("MCP server started (stdio transport)")
			return tools.ServeStdio(gctx, mcpSrv, cmd.InOrStdin(), cmd.OutOrStdout(), a.logger)
		})
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// stopOnSignal derives a context cancelled by SIGINT or SIGTERM.
func stopOnSignal(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
