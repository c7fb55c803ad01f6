package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "career_agent",
	Short: "Career guidance flows over an LLM",
	Long: `career_agent runs the career guidance flows: goal setting, roadmaps, resume review,
networking, cover letters, job listings and chat. Use serve for the HTTP API, mcp for
an MCP stdio server, or run a single flow from the command line.

Settings are read from the environment (and a .env file when present). --config
points at an optional YAML or JSON file that overrides them.`,
	SilenceUsage: true,
}

var (
	configPath  string
	logLevel    string
	callTimeout time.Duration
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML or JSON config file (overrides environment values)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (defaults to LOG_LEVEL)")
	rootCmd.PersistentFlags().DurationVar(&callTimeout, "timeout", 2*time.Minute, "Deadline for each model call made by flow and chat (0 disables)")
}

// withCallTimeout bounds one model call by --timeout.
func withCallTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, callTimeout)
}

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
