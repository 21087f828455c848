// Command storeadvisor classifies JSON files as relational or
// document-oriented data, serves the HTTP API and watches inbox directories.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/usestring/storeadvisor/internal/config"
	"github.com/usestring/storeadvisor/internal/logging"
	"github.com/usestring/storeadvisor/internal/mcp"
	_ "github.com/usestring/storeadvisor/internal/store/backends"
)

var (
	logLevel  string
	logFile   string
	logFormat string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "storeadvisor",
		Short: "Recommend relational or document storage for JSON data",
		Long: `storeadvisor samples JSON records, infers their field types and decides
whether they belong in a relational table or a document collection. Relational
results come with a CREATE TABLE statement, document results with a sample
and a field profile.

Settings are read from the environment (MAX_SAMPLE, FLATTEN_DEPTH,
STORE_ENABLED, RELATIONAL_BACKEND, ...); flags override them.`,
		Version:       mcp.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Logging level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this rotated file instead of stderr")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (text, json)")

	root.AddCommand(newAnalyzeCmd(), newServeCmd(), newWatchCmd())
	return root
}

// loadConfig reads the environment and applies the global flags. The
// returned cleanup closes the log file.
func loadConfig() (*config.Config, func() error, error) {
	cfg := config.Load()
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}

	cleanup, err := logging.Setup(logging.FromConfig(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("setup logging: %w", err)
	}
	return cfg, cleanup, nil
}
