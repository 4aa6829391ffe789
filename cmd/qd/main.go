// qd is the quadra command-line tool: puzzle pool inspection, manual
// generation, review, and the HTTP server that serves the cron fill
// endpoint.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quadra-game/quadra/internal/config"
	"github.com/quadra-game/quadra/internal/storage/sqlite"
	"github.com/quadra-game/quadra/internal/telemetry"
)

var (
	dbPath      string
	configDir   string
	jsonOutput  bool
	verboseFlag bool

	store *sqlite.Store

	// Signal-aware context for graceful cancellation
	rootCtx    context.Context
	rootCancel context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:   "qd",
	Short: "Quadra puzzle pipeline",
	Long: `qd manages the quadra puzzle content pipeline: a pool of
AI-generated connection groups, daily puzzle assembly, and the rolling
publishing window.

Common workflows:
  qd seed --genre films          Seed the connection-type taxonomy
  qd generate --genre films      Generate groups for the thinnest colors
  qd pool --genre films          Inspect pool health
  qd fill --genre films          Fill the publishing window
  qd serve                       Run the HTTP fill endpoint for cron`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dir := configDir
		if dir == "" {
			dir = config.DefaultDir()
		}
		// Peek at config.yaml before viper is up: a configured db-path may
		// point outside the quadra dir, and its directory must exist before
		// the sqlite driver can create the file.
		dataDir := dir
		if local := config.LoadLocalConfig(dir); local.DBPath != "" {
			dataDir = filepath.Dir(local.DBPath)
		}
		if err := os.MkdirAll(dataDir, 0o750); err != nil {
			return fmt.Errorf("failed to create quadra directory %s: %w", dataDir, err)
		}
		if err := config.Init(dir); err != nil {
			return err
		}
		return telemetry.Init(cmd.Context(), "quadra", Version)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		telemetry.Shutdown(context.Background())
		if store != nil {
			_ = store.Close()
		}
	},
}

// openStore opens the SQLite store lazily; commands that touch the database
// call this in their RunE.
func openStore(ctx context.Context) (*sqlite.Store, error) {
	if store != nil {
		return store, nil
	}
	path := dbPath
	if path == "" {
		path = config.DBPath()
	}
	s, err := sqlite.New(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}
	store = s
	return store, nil
}

func main() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer rootCancel()

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: from config)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Config directory (default: ~/.quadra)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(fillCmd)
	rootCmd.AddCommand(poolCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(seedCmd)

	if err := rootCmd.ExecuteContext(rootCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
