package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/quadra-game/quadra/internal/config"
	"github.com/quadra-game/quadra/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP fill endpoint",
	Long: `Serve runs the HTTP server exposing GET|POST /api/pipeline/fill for
the cron dispatcher and manual triggers, plus /health. When cron-secret is
configured, fill requests must carry "Authorization: Bearer <secret>".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildService(cmd.Context())
		if err != nil {
			return err
		}

		srv := server.New(server.Config{
			Service: svc,
			Configs: store.PipelineConfigs(),
			Secret:  config.CronSecret(),
		})

		addr := serveAddr
		if addr == "" {
			addr = config.ListenAddr()
		}

		// Shut down on signal; Start blocks until then.
		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start(addr)
		}()
		fmt.Printf("Listening on %s\n", addr)

		select {
		case <-cmd.Context().Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: from config, :8090)")
}
