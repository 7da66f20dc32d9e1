package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/tally/internal/cli"
	httpAdapter "github.com/aretw0/tally/pkg/adapters/http"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Exposes the calculator as a JSON API over HTTP, with per-session
history, mode toggles, server-sent events and Prometheus metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *cli.Runtime) error {
			addr := rt.Config.Server.Addr
			if cmd.Flags().Changed("addr") {
				addr, _ = cmd.Flags().GetString("addr")
			}

			opts := []httpAdapter.Option{
				httpAdapter.WithLogger(rt.Logger),
				httpAdapter.WithMaxInputSize(rt.Config.REPL.MaxInputSize),
			}
			if noMetrics, _ := cmd.Flags().GetBool("no-metrics"); !noMetrics {
				opts = append(opts, httpAdapter.WithMetrics(rt.Metrics.Handler()))
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           httpAdapter.NewHandler(rt.Engine, opts...),
				ReadHeaderTimeout: 10 * time.Second,
			}

			sc := cli.NewSignalContext(ctx)
			defer sc.Cancel()
			return serve(sc, srv, rt)
		})
	},
}

// serve runs srv until it fails or ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, rt *cli.Runtime) error {
	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		rt.Logger.Info("starting server", "addr", srv.Addr, "store", rt.Config.Store.Kind)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		rt.Logger.Info("shutting down server")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			rt.Logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("could not stop server: %w", err)
			}
		}
		rt.Logger.Info("server stopped gracefully")
		return nil
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().Bool("no-metrics", false, "Do not expose /metrics")
}
