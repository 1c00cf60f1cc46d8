package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/artisan/internal/cli"
	"github.com/aretw0/artisan/internal/logging"
	httpAdapter "github.com/aretw0/artisan/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP solver API",
	Long: `Serves the solver as a JSON API over HTTP:

  POST /solve          solve a request
  POST /solve/stream   solve a request, streaming events as NDJSON
  POST /simulate       replay a macro
  GET  /actions        list catalog actions
  GET  /strategies     list search strategies
  GET  /health         liveness
  GET  /metrics        Prometheus metrics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		maxBudget, _ := cmd.Flags().GetDuration("max-time-budget")

		opts := options(cmd)
		logger := logging.New(logging.Level(opts.Debug))

		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts.Registry = registry

		solver, closeStore, err := cli.NewSolver(opts, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		handler := httpAdapter.NewHandler(solver,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithMaxTimeBudget(maxBudget),
			httpAdapter.WithMetrics(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
		)

		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("Starting Artisan Server", "address", srv.Addr, "catalog", solver.Catalog().Name())
			serverErrors <- srv.ListenAndServe()
		}()

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case <-sigCtx.Done():
			logger.Info("Start shutdown", "signal", sigCtx.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("Artisan Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Duration("max-time-budget", httpAdapter.DefaultMaxTimeBudget, "Upper bound on the search time of a request")
}
