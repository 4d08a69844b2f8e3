package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/guttosm/flexledger/config"
	"github.com/guttosm/flexledger/internal/logger"
	"github.com/guttosm/flexledger/internal/service"
)

func newServeCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API (and the poll loop when POLL_INTERVAL > 0)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = config.AppConfig.Server.Port
			}

			a, cleanup, err := initializeApp(cmd.Context())
			if err != nil {
				return err
			}
			return serve(cmd.Context(), a.Router, a.Pipeline, port, config.AppConfig.Sync.PollInterval, cleanup)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Port for the API server (default SERVER_PORT)")
	return cmd
}

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// serve runs the HTTP server and the poll loop until SIGINT/SIGTERM or ctx is done.
// cleanup runs only after both have stopped.
func serve(ctx context.Context, router http.Handler, pipeline service.PipelineService, port string, interval time.Duration, cleanup func()) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	server := startServer(router, port)
	g.Go(func() error {
		return pollLoop(gctx, pipeline, interval)
	})
	g.Go(func() error {
		gracefulShutdown(gctx, server)
		return nil
	})

	err := g.Wait()
	cleanup()
	logger.L().Info().Msg("server exited gracefully")
	return err
}

// gracefulShutdown waits for ctx to be done and then drains the HTTP server.
//
// Parameters:
//   - ctx (context.Context): Cancelled on an OS signal or when a sibling worker fails.
//   - server (*http.Server): The HTTP server instance to shut down.
func gracefulShutdown(ctx context.Context, server *http.Server) {
	<-ctx.Done()
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Error().Err(err).Msg("server forced to shutdown")
	}
}

// pollLoop runs sync + reconcile immediately and then every interval until ctx is done.
// A non-positive interval disables polling. Run failures are logged and never stop the loop.
func pollLoop(ctx context.Context, pipeline service.PipelineService, interval time.Duration) error {
	if interval <= 0 {
		logger.L().Info().Msg("polling disabled")
		return nil
	}

	log := logger.With("poller")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res, err := pipeline.Run(ctx)
		switch {
		case errors.Is(err, service.ErrRunInProgress):
			log.Warn().Msg("previous run still in progress, skipping tick")
		case err != nil:
			log.Error().Err(err).Str("run_id", res.RunID).Msg("scheduled run failed")
		default:
			logRun("poll", res)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
