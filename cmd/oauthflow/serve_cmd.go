package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jrsteele09/go-oauth-flows/internal/config"
	"github.com/jrsteele09/go-oauth-flows/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Host the OAuth callback and flow endpoints",
		Long: `Host the OAuth callback on BASE_URL + /oauth together with the endpoints the
request editor uses to start flows.

Configuration is read from the environment (PORT, BASE_URL, STORE, ...).`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	displayAppname(cmd.OutOrStdout(), cfg.GetAppName())
	handler, err := server.New(cfg, a.router,
		server.WithLogger(a.logger),
		server.WithMetrics(a.metrics),
		server.WithHTTPClient(a.client),
	)
	if err != nil {
		return err
	}

	httpServer := &http.Server{Addr: cfg.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	return serveUntilDone(ctx, httpServer, a)
}

// serveUntilDone runs httpServer until ctx ends or the listener fails, then shuts it down.
func serveUntilDone(ctx context.Context, httpServer *http.Server, a *app) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- listenAndServe(httpServer, a)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	return shutdown(httpServer)
}

func listenAndServe(httpServer *http.Server, a *app) error {
	a.logger.Info().Str("addr", httpServer.Addr).Str("store", a.config.GetStore()).Msg("Server listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
