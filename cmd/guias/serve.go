package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	httpapi "github.com/tbourn/go-guias-backend/internal/http"
	"github.com/tbourn/go-guias-backend/internal/observability"
	"github.com/tbourn/go-guias-backend/internal/sysutil"
)

// shutdownTimeout bounds graceful shutdown of the HTTP server and exporters.
const shutdownTimeout = 10 * time.Second

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serves the scan desk API on PORT until SIGINT or SIGTERM, then drains
in-flight requests and flushes traces before exiting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := sysutil.ShutdownContext(cmd.Context())
			defer stop()

			ln, err := net.Listen("tcp", ":"+a.cfg.Port)
			if err != nil {
				return err
			}
			return a.serve(ctx, ln)
		},
	}
}

// serve runs the API on ln until ctx is canceled.
func (a *app) serve(ctx context.Context, ln net.Listener) error {
	shutdownTracing, err := observability.SetupTracing(ctx, a.cfg.OTEL, appVersion())
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			a.log.Warn().Err(err).Msg("tracer shutdown")
		}
	}()

	b, err := a.openBackend(ctx)
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			a.log.Warn().Err(err).Msg("backend close")
		}
	}()

	gin.SetMode(a.cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, b.db, b.svc, a.cfg)

	srv := &http.Server{
		Handler:           r,
		ReadTimeout:       a.cfg.ReadTimeout,
		ReadHeaderTimeout: a.cfg.ReadHeaderTimeout,
		WriteTimeout:      a.cfg.WriteTimeout,
		IdleTimeout:       a.cfg.IdleTimeout,
		MaxHeaderBytes:    a.cfg.MaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return a.log.WithContext(context.Background()) },
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().
			Str("addr", ln.Addr().String()).
			Str("api_base", a.cfg.APIBasePath).
			Str("version", appVersion()).
			Msg("listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
