// Package server wires the HTTP routes and runs the listener.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/dxf2gml/internal/core/config"
	"github.com/mohammed-shakir/dxf2gml/internal/core/health"
	middleware "github.com/mohammed-shakir/dxf2gml/internal/core/middleware"
	"github.com/mohammed-shakir/dxf2gml/internal/core/router"
)

type Deps struct {
	Converter router.Converter
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	// Ready lists the dependencies checked by /readyz.
	Ready map[string]health.Pinger
}

// NewHandler builds the route tree.
func NewHandler(cfg config.Config, logger *slog.Logger, d Deps) http.Handler {
	lim := router.Limits{MaxUploadBytes: cfg.MaxUploadBytes, DefaultCode: cfg.Code}

	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	r.Get("/", router.RedirectRoot())
	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(cfg.CacheOpTimeout*4, d.Ready))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}
	// any method reaches the handlers, which answer 400 for non-POST
	r.HandleFunc(router.RouteGML, router.HandleGML(logger, lim, d.Converter))
	r.HandleFunc(router.RouteJSON, router.HandleJSON(logger, lim, d.Converter))
	return r
}

// Run serves until ctx is done.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, d Deps) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(cfg, logger, d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
