// Package api serves the dashboard analytics as JSON over HTTP.
package api

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Veraticus/spice-dashboard/internal/engine"
)

const shutdownTimeout = 10 * time.Second

// Server routes dashboard requests to an engine.
type Server struct {
	engine *engine.Engine
	router chi.Router
}

// NewServer builds the router for e.
func NewServer(e *engine.Engine) *Server {
	s := &Server{engine: e}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/reports/monthly/{year}/{month}", s.handleMonthlyReport)
		r.Get("/reports/yearly/{year}", s.handleYearlyReport)

		r.Get("/forecast", s.handleForecast)
		r.Get("/cashflow", s.handleCashFlow)
		r.Get("/recurring", s.handleRecurring)

		r.Get("/budgets", s.handleBudgets)

		r.Get("/limits", s.handleLimits)
		r.Post("/limits/check", s.handleCheckTransaction)

		r.Get("/goals", s.handleGoals)
		r.Get("/goals/{id}/whatif", s.handleWhatIf)
	})

	s.router = r
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves plain HTTP on addr until ctx is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	return s.run(ctx, addr, nil)
}

// ListenAndServeTLS is ListenAndServe over HTTPS with tlsConfig's
// certificates.
func (s *Server) ListenAndServeTLS(ctx context.Context, addr string, tlsConfig *tls.Config) error {
	return s.run(ctx, addr, tlsConfig)
}

func (s *Server) run(ctx context.Context, addr string, tlsConfig *tls.Config) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "addr", addr, "tls", tlsConfig != nil)
		if tlsConfig != nil {
			errCh <- srv.ListenAndServeTLS("", "")
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
