// Package httpapi serves the upload and analysis endpoints over HTTP.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/usestring/storeadvisor/internal/ingest"
)

const shutdownTimeout = 10 * time.Second

// multipartOverhead is allowed on top of MAX_UPLOAD_BYTES for multipart
// boundaries and part headers.
const multipartOverhead = 64 << 10

// Server exposes an ingest.Service over HTTP.
type Server struct {
	svc *ingest.Service
	mux *http.ServeMux
}

// New creates a Server and registers its routes.
func New(svc *ingest.Service) *Server {
	s := &Server{svc: svc, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /upload/json", s.handleUpload)
	s.mux.HandleFunc("POST /analyze", s.handleAnalyze)
	s.mux.HandleFunc("GET /history", s.handleHistory)
	s.mux.HandleFunc("GET /history/{id}", s.handleEvent)
	s.mux.HandleFunc("GET /analytics", s.handleAnalytics)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

// Handler returns the routes wrapped in request-id and logging middleware.
func (s *Server) Handler() http.Handler {
	return CombinedMiddleware(s.mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	cfg := s.svc.Config()
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http api listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("http api shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
