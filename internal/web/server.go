package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hpungsan/draftpad/internal/ops"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// NewServer creates and configures the HTTP server for the draftpad web UI.
func NewServer(ctrl *ops.Controller, logger *slog.Logger, version, bind string, port int) (*http.Server, error) {
	h, err := newHandlers(ctrl, logger, version)
	if err != nil {
		return nil, err
	}

	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static sub-FS: %w", err)
	}

	mux := http.NewServeMux()
	h.routes(mux)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           securityHeaders(logRequests(h.logger, mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// newHandlers wires a Handlers with parsed templates and a fresh session store.
func newHandlers(ctrl *ops.Controller, logger *slog.Logger, version string) (*Handlers, error) {
	if logger == nil {
		logger = slog.Default()
	}
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("template sub-FS: %w", err)
	}
	logger = logger.With("component", "web")
	return &Handlers{
		ctrl:     ctrl,
		logger:   logger,
		renderer: NewRenderer(templateSub, version, logger),
		sessions: newSessionStore(),
	}, nil
}

// routes registers the draft routes using Go 1.22+ pattern syntax.
func (h *Handlers) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/drafts", http.StatusFound)
	})
	mux.HandleFunc("GET /drafts", h.HandleList)
	mux.HandleFunc("POST /drafts", h.HandleSave)
	mux.HandleFunc("POST /drafts/new", h.HandleNew)
	mux.HandleFunc("POST /drafts/copy", h.HandleCopyText)
	mux.HandleFunc("POST /drafts/preview", h.HandlePreview)
	mux.HandleFunc("GET /drafts/{id}", h.HandleEdit)
	mux.HandleFunc("GET /drafts/{id}/copy", h.HandleCopy)
	mux.HandleFunc("POST /drafts/{id}/pin", h.HandlePin)
	mux.HandleFunc("DELETE /drafts/{id}", h.HandleDelete)
	// HTML forms cannot send DELETE.
	mux.HandleFunc("POST /drafts/{id}/delete", h.HandleDelete)
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// logRequests logs one debug line per request.
func logRequests(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server, logger *slog.Logger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("draftpad UI running", "url", "http://"+srv.Addr)
	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		logger.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
