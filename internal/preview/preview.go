// Package preview serves the output directory over HTTP together with
// a small JSON status endpoint, so a book author can inspect rendered
// pages and the latest build's classification without leaving the
// browser.
package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vk/chartbook/internal/compile"
	"github.com/vk/chartbook/internal/ctxlog"
	"github.com/vk/chartbook/internal/incremental"
)

// Status summarizes the most recent build for the /api/build endpoint.
type Status struct {
	Book       string    `json:"book"`
	BuiltAt    time.Time `json:"built_at"`
	Pages      []string  `json:"pages"`
	Views      []string  `json:"views"`
	Generated  []string  `json:"generated"`
	Unchanged  []string  `json:"unchanged"`
	Removed    []string  `json:"removed"`
	ForceBuild bool      `json:"force_build"`
}

// NewStatus derives a Status from a compilation result.
func NewStatus(bookPath string, res *compile.Result, force bool) Status {
	st := Status{
		Book:       bookPath,
		BuiltAt:    time.Now().UTC(),
		ForceBuild: force,
	}
	for _, page := range res.Pages {
		st.Pages = append(st.Pages, page.UnitID)
	}
	for _, view := range res.Views {
		st.Views = append(st.Views, view.Ref)
	}
	for _, d := range res.Decisions {
		switch d.Status {
		case incremental.StatusUnchanged:
			st.Unchanged = append(st.Unchanged, d.UnitID)
		case incremental.StatusRemoved:
			st.Removed = append(st.Removed, d.UnitID)
		default:
			st.Generated = append(st.Generated, d.UnitID)
		}
	}
	return st
}

// Server serves rendered artifacts and build status.
type Server struct {
	router chi.Router

	mu     sync.RWMutex
	status Status
}

// NewServer returns a preview server rooted at the given output
// directory.
func NewServer(outDir string, status Status) *Server {
	s := &Server{status: status}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", s.handleHealth)
	r.Get("/api/build", s.handleBuild)
	r.Handle("/*", http.FileServer(http.Dir(outDir)))
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetStatus replaces the build status served by /api/build.
func (s *Server) SetStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	status := s.status
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ListenAndServe blocks serving on the given port until the context is
// canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	logger := ctxlog.FromContext(ctx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Preview server listening.", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("preview shutdown failed: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("preview server failed: %w", err)
		}
		return nil
	}
}
