// Package graphtwin is a local stand-in for the Facebook Graph API.
//
// It serves seeded pages, posts and insights with the Graph response shapes,
// paging links and error envelopes, and can inject the failures the tap must
// handle: too-much-data responses, permission errors and server errors.
// Tests mount it with httptest; cmd/graph-twin serves it for development.
package graphtwin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Twin is the Graph API twin server.
type Twin struct {
	Router *chi.Mux
	Store  *Store
	Logger *slog.Logger
}

// New creates a twin serving store.
func New(store *Store, logger *slog.Logger) *Twin {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	t := &Twin{
		Router: chi.NewRouter(),
		Store:  store,
		Logger: logger,
	}

	t.Router.Use(chimw.RequestID)
	t.Router.Use(chimw.RealIP)
	t.Router.Use(t.requestLog)

	h := &handler{store: store}
	h.routes(t.Router)

	t.Router.Get("/_twin/requests", t.listRequests)
	t.Router.Post("/_twin/reset", t.reset)
	t.Router.Post("/_twin/faults", t.setFaults)
	return t
}

// ServeHTTP implements http.Handler so Twin can be used directly in tests.
func (t *Twin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t.Router.ServeHTTP(w, r)
}

// Serve listens on addr until ctx is cancelled.
func (t *Twin) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      t.Router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		t.Logger.Info("starting graph twin", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	t.Logger.Info("shutting down graph twin")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// statusRecorder captures the status code written by downstream handlers.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

// requestLog records every Graph request in the store.
func (t *Twin) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rec, r)

		if strings.HasPrefix(r.URL.Path, "/_twin") {
			return
		}
		query := make(map[string]string)
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		t.Store.Record(RequestLogEntry{
			Timestamp:  start,
			Method:     r.Method,
			Path:       r.URL.Path,
			Query:      query,
			Token:      requestToken(r),
			StatusCode: rec.statusCode,
		})
		t.Logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.statusCode,
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

func (t *Twin) listRequests(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"requests": t.Store.Requests()})
}

func (t *Twin) reset(w http.ResponseWriter, _ *http.Request) {
	t.Store.Reset()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (t *Twin) setFaults(w http.ResponseWriter, r *http.Request) {
	var f Faults
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		graphError(w, http.StatusBadRequest, 100, "GraphMethodException", fmt.Sprintf("invalid faults: %v", err))
		return
	}
	t.Store.SetFaults(f)
	writeJSON(w, http.StatusOK, f)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// graphError writes an error in the Graph API envelope.
func graphError(w http.ResponseWriter, status, code int, typ, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message":    message,
			"type":       typ,
			"code":       code,
			"fbtrace_id": "twin",
		},
	})
}

// requestToken returns the bearer token or access_token parameter.
func requestToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("access_token")
}
