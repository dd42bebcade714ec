// Package server exposes a read-only JSON API over the published feed,
// the pending set, the archive, and run metrics.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/thebeakers/spsdaily/internal/metrics"
	"github.com/thebeakers/spsdaily/internal/store"
	"github.com/thebeakers/spsdaily/pkg/curate"
	"github.com/thebeakers/spsdaily/pkg/pipeline"
)

// Server provides the HTTP API.
type Server struct {
	store       store.Store
	counters    *metrics.Counters
	feedPath    string
	pendingPath string
	port        int
}

// New creates a new HTTP server.
func New(s store.Store, counters *metrics.Counters, feedPath, pendingPath string, port int) *Server {
	if port == 0 {
		port = 8080
	}
	return &Server{
		store:       s,
		counters:    counters,
		feedPath:    feedPath,
		pendingPath: pendingPath,
		port:        port,
	}
}

// Handler returns the route table. Split out so tests can drive it with
// httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/feed", s.handleFeed)
	mux.HandleFunc("/api/v1/pending", s.handlePending)
	mux.HandleFunc("/api/v1/archive", s.handleArchive)
	mux.HandleFunc("/api/v1/metrics", s.handleMetrics)
	return mux
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.port)
	fmt.Printf("spsdaily server listening on %s\n", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	feed, err := curate.LoadFeed(s.feedPath)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	pending, err := pipeline.LoadPending(s.pendingPath)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	count := 0
	for _, list := range pending {
		count += len(list)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":  pending,
		"count": count,
	})
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	opts := store.ArchiveListOpts{Limit: 100}
	if category := r.URL.Query().Get("category"); category != "" {
		opts.Category = category
	}
	if since := r.URL.Query().Get("since"); since != "" {
		if _, err := time.Parse("2006-01-02", since); err == nil {
			opts.Since = since
		}
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			opts.Limit = n
		}
	}

	entries, err := s.store.ListArchive(r.Context(), opts)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":  entries,
		"count": len(entries),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, s.counters.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
