// Package server is the HTTP boundary: it resolves the output mode from the
// request path once, runs the pipeline, and renders JSON or M3U.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cricbox/willowcast/internal/config"
	"github.com/cricbox/willowcast/internal/metrics"
	"github.com/cricbox/willowcast/internal/willow"
)

// Mode selects the output document. It is resolved exactly once per request
// at this boundary and passed down; nothing re-derives it from the path.
type Mode int

const (
	ModeJSON Mode = iota
	ModePlaylist
)

// modeFor picks the output mode: a path containing the playlist token gets
// the M3U document, everything else gets JSON.
func modeFor(path, playlistToken string) Mode {
	if playlistToken != "" && strings.Contains(path, playlistToken) {
		return ModePlaylist
	}
	return ModeJSON
}

// Server serves the schedule endpoints plus /healthz, /metrics and /stream.
type Server struct {
	Pipeline *willow.Pipeline
	Cfg      *config.Config

	healthMu      sync.RWMutex
	lastRunOK     bool
	lastRunAt     time.Time
	lastRunErr    string
	everSucceeded bool
}

// New returns a Server around an already-wired pipeline.
func New(p *willow.Pipeline, cfg *config.Config) *Server {
	return &Server{Pipeline: p, Cfg: cfg}
}

// Handler builds the full mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/stream", s.handleStream)
	mux.HandleFunc("/", s.handleSchedule)
	return mux
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	mode := modeFor(r.URL.Path, s.Cfg.PlaylistToken)

	sched, err := s.Pipeline.Run(r.Context())
	s.recordRun(err)
	if err != nil {
		log.Printf("server: pipeline failed: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"failed to fetch schedule"}` + "\n"))
		return
	}

	switch mode {
	case ModePlaylist:
		w.Header().Set("Content-Type", "audio/x-mpegurl; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(renderPlaylist(sched.LiveEvents(), s.Cfg))
	default:
		body, err := json.MarshalIndent(sched, "", "  ")
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(body)
		w.Write([]byte("\n"))
	}
}

func (s *Server) recordRun(err error) {
	s.healthMu.Lock()
	defer s.healthMu.Unlock()
	s.lastRunAt = time.Now()
	s.lastRunOK = err == nil
	if err != nil {
		s.lastRunErr = err.Error()
	} else {
		s.lastRunErr = ""
		s.everSucceeded = true
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.healthMu.RLock()
	defer s.healthMu.RUnlock()
	status := struct {
		OK        bool   `json:"ok"`
		LastRun   string `json:"last_run,omitempty"`
		LastError string `json:"last_error,omitempty"`
	}{
		// Healthy until a run has failed; a cold process with no runs yet is
		// not a failure.
		OK:        s.lastRunOK || (!s.everSucceeded && s.lastRunAt.IsZero()),
		LastError: s.lastRunErr,
	}
	if !s.lastRunAt.IsZero() {
		status.LastRun = s.lastRunAt.UTC().Format(time.RFC3339)
	}
	w.Header().Set("Content-Type", "application/json")
	if !status.OK {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}
