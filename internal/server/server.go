// Package server exposes health, model cache and Prometheus endpoints.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reginold/slack-bot-agentic/internal/channels"
	"github.com/reginold/slack-bot-agentic/internal/logging"
	"github.com/reginold/slack-bot-agentic/internal/models"
)

// ModelHealth reports the model validator's state.
type ModelHealth interface {
	Status() (models.Status, bool)
	Cache() *models.Cache
}

// ChannelSource lists the registered chat channels.
type ChannelSource interface {
	All() []channels.Channel
}

// Server represents the HTTP server
type Server struct {
	version    string
	models     ModelHealth
	channels   ChannelSource
	httpServer *http.Server
	startTime  time.Time
	logger     *slog.Logger
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string                   `json:"status"`
	Version   string                   `json:"version"`
	Uptime    string                   `json:"uptime"`
	Services  map[string]ServiceHealth `json:"services"`
	Channels  map[string]bool          `json:"channels,omitempty"`
	Timestamp string                   `json:"timestamp"`
}

// ServiceHealth represents a service health status
type ServiceHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// ModelsResponse is the cached model list.
type ModelsResponse struct {
	Models    []string       `json:"models"`
	UpdatedAt string         `json:"updated_at,omitempty"`
	Startup   *models.Status `json:"startup,omitempty"`
}

// New creates a new HTTP server
func New(addr, version string, mh ModelHealth, cs ChannelSource, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Server{
		version:   version,
		models:    mh,
		channels:  cs,
		startTime: time.Now(),
		logger:    logger.With("component", "server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/api/v1/models", s.modelsHandler)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler reports "degraded" while the default model is not known to
// be valid. The bot keeps serving either way.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	services := map[string]ServiceHealth{
		"http": {Healthy: true, Message: "HTTP server running"},
	}
	status := "healthy"

	if s.models != nil {
		st, checked := s.models.Status()
		switch {
		case !checked:
			services["default_model"] = ServiceHealth{Healthy: false, Message: "not checked yet"}
			status = "degraded"
		case !st.Healthy:
			services["default_model"] = ServiceHealth{Healthy: false, Message: st.Error}
			status = "degraded"
		default:
			services["default_model"] = ServiceHealth{Healthy: true, Message: st.Model}
		}

		if snap, ok := s.models.Cache().Stale(); ok {
			services["model_cache"] = ServiceHealth{Healthy: true, Message: "updated " + snap.UpdatedAt.UTC().Format(time.RFC3339)}
		} else {
			services["model_cache"] = ServiceHealth{Healthy: false, Message: "empty"}
		}
	}

	var chans map[string]bool
	if s.channels != nil {
		chans = make(map[string]bool)
		for _, ch := range s.channels.All() {
			chans[ch.Name()] = ch.IsEnabled()
		}
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    status,
		Version:   s.version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Services:  services,
		Channels:  chans,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) modelsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.models == nil {
		http.Error(w, "model validation disabled", http.StatusNotFound)
		return
	}

	resp := ModelsResponse{Models: []string{}}
	if snap := s.models.Cache().Load(); snap != nil {
		resp.Models = append(resp.Models, snap.Models...)
		resp.UpdatedAt = snap.UpdatedAt.UTC().Format(time.RFC3339)
	}
	if st, ok := s.models.Status(); ok {
		resp.Startup = &st
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
