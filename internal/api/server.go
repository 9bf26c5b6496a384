package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"mediaremote/internal/dispatch"
	"mediaremote/internal/widget"

	"go.uber.org/zap"
)

// Server provides the HTTP surface of the widget: the projected view state
// for the presentation layer, and endpoints that feed user gestures back in.
type Server struct {
	widget *widget.Widget
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a new API server
func NewServer(w *widget.Widget, logger *zap.Logger, port int) *Server {
	s := &Server{
		widget: w,
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleSitemap)
	mux.HandleFunc("/api/view", s.handleView)
	mux.HandleFunc("/api/intent", s.handleIntent)
	mux.HandleFunc("/api/select", s.handleSelect)
	mux.HandleFunc("/api/overlay", s.handleOverlay)
	mux.HandleFunc("/api/mode", s.handleMode)
	mux.HandleFunc("/health", s.handleHealth)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// handleView returns the current projected view state as JSON
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.widget.View()); err != nil {
		s.logger.Error("Failed to encode view state", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.logger.Debug("View request served",
		zap.String("remote_addr", r.RemoteAddr))
}

// handleIntent accepts a user gesture and feeds it to the widget. The
// response is always 202: command outcomes are intentionally not surfaced.
func (s *Server) handleIntent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var in dispatch.Intent
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid intent payload", http.StatusBadRequest)
		return
	}
	if in.Kind == "" {
		http.Error(w, "Missing intent kind", http.StatusBadRequest)
		return
	}

	s.widget.HandleIntent(in)

	s.logger.Debug("Intent accepted",
		zap.String("kind", string(in.Kind)),
		zap.String("remote_addr", r.RemoteAddr))

	w.WriteHeader(http.StatusAccepted)
}

// SelectRequest is the payload for an explicit entity selection
type SelectRequest struct {
	EntityID string `json:"entity_id"`
}

// handleSelect applies an explicit entity choice from the user
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EntityID == "" {
		http.Error(w, "Invalid select payload", http.StatusBadRequest)
		return
	}

	s.widget.SelectEntity(req.EntityID)

	w.WriteHeader(http.StatusAccepted)
}

// OverlayRequest is the payload for a remote-overlay action
type OverlayRequest struct {
	Action string `json:"action"`
}

// handleOverlay drives the remote-control overlay state machine
func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req OverlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid overlay payload", http.StatusBadRequest)
		return
	}

	switch req.Action {
	case "open":
		s.widget.OpenOverlay()
	case "close":
		s.widget.CloseOverlay()
	case "toggle":
		s.widget.ToggleOverlay()
	case "dropdown":
		s.widget.ToggleSourceDropdown()
	default:
		http.Error(w, "Unknown overlay action", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// ModeRequest is the payload for switching display modes
type ModeRequest struct {
	Compact bool `json:"compact"`
}

// handleMode switches between compact and expanded display modes
func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid mode payload", http.StatusBadRequest)
		return
	}

	s.widget.SetCompact(req.Compact)

	w.WriteHeader(http.StatusAccepted)
}

// handleHealth returns a simple health check response
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// Endpoint represents an API endpoint with its documentation
type Endpoint struct {
	Path        string `json:"path"`
	Method      string `json:"method"`
	Description string `json:"description"`
}

// handleSitemap returns a list of all available API endpoints
func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	// Only handle requests to the root path
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	endpoints := []Endpoint{
		{
			Path:        "/",
			Method:      "GET",
			Description: "This sitemap - lists all available API endpoints",
		},
		{
			Path:        "/api/view",
			Method:      "GET",
			Description: "Get the projected view state of the widget",
		},
		{
			Path:        "/api/intent",
			Method:      "POST",
			Description: "Submit a user gesture (play_pause, seek, volume_set, directional, ...)",
		},
		{
			Path:        "/api/select",
			Method:      "POST",
			Description: "Explicitly select the focused media player entity",
		},
		{
			Path:        "/api/overlay",
			Method:      "POST",
			Description: "Drive the remote overlay (open, close, toggle, dropdown)",
		},
		{
			Path:        "/api/mode",
			Method:      "POST",
			Description: "Switch between compact and expanded display modes",
		},
		{
			Path:        "/health",
			Method:      "GET",
			Description: "Health check endpoint - returns {\"status\": \"ok\"}",
		},
	}

	// Return 404 status code (for automation compatibility) but with helpful body
	w.WriteHeader(http.StatusNotFound)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	fmt.Fprintf(w, "Media Remote Widget API\n")
	fmt.Fprintf(w, "=======================\n\n")
	fmt.Fprintf(w, "Available endpoints:\n\n")
	for _, ep := range endpoints {
		fmt.Fprintf(w, "  %-6s %-14s %s\n", ep.Method, ep.Path, ep.Description)
	}
	fmt.Fprintf(w, "\nExamples:\n\n")
	fmt.Fprintf(w, "  Get the view state:\n")
	fmt.Fprintf(w, "    curl http://localhost:8081/api/view | jq\n\n")
	fmt.Fprintf(w, "  Toggle playback:\n")
	fmt.Fprintf(w, "    curl -X POST http://localhost:8081/api/intent -d '{\"kind\":\"play_pause\"}'\n\n")

	s.logger.Debug("Sitemap request served",
		zap.String("remote_addr", r.RemoteAddr))
}

// Start begins serving HTTP requests
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP API server", zap.String("addr", s.server.Addr))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop() error {
	s.logger.Info("Stopping HTTP API server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	return nil
}
