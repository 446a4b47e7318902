package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/geometry", s.handleGeometry)
		r.Get("/status", s.handleStatus)
		r.Get("/events", s.handleEvents)
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// handleGeometry returns the resolved sensor geometry.
//
// Unknown devices return the zero-valued profile: the daemon runs degraded
// rather than refusing to answer.
func (s *Server) handleGeometry(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Profile())
}

// handleStatus returns the live controller and connection state.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status := map[string]any{
		"model":               string(s.controller.Profile().Model),
		"callback_registered": s.controller.CallbackRegistered(),
		"pending_brightness":  s.controller.PendingBrightness(),
		"mqtt_connected":      s.mqtt != nil && s.mqtt.IsConnected(),
		"seh_connected":       s.seh != nil && s.seh.IsConnected(),
	}
	if s.hub != nil {
		status["ws_clients"] = s.hub.ClientCount()
	}

	writeJSON(w, http.StatusOK, status)
}

// handleEvents returns recent events from the local history store,
// newest first. The limit query parameter caps the result set.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeUnavailable(w, "event history is disabled")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	entries, err := s.history.GetEvents(r.Context(), limit)
	if err != nil {
		s.logger.Error("querying event history", "error", err)
		writeInternalError(w, "querying event history failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": entries,
		"count":  len(entries),
	})
}
