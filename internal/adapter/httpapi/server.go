// Package httpapi exposes the view state and its commands over HTTP, plus the
// operational health, readiness, and metrics endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seismoscope/quakeview/internal/domain"
)

// Controller is the view-state surface the API serves. Command methods mirror
// the user actions a presentational client would issue.
type Controller interface {
	Snapshot() domain.ViewState
	SetSearchText(text string)
	SelectSuggestionByID(placeID int64) bool
	SelectEventByID(id string) bool
	ClearSelection()
	ToggleTheme() domain.Theme
	CheckReadiness(ctx context.Context) error
}

// Server exposes the view-state API and the operational endpoints.
type Server struct {
	httpServer *http.Server
	controller Controller
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the API and operational routes.
func NewServer(addr string, controller Controller, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		controller: controller,
		logger:     logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/search", s.handleSearch)
	mux.HandleFunc("POST /api/events/select", s.handleSelectEvent)
	mux.HandleFunc("POST /api/suggestions/select", s.handleSelectSuggestion)
	mux.HandleFunc("DELETE /api/selection", s.handleClearSelection)
	mux.HandleFunc("POST /api/theme/toggle", s.handleToggleTheme)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.controller.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

type searchRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.controller.SetSearchText(req.Text)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

type selectEventRequest struct {
	ID string `json:"id"`
}

func (s *Server) handleSelectEvent(w http.ResponseWriter, r *http.Request) {
	var req selectEventRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, errors.New("id is required"))
		return
	}
	if !s.controller.SelectEventByID(req.ID) {
		writeError(w, http.StatusNotFound, errors.New("no such event: "+req.ID))
		return
	}
	writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

type selectSuggestionRequest struct {
	PlaceID int64 `json:"place_id"`
}

func (s *Server) handleSelectSuggestion(w http.ResponseWriter, r *http.Request) {
	var req selectSuggestionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !s.controller.SelectSuggestionByID(req.PlaceID) {
		writeError(w, http.StatusNotFound, errors.New("suggestion not in current set"))
		return
	}
	writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

func (s *Server) handleClearSelection(w http.ResponseWriter, _ *http.Request) {
	s.controller.ClearSelection()
	writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, _ *http.Request) {
	theme := s.controller.ToggleTheme()
	writeJSON(w, http.StatusOK, map[string]string{"theme": string(theme)})
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
