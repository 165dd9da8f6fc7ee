// Package api declares the HTTP contracts and route registration helpers
// the excluded collaborators (dashboards, agents, CLIs) consume.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sensei-hq/sensei/internal/app"
	"github.com/sensei-hq/sensei/internal/domain/model"
	"github.com/sensei-hq/sensei/pkg/metrics"
)

// Dependencies required by the HTTP handlers. An interface bundle keeps
// the handler layer loosely coupled to the manager implementation.
type Dependencies interface {
	AnalyzeEmployee(ctx context.Context, employeeID string) ([]model.SFIALevelSuggestion, error)
	AnalyzeDepartment(ctx context.Context, department string) (model.AnalysisResult, error)
	GetOrganizationInsights(ctx context.Context) (*app.OrganizationInsights, error)
	ConnectorStates() map[string]string
}

// Server wires HTTP routes for the engine API.
type Server struct {
	deps Dependencies
}

// NewServer creates a new API server.
func NewServer(deps Dependencies) *Server {
	return &Server{deps: deps}
}

// Register attaches all routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /employees/{id}/suggestions", s.handleEmployee)
	mux.HandleFunc("GET /departments/{name}/suggestions", s.handleDepartment)
	mux.HandleFunc("GET /insights", s.handleInsights)
}

type healthResponse struct {
	Status     string            `json:"status"`
	Connectors map[string]string `json:"connectors"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	states := s.deps.ConnectorStates()
	status := "ok"
	for _, state := range states {
		if state != "connected" {
			status = "degraded"
			break
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: status, Connectors: states})
}

func (s *Server) handleEmployee(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing employee id")
		return
	}
	suggestions, err := s.deps.AnalyzeEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

func (s *Server) handleDepartment(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing department name")
		return
	}
	result, err := s.deps.AnalyzeDepartment(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.deps.GetOrganizationInsights(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, insights)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
