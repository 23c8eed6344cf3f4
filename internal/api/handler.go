// Package api exposes the incident archiver's HTTP surface: the inbound
// webhook endpoint, a health check and a service metadata root.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"incident-archiver/internal/archive"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Endpoint paths.
const (
	BasePath      = "/api/v1/incident-management"
	IncidentsPath = BasePath + "/incidents"
	HealthPath    = BasePath + "/health"
)

const serviceName = "incident-management"

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

// Processor runs the archival pipeline for one validated payload.
type Processor interface {
	Process(ctx context.Context, payload archive.IncidentPayload) (*archive.Result, error)
}

// envelope is the response wrapper of the incidents endpoint.
type envelope struct {
	Success bool            `json:"success"`
	Data    *archive.Result `json:"data,omitempty"`
	Message string          `json:"message"`
}

// Handler serves the archiver's HTTP endpoints.
type Handler struct {
	pipeline       Processor
	docsDir        string
	attachmentsDir string
}

// NewHandler creates the HTTP handler around the pipeline. The directory
// paths only appear in the root metadata response.
func NewHandler(pipeline Processor, docsDir, attachmentsDir string) *Handler {
	return &Handler{
		pipeline:       pipeline,
		docsDir:        docsDir,
		attachmentsDir: attachmentsDir,
	}
}

// Register attaches all routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc(IncidentsPath, h.handleIncident)
	mux.HandleFunc(HealthPath, h.handleHealth)
	mux.HandleFunc("/", h.handleRoot)
}

// handleIncident receives a resolved-incident payload and runs the pipeline.
// Validation failures reject the request before any side effect; a render
// failure is the only server error.
func (h *Handler) handleIncident(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	var payload archive.IncidentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Warn().Err(err).Msg("Incident payload undecodable")
		httpError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := payload.Validate(); err != nil {
		log.Warn().Err(err).Str("incident", payload.IncidentNumber).Msg("Incident payload invalid")
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.pipeline.Process(r.Context(), payload)
	if err != nil {
		log.Error().Err(err).Str("incident", payload.IncidentNumber).Msg("Incident processing failed")
		httpError(w, http.StatusInternalServerError, "failed to process incident: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    result,
		Message: fmt.Sprintf("Incident %s processed successfully", payload.IncidentNumber),
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   serviceName,
	})
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "ServiceNow Incident Archiver",
		"version": "1.0.0",
		"directories": map[string]string{
			"incident_docs": h.docsDir,
			"attachments":   h.attachmentsDir,
		},
		"endpoints": map[string]string{
			"incidents": IncidentsPath,
			"health":    HealthPath,
		},
	})
}
