// Package handler implements the HTTP handlers for the PlumeView API.
package handler

import (
	"net/http"
	"time"

	"github.com/plumeview/plumeview/internal/api/response"
	"github.com/plumeview/plumeview/internal/session"
)

// StatusFunc supplies extra ops status fields (reload metrics, breaker
// state). Optional.
type StatusFunc func() map[string]interface{}

// OpsHandler serves health and status endpoints.
type OpsHandler struct {
	version   string
	startedAt time.Time
	session   *session.Session
	status    StatusFunc
}

// NewOpsHandler creates an ops handler.
func NewOpsHandler(version string, s *session.Session, status StatusFunc) *OpsHandler {
	return &OpsHandler{
		version:   version,
		startedAt: time.Now(),
		session:   s,
		status:    status,
	}
}

// HealthCheck reports liveness.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	})
}

// SystemStatus reports the loaded dataset and reload job state.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":          "ok",
		"version":         h.version,
		"uptime":          time.Since(h.startedAt).String(),
		"timesteps":       h.session.TimestepCount(),
		"current_index":   h.session.CurrentIndex(),
		"playing":         h.session.Playing(),
		"forecast_ref":    h.session.Metadata().ForecastReferenceTime,
		"forecast_source": h.session.Metadata().Source,
	}
	if h.status != nil {
		body["ingest"] = h.status()
	}
	response.JSON(w, r, http.StatusOK, body)
}
