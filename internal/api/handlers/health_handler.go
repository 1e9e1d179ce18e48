package handlers

import (
	"context"
	"net/http"

	"github.com/isdelr/prep-deck-be/internal/monitoring"
)

// HealthProbe reports process health.
type HealthProbe interface {
	Check(ctx context.Context) monitoring.Health
}

// HealthHandler serves the health endpoint.
type HealthHandler struct {
	probe HealthProbe
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(probe HealthProbe) *HealthHandler {
	return &HealthHandler{probe: probe}
}

// Get responds 200 when healthy and 503 otherwise.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	report := h.probe.Check(r.Context())
	status := http.StatusOK
	if report.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}
