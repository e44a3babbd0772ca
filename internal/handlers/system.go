package handlers

import (
	"net/http"
	"time"

	domain "github.com/localmandi/storefront/internal/domain"
	"github.com/localmandi/storefront/internal/platform/httpx"
	"github.com/localmandi/storefront/internal/services"
)

// SystemHandlers exposes liveness and readiness endpoints. A nil system
// service reports liveness only; readiness then always succeeds.
type SystemHandlers struct {
	system  *services.SystemService
	started time.Time
}

// NewSystemHandlers constructs the health endpoints.
func NewSystemHandlers(system *services.SystemService) *SystemHandlers {
	return &SystemHandlers{
		system:  system,
		started: time.Now(),
	}
}

// Healthz reports process liveness.
func (h *SystemHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    time.Since(h.started).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Readyz collects dependency probes and reports readiness. Degraded
// dependencies still count as ready; only hard failures return 503.
func (h *SystemHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.system == nil {
		writeJSONResponse(w, http.StatusOK, map[string]any{"status": "ok"})
		return
	}

	report, err := h.system.Status(ctx)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("health_unavailable", "health collection failed", http.StatusServiceUnavailable))
		return
	}

	status := http.StatusOK
	if report.Status == domain.HealthStatusError {
		status = http.StatusServiceUnavailable
	}
	writeJSONResponse(w, status, report)
}
