package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/localmandi/storefront/internal/platform/httpx"
	"github.com/localmandi/storefront/internal/services"
)

// ViewHandlers exposes the derived cart views: the badge counter and the
// side panel. Both serve from their in-memory state without touching the
// cart store.
type ViewHandlers struct {
	badge *services.BadgeView
	panel *services.PanelView
}

// NewViewHandlers constructs handlers over the running views.
func NewViewHandlers(badge *services.BadgeView, panel *services.PanelView) *ViewHandlers {
	return &ViewHandlers{
		badge: badge,
		panel: panel,
	}
}

// Routes wires the /views endpoints onto the provided router.
func (h *ViewHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/badge", h.getBadge)
	r.Get("/panel", h.getPanel)
}

func (h *ViewHandlers) getBadge(w http.ResponseWriter, r *http.Request) {
	if h.badge == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("view_unavailable", "badge view is unavailable", http.StatusServiceUnavailable))
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"count": h.badge.Count()})
}

func (h *ViewHandlers) getPanel(w http.ResponseWriter, r *http.Request) {
	if h.panel == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("view_unavailable", "panel view is unavailable", http.StatusServiceUnavailable))
		return
	}
	writeJSONResponse(w, http.StatusOK, h.panel.Snapshot())
}
