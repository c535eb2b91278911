package reports

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/worlddoor/fulfillment/internal/auth"
	"github.com/worlddoor/fulfillment/internal/platform/httpx"
	"github.com/worlddoor/fulfillment/internal/shared"
)

// Handler exposes monthly report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes. Cache invalidation is admin only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(shared.RoleStaff, shared.RoleAdmin))
		r.Get("/reports/monthly", h.periods)
		r.Post("/reports/monthly", h.generate)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(shared.RoleAdmin))
		r.Delete("/reports/monthly/cache", h.invalidate)
	})
}

func (h *Handler) periods(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"periods": h.service.Periods()})
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	var in GenerateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	doc, err := h.service.Generate(r.Context(), in)
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, "generate monthly report", err)
		return
	}
	httpx.Attachment(w, doc.ContentType, doc.Filename, doc.Body)
}

func (h *Handler) invalidate(w http.ResponseWriter, r *http.Request) {
	version, err := h.service.Invalidate(r.Context())
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, "invalidate report cache", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "version": version})
}
