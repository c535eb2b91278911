package transitions

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/worlddoor/fulfillment/internal/auth"
	"github.com/worlddoor/fulfillment/internal/platform/httpx"
	"github.com/worlddoor/fulfillment/internal/shared"
)

// Handler exposes the manual transition endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the transition routes for staff and admins.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(shared.RoleStaff, shared.RoleAdmin))
		r.Get("/test/status-transition", h.allowed)
		r.Post("/test/status-transition", h.apply)
		r.Delete("/test/status-transition", h.reset)
	})
}

func (h *Handler) allowed(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"allowedTransitions": Allowed()})
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	resp, err := h.service.Apply(r.Context(), req)
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, "apply status transition", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Reset(r.Context(), r.URL.Query().Get("productId"))
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, "reset status transition", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}
