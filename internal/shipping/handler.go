package shipping

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/worlddoor/fulfillment/internal/auth"
	"github.com/worlddoor/fulfillment/internal/platform/httpx"
	"github.com/worlddoor/fulfillment/internal/shared"
)

// Handler exposes the shipping endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers shipping routes for staff and admins.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(shared.RoleStaff, shared.RoleAdmin))
		r.Get("/shipping", h.board)
		r.Post("/shipping", h.create)
		r.Put("/shipping", h.update)
	})
}

func (h *Handler) board(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.Today(r.Context())
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, "shipping board", err)
		return
	}
	httpx.JSON(w, http.StatusOK, board)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sh, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, "create shipment", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sh)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sh, err := h.service.Update(r.Context(), in)
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, "update shipment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sh)
}
