package orders

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/worlddoor/fulfillment/internal/auth"
	"github.com/worlddoor/fulfillment/internal/platform/httpx"
	"github.com/worlddoor/fulfillment/internal/shared"
)

// Handler exposes the order endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers order routes for staff and admins.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(shared.RoleStaff, shared.RoleAdmin))
		r.Get("/orders", h.list)
		r.Post("/orders", h.create)
		r.Put("/orders", h.update)
	})
}

type orderResponse struct {
	Success bool  `json:"success"`
	Order   Order `json:"order"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.service.List(r.Context(), ListFilter{
		Status:     Status(q.Get("status")),
		CustomerID: q.Get("customerId"),
		Limit:      shared.ParsePositive(q.Get("limit"), defaultListLimit, 200),
	})
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, "list orders", err)
		return
	}
	if list == nil {
		list = []Order{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.Create(r.Context(), in, r.Header.Get("Idempotency-Key"))
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, "create order", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, orderResponse{Success: true, Order: order})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.Update(r.Context(), in)
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, "update order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, orderResponse{Success: true, Order: order})
}
