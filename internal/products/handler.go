package products

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/worlddoor/fulfillment/internal/auth"
	"github.com/worlddoor/fulfillment/internal/platform/httpx"
	"github.com/worlddoor/fulfillment/internal/shared"
)

// Fallback answers a failed list request with canned data.
type Fallback interface {
	ServeInventory(w http.ResponseWriter, r *http.Request, err error) bool
}

// Handler exposes the inventory endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	fallback Fallback
}

// NewHandler builds Handler. fallback may be nil.
func NewHandler(logger *slog.Logger, service *Service, fallback Fallback) *Handler {
	return &Handler{logger: logger, service: service, fallback: fallback}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticated())
		r.Get("/inventory", h.list)
		r.Get("/inventory/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(shared.RoleStaff, shared.RoleAdmin))
		r.Post("/inventory", h.create)
		r.Put("/inventory", h.update)
	})
	r.With(auth.RequireRole(shared.RoleAdmin)).Delete("/inventory", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.service.List(r.Context(), ListQuery{
		Page:     shared.ParsePositive(q.Get("page"), 1, 0),
		Limit:    shared.ParsePositive(q.Get("limit"), 20, 100),
		Status:   q.Get("status"),
		Category: q.Get("category"),
		Search:   q.Get("search"),
	})
	if err != nil {
		if h.fallback != nil && h.fallback.ServeInventory(w, r, err) {
			return
		}
		httpx.RespondErrorLogged(w, r, h.logger, "list inventory", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, "get product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

type productResponse struct {
	Success bool    `json:"success"`
	Product Product `json:"product"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Create(r.Context(), input)
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, "create product", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, productResponse{Success: true, Product: p})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var input UpdateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Update(r.Context(), input)
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, "update product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, productResponse{Success: true, Product: p})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.URL.Query().Get("id")); err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, "delete product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}
