package picking

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/worlddoor/fulfillment/internal/auth"
	"github.com/worlddoor/fulfillment/internal/platform/httpx"
	"github.com/worlddoor/fulfillment/internal/shared"
)

// Handler exposes the picking board.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers picking routes for staff and admins.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(shared.RoleStaff, shared.RoleAdmin))
		r.Get("/picking", h.list)
		r.Post("/picking", h.act)
		r.Put("/picking", h.batch)
		r.Delete("/picking", h.history)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.service.List(r.Context(), q.Get("status"), q.Get("assignee"))
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, "list picking tasks", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) act(w http.ResponseWriter, r *http.Request) {
	var in ActInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Act(r.Context(), in)
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, "update picking task", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) batch(w http.ResponseWriter, r *http.Request) {
	var in BatchInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	task, err := h.service.CreateBatch(r.Context(), in)
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, "create batch picking", err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

// history answers DELETE /picking.
func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	days := shared.ParsePositive(r.URL.Query().Get("days"), defaultHistoryDays, 90)
	result, err := h.service.History(r.Context(), days)
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, "picking history", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
