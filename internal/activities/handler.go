package activities

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/worlddoor/fulfillment/internal/auth"
	"github.com/worlddoor/fulfillment/internal/platform/httpx"
	"github.com/worlddoor/fulfillment/internal/shared"
)

// Handler exposes the activity log.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers activity routes for staff and admins.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(shared.RoleStaff, shared.RoleAdmin))
		r.Get("/activities", h.list)
		r.Post("/activities", h.summary)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := ParseStart(q.Get("startDate"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	to, err := ParseEnd(q.Get("endDate"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	filter := Filter{
		Type:      q.Get("type"),
		UserID:    q.Get("userId"),
		ProductID: q.Get("productId"),
		OrderID:   q.Get("orderId"),
		From:      from,
		To:        to,
	}
	page, err := h.service.List(r.Context(), filter,
		shared.ParsePositive(q.Get("page"), 1, 0),
		shared.ParsePositive(q.Get("limit"), defaultLimit, maxLimit))
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, "list activities", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	var in SummaryInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	summary, err := h.service.Summary(r.Context(), in)
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, "summarise activities", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"summary": summary})
}
