package notifications

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/worlddoor/fulfillment/internal/auth"
	"github.com/worlddoor/fulfillment/internal/platform/httpx"
	"github.com/worlddoor/fulfillment/internal/shared"
)

// Handler exposes the notification inbox.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers notification routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticated())
		r.Get("/notifications", h.list)
		r.Post("/notifications/{id}/read", h.markRead)
		r.Get("/notifications/settings", h.settings)
		r.Put("/notifications/settings", h.updateSettings)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.service.Inbox(r.Context(), q.Get("unread") == "true", shared.ParsePositive(q.Get("limit"), 50, 200))
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, "list notifications", err)
		return
	}
	unread := 0
	for _, n := range items {
		if !n.Read {
			unread++
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"notifications": items, "unreadCount": unread})
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	if err := h.service.MarkRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, "mark notification read", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) settings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.Settings(r.Context())
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, "load notification settings", err)
		return
	}
	httpx.JSON(w, http.StatusOK, settings)
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var patch map[string]bool
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.RespondError(w, err)
		return
	}
	settings, err := h.service.UpdateSettings(r.Context(), patch)
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, "save notification settings", err)
		return
	}
	httpx.JSON(w, http.StatusOK, settings)
}
