package inspection

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/worlddoor/fulfillment/internal/platform/httpx"
)

// Handler exposes checklist endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers checklist routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/inspection/checklists/{category}", h.template)
	r.Get("/products/{id}/inspection-checklist", h.get)
	r.Put("/products/{id}/inspection-checklist", h.save)
}

func (h *Handler) template(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.Template(chi.URLParam(r, "category")))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	checklist, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, "load inspection checklist", err)
		return
	}
	httpx.JSON(w, http.StatusOK, checklist)
}

type saveRequest struct {
	Data Data `json:"data" validate:"required"`
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	checklist, err := h.service.Save(r.Context(), chi.URLParam(r, "id"), req.Data)
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, "save inspection checklist", err)
		return
	}
	httpx.JSON(w, http.StatusOK, checklist)
}
