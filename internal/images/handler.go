package images

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/worlddoor/fulfillment/internal/auth"
	"github.com/worlddoor/fulfillment/internal/platform/httpx"
)

// Handler exposes image downloads.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers image routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticated())
		r.Get("/images/download", h.download)
		r.Post("/images/download", h.list)
	})
}

func splitIDs(raw string) []string {
	var out []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	imageID, productID, productIDs := q.Get("imageId"), q.Get("productId"), q.Get("productIds")

	switch {
	case imageID != "" && productID != "":
		file, err := h.service.Download(r.Context(), productID, imageID)
		if err != nil {
			httpx.RespondErrorLogged(w, r, h.logger, "download image", err)
			return
		}
		httpx.Attachment(w, file.ContentType, file.Filename, file.Data)
	case productIDs != "":
		body, err := h.service.Archive(r.Context(), splitIDs(productIDs), splitIDs(q.Get("imageIds")))
		if err != nil {
			httpx.RespondErrorLogged(w, r, h.logger, "archive images", err)
			return
		}
		httpx.Attachment(w, "application/zip", ArchiveName, body)
	default:
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "productIds または imageId が必要です")
	}
}

type listRequest struct {
	ProductID string `json:"productId"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	listing, err := h.service.List(r.Context(), req.ProductID)
	if err != nil {
		httpx.RespondErrorLogged(w, r, h.logger, "list images", err)
		return
	}
	httpx.JSON(w, http.StatusOK, listing)
}
