// Package mockfallback serves canned responses when the database is
// unreachable and the deployment opted in.
package mockfallback

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/worlddoor/fulfillment/internal/platform/httpx"
	"github.com/worlddoor/fulfillment/internal/products"
	"github.com/worlddoor/fulfillment/internal/shared"
)

// HeaderName marks responses built from canned data.
const HeaderName = "X-Mock-Fallback"

// Fallback decides whether a failed request is answered with mock data.
type Fallback struct {
	enabled bool
	logger  *slog.Logger
}

// New builds a Fallback. A disabled fallback never writes.
func New(enabled bool, logger *slog.Logger) *Fallback {
	return &Fallback{enabled: enabled, logger: logger}
}

// Enabled reports whether the fallback is switched on.
func (f *Fallback) Enabled() bool {
	return f != nil && f.enabled
}

// IsDatabaseError reports whether err came from the database layer rather
// than from request validation or domain rules.
func IsDatabaseError(err error) bool {
	if err == nil {
		return false
	}
	var (
		pgErr      *pgconn.PgError
		connectErr *pgconn.ConnectError
		netErr     net.Error
	)
	switch {
	case errors.As(err, &pgErr), errors.As(err, &connectErr), errors.As(err, &netErr):
		return true
	case errors.Is(err, context.DeadlineExceeded):
		return true
	default:
		return false
	}
}

// ServeInventory writes the canned inventory page when err qualifies.
// It returns false when the caller must report err itself.
func (f *Fallback) ServeInventory(w http.ResponseWriter, r *http.Request, err error) bool {
	if !f.Enabled() || !IsDatabaseError(err) {
		return false
	}
	if f.logger != nil {
		f.logger.Warn("serving mock inventory", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	w.Header().Set(HeaderName, "true")
	httpx.JSON(w, http.StatusOK, Inventory())
	return true
}

// Inventory returns the canned inventory page.
func Inventory() products.ListResult {
	items := []products.Product{
		{
			ID:          "mock-product-001",
			Name:        "Canon EOS R5 ボディ",
			SKU:         "TWD-CAM-001",
			Category:    "camera_body",
			Status:      products.StatusStorage,
			Price:       2800000,
			Condition:   "excellent",
			Description: "プロ仕様のミラーレスカメラ",
			Images:      []products.Image{},
			CreatedAt:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			UpdatedAt:   time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:          "mock-product-002",
			Name:        "Sony FE 24-70mm F2.8 GM",
			SKU:         "TWD-LEN-001",
			Category:    "lens",
			Status:      products.StatusListing,
			Price:       1980000,
			Condition:   "very_good",
			Description: "プロ仕様の標準ズームレンズ",
			Images:      []products.Image{},
			CreatedAt:   time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC),
			UpdatedAt:   time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC),
		},
	}
	return products.ListResult{Data: items, Pagination: shared.NewPagination(1, 20, len(items))}
}
