package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/worlddoor/fulfillment/internal/activities"
	"github.com/worlddoor/fulfillment/internal/auth"
	"github.com/worlddoor/fulfillment/internal/images"
	"github.com/worlddoor/fulfillment/internal/inspection"
	"github.com/worlddoor/fulfillment/internal/notifications"
	"github.com/worlddoor/fulfillment/internal/observability"
	"github.com/worlddoor/fulfillment/internal/orders"
	"github.com/worlddoor/fulfillment/internal/picking"
	"github.com/worlddoor/fulfillment/internal/platform/httpx"
	"github.com/worlddoor/fulfillment/internal/products"
	"github.com/worlddoor/fulfillment/internal/reports"
	"github.com/worlddoor/fulfillment/internal/returns"
	"github.com/worlddoor/fulfillment/internal/shared"
	"github.com/worlddoor/fulfillment/internal/shipping"
	"github.com/worlddoor/fulfillment/internal/transitions"
	"github.com/worlddoor/fulfillment/jobs"
)

// RouterParams groups dependencies for building the HTTP router. Nil handlers
// are skipped.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	Metrics        *observability.Metrics
	Ready          func(r *http.Request) error

	AuthHandler          *auth.Handler
	ProductsHandler      *products.Handler
	TransitionsHandler   *transitions.Handler
	OrdersHandler        *orders.Handler
	NotificationsHandler *notifications.Handler
	InspectionHandler    *inspection.Handler
	ImagesHandler        *images.Handler
	PickingHandler       *picking.Handler
	ShippingHandler      *shipping.Handler
	ReturnsHandler       *returns.Handler
	ReportsHandler       *reports.Handler
	ActivitiesHandler    *activities.Handler
	JobHandler           *jobs.Handler
}

// NewRouter constructs the chi.Router with fulfillment defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if params.Ready != nil {
			if err := params.Ready(r); err != nil {
				httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		params.JobHandler.MountRoutes(r)
	}

	r.Route("/api", func(r chi.Router) {
		if params.AuthHandler != nil {
			params.AuthHandler.MountRoutes(r)
		}
		if params.ProductsHandler != nil {
			params.ProductsHandler.MountRoutes(r)
		}
		if params.TransitionsHandler != nil && params.Config.TestTransitionsMounted() {
			params.TransitionsHandler.MountRoutes(r)
		}
		if params.OrdersHandler != nil {
			params.OrdersHandler.MountRoutes(r)
		}
		if params.NotificationsHandler != nil {
			params.NotificationsHandler.MountRoutes(r)
		}
		if params.InspectionHandler != nil {
			params.InspectionHandler.MountRoutes(r)
		}
		if params.ImagesHandler != nil {
			params.ImagesHandler.MountRoutes(r)
		}
		if params.PickingHandler != nil {
			params.PickingHandler.MountRoutes(r)
		}
		if params.ShippingHandler != nil {
			params.ShippingHandler.MountRoutes(r)
		}
		if params.ReturnsHandler != nil {
			params.ReturnsHandler.MountRoutes(r)
		}
		if params.ReportsHandler != nil {
			params.ReportsHandler.MountRoutes(r)
		}
		if params.ActivitiesHandler != nil {
			params.ActivitiesHandler.MountRoutes(r)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "route not found")
	})
	return r
}
