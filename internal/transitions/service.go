package transitions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/worlddoor/fulfillment/internal/labels"
	"github.com/worlddoor/fulfillment/internal/notifications"
	"github.com/worlddoor/fulfillment/internal/observability"
	"github.com/worlddoor/fulfillment/internal/platform/httpx"
	"github.com/worlddoor/fulfillment/internal/products"
	"github.com/worlddoor/fulfillment/internal/shared"
)

// Repository abstracts the writes a transition performs.
type Repository interface {
	GetProduct(ctx context.Context, id string) (products.Product, error)
	CompareAndSetStatus(ctx context.Context, id string, from, to products.Status) error
	SetStatus(ctx context.Context, id string, status products.Status) error
	SyncListings(ctx context.Context, productID, listingStatus string) (int64, error)
	CreateMockOrder(ctx context.Context, p products.Product, now time.Time) (MockOrder, error)
	DeleteTestOrders(ctx context.Context, productID string) (int, error)
}

// Notifier fans events out to sellers.
type Notifier interface {
	Notify(ctx context.Context, event notifications.Event, order notifications.OrderRef, items []notifications.Item) notifications.Result
}

// Service applies manual status transitions.
type Service struct {
	repo     Repository
	notifier Notifier
	activity shared.ActivityRecorder
	logger   *slog.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewService builds Service.
func NewService(repo Repository, notifier Notifier, activity shared.ActivityRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, notifier: notifier, activity: activity, logger: logger, now: time.Now}
}

// SetMetrics attaches workflow counters.
func (s *Service) SetMetrics(m *observability.Metrics) {
	s.metrics = m
}

var listingStatusFor = map[products.Status]string{
	products.StatusListing: "active",
	products.StatusSold:    "sold",
}

// decodeStatus accepts an enum value or a display label. Unknown input is
// returned as-is so Validate reports it against the allow-list.
func decodeStatus(raw string) products.Status {
	if v, err := labels.ProductStatus.Decode(raw); err == nil {
		return products.Status(v)
	}
	if v, err := labels.TransitionStatus.Decode(raw); err == nil {
		return products.Status(v)
	}
	return products.Status(raw)
}

// invalidLabel stands in for any status outside the product lifecycle so
// caller input never becomes a metric series.
const invalidLabel = "invalid"

func metricLabel(status products.Status) string {
	if !status.IsValid() {
		return invalidLabel
	}
	return string(status)
}

// Apply moves a product between allowed statuses. The write only happens
// while the stored status still equals the requested from status.
func (s *Service) Apply(ctx context.Context, req Request) (Response, error) {
	if err := httpx.ValidateStruct(req); err != nil {
		return Response{}, fmt.Errorf("productId, fromStatus, toStatusが必要です: %w", err)
	}
	if req.Reason == "" {
		req.Reason = DefaultReason
	}
	from, to := decodeStatus(req.FromStatus), decodeStatus(req.ToStatus)
	if err := Validate(from, to); err != nil {
		s.metrics.ObserveTransition(metricLabel(from), metricLabel(to), observability.ResultRejected)
		return Response{}, err
	}

	product, err := s.repo.GetProduct(ctx, req.ProductID)
	if err != nil {
		return Response{}, err
	}
	if err := s.repo.CompareAndSetStatus(ctx, product.ID, from, to); err != nil {
		s.metrics.ObserveTransition(string(from), string(to), observability.ResultRejected)
		return Response{}, err
	}
	now := s.now()

	if listingStatus, ok := listingStatusFor[to]; ok {
		if _, err := s.repo.SyncListings(ctx, product.ID, listingStatus); err != nil {
			s.logger.Warn("sync listings", slog.String("product_id", product.ID), slog.Any("error", err))
		}
	}

	var mock *MockOrder
	if to == products.StatusSold {
		order, err := s.repo.CreateMockOrder(ctx, product, now)
		if err != nil {
			s.logger.Warn("create mock order", slog.String("product_id", product.ID), slog.Any("error", err))
		} else {
			mock = &order
		}
	}

	meta := map[string]any{
		"fromStatus":    string(from),
		"toStatus":      string(to),
		"reason":        req.Reason,
		"isTestFeature": true,
		"mockOrderId":   nil,
		"timestamp":     now.UTC().Format(time.RFC3339),
	}
	if mock != nil {
		meta["mockOrderId"] = mock.ID
	}
	shared.RecordActivity(ctx, s.activity, s.logger, shared.Activity{
		Type:        "test_status_transition",
		Description: fmt.Sprintf("【テスト機能】商品「%s」のステータスを「%s」から「%s」に変更しました", product.Name, from, to),
		UserID:      shared.ActorID(ctx),
		ProductID:   product.ID,
		Metadata:    meta,
	})

	if from == products.StatusListing && to == products.StatusSold && product.SellerID != "" && s.notifier != nil {
		ref := notifications.OrderRef{}
		if mock != nil {
			ref = notifications.OrderRef{ID: mock.ID, OrderNumber: mock.OrderNumber}
		}
		s.notifier.Notify(ctx, notifications.EventOrderReadyForLabel, ref, []notifications.Item{{
			ProductID:   product.ID,
			ProductName: product.Name,
			SellerID:    product.SellerID,
			Price:       product.Price,
			Quantity:    1,
		}})
	}

	s.metrics.ObserveTransition(string(from), string(to), observability.ResultOK)
	return Response{
		Success:             true,
		ProductID:           product.ID,
		ProductName:         product.Name,
		PreviousStatus:      from,
		CurrentStatus:       to,
		PreviousStatusLabel: labels.TransitionStatus.Label(string(from)),
		CurrentStatusLabel:  labels.TransitionStatus.Label(string(to)),
		Message: fmt.Sprintf("商品ステータスを「%s」から「%s」に変更しました",
			labels.TransitionStatus.Label(string(from)), labels.TransitionStatus.Label(string(to))),
		MockOrder: mock,
		UpdatedAt: now,
	}, nil
}

// Reset removes the synthetic orders of a product and puts it back on sale.
func (s *Service) Reset(ctx context.Context, productID string) (ResetResponse, error) {
	if productID == "" {
		return ResetResponse{}, fmt.Errorf("%w: productIdが必要です", httpx.ErrValidation)
	}
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return ResetResponse{}, err
	}
	deleted, err := s.repo.DeleteTestOrders(ctx, productID)
	if err != nil {
		return ResetResponse{}, err
	}
	if err := s.repo.SetStatus(ctx, productID, products.StatusListing); err != nil {
		return ResetResponse{}, err
	}
	if _, err := s.repo.SyncListings(ctx, productID, listingStatusFor[products.StatusListing]); err != nil {
		s.logger.Warn("sync listings", slog.String("product_id", productID), slog.Any("error", err))
	}
	shared.RecordActivity(ctx, s.activity, s.logger, shared.Activity{
		Type:        "test_status_reset",
		Description: fmt.Sprintf("【テスト機能】商品「%s」をテスト前の状態にリセットしました", product.Name),
		UserID:      shared.ActorID(ctx),
		ProductID:   productID,
		Metadata: map[string]any{
			"resetToStatus":     string(products.StatusListing),
			"deletedTestOrders": deleted,
			"isTestFeature":     true,
			"timestamp":         s.now().UTC().Format(time.RFC3339),
		},
	})
	return ResetResponse{
		Success:           true,
		ProductID:         productID,
		DeletedTestOrders: deleted,
		Message:           "テスト用データを削除し、商品ステータスをリセットしました",
	}, nil
}
