package orders

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

const (
	defaultListLimit  = 50
	idempotencyModule = "orders"
)

// RepositoryPort describes the persistence the service needs.
type RepositoryPort interface {
	List(ctx context.Context, filter ListFilter) ([]Order, error)
	Get(ctx context.Context, id string) (Order, error)
	CustomerExists(ctx context.Context, id string) (bool, error)
	AvailableProducts(ctx context.Context, ids []string) (map[string]ProductSummary, error)
	Create(ctx context.Context, o Order) (Order, error)
	Update(ctx context.Context, id string, changes map[string]any) (Order, error)
	SetProductStatus(ctx context.Context, productID string, status products.Status) error
}

// Notifier fans events out to sellers.
type Notifier interface {
	Notify(ctx context.Context, event notifications.Event, order notifications.OrderRef, items []notifications.Item) notifications.Result
}

// Service implements order workflows.
type Service struct {
	repo        RepositoryPort
	notifier    Notifier
	activity    shared.ActivityRecorder
	idempotency shared.IdempotencyGuard
	logger      *slog.Logger
	metrics     *observability.Metrics
	now         func() time.Time
}

// NewService builds Service. notifier, activity and idem may be nil.
func NewService(repo RepositoryPort, notifier Notifier, activity shared.ActivityRecorder, idem shared.IdempotencyGuard, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, notifier: notifier, activity: activity, idempotency: idem, logger: logger, now: time.Now}
}

// SetMetrics attaches workflow counters.
func (s *Service) SetMetrics(m *observability.Metrics) {
	s.metrics = m
}

// List returns orders newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Status != "" {
		status, err := decodeStatus(string(filter.Status))
		if err != nil {
			return nil, err
		}
		filter.Status = status
	}
	return s.repo.List(ctx, filter)
}

// Create places an order for products that are in storage or listed.
// A non-empty idempotency key is claimed before any write and released when
// the order cannot be created.
func (s *Service) Create(ctx context.Context, in CreateInput, idempotencyKey string) (order Order, err error) {
	if err := httpx.ValidateStruct(in); err != nil {
		return Order{}, fmt.Errorf("顧客ID、商品情報が必要です: %w", err)
	}
	if idempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, idempotencyKey, idempotencyModule); err != nil {
			return Order{}, err
		}
		defer func() {
			if err != nil {
				_ = s.idempotency.Delete(ctx, idempotencyKey, idempotencyModule)
			}
		}()
	}

	exists, err := s.repo.CustomerExists(ctx, in.CustomerID)
	if err != nil {
		return Order{}, err
	}
	if !exists {
		return Order{}, ErrCustomerNotFound
	}

	ids := make([]string, len(in.Items))
	for i, it := range in.Items {
		ids[i] = it.ProductID
	}
	available, err := s.repo.AvailableProducts(ctx, ids)
	if err != nil {
		return Order{}, err
	}

	now := s.now()
	order = Order{
		OrderNumber:     shared.TimestampCode("ORD", "-", now, shared.RandomCode(5)),
		CustomerID:      in.CustomerID,
		Status:          StatusPending,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		Notes:           in.Notes,
		Items:           make([]Item, 0, len(in.Items)),
	}
	for _, it := range in.Items {
		p, ok := available[it.ProductID]
		if !ok {
			return Order{}, ErrProductsUnavailable
		}
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		price := it.Price
		if price <= 0 {
			price = p.Price
		}
		summary := p
		order.Items = append(order.Items, Item{ProductID: it.ProductID, Quantity: qty, Price: price, Product: &summary})
		order.TotalAmount += price * int64(qty)
	}

	order, err = s.repo.Create(ctx, order)
	if err != nil {
		return Order{}, err
	}
	shared.RecordActivity(ctx, s.activity, s.logger, shared.Activity{
		Type:        "order_created",
		Description: fmt.Sprintf("新しい注文 %s が作成されました", order.OrderNumber),
		UserID:      shared.ActorID(ctx),
		OrderID:     order.ID,
		Metadata: map[string]any{
			"orderNumber": order.OrderNumber,
			"totalAmount": order.TotalAmount,
			"itemCount":   len(in.Items),
		},
	})
	return order, nil
}

// UpdateStatus changes only the order status and cascades it to products.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status Status) (Order, error) {
	raw := string(status)
	return s.Update(ctx, UpdateInput{OrderID: orderID, Status: &raw})
}

// Update applies a partial update. A status change is written to the order
// first and then to each item's product one at a time. The first failing
// product stops the cascade and earlier products keep their new status.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Order, error) {
	if err := httpx.ValidateStruct(in); err != nil {
		return Order{}, fmt.Errorf("注文IDが必要です: %w", err)
	}
	existing, err := s.repo.Get(ctx, in.OrderID)
	if err != nil {
		return Order{}, err
	}

	changes := map[string]any{}
	var status Status
	if in.Status != nil && *in.Status != "" {
		status, err = decodeStatus(*in.Status)
		if err != nil {
			return Order{}, err
		}
		changes["status"] = status
		switch status {
		case StatusShipped:
			changes["shipped_at"] = s.now()
		case StatusDelivered:
			changes["delivered_at"] = s.now()
		}
	}
	if in.ShippingAddress != nil {
		changes["shipping_address"] = *in.ShippingAddress
	}
	if in.PaymentMethod != nil {
		changes["payment_method"] = *in.PaymentMethod
	}
	if in.Notes != nil {
		changes["notes"] = *in.Notes
	}
	if len(changes) == 0 {
		return existing, nil
	}

	updated, err := s.repo.Update(ctx, in.OrderID, changes)
	if err != nil {
		return Order{}, err
	}

	if status != "" {
		if err := s.cascade(ctx, existing, status); err != nil {
			return Order{}, err
		}
		s.notify(ctx, existing, status)
	}

	shared.RecordActivity(ctx, s.activity, s.logger, shared.Activity{
		Type:        "order_updated",
		Description: fmt.Sprintf("注文 %s が更新されました", existing.OrderNumber),
		UserID:      shared.ActorID(ctx),
		OrderID:     existing.ID,
		Metadata: map[string]any{
			"fromStatus": string(existing.Status),
			"toStatus":   string(status),
			"changes": map[string]any{
				"status":          in.Status,
				"shippingAddress": in.ShippingAddress,
				"paymentMethod":   in.PaymentMethod,
				"notes":           in.Notes,
			},
		},
	})
	return updated, nil
}

func (s *Service) cascade(ctx context.Context, order Order, status Status) error {
	target, ok := CascadeStatus(status)
	if !ok {
		return nil
	}
	for i, it := range order.Items {
		if err := s.repo.SetProductStatus(ctx, it.ProductID, target); err != nil {
			s.metrics.ObserveCascade(string(status), observability.ResultFailed)
			return &CascadeError{OrderID: order.ID, ProductID: it.ProductID, Applied: i, Err: err}
		}
	}
	s.metrics.ObserveCascade(string(status), observability.ResultOK)
	return nil
}

var statusEvents = map[Status]notifications.Event{
	StatusShipped:   notifications.EventShippingComplete,
	StatusDelivered: notifications.EventProductSold,
}

func (s *Service) notify(ctx context.Context, order Order, status Status) {
	event, ok := statusEvents[status]
	if !ok || s.notifier == nil {
		return
	}
	items := make([]notifications.Item, 0, len(order.Items))
	for _, it := range order.Items {
		if it.Product == nil || it.Product.SellerID == "" {
			continue
		}
		items = append(items, notifications.Item{
			ProductID:   it.ProductID,
			ProductName: it.Product.Name,
			SellerID:    it.Product.SellerID,
			Price:       it.Price,
			Quantity:    it.Quantity,
		})
	}
	if len(items) == 0 {
		return
	}
	s.notifier.Notify(ctx, event, notifications.OrderRef{ID: order.ID, OrderNumber: order.OrderNumber}, items)
}

func decodeStatus(raw string) (Status, error) {
	v, err := labels.OrderStatus.Decode(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidStatus, err)
	}
	return Status(v), nil
}
