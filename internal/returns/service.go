package returns

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/worlddoor/fulfillment/internal/notifications"
	"github.com/worlddoor/fulfillment/internal/platform/httpx"
	"github.com/worlddoor/fulfillment/internal/products"
	"github.com/worlddoor/fulfillment/internal/shared"
)

// RepositoryPort describes the persistence the service needs.
type RepositoryPort interface {
	Recent(ctx context.Context, limit int) ([]Return, error)
	Stats(ctx context.Context) (Stats, error)
	ReasonCounts(ctx context.Context) ([]ReasonCount, error)
	Product(ctx context.Context, id string) (ProductRef, error)
	Create(ctx context.Context, ret Return) (Return, error)
	Update(ctx context.Context, id string, c Change) (Return, error)
	SetProductStatus(ctx context.Context, productID string, status products.Status) error
}

// Notifier fans events out to sellers.
type Notifier interface {
	Notify(ctx context.Context, event notifications.Event, order notifications.OrderRef, items []notifications.Item) notifications.Result
}

// Service implements the return workflow.
type Service struct {
	repo     RepositoryPort
	notifier Notifier
	activity shared.ActivityRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, notifier Notifier, activity shared.ActivityRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, notifier: notifier, activity: activity, logger: logger, now: time.Now}
}

// Overview lists recent returns with status counts and the reason breakdown.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	list, err := s.repo.Recent(ctx, listLimit)
	if err != nil {
		return Overview{}, fmt.Errorf("list returns: %w", err)
	}
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("count returns: %w", err)
	}
	stats.RejectionRate = percent(stats.Rejected, stats.Total)

	reasons, err := s.repo.ReasonCounts(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("group return reasons: %w", err)
	}
	for i := range reasons {
		reasons[i].Percentage = percent(reasons[i].Count, stats.Total)
	}
	if list == nil {
		list = []Return{}
	}
	if reasons == nil {
		reasons = []ReasonCount{}
	}
	return Overview{Returns: list, Stats: stats, ReasonBreakdown: reasons}, nil
}

// Create registers a pending return and tells the seller about it.
func (s *Service) Create(ctx context.Context, in CreateInput) (Return, error) {
	if err := httpx.ValidateStruct(in); err != nil {
		return Return{}, err
	}
	product, err := s.repo.Product(ctx, in.ProductID)
	if err != nil {
		return Return{}, err
	}
	created, err := s.repo.Create(ctx, Return{
		OrderID:      in.OrderID,
		ProductID:    product.ID,
		Reason:       in.Reason,
		Condition:    in.Condition,
		CustomerNote: in.CustomerNote,
		RefundAmount: in.RefundAmount,
		Status:       StatusPending,
	})
	if err != nil {
		return Return{}, fmt.Errorf("create return: %w", err)
	}
	created.ProductName = product.Name

	shared.RecordActivity(ctx, s.activity, s.logger, shared.Activity{
		Type:        "return_created",
		Description: fmt.Sprintf("商品「%s」の返品要求を受け付けました（理由: %s）", product.Name, in.Reason),
		UserID:      shared.ActorID(ctx),
		ProductID:   product.ID,
		OrderID:     in.OrderID,
		Metadata:    map[string]any{"returnId": created.ID, "reason": in.Reason, "refundAmount": in.RefundAmount},
	})

	if product.SellerID != "" && s.notifier != nil {
		s.notifier.Notify(ctx, notifications.EventReturnRequest,
			notifications.OrderRef{ID: in.OrderID, ReturnID: created.ID, Reason: in.Reason},
			[]notifications.Item{{
				ProductID:   product.ID,
				ProductName: product.Name,
				SellerID:    product.SellerID,
				Price:       product.Price,
				Quantity:    1,
			}})
	}
	return created, nil
}

// Update moves a return to a new status. Final states stamp the processor
// and time; approval marks the product returned.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Return, error) {
	if err := httpx.ValidateStruct(in); err != nil {
		return Return{}, err
	}
	change := Change{
		Status:       in.Status,
		StaffNote:    in.StaffNote,
		RefundAmount: in.RefundAmount,
		ProcessedBy:  processor(ctx),
	}
	if in.Status.Processed() {
		at := s.now()
		change.ProcessedAt = &at
	}
	updated, err := s.repo.Update(ctx, in.ReturnID, change)
	if err != nil {
		return Return{}, err
	}
	if in.Status == StatusApproved {
		if err := s.repo.SetProductStatus(ctx, updated.ProductID, products.StatusReturned); err != nil {
			return Return{}, fmt.Errorf("mark product returned: %w", err)
		}
	}

	shared.RecordActivity(ctx, s.activity, s.logger, shared.Activity{
		Type:        "return_updated",
		Description: fmt.Sprintf("返品 %s のステータスを「%s」に更新しました", updated.ID, in.Status),
		UserID:      shared.ActorID(ctx),
		ProductID:   updated.ProductID,
		OrderID:     updated.OrderID,
		Metadata:    map[string]any{"returnId": updated.ID, "status": string(in.Status), "processedBy": change.ProcessedBy},
	})
	return updated, nil
}

func processor(ctx context.Context) string {
	if p := shared.PrincipalFromContext(ctx); p != nil && p.Email != "" {
		return p.Email
	}
	return shared.ActorID(ctx)
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(total)))
}
