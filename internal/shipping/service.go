package shipping

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/worlddoor/fulfillment/internal/notifications"
	"github.com/worlddoor/fulfillment/internal/picking"
	"github.com/worlddoor/fulfillment/internal/platform/httpx"
	"github.com/worlddoor/fulfillment/internal/products"
	"github.com/worlddoor/fulfillment/internal/shared"
)

const (
	boardShipmentLimit = 20
	boardTaskLimit     = 15
)

// RepositoryPort describes the persistence the service needs.
type RepositoryPort interface {
	Create(ctx context.Context, s Shipment) (Shipment, error)
	UpdateStatus(ctx context.Context, id string, status Status, notes *string, at time.Time) (Shipment, error)
	Link(ctx context.Context, shipmentID string) (Link, error)
	MarkListingsShipped(ctx context.Context, productID string, at time.Time) error
	SetProductStatus(ctx context.Context, productID string, status products.Status) error
	CreatedBetween(ctx context.Context, from, to time.Time, limit int) ([]Shipment, error)
	Counts(ctx context.Context, from, to time.Time) (Counts, error)
}

// TaskLister reads open picking tasks.
type TaskLister interface {
	List(ctx context.Context, status picking.Status, assignee string) ([]picking.Task, error)
}

// Notifier fans events out to sellers.
type Notifier interface {
	Notify(ctx context.Context, event notifications.Event, order notifications.OrderRef, items []notifications.Item) notifications.Result
}

// Service implements shipment workflows.
type Service struct {
	repo     RepositoryPort
	tasks    TaskLister
	notifier Notifier
	activity shared.ActivityRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, tasks TaskLister, notifier Notifier, activity shared.ActivityRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, tasks: tasks, notifier: notifier, activity: activity, logger: logger, now: time.Now}
}

// Create registers a shipment with a generated tracking number.
func (s *Service) Create(ctx context.Context, in CreateInput) (Shipment, error) {
	if err := httpx.ValidateStruct(in); err != nil {
		return Shipment{}, err
	}
	sh := Shipment{
		OrderID:        in.OrderID,
		ProductID:      in.ProductID,
		Carrier:        firstNonEmpty(in.Carrier, DefaultCarrier),
		Method:         firstNonEmpty(in.Method, DefaultMethod),
		Priority:       firstNonEmpty(in.Priority, DefaultPriority),
		Status:         StatusPending,
		TrackingNumber: shared.TimestampCode("TRK", "", s.now(), shared.RandomCode(4)),
		CustomerName:   in.CustomerName,
		Address:        in.Address,
		Value:          in.Value,
		Notes:          in.Notes,
	}
	created, err := s.repo.Create(ctx, sh)
	if err != nil {
		return Shipment{}, err
	}
	shared.RecordActivity(ctx, s.activity, s.logger, shared.Activity{
		Type:        "shipment_created",
		Description: fmt.Sprintf("出荷 %s を登録しました（追跡番号: %s）", created.ID, created.TrackingNumber),
		UserID:      shared.ActorID(ctx),
		ProductID:   created.ProductID,
		OrderID:     created.OrderID,
		Metadata:    map[string]any{"carrier": created.Carrier, "trackingNumber": created.TrackingNumber},
	})
	return created, nil
}

// Update moves a shipment. Handing a parcel to the carrier also updates the
// seller side; failures there are logged and do not fail the update.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Shipment, error) {
	if err := httpx.ValidateStruct(in); err != nil {
		return Shipment{}, err
	}
	now := s.now()
	updated, err := s.repo.UpdateStatus(ctx, in.ShipmentID, in.Status, in.Notes, now)
	if err != nil {
		return Shipment{}, err
	}
	if in.Status == StatusReadyForPickup || in.Status == StatusDelivered {
		if err := s.handOver(ctx, updated, now); err != nil {
			s.logger.Warn("shipment hand-over", slog.String("shipment_id", updated.ID), slog.Any("error", err))
		}
	}
	return updated, nil
}

func (s *Service) handOver(ctx context.Context, sh Shipment, now time.Time) error {
	link, err := s.repo.Link(ctx, sh.ID)
	if err != nil {
		return err
	}
	if link.ProductID == "" {
		s.logger.Warn("shipment has no product", slog.String("shipment_id", sh.ID))
		return nil
	}
	if err := s.repo.MarkListingsShipped(ctx, link.ProductID, now); err != nil {
		return fmt.Errorf("mark listings shipped: %w", err)
	}
	if sh.Status != StatusReadyForPickup {
		return nil
	}
	if err := s.repo.SetProductStatus(ctx, link.ProductID, products.StatusShipping); err != nil {
		return fmt.Errorf("set product shipping: %w", err)
	}
	shared.RecordActivity(ctx, s.activity, s.logger, shared.Activity{
		Type:        "shipment_complete",
		Description: fmt.Sprintf("商品 %s が出荷されました（追跡番号: %s）", link.ProductName, sh.TrackingNumber),
		UserID:      shared.ActorID(ctx),
		ProductID:   link.ProductID,
		Metadata:    map[string]any{"shipmentId": sh.ID, "trackingNumber": sh.TrackingNumber},
	})
	if link.SellerID == "" || s.notifier == nil {
		return nil
	}
	s.notifier.Notify(ctx, notifications.EventShippingComplete,
		notifications.OrderRef{ID: link.OrderID, OrderNumber: link.OrderNumber},
		[]notifications.Item{{
			ProductID:   link.ProductID,
			ProductName: link.ProductName,
			SellerID:    link.SellerID,
			Price:       link.Price,
			Quantity:    1,
		}})
	return nil
}

// Today builds the shipping board for the current day.
func (s *Service) Today(ctx context.Context) (Board, error) {
	now := s.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)

	shipments, err := s.repo.CreatedBetween(ctx, start, end, boardShipmentLimit)
	if err != nil {
		return Board{}, err
	}
	counts, err := s.repo.Counts(ctx, start, end)
	if err != nil {
		return Board{}, err
	}
	board := Board{
		TodayShipments: shipments,
		PickingTasks:   []picking.Task{},
		Carriers:       Carriers,
		Stats:          Stats{Counts: counts},
	}
	if board.TodayShipments == nil {
		board.TodayShipments = []Shipment{}
	}
	if counts.Total > 0 {
		board.Stats.Efficiency = (counts.Completed*100 + counts.Total/2) / counts.Total
	}
	if s.tasks != nil {
		for _, status := range []picking.Status{picking.StatusPending, picking.StatusInProgress} {
			tasks, err := s.tasks.List(ctx, status, "")
			if err != nil {
				return Board{}, err
			}
			board.PickingTasks = append(board.PickingTasks, tasks...)
		}
		if len(board.PickingTasks) > boardTaskLimit {
			board.PickingTasks = board.PickingTasks[:boardTaskLimit]
		}
	}
	return board, nil
}

func firstNonEmpty(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
