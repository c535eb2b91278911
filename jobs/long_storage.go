package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/worlddoor/fulfillment/internal/jobs"
	"github.com/worlddoor/fulfillment/internal/notifications"
	"github.com/worlddoor/fulfillment/internal/products"
	"github.com/worlddoor/fulfillment/internal/shared"
)

// TaskLongStorageScan flags products that have stayed in storage too long.
const TaskLongStorageScan = "inventory:long_storage_scan"

// LongStoragePayload carries the scan threshold. Zero uses the job default.
type LongStoragePayload struct {
	Days int `json:"days"`
}

// NewLongStorageScanTask constructs the scan task.
func NewLongStorageScanTask(days int) (*asynq.Task, error) {
	body, err := json.Marshal(LongStoragePayload{Days: days})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLongStorageScan, body, asynq.Queue(QueueDefault)), nil
}

// StoredLister finds products sitting in storage.
type StoredLister interface {
	StoredSince(ctx context.Context, cutoff time.Time) ([]products.Product, error)
}

// AlertNotifier fans an event out to sellers.
type AlertNotifier interface {
	Notify(ctx context.Context, event notifications.Event, order notifications.OrderRef, items []notifications.Item) notifications.Result
}

// LongStorageResult summarises one scan.
type LongStorageResult struct {
	Days     int `json:"days"`
	Products int `json:"products"`
	Notified int `json:"notified"`
	Failed   int `json:"failed"`
}

// LongStorageJob issues one inventory alert per seller with long-stored stock.
type LongStorageJob struct {
	products StoredLister
	notifier AlertNotifier
	activity shared.ActivityRecorder
	logger   *slog.Logger
	metrics  *jobmetrics.Metrics
	days     int
	clock    func() time.Time
}

// NewLongStorageJob builds LongStorageJob with the default threshold in days.
func NewLongStorageJob(lister StoredLister, notifier AlertNotifier, activity shared.ActivityRecorder, logger *slog.Logger, metrics *jobmetrics.Metrics, days int) *LongStorageJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &LongStorageJob{
		products: lister,
		notifier: notifier,
		activity: activity,
		logger:   logger,
		metrics:  metrics,
		days:     days,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle runs the scan for an asynq task.
func (j *LongStorageJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	var payload LongStoragePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	tracker := j.metrics.Track(TaskLongStorageScan)
	defer func() { err = tracker.End(err) }()

	_, err = j.Scan(ctx, payload.Days)
	return err
}

// Scan notifies the sellers of every product in storage for more than days.
func (j *LongStorageJob) Scan(ctx context.Context, days int) (LongStorageResult, error) {
	if days <= 0 {
		days = j.days
	}
	result := LongStorageResult{Days: days}
	cutoff := j.clock().AddDate(0, 0, -days)
	stored, err := j.products.StoredSince(ctx, cutoff)
	if err != nil {
		return result, fmt.Errorf("list long stored products: %w", err)
	}
	result.Products = len(stored)

	logger := j.logger.With(slog.Int("days", days))
	if len(stored) == 0 {
		logger.Info("long storage scan found nothing")
		return result, nil
	}

	items := make([]notifications.Item, 0, len(stored))
	for _, p := range stored {
		items = append(items, notifications.Item{
			ProductID:   p.ID,
			ProductName: p.Name,
			SellerID:    p.SellerID,
			Price:       p.Price,
			Quantity:    1,
		})
	}
	sent := j.notifier.Notify(ctx, notifications.EventInventoryAlert, notifications.OrderRef{}, items)
	result.Notified = sent.Created
	result.Failed = sent.Failed
	j.metrics.AddFlagged("long_storage", len(stored))

	shared.RecordActivity(ctx, j.activity, logger, shared.Activity{
		Type:        "inventory_check",
		Description: fmt.Sprintf("長期保管チェック: %d日以上の商品%d件、セラー%d名に通知しました", days, result.Products, result.Notified),
		UserID:      "system",
		Metadata: map[string]any{
			"days":     days,
			"products": result.Products,
			"notified": result.Notified,
			"failed":   result.Failed,
		},
	})
	logger.Info("long storage scan complete",
		slog.Int("products", result.Products),
		slog.Int("notified", result.Notified),
		slog.Int("failed", result.Failed))
	return result, nil
}
