package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/worlddoor/fulfillment/internal/observability"
	"github.com/worlddoor/fulfillment/internal/shared"
)

// Store persists notifications.
type Store interface {
	Create(ctx context.Context, n Notification) (Notification, error)
}

// Directory resolves seller contact details and settings.
type Directory interface {
	Contact(ctx context.Context, userID string) (Contact, error)
}

// Mailer queues an email for delivery.
type Mailer interface {
	EnqueueEmail(ctx context.Context, email Email) error
}

// Result summarises one fan-out.
type Result struct {
	Created int `json:"created"`
	Failed  int `json:"failed"`
}

// FanOut delivers one notification per seller involved in an event.
type FanOut struct {
	store     Store
	directory Directory
	mailer    Mailer
	activity  shared.ActivityRecorder
	logger    *slog.Logger
	metrics   *observability.Metrics
	baseURL   string
}

// NewFanOut builds FanOut. directory and mailer may be nil to skip email.
func NewFanOut(store Store, directory Directory, mailer Mailer, activity shared.ActivityRecorder, logger *slog.Logger) *FanOut {
	if logger == nil {
		logger = slog.Default()
	}
	return &FanOut{store: store, directory: directory, mailer: mailer, activity: activity, logger: logger}
}

// SetMetrics attaches workflow counters.
func (f *FanOut) SetMetrics(m *observability.Metrics) {
	f.metrics = m
}

// SetBaseURL sets the dashboard URL email links point to.
func (f *FanOut) SetBaseURL(baseURL string) {
	f.baseURL = baseURL
}

// Notify creates exactly one notification per distinct seller in items.
// Failures are logged and counted, never returned.
func (f *FanOut) Notify(ctx context.Context, event Event, order OrderRef, items []Item) Result {
	var result Result
	if f == nil {
		return result
	}
	spec, ok := Spec(event)
	if !ok {
		f.logger.Warn("unknown notification event", slog.String("event", string(event)))
		return result
	}
	for _, group := range GroupBySeller(items) {
		if err := f.notifySeller(ctx, event, spec, order, group); err != nil {
			result.Failed++
			f.metrics.ObserveNotification(string(event), observability.ResultFailed)
			f.logger.Warn("notify seller",
				slog.String("event", string(event)),
				slog.String("seller_id", group.SellerID),
				slog.String("order_id", order.ID),
				slog.Any("error", err))
			continue
		}
		result.Created++
		f.metrics.ObserveNotification(string(event), observability.ResultOK)
	}
	return result
}

func (f *FanOut) notifySeller(ctx context.Context, event Event, spec EventSpec, order OrderRef, group SellerGroup) error {
	msg := Message(event, order, group)
	meta := map[string]any{
		"orderId":      order.ID,
		"orderNumber":  order.OrderNumber,
		"subtotal":     group.Subtotal,
		"productNames": group.ProductNames,
		"itemCount":    group.ItemCount(),
	}
	if order.ReturnID != "" {
		meta["returnId"] = order.ReturnID
		meta["reason"] = order.Reason
	}
	n, err := f.store.Create(ctx, Notification{
		UserID:           group.SellerID,
		Type:             string(event),
		Title:            spec.Title,
		Message:          msg,
		Priority:         spec.Priority,
		NotificationType: string(spec.Preference),
		Action:           spec.Action,
		Metadata:         meta,
	})
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	activity := shared.Activity{
		Type:        "notification_sent",
		Description: fmt.Sprintf("%s通知をセラーに送信しました", strings.TrimSpace(trimEmoji(spec.Title))),
		UserID:      "system",
		OrderID:     order.ID,
		Metadata: map[string]any{
			"notificationId":   n.ID,
			"notificationType": string(event),
			"sellerId":         group.SellerID,
		},
	}
	if len(group.Items) == 1 {
		activity.ProductID = group.Items[0].ProductID
	}
	shared.RecordActivity(ctx, f.activity, f.logger, activity)

	f.sendEmail(ctx, spec, group.SellerID, msg)
	return nil
}

func (f *FanOut) sendEmail(ctx context.Context, spec EventSpec, sellerID, msg string) {
	if spec.Preference == "" || f.directory == nil || f.mailer == nil {
		return
	}
	contact, err := f.directory.Contact(ctx, sellerID)
	if err != nil {
		f.logger.Warn("load seller contact", slog.String("seller_id", sellerID), slog.Any("error", err))
		return
	}
	if contact.Email == "" || !contact.Settings.Enabled(spec.Preference) {
		return
	}
	email, err := RenderEmail(spec.Preference, f.baseURL, contact.Email, spec.Title, msg)
	if err != nil {
		f.logger.Warn("render email", slog.String("seller_id", sellerID), slog.Any("error", err))
		return
	}
	if err := f.mailer.EnqueueEmail(ctx, email); err != nil {
		f.logger.Warn("enqueue email", slog.String("seller_id", sellerID), slog.Any("error", err))
	}
}

// Message renders the notification body for a seller group.
func Message(event Event, order OrderRef, group SellerGroup) string {
	names := "「" + strings.Join(group.ProductNames, "」「") + "」"
	switch event {
	case EventOrderReadyForLabel:
		return fmt.Sprintf("商品%sが売れました！配送ラベルを生成してください。", names)
	case EventProductSold:
		return fmt.Sprintf("商品%sが売れました！注文番号: %s 売上: %s", names, order.OrderNumber, shared.FormatYen(group.Subtotal))
	case EventShippingComplete:
		return fmt.Sprintf("商品%sの出荷が完了しました。", names)
	case EventInventoryAlert:
		return fmt.Sprintf("%d件の商品が長期保管になっています: %s", group.ItemCount(), names)
	case EventReturnRequest:
		return fmt.Sprintf("商品%sの返品要求が届きました。理由: %s", names, order.Reason)
	default:
		return names
	}
}

func trimEmoji(title string) string {
	if i := strings.IndexRune(title, ' '); i >= 0 {
		return title[i+1:]
	}
	return title
}
