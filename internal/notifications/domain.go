// Package notifications fans workflow events out to sellers as in-app
// notifications and, when their settings allow it, queued emails.
package notifications

import (
	"encoding/json"
	"time"
)

// Event identifies a workflow occurrence that sellers are told about.
type Event string

const (
	EventOrderReadyForLabel Event = "order_ready_for_label"
	EventProductSold        Event = "product_sold"
	EventShippingComplete   Event = "shipping_complete"
	EventInventoryAlert     Event = "inventory_alert"
	EventReturnRequest      Event = "return_request"
)

// EventSpec describes how an event is presented.
type EventSpec struct {
	Title    string
	Priority string
	Action   string
	// Preference is the settings key gating email delivery. Empty means the
	// event never sends email.
	Preference Type
}

var eventSpecs = map[Event]EventSpec{
	EventOrderReadyForLabel: {Title: "📦 ラベル生成依頼", Priority: "high", Action: "sales", Preference: TypeProductSold},
	EventProductSold:        {Title: "🎉 商品が売れました", Priority: "high", Action: "sales", Preference: TypeProductSold},
	EventShippingComplete:   {Title: "🚚 出荷完了", Priority: "medium", Action: "shipping"},
	EventInventoryAlert:     {Title: "⚠️ 在庫アラート", Priority: "medium", Action: "inventory", Preference: TypeInventoryAlert},
	EventReturnRequest:      {Title: "🔄 返品要求が届きました", Priority: "high", Action: "returns", Preference: TypeReturnRequest},
}

// Spec returns the presentation of event.
func Spec(event Event) (EventSpec, bool) {
	spec, ok := eventSpecs[event]
	return spec, ok
}

// Type is a notification category sellers can opt in or out of.
type Type string

const (
	TypeProductSold        Type = "product_sold"
	TypeInventoryAlert     Type = "inventory_alert"
	TypeReturnRequest      Type = "return_request"
	TypePaymentIssue       Type = "payment_issue"
	TypeProductIssue       Type = "product_issue"
	TypeShippingIssue      Type = "shipping_issue"
	TypeInspectionComplete Type = "inspection_complete"
	TypePaymentReceived    Type = "payment_received"
	TypeReportReady        Type = "report_ready"
	TypeSystemUpdate       Type = "system_update"
	TypePromotionAvailable Type = "promotion_available"
	TypeMonthlySummary     Type = "monthly_summary"
)

// Settings maps each notification type to whether email is wanted.
type Settings map[Type]bool

// DefaultSettings returns the settings of a user who never saved any.
func DefaultSettings() Settings {
	return Settings{
		TypeProductSold:        true,
		TypeInventoryAlert:     true,
		TypeReturnRequest:      true,
		TypePaymentIssue:       true,
		TypeProductIssue:       true,
		TypeShippingIssue:      true,
		TypeInspectionComplete: false,
		TypePaymentReceived:    false,
		TypeReportReady:        false,
		TypeSystemUpdate:       false,
		TypePromotionAvailable: false,
		TypeMonthlySummary:     false,
	}
}

// MergeSettings overlays stored JSON on the defaults. Malformed JSON and
// unknown keys are ignored.
func MergeSettings(raw []byte) Settings {
	settings := DefaultSettings()
	if len(raw) == 0 {
		return settings
	}
	var stored map[string]bool
	if err := json.Unmarshal(raw, &stored); err != nil {
		return settings
	}
	for key, enabled := range stored {
		if _, known := settings[Type(key)]; known {
			settings[Type(key)] = enabled
		}
	}
	return settings
}

// Enabled reports whether t is switched on.
func (s Settings) Enabled(t Type) bool {
	return t != "" && s[t]
}

// Notification is an in-app message for one user.
type Notification struct {
	ID               string         `json:"id"`
	UserID           string         `json:"userId"`
	Type             string         `json:"type"`
	Title            string         `json:"title"`
	Message          string         `json:"message"`
	Priority         string         `json:"priority"`
	Read             bool           `json:"read"`
	NotificationType string         `json:"notificationType"`
	Action           string         `json:"action"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
}

// Contact is the addressable part of a user.
type Contact struct {
	UserID   string
	Email    string
	FullName string
	Settings Settings
}

// OrderRef identifies the order an event concerns. Every field may be empty
// for events without an order.
type OrderRef struct {
	ID          string
	OrderNumber string
	// ReturnID and Reason are set on return events.
	ReturnID string
	Reason   string
}

// Item is one sold or affected product line.
type Item struct {
	ProductID   string
	ProductName string
	SellerID    string
	Price       int64
	Quantity    int
}

// SellerGroup is the slice of an order that belongs to one seller.
type SellerGroup struct {
	SellerID     string
	Items        []Item
	Subtotal     int64
	ProductNames []string
}

// ItemCount is the number of lines in the group.
func (g SellerGroup) ItemCount() int {
	return len(g.Items)
}
