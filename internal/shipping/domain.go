// Package shipping tracks outbound shipments and feeds the daily shipping board.
package shipping

import (
	"time"

	"github.com/worlddoor/fulfillment/internal/picking"
)

// Status enumerates shipment states.
type Status string

const (
	StatusPending        Status = "pending"
	StatusPicked         Status = "picked"
	StatusPacked         Status = "packed"
	StatusReadyForPickup Status = "ready_for_pickup"
	StatusShipped        Status = "shipped"
	StatusDelivered      Status = "delivered"
)

var stampColumns = map[Status]string{
	StatusPicked:    "picked_at",
	StatusPacked:    "packed_at",
	StatusShipped:   "shipped_at",
	StatusDelivered: "delivered_at",
}

const (
	DefaultCarrier  = "ヤマト運輸"
	DefaultMethod   = "Standard"
	DefaultPriority = "normal"
)

// Shipment is one outbound parcel.
type Shipment struct {
	ID             string     `json:"id"`
	OrderID        string     `json:"orderId,omitempty"`
	ProductID      string     `json:"productId,omitempty"`
	ProductName    string     `json:"productName,omitempty"`
	Carrier        string     `json:"carrier"`
	Method         string     `json:"method"`
	Priority       string     `json:"priority"`
	Status         Status     `json:"status"`
	TrackingNumber string     `json:"trackingNumber"`
	CustomerName   string     `json:"customerName"`
	Address        string     `json:"address"`
	Value          int64      `json:"value"`
	Notes          string     `json:"notes"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	PickedAt       *time.Time `json:"pickedAt,omitempty"`
	PackedAt       *time.Time `json:"packedAt,omitempty"`
	ShippedAt      *time.Time `json:"shippedAt,omitempty"`
	DeliveredAt    *time.Time `json:"deliveredAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Link is the product and order a shipment belongs to.
type Link struct {
	ProductID   string
	ProductName string
	SKU         string
	SellerID    string
	Price       int64
	OrderID     string
	OrderNumber string
}

// CreateInput carries a new shipment.
type CreateInput struct {
	OrderID      string `json:"orderId"`
	ProductID    string `json:"productId"`
	Carrier      string `json:"carrier"`
	Method       string `json:"method"`
	Priority     string `json:"priority" validate:"omitempty,oneof=urgent high normal low"`
	CustomerName string `json:"customerName"`
	Address      string `json:"address"`
	Value        int64  `json:"value" validate:"gte=0"`
	Notes        string `json:"notes"`
}

// UpdateInput moves a shipment.
type UpdateInput struct {
	ShipmentID string  `json:"shipmentId" validate:"required"`
	Status     Status  `json:"status" validate:"required,oneof=pending picked packed ready_for_pickup shipped delivered"`
	Notes      *string `json:"notes"`
}

// Counts are today's shipment totals.
type Counts struct {
	Total     int `json:"todayTotal"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Urgent    int `json:"urgent"`
}

// Stats adds the completion rate to Counts.
type Stats struct {
	Counts
	Efficiency int `json:"efficiency"`
}

// Carrier is a selectable carrier.
type Carrier struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

// Carriers lists the carriers offered on the board.
var Carriers = []Carrier{
	{ID: "yamato", Name: "ヤマト運輸", IsActive: true},
	{ID: "sagawa", Name: "佐川急便", IsActive: true},
	{ID: "fedex", Name: "FedEx", IsActive: true},
	{ID: "dhl", Name: "DHL", IsActive: true},
	{ID: "ups", Name: "UPS", IsActive: false},
}

// Board is the daily shipping dashboard.
type Board struct {
	TodayShipments []Shipment     `json:"todayShipments"`
	PickingTasks   []picking.Task `json:"pickingTasks"`
	Carriers       []Carrier      `json:"carriers"`
	Stats          Stats          `json:"stats"`
}
