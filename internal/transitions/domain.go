package transitions

import (
	"time"

	"github.com/worlddoor/fulfillment/internal/products"
)

// DefaultReason is recorded when the caller gives none.
const DefaultReason = "テスト用手動遷移"

// Request asks for a manual status change.
type Request struct {
	ProductID  string `json:"productId" validate:"required"`
	FromStatus string `json:"fromStatus" validate:"required"`
	ToStatus   string `json:"toStatus" validate:"required"`
	Reason     string `json:"reason"`
}

// MockOrder is the synthetic order created when a product is marked sold.
type MockOrder struct {
	ID          string `json:"id"`
	OrderNumber string `json:"orderNumber"`
	ShipmentID  string `json:"shipmentId,omitempty"`
	Total       int64  `json:"totalAmount"`
	Message     string `json:"message"`
}

// Response reports an applied transition.
type Response struct {
	Success             bool            `json:"success"`
	ProductID           string          `json:"productId"`
	ProductName         string          `json:"productName"`
	PreviousStatus      products.Status `json:"previousStatus"`
	CurrentStatus       products.Status `json:"currentStatus"`
	PreviousStatusLabel string          `json:"previousStatusLabel"`
	CurrentStatusLabel  string          `json:"currentStatusLabel"`
	Message             string          `json:"message"`
	MockOrder           *MockOrder      `json:"mockOrder,omitempty"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

// ResetResponse reports a reset.
type ResetResponse struct {
	Success           bool   `json:"success"`
	ProductID         string `json:"productId"`
	DeletedTestOrders int    `json:"deletedTestOrders"`
	Message           string `json:"message"`
}
