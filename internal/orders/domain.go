package orders

import (
	"time"

	"github.com/worlddoor/fulfillment/internal/products"
)

// Status enumerates order lifecycle states.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusReturned   Status = "returned"
)

var cascade = map[Status]products.Status{
	StatusConfirmed:  products.StatusOrdered,
	StatusProcessing: products.StatusOrdered,
	StatusShipped:    products.StatusShipping,
	StatusDelivered:  products.StatusSold,
	StatusCancelled:  products.StatusStorage,
	StatusReturned:   products.StatusReturned,
}

// CascadeStatus returns the product status an order status implies.
// Pending orders leave their products untouched.
func CascadeStatus(s Status) (products.Status, bool) {
	ps, ok := cascade[s]
	return ps, ok
}

// Customer is the buyer summary embedded in an order.
type Customer struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// ProductSummary is the product view embedded in an order item.
type ProductSummary struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	SKU      string          `json:"sku"`
	Status   products.Status `json:"status"`
	Price    int64           `json:"price"`
	SellerID string          `json:"sellerId,omitempty"`
}

// Item is one order line.
type Item struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     int64           `json:"price"`
	Product   *ProductSummary `json:"product,omitempty"`
}

// Shipment is the shipment summary embedded in an order.
type Shipment struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
}

// Order aggregates a customer purchase.
type Order struct {
	ID              string     `json:"id"`
	OrderNumber     string     `json:"orderNumber"`
	CustomerID      string     `json:"customerId"`
	Customer        *Customer  `json:"customer,omitempty"`
	Status          Status     `json:"status"`
	TotalAmount     int64      `json:"totalAmount"`
	ShippingAddress string     `json:"shippingAddress"`
	PaymentMethod   string     `json:"paymentMethod"`
	Notes           string     `json:"notes"`
	OrderDate       time.Time  `json:"orderDate"`
	ShippedAt       *time.Time `json:"shippedAt,omitempty"`
	DeliveredAt     *time.Time `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	Items           []Item     `json:"items"`
	Shipments       []Shipment `json:"shipments"`
}

// ProductIDs lists the products of every item in order.
func (o Order) ProductIDs() []string {
	ids := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		ids = append(ids, it.ProductID)
	}
	return ids
}

// ListFilter narrows the order listing.
type ListFilter struct {
	Status     Status
	CustomerID string
	Limit      int
}

// ItemInput is one requested line of a new order.
type ItemInput struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
	Price     int64  `json:"price" validate:"gte=0"`
}

// CreateInput carries a new order.
type CreateInput struct {
	CustomerID      string      `json:"customerId" validate:"required"`
	Items           []ItemInput `json:"items" validate:"required,min=1,dive"`
	ShippingAddress string      `json:"shippingAddress"`
	PaymentMethod   string      `json:"paymentMethod"`
	Notes           string      `json:"notes"`
}

// UpdateInput carries a partial order update. Status accepts an enum value
// or its Japanese label.
type UpdateInput struct {
	OrderID         string  `json:"orderId" validate:"required"`
	Status          *string `json:"status"`
	ShippingAddress *string `json:"shippingAddress"`
	PaymentMethod   *string `json:"paymentMethod"`
	Notes           *string `json:"notes"`
}
