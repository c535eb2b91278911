// Package products owns the product inventory: listing, registration and
// the status values other workflows move products through.
package products

import (
	"time"

	"github.com/worlddoor/fulfillment/internal/shared"
)

// Status is the inventory lifecycle state of a product.
type Status string

const (
	StatusInbound    Status = "inbound"
	StatusInspection Status = "inspection"
	StatusStorage    Status = "storage"
	StatusListing    Status = "listing"
	StatusOrdered    Status = "ordered"
	StatusShipping   Status = "shipping"
	StatusDelivery   Status = "delivery"
	StatusSold       Status = "sold"
	StatusReturned   Status = "returned"
)

// IsValid reports whether s is a known product status.
func (s Status) IsValid() bool {
	switch s {
	case StatusInbound, StatusInspection, StatusStorage, StatusListing, StatusOrdered,
		StatusShipping, StatusDelivery, StatusSold, StatusReturned:
		return true
	default:
		return false
	}
}

// CanOrder reports whether a product in s may be added to a new order.
func (s Status) CanOrder() bool {
	return s == StatusStorage || s == StatusListing
}

// Product is a consignment item held in the warehouse.
type Product struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	SKU               string         `json:"sku"`
	Category          string         `json:"category"`
	Status            Status         `json:"status"`
	Price             int64          `json:"price"`
	Condition         string         `json:"condition"`
	Description       string         `json:"description"`
	SellerID          string         `json:"sellerId,omitempty"`
	CurrentLocationID string         `json:"currentLocationId,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	Images            []Image        `json:"images"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

// Image sources.
const (
	SourceProductTable = "product_table"
	SourceMetadata     = "metadata"
	SourceDeliveryPlan = "delivery_plan"
)

// Image is a product picture from any of the places images are kept.
type Image struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	Filename     string `json:"filename,omitempty"`
	AltText      string `json:"altText,omitempty"`
	Category     string `json:"category,omitempty"`
	SortOrder    int    `json:"sortOrder"`
	Source       string `json:"source"`
}

// ListFilter narrows List results. SellerID is set from the caller's principal.
type ListFilter struct {
	Page     int
	Limit    int
	Status   Status
	Category string
	Search   string
	SellerID string
}

// CreateInput registers a new product.
type CreateInput struct {
	Name        string         `json:"name" validate:"required,max=200"`
	SKU         string         `json:"sku" validate:"required,max=64"`
	Category    string         `json:"category" validate:"required"`
	Price       int64          `json:"price" validate:"required,gt=0"`
	Condition   string         `json:"condition" validate:"required"`
	Description string         `json:"description"`
	SellerID    string         `json:"sellerId"`
	Metadata    map[string]any `json:"metadata"`
}

// UpdateInput is a partial product update. Nil fields are left untouched.
type UpdateInput struct {
	ID          string  `json:"id" validate:"required"`
	Name        *string `json:"name" validate:"omitempty,max=200"`
	Price       *int64  `json:"price" validate:"omitempty,gt=0"`
	Condition   *string `json:"condition"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// ListResult is one page of products.
type ListResult struct {
	Data       []Product         `json:"data"`
	Pagination shared.Pagination `json:"pagination"`
}
