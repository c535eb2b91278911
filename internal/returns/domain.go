// Package returns handles customer return requests from intake to refund.
package returns

import "time"

// Status enumerates return request states.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// Processed reports whether reaching s stamps the processor and time.
func (s Status) Processed() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCompleted
}

const listLimit = 50

// Return is one customer return request.
type Return struct {
	ID           string     `json:"id"`
	OrderID      string     `json:"orderId,omitempty"`
	ProductID    string     `json:"productId"`
	ProductName  string     `json:"productName,omitempty"`
	Reason       string     `json:"reason"`
	Condition    string     `json:"condition"`
	CustomerNote string     `json:"customerNote"`
	StaffNote    string     `json:"staffNote"`
	RefundAmount int64      `json:"refundAmount"`
	Status       Status     `json:"status"`
	ProcessedBy  string     `json:"processedBy,omitempty"`
	ProcessedAt  *time.Time `json:"processedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Stats counts returns per state.
type Stats struct {
	Total         int `json:"total"`
	Pending       int `json:"pending"`
	Approved      int `json:"approved"`
	Rejected      int `json:"rejected"`
	Completed     int `json:"completed"`
	RejectionRate int `json:"rejectionRate"`
}

// ReasonCount is one row of the reason breakdown.
type ReasonCount struct {
	Reason     string `json:"reason"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// Overview is the returns dashboard payload.
type Overview struct {
	Returns         []Return      `json:"returns"`
	Stats           Stats         `json:"stats"`
	ReasonBreakdown []ReasonCount `json:"reasonBreakdown"`
}

// ProductRef is the product a return concerns.
type ProductRef struct {
	ID       string
	Name     string
	SellerID string
	Price    int64
}

// CreateInput carries a new return request.
type CreateInput struct {
	OrderID      string `json:"orderId"`
	ProductID    string `json:"productId" validate:"required"`
	Reason       string `json:"reason" validate:"required"`
	Condition    string `json:"condition"`
	CustomerNote string `json:"customerNote"`
	RefundAmount int64  `json:"refundAmount" validate:"gte=0"`
}

// UpdateInput moves a return to a new state.
type UpdateInput struct {
	ReturnID     string  `json:"returnId" validate:"required"`
	Status       Status  `json:"status" validate:"required,oneof=pending approved rejected completed"`
	StaffNote    *string `json:"staffNote"`
	RefundAmount *int64  `json:"refundAmount" validate:"omitempty,gte=0"`
}

// Change is the persisted part of an update.
type Change struct {
	Status       Status
	StaffNote    *string
	RefundAmount *int64
	ProcessedBy  string
	ProcessedAt  *time.Time
}
