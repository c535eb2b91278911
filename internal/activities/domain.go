// Package activities serves the activity log that every workflow writes to.
package activities

import (
	"time"

	"github.com/worlddoor/fulfillment/internal/shared"
)

const (
	defaultLimit = 50
	maxLimit     = 200
	recentLimit  = 10
	topUserLimit = 10
)

// Entry is one stored activity with the names of what it refers to.
type Entry struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Description string         `json:"description"`
	UserID      string         `json:"userId,omitempty"`
	UserName    string         `json:"userName,omitempty"`
	ProductID   string         `json:"productId,omitempty"`
	ProductName string         `json:"productName,omitempty"`
	OrderID     string         `json:"orderId,omitempty"`
	OrderNumber string         `json:"orderNumber,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Filter narrows the activity log. Zero values match everything; From and
// To are inclusive.
type Filter struct {
	Type      string
	UserID    string
	ProductID string
	OrderID   string
	From      time.Time
	To        time.Time
}

// Page is one page of the log, newest first.
type Page struct {
	Data       []Entry    `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Pagination adds a next-page flag to shared.Pagination.
type Pagination struct {
	shared.Pagination
	HasNext bool `json:"hasNext"`
}

// TypeCount is the number of activities of one type.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// UserCount is the number of activities one user produced.
type UserCount struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName,omitempty"`
	Count    int    `json:"count"`
}

// Summary aggregates the log over a window.
type Summary struct {
	ByType []TypeCount `json:"activityStats"`
	Recent []Entry     `json:"recentActivities"`
	Users  []UserCount `json:"userStats"`
}

// SummaryInput is the POST body of the summary endpoint.
type SummaryInput struct {
	Type      string `json:"type" validate:"omitempty,oneof=summary"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}
