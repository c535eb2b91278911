// Package picking manages warehouse pick tasks for confirmed orders.
package picking

import "time"

// Status enumerates pick task states.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusOnHold     Status = "on_hold"
)

// Action is an operator step on a task.
type Action string

const (
	ActionStart    Action = "start"
	ActionPickItem Action = "pick_item"
	ActionComplete Action = "complete"
	ActionHold     Action = "hold"
)

var actionStatus = map[Action]Status{
	ActionStart:    StatusInProgress,
	ActionComplete: StatusCompleted,
	ActionHold:     StatusOnHold,
}

// Kind distinguishes single-order tasks from batches.
const (
	KindSingle = "single"
	KindBatch  = "batch"
)

// Item is one line to pick.
type Item struct {
	ID             string `json:"id"`
	ProductID      string `json:"productId"`
	ProductName    string `json:"productName"`
	SKU            string `json:"sku"`
	Location       string `json:"location"`
	Quantity       int    `json:"quantity"`
	PickedQuantity int    `json:"pickedQuantity"`
	Status         string `json:"status"`
}

// Task groups the items an operator picks in one walk.
type Task struct {
	ID             string     `json:"id"`
	Kind           string     `json:"type"`
	OrderIDs       []string   `json:"orderIds"`
	CustomerName   string     `json:"customerName"`
	Priority       string     `json:"priority"`
	Status         Status     `json:"status"`
	Assignee       string     `json:"assignee"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	ShippingMethod string     `json:"shippingMethod"`
	TotalItems     int        `json:"totalItems"`
	PickedItems    int        `json:"pickedItems"`
	Route          []string   `json:"optimizedRoute"`
	StartedAt      *time.Time `json:"startedAt,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	HeldAt         *time.Time `json:"heldAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	Items          []Item     `json:"items"`
}

// Stats summarises a task listing.
type Stats struct {
	TotalTasks      int `json:"totalTasks"`
	PendingTasks    int `json:"pendingTasks"`
	InProgressTasks int `json:"inProgressTasks"`
	CompletedToday  int `json:"completedToday"`
}

// ListResult is the task board.
type ListResult struct {
	Tasks []Task `json:"tasks"`
	Stats Stats  `json:"stats"`
}

// ActInput is an operator step.
type ActInput struct {
	TaskID   string `json:"taskId" validate:"required"`
	Action   Action `json:"action" validate:"required"`
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

// ActResult echoes the applied step.
type ActResult struct {
	TaskID         string    `json:"taskId"`
	ItemID         string    `json:"itemId,omitempty"`
	Status         string    `json:"status"`
	PickedQuantity int       `json:"pickedQuantity,omitempty"`
	At             time.Time `json:"at"`
}

// BatchInput merges several orders into one task.
type BatchInput struct {
	OrderIDs []string `json:"orderIds" validate:"required,min=1,dive,required"`
	Assignee string   `json:"assignee"`
	Priority string   `json:"priority" validate:"omitempty,oneof=urgent high normal low"`
}

// DayStat is the completed volume of one day.
type DayStat struct {
	Date           string  `json:"date"`
	Completed      int     `json:"completed"`
	AverageMinutes float64 `json:"avgMinutes"`
}

// HistorySummary aggregates the history window.
type HistorySummary struct {
	TotalCompleted int     `json:"totalCompleted"`
	AverageMinutes float64 `json:"averageMinutes"`
	TopPerformer   string  `json:"topPerformer"`
}

// History reports completed work over recent days.
type History struct {
	Summary    HistorySummary `json:"summary"`
	DailyStats []DayStat      `json:"dailyStats"`
}
