package picking

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/worlddoor/fulfillment/internal/platform/httpx"
	"github.com/worlddoor/fulfillment/internal/shared"
)

const defaultHistoryDays = 7

// RepositoryPort describes the persistence the service needs.
type RepositoryPort interface {
	List(ctx context.Context, status Status, assignee string) ([]Task, error)
	SetStatus(ctx context.Context, taskID string, status Status, at time.Time) error
	PickItem(ctx context.Context, taskID, itemID string, quantity int) error
	OrderLines(ctx context.Context, orderIDs []string) ([]Item, []string, error)
	CreateTask(ctx context.Context, task Task) error
	CompletedSince(ctx context.Context, since time.Time) ([]Task, error)
}

// Service implements the picking board.
type Service struct {
	repo     RepositoryPort
	activity shared.ActivityRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, activity shared.ActivityRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, activity: activity, logger: logger, now: time.Now}
}

// List returns tasks filtered by status and assignee with board stats.
// The status "all" means no status filter.
func (s *Service) List(ctx context.Context, status, assignee string) (ListResult, error) {
	if status == "all" {
		status = ""
	}
	tasks, err := s.repo.List(ctx, Status(status), assignee)
	if err != nil {
		return ListResult{}, err
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return ListResult{Tasks: tasks, Stats: s.stats(tasks)}, nil
}

func (s *Service) stats(tasks []Task) Stats {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	st := Stats{TotalTasks: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case StatusPending:
			st.PendingTasks++
		case StatusInProgress:
			st.InProgressTasks++
		case StatusCompleted:
			if t.CompletedAt != nil && !t.CompletedAt.Before(today) {
				st.CompletedToday++
			}
		}
	}
	return st
}

// Act applies an operator step.
func (s *Service) Act(ctx context.Context, in ActInput) (ActResult, error) {
	if err := httpx.ValidateStruct(in); err != nil {
		return ActResult{}, err
	}
	now := s.now()
	result := ActResult{TaskID: in.TaskID, At: now}

	switch in.Action {
	case ActionPickItem:
		if in.ItemID == "" {
			return ActResult{}, fmt.Errorf("%w: itemId required", httpx.ErrValidation)
		}
		if err := s.repo.PickItem(ctx, in.TaskID, in.ItemID, in.Quantity); err != nil {
			return ActResult{}, err
		}
		result.ItemID = in.ItemID
		result.PickedQuantity = in.Quantity
		result.Status = "picked"
	default:
		status, ok := actionStatus[in.Action]
		if !ok {
			return ActResult{}, fmt.Errorf("%w: %s", ErrInvalidAction, in.Action)
		}
		if err := s.repo.SetStatus(ctx, in.TaskID, status, now); err != nil {
			return ActResult{}, err
		}
		result.Status = string(status)
	}

	shared.RecordActivity(ctx, s.activity, s.logger, shared.Activity{
		Type:        "picking_" + string(in.Action),
		Description: fmt.Sprintf("ピッキングタスク %s: %s", in.TaskID, in.Action),
		UserID:      shared.ActorID(ctx),
		Metadata:    map[string]any{"taskId": in.TaskID, "itemId": in.ItemID, "quantity": in.Quantity},
	})
	return result, nil
}

// CreateBatch merges the items of several orders into one task whose route
// visits each location once in sorted order.
func (s *Service) CreateBatch(ctx context.Context, in BatchInput) (Task, error) {
	if err := httpx.ValidateStruct(in); err != nil {
		return Task{}, err
	}
	items, customers, err := s.repo.OrderLines(ctx, in.OrderIDs)
	if err != nil {
		return Task{}, err
	}
	if len(items) == 0 {
		return Task{}, ErrNoLines
	}
	priority := in.Priority
	if priority == "" {
		priority = "normal"
	}
	now := s.now()
	task := Task{
		ID:        shared.TimestampCode("BATCH", "-", now, ""),
		Kind:      KindBatch,
		OrderIDs:  in.OrderIDs,
		Priority:  priority,
		Status:    StatusPending,
		Assignee:  in.Assignee,
		Route:     Route(items),
		CreatedAt: now,
		Items:     items,
	}
	if len(customers) == 1 {
		task.CustomerName = customers[0]
	} else if len(customers) > 1 {
		task.CustomerName = fmt.Sprintf("%s 他%d件", customers[0], len(customers)-1)
	}
	for _, it := range items {
		task.TotalItems += it.Quantity
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return Task{}, err
	}
	shared.RecordActivity(ctx, s.activity, s.logger, shared.Activity{
		Type:        "picking_batch_created",
		Description: fmt.Sprintf("バッチピッキング %s を作成しました（%d件の注文）", task.ID, len(in.OrderIDs)),
		UserID:      shared.ActorID(ctx),
		Metadata:    map[string]any{"taskId": task.ID, "orderIds": in.OrderIDs, "totalItems": task.TotalItems},
	})
	return task, nil
}

// Route returns the distinct non-empty locations of items in sorted order.
func Route(items []Item) []string {
	seen := map[string]bool{}
	route := []string{}
	for _, it := range items {
		if it.Location == "" || seen[it.Location] {
			continue
		}
		seen[it.Location] = true
		route = append(route, it.Location)
	}
	sort.Strings(route)
	return route
}

// History summarises tasks completed in the last days days, newest day first.
func (s *Service) History(ctx context.Context, days int) (History, error) {
	if days <= 0 {
		days = defaultHistoryDays
	}
	now := s.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(days - 1))
	tasks, err := s.repo.CompletedSince(ctx, start)
	if err != nil {
		return History{}, err
	}

	type bucket struct {
		count   int
		minutes float64
		timed   int
	}
	perDay := map[string]*bucket{}
	perAssignee := map[string]int{}
	var total bucket
	for _, t := range tasks {
		if t.CompletedAt == nil {
			continue
		}
		day := t.CompletedAt.In(now.Location()).Format("2006-01-02")
		b := perDay[day]
		if b == nil {
			b = &bucket{}
			perDay[day] = b
		}
		b.count++
		total.count++
		if t.StartedAt != nil {
			m := t.CompletedAt.Sub(*t.StartedAt).Minutes()
			b.minutes += m
			b.timed++
			total.minutes += m
			total.timed++
		}
		if t.Assignee != "" {
			perAssignee[t.Assignee]++
		}
	}

	h := History{DailyStats: make([]DayStat, 0, days)}
	for i := 0; i < days; i++ {
		day := now.AddDate(0, 0, -i).Format("2006-01-02")
		stat := DayStat{Date: day}
		if b := perDay[day]; b != nil {
			stat.Completed = b.count
			stat.AverageMinutes = average(b.minutes, b.timed)
		}
		h.DailyStats = append(h.DailyStats, stat)
	}
	h.Summary = HistorySummary{
		TotalCompleted: total.count,
		AverageMinutes: average(total.minutes, total.timed),
		TopPerformer:   top(perAssignee),
	}
	return h, nil
}

func average(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(int(sum/float64(n)*10+0.5)) / 10
}

func top(counts map[string]int) string {
	best, bestN := "", 0
	for name, n := range counts {
		if n > bestN || (n == bestN && name < best) {
			best, bestN = name, n
		}
	}
	return best
}
