package activities

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/worlddoor/fulfillment/internal/platform/httpx"
	"github.com/worlddoor/fulfillment/internal/shared"
)

// Store reads stored activities.
type Store interface {
	List(ctx context.Context, f Filter, limit, offset int) ([]Entry, int, error)
	CountByType(ctx context.Context, from, to time.Time) ([]TypeCount, error)
	CountByUser(ctx context.Context, from, to time.Time, limit int) ([]UserCount, error)
}

// Service answers activity log queries.
type Service struct {
	store Store
}

// NewService builds Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns one page of the log.
func (s *Service) List(ctx context.Context, f Filter, page, limit int) (Page, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if page <= 0 {
		page = 1
	}
	offset := shared.NewPagination(page, limit, 0).Offset()
	items, total, err := s.store.List(ctx, f, limit, offset)
	if err != nil {
		return Page{}, fmt.Errorf("list activities: %w", err)
	}
	if items == nil {
		items = []Entry{}
	}
	pagination := shared.NewPagination(page, limit, total)
	return Page{
		Data:       items,
		Pagination: Pagination{Pagination: pagination, HasNext: page*limit < total},
	}, nil
}

// Summary aggregates the log between the optional start and end dates.
func (s *Service) Summary(ctx context.Context, in SummaryInput) (Summary, error) {
	if err := httpx.ValidateStruct(in); err != nil {
		return Summary{}, err
	}
	from, err := ParseStart(in.StartDate)
	if err != nil {
		return Summary{}, err
	}
	to, err := ParseEnd(in.EndDate)
	if err != nil {
		return Summary{}, err
	}

	byType, err := s.store.CountByType(ctx, from, to)
	if err != nil {
		return Summary{}, fmt.Errorf("count activities by type: %w", err)
	}
	recent, _, err := s.store.List(ctx, Filter{From: from, To: to}, recentLimit, 0)
	if err != nil {
		return Summary{}, fmt.Errorf("recent activities: %w", err)
	}
	users, err := s.store.CountByUser(ctx, from, to, topUserLimit)
	if err != nil {
		return Summary{}, fmt.Errorf("count activities by user: %w", err)
	}
	if byType == nil {
		byType = []TypeCount{}
	}
	if recent == nil {
		recent = []Entry{}
	}
	if users == nil {
		users = []UserCount{}
	}
	return Summary{ByType: byType, Recent: recent, Users: users}, nil
}

const dateLayout = "2006-01-02"

func parseDate(raw string) (time.Time, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, false, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, false, ErrInvalidDate
	}
	return t, true, nil
}

// ParseStart reads a start date. Empty input means no lower bound.
func ParseStart(raw string) (time.Time, error) {
	t, _, err := parseDate(raw)
	return t, err
}

// ParseEnd reads an end date. A bare date covers the whole day.
func ParseEnd(raw string) (time.Time, error) {
	t, dateOnly, err := parseDate(raw)
	if err != nil || !dateOnly {
		return t, err
	}
	return t.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}
