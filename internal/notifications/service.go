package notifications

import (
	"context"
	"fmt"

	"github.com/worlddoor/fulfillment/internal/platform/httpx"
	"github.com/worlddoor/fulfillment/internal/shared"
)

// RepositoryPort abstracts inbox persistence for Service.
type RepositoryPort interface {
	List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
	Contact(ctx context.Context, userID string) (Contact, error)
	SaveSettings(ctx context.Context, userID string, settings Settings) error
}

// Service serves the signed-in user's inbox and settings.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func caller(ctx context.Context) (string, error) {
	p := shared.PrincipalFromContext(ctx)
	if p == nil || p.UserID == "" {
		return "", httpx.ErrUnauthorized
	}
	return p.UserID, nil
}

// Inbox lists the caller's notifications.
func (s *Service) Inbox(ctx context.Context, unreadOnly bool, limit int) ([]Notification, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.List(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Notification{}
	}
	return items, nil
}

// MarkRead flags one of the caller's notifications as read.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	userID, err := caller(ctx)
	if err != nil {
		return err
	}
	return s.repo.MarkRead(ctx, id, userID)
}

// Settings returns the caller's merged settings.
func (s *Service) Settings(ctx context.Context) (Settings, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	contact, err := s.repo.Contact(ctx, userID)
	if err != nil {
		return nil, err
	}
	return contact.Settings, nil
}

// UpdateSettings merges patch over the caller's current settings.
func (s *Service) UpdateSettings(ctx context.Context, patch map[string]bool) (Settings, error) {
	current, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	for key, enabled := range patch {
		if _, known := current[Type(key)]; !known {
			return nil, fmt.Errorf("%w: unknown notification type %q", httpx.ErrValidation, key)
		}
		current[Type(key)] = enabled
	}
	userID, _ := caller(ctx)
	if err := s.repo.SaveSettings(ctx, userID, current); err != nil {
		return nil, err
	}
	return current, nil
}
