package inspection

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/worlddoor/fulfillment/internal/platform/httpx"
	"github.com/worlddoor/fulfillment/internal/shared"
)

type memoryStore struct {
	records map[string]Record
}

func newMemoryStore(records ...Record) *memoryStore {
	s := &memoryStore{records: map[string]Record{}}
	for _, rec := range records {
		s.records[rec.ProductID] = rec
	}
	return s
}

func (s *memoryStore) Get(_ context.Context, productID string) (Record, error) {
	rec, ok := s.records[productID]
	if !ok {
		return Record{}, fmt.Errorf("product %s: %w", productID, httpx.ErrNotFound)
	}
	return rec, nil
}

func (s *memoryStore) Save(_ context.Context, productID string, data Data) error {
	rec, ok := s.records[productID]
	if !ok {
		return httpx.ErrNotFound
	}
	rec.Checklist = data
	s.records[productID] = rec
	return nil
}

func TestServiceGetInitializesMissingChecklist(t *testing.T) {
	svc := NewService(newMemoryStore(Record{ProductID: "p1", Category: "lens"}), nil, nil)

	got, err := svc.Get(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, CategoryCamera, got.Category)
	require.Equal(t, Initialize("camera"), got.Data)
}

func TestServiceSaveAcceptsFlatPayload(t *testing.T) {
	store := newMemoryStore(Record{ProductID: "p1", Category: "watch", SellerID: "s1"})
	var activities []shared.Activity
	rec := shared.ActivityFunc(func(_ context.Context, a shared.Activity) error {
		activities = append(activities, a)
		return nil
	})
	svc := NewService(store, rec, nil)

	_, err := svc.Save(context.Background(), "p1", Data{"dial_hands_dial_stains": true, "notes": "ok"})
	require.NoError(t, err)

	saved := store.records["p1"].Checklist
	require.Equal(t, true, saved["dial_hands"].(map[string]any)["dial_stains"])
	require.Equal(t, "ok", saved["notes"])
	require.Len(t, activities, 1)
	require.Equal(t, "inspection_checklist_saved", activities[0].Type)
	require.Equal(t, "p1", activities[0].ProductID)
}

func TestServiceHidesOtherSellersProducts(t *testing.T) {
	svc := NewService(newMemoryStore(Record{ProductID: "p1", Category: "camera", SellerID: "s1"}), nil, nil)
	ctx := shared.ContextWithPrincipal(context.Background(), &shared.Principal{UserID: "s2", Role: shared.RoleSeller})

	_, err := svc.Get(ctx, "p1")
	require.True(t, errors.Is(err, httpx.ErrNotFound))

	ctx = shared.ContextWithPrincipal(context.Background(), &shared.Principal{UserID: "staff", Role: shared.RoleStaff})
	_, err = svc.Get(ctx, "p1")
	require.NoError(t, err)
}

func TestServiceSaveRequiresData(t *testing.T) {
	svc := NewService(newMemoryStore(), nil, nil)
	_, err := svc.Save(context.Background(), "p1", nil)
	require.True(t, errors.Is(err, httpx.ErrValidation))
}
