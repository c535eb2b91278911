package inspection

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/worlddoor/fulfillment/internal/platform/httpx"
	"github.com/worlddoor/fulfillment/internal/shared"
)

// Store abstracts checklist persistence for Service.
type Store interface {
	Get(ctx context.Context, productID string) (Record, error)
	Save(ctx context.Context, productID string, data Data) error
}

// Checklist is the response shape for a product checklist.
type Checklist struct {
	ProductID string   `json:"productId"`
	Category  string   `json:"category"`
	Structure Category `json:"structure"`
	Data      Data     `json:"data"`
}

// Service loads and saves product checklists.
type Service struct {
	store    Store
	activity shared.ActivityRecorder
	logger   *slog.Logger
}

// NewService builds Service.
func NewService(store Store, activity shared.ActivityRecorder, logger *slog.Logger) *Service {
	return &Service{store: store, activity: activity, logger: logger}
}

// Template returns the catalog and an empty checklist for category.
func (s *Service) Template(category string) Checklist {
	return Checklist{
		Category:  Normalize(category),
		Structure: Structure(category),
		Data:      Initialize(category),
	}
}

// Get returns the stored checklist or a fresh one when none was saved.
func (s *Service) Get(ctx context.Context, productID string) (Checklist, error) {
	rec, err := s.load(ctx, productID)
	if err != nil {
		return Checklist{}, err
	}
	data := rec.Checklist
	if data == nil {
		data = Initialize(rec.Category)
	}
	return Checklist{
		ProductID: rec.ProductID,
		Category:  Normalize(rec.Category),
		Structure: Structure(rec.Category),
		Data:      data,
	}, nil
}

// Save stores data as the product's checklist. Flat payloads are accepted
// and rebuilt against the product's category.
func (s *Service) Save(ctx context.Context, productID string, data Data) (Checklist, error) {
	if data == nil {
		return Checklist{}, fmt.Errorf("%w: checklist data required", httpx.ErrValidation)
	}
	rec, err := s.load(ctx, productID)
	if err != nil {
		return Checklist{}, err
	}
	if isFlat(data) {
		data = Unflatten(rec.Category, data)
	}
	if err := s.store.Save(ctx, productID, data); err != nil {
		return Checklist{}, err
	}
	shared.RecordActivity(ctx, s.activity, s.logger, shared.Activity{
		Type:        "inspection_checklist_saved",
		Description: fmt.Sprintf("検品チェックリストを保存しました: %s", productID),
		UserID:      shared.ActorID(ctx),
		ProductID:   productID,
		Metadata:    map[string]any{"category": Normalize(rec.Category)},
	})
	return Checklist{
		ProductID: productID,
		Category:  Normalize(rec.Category),
		Structure: Structure(rec.Category),
		Data:      data,
	}, nil
}

func (s *Service) load(ctx context.Context, productID string) (Record, error) {
	rec, err := s.store.Get(ctx, productID)
	if err != nil {
		return Record{}, err
	}
	if p := shared.PrincipalFromContext(ctx); p.IsSeller() && rec.SellerID != p.UserID {
		return Record{}, fmt.Errorf("product %s: %w", productID, httpx.ErrNotFound)
	}
	return rec, nil
}

// isFlat reports whether data carries item keys but no nested section map.
func isFlat(data Data) bool {
	flat := false
	for key, v := range data {
		if key == notesKey {
			continue
		}
		if _, ok := v.(map[string]any); ok {
			return false
		}
		flat = true
	}
	return flat
}
