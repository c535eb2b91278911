package products

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/worlddoor/fulfillment/internal/labels"
	"github.com/worlddoor/fulfillment/internal/platform/httpx"
	"github.com/worlddoor/fulfillment/internal/shared"
)

// RepositoryPort abstracts product persistence for Service.
type RepositoryPort interface {
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]Product, int, error)
	Get(ctx context.Context, id string) (Product, error)
	Images(ctx context.Context, productIDs []string) (map[string][]Image, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, id string, updates map[string]any) (Product, error)
	Delete(ctx context.Context, id string) error
	HasActiveOrder(ctx context.Context, id string) (bool, error)
}

// Service coordinates inventory operations.
type Service struct {
	repo     RepositoryPort
	activity shared.ActivityRecorder
	logger   *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, activity shared.ActivityRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, activity: activity, logger: logger}
}

// ListQuery is the raw list request. Status and Category accept Japanese labels.
type ListQuery struct {
	Page     int
	Limit    int
	Status   string
	Category string
	Search   string
}

// List returns a page of products. Seller principals only ever see their own.
func (s *Service) List(ctx context.Context, q ListQuery) (ListResult, error) {
	filter := ListFilter{Search: strings.TrimSpace(q.Search)}
	if q.Status != "" {
		status, err := labels.ProductStatus.Decode(q.Status)
		if err != nil {
			return ListResult{}, fmt.Errorf("%w: %w", httpx.ErrValidation, err)
		}
		filter.Status = Status(status)
	}
	if q.Category != "" {
		category, err := labels.Category.Decode(q.Category)
		if err != nil {
			return ListResult{}, fmt.Errorf("%w: %w", httpx.ErrValidation, err)
		}
		filter.Category = category
	}
	if p := shared.PrincipalFromContext(ctx); p.IsSeller() {
		filter.SellerID = p.UserID
	}

	page := shared.NewPagination(q.Page, q.Limit, 0)
	items, total, err := s.repo.List(ctx, filter, page.Limit, page.Offset())
	if err != nil {
		return ListResult{}, err
	}
	if err := s.attachImages(ctx, items); err != nil {
		return ListResult{}, err
	}
	if items == nil {
		items = []Product{}
	}
	return ListResult{Data: items, Pagination: shared.NewPagination(page.Page, page.Limit, total)}, nil
}

// Get returns a product visible to the caller with merged images.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if principal := shared.PrincipalFromContext(ctx); principal.IsSeller() && p.SellerID != principal.UserID {
		return Product{}, ErrNotFound
	}
	items := []Product{p}
	if err := s.attachImages(ctx, items); err != nil {
		return Product{}, err
	}
	return items[0], nil
}

func (s *Service) attachImages(ctx context.Context, items []Product) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	stored, err := s.repo.Images(ctx, ids)
	if err != nil {
		return fmt.Errorf("load images: %w", err)
	}
	for i := range items {
		items[i].Images = MergeImages(stored[items[i].ID], items[i].Metadata)
	}
	return nil
}

// Create registers an inbound product.
func (s *Service) Create(ctx context.Context, input CreateInput) (Product, error) {
	if err := httpx.ValidateStruct(input); err != nil {
		return Product{}, err
	}
	category, err := labels.Category.Decode(input.Category)
	if err != nil {
		return Product{}, fmt.Errorf("%w: %w", httpx.ErrValidation, err)
	}
	condition, err := labels.Condition.Decode(input.Condition)
	if err != nil {
		return Product{}, fmt.Errorf("%w: %w", httpx.ErrValidation, err)
	}
	sellerID := input.SellerID
	if sellerID == "" {
		sellerID = shared.ActorID(ctx)
		if sellerID == "system" {
			sellerID = ""
		}
	}
	p, err := s.repo.Create(ctx, Product{
		Name:        strings.TrimSpace(input.Name),
		SKU:         strings.TrimSpace(input.SKU),
		Category:    category,
		Status:      StatusInbound,
		Price:       input.Price,
		Condition:   condition,
		Description: input.Description,
		SellerID:    sellerID,
		Metadata:    input.Metadata,
	})
	if err != nil {
		return Product{}, err
	}
	shared.RecordActivity(ctx, s.activity, s.logger, shared.Activity{
		Type:        "inbound",
		Description: fmt.Sprintf("商品 %s が新規登録されました", p.Name),
		UserID:      shared.ActorID(ctx),
		ProductID:   p.ID,
	})
	return p, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, input UpdateInput) (Product, error) {
	if err := httpx.ValidateStruct(input); err != nil {
		return Product{}, err
	}
	if _, err := s.repo.Get(ctx, input.ID); err != nil {
		return Product{}, err
	}
	updates := map[string]any{}
	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Price != nil {
		updates["price"] = *input.Price
	}
	if input.Condition != nil && *input.Condition != "" {
		condition, err := labels.Condition.Decode(*input.Condition)
		if err != nil {
			return Product{}, fmt.Errorf("%w: %w", httpx.ErrValidation, err)
		}
		updates["condition"] = condition
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Status != nil && *input.Status != "" {
		status, err := labels.ProductStatus.Decode(*input.Status)
		if err != nil {
			return Product{}, fmt.Errorf("%w: %w", httpx.ErrValidation, err)
		}
		updates["status"] = status
	}
	p, err := s.repo.Update(ctx, input.ID, updates)
	if err != nil {
		return Product{}, err
	}
	shared.RecordActivity(ctx, s.activity, s.logger, shared.Activity{
		Type:        "update",
		Description: fmt.Sprintf("商品 %s が更新されました", p.Name),
		UserID:      shared.ActorID(ctx),
		ProductID:   p.ID,
	})
	return p, nil
}

// Delete removes a product unless an open order still references it.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: 商品IDが必要です", httpx.ErrValidation)
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	active, err := s.repo.HasActiveOrder(ctx, id)
	if err != nil {
		return err
	}
	if active {
		return ErrInActiveOrder
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	shared.RecordActivity(ctx, s.activity, s.logger, shared.Activity{
		Type:        "delete",
		Description: fmt.Sprintf("商品 %s が削除されました", p.Name),
		UserID:      shared.ActorID(ctx),
		Metadata:    map[string]any{"productId": p.ID, "sku": p.SKU},
	})
	return nil
}
