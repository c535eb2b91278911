package products

import (
	"fmt"

	"github.com/worlddoor/fulfillment/internal/platform/httpx"
)

var (
	// ErrNotFound indicates the product does not exist or is hidden from the caller.
	ErrNotFound = fmt.Errorf("product %w", httpx.ErrNotFound)
	// ErrDuplicateSKU indicates another product already uses the SKU.
	ErrDuplicateSKU = fmt.Errorf("SKUが既に存在します: %w", httpx.ErrDuplicate)
	// ErrInActiveOrder blocks deleting a product that an open order references.
	ErrInActiveOrder = fmt.Errorf("進行中の注文に含まれる商品は削除できません: %w", httpx.ErrConflict)
	// ErrStaleStatus indicates the stored status no longer matches the expected one.
	ErrStaleStatus = fmt.Errorf("product status changed: %w", httpx.ErrConflict)
)

// StaleStatusError reports a conditional status write that lost the race.
type StaleStatusError struct {
	ProductID string
	Expected  Status
	Current   Status
}

func (e *StaleStatusError) Error() string {
	return fmt.Sprintf("商品 %s のステータスは %s に変更されています (expected %s)", e.ProductID, e.Current, e.Expected)
}

// Unwrap exposes ErrStaleStatus.
func (e *StaleStatusError) Unwrap() error { return ErrStaleStatus }

// ProblemExtensions adds the stored status to the problem response.
func (e *StaleStatusError) ProblemExtensions() map[string]any {
	return map[string]any{"currentStatus": string(e.Current), "expectedStatus": string(e.Expected)}
}
