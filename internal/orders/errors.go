package orders

import (
	"fmt"

	"github.com/worlddoor/fulfillment/internal/platform/httpx"
)

var (
	// ErrNotFound indicates the order does not exist.
	ErrNotFound = fmt.Errorf("注文が見つかりません: %w", httpx.ErrNotFound)
	// ErrCustomerNotFound indicates an unknown customer.
	ErrCustomerNotFound = fmt.Errorf("顧客が見つかりません: %w", httpx.ErrNotFound)
	// ErrProductsUnavailable indicates a product is missing or not orderable.
	ErrProductsUnavailable = fmt.Errorf("一部の商品が見つからないか、利用できません: %w", httpx.ErrValidation)
	// ErrInvalidStatus indicates an unknown order status.
	ErrInvalidStatus = fmt.Errorf("無効なステータスです: %w", httpx.ErrValidation)
)

// CascadeError reports the item at which a product cascade stopped. Items
// before it keep their new status. It does not unwrap, so it always maps to
// an internal error.
type CascadeError struct {
	OrderID   string
	ProductID string
	Applied   int
	Err       error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("cascade order %s: product %s after %d updates: %v", e.OrderID, e.ProductID, e.Applied, e.Err)
}
