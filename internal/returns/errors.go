package returns

import (
	"fmt"

	"github.com/worlddoor/fulfillment/internal/platform/httpx"
)

var (
	// ErrNotFound indicates an unknown return request.
	ErrNotFound = fmt.Errorf("return not found: %w", httpx.ErrNotFound)
	// ErrProductNotFound indicates the returned product does not exist.
	ErrProductNotFound = fmt.Errorf("商品が見つかりません: %w", httpx.ErrNotFound)
)
