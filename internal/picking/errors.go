package picking

import (
	"fmt"

	"github.com/worlddoor/fulfillment/internal/platform/httpx"
)

var (
	// ErrTaskNotFound indicates an unknown task.
	ErrTaskNotFound = fmt.Errorf("picking task not found: %w", httpx.ErrNotFound)
	// ErrItemNotFound indicates an unknown task item.
	ErrItemNotFound = fmt.Errorf("picking item not found: %w", httpx.ErrNotFound)
	// ErrInvalidAction indicates an unsupported operator action.
	ErrInvalidAction = fmt.Errorf("invalid action: %w", httpx.ErrValidation)
	// ErrNoLines indicates the batch orders contain nothing to pick.
	ErrNoLines = fmt.Errorf("orders have no items to pick: %w", httpx.ErrValidation)
)
