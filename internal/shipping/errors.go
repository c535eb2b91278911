package shipping

import (
	"fmt"

	"github.com/worlddoor/fulfillment/internal/platform/httpx"
)

// ErrNotFound indicates an unknown shipment.
var ErrNotFound = fmt.Errorf("shipment not found: %w", httpx.ErrNotFound)
