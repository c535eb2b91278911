package activities

import (
	"fmt"

	"github.com/worlddoor/fulfillment/internal/platform/httpx"
)

// ErrInvalidDate rejects a startDate or endDate that is not a date.
var ErrInvalidDate = fmt.Errorf("日付の形式が正しくありません: %w", httpx.ErrValidation)
