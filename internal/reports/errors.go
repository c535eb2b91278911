package reports

import (
	"fmt"

	"github.com/worlddoor/fulfillment/internal/platform/httpx"
)

var (
	// ErrInvalidPeriod indicates a malformed or out-of-range report month.
	ErrInvalidPeriod = fmt.Errorf("有効な年月を指定してください: %w", httpx.ErrValidation)
	// ErrPDFUnavailable indicates PDF output was requested without a renderer.
	ErrPDFUnavailable = fmt.Errorf("PDF出力は現在利用できません: %w", httpx.ErrValidation)
)
