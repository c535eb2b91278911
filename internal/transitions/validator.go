// Package transitions is the manual product status tool used to simulate a
// sale without a marketplace purchase.
package transitions

import (
	"fmt"

	"github.com/worlddoor/fulfillment/internal/platform/httpx"
	"github.com/worlddoor/fulfillment/internal/products"
)

// Pair is one permitted status change.
type Pair struct {
	From products.Status `json:"from"`
	To   products.Status `json:"to"`
}

func (p Pair) String() string {
	return fmt.Sprintf("%s → %s", p.From, p.To)
}

var allowed = []Pair{
	{From: products.StatusListing, To: products.StatusSold},
	{From: products.StatusSold, To: products.StatusListing},
}

// Allowed returns the permitted pairs.
func Allowed() []Pair {
	out := make([]Pair, len(allowed))
	copy(out, allowed)
	return out
}

// NotAllowedError rejects a pair outside the allow-list.
type NotAllowedError struct {
	From, To products.Status
}

// ErrTransitionNotAllowed is matched by every NotAllowedError.
var ErrTransitionNotAllowed = fmt.Errorf("transition not allowed: %w", httpx.ErrValidation)

func (e *NotAllowedError) Error() string {
	return fmt.Sprintf("許可されていないステータス遷移です: %s → %s", e.From, e.To)
}

// Unwrap exposes ErrTransitionNotAllowed.
func (e *NotAllowedError) Unwrap() error { return ErrTransitionNotAllowed }

// ProblemExtensions lists the permitted pairs in the problem response.
func (e *NotAllowedError) ProblemExtensions() map[string]any {
	pairs := make([]string, len(allowed))
	for i, p := range allowed {
		pairs[i] = p.String()
	}
	return map[string]any{"allowedTransitions": pairs}
}

// Validate permits only pairs in the allow-list.
func Validate(from, to products.Status) error {
	for _, p := range allowed {
		if p.From == from && p.To == to {
			return nil
		}
	}
	return &NotAllowedError{From: from, To: to}
}
