package shared

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var yenPrinter = message.NewPrinter(language.Japanese)

// FormatYen renders an amount as ¥1,234,567.
func FormatYen(amount int64) string {
	return yenPrinter.Sprintf("¥%d", amount)
}
