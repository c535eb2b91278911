package shared

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RandomCode returns n uppercase hexadecimal characters.
func RandomCode(n int) string {
	var b strings.Builder
	for b.Len() < n {
		b.WriteString(strings.ReplaceAll(uuid.NewString(), "-", ""))
	}
	return strings.ToUpper(b.String()[:n])
}

// TimestampCode builds "{prefix}{sep}{unixMillis}{sep}{suffix}" style codes.
func TimestampCode(prefix, sep string, at time.Time, suffix string) string {
	if suffix == "" {
		return fmt.Sprintf("%s%s%d", prefix, sep, at.UnixMilli())
	}
	return fmt.Sprintf("%s%s%d%s%s", prefix, sep, at.UnixMilli(), sep, suffix)
}
