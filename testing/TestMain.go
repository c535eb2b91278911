// Package testing flips the binaries into test mode for any test package that
// imports it for side effects.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func enableTestMode() {
	once.Do(func() {
		_ = os.Setenv("WORLDDOOR_TEST_MODE", "1")
		for key, value := range map[string]string{
			"GOTENBERG_URL": "http://127.0.0.1:0",
			"UPLOADS_DIR":   os.TempDir(),
		} {
			if os.Getenv(key) == "" {
				_ = os.Setenv(key, value)
			}
		}
	})
}

func init() {
	enableTestMode()
}

// TestMain runs the suite with test mode enabled.
func TestMain(m *stdtesting.M) {
	enableTestMode()
	os.Exit(m.Run())
}
