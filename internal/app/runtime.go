package app

import (
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// TestModeEnv names the variable that switches both binaries into test mode.
const TestModeEnv = "WORLDDOOR_TEST_MODE"

var testMode struct {
	once sync.Once
	on   atomic.Bool
}

// InTestMode reports whether the binaries should skip runtime side effects
// such as opening database pools or listening on sockets.
func InTestMode() bool {
	testMode.once.Do(RefreshTestMode)
	return testMode.on.Load()
}

// RefreshTestMode re-reads the flag after the environment changed.
func RefreshTestMode() {
	value := strings.TrimSpace(os.Getenv(TestModeEnv))
	testMode.on.Store(value == "1" || strings.EqualFold(value, "true"))
}
