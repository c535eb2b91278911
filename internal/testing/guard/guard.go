// Package guard enables test mode when imported for side effects from test
// binaries that cannot import the root testing package.
package guard

import "os"

func init() {
	if _, ok := os.LookupEnv("WORLDDOOR_TEST_MODE"); !ok {
		_ = os.Setenv("WORLDDOOR_TEST_MODE", "1")
	}
}
