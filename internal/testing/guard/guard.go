// Package guard forces test mode for packages that import it from their
// tests, keeping runtime side effects out of unit runs.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("DEALERLINK_TEST_MODE") == "" {
			_ = os.Setenv("DEALERLINK_TEST_MODE", "1")
		}
	})
}
