package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("MAKERHALL_TEST_MODE", "1")
		if os.Getenv("OAUTH_INTROSPECT_URL") == "" {
			_ = os.Setenv("OAUTH_INTROSPECT_URL", "http://127.0.0.1:0")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
