package store

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain ensures List's bounded errgroup pool never leaks a
// goroutine past its call.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
