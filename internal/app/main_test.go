package app

import (
	"testing"

	"go.uber.org/goleak"
)

// Advice fan-out must not leave goroutines behind.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
