package session

import (
	"testing"

	"go.uber.org/goleak"
)

// Every turn's provider goroutine must have exited by the end of the run.
func TestMain(m *testing.M) {
	// Ignore known background goroutines from dependencies
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}
