package runner_test

import (
	"testing"
	"time"

	"github.com/hperssn/panicbutton/internal/runner"
)

// manualClock hands every runner the same unbuffered channel, so a Tick
// returns only once some loop has taken it.
type manualClock struct {
	c chan time.Time
}

func newManualClock() *manualClock {
	return &manualClock{c: make(chan time.Time)}
}

type manualTicker struct{ c chan time.Time }

func (t manualTicker) C() <-chan time.Time { return t.c }
func (t manualTicker) Stop()               {}

func (m *manualClock) NewTicker(time.Duration) runner.Ticker {
	return manualTicker{c: m.c}
}

func (m *manualClock) Tick(t *testing.T) {
	t.Helper()
	select {
	case m.c <- time.Now():
	case <-time.After(time.Second):
		t.Fatalf("no runner accepted the tick")
	}
}

// TryTick reports whether any loop accepted a tick within a short window.
func (m *manualClock) TryTick() bool {
	select {
	case m.c <- time.Now():
		return true
	case <-time.After(50 * time.Millisecond):
		return false
	}
}

func recv[T any](t *testing.T, ch <-chan T) (T, bool) {
	t.Helper()
	select {
	case v, ok := <-ch:
		return v, ok
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
	}
	var zero T
	return zero, false
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}
