package nodetest

import (
	"sync"
	"testing"
	"time"
)

// Events tracks named happenings across goroutines in a test. Handlers call
// Set from wherever a delivery lands and the test body blocks on Wait, or
// asserts silence with ExpectNone, without wiring a channel per flag.
type Events struct {
	lock  sync.Mutex
	flags map[string]chan struct{}
}

// NewEvents creates an Events tracker with a flag per name. Flags not listed
// here are created lazily on first use.
func NewEvents(names ...string) *Events {
	events := &Events{flags: make(map[string]chan struct{}, len(names))}
	for _, name := range names {
		events.flag(name)
	}
	return events
}

// flag returns the channel backing name, creating it on first use.
func (events *Events) flag(name string) chan struct{} {
	events.lock.Lock()
	defer events.lock.Unlock()

	ch, ok := events.flags[name]
	if !ok {
		ch = make(chan struct{}, 64)
		events.flags[name] = ch
	}
	return ch
}

// Set marks one occurrence of name. Safe to call from any goroutine. Past 64
// unconsumed occurrences further sets are dropped, which is plenty for tests
// counting a handful of deliveries.
func (events *Events) Set(name string) {
	select {
	case events.flag(name) <- struct{}{}:
	default:
	}
}

// Wait blocks until name is set or timeout elapses. Each Wait consumes one
// Set, so two deliveries need two waits.
//
// t.FailNow() is called on timeout.
func (events *Events) Wait(t *testing.T, name string, timeout time.Duration) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-events.flag(name):
	case <-timer.C:
		t.Errorf("timeout waiting for event '%v'", name)
		t.FailNow()
	}
}

// ExpectNone asserts name stays unset for the full wait window.
//
// t.FailNow() is called if the event fires.
func (events *Events) ExpectNone(t *testing.T, name string, wait time.Duration) {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-events.flag(name):
		t.Errorf("unexpected event '%v'", name)
		t.FailNow()
	case <-timer.C:
	}
}
