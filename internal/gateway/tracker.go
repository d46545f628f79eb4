package gateway

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Observer is told about every remote call the Gateway makes.
// Implementations must not block; they run while the tracker lock is held.
type Observer interface {
	OnRequestStart(count int)
	OnRequestEnd(count int)
}

// ObserverFuncs adapts two functions to Observer. Nil funcs are skipped.
type ObserverFuncs struct {
	Start func(count int)
	End   func(count int)
}

func (o ObserverFuncs) OnRequestStart(count int) {
	if o.Start != nil {
		o.Start(count)
	}
}

func (o ObserverFuncs) OnRequestEnd(count int) {
	if o.End != nil {
		o.End(count)
	}
}

// RequestTracker counts outstanding remote calls and fans out lifecycle events.
//
// One mutex serializes counter changes together with observer notification, so
// observers see counts in the order they happened. InFlight is a lock-free read.
type RequestTracker struct {
	mu        sync.Mutex
	count     atomic.Int64
	observers []Observer
}

func NewRequestTracker(observers ...Observer) *RequestTracker {
	return &RequestTracker{observers: observers}
}

// Register appends o; observers are notified in registration order.
func (t *RequestTracker) Register(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, o)
}

func (t *RequestTracker) InFlight() int {
	return int(t.count.Load())
}

func (t *RequestTracker) begin() {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := int(t.count.Add(1))
	for _, o := range t.observers {
		o.OnRequestStart(n)
	}
}

func (t *RequestTracker) end() {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := int(t.count.Add(-1))
	if n < 0 {
		// Unbalanced end; clamp so the indicator never shows a negative count.
		t.count.Store(0)
		n = 0
	}
	for _, o := range t.observers {
		o.OnRequestEnd(n)
	}
}

// LogObserver writes request lifecycle events at debug level.
func LogObserver(log *slog.Logger) Observer {
	return ObserverFuncs{
		Start: func(n int) { log.Debug("request started", "in_flight", n) },
		End:   func(n int) { log.Debug("request finished", "in_flight", n) },
	}
}
