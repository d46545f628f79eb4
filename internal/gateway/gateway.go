package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Op is one logical remote operation.
//
// Name identifies the operation and Args is its argument value; together they form
// the cache key. Call performs the request.
type Op[T any] struct {
	Name  string
	Args  any
	Cache bool
	Call  func(ctx context.Context) (T, error)
}

// Key is the cache key for op: the operation name plus the %+v form of all its arguments.
func (op Op[T]) Key() string {
	if op.Args == nil {
		return op.Name
	}
	return fmt.Sprintf("%s%+v", op.Name, op.Args)
}

// Result is what an asynchronous call delivers: a value or an error.
type Result[T any] struct {
	Value T
	Err   error
}

// Gateway mediates every remote call: it tracks in-flight requests, notifies observers,
// and keeps an in-memory cache for operations that opt in.
type Gateway struct {
	tracker *RequestTracker
	log     *slog.Logger

	mu    sync.Mutex
	cache map[string]any
}

func New(tracker *RequestTracker, log *slog.Logger) *Gateway {
	if tracker == nil {
		tracker = NewRequestTracker()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{tracker: tracker, log: log, cache: map[string]any{}}
}

func (g *Gateway) Tracker() *RequestTracker { return g.tracker }

// InFlight reports how many calls are outstanding.
func (g *Gateway) InFlight() int { return g.tracker.InFlight() }

func (g *Gateway) lookup(key string) (any, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.cache[key]
	return v, ok
}

func (g *Gateway) storeIfAbsent(key string, v any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.cache[key]; !ok {
		g.cache[key] = v
	}
}

// Call runs op on the calling goroutine and blocks until it finishes.
func Call[T any](ctx context.Context, g *Gateway, op Op[T]) (v T, err error) {
	g.tracker.begin()
	defer g.tracker.end()

	key := op.Key()
	if op.Cache {
		if cached, ok := g.lookup(key); ok {
			if tv, ok := cached.(T); ok {
				g.log.Debug("cache hit", "op", op.Name, "key", key)
				return tv, nil
			}
		}
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", op.Name, r)
			g.log.Error("remote call panicked", "op", op.Name, "panic", r)
		}
	}()

	v, err = op.Call(ctx)
	if err != nil {
		g.log.Warn("remote call failed", "op", op.Name, "err", err)
		return v, err
	}
	if op.Cache {
		g.storeIfAbsent(key, v)
	}
	return v, nil
}

// Async returns a command that runs op in the background. Bubble Tea executes the
// command on its own goroutine and feeds the message built by deliver back into the
// program's single update loop, so deliver must not touch UI state itself.
func Async[T any](ctx context.Context, g *Gateway, op Op[T], deliver func(Result[T]) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		v, err := Call(ctx, g, op)
		if deliver == nil {
			return nil
		}
		return deliver(Result[T]{Value: v, Err: err})
	}
}
