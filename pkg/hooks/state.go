package hooks

import (
	"context"
	"errors"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/fivetwenty-io/ipam-client/internal/constants"
	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
)

// Static errors for err113 compliance.
var (
	ErrClosed         = errors.New("hook is closed")
	ErrNoEndpoint     = errors.New("no endpoint configured")
	ErrNoSaveEndpoint = errors.New("no save endpoint configured")
	ErrScopeChanged   = errors.New("request scope changed")
)

// State is the snapshot a request hook exposes. Loading implies Data == nil.
type State[T any] struct {
	Data    *T
	Loading bool
	Err     error
}

// HasData reports whether a result is present.
func (s State[T]) HasData() bool {
	return s.Data != nil
}

// Option configures a hook.
type Option func(*options)

type options struct {
	ctx       context.Context //nolint:containedctx
	logger    ipam.Logger
	cacheSize int
}

// WithContext sets the parent context of every request issued by the hook.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

// WithLogger sets the logger used to report failed requests.
func WithLogger(logger ipam.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithCacheSize bounds the number of pages a CachingAPI keeps.
func WithCacheSize(size int) Option {
	return func(o *options) {
		o.cacheSize = size
	}
}

func buildOptions(opts []Option) options {
	o := options{
		ctx:       context.Background(),
		logger:    ipam.NoopLogger{},
		cacheSize: constants.DefaultPageCacheSize,
	}

	for _, opt := range opts {
		opt(&o)
	}

	if o.ctx == nil {
		o.ctx = context.Background()
	}

	if o.logger == nil {
		o.logger = ipam.NoopLogger{}
	}

	if o.cacheSize <= 0 {
		o.cacheSize = constants.DefaultPageCacheSize
	}

	return o
}

func identity[T any](v T) T {
	return v
}

// listeners delivers versioned snapshots in order. A snapshot older than one
// already delivered is dropped. Listeners run synchronously and must not call
// mutating methods of the hook that notifies them.
type listeners[S any] struct {
	mu        sync.Mutex
	deliverMu sync.Mutex
	next      int
	fns       map[int]func(S)
	delivered uint64
}

func (l *listeners[S]) add(fn func(S)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fns == nil {
		l.fns = make(map[int]func(S))
	}

	id := l.next
	l.next++
	l.fns[id] = fn

	var once sync.Once

	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()

			delete(l.fns, id)
		})
	}
}

func (l *listeners[S]) notify(version uint64, snapshot S) {
	l.deliverMu.Lock()
	defer l.deliverMu.Unlock()

	if version <= l.delivered {
		return
	}

	l.delivered = version

	l.mu.Lock()
	fns := make([]func(S), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

// waitFor blocks until done(snapshot) holds or ctx ends.
func waitFor[S any](ctx context.Context, subscribe func(func(S)) func(), current func() S, done func(S) bool) (S, error) {
	ready := make(chan S, 1)

	unsubscribe := subscribe(func(s S) {
		if !done(s) {
			return
		}

		select {
		case ready <- s:
		default:
		}
	})
	defer unsubscribe()

	if s := current(); done(s) {
		return s, nil
	}

	select {
	case s := <-ready:
		return s, nil
	case <-ctx.Done():
		return current(), ctx.Err()
	}
}

// core holds what every request hook shares: the lock, the lifecycle, the
// current snapshot and its listeners.
type core[T any] struct {
	mu        sync.Mutex
	ctx       context.Context //nolint:containedctx
	stop      context.CancelFunc
	logger    ipam.Logger
	transform func(T) T
	state     State[T]
	version   uint64
	closed    bool
	wg        conc.WaitGroup
	listeners listeners[State[T]]
}

func (c *core[T]) init(transform func(T) T, o options) {
	if transform == nil {
		transform = identity[T]
	}

	c.ctx, c.stop = context.WithCancel(o.ctx)
	c.logger = o.logger
	c.transform = transform
}

// setLocked replaces the snapshot. The caller must hold mu and publish the
// returned version after unlocking.
func (c *core[T]) setLocked(s State[T]) (uint64, State[T]) {
	c.state = s
	c.version++

	return c.version, s
}

func (c *core[T]) publish(version uint64, s State[T]) {
	c.listeners.notify(version, s)
}

// State returns the current snapshot.
func (c *core[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Subscribe registers fn for every new snapshot and returns the function
// that removes it.
func (c *core[T]) Subscribe(fn func(State[T])) func() {
	return c.listeners.add(fn)
}

// Wait blocks until the hook is not loading.
func (c *core[T]) Wait(ctx context.Context) (State[T], error) {
	return waitFor(ctx, c.Subscribe, c.State, func(s State[T]) bool { return !s.Loading })
}

// shutdown marks the hook closed, cancels its context and waits for its
// goroutines.
func (c *core[T]) shutdown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()

		return
	}

	c.closed = true
	c.stop()
	c.mu.Unlock()

	c.wg.Wait()
}

func valuePtr[T any](v T) *T {
	return &v
}
