package hooks

import (
	"context"
	"errors"
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sourcegraph/conc"
	"golang.org/x/sync/singleflight"

	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
)

// CachingAPI serves pages of one collection from a bounded LRU cache,
// joins concurrent requests for the same page and prefetches the pages
// following the displayed one.
//
// The scope of the cache is (endpoint ID, params, page size). Changing any of
// them, or calling Reload, empties the cache and cancels the calls of the old
// scope; their results are never cached.
type CachingAPI[T any] struct {
	core[T]

	cache    *lru.Cache[int, T]
	group    singleflight.Group
	inflight map[int]struct{}

	scope       uint64
	scopeCtx    context.Context //nolint:containedctx
	scopeCancel context.CancelFunc

	endpoints  EndpointMemo[T]
	params     ParamsMemo
	pageSize   int
	page       int
	prefetch   int
	configured bool
	load       uint64
}

// NewCachingAPI creates an idle hook. A nil transform keeps results as they are.
func NewCachingAPI[T any](transform func(T) T, opts ...Option) (*CachingAPI[T], error) {
	o := buildOptions(opts)

	cache, err := lru.New[int, T](o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating page cache: %w", err)
	}

	c := &CachingAPI[T]{
		cache:    cache,
		inflight: make(map[int]struct{}),
	}
	c.init(transform, o)
	c.scopeCtx, c.scopeCancel = context.WithCancel(c.ctx)

	return c, nil
}

// Update selects the page to display. prefetch is the size of the window
// starting at page; pages page+1 .. page+prefetch-1 are fetched in the
// background.
func (c *CachingAPI[T]) Update(endpoint Endpoint[T], page, pageSize int, params ipam.Params, prefetch int) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()

		return
	}

	_, endpointChanged := c.endpoints.Stabilize(endpoint)
	_, paramsChanged := c.params.Stabilize(params)
	scopeChanged := !c.configured || endpointChanged || paramsChanged || pageSize != c.pageSize

	if !scopeChanged && page == c.page && prefetch == c.prefetch {
		c.mu.Unlock()

		return
	}

	c.configured = true
	c.page = page
	c.pageSize = pageSize
	c.prefetch = prefetch

	if scopeChanged {
		c.resetScopeLocked()
	}

	version, state := c.loadLocked()
	c.mu.Unlock()

	c.publish(version, state)
}

// Reload drops every cached page and loads the current page again.
func (c *CachingAPI[T]) Reload() {
	c.mu.Lock()
	if c.closed || !c.configured {
		c.mu.Unlock()

		return
	}

	c.resetScopeLocked()
	version, state := c.loadLocked()
	c.mu.Unlock()

	c.publish(version, state)
}

// FetchPage returns page from the cache, joins the call already fetching it,
// or fetches it. It does not change the displayed state.
func (c *CachingAPI[T]) FetchPage(ctx context.Context, page int) (T, error) {
	var zero T

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()

		return zero, ErrClosed
	}

	if c.endpoints.Current() == nil {
		c.mu.Unlock()

		return zero, ErrNoEndpoint
	}

	scope := c.scope
	c.mu.Unlock()

	return c.fetch(ctx, scope, page)
}

// CachedPages lists the cached pages from least to most recently used.
func (c *CachingAPI[T]) CachedPages() []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cache.Keys()
}

// Pending lists the pages whose network call is running, in ascending order.
func (c *CachingAPI[T]) Pending() []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	pages := make([]int, 0, len(c.inflight))
	for page := range c.inflight {
		pages = append(pages, page)
	}

	sort.Ints(pages)

	return pages
}

// Page returns the displayed page number.
func (c *CachingAPI[T]) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.page
}

// Close cancels every outstanding call and waits for the hook's goroutines.
func (c *CachingAPI[T]) Close() {
	c.shutdown()
}

func (c *CachingAPI[T]) resetScopeLocked() {
	c.scopeCancel()
	c.scopeCtx, c.scopeCancel = context.WithCancel(c.ctx)
	c.scope++
	c.cache.Purge()
	c.inflight = make(map[int]struct{})
}

func (c *CachingAPI[T]) loadLocked() (uint64, State[T]) {
	c.load++

	if c.endpoints.Current() == nil {
		return c.setLocked(State[T]{})
	}

	token, scope, page, prefetch := c.load, c.scope, c.page, c.prefetch

	cached, hit := c.cache.Get(page)

	if !hit || prefetch > 1 {
		c.wg.Go(func() {
			c.runLoad(token, scope, page, prefetch, !hit)
		})
	}

	if hit {
		return c.setLocked(State[T]{Data: valuePtr(cached)})
	}

	return c.setLocked(State[T]{Loading: true})
}

func (c *CachingAPI[T]) runLoad(token, scope uint64, page, prefetch int, display bool) {
	var wg conc.WaitGroup

	if display {
		wg.Go(func() {
			c.settleDisplay(token, scope, page)
		})
	}

	for next := page + 1; next < page+prefetch; next++ {
		wg.Go(func() {
			_, err := c.fetch(c.ctx, scope, next)
			if err != nil && !isSuperseded(err) {
				c.logger.Warn("page prefetch failed", map[string]interface{}{
					"endpoint": c.endpointID(),
					"page":     next,
					"error":    err.Error(),
				})
			}
		})
	}

	wg.Wait()

	// Prefetched pages were added after the displayed one.
	if prefetch > 1 {
		c.mu.Lock()
		if c.scope == scope {
			c.cache.Get(page)
		}
		c.mu.Unlock()
	}
}

func (c *CachingAPI[T]) settleDisplay(token, scope uint64, page int) {
	value, err := c.fetch(c.ctx, scope, page)

	c.mu.Lock()
	if c.load != token || isSuperseded(err) {
		c.mu.Unlock()

		return
	}

	var next State[T]
	if err != nil {
		next = State[T]{Err: err}
	} else {
		next = State[T]{Data: valuePtr(value)}
		c.cache.Get(page)
	}

	version, state := c.setLocked(next)
	endpointID := c.endpointIDLocked()
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("page request failed", map[string]interface{}{
			"endpoint": endpointID,
			"page":     page,
			"error":    err.Error(),
		})
	}

	c.publish(version, state)
}

type pageResult[T any] struct {
	value T
	err   error
}

// fetch resolves page within scope. The network call runs on a tracked
// goroutine under the scope context so that one caller giving up does not
// cancel the call for the others.
func (c *CachingAPI[T]) fetch(ctx context.Context, scope uint64, page int) (T, error) {
	var zero T

	c.mu.Lock()
	if c.scope != scope {
		c.mu.Unlock()

		return zero, ErrScopeChanged
	}

	if value, ok := c.cache.Get(page); ok {
		c.mu.Unlock()

		return value, nil
	}

	if c.closed {
		c.mu.Unlock()

		return zero, ErrClosed
	}

	endpoint := c.endpoints.Current()
	params := c.params.Current().Merge(ipam.Params{
		ipam.ParamPage:     page,
		ipam.ParamPageSize: c.pageSize,
	})
	scopeCtx := c.scopeCtx
	key := fmt.Sprintf("%d:%d", scope, page)
	done := make(chan pageResult[T], 1)

	c.wg.Go(func() {
		value, err, _ := c.group.Do(key, func() (interface{}, error) {
			return c.call(scopeCtx, scope, page, endpoint, params)
		})

		result := pageResult[T]{err: err}
		if err == nil {
			result.value, _ = value.(T)
		}

		done <- result
	})
	c.mu.Unlock()

	select {
	case result := <-done:
		return result.value, result.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// call performs the network request for one page and caches the result
// before the call is forgotten by the group.
func (c *CachingAPI[T]) call(ctx context.Context, scope uint64, page int, endpoint Endpoint[T], params ipam.Params) (T, error) {
	var zero T

	c.mu.Lock()
	if c.scope != scope {
		c.mu.Unlock()

		return zero, ErrScopeChanged
	}

	if value, ok := c.cache.Peek(page); ok {
		c.mu.Unlock()

		return value, nil
	}

	c.inflight[page] = struct{}{}
	c.mu.Unlock()

	result, err := endpoint.Call(ctx, params)
	if err == nil {
		result = c.transform(result)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.scope != scope {
		return zero, ErrScopeChanged
	}

	delete(c.inflight, page)

	if err != nil {
		return zero, err
	}

	c.cache.Add(page, result)

	return result, nil
}

func (c *CachingAPI[T]) endpointID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.endpointIDLocked()
}

func (c *CachingAPI[T]) endpointIDLocked() string {
	if endpoint := c.endpoints.Current(); endpoint != nil {
		return endpoint.ID()
	}

	return ""
}

func isSuperseded(err error) bool {
	return errors.Is(err, ErrScopeChanged) || errors.Is(err, ErrClosed) ||
		errors.Is(err, context.Canceled)
}
