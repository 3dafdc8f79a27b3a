package hooks

import (
	"context"
	"sync"

	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
)

// PaginatedAPI adds page and page_size to the caller's parameters and runs
// the request through an APIData.
type PaginatedAPI[T any] struct {
	mu       sync.Mutex
	api      *APIData[T]
	base     ParamsMemo
	page     int
	pageSize int
	merged   ipam.Params
	set      bool
}

// NewPaginatedAPI creates an idle hook. A nil transform keeps results as they are.
func NewPaginatedAPI[T any](transform func(T) T, opts ...Option) *PaginatedAPI[T] {
	return &PaginatedAPI[T]{api: NewAPIData(transform, opts...)}
}

// Update requests page of endpoint. The caller's params are never modified.
func (p *PaginatedAPI[T]) Update(endpoint Endpoint[T], page, pageSize int, params ipam.Params, makeRequest bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	base, changed := p.base.Stabilize(params)
	if !p.set || changed || page != p.page || pageSize != p.pageSize {
		p.merged = base.Merge(ipam.Params{
			ipam.ParamPage:     page,
			ipam.ParamPageSize: pageSize,
		})
		p.page = page
		p.pageSize = pageSize
		p.set = true
	}

	p.api.Update(endpoint, p.merged, makeRequest)
}

// Params returns the parameters of the current request.
func (p *PaginatedAPI[T]) Params() ipam.Params {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.merged.Clone()
}

// Reload re-issues the current request.
func (p *PaginatedAPI[T]) Reload() {
	p.api.Reload()
}

// State returns the current snapshot.
func (p *PaginatedAPI[T]) State() State[T] {
	return p.api.State()
}

// Subscribe registers fn for every new snapshot.
func (p *PaginatedAPI[T]) Subscribe(fn func(State[T])) func() {
	return p.api.Subscribe(fn)
}

// Wait blocks until the hook is not loading.
func (p *PaginatedAPI[T]) Wait(ctx context.Context) (State[T], error) {
	return p.api.Wait(ctx)
}

// Close cancels the outstanding request.
func (p *PaginatedAPI[T]) Close() {
	p.api.Close()
}
