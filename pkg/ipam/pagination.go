package ipam

import (
	"context"
	"errors"
	"fmt"
)

// Default paging values used by the backend.
const (
	DefaultPageSize = 25
	MaxPageSize     = 1000
)

// PaginationOptions controls the page walking helpers.
type PaginationOptions struct {
	// PageSize is sent as page_size. Zero keeps the server default.
	PageSize int
	// MaxPages stops after this many pages. Zero means no limit.
	MaxPages int
}

// DefaultPaginationOptions returns the options used when nil is passed.
func DefaultPaginationOptions() *PaginationOptions {
	return &PaginationOptions{PageSize: DefaultPageSize}
}

// PaginationIterator yields the items of a collection one at a time, fetching
// pages lazily.
type PaginationIterator[T any] struct {
	ctx     context.Context //nolint:containedctx
	lister  Lister[T]
	params  Params
	page    int
	items   []T
	index   int
	hasMore bool
	fetched bool
}

// NewPaginationIterator creates an iterator starting at page 1. The params are
// copied and never mutated.
func NewPaginationIterator[T any](ctx context.Context, lister Lister[T], params Params) *PaginationIterator[T] {
	return &PaginationIterator[T]{
		ctx:     ctx,
		lister:  lister,
		params:  params.Clone(),
		page:    0,
		hasMore: true,
	}
}

// HasNext reports whether another item can be returned.
func (it *PaginationIterator[T]) HasNext() bool {
	if it.index < len(it.items) {
		return true
	}

	if !it.fetched {
		return true
	}

	return it.hasMore
}

// Next returns the next item, fetching the following page when needed.
func (it *PaginationIterator[T]) Next() (T, error) {
	var zero T

	for it.index >= len(it.items) {
		if it.fetched && !it.hasMore {
			return zero, ErrNoMoreItems
		}

		err := it.fetchNext()
		if err != nil {
			return zero, err
		}
	}

	item := it.items[it.index]
	it.index++

	return item, nil
}

// All drains the iterator.
func (it *PaginationIterator[T]) All() ([]T, error) {
	var all []T

	for it.HasNext() {
		item, err := it.Next()
		if err != nil {
			if errors.Is(err, ErrNoMoreItems) {
				break
			}

			return nil, err
		}

		all = append(all, item)
	}

	return all, nil
}

// ForEach calls fn for every item until fn returns an error.
func (it *PaginationIterator[T]) ForEach(fn func(T) error) error {
	for it.HasNext() {
		item, err := it.Next()
		if err != nil {
			if errors.Is(err, ErrNoMoreItems) {
				return nil
			}

			return err
		}

		err = fn(item)
		if err != nil {
			return err
		}
	}

	return nil
}

func (it *PaginationIterator[T]) fetchNext() error {
	it.page++

	resp, err := it.lister.List(it.ctx, it.params.Clone().WithPage(it.page))
	if err != nil {
		return fmt.Errorf("fetching page %d: %w", it.page, err)
	}

	it.fetched = true
	it.items = resp.Results
	it.index = 0
	it.hasMore = resp.HasNext()

	return nil
}

// FetchAllPages collects every item of a collection.
func FetchAllPages[T any](ctx context.Context, lister Lister[T], params Params, options *PaginationOptions) ([]T, error) {
	if options == nil {
		options = DefaultPaginationOptions()
	}

	var all []T

	for page := 1; options.MaxPages == 0 || page <= options.MaxPages; page++ {
		resp, err := lister.List(ctx, pageParams(params, page, options.PageSize))
		if err != nil {
			return nil, fmt.Errorf("fetching page %d: %w", page, err)
		}

		all = append(all, resp.Results...)

		if !resp.HasNext() {
			break
		}
	}

	return all, nil
}

// PageResult is one page delivered by StreamPages.
type PageResult[T any] struct {
	Page  int
	Items []T
	Err   error
}

// StreamPages fetches pages on a goroutine and delivers them on the returned
// channel. The channel is closed after the last page, the first error, or
// when ctx is done.
func StreamPages[T any](ctx context.Context, lister Lister[T], params Params, options *PaginationOptions) <-chan PageResult[T] {
	if options == nil {
		options = DefaultPaginationOptions()
	}

	results := make(chan PageResult[T])

	go func() {
		defer close(results)

		for page := 1; options.MaxPages == 0 || page <= options.MaxPages; page++ {
			resp, err := lister.List(ctx, pageParams(params, page, options.PageSize))

			result := PageResult[T]{Page: page, Err: err}
			if err == nil {
				result.Items = resp.Results
			}

			select {
			case results <- result:
			case <-ctx.Done():
				return
			}

			if err != nil || !resp.HasNext() {
				return
			}
		}
	}()

	return results
}

func pageParams(params Params, page, pageSize int) Params {
	out := params.Clone().WithPage(page)
	if pageSize > 0 {
		out.WithPageSize(pageSize)
	}

	return out
}
