package hooks

import (
	"context"

	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
)

// Endpoint is a remote call identified by a stable key. Two endpoints with
// the same ID are interchangeable, so hooks only re-fetch when the ID changes.
// A nil Endpoint means "no request".
type Endpoint[T any] interface {
	ID() string
	Call(ctx context.Context, params ipam.Params) (T, error)
}

// SaveEndpoint persists a whole value.
type SaveEndpoint[T any] interface {
	ID() string
	Save(ctx context.Context, value T) error
}

type endpointFunc[T any] struct {
	id string
	fn func(context.Context, ipam.Params) (T, error)
}

func (e *endpointFunc[T]) ID() string {
	return e.id
}

func (e *endpointFunc[T]) Call(ctx context.Context, params ipam.Params) (T, error) {
	return e.fn(ctx, params)
}

// NewEndpoint adapts a function, typically a resource client method value
// such as client.Hosts().List, into an Endpoint.
func NewEndpoint[T any](id string, fn func(context.Context, ipam.Params) (T, error)) Endpoint[T] {
	return &endpointFunc[T]{id: id, fn: fn}
}

// Deref turns an endpoint returning pointers into one returning values. A nil
// pointer without error yields the zero value. Deref(nil) is nil.
func Deref[T any](endpoint Endpoint[*T]) Endpoint[T] {
	if endpoint == nil {
		return nil
	}

	return NewEndpoint(endpoint.ID(), func(ctx context.Context, params ipam.Params) (T, error) {
		var zero T

		value, err := endpoint.Call(ctx, params)
		if err != nil || value == nil {
			return zero, err
		}

		return *value, nil
	})
}

type saveEndpointFunc[T any] struct {
	id string
	fn func(context.Context, T) error
}

func (e *saveEndpointFunc[T]) ID() string {
	return e.id
}

func (e *saveEndpointFunc[T]) Save(ctx context.Context, value T) error {
	return e.fn(ctx, value)
}

// NewSaveEndpoint adapts a function into a SaveEndpoint.
func NewSaveEndpoint[T any](id string, fn func(context.Context, T) error) SaveEndpoint[T] {
	return &saveEndpointFunc[T]{id: id, fn: fn}
}
