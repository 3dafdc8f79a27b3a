package hooks

import (
	"context"

	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
)

// APIData runs one request at a time for a single consumer. Every change of
// endpoint, parameters or the request gate cancels the previous request, and
// results of cancelled requests are dropped.
type APIData[T any] struct {
	core[T]

	endpoints   EndpointMemo[T]
	params      ParamsMemo
	makeRequest bool
	configured  bool
	cancel      context.CancelFunc
}

// NewAPIData creates an idle hook. A nil transform keeps results as they are.
func NewAPIData[T any](transform func(T) T, opts ...Option) *APIData[T] {
	a := &APIData[T]{}
	a.init(transform, buildOptions(opts))

	return a
}

// Update is called with the desired configuration. Nothing happens when the
// endpoint ID, the parameter values and makeRequest are unchanged.
func (a *APIData[T]) Update(endpoint Endpoint[T], params ipam.Params, makeRequest bool) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()

		return
	}

	_, endpointChanged := a.endpoints.Stabilize(endpoint)
	_, paramsChanged := a.params.Stabilize(params)
	gateChanged := !a.configured || a.makeRequest != makeRequest

	a.configured = true
	a.makeRequest = makeRequest

	if !endpointChanged && !paramsChanged && !gateChanged {
		a.mu.Unlock()

		return
	}

	version, state := a.startLocked()
	a.mu.Unlock()

	a.publish(version, state)
}

// Reload re-issues the current request. It does nothing without an endpoint
// or while makeRequest is false.
func (a *APIData[T]) Reload() {
	a.mu.Lock()
	if a.closed || a.endpoints.Current() == nil || !a.makeRequest {
		a.mu.Unlock()

		return
	}

	version, state := a.startLocked()
	a.mu.Unlock()

	a.publish(version, state)
}

// Close cancels the outstanding request and waits for it to return.
func (a *APIData[T]) Close() {
	a.shutdown()
}

func (a *APIData[T]) startLocked() (uint64, State[T]) {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}

	endpoint := a.endpoints.Current()

	switch {
	case endpoint == nil:
		return a.setLocked(State[T]{})
	case !a.makeRequest:
		return a.setLocked(State[T]{Data: a.state.Data, Err: a.state.Err})
	}

	ctx, cancel := context.WithCancel(a.ctx)
	a.cancel = cancel
	params := a.params.Current()

	a.wg.Go(func() {
		a.run(ctx, endpoint, params)
	})

	return a.setLocked(State[T]{Loading: true})
}

func (a *APIData[T]) run(ctx context.Context, endpoint Endpoint[T], params ipam.Params) {
	result, err := endpoint.Call(ctx, params)
	if err == nil && ctx.Err() == nil {
		result = a.transform(result)
	}

	a.mu.Lock()
	if ctx.Err() != nil {
		a.mu.Unlock()

		return
	}

	a.cancel()
	a.cancel = nil

	var next State[T]
	if err != nil {
		next = State[T]{Err: err}
	} else {
		next = State[T]{Data: valuePtr(result)}
	}

	version, state := a.setLocked(next)
	a.mu.Unlock()

	if err != nil {
		a.logger.Error("API request failed", map[string]interface{}{
			"endpoint": endpoint.ID(),
			"error":    err.Error(),
		})
	}

	a.publish(version, state)
}
