package hooks

import "github.com/fivetwenty-io/ipam-client/pkg/ipam"

// ParamsMemo keeps a stable parameter map across updates. It is not safe for
// concurrent use; hooks guard it with their own lock.
type ParamsMemo struct {
	current ipam.Params
	set     bool
}

// Stabilize returns the previously adopted map while p is value-equal to it,
// otherwise adopts p. The flag reports whether the adopted map changed.
func (m *ParamsMemo) Stabilize(p ipam.Params) (ipam.Params, bool) {
	if m.set && m.current.Equal(p) {
		return m.current, false
	}

	m.current = p
	m.set = true

	return p, true
}

// Current returns the adopted map.
func (m *ParamsMemo) Current() ipam.Params {
	return m.current
}

// EndpointMemo keeps a stable endpoint across updates, compared by ID.
type EndpointMemo[T any] struct {
	current Endpoint[T]
	set     bool
}

// Stabilize returns the previously adopted endpoint while e has the same ID,
// otherwise adopts e. Nil only equals nil.
func (m *EndpointMemo[T]) Stabilize(e Endpoint[T]) (Endpoint[T], bool) {
	if m.set && sameEndpoint(m.current, e) {
		return m.current, false
	}

	m.current = e
	m.set = true

	return e, true
}

// Current returns the adopted endpoint.
func (m *EndpointMemo[T]) Current() Endpoint[T] {
	return m.current
}

func sameEndpoint[T any](a, b Endpoint[T]) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return a.ID() == b.ID()
}
