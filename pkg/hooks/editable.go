package hooks

import (
	"context"
	"fmt"
	"sync"

	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
)

// EditableState is the snapshot of an EditableData.
type EditableState[T any] struct {
	Data     T
	Modified bool
	Loading  bool
	Saving   bool
	Err      error
}

// EditableData holds a local, editable copy of a value. The baseline comes
// from the fetch endpoint when one is given, otherwise from the initial value.
// A new baseline discards local edits.
type EditableData[T any] struct {
	mu        sync.Mutex
	fetch     *APIData[T]
	endpoint  Endpoint[T]
	save      SaveEndpoint[T]
	baseline  T
	data      T
	modified  bool
	loading   bool
	saving    bool
	err       error
	edits     uint64
	version   uint64
	listeners listeners[EditableState[T]]
	unwatch   func()
}

// NewEditableData creates the hook. When fetch is not nil the value is
// fetched immediately with params; transform applies to fetched values.
func NewEditableData[T any](
	fetch Endpoint[T],
	save SaveEndpoint[T],
	initial T,
	params ipam.Params,
	transform func(T) T,
	opts ...Option,
) *EditableData[T] {
	e := &EditableData[T]{
		endpoint: fetch,
		save:     save,
		baseline: initial,
		data:     initial,
	}

	if fetch != nil {
		e.fetch = NewAPIData(transform, opts...)
		e.unwatch = e.fetch.Subscribe(e.onFetch)
		e.fetch.Update(fetch, params, true)
	}

	return e
}

// Field returns an editor for the field selected by get.
func Field[T, V any](e *EditableData[T], get func(*T) *V) FieldEditor[V] {
	return FieldEditor[V]{
		read: func() (V, uint64) {
			e.mu.Lock()
			defer e.mu.Unlock()

			return *get(&e.data), e.edits
		},
		write: func(value V, expect *uint64) bool {
			e.mu.Lock()
			if expect != nil && *expect != e.edits {
				e.mu.Unlock()

				return false
			}

			*get(&e.data) = value
			e.modified = true
			e.edits++
			version, state := e.snapshotLocked()
			e.mu.Unlock()

			e.listeners.notify(version, state)

			return true
		},
	}
}

// FieldEditor reads and writes one field of an EditableData.
type FieldEditor[V any] struct {
	read  func() (V, uint64)
	write func(value V, expect *uint64) bool
}

// Get returns the current field value.
func (f FieldEditor[V]) Get() V {
	value, _ := f.read()

	return value
}

// Set replaces the field value and marks the data modified.
func (f FieldEditor[V]) Set(value V) {
	f.write(value, nil)
}

// Update derives the field value from its previous value. fn runs without
// the hook's lock, so it may read other fields; it runs again when the data
// changed before its result could be stored.
func (f FieldEditor[V]) Update(fn func(prev V) V) {
	for {
		prev, edits := f.read()
		if f.write(fn(prev), &edits) {
			return
		}
	}
}

// Edit changes the local copy in place and marks it modified.
func (e *EditableData[T]) Edit(fn func(*T)) {
	e.mu.Lock()
	fn(&e.data)
	e.modified = true
	e.edits++
	version, state := e.snapshotLocked()
	e.mu.Unlock()

	e.listeners.notify(version, state)
}

// SetInitial replaces the baseline and discards local edits. It is ignored
// when the value comes from a fetch endpoint.
func (e *EditableData[T]) SetInitial(value T) {
	if e.fetch != nil {
		return
	}

	e.mu.Lock()
	e.resetLocked(value)
	version, state := e.snapshotLocked()
	e.mu.Unlock()

	e.listeners.notify(version, state)
}

// SetParams changes the parameters of the fetch endpoint.
func (e *EditableData[T]) SetParams(params ipam.Params) {
	if e.fetch == nil {
		return
	}

	e.fetch.Update(e.endpoint, params, true)
}

// Reload fetches the value again, or restores the baseline when there is no
// fetch endpoint. Local edits are discarded either way.
func (e *EditableData[T]) Reload() {
	if e.fetch != nil {
		e.fetch.Reload()

		return
	}

	e.mu.Lock()
	e.resetLocked(e.baseline)
	version, state := e.snapshotLocked()
	e.mu.Unlock()

	e.listeners.notify(version, state)
}

// Save sends the whole current value to the save endpoint. On success the
// saved value becomes the baseline and Modified is cleared, unless the value
// was edited again while saving. On failure the edits are kept.
func (e *EditableData[T]) Save(ctx context.Context) error {
	if e.save == nil {
		return ErrNoSaveEndpoint
	}

	e.mu.Lock()
	data := e.data
	edits := e.edits
	e.saving = true
	version, state := e.snapshotLocked()
	e.mu.Unlock()

	e.listeners.notify(version, state)

	err := e.save.Save(ctx, data)

	e.mu.Lock()
	e.saving = false

	if err == nil && e.edits == edits {
		e.baseline = data
		e.modified = false
	}

	version, state = e.snapshotLocked()
	e.mu.Unlock()

	e.listeners.notify(version, state)

	if err != nil {
		return fmt.Errorf("saving %s: %w", e.save.ID(), err)
	}

	return nil
}

// Load returns the state of the underlying fetch.
func (e *EditableData[T]) Load() State[T] {
	if e.fetch == nil {
		return State[T]{}
	}

	return e.fetch.State()
}

// State returns the current snapshot.
func (e *EditableData[T]) State() EditableState[T] {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.stateLocked()
}

// Subscribe registers fn for every new snapshot.
func (e *EditableData[T]) Subscribe(fn func(EditableState[T])) func() {
	return e.listeners.add(fn)
}

// Wait blocks until the value is not loading.
func (e *EditableData[T]) Wait(ctx context.Context) (EditableState[T], error) {
	return waitFor(ctx, e.Subscribe, e.State, func(s EditableState[T]) bool { return !s.Loading })
}

// Close stops the fetch.
func (e *EditableData[T]) Close() {
	if e.fetch == nil {
		return
	}

	e.unwatch()
	e.fetch.Close()
}

func (e *EditableData[T]) onFetch(s State[T]) {
	e.mu.Lock()
	e.loading = s.Loading
	e.err = s.Err

	if s.Data != nil {
		e.resetLocked(*s.Data)
	}

	version, state := e.snapshotLocked()
	e.mu.Unlock()

	e.listeners.notify(version, state)
}

func (e *EditableData[T]) resetLocked(value T) {
	e.baseline = value
	e.data = value
	e.modified = false
	e.edits++
}

func (e *EditableData[T]) stateLocked() EditableState[T] {
	return EditableState[T]{
		Data:     e.data,
		Modified: e.modified,
		Loading:  e.loading,
		Saving:   e.saving,
		Err:      e.err,
	}
}

func (e *EditableData[T]) snapshotLocked() (uint64, EditableState[T]) {
	e.version++

	return e.version, e.stateLocked()
}
