package hooks_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fivetwenty-io/ipam-client/pkg/hooks"
	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
)

const (
	waitTimeout  = 2 * time.Second
	pollInterval = 5 * time.Millisecond
)

var errBackend = errors.New("backend unavailable")

// pendingCall is one request held by a manualEndpoint until the test answers it.
type pendingCall struct {
	ctx    context.Context //nolint:containedctx
	params ipam.Params
	done   chan callResult
}

type callResult struct {
	value string
	err   error
}

func (c *pendingCall) resolve(value string) {
	c.done <- callResult{value: value}
}

func (c *pendingCall) fail(err error) {
	c.done <- callResult{err: err}
}

// manualEndpoint blocks every call until the test resolves it.
type manualEndpoint struct {
	id        string
	ignoreCtx bool
	calls     chan *pendingCall
	count     atomic.Int32
}

func newManualEndpoint(id string) *manualEndpoint {
	return &manualEndpoint{id: id, calls: make(chan *pendingCall, 64)}
}

func (m *manualEndpoint) ID() string {
	return m.id
}

func (m *manualEndpoint) Call(ctx context.Context, params ipam.Params) (string, error) {
	m.count.Add(1)

	call := &pendingCall{ctx: ctx, params: params, done: make(chan callResult, 1)}
	m.calls <- call

	if m.ignoreCtx {
		result := <-call.done

		return result.value, result.err
	}

	select {
	case result := <-call.done:
		return result.value, result.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (m *manualEndpoint) next(t *testing.T) *pendingCall {
	t.Helper()

	select {
	case call := <-m.calls:
		return call
	case <-time.After(waitTimeout):
		t.Fatalf("endpoint %s was not called", m.id)

		return nil
	}
}

func (m *manualEndpoint) assertNoCall(t *testing.T) {
	t.Helper()

	select {
	case call := <-m.calls:
		t.Fatalf("unexpected call to %s with %v", m.id, call.params)
	case <-time.After(50 * time.Millisecond):
	}
}

// pageEndpoint answers immediately with "<id>:p<page>/<size>" and counts calls
// per page.
type pageEndpoint struct {
	id    string
	delay time.Duration
	fail  map[int]bool

	mu    sync.Mutex
	calls map[int]int
	total atomic.Int32
}

func newPageEndpoint(id string) *pageEndpoint {
	return &pageEndpoint{id: id, fail: map[int]bool{}, calls: map[int]int{}}
}

func (p *pageEndpoint) ID() string {
	return p.id
}

func (p *pageEndpoint) Call(ctx context.Context, params ipam.Params) (string, error) {
	page := params.Int(ipam.ParamPage, 0)

	p.mu.Lock()
	p.calls[page]++
	fail := p.fail[page]
	p.mu.Unlock()
	p.total.Add(1)

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if fail {
		return "", errBackend
	}

	return fmt.Sprintf("%s:p%d/%d", p.id, page, params.Int(ipam.ParamPageSize, 0)), nil
}

func (p *pageEndpoint) callsFor(page int) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.calls[page]
}

// recordingLogger keeps log lines for assertions.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

type logEntry struct {
	level  string
	msg    string
	fields map[string]interface{}
}

func (l *recordingLogger) add(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, logEntry{level: level, msg: msg, fields: fields})
}

func (l *recordingLogger) Debug(msg string, fields map[string]interface{}) { l.add("debug", msg, fields) }
func (l *recordingLogger) Info(msg string, fields map[string]interface{})  { l.add("info", msg, fields) }
func (l *recordingLogger) Warn(msg string, fields map[string]interface{})  { l.add("warn", msg, fields) }
func (l *recordingLogger) Error(msg string, fields map[string]interface{}) { l.add("error", msg, fields) }

func (l *recordingLogger) byLevel(level string) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []logEntry

	for _, entry := range l.entries {
		if entry.level == level {
			out = append(out, entry)
		}
	}

	return out
}

func waitState[T any](t *testing.T, waiter interface {
	Wait(ctx context.Context) (hooks.State[T], error)
},
) hooks.State[T] {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()

	state, err := waiter.Wait(ctx)
	if err != nil {
		t.Fatalf("waiting for state: %v", err)
	}

	return state
}
