package hooks_test

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fivetwenty-io/ipam-client/pkg/hooks"
	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIData_LoadsAndTransformsOnce(t *testing.T) {
	t.Parallel()

	var transforms atomic.Int32

	endpoint := newManualEndpoint("hosts.list")
	api := hooks.NewAPIData(func(v string) string {
		transforms.Add(1)

		return strings.ToUpper(v)
	})
	defer api.Close()

	api.Update(endpoint, ipam.Params{"search": "web"}, true)

	state := api.State()
	assert.True(t, state.Loading)
	assert.Nil(t, state.Data)

	call := endpoint.next(t)
	assert.Equal(t, "web", call.params["search"])
	call.resolve("result")

	state = waitState[string](t, api)
	require.NotNil(t, state.Data)
	assert.Equal(t, "RESULT", *state.Data)
	require.NoError(t, state.Err)
	assert.Equal(t, int32(1), transforms.Load())
}

func TestAPIData_EqualParamsDoNotRefetch(t *testing.T) {
	t.Parallel()

	endpoint := newManualEndpoint("hosts.list")
	api := hooks.NewAPIData[string](nil)
	defer api.Close()

	api.Update(endpoint, ipam.Params{"a": 1, "b": "x"}, true)
	endpoint.next(t).resolve("one")
	waitState[string](t, api)

	api.Update(endpoint, ipam.Params{"b": "x", "a": 1}, true)
	api.Update(newManualEndpoint("hosts.list"), ipam.Params{"a": 1, "b": "x"}, true)

	endpoint.assertNoCall(t)
	assert.Equal(t, int32(1), endpoint.count.Load())
	assert.Equal(t, "one", *api.State().Data)
}

func TestAPIData_ParamChangeCancelsPrevious(t *testing.T) {
	t.Parallel()

	endpoint := newManualEndpoint("hosts.list")
	endpoint.ignoreCtx = true

	api := hooks.NewAPIData[string](nil)
	defer api.Close()

	api.Update(endpoint, ipam.Params{"page": 1}, true)
	first := endpoint.next(t)

	api.Update(endpoint, ipam.Params{"page": 2}, true)
	second := endpoint.next(t)

	require.Error(t, first.ctx.Err(), "superseded request is cancelled")
	require.NoError(t, second.ctx.Err())

	second.resolve("page two")
	state := waitState[string](t, api)
	assert.Equal(t, "page two", *state.Data)

	// The stale response arrives last and must not overwrite newer state.
	first.resolve("page one")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, "page two", *api.State().Data)
}

func TestAPIData_StaleResponseBeforeNewOneIsDropped(t *testing.T) {
	t.Parallel()

	endpoint := newManualEndpoint("hosts.list")
	endpoint.ignoreCtx = true

	api := hooks.NewAPIData[string](nil)
	defer api.Close()

	api.Update(endpoint, ipam.Params{"page": 1}, true)
	first := endpoint.next(t)

	api.Update(endpoint, ipam.Params{"page": 2}, true)
	second := endpoint.next(t)

	first.resolve("page one")
	time.Sleep(50 * time.Millisecond)

	state := api.State()
	assert.True(t, state.Loading, "still waiting for the current request")
	assert.Nil(t, state.Data)

	second.resolve("page two")
	assert.Equal(t, "page two", *waitState[string](t, api).Data)
}

func TestAPIData_CancellationIsNotAnError(t *testing.T) {
	t.Parallel()

	logger := &recordingLogger{}
	endpoint := newManualEndpoint("hosts.list")
	api := hooks.NewAPIData[string](nil, hooks.WithLogger(logger))
	defer api.Close()

	api.Update(endpoint, ipam.Params{"page": 1}, true)
	endpoint.next(t)

	api.Update(endpoint, ipam.Params{"page": 2}, true)
	endpoint.next(t).resolve("ok")

	state := waitState[string](t, api)
	require.NoError(t, state.Err)
	assert.Empty(t, logger.byLevel("error"))
}

func TestAPIData_ErrorClearsDataAndLogs(t *testing.T) {
	t.Parallel()

	logger := &recordingLogger{}
	endpoint := newManualEndpoint("hosts.list")
	api := hooks.NewAPIData[string](nil, hooks.WithLogger(logger))
	defer api.Close()

	api.Update(endpoint, nil, true)
	endpoint.next(t).resolve("first")
	waitState[string](t, api)

	api.Reload()
	endpoint.next(t).fail(errBackend)

	state := waitState[string](t, api)
	require.ErrorIs(t, state.Err, errBackend)
	assert.Nil(t, state.Data)
	assert.False(t, state.Loading)

	errorsLogged := logger.byLevel("error")
	require.Len(t, errorsLogged, 1)
	assert.Equal(t, "API request failed", errorsLogged[0].msg)
	assert.Equal(t, "hosts.list", errorsLogged[0].fields["endpoint"])
}

func TestAPIData_NewRequestClearsError(t *testing.T) {
	t.Parallel()

	endpoint := newManualEndpoint("hosts.list")
	api := hooks.NewAPIData[string](nil)
	defer api.Close()

	api.Update(endpoint, nil, true)
	endpoint.next(t).fail(errBackend)
	require.Error(t, waitState[string](t, api).Err)

	api.Reload()

	state := api.State()
	assert.True(t, state.Loading)
	assert.NoError(t, state.Err)

	endpoint.next(t).resolve("recovered")
	assert.Equal(t, "recovered", *waitState[string](t, api).Data)
}

func TestAPIData_NilEndpoint(t *testing.T) {
	t.Parallel()

	endpoint := newManualEndpoint("hosts.list")
	api := hooks.NewAPIData[string](nil)
	defer api.Close()

	api.Update(endpoint, nil, true)
	endpoint.next(t).resolve("data")
	waitState[string](t, api)

	api.Update(nil, nil, true)

	state := api.State()
	assert.Nil(t, state.Data)
	assert.False(t, state.Loading)

	api.Reload()
	endpoint.assertNoCall(t)
}

func TestAPIData_MakeRequestGate(t *testing.T) {
	t.Parallel()

	endpoint := newManualEndpoint("hosts.list")
	api := hooks.NewAPIData[string](nil)
	defer api.Close()

	api.Update(endpoint, nil, false)
	endpoint.assertNoCall(t)
	assert.False(t, api.State().Loading)

	api.Reload()
	endpoint.assertNoCall(t)

	api.Update(endpoint, nil, true)
	call := endpoint.next(t)

	api.Update(endpoint, nil, false)
	require.Error(t, call.ctx.Err(), "closing the gate cancels the request")
	assert.False(t, api.State().Loading)
}

func TestAPIData_LoadingImpliesNoData(t *testing.T) {
	t.Parallel()

	endpoint := newManualEndpoint("hosts.list")
	api := hooks.NewAPIData[string](nil)
	defer api.Close()

	var (
		mu        sync.Mutex
		snapshots []hooks.State[string]
	)

	unsubscribe := api.Subscribe(func(s hooks.State[string]) {
		mu.Lock()
		defer mu.Unlock()

		snapshots = append(snapshots, s)
	})
	defer unsubscribe()

	api.Update(endpoint, ipam.Params{"page": 1}, true)
	endpoint.next(t).resolve("one")
	waitState[string](t, api)

	api.Update(endpoint, ipam.Params{"page": 2}, true)
	endpoint.next(t).resolve("two")
	waitState[string](t, api)

	mu.Lock()
	defer mu.Unlock()

	require.NotEmpty(t, snapshots)

	for _, s := range snapshots {
		if s.Loading {
			assert.Nil(t, s.Data)
		}
	}
}

func TestAPIData_CloseCancelsOutstanding(t *testing.T) {
	t.Parallel()

	endpoint := newManualEndpoint("hosts.list")
	api := hooks.NewAPIData[string](nil)

	api.Update(endpoint, nil, true)
	call := endpoint.next(t)

	api.Close()
	require.Error(t, call.ctx.Err())

	api.Update(endpoint, ipam.Params{"page": 9}, true)
	endpoint.assertNoCall(t)
}

func TestAPIData_ParentContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	endpoint := newManualEndpoint("hosts.list")
	api := hooks.NewAPIData[string](nil, hooks.WithContext(ctx))
	defer api.Close()

	api.Update(endpoint, nil, true)
	call := endpoint.next(t)

	cancel()
	require.Eventually(t, func() bool { return call.ctx.Err() != nil }, waitTimeout, 10*time.Millisecond)
}

func TestAPIData_UnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()

	endpoint := newManualEndpoint("hosts.list")
	api := hooks.NewAPIData[string](nil)
	defer api.Close()

	var deliveries atomic.Int32

	unsubscribe := api.Subscribe(func(hooks.State[string]) { deliveries.Add(1) })

	api.Update(endpoint, nil, true)
	assert.Equal(t, int32(1), deliveries.Load())

	unsubscribe()
	unsubscribe()

	endpoint.next(t).resolve("x")
	waitState[string](t, api)
	assert.Equal(t, int32(1), deliveries.Load())
}
