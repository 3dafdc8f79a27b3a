package hooks_test

import (
	"testing"

	"github.com/fivetwenty-io/ipam-client/pkg/hooks"
	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginatedAPI_ComposesParams(t *testing.T) {
	t.Parallel()

	endpoint := newManualEndpoint("hosts.list")
	api := hooks.NewPaginatedAPI[string](nil)
	defer api.Close()

	filters := ipam.Params{"domain": "example.com", "order_by": "hostname"}
	api.Update(endpoint, 3, 50, filters, true)

	call := endpoint.next(t)
	assert.Equal(t, ipam.Params{"domain": "example.com", "order_by": "hostname", "page": 3, "page_size": 50}, call.params)
	assert.Equal(t, ipam.Params{"domain": "example.com", "order_by": "hostname"}, filters, "caller params are not mutated")
	assert.Equal(t, call.params, api.Params())

	call.resolve("page three")
	assert.Equal(t, "page three", *waitState[string](t, api).Data)
}

func TestPaginatedAPI_RefetchesOnlyOnChange(t *testing.T) {
	t.Parallel()

	endpoint := newManualEndpoint("hosts.list")
	api := hooks.NewPaginatedAPI[string](nil)
	defer api.Close()

	api.Update(endpoint, 1, 25, ipam.Params{"search": "db"}, true)
	endpoint.next(t).resolve("p1")
	waitState[string](t, api)

	api.Update(endpoint, 1, 25, ipam.Params{"search": "db"}, true)
	endpoint.assertNoCall(t)

	api.Update(endpoint, 2, 25, ipam.Params{"search": "db"}, true)
	call := endpoint.next(t)
	assert.Equal(t, 2, call.params.Int(ipam.ParamPage, 0))
	call.resolve("p2")

	api.Update(endpoint, 2, 10, ipam.Params{"search": "db"}, true)
	call = endpoint.next(t)
	assert.Equal(t, 10, call.params.Int(ipam.ParamPageSize, 0))
	call.resolve("p2 small")

	api.Update(endpoint, 2, 10, ipam.Params{"search": "web"}, true)
	call = endpoint.next(t)
	assert.Equal(t, "web", call.params["search"])
	call.resolve("p2 web")

	state := waitState[string](t, api)
	require.NotNil(t, state.Data)
	assert.Equal(t, "p2 web", *state.Data)
}

func TestPaginatedAPI_ReloadAndGate(t *testing.T) {
	t.Parallel()

	endpoint := newManualEndpoint("hosts.list")
	api := hooks.NewPaginatedAPI[string](nil)
	defer api.Close()

	api.Update(endpoint, 1, 25, nil, false)
	endpoint.assertNoCall(t)

	api.Update(endpoint, 1, 25, nil, true)
	endpoint.next(t).resolve("first")
	waitState[string](t, api)

	api.Reload()
	assert.True(t, api.State().Loading)
	endpoint.next(t).resolve("second")
	assert.Equal(t, "second", *waitState[string](t, api).Data)
}
