// Package hooks provides stateful request helpers for views over the IPAM API.
//
// # Overview
//
// Every hook owns a snapshot that a view reads with State or receives through
// Subscribe. Update is called whenever the desired configuration may have
// changed; the hook compares it with the previous one and only issues a
// request when the endpoint ID, the parameter values or the request gate
// differ.
//
//	hosts := hooks.NewAPIData[ipam.HostList](nil, hooks.WithLogger(logger))
//	defer hosts.Close()
//
//	hosts.Update(ipamclient.HostsList(cli), ipam.NewParams().WithSearch("web"), true)
//	state, err := hosts.Wait(ctx)
//
// # Hooks
//
// APIData runs one request at a time and drops the results of superseded
// requests. PaginatedAPI composes page and page_size into the parameters of an
// APIData. CachingAPI keeps a bounded LRU of pages, joins concurrent requests
// for the same page and prefetches the pages after the displayed one.
// EditableData holds a local copy of a value with field editors and saves it
// through a SaveEndpoint.
//
// # Listeners
//
// Listeners are called synchronously, in order, and never while the hook's
// lock is held. They must not call mutating methods of the hook that notifies
// them; hand the snapshot to another goroutine instead.
package hooks
