// Package ipam provides types, interfaces, and helpers for working with the
// IPAM REST API.
//
// # Overview
//
// The ipam package defines the domain types (Host, DNSRecord, Domain, User,
// LogEntry) and the interfaces for resource-oriented clients (HostsClient,
// DNSRecordsClient, ...). A concrete implementation is provided by the
// ipamclient package, which wires configuration, transport and the session.
//
//	cli, err := ipamclient.New(ctx, &ipam.Config{APIEndpoint: "https://ipam.example.com"})
//	if err != nil { log.Fatal(err) }
//
//	hosts, err := cli.Hosts().List(ctx, ipam.NewParams().WithPageSize(50))
//
// # Queries and pagination
//
// Params holds flat query parameters (page, page_size, order_by, direction and
// free-form filters). Every list endpoint answers with the ListResponse
// envelope. PaginationIterator, FetchAllPages and StreamPages walk it:
//
//	all, err := ipam.FetchAllPages[ipam.Host](ctx, cli.Hosts(), nil, ipam.DefaultPaginationOptions())
//
// # Errors
//
// Non-2xx answers are returned as *APIError. IsNotFound, IsUnauthorized,
// IsForbidden and IsValidation branch on the common cases.
//
// # Interceptors and caching
//
// Requests pass through an InterceptorChain before they are sent. GET
// responses can be cached in memory or in a NATS JetStream key-value bucket
// by setting Config.Cache.
package ipam
