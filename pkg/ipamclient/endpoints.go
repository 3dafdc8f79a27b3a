package ipamclient

import (
	"context"

	"github.com/fivetwenty-io/ipam-client/pkg/hooks"
	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
)

// Endpoint IDs. Hooks re-fetch only when the ID changes, so each ID names
// exactly one remote call.
const (
	EndpointHostsList      = "hosts.list"
	EndpointHostsGet       = "hosts.get"
	EndpointHostsSave      = "hosts.save"
	EndpointDNSRecordsList = "dns_records.list"
	EndpointDNSRecordsGet  = "dns_records.get"
	EndpointDNSRecordsSave = "dns_records.save"
	EndpointDomainsList    = "domains.list"
	EndpointDomainsGet     = "domains.get"
	EndpointUsersList      = "users.list"
	EndpointUsersGet       = "users.get"
	EndpointUsersMe        = "users.me"
	EndpointLogsList       = "logs.list"
	EndpointLogsGet        = "logs.get"
	EndpointSearch         = "search"
)

// ListEndpoint exposes one page of a collection to the request hooks.
func ListEndpoint[T any](id string, lister ipam.Lister[T]) hooks.Endpoint[ipam.ListResponse[T]] {
	return hooks.Deref(hooks.NewEndpoint(id, lister.List))
}

// GetEndpoint fetches the item named by the "id" parameter.
func GetEndpoint[T any](id string, reader ipam.ReadClient[T]) hooks.Endpoint[T] {
	return hooks.Deref(hooks.NewEndpoint(id, func(ctx context.Context, params ipam.Params) (*T, error) {
		return reader.Get(ctx, params.Int(ipam.ParamID, 0))
	}))
}

// SaveEndpoint updates items that have an ID and creates the others.
func SaveEndpoint[T any](id string, crud ipam.CRUDClient[T], idOf func(*T) int) hooks.SaveEndpoint[T] {
	return hooks.NewSaveEndpoint(id, func(ctx context.Context, item T) error {
		var err error

		if itemID := idOf(&item); itemID > 0 {
			_, err = crud.Update(ctx, itemID, &item)
		} else {
			_, err = crud.Create(ctx, &item)
		}

		return err
	})
}

// HostsList lists hosts.
func HostsList(cli ipam.Client) hooks.Endpoint[ipam.HostList] {
	return ListEndpoint[ipam.Host](EndpointHostsList, cli.Hosts())
}

// HostDetail fetches one host.
func HostDetail(cli ipam.Client) hooks.Endpoint[ipam.Host] {
	return GetEndpoint[ipam.Host](EndpointHostsGet, cli.Hosts())
}

// HostSave creates or updates a host.
func HostSave(cli ipam.Client) hooks.SaveEndpoint[ipam.Host] {
	return SaveEndpoint[ipam.Host](EndpointHostsSave, cli.Hosts(), func(h *ipam.Host) int { return h.ID })
}

// DNSRecordsList lists DNS records.
func DNSRecordsList(cli ipam.Client) hooks.Endpoint[ipam.DNSRecordList] {
	return ListEndpoint[ipam.DNSRecord](EndpointDNSRecordsList, cli.DNSRecords())
}

// DNSRecordDetail fetches one DNS record.
func DNSRecordDetail(cli ipam.Client) hooks.Endpoint[ipam.DNSRecord] {
	return GetEndpoint[ipam.DNSRecord](EndpointDNSRecordsGet, cli.DNSRecords())
}

// DNSRecordSave creates or updates a DNS record.
func DNSRecordSave(cli ipam.Client) hooks.SaveEndpoint[ipam.DNSRecord] {
	return SaveEndpoint[ipam.DNSRecord](EndpointDNSRecordsSave, cli.DNSRecords(), func(r *ipam.DNSRecord) int { return r.ID })
}

// DomainsList lists domains.
func DomainsList(cli ipam.Client) hooks.Endpoint[ipam.DomainList] {
	return ListEndpoint[ipam.Domain](EndpointDomainsList, cli.Domains())
}

// DomainDetail fetches one domain.
func DomainDetail(cli ipam.Client) hooks.Endpoint[ipam.Domain] {
	return GetEndpoint[ipam.Domain](EndpointDomainsGet, cli.Domains())
}

// UsersList lists users.
func UsersList(cli ipam.Client) hooks.Endpoint[ipam.UserList] {
	return ListEndpoint[ipam.User](EndpointUsersList, cli.Users())
}

// UserDetail fetches one user.
func UserDetail(cli ipam.Client) hooks.Endpoint[ipam.User] {
	return GetEndpoint[ipam.User](EndpointUsersGet, cli.Users())
}

// CurrentUser fetches the account of the session. Params are ignored.
func CurrentUser(cli ipam.Client) hooks.Endpoint[ipam.User] {
	return hooks.Deref(hooks.NewEndpoint(EndpointUsersMe, func(ctx context.Context, _ ipam.Params) (*ipam.User, error) {
		return cli.Session().Me(ctx)
	}))
}

// LogsList lists audit log entries.
func LogsList(cli ipam.Client) hooks.Endpoint[ipam.LogEntryList] {
	return ListEndpoint[ipam.LogEntry](EndpointLogsList, cli.Logs())
}

// LogDetail fetches one audit log entry.
func LogDetail(cli ipam.Client) hooks.Endpoint[ipam.LogEntry] {
	return GetEndpoint[ipam.LogEntry](EndpointLogsGet, cli.Logs())
}

// Search runs the global search.
func Search(cli ipam.Client) hooks.Endpoint[ipam.SearchResultList] {
	return hooks.Deref(hooks.NewEndpoint(EndpointSearch, cli.Search().Search))
}
