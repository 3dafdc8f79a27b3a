package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fivetwenty-io/ipam-client/internal/constants"
	"github.com/fivetwenty-io/ipam-client/internal/http"
	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
)

// NewHostsClient creates the hosts client.
func NewHostsClient(httpClient *http.Client) *ResourceClient[ipam.Host] {
	return NewResourceClient[ipam.Host](httpClient, constants.APIPathHosts, "host")
}

// NewDomainsClient creates the domains client.
func NewDomainsClient(httpClient *http.Client) *ResourceClient[ipam.Domain] {
	return NewResourceClient[ipam.Domain](httpClient, constants.APIPathDomains, "domain")
}

// NewLogsClient creates the read-only audit log client.
func NewLogsClient(httpClient *http.Client) ipam.LogsClient {
	return NewResourceClient[ipam.LogEntry](httpClient, constants.APIPathLogs, "log entry")
}

// DNSRecordsClient validates records locally before sending them.
type DNSRecordsClient struct {
	*ResourceClient[ipam.DNSRecord]
}

// NewDNSRecordsClient creates the DNS records client.
func NewDNSRecordsClient(httpClient *http.Client) *DNSRecordsClient {
	return &DNSRecordsClient{
		ResourceClient: NewResourceClient[ipam.DNSRecord](httpClient, constants.APIPathDNSRecords, "dns record"),
	}
}

// Create implements ipam.DNSRecordsClient.Create.
func (c *DNSRecordsClient) Create(ctx context.Context, record *ipam.DNSRecord) (*ipam.DNSRecord, error) {
	err := record.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid dns record: %w", err)
	}

	return c.ResourceClient.Create(ctx, record)
}

// Update implements ipam.DNSRecordsClient.Update.
func (c *DNSRecordsClient) Update(ctx context.Context, id int, record *ipam.DNSRecord) (*ipam.DNSRecord, error) {
	err := record.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid dns record: %w", err)
	}

	return c.ResourceClient.Update(ctx, id, record)
}

// UsersClient adds the current-user lookup to the users collection.
type UsersClient struct {
	*ResourceClient[ipam.User]
}

// NewUsersClient creates the users client.
func NewUsersClient(httpClient *http.Client) *UsersClient {
	return &UsersClient{
		ResourceClient: NewResourceClient[ipam.User](httpClient, constants.APIPathUsers, "user"),
	}
}

// Me returns the user of the current session.
func (c *UsersClient) Me(ctx context.Context) (*ipam.User, error) {
	resp, err := c.httpClient.Get(ctx, constants.APIPathUsersMe, nil)
	if err != nil {
		return nil, fmt.Errorf("getting current user: %w", err)
	}

	return decodeItem[ipam.User](resp, "user")
}

// SearchClient implements ipam.SearchClient.
type SearchClient struct {
	httpClient *http.Client
}

// NewSearchClient creates the search client.
func NewSearchClient(httpClient *http.Client) *SearchClient {
	return &SearchClient{httpClient: httpClient}
}

// Search implements ipam.SearchClient.Search.
func (c *SearchClient) Search(ctx context.Context, params ipam.Params) (*ipam.SearchResultList, error) {
	resp, err := c.httpClient.Get(ctx, constants.APIPathSearch, params.ToValues())
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}

	var results ipam.SearchResultList

	err = json.Unmarshal(resp.Body, &results)
	if err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	return &results, nil
}
