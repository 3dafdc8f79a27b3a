package client

import (
	"context"
	"fmt"
	"io"

	"github.com/fivetwenty-io/ipam-client/internal/auth"
	"github.com/fivetwenty-io/ipam-client/internal/constants"
	"github.com/fivetwenty-io/ipam-client/internal/http"
	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
)

// Client implements the ipam.Client interface.
type Client struct {
	httpClient *http.Client
	sessions   *auth.SessionManager
	cache      ipam.Cache
	baseURL    string

	// Resource clients
	hosts      *ResourceClient[ipam.Host]
	dnsRecords *DNSRecordsClient
	domains    *ResourceClient[ipam.Domain]
	users      *UsersClient
	logs       ipam.LogsClient
	search     *SearchClient
	session    *SessionClient
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *ipam.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.SessionID != "" || config.CSRFToken != "" {
		httpOpts = append(httpOpts, http.WithSession(config.SessionID, config.CSRFToken))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return httpOpts
}

// createResponseCache builds the GET response cache, if configured.
func createResponseCache(config *ipam.CacheConfig) (ipam.Cache, *ipam.CacheManager, *ipam.CachingPolicy, error) {
	if config == nil || config.Type == ipam.CacheTypeNone || config.Type == "" {
		return nil, nil, nil, nil
	}

	cache, err := ipam.NewCacheFromConfig(config)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating response cache: %w", err)
	}

	policy := config.Policy
	if policy == nil {
		policy = ipam.DefaultCachingPolicy()
	}

	return cache, ipam.NewCacheManager(cache, config.Options), policy, nil
}

// New creates a new IPAM API client. When the config carries a username and
// password and no session, the client logs in before returning.
func New(ctx context.Context, config *ipam.Config) (*Client, error) {
	if config == nil {
		return nil, ipam.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, ipam.ErrAPIEndpointRequired
	}

	httpOpts := createHTTPClientOptions(config)

	cache, manager, policy, err := createResponseCache(config.Cache)
	if err != nil {
		return nil, err
	}

	if manager != nil {
		httpOpts = append(httpOpts, http.WithCache(manager, policy))
	}

	client := &Client{
		cache:   cache,
		baseURL: config.APIEndpoint,
	}

	// The CSRF fetcher needs the session client, which needs the HTTP client.
	client.sessions = auth.NewSessionManager(func(ctx context.Context) (string, error) {
		return client.session.FetchCSRFToken(ctx)
	}, auth.WithInitialToken(config.SessionID, config.CSRFToken))

	client.httpClient = http.NewClient(config.APIEndpoint, client.sessions, httpOpts...)
	client.initializeResourceClients()

	if config.Username != "" && config.Password != "" && config.SessionID == "" {
		err = client.session.Login(ctx, config.Username, config.Password)
		if err != nil {
			_ = client.Close()

			return nil, fmt.Errorf("creating client: %w", err)
		}
	}

	return client, nil
}

// initializeResourceClients initializes all resource-specific clients.
func (c *Client) initializeResourceClients() {
	c.hosts = NewHostsClient(c.httpClient)
	c.dnsRecords = NewDNSRecordsClient(c.httpClient)
	c.domains = NewDomainsClient(c.httpClient)
	c.users = NewUsersClient(c.httpClient)
	c.logs = NewLogsClient(c.httpClient)
	c.search = NewSearchClient(c.httpClient)
	c.session = NewSessionClient(c.httpClient, c.sessions, c.users)
}

// Hosts implements ipam.Client.Hosts.
func (c *Client) Hosts() ipam.HostsClient {
	return c.hosts
}

// DNSRecords implements ipam.Client.DNSRecords.
func (c *Client) DNSRecords() ipam.DNSRecordsClient {
	return c.dnsRecords
}

// Domains implements ipam.Client.Domains.
func (c *Client) Domains() ipam.DomainsClient {
	return c.domains
}

// Users implements ipam.Client.Users.
func (c *Client) Users() ipam.UsersClient {
	return c.users
}

// Logs implements ipam.Client.Logs.
func (c *Client) Logs() ipam.LogsClient {
	return c.logs
}

// Search implements ipam.Client.Search.
func (c *Client) Search() ipam.SearchClient {
	return c.search
}

// Session implements ipam.Client.Session.
func (c *Client) Session() ipam.SessionClient {
	return c.session
}

// BaseURL returns the API endpoint the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close implements ipam.Client.Close.
func (c *Client) Close() error {
	closer, ok := c.cache.(io.Closer)
	if !ok {
		return nil
	}

	err := closer.Close()
	if err != nil {
		return fmt.Errorf("closing response cache: %w", err)
	}

	return nil
}

var _ ipam.Client = (*Client)(nil)
