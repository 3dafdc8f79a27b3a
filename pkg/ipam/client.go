package ipam

import (
	"context"
	"time"
)

// Lister lists one page of a resource collection.
type Lister[T any] interface {
	List(ctx context.Context, params Params) (*ListResponse[T], error)
}

// ReadClient provides read access to a resource collection.
type ReadClient[T any] interface {
	Lister[T]
	Get(ctx context.Context, id int) (*T, error)
}

// CRUDClient provides full access to a resource collection.
type CRUDClient[T any] interface {
	ReadClient[T]
	Create(ctx context.Context, item *T) (*T, error)
	Update(ctx context.Context, id int, item *T) (*T, error)
	Patch(ctx context.Context, id int, fields map[string]any) (*T, error)
	Delete(ctx context.Context, id int) error
}

// Resource client aliases.
type (
	HostsClient      = CRUDClient[Host]
	DNSRecordsClient = CRUDClient[DNSRecord]
	DomainsClient    = CRUDClient[Domain]
	UsersClient      = CRUDClient[User]
	LogsClient       = ReadClient[LogEntry]
)

// SearchClient runs the global search.
type SearchClient interface {
	Search(ctx context.Context, params Params) (*SearchResultList, error)
}

// SessionClient manages the cookie session and CSRF token.
type SessionClient interface {
	CSRFToken(ctx context.Context) (string, error)
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*User, error)
	// Current returns the session cookie and CSRF token in use.
	Current() (sessionID, csrfToken string)
}

// ResourceClients provides access to all resource-specific clients.
type ResourceClients interface {
	Hosts() HostsClient
	DNSRecords() DNSRecordsClient
	Domains() DomainsClient
	Users() UsersClient
	Logs() LogsClient
}

// Client is the entry point to the IPAM API.
type Client interface {
	ResourceClients
	Search() SearchClient
	Session() SessionClient
	// Close releases the response cache backend.
	Close() error
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// NoopLogger discards everything.
type NoopLogger struct{}

func (NoopLogger) Debug(string, map[string]interface{}) {}
func (NoopLogger) Info(string, map[string]interface{})  {}
func (NoopLogger) Warn(string, map[string]interface{})  {}
func (NoopLogger) Error(string, map[string]interface{}) {}

// Config represents client configuration for building an ipam.Client.
//
// # Authentication
//
// The backend uses cookie sessions. Mutating requests additionally carry the
// CSRF token in the X-CSRFToken header:
//  1. SessionID (+ optional CSRFToken): an existing session is reused as is.
//     A missing CSRF token is fetched from /api/csrf/ on the first mutating call.
//  2. Username/Password: ipamclient.New logs in and keeps the session cookie.
//  3. No credentials: requests are sent anonymously.
//
// # Timeouts and retries
//
// Per-request timeouts should be controlled via the context passed to client
// methods. Retries are off by default. When RetryMax > 0, idempotent requests
// failing with 429 or 5xx are retried with exponential backoff.
type Config struct {
	// APIEndpoint: base URL of the IPAM web application
	// (e.g., "https://ipam.example.com"). A missing scheme defaults to https.
	APIEndpoint string

	// Username: account used for session login.
	Username string
	// Password: password for Username.
	Password string
	// SessionID: value of an existing sessionid cookie.
	SessionID string
	// CSRFToken: value of an existing csrftoken cookie.
	CSRFToken string

	// HTTPTimeout: transport timeout for a single HTTP round trip.
	HTTPTimeout time.Duration
	// RetryMax: maximum number of retries for idempotent requests.
	RetryMax int
	// RetryWaitMin: minimum backoff between retries.
	RetryWaitMin time.Duration
	// RetryWaitMax: maximum backoff between retries.
	RetryWaitMax time.Duration
	// Debug: enables verbose HTTP request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger used by the HTTP layer and helpers.
	Logger Logger
	// UserAgent: overrides the default User-Agent header sent by the client.
	UserAgent string
	// Cache: optional GET response cache. Nil disables response caching.
	Cache *CacheConfig
}
