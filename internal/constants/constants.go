package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations such as the CSRF bootstrap.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits. Retries are disabled unless configured.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 0

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Session and CSRF.
const (
	// SessionCookieName is the name of the backend's session cookie.
	SessionCookieName = "sessionid"

	// CSRFCookieName is the name of the backend's CSRF cookie.
	CSRFCookieName = "csrftoken"
)

// API paths.
const (
	APIPathHosts      = "/api/hosts/"
	APIPathDNSRecords = "/api/dns-records/"
	APIPathDomains    = "/api/domains/"
	APIPathUsers      = "/api/users/"
	APIPathUsersMe    = "/api/users/me/"
	APIPathLogs       = "/api/logs/"
	APIPathSearch     = "/api/search/"
	APIPathCSRF       = "/api/csrf/"
	APIPathLogin      = "/api/login/"
	APIPathLogout     = "/api/logout/"
)

// Hook defaults.
const (
	// DefaultPageCacheSize is the number of pages kept by a caching hook.
	DefaultPageCacheSize = 20

	// DefaultPrefetch is the prefetch window used by the CLI.
	DefaultPrefetch = 2
)

// Response cache defaults.
const (
	// DefaultCacheSize is the default response cache size limit.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is the default cache time-to-live.
	DefaultCacheTTL = 5 * time.Minute

	// DefaultCleanupInterval is how often expired memory entries are dropped.
	DefaultCleanupInterval = 1 * time.Minute

	// MaxCacheValueSize is the maximum size for cached values (1MB).
	MaxCacheValueSize = 1024 * 1024

	// DefaultNATSBucket is the JetStream key-value bucket used for caching.
	DefaultNATSBucket = "ipam-cache"
)

// Display constants.
const (
	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2

	// DescriptionDisplayLength is the default length for displaying descriptions.
	DescriptionDisplayLength = 40

	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"
)

// Format constants.
const (
	// FormatTable for table output format.
	FormatTable = "table"

	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"
)

