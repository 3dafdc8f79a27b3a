package ipam

import (
	"math"
	"time"
)

// ListResponse is the paginated envelope returned by every list endpoint.
type ListResponse[T any] struct {
	Count    int     `json:"count"    yaml:"count"`
	Next     *string `json:"next"     yaml:"next"`
	Previous *string `json:"previous" yaml:"previous"`
	Results  []T     `json:"results"  yaml:"results"`
}

// HasNext reports whether the backend advertised a following page.
func (l *ListResponse[T]) HasNext() bool {
	return l != nil && l.Next != nil && *l.Next != ""
}

// HasPrevious reports whether the backend advertised a preceding page.
func (l *ListResponse[T]) HasPrevious() bool {
	return l != nil && l.Previous != nil && *l.Previous != ""
}

// TotalPages computes the number of pages for the given page size.
func (l *ListResponse[T]) TotalPages(pageSize int) int {
	if l == nil || pageSize <= 0 || l.Count == 0 {
		return 0
	}

	return int(math.Ceil(float64(l.Count) / float64(pageSize)))
}

// Host is a network host with its primary address.
type Host struct {
	ID          int       `json:"id,omitempty"          yaml:"id,omitempty"`
	Hostname    string    `json:"hostname"              yaml:"hostname"`
	IPAddress   string    `json:"ip_address"            yaml:"ip_address"`
	MACAddress  string    `json:"mac_address,omitempty" yaml:"mac_address,omitempty"`
	Domain      string    `json:"domain,omitempty"      yaml:"domain,omitempty"`
	Owner       string    `json:"owner,omitempty"       yaml:"owner,omitempty"`
	Location    string    `json:"location,omitempty"    yaml:"location,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Active      bool      `json:"active"                yaml:"active"`
	CreatedAt   time.Time `json:"created_at,omitempty"  yaml:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"  yaml:"updated_at,omitempty"`
}

// FQDN joins the host name with its domain.
func (h Host) FQDN() string {
	if h.Domain == "" {
		return h.Hostname
	}

	return h.Hostname + "." + h.Domain
}

// DNSRecord is a single resource record inside a managed domain.
type DNSRecord struct {
	ID        int       `json:"id,omitempty"         yaml:"id,omitempty"`
	Name      string    `json:"name"                 yaml:"name"`
	Type      string    `json:"type"                 yaml:"type"`
	Content   string    `json:"content"              yaml:"content"`
	TTL       int       `json:"ttl"                  yaml:"ttl"`
	Priority  *int      `json:"priority,omitempty"   yaml:"priority,omitempty"`
	Domain    string    `json:"domain"               yaml:"domain"`
	Host      *int      `json:"host,omitempty"       yaml:"host,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Domain is a DNS zone managed by the IPAM.
type Domain struct {
	ID          int       `json:"id,omitempty"          yaml:"id,omitempty"`
	Name        string    `json:"name"                  yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Serial      int64     `json:"serial,omitempty"      yaml:"serial,omitempty"`
	RecordCount int       `json:"record_count"          yaml:"record_count"`
	CreatedAt   time.Time `json:"created_at,omitempty"  yaml:"created_at,omitempty"`
}

// User is an account of the IPAM web application.
type User struct {
	ID        int        `json:"id,omitempty"         yaml:"id,omitempty"`
	Username  string     `json:"username"             yaml:"username"`
	Email     string     `json:"email,omitempty"      yaml:"email,omitempty"`
	FirstName string     `json:"first_name,omitempty" yaml:"first_name,omitempty"`
	LastName  string     `json:"last_name,omitempty"  yaml:"last_name,omitempty"`
	IsStaff   bool       `json:"is_staff"             yaml:"is_staff"`
	IsActive  bool       `json:"is_active"            yaml:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty" yaml:"last_login,omitempty"`
}

// LogEntry is an audit log record. Log entries are read only.
type LogEntry struct {
	ID         int       `json:"id"                    yaml:"id"`
	Timestamp  time.Time `json:"timestamp"             yaml:"timestamp"`
	Username   string    `json:"user"                  yaml:"user"`
	Action     string    `json:"action"                yaml:"action"`
	ObjectType string    `json:"object_type,omitempty" yaml:"object_type,omitempty"`
	ObjectID   *int      `json:"object_id,omitempty"   yaml:"object_id,omitempty"`
	Message    string    `json:"message"               yaml:"message"`
}

// SearchResult is one hit of the global search endpoint.
type SearchResult struct {
	Kind   string `json:"kind"             yaml:"kind"`
	ID     int    `json:"id"               yaml:"id"`
	Label  string `json:"label"            yaml:"label"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Credentials is the body of a session login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CSRFToken is the body returned by the CSRF endpoint.
type CSRFToken struct {
	Token string `json:"csrfToken"`
}

// Convenience aliases for list envelopes.
type (
	HostList         = ListResponse[Host]
	DNSRecordList    = ListResponse[DNSRecord]
	DomainList       = ListResponse[Domain]
	UserList         = ListResponse[User]
	LogEntryList     = ListResponse[LogEntry]
	SearchResultList = ListResponse[SearchResult]
)
