package ipam

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// APIError represents a non-2xx response from the IPAM backend.
type APIError struct {
	StatusCode int                 `json:"-"                yaml:"status_code"`
	Detail     string              `json:"detail,omitempty" yaml:"detail,omitempty"`
	Fields     map[string][]string `json:"-"                yaml:"fields,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("ipam api error (status %d)", e.StatusCode))

	if e.Detail != "" {
		builder.WriteString(": ")
		builder.WriteString(e.Detail)
	}

	if len(e.Fields) > 0 {
		names := make([]string, 0, len(e.Fields))
		for name := range e.Fields {
			names = append(names, name)
		}

		sort.Strings(names)

		for _, name := range names {
			builder.WriteString(fmt.Sprintf("; %s: %s", name, strings.Join(e.Fields[name], ", ")))
		}
	}

	return builder.String()
}

// ParseAPIError decodes an error body. The backend answers either with
// {"detail": "..."} or with a field name → messages map for validation errors.
// Undecodable bodies are kept verbatim as the detail.
func ParseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		apiErr.Detail = http.StatusText(statusCode)

		return apiErr
	}

	var raw map[string]json.RawMessage

	err := json.Unmarshal(body, &raw)
	if err != nil {
		apiErr.Detail = trimmed

		return apiErr
	}

	for key, value := range raw {
		if key == "detail" {
			_ = json.Unmarshal(value, &apiErr.Detail)

			continue
		}

		messages := decodeFieldMessages(value)
		if len(messages) == 0 {
			continue
		}

		if apiErr.Fields == nil {
			apiErr.Fields = make(map[string][]string)
		}

		apiErr.Fields[key] = messages
	}

	if apiErr.Detail == "" && len(apiErr.Fields) == 0 {
		apiErr.Detail = http.StatusText(statusCode)
	}

	return apiErr
}

func decodeFieldMessages(value json.RawMessage) []string {
	var list []string
	if json.Unmarshal(value, &list) == nil {
		return list
	}

	var single string
	if json.Unmarshal(value, &single) == nil {
		return []string{single}
	}

	return nil
}

// Common static errors that can be wrapped with context.
var (
	ErrInvalidParamValue     = errors.New("invalid parameter value")
	ErrConfigRequired        = errors.New("config is required")
	ErrAPIEndpointRequired   = errors.New("API endpoint is required")
	ErrNoHostInURL           = errors.New("no host specified in URL")
	ErrUnsupportedScheme     = errors.New("API endpoint scheme must be http or https")
	ErrNotAuthenticated      = errors.New("not authenticated")
	ErrCSRFTokenMissing      = errors.New("csrf token missing from response")
	ErrInvalidRecordType     = errors.New("invalid DNS record type")
	ErrInvalidRecordName     = errors.New("invalid DNS record name")
	ErrInvalidRecordContent  = errors.New("invalid DNS record content")
	ErrInvalidTTL            = errors.New("invalid TTL")
	ErrPriorityRequired      = errors.New("priority is required for this record type")
	ErrNoMoreItems           = errors.New("no more items")
	ErrCacheEntryNotFound    = errors.New("cache key not found")
	ErrCacheEntryExpired     = errors.New("cache entry expired")
	ErrMissingResourceID     = errors.New("resource id is required")
	ErrReadOnlyResource      = errors.New("resource is read only")
	ErrUnknownConfigKey      = errors.New("unknown configuration key")
	ErrUnsupportedOutputType = errors.New("unsupported output format")
)

// IsNotFound checks if the error is a 404 from the backend.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized checks if the error is a 401 from the backend.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsForbidden checks if the error is a 403 from the backend.
func IsForbidden(err error) bool {
	return hasStatus(err, http.StatusForbidden)
}

// IsValidation checks if the error is a 400 carrying field errors.
func IsValidation(err error) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusBadRequest && len(apiErr.Fields) > 0
	}

	return false
}

func hasStatus(err error, status int) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == status
	}

	return false
}
