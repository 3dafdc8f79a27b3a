package ipam

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
)

// Well-known query parameter names understood by the backend.
const (
	ParamPage      = "page"
	ParamPageSize  = "page_size"
	ParamOrderBy   = "order_by"
	ParamDirection = "direction"
	ParamSearch    = "search"
	// ParamID selects a single item for detail endpoints. It is not sent
	// as a query parameter.
	ParamID = "id"
)

// Sort directions accepted by the direction parameter.
const (
	DirectionAscending  = "asc"
	DirectionDescending = "desc"
)

// Params is a flat set of query parameters. Values must be primitives
// (string, bool, integer or float kinds). Key order is irrelevant.
type Params map[string]any

// NewParams creates an empty parameter set.
func NewParams() Params {
	return Params{}
}

// Equal reports whether both sets hold the same keys with the same values.
// A nil set equals an empty one.
func (p Params) Equal(other Params) bool {
	for key, value := range p {
		otherValue, ok := other[key]
		if !ok || !valueEqual(value, otherValue) {
			return false
		}
	}

	for key := range other {
		if _, ok := p[key]; !ok {
			return false
		}
	}

	return true
}

// Clone returns a shallow copy. Cloning nil yields an empty, non-nil set.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for key, value := range p {
		out[key] = value
	}

	return out
}

// Merge returns a copy of p overlaid with other.
func (p Params) Merge(other Params) Params {
	out := p.Clone()
	for key, value := range other {
		out[key] = value
	}

	return out
}

// With sets a value in place and returns the set for chaining.
func (p Params) With(key string, value any) Params {
	p[key] = value

	return p
}

// WithPage sets the page number.
func (p Params) WithPage(page int) Params {
	return p.With(ParamPage, page)
}

// WithPageSize sets the page size.
func (p Params) WithPageSize(pageSize int) Params {
	return p.With(ParamPageSize, pageSize)
}

// WithOrderBy sets the sort field and direction.
func (p Params) WithOrderBy(field, direction string) Params {
	p[ParamOrderBy] = field
	if direction != "" {
		p[ParamDirection] = direction
	}

	return p
}

// WithSearch sets the free text search term.
func (p Params) WithSearch(term string) Params {
	return p.With(ParamSearch, term)
}

// Int returns an integer parameter, or def when missing or not numeric.
func (p Params) Int(key string, def int) int {
	switch value := p[key].(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	case string:
		n, err := strconv.Atoi(value)
		if err == nil {
			return n
		}
	}

	return def
}

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// ToValues converts the set into URL query values.
func (p Params) ToValues() url.Values {
	values := url.Values{}

	for key, value := range p {
		if value == nil {
			continue
		}

		values.Set(key, formatValue(value))
	}

	return values
}

// String renders the set deterministically, e.g. for cache keys and logs.
func (p Params) String() string {
	return p.ToValues().Encode()
}

// Validate checks that every value is a primitive.
func (p Params) Validate() error {
	for key, value := range p {
		if value == nil {
			continue
		}

		switch reflect.TypeOf(value).Kind() {
		case reflect.String, reflect.Bool,
			reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
		default:
			return fmt.Errorf("%w: %s has type %T", ErrInvalidParamValue, key, value)
		}
	}

	return nil
}

func valueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	typeA := reflect.TypeOf(a)
	if typeA != reflect.TypeOf(b) || !typeA.Comparable() {
		return false
	}

	return a == b
}

func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
