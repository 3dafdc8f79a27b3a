package ipam

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/miekg/dns"
)

// ZoneApex is the record name that refers to the domain itself.
const ZoneApex = "@"

// Validate checks the record shape before it is sent to the backend: the
// type must be known, the owner name a valid domain name, and the content
// must parse as RDATA of that type.
func (r *DNSRecord) Validate() error {
	rrType, ok := dns.StringToType[strings.ToUpper(r.Type)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidRecordType, r.Type)
	}

	if r.Name != ZoneApex {
		if _, ok := dns.IsDomainName(r.Name); !ok || r.Name == "" {
			return fmt.Errorf("%w: %q", ErrInvalidRecordName, r.Name)
		}
	}

	if r.TTL < 0 || r.TTL > math.MaxInt32 {
		return fmt.Errorf("%w: %d", ErrInvalidTTL, r.TTL)
	}

	needsPriority := rrType == dns.TypeMX || rrType == dns.TypeSRV
	if needsPriority && r.Priority == nil {
		return fmt.Errorf("%w: %s", ErrPriorityRequired, r.Type)
	}

	rr, err := r.ToRR()
	if err != nil {
		return err
	}

	if rr.Header().Rrtype != rrType {
		return fmt.Errorf("%w: %q is not %s data", ErrInvalidRecordContent, r.Content, r.Type)
	}

	return nil
}

// ToRR parses the record into its wire representation, resolving relative
// names against the record's domain.
func (r *DNSRecord) ToRR() (dns.RR, error) {
	origin := dns.Fqdn(r.Domain)

	parser := dns.NewZoneParser(strings.NewReader(r.zoneLine()), origin, "")

	rr, ok := parser.Next()
	if !ok {
		err := parser.Err()
		if err == nil {
			err = fmt.Errorf("%w: empty record", ErrInvalidRecordContent)
		}

		return nil, fmt.Errorf("%w: %w", ErrInvalidRecordContent, err)
	}

	return rr, nil
}

// FQDN returns the absolute owner name.
func (r *DNSRecord) FQDN() string {
	if r.Name == ZoneApex || r.Name == "" {
		return dns.Fqdn(r.Domain)
	}

	if dns.IsFqdn(r.Name) {
		return r.Name
	}

	if r.Domain == "" {
		return dns.Fqdn(r.Name)
	}

	return dns.Fqdn(r.Name + "." + r.Domain)
}

func (r *DNSRecord) zoneLine() string {
	recordType := strings.ToUpper(r.Type)

	content := r.Content
	if recordType == "TXT" && !strings.HasPrefix(content, `"`) {
		content = `"` + strings.ReplaceAll(content, `"`, `\"`) + `"`
	}

	if r.Priority != nil {
		content = strconv.Itoa(*r.Priority) + " " + content
	}

	return fmt.Sprintf("%s %d IN %s %s\n", r.FQDN(), r.TTL, recordType, content)
}
