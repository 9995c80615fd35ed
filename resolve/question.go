// Package resolve implements the iterative referral walk (C3) on top of a
// thin wire-codec/transport layer (C1/C2) built on github.com/miekg/dns.
package resolve

import "github.com/miekg/dns"

// Question is a DNS IN question restricted to the three types this
// resolver supports.
type Question struct {
	Name string
	Type uint16
}

// Supported record types.
var (
	TypeA  = dns.TypeA
	TypeNS = dns.TypeNS
	TypeMX = dns.TypeMX
)

// TypeFromString maps a CLI-supplied record type string to its wire
// value. Only A, NS and MX are accepted.
func TypeFromString(s string) (uint16, error) {
	switch s {
	case "A":
		return TypeA, nil
	case "NS":
		return TypeNS, nil
	case "MX":
		return TypeMX, nil
	default:
		return 0, &ResourceRecordTypeError{Type: s}
	}
}

// Answer is the terminal result of a Walker.Resolve call: the
// answer/authority/additional sections of the authoritative response,
// plus the rcode it carried.
type Answer struct {
	Answer     []dns.RR
	Authority  []dns.RR
	Additional []dns.RR
	Rcode      int
}

// Nameserver is a candidate upstream server: either resolved to an IP
// already (glue, or a root hint) or still a bare name requiring
// bootstrap resolution.
type Nameserver struct {
	Name string // owner name of the NS record, informational only
	Addr string // literal IPv4 address, empty if not yet resolved
	Zone string // zone this server is believed authoritative for
}
