package resolve

import "github.com/miekg/dns"

// edns0BufSize is the UDP payload size advertised in the OPT pseudo-RR,
// per spec §4.1 ("requesting payload 4096").
const edns0BufSize = 4096

// BuildQuery constructs a single-question query for q. RD is left unset
// (0): this resolver drives the referral walk itself, it never asks an
// upstream to recurse on its behalf. In DNSSEC mode the DO bit is set via
// an OPT pseudo-RR in the additional section.
func BuildQuery(q Question, wantDNSSEC bool) *dns.Msg {
	m := new(dns.Msg)
	m.Id = dns.Id()
	m.RecursionDesired = false
	m.Question = []dns.Question{{Name: dns.Fqdn(q.Name), Qtype: q.Type, Qclass: dns.ClassINET}}
	m.SetEdns0(edns0BufSize, wantDNSSEC)
	return m
}

// Sections splits a decoded message into its three RR sections, the seam
// callers outside this package use instead of reaching into *dns.Msg
// directly.
func Sections(m *dns.Msg) (answer, authority, additional []dns.RR) {
	return m.Answer, m.Ns, m.Extra
}

// extractRRSet returns the RRs in in matching one of types t, optionally
// restricted to owner name (name == "" means any owner).
func extractRRSet(in []dns.RR, name string, t ...uint16) []dns.RR {
	wanted := make(map[uint16]struct{}, len(t))
	for _, rt := range t {
		wanted[rt] = struct{}{}
	}
	out := make([]dns.RR, 0, len(in))
	for _, rr := range in {
		if _, ok := wanted[rr.Header().Rrtype]; !ok {
			continue
		}
		if name != "" && !equalFold(rr.Header().Name, name) {
			continue
		}
		out = append(out, rr)
	}
	return out
}

func equalFold(a, b string) bool {
	return dns.CanonicalName(a) == dns.CanonicalName(b)
}

// rrsetContains reports whether rrset holds at least one record of type t.
func rrsetContains(rrset []dns.RR, t uint16) bool {
	for _, r := range rrset {
		if r.Header().Rrtype == t {
			return true
		}
	}
	return false
}
