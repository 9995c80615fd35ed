package resolve

import (
	"context"
	"net"
	"time"

	"github.com/miekg/dns"
)

// DefaultTimeout is the recommended per-attempt timeout from spec §4.2.
const DefaultTimeout = 3 * time.Second

// dnsPort is the port appended to every candidate address. Tests
// override it to point at a local fake server, the same trick the
// teacher resolver uses for its own DNSSEC tests.
var dnsPort = "53"

// SetPort overrides the port appended to every candidate address.
// Production code never calls this; it exists so tests (in this package
// and others, such as dnssec's) can redirect queries to a local fake
// server.
func SetPort(port string) { dnsPort = port }

// Transport sends queries to candidate servers over UDP, retrying the
// same server over TCP on truncation and advancing to the next candidate
// on any non-NOERROR rcode. It is the sole I/O boundary of this resolver
// (C2); the walker and validator never touch the network directly.
type Transport struct {
	udp *dns.Client
	tcp *dns.Client

	// Bootstrap resolves a bare nameserver name to an IPv4 address. It
	// defaults to the platform resolver (net.DefaultResolver), which
	// spec §4.2 explicitly allows.
	Bootstrap func(ctx context.Context, name string) (string, error)
}

// NewTransport returns a Transport configured with the given per-attempt
// timeout.
func NewTransport(timeout time.Duration) *Transport {
	return &Transport{
		udp:       &dns.Client{Net: "udp", Timeout: timeout},
		tcp:       &dns.Client{Net: "tcp", Timeout: timeout},
		Bootstrap: bootstrapResolve,
	}
}

func bootstrapResolve(ctx context.Context, name string) (string, error) {
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", name)
	if err != nil {
		return "", err
	}
	if len(ips) == 0 {
		return "", ErrEmptyCandidates
	}
	return ips[0].String(), nil
}

// resolveAddr turns a Nameserver candidate into a dialable address,
// bootstrap-resolving its name if Addr is unset.
func (t *Transport) resolveAddr(ctx context.Context, ns Nameserver) (string, error) {
	if ns.Addr != "" {
		return ns.Addr, nil
	}
	return t.Bootstrap(ctx, ns.Name)
}

// Query sends m to each candidate in turn (in order) until one returns a
// NOERROR response, retrying that candidate over TCP if UDP truncates.
// forceTCP is set by the DNSSEC validator: DNSKEY and DS queries are
// always sent over TCP (spec §4.2).
func (t *Transport) Query(ctx context.Context, m *dns.Msg, candidates []Nameserver, forceTCP bool) (*dns.Msg, string, error) {
	if len(candidates) == 0 {
		return nil, "", ErrEmptyCandidates
	}

	servers := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		addr, err := t.resolveAddr(ctx, c)
		if err != nil {
			servers = append(servers, c.Name)
			continue
		}
		servers = append(servers, addr)

		r, err := t.exchange(m, addr, forceTCP)
		if err != nil {
			continue
		}
		if r.Rcode != dns.RcodeSuccess {
			continue
		}
		return r, addr, nil
	}

	return nil, "", &ResolutionError{Zone: questionZone(m), Servers: servers}
}

func (t *Transport) exchange(m *dns.Msg, addr string, forceTCP bool) (*dns.Msg, error) {
	hostport := net.JoinHostPort(addr, dnsPort)

	if forceTCP {
		r, _, err := t.tcp.Exchange(m, hostport)
		return r, err
	}

	r, _, err := t.udp.Exchange(m, hostport)
	if err == ErrTruncated || (r != nil && r.Truncated) {
		r, _, err = t.tcp.Exchange(m, hostport)
	}
	return r, err
}

func questionZone(m *dns.Msg) string {
	if len(m.Question) == 0 {
		return ""
	}
	return m.Question[0].Name
}
