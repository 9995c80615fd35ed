package resolve

import (
	"context"
	"strings"

	"github.com/miekg/dns"

	"github.com/dbagal/mydig/internal/logging"
)

var walkerLog = logging.PrefixedLog("walker")

// maxCNAMEChases bounds the number of times resolution restarts on a
// CNAME target before giving up, mirroring the loop-safety style of the
// teacher's MaxReferrals constant.
const maxCNAMEChases = 8

// Walker drives the iterative root-to-authoritative descent (C3).
type Walker struct {
	Transport *Transport
	RootHints []Nameserver
}

// NewWalker returns a Walker with the given root hints and a freshly
// constructed Transport using DefaultTimeout.
func NewWalker(rootHints []Nameserver) *Walker {
	return &Walker{
		Transport: NewTransport(DefaultTimeout),
		RootHints: rootHints,
	}
}

// NormalizeName strips a leading scheme prefix and leading "www.", and
// appends a trailing dot, per spec §4.3.
func NormalizeName(hostname string) string {
	h := hostname
	h = strings.TrimPrefix(h, "https://")
	h = strings.TrimPrefix(h, "http://")
	h = strings.TrimPrefix(h, "www.")
	h = strings.TrimSuffix(h, ".")
	return h + "."
}

// Resolve performs an iterative resolution of q, following CNAME targets
// (REDESIGN FLAG, spec §9) up to maxCNAMEChases times. It returns the
// terminal Answer, the redirection history (one server IP per hop,
// across all CNAME restarts), and any terminal error.
func (w *Walker) Resolve(ctx context.Context, q Question, wantDNSSEC bool) (*Answer, []string, error) {
	name := NormalizeName(q.Name)
	var fullHistory []string

	for chase := 0; ; chase++ {
		if chase > maxCNAMEChases {
			return nil, fullHistory, ErrTooManyCNAMEChases
		}

		r, history, err := w.walkOnce(ctx, Question{Name: name, Type: q.Type}, wantDNSSEC)
		fullHistory = append(fullHistory, history...)
		if err != nil {
			walkerLog.Infof("resolution of %s %s failed: %v", q.Name, dns.TypeToString[q.Type], err)
			return nil, fullHistory, err
		}

		if q.Type != dns.TypeCNAME && !rrsetContains(r.Answer, q.Type) {
			if cname := firstCNAMETarget(r.Answer); cname != "" {
				walkerLog.Debugf("chasing CNAME %s -> %s", name, cname)
				name = dns.Fqdn(cname)
				continue
			}
		}

		walkerLog.Infof("resolved %s %s in %d hop(s)", q.Name, dns.TypeToString[q.Type], len(fullHistory))
		return extractAnswer(r), fullHistory, nil
	}
}

// loggerFields builds the common per-hop logrus field set.
func loggerFields(server string, rcode int, outcome string) map[string]interface{} {
	return map[string]interface{}{
		"server":  server,
		"rcode":   dns.RcodeToString[rcode],
		"outcome": outcome,
	}
}

// walkOnce runs the bounded root-to-authoritative loop for a single,
// already-normalized name. It does not chase CNAMEs.
func (w *Walker) walkOnce(ctx context.Context, q Question, wantDNSSEC bool) (*dns.Msg, []string, error) {
	hops := dns.CountLabel(q.Name)
	candidates := w.RootHints
	var history []string
	var last *dns.Msg

	for hop := 0; hop < hops; hop++ {
		m := BuildQuery(q, wantDNSSEC)
		r, ip, err := w.Transport.Query(ctx, m, candidates, false)
		if err != nil {
			walkerLog.WithField("server", ip).Debugf("hop %d: query failed: %v", hop, err)
			return nil, history, err
		}
		history = append(history, ip)
		last = r

		if glue := gluesFromReferral(r.Ns, r.Extra); len(glue) > 0 {
			walkerLog.WithFields(loggerFields(ip, r.Rcode, "referral")).Debugf("hop %d: %s referred to %d glued nameserver(s)", hop, ip, len(glue))
			candidates = glue
			continue
		}
		if names := nsNamesWithoutGlue(r.Ns); len(names) > 0 {
			walkerLog.WithFields(loggerFields(ip, r.Rcode, "referral")).Debugf("hop %d: %s referred to %s (no glue)", hop, ip, names[0])
			candidates = []Nameserver{{Name: names[0]}}
			continue
		}
		if rrsetContains(r.Answer, q.Type) || rrsetContains(r.Answer, dns.TypeCNAME) {
			walkerLog.WithFields(loggerFields(ip, r.Rcode, "authoritative")).Debugf("hop %d: %s answered authoritatively", hop, ip)
			return r, history, nil
		}
		walkerLog.WithFields(loggerFields(ip, r.Rcode, "useless")).Debugf("hop %d: %s returned neither an answer nor a referral", hop, ip)
		return nil, history, ErrUselessResponse
	}

	// spec §4.3: for A/MX, if the descent ran out of hops without an
	// answer, issue one final query against the last known candidates.
	if (q.Type == TypeA || q.Type == TypeMX) && !rrsetContains(last.Answer, q.Type) {
		m := BuildQuery(q, wantDNSSEC)
		r, ip, err := w.Transport.Query(ctx, m, candidates, false)
		if err != nil {
			return nil, history, err
		}
		history = append(history, ip)
		last = r
	}

	if !rrsetContains(last.Answer, q.Type) && !rrsetContains(last.Answer, dns.TypeCNAME) {
		return nil, history, ErrUselessResponse
	}
	return last, history, nil
}

// gluesFromReferral returns the A-record glue (in received order) for
// any NS target named in authority, or nil if none is present.
func gluesFromReferral(authority, additional []dns.RR) []Nameserver {
	nsTargets := make(map[string]struct{}, len(authority))
	for _, rr := range authority {
		if ns, ok := rr.(*dns.NS); ok {
			nsTargets[dns.CanonicalName(ns.Ns)] = struct{}{}
		}
	}
	if len(nsTargets) == 0 {
		return nil
	}

	var out []Nameserver
	for _, rr := range additional {
		a, ok := rr.(*dns.A)
		if !ok {
			continue
		}
		if _, wanted := nsTargets[dns.CanonicalName(a.Header().Name)]; wanted {
			out = append(out, Nameserver{Name: a.Header().Name, Addr: a.A.String()})
		}
	}
	return out
}

// nsNamesWithoutGlue returns the NS target names in authority, in
// received order. The caller follows spec's tie-break of using only the
// first one.
func nsNamesWithoutGlue(authority []dns.RR) []string {
	var out []string
	for _, rr := range authority {
		if ns, ok := rr.(*dns.NS); ok {
			out = append(out, ns.Ns)
		}
	}
	return out
}

// firstCNAMETarget returns the target of the first CNAME record in
// answer, or "" if there is none.
func firstCNAMETarget(answer []dns.RR) string {
	for _, rr := range answer {
		if c, ok := rr.(*dns.CNAME); ok {
			return c.Target
		}
	}
	return ""
}

func extractAnswer(m *dns.Msg) *Answer {
	answer, authority, additional := Sections(m)
	return &Answer{
		Answer:     answer,
		Authority:  authority,
		Additional: additional,
		Rcode:      m.Rcode,
	}
}
