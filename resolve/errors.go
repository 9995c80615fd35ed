package resolve

import (
	"errors"
	"fmt"

	"github.com/miekg/dns"
)

// ResourceRecordTypeError fires when the requested type isn't A, NS or MX.
type ResourceRecordTypeError struct {
	Type string
}

func (e *ResourceRecordTypeError) Error() string {
	return fmt.Sprintf("%s is not a valid resource record type", e.Type)
}

// ResolutionError fires when a hop's candidate server list is exhausted
// without a NOERROR response.
type ResolutionError struct {
	Zone    string
	Servers []string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf(
		"cannot find resource records for %q in any of the following nameservers: %v",
		e.Zone, e.Servers,
	)
}

// ErrTruncated wraps dns.ErrTruncated so callers outside resolve/dnssec
// never need to import miekg/dns directly to check for a truncated
// UDP response.
var ErrTruncated = dns.ErrTruncated

var (
	// ErrEmptyCandidates fires when the next-hop candidate list is empty.
	ErrEmptyCandidates = errors.New("resolve: no candidate nameservers for next hop")

	// ErrTooManyCNAMEChases fires when following CNAME targets loops past
	// maxCNAMEChases.
	ErrTooManyCNAMEChases = errors.New("resolve: too many CNAME redirections")

	// ErrUselessResponse fires when a response carries no answer, no
	// authority and no usable referral.
	ErrUselessResponse = errors.New("resolve: response carried neither an answer nor a referral")
)
