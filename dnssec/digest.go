package dnssec

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/miekg/dns"
)

// Digest algorithm identifiers (spec §3, §4.5).
const (
	DigestSHA1   = 1
	DigestSHA256 = 2
)

// computeDS computes the hex digest of owner+DNSKEY under digestType,
// per spec §4.5: "the canonical owner name (wire form, lowercased)
// concatenated with DNSKEY rdata".
func computeDS(owner string, k *dns.DNSKEY, digestType uint8) (string, error) {
	rdata, err := dnskeyRDATA(k)
	if err != nil {
		return "", err
	}
	input := append(canonicalWireName(owner), rdata...)

	switch digestType {
	case DigestSHA1:
		sum := sha1.Sum(input)
		return hex.EncodeToString(sum[:]), nil
	case DigestSHA256:
		sum := sha256.Sum256(input)
		return hex.EncodeToString(sum[:]), nil
	default:
		return "", fmt.Errorf("dnssec: unsupported DS digest type %d", digestType)
	}
}

// verifyDS reports whether any (ds, ksk) pair matches: the KSK's
// computed digest under the DS's algorithm equals the DS's published
// digest. Per spec §9, any single match across the DS RRset is
// sufficient — a DS RRset commonly carries both a SHA-1 and a SHA-256
// digest for the same key, and only one needs to verify.
func verifyDS(owner string, ksks []*dns.DNSKEY, dsSet []*dns.DS) bool {
	for _, ds := range dsSet {
		for _, ksk := range ksks {
			if ksk.KeyTag() != ds.KeyTag || ksk.Algorithm != ds.Algorithm {
				continue
			}
			computed, err := computeDS(owner, ksk, ds.DigestType)
			if err != nil {
				continue
			}
			if hexEqualFold(computed, ds.Digest) {
				return true
			}
		}
	}
	return false
}

func hexEqualFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
