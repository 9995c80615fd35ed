// Package dnssec implements the chain-of-trust validator (C4) and the
// crypto primitives it rests on (C5): DS digest computation, RFC 4034 §6
// canonical form, and RSA/ECDSA RRSIG verification.
package dnssec

import (
	"context"
	"time"

	"github.com/miekg/dns"

	"github.com/dbagal/mydig/internal/logging"
	"github.com/dbagal/mydig/resolve"
)

const kskFlag = 257
const zskFlag = 256

var validatorLog = logging.PrefixedLog("dnssec")

// Validate implements spec §4.4 Steps A-D: it fetches the authoritative
// zone's DNSKEY set, climbs the redirection history verifying each
// zone's KSK against its parent's DS records, checks the root KSK
// against the embedded trust anchor, verifies the authoritative DNSKEY
// RRSet's own signature (the ZSK check), and finally verifies every
// signed RRset in the authoritative answer.
//
// zone is the full name that was resolved (spec §4.4's "zone name being
// resolved" — every DS query in the climb asks for this same name, not
// an intermediate zone-cut name, matching the reference implementation).
// history is the redirection history from resolve.Walker.Resolve, whose
// last element served authoritative.
func Validate(ctx context.Context, t *resolve.Transport, zone string, authoritative *resolve.Answer, history []string) (err error) {
	defer func() {
		if err != nil {
			validatorLog.Infof("DNSSEC validation of %s failed: %v", zone, err)
		} else {
			validatorLog.Infof("DNSSEC validation of %s succeeded", zone)
		}
	}()

	if len(history) == 0 {
		return &NoDNSSECSupportError{Zone: zone}
	}

	// Step A: fetch the authoritative zone's DNSKEY RRSet.
	terminalIP := history[len(history)-1]
	authDNSKEYs, authSig, err := lookupDNSKEY(ctx, t, zone, terminalIP)
	if err != nil {
		return err
	}
	if len(authDNSKEYs) == 0 {
		return &NoDNSSECSupportError{Zone: zone}
	}

	// Step B: climb the chain from the terminal zone up through every
	// intermediate zone cut, proving each zone's KSK against its parent's
	// DS records. The loop stops at i == 2, i.e. it never asks the root
	// for a DS record of the full leaf name (the root only delegates the
	// TLD, it is never authoritative for the leaf name itself) — the root
	// is handled separately below, by trust anchor comparison, not a DS
	// query (spec §9 REDESIGN FLAG).
	climbKSKs := filterFlag(authDNSKEYs, kskFlag)
	for i := len(history) - 1; i >= 2; i-- {
		parentIP := history[i-1]

		dsSet, err := lookupDS(ctx, t, zone, parentIP)
		if err != nil {
			return err
		}
		if !verifyDS(zone, climbKSKs, dsSet) {
			return &KSKVerificationError{Zone: zone}
		}

		parentDNSKEYs, _, err := lookupDNSKEY(ctx, t, zone, parentIP)
		if err != nil {
			return err
		}
		if len(parentDNSKEYs) == 0 {
			return &NoDNSSECSupportError{Zone: zone}
		}
		climbKSKs = filterFlag(parentDNSKEYs, kskFlag)
	}

	// The climb has now reached the root. Its KSK set is fetched directly
	// (no DS query — the root has no parent to hold one) and must match
	// the embedded trust anchor rather than being implicitly trusted
	// (spec §9 REDESIGN FLAG).
	rootDNSKEYs, _, err := lookupDNSKEY(ctx, t, zone, history[0])
	if err != nil {
		return err
	}
	if len(rootDNSKEYs) == 0 {
		return &NoDNSSECSupportError{Zone: "."}
	}
	if !verifyRootAnchor(filterFlag(rootDNSKEYs, kskFlag)) {
		return &KSKVerificationError{Zone: "."}
	}

	// Step C: verify the authoritative zone's own DNSKEY RRSIG with one
	// of its KSKs.
	authKSKs := filterFlag(authDNSKEYs, kskFlag)
	if authSig == nil {
		return &ZSKVerificationError{Zone: zone}
	}
	if err := verifyWithAny(authSig, authKSKs, dnskeysToRR(authDNSKEYs)); err != nil {
		return &ZSKVerificationError{Zone: zone}
	}

	// Step D: verify every signed RRset in the authoritative answer with
	// a matching ZSK (selected by key tag + algorithm, per spec §4.4).
	zsks := filterFlag(authDNSKEYs, zskFlag)
	return verifyAuthoritativeRRSets(authoritative, zone, zsks)
}

// verifyRootAnchor checks whether any of the root zone's published KSKs
// matches the embedded IANA trust anchor digest.
func verifyRootAnchor(rootKSKs []*dns.DNSKEY) bool {
	anchor := RootTrustAnchor
	for _, ksk := range rootKSKs {
		if ksk.KeyTag() != anchor.KeyTag || ksk.Algorithm != anchor.Algorithm {
			continue
		}
		digest, err := computeDS(".", ksk, anchor.DigestType)
		if err != nil {
			continue
		}
		if hexEqualFold(digest, anchor.Digest) {
			return true
		}
	}
	return false
}

// lookupDNSKEY queries ip for zone's DNSKEY RRSet over TCP with DO=1
// (spec §4.4 Step A / B.4), and returns the DNSKEY RRs and the RRSIG
// covering them.
func lookupDNSKEY(ctx context.Context, t *resolve.Transport, zone, ip string) ([]*dns.DNSKEY, *dns.RRSIG, error) {
	m := resolve.BuildQuery(resolve.Question{Name: zone, Type: dns.TypeDNSKEY}, true)
	r, _, err := t.Query(ctx, m, []resolve.Nameserver{{Addr: ip}}, true)
	if err != nil {
		validatorLog.WithField("server", ip).Debugf("DNSKEY %s: query failed: %v", zone, err)
		return nil, nil, err
	}
	validatorLog.WithFields(map[string]interface{}{
		"server": ip,
		"rcode":  dns.RcodeToString[r.Rcode],
	}).Debugf("DNSKEY %s: %d record(s)", zone, len(r.Answer))

	var keys []*dns.DNSKEY
	var sig *dns.RRSIG
	for _, rr := range r.Answer {
		switch k := rr.(type) {
		case *dns.DNSKEY:
			if k.Flags == kskFlag || k.Flags == zskFlag {
				keys = append(keys, k)
			}
		case *dns.RRSIG:
			if k.TypeCovered == dns.TypeDNSKEY {
				sig = k
			}
		}
	}
	return keys, sig, nil
}

// lookupDS queries ip for zone's DS RRSet over TCP with DO=1 (spec §4.4
// Step B.2).
func lookupDS(ctx context.Context, t *resolve.Transport, zone, ip string) ([]*dns.DS, error) {
	m := resolve.BuildQuery(resolve.Question{Name: zone, Type: dns.TypeDS}, true)
	r, _, err := t.Query(ctx, m, []resolve.Nameserver{{Addr: ip}}, true)
	if err != nil {
		validatorLog.WithField("server", ip).Debugf("DS %s: query failed: %v", zone, err)
		return nil, err
	}
	validatorLog.WithFields(map[string]interface{}{
		"server": ip,
		"rcode":  dns.RcodeToString[r.Rcode],
	}).Debugf("DS %s: %d record(s)", zone, len(r.Answer))

	var out []*dns.DS
	for _, rr := range r.Answer {
		if ds, ok := rr.(*dns.DS); ok {
			out = append(out, ds)
		}
	}
	return out, nil
}

func filterFlag(keys []*dns.DNSKEY, flag uint16) []*dns.DNSKEY {
	var out []*dns.DNSKEY
	for _, k := range keys {
		if k.Flags == flag {
			out = append(out, k)
		}
	}
	return out
}

func dnskeysToRR(keys []*dns.DNSKEY) []dns.RR {
	out := make([]dns.RR, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}

// verifyWithAny tries sig against rrset under every key in keys,
// succeeding on the first match.
func verifyWithAny(sig *dns.RRSIG, keys []*dns.DNSKEY, rrset []dns.RR) error {
	var lastErr error = ErrSignatureMismatch
	for _, k := range keys {
		if k.KeyTag() != sig.KeyTag || k.Algorithm != sig.Algorithm {
			continue
		}
		if err := verifyRRSIG(sig, k, rrset, time.Now()); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return lastErr
}

type rrsetKey struct {
	name string
	t    uint16
}

// verifyAuthoritativeRRSets groups R's answer and authority sections
// into RRsets, matches each against a covering RRSIG, and verifies the
// signature with a same-tag-and-algorithm ZSK.
func verifyAuthoritativeRRSets(r *resolve.Answer, zone string, zsks []*dns.DNSKEY) error {
	rrsets := map[rrsetKey][]dns.RR{}
	sigs := map[rrsetKey]*dns.RRSIG{}

	for _, section := range [][]dns.RR{r.Answer, r.Authority} {
		for _, rr := range section {
			if sig, ok := rr.(*dns.RRSIG); ok {
				key := rrsetKey{name: dns.CanonicalName(rr.Header().Name), t: sig.TypeCovered}
				sigs[key] = sig
				continue
			}
			key := rrsetKey{name: dns.CanonicalName(rr.Header().Name), t: rr.Header().Rrtype}
			rrsets[key] = append(rrsets[key], rr)
		}
	}

	for key, set := range rrsets {
		sig, ok := sigs[key]
		if !ok {
			continue // unsigned RRset (e.g. a glue-only NS set); nothing to verify
		}
		if err := verifyWithAny(sig, zsks, set); err != nil {
			return &RRSetVerificationError{Zone: zone, RRType: key.t}
		}
	}
	return nil
}
