package dnssec

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/miekg/dns"
)

// canonicalWireName returns the uncompressed, lowercased wire-format
// encoding of name: length-prefixed labels terminated by a zero octet.
// RFC 4034 §6.2 requires both owner names and any domain-name-valued
// rdata be expressed this way (no compression, no case) before hashing
// or signing.
func canonicalWireName(name string) []byte {
	name = strings.ToLower(dns.Fqdn(name))
	labels := dns.SplitDomainName(name)
	buf := new(bytes.Buffer)
	for _, l := range labels {
		buf.WriteByte(byte(len(l)))
		buf.WriteString(l)
	}
	buf.WriteByte(0)
	return buf.Bytes()
}

// dnskeyRDATA returns the canonical rdata octets of a DNSKEY record:
// flags, protocol, algorithm, and the raw (non-base64) public key.
func dnskeyRDATA(k *dns.DNSKEY) ([]byte, error) {
	pub, err := base64.StdEncoding.DecodeString(k.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("dnssec: malformed DNSKEY public key: %w", err)
	}
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, k.Flags)
	buf.WriteByte(k.Protocol)
	buf.WriteByte(k.Algorithm)
	buf.Write(pub)
	return buf.Bytes(), nil
}

// rrRDATA returns the canonical rdata octets (names lowercased and
// uncompressed) for the RR types this resolver cares about: A, NS, MX,
// DNSKEY and DS. RRSIG is handled separately (its own rdata, minus the
// signature field, is the signature input prefix rather than a member of
// the RRset it covers).
func rrRDATA(rr dns.RR) ([]byte, error) {
	switch r := rr.(type) {
	case *dns.A:
		ip := r.A.To4()
		if ip == nil {
			return nil, fmt.Errorf("dnssec: A record %q has no IPv4 address", r.Header().Name)
		}
		return []byte(ip), nil
	case *dns.NS:
		return canonicalWireName(r.Ns), nil
	case *dns.MX:
		buf := new(bytes.Buffer)
		binary.Write(buf, binary.BigEndian, r.Preference)
		buf.Write(canonicalWireName(r.Mx))
		return buf.Bytes(), nil
	case *dns.DNSKEY:
		return dnskeyRDATA(r)
	case *dns.DS:
		digest, err := hex.DecodeString(r.Digest)
		if err != nil {
			return nil, fmt.Errorf("dnssec: malformed DS digest: %w", err)
		}
		buf := new(bytes.Buffer)
		binary.Write(buf, binary.BigEndian, r.KeyTag)
		buf.WriteByte(r.Algorithm)
		buf.WriteByte(r.DigestType)
		buf.Write(digest)
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("dnssec: unsupported rdata type %s", dns.TypeToString[rr.Header().Rrtype])
	}
}

// canonicalRR serializes one RR in the form RFC 4034 §6.2 requires as an
// RRSIG signature input member: canonical owner name, type, class,
// original TTL (substituted in for whatever TTL the RR currently holds),
// rdlength, canonical rdata.
func canonicalRR(rr dns.RR, originalTTL uint32) ([]byte, error) {
	rdata, err := rrRDATA(rr)
	if err != nil {
		return nil, err
	}
	buf := new(bytes.Buffer)
	buf.Write(canonicalWireName(rr.Header().Name))
	binary.Write(buf, binary.BigEndian, rr.Header().Rrtype)
	binary.Write(buf, binary.BigEndian, rr.Header().Class)
	binary.Write(buf, binary.BigEndian, originalTTL)
	binary.Write(buf, binary.BigEndian, uint16(len(rdata)))
	buf.Write(rdata)
	return buf.Bytes(), nil
}

// CanonicalRRSet serializes rrset in RFC 4034 §6.3 canonical form:
// every RR canonicalized per canonicalRR, then sorted by canonical rdata
// and concatenated. originalTTL is the RRSIG's Original TTL field, which
// replaces whatever TTL each RR happens to carry.
func CanonicalRRSet(rrset []dns.RR, originalTTL uint32) ([]byte, error) {
	type entry struct{ rdata, wire []byte }
	encoded := make([]entry, 0, len(rrset))
	for _, rr := range rrset {
		b, err := canonicalRR(rr, originalTTL)
		if err != nil {
			return nil, err
		}
		// owner name, then type(2) class(2) ttl(4) rdlength(2), then rdata
		off := len(canonicalWireName(rr.Header().Name)) + 10
		encoded = append(encoded, entry{rdata: b[off:], wire: b})
	}
	sort.Slice(encoded, func(i, j int) bool {
		return bytes.Compare(encoded[i].rdata, encoded[j].rdata) < 0
	})
	out := new(bytes.Buffer)
	for _, e := range encoded {
		out.Write(e.wire)
	}
	return out.Bytes(), nil
}

// rrsigSigningInput is the RRSIG rdata without its signature field.
func rrsigSigningInput(sig *dns.RRSIG) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, sig.TypeCovered)
	buf.WriteByte(sig.Algorithm)
	buf.WriteByte(sig.Labels)
	binary.Write(buf, binary.BigEndian, sig.OrigTtl)
	binary.Write(buf, binary.BigEndian, sig.Expiration)
	binary.Write(buf, binary.BigEndian, sig.Inception)
	binary.Write(buf, binary.BigEndian, sig.KeyTag)
	buf.Write(canonicalWireName(sig.SignerName))
	return buf.Bytes()
}
