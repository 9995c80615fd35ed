package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dbagal/mydig/dnssec"
	"github.com/dbagal/mydig/resolve"
)

// parseRootHints turns a comma-separated list of IPv4 addresses into root
// hint candidates, substituting for roothints.Default() (spec §6
// --root-hints).
func parseRootHints(s string) []resolve.Nameserver {
	parts := strings.Split(s, ",")
	out := make([]resolve.Nameserver, 0, len(parts))
	for _, p := range parts {
		addr := strings.TrimSpace(p)
		if addr == "" {
			continue
		}
		out = append(out, resolve.Nameserver{Name: ".", Addr: addr, Zone: "."})
	}
	return out
}

// parseTrustAnchor parses a "keytag,algorithm,digesttype,digest" quadruple
// into a dnssec.TrustAnchor, substituting for dnssec.RootTrustAnchor (spec
// §6 --trust-anchor).
func parseTrustAnchor(s string) (dnssec.TrustAnchor, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return dnssec.TrustAnchor{}, fmt.Errorf("--trust-anchor: want keytag,algorithm,digesttype,digest, got %q", s)
	}

	keyTag, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 16)
	if err != nil {
		return dnssec.TrustAnchor{}, fmt.Errorf("--trust-anchor: bad keytag: %w", err)
	}
	algorithm, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 8)
	if err != nil {
		return dnssec.TrustAnchor{}, fmt.Errorf("--trust-anchor: bad algorithm: %w", err)
	}
	digestType, err := strconv.ParseUint(strings.TrimSpace(parts[2]), 10, 8)
	if err != nil {
		return dnssec.TrustAnchor{}, fmt.Errorf("--trust-anchor: bad digesttype: %w", err)
	}

	return dnssec.TrustAnchor{
		Owner:      ".",
		KeyTag:     uint16(keyTag),
		Algorithm:  uint8(algorithm),
		DigestType: uint8(digestType),
		Digest:     strings.TrimSpace(parts[3]),
	}, nil
}
