package dnssec

// TrustAnchor is a DS-style trust anchor: a pre-verified digest of a
// zone's KSK, configured at build time rather than learned from the
// network (spec §6, §9 — "expose them as construction-time
// configuration so tests can substitute alternate trust anchors").
type TrustAnchor struct {
	Owner      string
	KeyTag     uint16
	Algorithm  uint8
	DigestType uint8
	Digest     string
}

// RootTrustAnchor is the embedded IANA root KSK-2017 trust anchor (key
// tag 20326, RSASHA256/SHA-256 digest), the only root key currently
// wired in. It is compared against the root zone's published KSK set at
// the end of the DNSSEC chain climb (spec §9's REDESIGN FLAG: the root
// KSK must be checked against a built-in anchor, not merely assumed).
var RootTrustAnchor = TrustAnchor{
	Owner:      ".",
	KeyTag:     20326,
	Algorithm:  8,
	DigestType: 2,
	Digest:     "E06D44B80B8F1D39A95C0B0D7C65D08458E880409BBC683457104237C7F8EC8D",
}
