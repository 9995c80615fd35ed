package dnssec

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/miekg/dns"
)

// Signature algorithm identifiers this resolver can verify (spec §4.5).
const (
	AlgRSASHA1        = 5
	AlgRSASHA256      = 8
	AlgRSASHA512      = 10
	AlgECDSAP256SHA256 = 13
	AlgECDSAP384SHA384 = 14
)

var (
	ErrUnsupportedAlgorithm = errors.New("dnssec: unsupported signature algorithm")
	ErrSignatureMismatch    = errors.New("dnssec: signature does not verify")
	ErrSignatureExpired     = errors.New("dnssec: signature outside its validity period")
	ErrMalformedPublicKey   = errors.New("dnssec: malformed public key")
	ErrMalformedSignature   = errors.New("dnssec: malformed signature")
)

// verifyRRSIG checks that sig, over rrset, verifies under key, and that
// the current time falls within the signature's validity period. The
// signature input is the RRSIG rdata (minus the signature field)
// concatenated with the RRset's RFC 4034 §6.3 canonical form (spec
// §4.5).
func verifyRRSIG(sig *dns.RRSIG, key *dns.DNSKEY, rrset []dns.RR, now time.Time) error {
	if !withinValidityPeriod(sig, now) {
		return ErrSignatureExpired
	}

	canon, err := CanonicalRRSet(rrset, sig.OrigTtl)
	if err != nil {
		return err
	}
	input := append(rrsigSigningInput(sig), canon...)

	sigBytes, err := base64.StdEncoding.DecodeString(sig.Signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}

	switch sig.Algorithm {
	case AlgRSASHA1:
		return verifyRSA(key, input, sigBytes, crypto.SHA1, sha1Sum)
	case AlgRSASHA256:
		return verifyRSA(key, input, sigBytes, crypto.SHA256, sha256Sum)
	case AlgRSASHA512:
		return verifyRSA(key, input, sigBytes, crypto.SHA512, sha512Sum)
	case AlgECDSAP256SHA256:
		return verifyECDSA(key, input, sigBytes, elliptic.P256(), 32, sha256Sum)
	case AlgECDSAP384SHA384:
		return verifyECDSA(key, input, sigBytes, elliptic.P384(), 48, sha384Sum)
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedAlgorithm, sig.Algorithm)
	}
}

func withinValidityPeriod(sig *dns.RRSIG, now time.Time) bool {
	const year68 = int64(1) << 31
	t := now.Unix()

	expand := func(field uint32) int64 {
		v := int64(field)
		mod := (t - v) / year68
		return v + mod*year68
	}
	return t >= expand(sig.Inception) && t <= expand(sig.Expiration)
}

func sha1Sum(b []byte) []byte   { h := sha1.Sum(b); return h[:] }
func sha256Sum(b []byte) []byte { h := sha256.Sum256(b); return h[:] }
func sha384Sum(b []byte) []byte { h := sha512.Sum384(b); return h[:] }
func sha512Sum(b []byte) []byte { h := sha512.Sum512(b); return h[:] }

func verifyRSA(key *dns.DNSKEY, input, sigBytes []byte, hash crypto.Hash, sum func([]byte) []byte) error {
	pub, err := rsaPublicKey(key)
	if err != nil {
		return err
	}
	if err := rsa.VerifyPKCS1v15(pub, hash, sum(input), sigBytes); err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
	}
	return nil
}

// rsaPublicKey decodes a DNSKEY's RSA public key per RFC 3110: a
// one-octet exponent length (or, if zero, a two-octet length followed by
// the real one), the exponent, then the modulus.
func rsaPublicKey(key *dns.DNSKEY) (*rsa.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(key.PublicKey)
	if err != nil || len(raw) < 3 {
		return nil, ErrMalformedPublicKey
	}

	var expLen int
	var off int
	if raw[0] == 0 {
		if len(raw) < 3 {
			return nil, ErrMalformedPublicKey
		}
		expLen = int(binary.BigEndian.Uint16(raw[1:3]))
		off = 3
	} else {
		expLen = int(raw[0])
		off = 1
	}
	if off+expLen > len(raw) {
		return nil, ErrMalformedPublicKey
	}

	e := new(big.Int).SetBytes(raw[off : off+expLen])
	n := new(big.Int).SetBytes(raw[off+expLen:])
	if len(n.Bytes()) == 0 || e.Sign() == 0 {
		return nil, ErrMalformedPublicKey
	}

	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}

// verifyECDSA decodes a DNSKEY's ECDSA public key (the raw X||Y point,
// per RFC 6605 — no leading point-format octet) and a signature in r||s
// form, then verifies via crypto/ecdsa.
func verifyECDSA(key *dns.DNSKEY, input, sigBytes []byte, curve elliptic.Curve, coordSize int, sum func([]byte) []byte) error {
	raw, err := base64.StdEncoding.DecodeString(key.PublicKey)
	if err != nil || len(raw) != 2*coordSize {
		return ErrMalformedPublicKey
	}
	x := new(big.Int).SetBytes(raw[:coordSize])
	y := new(big.Int).SetBytes(raw[coordSize:])
	pub := &ecdsa.PublicKey{Curve: curve, X: x, Y: y}

	if len(sigBytes) != 2*coordSize {
		return ErrMalformedSignature
	}
	r := new(big.Int).SetBytes(sigBytes[:coordSize])
	s := new(big.Int).SetBytes(sigBytes[coordSize:])

	if !ecdsa.Verify(pub, sum(input), r, s) {
		return ErrSignatureMismatch
	}
	return nil
}
