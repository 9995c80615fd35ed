package dnssec

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
)

func signedRRSIG(t *testing.T, key *dns.DNSKEY, priv interface{}, rrset []dns.RR, ttl uint32) *dns.RRSIG {
	t.Helper()
	sig := &dns.RRSIG{
		Hdr:        dns.RR_Header{Name: rrset[0].Header().Name, Rrtype: dns.TypeRRSIG, Class: dns.ClassINET, Ttl: ttl},
		TypeCovered: rrset[0].Header().Rrtype,
		Algorithm:  key.Algorithm,
		Labels:     uint8(dns.CountLabel(rrset[0].Header().Name)),
		OrigTtl:    ttl,
		Expiration: uint32(time.Now().Add(time.Hour).Unix()),
		Inception:  uint32(time.Now().Add(-time.Hour).Unix()),
		KeyTag:     key.KeyTag(),
		SignerName: key.Hdr.Name,
	}
	switch k := priv.(type) {
	case *rsa.PrivateKey:
		if err := sig.Sign(k, rrset); err != nil {
			t.Fatalf("sign: %v", err)
		}
	case *ecdsa.PrivateKey:
		if err := sig.Sign(k, rrset); err != nil {
			t.Fatalf("sign: %v", err)
		}
	default:
		t.Fatalf("unsupported key type %T", priv)
	}
	return sig
}

func newRSAKey(t *testing.T, zone string) (*dns.DNSKEY, *rsa.PrivateKey) {
	t.Helper()
	key := &dns.DNSKEY{
		Hdr:       dns.RR_Header{Name: zone, Rrtype: dns.TypeDNSKEY, Class: dns.ClassINET, Ttl: 3600},
		Flags:     256,
		Protocol:  3,
		Algorithm: dns.RSASHA256,
	}
	priv, err := key.Generate(1024)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return key, priv.(*rsa.PrivateKey)
}

func newECDSAKey(t *testing.T, zone string) (*dns.DNSKEY, *ecdsa.PrivateKey) {
	t.Helper()
	key := &dns.DNSKEY{
		Hdr:       dns.RR_Header{Name: zone, Rrtype: dns.TypeDNSKEY, Class: dns.ClassINET, Ttl: 3600},
		Flags:     256,
		Protocol:  3,
		Algorithm: dns.ECDSAP256SHA256,
	}
	priv, err := key.Generate(256)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return key, priv.(*ecdsa.PrivateKey)
}

func TestVerifyRRSIG_RSA(t *testing.T) {
	key, priv := newRSAKey(t, "example.")
	a := &dns.A{Hdr: dns.RR_Header{Name: "www.example.", Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 300}, A: net.ParseIP("93.184.216.34")}
	rrset := []dns.RR{a}
	sig := signedRRSIG(t, key, priv, rrset, 300)

	if err := verifyRRSIG(sig, key, rrset, time.Now()); err != nil {
		t.Fatalf("expected valid RSA signature to verify, got %v", err)
	}
}

func TestVerifyRRSIG_ECDSA(t *testing.T) {
	key, priv := newECDSAKey(t, "example.")
	a := &dns.A{Hdr: dns.RR_Header{Name: "www.example.", Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 300}, A: net.ParseIP("93.184.216.34")}
	rrset := []dns.RR{a}
	sig := signedRRSIG(t, key, priv, rrset, 300)

	if err := verifyRRSIG(sig, key, rrset, time.Now()); err != nil {
		t.Fatalf("expected valid ECDSA signature to verify, got %v", err)
	}
}

func TestVerifyRRSIG_WrongKeyFails(t *testing.T) {
	key, priv := newRSAKey(t, "example.")
	other, _ := newRSAKey(t, "example.")
	a := &dns.A{Hdr: dns.RR_Header{Name: "www.example.", Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 300}, A: net.ParseIP("93.184.216.34")}
	rrset := []dns.RR{a}
	sig := signedRRSIG(t, key, priv, rrset, 300)

	if err := verifyRRSIG(sig, other, rrset, time.Now()); err == nil {
		t.Fatal("expected verification against the wrong key to fail")
	}
}

func TestVerifyRRSIG_ExpiredFails(t *testing.T) {
	key, priv := newRSAKey(t, "example.")
	a := &dns.A{Hdr: dns.RR_Header{Name: "www.example.", Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 300}, A: net.ParseIP("93.184.216.34")}
	rrset := []dns.RR{a}
	sig := signedRRSIG(t, key, priv, rrset, 300)
	sig.Expiration = uint32(time.Now().Add(-time.Minute).Unix())
	sig.Inception = uint32(time.Now().Add(-time.Hour).Unix())

	if err := verifyRRSIG(sig, key, rrset, time.Now()); err != ErrSignatureExpired {
		t.Fatalf("expected ErrSignatureExpired, got %v", err)
	}
}

func TestVerifyRRSIG_TamperedRDataFails(t *testing.T) {
	key, priv := newRSAKey(t, "example.")
	a := &dns.A{Hdr: dns.RR_Header{Name: "www.example.", Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 300}, A: net.ParseIP("93.184.216.34")}
	rrset := []dns.RR{a}
	sig := signedRRSIG(t, key, priv, rrset, 300)

	tampered := []dns.RR{&dns.A{Hdr: a.Hdr, A: net.ParseIP("1.2.3.4")}}
	if err := verifyRRSIG(sig, key, tampered, time.Now()); err == nil {
		t.Fatal("expected verification to fail after rdata tampering")
	}
}
