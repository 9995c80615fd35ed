package dnssec

import (
	"testing"

	"github.com/miekg/dns"
)

func TestComputeDS_MatchesMiekgDNS(t *testing.T) {
	key := &dns.DNSKEY{
		Hdr:       dns.RR_Header{Name: "example.", Rrtype: dns.TypeDNSKEY, Class: dns.ClassINET, Ttl: 3600},
		Flags:     257,
		Protocol:  3,
		Algorithm: dns.RSASHA256,
	}
	if _, err := key.Generate(1024); err != nil {
		t.Fatalf("generate: %v", err)
	}

	want := key.ToDS(dns.SHA256)
	got, err := computeDS("example.", key, DigestSHA256)
	if err != nil {
		t.Fatalf("computeDS: %v", err)
	}
	if !hexEqualFold(got, want.Digest) {
		t.Fatalf("computeDS digest %s does not match miekg/dns ToDS digest %s", got, want.Digest)
	}
}

func TestVerifyDS_AnySingleMatchSucceeds(t *testing.T) {
	key := &dns.DNSKEY{
		Hdr:       dns.RR_Header{Name: "example.", Rrtype: dns.TypeDNSKEY, Class: dns.ClassINET, Ttl: 3600},
		Flags:     257,
		Protocol:  3,
		Algorithm: dns.RSASHA256,
	}
	if _, err := key.Generate(1024); err != nil {
		t.Fatalf("generate: %v", err)
	}

	goodDigest, err := computeDS("example.", key, DigestSHA256)
	if err != nil {
		t.Fatalf("computeDS: %v", err)
	}

	dsSet := []*dns.DS{
		{KeyTag: key.KeyTag(), Algorithm: key.Algorithm, DigestType: DigestSHA1, Digest: "deadbeef"},
		{KeyTag: key.KeyTag(), Algorithm: key.Algorithm, DigestType: DigestSHA256, Digest: goodDigest},
	}

	if !verifyDS("example.", []*dns.DNSKEY{key}, dsSet) {
		t.Fatal("expected verifyDS to succeed when the second DS record matches")
	}
}

func TestVerifyDS_NoMatchFails(t *testing.T) {
	key := &dns.DNSKEY{
		Hdr:       dns.RR_Header{Name: "example.", Rrtype: dns.TypeDNSKEY, Class: dns.ClassINET, Ttl: 3600},
		Flags:     257,
		Protocol:  3,
		Algorithm: dns.RSASHA256,
	}
	if _, err := key.Generate(1024); err != nil {
		t.Fatalf("generate: %v", err)
	}

	dsSet := []*dns.DS{
		{KeyTag: key.KeyTag(), Algorithm: key.Algorithm, DigestType: DigestSHA256, Digest: "00"},
	}
	if verifyDS("example.", []*dns.DNSKEY{key}, dsSet) {
		t.Fatal("expected verifyDS to fail when no digest matches")
	}
}
