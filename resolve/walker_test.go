package resolve_test

import (
	"context"
	"net"
	"testing"

	"github.com/miekg/dns"

	"github.com/dbagal/mydig/resolve"
	"github.com/dbagal/mydig/resolve/resolvetest"
)

func TestWalker_ResolveFollowsReferralsWithGlue(t *testing.T) {
	auth := resolvetest.Start(t, map[string]resolvetest.Handler{
		"example.com.": resolvetest.StaticAnswer(
			[]dns.RR{&dns.A{Hdr: dns.RR_Header{Name: "example.com.", Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 300}, A: net.ParseIP("93.184.216.34")}},
			nil, nil,
		),
	})

	tld := resolvetest.Start(t, map[string]resolvetest.Handler{
		"example.com.": resolvetest.StaticAnswer(nil,
			[]dns.RR{&dns.NS{Hdr: dns.RR_Header{Name: "example.com.", Rrtype: dns.TypeNS}, Ns: "ns.example.com."}},
			[]dns.RR{&dns.A{Hdr: dns.RR_Header{Name: "ns.example.com.", Rrtype: dns.TypeA}, A: net.ParseIP(auth.Addr)}},
		),
	})

	root := resolvetest.Start(t, map[string]resolvetest.Handler{
		"example.com.": resolvetest.StaticAnswer(nil,
			[]dns.RR{&dns.NS{Hdr: dns.RR_Header{Name: "com.", Rrtype: dns.TypeNS}, Ns: "a.gtld-servers.net."}},
			[]dns.RR{&dns.A{Hdr: dns.RR_Header{Name: "a.gtld-servers.net.", Rrtype: dns.TypeA}, A: net.ParseIP(tld.Addr)}},
		),
	})

	walker := resolve.NewWalker([]resolve.Nameserver{root.Nameserver()})
	answer, history, err := walker.Resolve(context.Background(), resolve.Question{Name: "example.com", Type: resolve.TypeA}, false)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected a 3-hop history (root, tld, auth), got %d: %v", len(history), history)
	}
	if len(answer.Answer) != 1 {
		t.Fatalf("expected 1 answer record, got %d", len(answer.Answer))
	}
	a, ok := answer.Answer[0].(*dns.A)
	if !ok || a.A.String() != "93.184.216.34" {
		t.Fatalf("unexpected answer record: %v", answer.Answer[0])
	}
}

func TestWalker_ResolveChasesCNAME(t *testing.T) {
	root := resolvetest.Start(t, map[string]resolvetest.Handler{
		"alias.example.com.": resolvetest.StaticAnswer(
			[]dns.RR{&dns.CNAME{Hdr: dns.RR_Header{Name: "alias.example.com.", Rrtype: dns.TypeCNAME, Class: dns.ClassINET, Ttl: 300}, Target: "example.com."}},
			nil, nil,
		),
		"example.com.": resolvetest.StaticAnswer(
			[]dns.RR{&dns.A{Hdr: dns.RR_Header{Name: "example.com.", Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 300}, A: net.ParseIP("93.184.216.34")}},
			nil, nil,
		),
	})

	walker := resolve.NewWalker([]resolve.Nameserver{root.Nameserver()})
	answer, _, err := walker.Resolve(context.Background(), resolve.Question{Name: "alias.example.com", Type: resolve.TypeA}, false)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(answer.Answer) != 1 {
		t.Fatalf("expected the chased A record, got %d records", len(answer.Answer))
	}
	if a, ok := answer.Answer[0].(*dns.A); !ok || a.A.String() != "93.184.216.34" {
		t.Fatalf("expected the CNAME target's A record, got %v", answer.Answer[0])
	}
}

func TestWalker_ResolveNoReferralOrAnswerFails(t *testing.T) {
	root := resolvetest.Start(t, map[string]resolvetest.Handler{
		"dead.example.": resolvetest.StaticAnswer(nil, nil, nil),
	})

	walker := resolve.NewWalker([]resolve.Nameserver{root.Nameserver()})
	_, _, err := walker.Resolve(context.Background(), resolve.Question{Name: "dead.example", Type: resolve.TypeA}, false)
	if err == nil {
		t.Fatal("expected an error for a response with neither answer nor referral")
	}
}

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"example.com":          "example.com.",
		"example.com.":         "example.com.",
		"http://example.com":   "example.com.",
		"https://example.com":  "example.com.",
		"www.example.com":      "example.com.",
	}
	for in, want := range cases {
		if got := resolve.NormalizeName(in); got != want {
			t.Errorf("NormalizeName(%q) = %q, want %q", in, got, want)
		}
	}
}
