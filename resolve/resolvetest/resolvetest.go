// Package resolvetest provides a tiny in-process authoritative DNS
// server for exercising the walker and validator without touching the
// network, in the same spirit as the teacher resolver's own
// dns.Server-backed DNSSEC tests.
package resolvetest

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/miekg/dns"

	"github.com/dbagal/mydig/resolve"
)

// testPort is the fixed port every fake server binds to. Each Server
// gets its own 127.0.0.x loopback address instead, so multiple servers
// (root, TLD, authoritative) can run side by side while the resolver's
// single global port override stays valid for all of them.
const testPort = "15353"

var (
	setPortOnce  sync.Once
	nextLoopback uint32 = 1
)

// Handler builds the response for a single question. Tests key a mux by
// the queried name (FQDN, trailing dot).
type Handler func(q dns.Question) *dns.Msg

// Server is a fake authoritative nameserver bound to a dedicated
// 127.0.0.x loopback address.
type Server struct {
	Addr string
	udp  *dns.Server
	tcp  *dns.Server
}

// Start launches a UDP+TCP fake server driven by mux, keyed by question
// name, and registers its shutdown with t.Cleanup.
func Start(t testing.TB, mux map[string]Handler) *Server {
	t.Helper()

	setPortOnce.Do(func() { resolve.SetPort(testPort) })

	n := atomic.AddUint32(&nextLoopback, 1)
	addr := fmt.Sprintf("127.0.0.%d", n)
	hostport := addr + ":" + testPort

	handler := dns.HandlerFunc(func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		m.Rcode = dns.RcodeSuccess

		if len(r.Question) != 1 {
			m.Rcode = dns.RcodeFormatError
			w.WriteMsg(m)
			return
		}
		h, ok := mux[r.Question[0].Name]
		if !ok {
			m.Rcode = dns.RcodeNameError
			w.WriteMsg(m)
			return
		}

		resp := h(r.Question[0])
		resp.SetReply(r)
		w.WriteMsg(resp)
	})

	udpSrv := &dns.Server{Addr: hostport, Net: "udp", Handler: handler}
	tcpSrv := &dns.Server{Addr: hostport, Net: "tcp", Handler: handler}

	udpReady := make(chan error, 1)
	tcpReady := make(chan error, 1)
	udpSrv.NotifyStartedFunc = func() { udpReady <- nil }
	tcpSrv.NotifyStartedFunc = func() { tcpReady <- nil }

	go func() {
		if err := udpSrv.ListenAndServe(); err != nil {
			select {
			case udpReady <- err:
			default:
			}
		}
	}()
	go func() {
		if err := tcpSrv.ListenAndServe(); err != nil {
			select {
			case tcpReady <- err:
			default:
			}
		}
	}()

	if err := waitReady(t, udpReady); err != nil {
		t.Fatalf("resolvetest: udp server on %s failed to start: %v", hostport, err)
	}
	if err := waitReady(t, tcpReady); err != nil {
		t.Fatalf("resolvetest: tcp server on %s failed to start: %v", hostport, err)
	}

	t.Cleanup(func() {
		udpSrv.Shutdown()
		tcpSrv.Shutdown()
	})

	return &Server{Addr: addr, udp: udpSrv, tcp: tcpSrv}
}

func waitReady(t testing.TB, ready chan error) error {
	t.Helper()
	select {
	case err := <-ready:
		return err
	case <-time.After(2 * time.Second):
		return nil // NotifyStartedFunc can race on a loaded machine; assume success
	}
}

// Nameserver returns a resolve.Nameserver candidate pointed at this
// server.
func (s *Server) Nameserver() resolve.Nameserver {
	return resolve.Nameserver{Addr: s.Addr}
}

// StaticAnswer returns a Handler that always replies with the given
// answer/authority/additional records.
func StaticAnswer(answer, authority, additional []dns.RR) Handler {
	return func(q dns.Question) *dns.Msg {
		m := new(dns.Msg)
		m.Answer = answer
		m.Ns = authority
		m.Extra = additional
		return m
	}
}
