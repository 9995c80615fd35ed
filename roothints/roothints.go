// Package roothints carries the one process-wide immutable datum this
// resolver needs besides the DNSSEC trust anchor: the 13 standard IPv4
// root server addresses (spec §6, §9).
package roothints

import "github.com/dbagal/mydig/resolve"

// addresses are the 13 IANA root server IPv4 addresses, in the order
// they're published (a.root-servers.net through m.root-servers.net).
var addresses = [13]string{
	"198.41.0.4",
	"199.9.14.201",
	"192.33.4.12",
	"199.7.91.13",
	"192.203.230.10",
	"192.5.5.241",
	"192.112.36.4",
	"198.97.190.53",
	"192.36.148.17",
	"192.58.128.30",
	"193.0.14.129",
	"199.7.83.42",
	"202.12.27.33",
}

// Default returns the root hint list as resolve.Nameserver candidates.
// Callers that need to substitute an alternate root hint set (tests, or
// the CLI's --root-hints flag) build their own []resolve.Nameserver
// instead of calling this.
func Default() []resolve.Nameserver {
	out := make([]resolve.Nameserver, len(addresses))
	for i, addr := range addresses {
		out[i] = resolve.Nameserver{Name: ".", Addr: addr, Zone: "."}
	}
	return out
}
