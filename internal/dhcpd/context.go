package dhcpd

import (
	"net"

	"github.com/insomniacslk/dhcp/dhcpv4"
)

// Context is the string-keyed environment passed to the template engine for
// both query URL/body expansion and mapping-value expansion (spec.md's
// GLOSSARY "Context" entry).  It is a plain map so it round-trips through
// text/template and through the JSON-like value tree (§4.1) without any
// conversion step.
type Context map[string]any

// newPacketContext seeds a Context with the four packet-derived keys spec.md
// §3 requires: the client's hardware address (colon-hex), its current IP
// address, the server's IP address as seen on the wire, and its requested
// hostname.
func newPacketContext(req *dhcpv4.DHCPv4) Context {
	hostname := ""
	if opt := req.Options.Get(dhcpv4.OptionHostName); opt != nil {
		hostname = string(opt)
	}

	return Context{
		"client_hardware_address": req.ClientHWAddr.String(),
		"client_ip_address":       ipString(req.ClientIPAddr),
		"server_ip_address":       ipString(req.ServerIPAddr),
		"client_hostname":         hostname,
	}
}

// withResults returns a shallow copy of c with its "results" key rebound to
// results, the way DhcpRestSource::query re-inserts "results" into the tera
// Context after every query in the original implementation
// (original_source/src/sources/rest.rs).  Copying instead of mutating in
// place sidesteps the data race the teacher's Rust original accepts by
// sharing one mutable Context across the whole query loop.
func (c Context) withResults(results map[string]any) Context {
	next := make(Context, len(c)+1)
	for k, v := range c {
		next[k] = v
	}
	next["results"] = results
	return next
}

// ipString renders ip as a dotted-quad, or "0.0.0.0" for a nil/unset
// address.
func ipString(ip net.IP) string {
	if ip == nil || ip.IsUnspecified() {
		return "0.0.0.0"
	}
	return ip.String()
}
