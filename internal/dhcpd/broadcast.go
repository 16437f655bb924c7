package dhcpd

import (
	"net"

	"github.com/AdguardTeam/golibs/log"
	"github.com/insomniacslk/dhcp/dhcpv4"
)

// LocalNetwork is one local IPv4 network the server advertises itself on:
// its address and netmask as bound to a listening interface. ServerIP is the
// address used for DHCPv4's SERVER_IDENTIFIER option and as the wire's
// siaddr when this network's image is sent.
type LocalNetwork struct {
	ServerIP net.IP
	Mask     net.IPMask
}

// DirectedBroadcast returns n's directed broadcast address: the network
// address with every host bit set (spec.md's GLOSSARY "Directed
// broadcast").
func (n LocalNetwork) DirectedBroadcast() net.IP {
	ip4 := n.ServerIP.To4()
	mask := n.Mask
	if len(mask) != net.IPv4len {
		mask = mask[len(mask)-net.IPv4len:]
	}

	out := make(net.IP, net.IPv4len)
	for i := range out {
		out[i] = ip4[i] | ^mask[i]
	}
	return out
}

// Broadcaster implements the Egress Broadcaster (C8): given one logical
// response and the local networks the server listens on, it asks the
// packet library for one serialized image per server IP (so each interface
// advertises itself as its own SERVER_IDENTIFIER) and sends each image to
// that network's directed broadcast on UDP/67, the way the teacher's
// v4Server.broadcast rewrites the destination to an interface-specific
// broadcast address before its second send (internal/dhcpd/v4_unix.go).
type Broadcaster struct {
	conn net.PacketConn
}

// NewBroadcaster wraps conn, the shared UDP/67 socket the message engine
// listens on, for sending broadcast replies.
func NewBroadcaster(conn net.PacketConn) *Broadcaster {
	return &Broadcaster{conn: conn}
}

// Send rewrites resp's ServerIPAddr and SERVER_IDENTIFIER option to each
// network's ServerIP in turn, serializes it, and sends the resulting image
// to that network's directed broadcast address on UDP/67. A network whose
// image can't be built (the packet library returns no bytes) is silently
// skipped, per spec.md §4.8.
func (b *Broadcaster) Send(resp *dhcpv4.DHCPv4, networks []LocalNetwork) {
	for _, n := range networks {
		resp.ServerIPAddr = n.ServerIP
		resp.UpdateOption(dhcpv4.OptServerIdentifier(n.ServerIP))

		data := resp.ToBytes()
		if len(data) == 0 {
			log.Debug("dhcpd: no image for server ip %s, skipping", n.ServerIP)
			continue
		}

		dst := &net.UDPAddr{IP: n.DirectedBroadcast(), Port: dhcpv4.ServerPort}

		log.Debug("dhcpd: broadcasting to %s: %s", dst, resp.Summary())
		if _, err := b.conn.WriteTo(data, dst); err != nil {
			log.Error("dhcpd: broadcast to %s failed: %s", dst, err)
		}
	}
}
