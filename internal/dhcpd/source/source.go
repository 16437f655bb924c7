// Package source defines the pluggable DHCP host source contract (spec.md
// §9, "Polymorphic sources") and the dispatcher (C6) that drives a list of
// sources without depending on any one source kind's internals.
package source

import (
	"context"
	"net"

	"github.com/insomniacslk/dhcp/dhcpv4"

	"github.com/soofff/dhcpserver/internal/dhcpd"
)

// Result is the outcome of a query phase (OFFER, REQUEST/RESERVE, INFORM):
// an optional client IP plus the option set to place in the reply.  A nil
// *Result (as opposed to a non-nil Result with an empty option set) means
// "this source has no opinion about this packet" — the dispatcher moves on
// to the next source.
type Result struct {
	ClientIP net.IP
	Options  *dhcpd.DhcpOptions
}

// Source is the capability set every pluggable backend implements: a name,
// one method per DHCP phase, and three lifecycle hooks. PacketReceived is
// called on every source for every packet; PacketSending and PacketSent are
// called only on the source whose result won. Building a source from its
// configuration is a separate Factory.  Lifecycle hooks have no-op defaults
// via BaseSource so a source implementation only needs to override what it
// cares about.
type Source interface {
	// Name returns the source's configured "kind", e.g. "rest".
	Name() string

	// Offer answers a DISCOVER. A nil result means no match.
	Offer(ctx context.Context, req *dhcpv4.DHCPv4) (*Result, error)

	// Reserve answers a REQUEST. A nil result means no match.
	Reserve(ctx context.Context, req *dhcpv4.DHCPv4) (*Result, error)

	// Inform answers an INFORM. A nil result means no match.
	Inform(ctx context.Context, req *dhcpv4.DHCPv4) (*Result, error)

	// Release handles a RELEASE. There is no reply to produce.
	Release(ctx context.Context, req *dhcpv4.DHCPv4) error

	// Decline handles a DECLINE. There is no reply to produce.
	Decline(ctx context.Context, req *dhcpv4.DHCPv4) error

	// PacketReceived is called for every source, for every incoming packet,
	// before the phase method runs.
	PacketReceived(ctx context.Context, req *dhcpv4.DHCPv4) error

	// PacketSending is called only on the source whose result won, just
	// before the reply is sent.
	PacketSending(ctx context.Context, resp *dhcpv4.DHCPv4) error

	// PacketSent is called only on the source whose result won, right after
	// the reply has been sent.
	PacketSent(ctx context.Context) error
}

// BaseSource gives lifecycle hooks no-op bodies so concrete source types can
// embed it and only implement the hooks they need, the way the original
// Rust trait supplies default method bodies for these three hooks
// (original_source/src/sources/mod.rs).
type BaseSource struct{}

func (BaseSource) PacketReceived(context.Context, *dhcpv4.DHCPv4) error { return nil }
func (BaseSource) PacketSending(context.Context, *dhcpv4.DHCPv4) error  { return nil }
func (BaseSource) PacketSent(context.Context) error                    { return nil }

// Factory builds a Source from its raw YAML configuration node. Source kinds
// are registered in the dhcpd.Registry that cmd/dhcpd/main.go's registry()
// builds.
type Factory func(config any) (Source, error)
