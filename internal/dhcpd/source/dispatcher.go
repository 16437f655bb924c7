package source

import (
	"context"
	"sync"

	"github.com/AdguardTeam/golibs/log"
	"github.com/hashicorp/go-multierror"
	"github.com/insomniacslk/dhcp/dhcpv4"
)

// Dispatcher drives an ordered list of Sources under a single process-wide
// exclusive lock, the way spec.md §4.6 describes: every source operation for
// a given request is serialized against every other request, a deliberate
// bottleneck the reference implementation accepts rather than a correctness
// requirement. Implementers that need concurrent sources may replace the
// single mutex with a per-source one; this type keeps that swap local to
// Dispatcher.
type Dispatcher struct {
	mu      sync.Mutex
	sources []Source
}

// NewDispatcher returns a Dispatcher over sources, in the order they were
// configured. Order is significant: for query phases, the first source to
// return a non-nil result wins.
func NewDispatcher(sources []Source) *Dispatcher {
	return &Dispatcher{sources: sources}
}

// query phases share one shape: call packet_received on every source first,
// then walk the list calling queryFn until one returns a non-nil result.
// Errors from a source that isn't the eventual winner are logged and do not
// stop the walk, per spec.md §4.6's "first success wins, others' errors
// don't block."
func (d *Dispatcher) query(
	ctx context.Context,
	req *dhcpv4.DHCPv4,
	queryFn func(Source) (*Result, error),
) (Source, *Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, src := range d.sources {
		if err := src.PacketReceived(ctx, req); err != nil {
			log.Error("dispatcher: %s: packet_received: %s", src.Name(), err)
		}
	}

	for _, src := range d.sources {
		result, err := queryFn(src)
		if err != nil {
			log.Error("dispatcher: %s: %s", src.Name(), err)
			continue
		}
		if result == nil {
			continue
		}
		return src, result, nil
	}

	return nil, nil, nil
}

// Offer runs the DISCOVER phase across all sources, returning the source
// that answered alongside its result so the caller can drive its
// PacketSending/PacketSent hooks.
func (d *Dispatcher) Offer(ctx context.Context, req *dhcpv4.DHCPv4) (Source, *Result, error) {
	return d.query(ctx, req, func(s Source) (*Result, error) { return s.Offer(ctx, req) })
}

// Reserve runs the REQUEST phase across all sources.
func (d *Dispatcher) Reserve(ctx context.Context, req *dhcpv4.DHCPv4) (Source, *Result, error) {
	return d.query(ctx, req, func(s Source) (*Result, error) { return s.Reserve(ctx, req) })
}

// Inform runs the INFORM phase across all sources.
func (d *Dispatcher) Inform(ctx context.Context, req *dhcpv4.DHCPv4) (Source, *Result, error) {
	return d.query(ctx, req, func(s Source) (*Result, error) { return s.Inform(ctx, req) })
}

// notify phases (RELEASE, DECLINE) have no winner: every source gets
// packet_received and the call, unconditionally, with no early exit. Errors
// from individual sources are aggregated rather than discarded so a caller
// can still tell something went wrong.
func (d *Dispatcher) notify(
	ctx context.Context,
	req *dhcpv4.DHCPv4,
	callFn func(Source) error,
) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var result *multierror.Error
	for _, src := range d.sources {
		if err := src.PacketReceived(ctx, req); err != nil {
			result = multierror.Append(result, err)
		}
		if err := callFn(src); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

// Release runs the RELEASE phase across all sources, unconditionally.
func (d *Dispatcher) Release(ctx context.Context, req *dhcpv4.DHCPv4) error {
	return d.notify(ctx, req, func(s Source) error { return s.Release(ctx, req) })
}

// Decline runs the DECLINE phase across all sources, unconditionally.
func (d *Dispatcher) Decline(ctx context.Context, req *dhcpv4.DHCPv4) error {
	return d.notify(ctx, req, func(s Source) error { return s.Decline(ctx, req) })
}

// SourceSending calls PacketSending on src, the source that produced the
// winning result, just before its reply is sent; SourceSent covers the
// PacketSent call after the send. Callers that couldn't match the winner
// back to a Source (e.g. unit tests) may skip these.
func SourceSending(ctx context.Context, src Source, resp *dhcpv4.DHCPv4) error {
	return src.PacketSending(ctx, resp)
}

// SourceSent notifies src that its winning reply has been sent.
func SourceSent(ctx context.Context, src Source) error {
	return src.PacketSent(ctx)
}
