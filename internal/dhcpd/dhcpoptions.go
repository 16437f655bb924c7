package dhcpd

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/insomniacslk/dhcp/dhcpv4"
)

// DhcpOption is a single tagged DHCP option: a wire code and its encoded
// value.  Named options carry the code from namedOptions; options produced
// from a custom mapping entry carry whatever tag the configuration assigned
// them (spec.md's Unknown(tag, bytes) variant).
type DhcpOption struct {
	Code uint8
	Data []byte
}

// DhcpOptions is an ordered, upsert-by-tag collection of DhcpOption, as
// described in spec.md's DATA MODEL section.  Ordering only matters for
// which value wins on a duplicate tag (last upsert wins); it otherwise has
// no bearing on correctness since the wire encoding keys options by tag
// regardless of slice order.
type DhcpOptions struct {
	order []uint8
	byTag map[uint8]DhcpOption
}

// NewDhcpOptions returns an empty option collection.
func NewDhcpOptions() *DhcpOptions {
	return &DhcpOptions{byTag: map[uint8]DhcpOption{}}
}

// Upsert inserts opt, replacing any existing option with the same tag in
// place without disturbing its position in iteration order.
func (o *DhcpOptions) Upsert(opt DhcpOption) {
	if _, exists := o.byTag[opt.Code]; !exists {
		o.order = append(o.order, opt.Code)
	}
	o.byTag[opt.Code] = opt
}

// Get returns the raw option with the given tag, if present.
func (o *DhcpOptions) Get(code uint8) (DhcpOption, bool) {
	opt, ok := o.byTag[code]
	return opt, ok
}

// Len reports the number of distinct option tags held.
func (o *DhcpOptions) Len() int { return len(o.order) }

// AsIPv4 decodes the option at code as a single dotted-quad IPv4 address.
func (o *DhcpOptions) AsIPv4(code uint8) (net.IP, error) {
	opt, ok := o.byTag[code]
	if !ok {
		return nil, fmt.Errorf("option %d not present", code)
	}
	if len(opt.Data) != 4 {
		return nil, fmt.Errorf("option %d: expected 4 bytes, got %d", code, len(opt.Data))
	}
	return net.IP(opt.Data), nil
}

// AsIPv4List decodes the option at code as a list of dotted-quad IPv4
// addresses.
func (o *DhcpOptions) AsIPv4List(code uint8) ([]net.IP, error) {
	opt, ok := o.byTag[code]
	if !ok {
		return nil, fmt.Errorf("option %d not present", code)
	}
	if len(opt.Data)%4 != 0 {
		return nil, fmt.Errorf("option %d: length %d not a multiple of 4", code, len(opt.Data))
	}

	ips := make([]net.IP, 0, len(opt.Data)/4)
	for i := 0; i < len(opt.Data); i += 4 {
		ips = append(ips, net.IP(opt.Data[i:i+4]))
	}
	return ips, nil
}

// AsU32 decodes the option at code as a big-endian u32.
func (o *DhcpOptions) AsU32(code uint8) (uint32, error) {
	opt, ok := o.byTag[code]
	if !ok {
		return 0, fmt.Errorf("option %d not present", code)
	}
	if len(opt.Data) != 4 {
		return 0, fmt.Errorf("option %d: expected 4 bytes, got %d", code, len(opt.Data))
	}
	return binary.BigEndian.Uint32(opt.Data), nil
}

// AsASCII decodes the option at code as an ASCII string.
func (o *DhcpOptions) AsASCII(code uint8) (string, error) {
	opt, ok := o.byTag[code]
	if !ok {
		return "", fmt.Errorf("option %d not present", code)
	}
	return string(opt.Data), nil
}

// AsBytes returns the raw bytes of the option at code.
func (o *DhcpOptions) AsBytes(code uint8) ([]byte, error) {
	opt, ok := o.byTag[code]
	if !ok {
		return nil, fmt.Errorf("option %d not present", code)
	}
	return opt.Data, nil
}

// ToDHCPv4Options converts the collection into the packet library's own
// option map, applying every entry via dhcpv4.OptGeneric the way the
// teacher's v4Server.updateOptions applies both its implicit and explicit
// option tables (internal/dhcpd/v4_unix.go).
func (o *DhcpOptions) ToDHCPv4Options() dhcpv4.Options {
	out := dhcpv4.Options{}
	for _, code := range o.order {
		opt := o.byTag[code]
		out.Update(dhcpv4.OptGeneric(dhcpv4.GenericOptionCode(opt.Code), opt.Data))
	}
	return out
}
