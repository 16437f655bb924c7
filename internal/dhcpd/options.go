package dhcpd

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/AdguardTeam/golibs/errors"
)

// valueKind describes the wire shape a named option's value must take, per
// spec.md §1 and the custom encoding table in §4.5: an IPv4 address, a list
// of IPv4 addresses, an unsigned integer of a fixed width, an ASCII string,
// or an opaque byte vector.
type valueKind int

const (
	kindIPv4 valueKind = iota
	kindIPv4List
	kindU8
	kindU16
	kindU32
	kindASCII
	kindBytes
)

// namedOption describes one of the ~70 recognized DHCP options: its wire
// code and the shape its value must take when decoded from a templated YAML
// value.
type namedOption struct {
	code uint8
	kind valueKind
}

// namedOptions is the closed set of recognized option names from spec.md §6.
// It plays the role the teacher's dhcpOptionParser.handlers map plays for its
// CLI option syntax (internal/dhcpd/options.go in AdGuardHome): a single
// lookup table instead of a long type-switch.
var namedOptions = map[string]namedOption{
	"subnet_mask":                       {1, kindIPv4},
	"time_offset":                       {2, kindU32},
	"router":                            {3, kindIPv4List},
	"time_server":                       {4, kindIPv4List},
	"name_server":                       {5, kindIPv4List},
	"domain_name_server":                {6, kindIPv4List},
	"log_server":                        {7, kindIPv4List},
	"cookie_server":                     {8, kindIPv4List},
	"lpr_server":                        {9, kindIPv4List},
	"impress_server":                    {10, kindIPv4List},
	"resource_location_server":          {11, kindIPv4List},
	"host_name":                         {12, kindASCII},
	"boot_file_size":                    {13, kindU16},
	"merit_dump_file":                   {14, kindASCII},
	"domain_name":                       {15, kindASCII},
	"swap_server":                       {16, kindIPv4},
	"root_path":                         {17, kindASCII},
	"extension_path":                    {18, kindASCII},
	"ip_forwarding":                     {19, kindU8},
	"non_local_source_routing":          {20, kindU8},
	"policy_filter":                     {21, kindBytes},
	"maximum_datagram_reassembly_size":  {22, kindU16},
	"default_ip_ttl":                    {23, kindU8},
	"path_mtu_aging_timeout":            {24, kindU32},
	"path_mtu_plateau_table":            {25, kindBytes},
	"interface_mtu":                     {26, kindU16},
	"all_subnets_local":                 {27, kindU8},
	"broadcast_address":                 {28, kindIPv4},
	"mask_supplier":                     {30, kindU8},
	"perform_router_discovery":          {31, kindU8},
	"router_solicitation_address":       {32, kindIPv4},
	"static_route":                      {33, kindBytes},
	"trailer_encapsulation":             {34, kindU8},
	"arp_cache_timeout":                 {35, kindU32},
	"ethernet_encapsulation":            {36, kindU8},
	"tcp_default_ttl":                   {37, kindU8},
	"tcp_keep_alive_interval":           {38, kindU32},
	"tcp_keep_alive_garbage":            {39, kindU8},
	"network_information_service_domain":              {40, kindASCII},
	"network_information_servers":                      {41, kindIPv4List},
	"network_time_protocol_servers":                    {42, kindIPv4List},
	"vendor_specific":                                  {43, kindBytes},
	"net_bios_over_tcp_ip_name_server":                 {44, kindIPv4List},
	"net_bios_over_tcp_ip_datagram_distribution_server": {45, kindIPv4List},
	"net_bios_over_tcp_ip_node_type":                    {46, kindU8},
	"net_bios_over_tcp_ip_scope":                        {47, kindASCII},
	"x_window_system_font_server":                       {48, kindIPv4List},
	"x_window_system_display_manager":                   {49, kindIPv4List},
	"requested_ip_address":                              {50, kindIPv4},
	"ip_address_lease_time":                              {51, kindU32},
	"option_overload":                                    {52, kindU8},
	"message_type":                                       {53, kindU8},
	"server_identifier":                                  {54, kindIPv4},
	"parameter_request_list":                             {55, kindBytes},
	"message":                                             {56, kindASCII},
	"maximum_dhcp_message_size":                           {57, kindU16},
	"renewal_time_value":                                  {58, kindU32},
	"rebinding_time_value":                                {59, kindU32},
	"vendor_class_identifier":                             {60, kindBytes},
	"client_identifier":                                   {61, kindBytes},
	"network_information_service_plus_domain":             {64, kindASCII},
	"network_information_service_plus_server":             {65, kindIPv4List},
	"tftp_server":                                         {66, kindASCII},
	"boot_file_name":                                       {67, kindASCII},
	"mobile_ip_home_agent":                                 {68, kindIPv4List},
	"smtp_server":                                          {69, kindIPv4List},
	"pop3_server":                                          {70, kindIPv4List},
	"nntp_server":                                          {71, kindIPv4List},
	"www_server":                                            {72, kindIPv4List},
	"finger_server":                                         {73, kindIPv4List},
	"irc_server":                                            {74, kindIPv4List},
	"street_talk_server":                                    {75, kindIPv4List},
	"street_talk_directory_assistance_server":               {76, kindIPv4List},
}

// LookupNamedOption reports whether name is one of the closed set of
// recognized DHCP option names, and if so its wire code and value kind.
// Exported so the REST source's option mapper (source/rest/mapping.go) can
// branch on named vs. custom mapping entries without duplicating the table.
func LookupNamedOption(name string) (code uint8, kind int, ok bool) {
	opt, ok := namedOptions[name]
	return opt.code, int(opt.kind), ok
}

// EncodeNamedOption decodes value per name's fixed wire kind and returns the
// resulting option. ok is false if name isn't recognized at all.
func EncodeNamedOption(name string, value any) (opt DhcpOption, ok bool, err error) {
	named, found := namedOptions[name]
	if !found {
		return DhcpOption{}, false, nil
	}

	data, err := encodeValue(named.kind, value)
	if err != nil {
		return DhcpOption{}, true, err
	}

	return DhcpOption{Code: named.code, Data: data}, true, nil
}

// encodeValue turns a decoded YAML/JSON scalar or list into the wire bytes
// for the given kind.  It mirrors the per-type decode handlers in the
// teacher's dhcpOptionParser (options.go), but keyed by value shape instead
// of CLI syntax.
func encodeValue(kind valueKind, v any) (data []byte, err error) {
	switch kind {
	case kindIPv4:
		ip, ok := parseIPv4(v)
		if !ok {
			return nil, fmt.Errorf("expected an IPv4 address, got %T(%v)", v, v)
		}
		return ip, nil

	case kindIPv4List:
		items, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("expected a list of IPv4 addresses, got %T", v)
		}
		out := make([]byte, 0, len(items)*4)
		for i, item := range items {
			ip, ok := parseIPv4(item)
			if !ok {
				return nil, fmt.Errorf("item %d: expected an IPv4 address, got %T(%v)", i, item, item)
			}
			out = append(out, ip...)
		}
		return out, nil

	case kindU8:
		n, ok := toInt64(v)
		if !ok {
			return nil, fmt.Errorf("expected an integer, got %T(%v)", v, v)
		}
		return []byte{byte(n)}, nil

	case kindU16:
		n, ok := toInt64(v)
		if !ok {
			return nil, fmt.Errorf("expected an integer, got %T(%v)", v, v)
		}
		buf := make([]byte, 2)
		binary.BigEndian.PutUint16(buf, uint16(n))
		return buf, nil

	case kindU32:
		n, ok := toInt64(v)
		if !ok {
			return nil, fmt.Errorf("expected an integer, got %T(%v)", v, v)
		}
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, uint32(n))
		return buf, nil

	case kindASCII:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected an ASCII string, got %T(%v)", v, v)
		}
		return []byte(s), nil

	case kindBytes:
		return encodeBytesShape(v)

	default:
		return nil, errors.Error("unhandled option value kind")
	}
}

// encodeBytesShape accepts either a raw byte list, a hex-like list of
// integers, or a string, for options whose wire shape is an opaque byte
// vector (vendor_specific, parameter_request_list, static_route, ...).
func encodeBytesShape(v any) (data []byte, err error) {
	switch t := v.(type) {
	case string:
		return []byte(t), nil
	case []any:
		out := make([]byte, 0, len(t))
		for i, item := range t {
			n, ok := toInt64(item)
			if !ok {
				// Allow a list of dotted-quad IPv4 addresses, as used by
				// static_route and policy_filter (pairs of addresses).
				if ip, ok := parseIPv4(item); ok {
					out = append(out, ip...)
					continue
				}
				return nil, fmt.Errorf("item %d: expected a byte or an IPv4 address, got %T(%v)", i, item, item)
			}
			out = append(out, byte(n))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a byte vector, got %T(%v)", v, v)
	}
}

// parseIPv4 accepts a dotted-quad string and returns its 4-byte
// representation; any other value type is rejected.
func parseIPv4(v any) (ip []byte, ok bool) {
	s, isStr := v.(string)
	if !isStr {
		return nil, false
	}

	parsed := net.ParseIP(s)
	if parsed == nil {
		return nil, false
	}

	v4 := parsed.To4()
	if v4 == nil {
		return nil, false
	}

	return v4, true
}

// toInt64 accepts the numeric shapes yaml.v3 decodes scalars into
// (int, int64, uint64, float64) and normalizes them to an int64.
func toInt64(v any) (n int64, ok bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case uint64:
		return int64(t), true
	case float64:
		return int64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
