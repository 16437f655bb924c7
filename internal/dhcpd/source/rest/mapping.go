package rest

import (
	"encoding/binary"
	"fmt"
	"math"
	"net"

	"github.com/AdguardTeam/golibs/log"

	"github.com/soofff/dhcpserver/internal/dhcpd"
)

// BuildOptions walks a phase's raw mapping (already decoded from YAML into a
// map[string]any) and produces a client IP plus a DhcpOptions set, per
// spec.md §4.5. Each entry's required flag is read from the raw,
// pre-expansion shape before templating runs, since expansion may turn a
// mapping like {data: ..., required: true} into something that no longer
// looks like a mapping once its leaves are substituted.
func BuildOptions(engine *Engine, raw map[string]any, data any) (clientIP net.IP, opts *dhcpd.DhcpOptions, err error) {
	opts = dhcpd.NewDhcpOptions()

	for name, rawValue := range raw {
		required := isRequired(rawValue)

		expanded, expandErr := engine.Expand(rawValue, data)
		if expandErr != nil {
			if required {
				return nil, nil, fmt.Errorf("%s: %w: %w", name, dhcpd.ErrRequiredMapping, expandErr)
			}
			log.Error("warn: rest source: mapping %s: skipping: %s", name, expandErr)
			continue
		}

		if name == "client_ip_address" {
			ip, ok := parseClientIP(expanded)
			if !ok {
				return nil, nil, fmt.Errorf("%s: %w", name, dhcpd.ErrClientIPMissing)
			}
			clientIP = ip
			continue
		}

		value := expanded
		if m, ok := expanded.(map[string]any); ok {
			if d, present := m["data"]; present {
				value = d
			}
		}

		opt, isNamed, encErr := dhcpd.EncodeNamedOption(name, value)
		if isNamed {
			if encErr != nil {
				if required {
					return nil, nil, fmt.Errorf("%s: %w: %w", name, dhcpd.ErrRequiredMapping, encErr)
				}
				log.Error("warn: rest source: mapping %s: skipping: %s", name, encErr)
				continue
			}
			opts.Upsert(opt)
			continue
		}

		// A custom option's value shape is structural, not a business-logic
		// outcome like a missing HTTP field would be: sequence/mapping
		// values and malformed tags are always fatal, the same way
		// client_ip_address's own parse failure is always fatal, regardless
		// of this entry's required flag.
		if err := applyCustomOption(opts, expanded, name); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	return clientIP, opts, nil
}

// isRequired inspects rawValue's pre-expansion shape for a {required: true}
// marker. Any other shape (a bare scalar, a list, a mapping without the
// required key) is treated as not required.
func isRequired(rawValue any) bool {
	m, ok := rawValue.(map[string]any)
	if !ok {
		return false
	}
	req, ok := m["required"].(bool)
	return ok && req
}

// parseClientIP accepts a dotted-quad string as produced by template
// expansion.
func parseClientIP(v any) (net.IP, bool) {
	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, false
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, false
	}
	return ip4, true
}

// applyCustomOption decodes an unrecognized-name mapping entry per the
// custom encoding table in spec.md §4.5: null maps to an empty byte
// string, bool to a single 0/1 byte, int to an 8-byte big-endian two's
// complement value, float to an 8-byte IEEE754 big-endian value, string to
// its UTF-8 bytes, and sequence/mapping are rejected.
func applyCustomOption(opts *dhcpd.DhcpOptions, expanded any, name string) error {
	m, ok := expanded.(map[string]any)
	if !ok {
		return fmt.Errorf("%s: expected a mapping with tag/kind/data", name)
	}

	tag, ok := toTag(m["tag"])
	if !ok {
		return fmt.Errorf("%s: missing or invalid tag", name)
	}

	data, err := encodeCustomItem(m["data"])
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	opts.Upsert(dhcpd.DhcpOption{Code: tag, Data: data})
	return nil
}

func toTag(v any) (uint8, bool) {
	n, ok := toInt64ForTag(v)
	if !ok || n < 0 || n > math.MaxUint8 {
		return 0, false
	}
	return uint8(n), true
}

func toInt64ForTag(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case uint64:
		return int64(t), true
	case float64:
		return int64(t), true
	default:
		return 0, false
	}
}

func encodeCustomItem(item any) ([]byte, error) {
	switch t := item.(type) {
	case nil:
		return []byte{}, nil
	case bool:
		if t {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case int, int64, uint64:
		n, _ := toInt64ForTag(t)
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(n))
		return buf, nil
	case float64:
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, math.Float64bits(t))
		return buf, nil
	case string:
		return []byte(t), nil
	default:
		return nil, dhcpd.ErrCustomOptionType
	}
}
