package dhcpd

import "github.com/AdguardTeam/golibs/errors"

// Sentinel errors for the taxonomy described in spec.md §7.  These are
// compared with errors.Is by callers that need to distinguish a terminal
// condition (e.g. ClientIPMissing) from an ordinary wrapped error.
const (
	// ErrClientIPMissing is returned when a source produced options without a
	// client IP address for a phase that requires one (OFFER, REQUEST,
	// INFORM).
	ErrClientIPMissing errors.Error = "client ip address missing from source result"

	// ErrUnknownSourceKind is returned by the source registry when a
	// configured source's "kind" does not match any registered source type.
	ErrUnknownSourceKind errors.Error = "unknown source kind"

	// ErrConfigNotFound is returned when no configuration file path could be
	// resolved from the CLI flag, environment variable, or default paths.
	ErrConfigNotFound errors.Error = "no config file found"

	// ErrCustomOptionType is returned when a custom option's expanded value
	// is a sequence or mapping, which the custom encoding table (spec.md
	// §4.5) has no representation for.
	ErrCustomOptionType errors.Error = "custom option value must be a scalar"

	// ErrRequiredMapping wraps a mapping-entry failure that was marked
	// required: true, so the enclosing phase must fail instead of skipping
	// the entry with a warning.
	ErrRequiredMapping errors.Error = "required mapping entry failed"
)
