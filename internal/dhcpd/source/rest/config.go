// Package rest implements the REST host source (spec.md §9, component C5):
// a pluggable source that answers DHCP phases by templating HTTP queries,
// optionally running a script, and mapping the result onto DHCP options.
package rest

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Query is one HTTP call a phase makes before mapping its result: method,
// URL, optional body and headers, all subject to template expansion against
// the running Context before the call is made. Name identifies this query's
// slot in the running "results" map (spec.md §3/§4.4/§6), so a later query
// or the mapping can reference an earlier one's response by name (e.g.
// "results.device1.ip"). SSLVerify and Cache are per-query, matching the
// original's DhcpRestConfigSchemaQuery{ssl_verify, cache}
// (original_source/src/sources/rest.rs): two queries in the same phase may
// hit a self-signed host and a public one, or cache one response and never
// the other.
type Query struct {
	Name    string            `yaml:"name"`
	Method  string            `yaml:"method"`
	URL     string            `yaml:"url"`
	Body    string            `yaml:"body,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	// SSLVerify disables TLS certificate verification for this query alone
	// when explicitly set to false. Nil defaults to verifying.
	SSLVerify *bool `yaml:"ssl_verify,omitempty"`
	// Cache is this query's response cache TTL in fractional seconds
	// (spec.md §6: "cache: <expiration seconds, float>"). Nil or zero
	// disables caching for this query.
	Cache *float64 `yaml:"cache,omitempty"`
}

// Script is the optional command a phase may run after its queries and
// before mapping, exclusively during the OFFER phase per spec.md §4.4.
type Script struct {
	Exec string   `yaml:"exec"`
	Args []string `yaml:"args,omitempty"`
	// Wait, if true, blocks for the process to exit and fails the phase on a
	// non-zero exit code or timeout. If false, the process is fired and
	// forgotten.
	Wait bool `yaml:"wait"`
	// Timeout bounds how long the process may run. Zero selects
	// defaultScriptTimeout when the REST source runs the script.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// MappingItem is a named-option mapping entry: data is template-expanded and
// then decoded per that option's fixed value kind (spec.md §4.5). Required,
// if true, turns a decode failure into a phase-ending error instead of a
// logged skip.
type MappingItem struct {
	Data     any  `yaml:"data"`
	Required bool `yaml:"required"`
}

// CustomMappingItem is an unrecognized-name mapping entry: tag is the raw
// DHCP option code to emit, kind is a descriptive label only, and data is
// the template-expanded value encoded per the custom table
// (null/bool/int/float/string), chosen from data's own type; kind does not
// affect the encoding. The flattened {tag, kind, data, required} shape
// matches spec.md §6 and the original's
// `#[serde(flatten)] item: DhcpRestMappingItem` (original_source/src/sources/rest.rs).
type CustomMappingItem struct {
	Tag      uint8  `yaml:"tag"`
	Kind     string `yaml:"kind"`
	Data     any    `yaml:"data"`
	Required bool   `yaml:"required"`
}

// PhaseConfig is the per-phase configuration block: zero or more queries run
// in order (each templated against the running Context, with "results"
// accumulating one entry per named query after each one), zero or more
// scripts run in order (spec.md §4.4), and the option mapping applied to
// the final Context to build the reply's DhcpOptions.
type PhaseConfig struct {
	Queries []Query   `yaml:"queries,omitempty"`
	Scripts []Script  `yaml:"scripts,omitempty"`
	Mapping yaml.Node `yaml:"mapping,omitempty"`
}

// SourceConfig is the REST source's top-level configuration: one
// PhaseConfig per DHCP phase it participates in, plus the query cache's
// capacity. ssl_verify and cache TTL live on each Query instead (spec.md
// §6), since they're per-call knobs, not per-source ones.
type SourceConfig struct {
	CacheSize       int  `yaml:"cache_size"`
	StrictTemplates bool `yaml:"strict_templates"`

	Offer   *PhaseConfig `yaml:"offer,omitempty"`
	Reserve *PhaseConfig `yaml:"reserve,omitempty"`
	Release *PhaseConfig `yaml:"release,omitempty"`
	Decline *PhaseConfig `yaml:"decline,omitempty"`
	Inform  *PhaseConfig `yaml:"inform,omitempty"`
}

// defaultCacheSize bounds the gcache LRU when a source config doesn't
// specify one.
const defaultCacheSize = 1024

// ParseConfig decodes a REST source's "config" YAML node into a
// SourceConfig, applying cache_size's default.
func ParseConfig(node any) (*SourceConfig, error) {
	raw, err := yaml.Marshal(node)
	if err != nil {
		return nil, err
	}

	cfg := &SourceConfig{CacheSize: defaultCacheSize}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
