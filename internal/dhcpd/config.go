package dhcpd

import (
	"fmt"
	"net"
	"os"

	"github.com/AdguardTeam/golibs/errors"
	"gopkg.in/yaml.v3"

	"github.com/soofff/dhcpserver/internal/dhcpd/source"
)

// defaultConfigPaths are tried, in order, when neither the CLI flag nor the
// environment variable name a configuration file. Grounded on the config
// path resolution algorithm from original_source/src/config.rs.
var defaultConfigPaths = []string{"./config.yml", "./config.yaml"}

// SourceConfig is one entry in the top-level "sources" list: a kind naming
// a registered source.Factory, plus that source's own configuration as a
// raw YAML node to be decoded by the kind-specific factory.
type SourceConfig struct {
	Kind   string    `yaml:"kind"`
	Config yaml.Node `yaml:"config"`
}

// NetworkConfig names one local IPv4 network the server advertises itself
// on: an interface's IP address and netmask, used both as a
// SERVER_IDENTIFIER candidate and to compute a directed broadcast address.
type NetworkConfig struct {
	ServerIP string `yaml:"server_ip"`
	Mask     string `yaml:"mask"`
}

// Config is the top-level server configuration file.
type Config struct {
	Networks []NetworkConfig `yaml:"networks"`
	Sources  []SourceConfig  `yaml:"sources"`
}

// Registry maps a source "kind" string to the factory that builds it. The
// CLI entry point populates this with every linked-in source package before
// loading the configuration.
type Registry map[string]source.Factory

// LoadConfig reads and decodes the YAML configuration file at path.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotate(err, "reading config: %w")
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.Annotate(err, "parsing config: %w")
	}

	return &cfg, nil
}

// ResolveConfigPath picks the configuration file path to load, in the
// precedence order spec.md's CLI describes: the -c/--config flag, then the
// DHCP_CONFIG environment variable, then each of defaultConfigPaths in
// turn, tested for existence (the flag and environment variable are used
// as-is, without an existence check).
func ResolveConfigPath(flagValue, envValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if envValue != "" {
		return envValue, nil
	}

	for _, candidate := range defaultConfigPaths {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", ErrConfigNotFound
}

// BuildSources instantiates every configured source via reg, in
// configuration order; order is significant since source.Dispatcher tries
// sources in list order for query phases.
func BuildSources(reg Registry, configs []SourceConfig) ([]source.Source, error) {
	out := make([]source.Source, 0, len(configs))
	for i, sc := range configs {
		factory, ok := reg[sc.Kind]
		if !ok {
			return nil, errors.Annotate(ErrUnknownSourceKind, "source %d (%s): %w", i, sc.Kind)
		}

		var rawConfig any
		if err := sc.Config.Decode(&rawConfig); err != nil {
			return nil, errors.Annotate(err, "source %d (%s): decoding config: %w", i, sc.Kind)
		}

		src, err := factory(rawConfig)
		if err != nil {
			return nil, errors.Annotate(err, "source %d (%s): %w", i, sc.Kind)
		}

		out = append(out, src)
	}

	return out, nil
}

// BuildNetworks parses the configured networks into LocalNetwork values for
// the Egress Broadcaster.
func BuildNetworks(configs []NetworkConfig) ([]LocalNetwork, error) {
	out := make([]LocalNetwork, 0, len(configs))
	for i, nc := range configs {
		ip := net.ParseIP(nc.ServerIP)
		if ip == nil || ip.To4() == nil {
			return nil, fmt.Errorf("network %d: invalid server_ip %q", i, nc.ServerIP)
		}

		maskIP := net.ParseIP(nc.Mask)
		if maskIP == nil || maskIP.To4() == nil {
			return nil, fmt.Errorf("network %d: invalid mask %q", i, nc.Mask)
		}

		out = append(out, LocalNetwork{
			ServerIP: ip.To4(),
			Mask:     net.IPMask(maskIP.To4()),
		})
	}

	return out, nil
}
