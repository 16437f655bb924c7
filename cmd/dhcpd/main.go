// Command dhcpd runs the pluggable DHCPv4 server: the message engine
// listens on UDP/67 and delegates every lease and option decision to the
// configured host sources.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AdguardTeam/golibs/log"
	"github.com/alexflint/go-arg"

	"github.com/soofff/dhcpserver/internal/dhcpd"
	"github.com/soofff/dhcpserver/internal/dhcpd/source"
	"github.com/soofff/dhcpserver/internal/dhcpd/source/rest"
)

// cliArgs mirrors the teacher's flag structs (e.g. purpleidea-mgmt's
// examples/mockbmc/mockbmc.go), each field tagged with both a flag name and
// a fallback environment variable.
type cliArgs struct {
	Config    string `arg:"-c,--config,env:DHCP_CONFIG" help:"path to the YAML configuration file"`
	Verbosity string `arg:"-v,--verbosity,env:DHCP_VERBOSITY" default:"info" help:"log verbosity: off, error, warn, info, debug or trace"`
}

// registry lists every source kind linked into this binary.
func registry() dhcpd.Registry {
	return dhcpd.Registry{
		rest.Kind: rest.New,
	}
}

func main() {
	var args cliArgs
	arg.MustParse(&args)

	configureLogging(args.Verbosity)

	if err := run(args); err != nil {
		log.Error("dhcpd: %s", err)
		os.Exit(1)
	}
}

// configureLogging folds the CLI's six verbosity names onto golibs/log's
// four levels (OFF, ERROR, INFO, DEBUG); golibs/log has no separate WARN or
// TRACE level, so warn maps to ERROR and trace to DEBUG (documented in
// SPEC_FULL.md's ambient stack section). Any other name selects INFO.
func configureLogging(verbosity string) {
	switch verbosity {
	case "off":
		log.SetLevel(log.OFF)
	case "error", "warn":
		log.SetLevel(log.ERROR)
	case "debug", "trace":
		log.SetLevel(log.DEBUG)
	default:
		log.SetLevel(log.INFO)
	}
}

func run(args cliArgs) error {
	path, err := dhcpd.ResolveConfigPath(args.Config, os.Getenv("DHCP_CONFIG"))
	if err != nil {
		return fmt.Errorf("resolving config path: %w", err)
	}

	cfg, err := dhcpd.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("loading config %s: %w", path, err)
	}

	sources, err := dhcpd.BuildSources(registry(), cfg.Sources)
	if err != nil {
		return fmt.Errorf("building sources: %w", err)
	}

	networks, err := dhcpd.BuildNetworks(cfg.Networks)
	if err != nil {
		return fmt.Errorf("building networks: %w", err)
	}

	dispatcher := source.NewDispatcher(sources)
	srv := dhcpd.NewServer(dispatcher, networks)

	if err := srv.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	log.Info("dhcpd: serving with %d source(s) on %d network(s)", len(sources), len(networks))

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)
	<-signalChannel

	return srv.Stop()
}
