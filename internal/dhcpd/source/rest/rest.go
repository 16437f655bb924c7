package rest

import (
	"context"
	"net"
	"time"

	"github.com/AdguardTeam/golibs/log"
	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/soofff/dhcpserver/internal/dhcpd/source"
)

// Kind is the "kind" string this source registers under in the top-level
// configuration (spec.md's source registry, §9).
const Kind = "rest"

// Source is the REST host source (C5): it answers phases by running each
// phase's named queries against Context, accumulating each one's JSON body
// into "results" under its own name, running every configured script in
// order during OFFER only, and finally mapping the resulting Context onto
// DHCP options via BuildOptions.
type Source struct {
	source.BaseSource

	cfg    *SourceConfig
	client *QueryClient
	engine *Engine
}

var _ source.Source = (*Source)(nil)

// New builds a REST source from its raw "config" YAML node.
func New(rawConfig any) (source.Source, error) {
	cfg, err := ParseConfig(rawConfig)
	if err != nil {
		return nil, errors.Wrap(err, "rest source")
	}

	return &Source{
		cfg:    cfg,
		client: NewQueryClient(cfg.CacheSize),
		engine: NewEngine(cfg.StrictTemplates),
	}, nil
}

func (s *Source) Name() string { return Kind }

// Offer answers a DISCOVER via the offer phase, including its scripts.
func (s *Source) Offer(ctx context.Context, req *dhcpv4.DHCPv4) (*source.Result, error) {
	return s.runQueryPhase(ctx, req, s.cfg.Offer, true)
}

// Reserve answers a REQUEST via the reserve phase.
func (s *Source) Reserve(ctx context.Context, req *dhcpv4.DHCPv4) (*source.Result, error) {
	return s.runQueryPhase(ctx, req, s.cfg.Reserve, false)
}

// Inform answers an INFORM via the inform phase.
func (s *Source) Inform(ctx context.Context, req *dhcpv4.DHCPv4) (*source.Result, error) {
	return s.runQueryPhase(ctx, req, s.cfg.Inform, false)
}

// Release runs the release phase for its side effects only; any reply
// options it maps are discarded since RELEASE has no response.
func (s *Source) Release(ctx context.Context, req *dhcpv4.DHCPv4) error {
	_, err := s.runQueryPhase(ctx, req, s.cfg.Release, false)
	return err
}

// Decline runs the decline phase for its side effects only.
func (s *Source) Decline(ctx context.Context, req *dhcpv4.DHCPv4) error {
	_, err := s.runQueryPhase(ctx, req, s.cfg.Decline, false)
	return err
}

// runQueryPhase drives one phase: run its queries in order, inserting each
// named query's JSON body into a "results" map that grows across the loop
// (so query N can template against query N-1's named result, per spec.md
// §3/§4.4/§6), run its scripts in order if runScript is true, then map the
// final Context onto DHCP options. A nil phase config means this source
// doesn't participate in this DHCP message type at all, so it returns
// (nil, nil) — "no opinion."
func (s *Source) runQueryPhase(
	ctx context.Context,
	req *dhcpv4.DHCPv4,
	phase *PhaseConfig,
	runScript bool,
) (*source.Result, error) {
	if phase == nil {
		return nil, nil
	}

	pctx := newContext(req)
	results := make(map[string]any, len(phase.Queries))

	for i, q := range phase.Queries {
		res, err := s.runQuery(q, pctx)
		if err != nil {
			return nil, errors.Wrapf(err, "query %d (%s)", i, q.Name)
		}
		if q.Name != "" {
			results[q.Name] = res
		}
		pctx = withResults(pctx, results)
	}

	if runScript {
		for i, sc := range phase.Scripts {
			if err := s.runScript(ctx, sc, pctx); err != nil {
				return nil, errors.Wrapf(err, "script %d", i)
			}
		}
	}

	raw, err := decodeMappingNode(phase.Mapping)
	if err != nil {
		return nil, errors.Wrap(err, "mapping")
	}
	if raw == nil {
		return nil, nil
	}

	clientIP, opts, err := BuildOptions(s.engine, raw, pctx)
	if err != nil {
		return nil, err
	}

	return &source.Result{ClientIP: clientIP, Options: opts}, nil
}

// runQuery expands q's method/URL/body/headers against ctxData, performs
// the HTTP call with q's own ssl_verify/cache settings, and returns its
// decoded JSON body.
func (s *Source) runQuery(q Query, ctxData any) (any, error) {
	method, err := s.engine.ExpandString(q.Method, ctxData)
	if err != nil {
		return nil, errors.Wrap(err, "expanding method")
	}
	url, err := s.engine.ExpandString(q.URL, ctxData)
	if err != nil {
		return nil, errors.Wrap(err, "expanding url")
	}

	var body string
	if q.Body != "" {
		expandedBody, err := s.engine.ExpandString(q.Body, ctxData)
		if err != nil {
			return nil, errors.Wrap(err, "expanding body")
		}
		if s, ok := expandedBody.(string); ok {
			body = s
		} else {
			raw, err := yaml.Marshal(expandedBody)
			if err != nil {
				return nil, errors.Wrap(err, "re-encoding body")
			}
			body = string(raw)
		}
	}

	headers := make(map[string]string, len(q.Headers))
	for k, v := range q.Headers {
		expanded, err := s.engine.ExpandString(v, ctxData)
		if err != nil {
			return nil, errors.Wrapf(err, "expanding header %q", k)
		}
		if s, ok := expanded.(string); ok {
			headers[k] = s
		}
	}

	methodStr, _ := method.(string)
	urlStr, _ := url.(string)

	sslVerify := true
	if q.SSLVerify != nil {
		sslVerify = *q.SSLVerify
	}
	var expiration time.Duration
	if q.Cache != nil {
		expiration = time.Duration(*q.Cache * float64(time.Second))
	}

	log.Debug("rest source: querying %s %s", methodStr, urlStr)
	return s.client.JSON(methodStr, urlStr, body, headers, sslVerify, expiration)
}

// runScript expands the configured exec/args against ctxData and runs it.
func (s *Source) runScript(ctx context.Context, cfg Script, ctxData any) error {
	exe, err := s.engine.ExpandString(cfg.Exec, ctxData)
	if err != nil {
		return errors.Wrap(err, "expanding exec")
	}
	exeStr, _ := exe.(string)

	args := make([]string, 0, len(cfg.Args))
	for i, a := range cfg.Args {
		expanded, err := s.engine.ExpandString(a, ctxData)
		if err != nil {
			return errors.Wrapf(err, "expanding arg %d", i)
		}
		if str, ok := expanded.(string); ok {
			args = append(args, str)
		}
	}

	cfg.Timeout = scriptTimeout(cfg)
	return RunScript(ctx, cfg, exeStr, args)
}

// decodeMappingNode turns a phase's raw mapping YAML node into a
// map[string]any, or nil if the node is empty (a phase with no mapping).
func decodeMappingNode(node yaml.Node) (map[string]any, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	var out map[string]any
	if err := node.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// newContext seeds a per-packet Context the way dhcpd.newPacketContext does;
// duplicated here (rather than imported unexported) because Context lives
// in the dhcpd package and this package only needs its map shape, not its
// behavior.
func newContext(req *dhcpv4.DHCPv4) map[string]any {
	hostname := ""
	if opt := req.Options.Get(dhcpv4.OptionHostName); opt != nil {
		hostname = string(opt)
	}

	return map[string]any{
		"client_hardware_address": req.ClientHWAddr.String(),
		"client_ip_address":       ipString(req.ClientIPAddr),
		"server_ip_address":       ipString(req.ServerIPAddr),
		"client_hostname":         hostname,
	}
}

// withResults returns a shallow copy of ctxData with "results" rebound to
// the full accumulated-so-far results map, the REDESIGN FLAG decision
// documented in dhcpd/context.go: clone instead of mutating a shared
// Context in place.
func withResults(ctxData map[string]any, results map[string]any) map[string]any {
	next := make(map[string]any, len(ctxData)+1)
	for k, v := range ctxData {
		next[k] = v
	}
	next["results"] = results
	return next
}

func ipString(ip net.IP) string {
	if ip == nil || ip.IsUnspecified() {
		return "0.0.0.0"
	}
	return ip.String()
}
