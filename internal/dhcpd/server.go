package dhcpd

import (
	"context"
	"net"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/log"
	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/insomniacslk/dhcp/dhcpv4/server4"

	"github.com/soofff/dhcpserver/internal/dhcpd/source"
)

// Server is the DHCP Message Engine (C7): one UDP/67 ingress loop, a
// dispatch table by DHCP message type, and response composition handed off
// to a Broadcaster for egress. It is grounded on the teacher's v4Server
// (internal/dhcpd/v4_unix.go), with lease bookkeeping replaced by queries to
// a source.Dispatcher.
type Server struct {
	networks   []LocalNetwork
	dispatcher *source.Dispatcher

	srv         *server4.Server
	broadcaster *Broadcaster
}

// NewServer builds a Server over dispatcher, advertising itself on the
// given local networks.
func NewServer(dispatcher *source.Dispatcher, networks []LocalNetwork) *Server {
	return &Server{networks: networks, dispatcher: dispatcher}
}

// messageHandler answers a parsed request by driving dispatcher, returning
// the winning source and its result; packetHandler fills in resp from them.
// A nil returned error with a nil result means "no source answered"; the
// caller decides whether that means NAK or silence.
type messageHandler func(ctx context.Context, s *Server, req, resp *dhcpv4.DHCPv4) (source.Source, *source.Result, error)

// messageHandlers dispatches by DHCP message type, the way the teacher's
// messageHandlers map does (internal/dhcpd/v4_unix.go), but calling into the
// source dispatcher instead of a lease table.
var messageHandlers = map[dhcpv4.MessageType]messageHandler{
	dhcpv4.MessageTypeDiscover: func(ctx context.Context, s *Server, req, resp *dhcpv4.DHCPv4) (source.Source, *source.Result, error) {
		return s.dispatcher.Offer(ctx, req)
	},
	dhcpv4.MessageTypeRequest: func(ctx context.Context, s *Server, req, resp *dhcpv4.DHCPv4) (source.Source, *source.Result, error) {
		return s.dispatcher.Reserve(ctx, req)
	},
	dhcpv4.MessageTypeInform: func(ctx context.Context, s *Server, req, resp *dhcpv4.DHCPv4) (source.Source, *source.Result, error) {
		return s.dispatcher.Inform(ctx, req)
	},
}

// notifyHandlers are message types with no reply: every source is notified
// unconditionally and nothing is sent back.
var notifyHandlers = map[dhcpv4.MessageType]func(ctx context.Context, s *Server, req *dhcpv4.DHCPv4) error{
	dhcpv4.MessageTypeRelease: func(ctx context.Context, s *Server, req *dhcpv4.DHCPv4) error {
		return s.dispatcher.Release(ctx, req)
	},
	dhcpv4.MessageTypeDecline: func(ctx context.Context, s *Server, req *dhcpv4.DHCPv4) error {
		return s.dispatcher.Decline(ctx, req)
	},
}

// packetHandler is the server4.Server callback for every received datagram.
// It spawns nothing itself; server4 already calls this per-packet in its
// own goroutine, matching spec.md §4.7's "per-packet task spawn."
func (s *Server) packetHandler(conn net.PacketConn, peer net.Addr, req *dhcpv4.DHCPv4) {
	log.Debug("dhcpd: received message: %s", req.Summary())

	ctx := context.Background()

	if notify, ok := notifyHandlers[req.MessageType()]; ok {
		if err := notify(ctx, s, req); err != nil {
			log.Error("dhcpd: %s: %s", req.MessageType(), err)
		}
		return
	}

	handler, ok := messageHandlers[req.MessageType()]
	if !ok {
		log.Debug("dhcpd: dropping unsupported message type %s", req.MessageType())
		return
	}

	resp, err := dhcpv4.NewReplyFromRequest(req)
	if err != nil {
		log.Debug("dhcpd: building reply: %s", err)
		return
	}
	// siaddr is left at 0.0.0.0; the per-interface server IP is supplied by
	// the broadcaster when it rewrites ServerIPAddr per network.
	resp.ServerIPAddr = net.IPv4zero

	src, result, err := handler(ctx, s, req, resp)
	if err != nil {
		log.Error("dhcpd: %s: %s", req.MessageType(), err)
		return
	}

	if result == nil {
		if req.MessageType() == dhcpv4.MessageTypeRequest {
			log.Debug("dhcpd: no source answered REQUEST for %s, sending NAK", req.ClientHWAddr)
			s.sendNak(resp)
		} else {
			log.Debug("dhcpd: no source answered %s for %s", req.MessageType(), req.ClientHWAddr)
		}
		return
	}

	if result.ClientIP == nil {
		log.Error("dhcpd: %s: %s", req.MessageType(), ErrClientIPMissing)
		return
	}

	resp.YourIPAddr = result.ClientIP
	resp.UpdateOption(replyMessageType(req.MessageType()))

	if result.Options != nil {
		for code, data := range result.Options.ToDHCPv4Options() {
			resp.Options[code] = data
		}
	}

	if src != nil {
		if err := src.PacketSending(ctx, resp); err != nil {
			log.Error("dhcpd: %s: packet_sending: %s", src.Name(), err)
		}
	}

	s.broadcaster.Send(resp, s.networks)

	if src != nil {
		if err := src.PacketSent(ctx); err != nil {
			log.Error("dhcpd: %s: packet_sent: %s", src.Name(), err)
		}
	}
}

// replyMessageType maps an incoming phase to its reply message type:
// DISCOVER->OFFER, REQUEST/INFORM->ACK.
func replyMessageType(req dhcpv4.MessageType) dhcpv4.Option {
	if req == dhcpv4.MessageTypeDiscover {
		return dhcpv4.OptMessageType(dhcpv4.MessageTypeOffer)
	}
	return dhcpv4.OptMessageType(dhcpv4.MessageTypeAck)
}

// sendNak builds and broadcasts a DHCPNAK for a REQUEST no source could
// satisfy, per spec.md §4.7's incoming-message table ("REQUEST … no-match →
// NAK") and invariant #1 (exactly one NAK per local outbound network):
// yiaddr is left at the zero address and no lease-time option is set.
func (s *Server) sendNak(resp *dhcpv4.DHCPv4) {
	resp.YourIPAddr = net.IPv4zero
	resp.UpdateOption(dhcpv4.OptMessageType(dhcpv4.MessageTypeNak))
	s.broadcaster.Send(resp, s.networks)
}

// Start opens the shared UDP/67 listener and begins serving, grounded on the
// teacher's v4Server.Start (internal/dhcpd/v4_unix.go).
func (s *Server) Start() (err error) {
	defer func() { err = errors.Annotate(err, "dhcpd: starting: %w") }()

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: dhcpv4.ServerPort})
	if err != nil {
		return err
	}

	s.broadcaster = NewBroadcaster(conn)

	s.srv, err = server4.NewServer("", nil, s.packetHandler, server4.WithConn(conn))
	if err != nil {
		return err
	}

	log.Info("dhcpd: listening on :%d", dhcpv4.ServerPort)

	go func() {
		if sErr := s.srv.Serve(); errors.Is(sErr, net.ErrClosed) {
			log.Info("dhcpd: server is closed")
		} else if sErr != nil {
			log.Error("dhcpd: serve: %s", sErr)
		}
	}()

	return nil
}

// Stop closes the listener.
func (s *Server) Stop() (err error) {
	if s.srv == nil {
		return nil
	}

	log.Debug("dhcpd: stopping")
	if err := s.srv.Close(); err != nil {
		return errors.Annotate(err, "dhcpd: stopping: %w")
	}
	s.srv = nil
	return nil
}
