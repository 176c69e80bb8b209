// Package sender crafts IPv4 frames and transmits them on a raw socket.
package sender

import (
	"net"
	"net/netip"

	"github.com/pkg/errors"

	"github.com/XaydBayeck/ipw/internal/core"
	"github.com/XaydBayeck/ipw/internal/core/codec"
	"github.com/XaydBayeck/ipw/internal/log"
)

// Transmitter is the send half of a frame socket.
type Transmitter interface {
	Send(frame []byte, dst net.HardwareAddr) error
}

// Request describes one frame to send.
type Request struct {
	DstMAC   net.HardwareAddr
	DstIP    netip.Addr
	Protocol core.Protocol
	ID       uint16
	TOS      uint8
	Options  []byte
	Payload  []byte

	// Echo, when set, prepends an ICMP echo request header to the payload
	// and forces the protocol to ICMP.
	Echo *codec.ICMPEcho
}

// Sender builds frames from a fixed local endpoint.
type Sender struct {
	conn   Transmitter
	srcMAC net.HardwareAddr
	srcIP  netip.Addr
	ttl    uint8
	log    log.Logger
}

// New returns a sender using srcMAC and srcIP as the frame's source. An
// invalid srcIP is sent as 0.0.0.0; a zero ttl uses codec.DefaultTTL.
func New(conn Transmitter, srcMAC net.HardwareAddr, srcIP netip.Addr, ttl uint8) *Sender {
	if ttl == 0 {
		ttl = codec.DefaultTTL
	}
	if !srcIP.IsValid() {
		srcIP = netip.IPv4Unspecified()
	}
	return &Sender{
		conn:   conn,
		srcMAC: srcMAC,
		srcIP:  srcIP,
		ttl:    ttl,
		log:    log.GetLogger().WithField("component", "sender"),
	}
}

// Build returns the complete frame for req.
func (s *Sender) Build(req Request) ([]byte, error) {
	if len(req.DstMAC) != 6 {
		return nil, errors.Wrapf(core.ErrInvalidHeader, "destination mac %q", req.DstMAC)
	}
	if !req.DstIP.Is4() {
		return nil, errors.Wrapf(core.ErrInvalidHeader, "destination %s is not IPv4", req.DstIP)
	}

	body := req.Payload
	proto := req.Protocol
	if req.Echo != nil {
		icmp := codec.NewICMP(codec.ICMPEchoRequest, 0).
			WithIdent(req.Echo.ID).
			WithSeq(req.Echo.Seq).
			WithChecksum(req.Payload)
		body = append(codec.ICMP.Encode(icmp), req.Payload...)
		proto = core.ProtocolICMP
	}

	ip := codec.NewIPv4(req.ID).
		WithTTL(s.ttl).
		WithTOS(req.TOS).
		WithProtocol(proto).
		WithSource(s.srcIP).
		WithDestination(req.DstIP)
	if len(req.Options) > 0 {
		ip = ip.AppendOptions(req.Options)
	}
	if ip.HeaderLen > codec.IPv4MaxHeaderLen {
		return nil, errors.Wrapf(core.ErrInvalidHeader, "%d option bytes do not fit", len(req.Options))
	}
	if ip.HeaderLen+len(body) > 0xffff {
		return nil, errors.Wrapf(core.ErrInvalidPayload, "%d payload bytes exceed the IPv4 total length", len(body))
	}
	ip = ip.WithPayloadLength(len(body)).WithChecksum()
	if err := ip.Validate(); err != nil {
		return nil, err
	}

	eth := codec.EtherHeader{
		Destination: req.DstMAC,
		Source:      s.srcMAC,
		EtherType:   core.EtherTypeIP,
	}
	frame := codec.EtherIPv4.Encode(codec.Pair[codec.EtherHeader, codec.IPv4Header]{First: eth, Second: ip})
	return append(frame, body...), nil
}

// Send builds and transmits req, returning the frame length.
func (s *Sender) Send(req Request) (int, error) {
	frame, err := s.Build(req)
	if err != nil {
		return 0, err
	}
	if err := s.conn.Send(frame, req.DstMAC); err != nil {
		return 0, err
	}
	s.log.WithFields(map[string]interface{}{
		"dst":   req.DstIP,
		"id":    req.ID,
		"bytes": len(frame),
	}).Debug("frame sent")
	return len(frame), nil
}
