// Package arp resolves IPv4 addresses to hardware addresses with a single
// ARP request/reply exchange over a raw frame socket.
package arp

import (
	"context"
	"net"
	"net/netip"
	"time"

	"github.com/mdlayher/ethernet"
	"github.com/pkg/errors"

	"github.com/XaydBayeck/ipw/internal/core"
	"github.com/XaydBayeck/ipw/internal/core/codec"
	"github.com/XaydBayeck/ipw/internal/log"
	"github.com/XaydBayeck/ipw/internal/socket"
)

// RequestLen is the length of an ARP request frame: Ethernet header plus ARP
// body, without link-layer padding.
const RequestLen = codec.EtherHeaderLen + codec.ARPPacketLen

// Offsets into a reply frame.
const (
	opOffset       = 20
	senderHWOffset = 22
	senderIPOffset = 28
)

// State is the resolver's progress through one exchange.
type State int

const (
	Idle State = iota
	AwaitingReply
	Resolved
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingReply:
		return "awaiting-reply"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Config tunes the exchange.
type Config struct {
	// Timeout bounds the wait for a reply to each request. Zero waits until
	// a reply arrives or the socket is closed.
	Timeout time.Duration
	// Retries is how many times the request is resent after a timeout.
	Retries int
	// VerifySender requires the reply's sender protocol address to be the
	// target.
	VerifySender bool
}

func DefaultConfig() Config {
	return Config{
		Timeout:      3 * time.Second,
		Retries:      2,
		VerifySender: true,
	}
}

// Resolver performs ARP exchanges. It is not safe for concurrent use; the
// socket should deliver all frames or at least all ARP frames.
type Resolver struct {
	conn  socket.FrameConn
	hw    net.HardwareAddr
	ip    netip.Addr
	cfg   Config
	state State
	log   log.Logger
}

// NewResolver returns a resolver sending requests from hw and ip.
func NewResolver(conn socket.FrameConn, hw net.HardwareAddr, ip netip.Addr, cfg Config) *Resolver {
	return &Resolver{
		conn: conn,
		hw:   hw,
		ip:   ip,
		cfg:  cfg,
		log:  log.GetLogger().WithField("component", "arp"),
	}
}

// State reports where the last exchange ended or currently is.
func (r *Resolver) State() State {
	return r.state
}

// Resolve broadcasts a request for target and waits for the matching reply.
// It fails with core.ErrNoReply when the socket read fails or every attempt
// times out.
func (r *Resolver) Resolve(ctx context.Context, target netip.Addr) (net.HardwareAddr, error) {
	if !target.Is4() {
		return nil, errors.Wrapf(core.ErrUnsupportedProto, "arp target %s is not IPv4", target)
	}

	req := RequestFrame(r.hw, r.ip, target)
	attempts := r.cfg.Retries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			r.state = Failed
			return nil, err
		}

		if err := r.conn.Send(req, ethernet.Broadcast); err != nil {
			r.state = Failed
			return nil, errors.Wrapf(err, "send arp request for %s", target)
		}
		r.state = AwaitingReply
		r.log.Debugf("who-has %s tell %s (attempt %d/%d)", target, r.ip, attempt, attempts)

		hw, err := r.await(ctx, target)
		if err == nil {
			r.state = Resolved
			return hw, nil
		}
		if ctx.Err() != nil {
			r.state = Failed
			return nil, ctx.Err()
		}
		if !isTimeout(err) {
			r.state = Failed
			return nil, errors.Wrapf(core.ErrNoReply, "waiting for %s: %v", target, err)
		}
		r.log.WithField("target", target.String()).Debug("arp request timed out")
	}

	r.state = Failed
	return nil, errors.Wrapf(core.ErrNoReply, "%s did not answer %d requests", target, attempts)
}

// await receives frames until a reply for target arrives or reading fails.
func (r *Resolver) await(ctx context.Context, target netip.Addr) (net.HardwareAddr, error) {
	var deadline time.Time
	if r.cfg.Timeout > 0 {
		deadline = time.Now().Add(r.cfg.Timeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if err := r.conn.SetReadDeadline(deadline); err != nil {
		return nil, errors.Wrap(err, "set read deadline")
	}

	for {
		f, err := r.conn.Receive()
		if err != nil {
			return nil, err
		}
		hw, err := ParseReply(f.Data, target, r.cfg.VerifySender)
		if errors.Is(err, core.ErrNoMatch) {
			continue
		}
		return hw, err
	}
}

// RequestFrame builds the broadcast who-has frame for target.
func RequestFrame(hw net.HardwareAddr, ip, target netip.Addr) []byte {
	b := codec.Ether.Encode(codec.EtherHeader{
		Destination: ethernet.Broadcast,
		Source:      hw,
		EtherType:   core.EtherTypeARP,
	})
	return append(b, codec.ARP.Encode(codec.NewARPRequest(hw, ip, target))...)
}

// ParseReply extracts the sender hardware address from an ARP reply frame.
// Frames that are not a reply (for target, when verify is set) yield
// core.ErrNoMatch.
func ParseReply(frame []byte, target netip.Addr, verify bool) (net.HardwareAddr, error) {
	if len(frame) < RequestLen {
		return nil, errors.Wrapf(core.ErrNoMatch, "frame of %d bytes", len(frame))
	}
	eth, _, err := codec.Ether.Decode(frame)
	if err != nil || eth.EtherType != core.EtherTypeARP {
		return nil, errors.Wrapf(core.ErrNoMatch, "ethertype %s", eth.EtherType)
	}
	op := codec.ARPOperation(uint16(frame[opOffset])<<8 | uint16(frame[opOffset+1]))
	if op != codec.ARPReply {
		return nil, errors.Wrapf(core.ErrNoMatch, "arp operation %d", op)
	}
	if verify {
		sender := netip.AddrFrom4([4]byte(frame[senderIPOffset : senderIPOffset+4]))
		if sender != target {
			return nil, errors.Wrapf(core.ErrNoMatch, "reply from %s", sender)
		}
	}

	hw := make(net.HardwareAddr, 6)
	copy(hw, frame[senderHWOffset:senderHWOffset+6])
	return hw, nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
