// Package socket sends and receives whole link-layer frames on one network
// interface through an AF_PACKET socket.
package socket

import (
	"net"
	"time"

	"github.com/mdlayher/raw"
	"github.com/pkg/errors"
	"golang.org/x/net/bpf"
	"golang.org/x/sys/unix"

	"github.com/XaydBayeck/ipw/internal/core"
	"github.com/XaydBayeck/ipw/internal/log"
)

// EtherFilter selects which frames the kernel delivers to a socket.
type EtherFilter uint16

const (
	FilterAll  EtherFilter = unix.ETH_P_ALL
	FilterIPv4 EtherFilter = unix.ETH_P_IP
	FilterARP  EtherFilter = unix.ETH_P_ARP
)

func (f EtherFilter) String() string {
	switch f {
	case FilterAll:
		return "all"
	case FilterIPv4:
		return "ipv4"
	case FilterARP:
		return "arp"
	default:
		return "unknown"
	}
}

// DefaultCapacity is the receive buffer size used when none is given.
const DefaultCapacity = 256

// FrameConn is the frame-level view of a socket used by the resolver and the
// capture loops.
type FrameConn interface {
	Send(frame []byte, dst net.HardwareAddr) error
	Receive() (core.Frame, error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// Stats are kernel counters for the socket since it was opened.
type Stats struct {
	Packets uint64
	Drops   uint64
}

// Socket is a raw frame socket bound to one interface. It is used by one
// goroutine at a time; Close may be called concurrently to unblock Receive.
type Socket struct {
	conn net.PacketConn
	ifi  *net.Interface
	buf  []byte
	log  log.Logger
}

var _ FrameConn = (*Socket)(nil)

// Open opens a raw socket on ifi delivering frames that match filter. At
// most capacity bytes of each frame are received.
func Open(ifi *net.Interface, filter EtherFilter, capacity int) (*Socket, error) {
	conn, err := raw.ListenPacket(ifi, uint16(filter), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s socket on %s", filter, ifi.Name)
	}
	s := New(conn, ifi, capacity)
	s.log.Debugf("opened %s socket, capacity %d", filter, len(s.buf))
	return s, nil
}

// New wraps an already open packet connection.
func New(conn net.PacketConn, ifi *net.Interface, capacity int) *Socket {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Socket{
		conn: conn,
		ifi:  ifi,
		buf:  make([]byte, capacity),
		log:  log.GetLogger().WithField("interface", ifi.Name),
	}
}

// Interface returns the interface the socket is bound to.
func (s *Socket) Interface() *net.Interface {
	return s.ifi
}

// Send transmits a complete, pre-built frame to dst.
func (s *Socket) Send(frame []byte, dst net.HardwareAddr) error {
	n, err := s.conn.WriteTo(frame, &raw.Addr{HardwareAddr: dst})
	if err != nil {
		return errors.Wrapf(err, "send %d bytes to %s", len(frame), dst)
	}
	if n != len(frame) {
		return errors.Errorf("short write to %s: %d of %d bytes", dst, n, len(frame))
	}
	return nil
}

// Receive blocks until a frame arrives. The frame is copied out of the
// receive buffer and marked truncated when it filled the buffer.
func (s *Socket) Receive() (core.Frame, error) {
	n, addr, err := s.conn.ReadFrom(s.buf)
	if err != nil {
		return core.Frame{}, errors.Wrap(err, "receive")
	}

	f := core.Frame{
		Data:      append([]byte(nil), s.buf[:n]...),
		Timestamp: time.Now(),
		Truncated: n == len(s.buf),
		Source:    core.LinkAddr{Index: s.ifi.Index},
	}
	if ra, ok := addr.(*raw.Addr); ok {
		f.Source.HardwareAddr = ra.HardwareAddr
	}
	return f, nil
}

func (s *Socket) SetReadDeadline(t time.Time) error {
	return s.conn.SetReadDeadline(t)
}

// SetBPF attaches a classic BPF program. The underlying connection must
// support filters.
func (s *Socket) SetBPF(prog []bpf.Instruction) error {
	f, ok := s.conn.(interface {
		SetBPF([]bpf.RawInstruction) error
	})
	if !ok {
		return errors.Wrap(core.ErrUnsupportedProto, "connection does not support BPF")
	}
	ins, err := bpf.Assemble(prog)
	if err != nil {
		return errors.Wrap(err, "assemble bpf")
	}
	return errors.Wrap(f.SetBPF(ins), "attach bpf")
}

// SetPromiscuous toggles promiscuous mode on the interface.
func (s *Socket) SetPromiscuous(on bool) error {
	p, ok := s.conn.(interface{ SetPromiscuous(bool) error })
	if !ok {
		return errors.Wrap(core.ErrUnsupportedProto, "connection does not support promiscuous mode")
	}
	return errors.Wrap(p.SetPromiscuous(on), "set promiscuous")
}

// Stats returns the kernel's packet counters.
func (s *Socket) Stats() (Stats, error) {
	st, ok := s.conn.(interface{ Stats() (*raw.Stats, error) })
	if !ok {
		return Stats{}, errors.Wrap(core.ErrUnsupportedProto, "connection does not report stats")
	}
	rs, err := st.Stats()
	if err != nil {
		return Stats{}, errors.Wrap(err, "read stats")
	}
	return Stats{Packets: rs.Packets, Drops: rs.Drops}, nil
}

func (s *Socket) Close() error {
	return s.conn.Close()
}
