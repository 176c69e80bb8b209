package filter

import (
	"bytes"
	"net"
	"net/netip"
	"strings"

	"github.com/pkg/errors"

	"github.com/XaydBayeck/ipw/internal/core"
	"github.com/XaydBayeck/ipw/internal/core/codec"
)

// Exchange is one decoded frame travelling through a FilterChain.
type Exchange struct {
	Frame   core.Frame
	Ether   codec.EtherHeader
	IPv4    codec.IPv4Header
	Payload []byte // IPv4 payload, without link-layer padding
}

// Filter inspects an exchange and either continues the chain or stops it.
type Filter interface {
	Filter(ex *Exchange, chain *FilterChain) error
}

// CounterFilter counts the exchanges that reach it.
type CounterFilter struct {
	count int
}

func (f *CounterFilter) Filter(ex *Exchange, chain *FilterChain) error {
	f.count++
	return chain.Filter(ex)
}

func NewCounterFilter() *CounterFilter {
	return &CounterFilter{count: 0}
}

func (f *CounterFilter) GetCount() int {
	return f.count
}

// Predicate selects frames by address. Unset fields match anything; set
// fields must all match exactly.
type Predicate struct {
	SrcMAC net.HardwareAddr
	DstMAC net.HardwareAddr
	SrcIP  netip.Addr
	DstIP  netip.Addr
}

// Match reports whether the headers satisfy every set field.
func (p Predicate) Match(eth codec.EtherHeader, ip codec.IPv4Header) bool {
	if len(p.SrcMAC) > 0 && !bytes.Equal(p.SrcMAC, eth.Source) {
		return false
	}
	if len(p.DstMAC) > 0 && !bytes.Equal(p.DstMAC, eth.Destination) {
		return false
	}
	if p.SrcIP.IsValid() && p.SrcIP != ip.Source {
		return false
	}
	if p.DstIP.IsValid() && p.DstIP != ip.Destination {
		return false
	}
	return true
}

// Filter continues the chain for matching exchanges and returns
// core.ErrNoMatch otherwise.
func (p Predicate) Filter(ex *Exchange, chain *FilterChain) error {
	if !p.Match(ex.Ether, ex.IPv4) {
		return errors.WithStack(core.ErrNoMatch)
	}
	return chain.Filter(ex)
}

func (p Predicate) String() string {
	var parts []string
	if len(p.SrcMAC) > 0 {
		parts = append(parts, "src mac "+p.SrcMAC.String())
	}
	if len(p.DstMAC) > 0 {
		parts = append(parts, "dst mac "+p.DstMAC.String())
	}
	if p.SrcIP.IsValid() {
		parts = append(parts, "src host "+p.SrcIP.String())
	}
	if p.DstIP.IsValid() {
		parts = append(parts, "dst host "+p.DstIP.String())
	}
	if len(parts) == 0 {
		return "any"
	}
	return strings.Join(parts, " and ")
}

// decodeExchange decodes the Ethernet and IPv4 headers of frame.
func decodeExchange(frame core.Frame) (*Exchange, error) {
	hdr, rest, err := codec.EtherIPv4.Decode(frame.Data)
	if err != nil {
		return nil, err
	}
	if hdr.First.EtherType != core.EtherTypeIP {
		return nil, errors.Wrapf(core.ErrUnsupportedProto, "ethertype %s", hdr.First.EtherType)
	}
	if n := hdr.Second.PayloadLen(); n < len(rest) {
		rest = rest[:n]
	}
	return &Exchange{
		Frame:   frame,
		Ether:   hdr.First,
		IPv4:    hdr.Second,
		Payload: rest,
	}, nil
}
