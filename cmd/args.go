package cmd

import (
	"net"
	"net/netip"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/XaydBayeck/ipw/internal/core"
)

// parseMAC accepts colon or dash separated hardware addresses and the
// dotted hex form "aa.bb.cc.dd.ee.ff".
func parseMAC(s string) (net.HardwareAddr, error) {
	if strings.Count(s, ".") == 5 {
		hw := make(net.HardwareAddr, 0, 6)
		for _, part := range strings.Split(s, ".") {
			b, err := strconv.ParseUint(part, 16, 8)
			if err != nil {
				return nil, errors.Wrapf(core.ErrInvalidHeader, "mac address %q", s)
			}
			hw = append(hw, byte(b))
		}
		return hw, nil
	}

	hw, err := net.ParseMAC(s)
	if err != nil || len(hw) != 6 {
		return nil, errors.Wrapf(core.ErrInvalidHeader, "mac address %q", s)
	}
	return hw, nil
}

// parseIPv4 accepts a dotted-quad address or "localhost".
func parseIPv4(s string) (netip.Addr, error) {
	if s == "localhost" {
		return netip.AddrFrom4([4]byte{127, 0, 0, 1}), nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return netip.Addr{}, errors.Wrapf(core.ErrInvalidHeader, "ipv4 address %q", s)
	}
	return addr, nil
}

// macValue is a pflag.Value holding an optional hardware address.
type macValue struct {
	hw net.HardwareAddr
}

func (v *macValue) Set(s string) error {
	hw, err := parseMAC(s)
	if err != nil {
		return err
	}
	v.hw = hw
	return nil
}

func (v *macValue) String() string { return v.hw.String() }
func (v *macValue) Type() string   { return "mac" }

// ipv4Value is a pflag.Value holding an optional IPv4 address.
type ipv4Value struct {
	addr netip.Addr
}

func (v *ipv4Value) Set(s string) error {
	addr, err := parseIPv4(s)
	if err != nil {
		return err
	}
	v.addr = addr
	return nil
}

func (v *ipv4Value) String() string {
	if !v.addr.IsValid() {
		return ""
	}
	return v.addr.String()
}

func (v *ipv4Value) Type() string { return "ipv4" }

// protocolValue is a pflag.Value for TCP, UDP, ICMP or a decimal number.
type protocolValue struct {
	proto core.Protocol
}

func (v *protocolValue) Set(s string) error {
	p, err := core.ParseProtocol(s)
	if err != nil {
		return err
	}
	v.proto = p
	return nil
}

func (v *protocolValue) String() string { return v.proto.String() }
func (v *protocolValue) Type() string   { return "protocol" }
