// Package core defines the protocol identifiers and frame types shared by the
// codec, socket and capture loops.
package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mdlayher/ethernet"
	"github.com/pkg/errors"
)

// EtherType identifies the payload carried by an Ethernet frame. Values
// without a named constant are kept verbatim.
type EtherType uint16

const (
	EtherTypeIP   = EtherType(ethernet.EtherTypeIPv4) // 0x0800
	EtherTypeARP  = EtherType(ethernet.EtherTypeARP)  // 0x0806
	EtherTypeVLAN = EtherType(ethernet.EtherTypeVLAN) // 0x8100, 802.1Q
	EtherTypeQinQ = EtherType(ethernet.EtherTypeServiceVLAN)
)

func (t EtherType) String() string {
	switch t {
	case EtherTypeIP:
		return "IP"
	case EtherTypeARP:
		return "ARP"
	case EtherTypeVLAN:
		return "VLAN"
	case EtherTypeQinQ:
		return "QinQ"
	default:
		return fmt.Sprintf("Other(0x%04x)", uint16(t))
	}
}

// Protocol is the IPv4 protocol number.
type Protocol uint8

const (
	ProtocolICMP Protocol = 1
	ProtocolTCP  Protocol = 6
	ProtocolUDP  Protocol = 17
)

func (p Protocol) String() string {
	switch p {
	case ProtocolICMP:
		return "ICMP"
	case ProtocolTCP:
		return "TCP"
	case ProtocolUDP:
		return "UDP"
	default:
		return fmt.Sprintf("Other(%d)", uint8(p))
	}
}

// ParseProtocol accepts TCP, UDP or ICMP (any case) or a decimal protocol
// number in 0..255.
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ICMP":
		return ProtocolICMP, nil
	case "TCP":
		return ProtocolTCP, nil
	case "UDP":
		return ProtocolUDP, nil
	}
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 8)
	if err != nil {
		return 0, errors.Wrapf(ErrUnsupportedProto, "parse protocol %q", s)
	}
	return Protocol(n), nil
}
