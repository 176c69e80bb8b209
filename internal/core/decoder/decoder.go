// Package decoder selects and decodes the layers of a captured frame at
// runtime, following the Ethernet type and then the IPv4 protocol number.
package decoder

import (
	"github.com/XaydBayeck/ipw/internal/core"
	"github.com/XaydBayeck/ipw/internal/core/codec"
)

// Decoder decodes captured frames into their layers.
type Decoder interface {
	Decode(frame []byte) (Packet, error)
}

// Packet is a decoded frame. Layers that were not present, or that follow a
// layer this package does not interpret, are nil.
type Packet struct {
	Ether     codec.EtherHeader
	VLANs     []uint16 // Outer tag first
	ARP       *codec.ARPPacket
	IPv4      *codec.IPv4Header
	ICMP      *codec.ICMPHeader
	Transport *Transport
	Payload   []byte // Bytes after the last decoded layer
}

// Transport carries the TCP or UDP header fields used for display.
type Transport struct {
	Protocol core.Protocol
	SrcPort  uint16
	DstPort  uint16
	TCPFlags uint8
	Seq      uint32
	Ack      uint32
}

// LinkDecoder is the default Decoder.
type LinkDecoder struct{}

// New returns a Decoder for Ethernet frames.
func New() Decoder {
	return LinkDecoder{}
}

// Decode walks the frame layer by layer. On error the layers decoded so far
// are returned alongside it.
func (LinkDecoder) Decode(frame []byte) (Packet, error) {
	var pkt Packet

	eth, vlans, rest, err := decodeEthernet(frame)
	if err != nil {
		return pkt, err
	}
	pkt.Ether = eth
	pkt.VLANs = vlans
	pkt.Payload = rest

	switch eth.EtherType {
	case core.EtherTypeARP:
		arp, rest, err := codec.ARP.Decode(rest)
		if err != nil {
			return pkt, err
		}
		pkt.ARP = &arp
		pkt.Payload = rest
	case core.EtherTypeIP:
		return decodeIP(pkt, rest)
	}
	return pkt, nil
}
