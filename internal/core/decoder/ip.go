package decoder

import (
	"github.com/pkg/errors"

	"github.com/XaydBayeck/ipw/internal/core"
	"github.com/XaydBayeck/ipw/internal/core/codec"
)

// decodeIP decodes an IPv4 header and dispatches on its protocol. Link-layer
// padding beyond the announced total length is dropped.
func decodeIP(pkt Packet, data []byte) (Packet, error) {
	if len(data) > 0 && data[0]>>4 != 4 {
		return pkt, errors.Wrapf(core.ErrUnsupportedProto, "ip version %d", data[0]>>4)
	}

	ip, rest, err := codec.IPv4.Decode(data)
	if err != nil {
		return pkt, err
	}
	pkt.IPv4 = &ip
	if n := ip.PayloadLen(); n < len(rest) {
		rest = rest[:n]
	}
	pkt.Payload = rest

	// Only the first fragment carries the upper-layer header.
	if ip.FragmentOffset != 0 {
		return pkt, nil
	}

	switch ip.Protocol {
	case core.ProtocolICMP:
		icmp, rest, err := codec.ICMP.Decode(rest)
		if err != nil {
			return pkt, err
		}
		pkt.ICMP = &icmp
		pkt.Payload = rest
	case core.ProtocolTCP, core.ProtocolUDP:
		tr, rest, err := decodeTransport(rest, ip.Protocol)
		if err != nil {
			return pkt, err
		}
		pkt.Transport = &tr
		pkt.Payload = rest
	}
	return pkt, nil
}
