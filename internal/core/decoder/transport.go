package decoder

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/pkg/errors"

	"github.com/XaydBayeck/ipw/internal/core"
)

// TCP flag bits as they appear in byte 13 of the header.
const (
	tcpFIN = 1 << iota
	tcpSYN
	tcpRST
	tcpPSH
	tcpACK
	tcpURG
)

// decodeTransport decodes a TCP or UDP header. Payload interpretation stops
// here.
func decodeTransport(data []byte, protocol core.Protocol) (Transport, []byte, error) {
	switch protocol {
	case core.ProtocolTCP:
		var tcp layers.TCP
		if err := tcp.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
			return Transport{}, nil, errors.Wrapf(core.ErrTruncatedHeader, "tcp: %v", err)
		}
		return Transport{
			Protocol: protocol,
			SrcPort:  uint16(tcp.SrcPort),
			DstPort:  uint16(tcp.DstPort),
			TCPFlags: tcpFlags(&tcp),
			Seq:      tcp.Seq,
			Ack:      tcp.Ack,
		}, tcp.Payload, nil
	case core.ProtocolUDP:
		var udp layers.UDP
		if err := udp.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
			return Transport{}, nil, errors.Wrapf(core.ErrTruncatedHeader, "udp: %v", err)
		}
		return Transport{
			Protocol: protocol,
			SrcPort:  uint16(udp.SrcPort),
			DstPort:  uint16(udp.DstPort),
		}, udp.Payload, nil
	default:
		return Transport{Protocol: protocol}, data, nil
	}
}

func tcpFlags(tcp *layers.TCP) uint8 {
	var f uint8
	set := func(on bool, bit uint8) {
		if on {
			f |= bit
		}
	}
	set(tcp.FIN, tcpFIN)
	set(tcp.SYN, tcpSYN)
	set(tcp.RST, tcpRST)
	set(tcp.PSH, tcpPSH)
	set(tcp.ACK, tcpACK)
	set(tcp.URG, tcpURG)
	return f
}
