package codec

import (
	"encoding/binary"
	"net"
	"net/netip"

	"github.com/mdlayher/ethernet"
	"github.com/pkg/errors"

	"github.com/XaydBayeck/ipw/internal/core"
)

// ARPPacketLen is the length of an ARP body for Ethernet and IPv4.
const ARPPacketLen = 28

// ARPOperation is an ARP operation code.
type ARPOperation uint16

const (
	ARPRequest ARPOperation = 1
	ARPReply   ARPOperation = 2
)

const arpHardwareEthernet = 1

// ARPPacket is an ARP body for Ethernet hardware and IPv4 protocol
// addresses.
type ARPPacket struct {
	HardwareType uint16
	ProtocolType core.EtherType
	HWLen        uint8
	ProtoLen     uint8
	Operation    ARPOperation
	SenderHW     net.HardwareAddr
	SenderIP     netip.Addr
	TargetHW     net.HardwareAddr
	TargetIP     netip.Addr
}

// NewARPRequest asks who owns target. The target hardware address is the
// broadcast address.
func NewARPRequest(senderHW net.HardwareAddr, senderIP, target netip.Addr) ARPPacket {
	return ARPPacket{
		HardwareType: arpHardwareEthernet,
		ProtocolType: core.EtherTypeIP,
		HWLen:        hwAddrLen,
		ProtoLen:     4,
		Operation:    ARPRequest,
		SenderHW:     senderHW,
		SenderIP:     senderIP,
		TargetHW:     ethernet.Broadcast,
		TargetIP:     target,
	}
}

type arpCodec struct{}

func (arpCodec) Decode(b []byte) (ARPPacket, []byte, error) {
	if len(b) < ARPPacketLen {
		return ARPPacket{}, nil, errors.Wrapf(core.ErrTruncatedHeader,
			"arp: need %d bytes, have %d", ARPPacketLen, len(b))
	}
	p := ARPPacket{
		HardwareType: binary.BigEndian.Uint16(b[0:2]),
		ProtocolType: core.EtherType(binary.BigEndian.Uint16(b[2:4])),
		HWLen:        b[4],
		ProtoLen:     b[5],
		Operation:    ARPOperation(binary.BigEndian.Uint16(b[6:8])),
	}
	if p.HWLen != hwAddrLen || p.ProtoLen != 4 {
		return ARPPacket{}, nil, errors.Wrapf(core.ErrUnsupportedProto,
			"arp: address lengths %d/%d", p.HWLen, p.ProtoLen)
	}
	p.SenderHW = cloneHW(b[8:14])
	p.SenderIP = netip.AddrFrom4([4]byte(b[14:18]))
	p.TargetHW = cloneHW(b[18:24])
	p.TargetIP = netip.AddrFrom4([4]byte(b[24:28]))
	return p, b[ARPPacketLen:], nil
}

func (arpCodec) Encode(p ARPPacket) []byte {
	b := make([]byte, ARPPacketLen)
	binary.BigEndian.PutUint16(b[0:2], p.HardwareType)
	binary.BigEndian.PutUint16(b[2:4], uint16(p.ProtocolType))
	b[4] = p.HWLen
	b[5] = p.ProtoLen
	binary.BigEndian.PutUint16(b[6:8], uint16(p.Operation))
	copy(b[8:14], p.SenderHW)
	putIPv4(b[14:18], p.SenderIP)
	copy(b[18:24], p.TargetHW)
	putIPv4(b[24:28], p.TargetIP)
	return b
}
