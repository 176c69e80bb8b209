package codec

import (
	"encoding/binary"
	"net"

	"github.com/pkg/errors"

	"github.com/XaydBayeck/ipw/internal/core"
)

const (
	// EtherHeaderLen is the length of an untagged Ethernet header.
	EtherHeaderLen = 14
	hwAddrLen      = 6
)

// EtherHeader is an untagged Ethernet II header.
type EtherHeader struct {
	Destination net.HardwareAddr
	Source      net.HardwareAddr
	EtherType   core.EtherType
}

type etherCodec struct{}

func (etherCodec) Decode(b []byte) (EtherHeader, []byte, error) {
	if len(b) < EtherHeaderLen {
		return EtherHeader{}, nil, errors.Wrapf(core.ErrTruncatedHeader,
			"ethernet: need %d bytes, have %d", EtherHeaderLen, len(b))
	}
	h := EtherHeader{
		Destination: cloneHW(b[0:6]),
		Source:      cloneHW(b[6:12]),
		EtherType:   core.EtherType(binary.BigEndian.Uint16(b[12:14])),
	}
	return h, b[EtherHeaderLen:], nil
}

// Encode always emits 14 bytes; addresses shorter than 6 bytes are
// zero-filled and longer ones truncated.
func (etherCodec) Encode(h EtherHeader) []byte {
	b := make([]byte, EtherHeaderLen)
	copy(b[0:6], h.Destination)
	copy(b[6:12], h.Source)
	binary.BigEndian.PutUint16(b[12:14], uint16(h.EtherType))
	return b
}

func cloneHW(b []byte) net.HardwareAddr {
	hw := make(net.HardwareAddr, len(b))
	copy(hw, b)
	return hw
}
