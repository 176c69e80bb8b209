package codec

import (
	"encoding/binary"
	"net/netip"

	"github.com/pkg/errors"

	"github.com/XaydBayeck/ipw/internal/core"
)

const (
	IPv4MinHeaderLen = 20
	IPv4MaxHeaderLen = 60

	DefaultTTL = 64

	flagDF         = 0x40 // in byte 6
	flagMF         = 0x20
	fragOffsetMask = 0x1fff
)

// IPv4Header is an IPv4 header including options. HeaderLen is in bytes, not
// 32-bit words.
//
// The With* methods return modified copies. Checksum is only correct right
// after WithChecksum; any later change leaves it stale.
type IPv4Header struct {
	Version        uint8
	HeaderLen      int
	TOS            uint8
	TotalLen       uint16
	ID             uint16
	DontFragment   bool
	MoreFragments  bool
	FragmentOffset uint16 // 13 bits, in 8-byte units
	TTL            uint8
	Protocol       core.Protocol
	Checksum       uint16
	Source         netip.Addr
	Destination    netip.Addr
	Options        []byte
}

// NewIPv4 returns a 20-byte header with no payload: DF set, TTL 64,
// protocol ICMP, source and destination 0.0.0.0.
func NewIPv4(id uint16) IPv4Header {
	return IPv4Header{
		Version:      4,
		HeaderLen:    IPv4MinHeaderLen,
		TotalLen:     IPv4MinHeaderLen,
		ID:           id,
		DontFragment: true,
		TTL:          DefaultTTL,
		Protocol:     core.ProtocolICMP,
		Source:       netip.IPv4Unspecified(),
		Destination:  netip.IPv4Unspecified(),
	}
}

func (h IPv4Header) WithTTL(ttl uint8) IPv4Header {
	h.TTL = ttl
	return h
}

func (h IPv4Header) WithProtocol(p core.Protocol) IPv4Header {
	h.Protocol = p
	return h
}

func (h IPv4Header) WithSource(addr netip.Addr) IPv4Header {
	h.Source = addr
	return h
}

func (h IPv4Header) WithDestination(addr netip.Addr) IPv4Header {
	h.Destination = addr
	return h
}

func (h IPv4Header) WithTOS(tos uint8) IPv4Header {
	h.TOS = tos
	return h
}

// WithPayloadLength sets the total length to the header length plus n.
func (h IPv4Header) WithPayloadLength(n int) IPv4Header {
	h.TotalLen = uint16(h.HeaderLen + n)
	return h
}

// AppendOptions zero-pads opts to a multiple of 4 bytes and appends them to
// the options section. Header and total length grow by the padded length.
func (h IPv4Header) AppendOptions(opts []byte) IPv4Header {
	padded := (len(opts) + 3) &^ 3
	out := make([]byte, len(h.Options), len(h.Options)+padded)
	copy(out, h.Options)
	out = append(out, opts...)
	out = append(out, make([]byte, padded-len(opts))...)
	h.Options = out
	h.HeaderLen += padded
	h.TotalLen += uint16(padded)
	return h
}

// WithChecksum computes the header checksum over the encoded header and
// options with the checksum field zeroed.
func (h IPv4Header) WithChecksum() IPv4Header {
	h.Checksum = 0
	h.Checksum = Checksum(ipv4Codec{}.Encode(h))
	return h
}

// ChecksumValid reports whether the stored checksum matches the header.
func (h IPv4Header) ChecksumValid() bool {
	return Verify(ipv4Codec{}.Encode(h))
}

// PayloadLen is the number of payload bytes the total length announces.
func (h IPv4Header) PayloadLen() int {
	return int(h.TotalLen) - h.HeaderLen
}

// Validate checks the length invariants of the header.
func (h IPv4Header) Validate() error {
	switch {
	case h.Version != 4:
		return errors.Wrapf(core.ErrInvalidHeader, "ipv4: version %d", h.Version)
	case h.HeaderLen < IPv4MinHeaderLen || h.HeaderLen > IPv4MaxHeaderLen || h.HeaderLen%4 != 0:
		return errors.Wrapf(core.ErrInvalidHeader, "ipv4: header length %d", h.HeaderLen)
	case h.HeaderLen != IPv4MinHeaderLen+len(h.Options):
		return errors.Wrapf(core.ErrInvalidHeader, "ipv4: header length %d with %d option bytes",
			h.HeaderLen, len(h.Options))
	case int(h.TotalLen) < h.HeaderLen:
		return errors.Wrapf(core.ErrInvalidHeader, "ipv4: total length %d below header length %d",
			h.TotalLen, h.HeaderLen)
	case h.FragmentOffset > fragOffsetMask:
		return errors.Wrapf(core.ErrInvalidHeader, "ipv4: fragment offset %d", h.FragmentOffset)
	case h.Source.IsValid() && !h.Source.Is4(), h.Destination.IsValid() && !h.Destination.Is4():
		return errors.Wrap(core.ErrInvalidHeader, "ipv4: non-IPv4 address")
	}
	return nil
}

type ipv4Codec struct{}

func (ipv4Codec) Decode(b []byte) (IPv4Header, []byte, error) {
	if len(b) < IPv4MinHeaderLen {
		return IPv4Header{}, nil, errors.Wrapf(core.ErrTruncatedHeader,
			"ipv4: need %d bytes, have %d", IPv4MinHeaderLen, len(b))
	}

	h := IPv4Header{
		Version:   b[0] >> 4,
		HeaderLen: int(b[0]&0x0f) * 4,
		TOS:       b[1],
		TotalLen:  binary.BigEndian.Uint16(b[2:4]),
		ID:        binary.BigEndian.Uint16(b[4:6]),
		TTL:       b[8],
		Protocol:  core.Protocol(b[9]),
		Checksum:  binary.BigEndian.Uint16(b[10:12]),
	}
	if h.HeaderLen < IPv4MinHeaderLen {
		return IPv4Header{}, nil, errors.Wrapf(core.ErrInvalidHeader,
			"ipv4: header length %d", h.HeaderLen)
	}
	if int(h.TotalLen) < h.HeaderLen {
		return IPv4Header{}, nil, errors.Wrapf(core.ErrInvalidHeader,
			"ipv4: total length %d below header length %d", h.TotalLen, h.HeaderLen)
	}

	frag := binary.BigEndian.Uint16(b[6:8])
	h.DontFragment = b[6]&flagDF != 0
	h.MoreFragments = b[6]&flagMF != 0
	h.FragmentOffset = frag & fragOffsetMask

	h.Source = netip.AddrFrom4([4]byte(b[12:16]))
	h.Destination = netip.AddrFrom4([4]byte(b[16:20]))

	// Options follow the fixed part.
	rest := b[IPv4MinHeaderLen:]
	if n := h.HeaderLen - IPv4MinHeaderLen; n > 0 {
		if len(rest) < n {
			return IPv4Header{}, nil, errors.Wrapf(core.ErrTruncatedHeader,
				"ipv4: need %d option bytes, have %d", n, len(rest))
		}
		h.Options = make([]byte, n)
		copy(h.Options, rest[:n])
		rest = rest[n:]
	}
	return h, rest, nil
}

func (ipv4Codec) Encode(h IPv4Header) []byte {
	b := make([]byte, IPv4MinHeaderLen, IPv4MinHeaderLen+len(h.Options))
	b[0] = h.Version<<4 | byte(h.HeaderLen/4)&0x0f
	b[1] = h.TOS
	binary.BigEndian.PutUint16(b[2:4], h.TotalLen)
	binary.BigEndian.PutUint16(b[4:6], h.ID)

	frag := h.FragmentOffset & fragOffsetMask
	binary.BigEndian.PutUint16(b[6:8], frag)
	if h.DontFragment {
		b[6] |= flagDF
	}
	if h.MoreFragments {
		b[6] |= flagMF
	}

	b[8] = h.TTL
	b[9] = byte(h.Protocol)
	binary.BigEndian.PutUint16(b[10:12], h.Checksum)
	putIPv4(b[12:16], h.Source)
	putIPv4(b[16:20], h.Destination)
	return append(b, h.Options...)
}

// putIPv4 writes addr into b; invalid or non-IPv4 addresses encode as zeros.
func putIPv4(b []byte, addr netip.Addr) {
	if addr.Is4() {
		a := addr.As4()
		copy(b, a[:])
	}
}
