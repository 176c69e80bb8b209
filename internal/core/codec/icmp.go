package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"

	"github.com/XaydBayeck/ipw/internal/core"
)

const (
	icmpBaseLen = 4
	icmpEchoLen = 8
)

// ICMPType is the ICMP message type.
type ICMPType uint8

const (
	ICMPEchoReply              ICMPType = 0
	ICMPDestinationUnreachable ICMPType = 3
	ICMPSourceQuench           ICMPType = 4
	ICMPRedirect               ICMPType = 5
	ICMPEchoRequest            ICMPType = 8
	ICMPRouterAdvertisement    ICMPType = 9
	ICMPRouterSolicitation     ICMPType = 10
	ICMPTimeExceeded           ICMPType = 11
	ICMPParameterProblem       ICMPType = 12
	ICMPTimestamp              ICMPType = 13
	ICMPTimestampReply         ICMPType = 14
	ICMPInfoRequest            ICMPType = 15
	ICMPInfoReply              ICMPType = 16
	ICMPAddressMaskRequest     ICMPType = 17
	ICMPAddressMaskReply       ICMPType = 18
)

// HasIdentifier reports whether messages of type t carry an identifier and
// sequence number after the checksum.
func (t ICMPType) HasIdentifier() bool {
	switch t {
	case ICMPEchoReply, ICMPEchoRequest, ICMPRouterAdvertisement, ICMPRouterSolicitation,
		ICMPTimestamp, ICMPTimestampReply, ICMPInfoRequest, ICMPInfoReply,
		ICMPAddressMaskRequest, ICMPAddressMaskReply:
		return true
	}
	return false
}

// ICMPEcho is the identifier/sequence pair of query messages.
type ICMPEcho struct {
	ID  uint16
	Seq uint16
}

// ICMPHeader is an ICMP header. Echo is set iff Type.HasIdentifier.
type ICMPHeader struct {
	Type     ICMPType
	Code     uint8
	Checksum uint16
	Echo     *ICMPEcho
}

// NewICMP returns a header for (typ, code) with a zero identifier and
// sequence when the type carries them.
func NewICMP(typ ICMPType, code uint8) ICMPHeader {
	h := ICMPHeader{Type: typ, Code: code}
	if typ.HasIdentifier() {
		h.Echo = &ICMPEcho{}
	}
	return h
}

func (h ICMPHeader) WithIdent(id uint16) ICMPHeader {
	e := h.echo()
	e.ID = id
	h.Echo = &e
	return h
}

func (h ICMPHeader) WithSeq(seq uint16) ICMPHeader {
	e := h.echo()
	e.Seq = seq
	h.Echo = &e
	return h
}

func (h ICMPHeader) echo() ICMPEcho {
	if h.Echo == nil {
		return ICMPEcho{}
	}
	return *h.Echo
}

// Len is the encoded header length, 8 for query types and 4 otherwise.
func (h ICMPHeader) Len() int {
	if h.Type.HasIdentifier() {
		return icmpEchoLen
	}
	return icmpBaseLen
}

// WithChecksum computes the checksum over the header followed by payload.
func (h ICMPHeader) WithChecksum(payload []byte) ICMPHeader {
	h.Checksum = 0
	b := append(icmpCodec{}.Encode(h), payload...)
	h.Checksum = Checksum(b)
	return h
}

// ChecksumValid reports whether the stored checksum matches header and
// payload.
func (h ICMPHeader) ChecksumValid(payload []byte) bool {
	return Verify(append(icmpCodec{}.Encode(h), payload...))
}

var icmpDescriptions = map[[2]uint8]string{
	{0, 0}:  "echo reply",
	{8, 0}:  "echo request",
	{9, 0}:  "router advertisement",
	{10, 0}: "router solicitation",
	{13, 0}: "timestamp request (obsolete)",
	{14, 0}: "timestamp reply (obsolete)",
	{15, 0}: "information request (obsolete)",
	{16, 0}: "information reply (obsolete)",
	{17, 0}: "address mask request",
	{18, 0}: "address mask reply",
	{3, 0}:  "network unreachable",
	{3, 1}:  "host unreachable",
	{3, 2}:  "protocol unreachable",
	{3, 3}:  "port unreachable",
	{3, 6}:  "destination network unknown",
	{3, 7}:  "destination host unknown",
	{3, 9}:  "destination network administratively prohibited",
	{3, 10}: "destination host administratively prohibited",
	{3, 11}: "network unreachable for TOS",
	{3, 12}: "host unreachable for TOS",
	{3, 13}: "communication administratively prohibited by filtering",
	{4, 0}:  "source quench",
	{5, 0}:  "redirect for network",
	{5, 1}:  "redirect for host",
	{5, 2}:  "redirect for TOS and network",
	{5, 3}:  "redirect for TOS and host",
	{11, 0}: "TTL expired in transit",
	{11, 1}: "fragment reassembly time exceeded",
	{12, 0}: "bad IP header",
	{12, 1}: "required option missing",
}

// Describe returns a short description of the type and code.
func (h ICMPHeader) Describe() string {
	if d, ok := icmpDescriptions[[2]uint8{uint8(h.Type), h.Code}]; ok {
		return d
	}
	return fmt.Sprintf("undefined (type %d, code %d)", h.Type, h.Code)
}

type icmpCodec struct{}

func (icmpCodec) Decode(b []byte) (ICMPHeader, []byte, error) {
	if len(b) < icmpBaseLen {
		return ICMPHeader{}, nil, errors.Wrapf(core.ErrTruncatedHeader,
			"icmp: need %d bytes, have %d", icmpBaseLen, len(b))
	}
	h := ICMPHeader{
		Type:     ICMPType(b[0]),
		Code:     b[1],
		Checksum: binary.BigEndian.Uint16(b[2:4]),
	}
	if !h.Type.HasIdentifier() {
		return h, b[icmpBaseLen:], nil
	}
	if len(b) < icmpEchoLen {
		return ICMPHeader{}, nil, errors.Wrapf(core.ErrTruncatedHeader,
			"icmp: type %d needs %d bytes, have %d", h.Type, icmpEchoLen, len(b))
	}
	h.Echo = &ICMPEcho{
		ID:  binary.BigEndian.Uint16(b[4:6]),
		Seq: binary.BigEndian.Uint16(b[6:8]),
	}
	return h, b[icmpEchoLen:], nil
}

func (icmpCodec) Encode(h ICMPHeader) []byte {
	b := make([]byte, h.Len())
	b[0] = byte(h.Type)
	b[1] = h.Code
	binary.BigEndian.PutUint16(b[2:4], h.Checksum)
	if h.Type.HasIdentifier() {
		e := h.echo()
		binary.BigEndian.PutUint16(b[4:6], e.ID)
		binary.BigEndian.PutUint16(b[6:8], e.Seq)
	}
	return b
}
