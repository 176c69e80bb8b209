package codec

import (
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XaydBayeck/ipw/internal/core"
)

func TestICMPRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		h       ICMPHeader
		wantLen int
	}{
		{"echo request", NewICMP(ICMPEchoRequest, 0).WithIdent(0x1234).WithSeq(7), 8},
		{"echo reply", NewICMP(ICMPEchoReply, 0).WithIdent(1).WithSeq(65535), 8},
		{"host unreachable", NewICMP(ICMPDestinationUnreachable, 1), 4},
		{"time exceeded", NewICMP(ICMPTimeExceeded, 0).WithChecksum(nil), 4},
		{"address mask", NewICMP(ICMPAddressMaskRequest, 0).WithChecksum([]byte{0, 0, 0, 0}), 8},
	}

	for i, tt := range tests {
		b := ICMP.Encode(tt.h)
		if want, got := tt.wantLen, len(b); want != got {
			t.Fatalf("[%02d] test %q, unexpected length: want %d, got %d", i, tt.name, want, got)
		}

		got, rest, err := ICMP.Decode(append(b, 0xaa))
		require.NoError(t, err, tt.name)
		assert.Equal(t, []byte{0xaa}, rest, tt.name)
		assert.Equal(t, tt.h, got, tt.name)
	}
}

func TestICMPIdentifierFamily(t *testing.T) {
	for typ := 0; typ < 256; typ++ {
		want := false
		switch typ {
		case 0, 8, 9, 10, 13, 14, 15, 16, 17, 18:
			want = true
		}
		assert.Equal(t, want, ICMPType(typ).HasIdentifier(), "type %d", typ)
	}
}

func TestICMPUnreachableIgnoresEcho(t *testing.T) {
	h := NewICMP(ICMPDestinationUnreachable, 3).WithIdent(9)
	assert.Len(t, ICMP.Encode(h), 4)
}

func TestICMPChecksumMatchesGopacket(t *testing.T) {
	payload := []byte("abcdefghijklmnopqrstuvwabcdefghi")
	h := NewICMP(ICMPEchoRequest, 0).WithIdent(0x0200).WithSeq(0x0b00).WithChecksum(payload)

	icmp := &layers.ICMPv4{
		TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0),
		Id:       0x0200,
		Seq:      0x0b00,
	}
	buf := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{ComputeChecksums: true},
		icmp, gopacket.Payload(payload))
	require.NoError(t, err)

	assert.Equal(t, icmp.Checksum, h.Checksum)
	assert.Equal(t, buf.Bytes(), append(ICMP.Encode(h), payload...))
	assert.True(t, h.ChecksumValid(payload))

	bad := append([]byte(nil), payload...)
	bad[0] ^= 0xff
	assert.False(t, h.ChecksumValid(bad))
}

func TestICMPDecodeTruncated(t *testing.T) {
	_, _, err := ICMP.Decode([]byte{0x03, 0x01, 0x00})
	assert.True(t, errors.Is(err, core.ErrTruncatedHeader))

	// Echo needs identifier and sequence.
	_, _, err = ICMP.Decode([]byte{0x08, 0x00, 0x00, 0x00, 0x00, 0x01})
	assert.True(t, errors.Is(err, core.ErrTruncatedHeader))
}

func TestICMPDescribe(t *testing.T) {
	assert.Equal(t, "echo request", NewICMP(ICMPEchoRequest, 0).Describe())
	assert.Equal(t, "port unreachable", NewICMP(ICMPDestinationUnreachable, 3).Describe())
	assert.Equal(t, "TTL expired in transit", NewICMP(ICMPTimeExceeded, 0).Describe())
	assert.Equal(t, "undefined (type 42, code 9)", NewICMP(ICMPType(42), 9).Describe())
}
