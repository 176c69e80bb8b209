package sender

import (
	"errors"
	"net"
	"net/netip"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XaydBayeck/ipw/internal/core"
	"github.com/XaydBayeck/ipw/internal/core/codec"
)

var (
	localMAC  = net.HardwareAddr{0x02, 0, 0, 0, 0, 0x01}
	remoteMAC = net.HardwareAddr{0x02, 0, 0, 0, 0, 0x02}
	localIP   = netip.MustParseAddr("10.0.0.1")
	remoteIP  = netip.MustParseAddr("10.0.0.5")
)

type captureConn struct {
	frame []byte
	dst   net.HardwareAddr
	err   error
}

func (c *captureConn) Send(frame []byte, dst net.HardwareAddr) error {
	c.frame, c.dst = frame, dst
	return c.err
}

func TestSendRawPayload(t *testing.T) {
	conn := &captureConn{}
	s := New(conn, localMAC, localIP, 0)

	n, err := s.Send(Request{
		DstMAC:   remoteMAC,
		DstIP:    remoteIP,
		Protocol: core.ProtocolUDP,
		ID:       9,
		Payload:  []byte{1, 2, 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 14+20+3, n)
	assert.Equal(t, remoteMAC, conn.dst)

	pkt := gopacket.NewPacket(conn.frame, layers.LayerTypeEthernet, gopacket.Default)
	eth := pkt.Layer(layers.LayerTypeEthernet).(*layers.Ethernet)
	assert.Equal(t, localMAC, eth.SrcMAC)
	assert.Equal(t, remoteMAC, eth.DstMAC)

	ip := pkt.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
	assert.Equal(t, uint16(23), ip.Length)
	assert.Equal(t, uint16(9), ip.Id)
	assert.Equal(t, uint8(codec.DefaultTTL), ip.TTL)
	assert.Equal(t, layers.IPProtocolUDP, ip.Protocol)
	assert.Equal(t, layers.IPv4DontFragment, ip.Flags)
	assert.True(t, ip.SrcIP.Equal(net.IPv4(10, 0, 0, 1)))
	assert.True(t, ip.DstIP.Equal(net.IPv4(10, 0, 0, 5)))
	assert.True(t, codec.Verify(conn.frame[14:34]))
	assert.Equal(t, []byte{1, 2, 3}, conn.frame[34:])
}

func TestSendEcho(t *testing.T) {
	conn := &captureConn{}
	s := New(conn, localMAC, netip.Addr{}, 32)

	_, err := s.Send(Request{
		DstMAC:   remoteMAC,
		DstIP:    remoteIP,
		Protocol: core.ProtocolTCP,
		Payload:  []byte("ping"),
		Echo:     &codec.ICMPEcho{ID: 0x1234, Seq: 3},
	})
	require.NoError(t, err)

	pkt := gopacket.NewPacket(conn.frame, layers.LayerTypeEthernet, gopacket.Default)
	ip := pkt.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
	assert.Equal(t, layers.IPProtocolICMPv4, ip.Protocol)
	assert.Equal(t, uint8(32), ip.TTL)
	assert.True(t, ip.SrcIP.Equal(net.IPv4zero))

	icmp := pkt.Layer(layers.LayerTypeICMPv4).(*layers.ICMPv4)
	assert.Equal(t, uint8(layers.ICMPv4TypeEchoRequest), icmp.TypeCode.Type())
	assert.Equal(t, uint16(0x1234), icmp.Id)
	assert.Equal(t, uint16(3), icmp.Seq)
	assert.Equal(t, []byte("ping"), icmp.Payload)
	assert.True(t, codec.Verify(conn.frame[34:]))
}

func TestBuildOptions(t *testing.T) {
	s := New(&captureConn{}, localMAC, localIP, 0)
	frame, err := s.Build(Request{DstMAC: remoteMAC, DstIP: remoteIP, Options: []byte{0x01}})
	require.NoError(t, err)

	ip, rest, err := codec.IPv4.Decode(frame[14:])
	require.NoError(t, err)
	assert.Equal(t, 24, ip.HeaderLen)
	assert.Equal(t, uint16(24), ip.TotalLen)
	assert.Equal(t, []byte{0x01, 0, 0, 0}, ip.Options)
	assert.True(t, ip.ChecksumValid())
	assert.Empty(t, rest)

	_, err = s.Build(Request{DstMAC: remoteMAC, DstIP: remoteIP, Options: make([]byte, 44)})
	assert.ErrorIs(t, err, core.ErrInvalidHeader)
}

func TestBuildRejects(t *testing.T) {
	s := New(&captureConn{}, localMAC, localIP, 0)

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{name: "short mac", req: Request{DstMAC: remoteMAC[:4], DstIP: remoteIP}, want: core.ErrInvalidHeader},
		{name: "ipv6", req: Request{DstMAC: remoteMAC, DstIP: netip.MustParseAddr("::1")}, want: core.ErrInvalidHeader},
		{name: "unset ip", req: Request{DstMAC: remoteMAC}, want: core.ErrInvalidHeader},
		{
			name: "oversized payload",
			req:  Request{DstMAC: remoteMAC, DstIP: remoteIP, Payload: make([]byte, 0xffff)},
			want: core.ErrInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Build(tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSendTransportError(t *testing.T) {
	boom := errors.New("network down")
	s := New(&captureConn{err: boom}, localMAC, localIP, 0)
	_, err := s.Send(Request{DstMAC: remoteMAC, DstIP: remoteIP})
	assert.ErrorIs(t, err, boom)
}
