package analyzer

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XaydBayeck/ipw/internal/core"
	"github.com/XaydBayeck/ipw/internal/core/codec"
)

type sliceReceiver struct {
	frames [][]byte
}

func (r *sliceReceiver) Receive() (core.Frame, error) {
	if len(r.frames) == 0 {
		return core.Frame{}, io.EOF
	}
	f := core.Frame{Data: r.frames[0]}
	r.frames = r.frames[1:]
	return f, nil
}

func ipFrame(t *testing.T, proto core.Protocol) []byte {
	t.Helper()
	eth := codec.EtherHeader{
		Destination: net.HardwareAddr{0x02, 0, 0, 0, 0, 1},
		Source:      net.HardwareAddr{0x02, 0, 0, 0, 0, 2},
		EtherType:   core.EtherTypeIP,
	}
	ip := codec.NewIPv4(1).
		WithProtocol(proto).
		WithDestination(netip.MustParseAddr("10.0.0.5")).
		WithChecksum()
	return codec.EtherIPv4.Encode(codec.Pair[codec.EtherHeader, codec.IPv4Header]{First: eth, Second: ip})
}

func TestTally(t *testing.T) {
	tally := NewTally()
	assert.Equal(t, "", tally.String())

	tally.Add(core.ProtocolTCP)
	tally.Add(core.ProtocolICMP)
	tally.Add(core.ProtocolTCP)
	tally.Add(core.Protocol(89))

	assert.Equal(t, uint64(2), tally.Count(core.ProtocolTCP))
	assert.Equal(t, uint64(0), tally.Count(core.ProtocolUDP))
	assert.Equal(t, uint64(4), tally.Total())
	assert.Equal(t, []Entry{
		{Protocol: core.ProtocolICMP, Count: 1},
		{Protocol: core.ProtocolTCP, Count: 2},
		{Protocol: core.Protocol(89), Count: 1},
	}, tally.Snapshot())
	assert.Equal(t, "ICMP=1 TCP=2 Other(89)=1", tally.String())
}

func TestRun(t *testing.T) {
	arp := ipFrame(t, core.ProtocolUDP)
	arp[12], arp[13] = 0x08, 0x06

	recv := &sliceReceiver{frames: [][]byte{
		ipFrame(t, core.ProtocolICMP),
		{0x01, 0x02}, // runt
		ipFrame(t, core.ProtocolTCP),
		arp,
		ipFrame(t, core.ProtocolICMP),
	}}

	var out bytes.Buffer
	a := New(recv, &out)
	tally := NewTally()
	require.NoError(t, a.Run(context.Background(), tally))

	assert.Equal(t, []string{
		"ICMP=1",
		"ICMP=1 TCP=1",
		"ICMP=2 TCP=1",
	}, strings.Split(strings.TrimSpace(out.String()), "\n"))
	assert.Equal(t, uint64(3), tally.Total())

	m := a.Metrics()
	require.NotNil(t, m)
	assert.Equal(t, uint64(5), m.Received.Load())
	assert.Equal(t, uint64(2), m.DecodeErrors.Load())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestRunWriteError(t *testing.T) {
	recv := &sliceReceiver{frames: [][]byte{ipFrame(t, core.ProtocolUDP)}}
	err := New(recv, failingWriter{}).Run(context.Background(), NewTally())
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestClassify(t *testing.T) {
	p, err := Classify(ipFrame(t, core.ProtocolUDP))
	require.NoError(t, err)
	assert.Equal(t, core.ProtocolUDP, p)

	_, err = Classify(make([]byte, 20))
	assert.ErrorIs(t, err, core.ErrTruncatedHeader)
}
