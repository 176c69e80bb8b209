package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/XaydBayeck/ipw/internal/core"
	"github.com/XaydBayeck/ipw/internal/core/codec"
	"github.com/XaydBayeck/ipw/internal/core/decoder"
	"github.com/XaydBayeck/ipw/internal/filter"
	"github.com/XaydBayeck/ipw/internal/netif"
	"github.com/XaydBayeck/ipw/internal/sender"
)

// MockSender implements frameSender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(req sender.Request) (int, error) {
	args := m.Called(req)
	return args.Int(0), args.Error(1)
}

// MockResolver implements addrResolver
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, target netip.Addr) (net.HardwareAddr, error) {
	args := m.Called(ctx, target)
	hw, _ := args.Get(0).(net.HardwareAddr)
	return hw, args.Error(1)
}

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

var (
	peerMAC = net.HardwareAddr{0x02, 0, 0, 0, 0, 0x02}
	selfMAC = net.HardwareAddr{0x02, 0, 0, 0, 0, 0x01}
)

func ipFrame(proto core.Protocol, dst string) []byte {
	eth := codec.EtherHeader{Destination: peerMAC, Source: selfMAC, EtherType: core.EtherTypeIP}
	ip := codec.NewIPv4(1).
		WithProtocol(proto).
		WithSource(netip.MustParseAddr("10.0.0.1")).
		WithDestination(netip.MustParseAddr(dst)).
		WithChecksum()
	return codec.EtherIPv4.Encode(codec.Pair[codec.EtherHeader, codec.IPv4Header]{First: eth, Second: ip})
}

func TestRunSend(t *testing.T) {
	req := sender.Request{DstMAC: peerMAC, DstIP: netip.MustParseAddr("10.0.0.5")}

	tests := []struct {
		name      string
		mockError error
		wantErr   bool
		wantOut   string
	}{
		{name: "success", wantOut: "sent 37 bytes to 10.0.0.5 (02:00:00:00:00:02)\n"},
		{name: "transport error", mockError: errors.New("network down"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := new(MockSender)
			s.On("Send", req).Return(37, tt.mockError)

			var buf bytes.Buffer
			err := runSend(s, req, &buf)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "failed to send")
				assert.Empty(t, buf.String())
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantOut, buf.String())
			}
			s.AssertExpectations(t)
		})
	}
}

func TestRunResolve(t *testing.T) {
	target := netip.MustParseAddr("192.168.1.1")
	hw := net.HardwareAddr{0x02, 0x03, 0x04, 0x05, 0x06, 0x07}

	r := new(MockResolver)
	r.On("Resolve", mock.Anything, target).Return(hw, nil).Once()
	r.On("Resolve", mock.Anything, target).Return(nil, core.ErrNoReply).Once()

	var buf bytes.Buffer
	require.NoError(t, runResolve(context.Background(), r, target, &buf))
	assert.Equal(t, "192.168.1.1 is at 02:03:04:05:06:07\n", buf.String())

	err := runResolve(context.Background(), r, target, &buf)
	assert.ErrorIs(t, err, core.ErrNoReply)
	assert.Contains(t, err.Error(), "failed to resolve 192.168.1.1")
	r.AssertExpectations(t)
}

func TestRunAnalyze(t *testing.T) {
	recv := &sliceReceiver{frames: [][]byte{
		ipFrame(core.ProtocolTCP, "10.0.0.5"),
		ipFrame(core.ProtocolICMP, "10.0.0.5"),
		ipFrame(core.ProtocolTCP, "10.0.0.6"),
	}}

	var buf bytes.Buffer
	require.NoError(t, runAnalyze(context.Background(), recv, &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ICMP=1 TCP=2", lines[2])
}

func TestRunFilter(t *testing.T) {
	recv := &sliceReceiver{frames: [][]byte{
		ipFrame(core.ProtocolUDP, "10.0.0.5"),
		ipFrame(core.ProtocolUDP, "10.0.0.6"),
	}}

	var buf bytes.Buffer
	printer, err := filter.NewPrinter(filter.FormatYAML, &buf)
	require.NoError(t, err)

	pred := filter.Predicate{DstIP: netip.MustParseAddr("10.0.0.6")}
	require.NoError(t, runFilter(context.Background(), recv, pred, printer))
	assert.Equal(t, 1, strings.Count(buf.String(), "---\n"))
	assert.Contains(t, buf.String(), "destination: 10.0.0.6")
	assert.NotContains(t, buf.String(), "10.0.0.5")
}

func TestRunDump(t *testing.T) {
	frames := func() [][]byte {
		return [][]byte{
			ipFrame(core.Protocol(89), "10.0.0.5"),
			{0x00},
			ipFrame(core.Protocol(47), "10.0.0.6"),
		}
	}

	var buf bytes.Buffer
	require.NoError(t, runDump(context.Background(), &sliceReceiver{frames: frames()}, decoder.New(), 0, &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "02:00:00:00:00:01 > 02:00:00:00:00:02 IP 10.0.0.1 > 10.0.0.5"), lines[0])

	buf.Reset()
	require.NoError(t, runDump(context.Background(), &sliceReceiver{frames: frames()}, decoder.New(), 1, &buf))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestRunInterfaces(t *testing.T) {
	list := func() ([]net.Interface, error) {
		return []net.Interface{
			{Index: 1, Name: "lo", Flags: net.FlagLoopback | net.FlagUp},
			{Index: 2, Name: "eth0", HardwareAddr: selfMAC, Flags: net.FlagUp},
		}, nil
	}
	addrs := func(*net.Interface) ([]net.Addr, error) {
		return []net.Addr{&net.IPNet{IP: net.IPv4(10, 0, 0, 1), Mask: net.CIDRMask(24, 32)}}, nil
	}
	table, err := netif.LoadFrom(list, addrs)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, runInterfaces(table, &buf))
	assert.Equal(t, "2: eth0 02:00:00:00:00:01 up 10.0.0.1/24\n", buf.String())

	empty, err := netif.LoadFrom(func() ([]net.Interface, error) { return nil, nil }, nil)
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, runInterfaces(empty, &buf))
	assert.Equal(t, "no usable interfaces\n", buf.String())
}

func TestLoadPayload(t *testing.T) {
	b, err := loadPayload("0a", "", 16)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 10}, b)

	_, err = loadPayload("g", "", 16)
	assert.ErrorIs(t, err, core.ErrInvalidPayload)
}

// Argument errors are reported before any socket is opened.
func TestCommandArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "send without destination", args: []string{"send"}, want: "--dhost and --destip are required"},
		{name: "resolve bad address", args: []string{"resolve", "nope"}, want: "ipv4 address"},
		{name: "resolve without address", args: []string{"resolve"}, want: "accepts 1 arg"},
		{name: "bad protocol flag", args: []string{"send", "-p", "SCTP"}, want: "unsupported protocol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			rootCmd.SetOut(&buf)
			rootCmd.SetErr(&buf)
			rootCmd.SetArgs(tt.args)

			err := rootCmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAnalyzAlias(t *testing.T) {
	c, _, err := rootCmd.Find([]string{"analyz"})
	require.NoError(t, err)
	assert.Same(t, analyzeCmd, c)
}
