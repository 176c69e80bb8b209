package netif

import (
	"errors"
	"net"
	"net/netip"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XaydBayeck/ipw/internal/core"
)

func fakeHost() ([]net.Interface, error) {
	return []net.Interface{
		{Index: 1, Name: "lo", Flags: net.FlagUp | net.FlagLoopback},
		{Index: 2, Name: "dummy0", HardwareAddr: make(net.HardwareAddr, 6)},
		{Index: 3, Name: "eth0", HardwareAddr: net.HardwareAddr{0x02, 0, 0, 0, 0, 3}},
		{Index: 4, Name: "wlan0", Flags: net.FlagUp, HardwareAddr: net.HardwareAddr{0x02, 0, 0, 0, 0, 4}},
		{Index: 5, Name: "tun0", Flags: net.FlagUp},
	}, nil
}

func fakeAddrs(ifi *net.Interface) ([]net.Addr, error) {
	if ifi.Name != "wlan0" {
		return nil, nil
	}
	return []net.Addr{
		&net.IPNet{IP: net.ParseIP("fe80::1"), Mask: net.CIDRMask(64, 128)},
		&net.IPNet{IP: net.IPv4(169, 254, 0, 7), Mask: net.CIDRMask(16, 32)},
		&net.IPNet{IP: net.IPv4(192, 168, 1, 23), Mask: net.CIDRMask(24, 32)},
	}, nil
}

func TestLoadFromSkipsUnusable(t *testing.T) {
	tbl, err := LoadFrom(fakeHost, fakeAddrs)
	require.NoError(t, err)

	var names []string
	for _, e := range tbl.Entries() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"eth0", "wlan0"}, names)
}

func TestLookup(t *testing.T) {
	tbl, err := LoadFrom(fakeHost, fakeAddrs)
	require.NoError(t, err)

	ifi, err := tbl.Lookup("")
	require.NoError(t, err)
	assert.Equal(t, "wlan0", ifi.Name, "first interface that is up")

	ifi, err = tbl.Lookup("eth0")
	require.NoError(t, err)
	assert.Equal(t, 3, ifi.Index)

	_, err = tbl.Lookup("eth9")
	assert.True(t, pkgerrors.Is(err, core.ErrNoInterface))
}

func TestFirstIPv4(t *testing.T) {
	tbl, err := LoadFrom(fakeHost, fakeAddrs)
	require.NoError(t, err)

	addr, err := tbl.FirstIPv4("wlan0")
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddr("192.168.1.23"), addr)

	_, err = tbl.FirstIPv4("eth0")
	assert.True(t, pkgerrors.Is(err, core.ErrNoInterface))
}

func TestLoadFromError(t *testing.T) {
	_, err := LoadFrom(func() ([]net.Interface, error) { return nil, errors.New("netlink") }, nil)
	assert.EqualError(t, err, "list interfaces: netlink")
}

func TestEmptyTable(t *testing.T) {
	tbl, err := LoadFrom(func() ([]net.Interface, error) { return nil, nil }, nil)
	require.NoError(t, err)
	_, err = tbl.Lookup("")
	assert.True(t, pkgerrors.Is(err, core.ErrNoInterface))
}
