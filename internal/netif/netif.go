// Package netif enumerates the host's link-layer interfaces.
package netif

import (
	"bytes"
	"net"
	"net/netip"

	"github.com/pkg/errors"

	"github.com/XaydBayeck/ipw/internal/core"
)

// Entry is an interface with a usable hardware address.
type Entry struct {
	Name         string
	Index        int
	HardwareAddr net.HardwareAddr
	Up           bool
	Addrs        []netip.Prefix // IPv4 only
}

var zeroMAC = make(net.HardwareAddr, 6)

// Lister returns the host's interfaces; net.Interfaces satisfies it.
type Lister func() ([]net.Interface, error)

// Table is the interface list read once at startup.
type Table struct {
	entries []Entry
	byName  map[string]*net.Interface
}

// Load reads the interfaces from the host.
func Load() (*Table, error) {
	return LoadFrom(net.Interfaces, interfaceAddrs)
}

// LoadFrom builds a Table from list, resolving addresses with addrs.
// Loopback interfaces and interfaces without an Ethernet address are
// skipped.
func LoadFrom(list Lister, addrs func(*net.Interface) ([]net.Addr, error)) (*Table, error) {
	ifis, err := list()
	if err != nil {
		return nil, errors.Wrap(err, "list interfaces")
	}

	t := &Table{byName: make(map[string]*net.Interface)}
	for i := range ifis {
		ifi := &ifis[i]
		if ifi.Flags&net.FlagLoopback != 0 || len(ifi.HardwareAddr) != 6 {
			continue
		}
		if bytes.Equal(ifi.HardwareAddr, zeroMAC) {
			continue
		}

		e := Entry{
			Name:         ifi.Name,
			Index:        ifi.Index,
			HardwareAddr: ifi.HardwareAddr,
			Up:           ifi.Flags&net.FlagUp != 0,
		}
		if addrs != nil {
			as, err := addrs(ifi)
			if err == nil {
				e.Addrs = ipv4Prefixes(as)
			}
		}
		t.entries = append(t.entries, e)
		t.byName[ifi.Name] = ifi
	}
	return t, nil
}

func interfaceAddrs(ifi *net.Interface) ([]net.Addr, error) {
	return ifi.Addrs()
}

// Entries returns the usable interfaces in host order.
func (t *Table) Entries() []Entry {
	return t.entries
}

// Lookup returns the named interface, or the first usable one when name is
// empty.
func (t *Table) Lookup(name string) (*net.Interface, error) {
	if name == "" {
		for _, e := range t.entries {
			if e.Up {
				return t.byName[e.Name], nil
			}
		}
		if len(t.entries) > 0 {
			return t.byName[t.entries[0].Name], nil
		}
		return nil, errors.Wrap(core.ErrNoInterface, "no interface with a hardware address")
	}
	ifi, ok := t.byName[name]
	if !ok {
		return nil, errors.Wrapf(core.ErrNoInterface, "interface %q", name)
	}
	return ifi, nil
}

// FirstIPv4 returns the first IPv4 address of the named interface, skipping
// link-local addresses.
func (t *Table) FirstIPv4(name string) (netip.Addr, error) {
	for _, e := range t.entries {
		if e.Name != name {
			continue
		}
		for _, p := range e.Addrs {
			if !p.Addr().IsLinkLocalUnicast() {
				return p.Addr(), nil
			}
		}
	}
	return netip.Addr{}, errors.Wrapf(core.ErrNoInterface, "no IPv4 address on %q", name)
}

func ipv4Prefixes(addrs []net.Addr) []netip.Prefix {
	var out []netip.Prefix
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip4 := ipNet.IP.To4()
		if ip4 == nil {
			continue
		}
		ones, _ := ipNet.Mask.Size()
		out = append(out, netip.PrefixFrom(netip.AddrFrom4([4]byte(ip4)), ones))
	}
	return out
}
