package decoder

import (
	"fmt"
	"strings"
)

// Summary renders the packet as a single line, one segment per layer.
func (p Packet) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s > %s", p.Ether.Source, p.Ether.Destination)
	for _, id := range p.VLANs {
		fmt.Fprintf(&sb, " vlan %d", id)
	}

	switch {
	case p.ARP != nil:
		fmt.Fprintf(&sb, " ARP op %d %s (%s) > %s (%s)", p.ARP.Operation,
			p.ARP.SenderIP, p.ARP.SenderHW, p.ARP.TargetIP, p.ARP.TargetHW)
		return sb.String()
	case p.IPv4 != nil:
		fmt.Fprintf(&sb, " IP %s > %s ttl %d len %d", p.IPv4.Source, p.IPv4.Destination,
			p.IPv4.TTL, p.IPv4.TotalLen)
	default:
		fmt.Fprintf(&sb, " %s len %d", p.Ether.EtherType, len(p.Payload))
		return sb.String()
	}

	switch {
	case p.ICMP != nil:
		fmt.Fprintf(&sb, " ICMP %s", p.ICMP.Describe())
		if p.ICMP.Echo != nil {
			fmt.Fprintf(&sb, " id %d seq %d", p.ICMP.Echo.ID, p.ICMP.Echo.Seq)
		}
	case p.Transport != nil:
		fmt.Fprintf(&sb, " %s %d > %d", p.Transport.Protocol, p.Transport.SrcPort, p.Transport.DstPort)
	default:
		fmt.Fprintf(&sb, " %s", p.IPv4.Protocol)
	}
	fmt.Fprintf(&sb, " payload %d", len(p.Payload))
	return sb.String()
}
