package decoder

import (
	"github.com/mdlayher/ethernet"
	"github.com/pkg/errors"

	"github.com/XaydBayeck/ipw/internal/core"
	"github.com/XaydBayeck/ipw/internal/core/codec"
)

// decodeEthernet decodes the Ethernet header. 802.1Q and 802.1ad tagged
// frames are unwrapped so that the returned EtherType is the inner one.
func decodeEthernet(data []byte) (codec.EtherHeader, []uint16, []byte, error) {
	eth, rest, err := codec.Ether.Decode(data)
	if err != nil {
		return eth, nil, nil, err
	}
	if eth.EtherType != core.EtherTypeVLAN && eth.EtherType != core.EtherTypeQinQ {
		return eth, nil, rest, nil
	}

	var f ethernet.Frame
	if err := f.UnmarshalBinary(data); err != nil {
		return eth, nil, nil, errors.Wrapf(core.ErrTruncatedHeader, "vlan: %v", err)
	}

	var vlans []uint16
	if f.ServiceVLAN != nil {
		vlans = append(vlans, f.ServiceVLAN.ID)
	}
	if f.VLAN != nil {
		vlans = append(vlans, f.VLAN.ID)
	}
	eth.EtherType = core.EtherType(f.EtherType)
	return eth, vlans, f.Payload, nil
}
