package filter

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/XaydBayeck/ipw/internal/core"
	"github.com/XaydBayeck/ipw/internal/core/decoder"
)

// Output formats.
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

// Record is the printable form of a matched frame.
type Record struct {
	SrcMAC         string `yaml:"src_mac"`
	DstMAC         string `yaml:"dst_mac"`
	Version        uint8  `yaml:"version"`
	HeaderLen      int    `yaml:"header_length"`
	TOS            uint8  `yaml:"tos"`
	TotalLen       uint16 `yaml:"total_length"`
	ID             uint16 `yaml:"id"`
	Flags          string `yaml:"flags"`
	FragmentOffset uint16 `yaml:"fragment_offset"`
	TTL            uint8  `yaml:"ttl"`
	Protocol       string `yaml:"protocol"`
	Checksum       string `yaml:"checksum"`
	ChecksumValid  bool   `yaml:"checksum_valid"`
	Source         string `yaml:"source"`
	Destination    string `yaml:"destination"`
	Options        string `yaml:"options,omitempty"`
	Upper          string `yaml:"upper,omitempty"`
	Payload        string `yaml:"payload"`
}

// NewRecord renders ex. When dec recognises the upper layer, Upper carries
// a one-line description of it.
func NewRecord(ex *Exchange, dec decoder.Decoder) Record {
	ip := ex.IPv4
	r := Record{
		SrcMAC:         ex.Ether.Source.String(),
		DstMAC:         ex.Ether.Destination.String(),
		Version:        ip.Version,
		HeaderLen:      ip.HeaderLen,
		TOS:            ip.TOS,
		TotalLen:       ip.TotalLen,
		ID:             ip.ID,
		Flags:          flags(ip.DontFragment, ip.MoreFragments),
		FragmentOffset: ip.FragmentOffset,
		TTL:            ip.TTL,
		Protocol:       ip.Protocol.String(),
		Checksum:       fmt.Sprintf("0x%04x", ip.Checksum),
		ChecksumValid:  ip.ChecksumValid(),
		Source:         ip.Source.String(),
		Destination:    ip.Destination.String(),
		Options:        hex.EncodeToString(ip.Options),
		Payload:        hex.EncodeToString(ex.Payload),
	}
	if dec != nil {
		r.Upper = upper(dec, ex.Frame.Data)
	}
	return r
}

func flags(df, mf bool) string {
	var f []string
	if df {
		f = append(f, "DF")
	}
	if mf {
		f = append(f, "MF")
	}
	if len(f) == 0 {
		return "none"
	}
	return strings.Join(f, "|")
}

func upper(dec decoder.Decoder, frame []byte) string {
	pkt, err := dec.Decode(frame)
	if err != nil {
		return ""
	}
	switch {
	case pkt.ICMP != nil:
		s := pkt.ICMP.Describe()
		if pkt.ICMP.Echo != nil {
			s += fmt.Sprintf(" id %d seq %d", pkt.ICMP.Echo.ID, pkt.ICMP.Echo.Seq)
		}
		return s
	case pkt.Transport != nil:
		return fmt.Sprintf("%s %d > %d", pkt.Transport.Protocol, pkt.Transport.SrcPort, pkt.Transport.DstPort)
	}
	return ""
}

// Printer writes matched records.
type Printer interface {
	Print(r Record) error
}

// NewPrinter returns a printer for format writing to w.
func NewPrinter(format string, w io.Writer) (Printer, error) {
	switch format {
	case "", FormatText:
		return &textPrinter{w: w}, nil
	case FormatYAML:
		return &yamlPrinter{w: w}, nil
	default:
		return nil, errors.Wrapf(core.ErrConfigInvalid, "unknown output format %q", format)
	}
}

type textPrinter struct {
	w io.Writer
}

func (p *textPrinter) Print(r Record) error {
	validity := "valid"
	if !r.ChecksumValid {
		validity = "invalid"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s > %s\n", r.SrcMAC, r.DstMAC)
	fmt.Fprintf(&sb, "  version %d, header length %d, tos 0x%02x, total length %d\n",
		r.Version, r.HeaderLen, r.TOS, r.TotalLen)
	fmt.Fprintf(&sb, "  id %d, flags %s, fragment offset %d, ttl %d, protocol %s\n",
		r.ID, r.Flags, r.FragmentOffset, r.TTL, r.Protocol)
	fmt.Fprintf(&sb, "  checksum %s (%s)\n", r.Checksum, validity)
	fmt.Fprintf(&sb, "  %s > %s\n", r.Source, r.Destination)
	if r.Options != "" {
		fmt.Fprintf(&sb, "  options %s\n", r.Options)
	}
	if r.Upper != "" {
		fmt.Fprintf(&sb, "  %s\n", r.Upper)
	}
	fmt.Fprintf(&sb, "  payload %s\n", r.Payload)

	_, err := io.WriteString(p.w, sb.String())
	return errors.Wrap(err, "write record")
}

type yamlPrinter struct {
	w io.Writer
}

// Print writes r as one YAML document.
func (p *yamlPrinter) Print(r Record) error {
	b, err := yaml.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "marshal record")
	}
	if _, err := io.WriteString(p.w, "---\n"); err != nil {
		return errors.Wrap(err, "write record")
	}
	_, err = p.w.Write(b)
	return errors.Wrap(err, "write record")
}
