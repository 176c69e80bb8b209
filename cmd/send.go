package cmd

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/XaydBayeck/ipw/internal/core"
	"github.com/XaydBayeck/ipw/internal/core/codec"
	"github.com/XaydBayeck/ipw/internal/payload"
	"github.com/XaydBayeck/ipw/internal/sender"
	"github.com/XaydBayeck/ipw/internal/socket"
)

// frameSender is the part of sender.Sender the send command uses.
type frameSender interface {
	Send(req sender.Request) (int, error)
}

var (
	sendDstMAC   macValue
	sendDstIP    ipv4Value
	sendProtocol = protocolValue{proto: core.ProtocolICMP}
	sendText     string
	sendFile     string
	sendID       uint16
	sendTOS      uint8
	sendOptions  string
	sendEcho     bool
	sendSeq      uint16
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a crafted IPv4 frame",
	Long: `
Build an Ethernet/IPv4 frame and transmit it on the interface.

The payload is given as text in which every character is one digit in
--radix and becomes one byte, so "1f" with radix 16 sends 0x01 0x0f.

Examples:
  ipw send -d 02:00:00:00:00:01 -D 10.0.0.5 -p UDP -t 0102
  ipw send -d 02:00:00:00:00:01 -D 10.0.0.5 --echo --seq 1 -t 00
  ipw send -d 02:00:00:00:00:01 -D localhost -p 89 -f payload.txt -r 2
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(sendDstMAC.hw) == 0 || !sendDstIP.addr.IsValid() {
			return errors.New("--dhost and --destip are required")
		}
		e, err := setup(cmd)
		if err != nil {
			return err
		}

		body, err := loadPayload(sendText, sendFile, e.cfg.Send.Radix)
		if err != nil {
			return err
		}
		opts, err := hex.DecodeString(sendOptions)
		if err != nil {
			return errors.Wrapf(core.ErrInvalidHeader, "options %q are not hex", sendOptions)
		}

		s, err := socket.Open(e.ifi, socket.FilterIPv4, e.cfg.Capture.Capacity)
		if err != nil {
			return err
		}
		defer s.Close()

		req := sender.Request{
			DstMAC:   sendDstMAC.hw,
			DstIP:    sendDstIP.addr,
			Protocol: sendProtocol.proto,
			ID:       sendID,
			TOS:      sendTOS,
			Options:  opts,
			Payload:  body,
		}
		if sendEcho {
			req.Echo = &codec.ICMPEcho{ID: sendID, Seq: sendSeq}
		}

		src := e.sourceIP(e.cfg.Send.SourceIP)
		return runSend(sender.New(s, e.ifi.HardwareAddr, src, e.cfg.Send.TTL), req, cmd.OutOrStdout())
	},
}

func init() {
	f := sendCmd.Flags()
	f.VarP(&sendDstMAC, "dhost", "d", "destination MAC address")
	f.VarP(&sendDstIP, "destip", "D", "destination IPv4 address or localhost")
	f.VarP(&sendProtocol, "protocol", "p", "IP protocol: TCP, UDP, ICMP or a decimal number")
	f.IntP("radix", "r", 16, "radix of the payload digits (2-36)")
	f.StringVarP(&sendText, "text", "t", "", "payload digits")
	f.StringVarP(&sendFile, "file", "f", "", "file holding the payload digits")
	f.Uint16Var(&sendID, "id", 0, "IPv4 identification")
	f.Uint8Var(&sendTOS, "tos", 0, "IPv4 type of service")
	f.Uint8("ttl", 64, "IPv4 time to live")
	f.StringVar(&sendOptions, "options", "", "IPv4 options as hex, zero-padded to 4 bytes")
	f.BoolVar(&sendEcho, "echo", false, "prepend an ICMP echo request header (identifier = --id)")
	f.Uint16Var(&sendSeq, "seq", 0, "ICMP echo sequence number")
	sendCmd.MarkFlagsMutuallyExclusive("text", "file")
}

// loadPayload decodes the payload from file when given, else from text.
func loadPayload(text, file string, radix int) ([]byte, error) {
	if file != "" {
		return payload.Load(file, radix)
	}
	return payload.Decode(text, radix)
}

func runSend(s frameSender, req sender.Request, out io.Writer) error {
	n, err := s.Send(req)
	if err != nil {
		return errors.Wrap(err, "failed to send")
	}
	fmt.Fprintf(out, "sent %d bytes to %s (%s)\n", n, req.DstIP, req.DstMAC)
	return nil
}
