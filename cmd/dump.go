package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/XaydBayeck/ipw/internal/core"
	"github.com/XaydBayeck/ipw/internal/core/decoder"
	"github.com/XaydBayeck/ipw/internal/pipeline"
	"github.com/XaydBayeck/ipw/internal/socket"
)

var (
	dumpCount int
	dumpARP   bool
)

// errDumpDone ends a dump after --count frames.
var errDumpDone = errors.New("frame count reached")

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print a summary line for every received frame",
	Long: `
Receive frames of every EtherType and print one line per frame, decoding
VLAN tags, ARP, IPv4, ICMP and the TCP/UDP ports.

Examples:
  ipw dump
  ipw dump --arp -n 10
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		s, err := e.open(ctx, socket.FilterAll)
		if err != nil {
			return err
		}
		if dumpARP {
			if err := s.SetBPF(socket.EtherTypeFilter(core.EtherTypeARP)); err != nil {
				return err
			}
		}

		err = runDump(ctx, s, decoder.New(), dumpCount, cmd.OutOrStdout())
		reportStats(s)
		return err
	},
}

func init() {
	dumpCmd.Flags().IntVarP(&dumpCount, "count", "n", 0, "stop after this many frames (0 = until interrupted)")
	dumpCmd.Flags().BoolVar(&dumpARP, "arp", false, "only ARP frames")
	dumpCmd.Flags().Bool("promiscuous", false, "put the interface into promiscuous mode")
}

func runDump(ctx context.Context, recv pipeline.Receiver, dec decoder.Decoder, count int, out io.Writer) error {
	var n int
	p := pipeline.New("dump", recv, func(f core.Frame) error {
		pkt, err := dec.Decode(f.Data)
		if err != nil {
			return err
		}
		line := pkt.Summary()
		if f.Truncated {
			line += " [truncated]"
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return errors.Wrap(err, "write summary")
		}
		n++
		if count > 0 && n >= count {
			return errDumpDone
		}
		return nil
	})

	if err := p.Run(ctx); err != nil && !errors.Is(err, errDumpDone) {
		return err
	}
	return nil
}
