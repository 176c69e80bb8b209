package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/XaydBayeck/ipw/internal/filter"
	"github.com/XaydBayeck/ipw/internal/log"
	"github.com/XaydBayeck/ipw/internal/pipeline"
	"github.com/XaydBayeck/ipw/internal/socket"
)

var (
	filterSrcMAC macValue
	filterDstMAC macValue
	filterSrcIP  ipv4Value
	filterDstIP  ipv4Value
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Print received IPv4 frames matching an address filter",
	Long: `
Receive IPv4 frames until interrupted and print the headers and payload of
every frame that matches all given addresses. Without any address every
frame matches.

Examples:
  ipw filter
  ipw filter --dhost 10.0.0.5
  ipw filter --src-mac 02:00:00:00:00:01 -o yaml
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		printer, err := filter.NewPrinter(e.cfg.Filter.Output, cmd.OutOrStdout())
		if err != nil {
			return err
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		s, err := e.open(ctx, socket.FilterIPv4)
		if err != nil {
			return err
		}
		return runFilter(ctx, s, filterPredicate(), printer)
	},
}

func init() {
	f := filterCmd.Flags()
	f.Var(&filterSrcMAC, "src-mac", "source MAC address")
	f.Var(&filterDstMAC, "dst-mac", "destination MAC address")
	f.VarP(&filterSrcIP, "shost", "s", "source IPv4 address or localhost")
	f.VarP(&filterDstIP, "dhost", "d", "destination IPv4 address or localhost")
	f.StringP("output", "o", "text", "output format: text or yaml")
	f.Bool("promiscuous", false, "put the interface into promiscuous mode")
}

func filterPredicate() filter.Predicate {
	return filter.Predicate{
		SrcMAC: filterSrcMAC.hw,
		DstMAC: filterDstMAC.hw,
		SrcIP:  filterSrcIP.addr,
		DstIP:  filterDstIP.addr,
	}
}

func runFilter(ctx context.Context, recv pipeline.Receiver, pred filter.Predicate, printer filter.Printer) error {
	f := filter.New(recv, pred, printer)
	err := f.Run(ctx)
	log.GetLogger().Infof("matched %d of %d frames", f.Matched(), f.Seen())
	return err
}
