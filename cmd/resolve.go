package cmd

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/netip"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/XaydBayeck/ipw/internal/arp"
	"github.com/XaydBayeck/ipw/internal/core"
	"github.com/XaydBayeck/ipw/internal/socket"
)

// addrResolver is the part of arp.Resolver the resolve command uses.
type addrResolver interface {
	Resolve(ctx context.Context, target netip.Addr) (net.HardwareAddr, error)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <ipv4>",
	Short: "Resolve an IPv4 address to a MAC address with ARP",
	Long: `
Broadcast an ARP request for the address and print the hardware address from
the reply.

Examples:
  ipw resolve 10.0.0.1
  ipw resolve 10.0.0.1 --timeout 500ms --retries 5
  ipw resolve 10.0.0.1 --timeout 0          # wait forever
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := parseIPv4(args[0])
		if err != nil {
			return err
		}
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
		defer s.Close()
		// Frames other than ARP never reach the resolver.
		if err := s.SetBPF(socket.EtherTypeFilter(core.EtherTypeARP)); err != nil {
			return err
		}

		r := arp.NewResolver(s, e.ifi.HardwareAddr, e.sourceIP(e.cfg.ARP.SourceIP), arp.Config{
			Timeout:      e.cfg.ARP.Timeout,
			Retries:      e.cfg.ARP.Retries,
			VerifySender: e.cfg.ARP.VerifySender,
		})
		return runResolve(ctx, r, target, cmd.OutOrStdout())
	},
}

func init() {
	f := resolveCmd.Flags()
	f.Duration("timeout", arp.DefaultConfig().Timeout, "wait per request; 0 waits forever")
	f.Int("retries", arp.DefaultConfig().Retries, "requests resent after a timeout")
	f.Bool("verify", true, "require the reply to come from the target address")
}

func runResolve(ctx context.Context, r addrResolver, target netip.Addr, out io.Writer) error {
	hw, err := r.Resolve(ctx, target)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve %s", target)
	}
	fmt.Fprintf(out, "%s is at %s\n", target, hw)
	return nil
}
