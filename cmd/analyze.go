package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/XaydBayeck/ipw/internal/analyzer"
	"github.com/XaydBayeck/ipw/internal/log"
	"github.com/XaydBayeck/ipw/internal/pipeline"
	"github.com/XaydBayeck/ipw/internal/socket"
)

var analyzeCmd = &cobra.Command{
	Use:     "analyze",
	Aliases: []string{"analyz"},
	Short:   "Count received IPv4 frames per protocol",
	Long: `
Receive IPv4 frames until interrupted and print the running count per IP
protocol after every frame.

Examples:
  ipw analyze
  ipw analyze -i eth0 --promiscuous
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		s, err := e.open(ctx, socket.FilterIPv4)
		if err != nil {
			return err
		}
		return runAnalyze(ctx, s, cmd.OutOrStdout())
	},
}

func init() {
	analyzeCmd.Flags().Bool("promiscuous", false, "put the interface into promiscuous mode")
}

func runAnalyze(ctx context.Context, recv pipeline.Receiver, out io.Writer) error {
	tally := analyzer.NewTally()
	err := analyzer.New(recv, out).Run(ctx, tally)
	log.GetLogger().Infof("analyzed %d frames: %s", tally.Total(), tally)
	return err
}
