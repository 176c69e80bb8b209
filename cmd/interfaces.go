package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/XaydBayeck/ipw/internal/netif"
)

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List interfaces usable for sending and capturing",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := netif.Load()
		if err != nil {
			return err
		}
		return runInterfaces(table, cmd.OutOrStdout())
	},
}

func runInterfaces(table *netif.Table, out io.Writer) error {
	entries := table.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(out, "no usable interfaces")
		return nil
	}
	for _, e := range entries {
		state := "down"
		if e.Up {
			state = "up"
		}
		addrs := make([]string, len(e.Addrs))
		for i, a := range e.Addrs {
			addrs[i] = a.String()
		}
		fmt.Fprintf(out, "%d: %s %s %s %s\n", e.Index, e.Name, e.HardwareAddr, state, strings.Join(addrs, ","))
	}
	return nil
}
