// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	ifaceName  string
	logLevel   string
	capacity   int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ipw",
	Short: "ipw - craft, send and capture raw IPv4 frames",
	Long: `ipw sends hand-built Ethernet/IPv4 frames on a local interface and
inspects the IPv4 traffic it receives.

Commands:
  send        build an IPv4 (optionally ICMP echo) frame and transmit it
  analyze     keep a running count of received frames per IP protocol
  filter      print the headers of received frames matching an address filter
  resolve     resolve an IPv4 address to a hardware address with ARP
  dump        print a one-line summary of every received frame
  interfaces  list usable interfaces

Capturing and sending require CAP_NET_RAW.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path")
	rootCmd.PersistentFlags().StringVarP(&ifaceName, "interface", "i", "",
		"network interface (default: first interface that is up)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level: debug, info, warn, error")
	rootCmd.PersistentFlags().IntVar(&capacity, "capacity", 256,
		"receive buffer size in bytes; longer frames are truncated")

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(interfacesCmd)
}
