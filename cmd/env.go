package cmd

import (
	"context"
	"net"
	"net/netip"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/XaydBayeck/ipw/internal/config"
	"github.com/XaydBayeck/ipw/internal/core"
	"github.com/XaydBayeck/ipw/internal/log"
	"github.com/XaydBayeck/ipw/internal/netif"
	"github.com/XaydBayeck/ipw/internal/socket"
)

// env is what every networking command needs: the loaded configuration and
// the interface it operates on.
type env struct {
	cfg   *config.Config
	table *netif.Table
	ifi   *net.Interface
}

// setup loads the configuration with cmd's flags applied, installs the
// logger and picks the interface.
func setup(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := log.Init(cfg.Log); err != nil {
		return nil, errors.Wrap(err, "init logger")
	}

	table, err := netif.Load()
	if err != nil {
		return nil, err
	}
	ifi, err := table.Lookup(cfg.Interface)
	if err != nil {
		return nil, err
	}
	log.GetLogger().Debugf("using interface %s (%s)", ifi.Name, ifi.HardwareAddr)
	return &env{cfg: cfg, table: table, ifi: ifi}, nil
}

// sourceIP returns configured when set, else the interface's first IPv4
// address, else the unspecified address.
func (e *env) sourceIP(configured netip.Addr) netip.Addr {
	if configured.IsValid() {
		return configured
	}
	if addr, err := e.table.FirstIPv4(e.ifi.Name); err == nil {
		return addr
	}
	return netip.IPv4Unspecified()
}

// open opens a socket on the interface and closes it once ctx ends, which
// unblocks a pending Receive.
func (e *env) open(ctx context.Context, filter socket.EtherFilter) (*socket.Socket, error) {
	s, err := socket.Open(e.ifi, filter, e.cfg.Capture.Capacity)
	if err != nil {
		return nil, err
	}
	if e.cfg.Capture.Promiscuous {
		if err := s.SetPromiscuous(true); err != nil {
			s.Close()
			return nil, err
		}
	}
	go func() {
		<-ctx.Done()
		s.Close()
	}()
	return s, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// reportStats logs the kernel counters of s, if it has any.
func reportStats(s *socket.Socket) {
	st, err := s.Stats()
	if err != nil {
		if !errors.Is(err, core.ErrUnsupportedProto) {
			log.GetLogger().WithError(err).Debug("socket stats unavailable")
		}
		return
	}
	log.GetLogger().Infof("socket: %d frames, %d dropped", st.Packets, st.Drops)
}
