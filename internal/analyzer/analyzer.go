// Package analyzer tallies the IP protocols seen on an interface.
package analyzer

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/XaydBayeck/ipw/internal/core"
	"github.com/XaydBayeck/ipw/internal/core/codec"
	"github.com/XaydBayeck/ipw/internal/pipeline"
)

// Analyzer reads frames from an IPv4-filtered socket and writes a tally
// snapshot after every counted frame.
type Analyzer struct {
	recv pipeline.Receiver
	out  io.Writer

	metrics *pipeline.Metrics
}

func New(recv pipeline.Receiver, out io.Writer) *Analyzer {
	return &Analyzer{recv: recv, out: out}
}

// Run counts frames into tally until ctx is done or the socket is closed. A
// receive or write error ends the run and is returned.
func (a *Analyzer) Run(ctx context.Context, tally *Tally) error {
	p := pipeline.New("analyze", a.recv, func(f core.Frame) error {
		proto, err := Classify(f.Data)
		if err != nil {
			return err
		}
		tally.Add(proto)
		if _, err := fmt.Fprintln(a.out, tally); err != nil {
			return errors.Wrap(err, "write tally")
		}
		return nil
	})
	a.metrics = p.Metrics()
	return p.Run(ctx)
}

// Metrics returns the counters of the last run, or nil before Run.
func (a *Analyzer) Metrics() *pipeline.Metrics {
	return a.metrics
}

// Classify decodes the Ethernet and IPv4 headers of frame and returns the
// IP protocol it carries.
func Classify(frame []byte) (core.Protocol, error) {
	hdr, _, err := codec.EtherIPv4.Decode(frame)
	if err != nil {
		return 0, err
	}
	if hdr.First.EtherType != core.EtherTypeIP {
		return 0, errors.Wrapf(core.ErrUnsupportedProto, "ethertype %s", hdr.First.EtherType)
	}
	return hdr.Second.Protocol, nil
}
