// Package filter prints the IPv4 frames on an interface that match an
// address predicate.
package filter

import (
	"context"

	"github.com/XaydBayeck/ipw/internal/core"
	"github.com/XaydBayeck/ipw/internal/core/decoder"
	"github.com/XaydBayeck/ipw/internal/log"
	"github.com/XaydBayeck/ipw/internal/pipeline"
)

// FrameFilter receives frames, runs them through
// seen counter -> predicate -> matched counter and prints the survivors.
type FrameFilter struct {
	recv    pipeline.Receiver
	pred    Predicate
	printer Printer
	dec     decoder.Decoder

	seen    *CounterFilter
	matched *CounterFilter
	chain   *FilterChain
}

func New(recv pipeline.Receiver, pred Predicate, printer Printer) *FrameFilter {
	f := &FrameFilter{
		recv:    recv,
		pred:    pred,
		printer: printer,
		dec:     decoder.New(),
		seen:    NewCounterFilter(),
		matched: NewCounterFilter(),
	}
	f.chain = NewFilterChain(f.print, []Filter{f.seen, pred, f.matched})
	return f
}

// Run prints matching frames until ctx is done or the socket is closed.
func (f *FrameFilter) Run(ctx context.Context) error {
	log.GetLogger().Infof("filter %s", f.pred)
	p := pipeline.New("filter", f.recv, f.handle)
	return p.Run(ctx)
}

func (f *FrameFilter) handle(frame core.Frame) error {
	ex, err := decodeExchange(frame)
	if err != nil {
		return err
	}
	return f.chain.Filter(ex)
}

func (f *FrameFilter) print(ex *Exchange) error {
	return f.printer.Print(NewRecord(ex, f.dec))
}

// Seen is the number of decoded IPv4 frames.
func (f *FrameFilter) Seen() int {
	return f.seen.GetCount()
}

// Matched is the number of frames that satisfied the predicate.
func (f *FrameFilter) Matched() int {
	return f.matched.GetCount()
}
