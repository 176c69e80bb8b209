// Package pipeline runs the receive loop shared by the capture commands:
// receive one frame, hand it to a handler, repeat.
package pipeline

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/XaydBayeck/ipw/internal/core"
	"github.com/XaydBayeck/ipw/internal/log"
)

// Receiver is the receive half of a frame socket.
type Receiver interface {
	Receive() (core.Frame, error)
}

// Handler consumes one frame.
//
// An error wrapping core.ErrNoMatch drops the frame silently. An error
// wrapping one of the header codec errors marks the frame malformed; it is
// logged and skipped. Any other error stops the pipeline.
type Handler func(core.Frame) error

// Pipeline is a synchronous receive loop. It is not safe for concurrent use.
type Pipeline struct {
	name    string
	recv    Receiver
	handle  Handler
	metrics *Metrics
	limiter *WarnLimiter
	log     log.Logger
}

// New creates a pipeline reading from recv.
func New(name string, recv Receiver, handle Handler) *Pipeline {
	return &Pipeline{
		name:    name,
		recv:    recv,
		handle:  handle,
		metrics: NewMetrics(name),
		limiter: NewWarnLimiter(DefaultWarnLimiterConfig()),
		log:     log.GetLogger().WithField("pipeline", name),
	}
}

// Metrics returns the pipeline's counters.
func (p *Pipeline) Metrics() *Metrics {
	return p.metrics
}

// SetWarnLimiter replaces the limiter for malformed-frame warnings; nil
// logs every warning.
func (p *Pipeline) SetWarnLimiter(l *WarnLimiter) {
	p.limiter = l
}

// Run receives frames until ctx is done, the receiver is closed or the
// handler fails. Cancellation and a closed receiver end the loop with a nil
// error; closing the socket is how a blocked Receive is interrupted.
func (p *Pipeline) Run(ctx context.Context) error {
	p.log.Info("pipeline started")
	defer func() {
		p.log.Infof("pipeline stopped, %s, suppressed_warnings=%d", p.metrics, p.limiter.Suppressed())
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}

		frame, err := p.recv.Receive()
		if err != nil {
			if ctx.Err() != nil || closed(err) {
				return nil
			}
			return err
		}
		p.metrics.Received.Add(1)

		if err := p.process(frame); err != nil {
			return err
		}
	}
}

func (p *Pipeline) process(frame core.Frame) error {
	err := p.handle(frame)
	switch {
	case err == nil:
		p.metrics.Processed.Add(1)
		return nil
	case errors.Is(err, core.ErrNoMatch):
		p.metrics.Dropped.Add(1)
		return nil
	case Malformed(err):
		p.metrics.DecodeErrors.Add(1)
		if p.limiter.Allow(frame.Source.HardwareAddr, time.Now()) {
			p.log.WithError(err).Warnf("skipping malformed frame of %d bytes", len(frame.Data))
		}
		return nil
	default:
		return err
	}
}

// Malformed reports whether err comes from decoding a bad or unsupported
// header.
func Malformed(err error) bool {
	return errors.Is(err, core.ErrTruncatedHeader) ||
		errors.Is(err, core.ErrInvalidHeader) ||
		errors.Is(err, core.ErrUnsupportedProto)
}

func closed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}
