package pipeline

import (
	"context"
	"io"
	"net"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XaydBayeck/ipw/internal/core"
)

// scriptedReceiver returns its frames in order, then end.
type scriptedReceiver struct {
	frames []core.Frame
	end    error
}

func (r *scriptedReceiver) Receive() (core.Frame, error) {
	if len(r.frames) == 0 {
		return core.Frame{}, r.end
	}
	f := r.frames[0]
	r.frames = r.frames[1:]
	return f, nil
}

func frames(n int) []core.Frame {
	out := make([]core.Frame, n)
	for i := range out {
		out[i] = core.Frame{Data: []byte{byte(i)}}
	}
	return out
}

func TestRunCountsOutcomes(t *testing.T) {
	recv := &scriptedReceiver{frames: frames(4), end: io.EOF}

	p := New("test", recv, func(f core.Frame) error {
		switch f.Data[0] {
		case 1:
			return errors.Wrap(core.ErrTruncatedHeader, "ipv4")
		case 2:
			return core.ErrNoMatch
		}
		return nil
	})
	require.NoError(t, p.Run(context.Background()))

	m := p.Metrics()
	assert.Equal(t, uint64(4), m.Received.Load())
	assert.Equal(t, uint64(2), m.Processed.Load())
	assert.Equal(t, uint64(1), m.Dropped.Load())
	assert.Equal(t, uint64(1), m.DecodeErrors.Load())
	assert.Equal(t, "test: received=4 processed=2 dropped=1 decode_errors=1", m.String())

	m.Reset()
	assert.Equal(t, uint64(0), m.Received.Load())
}

func TestRunEndings(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		end     error
		handler error
		want    error
	}{
		{name: "eof", end: io.EOF},
		{name: "closed socket", end: errors.Wrap(net.ErrClosed, "receive")},
		{name: "read error", end: boom, want: boom},
		{name: "handler error", end: io.EOF, handler: boom, want: boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recv := &scriptedReceiver{frames: frames(1), end: tt.end}
			p := New(tt.name, recv, func(core.Frame) error { return tt.handler })

			err := p.Run(context.Background())
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	recv := &scriptedReceiver{frames: frames(3), end: errors.New("unreachable")}

	var seen int
	p := New("cancel", recv, func(core.Frame) error {
		seen++
		cancel()
		return nil
	})

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, 1, seen)
}

func TestMalformed(t *testing.T) {
	assert.True(t, Malformed(errors.Wrap(core.ErrInvalidHeader, "x")))
	assert.True(t, Malformed(core.ErrUnsupportedProto))
	assert.False(t, Malformed(core.ErrNoReply))
	assert.False(t, Malformed(nil))
}
