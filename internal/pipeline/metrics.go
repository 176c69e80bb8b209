package pipeline

import (
	"fmt"
	"sync/atomic"
)

// Metrics contains per-pipeline frame counters.
type Metrics struct {
	Name string

	Received     atomic.Uint64
	DecodeErrors atomic.Uint64
	Dropped      atomic.Uint64
	Processed    atomic.Uint64
}

// NewMetrics creates a new metrics instance.
func NewMetrics(name string) *Metrics {
	return &Metrics{Name: name}
}

// Reset resets all counters to zero.
func (m *Metrics) Reset() {
	m.Received.Store(0)
	m.DecodeErrors.Store(0)
	m.Dropped.Store(0)
	m.Processed.Store(0)
}

func (m *Metrics) String() string {
	return fmt.Sprintf("%s: received=%d processed=%d dropped=%d decode_errors=%d",
		m.Name,
		m.Received.Load(),
		m.Processed.Load(),
		m.Dropped.Load(),
		m.DecodeErrors.Load(),
	)
}
