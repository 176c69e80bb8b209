package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/XaydBayeck/ipw/internal/core"
)

// Entry is one protocol's count in a snapshot.
type Entry struct {
	Protocol core.Protocol
	Count    uint64
}

// Tally counts observed frames per IP protocol. It is owned by a single
// analyzer run and is not safe for concurrent use.
type Tally struct {
	counts map[core.Protocol]uint64
	total  uint64
}

func NewTally() *Tally {
	return &Tally{counts: make(map[core.Protocol]uint64)}
}

// Add records one frame of protocol p, inserting it at zero first if absent.
func (t *Tally) Add(p core.Protocol) {
	t.counts[p]++
	t.total++
}

func (t *Tally) Count(p core.Protocol) uint64 {
	return t.counts[p]
}

func (t *Tally) Total() uint64 {
	return t.total
}

// Snapshot returns the counts ordered by protocol number.
func (t *Tally) Snapshot() []Entry {
	out := make([]Entry, 0, len(t.counts))
	for p, n := range t.counts {
		out = append(out, Entry{Protocol: p, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Protocol < out[j].Protocol })
	return out
}

// String renders the snapshot as "ICMP=3 TCP=10".
func (t *Tally) String() string {
	entries := t.Snapshot()
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%s=%d", e.Protocol, e.Count)
	}
	return strings.Join(parts, " ")
}
