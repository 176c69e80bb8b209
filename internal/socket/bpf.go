package socket

import (
	"golang.org/x/net/bpf"

	"github.com/XaydBayeck/ipw/internal/core"
)

// Bytes accepted per matching frame.
const snapLen = 0x40000

// EtherTypeFilter returns a program accepting only untagged frames whose
// EtherType is et.
func EtherTypeFilter(et core.EtherType) []bpf.Instruction {
	return []bpf.Instruction{
		bpf.LoadAbsolute{Off: 12, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpNotEqual, Val: uint32(et), SkipTrue: 1},
		bpf.RetConstant{Val: snapLen},
		bpf.RetConstant{Val: 0},
	}
}
