package debugger

import "github.com/wnxd/dbgmeta/transfer"

// LoopInfo is a loop of module-relative addresses [Start, End). Depth 0 loops
// are outermost; Parent is the Start of the enclosing loop one level up.
type LoopInfo struct {
	Module string `encoding:"256"`
	Start  uint64
	End    uint64
	Depth  int
	Parent uint64
	Manual bool
}

// LoopStore keeps nested loops. Loops at one depth never overlap; a loop
// strictly inside another is placed one level deeper.
type LoopStore interface {
	Add(start, end uint64, manual bool) (depth int, err error)
	Get(depth int, addr uint64) (start, end uint64, err error)
	GetInfo(depth int, addr uint64) (LoopInfo, error)
	Overlaps(depth int, start, end uint64) bool
	Delete(depth int, addr uint64) error
	DeleteRange(start, end uint64, includeManual bool)
	Clear()
	GetList() *transfer.List[LoopInfo]
	Restore(infos ...LoopInfo) error
}
