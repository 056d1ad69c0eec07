package debugger

import "github.com/wnxd/dbgmeta/transfer"

// RangeInfo is a half-open [Start, End) range of module-relative addresses.
type RangeInfo struct {
	Module           string `encoding:"256"`
	Start            uint64
	End              uint64
	Manual           bool
	InstructionCount uint64
}

type (
	ArgumentInfo = RangeInfo
	FunctionInfo = RangeInfo
)

type RangeStore interface {
	Add(start, end uint64, manual bool, instructionCount uint64) error
	ForceAdd(start, end uint64, manual bool, instructionCount uint64) error
	AddInfo(info RangeInfo) error
	Get(addr uint64) (start, end, instructionCount uint64, err error)
	GetInfo(addr uint64) (RangeInfo, error)
	Overlaps(start, end uint64) bool
	Delete(addr uint64) error
	DeleteRange(start, end uint64, includeManual bool)
	Clear()
	GetList() *transfer.List[RangeInfo]
	Restore(infos ...RangeInfo) error
}
