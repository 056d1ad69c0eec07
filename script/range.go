package script

import (
	"github.com/wnxd/dbgmeta/debugger"
	"github.com/wnxd/dbgmeta/transfer"
)

// Range serves the argument and function stores.
type Range struct {
	store debugger.RangeStore
}

func (r Range) Add(start, end uint64, manual bool, instructionCount uint64) bool {
	return r.store.Add(start, end, manual, instructionCount) == nil
}

func (r Range) AddInfo(info debugger.RangeInfo) bool {
	return r.store.AddInfo(info) == nil
}

func (r Range) Get(addr uint64) (start, end, instructionCount uint64, ok bool) {
	start, end, instructionCount, err := r.store.Get(addr)
	return start, end, instructionCount, err == nil
}

func (r Range) GetInfo(addr uint64) (debugger.RangeInfo, bool) {
	info, err := r.store.GetInfo(addr)
	return info, err == nil
}

func (r Range) Overlaps(start, end uint64) bool {
	return r.store.Overlaps(start, end)
}

func (r Range) Delete(addr uint64) bool {
	return r.store.Delete(addr) == nil
}

func (r Range) DeleteRange(start, end uint64, includeManual bool) {
	r.store.DeleteRange(start, end, includeManual)
}

func (r Range) Clear() {
	r.store.Clear()
}

func (r Range) GetList() (*transfer.List[debugger.RangeInfo], bool) {
	return r.store.GetList(), true
}

type Symbol struct {
	symbols debugger.SymbolManager
}

func (s Symbol) GetList() (*transfer.List[debugger.SymbolInfo], bool) {
	return s.symbols.GetList(), true
}

// Loop reports the depth of an added loop, or -1 on failure.
type Loop struct {
	store debugger.LoopStore
}

func (l Loop) Add(start, end uint64, manual bool) int {
	depth, err := l.store.Add(start, end, manual)
	if err != nil {
		return -1
	}
	return depth
}

func (l Loop) Get(depth int, addr uint64) (start, end uint64, ok bool) {
	start, end, err := l.store.Get(depth, addr)
	return start, end, err == nil
}

func (l Loop) GetInfo(depth int, addr uint64) (debugger.LoopInfo, bool) {
	info, err := l.store.GetInfo(depth, addr)
	return info, err == nil
}

func (l Loop) Overlaps(depth int, start, end uint64) bool {
	return l.store.Overlaps(depth, start, end)
}

func (l Loop) Delete(depth int, addr uint64) bool {
	return l.store.Delete(depth, addr) == nil
}

func (l Loop) DeleteRange(start, end uint64, includeManual bool) {
	l.store.DeleteRange(start, end, includeManual)
}

func (l Loop) Clear() {
	l.store.Clear()
}

func (l Loop) GetList() (*transfer.List[debugger.LoopInfo], bool) {
	return l.store.GetList(), true
}

type Xref struct {
	store debugger.XrefStore
}

func (x Xref) Add(addr, from uint64, typ debugger.XrefType) bool {
	return x.store.Add(addr, from, typ) == nil
}

func (x Xref) Get(addr uint64) (*transfer.List[debugger.XrefInfo], bool) {
	list, err := x.store.Get(addr)
	return list, err == nil
}

func (x Xref) Count(addr uint64) int {
	return x.store.Count(addr)
}

func (x Xref) Type(addr uint64) debugger.XrefType {
	return x.store.Type(addr)
}

func (x Xref) DeleteAll(addr uint64) bool {
	return x.store.DeleteAll(addr) == nil
}

func (x Xref) DeleteRange(start, end uint64) {
	x.store.DeleteRange(start, end)
}

func (x Xref) Clear() {
	x.store.Clear()
}

func (x Xref) GetList() (*transfer.List[debugger.XrefInfo], bool) {
	return x.store.GetList(), true
}
