package debugger

import (
	"cmp"
	"slices"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/wnxd/dbgmeta/debugger"
	"github.com/wnxd/dbgmeta/internal/interval"
	"github.com/wnxd/dbgmeta/transfer"
)

type rangeRecord struct {
	module string
	manual bool
	icount uint64
	seq    uint64
}

// rangeMap keeps one interval tree per module, keyed by module-relative
// [start, end). Point queries that hit several ranges answer with the most
// recently added one.
type rangeMap struct {
	name         string
	allowOverlap bool
	mm           *moduleManager
	metrics      *metrics
	mu           sync.RWMutex
	seq          uint64
	trees        map[uint64]*interval.Tree[rangeRecord]
}

func (rm *rangeMap) ctor(name string, allowOverlap bool, mm *moduleManager, m *metrics) {
	rm.name = name
	rm.allowOverlap = allowOverlap
	rm.mm = mm
	rm.metrics = m
	rm.trees = make(map[uint64]*interval.Tree[rangeRecord])
}

func (rm *rangeMap) dtor() {
	rm.mu.Lock()
	clear(rm.trees)
	rm.mu.Unlock()
}

func (rm *rangeMap) Add(start, end uint64, manual bool, instructionCount uint64) error {
	err := rm.add(start, end, manual, instructionCount, false)
	rm.metrics.observe(rm.name, "add", err)
	return err
}

func (rm *rangeMap) ForceAdd(start, end uint64, manual bool, instructionCount uint64) error {
	err := rm.add(start, end, manual, instructionCount, true)
	rm.metrics.observe(rm.name, "add", err)
	return err
}

func (rm *rangeMap) AddInfo(info debugger.RangeInfo) error {
	err := rm.addInfo(info)
	rm.metrics.observe(rm.name, "add", err)
	return err
}

func (rm *rangeMap) addInfo(info debugger.RangeInfo) error {
	if info.End <= info.Start {
		return errors.Wrapf(debugger.ErrMalformedRange, "%s [%#x, %#x)", info.Module, info.Start, info.End)
	}
	start, err := rm.mm.Translate(debugger.Location{Module: info.Module, RVA: info.Start})
	if err != nil {
		return err
	}
	return rm.add(start, start+(info.End-info.Start), info.Manual, info.InstructionCount, false)
}

func (rm *rangeMap) add(start, end uint64, manual bool, icount uint64, force bool) error {
	if end <= start {
		return errors.Wrapf(debugger.ErrMalformedRange, "[%#x, %#x)", start, end)
	}
	mod, rs, err := rm.mm.resolve(start)
	if err != nil {
		return err
	}
	if end-start > mod.size-rs {
		return errors.Wrapf(debugger.ErrAddressNotMapped, "[%#x, %#x) leaves module %s", start, end, mod.name)
	}
	re := rs + (end - start)

	rm.mu.Lock()
	defer rm.mu.Unlock()
	tree := rm.trees[mod.hash]
	if tree == nil {
		tree = new(interval.Tree[rangeRecord])
		rm.trees[mod.hash] = tree
	}
	if old, ok := tree.Get(rs, re); ok && old.manual && !manual && !force {
		return errors.Wrapf(debugger.ErrManualProtected, "%s %s+[%#x, %#x)", rm.name, mod.name, rs, re)
	}
	if !force && !rm.allowOverlap {
		for e := range tree.Overlapping(rs, re) {
			if e.Start != rs || e.End != re {
				return errors.Wrapf(debugger.ErrRangeOverlap, "%s %s+[%#x, %#x) overlaps [%#x, %#x)", rm.name, mod.name, rs, re, e.Start, e.End)
			}
		}
	}
	rm.seq++
	tree.Insert(rs, re, rangeRecord{module: mod.name, manual: manual, icount: icount, seq: rm.seq})
	return nil
}

func (rm *rangeMap) Get(addr uint64) (start, end, instructionCount uint64, err error) {
	mod, rva, err := rm.mm.resolve(addr)
	if err != nil {
		return 0, 0, 0, err
	}
	rm.mu.RLock()
	e, ok := rm.containing(mod.hash, rva)
	rm.mu.RUnlock()
	if !ok {
		return 0, 0, 0, errors.Wrapf(debugger.ErrNotFound, "%s at %#x", rm.name, addr)
	}
	return mod.base + e.Start, mod.base + e.End, e.Value.icount, nil
}

func (rm *rangeMap) GetInfo(addr uint64) (debugger.RangeInfo, error) {
	mod, rva, err := rm.mm.resolve(addr)
	if err != nil {
		return debugger.RangeInfo{}, err
	}
	rm.mu.RLock()
	e, ok := rm.containing(mod.hash, rva)
	rm.mu.RUnlock()
	if !ok {
		return debugger.RangeInfo{}, errors.Wrapf(debugger.ErrNotFound, "%s at %#x", rm.name, addr)
	}
	return rangeInfo(e), nil
}

// containing returns the most recently added range of module hash that
// contains rva. The caller holds rm.mu.
func (rm *rangeMap) containing(hash, rva uint64) (interval.Entry[rangeRecord], bool) {
	var (
		best  interval.Entry[rangeRecord]
		found bool
	)
	tree := rm.trees[hash]
	if tree == nil {
		return best, false
	}
	for e := range tree.Containing(rva) {
		if !found || e.Value.seq > best.Value.seq {
			best, found = e, true
		}
	}
	return best, found
}

func (rm *rangeMap) Overlaps(start, end uint64) bool {
	spans := rm.mm.spans(start, end)
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	for _, s := range spans {
		if tree := rm.trees[s.mod.hash]; tree != nil && tree.Overlaps(s.start, s.end) {
			return true
		}
	}
	return false
}

func (rm *rangeMap) Delete(addr uint64) error {
	err := rm.delete(addr)
	rm.metrics.observe(rm.name, "delete", err)
	return err
}

func (rm *rangeMap) delete(addr uint64) error {
	mod, rva, err := rm.mm.resolve(addr)
	if err != nil {
		return err
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	e, ok := rm.containing(mod.hash, rva)
	if !ok {
		return errors.Wrapf(debugger.ErrNotFound, "%s at %#x", rm.name, addr)
	}
	rm.remove(mod.hash, e.Start, e.End)
	return nil
}

func (rm *rangeMap) DeleteRange(start, end uint64, includeManual bool) {
	spans := rm.mm.spans(start, end)
	if len(spans) == 0 {
		return
	}
	rm.mu.Lock()
	for _, s := range spans {
		tree := rm.trees[s.mod.hash]
		if tree == nil {
			continue
		}
		var doomed []interval.Entry[rangeRecord]
		for e := range tree.Overlapping(s.start, s.end) {
			if includeManual || !e.Value.manual {
				doomed = append(doomed, e)
			}
		}
		for _, e := range doomed {
			rm.remove(s.mod.hash, e.Start, e.End)
		}
	}
	rm.mu.Unlock()
	rm.metrics.observe(rm.name, "delete_range", nil)
}

func (rm *rangeMap) remove(hash, start, end uint64) {
	tree := rm.trees[hash]
	tree.Delete(start, end)
	if tree.Len() == 0 {
		delete(rm.trees, hash)
	}
}

func (rm *rangeMap) Clear() {
	rm.mu.Lock()
	clear(rm.trees)
	rm.mu.Unlock()
	rm.metrics.observe(rm.name, "clear", nil)
}

func (rm *rangeMap) GetList() *transfer.List[debugger.RangeInfo] {
	return transfer.NewList(rm.list())
}

func (rm *rangeMap) list() []debugger.RangeInfo {
	rm.mu.RLock()
	var infos []debugger.RangeInfo
	for _, tree := range rm.trees {
		for e := range tree.All() {
			infos = append(infos, rangeInfo(e))
		}
	}
	rm.mu.RUnlock()
	slices.SortFunc(infos, func(a, b debugger.RangeInfo) int {
		return cmp.Or(strings.Compare(a.Module, b.Module), cmp.Compare(a.Start, b.Start), cmp.Compare(a.End, b.End))
	})
	return infos
}

// Restore inserts module-relative ranges as they are, without the overlap
// check; the owning modules need not be loaded.
func (rm *rangeMap) Restore(infos ...debugger.RangeInfo) error {
	var errs error
	valid := make([]debugger.RangeInfo, 0, len(infos))
	for _, info := range infos {
		info.Module = strings.ToLower(info.Module)
		if err := rm.check(info); err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		valid = append(valid, info)
	}
	rm.mu.Lock()
	for _, info := range valid {
		hash := moduleHash(info.Module)
		tree := rm.trees[hash]
		if tree == nil {
			tree = new(interval.Tree[rangeRecord])
			rm.trees[hash] = tree
		}
		rm.seq++
		tree.Insert(info.Start, info.End, rangeRecord{module: info.Module, manual: info.Manual, icount: info.InstructionCount, seq: rm.seq})
	}
	rm.mu.Unlock()
	rm.metrics.observe(rm.name, "restore", errs)
	return errs
}

func (rm *rangeMap) check(info debugger.RangeInfo) error {
	if info.Module == "" {
		return errors.Wrapf(debugger.ErrModuleNotFound, "%s [%#x, %#x) has no module", rm.name, info.Start, info.End)
	}
	if info.End <= info.Start {
		return errors.Wrapf(debugger.ErrMalformedRange, "%s %s+[%#x, %#x)", rm.name, info.Module, info.Start, info.End)
	}
	return debugger.CheckWidth("module name", info.Module, debugger.MaxModuleSize)
}

func rangeInfo(e interval.Entry[rangeRecord]) debugger.RangeInfo {
	return debugger.RangeInfo{
		Module:           e.Value.module,
		Start:            e.Start,
		End:              e.End,
		Manual:           e.Value.manual,
		InstructionCount: e.Value.icount,
	}
}
