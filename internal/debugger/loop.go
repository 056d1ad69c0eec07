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

type loopKey struct {
	mod   uint64
	depth int
}

type loopRecord struct {
	module string
	parent uint64
	manual bool
}

// loopMap keeps one interval tree per (module, depth). Loops sharing a depth
// are disjoint, so a point hits at most one loop per depth.
type loopMap struct {
	mm      *moduleManager
	metrics *metrics
	mu      sync.RWMutex
	trees   map[loopKey]*interval.Tree[loopRecord]
}

func (lm *loopMap) ctor(mm *moduleManager, m *metrics) {
	lm.mm = mm
	lm.metrics = m
	lm.trees = make(map[loopKey]*interval.Tree[loopRecord])
}

func (lm *loopMap) dtor() {
	lm.mu.Lock()
	clear(lm.trees)
	lm.mu.Unlock()
}

func (lm *loopMap) Add(start, end uint64, manual bool) (int, error) {
	depth, err := lm.add(start, end, manual)
	lm.metrics.observe("loop", "add", err)
	return depth, err
}

func (lm *loopMap) add(start, end uint64, manual bool) (int, error) {
	if end <= start {
		return 0, errors.Wrapf(debugger.ErrMalformedRange, "loop [%#x, %#x)", start, end)
	}
	mod, rs, err := lm.mm.resolve(start)
	if err != nil {
		return 0, err
	}
	if end-start > mod.size-rs {
		return 0, errors.Wrapf(debugger.ErrAddressNotMapped, "loop [%#x, %#x) leaves module %s", start, end, mod.name)
	}
	re := rs + (end - start)

	lm.mu.Lock()
	defer lm.mu.Unlock()
	depth := lm.depthOf(mod.hash, 0, rs, re)
	key := loopKey{mod.hash, depth}
	tree := lm.trees[key]
	if tree != nil {
		if old, ok := tree.Get(rs, re); ok {
			if old.manual && !manual {
				return depth, errors.Wrapf(debugger.ErrManualProtected, "loop %s+[%#x, %#x)", mod.name, rs, re)
			}
			old.manual = manual
			tree.Insert(rs, re, old)
			return depth, nil
		}
		for e := range tree.Overlapping(rs, re) {
			return depth, errors.Wrapf(debugger.ErrRangeOverlap, "loop %s+[%#x, %#x) crosses [%#x, %#x)", mod.name, rs, re, e.Start, e.End)
		}
	} else {
		tree = new(interval.Tree[loopRecord])
		lm.trees[key] = tree
	}
	var parent uint64
	if depth > 0 {
		if e, ok := lm.containing(loopKey{mod.hash, depth - 1}, rs); ok {
			parent = e.Start
		}
	}
	tree.Insert(rs, re, loopRecord{module: mod.name, parent: parent, manual: manual})
	return depth, nil
}

// depthOf returns the first depth, starting at depth, where no loop encloses
// [rs, re). The caller holds lm.mu.
func (lm *loopMap) depthOf(hash uint64, depth int, rs, re uint64) int {
	for {
		e, ok := lm.containing(loopKey{hash, depth}, rs)
		if !ok || re > e.End || (e.Start == rs && e.End == re) {
			return depth
		}
		depth++
	}
}

func (lm *loopMap) containing(key loopKey, rva uint64) (interval.Entry[loopRecord], bool) {
	if tree := lm.trees[key]; tree != nil {
		for e := range tree.Containing(rva) {
			return e, true
		}
	}
	return interval.Entry[loopRecord]{}, false
}

func (lm *loopMap) Get(depth int, addr uint64) (uint64, uint64, error) {
	mod, e, err := lm.find(depth, addr)
	if err != nil {
		return 0, 0, err
	}
	return mod.base + e.Start, mod.base + e.End, nil
}

func (lm *loopMap) GetInfo(depth int, addr uint64) (debugger.LoopInfo, error) {
	_, e, err := lm.find(depth, addr)
	if err != nil {
		return debugger.LoopInfo{}, err
	}
	return loopInfo(depth, e), nil
}

func (lm *loopMap) find(depth int, addr uint64) (*module, interval.Entry[loopRecord], error) {
	mod, rva, err := lm.mm.resolve(addr)
	if err != nil {
		return nil, interval.Entry[loopRecord]{}, err
	}
	lm.mu.RLock()
	e, ok := lm.containing(loopKey{mod.hash, depth}, rva)
	lm.mu.RUnlock()
	if !ok {
		return nil, e, errors.Wrapf(debugger.ErrNotFound, "loop at depth %d, %#x", depth, addr)
	}
	return mod, e, nil
}

// Overlaps reports whether [start, end) crosses a loop at the depth it would
// be added at, searching from depth.
func (lm *loopMap) Overlaps(depth int, start, end uint64) bool {
	if end <= start || depth < 0 {
		return false
	}
	mod, rs, err := lm.mm.resolve(start)
	if err != nil {
		return false
	}
	re := rs + min(end-start, mod.size-rs)
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	tree := lm.trees[loopKey{mod.hash, lm.depthOf(mod.hash, depth, rs, re)}]
	return tree != nil && tree.Overlaps(rs, re)
}

// Delete removes the loop at depth containing addr together with every loop
// nested in it.
func (lm *loopMap) Delete(depth int, addr uint64) error {
	err := lm.delete(depth, addr)
	lm.metrics.observe("loop", "delete", err)
	return err
}

func (lm *loopMap) delete(depth int, addr uint64) error {
	mod, rva, err := lm.mm.resolve(addr)
	if err != nil {
		return err
	}
	lm.mu.Lock()
	defer lm.mu.Unlock()
	key := loopKey{mod.hash, depth}
	e, ok := lm.containing(key, rva)
	if !ok {
		return errors.Wrapf(debugger.ErrNotFound, "loop at depth %d, %#x", depth, addr)
	}
	lm.remove(key, e.Start, e.End)
	for k, tree := range lm.trees {
		if k.mod != mod.hash || k.depth <= depth {
			continue
		}
		var nested []interval.Entry[loopRecord]
		for n := range tree.Overlapping(e.Start, e.End) {
			nested = append(nested, n)
		}
		for _, n := range nested {
			lm.remove(k, n.Start, n.End)
		}
	}
	return nil
}

func (lm *loopMap) DeleteRange(start, end uint64, includeManual bool) {
	spans := lm.mm.spans(start, end)
	if len(spans) == 0 {
		return
	}
	lm.mu.Lock()
	for _, s := range spans {
		for k, tree := range lm.trees {
			if k.mod != s.mod.hash {
				continue
			}
			var doomed []interval.Entry[loopRecord]
			for e := range tree.Overlapping(s.start, s.end) {
				if includeManual || !e.Value.manual {
					doomed = append(doomed, e)
				}
			}
			for _, e := range doomed {
				lm.remove(k, e.Start, e.End)
			}
		}
	}
	lm.mu.Unlock()
	lm.metrics.observe("loop", "delete_range", nil)
}

func (lm *loopMap) remove(key loopKey, start, end uint64) {
	tree := lm.trees[key]
	tree.Delete(start, end)
	if tree.Len() == 0 {
		delete(lm.trees, key)
	}
}

func (lm *loopMap) Clear() {
	lm.mu.Lock()
	clear(lm.trees)
	lm.mu.Unlock()
	lm.metrics.observe("loop", "clear", nil)
}

func (lm *loopMap) GetList() *transfer.List[debugger.LoopInfo] {
	return transfer.NewList(lm.list())
}

func (lm *loopMap) list() []debugger.LoopInfo {
	lm.mu.RLock()
	var infos []debugger.LoopInfo
	for k, tree := range lm.trees {
		for e := range tree.All() {
			infos = append(infos, loopInfo(k.depth, e))
		}
	}
	lm.mu.RUnlock()
	slices.SortFunc(infos, func(a, b debugger.LoopInfo) int {
		return cmp.Or(strings.Compare(a.Module, b.Module), cmp.Compare(a.Depth, b.Depth), cmp.Compare(a.Start, b.Start))
	})
	return infos
}

// Restore inserts module-relative loops with their stored depth and parent.
func (lm *loopMap) Restore(infos ...debugger.LoopInfo) error {
	var errs error
	valid := make([]debugger.LoopInfo, 0, len(infos))
	for _, info := range infos {
		info.Module = strings.ToLower(info.Module)
		if err := lm.check(info); err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		valid = append(valid, info)
	}
	lm.mu.Lock()
	for _, info := range valid {
		key := loopKey{moduleHash(info.Module), info.Depth}
		tree := lm.trees[key]
		if tree == nil {
			tree = new(interval.Tree[loopRecord])
			lm.trees[key] = tree
		}
		tree.Insert(info.Start, info.End, loopRecord{module: info.Module, parent: info.Parent, manual: info.Manual})
	}
	lm.mu.Unlock()
	lm.metrics.observe("loop", "restore", errs)
	return errs
}

func (lm *loopMap) check(info debugger.LoopInfo) error {
	switch {
	case info.Module == "":
		return errors.Wrapf(debugger.ErrModuleNotFound, "loop [%#x, %#x) has no module", info.Start, info.End)
	case info.End <= info.Start:
		return errors.Wrapf(debugger.ErrMalformedRange, "loop %s+[%#x, %#x)", info.Module, info.Start, info.End)
	case info.Depth < 0:
		return errors.Wrapf(debugger.ErrMalformedRange, "loop %s+[%#x, %#x) at depth %d", info.Module, info.Start, info.End, info.Depth)
	}
	return debugger.CheckWidth("module name", info.Module, debugger.MaxModuleSize)
}

func loopInfo(depth int, e interval.Entry[loopRecord]) debugger.LoopInfo {
	return debugger.LoopInfo{
		Module: e.Value.module,
		Start:  e.Start,
		End:    e.End,
		Depth:  depth,
		Parent: e.Value.parent,
		Manual: e.Value.manual,
	}
}
