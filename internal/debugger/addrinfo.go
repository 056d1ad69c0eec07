package debugger

import (
	"cmp"
	"slices"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/wnxd/dbgmeta/debugger"
	"github.com/wnxd/dbgmeta/encoding"
	"github.com/wnxd/dbgmeta/transfer"
)

type addrKey struct {
	mod uint64
	rva uint64
}

type addrRecord[P any] struct {
	module  string
	payload P
	manual  bool
}

type addrKind[P any] struct {
	name     string
	validate func(P) error
	empty    func(P) bool
	width    []encoding.Option
}

// addrInfoMap is a point store keyed by (module, rva). It resolves through the
// module manager before taking its own lock and never holds both.
type addrInfoMap[P any] struct {
	kind    addrKind[P]
	mm      *moduleManager
	metrics *metrics
	mu      sync.RWMutex
	records map[addrKey]addrRecord[P]
}

func (am *addrInfoMap[P]) ctor(kind addrKind[P], mm *moduleManager, m *metrics) {
	am.kind = kind
	am.mm = mm
	am.metrics = m
	am.records = make(map[addrKey]addrRecord[P])
}

func (am *addrInfoMap[P]) dtor() {
	am.mu.Lock()
	clear(am.records)
	am.mu.Unlock()
}

func (am *addrInfoMap[P]) Set(addr uint64, payload P, manual bool) error {
	err := am.set(addr, payload, manual, false)
	am.metrics.observe(am.kind.name, "set", err)
	return err
}

func (am *addrInfoMap[P]) ForceSet(addr uint64, payload P, manual bool) error {
	err := am.set(addr, payload, manual, true)
	am.metrics.observe(am.kind.name, "set", err)
	return err
}

func (am *addrInfoMap[P]) SetInfo(info debugger.AddrInfo[P]) error {
	addr, err := am.mm.Translate(debugger.Location{Module: info.Module, RVA: info.RVA})
	if err == nil {
		err = am.set(addr, info.Payload, info.Manual, false)
	}
	am.metrics.observe(am.kind.name, "set", err)
	return err
}

func (am *addrInfoMap[P]) set(addr uint64, payload P, manual, force bool) error {
	if am.kind.empty != nil && am.kind.empty(payload) {
		return am.remove(addr, manual || force)
	}
	if am.kind.validate != nil {
		if err := am.kind.validate(payload); err != nil {
			return err
		}
	}
	mod, rva, err := am.mm.resolve(addr)
	if err != nil {
		return err
	}
	key := addrKey{mod.hash, rva}
	am.mu.Lock()
	defer am.mu.Unlock()
	if old, ok := am.records[key]; ok && old.manual && !manual && !force {
		return errors.Wrapf(debugger.ErrManualProtected, "%s %s+%#x", am.kind.name, mod.name, rva)
	}
	am.records[key] = addrRecord[P]{module: mod.name, payload: payload, manual: manual}
	return nil
}

func (am *addrInfoMap[P]) Get(addr uint64) (P, error) {
	info, err := am.GetInfo(addr)
	return info.Payload, err
}

func (am *addrInfoMap[P]) GetInfo(addr uint64) (debugger.AddrInfo[P], error) {
	mod, rva, err := am.mm.resolve(addr)
	if err != nil {
		return debugger.AddrInfo[P]{}, err
	}
	am.mu.RLock()
	rec, ok := am.records[addrKey{mod.hash, rva}]
	am.mu.RUnlock()
	if !ok {
		return debugger.AddrInfo[P]{}, errors.Wrapf(debugger.ErrNotFound, "%s at %#x", am.kind.name, addr)
	}
	return debugger.AddrInfo[P]{Module: rec.module, RVA: rva, Payload: rec.payload, Manual: rec.manual}, nil
}

func (am *addrInfoMap[P]) Delete(addr uint64) error {
	err := am.remove(addr, true)
	am.metrics.observe(am.kind.name, "delete", err)
	return err
}

func (am *addrInfoMap[P]) remove(addr uint64, includeManual bool) error {
	mod, rva, err := am.mm.resolve(addr)
	if err != nil {
		return err
	}
	key := addrKey{mod.hash, rva}
	am.mu.Lock()
	defer am.mu.Unlock()
	rec, ok := am.records[key]
	switch {
	case !ok:
		return errors.Wrapf(debugger.ErrNotFound, "%s at %#x", am.kind.name, addr)
	case rec.manual && !includeManual:
		return errors.Wrapf(debugger.ErrManualProtected, "%s %s+%#x", am.kind.name, mod.name, rva)
	}
	delete(am.records, key)
	return nil
}

func (am *addrInfoMap[P]) DeleteRange(start, end uint64, includeManual bool) {
	spans := am.mm.spans(start, end)
	if len(spans) == 0 {
		return
	}
	am.mu.Lock()
	for key, rec := range am.records {
		if rec.manual && !includeManual {
			continue
		}
		for _, s := range spans {
			if key.mod == s.mod.hash && key.rva >= s.start && key.rva < s.end {
				delete(am.records, key)
				break
			}
		}
	}
	am.mu.Unlock()
	am.metrics.observe(am.kind.name, "delete_range", nil)
}

func (am *addrInfoMap[P]) Clear() {
	am.mu.Lock()
	clear(am.records)
	am.mu.Unlock()
	am.metrics.observe(am.kind.name, "clear", nil)
}

func (am *addrInfoMap[P]) GetList() *transfer.List[debugger.AddrInfo[P]] {
	return transfer.NewList(am.list(), am.kind.width...)
}

func (am *addrInfoMap[P]) list() []debugger.AddrInfo[P] {
	am.mu.RLock()
	infos := make([]debugger.AddrInfo[P], 0, len(am.records))
	for key, rec := range am.records {
		infos = append(infos, debugger.AddrInfo[P]{Module: rec.module, RVA: key.rva, Payload: rec.payload, Manual: rec.manual})
	}
	am.mu.RUnlock()
	slices.SortFunc(infos, func(a, b debugger.AddrInfo[P]) int {
		return cmp.Or(strings.Compare(a.Module, b.Module), cmp.Compare(a.RVA, b.RVA))
	})
	return infos
}

// Restore inserts records that are already module-relative, such as entries
// read back from a database. The owning modules need not be loaded.
func (am *addrInfoMap[P]) Restore(infos ...debugger.AddrInfo[P]) error {
	var errs error
	valid := make([]debugger.AddrInfo[P], 0, len(infos))
	for _, info := range infos {
		info.Module = strings.ToLower(info.Module)
		if err := am.check(info); err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		valid = append(valid, info)
	}
	am.mu.Lock()
	for _, info := range valid {
		am.records[addrKey{moduleHash(info.Module), info.RVA}] = addrRecord[P]{module: info.Module, payload: info.Payload, manual: info.Manual}
	}
	am.mu.Unlock()
	am.metrics.observe(am.kind.name, "restore", errs)
	return errs
}

func (am *addrInfoMap[P]) check(info debugger.AddrInfo[P]) error {
	if info.Module == "" {
		return errors.Wrapf(debugger.ErrModuleNotFound, "%s+%#x has no module", am.kind.name, info.RVA)
	}
	if err := debugger.CheckWidth("module name", info.Module, debugger.MaxModuleSize); err != nil {
		return err
	}
	if am.kind.empty != nil && am.kind.empty(info.Payload) {
		return errors.Wrapf(debugger.ErrInvalidText, "%s %s+%#x is empty", am.kind.name, info.Module, info.RVA)
	}
	if am.kind.validate != nil {
		return am.kind.validate(info.Payload)
	}
	return nil
}
