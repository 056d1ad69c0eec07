package debugger

import (
	"cmp"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/wnxd/dbgmeta/debugger"
	"github.com/wnxd/dbgmeta/transfer"
)

type xrefRecord struct {
	module string
	refs   map[uint64]debugger.XrefType
}

// xrefMap keeps, per target (module, rva), the referencing rvas of the same
// module and the kind of each reference.
type xrefMap struct {
	mm      *moduleManager
	metrics *metrics
	mu      sync.RWMutex
	records map[addrKey]*xrefRecord
}

func (xm *xrefMap) ctor(mm *moduleManager, m *metrics) {
	xm.mm = mm
	xm.metrics = m
	xm.records = make(map[addrKey]*xrefRecord)
}

func (xm *xrefMap) dtor() {
	xm.mu.Lock()
	clear(xm.records)
	xm.mu.Unlock()
}

func (xm *xrefMap) Add(addr, from uint64, typ debugger.XrefType) error {
	err := xm.add(addr, from, typ)
	xm.metrics.observe("xref", "add", err)
	return err
}

func (xm *xrefMap) add(addr, from uint64, typ debugger.XrefType) error {
	if typ <= debugger.XrefNone || typ > debugger.XrefCall {
		return errors.Wrapf(debugger.ErrMalformedRange, "xref type %d", typ)
	}
	mod, rva, err := xm.mm.resolve(addr)
	if err != nil {
		return err
	}
	fmod, frva, err := xm.mm.resolve(from)
	if err != nil {
		return err
	}
	if fmod != mod {
		return errors.Wrapf(debugger.ErrAddressNotMapped, "reference %#x to %#x leaves module %s", from, addr, mod.name)
	}
	key := addrKey{mod.hash, rva}
	xm.mu.Lock()
	rec := xm.records[key]
	if rec == nil {
		rec = &xrefRecord{module: mod.name, refs: make(map[uint64]debugger.XrefType)}
		xm.records[key] = rec
	}
	rec.refs[frva] = typ
	xm.mu.Unlock()
	return nil
}

func (xm *xrefMap) Get(addr uint64) (*transfer.List[debugger.XrefInfo], error) {
	mod, rva, err := xm.mm.resolve(addr)
	if err != nil {
		return nil, err
	}
	xm.mu.RLock()
	defer xm.mu.RUnlock()
	rec := xm.records[addrKey{mod.hash, rva}]
	if rec == nil {
		return nil, errors.Wrapf(debugger.ErrNotFound, "xrefs to %#x", addr)
	}
	return transfer.NewList(rec.infos(rva)), nil
}

func (xm *xrefMap) Count(addr uint64) int {
	mod, rva, err := xm.mm.resolve(addr)
	if err != nil {
		return 0
	}
	xm.mu.RLock()
	defer xm.mu.RUnlock()
	if rec := xm.records[addrKey{mod.hash, rva}]; rec != nil {
		return len(rec.refs)
	}
	return 0
}

// Type reports the strongest kind of reference to addr: jmp, then call, then
// data.
func (xm *xrefMap) Type(addr uint64) debugger.XrefType {
	mod, rva, err := xm.mm.resolve(addr)
	if err != nil {
		return debugger.XrefNone
	}
	xm.mu.RLock()
	defer xm.mu.RUnlock()
	rec := xm.records[addrKey{mod.hash, rva}]
	if rec == nil {
		return debugger.XrefNone
	}
	typ := debugger.XrefNone
	for _, t := range rec.refs {
		if t == debugger.XrefJmp {
			return t
		}
		typ = max(typ, t)
	}
	return typ
}

func (xm *xrefMap) DeleteAll(addr uint64) error {
	err := xm.deleteAll(addr)
	xm.metrics.observe("xref", "delete", err)
	return err
}

func (xm *xrefMap) deleteAll(addr uint64) error {
	mod, rva, err := xm.mm.resolve(addr)
	if err != nil {
		return err
	}
	key := addrKey{mod.hash, rva}
	xm.mu.Lock()
	defer xm.mu.Unlock()
	if xm.records[key] == nil {
		return errors.Wrapf(debugger.ErrNotFound, "xrefs to %#x", addr)
	}
	delete(xm.records, key)
	return nil
}

// DeleteRange drops every target in [start, end) with all its references.
func (xm *xrefMap) DeleteRange(start, end uint64) {
	spans := xm.mm.spans(start, end)
	if len(spans) == 0 {
		return
	}
	xm.mu.Lock()
	for key := range xm.records {
		for _, s := range spans {
			if key.mod == s.mod.hash && key.rva >= s.start && key.rva < s.end {
				delete(xm.records, key)
				break
			}
		}
	}
	xm.mu.Unlock()
	xm.metrics.observe("xref", "delete_range", nil)
}

func (xm *xrefMap) Clear() {
	xm.mu.Lock()
	clear(xm.records)
	xm.mu.Unlock()
	xm.metrics.observe("xref", "clear", nil)
}

func (xm *xrefMap) GetList() *transfer.List[debugger.XrefInfo] {
	return transfer.NewList(xm.list())
}

func (xm *xrefMap) list() []debugger.XrefInfo {
	xm.mu.RLock()
	var infos []debugger.XrefInfo
	for key, rec := range xm.records {
		infos = append(infos, rec.infos(key.rva)...)
	}
	xm.mu.RUnlock()
	slices.SortFunc(infos, func(a, b debugger.XrefInfo) int {
		return cmp.Or(strings.Compare(a.Module, b.Module), cmp.Compare(a.Address, b.Address), cmp.Compare(a.From, b.From))
	})
	return infos
}

func (xm *xrefMap) Restore(infos ...debugger.XrefInfo) error {
	var errs error
	xm.mu.Lock()
	for _, info := range infos {
		info.Module = strings.ToLower(info.Module)
		if err := xm.check(info); err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		key := addrKey{moduleHash(info.Module), info.Address}
		rec := xm.records[key]
		if rec == nil {
			rec = &xrefRecord{module: info.Module, refs: make(map[uint64]debugger.XrefType)}
			xm.records[key] = rec
		}
		rec.refs[info.From] = info.Type
	}
	xm.mu.Unlock()
	xm.metrics.observe("xref", "restore", errs)
	return errs
}

func (xm *xrefMap) check(info debugger.XrefInfo) error {
	switch {
	case info.Module == "":
		return errors.Wrapf(debugger.ErrModuleNotFound, "xref %#x -> %#x has no module", info.From, info.Address)
	case info.Type <= debugger.XrefNone || info.Type > debugger.XrefCall:
		return errors.Wrapf(debugger.ErrMalformedRange, "xref %s+%#x -> %#x has type %d", info.Module, info.From, info.Address, info.Type)
	}
	return debugger.CheckWidth("module name", info.Module, debugger.MaxModuleSize)
}

func (rec *xrefRecord) infos(rva uint64) []debugger.XrefInfo {
	infos := make([]debugger.XrefInfo, 0, len(rec.refs))
	for _, from := range slices.Sorted(maps.Keys(rec.refs)) {
		infos = append(infos, debugger.XrefInfo{Module: rec.module, Address: rva, From: from, Type: rec.refs[from]})
	}
	return infos
}
