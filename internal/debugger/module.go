package debugger

import (
	"slices"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/wnxd/dbgmeta/debugger"
	"github.com/wnxd/dbgmeta/loader"
	"github.com/wnxd/dbgmeta/transfer"
)

type module struct {
	name     string
	stem     string
	hash     uint64
	path     string
	base     uint64
	size     uint64
	entry    uint64
	sections []loader.Section
	exports  []loader.Export
	imports  []loader.Import
}

// moduleTable is immutable once published; load and unload build a new one.
type moduleTable struct {
	sorted []*module
	byName map[string]*module
}

type moduleManager struct {
	mu       sync.RWMutex
	table    *moduleTable
	logger   log.Logger
	metrics  *metrics
	onUnload []func(*module)
}

type span struct {
	mod        *module
	start, end uint64
}

var emptyTable = &moduleTable{byName: map[string]*module{}}

func (mm *moduleManager) ctor(logger log.Logger, m *metrics) {
	mm.table = emptyTable
	mm.logger = logger
	mm.metrics = m
}

func (mm *moduleManager) dtor() {
	mm.mu.Lock()
	mm.table = emptyTable
	mm.mu.Unlock()
	mm.metrics.modulesLoaded.Set(0)
}

func (mm *moduleManager) view() *moduleTable {
	mm.mu.RLock()
	t := mm.table
	mm.mu.RUnlock()
	return t
}

func moduleHash(name string) uint64 {
	return xxhash.Sum64String(strings.ToLower(name))
}

func newModule(img *loader.Image) (*module, error) {
	name := img.ModuleName()
	switch {
	case name == "":
		return nil, errors.Wrap(debugger.ErrMalformedRange, "module has no name")
	case img.Base == 0 || img.Size == 0:
		return nil, errors.Wrapf(debugger.ErrMalformedRange, "module %s: base %#x size %#x", name, img.Base, img.Size)
	case img.End() < img.Base:
		return nil, errors.Wrapf(debugger.ErrMalformedRange, "module %s wraps the address space", name)
	}
	if err := debugger.CheckWidth("module name", name, debugger.MaxModuleSize); err != nil {
		return nil, err
	}
	if err := debugger.CheckWidth("module path", img.Path, debugger.MaxPathSize); err != nil {
		return nil, err
	}
	for _, s := range img.Sections {
		if err := debugger.CheckWidth("section name", s.Name, debugger.MaxSectionSize); err != nil {
			return nil, err
		}
	}
	for _, e := range img.Exports {
		if err := debugger.CheckWidth("export name", e.Name, debugger.MaxSymbolSize); err != nil {
			return nil, err
		}
	}
	for _, i := range img.Imports {
		if err := debugger.CheckWidth("import name", i.Symbol, debugger.MaxSymbolSize); err != nil {
			return nil, err
		}
	}
	stem, _ := loader.SplitName(name)
	return &module{
		name:     name,
		stem:     stem,
		hash:     moduleHash(name),
		path:     img.Path,
		base:     img.Base,
		size:     img.Size,
		entry:    img.Entry,
		sections: slices.Clone(img.Sections),
		exports:  slices.Clone(img.Exports),
		imports:  slices.Clone(img.Imports),
	}, nil
}

func (mm *moduleManager) Load(img loader.Image) error {
	mod, err := newModule(&img)
	if err != nil {
		mm.metrics.moduleEvents.WithLabelValues("load", "failure").Inc()
		level.Warn(mm.logger).Log("msg", "rejected module load", "name", img.ModuleName(), "err", err)
		return err
	}
	mm.mu.Lock()
	old := mm.table
	replaced := old.byName[mod.name]
	for _, m := range old.sorted {
		if m != replaced && mod.base < m.end() && m.base < mod.end() {
			mm.mu.Unlock()
			mm.metrics.moduleEvents.WithLabelValues("load", "failure").Inc()
			level.Warn(mm.logger).Log("msg", "rejected module load", "name", mod.name, "overlaps", m.name)
			return errors.Wrapf(debugger.ErrRangeOverlap, "module %s overlaps %s", mod.name, m.name)
		}
	}
	mm.table = old.with(mod, replaced)
	count := len(mm.table.sorted)
	mm.mu.Unlock()

	if replaced != nil {
		mm.notifyUnload(replaced)
	}
	mm.metrics.moduleEvents.WithLabelValues("load", "success").Inc()
	mm.metrics.modulesLoaded.Set(float64(count))
	level.Debug(mm.logger).Log("msg", "module loaded", "name", mod.name, "base", hex(mod.base), "size", hex(mod.size))
	return nil
}

func (mm *moduleManager) Unload(name string) error {
	mm.mu.Lock()
	old := mm.table
	mod := old.find(name)
	if mod == nil {
		mm.mu.Unlock()
		mm.metrics.moduleEvents.WithLabelValues("unload", "failure").Inc()
		return errors.Wrapf(debugger.ErrModuleNotFound, "unload %s", name)
	}
	mm.table = old.with(nil, mod)
	count := len(mm.table.sorted)
	mm.mu.Unlock()

	mm.notifyUnload(mod)
	mm.metrics.moduleEvents.WithLabelValues("unload", "success").Inc()
	mm.metrics.modulesLoaded.Set(float64(count))
	level.Debug(mm.logger).Log("msg", "module unloaded", "name", mod.name)
	return nil
}

func (mm *moduleManager) notifyUnload(mod *module) {
	for _, fn := range mm.onUnload {
		fn(mod)
	}
}

func (mm *moduleManager) resolve(addr uint64) (*module, uint64, error) {
	mod := mm.view().find(addr)
	if mod == nil {
		return nil, 0, errors.Wrapf(debugger.ErrAddressNotMapped, "%#x", addr)
	}
	return mod, addr - mod.base, nil
}

// spans clips [start, end) to every loaded module it intersects, in module
// relative coordinates.
func (mm *moduleManager) spans(start, end uint64) []span {
	if end <= start {
		return nil
	}
	var spans []span
	for _, m := range mm.view().sorted {
		if m.base >= end {
			break
		}
		if m.end() <= start {
			continue
		}
		spans = append(spans, span{m, max(start, m.base) - m.base, min(end, m.end()) - m.base})
	}
	return spans
}

func (mm *moduleManager) Resolve(addr uint64) (debugger.Location, error) {
	mod, rva, err := mm.resolve(addr)
	if err != nil {
		return debugger.Location{}, err
	}
	return debugger.Location{Module: mod.name, RVA: rva}, nil
}

func (mm *moduleManager) Translate(loc debugger.Location) (uint64, error) {
	mod := mm.view().find(loc.Module)
	if mod == nil {
		return 0, errors.Wrapf(debugger.ErrModuleNotFound, "%s", loc.Module)
	}
	if loc.RVA >= mod.size {
		return 0, errors.Wrapf(debugger.ErrAddressNotMapped, "%s+%#x is outside the module", mod.name, loc.RVA)
	}
	return mod.base + loc.RVA, nil
}

func (mm *moduleManager) InfoFromAddr(addr uint64) (debugger.ModuleInfo, error) {
	return mm.info(addr)
}

func (mm *moduleManager) InfoFromName(name string) (debugger.ModuleInfo, error) {
	return mm.info(name)
}

func (mm *moduleManager) BaseFromAddr(addr uint64) uint64 {
	info, _ := mm.info(addr)
	return info.Base
}

func (mm *moduleManager) BaseFromName(name string) uint64 {
	info, _ := mm.info(name)
	return info.Base
}

func (mm *moduleManager) SizeFromAddr(addr uint64) uint64 {
	info, _ := mm.info(addr)
	return info.Size
}

func (mm *moduleManager) SizeFromName(name string) uint64 {
	info, _ := mm.info(name)
	return info.Size
}

func (mm *moduleManager) EntryFromAddr(addr uint64) uint64 {
	info, _ := mm.info(addr)
	return info.Entry
}

func (mm *moduleManager) EntryFromName(name string) uint64 {
	info, _ := mm.info(name)
	return info.Entry
}

func (mm *moduleManager) PathFromAddr(addr uint64) string {
	info, _ := mm.info(addr)
	return info.Path
}

func (mm *moduleManager) PathFromName(name string) string {
	info, _ := mm.info(name)
	return info.Path
}

func (mm *moduleManager) SectionFromAddr(addr uint64, index int) (debugger.ModuleSectionInfo, error) {
	return mm.section(addr, index)
}

func (mm *moduleManager) SectionFromName(name string, index int) (debugger.ModuleSectionInfo, error) {
	return mm.section(name, index)
}

func (mm *moduleManager) SectionListFromAddr(addr uint64) (*transfer.List[debugger.ModuleSectionInfo], error) {
	return mm.sectionList(addr)
}

func (mm *moduleManager) SectionListFromName(name string) (*transfer.List[debugger.ModuleSectionInfo], error) {
	return mm.sectionList(name)
}

func (mm *moduleManager) ModuleList() *transfer.List[debugger.ModuleInfo] {
	t := mm.view()
	infos := make([]debugger.ModuleInfo, len(t.sorted))
	for i, m := range t.sorted {
		infos[i] = m.info()
	}
	return transfer.NewList(infos)
}

func (mm *moduleManager) info(key any) (debugger.ModuleInfo, error) {
	mod := mm.view().find(key)
	if mod == nil {
		return debugger.ModuleInfo{}, errors.Wrapf(debugger.ErrModuleNotFound, "%v", key)
	}
	return mod.info(), nil
}

func (mm *moduleManager) section(key any, index int) (debugger.ModuleSectionInfo, error) {
	mod := mm.view().find(key)
	if mod == nil {
		return debugger.ModuleSectionInfo{}, errors.Wrapf(debugger.ErrModuleNotFound, "%v", key)
	}
	if index < 0 || index >= len(mod.sections) {
		return debugger.ModuleSectionInfo{}, errors.Wrapf(debugger.ErrNotFound, "%s has no section %d", mod.name, index)
	}
	return mod.sectionInfo(index), nil
}

func (mm *moduleManager) sectionList(key any) (*transfer.List[debugger.ModuleSectionInfo], error) {
	mod := mm.view().find(key)
	if mod == nil {
		return nil, errors.Wrapf(debugger.ErrModuleNotFound, "%v", key)
	}
	infos := make([]debugger.ModuleSectionInfo, len(mod.sections))
	for i := range infos {
		infos[i] = mod.sectionInfo(i)
	}
	return transfer.NewList(infos), nil
}

// find looks a module up by live address (uint64) or by name (string).
func (t *moduleTable) find(key any) *module {
	switch k := key.(type) {
	case uint64:
		i, _ := slices.BinarySearchFunc(t.sorted, k, func(m *module, addr uint64) int {
			switch {
			case m.end() <= addr:
				return -1
			case m.base > addr:
				return 1
			}
			return 0
		})
		if i < len(t.sorted) && t.sorted[i].contains(k) {
			return t.sorted[i]
		}
	case string:
		name := strings.ToLower(k)
		if m, ok := t.byName[name]; ok {
			return m
		}
		for _, m := range t.sorted {
			if m.stem == name {
				return m
			}
		}
	}
	return nil
}

func (t *moduleTable) with(add, remove *module) *moduleTable {
	nt := &moduleTable{
		sorted: make([]*module, 0, len(t.sorted)+1),
		byName: make(map[string]*module, len(t.byName)+1),
	}
	for _, m := range t.sorted {
		if m != remove {
			nt.sorted = append(nt.sorted, m)
			nt.byName[m.name] = m
		}
	}
	if add != nil {
		i, _ := slices.BinarySearchFunc(nt.sorted, add.base, func(m *module, base uint64) int {
			switch {
			case m.base < base:
				return -1
			case m.base > base:
				return 1
			}
			return 0
		})
		nt.sorted = slices.Insert(nt.sorted, i, add)
		nt.byName[add.name] = add
	}
	return nt
}

func (m *module) end() uint64 {
	return m.base + m.size
}

func (m *module) contains(addr uint64) bool {
	return addr >= m.base && addr < m.end()
}

func (m *module) info() debugger.ModuleInfo {
	return debugger.ModuleInfo{
		Base:         m.base,
		Size:         m.size,
		Entry:        m.base + m.entry,
		SectionCount: len(m.sections),
		Name:         m.name,
		Path:         m.path,
	}
}

func (m *module) sectionInfo(i int) debugger.ModuleSectionInfo {
	s := m.sections[i]
	return debugger.ModuleSectionInfo{Addr: m.base + s.Addr, Size: s.Size, Name: s.Name}
}
