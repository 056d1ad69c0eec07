package debugger

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/samber/lo"

	"github.com/wnxd/dbgmeta/debugger"
	"github.com/wnxd/dbgmeta/transfer"
)

// symbolManager merges labels with the export and import tables of every
// loaded module. A label and a table symbol at the same address both appear.
type symbolManager struct {
	labels *labelManager
	mm     *moduleManager
	cache  *lru.Cache[*module, []debugger.SymbolInfo]
}

func (sm *symbolManager) ctor(labels *labelManager, mm *moduleManager, cacheSize int) error {
	cache, err := lru.New[*module, []debugger.SymbolInfo](max(cacheSize, 1))
	if err != nil {
		return err
	}
	sm.labels = labels
	sm.mm = mm
	sm.cache = cache
	mm.onUnload = append(mm.onUnload, func(m *module) { sm.cache.Remove(m) })
	return nil
}

func (sm *symbolManager) dtor() {
	sm.cache.Purge()
}

func (sm *symbolManager) GetList() *transfer.List[debugger.SymbolInfo] {
	symbols := lo.Map(sm.labels.list(), func(l debugger.LabelInfo, _ int) debugger.SymbolInfo {
		return debugger.SymbolInfo{Module: l.Module, RVA: l.RVA, Name: l.Payload, Manual: l.Manual, Type: debugger.SymbolFunction}
	})
	for _, m := range sm.mm.view().sorted {
		symbols = append(symbols, sm.moduleSymbols(m)...)
	}
	return transfer.NewList(symbols)
}

func (sm *symbolManager) moduleSymbols(m *module) []debugger.SymbolInfo {
	if symbols, ok := sm.cache.Get(m); ok {
		return symbols
	}
	symbols := make([]debugger.SymbolInfo, 0, len(m.exports)+len(m.imports))
	for _, e := range m.exports {
		symbols = append(symbols, debugger.SymbolInfo{Module: m.name, RVA: e.Addr, Name: e.Name, Type: debugger.SymbolExport})
	}
	for _, i := range m.imports {
		symbols = append(symbols, debugger.SymbolInfo{Module: m.name, RVA: i.Addr, Name: i.Symbol, Type: debugger.SymbolImport})
	}
	if sm.mm.view().byName[m.name] == m {
		sm.cache.Add(m, symbols)
	}
	return symbols
}
