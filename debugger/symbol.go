package debugger

import "github.com/wnxd/dbgmeta/transfer"

type SymbolType int

const (
	SymbolFunction SymbolType = iota
	SymbolImport
	SymbolExport
)

func (t SymbolType) String() string {
	switch t {
	case SymbolFunction:
		return "function"
	case SymbolImport:
		return "import"
	case SymbolExport:
		return "export"
	}
	return "unknown"
}

type SymbolInfo struct {
	Module string `encoding:"256"`
	RVA    uint64
	Name   string `encoding:"256"`
	Manual bool
	Type   SymbolType
}

type SymbolManager interface {
	GetList() *transfer.List[SymbolInfo]
}
