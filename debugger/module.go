package debugger

import (
	"github.com/wnxd/dbgmeta/loader"
	"github.com/wnxd/dbgmeta/transfer"
)

type ModuleInfo struct {
	Base         uint64
	Size         uint64
	Entry        uint64
	SectionCount int
	Name         string `encoding:"256"`
	Path         string `encoding:"260"`
}

type ModuleSectionInfo struct {
	Addr uint64
	Size uint64
	Name string `encoding:"50"`
}

// Location is a module-relative address, the stable form of a live address.
type Location struct {
	Module string
	RVA    uint64
}

type ModuleManager interface {
	Load(img loader.Image) error
	Unload(name string) error
	Resolve(addr uint64) (Location, error)
	Translate(loc Location) (uint64, error)
	InfoFromAddr(addr uint64) (ModuleInfo, error)
	InfoFromName(name string) (ModuleInfo, error)
	BaseFromAddr(addr uint64) uint64
	BaseFromName(name string) uint64
	SizeFromAddr(addr uint64) uint64
	SizeFromName(name string) uint64
	EntryFromAddr(addr uint64) uint64
	EntryFromName(name string) uint64
	PathFromAddr(addr uint64) string
	PathFromName(name string) string
	SectionFromAddr(addr uint64, index int) (ModuleSectionInfo, error)
	SectionFromName(name string, index int) (ModuleSectionInfo, error)
	SectionListFromAddr(addr uint64) (*transfer.List[ModuleSectionInfo], error)
	SectionListFromName(name string) (*transfer.List[ModuleSectionInfo], error)
	ModuleList() *transfer.List[ModuleInfo]
}
