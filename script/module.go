package script

import (
	"github.com/wnxd/dbgmeta/debugger"
	"github.com/wnxd/dbgmeta/loader"
	"github.com/wnxd/dbgmeta/transfer"
)

type Module struct {
	mm debugger.ModuleManager
}

func (m Module) OnLoad(name string, base, size uint64, path string, sections []loader.Section, entry uint64) bool {
	return m.mm.Load(loader.Image{Name: name, Path: path, Base: base, Size: size, Entry: entry, Sections: sections}) == nil
}

func (m Module) OnUnload(name string) bool {
	return m.mm.Unload(name) == nil
}

func (m Module) InfoFromAddr(addr uint64) (debugger.ModuleInfo, bool) {
	info, err := m.mm.InfoFromAddr(addr)
	return info, err == nil
}

func (m Module) InfoFromName(name string) (debugger.ModuleInfo, bool) {
	info, err := m.mm.InfoFromName(name)
	return info, err == nil
}

func (m Module) BaseFromAddr(addr uint64) uint64  { return m.mm.BaseFromAddr(addr) }
func (m Module) BaseFromName(name string) uint64  { return m.mm.BaseFromName(name) }
func (m Module) SizeFromAddr(addr uint64) uint64  { return m.mm.SizeFromAddr(addr) }
func (m Module) SizeFromName(name string) uint64  { return m.mm.SizeFromName(name) }
func (m Module) EntryFromAddr(addr uint64) uint64 { return m.mm.EntryFromAddr(addr) }
func (m Module) EntryFromName(name string) uint64 { return m.mm.EntryFromName(name) }
func (m Module) PathFromAddr(addr uint64) string  { return m.mm.PathFromAddr(addr) }
func (m Module) PathFromName(name string) string  { return m.mm.PathFromName(name) }

func (m Module) SectionFromAddr(addr uint64, index int) (debugger.ModuleSectionInfo, bool) {
	info, err := m.mm.SectionFromAddr(addr, index)
	return info, err == nil
}

func (m Module) SectionFromName(name string, index int) (debugger.ModuleSectionInfo, bool) {
	info, err := m.mm.SectionFromName(name, index)
	return info, err == nil
}

func (m Module) SectionListFromAddr(addr uint64) (*transfer.List[debugger.ModuleSectionInfo], bool) {
	list, err := m.mm.SectionListFromAddr(addr)
	return list, err == nil
}

func (m Module) SectionListFromName(name string) (*transfer.List[debugger.ModuleSectionInfo], bool) {
	list, err := m.mm.SectionListFromName(name)
	return list, err == nil
}

func (m Module) GetList() (*transfer.List[debugger.ModuleInfo], bool) {
	return m.mm.ModuleList(), true
}
