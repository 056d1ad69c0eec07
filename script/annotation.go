package script

import (
	"github.com/wnxd/dbgmeta/debugger"
	"github.com/wnxd/dbgmeta/transfer"
)

// Text serves the label and comment stores. Set records user-authored text;
// SetManual states the provenance explicitly.
type Text struct {
	store debugger.AnnotationStore[string]
}

func (t Text) Set(addr uint64, text string) bool {
	return t.store.Set(addr, text, true) == nil
}

func (t Text) SetManual(addr uint64, text string, manual bool) bool {
	return t.store.Set(addr, text, manual) == nil
}

func (t Text) SetInfo(info debugger.AddrInfo[string]) bool {
	return t.store.SetInfo(info) == nil
}

func (t Text) Get(addr uint64) (string, bool) {
	text, err := t.store.Get(addr)
	return text, err == nil
}

func (t Text) GetInfo(addr uint64) (debugger.AddrInfo[string], bool) {
	info, err := t.store.GetInfo(addr)
	return info, err == nil
}

func (t Text) Delete(addr uint64) bool {
	return t.store.Delete(addr) == nil
}

func (t Text) DeleteRange(start, end uint64, includeManual bool) {
	t.store.DeleteRange(start, end, includeManual)
}

func (t Text) Clear() {
	t.store.Clear()
}

func (t Text) GetList() (*transfer.List[debugger.AddrInfo[string]], bool) {
	return t.store.GetList(), true
}

type Label struct {
	Text
	labels debugger.LabelStore
}

func (l Label) FromString(text string) (uint64, bool) {
	addr, err := l.labels.FromString(text)
	return addr, err == nil
}

type Bookmark struct {
	store debugger.AnnotationStore[debugger.Bookmark]
}

func (b Bookmark) Set(addr uint64) bool {
	return b.store.Set(addr, debugger.Bookmark{}, true) == nil
}

func (b Bookmark) SetManual(addr uint64, manual bool) bool {
	return b.store.Set(addr, debugger.Bookmark{}, manual) == nil
}

func (b Bookmark) SetInfo(info debugger.BookmarkInfo) bool {
	return b.store.SetInfo(info) == nil
}

func (b Bookmark) Get(addr uint64) bool {
	_, err := b.store.Get(addr)
	return err == nil
}

func (b Bookmark) GetInfo(addr uint64) (debugger.BookmarkInfo, bool) {
	info, err := b.store.GetInfo(addr)
	return info, err == nil
}

func (b Bookmark) Delete(addr uint64) bool {
	return b.store.Delete(addr) == nil
}

func (b Bookmark) DeleteRange(start, end uint64, includeManual bool) {
	b.store.DeleteRange(start, end, includeManual)
}

func (b Bookmark) Clear() {
	b.store.Clear()
}

func (b Bookmark) GetList() (*transfer.List[debugger.BookmarkInfo], bool) {
	return b.store.GetList(), true
}
