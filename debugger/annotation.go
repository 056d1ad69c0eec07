package debugger

import "github.com/wnxd/dbgmeta/transfer"

// AddrInfo is a point annotation keyed by module-relative address.
type AddrInfo[P any] struct {
	Module  string `encoding:"256"`
	RVA     uint64
	Payload P
	Manual  bool
}

type Bookmark struct{}

type (
	LabelInfo    = AddrInfo[string]
	CommentInfo  = AddrInfo[string]
	BookmarkInfo = AddrInfo[Bookmark]
)

// AnnotationStore keeps at most one record per module-relative address.
//
// A non-manual write never replaces a manual record; ForceSet does.
type AnnotationStore[P any] interface {
	Set(addr uint64, payload P, manual bool) error
	ForceSet(addr uint64, payload P, manual bool) error
	SetInfo(info AddrInfo[P]) error
	Get(addr uint64) (P, error)
	GetInfo(addr uint64) (AddrInfo[P], error)
	Delete(addr uint64) error
	DeleteRange(start, end uint64, includeManual bool)
	Clear()
	GetList() *transfer.List[AddrInfo[P]]
	Restore(infos ...AddrInfo[P]) error
}

type LabelStore interface {
	AnnotationStore[string]
	FromString(text string) (uint64, error)
}
