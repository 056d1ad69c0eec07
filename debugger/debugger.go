package debugger

import (
	"io"

	"github.com/spf13/afero"
)

// Session owns every store of one debugging session. It is created at attach
// time and closed at detach.
type Session interface {
	io.Closer
	Modules() ModuleManager
	Labels() LabelStore
	Comments() AnnotationStore[string]
	Bookmarks() AnnotationStore[Bookmark]
	Arguments() RangeStore
	Functions() RangeStore
	Loops() LoopStore
	Xrefs() XrefStore
	Symbols() SymbolManager
	Save(fs afero.Fs, path string) error
	Load(fs afero.Fs, path string) error
}
