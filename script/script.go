// Package script exposes a session to scripting engines and GUI views using
// their calling convention: every call reports failure as false, zero or an
// empty value and no error crosses this boundary. Snapshots returned by the
// GetList functions belong to the caller, who releases them with Free.
package script

import "github.com/wnxd/dbgmeta/debugger"

type API struct {
	Module   Module
	Label    Label
	Comment  Text
	Bookmark Bookmark
	Argument Range
	Function Range
	Loop     Loop
	Xref     Xref
	Symbol   Symbol
}

func New(s debugger.Session) *API {
	return &API{
		Module:   Module{s.Modules()},
		Label:    Label{Text{s.Labels()}, s.Labels()},
		Comment:  Text{s.Comments()},
		Bookmark: Bookmark{s.Bookmarks()},
		Argument: Range{s.Arguments()},
		Function: Range{s.Functions()},
		Loop:     Loop{s.Loops()},
		Xref:     Xref{s.Xrefs()},
		Symbol:   Symbol{s.Symbols()},
	}
}
