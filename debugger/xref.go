package debugger

import "github.com/wnxd/dbgmeta/transfer"

type XrefType int

const (
	XrefNone XrefType = iota
	XrefData
	XrefJmp
	XrefCall
)

func (t XrefType) String() string {
	switch t {
	case XrefNone:
		return "none"
	case XrefData:
		return "data"
	case XrefJmp:
		return "jmp"
	case XrefCall:
		return "call"
	}
	return "unknown"
}

func ParseXrefType(s string) (XrefType, bool) {
	switch s {
	case "data":
		return XrefData, true
	case "jmp":
		return XrefJmp, true
	case "call":
		return XrefCall, true
	}
	return XrefNone, false
}

// XrefInfo is one reference from From to Address, both relative to Module.
type XrefInfo struct {
	Module  string `encoding:"256"`
	Address uint64
	From    uint64
	Type    XrefType
}

// XrefStore records, per target address, the instructions that reference it.
// A reference and its target lie in the same module.
type XrefStore interface {
	Add(addr, from uint64, typ XrefType) error
	Get(addr uint64) (*transfer.List[XrefInfo], error)
	Count(addr uint64) int
	Type(addr uint64) XrefType
	DeleteAll(addr uint64) error
	DeleteRange(start, end uint64)
	Clear()
	GetList() *transfer.List[XrefInfo]
	Restore(infos ...XrefInfo) error
}
