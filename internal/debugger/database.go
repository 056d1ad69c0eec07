package debugger

import (
	"time"

	"github.com/go-kit/log/level"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/wnxd/dbgmeta/debugger"
	"github.com/wnxd/dbgmeta/internal/database"
)

func (dbg *Dbg) Save(fs afero.Fs, path string) error {
	if dbg.closed.Load() {
		return debugger.ErrSessionClosed
	}
	start := time.Now()
	doc := dbg.Export()
	if err := database.Save(fs, path, doc, dbg.compress); err != nil {
		level.Error(dbg.logger).Log("msg", "failed to save database", "path", path, "err", err)
		return err
	}
	level.Info(dbg.logger).Log("msg", "database saved", "path", path, "duration", time.Since(start))
	return nil
}

// Load reads the database at path and restores its entries. Malformed entries
// are skipped and reported together; the rest are still restored.
func (dbg *Dbg) Load(fs afero.Fs, path string) error {
	if dbg.closed.Load() {
		return debugger.ErrSessionClosed
	}
	start := time.Now()
	doc, err := database.Load(fs, path)
	if err != nil {
		level.Error(dbg.logger).Log("msg", "failed to load database", "path", path, "err", err)
		return err
	}
	if err = dbg.Import(doc); err != nil {
		level.Warn(dbg.logger).Log("msg", "skipped malformed database entries", "path", path, "err", err)
	}
	level.Info(dbg.logger).Log("msg", "database loaded", "path", path, "duration", time.Since(start))
	return err
}

// Export snapshots every store as a database document.
func (dbg *Dbg) Export() *database.Document {
	return &database.Document{
		Labels:    exportAddr(dbg.labels.list(), textOf),
		Comments:  exportAddr(dbg.comments.list(), textOf),
		Bookmarks: exportAddr(dbg.bookmarks.list(), func(debugger.Bookmark) string { return "" }),
		Arguments: exportRange(dbg.arguments.list()),
		Functions: exportRange(dbg.functions.list()),
		Loops:     exportLoops(dbg.loops.list()),
		Xrefs:     exportXrefs(dbg.xrefs.list()),
	}
}

func (dbg *Dbg) Import(doc *database.Document) error {
	var errs error
	if err := dbg.labels.Restore(importAddr(doc.Labels, textOf)...); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := dbg.comments.Restore(importAddr(doc.Comments, textOf)...); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := dbg.bookmarks.Restore(importAddr(doc.Bookmarks, func(string) debugger.Bookmark { return debugger.Bookmark{} })...); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := dbg.arguments.Restore(importRange(doc.Arguments)...); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := dbg.functions.Restore(importRange(doc.Functions)...); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := dbg.loops.Restore(importLoops(doc.Loops)...); err != nil {
		errs = multierror.Append(errs, err)
	}
	xrefs, err := importXrefs(doc.Xrefs)
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := dbg.xrefs.Restore(xrefs...); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs
}

func textOf(s string) string {
	return s
}

func exportAddr[P any](infos []debugger.AddrInfo[P], text func(P) string) []database.AddrEntry {
	entries := make([]database.AddrEntry, len(infos))
	for i, info := range infos {
		entries[i] = database.AddrEntry{
			Module:  info.Module,
			Address: database.Hex(info.RVA),
			Text:    text(info.Payload),
			Manual:  database.Bool(info.Manual),
		}
	}
	return entries
}

func importAddr[P any](entries []database.AddrEntry, payload func(string) P) []debugger.AddrInfo[P] {
	infos := make([]debugger.AddrInfo[P], len(entries))
	for i, e := range entries {
		infos[i] = debugger.AddrInfo[P]{
			Module:  e.Module,
			RVA:     uint64(e.Address),
			Payload: payload(e.Text),
			Manual:  e.IsManual(),
		}
	}
	return infos
}

func exportRange(infos []debugger.RangeInfo) []database.RangeEntry {
	entries := make([]database.RangeEntry, len(infos))
	for i, info := range infos {
		entries[i] = database.RangeEntry{
			Module:           info.Module,
			Start:            database.Hex(info.Start),
			End:              database.Hex(info.End),
			Manual:           database.Bool(info.Manual),
			InstructionCount: info.InstructionCount,
		}
	}
	return entries
}

func importRange(entries []database.RangeEntry) []debugger.RangeInfo {
	infos := make([]debugger.RangeInfo, len(entries))
	for i, e := range entries {
		infos[i] = debugger.RangeInfo{
			Module:           e.Module,
			Start:            uint64(e.Start),
			End:              uint64(e.End),
			Manual:           e.IsManual(),
			InstructionCount: e.InstructionCount,
		}
	}
	return infos
}

func exportLoops(infos []debugger.LoopInfo) []database.LoopEntry {
	entries := make([]database.LoopEntry, len(infos))
	for i, info := range infos {
		entries[i] = database.LoopEntry{
			Module: info.Module,
			Start:  database.Hex(info.Start),
			End:    database.Hex(info.End),
			Depth:  info.Depth,
			Parent: database.Hex(info.Parent),
			Manual: database.Bool(info.Manual),
		}
	}
	return entries
}

func importLoops(entries []database.LoopEntry) []debugger.LoopInfo {
	infos := make([]debugger.LoopInfo, len(entries))
	for i, e := range entries {
		infos[i] = debugger.LoopInfo{
			Module: e.Module,
			Start:  uint64(e.Start),
			End:    uint64(e.End),
			Depth:  e.Depth,
			Parent: uint64(e.Parent),
			Manual: e.IsManual(),
		}
	}
	return infos
}

// exportXrefs groups a list sorted by module and address into one entry per
// target.
func exportXrefs(infos []debugger.XrefInfo) []database.XrefEntry {
	var entries []database.XrefEntry
	for _, info := range infos {
		if n := len(entries); n == 0 || entries[n-1].Module != info.Module || uint64(entries[n-1].Address) != info.Address {
			entries = append(entries, database.XrefEntry{Module: info.Module, Address: database.Hex(info.Address)})
		}
		last := &entries[len(entries)-1]
		last.References = append(last.References, database.XrefRef{Addr: database.Hex(info.From), Type: info.Type.String()})
	}
	return entries
}

func importXrefs(entries []database.XrefEntry) ([]debugger.XrefInfo, error) {
	var (
		infos []debugger.XrefInfo
		errs  error
	)
	for _, e := range entries {
		for _, ref := range e.References {
			typ, ok := debugger.ParseXrefType(ref.Type)
			if !ok {
				errs = multierror.Append(errs, errors.Wrapf(debugger.ErrMalformedRange, "xref %s+%#x -> %#x has type %q", e.Module, uint64(ref.Addr), uint64(e.Address), ref.Type))
				continue
			}
			infos = append(infos, debugger.XrefInfo{Module: e.Module, Address: uint64(e.Address), From: uint64(ref.Addr), Type: typ})
		}
	}
	return infos, errs
}
