package debugger

import (
	"fmt"
	"sync/atomic"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wnxd/dbgmeta/debugger"
)

type Options struct {
	// Name labels the session's metrics; sessions are numbered when empty.
	Name                 string
	AllowArgumentOverlap bool
	AllowFunctionOverlap bool
	SymbolCacheSize      int
	Compress             bool
	Logger               log.Logger
	Registerer           prometheus.Registerer
}

type Dbg struct {
	logger    log.Logger
	metrics   *metrics
	compress  bool
	closed    atomic.Bool
	modules   moduleManager
	labels    labelManager
	comments  addrInfoMap[string]
	bookmarks addrInfoMap[debugger.Bookmark]
	arguments rangeMap
	functions rangeMap
	loops     loopMap
	xrefs     xrefMap
	symbols   symbolManager
}

var _ debugger.Session = (*Dbg)(nil)

func New(opts Options) (*Dbg, error) {
	dbg := new(Dbg)
	if err := dbg.Init(opts); err != nil {
		return nil, err
	}
	return dbg, nil
}

func (dbg *Dbg) Init(opts Options) error {
	dbg.logger = opts.Logger
	if dbg.logger == nil {
		dbg.logger = log.NewNopLogger()
	}
	m, err := newMetrics(opts.Registerer, opts.Name)
	if err != nil {
		return err
	}
	dbg.metrics = m
	dbg.compress = opts.Compress
	dbg.modules.ctor(dbg.logger, dbg.metrics)
	dbg.labels.ctor(labelKind, &dbg.modules, dbg.metrics)
	dbg.comments.ctor(commentKind, &dbg.modules, dbg.metrics)
	dbg.bookmarks.ctor(bookmarkKind, &dbg.modules, dbg.metrics)
	dbg.arguments.ctor("argument", opts.AllowArgumentOverlap, &dbg.modules, dbg.metrics)
	dbg.functions.ctor("function", opts.AllowFunctionOverlap, &dbg.modules, dbg.metrics)
	dbg.loops.ctor(&dbg.modules, dbg.metrics)
	dbg.xrefs.ctor(&dbg.modules, dbg.metrics)
	return dbg.symbols.ctor(&dbg.labels, &dbg.modules, opts.SymbolCacheSize)
}

func (dbg *Dbg) Close() error {
	if !dbg.closed.CompareAndSwap(false, true) {
		return nil
	}
	dbg.symbols.dtor()
	dbg.xrefs.dtor()
	dbg.loops.dtor()
	dbg.functions.dtor()
	dbg.arguments.dtor()
	dbg.bookmarks.dtor()
	dbg.comments.dtor()
	dbg.labels.dtor()
	dbg.modules.dtor()
	dbg.metrics.unregister()
	return nil
}

func (dbg *Dbg) Modules() debugger.ModuleManager {
	return &dbg.modules
}

func (dbg *Dbg) Labels() debugger.LabelStore {
	return &dbg.labels
}

func (dbg *Dbg) Comments() debugger.AnnotationStore[string] {
	return &dbg.comments
}

func (dbg *Dbg) Bookmarks() debugger.AnnotationStore[debugger.Bookmark] {
	return &dbg.bookmarks
}

func (dbg *Dbg) Arguments() debugger.RangeStore {
	return &dbg.arguments
}

func (dbg *Dbg) Functions() debugger.RangeStore {
	return &dbg.functions
}

func (dbg *Dbg) Loops() debugger.LoopStore {
	return &dbg.loops
}

func (dbg *Dbg) Xrefs() debugger.XrefStore {
	return &dbg.xrefs
}

func (dbg *Dbg) Symbols() debugger.SymbolManager {
	return &dbg.symbols
}

func hex(v uint64) string {
	return fmt.Sprintf("%#x", v)
}
