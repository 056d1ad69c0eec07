package debugger

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wnxd/dbgmeta/debugger"
	"github.com/wnxd/dbgmeta/internal/database"
)

func populate(t *testing.T, dbg *Dbg) {
	t.Helper()
	require.NoError(t, dbg.Labels().Set(0x00401000, "hello", true))
	require.NoError(t, dbg.Labels().Set(0x00401100, "auto", false))
	require.NoError(t, dbg.Comments().Set(0x00401000, "entry point", true))
	require.NoError(t, dbg.Bookmarks().Set(0x00402000, debugger.Bookmark{}, true))
	require.NoError(t, dbg.Arguments().Add(0x00401000, 0x00401050, false, 0))
	require.NoError(t, dbg.Functions().Add(0x00401000, 0x00401100, true, 42))
	_, err := dbg.Loops().Add(0x00401000, 0x00401100, true)
	require.NoError(t, err)
	_, err = dbg.Loops().Add(0x00401010, 0x00401020, false)
	require.NoError(t, err)
	require.NoError(t, dbg.Xrefs().Add(0x00401000, 0x00401200, debugger.XrefCall))
	require.NoError(t, dbg.Xrefs().Add(0x00401000, 0x00401300, debugger.XrefJmp))
}

func TestSaveLoad(t *testing.T) {
	for _, compress := range []bool{true, false} {
		fs := afero.NewMemMapFs()
		src := newTestDbg(t, Options{Compress: compress})
		loadApp(t, src, 0x00400000)
		populate(t, src)
		require.NoError(t, src.Save(fs, "app.dd64"))

		dst := newTestDbg(t, Options{})
		require.NoError(t, dst.Load(fs, "app.dd64"))
		loadApp(t, dst, 0x10000000)

		info, err := dst.Labels().GetInfo(0x10001000)
		require.NoError(t, err)
		assert.Equal(t, debugger.LabelInfo{Module: "app.exe", RVA: 0x1000, Payload: "hello", Manual: true}, info)
		info, err = dst.Labels().GetInfo(0x10001100)
		require.NoError(t, err)
		assert.False(t, info.Manual)

		text, err := dst.Comments().Get(0x10001000)
		require.NoError(t, err)
		assert.Equal(t, "entry point", text)
		_, err = dst.Bookmarks().Get(0x10002000)
		assert.NoError(t, err)

		start, end, _, err := dst.Arguments().Get(0x10001010)
		require.NoError(t, err)
		assert.Equal(t, []uint64{0x10001000, 0x10001050}, []uint64{start, end})
		fn, err := dst.Functions().GetInfo(0x10001080)
		require.NoError(t, err)
		assert.Equal(t, debugger.FunctionInfo{Module: "app.exe", Start: 0x1000, End: 0x1100, Manual: true, InstructionCount: 42}, fn)
		loop, err := dst.Loops().GetInfo(1, 0x10001018)
		require.NoError(t, err)
		assert.Equal(t, debugger.LoopInfo{Module: "app.exe", Start: 0x1010, End: 0x1020, Depth: 1, Parent: 0x1000}, loop)
		assert.Equal(t, 2, dst.Xrefs().Count(0x10001000))
		assert.Equal(t, debugger.XrefJmp, dst.Xrefs().Type(0x10001000))

		assert.Equal(t, src.Export(), dst.Export())
	}
}

func TestSaveEmptyRemovesFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "app.dd64", []byte("{}"), 0o644))

	dbg := newTestDbg(t, Options{})
	require.NoError(t, dbg.Save(fs, "app.dd64"))
	exists, err := afero.Exists(fs, "app.dd64")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, dbg.Load(fs, "app.dd64"))
}

func TestLoadSkipsMalformed(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "app.dd64", []byte(`{
		"labels": [
			{"module": "app.exe", "address": "0x1000", "text": "legacy"},
			{"module": "", "address": "0x2000", "text": "orphan"}
		],
		"functions": [
			{"module": "app.exe", "start": "0x1000", "end": "0x1000"},
			{"module": "app.exe", "start": "0x2000", "end": "0x2010", "manual": false}
		],
		"xrefs": [
			{"module": "app.exe", "address": "0x1000", "references": [
				{"addr": "0x1100", "type": "call"},
				{"addr": "0x1200", "type": "ret"}
			]}
		]
	}`), 0o644))

	dbg := newTestDbg(t, Options{})
	err := dbg.Load(fs, "app.dd64")
	require.Error(t, err)
	assert.ErrorIs(t, err, debugger.ErrModuleNotFound)
	assert.ErrorIs(t, err, debugger.ErrMalformedRange)

	loadApp(t, dbg, 0x00400000)
	info, err := dbg.Labels().GetInfo(0x00401000)
	require.NoError(t, err)
	assert.True(t, info.Manual)
	fn, err := dbg.Functions().GetInfo(0x00402000)
	require.NoError(t, err)
	assert.False(t, fn.Manual)
	assert.Equal(t, 1, dbg.Xrefs().Count(0x00401000))
}

func TestLoadCorrupt(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "app.dd64", []byte("not json"), 0o644))
	dbg := newTestDbg(t, Options{})
	assert.Error(t, dbg.Load(fs, "app.dd64"))
}

func TestClosedSession(t *testing.T) {
	fs := afero.NewMemMapFs()
	dbg := newTestDbg(t, Options{})
	loadApp(t, dbg, 0x00400000)
	require.NoError(t, dbg.Labels().Set(0x00401000, "x", true))
	require.NoError(t, dbg.Close())
	require.NoError(t, dbg.Close())

	assert.ErrorIs(t, dbg.Save(fs, "app.dd64"), debugger.ErrSessionClosed)
	assert.ErrorIs(t, dbg.Load(fs, "app.dd64"), debugger.ErrSessionClosed)
	assert.Zero(t, dbg.Labels().GetList().Count())
	assert.Zero(t, dbg.Modules().ModuleList().Count())
}

func TestExportDocument(t *testing.T) {
	dbg := newTestDbg(t, Options{})
	loadApp(t, dbg, 0x00400000)
	populate(t, dbg)

	doc := dbg.Export()
	require.Len(t, doc.Labels, 2)
	assert.Equal(t, database.AddrEntry{Module: "app.exe", Address: 0x1000, Text: "hello", Manual: database.Bool(true)}, doc.Labels[0])
	assert.Equal(t, database.AddrEntry{Module: "app.exe", Address: 0x2000, Manual: database.Bool(true)}, doc.Bookmarks[0])
	assert.Equal(t, database.RangeEntry{Module: "app.exe", Start: 0x1000, End: 0x1050, Manual: database.Bool(false)}, doc.Arguments[0])
	require.Len(t, doc.Loops, 2)
	assert.Equal(t, database.LoopEntry{Module: "app.exe", Start: 0x1010, End: 0x1020, Depth: 1, Parent: 0x1000, Manual: database.Bool(false)}, doc.Loops[1])
	assert.Equal(t, []database.XrefEntry{{
		Module:  "app.exe",
		Address: 0x1000,
		References: []database.XrefRef{
			{Addr: 0x1200, Type: "call"},
			{Addr: 0x1300, Type: "jmp"},
		},
	}}, doc.Xrefs)
}
