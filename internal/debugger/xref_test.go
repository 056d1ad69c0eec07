package debugger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wnxd/dbgmeta/debugger"
	"github.com/wnxd/dbgmeta/loader"
)

func TestXrefs(t *testing.T) {
	dbg := newTestDbg(t, Options{})
	loadApp(t, dbg, 0x00400000)
	xrefs := dbg.Xrefs()

	require.NoError(t, xrefs.Add(0x00401000, 0x00401200, debugger.XrefData))
	assert.Equal(t, debugger.XrefData, xrefs.Type(0x00401000))
	require.NoError(t, xrefs.Add(0x00401000, 0x00401100, debugger.XrefCall))
	assert.Equal(t, debugger.XrefCall, xrefs.Type(0x00401000))
	require.NoError(t, xrefs.Add(0x00401000, 0x00401300, debugger.XrefJmp))
	assert.Equal(t, debugger.XrefJmp, xrefs.Type(0x00401000))

	// A second reference from the same place replaces the first.
	require.NoError(t, xrefs.Add(0x00401000, 0x00401300, debugger.XrefCall))
	assert.Equal(t, 3, xrefs.Count(0x00401000))
	assert.Equal(t, debugger.XrefCall, xrefs.Type(0x00401000))

	list, err := xrefs.Get(0x00401000)
	require.NoError(t, err)
	defer list.Free()
	assert.Equal(t, []debugger.XrefInfo{
		{Module: "app.exe", Address: 0x1000, From: 0x1100, Type: debugger.XrefCall},
		{Module: "app.exe", Address: 0x1000, From: 0x1200, Type: debugger.XrefData},
		{Module: "app.exe", Address: 0x1000, From: 0x1300, Type: debugger.XrefCall},
	}, list.Items())

	assert.Zero(t, xrefs.Count(0x00401004))
	assert.Equal(t, debugger.XrefNone, xrefs.Type(0x00401004))
	_, err = xrefs.Get(0x00401004)
	assert.ErrorIs(t, err, debugger.ErrNotFound)
	assert.Zero(t, xrefs.Count(0x00500000))

	require.NoError(t, xrefs.DeleteAll(0x00401000))
	assert.ErrorIs(t, xrefs.DeleteAll(0x00401000), debugger.ErrNotFound)
	assert.Zero(t, xrefs.Count(0x00401000))
}

func TestXrefRejects(t *testing.T) {
	dbg := newTestDbg(t, Options{})
	loadApp(t, dbg, 0x00400000)
	lib := loader.Image{Name: "lib.dll", Base: 0x10000000, Size: 0x1000}
	require.NoError(t, dbg.Modules().Load(lib))
	xrefs := dbg.Xrefs()

	assert.ErrorIs(t, xrefs.Add(0x00401000, 0x10000100, debugger.XrefCall), debugger.ErrAddressNotMapped)
	assert.ErrorIs(t, xrefs.Add(0x00401000, 0x00500000, debugger.XrefCall), debugger.ErrAddressNotMapped)
	assert.ErrorIs(t, xrefs.Add(0x00500000, 0x00401000, debugger.XrefCall), debugger.ErrAddressNotMapped)
	assert.ErrorIs(t, xrefs.Add(0x00401000, 0x00401100, debugger.XrefNone), debugger.ErrMalformedRange)
	assert.ErrorIs(t, xrefs.Add(0x00401000, 0x00401100, debugger.XrefType(9)), debugger.ErrMalformedRange)
	assert.Zero(t, xrefs.GetList().Count())
}

func TestXrefRangeAndReload(t *testing.T) {
	dbg := newTestDbg(t, Options{})
	loadApp(t, dbg, 0x00400000)
	xrefs := dbg.Xrefs()

	require.NoError(t, xrefs.Add(0x00401000, 0x00401100, debugger.XrefCall))
	require.NoError(t, xrefs.Add(0x00402000, 0x00401100, debugger.XrefJmp))
	require.NoError(t, xrefs.Add(0x00403000, 0x00401100, debugger.XrefData))

	xrefs.DeleteRange(0x00402000, 0x00403000)
	assert.Zero(t, xrefs.Count(0x00402000))
	assert.Equal(t, 1, xrefs.Count(0x00403000))

	require.NoError(t, dbg.Modules().Unload("app.exe"))
	loadApp(t, dbg, 0x10000000)
	list, err := xrefs.Get(0x10001000)
	require.NoError(t, err)
	defer list.Free()
	assert.Equal(t, []debugger.XrefInfo{{Module: "app.exe", Address: 0x1000, From: 0x1100, Type: debugger.XrefCall}}, list.Items())

	require.NoError(t, xrefs.Restore(debugger.XrefInfo{Module: "APP.exe", Address: 0x5000, From: 0x1100, Type: debugger.XrefJmp}))
	assert.Equal(t, debugger.XrefJmp, xrefs.Type(0x10005000))
	assert.ErrorIs(t, xrefs.Restore(debugger.XrefInfo{Module: "app.exe", Address: 0x5000, From: 0x1200}), debugger.ErrMalformedRange)
	assert.Equal(t, 1, xrefs.Count(0x10005000))

	xrefs.Clear()
	assert.Zero(t, xrefs.GetList().Count())
}
