package main

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wnxd/dbgmeta/internal/database"
)

const moduleMapYAML = `
modules:
  - name: app.exe
    path: C:\work\app.exe
    base: 0x10000000
    size: 0x10000
    entry: 0x1234
    sections:
      - {name: .text, addr: 0x1000, size: 0x5000}
`

func testFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	doc := &database.Document{
		Labels:    []database.AddrEntry{{Module: "app.exe", Address: 0x1000, Text: "hello", Manual: database.Bool(true)}},
		Bookmarks: []database.AddrEntry{{Module: "app.exe", Address: 0x1000}},
		Functions: []database.RangeEntry{{Module: "app.exe", Start: 0x1000, End: 0x1100, Manual: database.Bool(false)}},
		Loops:     []database.LoopEntry{{Module: "app.exe", Start: 0x1010, End: 0x1040, Depth: 0}},
		Xrefs: []database.XrefEntry{{
			Module:     "app.exe",
			Address:    0x1000,
			References: []database.XrefRef{{Addr: 0x1200, Type: "call"}},
		}},
	}
	require.NoError(t, database.Save(fs, "app.dd64", doc, true))
	require.NoError(t, afero.WriteFile(fs, "run.yaml", []byte(moduleMapYAML), 0o644))
	return fs
}

func run(t *testing.T, fs afero.Fs, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(fs)
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDump(t *testing.T) {
	out, err := run(t, testFs(t), "dump", "app.dd64")
	require.NoError(t, err)
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "bookmark")
	assert.Contains(t, out, "0x1100")
	assert.Contains(t, out, "depth 0")
	assert.Contains(t, out, "call")
}

func TestResolve(t *testing.T) {
	out, err := run(t, testFs(t), "resolve", "app.dd64", "0x10001000", "0x10001080", "0x20000000", "--modules", "run.yaml", "--log.level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "app.exe+0x1000")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "[0x10001000, 0x10001100)")
	assert.Contains(t, out, "1 (call)")
	assert.Contains(t, out, "unmapped")
}

func TestResolveErrors(t *testing.T) {
	fs := testFs(t)
	_, err := run(t, fs, "resolve", "app.dd64", "nope", "--modules", "run.yaml")
	assert.Error(t, err)
	_, err = run(t, fs, "resolve", "app.dd64", "0x1000", "--modules", "missing.yaml")
	assert.Error(t, err)
	_, err = run(t, fs, "dump", "app.dd64", "--config", "missing.yaml")
	assert.Error(t, err)
}

func TestDumpConfiguredDatabase(t *testing.T) {
	fs := testFs(t)
	require.NoError(t, afero.WriteFile(fs, "dbgmeta.yaml", []byte("database:\n  path: app.dd64\n"), 0o644))
	out, err := run(t, fs, "dump", "--config", "dbgmeta.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "hello")

	_, err = run(t, fs, "dump")
	assert.Error(t, err)
}
