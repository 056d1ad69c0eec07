// Package database reads and writes the persisted annotation state of a
// debuggee. Every entry is module-relative; a raw live address is never
// stored.
package database

import (
	"bytes"
	"os"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

type Document struct {
	Labels    []AddrEntry  `json:"labels,omitempty"`
	Comments  []AddrEntry  `json:"comments,omitempty"`
	Bookmarks []AddrEntry  `json:"bookmarks,omitempty"`
	Arguments []RangeEntry `json:"arguments,omitempty"`
	Functions []RangeEntry `json:"functions,omitempty"`
	Loops     []LoopEntry  `json:"loops,omitempty"`
	Xrefs     []XrefEntry  `json:"xrefs,omitempty"`
}

type AddrEntry struct {
	Module  string `json:"module"`
	Address Hex    `json:"address"`
	Text    string `json:"text,omitempty"`
	Manual  *bool  `json:"manual,omitempty"`
}

type RangeEntry struct {
	Module           string `json:"module"`
	Start            Hex    `json:"start"`
	End              Hex    `json:"end"`
	Manual           *bool  `json:"manual,omitempty"`
	InstructionCount uint64 `json:"icount,omitempty"`
}

type LoopEntry struct {
	Module string `json:"module"`
	Start  Hex    `json:"start"`
	End    Hex    `json:"end"`
	Depth  int    `json:"depth"`
	Parent Hex    `json:"parent"`
	Manual *bool  `json:"manual,omitempty"`
}

// XrefEntry lists the references to one module-relative address.
type XrefEntry struct {
	Module     string    `json:"module"`
	Address    Hex       `json:"address"`
	References []XrefRef `json:"references"`
}

type XrefRef struct {
	Addr Hex    `json:"addr"`
	Type string `json:"type"`
}

// IsManual reports the entry's provenance. Entries written before the flag
// existed are user-authored.
func (e AddrEntry) IsManual() bool {
	return e.Manual == nil || *e.Manual
}

func (e RangeEntry) IsManual() bool {
	return e.Manual == nil || *e.Manual
}

func (e LoopEntry) IsManual() bool {
	return e.Manual == nil || *e.Manual
}

func Bool(b bool) *bool {
	return &b
}

func (d *Document) Empty() bool {
	return len(d.Labels) == 0 && len(d.Comments) == 0 && len(d.Bookmarks) == 0 && len(d.Arguments) == 0 && len(d.Functions) == 0 &&
		len(d.Loops) == 0 && len(d.Xrefs) == 0
}

// Hex is a number persisted as a "0x"-prefixed hexadecimal string. Plain JSON
// numbers are accepted on read.
type Hex uint64

func (h Hex) MarshalJSON() ([]byte, error) {
	return []byte(`"0x` + strings.ToUpper(strconv.FormatUint(uint64(h), 16)) + `"`), nil
}

func (h *Hex) UnmarshalJSON(b []byte) error {
	var (
		v   uint64
		err error
	)
	if s, qerr := strconv.Unquote(string(b)); qerr == nil {
		v, err = strconv.ParseUint(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"), 16, 64)
	} else {
		v, err = strconv.ParseUint(string(b), 10, 64)
	}
	if err != nil {
		return errors.Wrapf(err, "invalid hex value %s", b)
	}
	*h = Hex(v)
	return nil
}

// Save writes doc to path. An empty document removes the file instead.
func Save(fs afero.Fs, path string, doc *Document, compress bool) error {
	if doc.Empty() {
		if err := fs.Remove(path); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "remove %s", path)
		}
		return nil
	}
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return errors.Wrap(err, "encode database")
	}
	if compress {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
		if err != nil {
			return err
		}
		data = enc.EncodeAll(data, nil)
		enc.Close()
	}
	return errors.Wrapf(afero.WriteFile(fs, path, data, 0o644), "write %s", path)
}

// Load reads the document at path. A missing file yields an empty document.
func Load(fs afero.Fs, path string) (*Document, error) {
	data, err := afero.ReadFile(fs, path)
	if os.IsNotExist(err) {
		return new(Document), nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if bytes.HasPrefix(data, zstdMagic) {
		if data, err = decompress(data); err != nil {
			return nil, errors.Wrapf(err, "decompress %s", path)
		}
	}
	doc := new(Document)
	if err = json.Unmarshal(data, doc); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return doc, nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}
