package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-kit/log/level"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/wnxd/dbgmeta/internal/database"
)

func newDumpCmd(fs afero.Fs, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dump [database]",
		Short: "Print every record of a database (default: database.path from the config)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.load(fs)
			if err != nil {
				return err
			}
			path := cfg.Database.Path
			if len(args) > 0 {
				path = args[0]
			}
			if path == "" {
				return errors.New("no database given and database.path is not set")
			}
			doc, err := database.Load(fs, path)
			if err != nil {
				level.Error(logger).Log("msg", "failed to load database", "path", path, "err", err)
				return err
			}
			level.Debug(logger).Log("msg", "database loaded", "path", path, "records", count(doc))
			dump(cmd.OutOrStdout(), doc)
			return nil
		},
	}
}

func dump(w io.Writer, doc *database.Document) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Kind", "Module", "Start", "End", "Text", "Manual"})
	table.SetAutoWrapText(false)
	addrRows := func(kind string, entries []database.AddrEntry) {
		for _, e := range entries {
			table.Append([]string{kind, e.Module, hexString(uint64(e.Address)), "", e.Text, strconv.FormatBool(e.IsManual())})
		}
	}
	rangeRows := func(kind string, entries []database.RangeEntry) {
		for _, e := range entries {
			table.Append([]string{kind, e.Module, hexString(uint64(e.Start)), hexString(uint64(e.End)), "", strconv.FormatBool(e.IsManual())})
		}
	}
	addrRows("label", doc.Labels)
	addrRows("comment", doc.Comments)
	addrRows("bookmark", doc.Bookmarks)
	rangeRows("argument", doc.Arguments)
	rangeRows("function", doc.Functions)
	for _, e := range doc.Loops {
		table.Append([]string{"loop", e.Module, hexString(uint64(e.Start)), hexString(uint64(e.End)), fmt.Sprintf("depth %d", e.Depth), strconv.FormatBool(e.IsManual())})
	}
	for _, e := range doc.Xrefs {
		for _, ref := range e.References {
			table.Append([]string{"xref", e.Module, hexString(uint64(ref.Addr)), hexString(uint64(e.Address)), ref.Type, ""})
		}
	}
	table.Render()
}

func count(doc *database.Document) int {
	return len(doc.Labels) + len(doc.Comments) + len(doc.Bookmarks) + len(doc.Arguments) + len(doc.Functions) + len(doc.Loops) + len(doc.Xrefs)
}

func hexString(v uint64) string {
	return fmt.Sprintf("%#x", v)
}
