package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wnxd/dbgmeta/debugger"
	"github.com/wnxd/dbgmeta/loader"
	"github.com/wnxd/dbgmeta/session"
)

// moduleMap describes the modules of one run, as the debug-event loop would
// report them.
type moduleMap struct {
	Modules []struct {
		Name     string `yaml:"name"`
		Path     string `yaml:"path"`
		Base     uint64 `yaml:"base"`
		Size     uint64 `yaml:"size"`
		Entry    uint64 `yaml:"entry"`
		Sections []struct {
			Name string `yaml:"name"`
			Addr uint64 `yaml:"addr"`
			Size uint64 `yaml:"size"`
		} `yaml:"sections"`
	} `yaml:"modules"`
}

func newResolveCmd(fs afero.Fs, flags *globalFlags) *cobra.Command {
	var mapPath string
	cmd := &cobra.Command{
		Use:   "resolve <database> <address>...",
		Short: "Print the annotations at live addresses of a run",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.load(fs)
			if err != nil {
				return err
			}
			addrs, err := parseAddrs(args[1:])
			if err != nil {
				return err
			}
			s, err := session.New(cfg, logger, nil)
			if err != nil {
				return err
			}
			defer s.Close()
			if err = loadModuleMap(fs, mapPath, s.Modules()); err != nil {
				return err
			}
			if err = s.Load(fs, args[0]); err != nil {
				return err
			}
			resolve(cmd.OutOrStdout(), s, addrs)
			return nil
		},
	}
	cmd.Flags().StringVar(&mapPath, "modules", "", "YAML module map of the run")
	cmd.MarkFlagRequired("modules")
	return cmd
}

func parseAddrs(args []string) ([]uint64, error) {
	addrs := make([]uint64, len(args))
	for i, arg := range args {
		v, err := strconv.ParseUint(arg, 0, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "address %q", arg)
		}
		addrs[i] = v
	}
	return addrs, nil
}

func loadModuleMap(fs afero.Fs, path string, mm debugger.ModuleManager) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return errors.Wrapf(err, "read module map %s", path)
	}
	var m moduleMap
	if err = yaml.Unmarshal(data, &m); err != nil {
		return errors.Wrapf(err, "parse module map %s", path)
	}
	for _, mod := range m.Modules {
		img := loader.Image{Name: mod.Name, Path: mod.Path, Base: mod.Base, Size: mod.Size, Entry: mod.Entry}
		for _, s := range mod.Sections {
			img.Sections = append(img.Sections, loader.Section{Name: s.Name, Addr: s.Addr, Size: s.Size})
		}
		if err = mm.Load(img); err != nil {
			return errors.Wrapf(err, "load module %s", img.ModuleName())
		}
	}
	return nil
}

func resolve(w io.Writer, s debugger.Session, addrs []uint64) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Address", "Location", "Label", "Comment", "Bookmark", "Argument", "Function", "Xrefs"})
	table.SetAutoWrapText(false)
	for _, addr := range addrs {
		loc, err := s.Modules().Resolve(addr)
		if err != nil {
			table.Append([]string{hexString(addr), "unmapped", "", "", "", "", "", ""})
			continue
		}
		label, _ := s.Labels().Get(addr)
		comment, _ := s.Comments().Get(addr)
		_, bookmarkErr := s.Bookmarks().Get(addr)
		table.Append([]string{
			hexString(addr),
			fmt.Sprintf("%s+%#x", loc.Module, loc.RVA),
			label,
			comment,
			lo.Ternary(bookmarkErr == nil, "yes", ""),
			rangeString(s.Arguments(), addr),
			rangeString(s.Functions(), addr),
			xrefString(s.Xrefs(), addr),
		})
	}
	table.Render()
}

func rangeString(store debugger.RangeStore, addr uint64) string {
	start, end, _, err := store.Get(addr)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("[%#x, %#x)", start, end)
}

func xrefString(store debugger.XrefStore, addr uint64) string {
	n := store.Count(addr)
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("%d (%s)", n, store.Type(addr))
}
