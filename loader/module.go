package loader

import "strings"

// Image describes a module as reported by a module-load event.
type Image struct {
	Name     string
	Path     string
	Base     uint64
	Size     uint64
	Entry    uint64
	Sections []Section
	Exports  []Export
	Imports  []Import
}

// ModuleName returns the lower-cased short name of the image, taken from the
// path when the event carries no explicit name.
func (img *Image) ModuleName() string {
	name := img.Name
	if name == "" {
		name = img.Path
		if i := strings.LastIndexAny(name, `\/`); i >= 0 {
			name = name[i+1:]
		}
	}
	return strings.ToLower(name)
}

func (img *Image) End() uint64 {
	return img.Base + img.Size
}

// SplitName splits a module name into its stem and extension ("app.exe" ->
// "app", ".exe").
func SplitName(name string) (string, string) {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[:i], name[i:]
	}
	return name, ""
}
