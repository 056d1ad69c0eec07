package encoding

import (
	"slices"
	"strconv"
	"strings"
)

type Option func(*options)

type options struct {
	widths map[string]int
}

// Width sets the fixed width in bytes, terminator included, of the string
// field at path. Nested fields use dotted paths ("Payload.Text").
func Width(path string, n int) Option {
	return func(o *options) {
		if o.widths == nil {
			o.widths = make(map[string]int)
		}
		o.widths[path] = n
	}
}

func newOptions(opts []Option) *options {
	o := new(options)
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) key() string {
	if len(o.widths) == 0 {
		return ""
	}
	paths := make([]string, 0, len(o.widths))
	for path := range o.widths {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	var sb strings.Builder
	for _, path := range paths {
		sb.WriteString(path)
		sb.WriteByte('=')
		sb.WriteString(strconv.Itoa(o.widths[path]))
		sb.WriteByte(';')
	}
	return sb.String()
}
