package encoding

import (
	"reflect"
	"strconv"
	"sync"

	"github.com/modern-go/reflect2"
	"github.com/pkg/errors"
)

type field struct {
	path   string
	kind   reflect.Kind
	offset uintptr
	pos    int
	size   int
}

type layout struct {
	fields []field
	size   int
}

type layoutKey struct {
	rtype  uintptr
	widths string
}

var layouts sync.Map

func getLayout(typ reflect.Type, o *options) (*layout, error) {
	key := layoutKey{reflect2.Type2(typ).RType(), o.key()}
	if v, ok := layouts.Load(key); ok {
		return v.(*layout), nil
	}
	l := new(layout)
	if err := l.add(reflect2.Type2(typ), "", 0, o); err != nil {
		return nil, err
	}
	l.size = Align(l.size, RecordAlign)
	v, _ := layouts.LoadOrStore(key, l)
	return v.(*layout), nil
}

func (l *layout) add(typ reflect2.Type, prefix string, base uintptr, o *options) error {
	st, ok := typ.(reflect2.StructType)
	if !ok {
		return errors.Wrapf(ErrUnsupportedType, "%s is not a struct", typ.String())
	}
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		tag := f.Tag().Get("encoding")
		if tag == "ignore" {
			continue
		}
		path := f.Name()
		if prefix != "" {
			path = prefix + "." + path
		}
		offset := base + f.Offset()
		kind := f.Type().Kind()
		switch kind {
		case reflect.Bool, reflect.Int8, reflect.Uint8:
			l.put(field{path: path, kind: kind, offset: offset, size: 1})
		case reflect.Int16, reflect.Uint16:
			l.put(field{path: path, kind: kind, offset: offset, size: 2})
		case reflect.Int32, reflect.Uint32:
			l.put(field{path: path, kind: kind, offset: offset, size: 4})
		case reflect.Int, reflect.Uint, reflect.Uintptr, reflect.Int64, reflect.Uint64:
			l.put(field{path: path, kind: kind, offset: offset, size: 8})
		case reflect.String:
			width := o.widths[path]
			if width == 0 && tag != "" {
				width, _ = strconv.Atoi(tag)
			}
			if width <= 0 {
				return errors.Wrapf(ErrUnsizedField, "%s", path)
			}
			l.put(field{path: path, kind: kind, offset: offset, size: width})
		case reflect.Struct:
			if err := l.add(f.Type(), path, offset, o); err != nil {
				return err
			}
		default:
			return errors.Wrapf(ErrUnsupportedType, "%s: %s", path, kind)
		}
	}
	return nil
}

func (l *layout) put(f field) {
	if f.kind != reflect.String {
		f.pos = Align(l.size, f.size)
	} else {
		f.pos = l.size
	}
	l.size = f.pos + f.size
	l.fields = append(l.fields, f)
}
