package encoding

import (
	"encoding/binary"
	"reflect"
	"unsafe"

	"github.com/pkg/errors"
)

// Size returns the encoded size of one record of type typ.
func Size(typ reflect.Type, opts ...Option) (int, error) {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	l, err := getLayout(typ, newOptions(opts))
	if err != nil {
		return 0, err
	}
	return l.size, nil
}

// Encode appends the fixed-layout form of val to dst.
func Encode(dst []byte, val any, opts ...Option) ([]byte, error) {
	v := reflect.ValueOf(val)
	if !v.IsValid() {
		return dst, errors.Wrap(ErrUnsupportedType, "encode nil")
	}
	if v.Kind() != reflect.Pointer {
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		v = p
	}
	l, err := getLayout(v.Type().Elem(), newOptions(opts))
	if err != nil {
		return dst, err
	}
	return l.appendRecord(dst, v.UnsafePointer())
}

// EncodeSlice appends every element of items to dst, one record after another.
func EncodeSlice[T any](dst []byte, items []T, opts ...Option) ([]byte, error) {
	l, err := getLayout(reflect.TypeFor[T](), newOptions(opts))
	if err != nil {
		return dst, err
	}
	dst = grow(dst, l.size*len(items))
	for i := range items {
		if dst, err = l.appendRecord(dst, unsafe.Pointer(&items[i])); err != nil {
			return dst, err
		}
	}
	return dst, nil
}

func (l *layout) appendRecord(dst []byte, ptr unsafe.Pointer) ([]byte, error) {
	start := len(dst)
	dst = append(dst, make([]byte, l.size)...)
	b := dst[start:]
	for i := range l.fields {
		f := &l.fields[i]
		p := unsafe.Add(ptr, f.offset)
		out := b[f.pos : f.pos+f.size]
		switch f.kind {
		case reflect.Bool:
			if *(*bool)(p) {
				out[0] = 1
			}
		case reflect.Int8, reflect.Uint8:
			out[0] = *(*uint8)(p)
		case reflect.Int16, reflect.Uint16:
			binary.LittleEndian.PutUint16(out, *(*uint16)(p))
		case reflect.Int32, reflect.Uint32:
			binary.LittleEndian.PutUint32(out, *(*uint32)(p))
		case reflect.Int64, reflect.Uint64:
			binary.LittleEndian.PutUint64(out, *(*uint64)(p))
		case reflect.Int:
			binary.LittleEndian.PutUint64(out, uint64(int64(*(*int)(p))))
		case reflect.Uint:
			binary.LittleEndian.PutUint64(out, uint64(*(*uint)(p)))
		case reflect.Uintptr:
			binary.LittleEndian.PutUint64(out, uint64(*(*uintptr)(p)))
		case reflect.String:
			s := *(*string)(p)
			if len(s) >= f.size {
				return dst[:start], errors.Wrapf(ErrFieldTooLong, "%s: %d bytes, limit %d", f.path, len(s), f.size-1)
			}
			copy(out, s)
		}
	}
	return dst, nil
}

func grow(b []byte, n int) []byte {
	if cap(b)-len(b) >= n {
		return b
	}
	nb := make([]byte, len(b), len(b)+n)
	copy(nb, b)
	return nb
}
