package encoding

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"unsafe"

	"github.com/pkg/errors"
)

// Decode reads one record from src into the struct pointed to by val and
// returns the remaining bytes.
func Decode(src []byte, val any, opts ...Option) ([]byte, error) {
	v := reflect.ValueOf(val)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return src, errors.Wrapf(ErrUnsupportedType, "decode into %T", val)
	}
	l, err := getLayout(v.Type().Elem(), newOptions(opts))
	if err != nil {
		return src, err
	}
	if err = l.decodeRecord(src, v.UnsafePointer()); err != nil {
		return src, err
	}
	return src[l.size:], nil
}

// DecodeSlice decodes count consecutive records from src.
func DecodeSlice[T any](src []byte, count int, opts ...Option) ([]T, error) {
	l, err := getLayout(reflect.TypeFor[T](), newOptions(opts))
	if err != nil {
		return nil, err
	}
	if l.size == 0 {
		return nil, errors.Wrap(ErrUnsupportedType, "zero-size record")
	}
	if count < 0 || count > len(src)/l.size {
		return nil, errors.Wrapf(ErrShortBuffer, "%d records of %d bytes, have %d", count, l.size, len(src))
	}
	items := make([]T, count)
	for i := range items {
		if err = l.decodeRecord(src[i*l.size:], unsafe.Pointer(&items[i])); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (l *layout) decodeRecord(src []byte, ptr unsafe.Pointer) error {
	if len(src) < l.size {
		return errors.Wrapf(ErrShortBuffer, "record needs %d bytes, have %d", l.size, len(src))
	}
	for i := range l.fields {
		f := &l.fields[i]
		p := unsafe.Add(ptr, f.offset)
		in := src[f.pos : f.pos+f.size]
		switch f.kind {
		case reflect.Bool:
			*(*bool)(p) = in[0] != 0
		case reflect.Int8, reflect.Uint8:
			*(*uint8)(p) = in[0]
		case reflect.Int16, reflect.Uint16:
			*(*uint16)(p) = binary.LittleEndian.Uint16(in)
		case reflect.Int32, reflect.Uint32:
			*(*uint32)(p) = binary.LittleEndian.Uint32(in)
		case reflect.Int64, reflect.Uint64:
			*(*uint64)(p) = binary.LittleEndian.Uint64(in)
		case reflect.Int:
			*(*int)(p) = int(int64(binary.LittleEndian.Uint64(in)))
		case reflect.Uint:
			*(*uint)(p) = uint(binary.LittleEndian.Uint64(in))
		case reflect.Uintptr:
			*(*uintptr)(p) = uintptr(binary.LittleEndian.Uint64(in))
		case reflect.String:
			n := bytes.IndexByte(in, 0)
			if n < 0 {
				return errors.Wrapf(ErrFieldTooLong, "%s: missing terminator", f.path)
			}
			*(*string)(p) = string(in[:n])
		}
	}
	return nil
}
