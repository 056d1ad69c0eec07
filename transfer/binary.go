package transfer

import (
	"encoding/binary"
	"reflect"

	"github.com/pkg/errors"

	"github.com/wnxd/dbgmeta/encoding"
)

const headerSize = 16

var ErrFreed = errors.New("list already freed")

// MarshalBinary encodes the list as a ListInfo blob: a little-endian header
// {count uint64, size uint64} followed by count fixed-layout records of
// size/count bytes each.
func (l *List[T]) MarshalBinary() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.freed {
		return nil, ErrFreed
	}
	recSize, err := encoding.Size(reflect.TypeFor[T](), l.opts...)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, headerSize, headerSize+recSize*len(l.items))
	binary.LittleEndian.PutUint64(buf[0:], uint64(len(l.items)))
	binary.LittleEndian.PutUint64(buf[8:], uint64(recSize*len(l.items)))
	return encoding.EncodeSlice(buf, l.items, l.opts...)
}

// Unmarshal decodes a ListInfo blob produced by MarshalBinary.
func Unmarshal[T any](data []byte, opts ...encoding.Option) (*List[T], error) {
	if len(data) < headerSize {
		return nil, errors.Wrap(encoding.ErrShortBuffer, "list header")
	}
	count := binary.LittleEndian.Uint64(data[0:])
	size := binary.LittleEndian.Uint64(data[8:])
	if size != uint64(len(data)-headerSize) {
		return nil, errors.Wrapf(encoding.ErrShortBuffer, "list size %d, payload %d", size, len(data)-headerSize)
	}
	recSize, err := encoding.Size(reflect.TypeFor[T](), opts...)
	if err != nil {
		return nil, err
	}
	if recSize == 0 || size%uint64(recSize) != 0 || count != size/uint64(recSize) {
		return nil, errors.Wrapf(encoding.ErrShortBuffer, "list of %d records cannot span %d bytes", count, size)
	}
	items, err := encoding.DecodeSlice[T](data[headerSize:], int(count), opts...)
	if err != nil {
		return nil, err
	}
	return &List[T]{items: items, opts: opts}, nil
}
