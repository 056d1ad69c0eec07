package encoding

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inner struct {
	Text string
}

type record struct {
	Name    string `encoding:"16"`
	Flag    bool
	Count   uint32
	Addr    uint64
	Delta   int
	Payload inner
	Cache   []byte `encoding:"ignore"`
}

func TestLayout(t *testing.T) {
	size, err := Size(reflect.TypeFor[record](), Width("Payload.Text", 8))
	require.NoError(t, err)
	// Name 0..16, Flag 16, Count 20..24, Addr 24..32, Delta 32..40, Text 40..48
	assert.Equal(t, 48, size)
}

func TestRoundTrip(t *testing.T) {
	in := record{Name: "app.exe", Flag: true, Count: 7, Addr: 0x401000, Delta: -3, Payload: inner{"hello"}, Cache: []byte{1}}
	b, err := Encode(nil, in, Width("Payload.Text", 8))
	require.NoError(t, err)
	require.Len(t, b, 48)
	assert.Equal(t, "app.exe\x00", string(b[:8]))

	var out record
	rest, err := Decode(b, &out, Width("Payload.Text", 8))
	require.NoError(t, err)
	assert.Empty(t, rest)
	in.Cache = nil
	assert.Equal(t, in, out)
}

func TestSliceRoundTrip(t *testing.T) {
	items := []record{{Name: "a", Addr: 1}, {Name: "b", Addr: 2, Payload: inner{"x"}}}
	b, err := EncodeSlice(nil, items, Width("Payload.Text", 8))
	require.NoError(t, err)
	out, err := DecodeSlice[record](b, 2, Width("Payload.Text", 8))
	require.NoError(t, err)
	assert.Equal(t, items, out)

	_, err = DecodeSlice[record](b, 3, Width("Payload.Text", 8))
	assert.ErrorIs(t, err, ErrShortBuffer)
	_, err = DecodeSlice[record](b, 1<<61, Width("Payload.Text", 8))
	assert.ErrorIs(t, err, ErrShortBuffer)
	_, err = DecodeSlice[struct{}](nil, 1)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestFieldTooLong(t *testing.T) {
	dst := []byte("prefix")
	out, err := Encode(dst, record{Name: strings.Repeat("x", 16)}, Width("Payload.Text", 8))
	assert.ErrorIs(t, err, ErrFieldTooLong)
	assert.Equal(t, "prefix", string(out))

	_, err = Encode(nil, record{Name: strings.Repeat("x", 15)}, Width("Payload.Text", 8))
	assert.NoError(t, err)
}

func TestUnsizedField(t *testing.T) {
	_, err := Encode(nil, record{})
	assert.ErrorIs(t, err, ErrUnsizedField)

	_, err = Encode(nil, struct{ M map[string]int }{})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestAlign(t *testing.T) {
	assert.Equal(t, 8, Align(1, 8))
	assert.Equal(t, 16, Align(16, 8))
	assert.Equal(t, uint64(0), Align(uint64(0), 8))
}
