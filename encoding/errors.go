package encoding

import "errors"

var (
	ErrFieldTooLong    = errors.New("field exceeds its fixed width")
	ErrUnsizedField    = errors.New("string field has no fixed width")
	ErrUnsupportedType = errors.New("unsupported type")
	ErrShortBuffer     = errors.New("short buffer")
)
