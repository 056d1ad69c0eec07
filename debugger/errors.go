package debugger

import (
	"errors"
	"fmt"

	"github.com/wnxd/dbgmeta/encoding"
)

var (
	ErrAddressNotMapped = errors.New("address not mapped")
	ErrModuleNotFound   = errors.New("module not found")
	ErrMalformedRange   = errors.New("malformed range")
	ErrNotFound         = errors.New("not found")
	ErrManualProtected  = errors.New("manual record protected")
	ErrSessionClosed    = errors.New("session closed")

	ErrFieldTooLong = fmt.Errorf("%w: %w", ErrMalformedRange, encoding.ErrFieldTooLong)
	ErrRangeOverlap = fmt.Errorf("%w: overlaps a stored range", ErrMalformedRange)
	ErrInvalidText  = fmt.Errorf("%w: invalid text", ErrMalformedRange)
)
