package debugger

import (
	"fmt"

	"github.com/wnxd/dbgmeta/encoding"
)

// Fixed widths, terminator included, of the text fields carried in snapshots.
const (
	MaxModuleSize  = 256
	MaxPathSize    = 260
	MaxSectionSize = 50
	MaxLabelSize   = 256
	MaxCommentSize = 512
	MaxSymbolSize  = 256
)

func CheckWidth(field, s string, width int) error {
	if len(s) >= width {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFieldTooLong, field, len(s), width-1)
	}
	return nil
}

var (
	LabelWidth   = encoding.Width("Payload", MaxLabelSize)
	CommentWidth = encoding.Width("Payload", MaxCommentSize)
)
