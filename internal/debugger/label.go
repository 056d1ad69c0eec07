package debugger

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/wnxd/dbgmeta/debugger"
	"github.com/wnxd/dbgmeta/encoding"
)

type labelManager struct {
	addrInfoMap[string]
}

var labelKind = addrKind[string]{
	name:     "label",
	validate: validateLabel,
	empty:    emptyText,
	width:    []encoding.Option{debugger.LabelWidth},
}

var commentKind = addrKind[string]{
	name:     "comment",
	validate: validateComment,
	empty:    emptyText,
	width:    []encoding.Option{debugger.CommentWidth},
}

var bookmarkKind = addrKind[debugger.Bookmark]{
	name: "bookmark",
}

func emptyText(text string) bool {
	return text == ""
}

func validateLabel(text string) error {
	switch {
	case strings.HasPrefix(text, "\x01"):
		return errors.Wrap(debugger.ErrInvalidText, "label starts with a delimiter")
	case strings.Contains(text, "&"):
		return errors.Wrapf(debugger.ErrInvalidText, "label %q contains '&'", text)
	}
	return debugger.CheckWidth("label", text, debugger.MaxLabelSize)
}

func validateComment(text string) error {
	if strings.HasPrefix(text, "\x01") {
		return errors.Wrap(debugger.ErrInvalidText, "comment starts with a delimiter")
	}
	return debugger.CheckWidth("comment", text, debugger.MaxCommentSize)
}

// FromString returns the live address of the first label, in (module, rva)
// order, whose text is text and whose module is loaded.
func (lm *labelManager) FromString(text string) (uint64, error) {
	err := errors.Wrapf(debugger.ErrNotFound, "label %q", text)
	for _, info := range lm.list() {
		if info.Payload != text {
			continue
		}
		addr, terr := lm.mm.Translate(debugger.Location{Module: info.Module, RVA: info.RVA})
		if terr == nil {
			return addr, nil
		}
		err = terr
	}
	return 0, err
}
