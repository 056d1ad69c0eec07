// Package transfer implements the ownership-transfer contract used whenever a
// store hands a bulk snapshot to an external caller.
//
// A List is always a private copy of the producer's state at the moment it was
// built. The receiver owns it and releases it with Free; mutating the producer
// afterwards never affects a List already handed out.
package transfer

import (
	"slices"
	"sync"

	"github.com/wnxd/dbgmeta/encoding"
)

type List[T any] struct {
	mu    sync.Mutex
	items []T
	opts  []encoding.Option
	freed bool
}

// NewList copies items into a new List. opts describe the fixed widths used
// by MarshalBinary for the element's text fields.
func NewList[T any](items []T, opts ...encoding.Option) *List[T] {
	return &List[T]{items: slices.Clone(items), opts: opts}
}

// Empty returns a List with no elements.
func Empty[T any](opts ...encoding.Option) *List[T] {
	return &List[T]{opts: opts}
}

func (l *List[T]) Count() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Items returns the backing array of the snapshot. It is nil after Free.
func (l *List[T]) Items() []T {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.items
}

// Free releases the snapshot storage. Freeing twice is a no-op.
func (l *List[T]) Free() {
	if l == nil {
		return
	}
	l.mu.Lock()
	if !l.freed {
		clear(l.items)
		l.items = nil
		l.freed = true
	}
	l.mu.Unlock()
}

func (l *List[T]) Freed() bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.freed
}
