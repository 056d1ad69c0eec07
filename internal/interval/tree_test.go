package interval

import (
	"iter"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type span struct{ start, end uint64 }

func collect[V any](seq iter.Seq[Entry[V]]) []span {
	var out []span
	for e := range seq {
		out = append(out, span{e.Start, e.End})
	}
	return out
}

func bruteOverlap(spans []span, start, end uint64) []span {
	var out []span
	for _, s := range spans {
		if max(start, s.start) < min(end, s.end) {
			out = append(out, s)
		}
	}
	return out
}

func sortSpans(spans []span) []span {
	slices.SortFunc(spans, func(a, b span) int {
		if a.start != b.start {
			if a.start < b.start {
				return -1
			}
			return 1
		}
		if a.end < b.end {
			return -1
		} else if a.end > b.end {
			return 1
		}
		return 0
	})
	return spans
}

func checkInvariants[V any](t *testing.T, n *node[V]) (int, uint64) {
	if n == nil {
		return 0, 0
	}
	lh, lmax := checkInvariants(t, n.left)
	rh, rmax := checkInvariants(t, n.right)
	require.LessOrEqual(t, lh-rh, 1)
	require.LessOrEqual(t, rh-lh, 1)
	require.Equal(t, 1+max(lh, rh), n.height)
	require.Equal(t, max(n.End, lmax, rmax), n.max)
	return n.height, n.max
}

func TestTreeBasic(t *testing.T) {
	var tree Tree[string]
	assert.False(t, tree.Overlaps(0, 100))
	assert.False(t, tree.Insert(0x1000, 0x1050, "a"))
	assert.False(t, tree.Insert(0x2000, 0x2100, "b"))
	assert.True(t, tree.Insert(0x1000, 0x1050, "c"))
	assert.Equal(t, 2, tree.Len())

	v, ok := tree.Get(0x1000, 0x1050)
	require.True(t, ok)
	assert.Equal(t, "c", v)

	assert.True(t, tree.Overlaps(0x1010, 0x1020))
	assert.False(t, tree.Overlaps(0x1050, 0x2000))
	assert.False(t, tree.Overlaps(0x1020, 0x1020))
	assert.Equal(t, []span{{0x1000, 0x1050}}, collect(tree.Containing(0x104f)))
	assert.Empty(t, collect(tree.Containing(0x1050)))

	assert.True(t, tree.Delete(0x1000, 0x1050))
	assert.False(t, tree.Delete(0x1000, 0x1050))
	assert.Equal(t, 1, tree.Len())
	assert.False(t, tree.Overlaps(0x1010, 0x1020))
}

func TestTreeContainingMaxPoint(t *testing.T) {
	var tree Tree[int]
	tree.Insert(^uint64(0)-0x10, ^uint64(0), 1)
	assert.Empty(t, collect(tree.Containing(^uint64(0))))
	assert.Len(t, collect(tree.Containing(^uint64(0)-1)), 1)
}

func TestTreeMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	var (
		tree  Tree[int]
		spans []span
	)
	for i := 0; i < 5000; i++ {
		start := rng.Uint64N(1 << 20)
		s := span{start, start + 1 + rng.Uint64N(512)}
		if !tree.Insert(s.start, s.end, i) {
			spans = append(spans, s)
		}
		if i%3 == 0 && len(spans) > 0 {
			j := rng.IntN(len(spans))
			require.True(t, tree.Delete(spans[j].start, spans[j].end))
			spans = slices.Delete(spans, j, j+1)
		}
	}
	require.Equal(t, len(spans), tree.Len())
	checkInvariants(t, tree.root)
	assert.Equal(t, sortSpans(slices.Clone(spans)), collect(tree.All()))

	for i := 0; i < 500; i++ {
		start := rng.Uint64N(1 << 20)
		end := start + rng.Uint64N(4096)
		assert.Equal(t, sortSpans(bruteOverlap(spans, start, end)), collect(tree.Overlapping(start, end)))
		assert.Equal(t, sortSpans(bruteOverlap(spans, start, start+1)), collect(tree.Containing(start)))
	}
}

func TestTreeStopsEarly(t *testing.T) {
	var tree Tree[int]
	for i := uint64(0); i < 100; i++ {
		tree.Insert(i, i+10, int(i))
	}
	var n int
	for range tree.Overlapping(0, 200) {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}
