package engine

import (
	"slices"

	"github.com/snapfind/snapfind/pkg/itemstore"
	"github.com/snapfind/snapfind/pkg/textbuf"
)

type mergerKind int

const (
	kindChunkBacked mergerKind = iota
	kindPartitionBacked
)

// ResultMerger is a tagged union of the two merger variants spec.md §3
// describes. Every accessor dispatches on kind; per spec.md §9 this is
// deliberately not modeled with an interface/inheritance hierarchy.
type ResultMerger struct {
	kind mergerKind

	// chunk-backed (empty query fast path)
	chunks itemstore.ChunkList
	buf    *textbuf.Buffer

	// partition-backed
	partitions   [][]MatchedItem
	count        int
	heap         mergeHeap
	heapSeeded   bool
	cursors      []int
	materialized []MatchedItem
}

// NewChunkBacked wraps a ChunkList directly: the empty-query fast path.
// Score is 0, minBegin is 0, and points are synthesized from length alone.
func NewChunkBacked(chunks itemstore.ChunkList, buf *textbuf.Buffer) *ResultMerger {
	return &ResultMerger{kind: kindChunkBacked, chunks: chunks, buf: buf}
}

// NewPartitionBacked wraps a set of per-worker sorted partitions. Each
// partition must already be sorted by Less.
func NewPartitionBacked(partitions [][]MatchedItem) *ResultMerger {
	count := 0
	for _, p := range partitions {
		count += len(p)
	}

	return &ResultMerger{
		kind:       kindPartitionBacked,
		partitions: partitions,
		count:      count,
		cursors:    make([]int, len(partitions)),
	}
}

// Count returns the total number of matches, O(1), available before any
// materialization.
func (m *ResultMerger) Count() int {
	if m.kind == kindChunkBacked {
		return int(m.chunks.Count())
	}

	return m.count
}

func (m *ResultMerger) chunkBackedAt(idx int) MatchedItem {
	it := m.chunks.ItemAt(idx)
	text := m.buf.Bytes(it.Offset, it.Length)

	return MatchedItem{
		Item:     it,
		RawScore: 0,
		MinBegin: 0,
		Points:   packPoints(0, 0, clampField(len(text))),
	}
}

func (m *ResultMerger) ensureMaterialized(upto int) {
	if !m.heapSeeded {
		m.heap.seed(m.partitions)
		m.heapSeeded = true
	}

	for len(m.materialized) <= upto && m.heap.len() > 0 {
		top := m.heap.pop()
		m.materialized = append(m.materialized, top.item)

		next := m.cursors[top.part] + 1
		m.cursors[top.part] = next

		if next < len(m.partitions[top.part]) {
			m.heap.push(heapEntry{item: m.partitions[top.part][next], part: top.part})
		}
	}
}

// Get materializes items in global rank order up to idx and returns the
// one at idx.
func (m *ResultMerger) Get(idx int) (MatchedItem, bool) {
	if idx < 0 || idx >= m.Count() {
		return MatchedItem{}, false
	}

	if m.kind == kindChunkBacked {
		return m.chunkBackedAt(idx), true
	}

	m.ensureMaterialized(idx)

	if idx >= len(m.materialized) {
		return MatchedItem{}, false
	}

	return m.materialized[idx], true
}

// Slice materializes up to hi-1 and returns the window [lo, hi), clamped
// to the available count.
func (m *ResultMerger) Slice(lo, hi int) []MatchedItem {
	count := m.Count()

	if hi > count {
		hi = count
	}

	if lo < 0 {
		lo = 0
	}

	if lo >= hi {
		return nil
	}

	if m.kind == kindChunkBacked {
		out := make([]MatchedItem, 0, hi-lo)
		for i := lo; i < hi; i++ {
			out = append(out, m.chunkBackedAt(i))
		}

		return out
	}

	m.ensureMaterialized(hi - 1)

	end := hi
	if end > len(m.materialized) {
		end = len(m.materialized)
	}

	return m.materialized[lo:end]
}

// AllItems flattens every partition to a plain, unsorted sequence of
// Items. Used by the incremental-filtering path, which re-scores and
// re-sorts anyway.
func (m *ResultMerger) AllItems() []itemstore.Item {
	if m.kind == kindChunkBacked {
		out := make([]itemstore.Item, 0, m.chunks.Count())
		m.chunks.ForEach(func(it itemstore.Item) bool {
			out = append(out, it)
			return true
		})

		return out
	}

	out := make([]itemstore.Item, 0, m.count)
	for _, part := range m.partitions {
		for _, mi := range part {
			out = append(out, mi.Item)
		}
	}

	return out
}

// SelectedItems scans every item once, keeps those whose index is in
// selected, and returns them sorted by insertion order. Invoked at most
// once, on exit.
func (m *ResultMerger) SelectedItems(selected map[uint32]struct{}) []itemstore.Item {
	all := m.AllItems()
	out := make([]itemstore.Item, 0, len(selected))

	for _, it := range all {
		if _, ok := selected[it.Index]; ok {
			out = append(out, it)
		}
	}

	slices.SortFunc(out, func(a, b itemstore.Item) int {
		switch {
		case a.Index < b.Index:
			return -1
		case a.Index > b.Index:
			return 1
		default:
			return 0
		}
	})

	return out
}
