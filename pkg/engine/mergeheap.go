package engine

// mergeHeap is a hand-rolled binary min-heap over partition heads,
// grounded on entreya-csvquery's internal/indexer/sorter.go manualHeap:
// initialized with Floyd's algorithm rather than container/heap.Init, to
// keep the hot comparison loop free of interface dispatch.
type mergeHeap struct {
	items []heapEntry
}

type heapEntry struct {
	item MatchedItem
	part int
}

func (h *mergeHeap) reset() {
	h.items = h.items[:0]
}

// seed fills the heap with the head of every non-empty partition and
// heapifies in O(n).
func (h *mergeHeap) seed(partitions [][]MatchedItem) {
	h.reset()

	for p, part := range partitions {
		if len(part) > 0 {
			h.items = append(h.items, heapEntry{item: part[0], part: p})
		}
	}

	n := len(h.items)
	for i := n/2 - 1; i >= 0; i-- {
		h.down(i, n)
	}
}

func (h *mergeHeap) len() int {
	return len(h.items)
}

func (h *mergeHeap) push(e heapEntry) {
	h.items = append(h.items, e)
	h.up(len(h.items) - 1)
}

func (h *mergeHeap) pop() heapEntry {
	n := len(h.items)
	top := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	h.down(0, n-1)

	return top
}

func (h *mergeHeap) less(i, j int) bool {
	return Less(h.items[i].item, h.items[j].item)
}

func (h *mergeHeap) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.less(i, parent) {
			return
		}

		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *mergeHeap) down(i, n int) {
	for {
		left := 2*i + 1
		if left >= n {
			return
		}

		smallest := left
		if right := left + 1; right < n && h.less(right, left) {
			smallest = right
		}

		if !h.less(smallest, i) {
			return
		}

		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}
