package itemstore

// ChunkList is a point-in-time view of a Store, safe to read concurrently
// with further writes to that Store. Enumerating a ChunkList always
// yields exactly Count() items in insertion order.
type ChunkList struct {
	sealed []*Chunk
	tail   Chunk
	total  uint32
}

// Count returns the total number of items captured in this snapshot, O(1).
func (l ChunkList) Count() uint32 {
	return l.total
}

// ChunkCount returns the number of chunks (sealed plus, if non-empty, the
// tail) in this snapshot.
func (l ChunkList) ChunkCount() int {
	n := len(l.sealed)
	if l.tail.Count > 0 {
		n++
	}

	return n
}

// ChunkAt returns the i-th chunk (0-based) without allocating. i must be
// in [0, ChunkCount()).
func (l ChunkList) ChunkAt(i int) *Chunk {
	if i < len(l.sealed) {
		return l.sealed[i]
	}

	return &l.tail
}

// ItemAt returns the item at global insertion index idx. Chunks before
// the tail are always full (ChunkCapacity), so idx maps to a chunk
// directly without a scan.
func (l ChunkList) ItemAt(idx int) Item {
	chunkIdx := idx / ChunkCapacity
	within := idx % ChunkCapacity

	return l.ChunkAt(chunkIdx).Items[within]
}

// ForEach calls body with every item in insertion order, skipping chunk
// boundaries transparently. body returning false stops iteration early.
func (l ChunkList) ForEach(body func(Item) bool) {
	for ci := 0; ci < l.ChunkCount(); ci++ {
		chunk := l.ChunkAt(ci)
		for j := 0; j < chunk.Count; j++ {
			if !body(chunk.Items[j]) {
				return
			}
		}
	}
}
