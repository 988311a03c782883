// Package itemstore groups candidate line records into fixed-size sealed
// chunks with cheap, copy-on-write snapshots.
//
// A Store has one writer (the stdin reader task) and many readers (matcher
// workers, via Snapshot). Sealed chunks are shared by reference between a
// Store and every Snapshot taken after they sealed; only the tail chunk is
// copied into each snapshot.
package itemstore

// Item is a 12-byte record identifying one candidate line's position.
//
// Index equals the item's insertion order (0-based, contiguous). Offset
// and Length describe the candidate's window into a textbuf.Buffer;
// itemstore never touches buffer bytes directly.
type Item struct {
	Index  uint32
	Offset uint32
	Length uint32
}

// ChunkCapacity is the fixed number of items per chunk. Once a chunk holds
// ChunkCapacity items it is sealed and never mutated again.
const ChunkCapacity = 100

// Chunk is an inline fixed-capacity array of items plus a live count.
type Chunk struct {
	Items [ChunkCapacity]Item
	Count int
}

// Slice returns the chunk's live items. The returned slice aliases the
// chunk's backing array; callers must not retain it past a mutation of a
// tail chunk still being written to.
func (c *Chunk) Slice() []Item {
	return c.Items[:c.Count]
}
