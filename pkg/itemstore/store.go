package itemstore

import "sync"

// Store holds an append-only sequence of items grouped into sealed chunks
// plus one growing tail chunk.
//
// Grounded on the teacher's single-writer/multi-reader model
// (pkg/slotcache's fileRegistryEntry.mu): the exclusive lock is held only
// for the few instructions of a Register call; readers take Snapshot
// under a shared lock and then proceed lock-free.
type Store struct {
	mu     sync.RWMutex
	sealed []*Chunk
	tail   Chunk
	total  uint32
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// Register places an Item built from (offset, length) at the tail,
// sealing and rotating the tail chunk once it fills. Returns the new
// item's index.
func (s *Store) Register(offset, length uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.total
	s.tail.Items[s.tail.Count] = Item{Index: idx, Offset: offset, Length: length}
	s.tail.Count++
	s.total++

	if s.tail.Count == ChunkCapacity {
		sealed := s.tail
		s.sealed = append(s.sealed, &sealed)
		s.tail = Chunk{}
	}

	return idx
}

// Count reports the total number of registered items, O(1).
func (s *Store) Count() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.total
}

// Seal reclaims unused capacity in the sealed-chunk container. A no-op if
// there is no spare capacity to reclaim.
func (s *Store) Seal() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sealed = s.sealed[:len(s.sealed):len(s.sealed)]
}

// Snapshot captures the sealed chunks by shared reference and copies the
// tail chunk by value. Subsequent writes are invisible to the returned
// ChunkList: new sealed chunks are appended past the captured slice
// length, and the tail copy is independent of the live tail.
func (s *Store) Snapshot() ChunkList {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ChunkList{
		sealed: s.sealed[:len(s.sealed):len(s.sealed)],
		tail:   s.tail,
		total:  s.total,
	}
}
