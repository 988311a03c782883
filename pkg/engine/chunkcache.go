package engine

import "sync"

// chunkCacheSelectivityLimit gates Store: results larger than this are not
// worth caching, per spec.md §4.5.
const chunkCacheSelectivityLimit = 20

type cacheKey struct {
	chunkIndex int
	count      int
}

type bucketEntry struct {
	mu      sync.Mutex
	query   string
	results []MatchedItem
}

// ChunkCache holds at most one (query, sortedResults) entry per
// (chunkIndex, chunk.count) bucket, shared across matcher workers.
//
// Grounded on the teacher's pkg/mddb/fmcache shape (a per-key cache with a
// selectivity gate) and pkg/slotcache/writer_lock.go's discipline of
// keeping every critical section short - here a per-bucket mutex instead
// of one cache-wide lock.
//
// search is resolved as a strict-prefix narrowing cache: a hit requires
// the stored query to be a strict prefix of the new query (spec.md §9's
// Open Question is decided this way and documented in DESIGN.md).
type ChunkCache struct {
	buckets sync.Map // map[cacheKey]*bucketEntry
}

func NewChunkCache() *ChunkCache {
	return &ChunkCache{}
}

func (c *ChunkCache) bucket(key cacheKey) *bucketEntry {
	if v, ok := c.buckets.Load(key); ok {
		return v.(*bucketEntry) //nolint:forcetypeassert
	}

	entry := &bucketEntry{}
	actual, _ := c.buckets.LoadOrStore(key, entry)

	return actual.(*bucketEntry) //nolint:forcetypeassert
}

// Lookup returns cached results iff count matches the chunk's count at
// store time and query equals the stored key exactly.
func (c *ChunkCache) Lookup(chunkIndex, count int, query string) ([]MatchedItem, bool) {
	b := c.bucket(cacheKey{chunkIndex, count})

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.results == nil || b.query != query {
		return nil, false
	}

	return cloneItems(b.results), true
}

// Search returns a narrower candidate set iff count matches and the
// stored query is a strict prefix of query. The caller must re-match the
// returned candidates against the full query.
func (c *ChunkCache) Search(chunkIndex, count int, query string) ([]MatchedItem, bool) {
	b := c.bucket(cacheKey{chunkIndex, count})

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.results == nil || b.query == "" || b.query == query {
		return nil, false
	}

	if len(query) <= len(b.query) || query[:len(b.query)] != b.query {
		return nil, false
	}

	return cloneItems(b.results), true
}

// Store caches results iff their length is within the selectivity gate.
func (c *ChunkCache) Store(chunkIndex, count int, query string, results []MatchedItem) {
	if len(results) > chunkCacheSelectivityLimit {
		return
	}

	b := c.bucket(cacheKey{chunkIndex, count})

	b.mu.Lock()
	defer b.mu.Unlock()

	b.query = query
	b.results = cloneItems(results)
}

// Clear drops every cached entry. Used when the item set grows, since
// cached results are no longer guaranteed a superset of the new set.
func (c *ChunkCache) Clear() {
	c.buckets = sync.Map{}
}

func cloneItems(in []MatchedItem) []MatchedItem {
	out := make([]MatchedItem, len(in))
	copy(out, in)

	return out
}
