package engine

import (
	"context"
	"runtime"
	"slices"
	"sync"

	"github.com/snapfind/snapfind/pkg/itemstore"
	"github.com/snapfind/snapfind/pkg/matcher"
	"github.com/snapfind/snapfind/pkg/textbuf"
)

// singleThreadThreshold is the item count below which matching runs on
// the calling goroutine instead of fanning out to the worker pool, per
// spec.md §4.4.
const singleThreadThreshold = 1000

// minItemPartition is the floor on partition size for item-list matching
// (the incremental-filtering path), per spec.md §4.4.
const minItemPartition = 100

// Engine runs chunk-parallel and item-parallel fuzzy matching.
//
// Grounded on kshedden-muscato's muscato_screen goroutine/semaphore
// idiom (a fixed worker count gating concurrent scanning goroutines via a
// WaitGroup), generalized here to runtime.NumCPU() capped by the unit of
// work, per spec.md §5.
type Engine struct {
	workers int
}

// New returns an Engine sized to min(runtime.NumCPU(), maxWorkers). A
// maxWorkers of 0 uses runtime.NumCPU() uncapped.
func New(maxWorkers int) *Engine {
	workers := runtime.NumCPU()
	if maxWorkers > 0 && maxWorkers < workers {
		workers = maxWorkers
	}

	if workers < 1 {
		workers = 1
	}

	return &Engine{workers: workers}
}

// MatchChunks is the primary match path: every chunk in snapshot is
// scored against query, consulting cache for per-chunk reuse.
func (e *Engine) MatchChunks(ctx context.Context, query Query, snapshot itemstore.ChunkList, cache *ChunkCache, buf *textbuf.Buffer) *ResultMerger {
	if query.Pattern == nil {
		return NewChunkBacked(snapshot, buf)
	}

	chunkCount := snapshot.ChunkCount()
	if chunkCount == 0 {
		return NewPartitionBacked(nil)
	}

	workers := e.workers
	if workers > chunkCount {
		workers = chunkCount
	}

	if snapshot.Count() < singleThreadThreshold {
		workers = 1
	}

	perWorker := chunkCount / workers
	if perWorker < 1 {
		perWorker = 1
	}

	ranges := partitionRanges(chunkCount, perWorker)
	partitions := make([][]MatchedItem, len(ranges))

	var wg sync.WaitGroup

	for i, r := range ranges {
		wg.Add(1)

		go func(i int, start, end int) {
			defer wg.Done()

			partitions[i] = e.matchChunkRange(ctx, query, snapshot, cache, buf, start, end)
		}(i, r.start, r.end)
	}

	wg.Wait()

	return NewPartitionBacked(partitions)
}

// MatchItems is the incremental-filtering path: items is a flat candidate
// list drawn from a previous merger's AllItems.
func (e *Engine) MatchItems(ctx context.Context, query Query, items []itemstore.Item, buf *textbuf.Buffer) *ResultMerger {
	if len(items) == 0 {
		return NewPartitionBacked(nil)
	}

	workers := e.workers
	if len(items) < singleThreadThreshold {
		workers = 1
	}

	partSize := len(items) / workers
	if partSize < minItemPartition {
		partSize = minItemPartition
	}

	ranges := partitionRanges(len(items), partSize)
	partitions := make([][]MatchedItem, len(ranges))

	var wg sync.WaitGroup

	for i, r := range ranges {
		wg.Add(1)

		go func(i int, start, end int) {
			defer wg.Done()

			if ctxDone(ctx) {
				return
			}

			scratch := matcher.NewScratch()
			partitions[i] = matchCandidates(query, items[start:end], buf, scratch)
		}(i, r.start, r.end)
	}

	wg.Wait()

	return NewPartitionBacked(partitions)
}

type chunkRange struct{ start, end int }

func partitionRanges(total, size int) []chunkRange {
	if size < 1 {
		size = 1
	}

	var ranges []chunkRange

	for start := 0; start < total; start += size {
		end := start + size
		if end > total {
			end = total
		}

		ranges = append(ranges, chunkRange{start, end})
	}

	if len(ranges) == 0 {
		ranges = append(ranges, chunkRange{0, 0})
	}

	return ranges
}

func ctxDone(ctx context.Context) bool {
	if ctx == nil {
		return false
	}

	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// matchChunkRange is one worker's loop over an owned contiguous chunk
// range. Consults cache per chunk, per spec.md §4.4's five-step recipe.
func (e *Engine) matchChunkRange(ctx context.Context, query Query, snapshot itemstore.ChunkList, cache *ChunkCache, buf *textbuf.Buffer, start, end int) []MatchedItem {
	scratch := matcher.NewScratch()

	var out []MatchedItem

	for ci := start; ci < end; ci++ {
		if ctxDone(ctx) {
			return nil
		}

		chunk := snapshot.ChunkAt(ci)

		if cached, ok := cache.Lookup(ci, chunk.Count, query.Raw); ok {
			out = append(out, cached...)
			continue
		}

		var candidates []itemstore.Item

		if narrowed, ok := cache.Search(ci, chunk.Count, query.Raw); ok {
			candidates = make([]itemstore.Item, len(narrowed))
			for i, mi := range narrowed {
				candidates[i] = mi.Item
			}
		} else {
			candidates = chunk.Slice()
		}

		results := matchCandidates(query, candidates, buf, scratch)
		cache.Store(ci, chunk.Count, query.Raw, results)
		out = append(out, results...)
	}

	sortMatched(out)

	return out
}

func matchCandidates(query Query, items []itemstore.Item, buf *textbuf.Buffer, scratch *matcher.Scratch) []MatchedItem {
	out := make([]MatchedItem, 0, len(items))

	for _, it := range items {
		text := buf.Bytes(it.Offset, it.Length)

		rm, ok := matcher.MatchRank(query.Pattern, text, scratch)
		if !ok {
			continue
		}

		out = append(out, MatchedItem{
			Item:     it,
			RawScore: rm.Score,
			MinBegin: rm.MinBegin,
			Points:   pointsFor(query.Scheme, rm.Score, rm.MinBegin, text),
		})
	}

	sortMatched(out)

	return out
}

func sortMatched(items []MatchedItem) {
	slices.SortFunc(items, func(a, b MatchedItem) int {
		switch {
		case Less(a, b):
			return -1
		case Less(b, a):
			return 1
		default:
			return 0
		}
	})
}
