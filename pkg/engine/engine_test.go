package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/snapfind/snapfind/pkg/itemstore"
	"github.com/snapfind/snapfind/pkg/textbuf"
)

func buildStore(t *testing.T, lines []string) (*itemstore.Store, *textbuf.Buffer) {
	t.Helper()

	buf := textbuf.New(0)
	store := itemstore.New()

	for _, line := range lines {
		off, length := buf.AppendRaw([]byte(line))
		store.Register(off, length)
	}

	store.Seal()

	return store, buf
}

func TestEngine_MatchChunks_EmptyQueryReturnsEveryItemInInsertionOrder(t *testing.T) {
	store, buf := buildStore(t, []string{"alpha", "beta", "gamma"})

	e := New(4)
	query := PrepareQuery("", false, SchemeDefault)

	merger := e.MatchChunks(context.Background(), query, store.Snapshot(), NewChunkCache(), buf)
	require.Equal(t, 3, merger.Count())

	got := merger.Slice(0, 3)
	for i, mi := range got {
		require.Equal(t, uint32(i), mi.Item.Index)
	}
}

func TestEngine_MatchChunks_RanksExactAndFuzzyMatchesByScore(t *testing.T) {
	store, buf := buildStore(t, []string{"apple", "apricot", "grape", "banana"})

	e := New(4)
	query := PrepareQuery("ap", false, SchemeDefault)

	merger := e.MatchChunks(context.Background(), query, store.Snapshot(), NewChunkCache(), buf)
	require.Equal(t, 3, merger.Count(), "banana has no a-p subsequence in order and must be excluded")

	got := merger.Slice(0, merger.Count())

	var names []string
	for _, mi := range got {
		names = append(names, buf.String(mi.Item.Offset, mi.Item.Length))
	}

	require.Equal(t, []string{"apple", "apricot", "grape"}, names,
		"apple and apricot both match at the start with equal score and shorter-first tiebreak; grape scores lower and sorts last")
}

func TestEngine_MatchChunks_NoMatchesYieldsEmptyMerger(t *testing.T) {
	store, buf := buildStore(t, []string{"alpha", "beta", "gamma"})

	e := New(4)
	query := PrepareQuery("zzz", false, SchemeDefault)

	merger := e.MatchChunks(context.Background(), query, store.Snapshot(), NewChunkCache(), buf)
	require.Equal(t, 0, merger.Count())
	require.Empty(t, merger.Slice(0, 10))
}

func TestEngine_MatchChunks_MultiWorkerAgreesWithSingleWorker(t *testing.T) {
	lines := make([]string, 2500)
	for i := range lines {
		if i%7 == 0 {
			lines[i] = fmt.Sprintf("needle-%04d", i)
		} else {
			lines[i] = fmt.Sprintf("filler-%04d", i)
		}
	}

	store, buf := buildStore(t, lines)
	snap := store.Snapshot()
	query := PrepareQuery("needle", false, SchemeDefault)

	single := New(1)
	parallel := New(8)

	singleResult := single.MatchChunks(context.Background(), query, snap, NewChunkCache(), buf)
	parallelResult := parallel.MatchChunks(context.Background(), query, snap, NewChunkCache(), buf)

	require.Equal(t, singleResult.Count(), parallelResult.Count())
	require.True(t, singleResult.Count() > 0)

	singleItems := singleResult.Slice(0, singleResult.Count())
	parallelItems := parallelResult.Slice(0, parallelResult.Count())

	for i := range singleItems {
		require.Equal(t, singleItems[i].Item.Index, parallelItems[i].Item.Index,
			"chunk partitioning across worker counts must not change global rank order")
	}
}

func TestEngine_MatchChunks_HonorsCancelledContext(t *testing.T) {
	lines := make([]string, 3000)
	for i := range lines {
		lines[i] = fmt.Sprintf("needle-%04d", i)
	}

	store, buf := buildStore(t, lines)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New(4)
	query := PrepareQuery("needle", false, SchemeDefault)

	merger := e.MatchChunks(ctx, query, store.Snapshot(), NewChunkCache(), buf)
	require.Equal(t, 0, merger.Count(), "a pre-cancelled context must discard every partition")
}

func TestEngine_MatchItems_FiltersAPreviousResultSet(t *testing.T) {
	store, buf := buildStore(t, []string{"apple", "apricot", "grape", "banana"})

	e := New(4)

	broad := PrepareQuery("a", false, SchemeDefault)
	first := e.MatchChunks(context.Background(), broad, store.Snapshot(), NewChunkCache(), buf)
	require.Equal(t, 4, first.Count())

	narrow := PrepareQuery("ap", false, SchemeDefault)
	second := e.MatchItems(context.Background(), narrow, first.AllItems(), buf)

	require.Equal(t, 3, second.Count())

	for _, mi := range second.Slice(0, second.Count()) {
		name := buf.String(mi.Item.Offset, mi.Item.Length)
		require.NotEqual(t, "banana", name)
	}
}

func TestEngine_MatchItems_EmptyInputYieldsEmptyMerger(t *testing.T) {
	_, buf := buildStore(t, nil)

	e := New(2)
	query := PrepareQuery("x", false, SchemeDefault)

	merger := e.MatchItems(context.Background(), query, nil, buf)
	require.Equal(t, 0, merger.Count())
}

func TestEngine_SchemeHistory_IgnoresLengthTiebreak(t *testing.T) {
	store, buf := buildStore(t, []string{"ab", "abcdefgh"})

	e := New(2)
	query := PrepareQuery("ab", false, SchemeHistory)

	merger := e.MatchChunks(context.Background(), query, store.Snapshot(), NewChunkCache(), buf)
	require.Equal(t, 2, merger.Count())

	got := merger.Slice(0, 2)
	require.Equal(t, got[0].Points, got[1].Points, "history scheme zeroes byLength, leaving equal-score matches tied on insertion index")
	require.Equal(t, uint32(0), got[0].Item.Index)
	require.Equal(t, uint32(1), got[1].Item.Index)
}
