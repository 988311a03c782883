package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/snapfind/snapfind/pkg/itemstore"
	"github.com/snapfind/snapfind/pkg/textbuf"
)

func mkItem(idx uint32, points uint64) MatchedItem {
	return MatchedItem{Item: itemstore.Item{Index: idx}, Points: points}
}

func TestResultMerger_PartitionBacked_MergesInRankOrder(t *testing.T) {
	partitions := [][]MatchedItem{
		{mkItem(0, 5), mkItem(3, 20)},
		{mkItem(1, 1), mkItem(2, 10)},
		{mkItem(4, 3)},
	}

	m := NewPartitionBacked(partitions)
	require.Equal(t, 5, m.Count())

	got := m.Slice(0, 5)
	require.Len(t, got, 5)

	var points []uint64
	for _, mi := range got {
		points = append(points, mi.Points)
	}

	require.True(t, isSortedAsc(points), "merged output must be ascending by Points: %v", points)
}

func TestResultMerger_PartitionBacked_GetMatchesSlice(t *testing.T) {
	partitions := [][]MatchedItem{
		{mkItem(0, 5)},
		{mkItem(1, 1)},
	}

	m := NewPartitionBacked(partitions)

	first, ok := m.Get(0)
	require.True(t, ok)
	require.Equal(t, uint32(1), first.Item.Index, "item with the smaller Points sorts first")
	require.Equal(t, m.Slice(0, 1)[0], first)

	_, ok = m.Get(2)
	require.False(t, ok)
}

func TestResultMerger_ChunkBacked_IsInsertionOrder(t *testing.T) {
	buf := textbuf.New(0)

	store := itemstore.New()
	for _, s := range []string{"aa", "bb", "cc"} {
		off, length := buf.AppendRaw([]byte(s))
		store.Register(off, length)
	}

	snap := store.Snapshot()
	m := NewChunkBacked(snap, buf)

	require.Equal(t, 3, m.Count())

	got := m.Slice(0, 3)
	require.Len(t, got, 3)

	for i, mi := range got {
		require.Equal(t, uint32(i), mi.Item.Index)
	}
}

func TestResultMerger_AllItems_FlattensEveryPartition(t *testing.T) {
	partitions := [][]MatchedItem{
		{mkItem(0, 5), mkItem(3, 20)},
		{mkItem(1, 1)},
	}

	m := NewPartitionBacked(partitions)
	all := m.AllItems()
	require.Len(t, all, 3)
}

func TestResultMerger_SelectedItems_FiltersAndOrdersByInsertion(t *testing.T) {
	partitions := [][]MatchedItem{
		{mkItem(5, 5), mkItem(1, 20)},
		{mkItem(3, 1)},
	}

	m := NewPartitionBacked(partitions)

	selected := map[uint32]struct{}{1: {}, 3: {}}
	out := m.SelectedItems(selected)

	require.Len(t, out, 2)
	require.Equal(t, uint32(1), out[0].Index)
	require.Equal(t, uint32(3), out[1].Index)
}

func isSortedAsc(v []uint64) bool {
	for i := 1; i < len(v); i++ {
		if v[i-1] > v[i] {
			return false
		}
	}

	return true
}
