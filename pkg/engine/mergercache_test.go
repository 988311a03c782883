package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergerCache_GetMissesOnKeyMismatch(t *testing.T) {
	c := NewMergerCache()
	m := NewPartitionBacked([][]MatchedItem{sampleResults(2)})

	c.Store("ab", 10, m)

	_, ok := c.Get("ab", 11)
	require.False(t, ok, "a different item count must miss")

	_, ok = c.Get("xy", 10)
	require.False(t, ok, "a different query must miss")

	got, ok := c.Get("ab", 10)
	require.True(t, ok)
	require.Same(t, m, got)
}

func TestMergerCache_StoreRejectsOversizedResult(t *testing.T) {
	c := NewMergerCache()
	big := NewPartitionBacked([][]MatchedItem{sampleResults(mergerCacheMaxCount + 1)})

	c.Store("a", 1, big)

	_, ok := c.Get("a", 1)
	require.False(t, ok, "a result set over the cap must not be cached")
}

func TestMergerCache_Clear(t *testing.T) {
	c := NewMergerCache()
	c.Store("a", 1, NewPartitionBacked(nil))
	c.Clear()

	_, ok := c.Get("a", 1)
	require.False(t, ok)
}
