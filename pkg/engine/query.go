package engine

import "github.com/snapfind/snapfind/pkg/matcher"

// Query bundles a prepared pattern with the raw query string (used as the
// ChunkCache/MergerCache key) and the active tiebreak scheme.
//
// Pattern is nil for the empty-query fast path; see matcher.IsEmpty.
type Query struct {
	Raw     string
	Pattern *matcher.PreparedPattern
	Scheme  Scheme
}

// PrepareQuery parses raw into a Query ready for matching.
func PrepareQuery(raw string, caseSensitive bool, scheme Scheme) Query {
	return Query{Raw: raw, Pattern: matcher.Prepare(raw, caseSensitive), Scheme: scheme}
}
