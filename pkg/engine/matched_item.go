package engine

import "github.com/snapfind/snapfind/pkg/itemstore"

// MatchedItem is a scored candidate plus its packed rank key.
//
// Points layout (MSB to LSB): 16 bits byScore (0xFFFF-score), 16 bits
// byPathname (path scheme only, else 0), 16 bits byLength (byte length,
// 0 in history scheme), 16 bits reserved. A single unsigned comparison of
// Points, then Item.Index ascending on ties, gives rank order - see Less.
type MatchedItem struct {
	Item     itemstore.Item
	RawScore int16
	MinBegin uint16
	Points   uint64
}

// Less implements rank order: strictly ascending Points, then ascending
// insertion index.
func Less(a, b MatchedItem) bool {
	if a.Points != b.Points {
		return a.Points < b.Points
	}

	return a.Item.Index < b.Item.Index
}

const (
	shiftByScore    = 48
	shiftByPathname = 32
	shiftByLength   = 16

	maxField = 0xFFFF
)

func clampField(v int) uint16 {
	if v > maxField {
		return maxField
	}

	if v < 0 {
		return 0
	}

	return uint16(v)
}

// packPoints assembles the 64-bit rank key from its three scored fields.
func packPoints(score int16, byPathname, byLength uint16) uint64 {
	byScore := uint16(maxField) - uint16(score)

	return uint64(byScore)<<shiftByScore | uint64(byPathname)<<shiftByPathname | uint64(byLength)<<shiftByLength
}

// pathDistance finds how far minBegin sits from the nearest preceding
// path delimiter ('/'), per SPEC_FULL.md §4.3's scheme-aware tiebreak.
// If no delimiter precedes the match, the distance is measured from an
// implicit delimiter at position -1 (so a match at byte 0 gets distance 1,
// matching spec.md §8 S4's "offset − (−1)" example).
func pathDistance(text []byte, minBegin uint16) uint16 {
	begin := int(minBegin)

	for p := begin - 1; p >= 0; p-- {
		if text[p] == '/' {
			return clampField(begin - p)
		}
	}

	return clampField(begin + 1)
}

// pointsFor computes the packed rank key for one match under scheme.
func pointsFor(scheme Scheme, score int16, minBegin uint16, text []byte) uint64 {
	switch scheme {
	case SchemePath:
		return packPoints(score, pathDistance(text, minBegin), clampField(len(text)))
	case SchemeHistory:
		return packPoints(score, 0, 0)
	default:
		return packPoints(score, 0, clampField(len(text)))
	}
}
