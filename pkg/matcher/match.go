package matcher

import "slices"

// MatchRank runs the hot rank-only path: score plus the first matched
// byte position, no positions array allocated. pp == nil is the
// empty-pattern fast path and always matches with score 0.
func MatchRank(pp *PreparedPattern, text []byte, scratch *Scratch) (RankMatch, bool) {
	if pp == nil {
		return RankMatch{Score: 0, MinBegin: 0}, true
	}

	if !pp.MultiToken() {
		score, minBegin, _, ok := matchOne(pp.Tokens[0], text, pp.CaseSensitive, scratch, false)
		if !ok {
			return RankMatch{}, false
		}

		return RankMatch{Score: clampScore(score), MinBegin: minBegin}, true
	}

	total, minBegin, ok := matchMulti(pp, text, scratch, false)
	if !ok {
		return RankMatch{}, false
	}

	return RankMatch{Score: clampScore(total), MinBegin: minBegin}, true
}

// MatchPositions runs the cold highlight path: score plus every matched
// byte position, ascending and deduplicated. Used for rendering only.
func MatchPositions(pp *PreparedPattern, text []byte, scratch *Scratch) (MatchResult, bool) {
	if pp == nil {
		return MatchResult{Score: 0, Positions: nil}, true
	}

	if !pp.MultiToken() {
		score, _, positions, ok := matchOne(pp.Tokens[0], text, pp.CaseSensitive, scratch, true)
		if !ok {
			return MatchResult{}, false
		}

		out := make([]uint16, len(positions))
		copy(out, positions)

		return MatchResult{Score: clampScore(score), Positions: out}, true
	}

	total, _, ok := matchMulti(pp, text, scratch, true)
	if !ok {
		return MatchResult{}, false
	}

	out := make([]uint16, len(scratch.unionBuf))
	copy(out, scratch.unionBuf)

	return MatchResult{Score: clampScore(total), Positions: out}, true
}

// matchMulti matches every AND token independently, rejecting the
// candidate if any token fails, and sums scores. wantPositions also
// unions and sorts every token's positions into scratch.unionBuf.
func matchMulti(pp *PreparedPattern, text []byte, scratch *Scratch, wantPositions bool) (total int32, minBegin uint16, ok bool) {
	if pp.Mask&^TextMask(text, pp.CaseSensitive) != 0 {
		return 0, 0, false
	}

	union := scratch.unionBuf[:0]
	minBegin = 0xFFFF

	for _, token := range pp.Tokens {
		score, begin, positions, tokOK := matchOne(token, text, pp.CaseSensitive, scratch, wantPositions)
		if !tokOK {
			return 0, 0, false
		}

		total += score
		if begin < minBegin {
			minBegin = begin
		}

		if wantPositions {
			union = append(union, positions...)
		}
	}

	if wantPositions {
		slices.Sort(union)
		union = slices.Compact(union)
		scratch.unionBuf = union
	}

	return total, minBegin, true
}
