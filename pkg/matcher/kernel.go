package matcher

import "math"

// negInf is a sentinel "unreachable" score, kept well clear of int32
// overflow so negInf+scoreMatch+bonus still compares as unreachable.
const negInf int32 = math.MinInt32 / 2

// clampScore saturates a DP score into the Int16 range the spec's
// RankMatch/MatchResult carry (spec.md §7 Overflow policy).
func clampScore(v int32) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}

	if v < 0 {
		return 0
	}

	return int16(v)
}

// clampPos saturates a byte position to uint16, per spec.md §6 (lines
// over 65535 bytes have positions clamped).
func clampPos(p int) uint16 {
	if p > 0xFFFF {
		return 0xFFFF
	}

	if p < 0 {
		return 0
	}

	return uint16(p)
}

// scopeScan is the prefilter: forward-scan for each pattern byte in turn,
// then back-scan for the rightmost occurrence of the final pattern byte.
// Returns the column range the DP must visit.
func scopeScan(pattern, text []byte, caseSensitive bool) (scopeFirst, scopeLast int, ok bool) {
	ti := 0
	firstMatchIdx, lastMatchIdx := -1, -1

	for _, pb := range pattern {
		found := false

		for ; ti < len(text); ti++ {
			cb := text[ti]
			if !caseSensitive {
				cb = fold(cb)
			}

			if cb == pb {
				if firstMatchIdx == -1 {
					firstMatchIdx = ti
				}

				lastMatchIdx = ti
				ti++
				found = true

				break
			}
		}

		if !found {
			return 0, 0, false
		}
	}

	lastByte := pattern[len(pattern)-1]
	scopeLast = lastMatchIdx

	for j := len(text) - 1; j >= 0; j-- {
		cb := text[j]
		if !caseSensitive {
			cb = fold(cb)
		}

		if cb == lastByte {
			scopeLast = j

			break
		}
	}

	scopeFirst = firstMatchIdx - 1
	if scopeFirst < 0 {
		scopeFirst = 0
	}

	return scopeFirst, scopeLast, true
}

// matchOne runs the byte-level DP for a single token against one
// candidate. wantPositions controls whether the cold backtrack path runs.
func matchOne(pattern, text []byte, caseSensitive bool, scratch *Scratch, wantPositions bool) (score int32, minBegin uint16, positions []uint16, ok bool) {
	if len(pattern) == 0 {
		return 0, 0, nil, true
	}

	scopeFirst, scopeLast, found := scopeScan(pattern, text, caseSensitive)
	if !found {
		return 0, 0, nil, false
	}

	textLen := len(text)
	scratch.ensureText(textLen)

	for i := 0; i < textLen; i++ {
		raw := text[i]

		lowered := raw
		if !caseSensitive {
			lowered = fold(raw)
		}

		scratch.loweredText[i] = lowered
		scratch.charClasses[i] = classify(raw)
	}

	if textLen > 0 {
		scratch.bonusCache[0] = bonusTable[classDelimiter][scratch.charClasses[0]]
	}

	for i := 1; i < textLen; i++ {
		scratch.bonusCache[i] = bonusTable[scratch.charClasses[i-1]][scratch.charClasses[i]]
	}

	patternLen := len(pattern)
	width := scopeLast - scopeFirst + 2

	scratch.h.ensure(patternLen+1, width)
	scratch.c.ensure(patternLen+1, width)
	scratch.lastMatch.ensure(patternLen+1, width)

	for lc := 0; lc < width; lc++ {
		scratch.h.set(0, lc, 0)
		scratch.c.set(0, lc, 0)
		scratch.lastMatch.set(0, lc, -1)
	}

	for i := 1; i <= patternLen; i++ {
		scratch.h.set(i, 0, negInf)
		scratch.c.set(i, 0, 0)
		scratch.lastMatch.set(i, 0, -1)

		inGap := false
		pb := pattern[i-1]

		for lc := 1; lc < width; lc++ {
			textIdx := scopeFirst + lc - 1

			matchScore := negInf
			runLen := int32(0)
			matchedPos := int32(-1)

			if textIdx < textLen && scratch.loweredText[textIdx] == pb {
				diag := scratch.h.at(i-1, lc-1)
				if diag > negInf/2 {
					posBonus := scratch.bonusCache[textIdx]
					if i == 1 {
						posBonus *= bonusFirstCharMultiplier
					}

					prevC := scratch.c.at(i-1, lc-1)
					prevLastMatch := scratch.lastMatch.at(i-1, lc-1)

					if prevC > 0 && prevLastMatch == int32(textIdx)-1 {
						runStart := textIdx - int(prevC)
						fb := scratch.bonusCache[runStart]

						if posBonus >= bonusBoundary && posBonus > fb {
							runLen = 1
							matchScore = diag + scoreMatch + posBonus
						} else {
							add := posBonus
							if fb > add {
								add = fb
							}

							if bonusConsecutive > add {
								add = bonusConsecutive
							}

							runLen = prevC + 1
							matchScore = diag + scoreMatch + add
						}
					} else {
						runLen = 1
						matchScore = diag + scoreMatch + posBonus
					}

					if matchScore < 0 {
						matchScore = 0
					}

					matchedPos = int32(textIdx)
				}
			}

			gapScore := negInf

			prevH := scratch.h.at(i, lc-1)
			if prevH > negInf/2 {
				if inGap {
					gapScore = prevH + gapExtension
				} else {
					gapScore = prevH + gapStart
				}

				if gapScore < 0 {
					gapScore = 0
				}
			}

			// Ties prefer the match, so backtracking can follow lastMatch.
			if matchScore >= gapScore {
				scratch.h.set(i, lc, matchScore)
				scratch.c.set(i, lc, runLen)
				scratch.lastMatch.set(i, lc, matchedPos)
				inGap = false
			} else {
				scratch.h.set(i, lc, gapScore)
				scratch.c.set(i, lc, 0)
				scratch.lastMatch.set(i, lc, scratch.lastMatch.at(i, lc-1))
				inGap = true
			}
		}
	}

	lowBoundAbs := patternLen
	if scopeFirst+1 > lowBoundAbs {
		lowBoundAbs = scopeFirst + 1
	}

	lowLC := lowBoundAbs - scopeFirst

	bestLC := -1
	best := negInf

	for lc := lowLC; lc < width; lc++ {
		if v := scratch.h.at(patternLen, lc); v > best {
			best = v
			bestLC = lc
		}
	}

	if bestLC == -1 || best <= negInf/2 {
		return 0, 0, nil, false
	}

	var posBuf []uint16
	if wantPositions {
		posBuf = scratch.posBuf[:0]
	}

	i, lc := patternLen, bestLC

	firstPos := int32(-1)

	for i > 0 {
		pos := scratch.lastMatch.at(i, lc)
		if pos < 0 {
			break
		}

		firstPos = pos
		if wantPositions {
			posBuf = append(posBuf, clampPos(int(pos)))
		}

		i--
		lc = int(pos) - scopeFirst
	}

	if wantPositions {
		for l, r := 0, len(posBuf)-1; l < r; l, r = l+1, r-1 {
			posBuf[l], posBuf[r] = posBuf[r], posBuf[l]
		}

		scratch.posBuf = posBuf
	}

	return best, clampPos(int(firstPos)), posBuf, true
}
