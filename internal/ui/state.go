package ui

import "github.com/snapfind/snapfind/pkg/engine"

// state is the controller's private UIState, per spec.md §3. Every field
// is mutated only from the controller's own goroutine.
type state struct {
	query         string
	previousQuery string

	cursorPosition int
	selectedIndex  int
	scrollOffset   int

	selectedItems map[uint32]struct{}

	merger     *engine.ResultMerger
	matchCount int
	totalItems int

	shouldExit        bool
	exitWithSelection bool
	interrupted       bool // Ctrl-C, distinct from a plain Esc cancel
	isExiting         bool

	lastSeenCount uint32
	previewText   string
}

func newState(initialQuery string) state {
	return state{
		query:          initialQuery,
		previousQuery:  "",
		cursorPosition: len(initialQuery),
		selectedItems:  make(map[uint32]struct{}),
	}
}

// clampCursor keeps cursorPosition in [0, len(query)], per spec.md §3's
// UIState invariant.
func (s *state) clampCursor() {
	if s.cursorPosition < 0 {
		s.cursorPosition = 0
	}

	if s.cursorPosition > len(s.query) {
		s.cursorPosition = len(s.query)
	}
}

// clampSelection keeps selectedIndex/scrollOffset within the matched
// range, per spec.md §3's UIState invariants.
func (s *state) clampSelection(displayHeight int) {
	maxIndex := s.matchCount - 1
	if maxIndex < 0 {
		maxIndex = 0
	}

	if s.selectedIndex < 0 {
		s.selectedIndex = 0
	}

	if s.selectedIndex > maxIndex {
		s.selectedIndex = maxIndex
	}

	maxScroll := s.matchCount - displayHeight
	if maxScroll < 0 {
		maxScroll = 0
	}

	if s.scrollOffset < 0 {
		s.scrollOffset = 0
	}

	if s.scrollOffset > maxScroll {
		s.scrollOffset = maxScroll
	}

	if s.selectedIndex < s.scrollOffset {
		s.scrollOffset = s.selectedIndex
	} else if s.selectedIndex >= s.scrollOffset+displayHeight {
		s.scrollOffset = s.selectedIndex - displayHeight + 1
	}
}
