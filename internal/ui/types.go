// Package ui owns UIState and the UIController event loop: the single
// actor that mutates state, debounces query edits, and dispatches
// matching and preview work to detached background tasks.
//
// Rendering and raw input parsing are external collaborators (spec.md
// §1); this package only depends on the Renderer and Input interfaces
// below, never on a concrete terminal library — see internal/tty for a
// bubbletea-backed implementation of both.
package ui

import "context"

// EventKind enumerates the keyboard/terminal events the controller
// reacts to. Everything else (mouse, unrecognized keys) is ignored by
// the collaborator before it reaches here.
type EventKind int

const (
	EventRune EventKind = iota
	EventBackspace
	EventDeleteWordBack
	EventClearLine
	EventCursorLeft
	EventCursorRight
	EventMoveUp
	EventMoveDown
	EventToggleSelect
	EventEnter
	EventEsc
	EventCtrlC
	EventResize
	EventDisconnect
)

// Event is one input notification from the terminal collaborator.
type Event struct {
	Kind   EventKind
	Rune   rune
	Width  int
	Height int
}

// Snapshot is the read-only view the controller hands to Renderer.
// Visible is already sliced to the current scroll window.
type Snapshot struct {
	Query          string
	CursorPosition int
	SelectedIndex  int
	ScrollOffset   int
	MatchCount     int
	TotalItems     int
	Multi          bool
	Visible        []VisibleItem
	PreviewText    string
}

// VisibleItem is one row of the visible window: the text plus whether
// it is a member of the multi-selection set.
type VisibleItem struct {
	Index    uint32
	Text     string
	Selected bool
}

// Renderer draws a Snapshot. Implementations must not block
// indefinitely; the controller calls Render synchronously on its own
// goroutine between handling events.
type Renderer interface {
	Render(Snapshot) error
}

// Input delivers the next terminal event, blocking until one arrives or
// ctx is cancelled.
type Input interface {
	Next(ctx context.Context) (Event, error)
}
