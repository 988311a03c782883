// Package tty adapts a real terminal to the ui.Renderer and ui.Input
// interfaces via github.com/charmbracelet/bubbletea and
// github.com/charmbracelet/lipgloss, the terminal-rendering stack
// observed in the retrieved corpus's Tejas242-sift manifest.
//
// internal/ui never imports this package or bubbletea directly — see
// SPEC_FULL.md §4.7 — so the event-loop and state logic stay testable
// with plain fakes while a real session composes against this backend.
package tty

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/snapfind/snapfind/internal/ui"
)

// ErrDisconnected classifies a terminal collaborator failure mid-session,
// per SPEC_FULL.md §3: a write failure after the session is up is treated
// as a disconnect rather than a fatal error.
var ErrDisconnected = errors.New("tty: disconnected")

var (
	selectedStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	promptStyle   = lipgloss.NewStyle().Bold(true)
	statusStyle   = lipgloss.NewStyle().Faint(true)
)

// teaMsg wraps every bubbletea message this backend cares about so
// Backend.Next can type-switch on exactly one channel element type.
type teaMsg struct {
	event ui.Event
	err   error
}

// model is the bubbletea program's state: just enough to render the last
// Snapshot the controller gave us and to translate keystrokes into
// ui.Event values pushed onto the Backend's event channel.
type model struct {
	snapshot ui.Snapshot
	height   int
	width    int
	events   chan<- teaMsg
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if ev, ok := translateKey(msg); ok {
			m.events <- teaMsg{event: ev}
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.events <- teaMsg{event: ui.Event{Kind: ui.EventResize, Width: msg.Width, Height: msg.Height}}
	case renderTick:
		m.snapshot = msg.snapshot
	}

	return m, nil
}

func (m *model) View() string {
	return renderSnapshot(m.snapshot, m.width, m.height)
}

func translateKey(msg tea.KeyMsg) (ui.Event, bool) {
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			return ui.Event{}, false
		}

		return ui.Event{Kind: ui.EventRune, Rune: msg.Runes[0]}, true
	case tea.KeySpace:
		return ui.Event{Kind: ui.EventRune, Rune: ' '}, true
	case tea.KeyBackspace:
		return ui.Event{Kind: ui.EventBackspace}, true
	case tea.KeyCtrlU:
		return ui.Event{Kind: ui.EventClearLine}, true
	case tea.KeyCtrlW:
		return ui.Event{Kind: ui.EventDeleteWordBack}, true
	case tea.KeyLeft:
		return ui.Event{Kind: ui.EventCursorLeft}, true
	case tea.KeyRight:
		return ui.Event{Kind: ui.EventCursorRight}, true
	case tea.KeyUp, tea.KeyCtrlK:
		return ui.Event{Kind: ui.EventMoveUp}, true
	case tea.KeyDown, tea.KeyCtrlJ:
		return ui.Event{Kind: ui.EventMoveDown}, true
	case tea.KeyTab:
		return ui.Event{Kind: ui.EventToggleSelect}, true
	case tea.KeyEnter:
		return ui.Event{Kind: ui.EventEnter}, true
	case tea.KeyEsc:
		return ui.Event{Kind: ui.EventEsc}, true
	case tea.KeyCtrlC:
		return ui.Event{Kind: ui.EventCtrlC}, true
	default:
		return ui.Event{}, false
	}
}

func renderSnapshot(s ui.Snapshot, width, height int) string {
	prompt := promptStyle.Render("> ") + s.Query
	status := statusStyle.Render(statusLine(s))

	lines := []string{prompt, status}

	for _, item := range s.Visible {
		line := item.Text
		if item.Selected {
			line = selectedStyle.Render(line)
		}

		lines = append(lines, line)
	}

	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}

		out += l
	}

	return out
}

func statusLine(s ui.Snapshot) string {
	return itoa(s.MatchCount) + "/" + itoa(s.TotalItems)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}

	neg := n < 0
	if neg {
		n = -n
	}

	var buf [20]byte

	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}

	if neg {
		i--
		buf[i] = '-'
	}

	return string(buf[i:])
}

// Backend adapts one tea.Program to both ui.Renderer and ui.Input.
type Backend struct {
	program *tea.Program
	model   *model

	mu       sync.Mutex
	events   chan teaMsg
	disposed bool
}

// NewBackend constructs a Backend ready to be started with Start.
func NewBackend() *Backend {
	events := make(chan teaMsg, 16)
	m := &model{events: events}

	return &Backend{
		model:   m,
		events:  events,
		program: tea.NewProgram(m, tea.WithAltScreen()),
	}
}

// Start runs the underlying tea.Program on its own goroutine. Callers
// must call Stop to release the terminal.
func (b *Backend) Start() error {
	go func() {
		_, err := b.program.Run()

		b.mu.Lock()
		defer b.mu.Unlock()

		if !b.disposed {
			b.disposed = true
			b.events <- teaMsg{err: errors.Join(ErrDisconnected, err)}
		}
	}()

	return nil
}

// Stop tears down the terminal collaborator. Safe to call more than
// once.
func (b *Backend) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.disposed {
		return
	}

	b.disposed = true
	b.program.Quit()
}

// Next implements ui.Input.
func (b *Backend) Next(ctx context.Context) (ui.Event, error) {
	select {
	case msg := <-b.events:
		if msg.err != nil {
			return ui.Event{}, msg.err
		}

		return msg.event, nil
	case <-ctx.Done():
		return ui.Event{}, ctx.Err()
	}
}

// Render implements ui.Renderer. The Snapshot travels to the bubbletea
// program as a message rather than a direct field write, since the
// program's Update/View run on bubbletea's own goroutine.
func (b *Backend) Render(s ui.Snapshot) error {
	b.program.Send(renderTick{snapshot: s})

	return nil
}

// renderTick carries a fresh Snapshot into the bubbletea program's own
// goroutine for Update to store and View to draw.
type renderTick struct {
	snapshot ui.Snapshot
}
