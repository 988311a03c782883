package ui

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/snapfind/snapfind/pkg/engine"
	"github.com/snapfind/snapfind/pkg/itemstore"
	"github.com/snapfind/snapfind/pkg/textbuf"
)

// scriptedInput replays a fixed Event sequence, then blocks until ctx is
// cancelled (mirroring a real terminal that simply has no more input).
type scriptedInput struct {
	mu     sync.Mutex
	events []Event
}

func (s *scriptedInput) Next(ctx context.Context) (Event, error) {
	s.mu.Lock()

	if len(s.events) > 0 {
		ev := s.events[0]
		s.events = s.events[1:]
		s.mu.Unlock()

		return ev, nil
	}

	s.mu.Unlock()

	<-ctx.Done()

	return Event{}, ctx.Err()
}

// recordingRenderer captures every Snapshot it is asked to draw.
type recordingRenderer struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recordingRenderer) Render(s Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.snaps = append(r.snaps, s)

	return nil
}

func (r *recordingRenderer) last() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.snaps[len(r.snaps)-1]
}

func newTestDeps(t *testing.T, lines []string, input Input, renderer Renderer) Deps {
	t.Helper()

	buf := textbuf.New(0)
	store := itemstore.New()

	for _, l := range lines {
		off, length := buf.AppendRaw([]byte(l))
		store.Register(off, length)
	}

	store.Seal()

	return Deps{
		Store:         store,
		Buf:           buf,
		Engine:        engine.New(2),
		ChunkCache:    engine.NewChunkCache(),
		MergerCache:   engine.NewMergerCache(),
		Scheme:        engine.SchemeDefault,
		DisplayHeight: 10,
		Renderer:      renderer,
		Input:         input,
		ErrOut:        discard{},
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestController_TypingThenEnterSelectsCurrentItem(t *testing.T) {
	renderer := &recordingRenderer{}
	input := &scriptedInput{events: []Event{
		{Kind: EventRune, Rune: 'a'},
		{Kind: EventRune, Rune: 'p'},
		{Kind: EventEnter},
	}}

	deps := newTestDeps(t, []string{"apple", "banana", "grape"}, input, renderer)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	code, selected := Run(ctx, deps)
	require.Equal(t, ExitAcceptedSelection, code)
	require.Equal(t, []string{"apple"}, selected)
}

func TestController_EscCancelsWithNoSelection(t *testing.T) {
	renderer := &recordingRenderer{}
	input := &scriptedInput{events: []Event{
		{Kind: EventRune, Rune: 'x'},
		{Kind: EventEsc},
	}}

	deps := newTestDeps(t, []string{"apple", "banana"}, input, renderer)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	code, selected := Run(ctx, deps)
	require.Equal(t, ExitAcceptedEmpty, code)
	require.Empty(t, selected)
}

func TestController_CtrlCExitsWithInterruptedCode(t *testing.T) {
	renderer := &recordingRenderer{}
	input := &scriptedInput{events: []Event{{Kind: EventCtrlC}}}

	deps := newTestDeps(t, []string{"apple"}, input, renderer)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	code, selected := Run(ctx, deps)
	require.Equal(t, ExitInterrupted, code)
	require.Empty(t, selected)
}

func TestController_MultiSelectTogglesMembership(t *testing.T) {
	renderer := &recordingRenderer{}
	input := &scriptedInput{events: []Event{
		{Kind: EventToggleSelect},
		{Kind: EventMoveDown},
		{Kind: EventToggleSelect},
		{Kind: EventEnter},
	}}

	deps := newTestDeps(t, []string{"apple", "banana", "cherry"}, input, renderer)
	deps.Multi = true

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	code, selected := Run(ctx, deps)
	require.Equal(t, ExitAcceptedSelection, code)
	require.Equal(t, []string{"apple", "banana"}, selected,
		"selection output is insertion order, not selection order")
}

func TestController_DispatchMatch_MergerCacheHitAppliesSynchronously(t *testing.T) {
	renderer := &recordingRenderer{}
	input := &scriptedInput{}

	deps := newTestDeps(t, []string{"apple", "apricot", "grape"}, input, renderer)

	c := &Controller{
		deps:      deps,
		st:        newState(""),
		resultCh:  make(chan matchResult, 1),
		previewCh: make(chan previewResult, 1),
	}

	query := engine.PrepareQuery("ap", false, engine.SchemeDefault)
	snap := deps.Store.Snapshot()
	cached := deps.Engine.MatchChunks(context.Background(), query, snap, deps.ChunkCache, deps.Buf)
	deps.MergerCache.Store("ap", deps.Store.Count(), cached)

	c.st.query = "ap"
	c.dispatchMatch(false)

	require.Equal(t, cached, c.st.merger, "a MergerCache hit must apply the cached merger directly")
	require.Equal(t, cached.Count(), c.st.matchCount)

	select {
	case <-c.resultCh:
		t.Fatal("a MergerCache hit must not also dispatch a background match")
	default:
	}
}

func TestController_CtrlWDeletesWordBack(t *testing.T) {
	renderer := &recordingRenderer{}
	input := &scriptedInput{events: []Event{
		{Kind: EventRune, Rune: 'f'},
		{Kind: EventRune, Rune: 'o'},
		{Kind: EventRune, Rune: 'o'},
		{Kind: EventRune, Rune: ' '},
		{Kind: EventRune, Rune: 'b'},
		{Kind: EventRune, Rune: 'a'},
		{Kind: EventDeleteWordBack},
		{Kind: EventEsc},
	}}

	deps := newTestDeps(t, []string{"apple"}, input, renderer)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	Run(ctx, deps)

	snap := renderer.last()
	require.Equal(t, "foo ", snap.Query, "Ctrl-W deletes the word before the cursor, leaving the trailing space boundary")
}

func TestController_RendersEmptyQueryInInsertionOrder(t *testing.T) {
	renderer := &recordingRenderer{}
	input := &scriptedInput{events: []Event{{Kind: EventEsc}}}

	deps := newTestDeps(t, []string{"apple", "banana", "cherry"}, input, renderer)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	Run(ctx, deps)

	snap := renderer.last()
	require.Equal(t, 3, snap.TotalItems)

	var got []string
	for _, v := range snap.Visible {
		got = append(got, v.Text)
	}

	require.Equal(t, []string{"apple", "banana", "cherry"}, got)
}
