package ui

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/snapfind/snapfind/pkg/engine"
	"github.com/snapfind/snapfind/pkg/itemstore"
	"github.com/snapfind/snapfind/pkg/textbuf"

	"github.com/snapfind/snapfind/internal/preview"
)

// debounceDelay is the quiescence window spec.md §4.7 requires before a
// query edit triggers a match run.
const debounceDelay = 50 * time.Millisecond

// tickInterval drives the periodic item-growth check, per spec.md §4.7.
const tickInterval = 100 * time.Millisecond

// minReMatchGap is the minimum spacing between tick-driven re-matches,
// per spec.md §4.7.
const minReMatchGap = 100 * time.Millisecond

// Deps bundles every ambient dependency the controller needs, taken as
// explicit parameters rather than globals — the same discipline as the
// teacher's internal/cli.Run(in, out, errOut, args, env, sigCh) signature.
type Deps struct {
	Store       *itemstore.Store
	Buf         *textbuf.Buffer
	Engine      *engine.Engine
	ChunkCache  *engine.ChunkCache
	MergerCache *engine.MergerCache

	Scheme        engine.Scheme
	CaseSensitive bool
	Multi         bool
	DisplayHeight int
	InitialQuery  string

	Renderer Renderer
	Input    Input

	Preview         preview.Runner
	PreviewTemplate string

	ErrOut io.Writer
}

// Exit codes, per spec.md §6.
const (
	ExitAcceptedSelection = 0
	ExitAcceptedEmpty     = 1
	ExitInterrupted       = 130
	ExitIOFailure         = 2
)

type matchResult struct {
	gen         uint64
	query       string
	incremental bool
	merger      *engine.ResultMerger
}

type previewResult struct {
	gen  uint64
	text string
}

// Controller is the single owner of UIState; see package docs.
type Controller struct {
	deps Deps
	st   state

	matchGen    uint64
	matchCancel context.CancelFunc
	resultCh    chan matchResult

	previewGen uint64
	previewCh  chan previewResult

	debounceTimer *time.Timer
	pendingQuery  string

	lastReMatch time.Time
}

// Run constructs a Controller from deps and runs its event loop to
// completion, returning a process exit code and the final selection
// (in insertion order, ready to print), per spec.md §6.
func Run(ctx context.Context, deps Deps) (exitCode int, selected []string) {
	c := &Controller{
		deps:      deps,
		st:        newState(deps.InitialQuery),
		resultCh:  make(chan matchResult, 1),
		previewCh: make(chan previewResult, 1),
	}

	code := c.run(ctx)

	return code, c.SelectedLines()
}

func (c *Controller) run(ctx context.Context) int {
	loopCtx, cancelLoop := context.WithCancel(ctx)
	defer cancelLoop()

	events := make(chan Event, 1)
	inputErrs := make(chan error, 1)

	go c.pumpInput(loopCtx, events, inputErrs)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	c.lastReMatch = monotonicNow()

	// The empty-query merger is in place before the first event is handled,
	// so Enter or Tab always has a current item to act on.
	c.st.merger = engine.NewChunkBacked(c.deps.Store.Snapshot(), c.deps.Buf)
	c.st.matchCount = c.st.merger.Count()
	c.st.totalItems = int(c.deps.Store.Count())

	c.dispatchMatch(false)
	c.render()

	for {
		var debounceFired <-chan time.Time
		if c.debounceTimer != nil {
			debounceFired = c.debounceTimer.C
		}

		select {
		case <-ctx.Done():
			c.beginShutdown()
			return c.exitCode()

		case ev := <-events:
			c.handleEvent(ev)

			if c.st.shouldExit {
				c.beginShutdown()
				return c.exitCode()
			}

			c.render()

		case err := <-inputErrs:
			_, _ = io.WriteString(c.deps.ErrOut, "error: "+err.Error()+"\n")
			c.beginShutdown()

			return ExitIOFailure

		case <-debounceFired:
			c.debounceTimer = nil
			c.dispatchMatch(false)

		case res := <-c.resultCh:
			c.applyResult(res)

		case pr := <-c.previewCh:
			c.applyPreviewResult(pr)

		case <-ticker.C:
			c.checkItemGrowth()
		}
	}
}

func (c *Controller) pumpInput(ctx context.Context, events chan<- Event, errs chan<- error) {
	for {
		ev, err := c.deps.Input.Next(ctx)
		if err != nil {
			select {
			case errs <- err:
			case <-ctx.Done():
			}

			return
		}

		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Controller) handleEvent(ev Event) {
	switch ev.Kind {
	case EventRune:
		q := c.st.query
		c.st.query = q[:c.st.cursorPosition] + string(ev.Rune) + q[c.st.cursorPosition:]
		c.st.cursorPosition += len(string(ev.Rune))
		c.scheduleDebounce()

	case EventBackspace:
		if c.st.cursorPosition > 0 {
			q := c.st.query
			prevLen := c.st.cursorPosition - 1
			c.st.query = q[:prevLen] + q[c.st.cursorPosition:]
			c.st.cursorPosition = prevLen
			c.scheduleDebounce()
		}

	case EventClearLine:
		c.st.query = ""
		c.st.cursorPosition = 0
		c.scheduleDebounce()

	case EventDeleteWordBack:
		if c.st.cursorPosition > 0 {
			q := c.st.query
			start := wordBackStart(q, c.st.cursorPosition)
			c.st.query = q[:start] + q[c.st.cursorPosition:]
			c.st.cursorPosition = start
			c.scheduleDebounce()
		}

	case EventCursorLeft:
		if c.st.cursorPosition > 0 {
			c.st.cursorPosition--
		}

	case EventCursorRight:
		if c.st.cursorPosition < len(c.st.query) {
			c.st.cursorPosition++
		}

	case EventMoveUp:
		c.st.selectedIndex--
		c.st.clampSelection(c.deps.DisplayHeight)
		c.triggerPreview()

	case EventMoveDown:
		c.st.selectedIndex++
		c.st.clampSelection(c.deps.DisplayHeight)
		c.triggerPreview()

	case EventToggleSelect:
		if !c.deps.Multi || c.st.merger == nil {
			break
		}

		if item, ok := c.st.merger.Get(c.st.selectedIndex); ok {
			if _, selected := c.st.selectedItems[item.Item.Index]; selected {
				delete(c.st.selectedItems, item.Item.Index)
			} else {
				c.st.selectedItems[item.Item.Index] = struct{}{}
			}
		}

	case EventEnter:
		c.st.shouldExit = true
		c.st.exitWithSelection = true

	case EventEsc:
		c.st.shouldExit = true
		c.st.selectedItems = make(map[uint32]struct{})

	case EventCtrlC:
		c.st.shouldExit = true
		c.st.interrupted = true
		c.st.selectedItems = make(map[uint32]struct{})

	case EventDisconnect:
		c.st.shouldExit = true
		c.st.selectedItems = make(map[uint32]struct{})

	case EventResize:
		c.deps.DisplayHeight = ev.Height
		c.st.clampSelection(c.deps.DisplayHeight)
	}
}

// wordBackStart finds the byte offset Ctrl-W should delete back to: skip
// trailing spaces, then skip the non-space word before the cursor.
func wordBackStart(query string, cursor int) int {
	i := cursor

	for i > 0 && query[i-1] == ' ' {
		i--
	}

	for i > 0 && query[i-1] != ' ' {
		i--
	}

	return i
}

func (c *Controller) scheduleDebounce() {
	c.pendingQuery = c.st.query

	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
	}

	c.debounceTimer = time.NewTimer(debounceDelay)
}

// dispatchMatch starts a background match for the query currently in
// state. forceFull skips the incremental-narrowing decision and leaves
// previousQuery untouched — the tick-driven re-match path per spec.md
// §4.7.
func (c *Controller) dispatchMatch(forceFull bool) {
	query := c.st.query

	incremental := !forceFull &&
		c.st.previousQuery != "" &&
		strings.HasPrefix(query, c.st.previousQuery) &&
		len(query) > len(c.st.previousQuery)

	prevMerger := c.st.merger

	if !forceFull {
		c.st.previousQuery = query
	}

	if !incremental {
		if cached, ok := c.deps.MergerCache.Get(query, c.deps.Store.Count()); ok {
			if c.matchCancel != nil {
				c.matchCancel()
				c.matchCancel = nil
			}

			c.matchGen++
			c.applyResult(matchResult{gen: c.matchGen, query: query, incremental: false, merger: cached})

			return
		}
	}

	if c.matchCancel != nil {
		c.matchCancel()
	}

	matchCtx, cancel := context.WithCancel(context.Background())
	c.matchCancel = cancel

	c.matchGen++
	gen := c.matchGen

	go func() {
		q := engine.PrepareQuery(query, c.deps.CaseSensitive, c.deps.Scheme)

		var merger *engine.ResultMerger
		if incremental && prevMerger != nil {
			merger = c.deps.Engine.MatchItems(matchCtx, q, prevMerger.AllItems(), c.deps.Buf)
		} else {
			snap := c.deps.Store.Snapshot()
			merger = c.deps.Engine.MatchChunks(matchCtx, q, snap, c.deps.ChunkCache, c.deps.Buf)
		}

		select {
		case c.resultCh <- matchResult{gen: gen, query: query, incremental: incremental, merger: merger}:
		case <-matchCtx.Done():
		}
	}()
}

func (c *Controller) applyResult(res matchResult) {
	if res.gen != c.matchGen || c.st.isExiting {
		return
	}

	c.st.merger = res.merger
	c.st.matchCount = res.merger.Count()
	c.st.totalItems = int(c.deps.Store.Count())
	c.st.clampSelection(c.deps.DisplayHeight)

	if !res.incremental && res.merger.Count() <= 100_000 {
		c.deps.MergerCache.Store(res.query, uint32(c.st.totalItems), res.merger)
	}

	c.triggerPreview()
	c.render()
}

// triggerPreview runs the configured preview command for the currently
// selected item in a detached goroutine, per spec.md §4.7's "refresh
// preview if configured" step.
func (c *Controller) triggerPreview() {
	if c.deps.Preview == nil || c.deps.PreviewTemplate == "" || c.st.merger == nil {
		return
	}

	mi, ok := c.st.merger.Get(c.st.selectedIndex)
	if !ok {
		c.st.previewText = ""
		return
	}

	text := c.deps.Buf.String(mi.Item.Offset, mi.Item.Length)

	c.previewGen++
	gen := c.previewGen

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), preview.Timeout)
		defer cancel()

		out, err := c.deps.Preview.Run(ctx, c.deps.PreviewTemplate, text)
		if err != nil {
			out = "preview error: " + err.Error()
		}

		select {
		case c.previewCh <- previewResult{gen: gen, text: out}:
		case <-ctx.Done():
		}
	}()
}

func (c *Controller) applyPreviewResult(pr previewResult) {
	if pr.gen != c.previewGen || c.st.isExiting {
		return
	}

	c.st.previewText = pr.text

	c.render()
}

// checkItemGrowth is the periodic-tick re-match path, per spec.md §4.7.
func (c *Controller) checkItemGrowth() {
	count := c.deps.Store.Count()
	if count <= c.st.lastSeenCount {
		return
	}

	if monotonicNow().Sub(c.lastReMatch) < minReMatchGap {
		return
	}

	if c.matchCancel != nil {
		c.matchCancel()
	}

	c.deps.MergerCache.Clear()
	c.deps.ChunkCache.Clear()

	c.st.lastSeenCount = count
	c.lastReMatch = monotonicNow()

	c.dispatchMatch(true)
}

func (c *Controller) beginShutdown() {
	c.st.isExiting = true

	if c.matchCancel != nil {
		c.matchCancel()
	}
}

func (c *Controller) exitCode() int {
	if c.st.interrupted {
		return ExitInterrupted
	}

	if c.st.exitWithSelection && c.outputCount() > 0 {
		return ExitAcceptedSelection
	}

	return ExitAcceptedEmpty
}

func (c *Controller) outputCount() int {
	if len(c.st.selectedItems) > 0 {
		return len(c.st.selectedItems)
	}

	if c.st.exitWithSelection && c.st.merger != nil && c.st.merger.Count() > 0 {
		return 1
	}

	return 0
}

// SelectedLines resolves the final selection to printable text, in
// insertion order, per spec.md §6: "selected items are printed ... in
// the original insertion order (not rank order)". Called once on exit.
func (c *Controller) SelectedLines() []string {
	if !c.st.exitWithSelection || c.st.merger == nil {
		return nil
	}

	var items []itemstore.Item

	if len(c.st.selectedItems) > 0 {
		items = c.st.merger.SelectedItems(c.st.selectedItems)
	} else if mi, ok := c.st.merger.Get(c.st.selectedIndex); ok {
		items = []itemstore.Item{mi.Item}
	}

	out := make([]string, len(items))
	for i, it := range items {
		out[i] = c.deps.Buf.String(it.Offset, it.Length)
	}

	return out
}

func (c *Controller) render() {
	if c.deps.Renderer == nil {
		return
	}

	snap := Snapshot{
		Query:          c.st.query,
		CursorPosition: c.st.cursorPosition,
		SelectedIndex:  c.st.selectedIndex,
		ScrollOffset:   c.st.scrollOffset,
		MatchCount:     c.st.matchCount,
		TotalItems:     c.st.totalItems,
		Multi:          c.deps.Multi,
		PreviewText:    c.st.previewText,
	}

	if c.st.merger != nil {
		window := c.st.merger.Slice(c.st.scrollOffset, c.st.scrollOffset+c.deps.DisplayHeight)
		snap.Visible = make([]VisibleItem, len(window))

		for i, mi := range window {
			_, selected := c.st.selectedItems[mi.Item.Index]
			snap.Visible[i] = VisibleItem{
				Index:    mi.Item.Index,
				Text:     c.deps.Buf.String(mi.Item.Offset, mi.Item.Length),
				Selected: selected,
			}
		}
	}

	_ = c.deps.Renderer.Render(snap)
}

func monotonicNow() time.Time {
	return time.Now()
}
