package frankentui

import "io"

// Kernel is the render kernel: it owns the front/back buffer pair, the
// grapheme pool and link registry shared between them, and drives one
// frame at a time through the diff engine, presenter, and writer. A
// Kernel belongs to exactly one Writer (and therefore one terminal
// output stream) for its lifetime.
type Kernel struct {
	front, back *Buffer
	graphemes   *GraphemePool
	links       *LinkRegistry

	differ    *Differ
	presenter *Presenter
	writer    *Writer

	inline *InlinePolicy // nil in alt-screen mode
	cursor CursorState
}

// NewKernel creates a Kernel of the given size, writing frames to out
// under caps. mode selects inline vs alt-screen framing; inlineRows is
// only consulted when mode is ModeInline.
func NewKernel(width, height int, out io.Writer, caps Capabilities, mode Mode, inlineRows int) *Kernel {
	graphemes := NewGraphemePool()
	links := NewLinkRegistry()
	logger := DefaultLogger()
	graphemes.SetLogger(logger)

	front := NewBuffer(width, height, graphemes, links)
	back := NewBuffer(width, height, graphemes, links)
	front.SetLogger(logger)
	back.SetLogger(logger)

	k := &Kernel{
		front:     front,
		back:      back,
		graphemes: graphemes,
		links:     links,
		differ:    NewDiffer(),
		presenter: NewPresenter(caps, links, graphemes),
		writer:    NewWriter(out, caps),
		cursor:    DefaultCursorState(),
	}
	if mode == ModeInline {
		k.inline = NewInlinePolicy(inlineRows)
		clip := k.inline.Clip(width)
		k.back.PushClip(clip)
		k.front.PushClip(clip)
	}
	return k
}

// SetLogger redirects diagnostic output (grapheme overflow, dropped wide
// writes, clamped opacity) from the default stderr logger to l.
func (k *Kernel) SetLogger(l Logger) {
	k.front.SetLogger(l)
	k.back.SetLogger(l)
	k.graphemes.SetLogger(l)
}

// SetCursor sets the cursor position, visibility, and shape requested
// for the end of the current frame - consulted once by Present. Ignored
// in inline mode, where the cursor always parks below the rendered block.
func (k *Kernel) SetCursor(c CursorState) { k.cursor = c }

// BeginFrame resets the link registry's per-frame reference counts and,
// if clear is true, wipes the back buffer, then returns the restricted
// Producer view for this frame's render callbacks. Call exactly once
// per frame, before any producer runs.
func (k *Kernel) BeginFrame(clear bool) Producer {
	k.links.BeginFrame()
	if clear {
		k.back.Clear(Rect{X: 0, Y: 0, W: k.back.width, H: k.back.height})
	}
	return k.back.Producer()
}

// Present runs the remaining steps for the current frame: diff front
// against back and render the minimal byte stream (alt-screen mode) or
// redraw the inline block unconditionally (inline mode), flush it
// through the Writer, then swap back into front for the next frame.
// The returned slice is owned by the Presenter and is invalidated by
// the next Present call.
func (k *Kernel) Present() ([]byte, error) {
	var frame []byte

	if k.inline != nil {
		frame = k.inline.RenderFull(k.back, k.presenter)
		frame = append(frame, k.inline.Park()...)
	} else {
		runs := k.differ.Diff(k.front, k.back)
		frame = k.presenter.Present(k.back, runs, k.cursor)
		ApplyRuns(k.front, k.back, runs)
	}

	err := k.writer.Flush(frame)

	k.back.ClearDirtyFlags()
	k.links.EndFrame()

	return frame, err
}

// Resize changes both buffers' dimensions and forces a full repaint on
// the next Present. The Presenter's tracked cursor/SGR/link state is
// also reset, since the resize sequence itself may have moved the real
// cursor out from under it.
func (k *Kernel) Resize(width, height int) {
	k.front.Resize(width, height)
	k.back.Resize(width, height)
	// Cell{} never equals a written cell, so every row of the next Diff
	// differs in full and is repainted.
	for i := range k.front.cells {
		k.front.cells[i] = Cell{}
	}
	k.presenter.Reset()
	if k.inline != nil {
		clip := k.inline.Clip(width)
		k.back.PushClip(clip)
		k.front.PushClip(clip)
	}
}

// Size returns the current buffer dimensions.
func (k *Kernel) Size() (width, height int) { return k.back.width, k.back.height }

// Graphemes returns the grapheme pool shared by both buffers, so a
// caller can report Stats() for overflow monitoring.
func (k *Kernel) Graphemes() *GraphemePool { return k.graphemes }
