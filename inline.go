package frankentui

import "bytes"

// InlinePolicy renders a fixed-height block of UI anchored at the cursor
// position active when the session entered inline mode - the host's
// scrollback above that anchor is never touched. All writes a Producer
// makes are scissor-bound to the policy's rows; the cursor is parked
// outside the UI block (one row below it, column 0) once a frame is
// fully presented, so whatever printed the block leaves the terminal in
// a state any subsequent plain-text output can append to safely.
type InlinePolicy struct {
	rows int

	lastLinesRendered int
}

// NewInlinePolicy returns a policy rendering at most rows lines of inline
// UI.
func NewInlinePolicy(rows int) *InlinePolicy {
	return &InlinePolicy{rows: rows}
}

// Rows returns the fixed height of the inline UI block.
func (ip *InlinePolicy) Rows() int { return ip.rows }

// Resize changes the block height for subsequent frames.
func (ip *InlinePolicy) Resize(rows int) { ip.rows = rows }

// Clip returns the scissor rectangle a Buffer.PushClip should use so a
// Producer's writes can never escape the inline block, regardless of the
// Buffer's own width.
func (ip *InlinePolicy) Clip(width int) Rect {
	return Rect{X: 0, Y: 0, W: width, H: ip.rows}
}

// RenderFull does a full (non-diffed) redraw of the inline block: an
// inline block's previous content lives in host scrollback, not in an
// addressable alternate-screen grid, so there is nothing stable to
// compare against between frames of possibly differing height.
func (ip *InlinePolicy) RenderFull(back *Buffer, p *Presenter) []byte {
	var out bytes.Buffer
	p.Reset()

	linesRendered := 0
	for y := 0; y < ip.rows && y < back.height; y++ {
		out.WriteString("\r\x1b[K")

		run := Run{ColStart: 0, ColEnd: back.width}
		p.renderRun(back, y, run)
		out.Write(p.buf.Bytes())
		p.buf.Reset()

		linesRendered++
		if y < ip.rows-1 {
			out.WriteByte('\n')
		}
	}

	out.WriteString("\x1b[0m")
	if linesRendered > 1 {
		out.WriteString(ansiCursorUp(linesRendered - 1))
	}
	out.WriteByte('\r')

	ip.lastLinesRendered = linesRendered
	return out.Bytes()
}

// Park returns the escape sequence that moves the cursor to column 0 of
// the row immediately below the last-rendered block, outside the UI
// entirely.
func (ip *InlinePolicy) Park() []byte {
	var out bytes.Buffer
	if ip.lastLinesRendered > 1 {
		out.WriteString(ansiCursorDown(ip.lastLinesRendered - 1))
	}
	out.WriteString("\r\n")
	return out.Bytes()
}

// ExitClear returns the escape sequence that erases every line of the
// last-rendered block and leaves the cursor at its top-left corner -
// used when inline UI should vanish entirely on session exit.
func (ip *InlinePolicy) ExitClear() []byte {
	var out bytes.Buffer
	for i := 0; i < ip.lastLinesRendered; i++ {
		out.WriteString("\r\x1b[2K")
		if i < ip.lastLinesRendered-1 {
			out.WriteString("\x1b[1B")
		}
	}
	if ip.lastLinesRendered > 1 {
		out.WriteString(ansiCursorUp(ip.lastLinesRendered - 1))
	}
	out.WriteString("\r\x1b[0m")
	return out.Bytes()
}

func ansiCursorUp(n int) string {
	var b bytes.Buffer
	b.WriteString("\x1b[")
	writeInt(&b, n)
	b.WriteByte('A')
	return b.String()
}

func ansiCursorDown(n int) string {
	var b bytes.Buffer
	b.WriteString("\x1b[")
	writeInt(&b, n)
	b.WriteByte('B')
	return b.String()
}
