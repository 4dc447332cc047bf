package frankentui

import (
	"bytes"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// Presenter turns a frame's change runs into a single byte stream, tracking
// cursor position, last-emitted SGR state, and the active hyperlink across
// calls so it only ever emits the minimal diff - never a full style reset
// per cell. One Presenter belongs to exactly one Writer for the life of a
// session; it is not safe for concurrent use.
type Presenter struct {
	buf  bytes.Buffer
	caps Capabilities

	cursorX, cursorY int
	cursorValid      bool
	deferredWrap     bool // cursor logically sits past the last column, pending next write

	fg, bg packedColor
	attrs  Attr
	link   uint16
	styleValid bool

	links     *LinkRegistry
	graphemes *GraphemePool
}

// Present renders back's change runs and appends the per-frame epilogue:
// close any open hyperlink, reset SGR if the tracked style is non-default,
// then park the cursor at the policy-specified position with the
// requested visibility. The returned slice is owned by
// p and is invalidated by the next call to Present or
// InlinePolicy.RenderFull.
func (p *Presenter) Present(back *Buffer, runs []RowRuns, cursor CursorState) []byte {
	p.buf.Reset()
	for _, rr := range runs {
		for _, run := range rr.Runs {
			p.renderRun(back, rr.Row, run)
		}
	}
	p.endFrame(cursor)
	return p.buf.Bytes()
}

// endFrame writes the frame epilogue into p.buf: link close, conditional
// SGR reset, and cursor park/visibility. Called by Present;
// InlinePolicy.RenderFull writes its own epilogue instead.
func (p *Presenter) endFrame(cursor CursorState) {
	if p.link != 0 {
		p.buf.WriteString(ansi.ResetHyperlink())
		p.link = 0
	}

	if p.styleValid && (p.attrs != 0 || p.fg.unpack().Mode != ColorDefault || p.bg.unpack().Mode != ColorDefault) {
		p.buf.WriteString("\x1b[0m")
		p.attrs = 0
		p.fg = packColor(DefaultColor())
		p.bg = packColor(DefaultColor())
	}

	p.moveTo(cursor.X, cursor.Y)

	if cursor.Visible {
		p.buf.WriteString(ansi.ShowCursor)
	} else {
		p.buf.WriteString(ansi.HideCursor)
	}
}

// NewPresenter returns a Presenter bound to the given capability snapshot,
// link registry, and grapheme pool. cursorValid starts false: the first
// frame always positions the cursor explicitly rather than assuming a
// starting location. The tracked SGR starts valid at the terminal's
// default fg/bg/no-attrs state, matching a freshly opened terminal (or
// one just cleared into the alternate screen) - so a cell that happens
// to use default styling never forces a redundant reset on the first
// frame it is drawn.
func NewPresenter(caps Capabilities, links *LinkRegistry, graphemes *GraphemePool) *Presenter {
	p := &Presenter{caps: caps, links: links, graphemes: graphemes}
	p.resetStyle()
	return p
}

// resetStyle re-establishes the tracked SGR state as "default, no
// attributes" and marks it valid, so the next emitted cell only pays for
// a style change if it actually differs from terminal defaults.
func (p *Presenter) resetStyle() {
	p.fg = packColor(DefaultColor())
	p.bg = packColor(DefaultColor())
	p.attrs = 0
	p.styleValid = true
}

// Reset clears tracked cursor/link state and re-establishes the default
// SGR baseline - call after a full repaint or an external write to the
// terminal that the Presenter didn't produce, so the next frame
// re-establishes ground truth instead of trusting stale state.
func (p *Presenter) Reset() {
	p.cursorValid = false
	p.deferredWrap = false
	p.link = 0
	p.resetStyle()
}

func (p *Presenter) renderRun(back *Buffer, row int, run Run) {
	col := run.ColStart
	for col < run.ColEnd {
		cell := back.Get(col, row)
		if cell.IsContinuation() {
			col++
			continue
		}
		p.moveTo(col, row)
		p.emitStyle(cell)
		p.emitContent(cell)

		width := cell.Width()
		if width < 1 {
			width = 1
		}
		p.cursorX = col + width
		p.cursorY = row
		p.deferredWrap = p.cursorX >= back.width
		col += width
	}
}

// moveTo emits the shortest cursor-movement sequence from the tracked
// position to (col, row): nothing if already there, a relative move on
// the same row, or an absolute CUP otherwise.
func (p *Presenter) moveTo(col, row int) {
	if p.cursorValid && !p.deferredWrap && p.cursorY == row && p.cursorX == col {
		return
	}
	if p.cursorValid && !p.deferredWrap && p.cursorY == row {
		if col > p.cursorX {
			p.buf.WriteString(ansi.CursorForward(col - p.cursorX))
		} else {
			p.buf.WriteString(ansi.CursorBackward(p.cursorX - col))
		}
		p.cursorX, p.cursorY = col, row
		p.cursorValid = true
		return
	}
	p.buf.WriteString(ansi.CursorPosition(col+1, row+1))
	p.cursorX, p.cursorY = col, row
	p.cursorValid = true
	p.deferredWrap = false
}

// emitStyle writes the hyperlink open/close sequence if the link changed,
// then the SGR change: only the parameters that differ from the last
// emitted style when at most half of the style axes changed, otherwise
// (or when the tracked style is not valid) a reset followed by every
// active axis.
func (p *Presenter) emitStyle(cell Cell) {
	fg, bg, attrs, link := cell.fg, cell.bg, cell.Attrs(), cell.Link()

	if !p.caps.Hyperlinks {
		link = 0
	}
	if link != p.link {
		if p.link != 0 {
			p.buf.WriteString(ansi.ResetHyperlink())
		}
		if link != 0 {
			uri, id := p.links.URI(link)
			p.buf.WriteString(ansi.SetHyperlink(uri, id))
		}
		p.link = link
	}

	if p.styleValid && fg == p.fg && bg == p.bg && attrs == p.attrs {
		return
	}

	if p.styleValid && attrAxesChanged(p.attrs, attrs)+boolToInt(fg != p.fg)+boolToInt(bg != p.bg) <= styleAxisCount/2 {
		p.emitStyleDiff(fg, bg, attrs)
	} else {
		p.buf.WriteString("\x1b[0")
		writeAttrs(&p.buf, attrs)
		writeColor(&p.buf, fg.unpack(), true, p.caps)
		writeColor(&p.buf, bg.unpack(), false, p.caps)
		p.buf.WriteByte('m')
	}

	p.fg, p.bg, p.attrs = fg, bg, attrs
	p.styleValid = true
}

// styleAxisCount is the number of independently toggleable style axes:
// bold, dim, italic, underline, blink, reverse, hidden, strikethrough,
// overline, foreground color, background color.
const styleAxisCount = 11

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// attrAxesChanged counts how many of old's attribute axes differ from new,
// treating the underline sub-style as a single axis regardless of which
// sub-style it switches to or from.
func attrAxesChanged(old, next Attr) int {
	n := 0
	if old.Has(AttrBold) != next.Has(AttrBold) {
		n++
	}
	if old.Has(AttrDim) != next.Has(AttrDim) {
		n++
	}
	if old.Has(AttrItalic) != next.Has(AttrItalic) {
		n++
	}
	if old.Underline() != next.Underline() {
		n++
	}
	if old.Has(AttrBlink) != next.Has(AttrBlink) {
		n++
	}
	if old.Has(AttrReverse) != next.Has(AttrReverse) {
		n++
	}
	if old.Has(AttrHidden) != next.Has(AttrHidden) {
		n++
	}
	if old.Has(AttrStrikethrough) != next.Has(AttrStrikethrough) {
		n++
	}
	if old.Has(AttrOverline) != next.Has(AttrOverline) {
		n++
	}
	return n
}

// emitStyleDiff writes only the SGR parameters whose axis actually changed
// since the last emitted style, using the specific off-code (22-29, 55)
// to clear an axis rather than a blanket reset. Called only when fewer
// than half of the tracked axes changed; emitStyle falls back to a full
// reset-then-reapply otherwise.
func (p *Presenter) emitStyleDiff(fg, bg packedColor, attrs Attr) {
	buf := &p.buf
	buf.WriteString("\x1b[")
	first := true
	sep := func() {
		if !first {
			buf.WriteByte(';')
		}
		first = false
	}

	old := p.attrs
	if old.Has(AttrBold) != attrs.Has(AttrBold) {
		sep()
		if attrs.Has(AttrBold) {
			buf.WriteByte('1')
		} else {
			buf.WriteString("22")
		}
	}
	if old.Has(AttrDim) != attrs.Has(AttrDim) {
		sep()
		if attrs.Has(AttrDim) {
			buf.WriteByte('2')
		} else {
			buf.WriteString("22")
		}
	}
	// 22 clears bold and dim together: re-set whichever of the two stays on.
	if (old.Has(AttrBold) && !attrs.Has(AttrBold)) || (old.Has(AttrDim) && !attrs.Has(AttrDim)) {
		if attrs.Has(AttrBold) {
			sep()
			buf.WriteByte('1')
		}
		if attrs.Has(AttrDim) {
			sep()
			buf.WriteByte('2')
		}
	}
	if old.Has(AttrItalic) != attrs.Has(AttrItalic) {
		sep()
		if attrs.Has(AttrItalic) {
			buf.WriteByte('3')
		} else {
			buf.WriteString("23")
		}
	}
	if old.Underline() != attrs.Underline() {
		sep()
		switch attrs.Underline() {
		case UnderlineNone:
			buf.WriteString("24")
		case UnderlineSingle:
			buf.WriteByte('4')
		case UnderlineDouble:
			buf.WriteString("4:2")
		case UnderlineCurly:
			buf.WriteString("4:3")
		case UnderlineDotted:
			buf.WriteString("4:4")
		case UnderlineDashed:
			buf.WriteString("4:5")
		}
	}
	if old.Has(AttrBlink) != attrs.Has(AttrBlink) {
		sep()
		if attrs.Has(AttrBlink) {
			buf.WriteByte('5')
		} else {
			buf.WriteString("25")
		}
	}
	if old.Has(AttrReverse) != attrs.Has(AttrReverse) {
		sep()
		if attrs.Has(AttrReverse) {
			buf.WriteByte('7')
		} else {
			buf.WriteString("27")
		}
	}
	if old.Has(AttrHidden) != attrs.Has(AttrHidden) {
		sep()
		if attrs.Has(AttrHidden) {
			buf.WriteByte('8')
		} else {
			buf.WriteString("28")
		}
	}
	if old.Has(AttrStrikethrough) != attrs.Has(AttrStrikethrough) {
		sep()
		if attrs.Has(AttrStrikethrough) {
			buf.WriteByte('9')
		} else {
			buf.WriteString("29")
		}
	}
	if old.Has(AttrOverline) != attrs.Has(AttrOverline) {
		sep()
		if attrs.Has(AttrOverline) {
			buf.WriteString("53")
		} else {
			buf.WriteString("55")
		}
	}
	if fg != p.fg {
		sep()
		writeColorBare(buf, fg.unpack(), true, p.caps)
	}
	if bg != p.bg {
		sep()
		writeColorBare(buf, bg.unpack(), false, p.caps)
	}
	buf.WriteByte('m')
}

func writeAttrs(buf *bytes.Buffer, attrs Attr) {
	if attrs.Has(AttrBold) {
		buf.WriteString(";1")
	}
	if attrs.Has(AttrDim) {
		buf.WriteString(";2")
	}
	if attrs.Has(AttrItalic) {
		buf.WriteString(";3")
	}
	switch attrs.Underline() {
	case UnderlineSingle:
		buf.WriteString(";4")
	case UnderlineDouble:
		buf.WriteString(";4:2")
	case UnderlineCurly:
		buf.WriteString(";4:3")
	case UnderlineDotted:
		buf.WriteString(";4:4")
	case UnderlineDashed:
		buf.WriteString(";4:5")
	}
	if attrs.Has(AttrBlink) {
		buf.WriteString(";5")
	}
	if attrs.Has(AttrReverse) {
		buf.WriteString(";7")
	}
	if attrs.Has(AttrHidden) {
		buf.WriteString(";8")
	}
	if attrs.Has(AttrStrikethrough) {
		buf.WriteString(";9")
	}
	if attrs.Has(AttrOverline) {
		buf.WriteString(";53")
	}
}

// writeColor appends a leading ';' followed by the SGR color parameter for
// c - the form used inside the always-semicolon-prefixed full-reset path.
func writeColor(buf *bytes.Buffer, c Color, fg bool, caps Capabilities) {
	buf.WriteByte(';')
	writeColorBare(buf, c, fg, caps)
}

// writeColorBare appends the SGR color parameter for c with no leading
// separator - the form emitStyleDiff uses, since it manages separators
// itself across a mix of attribute and color axes.
func writeColorBare(buf *bytes.Buffer, c Color, fg bool, caps Capabilities) {
	c = Downsample(c, caps)
	switch c.Mode {
	case ColorDefault, ColorInherit:
		if fg {
			buf.WriteString("39")
		} else {
			buf.WriteString("49")
		}
	case Color16:
		base := 30
		if !fg {
			base = 40
		}
		idx := int(c.Index)
		if idx >= 8 {
			base += 60
			idx -= 8
		}
		writeInt(buf, base+idx)
	case Color256:
		if fg {
			buf.WriteString("38;5;")
		} else {
			buf.WriteString("48;5;")
		}
		writeInt(buf, int(c.Index))
	case ColorRGB:
		if fg {
			buf.WriteString("38;2;")
		} else {
			buf.WriteString("48;2;")
		}
		writeInt(buf, int(c.R))
		buf.WriteByte(';')
		writeInt(buf, int(c.G))
		buf.WriteByte(';')
		writeInt(buf, int(c.B))
	}
}

// emitContent writes the glyph itself: a literal rune, or the looked-up
// text of a grapheme cluster.
func (p *Presenter) emitContent(cell Cell) {
	if cell.IsGrapheme() {
		if cluster, ok := p.graphemes.Lookup(cell.GraphemeID()); ok {
			p.buf.WriteString(cluster)
			return
		}
		p.buf.WriteByte('?')
		return
	}
	r := cell.Rune()
	if runewidth.RuneWidth(r) == 0 && r != 0 {
		// Zero-width rune with no combining host cell: skip rather than
		// emit a dangling combining mark that would attach to whatever
		// the terminal last drew.
		return
	}
	p.buf.WriteRune(r)
}

// writeInt appends the decimal digits of n to buf without allocating.
func writeInt(buf *bytes.Buffer, n int) {
	if n == 0 {
		buf.WriteByte('0')
		return
	}
	if n < 0 {
		buf.WriteByte('-')
		n = -n
	}
	var scratch [10]byte
	i := len(scratch)
	for n > 0 {
		i--
		scratch[i] = byte('0' + n%10)
		n /= 10
	}
	buf.Write(scratch[i:])
}
