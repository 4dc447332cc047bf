package frankentui

import (
	"github.com/mattn/go-runewidth"
)

// Rect is an axis-aligned, half-open region: columns [X, X+W), rows
// [Y, Y+H).
type Rect struct {
	X, Y, W, H int
}

// intersect returns the overlap of r and other. A non-overlapping pair
// yields a zero-area Rect, never negative dimensions.
func (r Rect) intersect(other Rect) Rect {
	x0, y0 := max(r.X, other.X), max(r.Y, other.Y)
	x1, y1 := min(r.X+r.W, other.X+other.W), min(r.Y+r.H, other.Y+other.H)
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func (r Rect) contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Buffer is a 2D grid of Cells: the surface a Producer draws into and the
// surface the diff engine compares frame over frame. It owns a scissor
// (clip) stack and an opacity stack that every Put/PutGrapheme call consults.
type Buffer struct {
	cells     []Cell
	width     int
	height    int
	dirtyMaxY int

	dirtyRows []bool
	allDirty  bool

	graphemes *GraphemePool
	links     *LinkRegistry

	clipStack    []Rect
	opacityStack []float32

	logger Logger
}

// NewBuffer creates a buffer of the given dimensions, backed by the shared
// grapheme pool and link registry of the frame it belongs to.
func NewBuffer(width, height int, graphemes *GraphemePool, links *LinkRegistry) *Buffer {
	b := &Buffer{
		width:     width,
		height:    height,
		cells:     make([]Cell, width*height),
		dirtyRows: make([]bool, height),
		allDirty:  true,
		graphemes: graphemes,
		links:     links,
		logger:    nopLogger{},
	}
	empty := EmptyCell()
	for i := range b.cells {
		b.cells[i] = empty
	}
	b.clipStack = []Rect{{X: 0, Y: 0, W: width, H: height}}
	b.opacityStack = []float32{1.0}
	return b
}

// SetLogger directs skipped-write and clamped-opacity diagnostics to l
// instead of discarding them.
func (b *Buffer) SetLogger(l Logger) { b.logger = l }

func (b *Buffer) Width() int  { return b.width }
func (b *Buffer) Height() int { return b.height }

// ContentHeight returns one past the highest row written to since the
// last ClearDirtyFlags (1 when nothing has been written).
func (b *Buffer) ContentHeight() int { return b.dirtyMaxY + 1 }

func (b *Buffer) InBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

func (b *Buffer) index(x, y int) int { return y*b.width + x }

// Get returns the cell at (x, y), or an empty cell if out of bounds.
func (b *Buffer) Get(x, y int) Cell {
	if !b.InBounds(x, y) {
		return EmptyCell()
	}
	return b.cells[b.index(x, y)]
}

// clip returns the currently active scissor rectangle - the intersection
// of every pushed Rect, monotone-narrowing by construction.
func (b *Buffer) clip() Rect {
	return b.clipStack[len(b.clipStack)-1]
}

// PushClip narrows the scissor rectangle to the intersection of the
// current clip and r. Must be paired with PopClip.
func (b *Buffer) PushClip(r Rect) {
	b.clipStack = append(b.clipStack, b.clip().intersect(r))
}

// PopClip restores the scissor rectangle active before the matching
// PushClip. Popping the base clip (pushed by NewBuffer) is a no-op.
func (b *Buffer) PopClip() {
	if len(b.clipStack) > 1 {
		b.clipStack = b.clipStack[:len(b.clipStack)-1]
	}
}

// opacity returns the product of every pushed opacity level, clamped to
// [0, 1].
func (b *Buffer) opacity() float32 {
	return b.opacityStack[len(b.opacityStack)-1]
}

// PushOpacity multiplies the active opacity by level (clamped to [0, 1])
// and pushes the result. Must be paired with PopOpacity.
func (b *Buffer) PushOpacity(level float32) {
	if level < 0 || level > 1 {
		b.logger.Printf("opacity %v out of range, clamped to [0, 1]", level)
	}
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	b.opacityStack = append(b.opacityStack, b.opacity()*level)
}

// PopOpacity restores the opacity active before the matching PushOpacity.
func (b *Buffer) PopOpacity() {
	if len(b.opacityStack) > 1 {
		b.opacityStack = b.opacityStack[:len(b.opacityStack)-1]
	}
}

func (b *Buffer) markDirty(y int) {
	if y > b.dirtyMaxY {
		b.dirtyMaxY = y
	}
	b.dirtyRows[y] = true
}

// composite applies the active opacity to c's alpha channels before the
// cell is stored, per the Buffer's compositing contract: opacity affects
// what a producer draws, never what the diff engine later reads back.
func (b *Buffer) composite(c Cell) Cell {
	o := b.opacity()
	if o >= 1 {
		return c
	}
	fg, bg := c.Foreground(), c.Background()
	fg.Alpha = uint8(float32(fg.Alpha) * o)
	bg.Alpha = uint8(float32(bg.Alpha) * o)
	c.fg = packColor(fg)
	c.bg = packColor(bg)
	return c
}

// Put writes a single scalar-rune cell at (x, y), honoring the active
// scissor and opacity. Writes outside the clip or buffer bounds are
// silently dropped - the Producer contract treats clipping as normal,
// not an error.
func (b *Buffer) Put(x, y int, r rune, fg, bg Color, attrs Attr, link uint16) {
	if !b.clip().contains(x, y) || !b.InBounds(x, y) {
		return
	}
	width := runewidth.RuneWidth(r)
	if width == 0 {
		width = 1
	}
	cell := b.composite(NewScalarCell(r, width, fg, bg, attrs, link))
	b.writeCellRun(x, y, cell, width)
}

// PutGrapheme writes a cell referencing an interned multi-rune cluster.
func (b *Buffer) PutGrapheme(x, y int, cluster string, fg, bg Color, attrs Attr, link uint16) {
	if !b.clip().contains(x, y) || !b.InBounds(x, y) {
		return
	}
	width := runewidth.StringWidth(cluster)
	if width == 0 {
		width = 1
	}
	id, ok := b.graphemes.Intern(cluster)
	var cell Cell
	if ok {
		cell = b.composite(NewGraphemeCell(id, width, fg, bg, attrs, link))
	} else {
		cell = b.composite(NewScalarCell(graphemeOverflowFallback, 1, fg, bg, attrs, link))
		width = 1
	}
	b.writeCellRun(x, y, cell, width)
}

// clearStaleWide clears any wide pair touching (x, y) - whether (x, y) is
// currently a wide owner or a Continuation - to EmptyCell, so a write that
// overwrites one half of an existing pair never leaves the other half
// dangling.
func (b *Buffer) clearStaleWide(x, y int) {
	existing := b.cells[b.index(x, y)]
	if existing.IsContinuation() {
		if x > 0 {
			b.setRaw(x-1, y, EmptyCell())
		}
		b.setRaw(x, y, EmptyCell())
		return
	}
	if existing.Width() == 2 && x+1 < b.width {
		b.setRaw(x+1, y, EmptyCell())
	}
}

// writeCellRun stores cell at (x, y) and, for a width-2 glyph, a matching
// Continuation sentinel at (x+1, y) - provided the continuation column is
// also inside the clip and buffer bounds. A wide glyph that would straddle
// the clip boundary is dropped entirely rather than split or truncated,
// since a half-glyph has no defined rendering; nothing at (x, y) or
// (x+1, y) is touched, so front/back state stays consistent with the
// write never having happened. Either half of a pre-existing wide pair
// under an accepted write is cleared first, so no dangling Continuation
// or orphaned owner survives the overwrite.
func (b *Buffer) writeCellRun(x, y int, cell Cell, width int) {
	if width == 2 && (!b.clip().contains(x+1, y) || !b.InBounds(x+1, y)) {
		b.logger.Printf("dropped wide glyph write at (%d, %d): no room for continuation cell", x, y)
		return
	}
	b.clearStaleWide(x, y)
	if width == 2 {
		b.clearStaleWide(x+1, y)
		b.setRaw(x, y, cell)
		b.setRaw(x+1, y, continuationCell(cell))
		return
	}
	b.setRaw(x, y, cell)
}

func (b *Buffer) setRaw(x, y int, c Cell) {
	b.cells[b.index(x, y)] = c
	b.markDirty(y)
}

// PutString segments s into grapheme clusters and writes each at
// successive columns starting at x, stopping at the clip/buffer edge.
func (b *Buffer) PutString(x, y int, s string, fg, bg Color, attrs Attr, link uint16) {
	col := x
	Segment(s, func(cluster string, width int) {
		if width == 0 {
			return
		}
		if r := []rune(cluster); len(r) == 1 {
			b.Put(col, y, r[0], fg, bg, attrs, link)
		} else {
			b.PutGrapheme(col, y, cluster, fg, bg, attrs, link)
		}
		col += width
	})
}

// Clear resets every cell within r (intersected with the buffer bounds) to
// EmptyCell, ignoring the scissor stack - Clear is a buffer-owner
// operation, not a producer draw call.
func (b *Buffer) Clear(r Rect) {
	full := Rect{X: 0, Y: 0, W: b.width, H: b.height}
	r = r.intersect(full)
	empty := EmptyCell()
	for y := r.Y; y < r.Y+r.H; y++ {
		row := b.cells[y*b.width : (y+1)*b.width]
		for x := r.X; x < r.X+r.W; x++ {
			row[x] = empty
		}
		b.markDirty(y)
	}
	if r.X == 0 && r.W == b.width && r.Y == 0 {
		b.dirtyMaxY = 0
	}
}

// ClearAll resets the whole buffer and marks every row dirty for the next
// diff - used once per full-redraw frame, never in the per-cell steady
// state.
func (b *Buffer) ClearAll() {
	b.Clear(Rect{X: 0, Y: 0, W: b.width, H: b.height})
	b.allDirty = true
}

// RowDirty reports whether row y has been written to since the last
// ClearDirtyFlags. The diff engine skips a row that is not dirty without
// comparing it, so a cell changed without marking its row (every Buffer
// write method marks it) is not detected; within a dirty row the diff
// engine compares cell-by-cell.
func (b *Buffer) RowDirty(y int) bool {
	if y < 0 || y >= b.height {
		return false
	}
	return b.allDirty || b.dirtyRows[y]
}

// ClearDirtyFlags clears the per-row dirty hints after a frame has been
// diffed and presented.
func (b *Buffer) ClearDirtyFlags() {
	for i := range b.dirtyRows {
		b.dirtyRows[i] = false
	}
	b.allDirty = false
	b.dirtyMaxY = 0
}

// MarkAllDirty forces every row to be considered for the next diff -
// used after a resize or a full repaint where dirty tracking can't be
// trusted to reflect reality.
func (b *Buffer) MarkAllDirty() {
	b.allDirty = true
}

// Resize changes the buffer's dimensions, discarding prior contents and
// marking every row dirty.
func (b *Buffer) Resize(width, height int) {
	b.width = width
	b.height = height
	needed := width * height
	if cap(b.cells) < needed {
		b.cells = make([]Cell, needed)
	} else {
		b.cells = b.cells[:needed]
	}
	if cap(b.dirtyRows) < height {
		b.dirtyRows = make([]bool, height)
	} else {
		b.dirtyRows = b.dirtyRows[:height]
	}
	b.clipStack = []Rect{{X: 0, Y: 0, W: width, H: height}}
	b.opacityStack = []float32{1.0}
	b.ClearAll()
}

// CopyFrom overwrites b's cells with src's, for buffers of identical
// dimensions - used by the kernel to snapshot a producer's back buffer
// into the front buffer after a frame is presented.
func (b *Buffer) CopyFrom(src *Buffer) {
	copy(b.cells, src.cells)
}

// Region is a sub-rectangle view into a Buffer, translating local
// coordinates to the parent's coordinate space and automatically scissored
// to its bounds.
type Region struct {
	buf  *Buffer
	rect Rect
}

// NewRegion returns a Region over rect within buf. Writes through the
// Region are clipped to rect regardless of the Buffer's own scissor stack.
func NewRegion(buf *Buffer, rect Rect) *Region {
	return &Region{buf: buf, rect: rect.intersect(Rect{X: 0, Y: 0, W: buf.width, H: buf.height})}
}

func (rg *Region) Width() int  { return rg.rect.W }
func (rg *Region) Height() int { return rg.rect.H }

func (rg *Region) Put(x, y int, r rune, fg, bg Color, attrs Attr, link uint16) {
	if x < 0 || x >= rg.rect.W || y < 0 || y >= rg.rect.H {
		return
	}
	rg.buf.PushClip(rg.rect)
	defer rg.buf.PopClip()
	rg.buf.Put(rg.rect.X+x, rg.rect.Y+y, r, fg, bg, attrs, link)
}

func (rg *Region) PutString(x, y int, s string, fg, bg Color, attrs Attr, link uint16) {
	if y < 0 || y >= rg.rect.H {
		return
	}
	rg.buf.PushClip(rg.rect)
	defer rg.buf.PopClip()
	rg.buf.PutString(rg.rect.X+x, rg.rect.Y+y, s, fg, bg, attrs, link)
}

func (rg *Region) Clear() {
	rg.buf.Clear(rg.rect)
}

// Producer is the restricted view of a Buffer handed to per-frame render
// callbacks: scissor/opacity/write/measure only. It cannot Resize, clear
// the whole surface, or read back the front buffer - those are kernel-
// owned operations.
type Producer struct {
	buf *Buffer
}

func (p Producer) Width() int  { return p.buf.width }
func (p Producer) Height() int { return p.buf.height }

func (p Producer) PushClip(r Rect)   { p.buf.PushClip(r) }
func (p Producer) PopClip()          { p.buf.PopClip() }
func (p Producer) PushOpacity(o float32) { p.buf.PushOpacity(o) }
func (p Producer) PopOpacity()       { p.buf.PopOpacity() }

func (p Producer) Put(x, y int, r rune, fg, bg Color, attrs Attr, link uint16) {
	p.buf.Put(x, y, r, fg, bg, attrs, link)
}

func (p Producer) PutString(x, y int, s string, fg, bg Color, attrs Attr, link uint16) {
	p.buf.PutString(x, y, s, fg, bg, attrs, link)
}

func (p Producer) Region(r Rect) *Region {
	return NewRegion(p.buf, r)
}

// Link interns uri (with optional OSC-8 id parameter) and acquires it for
// this frame, returning the slot to pass as the link argument of Put/
// PutString/PutGrapheme. Call once per cell that carries the hyperlink;
// the registry's reference count is recomputed fresh every frame, so a
// link no longer acquired by any cell is eligible for recycling after
// the link registry's EndFrame runs.
func (p Producer) Link(uri, id string) uint16 {
	return p.buf.links.Acquire(uri, id)
}

// MeasureString returns the display width, in columns, that s would
// occupy if written with PutString - the measurement a producer consults
// before laying out text, honoring the same grapheme segmentation and
// wide-glyph rules PutString uses.
func (p Producer) MeasureString(s string) int {
	return runewidth.StringWidth(s)
}

// Producer returns the restricted view of b suitable for handing to a
// render callback.
func (b *Buffer) Producer() Producer {
	return Producer{buf: b}
}
