package frankentui

import "testing"

func newTestBuffer(w, h int) *Buffer {
	return NewBuffer(w, h, NewGraphemePool(), NewLinkRegistry())
}

func TestBufferPut(t *testing.T) {
	t.Run("writes and reads back a cell", func(t *testing.T) {
		buf := newTestBuffer(10, 5)
		buf.Put(3, 2, 'Z', RGB(1, 2, 3), DefaultColor(), AttrBold, 0)

		got := buf.Get(3, 2)
		if got.Rune() != 'Z' {
			t.Fatalf("Rune() = %q, want 'Z'", got.Rune())
		}
		if got.Foreground() != RGB(1, 2, 3) {
			t.Fatalf("Foreground() = %+v", got.Foreground())
		}
	})

	t.Run("out of bounds is silently dropped", func(t *testing.T) {
		buf := newTestBuffer(10, 5)
		buf.Put(100, 100, 'Z', DefaultColor(), DefaultColor(), 0, 0)
		if buf.Get(100, 100) != EmptyCell() {
			t.Fatal("out-of-bounds Get should return EmptyCell")
		}
	})
}

func TestBufferWidePair(t *testing.T) {
	t.Run("places owner and continuation together", func(t *testing.T) {
		buf := newTestBuffer(10, 5)
		buf.Put(4, 0, '宽', DefaultColor(), DefaultColor(), 0, 0)

		owner := buf.Get(4, 0)
		cont := buf.Get(5, 0)
		if owner.Width() != 2 {
			t.Fatalf("owner width = %d, want 2", owner.Width())
		}
		if !cont.IsContinuation() {
			t.Fatal("expected a Continuation cell at the following column")
		}
	})

	t.Run("dropped at the right margin, no dangling continuation", func(t *testing.T) {
		buf := newTestBuffer(10, 5)
		buf.Put(9, 0, '宽', RGB(9, 9, 9), DefaultColor(), 0, 0)

		got := buf.Get(9, 0)
		if got.IsContinuation() {
			t.Fatal("margin write must not create a Continuation at column 0 of nothing")
		}
		if got != EmptyCell() {
			t.Fatalf("margin write must be dropped entirely, got %+v, want EmptyCell()", got)
		}
	})

	t.Run("overwriting one half of a pair clears both", func(t *testing.T) {
		buf := newTestBuffer(10, 5)
		buf.Put(2, 0, '宽', DefaultColor(), DefaultColor(), 0, 0)
		buf.Put(2, 0, 'a', DefaultColor(), DefaultColor(), 0, 0)

		if buf.Get(3, 0).IsContinuation() {
			t.Fatal("replacing the wide owner with a scalar cell must clear the stale continuation")
		}
	})
}

func TestBufferScissor(t *testing.T) {
	buf := newTestBuffer(10, 10)

	buf.PushClip(Rect{X: 2, Y: 2, W: 4, H: 4})
	buf.PushClip(Rect{X: 0, Y: 0, W: 100, H: 100}) // must not enlarge
	if got := buf.clip(); got != (Rect{X: 2, Y: 2, W: 4, H: 4}) {
		t.Fatalf("push did not intersect monotonically: %+v", got)
	}
	buf.PopClip()
	buf.PopClip()
	if got := buf.clip(); got != (Rect{X: 0, Y: 0, W: 10, H: 10}) {
		t.Fatalf("clip after balanced pop/push = %+v, want full bounds", got)
	}

	buf.PushClip(Rect{X: 5, Y: 5, W: 2, H: 2})
	buf.Put(0, 0, 'X', DefaultColor(), DefaultColor(), 0, 0)
	if buf.Get(0, 0).Rune() == 'X' {
		t.Fatal("write outside the active scissor should have been dropped")
	}
	buf.PopClip()
}

func TestBufferOpacity(t *testing.T) {
	buf := newTestBuffer(4, 4)

	buf.PushOpacity(2.0) // out of range, must clamp to 1
	if got := buf.opacity(); got != 1 {
		t.Fatalf("opacity after clamp-high = %v, want 1", got)
	}
	buf.PopOpacity()

	buf.PushOpacity(0.5)
	buf.PushOpacity(0.5)
	if got := buf.opacity(); got < 0.249 || got > 0.251 {
		t.Fatalf("stacked opacity = %v, want ~0.25", got)
	}
	buf.PopOpacity()
	buf.PopOpacity()
	if got := buf.opacity(); got != 1 {
		t.Fatalf("opacity after balanced pops = %v, want 1", got)
	}
}

func TestBufferResize(t *testing.T) {
	buf := newTestBuffer(10, 10)
	buf.Put(0, 0, 'X', DefaultColor(), DefaultColor(), 0, 0)

	buf.Resize(20, 5)
	if buf.Width() != 20 || buf.Height() != 5 {
		t.Fatalf("size after resize = %dx%d, want 20x5", buf.Width(), buf.Height())
	}
	if !buf.RowDirty(0) {
		t.Fatal("resize must mark every row dirty for the next diff")
	}
}

func TestBufferDirtyRows(t *testing.T) {
	buf := newTestBuffer(5, 5)
	buf.ClearDirtyFlags()

	if buf.RowDirty(2) {
		t.Fatal("freshly cleared dirty flags should report no dirty rows")
	}
	buf.Put(1, 2, 'A', DefaultColor(), DefaultColor(), 0, 0)
	if !buf.RowDirty(2) {
		t.Fatal("a write should mark its row dirty")
	}
	if buf.RowDirty(3) {
		t.Fatal("writing row 2 must not mark row 3 dirty")
	}
}

func TestRegionClipsToItsRect(t *testing.T) {
	buf := newTestBuffer(20, 20)
	region := NewRegion(buf, Rect{X: 5, Y: 5, W: 3, H: 3})

	region.Put(0, 0, 'R', RGB(1, 1, 1), DefaultColor(), 0, 0)
	if buf.Get(5, 5).Rune() != 'R' {
		t.Fatal("region write should land translated into the parent buffer")
	}

	region.Put(10, 10, 'X', DefaultColor(), DefaultColor(), 0, 0) // outside the region's own bounds
	if buf.Get(15, 15).Rune() == 'X' {
		t.Fatal("region write outside its own rect must be dropped")
	}
}

func TestProducerLinkAcquire(t *testing.T) {
	links := NewLinkRegistry()
	buf := NewBuffer(10, 10, NewGraphemePool(), links)
	p := buf.Producer()

	slot := p.Link("https://example.com", "")
	if slot == 0 {
		t.Fatal("Link should acquire a non-zero slot for a non-empty URI")
	}
	uri, _ := links.URI(slot)
	if uri != "https://example.com" {
		t.Fatalf("URI(%d) = %q", slot, uri)
	}
}
