package frankentui

import (
	"testing"

	headlessterm "github.com/danielgatis/go-headless-term"
)

// renderToTerminal runs one Present cycle and feeds the resulting bytes
// into a VT220 model, returning the model for the caller to inspect -
// verifies diff correctness against a real terminal emulator rather
// than a hand-rolled model.
func renderToTerminal(t *testing.T, back *Buffer, runs []RowRuns, cursor CursorState) *headlessterm.Terminal {
	t.Helper()
	caps := Capabilities{ColorDepth: DepthTrueColor, Unicode: true, Hyperlinks: true}
	p := NewPresenter(caps, back.links, back.graphemes)
	out := p.Present(back, runs, cursor)

	term := headlessterm.New(headlessterm.WithSize(back.Height(), back.Width()))
	if _, err := term.Write(out); err != nil {
		t.Fatalf("terminal model rejected presenter output: %v", err)
	}
	return term
}

func assertTerminalMatchesBack(t *testing.T, term *headlessterm.Terminal, back *Buffer) {
	t.Helper()
	for y := 0; y < back.Height(); y++ {
		for x := 0; x < back.Width(); x++ {
			cell := back.Get(x, y)
			if cell.IsContinuation() {
				continue
			}
			want := cell.Rune()
			if cell.IsGrapheme() {
				cluster, _ := back.graphemes.Lookup(cell.GraphemeID())
				if len([]rune(cluster)) > 0 {
					want = []rune(cluster)[0]
				}
			}
			got := term.Cell(y, x)
			if got == nil {
				t.Fatalf("terminal model has no cell at (%d,%d)", x, y)
			}
			if want == 0 {
				continue // zero-width combining marks are not modeled here
			}
			if got.Char != want {
				t.Errorf("(%d,%d): terminal shows %q, back wants %q", x, y, got.Char, want)
			}
		}
	}
}

func TestPresenterFullRepaintReproducesBack(t *testing.T) {
	front := newTestBuffer(20, 5)
	back := newTestBuffer(20, 5)
	fillBuffer(front, ' ')
	fillBuffer(back, 'X')
	back.MarkAllDirty()

	runs := NewDiffer().Diff(front, back)
	term := renderToTerminal(t, back, runs, DefaultCursorState())
	assertTerminalMatchesBack(t, term, back)
}

func TestPresenterSparseDiffMinimalBytes(t *testing.T) {
	front := newTestBuffer(20, 20)
	back := newTestBuffer(20, 20)
	front.Put(0, 0, 'A', DefaultColor(), DefaultColor(), 0, 0)
	back.Put(0, 0, 'A', DefaultColor(), DefaultColor(), 0, 0)
	back.Put(10, 5, 'A', DefaultColor(), DefaultColor(), 0, 0)

	runs := NewDiffer().Diff(front, back)
	caps := Capabilities{ColorDepth: DepthTrueColor, Unicode: true}
	p := NewPresenter(caps, back.links, back.graphemes)
	out := p.Present(back, runs, CursorState{X: 0, Y: 0, Visible: true})

	if len(out) > 40 {
		t.Fatalf("sparse single-cell diff emitted %d bytes, expected a minimal stream: %q", len(out), out)
	}

	term := headlessterm.New(headlessterm.WithSize(20, 20))
	term.Write(out)
	if got := term.Cell(5, 10); got == nil || got.Char != 'A' {
		t.Fatalf("expected 'A' at (5,10), got %+v", got)
	}
}

func TestPresenterLinkOpenClose(t *testing.T) {
	back := newTestBuffer(20, 1)
	front := newTestBuffer(20, 1)

	p := back.Producer()
	slotA := p.Link("https://a.example", "")
	for x := 0; x < 5; x++ {
		back.Put(x, 0, 'a', DefaultColor(), DefaultColor(), 0, slotA)
	}
	slotB := p.Link("https://b.example", "")
	for x := 5; x < 10; x++ {
		back.Put(x, 0, 'b', DefaultColor(), DefaultColor(), 0, slotB)
	}
	back.MarkAllDirty()

	runs := NewDiffer().Diff(front, back)
	caps := Capabilities{ColorDepth: DepthTrueColor, Hyperlinks: true}
	pr := NewPresenter(caps, back.links, back.graphemes)
	out := pr.Present(back, runs, DefaultCursorState())

	term := headlessterm.New(headlessterm.WithSize(1, 20))
	term.Write(out)
	assertTerminalMatchesBack(t, term, back)
}

func TestPresenterNoStyleChangeWhenDefault(t *testing.T) {
	front := newTestBuffer(10, 1)
	back := newTestBuffer(10, 1)
	front.Put(0, 0, 'A', DefaultColor(), DefaultColor(), 0, 0)
	back.Put(0, 0, 'A', DefaultColor(), DefaultColor(), 0, 0)
	back.Put(5, 0, 'A', DefaultColor(), DefaultColor(), 0, 0)

	runs := NewDiffer().Diff(front, back)
	caps := Capabilities{ColorDepth: DepthTrueColor}
	p := NewPresenter(caps, back.links, back.graphemes)
	out := p.Present(back, runs, CursorState{Visible: true})

	for i := 0; i+1 < len(out); i++ {
		if out[i] == 0x1b && out[i+1] == '[' {
			j := i + 2
			for j < len(out) && out[j] != 'm' {
				j++
			}
			if j < len(out) {
				t.Fatalf("unexpected SGR sequence in default-style frame: %q", out[i:j+1])
			}
		}
	}
}
