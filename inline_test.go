package frankentui

import (
	"bytes"
	"testing"
)

func TestInlinePolicyClip(t *testing.T) {
	ip := NewInlinePolicy(3)
	if got := ip.Clip(40); got != (Rect{X: 0, Y: 0, W: 40, H: 3}) {
		t.Fatalf("Clip(40) = %+v", got)
	}
}

func TestInlinePolicyResize(t *testing.T) {
	ip := NewInlinePolicy(3)
	ip.Resize(5)
	if ip.Rows() != 5 {
		t.Fatalf("Rows() after Resize(5) = %d", ip.Rows())
	}
}

func TestInlinePolicyRenderFullCoversEveryRow(t *testing.T) {
	ip := NewInlinePolicy(3)
	back := newTestBuffer(10, 3)
	fillBuffer(back, 'x')
	back.MarkAllDirty()

	caps := Capabilities{ColorDepth: DepthTrueColor, Unicode: true}
	p := NewPresenter(caps, back.links, back.graphemes)

	out := ip.RenderFull(back, p)
	if !bytes.Contains(out, []byte("x")) {
		t.Fatalf("RenderFull output %q does not contain the buffer content", out)
	}
	if ip.lastLinesRendered != 3 {
		t.Fatalf("lastLinesRendered = %d, want 3", ip.lastLinesRendered)
	}
}

func TestInlinePolicyParkMovesBelowBlock(t *testing.T) {
	ip := NewInlinePolicy(3)
	back := newTestBuffer(10, 3)
	caps := Capabilities{ColorDepth: DepthTrueColor}
	p := NewPresenter(caps, back.links, back.graphemes)
	ip.RenderFull(back, p)

	park := ip.Park()
	if !bytes.Contains(park, []byte("\x1b[2B")) {
		t.Fatalf("Park() after a 3-line block = %q, want a 2-row cursor-down sequence", park)
	}
	if !bytes.HasSuffix(park, []byte("\r\n")) {
		t.Fatalf("Park() = %q, want it to end at column 0 of a fresh line", park)
	}
}

func TestInlinePolicyExitClearErasesEveryRow(t *testing.T) {
	ip := NewInlinePolicy(2)
	back := newTestBuffer(10, 2)
	caps := Capabilities{ColorDepth: DepthTrueColor}
	p := NewPresenter(caps, back.links, back.graphemes)
	ip.RenderFull(back, p)

	clear := ip.ExitClear()
	if bytes.Count(clear, []byte("\x1b[2K")) != 2 {
		t.Fatalf("ExitClear() = %q, want one erase-line sequence per rendered row", clear)
	}
}
