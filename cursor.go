package frankentui

// CursorShape is the terminal cursor shape, set via DECSCUSR (CSI N SP q).
type CursorShape int

const (
	CursorDefault        CursorShape = 0
	CursorBlockBlink     CursorShape = 1
	CursorBlock          CursorShape = 2
	CursorUnderlineBlink CursorShape = 3
	CursorUnderline      CursorShape = 4
	CursorBarBlink       CursorShape = 5
	CursorBar            CursorShape = 6
)

// CursorState is the cursor position and style a Producer requests for
// the end of the current frame. The Presenter reconciles X, Y and Visible
// against its tracked physical cursor once per frame, after all change
// runs are emitted; Shape is carried but not emitted.
type CursorState struct {
	X, Y    int
	Shape   CursorShape
	Visible bool
}

// DefaultCursorState returns a visible block cursor at the origin.
func DefaultCursorState() CursorState {
	return CursorState{Shape: CursorBlock, Visible: true}
}
