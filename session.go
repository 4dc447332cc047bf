package frankentui

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/charmbracelet/x/term"
	"golang.org/x/sys/unix"
)

// SessionState is a point in the terminal session's lifecycle. A session
// only ever moves forward: Created -> RawActive -> Restored. There is no
// path back to RawActive once Restored - a new Session must be created.
type SessionState int

const (
	SessionCreated SessionState = iota
	SessionRawActive
	SessionRestored
)

// Mode selects whether Enter switches to the alternate screen buffer or
// renders inline in the scrollback.
type Mode int

const (
	ModeAltScreen Mode = iota
	ModeInline
)

// Session owns the terminal's raw-mode lifecycle: saving and restoring
// termios, entering/exiting the alternate screen, and the ordered
// enable/disable of cursor visibility, bracketed paste, and focus events.
// Mouse reporting and kitty-keyboard modes are not enabled.
// Enter and Exit are idempotent and order-sensitive - features are
// disabled in the reverse of the order they were enabled, exactly
// mirroring a stack discipline even though no explicit stack is kept
// (the order is fixed at compile time).
type Session struct {
	fd  int
	out *os.File

	mu    sync.Mutex
	state SessionState
	mode  Mode

	origTermios *unix.Termios

	sigCh    chan os.Signal
	resizeCh chan Size

	// resetSeq is composed once, at Enter, and never mutated again: the
	// signal handler writes it directly with no further logic, since
	// anything more elaborate running inside a signal-driven goroutine
	// risks racing the very state it would need to inspect.
	resetSeq []byte
}

// Size is a terminal dimension in columns and rows.
type Size struct {
	Width, Height int
}

// NewSession returns a Session over out (typically os.Stdout), querying
// fd for termios and window size operations.
func NewSession(out *os.File) *Session {
	return &Session{
		fd:       int(out.Fd()),
		out:      out,
		sigCh:    make(chan os.Signal, 1),
		resizeCh: make(chan Size, 1),
	}
}

// TerminalSize returns the current terminal dimensions, via the
// cross-platform term.GetSize rather than a raw TIOCGWINSZ ioctl so the
// same code path works unmodified on every GOOS the raw-mode ioctls
// themselves need per-platform constants for.
func (s *Session) TerminalSize() (Size, error) {
	w, h, err := term.GetSize(uintptr(s.fd))
	if err != nil {
		return Size{}, fmt.Errorf("get window size: %w", err)
	}
	return Size{Width: w, Height: h}, nil
}

// ResizeChan returns a channel that receives a new Size whenever SIGWINCH
// reports a change.
func (s *Session) ResizeChan() <-chan Size { return s.resizeCh }

// State returns the session's current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Enter puts the terminal into raw mode for the given mode, in a fixed
// order: save termios, set raw attributes, switch to the alternate
// screen (ModeAltScreen only), clear, hide the cursor, enable bracketed
// paste, enable focus reporting. Calling Enter on an already-active
// session is a no-op.
func (s *Session) Enter(mode Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionCreated {
		return nil
	}

	termios, err := unix.IoctlGetTermios(s.fd, ioctlGetTermios)
	if err != nil {
		return fmt.Errorf("get termios: %w", err)
	}
	s.origTermios = termios

	raw := *termios
	raw.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	raw.Oflag &^= unix.OPOST
	raw.Cflag |= unix.CS8
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.ISIG | unix.IEXTEN
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(s.fd, ioctlSetTermios, &raw); err != nil {
		return fmt.Errorf("set raw mode: %w", err)
	}

	s.mode = mode

	var enable, disable []byte
	if mode == ModeAltScreen {
		enable = append(enable, "\x1b[?1049h"...) // alt screen
		enable = append(enable, "\x1b[2J\x1b[H"...) // clear, home
		disable = append(disable, "\x1b[?1049l"...)
	}
	enable = append(enable, "\x1b[?25l"...)   // hide cursor
	enable = append(enable, "\x1b[?2004h"...) // bracketed paste
	enable = append(enable, "\x1b[?1004h"...) // focus events

	disable = append([]byte("\x1b[?1004l\x1b[?2004l\x1b[?25h"), disable...)
	disable = append(disable, "\x1b[0m"...)

	s.resetSeq = disable

	if _, err := s.out.Write(enable); err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}

	s.state = SessionRawActive

	signal.Notify(s.sigCh, syscall.SIGWINCH, syscall.SIGINT, syscall.SIGTERM)
	go s.handleSignals()

	return nil
}

// handleSignals services SIGWINCH by publishing a resize, and SIGINT/
// SIGTERM by writing the pre-composed reset sequence directly (no lock,
// no buffer diffing, nothing that could itself be mid-mutation) and then
// exiting the process - a signal-safe best-effort restoration for the
// case where the caller's own defer chain never runs (e.g. the process
// is killed while blocked in a syscall).
func (s *Session) handleSignals() {
	for sig := range s.sigCh {
		switch sig {
		case syscall.SIGWINCH:
			size, err := s.TerminalSize()
			if err != nil {
				continue
			}
			select {
			case s.resizeCh <- size:
			default:
			}
		case syscall.SIGINT, syscall.SIGTERM:
			s.out.Write(s.resetSeq)
			unix.IoctlSetTermios(s.fd, ioctlSetTermios, s.origTermios)
			os.Exit(130)
		}
	}
}

// Exit restores the terminal to its pre-Enter state, undoing feature
// enables in reverse order and restoring the saved termios. It is
// idempotent: calling Exit more than once, or calling it on a session
// that never successfully Entered, is always safe.
func (s *Session) Exit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionRawActive {
		return nil
	}

	signal.Stop(s.sigCh)

	if _, err := s.out.Write(s.resetSeq); err != nil {
		return fmt.Errorf("restore terminal: %w", err)
	}

	if s.origTermios != nil {
		if err := unix.IoctlSetTermios(s.fd, ioctlSetTermios, s.origTermios); err != nil {
			return fmt.Errorf("restore termios: %w", err)
		}
	}

	s.state = SessionRestored
	return nil
}

// Guard returns a function meant to be deferred immediately after a
// successful Enter: it calls Exit to restore the terminal, then
// re-panics if the caller was unwinding from a panic, so a crash never
// leaves the terminal stuck in raw mode with a hidden cursor.
func (s *Session) Guard() func() {
	return func() {
		r := recover()
		s.Exit()
		if r != nil {
			panic(r)
		}
	}
}
