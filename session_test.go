package frankentui

import (
	"os"
	"testing"
)

// Enter/Exit depend on a real controlling terminal for the termios and
// window-size ioctls; there is no tty available under `go test`, so
// these tests cover the state-machine guarantees that don't require one.

func TestSessionStartsCreated(t *testing.T) {
	s := NewSession(os.Stdout)
	if s.State() != SessionCreated {
		t.Fatalf("State() = %v, want SessionCreated", s.State())
	}
}

func TestSessionExitBeforeEnterIsNoop(t *testing.T) {
	s := NewSession(os.Stdout)
	if err := s.Exit(); err != nil {
		t.Fatalf("Exit() on a never-entered session = %v, want nil", err)
	}
	if s.State() != SessionCreated {
		t.Fatalf("State() after a no-op Exit = %v, want unchanged SessionCreated", s.State())
	}
}

func TestSessionGuardRecoversAndRepanics(t *testing.T) {
	s := NewSession(os.Stdout)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Guard should re-panic after recovering")
		}
	}()
	defer s.Guard()
	panic("boom")
}
