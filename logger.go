package frankentui

import (
	"log"
	"os"
)

// Logger receives non-fatal diagnostics: grapheme-pool id exhaustion,
// a wide glyph write dropped at a clip/buffer margin, and opacity values
// clamped into [0, 1]. None of these abort the frame in progress; they are
// reported the way a Producer-facing error is meant to be surfaced.
type Logger interface {
	Printf(format string, args ...any)
}

// nopLogger discards every message. It is the zero value a Buffer or
// GraphemePool starts with until SetLogger is called.
type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// stderrLogger writes through a standard log.Logger, gated by enabled so
// diagnostics stay silent unless explicitly turned on, rather than
// always-on logging.
type stderrLogger struct {
	enabled bool
	l       *log.Logger
}

func (s *stderrLogger) Printf(format string, args ...any) {
	if !s.enabled {
		return
	}
	s.l.Printf(format, args...)
}

// DefaultLogger returns the package's default diagnostic sink: silent
// unless FRANKENTUI_DEBUG_FLUSH is set in the environment.
func DefaultLogger() Logger {
	return &stderrLogger{
		enabled: os.Getenv("FRANKENTUI_DEBUG_FLUSH") != "",
		l:       log.New(os.Stderr, "frankentui: ", log.LstdFlags),
	}
}
