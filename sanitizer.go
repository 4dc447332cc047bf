package frankentui

import "strings"

// MaxSanitizedBytes bounds a single Sanitize call's output, defending
// against a caller passing unbounded or adversarial input (e.g. untrusted
// process output relayed into a cell's text) that would otherwise grow
// the output buffer without limit.
const MaxSanitizedBytes = 1 << 16

// Sanitizer strips or neutralizes terminal control sequences from text
// before it reaches a Cell, so a producer writing untrusted bytes (a
// subprocess's stdout, a pasted clipboard, a log line) can never smuggle
// an escape sequence into the presented frame.
type Sanitizer struct {
	// TabWidth is the number of columns a tab expands to. Zero means 8,
	// the conventional terminal default.
	TabWidth int
}

// NewSanitizer returns a Sanitizer with the default 8-column tab stop.
func NewSanitizer() *Sanitizer { return &Sanitizer{TabWidth: 8} }

// Sanitize returns a copy of s with C0 control codes and DEL dropped
// (except tab, which is expanded to spaces, and newline, left untouched
// for the caller to split on), the ESC introducer dropped unless trusted
// is true, C1 control codes (including the 8-bit CSI/OSC/DCS introducers)
// replaced with U+FFFD whether or not trusted is set, and output bounded
// to MaxSanitizedBytes.
func (sn *Sanitizer) Sanitize(s string, trusted bool) string {
	tabWidth := sn.TabWidth
	if tabWidth <= 0 {
		tabWidth = 8
	}

	var b strings.Builder
	col := 0
	for _, r := range s {
		if b.Len() >= MaxSanitizedBytes {
			break
		}
		switch {
		case r == '\t':
			n := tabWidth - col%tabWidth
			for i := 0; i < n; i++ {
				b.WriteByte(' ')
			}
			col += n
		case r == '\n':
			b.WriteRune(r)
			col = 0
		case r == 0x1b: // ESC: CSI/OSC/DCS/etc introducer
			if !trusted {
				continue
			}
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			// other C0 controls and DEL: drop
			continue
		case r >= 0x80 && r <= 0x9f:
			// C1 controls, including the 8-bit CSI/OSC introducers: replace
			b.WriteRune('�')
			col++
		default:
			b.WriteRune(r)
			col++
		}
	}
	return b.String()
}
