package frankentui

import (
	"os"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-isatty"
	"github.com/xo/terminfo"
)

// ColorDepth is the deepest color representation a terminal is believed
// to support.
type ColorDepth int

const (
	DepthMono ColorDepth = iota
	Depth16
	Depth256
	DepthTrueColor
)

// Capabilities is the terminal feature set derived once at session start
// from environment variables and terminfo, and never mutated afterward -
// every component that consults it (Presenter, Writer, Session) reads an
// immutable snapshot for the lifetime of the process.
type Capabilities struct {
	ColorDepth  ColorDepth
	Unicode     bool // wide/grapheme-aware rendering safe to assume
	SyncOutput  bool // DEC 2026 synchronized update supported
	Hyperlinks  bool // OSC-8 supported
	Mouse       bool
	Multiplexer string // "tmux", "screen", "" if none detected
}

// DetectCapabilities derives a Capabilities snapshot from the process
// environment and the controlling terminal's terminfo entry, env-first
// with a terminfo fallback: an unrecognized or absent terminal degrades
// to the safest settings rather than assuming the richest ones.
func DetectCapabilities(fd int) Capabilities {
	caps := Capabilities{
		ColorDepth: Depth16,
		Unicode:    true,
	}

	if !isatty.IsTerminal(uintptr(fd)) {
		return Capabilities{ColorDepth: DepthMono, Unicode: false}
	}

	switch colorprofile.Detect(os.Stdout, os.Environ()) {
	case colorprofile.TrueColor:
		caps.ColorDepth = DepthTrueColor
	case colorprofile.ANSI256:
		caps.ColorDepth = Depth256
	case colorprofile.ANSI:
		caps.ColorDepth = Depth16
	case colorprofile.NoTTY, colorprofile.Ascii:
		caps.ColorDepth = DepthMono
	}

	// OSC-8 hyperlinks aren't a terminfo capability; most modern terminals
	// support them regardless of what the terminfo entry declares.
	caps.Hyperlinks = true

	term := os.Getenv("TERM")
	switch {
	case os.Getenv("TMUX") != "":
		caps.Multiplexer = "tmux"
	case term == "screen" || strings.HasPrefix(term, "screen-"):
		caps.Multiplexer = "screen"
	}

	if ti, err := terminfo.LoadFromEnv(); err == nil {
		// terminfo's "max_colors" numeric capability is a second,
		// independent source for color depth - refine what colorprofile
		// found rather than override it, since colorprofile's env-based
		// detection is the more reliable truecolor signal.
		if n := ti.Num(terminfo.MaxColors); n > 0 && caps.ColorDepth != DepthTrueColor {
			switch {
			case n >= 256 && caps.ColorDepth < Depth256:
				caps.ColorDepth = Depth256
			case n < 16:
				caps.ColorDepth = DepthMono
			}
		}

		// Fall back to the terminfo entry's own name aliases when the
		// environment didn't already identify a multiplexer - covers a
		// terminfo database entry like "screen.xterm-256color" sourced
		// from a TERM the env-based switch above doesn't recognize.
		if caps.Multiplexer == "" {
			for _, name := range ti.Names {
				switch {
				case strings.HasPrefix(name, "tmux"):
					caps.Multiplexer = "tmux"
				case name == "screen" || strings.HasPrefix(name, "screen.") || strings.HasPrefix(name, "screen-"):
					caps.Multiplexer = "screen"
				}
				if caps.Multiplexer != "" {
					break
				}
			}
		}
	}

	// Multiplexers frequently swallow or mistranslate DEC 2026; only
	// trust sync-output when nothing is interposed and TERM suggests a
	// modern emulator.
	caps.SyncOutput = caps.Multiplexer == "" && term != "" && term != "dumb"
	caps.Mouse = term != "" && term != "dumb"

	for _, override := range []struct {
		env string
		set func(string)
	}{
		{"FRANKENTUI_COLOR_DEPTH", func(v string) {
			switch v {
			case "mono":
				caps.ColorDepth = DepthMono
			case "16":
				caps.ColorDepth = Depth16
			case "256":
				caps.ColorDepth = Depth256
			case "truecolor":
				caps.ColorDepth = DepthTrueColor
			}
		}},
		{"FRANKENTUI_NO_SYNC", func(string) { caps.SyncOutput = false }},
		{"FRANKENTUI_NO_HYPERLINKS", func(string) { caps.Hyperlinks = false }},
		{"FRANKENTUI_NO_MOUSE", func(string) { caps.Mouse = false }},
	} {
		if v, ok := os.LookupEnv(override.env); ok {
			override.set(v)
		}
	}

	if os.Getenv("NO_COLOR") != "" {
		caps.ColorDepth = DepthMono
	}

	return caps
}

// Downsample reduces c to the deepest representation caps supports,
// nearest-matching true color down to a 256 or 16 color palette in Lab
// space so perceptually similar hues land together.
func Downsample(c Color, caps Capabilities) Color {
	if c.Mode != ColorRGB || caps.ColorDepth == DepthTrueColor {
		return c
	}
	if caps.ColorDepth == DepthMono {
		return DefaultColor()
	}

	target := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}

	if caps.ColorDepth == Depth16 {
		best, bestDist := 0, 1e9
		for i, p := range ansi16Palette {
			if d := target.DistanceLab(p); d < bestDist {
				best, bestDist = i, d
			}
		}
		return BasicColor(uint8(best))
	}

	best, bestDist := 0, 1e9
	for i, p := range ansi256Palette {
		if d := target.DistanceLab(p); d < bestDist {
			best, bestDist = i, d
		}
	}
	return PaletteColor(uint8(best))
}
