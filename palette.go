package frankentui

import "github.com/lucasb-eyer/go-colorful"

// ansi16Palette holds the standard CGA-derived 16-color palette in Lab-
// comparable form, indexed identically to Color16's Index field.
var ansi16Palette = [16]colorful.Color{
	rgb8(0x00, 0x00, 0x00), rgb8(0x80, 0x00, 0x00), rgb8(0x00, 0x80, 0x00), rgb8(0x80, 0x80, 0x00),
	rgb8(0x00, 0x00, 0x80), rgb8(0x80, 0x00, 0x80), rgb8(0x00, 0x80, 0x80), rgb8(0xc0, 0xc0, 0xc0),
	rgb8(0x80, 0x80, 0x80), rgb8(0xff, 0x00, 0x00), rgb8(0x00, 0xff, 0x00), rgb8(0xff, 0xff, 0x00),
	rgb8(0x00, 0x00, 0xff), rgb8(0xff, 0x00, 0xff), rgb8(0x00, 0xff, 0xff), rgb8(0xff, 0xff, 0xff),
}

// ansi256Palette holds the full xterm 256-color cube: 16 system colors,
// a 6x6x6 color cube, and a 24-step grayscale ramp.
var ansi256Palette = buildANSI256Palette()

func rgb8(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

func buildANSI256Palette() [256]colorful.Color {
	var p [256]colorful.Color
	copy(p[:16], ansi16Palette[:])

	steps := [6]uint8{0, 95, 135, 175, 215, 255}
	i := 16
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				p[i] = rgb8(steps[r], steps[g], steps[b])
				i++
			}
		}
	}

	for step := 0; step < 24; step++ {
		v := uint8(8 + step*10)
		p[232+step] = rgb8(v, v, v)
	}
	return p
}
