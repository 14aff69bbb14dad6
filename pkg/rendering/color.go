package rendering

import (
	"fmt"
	"image/color"
)

// Color is stored as ARGB (0xAARRGGBB).
type Color uint32

// RGBA constructs a Color from red, green, blue, alpha bytes.
func RGBA(r, g, b, a uint8) Color {
	return Color(uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// RGB constructs an opaque Color from red, green, blue bytes.
func RGB(r, g, b uint8) Color {
	return RGBA(r, g, b, 0xFF)
}

// Components returns the red, green, blue and alpha bytes.
func (c Color) Components() (r, g, b, a uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c), uint8(c >> 24)
}

// WithAlpha returns a copy of the color with the given alpha (0-255).
func (c Color) WithAlpha(a uint8) Color {
	return Color(uint32(a)<<24 | uint32(c)&0x00FFFFFF)
}

// Transparent reports whether the color has zero alpha.
func (c Color) Transparent() bool {
	return uint8(c>>24) == 0
}

// Hex returns the color as #rrggbb, dropping alpha.
func (c Color) Hex() string {
	r, g, b, _ := c.Components()
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// NRGBA converts to the standard library color model.
func (c Color) NRGBA() color.NRGBA {
	r, g, b, a := c.Components()
	return color.NRGBA{R: r, G: g, B: b, A: a}
}

// FromColor converts any color.Color.
func FromColor(src color.Color) Color {
	n := color.NRGBAModel.Convert(src).(color.NRGBA)
	return RGBA(n.R, n.G, n.B, n.A)
}

// Common colors.
var (
	ColorTransparent = Color(0x00000000)
	ColorBlack       = Color(0xFF000000)
	ColorWhite       = Color(0xFFFFFFFF)
	ColorRed         = Color(0xFFFF0000)
	ColorGreen       = Color(0xFF00FF00)
	ColorBlue        = Color(0xFF0000FF)
)
