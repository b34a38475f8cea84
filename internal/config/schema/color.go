package schema

import (
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a validated color value.
type Color struct {
	R, G, B uint8

	// A is the alpha channel in [0, 1]. Opaque colors have A == 1.
	A float64
}

// Value returns the raw document form: [r, g, b] or [r, g, b, a].
func (c Color) Value(withAlpha bool) []any {
	v := []any{int64(c.R), int64(c.G), int64(c.B)}
	if withAlpha {
		v = append(v, c.A)
	}
	return v
}

// Hex returns the color as #rrggbb, ignoring alpha.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Colorful converts to a go-colorful color for blending and conversions.
func (c Color) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}

// String implements fmt.Stringer.
func (c Color) String() string {
	if c.A == 1 {
		return c.Hex()
	}
	return fmt.Sprintf("%s@%g", c.Hex(), c.A)
}

// parseColor decodes a raw document value into a Color.
// It returns a non-empty reason when the value is malformed.
func parseColor(value any, withAlpha bool) (Color, string) {
	if s, ok := value.(string); ok {
		return parseHexColor(s)
	}

	channels := toSlice(value)
	if channels == nil {
		return Color{}, fmt.Sprintf("expected color, got %T", value)
	}
	want := 3
	if withAlpha {
		want = 4
	}
	if len(channels) != want {
		return Color{}, fmt.Sprintf("color needs %d channels, got %d", want, len(channels))
	}

	var rgb [3]uint8
	for i := 0; i < 3; i++ {
		if !isNumber(channels[i]) {
			return Color{}, fmt.Sprintf("channel %d is %T, not a number", i, channels[i])
		}
		f := toFloat64(channels[i])
		if f < 0 || f > 255 || f != math.Trunc(f) {
			return Color{}, fmt.Sprintf("channel %d value %v outside [0,255]", i, channels[i])
		}
		rgb[i] = uint8(f)
	}

	c := Color{R: rgb[0], G: rgb[1], B: rgb[2], A: 1}
	if withAlpha {
		if !isNumber(channels[3]) {
			return Color{}, fmt.Sprintf("alpha is %T, not a number", channels[3])
		}
		a := toFloat64(channels[3])
		if a < 0 || a > 1 || math.IsNaN(a) {
			return Color{}, fmt.Sprintf("alpha %v outside [0.0,1.0]", channels[3])
		}
		c.A = a
	}
	return c, ""
}

func parseHexColor(s string) (Color, string) {
	if !strings.HasPrefix(s, "#") {
		return Color{}, fmt.Sprintf("invalid color string %q", s)
	}
	cf, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Sprintf("invalid hex color %q", s)
	}
	r, g, b := cf.RGB255()
	return Color{R: r, G: g, B: b, A: 1}, ""
}
