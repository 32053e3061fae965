package scene

import (
	"math"
	"strconv"
	"strings"
)

const (
	darkInk  = "#1f1f1f"
	lightInk = "#ffffff"
)

// ContrastColor picks a legible text color for the given background. Colors
// that cannot be parsed are treated as light paper.
func ContrastColor(background string) string {
	r, g, b, ok := ParseHexColor(background)
	if !ok {
		return darkInk
	}
	if relativeLuminance(r, g, b) > 0.179 {
		return darkInk
	}
	return lightInk
}

// ParseHexColor accepts #rgb, #rrggbb and #rrggbbaa (alpha ignored).
func ParseHexColor(s string) (r, g, b uint8, ok bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	case 6:
	case 8:
		s = s[:6]
	default:
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), true
}

// relativeLuminance follows the WCAG definition.
func relativeLuminance(r, g, b uint8) float64 {
	lin := func(c uint8) float64 {
		v := float64(c) / 255
		if v <= 0.03928 {
			return v / 12.92
		}
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return 0.2126*lin(r) + 0.7152*lin(g) + 0.0722*lin(b)
}
