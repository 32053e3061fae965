package scene

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestFromTransformPivotsAroundCenter(t *testing.T) {
	m := FromTransform(10, 20, 1, 1, 90, 50, 25)
	cx, cy := m.TransformPoint(50, 25)
	assertNear(t, "cx", cx, 60)
	assertNear(t, "cy", cy, 45)

	// Top-left corner rotates a quarter turn around the center.
	x, y := m.TransformPoint(0, 0)
	assertNear(t, "x", x, 85)
	assertNear(t, "y", y, -5)
}

func TestInvertRoundTrip(t *testing.T) {
	m := FromTransform(7, -3, 1.5, 2, 200, 10, 10)
	id := m.Multiply(m.Invert())
	for i, want := range Identity() {
		if math.Abs(id[i]-want) > 1e-10 {
			t.Fatalf("m * inv(m) = %v, want identity", id)
		}
	}
}

func TestTransformRectRotated(t *testing.T) {
	m := FromTransform(0, 0, 1, 1, 45, 50, 50)
	r := m.TransformRect(Rect{Width: 100, Height: 100})
	side := 100 * math.Sqrt2
	assertNear(t, "width", r.Width, side)
	assertNear(t, "height", r.Height, side)
	assertNear(t, "cx", r.X+r.Width/2, 50)
	assertNear(t, "cy", r.Y+r.Height/2, 50)
}

func TestNormalizeDegrees(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0}, {359, 359}, {360, 0}, {-90, 270}, {725, 5}, {-720, 0}, {math.NaN(), 0},
	}
	for _, tt := range tests {
		assertNear(t, "normalize", NormalizeDegrees(tt.in), tt.want)
	}
}

func TestContrastColor(t *testing.T) {
	tests := []struct{ bg, want string }{
		{"#ffffff", darkInk},
		{"#fff", darkInk},
		{"#f5e8c7", darkInk},
		{"#0f0f0f", lightInk},
		{"#0a0015", lightInk},
		{"black", darkInk}, // unparseable
	}
	for _, tt := range tests {
		if got := ContrastColor(tt.bg); got != tt.want {
			t.Errorf("ContrastColor(%q) = %q, want %q", tt.bg, got, tt.want)
		}
	}
}
