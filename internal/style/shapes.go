package style

import "sort"

// ShapeBox is the side of the square every shape and mask path is drawn in.
const ShapeBox = 100

// PathCommand is a single path segment in Canvas2D form:
// ["M", x, y], ["L", x, y], ["Q", cx, cy, x, y], ["C", x1, y1, x2, y2, x, y], ["Z"].
type PathCommand []any

// Op returns the segment verb.
func (c PathCommand) Op() string {
	if len(c) == 0 {
		return ""
	}
	op, _ := c[0].(string)
	return op
}

// Args returns the numeric operands of the segment.
func (c PathCommand) Args() []float64 {
	if len(c) < 2 {
		return nil
	}
	out := make([]float64, 0, len(c)-1)
	for _, v := range c[1:] {
		out = append(out, toFloat64(v))
	}
	return out
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

var shapes = map[string]func() []PathCommand{
	"square":           func() []PathCommand { return roundedRect(0, 0, 100, 100, 12) },
	"rectangle":        func() []PathCommand { return roundedRect(0, 20, 100, 60, 8) },
	"circle":           func() []PathCommand { return ellipse(50, 50, 45, 45) },
	"ellipse":          func() []PathCommand { return ellipse(50, 50, 45, 30) },
	"triangle":         func() []PathCommand { return polygon(50, 10, 90, 90, 10, 90) },
	"invertedTriangle": func() []PathCommand { return polygon(50, 90, 90, 10, 10, 10) },
	"diamond":          func() []PathCommand { return polygon(50, 10, 90, 50, 50, 90, 10, 50) },
	"pentagon":         func() []PathCommand { return polygon(50, 10, 90, 35, 80, 90, 20, 90, 10, 35) },
	"hexagon":          func() []PathCommand { return polygon(25, 10, 75, 10, 90, 50, 75, 90, 25, 90, 10, 50) },
	"star":             func() []PathCommand { return polygon(50, 10, 61, 35, 90, 35, 65, 55, 75, 90, 50, 70, 25, 90, 35, 55, 10, 35, 39, 35) },
	"star4":            func() []PathCommand { return polygon(50, 10, 60, 40, 90, 50, 60, 60, 50, 90, 40, 60, 10, 50, 40, 40) },
	"heart": func() []PathCommand {
		return []PathCommand{
			{"M", 50.0, 30.0},
			{"Q", 20.0, 0.0, 0.0, 30.0},
			{"Q", 0.0, 60.0, 25.0, 80.0},
			{"Q", 50.0, 100.0, 75.0, 80.0},
			{"Q", 100.0, 60.0, 100.0, 30.0},
			{"Q", 80.0, 0.0, 50.0, 30.0},
			{"Z"},
		}
	},
	// The cloud overhangs the box to the right; it is squeezed to fit.
	"cloud": func() []PathCommand {
		return ScalePath([]PathCommand{
			{"M", 20.0, 60.0},
			{"Q", 0.0, 40.0, 20.0, 20.0},
			{"Q", 40.0, 0.0, 60.0, 20.0},
			{"Q", 80.0, 0.0, 100.0, 20.0},
			{"Q", 120.0, 40.0, 100.0, 60.0},
			{"Q", 80.0, 80.0, 60.0, 60.0},
			{"Q", 40.0, 80.0, 20.0, 60.0},
			{"Z"},
		}, 100.0/120, 1)
	},
}

// Shape returns the outline of shape id in a ShapeBox square.
func Shape(id string) ([]PathCommand, bool) {
	gen, ok := shapes[id]
	if !ok {
		return nil, false
	}
	return gen(), true
}

// ShapeIDs lists the known shape identifiers, sorted.
func ShapeIDs() []string {
	ids := make([]string, 0, len(shapes))
	for id := range shapes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ScalePath returns a copy of path with every coordinate scaled.
func ScalePath(path []PathCommand, sx, sy float64) []PathCommand {
	out := make([]PathCommand, len(path))
	for i, cmd := range path {
		scaled := PathCommand{cmd.Op()}
		for j, v := range cmd.Args() {
			if j%2 == 0 {
				scaled = append(scaled, v*sx)
			} else {
				scaled = append(scaled, v*sy)
			}
		}
		out[i] = scaled
	}
	return out
}

// FitPath scales a ShapeBox path to a w by h box.
func FitPath(path []PathCommand, w, h float64) []PathCommand {
	return ScalePath(path, w/ShapeBox, h/ShapeBox)
}

func polygon(pts ...float64) []PathCommand {
	path := make([]PathCommand, 0, len(pts)/2+1)
	for i := 0; i+1 < len(pts); i += 2 {
		op := "L"
		if i == 0 {
			op = "M"
		}
		path = append(path, PathCommand{op, pts[i], pts[i+1]})
	}
	return append(path, PathCommand{"Z"})
}

func roundedRect(x, y, w, h, r float64) []PathCommand {
	return []PathCommand{
		{"M", x + r, y},
		{"L", x + w - r, y},
		{"Q", x + w, y, x + w, y + r},
		{"L", x + w, y + h - r},
		{"Q", x + w, y + h, x + w - r, y + h},
		{"L", x + r, y + h},
		{"Q", x, y + h, x, y + h - r},
		{"L", x, y + r},
		{"Q", x, y, x + r, y},
		{"Z"},
	}
}

// ellipse approximates an ellipse with four cubic curves.
func ellipse(cx, cy, rx, ry float64) []PathCommand {
	// k = 4 * (sqrt(2) - 1) / 3
	const k = 0.5522847498
	kx, ky := rx*k, ry*k
	return []PathCommand{
		{"M", cx + rx, cy},
		{"C", cx + rx, cy + ky, cx + kx, cy + ry, cx, cy + ry},
		{"C", cx - kx, cy + ry, cx - rx, cy + ky, cx - rx, cy},
		{"C", cx - rx, cy - ky, cx - kx, cy - ry, cx, cy - ry},
		{"C", cx + kx, cy - ry, cx + rx, cy - ky, cx + rx, cy},
		{"Z"},
	}
}
