// Package style resolves the discrete style keys stored on a scene (paper,
// border, font, mask) to presentation descriptors a renderer can paint.
package style

import "errors"

var (
	ErrStyleNotFound = errors.New("style not found")
	ErrInvalidStyle  = errors.New("invalid style")
)

const (
	DefaultPaper  = "classic"
	DefaultBorder = "none"
	DefaultFont   = "serif"
	DefaultMask   = "none"
)

// Shade is a soft colored glow: an outer drop shadow or an inner vignette.
// A zero Alpha means no shade.
type Shade struct {
	Color string  `json:"color"`
	Alpha float64 `json:"alpha"`
	Blur  float64 `json:"blur"`
}

func (s Shade) IsZero() bool { return s.Alpha <= 0 || s.Color == "" }

func shade(color string, alpha, blur float64) Shade {
	return Shade{Color: color, Alpha: alpha, Blur: blur}
}

// Pattern is a repeated ruling drawn over the paper background.
type Pattern string

const (
	PatternNone  Pattern = ""
	PatternLines Pattern = "lines"
	PatternGrid  Pattern = "grid"
	PatternDots  Pattern = "dots"
)

// Paper describes the card background.
type Paper struct {
	Key        string `json:"key"`
	Background string `json:"background"`

	Pattern        Pattern `json:"pattern,omitempty"`
	PatternColor   string  `json:"patternColor,omitempty"`
	PatternSpacing float64 `json:"patternSpacing,omitempty"`

	// Texture is an optional tiled overlay image URL.
	Texture  string `json:"texture,omitempty"`
	Vignette Shade  `json:"vignette"`

	// Sepia is the strength of a sepia tone applied to the whole card, 0..1.
	Sepia float64 `json:"sepia,omitempty"`
}

// LineStyle is the stroke style of a border.
type LineStyle string

const (
	LineNone   LineStyle = "none"
	LineSolid  LineStyle = "solid"
	LineDouble LineStyle = "double"
	LineDashed LineStyle = "dashed"
	LineDotted LineStyle = "dotted"
)

// Border describes the frame around the card.
type Border struct {
	Key   string    `json:"key"`
	Width float64   `json:"width"`
	Line  LineStyle `json:"line"`
	Color string    `json:"color,omitempty"`

	// Gradient, when set, replaces Color with colors spread along the edge.
	Gradient []string `json:"gradient,omitempty"`

	Glow      Shade  `json:"glow"`
	InnerGlow Shade  `json:"innerGlow"`
	Animation string `json:"animation,omitempty"`
}

// Font maps a font key to a CSS-style family stack.
type Font struct {
	Key    string `json:"key"`
	Family string `json:"family"`
	Weight int    `json:"weight,omitempty"`
}

// Mask is a clip outline for image elements, in a 100x100 box. A nil Path
// means the image is not clipped.
type Mask struct {
	Key  string        `json:"key"`
	Path []PathCommand `json:"path,omitempty"`
}
