package scene

import (
	"fmt"
	"math"
)

type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindEmoji Kind = "emoji"
	KindShape Kind = "shape"
)

// ParseKind maps a wire string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindText, KindImage, KindEmoji, KindShape:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// Transform positions an element inside the frame. X and Y place the
// element's unrotated, unscaled top-left corner; rotation and scale pivot
// around the element's center. Rotation is in degrees.
type Transform struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
	ScaleX   float64 `json:"scaleX"`
	ScaleY   float64 `json:"scaleY"`
}

// IdentityTransform returns a transform at the origin with unit scale.
func IdentityTransform() Transform {
	return Transform{ScaleX: 1, ScaleY: 1}
}

// Normalized returns t with rotation wrapped into [0, 360).
func (t Transform) Normalized() Transform {
	t.Rotation = NormalizeDegrees(t.Rotation)
	return t
}

// NormalizeDegrees wraps an angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	// -1e-15 + 360 rounds to 360
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// Size is the nominal box of an element before scaling. FontSize is only
// meaningful for text and emoji.
type Size struct {
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	FontSize float64 `json:"fontSize,omitempty"`
}

type Style struct {
	// Text
	Color      string `json:"color,omitempty"`
	FontFamily string `json:"fontFamily,omitempty"`
	Bold       bool   `json:"bold,omitempty"`
	Italic     bool   `json:"italic,omitempty"`
	Underline  bool   `json:"underline,omitempty"`
	Align      string `json:"align,omitempty"`

	// Image
	Mask   string `json:"mask,omitempty"`
	Filter string `json:"filter,omitempty"`

	// Shape
	Fill string `json:"fill,omitempty"`

	// Any kind
	Opacity float64 `json:"opacity"`
	Shadow  bool    `json:"shadow,omitempty"`
}

// Element is a single placed object. Elements are values: the store replaces
// them wholesale on every edit.
type Element struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Content   string    `json:"content"`
	Transform Transform `json:"transform"`
	Size      Size      `json:"size"`
	ZIndex    int       `json:"zIndex"`
	Style     Style     `json:"style"`

	// seq is the insertion order, used to break zIndex ties.
	seq uint64
}

// Seq returns the element's insertion order.
func (e Element) Seq() uint64 { return e.seq }

// Matrix returns the element's local-to-frame affine matrix.
func (e Element) Matrix() Matrix2D {
	t := e.Transform
	return FromTransform(t.X, t.Y, t.ScaleX, t.ScaleY, t.Rotation, e.Size.Width/2, e.Size.Height/2)
}

// Bounds returns the axis-aligned bounding box of the element in frame space.
func (e Element) Bounds() Rect {
	return e.Matrix().TransformRect(Rect{Width: e.Size.Width, Height: e.Size.Height})
}

const (
	DefaultText       = "Escribe tu mensaje aquí..."
	DefaultTextFont   = "serif"
	DefaultShapeFill  = "#f472b6"
	DefaultShapeID    = "heart"
	DefaultEmoji      = "❤️"
	DefaultTextAlign  = "center"
	defaultImageSide  = 160
	defaultShapeSide  = 120
	defaultEmojiSize  = 64
	defaultTextWidth  = 240
	defaultTextHeight = 64
	defaultFontSize   = 28
)

// DefaultSize returns the nominal on-screen size for a new element of kind k.
func DefaultSize(k Kind) Size {
	switch k {
	case KindText:
		return Size{Width: defaultTextWidth, Height: defaultTextHeight, FontSize: defaultFontSize}
	case KindEmoji:
		return Size{Width: defaultEmojiSize, Height: defaultEmojiSize, FontSize: defaultEmojiSize * 0.85}
	case KindShape:
		return Size{Width: defaultShapeSide, Height: defaultShapeSide}
	default:
		return Size{Width: defaultImageSide, Height: defaultImageSide}
	}
}

// newElement builds an element of kind k with defaults, centered in a frame
// of the given size. textColor is used for text elements only.
func newElement(id string, k Kind, content string, frameW, frameH float64, textColor string) Element {
	size := DefaultSize(k)
	e := Element{
		ID:      id,
		Kind:    k,
		Content: content,
		Size:    size,
		Transform: Transform{
			X:      (frameW - size.Width) / 2,
			Y:      (frameH - size.Height) / 2,
			ScaleX: 1,
			ScaleY: 1,
		},
		Style: Style{Opacity: 1},
	}

	switch k {
	case KindText:
		if e.Content == "" {
			e.Content = DefaultText
		}
		e.Style.Color = textColor
		e.Style.FontFamily = DefaultTextFont
		e.Style.Align = DefaultTextAlign
	case KindEmoji:
		if e.Content == "" {
			e.Content = DefaultEmoji
		}
	case KindShape:
		if e.Content == "" {
			e.Content = DefaultShapeID
		}
		e.Style.Fill = DefaultShapeFill
	case KindImage:
		e.Style.Mask = "none"
	}
	return e
}

// Patch names the fields to replace on an element. Nil fields are left
// untouched. Transform, when set, replaces the whole transform before the
// individual transform fields are applied.
type Patch struct {
	Content *string `json:"content,omitempty"`

	Transform *Transform `json:"transform,omitempty"`
	X         *float64   `json:"x,omitempty"`
	Y         *float64   `json:"y,omitempty"`
	Rotation  *float64   `json:"rotation,omitempty"`
	ScaleX    *float64   `json:"scaleX,omitempty"`
	ScaleY    *float64   `json:"scaleY,omitempty"`

	Width    *float64 `json:"width,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	FontSize *float64 `json:"fontSize,omitempty"`

	Color      *string  `json:"color,omitempty"`
	FontFamily *string  `json:"fontFamily,omitempty"`
	Bold       *bool    `json:"bold,omitempty"`
	Italic     *bool    `json:"italic,omitempty"`
	Underline  *bool    `json:"underline,omitempty"`
	Align      *string  `json:"align,omitempty"`
	Mask       *string  `json:"mask,omitempty"`
	Filter     *string  `json:"filter,omitempty"`
	Fill       *string  `json:"fill,omitempty"`
	Opacity    *float64 `json:"opacity,omitempty"`
	Shadow     *bool    `json:"shadow,omitempty"`
}

// Apply returns e with the patch applied. Values that would break an element
// invariant (non-positive sizes, zero or non-finite scale) are ignored.
func (p Patch) Apply(e Element) Element {
	if p.Content != nil {
		e.Content = *p.Content
	}

	if p.Transform != nil {
		t := *p.Transform
		if validScale(t.ScaleX) {
			e.Transform.ScaleX = t.ScaleX
		}
		if validScale(t.ScaleY) {
			e.Transform.ScaleY = t.ScaleY
		}
		if finite(t.X) {
			e.Transform.X = t.X
		}
		if finite(t.Y) {
			e.Transform.Y = t.Y
		}
		e.Transform.Rotation = NormalizeDegrees(t.Rotation)
	}
	if p.X != nil && finite(*p.X) {
		e.Transform.X = *p.X
	}
	if p.Y != nil && finite(*p.Y) {
		e.Transform.Y = *p.Y
	}
	if p.Rotation != nil {
		e.Transform.Rotation = NormalizeDegrees(*p.Rotation)
	}
	if p.ScaleX != nil && validScale(*p.ScaleX) {
		e.Transform.ScaleX = *p.ScaleX
	}
	if p.ScaleY != nil && validScale(*p.ScaleY) {
		e.Transform.ScaleY = *p.ScaleY
	}

	if p.Width != nil && positive(*p.Width) {
		e.Size.Width = *p.Width
	}
	if p.Height != nil && positive(*p.Height) {
		e.Size.Height = *p.Height
	}
	if p.FontSize != nil && positive(*p.FontSize) {
		e.Size.FontSize = *p.FontSize
	}

	if p.Color != nil {
		e.Style.Color = *p.Color
	}
	if p.FontFamily != nil {
		e.Style.FontFamily = *p.FontFamily
	}
	if p.Bold != nil {
		e.Style.Bold = *p.Bold
	}
	if p.Italic != nil {
		e.Style.Italic = *p.Italic
	}
	if p.Underline != nil {
		e.Style.Underline = *p.Underline
	}
	if p.Align != nil {
		e.Style.Align = *p.Align
	}
	if p.Mask != nil {
		e.Style.Mask = *p.Mask
	}
	if p.Filter != nil {
		e.Style.Filter = *p.Filter
	}
	if p.Fill != nil {
		e.Style.Fill = *p.Fill
	}
	if p.Opacity != nil && finite(*p.Opacity) {
		e.Style.Opacity = clamp(*p.Opacity, 0, 1)
	}
	if p.Shadow != nil {
		e.Style.Shadow = *p.Shadow
	}
	return e
}

// IsEmpty reports whether the patch names no fields.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func positive(v float64) bool {
	return finite(v) && v > 0
}

func validScale(v float64) bool {
	return finite(v) && v != 0
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}
