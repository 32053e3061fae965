package raster

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/deylin/studio/internal/engine"
	"github.com/deylin/studio/internal/scene"
	"github.com/deylin/studio/internal/style"
)

type variant int

const (
	regular variant = iota
	bold
	italic
	boldItalic
	mono
	monoBold
)

var fontData = map[variant][]byte{
	regular:    goregular.TTF,
	bold:       gobold.TTF,
	italic:     goitalic.TTF,
	boldItalic: gobolditalic.TTF,
	mono:       gomono.TTF,
	monoBold:   gomonobold.TTF,
}

// parsedFonts parses the bundled fonts once per process.
var parsedFonts = sync.OnceValues(func() (map[variant]*opentype.Font, error) {
	out := make(map[variant]*opentype.Font, len(fontData))
	for v, data := range fontData {
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse font %d: %w", v, err)
		}
		out[v] = f
	}
	return out, nil
})

func pickVariant(family string, b, i bool) variant {
	if isMonospace(family) {
		if b {
			return monoBold
		}
		return mono
	}
	switch {
	case b && i:
		return boldItalic
	case b:
		return bold
	case i:
		return italic
	}
	return regular
}

func isMonospace(family string) bool {
	f := strings.ToLower(family)
	return strings.Contains(f, "mono") || strings.Contains(f, "courier")
}

type faceKey struct {
	v    variant
	size float64
}

// faceCache holds the faces of one painter. Faces are not safe for
// concurrent use, so the cache is never shared.
type faceCache struct {
	faces map[faceKey]font.Face
}

func newFaceCache() *faceCache {
	return &faceCache{faces: make(map[faceKey]font.Face)}
}

func (c *faceCache) face(v variant, size float64) (font.Face, error) {
	k := faceKey{v, math.Round(size*4) / 4}
	if f, ok := c.faces[k]; ok {
		return f, nil
	}
	fonts, err := parsedFonts()
	if err != nil {
		return nil, err
	}
	f, err := opentype.NewFace(fonts[v], &opentype.FaceOptions{
		Size:    k.size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	c.faces[k] = f
	return f, nil
}

func (p *painter) text(cmd engine.DrawCommand) error {
	if strings.TrimSpace(cmd.Text) == "" || cmd.FontSize <= 0 {
		return nil
	}
	face, err := p.faces.face(pickVariant(cmd.Font, cmd.Bold, cmd.Italic), cmd.FontSize*p.ratio)
	if err != nil {
		return err
	}
	ink, ok := parseColor(cmd.Fill, 1)
	if !ok {
		ink = defaultInk
	}
	layer := p.textLayer(cmd, face, ink)
	if layer == nil {
		return nil
	}
	m := p.device(cmd.Transform).Multiply(scene.Scale(1/p.ratio, 1/p.ratio))
	p.layer(layer, m, opacityOf(cmd), cmd.Shadow)
	return nil
}

// textLayer lays out cmd.Text inside the element box at device resolution:
// wrapped at word boundaries, aligned horizontally and centered vertically.
func (p *painter) textLayer(cmd engine.DrawCommand, face font.Face, ink color.Color) *image.NRGBA {
	w := int(math.Ceil(cmd.Width * p.ratio))
	h := int(math.Ceil(cmd.Height * p.ratio))
	if w <= 0 || h <= 0 {
		return nil
	}
	layer := image.NewNRGBA(image.Rect(0, 0, w, h))

	lines := wrap(face, cmd.Text, fixed.I(w))
	metrics := face.Metrics()
	lineH := metrics.Height
	if lineH <= 0 {
		lineH = metrics.Ascent + metrics.Descent
	}
	block := lineH.Mul(fixed.I(len(lines)))
	top := (fixed.I(h) - block) / 2

	d := &font.Drawer{Dst: layer, Src: image.NewUniform(ink), Face: face}
	for i, line := range lines {
		adv := font.MeasureString(face, line)
		var x fixed.Int26_6
		switch cmd.Align {
		case "left":
		case "right":
			x = fixed.I(w) - adv
		default:
			x = (fixed.I(w) - adv) / 2
		}
		baseline := top + lineH.Mul(fixed.I(i)) + metrics.Ascent
		d.Dot = fixed.Point26_6{X: x, Y: baseline}
		d.DrawString(line)

		if cmd.Underline && adv > 0 {
			thick := max(1, int(math.Round(cmd.FontSize*p.ratio/16)))
			y := baseline.Ceil() + thick
			underline := image.Rect(x.Floor(), y, (x + adv).Ceil(), y+thick)
			fillRect(layer, underline, ink)
		}
	}
	return layer
}

// wrap splits text into lines no wider than limit. Explicit newlines are
// kept and a single word wider than limit gets a line of its own.
func wrap(face font.Face, text string, limit fixed.Int26_6) []string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, word := range words[1:] {
			next := line + " " + word
			if font.MeasureString(face, next) > limit {
				out = append(out, line)
				line = word
				continue
			}
			line = next
		}
		out = append(out, line)
	}
	return out
}

func fillRect(dst *image.NRGBA, r image.Rectangle, c color.Color) {
	r = r.Intersect(dst.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			dst.Set(x, y, c)
		}
	}
}

// emojiPlaceholder is painted for emoji the bundled fonts cannot draw.
var emojiPlaceholder = color.NRGBA{R: 0xfc, G: 0xd3, B: 0x4d, A: 0xff}

func (p *painter) emoji(cmd engine.DrawCommand) error {
	if cmd.Text == "" || cmd.FontSize <= 0 {
		return nil
	}
	face, err := p.faces.face(regular, cmd.FontSize*p.ratio)
	if err != nil {
		return err
	}
	if hasGlyphs(face, cmd.Text) {
		cmd.Align = "center"
		layer := p.textLayer(cmd, face, defaultInk)
		if layer != nil {
			p.layer(layer, p.device(cmd.Transform).Multiply(scene.Scale(1/p.ratio, 1/p.ratio)), opacityOf(cmd), cmd.Shadow)
		}
		return nil
	}

	circle, _ := style.Shape("circle")
	side := math.Min(cmd.Width, cmd.Height) * 0.8
	path := style.FitPath(circle, side, side)
	m := p.device(cmd.Transform).Multiply(scene.Translate((cmd.Width-side)/2, (cmd.Height-side)/2))
	col := emojiPlaceholder
	col.A = uint8(opacityOf(cmd)*0xff + 0.5)
	p.fill(p.coverage(path, m), image.NewUniform(col))
	return nil
}

func hasGlyphs(face font.Face, s string) bool {
	for _, r := range s {
		// Joiners and variation selectors carry no glyph of their own.
		if r == 0x200d || (r >= 0xfe00 && r <= 0xfe0f) {
			continue
		}
		if _, ok := face.GlyphAdvance(r); !ok {
			return false
		}
	}
	return true
}
