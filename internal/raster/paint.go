package raster

import (
	"image"
	"image/color"
	"log/slog"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/deylin/studio/internal/engine"
	"github.com/deylin/studio/internal/scene"
	"github.com/deylin/studio/internal/style"
)

type pathCmd = style.PathCommand

const (
	// shadowOffset is the drop shadow offset in CSS pixels.
	shadowOffset = 4
	shadowAlpha  = 0.3
	vignetteBand = 12
)

var (
	shadowColor = color.NRGBA{A: uint8(shadowAlpha * 0xff)}
	defaultInk  = color.NRGBA{R: 0x1f, G: 0x1f, B: 0x1f, A: 0xff}
)

// parseColor reads a hex color with the given opacity.
func parseColor(s string, alpha float64) (color.NRGBA, bool) {
	r, g, b, ok := scene.ParseHexColor(s)
	if !ok {
		return color.NRGBA{}, false
	}
	a := math.Max(0, math.Min(1, alpha))
	return color.NRGBA{R: r, G: g, B: b, A: uint8(a*0xff + 0.5)}, true
}

func opacityOf(cmd engine.DrawCommand) float64 {
	if cmd.Opacity <= 0 {
		return 1
	}
	return cmd.Opacity
}

func tracePath(z *vector.Rasterizer, path []pathCmd, m scene.Matrix2D) {
	pt := func(x, y float64) (float32, float32) {
		tx, ty := m.TransformPoint(x, y)
		return float32(tx), float32(ty)
	}
	open := false
	for _, cmd := range path {
		a := cmd.Args()
		switch cmd.Op() {
		case "M":
			if len(a) < 2 {
				continue
			}
			if open {
				z.ClosePath()
			}
			z.MoveTo(pt(a[0], a[1]))
			open = true
		case "L":
			if len(a) < 2 || !open {
				continue
			}
			z.LineTo(pt(a[0], a[1]))
		case "Q":
			if len(a) < 4 || !open {
				continue
			}
			bx, by := pt(a[0], a[1])
			cx, cy := pt(a[2], a[3])
			z.QuadTo(bx, by, cx, cy)
		case "C":
			if len(a) < 6 || !open {
				continue
			}
			bx, by := pt(a[0], a[1])
			cx, cy := pt(a[2], a[3])
			dx, dy := pt(a[4], a[5])
			z.CubeTo(bx, by, cx, cy, dx, dy)
		case "Z":
			if open {
				z.ClosePath()
				open = false
			}
		}
	}
	if open {
		z.ClosePath()
	}
}

func (p *painter) path(cmd engine.DrawCommand) {
	col, ok := parseColor(cmd.Fill, opacityOf(cmd))
	if !ok {
		col = color.NRGBA{R: 0xf4, G: 0x72, B: 0xb6, A: uint8(opacityOf(cmd)*0xff + 0.5)}
	}
	m := p.device(cmd.Transform)
	if cmd.Shadow {
		off := shadowOffset * p.ratio
		p.fill(p.coverage(cmd.Path, scene.Translate(off, off).Multiply(m)), image.NewUniform(shadowColor))
	}
	p.fill(p.coverage(cmd.Path, m), image.NewUniform(col))
}

// --- Frame ---

func (p *painter) paper(cmd engine.DrawCommand) {
	b := p.img.Bounds()
	bg, ok := parseColor(cmd.Fill, 1)
	if !ok {
		bg = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	}
	draw.Draw(p.img, b, image.NewUniform(bg), image.Point{}, draw.Src)

	if cmd.Paper == nil {
		return
	}
	paper := cmd.Paper
	p.pattern(paper)
	if paper.Texture != "" {
		slog.Debug("paper texture skipped", "paper", paper.Key, "texture", paper.Texture)
	}
	p.innerShade(paper.Vignette)
	p.sepia = paper.Sepia
}

func (p *painter) pattern(paper *style.Paper) {
	if paper.Pattern == style.PatternNone || paper.PatternSpacing <= 0 {
		return
	}
	col, ok := parseColor(paper.PatternColor, 1)
	if !ok {
		return
	}
	src := image.NewUniform(col)
	b := p.img.Bounds()
	step := paper.PatternSpacing * p.ratio
	line := max(1, int(math.Round(p.ratio)))

	switch paper.Pattern {
	case style.PatternDots:
		for y := step; y < float64(b.Dy()); y += step {
			for x := step; x < float64(b.Dx()); x += step {
				px, py := int(x), int(y)
				draw.Draw(p.img, image.Rect(px-line, py-line, px+line, py+line), src, image.Point{}, draw.Over)
			}
		}
	case style.PatternLines, style.PatternGrid:
		for y := step; y < float64(b.Dy()); y += step {
			draw.Draw(p.img, image.Rect(0, int(y)-line, b.Dx(), int(y)), src, image.Point{}, draw.Over)
		}
		if paper.Pattern == style.PatternGrid {
			for x := step; x < float64(b.Dx()); x += step {
				draw.Draw(p.img, image.Rect(int(x)-line, 0, int(x), b.Dy()), src, image.Point{}, draw.Over)
			}
		}
	}
}

// innerShade approximates an inset glow with concentric bands fading
// towards the middle of the card.
func (p *painter) innerShade(s style.Shade) {
	if s.IsZero() || s.Blur <= 0 {
		return
	}
	depth := s.Blur * p.ratio
	for k := range vignetteBand {
		t := (float64(k) + 0.5) / vignetteBand
		col, ok := parseColor(s.Color, s.Alpha*(1-t)*(1-t))
		if !ok {
			return
		}
		inner := depth * float64(k) / vignetteBand
		outer := depth * float64(k+1) / vignetteBand
		p.band(inner, outer, image.NewUniform(col))
	}
}

// band fills the ring between insets in and out (device pixels) from the
// card edge.
func (p *painter) band(in, out float64, src image.Image) {
	b := p.img.Bounds()
	i0, i1 := int(math.Round(in)), int(math.Round(out))
	if i1 <= i0 {
		return
	}
	W, H := b.Dx(), b.Dy()
	rects := []image.Rectangle{
		image.Rect(i0, i0, W-i0, i1),     // top
		image.Rect(i0, H-i1, W-i0, H-i0), // bottom
		image.Rect(i0, i1, i1, H-i1),     // left
		image.Rect(W-i1, i1, W-i0, H-i1), // right
	}
	for _, r := range rects {
		draw.Draw(p.img, r, src, image.Point{}, draw.Over)
	}
}

func (p *painter) border(cmd engine.DrawCommand) {
	bd := cmd.Border
	if bd == nil || bd.Line == style.LineNone || bd.Width <= 0 {
		return
	}
	p.innerShade(bd.InnerGlow)

	w := bd.Width * p.ratio
	switch bd.Line {
	case style.LineDouble:
		p.dashes(0, w/3, 0, 0, bd)
		p.dashes(2*w/3, w, 0, 0, bd)
	case style.LineDashed:
		p.dashes(0, w, 3*w, 2*w, bd)
	case style.LineDotted:
		p.dashes(0, w, w, w, bd)
	default:
		p.dashes(0, w, 0, 0, bd)
	}
}

// dashes strokes the band between insets in and out with dashes of length
// dash separated by gap. A zero gap draws a continuous line.
func (p *painter) dashes(in, out, dash, gap float64, bd *style.Border) {
	if len(bd.Gradient) == 0 && gap == 0 {
		col, ok := parseColor(bd.Color, 1)
		if ok {
			p.band(in, out, image.NewUniform(col))
		}
		return
	}
	if gap == 0 {
		dash = math.Max(2*p.ratio, 1)
	}

	b := p.img.Bounds()
	W, H := float64(b.Dx()), float64(b.Dy())
	mid := (in + out) / 2
	// Walk the centerline of the band clockwise from the top-left corner.
	edges := [4][4]float64{
		{mid, mid, W - mid, mid},
		{W - mid, mid, W - mid, H - mid},
		{W - mid, H - mid, mid, H - mid},
		{mid, H - mid, mid, mid},
	}
	perimeter := 2*(W-2*mid) + 2*(H-2*mid)
	half := (out - in) / 2
	walked := 0.0

	for _, e := range edges {
		length := math.Hypot(e[2]-e[0], e[3]-e[1])
		if length == 0 {
			continue
		}
		ux, uy := (e[2]-e[0])/length, (e[3]-e[1])/length
		for s := 0.0; s < length; s += dash + gap {
			end := math.Min(s+dash, length)
			col, ok := borderColor(bd, (walked+s)/perimeter)
			if !ok {
				continue
			}
			x0, y0 := e[0]+ux*s, e[1]+uy*s
			x1, y1 := e[0]+ux*end, e[1]+uy*end
			r := image.Rect(
				int(math.Floor(math.Min(x0, x1)-half)), int(math.Floor(math.Min(y0, y1)-half)),
				int(math.Ceil(math.Max(x0, x1)+half)), int(math.Ceil(math.Max(y0, y1)+half)),
			)
			draw.Draw(p.img, r, image.NewUniform(col), image.Point{}, draw.Over)
		}
		walked += length
	}
}

// borderColor returns the border color at fraction t of the perimeter.
func borderColor(bd *style.Border, t float64) (color.NRGBA, bool) {
	if len(bd.Gradient) == 0 {
		return parseColor(bd.Color, 1)
	}
	if len(bd.Gradient) == 1 {
		return parseColor(bd.Gradient[0], 1)
	}
	pos := math.Max(0, math.Min(1, t)) * float64(len(bd.Gradient)-1)
	i := min(int(pos), len(bd.Gradient)-2)
	a, okA := parseColor(bd.Gradient[i], 1)
	c, okC := parseColor(bd.Gradient[i+1], 1)
	if !okA || !okC {
		return color.NRGBA{}, false
	}
	f := pos - float64(i)
	mix := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*f + 0.5) }
	return color.NRGBA{R: mix(a.R, c.R), G: mix(a.G, c.G), B: mix(a.B, c.B), A: 0xff}, true
}
