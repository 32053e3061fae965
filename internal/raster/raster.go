// Package raster is a reference engine.Rasterizer that paints compiled draw
// commands with golang.org/x/image and encodes the result as PNG. Output is
// best effort: remote textures are skipped and emoji without a glyph in the
// bundled Go fonts are drawn as a placeholder.
package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/deylin/studio/internal/engine"
	"github.com/deylin/studio/internal/scene"
)

var (
	ErrEmptyCanvas       = errors.New("empty canvas")
	ErrUnsupportedSource = errors.New("unsupported image source")
	ErrImageTooLarge     = errors.New("image dimensions too large")
)

const (
	// MaxPixels bounds the output size.
	MaxPixels = 4096 * 4096

	// MaxImagePixels bounds a decoded source image.
	MaxImagePixels = 4096 * 4096
)

// CheckImageSize rejects images whose declared size cannot be decoded
// within MaxImagePixels.
func CheckImageSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid image size %dx%d", width, height)
	}
	if int64(width)*int64(height) > MaxImagePixels {
		return fmt.Errorf("%w: %dx%d", ErrImageTooLarge, width, height)
	}
	return nil
}

// Rasterizer is safe for concurrent use; every call paints on its own buffers.
type Rasterizer struct{}

func New() *Rasterizer {
	return &Rasterizer{}
}

var _ engine.Rasterizer = (*Rasterizer)(nil)

// Rasterize paints c at pixelRatio device pixels per CSS pixel.
func (r *Rasterizer) Rasterize(ctx context.Context, c engine.Canvas, pixelRatio float64) ([]byte, error) {
	img, err := r.Paint(ctx, c, pixelRatio)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Paint is Rasterize without the PNG encoding.
func (r *Rasterizer) Paint(ctx context.Context, c engine.Canvas, pixelRatio float64) (*image.RGBA, error) {
	if pixelRatio <= 0 || math.IsNaN(pixelRatio) {
		pixelRatio = 1
	}
	w := int(math.Ceil(c.Width * pixelRatio))
	h := int(math.Ceil(c.Height * pixelRatio))
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyCanvas
	}
	if w*h > MaxPixels {
		return nil, fmt.Errorf("canvas %dx%d exceeds %d pixels", w, h, MaxPixels)
	}

	p := newPainter(w, h, pixelRatio)
	for _, cmd := range c.Commands {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := p.exec(cmd); err != nil {
			return nil, fmt.Errorf("%s %s: %w", cmd.Op, cmd.ElementID, err)
		}
	}
	p.finish()
	return p.img, nil
}

type painter struct {
	img   *image.RGBA
	ratio float64
	ras   *vector.Rasterizer

	// clip is the active clip mask; nil means unclipped.
	clip  *image.Alpha
	saved []*image.Alpha

	sepia float64
	faces *faceCache
}

func newPainter(w, h int, ratio float64) *painter {
	return &painter{
		img:   image.NewRGBA(image.Rect(0, 0, w, h)),
		ratio: ratio,
		ras:   vector.NewRasterizer(w, h),
		faces: newFaceCache(),
	}
}

func (p *painter) exec(cmd engine.DrawCommand) error {
	switch cmd.Op {
	case engine.OpPaper:
		p.paper(cmd)
	case engine.OpBorder:
		p.border(cmd)
	case engine.OpPath:
		p.path(cmd)
	case engine.OpImage:
		return p.image(cmd)
	case engine.OpText:
		return p.text(cmd)
	case engine.OpEmoji:
		return p.emoji(cmd)
	case engine.OpSave:
		p.saved = append(p.saved, p.clip)
	case engine.OpClip:
		mask := p.coverage(cmd.Path, p.device(cmd.Transform))
		if p.clip != nil {
			intersect(mask, p.clip)
		}
		p.clip = mask
	case engine.OpRestore:
		if n := len(p.saved); n > 0 {
			p.clip = p.saved[n-1]
			p.saved = p.saved[:n-1]
		}
	default:
		slog.Debug("skipping unknown draw op", "op", cmd.Op)
	}
	return nil
}

func (p *painter) finish() {
	if p.sepia > 0 {
		sepia(p.img, p.sepia)
	}
}

// device maps an element's local box to device pixels.
func (p *painter) device(transform []float64) scene.Matrix2D {
	m := scene.Identity()
	if len(transform) == 6 {
		copy(m[:], transform)
	}
	return scene.Scale(p.ratio, p.ratio).Multiply(m)
}

// coverage rasterizes a path through m into an alpha mask the size of the
// output.
func (p *painter) coverage(path []pathCmd, m scene.Matrix2D) *image.Alpha {
	b := p.img.Bounds()
	p.ras.Reset(b.Dx(), b.Dy())
	p.ras.DrawOp = draw.Src
	tracePath(p.ras, path, m)
	mask := image.NewAlpha(b)
	p.ras.Draw(mask, b, image.Opaque, image.Point{})
	return mask
}

// fill paints col through mask, honoring the active clip.
func (p *painter) fill(mask *image.Alpha, col image.Image) {
	if p.clip != nil {
		intersect(mask, p.clip)
	}
	b := p.img.Bounds()
	draw.DrawMask(p.img, b, col, image.Point{}, mask, image.Point{}, draw.Over)
}

// intersect multiplies mask by clip in place. Both share the output bounds.
func intersect(mask, clip *image.Alpha) {
	for i := range mask.Pix {
		mask.Pix[i] = uint8(uint16(mask.Pix[i]) * uint16(clip.Pix[i]) / 0xff)
	}
}
