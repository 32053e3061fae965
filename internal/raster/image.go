package raster

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/url"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	_ "golang.org/x/image/webp"

	"github.com/deylin/studio/internal/engine"
	"github.com/deylin/studio/internal/scene"
)

func (p *painter) image(cmd engine.DrawCommand) error {
	src, err := DecodeDataURL(cmd.Src)
	if errors.Is(err, ErrUnsupportedSource) || errors.Is(err, ErrImageTooLarge) {
		slog.Warn("image source skipped", "id", cmd.ElementID, "error", err)
		return nil
	}
	if err != nil {
		return err
	}
	src = applyFilter(src, cmd.Filter)

	sb := src.Bounds()
	if sb.Empty() || cmd.Width <= 0 || cmd.Height <= 0 {
		return nil
	}
	// Source pixels stretch over the element box.
	fit := scene.Scale(cmd.Width/float64(sb.Dx()), cmd.Height/float64(sb.Dy())).
		Multiply(scene.Translate(-float64(sb.Min.X), -float64(sb.Min.Y)))
	p.layer(src, p.device(cmd.Transform).Multiply(fit), opacityOf(cmd), cmd.Shadow)
	return nil
}

// layer draws src through s2d (source pixels to device pixels).
func (p *painter) layer(src image.Image, s2d scene.Matrix2D, opacity float64, shadow bool) {
	opts := &draw.Options{}
	if p.clip != nil {
		opts.DstMask = p.clip
	}
	if shadow {
		off := shadowOffset * p.ratio
		so := *opts
		so.SrcMask = src
		so.SrcMaskP = src.Bounds().Min
		draw.BiLinear.Transform(p.img, aff3(scene.Translate(off, off).Multiply(s2d)), image.NewUniform(shadowColor), src.Bounds(), draw.Over, &so)
	}
	if opacity < 1 {
		opts.SrcMask = image.NewUniform(color.Alpha{A: uint8(opacity*0xff + 0.5)})
	}
	draw.BiLinear.Transform(p.img, aff3(s2d), src, src.Bounds(), draw.Over, opts)
}

func aff3(m scene.Matrix2D) f64.Aff3 {
	return f64.Aff3{m[0], m[2], m[4], m[1], m[3], m[5]}
}

// DecodeDataURL decodes a data: URL holding a PNG, JPEG, GIF, BMP or WebP
// image. Other URLs are rejected with ErrUnsupportedSource since the
// rasterizer never fetches remote content. Images declaring more than
// MaxImagePixels fail with ErrImageTooLarge before any pixel is decoded.
func DecodeDataURL(s string) (image.Image, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, fmt.Errorf("%w: %.40q", ErrUnsupportedSource, s)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("%w: malformed data URL", ErrUnsupportedSource)
	}

	var data []byte
	if strings.HasSuffix(meta, ";base64") {
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode base64 payload: %w", err)
		}
		data = b
	} else {
		text, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("unescape payload: %w", err)
		}
		data = []byte(text)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	if err := CheckImageSize(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// applyFilter returns src with a named color filter applied.
func applyFilter(src image.Image, name string) image.Image {
	var fn func(r, g, b float64) (float64, float64, float64)
	switch name {
	case "", "none":
		return src
	case "grayscale":
		fn = func(r, g, b float64) (float64, float64, float64) {
			y := 0.2126*r + 0.7152*g + 0.0722*b
			return y, y, y
		}
	case "sepia":
		fn = sepiaTone(1)
	case "vintage":
		tone := sepiaTone(0.5)
		fn = func(r, g, b float64) (float64, float64, float64) {
			r, g, b = tone(r, g, b)
			return 0.9*r + 20, 0.9*g + 12, 0.9*b
		}
	case "invert":
		fn = func(r, g, b float64) (float64, float64, float64) {
			return 255 - r, 255 - g, 255 - b
		}
	default:
		slog.Debug("unknown image filter ignored", "filter", name)
		return src
	}

	b := src.Bounds()
	out := image.NewNRGBA(b)
	draw.Draw(out, b, src, b.Min, draw.Src)
	mapPixels(out.Pix, fn, false)
	return out
}

func sepiaTone(amount float64) func(r, g, b float64) (float64, float64, float64) {
	return func(r, g, b float64) (float64, float64, float64) {
		sr := 0.393*r + 0.769*g + 0.189*b
		sg := 0.349*r + 0.686*g + 0.168*b
		sb := 0.272*r + 0.534*g + 0.131*b
		return r + (sr-r)*amount, g + (sg-g)*amount, b + (sb-b)*amount
	}
}

// sepia tones the finished card in place.
func sepia(img *image.RGBA, amount float64) {
	mapPixels(img.Pix, sepiaTone(amount), true)
}

// mapPixels rewrites the color channels of 4-byte pixels, leaving alpha.
// Premultiplied channels are capped at the pixel's alpha.
func mapPixels(pix []uint8, fn func(r, g, b float64) (float64, float64, float64), premultiplied bool) {
	for i := 0; i+3 < len(pix); i += 4 {
		limit := uint8(0xff)
		if premultiplied {
			limit = pix[i+3]
		}
		r, g, b := fn(float64(pix[i]), float64(pix[i+1]), float64(pix[i+2]))
		pix[i], pix[i+1], pix[i+2] = channel(r, limit), channel(g, limit), channel(b, limit)
	}
}

func channel(v float64, limit uint8) uint8 {
	if v < 0 {
		return 0
	}
	if v > float64(limit) {
		return limit
	}
	return uint8(v + 0.5)
}
