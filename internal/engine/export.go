package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"
)

var (
	ErrExportBusy   = errors.New("export already in progress")
	ErrExportFailed = errors.New("export failed")
)

const (
	DefaultSettle     = 150 * time.Millisecond
	DefaultPixelRatio = 2.0
	MinPixelRatio     = 2.0
	MaxPixelRatio     = 3.2

	// ExportFilename is the suggested download name of an export.
	ExportFilename = "deylin-design.png"
)

// Canvas is what a rasterizer paints: the card size and its draw commands.
type Canvas struct {
	Width    float64
	Height   float64
	Commands []DrawCommand
}

// Rasterizer turns a compiled card into an encoded picture.
type Rasterizer interface {
	Rasterize(ctx context.Context, c Canvas, pixelRatio float64) ([]byte, error)
}

type ExportOptions struct {
	Rasterizer Rasterizer

	// Settle is the pause between clearing the selection and rasterizing,
	// so a live view can drop its selection chrome. Zero means DefaultSettle.
	Settle     time.Duration
	PixelRatio float64

	// Wait replaces the settle timer in tests.
	Wait func(ctx context.Context, d time.Duration) error
}

type exporter struct {
	raster     Rasterizer
	settle     time.Duration
	pixelRatio float64
	wait       func(ctx context.Context, d time.Duration) error
	busy       atomic.Bool
}

func newExporter(opts ExportOptions) *exporter {
	x := &exporter{
		raster:     opts.Rasterizer,
		settle:     opts.Settle,
		pixelRatio: ClampPixelRatio(opts.PixelRatio),
		wait:       opts.Wait,
	}
	if x.settle <= 0 {
		x.settle = DefaultSettle
	}
	if x.wait == nil {
		x.wait = sleep
	}
	return x
}

// ClampPixelRatio maps r into the supported range; zero or invalid values
// take the default.
func ClampPixelRatio(r float64) float64 {
	if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return DefaultPixelRatio
	}
	return math.Min(math.Max(r, MinPixelRatio), MaxPixelRatio)
}

// Exporting reports whether an export is running.
func (e *Engine) Exporting() bool {
	return e.exporter.busy.Load()
}

// Export clears the selection, waits for the settle delay and rasterizes the
// card. Only one export runs at a time; a concurrent call gets ErrExportBusy.
// Failures wrap ErrExportFailed, leave the scene untouched and release the
// busy flag so the user can retry.
func (e *Engine) Export(ctx context.Context) ([]byte, error) {
	x := e.exporter
	if x.raster == nil {
		return nil, fmt.Errorf("%w: no rasterizer configured", ErrExportFailed)
	}
	if !x.busy.CompareAndSwap(false, true) {
		return nil, ErrExportBusy
	}
	defer x.busy.Store(false)

	e.Deselect()
	if err := x.wait(ctx, x.settle); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}

	w, h := e.store.FrameSize()
	canvas := Canvas{Width: w, Height: h, Commands: e.Render()}

	start := time.Now()
	data, err := x.raster.Rasterize(ctx, canvas, x.pixelRatio)
	if err != nil {
		slog.Warn("rasterize failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	slog.Debug("export finished", "bytes", len(data), "elapsed", time.Since(start))
	return data, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
