// Package engine ties the scene store, the manipulation controller and the
// style resolver into one editing session and compiles it for rendering.
package engine

import (
	"errors"
	"fmt"

	"github.com/deylin/studio/internal/manip"
	"github.com/deylin/studio/internal/scene"
	"github.com/deylin/studio/internal/style"
)

// Aspect is the card's width:height ratio.
type Aspect string

const (
	Aspect3x4  Aspect = "3:4"
	Aspect9x16 Aspect = "9:16"
)

var ErrInvalidAspect = errors.New("invalid aspect")

func ParseAspect(s string) (Aspect, error) {
	switch a := Aspect(s); a {
	case Aspect3x4, Aspect9x16:
		return a, nil
	case "":
		return Aspect3x4, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAspect, s)
	}
}

// FrameSize returns the card size in CSS pixels for the aspect.
func (a Aspect) FrameSize() (float64, float64) {
	w := float64(scene.DefaultFrameWidth)
	if a == Aspect9x16 {
		return w, w * 16 / 9
	}
	return w, float64(scene.DefaultFrameHeight)
}

type Options struct {
	Aspect       Aspect
	HistoryLimit int
	NewID        func() string

	Manip    manip.Options
	Resolver *style.Resolver
	Export   ExportOptions
}

// Engine is one editing session: it owns the scene and the gesture
// controller and answers render queries.
type Engine struct {
	store      *scene.Store
	controller *manip.Controller
	resolver   *style.Resolver
	exporter   *exporter
}

// New creates an engine with an empty card.
func New(opts Options) *Engine {
	w, h := opts.Aspect.FrameSize()
	store := scene.NewStore(scene.Options{
		FrameWidth:   w,
		FrameHeight:  h,
		HistoryLimit: opts.HistoryLimit,
		NewID:        opts.NewID,
	})
	if opts.Resolver == nil {
		opts.Resolver = style.NewResolver()
	}
	e := &Engine{
		store:      store,
		controller: manip.NewController(store, opts.Manip),
		resolver:   opts.Resolver,
	}
	e.exporter = newExporter(opts.Export)
	return e
}

func (e *Engine) Store() *scene.Store { return e.store }
func (e *Engine) Controller() *manip.Controller { return e.controller }
func (e *Engine) Resolver() *style.Resolver { return e.resolver }
func (e *Engine) FrameSize() (float64, float64) { return e.store.FrameSize() }

// --- Commands ---

// AddElement adds an element and returns its id. Pending gesture steps are
// committed first so they stay a separate undo step.
func (e *Engine) AddElement(k scene.Kind, content string, overrides scene.Patch) string {
	e.controller.Flush()
	return e.store.AddElement(k, content, overrides)
}

func (e *Engine) UpdateElement(id string, p scene.Patch) bool {
	e.controller.Flush()
	return e.store.UpdateElement(id, p)
}

func (e *Engine) DeleteElement(id string) bool {
	e.controller.Flush()
	return e.store.DeleteElement(id)
}

func (e *Engine) Select(id string) bool {
	e.controller.Flush()
	return e.store.Select(id)
}

func (e *Engine) Deselect() {
	e.controller.Flush()
	e.store.Deselect()
}

func (e *Engine) Reorder(from, to int) bool {
	e.controller.Flush()
	return e.store.Reorder(from, to)
}

func (e *Engine) Clear() {
	e.controller.Flush()
	e.store.Clear()
}

func (e *Engine) Undo() bool {
	e.controller.Flush()
	return e.store.Undo()
}

func (e *Engine) Redo() bool {
	e.controller.Flush()
	return e.store.Redo()
}

// SetFrame restyles the card. Unknown keys are kept as given and resolve to
// defaults at render time.
func (e *Engine) SetFrame(f scene.Frame) {
	if f.PaperKey == "" {
		f.PaperKey = scene.DefaultPaperKey
	}
	if f.BorderKey == "" {
		f.BorderKey = scene.DefaultBorderKey
	}
	e.store.SetFrame(f, e.resolver.Backdrop(f))
}

// --- Queries ---

// Render compiles the scene to draw commands.
func (e *Engine) Render() []DrawCommand {
	w, h := e.store.FrameSize()
	return CompileDrawCommands(e.store.Document(), w, h, e.resolver)
}

// RenderJSON returns Render as JSON.
func (e *Engine) RenderJSON() string {
	result, _ := DrawCommandsToJSON(e.Render())
	return result
}

// HitTest returns the topmost element under frame point (x, y), or "".
func (e *Engine) HitTest(x, y float64) string {
	return HitTest(e.store.Elements(), x, y)
}

// SelectionBounds returns the frame-space bounding box of the selected
// element, or an empty rect.
func (e *Engine) SelectionBounds() scene.Rect {
	sel, ok := e.store.Selected()
	if !ok {
		return scene.Rect{}
	}
	return sel.Bounds()
}

// --- Persistence ---

// Serialize returns the persisted form of the scene.
func (e *Engine) Serialize() ([]byte, error) {
	e.controller.Flush()
	return scene.Serialize(e.store.Document())
}

// Restore replaces the scene with a persisted snapshot. Malformed input
// degrades to defaults instead of failing.
func (e *Engine) Restore(data []byte) {
	doc := scene.Deserialize(data)
	e.controller.Flush()
	e.store.Load(doc, e.resolver.Backdrop(doc.Frame))
}
