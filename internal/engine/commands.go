package engine

import (
	"encoding/json"
	"log/slog"

	"github.com/deylin/studio/internal/scene"
	"github.com/deylin/studio/internal/style"
)

// Draw operations, in the order a painter meets them.
const (
	OpPaper   = "paper"
	OpBorder  = "border"
	OpPath    = "path"
	OpImage   = "image"
	OpText    = "text"
	OpEmoji   = "emoji"
	OpSave    = "save"
	OpClip    = "clip"
	OpRestore = "restore"
)

// DrawCommand is a single drawing operation. Element commands carry the
// element's local-to-frame matrix; geometry is in the element's local box.
type DrawCommand struct {
	Op        string              `json:"op"`
	ElementID string              `json:"elementId,omitempty"` // for hit correlation
	Transform []float64           `json:"transform,omitempty"` // [a, b, c, d, e, f]
	Width     float64             `json:"width,omitempty"`
	Height    float64             `json:"height,omitempty"`
	Path      []style.PathCommand `json:"path,omitempty"`
	Fill      string              `json:"fill,omitempty"`
	Opacity   float64             `json:"opacity,omitempty"`
	Shadow    bool                `json:"shadow,omitempty"`

	// Image
	Src    string `json:"src,omitempty"`
	Filter string `json:"filter,omitempty"`

	// Text and emoji
	Text      string  `json:"text,omitempty"`
	Font      string  `json:"font,omitempty"`
	FontSize  float64 `json:"fontSize,omitempty"`
	Bold      bool    `json:"bold,omitempty"`
	Italic    bool    `json:"italic,omitempty"`
	Underline bool    `json:"underline,omitempty"`
	Align     string  `json:"align,omitempty"`

	// Frame
	Paper  *style.Paper  `json:"paper,omitempty"`
	Border *style.Border `json:"border,omitempty"`
}

// CompileDrawCommands turns a scene document into a command list in
// painter's order: paper, elements back to front, border on top. Fully
// transparent elements are skipped.
func CompileDrawCommands(doc scene.Document, w, h float64, r *style.Resolver) []DrawCommand {
	paper := r.Paper(doc.PaperKey)
	border := r.Border(doc.BorderKey)

	commands := make([]DrawCommand, 0, len(doc.Elements)+2)
	commands = append(commands, DrawCommand{
		Op:     OpPaper,
		Width:  w,
		Height: h,
		Fill:   r.Backdrop(doc.Frame),
		Paper:  &paper,
	})

	for _, e := range doc.Elements {
		if e.Style.Opacity <= 0 {
			continue
		}
		commands = compileElement(commands, e, r)
	}

	if border.Line != style.LineNone && border.Width > 0 {
		commands = append(commands, DrawCommand{Op: OpBorder, Width: w, Height: h, Border: &border})
	}
	return commands
}

func compileElement(commands []DrawCommand, e scene.Element, r *style.Resolver) []DrawCommand {
	cmd := DrawCommand{
		ElementID: e.ID,
		Transform: e.Matrix().ToSlice(),
		Width:     e.Size.Width,
		Height:    e.Size.Height,
		Opacity:   e.Style.Opacity,
		Shadow:    e.Style.Shadow,
	}

	switch e.Kind {
	case scene.KindText:
		cmd.Op = OpText
		cmd.Text = e.Content
		cmd.Font = r.Font(e.Style.FontFamily).Family
		cmd.FontSize = e.Size.FontSize
		cmd.Fill = e.Style.Color
		cmd.Bold, cmd.Italic, cmd.Underline = e.Style.Bold, e.Style.Italic, e.Style.Underline
		cmd.Align = e.Style.Align

	case scene.KindEmoji:
		cmd.Op = OpEmoji
		cmd.Text = e.Content
		cmd.FontSize = e.Size.FontSize
		cmd.Align = "center"

	case scene.KindShape:
		path, ok := style.Shape(e.Content)
		if !ok {
			slog.Warn("unknown shape, using default", "id", e.ID, "shape", e.Content)
			path, _ = style.Shape(scene.DefaultShapeID)
		}
		cmd.Op = OpPath
		cmd.Path = style.FitPath(path, e.Size.Width, e.Size.Height)
		cmd.Fill = e.Style.Fill

	case scene.KindImage:
		cmd.Op = OpImage
		cmd.Src = e.Content
		cmd.Filter = e.Style.Filter

		mask := r.Mask(e.Style.Mask)
		if len(mask.Path) > 0 {
			return append(commands,
				DrawCommand{Op: OpSave},
				DrawCommand{
					Op:        OpClip,
					ElementID: e.ID,
					Transform: cmd.Transform,
					Path:      style.FitPath(mask.Path, e.Size.Width, e.Size.Height),
				},
				cmd,
				DrawCommand{Op: OpRestore},
			)
		}
	}
	return append(commands, cmd)
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	if commands == nil {
		commands = []DrawCommand{}
	}
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// HitTest returns the id of the topmost element whose box contains the
// frame point (x, y), or "". elements must be in render order.
func HitTest(elements []scene.Element, x, y float64) string {
	for i := len(elements) - 1; i >= 0; i-- {
		e := elements[i]
		m := e.Matrix()
		if m.Determinant() == 0 {
			continue
		}
		lx, ly := m.Invert().TransformPoint(x, y)
		if (scene.Rect{Width: e.Size.Width, Height: e.Size.Height}).Contains(lx, ly) {
			return e.ID
		}
	}
	return ""
}

// RectToJSON serializes a Rect to JSON.
func RectToJSON(r scene.Rect) string {
	data, _ := json.Marshal(r)
	return string(data)
}
