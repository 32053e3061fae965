//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"syscall/js"

	"github.com/deylin/studio/internal/engine"
	"github.com/deylin/studio/internal/raster"
	"github.com/deylin/studio/internal/scene"
)

var eng *engine.Engine

func newEngine(aspect engine.Aspect) *engine.Engine {
	return engine.New(engine.Options{
		Aspect: aspect,
		Export: engine.ExportOptions{Rasterizer: raster.New()},
	})
}

func main() {
	eng = newEngine(engine.Aspect3x4)

	api := js.Global().Get("Object").New()

	// --- Commands ---
	api.Set("reset", js.FuncOf(reset))
	api.Set("addElement", js.FuncOf(addElement))
	api.Set("updateElement", js.FuncOf(updateElement))
	api.Set("deleteElement", js.FuncOf(deleteElement))
	api.Set("select", js.FuncOf(selectElement))
	api.Set("deselect", js.FuncOf(deselect))
	api.Set("reorder", js.FuncOf(reorder))
	api.Set("clear", js.FuncOf(clearScene))
	api.Set("undo", js.FuncOf(undo))
	api.Set("redo", js.FuncOf(redo))
	api.Set("setFrame", js.FuncOf(setFrame))
	api.Set("gesture", js.FuncOf(gesture))
	api.Set("deserialize", js.FuncOf(deserialize))
	api.Set("exportPNG", js.FuncOf(exportPNG))

	// --- Queries ---
	api.Set("render", js.FuncOf(render))
	api.Set("hitTest", js.FuncOf(hitTest))
	api.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	api.Set("getSelection", js.FuncOf(getSelection))
	api.Set("serialize", js.FuncOf(serialize))
	api.Set("canUndo", js.FuncOf(canUndo))
	api.Set("canRedo", js.FuncOf(canRedo))
	api.Set("getStyles", js.FuncOf(getStyles))
	api.Set("getFrameSize", js.FuncOf(getFrameSize))

	js.Global().Set("stickerEngine", api)
	js.Global().Set("stickerWasmReady", js.ValueOf(true))

	select {}
}

func errorResult(err error) any {
	return js.ValueOf(map[string]any{"error": err.Error()})
}

func okResult() any {
	return js.ValueOf(map[string]any{"ok": true})
}

func stringArg(args []js.Value, i int) string {
	if len(args) <= i || args[i].Type() != js.TypeString {
		return ""
	}
	return args[i].String()
}

// decodeArg unmarshals an optional JSON string argument.
func decodeArg(args []js.Value, i int, dst any) error {
	s := stringArg(args, i)
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), dst)
}

// --- Command Handlers ---

func reset(this js.Value, args []js.Value) any {
	aspect := engine.Aspect3x4
	if s := stringArg(args, 0); s != "" {
		a, err := engine.ParseAspect(s)
		if err != nil {
			return errorResult(err)
		}
		aspect = a
	}
	eng = newEngine(aspect)
	return okResult()
}

func addElement(this js.Value, args []js.Value) any {
	kind, err := scene.ParseKind(stringArg(args, 0))
	if err != nil {
		return errorResult(err)
	}
	var overrides scene.Patch
	if err := decodeArg(args, 2, &overrides); err != nil {
		return errorResult(err)
	}
	return js.ValueOf(eng.AddElement(kind, stringArg(args, 1), overrides))
}

func updateElement(this js.Value, args []js.Value) any {
	var p scene.Patch
	if err := decodeArg(args, 1, &p); err != nil {
		return errorResult(err)
	}
	return js.ValueOf(eng.UpdateElement(stringArg(args, 0), p))
}

func deleteElement(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.DeleteElement(stringArg(args, 0)))
}

func selectElement(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.Select(stringArg(args, 0)))
}

func deselect(this js.Value, args []js.Value) any {
	eng.Deselect()
	return nil
}

func reorder(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.Reorder(args[0].Int(), args[1].Int()))
}

func clearScene(this js.Value, args []js.Value) any {
	eng.Clear()
	return nil
}

func undo(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.Undo())
}

func redo(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.Redo())
}

func setFrame(this js.Value, args []js.Value) any {
	var f scene.Frame
	if err := decodeArg(args, 0, &f); err != nil {
		return errorResult(err)
	}
	eng.SetFrame(f)
	return okResult()
}

func gesture(this js.Value, args []js.Value) any {
	var g engine.Gesture
	if err := decodeArg(args, 0, &g); err != nil {
		return errorResult(err)
	}
	changed, err := eng.ApplyGesture(g)
	if err != nil {
		return errorResult(err)
	}
	return js.ValueOf(map[string]any{"changed": changed})
}

func deserialize(this js.Value, args []js.Value) any {
	eng.Restore([]byte(stringArg(args, 0)))
	return okResult()
}

// exportPNG resolves to a Uint8Array. Rasterizing blocks, so it runs off the
// callback goroutine.
func exportPNG(this js.Value, args []js.Value) any {
	executor := js.FuncOf(func(this js.Value, p []js.Value) any {
		resolve, reject := p[0], p[1]
		go func() {
			data, err := eng.Export(context.Background())
			if err != nil {
				reject.Invoke(js.Global().Get("Error").New(err.Error()))
				return
			}
			out := js.Global().Get("Uint8Array").New(len(data))
			js.CopyBytesToJS(out, data)
			resolve.Invoke(out)
		}()
		return nil
	})
	defer executor.Release()
	return js.Global().Get("Promise").New(executor)
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.RenderJSON())
}

func hitTest(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	return js.ValueOf(eng.HitTest(args[0].Float(), args[1].Float()))
}

func getSelectionBounds(this js.Value, args []js.Value) any {
	return js.ValueOf(toJSON(eng.SelectionBounds()))
}

func getSelection(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.Store().SelectedID())
}

func serialize(this js.Value, args []js.Value) any {
	data, err := eng.Serialize()
	if err != nil {
		return errorResult(err)
	}
	return js.ValueOf(string(data))
}

func canUndo(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.Store().CanUndo())
}

func canRedo(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.Store().CanRedo())
}

func getStyles(this js.Value, args []js.Value) any {
	return js.ValueOf(toJSON(eng.Resolver().Catalog()))
}

func getFrameSize(this js.Value, args []js.Value) any {
	w, h := eng.FrameSize()
	return js.ValueOf(map[string]any{"width": w, "height": h})
}

func toJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
