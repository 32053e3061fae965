package scene

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/deylin/studio/internal/typeid"
)

// Document is the persisted form of a scene:
//
//	{"elements": [...], "paperKey": "...", "borderKey": "...", "backgroundColor": "..."}
type Document struct {
	Elements []Element `json:"elements"`
	Frame
}

// Serialize encodes doc as JSON.
func Serialize(doc Document) ([]byte, error) {
	if doc.Elements == nil {
		doc.Elements = []Element{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return data, nil
}

// Deserialize decodes a persisted scene. It never fails: every absent or
// malformed field falls back to its default, and elements that cannot be
// salvaged (unknown kind) are dropped.
func Deserialize(data []byte) Document {
	doc := Document{Elements: []Element{}, Frame: DefaultFrame()}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Warn("snapshot is not a JSON object, using empty scene", "error", err)
		return doc
	}

	decodeField(raw, "paperKey", &doc.PaperKey)
	decodeField(raw, "borderKey", &doc.BorderKey)
	decodeField(raw, "backgroundColor", &doc.BackgroundColor)
	if doc.PaperKey == "" {
		doc.PaperKey = DefaultPaperKey
	}
	if doc.BorderKey == "" {
		doc.BorderKey = DefaultBorderKey
	}

	var items []json.RawMessage
	if !decodeField(raw, "elements", &items) {
		return doc
	}

	seen := make(map[string]bool, len(items))
	for i, item := range items {
		e, ok := decodeElement(item)
		if !ok {
			slog.Warn("dropping malformed snapshot element", "index", i)
			continue
		}
		if e.ID == "" || seen[e.ID] {
			e.ID = typeid.NewElementID()
		}
		seen[e.ID] = true
		doc.Elements = append(doc.Elements, e)
	}
	return doc
}

func decodeElement(data json.RawMessage) (Element, bool) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Element{}, false
	}

	var kindStr string
	decodeField(raw, "kind", &kindStr)
	k, err := ParseKind(kindStr)
	if err != nil {
		return Element{}, false
	}

	e := Element{
		Kind:      k,
		Size:      DefaultSize(k),
		Transform: IdentityTransform(),
		Style:     Style{Opacity: 1},
	}
	decodeField(raw, "id", &e.ID)
	decodeField(raw, "content", &e.Content)
	decodeField(raw, "zIndex", &e.ZIndex)

	if t := decodeObject(raw, "transform"); t != nil {
		var p Patch
		p.X = decodeFloat(t, "x")
		p.Y = decodeFloat(t, "y")
		p.Rotation = decodeFloat(t, "rotation")
		p.ScaleX = decodeFloat(t, "scaleX")
		p.ScaleY = decodeFloat(t, "scaleY")
		e = p.Apply(e)
	}

	if sz := decodeObject(raw, "size"); sz != nil {
		e = Patch{
			Width:    decodeFloat(sz, "width"),
			Height:   decodeFloat(sz, "height"),
			FontSize: decodeFloat(sz, "fontSize"),
		}.Apply(e)
	}

	if st := decodeObject(raw, "style"); st != nil {
		e = Patch{
			Color:      decodeString(st, "color"),
			FontFamily: decodeString(st, "fontFamily"),
			Bold:       decodeBool(st, "bold"),
			Italic:     decodeBool(st, "italic"),
			Underline:  decodeBool(st, "underline"),
			Align:      decodeString(st, "align"),
			Mask:       decodeString(st, "mask"),
			Filter:     decodeString(st, "filter"),
			Fill:       decodeString(st, "fill"),
			Opacity:    decodeFloat(st, "opacity"),
			Shadow:     decodeBool(st, "shadow"),
		}.Apply(e)
	}

	return e, true
}

func decodeField[T any](raw map[string]json.RawMessage, key string, dst *T) bool {
	v, ok := raw[key]
	if !ok || string(v) == "null" {
		return false
	}
	var out T
	if err := json.Unmarshal(v, &out); err != nil {
		return false
	}
	*dst = out
	return true
}

func decodeObject(raw map[string]json.RawMessage, key string) map[string]json.RawMessage {
	var obj map[string]json.RawMessage
	if !decodeField(raw, key, &obj) {
		return nil
	}
	return obj
}

func decodeOptional[T any](raw map[string]json.RawMessage, key string) *T {
	var v T
	if !decodeField(raw, key, &v) {
		return nil
	}
	return &v
}

func decodeFloat(raw map[string]json.RawMessage, key string) *float64 {
	return decodeOptional[float64](raw, key)
}

func decodeString(raw map[string]json.RawMessage, key string) *string {
	return decodeOptional[string](raw, key)
}

func decodeBool(raw map[string]json.RawMessage, key string) *bool {
	return decodeOptional[bool](raw, key)
}
