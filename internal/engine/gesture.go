package engine

import (
	"errors"
	"fmt"

	"github.com/deylin/studio/internal/manip"
	"github.com/deylin/studio/internal/scene"
)

var ErrUnknownGesture = errors.New("unknown gesture")

// Gesture types accepted by ApplyGesture.
const (
	GestureDrag   = "drag"
	GestureScale  = "scale"
	GestureRotate = "rotate"
	GesturePinch  = "pinch"
	GestureEnd    = "end"
)

// Gesture is one step of a direct manipulation, as sent by clients.
type Gesture struct {
	Type string `json:"type"`

	// drag
	DX float64 `json:"dx,omitempty"`
	DY float64 `json:"dy,omitempty"`

	// scale and rotate
	Transform *scene.Transform `json:"transform,omitempty"`
	Anchor    string           `json:"anchor,omitempty"`

	// rotate without a full transform
	Delta float64 `json:"delta,omitempty"`

	// pinch
	ScaleDelta float64 `json:"scaleDelta,omitempty"`
	RotDelta   float64 `json:"rotDelta,omitempty"`
}

// ApplyGesture routes g to the manipulation controller. It reports whether
// the scene changed.
func (e *Engine) ApplyGesture(g Gesture) (bool, error) {
	c := e.controller
	switch g.Type {
	case GestureDrag:
		return c.DragDelta(g.DX, g.DY), nil
	case GestureScale:
		if g.Transform == nil {
			return false, fmt.Errorf("%w: scale without transform", ErrUnknownGesture)
		}
		return c.Scale(*g.Transform, manip.ParseAnchor(g.Anchor)), nil
	case GestureRotate:
		if g.Transform != nil {
			return c.Rotate(*g.Transform), nil
		}
		return c.RotateBy(g.Delta), nil
	case GesturePinch:
		return c.Pinch(manip.Pinch{ScaleDelta: g.ScaleDelta, RotDelta: g.RotDelta}), nil
	case GestureEnd:
		return c.End(), nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownGesture, g.Type)
	}
}
