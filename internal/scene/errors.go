package scene

import "errors"

var (
	// ErrNotFound reports an element id that no longer exists. Store
	// mutations treat it as a benign race and never return it; it is
	// surfaced only by lookups.
	ErrNotFound    = errors.New("element not found")
	ErrInvalidKind = errors.New("invalid element kind")
)
