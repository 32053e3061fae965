package style

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/deylin/studio/internal/scene"
)

type registry[T any] struct {
	kind     string
	fallback string
	items    map[string]T
}

func newRegistry[T any](kind, fallback string, items []T, key func(T) string) registry[T] {
	r := registry[T]{kind: kind, fallback: fallback, items: make(map[string]T, len(items))}
	for _, it := range items {
		r.items[key(it)] = it
	}
	return r
}

func (r registry[T]) lookup(key string) (T, error) {
	if it, ok := r.items[key]; ok {
		return it, nil
	}
	var zero T
	return zero, fmt.Errorf("%w: %s %q", ErrStyleNotFound, r.kind, key)
}

func (r registry[T]) resolve(key string) T {
	it, err := r.lookup(key)
	if err == nil {
		return it
	}
	if key != "" {
		slog.Warn("unknown style key, using default", "kind", r.kind, "key", key, "default", r.fallback)
	}
	return r.items[r.fallback]
}

func (r registry[T]) keys() []string {
	out := make([]string, 0, len(r.items))
	for k := range r.items {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Resolver maps style keys to descriptors. Unknown keys never fail: the
// plain accessors fall back to the default entry. Safe for concurrent use.
type Resolver struct {
	mu      sync.RWMutex
	papers  registry[Paper]
	borders registry[Border]
	fonts   registry[Font]
	masks   registry[Mask]
}

// NewResolver returns a resolver loaded with the built-in tables.
func NewResolver() *Resolver {
	return &Resolver{
		papers:  newRegistry("paper", DefaultPaper, builtinPapers(), func(p Paper) string { return p.Key }),
		borders: newRegistry("border", DefaultBorder, builtinBorders(), func(b Border) string { return b.Key }),
		fonts:   newRegistry("font", DefaultFont, builtinFonts(), func(f Font) string { return f.Key }),
		masks:   newRegistry("mask", DefaultMask, builtinMasks(), func(m Mask) string { return m.Key }),
	}
}

func (r *Resolver) Paper(key string) Paper {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.papers.resolve(key)
}

func (r *Resolver) Border(key string) Border {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.borders.resolve(key)
}

func (r *Resolver) Font(key string) Font {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fonts.resolve(key)
}

func (r *Resolver) Mask(key string) Mask {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.masks.resolve(key)
}

// LookupPaper returns ErrStyleNotFound for unknown keys.
func (r *Resolver) LookupPaper(key string) (Paper, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.papers.lookup(key)
}

func (r *Resolver) LookupBorder(key string) (Border, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.borders.lookup(key)
}

func (r *Resolver) LookupFont(key string) (Font, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fonts.lookup(key)
}

func (r *Resolver) LookupMask(key string) (Mask, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.masks.lookup(key)
}

// RegisterPaper adds or replaces a paper.
func (r *Resolver) RegisterPaper(p Paper) error {
	if p.Key == "" {
		return fmt.Errorf("%w: paper without key", ErrInvalidStyle)
	}
	if _, _, _, ok := scene.ParseHexColor(p.Background); !ok {
		return fmt.Errorf("%w: paper %q background %q", ErrInvalidStyle, p.Key, p.Background)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.papers.items[p.Key] = p
	return nil
}

func (r *Resolver) RegisterBorder(b Border) error {
	if b.Key == "" {
		return fmt.Errorf("%w: border without key", ErrInvalidStyle)
	}
	if b.Width < 0 {
		return fmt.Errorf("%w: border %q has negative width", ErrInvalidStyle, b.Key)
	}
	if b.Line == "" {
		b.Line = LineSolid
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.borders.items[b.Key] = b
	return nil
}

func (r *Resolver) RegisterFont(f Font) error {
	if f.Key == "" || f.Family == "" {
		return fmt.Errorf("%w: font needs a key and a family", ErrInvalidStyle)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fonts.items[f.Key] = f
	return nil
}

// RegisterMask adds a mask. A mask without a path reuses the shape of the
// same name, if any.
func (r *Resolver) RegisterMask(m Mask) error {
	if m.Key == "" {
		return fmt.Errorf("%w: mask without key", ErrInvalidStyle)
	}
	if len(m.Path) == 0 {
		path, ok := Shape(m.Key)
		if !ok {
			return fmt.Errorf("%w: mask %q has no path and no matching shape", ErrInvalidStyle, m.Key)
		}
		m.Path = path
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.masks.items[m.Key] = m
	return nil
}

// Backdrop returns the effective background color of a frame: the explicit
// override if it parses, otherwise the paper's base color.
func (r *Resolver) Backdrop(f scene.Frame) string {
	if _, _, _, ok := scene.ParseHexColor(f.BackgroundColor); ok {
		return f.BackgroundColor
	}
	return r.Paper(f.PaperKey).Background
}

// Catalog lists every registered key, for pickers.
type Catalog struct {
	Papers  []string `json:"papers"`
	Borders []string `json:"borders"`
	Fonts   []string `json:"fonts"`
	Masks   []string `json:"masks"`
	Shapes  []string `json:"shapes"`
}

func (r *Resolver) Catalog() Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Catalog{
		Papers:  r.papers.keys(),
		Borders: r.borders.keys(),
		Fonts:   r.fonts.keys(),
		Masks:   r.masks.keys(),
		Shapes:  ShapeIDs(),
	}
}
