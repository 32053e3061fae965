package style

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Tables is the on-disk form of extra style entries, merged over the
// built-in tables at startup.
type Tables struct {
	Papers  []Paper  `json:"papers"`
	Borders []Border `json:"borders"`
	Fonts   []Font   `json:"fonts"`
	Masks   []Mask   `json:"masks"`
}

// Load registers every entry in tables. Invalid entries are skipped and
// reported together.
func (r *Resolver) Load(t Tables) error {
	var errs []error
	for _, p := range t.Papers {
		errs = append(errs, r.RegisterPaper(p))
	}
	for _, b := range t.Borders {
		errs = append(errs, r.RegisterBorder(b))
	}
	for _, f := range t.Fonts {
		errs = append(errs, r.RegisterFont(f))
	}
	for _, m := range t.Masks {
		errs = append(errs, r.RegisterMask(m))
	}
	return errors.Join(errs...)
}

// LoadJSON decodes Tables from rd and registers them.
func (r *Resolver) LoadJSON(rd io.Reader) error {
	var t Tables
	if err := json.NewDecoder(rd).Decode(&t); err != nil {
		return fmt.Errorf("decode style tables: %w", err)
	}
	return r.Load(t)
}

// LoadFile reads extra tables from path.
func (r *Resolver) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open style tables: %w", err)
	}
	defer f.Close()

	if err := r.LoadJSON(f); err != nil {
		return err
	}
	slog.Info("style tables loaded", "path", path)
	return nil
}
