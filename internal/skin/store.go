package skin

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
)

//go:embed catalog/*.yaml
var catalogFS embed.FS

// ErrNoSkins is returned when a directory yields no usable skin.
var ErrNoSkins = errors.New("no valid skins found")

// Store is the ordered, read-only set of skins offered to the user.
type Store struct {
	skins  []*Config
	byName map[string]*Config
}

// Catalog returns the built-in product skins.
func Catalog() (*Store, error) {
	return Load(catalogFS, "catalog")
}

// Load reads every skin file in dir, ordered by file name.
//
// Invalid definitions are left out of the store and reported together in the
// returned error; the store is still usable unless it is empty, in which
// case the error wraps ErrNoSkins.
func Load(fsys fs.FS, dir string) (*Store, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading skins dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !IsSkinFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	s := &Store{byName: make(map[string]*Config)}
	var errs []error
	for _, name := range names {
		p := path.Join(dir, name)
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			errs = append(errs, fmt.Errorf("reading %s: %w", p, err))
			continue
		}
		cfg, err := Parse(p, data)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if prev, dup := s.byName[cfg.Name]; dup {
			errs = append(errs, &ValidationError{
				Source:   p,
				Name:     cfg.Name,
				Problems: []string{"duplicate name, already defined in " + prev.Source},
			})
			continue
		}
		s.skins = append(s.skins, cfg)
		s.byName[cfg.Name] = cfg
	}

	if len(s.skins) == 0 {
		errs = append(errs, fmt.Errorf("%s: %w", dir, ErrNoSkins))
	}
	return s, errors.Join(errs...)
}

// List returns the skins in display order. The slice is a copy.
func (s *Store) List() []*Config {
	out := make([]*Config, len(s.skins))
	copy(out, s.skins)
	return out
}

// Get looks a skin up by name.
func (s *Store) Get(name string) (*Config, bool) {
	cfg, ok := s.byName[name]
	return cfg, ok
}

// At returns the skin at display position i.
func (s *Store) At(i int) (*Config, bool) {
	if i < 0 || i >= len(s.skins) {
		return nil, false
	}
	return s.skins[i], true
}

// Names returns the skin names in display order.
func (s *Store) Names() []string {
	out := make([]string, len(s.skins))
	for i, c := range s.skins {
		out[i] = c.Name
	}
	return out
}

// Len returns the number of skins.
func (s *Store) Len() int {
	return len(s.skins)
}
