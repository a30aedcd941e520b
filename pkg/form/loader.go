package form

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// ErrFormNotFound is returned when a form id is not present in a Store.
var ErrFormNotFound = errors.New("form: form not found")

// Store holds the forms loaded from a directory, keyed by id.
type Store struct {
	forms map[string]Form
}

// NewStore builds a store from already decoded forms.
func NewStore(forms ...Form) (*Store, error) {
	store := &Store{forms: make(map[string]Form, len(forms))}
	for _, f := range forms {
		if err := store.add(f); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// LoadFS walks the provided filesystem and parses JSON/YAML form documents.
// When fsys is nil or no form files are present, the returned store is empty.
// Documents without an _id take the id of their file name.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{forms: make(map[string]Form)}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isFormFile(p) {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("form: read %s: %w", p, err)
		}
		f, err := Parse(data, p)
		if err != nil {
			return err
		}
		if f.ID == "" {
			base := path.Base(p)
			f.ID = strings.TrimSuffix(base, path.Ext(base))
		}
		return store.add(f)
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) add(f Form) error {
	if strings.TrimSpace(f.ID) == "" {
		return fmt.Errorf("form: %s has an empty form id", f.Source)
	}
	if existing, ok := s.forms[f.ID]; ok {
		return fmt.Errorf("form: duplicate form %q (%s and %s)", f.ID, existing.Source, f.Source)
	}
	s.forms[f.ID] = f
	return nil
}

// Form returns the form registered under id.
func (s *Store) Form(id string) (Form, bool) {
	if s == nil {
		return Form{}, false
	}
	f, ok := s.forms[id]
	return f, ok
}

// Lookup is Form with an error result wrapping ErrFormNotFound.
func (s *Store) Lookup(id string) (Form, error) {
	f, ok := s.Form(id)
	if !ok {
		return Form{}, fmt.Errorf("%w: %q", ErrFormNotFound, id)
	}
	return f, nil
}

// IDs returns the registered form ids in sorted order.
func (s *Store) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.forms))
	for id := range s.forms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len reports the number of forms in the store.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.forms)
}

func isFormFile(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
