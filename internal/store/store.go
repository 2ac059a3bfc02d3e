// Package store implements the in-memory intent corpus: loading from disk,
// indexing by id/(kind,name)/name, and the lookups the rest of the pipeline
// needs. The store is immutable once loaded — nothing in this package
// mutates a Document after Add.
package store

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/mazharm/intent-engine/internal/canonical"
	"github.com/mazharm/intent-engine/internal/model"
	"github.com/mazharm/intent-engine/internal/model/schema"
)

// kindName is the (kind, name) uniqueness key.
type kindName struct {
	kind model.Kind
	name string
}

// Store is the indexed, loaded corpus. Zero value is usable via New.
type Store struct {
	byID       map[uuid.UUID]model.Document
	byKindName map[kindName]uuid.UUID
	byName     map[string][]uuid.UUID
	order      []uuid.UUID // insertion order, for deterministic fallback iteration
}

// New returns an empty store.
func New() *Store {
	return &Store{
		byID:       map[uuid.UUID]model.Document{},
		byKindName: map[kindName]uuid.UUID{},
		byName:     map[string][]uuid.UUID{},
	}
}

// ErrDuplicateID is returned by Add when doc.ID already exists in the store.
type ErrDuplicateID struct{ ID uuid.UUID }

func (e *ErrDuplicateID) Error() string { return fmt.Sprintf("duplicate intent id: %s", e.ID) }

// ErrDuplicateName is returned by Add when (doc.Kind, doc.Name) already exists.
type ErrDuplicateName struct {
	Kind model.Kind
	Name string
}

func (e *ErrDuplicateName) Error() string {
	return fmt.Sprintf("duplicate name %q for kind %s", e.Name, e.Kind)
}

// Add inserts doc into the store, enforcing the corpus's uniqueness
// invariants: (kind, name) pairs are unique, id is unique.
func (s *Store) Add(doc model.Document) error {
	if _, exists := s.byID[doc.ID]; exists {
		return &ErrDuplicateID{ID: doc.ID}
	}
	kn := kindName{doc.Kind, doc.Name}
	if _, exists := s.byKindName[kn]; exists {
		return &ErrDuplicateName{Kind: doc.Kind, Name: doc.Name}
	}

	s.byID[doc.ID] = doc
	s.byKindName[kn] = doc.ID
	s.byName[doc.Name] = append(s.byName[doc.Name], doc.ID)
	s.order = append(s.order, doc.ID)
	return nil
}

// Get returns the document with the given id.
func (s *Store) Get(id uuid.UUID) (model.Document, bool) {
	d, ok := s.byID[id]
	return d, ok
}

// GetByKindName looks up a document by its (kind, name) key.
func (s *Store) GetByKindName(kind model.Kind, name string) (model.Document, bool) {
	id, ok := s.byKindName[kindName{kind, name}]
	if !ok {
		return model.Document{}, false
	}
	return s.byID[id]
}

// FindByName returns every document with the given name, regardless of kind.
func (s *Store) FindByName(name string) []model.Document {
	ids := s.byName[name]
	out := make([]model.Document, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byID[id])
	}
	sortDocs(out)
	return out
}

// GetByKind returns every document of the given kind, sorted by id.
func (s *Store) GetByKind(kind model.Kind) []model.Document {
	var out []model.Document
	for _, id := range s.order {
		d := s.byID[id]
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	sortDocs(out)
	return out
}

// List returns every document, optionally filtered by kind, sorted by
// (kind, name) for the `list` CLI command.
func (s *Store) List(kind *model.Kind) []model.Document {
	var out []model.Document
	for _, id := range s.order {
		d := s.byID[id]
		if kind != nil && d.Kind != *kind {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Iter returns every document in a stable, sorted order (by id string).
// Any iteration feeding output must be preceded by a key sort; Iter is
// that sorted view.
func (s *Store) Iter() []model.Document {
	out := make([]model.Document, 0, len(s.byID))
	for _, d := range s.byID {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

// Len returns the number of documents in the store.
func (s *Store) Len() int { return len(s.byID) }

func sortDocs(docs []model.Document) {
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID.String() < docs[j].ID.String() })
}

// LoadFromPath walks dir, loads every *.intent.json file, and adds it to a
// fresh store. Loading is unordered (filepath.WalkDir order is not
// guaranteed stable across platforms); correctness must not — and does
// not, since Iter/List always re-sort — depend on it.
func LoadFromPath(dir string) (*Store, []LoadError) {
	s := New()
	var loadErrs []LoadError

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return s, nil
	}

	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			loadErrs = append(loadErrs, LoadError{File: path, Err: err})
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".intent.json") {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			loadErrs = append(loadErrs, LoadError{File: path, Err: err})
			return nil
		}
		doc, err := parseIntentFile(raw, path)
		if err != nil {
			loadErrs = append(loadErrs, LoadError{File: path, Err: err})
			return nil
		}
		if err := s.Add(doc); err != nil {
			loadErrs = append(loadErrs, LoadError{File: path, Err: err})
		}
		return nil
	})

	return s, loadErrs
}

// LoadError pairs a file with the error encountered loading it.
type LoadError struct {
	File string
	Err  error
}

func (e LoadError) Error() string { return fmt.Sprintf("%s: %v", e.File, e.Err) }

// parseIntentFile decodes, schema-validates, and builds a model.Document
// from one .intent.json file's raw bytes.
func parseIntentFile(raw []byte, sourceFile string) (model.Document, error) {
	decoded, err := canonical.Decode(raw)
	if err != nil {
		return model.Document{}, err
	}
	if err := schema.ValidateEnvelope(decoded); err != nil {
		return model.Document{}, err
	}
	doc, err := model.FromCanonical(decoded, sourceFile)
	if err != nil {
		return model.Document{}, err
	}
	if err := schema.ValidateSpec(doc.Kind, doc.Spec); err != nil {
		return model.Document{}, fmt.Errorf("spec for %s %q: %w", doc.Kind, doc.Name, err)
	}
	return doc, nil
}

// ParseIntentFile is the exported form used by collaborators outside this
// package (e.g. internal/vcsref materialising a baseline from VCS content
// rather than the filesystem).
func ParseIntentFile(raw []byte, sourceFile string) (model.Document, error) {
	return parseIntentFile(raw, sourceFile)
}

// GetDependencies resolves id's type/workflow/service references to
// documents in this same store, skipping native/engine names and anything
// that fails to resolve (resolution errors are the resolver's concern, not
// this convenience accessor's).
func (s *Store) GetDependencies(id uuid.UUID) []model.Document {
	doc, ok := s.Get(id)
	if !ok {
		return nil
	}
	var deps []model.Document
	for _, name := range doc.TypeReferences() {
		if model.IsNativeOrEngine(name) {
			continue
		}
		if d, ok := s.GetByKindName(model.Type, name); ok {
			deps = append(deps, d)
		}
	}
	if wf := doc.WorkflowReference(); wf != "" {
		if d, ok := s.GetByKindName(model.Workflow, wf); ok {
			deps = append(deps, d)
		}
	}
	for _, svc := range doc.ServiceReferences() {
		if d, ok := s.GetByKindName(model.Service, svc); ok {
			deps = append(deps, d)
		}
	}
	sortDocs(deps)
	return deps
}

// GetDependents iterates the whole store and returns every document whose
// dependencies include id.
func (s *Store) GetDependents(id uuid.UUID) []model.Document {
	var out []model.Document
	for _, d := range s.Iter() {
		for _, dep := range s.GetDependencies(d.ID) {
			if dep.ID == id {
				out = append(out, d)
				break
			}
		}
	}
	return out
}
