package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mazharm/intent-engine/internal/canonical"
	"github.com/mazharm/intent-engine/internal/model"
)

func typeDoc(name string) model.Document {
	doc := model.New(model.Type, name)
	doc.Spec = map[string]any{"fields": map[string]any{}}
	return doc
}

func TestAddEnforcesUniqueID(t *testing.T) {
	s := New()
	doc := typeDoc("Widget")
	require.NoError(t, s.Add(doc))

	dup := doc
	dup.Name = "OtherWidget"
	err := s.Add(dup)
	require.Error(t, err)
	var dupID *ErrDuplicateID
	require.ErrorAs(t, err, &dupID)
}

func TestAddEnforcesUniqueKindName(t *testing.T) {
	s := New()
	require.NoError(t, s.Add(typeDoc("Widget")))

	err := s.Add(typeDoc("Widget"))
	require.Error(t, err)
	var dupName *ErrDuplicateName
	require.ErrorAs(t, err, &dupName)
}

func TestGetByKindNameFindsDocument(t *testing.T) {
	s := New()
	doc := typeDoc("Widget")
	require.NoError(t, s.Add(doc))

	found, ok := s.GetByKindName(model.Type, "Widget")
	require.True(t, ok)
	require.Equal(t, doc.ID, found.ID)

	_, ok = s.GetByKindName(model.Service, "Widget")
	require.False(t, ok)
}

func TestListSortsByKindThenName(t *testing.T) {
	s := New()
	require.NoError(t, s.Add(typeDoc("Zeta")))
	require.NoError(t, s.Add(typeDoc("Alpha")))
	svc := model.New(model.Service, "Payments")
	svc.Spec = map[string]any{"protocol": "http", "base_url": "http://x", "operations": map[string]any{}}
	require.NoError(t, s.Add(svc))

	docs := s.List(nil)
	require.Len(t, docs, 3)
	require.Equal(t, "Payments", docs[0].Name)
	require.Equal(t, "Alpha", docs[1].Name)
	require.Equal(t, "Zeta", docs[2].Name)
}

func TestListFiltersByKind(t *testing.T) {
	s := New()
	require.NoError(t, s.Add(typeDoc("Widget")))
	svc := model.New(model.Service, "Payments")
	svc.Spec = map[string]any{"protocol": "http", "base_url": "http://x", "operations": map[string]any{}}
	require.NoError(t, s.Add(svc))

	kind := model.Type
	docs := s.List(&kind)
	require.Len(t, docs, 1)
	require.Equal(t, "Widget", docs[0].Name)
}

func TestIterIsSortedByID(t *testing.T) {
	s := New()
	require.NoError(t, s.Add(typeDoc("A")))
	require.NoError(t, s.Add(typeDoc("B")))
	require.NoError(t, s.Add(typeDoc("C")))

	docs := s.Iter()
	require.Len(t, docs, 3)
	for i := 1; i < len(docs); i++ {
		require.Less(t, docs[i-1].ID.String(), docs[i].ID.String())
	}
}

func TestLoadFromPathLoadsIntentFiles(t *testing.T) {
	dir := t.TempDir()
	doc := typeDoc("Widget")
	pretty, err := canonical.MarshalPretty(doc.Canonical())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "widget.intent.json"), pretty, 0o644))

	s, loadErrs := LoadFromPath(dir)
	require.Empty(t, loadErrs)
	require.Equal(t, 1, s.Len())
	found, ok := s.GetByKindName(model.Type, "Widget")
	require.True(t, ok)
	require.Equal(t, filepath.Join(dir, "widget.intent.json"), found.SourceFile)
}

func TestLoadFromPathCollectsErrorsForInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.intent.json"), []byte("{not json"), 0o644))

	s, loadErrs := LoadFromPath(dir)
	require.Equal(t, 0, s.Len())
	require.Len(t, loadErrs, 1)
}

func TestLoadFromPathMissingDirYieldsEmptyStore(t *testing.T) {
	s, loadErrs := LoadFromPath(filepath.Join(t.TempDir(), "nope"))
	require.Empty(t, loadErrs)
	require.Equal(t, 0, s.Len())
}

func TestGetDependenciesResolvesTypeReferences(t *testing.T) {
	s := New()
	customer := typeDoc("Customer")
	require.NoError(t, s.Add(customer))

	order := model.New(model.Type, "Order")
	order.Spec = map[string]any{"fields": map[string]any{
		"customer": map[string]any{"field_type": "Customer", "required": true},
	}}
	require.NoError(t, s.Add(order))

	deps := s.GetDependencies(order.ID)
	require.Len(t, deps, 1)
	require.Equal(t, "Customer", deps[0].Name)
}

func TestGetDependentsFindsReverseEdge(t *testing.T) {
	s := New()
	customer := typeDoc("Customer")
	require.NoError(t, s.Add(customer))

	order := model.New(model.Type, "Order")
	order.Spec = map[string]any{"fields": map[string]any{
		"customer": map[string]any{"field_type": "Customer", "required": true},
	}}
	require.NoError(t, s.Add(order))

	dependents := s.GetDependents(customer.ID)
	require.Len(t, dependents, 1)
	require.Equal(t, "Order", dependents[0].Name)
}
