package patch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mazharm/intent-engine/internal/canonical"
	"github.com/mazharm/intent-engine/internal/model"
	"github.com/mazharm/intent-engine/internal/store"
)

func TestParseDecodesOperations(t *testing.T) {
	raw := []byte(`{"operations":[{"action":"create","target":"widget.intent.json","content":{"name":"Widget"}}]}`)
	f, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, f.Operations, 1)
	require.Equal(t, Create, f.Operations[0].Action)
	require.Equal(t, "widget.intent.json", f.Operations[0].Target)
}

func TestValidateFlagsDuplicateTargets(t *testing.T) {
	f := File{Operations: []Operation{
		{Action: Create, Target: "a.intent.json", Content: map[string]any{}},
		{Action: Update, Target: "a.intent.json", Content: map[string]any{}},
	}}
	conflicts := Validate(f)
	require.Len(t, conflicts, 1)
	require.Contains(t, conflicts[0], "duplicate target")
}

func TestValidateFlagsUnknownAction(t *testing.T) {
	f := File{Operations: []Operation{{Action: "rename", Target: "a.intent.json"}}}
	conflicts := Validate(f)
	require.Len(t, conflicts, 1)
	require.Contains(t, conflicts[0], "unknown action")
}

func TestApplyCreateWritesCanonicalFile(t *testing.T) {
	dir := t.TempDir()
	f := File{Operations: []Operation{
		{Action: Create, Target: "widget.intent.json", Content: map[string]any{
			"schema_version": "1.0", "id": "11111111-1111-1111-1111-111111111111",
			"kind": "Type", "name": "Widget", "spec": map[string]any{},
		}},
	}}

	result, err := Apply(dir, f, false)
	require.NoError(t, err)
	require.False(t, result.HasConflicts())

	content, err := os.ReadFile(filepath.Join(dir, "widget.intent.json"))
	require.NoError(t, err)
	require.Contains(t, string(content), "\"name\": \"Widget\"")
}

func TestApplyDryRunTouchesNothing(t *testing.T) {
	dir := t.TempDir()
	f := File{Operations: []Operation{
		{Action: Create, Target: "widget.intent.json", Content: map[string]any{"name": "Widget"}},
	}}

	result, err := Apply(dir, f, true)
	require.NoError(t, err)
	require.Len(t, result.Operations, 1)

	_, err = os.Stat(filepath.Join(dir, "widget.intent.json"))
	require.True(t, os.IsNotExist(err))
}

func TestApplyUpdateMissingFileConflicts(t *testing.T) {
	dir := t.TempDir()
	f := File{Operations: []Operation{
		{Action: Update, Target: "missing.intent.json", Content: map[string]any{"name": "X"}},
	}}

	result, err := Apply(dir, f, false)
	require.NoError(t, err)
	require.True(t, result.HasConflicts())
	require.Contains(t, result.Conflicts[0], "file not found")
}

func TestApplyDeleteRemovesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "widget.intent.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	f := File{Operations: []Operation{{Action: Delete, Target: "widget.intent.json"}}}
	result, err := Apply(dir, f, false)
	require.NoError(t, err)
	require.False(t, result.HasConflicts())

	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestValidateAgainstStoreFlagsUpdateOfFileNotInCorpus(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.intent.json"), []byte("{not json"), 0o644))

	s, _ := store.LoadFromPath(dir)
	f := File{Operations: []Operation{
		{Action: Update, Target: "broken.intent.json", Content: map[string]any{}},
	}}

	conflicts := ValidateAgainstStore(s, dir, f)
	require.Len(t, conflicts, 1)
	require.Contains(t, conflicts[0], "not in the loaded corpus")
}

func TestValidateAgainstStoreAllowsUpdateOfLoadedDocument(t *testing.T) {
	dir := t.TempDir()
	doc := model.New(model.Type, "Widget")
	doc.Spec = map[string]any{"fields": map[string]any{}}
	raw, err := canonical.MarshalPretty(doc.Canonical())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "widget.intent.json"), raw, 0o644))

	s, loadErrs := store.LoadFromPath(dir)
	require.Empty(t, loadErrs)

	f := File{Operations: []Operation{
		{Action: Update, Target: "widget.intent.json", Content: map[string]any{}},
	}}
	require.Empty(t, ValidateAgainstStore(s, dir, f))
}

func TestValidateAgainstStoreIgnoresCreateOperations(t *testing.T) {
	dir := t.TempDir()
	s, _ := store.LoadFromPath(dir)
	f := File{Operations: []Operation{
		{Action: Create, Target: "new.intent.json", Content: map[string]any{}},
	}}
	require.Empty(t, ValidateAgainstStore(s, dir, f))
}

func TestApplyShortCircuitsOnStructuralConflict(t *testing.T) {
	dir := t.TempDir()
	f := File{Operations: []Operation{
		{Action: Create, Target: "a.intent.json", Content: map[string]any{"name": "A"}},
		{Action: Update, Target: "a.intent.json", Content: map[string]any{"name": "B"}},
	}}

	result, err := Apply(dir, f, false)
	require.NoError(t, err)
	require.True(t, result.HasConflicts())

	_, err = os.Stat(filepath.Join(dir, "a.intent.json"))
	require.True(t, os.IsNotExist(err))
}
