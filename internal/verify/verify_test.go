package verify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mazharm/intent-engine/internal/canonical"
	"github.com/mazharm/intent-engine/internal/codegen"
	"github.com/mazharm/intent-engine/internal/config"
	"github.com/mazharm/intent-engine/internal/model"
	"github.com/mazharm/intent-engine/internal/store"
)

func writeIntent(t *testing.T, dir string, doc model.Document) {
	t.Helper()
	modelDir := filepath.Join(dir, ".intent", "model")
	require.NoError(t, os.MkdirAll(modelDir, 0o755))
	pretty, err := canonical.MarshalPretty(doc.Canonical())
	require.NoError(t, err)
	path := filepath.Join(modelDir, doc.Name+".intent.json")
	require.NoError(t, os.WriteFile(path, pretty, 0o644))
}

func readIntentFiles(t *testing.T, dir string) map[string]string {
	t.Helper()
	modelDir := filepath.Join(dir, ".intent", "model")
	entries, err := os.ReadDir(modelDir)
	require.NoError(t, err)
	out := map[string]string{}
	for _, e := range entries {
		content, err := os.ReadFile(filepath.Join(modelDir, e.Name()))
		require.NoError(t, err)
		out[filepath.Join(modelDir, e.Name())] = string(content)
	}
	return out
}

func TestRunFailsOnUnformattedFile(t *testing.T) {
	dir := t.TempDir()
	modelDir := filepath.Join(dir, ".intent", "model")
	require.NoError(t, os.MkdirAll(modelDir, 0o755))
	path := filepath.Join(modelDir, "widget.intent.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"canonical"}`), 0o644))

	report, err := Run(dir, map[string]string{path: `{"not":"canonical"}`}, config.Project{})
	require.NoError(t, err)
	require.False(t, report.Success)
	require.Equal(t, StepFormat, report.FailedStep)
	require.Equal(t, GeneralError, report.ExitCode)
	require.Len(t, report.UnformattedFiles, 1)
}

func TestRunFailsOnValidationError(t *testing.T) {
	dir := t.TempDir()
	doc := model.New(model.Type, "Widget")
	doc.Spec = map[string]any{"fields": map[string]any{
		"owner": map[string]any{"field_type": "Missing", "required": true},
	}}
	writeIntent(t, dir, doc)

	report, err := Run(dir, readIntentFiles(t, dir), config.Project{})
	require.NoError(t, err)
	require.False(t, report.Success)
	require.Equal(t, StepValidate, report.FailedStep)
	require.Equal(t, ValidationError, report.ExitCode)
}

func TestRunSucceedsOnCleanMinimalCorpus(t *testing.T) {
	dir := t.TempDir()
	doc := model.New(model.Type, "Widget")
	doc.Spec = map[string]any{"fields": map[string]any{
		"id": map[string]any{"field_type": "uuid", "required": true},
	}}
	writeIntent(t, dir, doc)

	cfg := config.Project{Name: "widgets"}

	s := store.New()
	require.NoError(t, s.Add(doc))
	_, err := codegen.Generate(dir, s, cfg, codegen.WriteMode)
	require.NoError(t, err)

	report, err := Run(dir, readIntentFiles(t, dir), cfg)
	require.NoError(t, err)
	require.True(t, report.Success)
	require.Equal(t, Success, report.ExitCode)
	require.Equal(t, 1, report.IntentsValidated)
}
