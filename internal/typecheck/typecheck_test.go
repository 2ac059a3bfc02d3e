package typecheck

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mazharm/intent-engine/internal/model"
	"github.com/mazharm/intent-engine/internal/store"
)

func mustAdd(t *testing.T, s *store.Store, doc model.Document) {
	t.Helper()
	require.NoError(t, s.Add(doc))
}

func newType(name string, fields map[string]any) model.Document {
	d := model.New(model.Type, name)
	d.Spec = map[string]any{"fields": fields}
	return d
}

func fieldDef(t string, required bool) map[string]any {
	return map[string]any{"field_type": t, "required": required}
}

func TestTypeFieldUnknownReference(t *testing.T) {
	s := store.New()
	mustAdd(t, s, newType("Widget", map[string]any{
		"owner": fieldDef("Owner", true),
	}))

	result := Check(s)
	require.False(t, result.Valid())
	require.Equal(t, "E005", result.Errors()[0].Code)
}

func TestTypeFieldResolvedReference(t *testing.T) {
	s := store.New()
	mustAdd(t, s, newType("Owner", map[string]any{"name": fieldDef("string", true)}))
	mustAdd(t, s, newType("Widget", map[string]any{"owner": fieldDef("Owner", true)}))

	result := Check(s)
	require.True(t, result.Valid())
}

func TestEnumDuplicateVariant(t *testing.T) {
	s := store.New()
	d := model.New(model.Enum, "Color")
	d.Spec = map[string]any{"variants": []any{"Red", "Green", "Red"}}
	mustAdd(t, s, d)

	result := Check(s)
	require.False(t, result.Valid())
	require.Equal(t, "E010", result.Errors()[0].Code)
}

func TestMigrationRequiresFields(t *testing.T) {
	s := store.New()
	d := model.New(model.Migration, "AddWidgets")
	d.Spec = map[string]any{
		"version":    float64(0),
		"table":      "",
		"operations": []any{},
	}
	mustAdd(t, s, d)

	result := Check(s)
	require.False(t, result.Valid())
	require.Len(t, result.Errors(), 3)
}

func TestWorkflowHttpCallStepMissingService(t *testing.T) {
	s := store.New()
	mustAdd(t, s, newType("Req", map[string]any{"id": fieldDef("string", true)}))
	mustAdd(t, s, newType("Resp", map[string]any{"ok": fieldDef("bool", true)}))

	d := model.New(model.Workflow, "DoThing")
	d.Spec = map[string]any{
		"input":  "Req",
		"output": "Resp",
		"steps": []any{
			map[string]any{"effect": "HttpCall"},
		},
	}
	mustAdd(t, s, d)

	result := Check(s)
	require.False(t, result.Valid())
	require.Equal(t, "E002", result.Errors()[0].Code)
}
