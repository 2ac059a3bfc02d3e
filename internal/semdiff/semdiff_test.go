package semdiff

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/mazharm/intent-engine/internal/model"
	"github.com/mazharm/intent-engine/internal/store"
)

func fieldDef(t string, required bool) map[string]any {
	return map[string]any{"field_type": t, "required": required}
}

func endpointDoc(name, path string, authz map[string]any, timeoutMs any) model.Document {
	d := model.New(model.Endpoint, name)
	spec := map[string]any{
		"method":   "POST",
		"path":     path,
		"input":    "Req",
		"output":   "Resp",
		"workflow": "Wf",
	}
	if authz != nil {
		spec["authz"] = authz
	}
	if timeoutMs != nil {
		spec["policies"] = map[string]any{"timeout_ms": timeoutMs}
	}
	d.Spec = spec
	return d
}

func withSameID(base model.Document, spec map[string]any) model.Document {
	d := base
	d.Spec = spec
	return d
}

func TestComputeDetectsAddedType(t *testing.T) {
	base := store.New()
	current := store.New()

	typ := model.New(model.Type, "Widget")
	typ.Spec = map[string]any{"fields": map[string]any{"id": fieldDef("uuid", true)}}
	require.NoError(t, current.Add(typ))

	result := Compute(base, current)
	require.Len(t, result.Changes, 1)
	require.Equal(t, DataSchema, result.Changes[0].Category)
	require.Equal(t, Low, result.Changes[0].Severity)
	require.Equal(t, 1, result.LowCount)
}

func TestComputeDetectsAddedEndpointIsHigh(t *testing.T) {
	base := store.New()
	current := store.New()

	require.NoError(t, current.Add(endpointDoc("CreateWidget", "/widgets", nil, nil)))

	result := Compute(base, current)
	require.Len(t, result.Changes, 1)
	require.Equal(t, High, result.Changes[0].Severity)
	require.Equal(t, APISurface, result.Changes[0].Category)
}

func TestComputeDetectsRemovedIntentAsHigh(t *testing.T) {
	base := store.New()
	current := store.New()

	typ := model.New(model.Type, "Widget")
	typ.Spec = map[string]any{"fields": map[string]any{}}
	require.NoError(t, base.Add(typ))

	result := Compute(base, current)
	require.Len(t, result.Changes, 1)
	require.Equal(t, High, result.Changes[0].Severity)
	require.Contains(t, result.Changes[0].Description, "Removed")
}

func TestComputeDetectsAddedRequiredFieldAsHigh(t *testing.T) {
	base := store.New()
	current := store.New()

	baseDoc := model.New(model.Type, "Widget")
	baseDoc.Spec = map[string]any{"fields": map[string]any{
		"id": fieldDef("uuid", true),
	}}
	require.NoError(t, base.Add(baseDoc))

	currentDoc := withSameID(baseDoc, map[string]any{"fields": map[string]any{
		"id":    fieldDef("uuid", true),
		"owner": fieldDef("string", true),
	}})
	require.NoError(t, current.Add(currentDoc))

	result := Compute(base, current)
	require.Len(t, result.Changes, 1)
	require.Equal(t, High, result.Changes[0].Severity)
	require.Contains(t, result.Changes[0].Description, "required field 'owner'")
}

func TestComputeDetectsAddedOptionalFieldAsLow(t *testing.T) {
	base := store.New()
	current := store.New()

	baseDoc := model.New(model.Type, "Widget")
	baseDoc.Spec = map[string]any{"fields": map[string]any{
		"id": fieldDef("uuid", true),
	}}
	require.NoError(t, base.Add(baseDoc))

	currentDoc := withSameID(baseDoc, map[string]any{"fields": map[string]any{
		"id":   fieldDef("uuid", true),
		"note": fieldDef("string", false),
	}})
	require.NoError(t, current.Add(currentDoc))

	result := Compute(base, current)
	require.Len(t, result.Changes, 1)
	require.Equal(t, Low, result.Changes[0].Severity)
}

func TestComputeDetectsTypeChangeOnField(t *testing.T) {
	base := store.New()
	current := store.New()

	baseDoc := model.New(model.Type, "Widget")
	baseDoc.Spec = map[string]any{"fields": map[string]any{
		"amount": fieldDef("int", true),
	}}
	require.NoError(t, base.Add(baseDoc))

	currentDoc := withSameID(baseDoc, map[string]any{"fields": map[string]any{
		"amount": fieldDef("money", true),
	}})
	require.NoError(t, current.Add(currentDoc))

	result := Compute(base, current)
	require.Len(t, result.Changes, 1)
	require.Equal(t, High, result.Changes[0].Severity)
	require.Equal(t, "int", result.Changes[0].OldValue)
	require.Equal(t, "money", result.Changes[0].NewValue)
}

func TestComputeDetectsAuthzWideningAsHighAuthZCategory(t *testing.T) {
	base := store.New()
	current := store.New()

	baseDoc := endpointDoc("CreateWidget", "/widgets", map[string]any{"principal": "user", "scope": "read"}, float64(500))
	require.NoError(t, base.Add(baseDoc))

	currentDoc := withSameID(baseDoc, map[string]any{
		"method": "POST", "path": "/widgets", "input": "Req", "output": "Resp", "workflow": "Wf",
		"policies": map[string]any{"timeout_ms": float64(500)},
		"authz":    map[string]any{"principal": "user", "scope": "admin"},
	})
	require.NoError(t, current.Add(currentDoc))

	result := Compute(base, current)
	var found bool
	for _, c := range result.Changes {
		if c.Category == AuthZ {
			found = true
			require.Equal(t, High, c.Severity)
		}
	}
	require.True(t, found)
}

func TestComputeDetectsPathChangeAsHigh(t *testing.T) {
	base := store.New()
	current := store.New()

	baseDoc := endpointDoc("CreateWidget", "/widgets", nil, nil)
	require.NoError(t, base.Add(baseDoc))

	currentDoc := withSameID(baseDoc, map[string]any{
		"method": "POST", "path": "/v2/widgets", "input": "Req", "output": "Resp", "workflow": "Wf",
	})
	require.NoError(t, current.Add(currentDoc))

	result := Compute(base, current)
	require.Len(t, result.Changes, 1)
	require.Equal(t, APISurface, result.Changes[0].Category)
	require.Equal(t, High, result.Changes[0].Severity)
}

func TestComputeIsSortedBySeverityThenCategory(t *testing.T) {
	base := store.New()
	current := store.New()

	typ := model.New(model.Type, "Widget")
	typ.Spec = map[string]any{"fields": map[string]any{}}
	require.NoError(t, current.Add(typ))

	require.NoError(t, current.Add(endpointDoc("CreateWidget", "/widgets", nil, nil)))

	result := Compute(base, current)
	require.Len(t, result.Changes, 2)
	require.Equal(t, High, result.Changes[0].Severity)
	require.Equal(t, Low, result.Changes[1].Severity)
}

func TestRenameProducesExactlyOneInfoChangeNoHighEntries(t *testing.T) {
	base := store.New()
	current := store.New()

	baseDoc := endpointDoc("CreateRefund", "/refund", nil, nil)
	require.NoError(t, base.Add(baseDoc))

	renamed := baseDoc
	renamed.Name = "IssueRefund"
	require.NoError(t, current.Add(renamed))

	result := Compute(base, current)
	want := []Change{{
		Category:    APISurface,
		Severity:    Info,
		Description: "Endpoint renamed from 'CreateRefund' to 'IssueRefund'",
		IntentName:  "IssueRefund",
		IntentKind:  "Endpoint",
		OldValue:    "CreateRefund",
		NewValue:    "IssueRefund",
	}}
	if diff := cmp.Diff(want, result.Changes, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("unexpected change set (-want +got):\n%s", diff)
	}
	require.Equal(t, 0, result.HighCount)
}

func TestNoChangesProducesEmptyResult(t *testing.T) {
	base := store.New()
	current := store.New()

	typ := model.New(model.Type, "Widget")
	typ.Spec = map[string]any{"fields": map[string]any{"id": fieldDef("uuid", true)}}
	require.NoError(t, base.Add(typ))
	require.NoError(t, current.Add(typ))

	result := Compute(base, current)
	require.Empty(t, result.Changes)
	require.Equal(t, 0, result.HighCount+result.MediumCount+result.LowCount+result.InfoCount)
}
