package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mazharm/intent-engine/internal/model"
	"github.com/mazharm/intent-engine/internal/store"
)

func endpoint(name, workflow string, policies map[string]any, authz map[string]any) model.Document {
	d := model.New(model.Endpoint, name)
	spec := map[string]any{
		"method":   "POST",
		"path":     "/" + name,
		"input":    "Req",
		"output":   "Resp",
		"workflow": workflow,
	}
	if policies != nil {
		spec["policies"] = policies
	}
	if authz != nil {
		spec["authz"] = authz
	}
	d.Spec = spec
	return d
}

func workflow(name string, steps []any) model.Document {
	d := model.New(model.Workflow, name)
	d.Spec = map[string]any{"input": "Req", "output": "Resp", "steps": steps}
	return d
}

func TestMissingTimeoutWarnsOnHTTPWorkflow(t *testing.T) {
	s := store.New()
	require.NoError(t, s.Add(workflow("Wf", []any{
		map[string]any{"effect": "HttpCall", "service": "Billing", "operation": "Charge"},
	})))
	require.NoError(t, s.Add(endpoint("Ep", "Wf", nil, map[string]any{"principal": "user", "scope": "read"})))

	result := Check(s)
	require.True(t, result.Valid())
	require.Len(t, result.Warnings(), 1)
	require.Equal(t, "E008", result.Warnings()[0].Code)
}

func TestZeroTimeoutIsError(t *testing.T) {
	s := store.New()
	require.NoError(t, s.Add(workflow("Wf", nil)))
	require.NoError(t, s.Add(endpoint("Ep", "Wf", map[string]any{"timeout_ms": float64(0)}, map[string]any{"principal": "user", "scope": "read"})))

	result := Check(s)
	require.False(t, result.Valid())
}

func TestMissingAuthzWarns(t *testing.T) {
	s := store.New()
	require.NoError(t, s.Add(workflow("Wf", nil)))
	require.NoError(t, s.Add(endpoint("Ep", "Wf", nil, nil)))

	result := Check(s)
	codes := map[string]bool{}
	for _, w := range result.Warnings() {
		codes[w.Code] = true
	}
	require.True(t, codes["W001"])
}

func TestBroadScopeWarns(t *testing.T) {
	s := store.New()
	require.NoError(t, s.Add(workflow("Wf", nil)))
	require.NoError(t, s.Add(endpoint("Ep", "Wf", nil, map[string]any{"principal": "user", "scope": "admin"})))

	result := Check(s)
	codes := map[string]bool{}
	for _, w := range result.Warnings() {
		codes[w.Code] = true
	}
	require.True(t, codes["W002"])
}

func TestPIIFieldWarns(t *testing.T) {
	s := store.New()
	d := model.New(model.Type, "Customer")
	d.Spec = map[string]any{"fields": map[string]any{
		"email": map[string]any{"field_type": "string", "required": true},
	}}
	require.NoError(t, s.Add(d))

	result := Check(s)
	require.Len(t, result.Warnings(), 1)
	require.Equal(t, "W003", result.Warnings()[0].Code)
}

func TestDbWriteWithoutIdempotencyKeyWarns(t *testing.T) {
	s := store.New()
	require.NoError(t, s.Add(workflow("Wf", []any{
		map[string]any{"effect": "DbWrite", "table": "widgets"},
	})))
	require.NoError(t, s.Add(endpoint("Ep", "Wf", map[string]any{"timeout_ms": float64(500)}, map[string]any{"principal": "user", "scope": "write:widgets"})))

	result := Check(s)
	found := false
	for _, w := range result.Warnings() {
		if w.Code == "E008" {
			found = true
		}
	}
	require.True(t, found)
}

func TestCheckAuthzWideningRemoved(t *testing.T) {
	old := endpoint("Ep", "Wf", nil, map[string]any{"principal": "user", "scope": "read"})
	new := endpoint("Ep", "Wf", nil, nil)

	msg, widened := CheckAuthzWidening(old, new)
	require.True(t, widened)
	require.Contains(t, msg, "removed")
}

func TestCheckAuthzWideningToAdmin(t *testing.T) {
	old := endpoint("Ep", "Wf", nil, map[string]any{"principal": "user", "scope": "read"})
	new := endpoint("Ep", "Wf", nil, map[string]any{"principal": "user", "scope": "admin"})

	msg, widened := CheckAuthzWidening(old, new)
	require.True(t, widened)
	require.Contains(t, msg, "widened")
}
