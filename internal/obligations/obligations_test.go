package obligations

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mazharm/intent-engine/internal/model"
	"github.com/mazharm/intent-engine/internal/store"
)

func workflow(name string, steps []any) model.Document {
	d := model.New(model.Workflow, name)
	d.Spec = map[string]any{"input": "Req", "output": "Resp", "steps": steps}
	return d
}

func TestCheckDerivesOpenObligations(t *testing.T) {
	s := store.New()
	require.NoError(t, s.Add(workflow("Wf", []any{
		map[string]any{"effect": "HttpCall", "service": "Billing", "operation": "Charge"},
		map[string]any{"effect": "DbWrite", "table": "widgets"},
	})))

	obs := Check(s)
	require.Len(t, obs, 2)
	for _, o := range obs {
		require.Equal(t, Open, o.Status)
		require.Equal(t, High, o.Severity)
	}
}

func TestCheckResolvesAgainstExistingIntents(t *testing.T) {
	s := store.New()
	require.NoError(t, s.Add(workflow("Wf", []any{
		map[string]any{"effect": "HttpCall", "service": "Billing", "operation": "Charge"},
		map[string]any{"effect": "DbWrite", "table": "widgets"},
	})))

	ct := model.New(model.ContractTest, "BillingCharge")
	ct.Spec = map[string]any{"service": "Billing", "operation": "Charge"}
	require.NoError(t, s.Add(ct))

	mig := model.New(model.Migration, "CreateWidgets")
	mig.Spec = map[string]any{
		"version":    float64(1),
		"table":      "widgets",
		"operations": []any{map[string]any{"op": "create_table"}},
	}
	require.NoError(t, s.Add(mig))

	obs := Check(s)
	require.Len(t, obs, 2)
	for _, o := range obs {
		require.Equal(t, Resolved, o.Status)
		require.NotNil(t, o.IntentID)
	}
}

func TestOpenOnlyFilters(t *testing.T) {
	obs := []Obligation{
		{Status: Open}, {Status: Resolved}, {Status: Open},
	}
	require.Len(t, OpenOnly(obs), 2)
}

func TestWriteAndReadLockRoundTrip(t *testing.T) {
	dir := t.TempDir()
	obs := []Obligation{
		{ObligationType: ContractTestObligation, Status: Open, Severity: High,
			Description: "Add contract test for Billing.Charge", Service: "Billing", Operation: "Charge"},
	}
	require.NoError(t, WriteLock(dir, obs))

	loaded, err := ReadLock(dir)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "Billing", loaded[0].Service)
	require.Equal(t, Open, loaded[0].Status)
}

func TestReadLockMissingFileReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	loaded, err := ReadLock(dir)
	require.NoError(t, err)
	require.Empty(t, loaded)
}
