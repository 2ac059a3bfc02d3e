package effects

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mazharm/intent-engine/internal/model"
	"github.com/mazharm/intent-engine/internal/store"
)

func workflowWithSteps(name string, steps []any) model.Document {
	d := model.New(model.Workflow, name)
	d.Spec = map[string]any{
		"input":  "Req",
		"output": "Resp",
		"steps":  steps,
	}
	return d
}

func TestAnalyzeCollectsEffects(t *testing.T) {
	s := store.New()
	wf := workflowWithSteps("CreateWidget", []any{
		map[string]any{"effect": "DbWrite", "table": "widgets"},
		map[string]any{"effect": "HttpCall", "service": "Billing", "operation": "Charge"},
		map[string]any{"name": "format", "assign": map[string]any{}},
	})
	require.NoError(t, s.Add(wf))

	analysis, result := Result(s)
	require.True(t, result.Valid())
	require.Len(t, analysis.WorkflowEffects[wf.ID], 2)
	require.Equal(t, []string{"widgets"}, analysis.TablesWritten)
	require.Equal(t, []ServiceCall{{Service: "Billing", Operation: "Charge"}}, analysis.ServicesCalled)
}

func TestEffectSeverityTable(t *testing.T) {
	require.Equal(t, High, EffectSeverity(model.HTTPCall))
	require.Equal(t, High, EffectSeverity(model.DBWrite))
	require.Equal(t, High, EffectSeverity(model.DBDelete))
	require.Equal(t, Medium, EffectSeverity(model.EmitEvent))
	require.Equal(t, Low, EffectSeverity(model.DBRead))
}

func TestRequiresIdempotency(t *testing.T) {
	require.True(t, RequiresIdempotency(model.DBWrite))
	require.True(t, RequiresIdempotency(model.DBDelete))
	require.False(t, RequiresIdempotency(model.DBRead))
	require.False(t, RequiresIdempotency(model.HTTPCall))
}

func TestAnalyzeDedupesAcrossWorkflows(t *testing.T) {
	s := store.New()
	wf1 := workflowWithSteps("A", []any{map[string]any{"effect": "DbWrite", "table": "widgets"}})
	wf2 := workflowWithSteps("B", []any{map[string]any{"effect": "DbDelete", "table": "widgets"}})
	require.NoError(t, s.Add(wf1))
	require.NoError(t, s.Add(wf2))

	analysis, _ := Result(s)
	require.Equal(t, []string{"widgets"}, analysis.TablesWritten)
}
