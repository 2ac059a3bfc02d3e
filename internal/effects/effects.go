// Package effects implements the effect analyser: it walks every Workflow's
// steps and produces a pure data summary of observable side-effects, with no
// gating on resolution and no diagnostics of its own.
package effects

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/mazharm/intent-engine/internal/diag"
	"github.com/mazharm/intent-engine/internal/model"
	"github.com/mazharm/intent-engine/internal/store"
)

// Severity classifies how consequential an effect kind is, used by the
// semantic diff engine (internal/semdiff) when it judges whether an effect
// change is worth flagging loudly.
type Severity string

const (
	High   Severity = "HIGH"
	Medium Severity = "MEDIUM"
	Low    Severity = "LOW"
)

// EffectSeverity returns the fixed severity assigned to each effect kind.
func EffectSeverity(kind model.EffectKind) Severity {
	switch kind {
	case model.HTTPCall, model.DBWrite, model.DBDelete:
		return High
	case model.EmitEvent:
		return Medium
	case model.DBRead:
		return Low
	default:
		return Low
	}
}

// RequiresIdempotency reports whether an effect of this kind needs an
// idempotency key on the endpoint that triggers it.
func RequiresIdempotency(kind model.EffectKind) bool {
	return kind == model.DBWrite || kind == model.DBDelete
}

// Info describes a single Effect step found inside a workflow.
type Info struct {
	Kind         model.EffectKind
	Service      string
	Operation    string
	Table        string
	Topic        string
	WorkflowName string
	StepIndex    int
}

// ServiceCall identifies one (service, operation) pair invoked somewhere in
// the corpus.
type ServiceCall struct {
	Service   string
	Operation string
}

// Analysis is the full result of analysing every Workflow in a store.
type Analysis struct {
	WorkflowEffects map[uuid.UUID][]Info
	TablesWritten   []string      // sorted, deduplicated
	ServicesCalled  []ServiceCall // sorted, deduplicated
}

// Analyze walks every Workflow document in s and aggregates its Effect
// steps. It never emits diagnostics: a malformed workflow spec is silently
// skipped here because the type checker (internal/typecheck) is the stage
// responsible for reporting it.
func Analyze(s *store.Store) Analysis {
	analysis := Analysis{WorkflowEffects: map[uuid.UUID][]Info{}}

	tables := mapset.NewThreadUnsafeSet[string]()
	calls := mapset.NewThreadUnsafeSet[ServiceCall]()

	for _, doc := range s.Iter() {
		if doc.Kind != model.Workflow {
			continue
		}
		spec, err := doc.AsWorkflow()
		if err != nil {
			continue
		}

		var stepEffects []Info
		for i, step := range spec.Steps {
			if !step.IsEffect() {
				continue
			}
			info := Info{
				Kind:         step.Effect,
				Service:      step.Service,
				Operation:    step.Operation,
				Table:        step.Table,
				Topic:        step.Topic,
				WorkflowName: doc.Name,
				StepIndex:    i,
			}
			stepEffects = append(stepEffects, info)

			if (step.Effect == model.DBWrite || step.Effect == model.DBDelete) && step.Table != "" {
				tables.Add(step.Table)
			}
			if step.Effect == model.HTTPCall && step.Service != "" && step.Operation != "" {
				calls.Add(ServiceCall{Service: step.Service, Operation: step.Operation})
			}
		}
		analysis.WorkflowEffects[doc.ID] = stepEffects
	}

	analysis.TablesWritten = tables.ToSlice()
	sort.Strings(analysis.TablesWritten)

	analysis.ServicesCalled = calls.ToSlice()
	sort.Slice(analysis.ServicesCalled, func(i, j int) bool {
		a, b := analysis.ServicesCalled[i], analysis.ServicesCalled[j]
		if a.Service != b.Service {
			return a.Service < b.Service
		}
		return a.Operation < b.Operation
	})

	return analysis
}

// Result wraps Analyze's output alongside an always-empty diag.Result, so
// callers composing the pipeline stages (internal/verify, internal/pipeline)
// can treat every stage uniformly as (payload, diag.Result).
func Result(s *store.Store) (Analysis, diag.Result) {
	return Analyze(s), diag.Result{}
}
