// Package semdiff implements the semantic diff engine: it compares two
// intent stores (a baseline and the current corpus) and produces a
// severity-classified, category-tagged list of human-readable changes.
package semdiff

import (
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/mazharm/intent-engine/internal/canonical"
	"github.com/mazharm/intent-engine/internal/model"
	"github.com/mazharm/intent-engine/internal/policy"
	"github.com/mazharm/intent-engine/internal/store"
)

// Category classifies a change by the concern it affects.
type Category string

const (
	APISurface     Category = "API Surface"
	DataSchema     Category = "Data Schema"
	Effects        Category = "Effects"
	Policies       Category = "Policies"
	AuthZ          Category = "AuthZ"
	PII            Category = "PII"
	Concurrency    Category = "Concurrency"
	ErrorSemantics Category = "Error Semantics"
)

// Severity ranks how consequential a change is. Ordered low to high so
// sorting by severity descending is `sort.Slice(..., a > b)`.
type Severity int

const (
	Info Severity = iota
	Low
	Medium
	High
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "INFO"
	case Low:
		return "LOW"
	case Medium:
		return "MEDIUM"
	case High:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// Change is a single detected semantic difference between two revisions.
type Change struct {
	Category    Category
	Severity    Severity
	Description string
	IntentName  string
	IntentKind  string
	OldValue    string
	NewValue    string
}

// Result aggregates Changes with severity counts for the `diff` command's
// summary line.
type Result struct {
	Changes    []Change
	HighCount  int
	MediumCount int
	LowCount   int
	InfoCount  int
}

// NewResult builds a Result from changes, computing the per-severity counts.
func NewResult(changes []Change) Result {
	r := Result{Changes: changes}
	for _, c := range changes {
		switch c.Severity {
		case High:
			r.HighCount++
		case Medium:
			r.MediumCount++
		case Low:
			r.LowCount++
		case Info:
			r.InfoCount++
		}
	}
	return r
}

// Compute diffs base against current, returning the full change list sorted
// by severity (high first), then category name.
func Compute(base, current *store.Store) Result {
	var changes []Change

	baseIDs := mapset.NewThreadUnsafeSet[uuid.UUID]()
	currentIDs := mapset.NewThreadUnsafeSet[uuid.UUID]()
	for _, d := range base.Iter() {
		baseIDs.Add(d.ID)
	}
	for _, d := range current.Iter() {
		currentIDs.Add(d.ID)
	}

	added := currentIDs.Difference(baseIDs).ToSlice()
	sort.Slice(added, func(i, j int) bool { return added[i].String() < added[j].String() })
	for _, id := range added {
		doc, _ := current.Get(id)
		changes = append(changes, Change{
			Category:    categoryForKind(doc.Kind),
			Severity:    addedIntentSeverity(doc),
			Description: fmt.Sprintf("Added %s '%s'", doc.Kind, doc.Name),
			IntentName:  doc.Name,
			IntentKind:  string(doc.Kind),
		})
		if doc.Kind == model.Workflow {
			changes = append(changes, newEffectChanges(doc)...)
		}
	}

	removed := baseIDs.Difference(currentIDs).ToSlice()
	sort.Slice(removed, func(i, j int) bool { return removed[i].String() < removed[j].String() })
	for _, id := range removed {
		doc, _ := base.Get(id)
		changes = append(changes, Change{
			Category:    categoryForKind(doc.Kind),
			Severity:    High,
			Description: fmt.Sprintf("Removed %s '%s'", doc.Kind, doc.Name),
			IntentName:  doc.Name,
			IntentKind:  string(doc.Kind),
		})
	}

	common := baseIDs.Intersect(currentIDs).ToSlice()
	sort.Slice(common, func(i, j int) bool { return common[i].String() < common[j].String() })
	for _, id := range common {
		baseDoc, _ := base.Get(id)
		currentDoc, _ := current.Get(id)
		if baseDoc.Name != currentDoc.Name || !specsEqual(baseDoc, currentDoc) {
			changes = append(changes, diffIntent(baseDoc, currentDoc)...)
		}
	}

	sort.SliceStable(changes, func(i, j int) bool {
		if changes[i].Severity != changes[j].Severity {
			return changes[i].Severity > changes[j].Severity
		}
		return changes[i].Category < changes[j].Category
	})

	return NewResult(changes)
}

func specsEqual(a, b model.Document) bool {
	ca, errA := canonicalJSON(a)
	cb, errB := canonicalJSON(b)
	if errA != nil || errB != nil {
		return false
	}
	return ca == cb
}

func addedIntentSeverity(doc model.Document) Severity {
	switch doc.Kind {
	case model.Endpoint:
		return High
	case model.Workflow:
		if wf, err := doc.AsWorkflow(); err == nil {
			for _, step := range wf.Steps {
				if step.IsEffect() && step.Effect == model.HTTPCall {
					return High
				}
			}
		}
		return Medium
	case model.Type, model.Template, model.Module:
		return Low
	case model.Service, model.Function, model.Pipeline, model.Enum, model.Command, model.Trait:
		return Medium
	case model.ContractTest:
		return Info
	case model.Migration:
		return Medium
	default:
		return Medium
	}
}

func categoryForKind(kind model.Kind) Category {
	switch kind {
	case model.Type, model.Migration, model.Template, model.Enum, model.Module, model.Trait:
		return DataSchema
	case model.Endpoint, model.Command:
		return APISurface
	case model.Workflow, model.Service, model.ContractTest, model.Function, model.Pipeline:
		return Effects
	default:
		return Effects
	}
}

func newEffectChanges(doc model.Document) []Change {
	spec, err := doc.AsWorkflow()
	if err != nil {
		return nil
	}
	var out []Change
	for _, step := range spec.Steps {
		if !step.IsEffect() {
			continue
		}
		out = append(out, Change{
			Category:    Effects,
			Severity:    effectSeverity(step.Effect),
			Description: fmt.Sprintf("New %s effect in workflow '%s'", step.Effect, doc.Name),
			IntentName:  doc.Name,
			IntentKind:  "Workflow",
		})
	}
	return out
}

func effectSeverity(kind model.EffectKind) Severity {
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

func diffIntent(base, current model.Document) []Change {
	var changes []Change
	if base.Name != current.Name {
		changes = append(changes, Change{
			Category:    categoryForKind(current.Kind),
			Severity:    Info,
			Description: fmt.Sprintf("%s renamed from '%s' to '%s'", current.Kind, base.Name, current.Name),
			IntentName:  current.Name,
			IntentKind:  string(current.Kind),
			OldValue:    base.Name,
			NewValue:    current.Name,
		})
	}

	switch current.Kind {
	case model.Type:
		changes = append(changes, diffType(base, current)...)
	case model.Endpoint:
		changes = append(changes, diffEndpoint(base, current)...)
	case model.Workflow:
		changes = append(changes, diffWorkflow(base, current)...)
	case model.Service:
		changes = append(changes, diffService(base, current)...)
	}
	return changes
}

func diffType(base, current model.Document) []Change {
	baseSpec, err := base.AsType()
	if err != nil {
		return nil
	}
	currentSpec, err := current.AsType()
	if err != nil {
		return nil
	}

	var changes []Change
	for _, name := range sortedKeys(currentSpec.Fields) {
		if _, ok := baseSpec.Fields[name]; ok {
			continue
		}
		field := currentSpec.Fields[name]
		severity := Low
		kind := "optional"
		if field.Required {
			severity = High
			kind = "required"
		}
		changes = append(changes, Change{
			Category:    DataSchema,
			Severity:    severity,
			Description: fmt.Sprintf("Added %s field '%s' to type '%s'", kind, name, current.Name),
			IntentName:  current.Name,
			IntentKind:  "Type",
		})
	}

	for _, name := range sortedKeys(baseSpec.Fields) {
		if _, ok := currentSpec.Fields[name]; ok {
			continue
		}
		changes = append(changes, Change{
			Category:    DataSchema,
			Severity:    High,
			Description: fmt.Sprintf("Removed field '%s' from type '%s'", name, current.Name),
			IntentName:  current.Name,
			IntentKind:  "Type",
		})
	}

	for _, name := range sortedKeys(baseSpec.Fields) {
		currentField, ok := currentSpec.Fields[name]
		if !ok {
			continue
		}
		baseField := baseSpec.Fields[name]

		if baseField.FieldType.String() != currentField.FieldType.String() {
			changes = append(changes, Change{
				Category: DataSchema,
				Severity: High,
				Description: fmt.Sprintf("Changed type of field '%s' in '%s' from %s to %s",
					name, current.Name, baseField.FieldType.String(), currentField.FieldType.String()),
				IntentName: current.Name,
				IntentKind: "Type",
				OldValue:   baseField.FieldType.String(),
				NewValue:   currentField.FieldType.String(),
			})
		}

		if baseField.Required != currentField.Required {
			severity := Low
			if currentField.Required && !baseField.Required {
				severity = High
			}
			changes = append(changes, Change{
				Category: DataSchema,
				Severity: severity,
				Description: fmt.Sprintf("Changed field '%s' in '%s' from %s to %s",
					name, current.Name, reqString(baseField.Required), reqString(currentField.Required)),
				IntentName: current.Name,
				IntentKind: "Type",
			})
		}
	}

	return changes
}

func reqString(required bool) string {
	if required {
		return "required"
	}
	return "optional"
}

func diffEndpoint(base, current model.Document) []Change {
	baseSpec, err := base.AsEndpoint()
	if err != nil {
		return nil
	}
	currentSpec, err := current.AsEndpoint()
	if err != nil {
		return nil
	}

	var changes []Change

	if baseSpec.Path != currentSpec.Path {
		changes = append(changes, Change{
			Category: APISurface, Severity: High,
			Description: fmt.Sprintf("Endpoint path changed from '%s' to '%s'", baseSpec.Path, currentSpec.Path),
			IntentName:  current.Name, IntentKind: "Endpoint",
			OldValue: baseSpec.Path, NewValue: currentSpec.Path,
		})
	}

	if baseSpec.Method != currentSpec.Method {
		changes = append(changes, Change{
			Category: APISurface, Severity: High,
			Description: fmt.Sprintf("Endpoint method changed from %s to %s", baseSpec.Method, currentSpec.Method),
			IntentName:  current.Name, IntentKind: "Endpoint",
		})
	}

	if baseSpec.Input.String() != currentSpec.Input.String() {
		changes = append(changes, Change{
			Category: APISurface, Severity: High,
			Description: fmt.Sprintf("Endpoint input type changed from '%s' to '%s'", baseSpec.Input.String(), currentSpec.Input.String()),
			IntentName:  current.Name, IntentKind: "Endpoint",
		})
	}

	if baseSpec.Output.String() != currentSpec.Output.String() {
		changes = append(changes, Change{
			Category: APISurface, Severity: High,
			Description: fmt.Sprintf("Endpoint output type changed from '%s' to '%s'", baseSpec.Output.String(), currentSpec.Output.String()),
			IntentName:  current.Name, IntentKind: "Endpoint",
		})
	}

	if widening, ok := policy.CheckAuthzWidening(base, current); ok {
		changes = append(changes, Change{
			Category: AuthZ, Severity: High, Description: widening,
			IntentName: current.Name, IntentKind: "Endpoint",
		})
	}

	baseTimeout, currentTimeout := intPtrString(baseSpec.Policies.TimeoutMs), intPtrString(currentSpec.Policies.TimeoutMs)
	if baseTimeout != currentTimeout {
		severity := Medium
		if currentSpec.Policies.TimeoutMs == nil {
			severity = High
		}
		changes = append(changes, Change{
			Category: Policies, Severity: severity,
			Description: fmt.Sprintf("Timeout changed from %s to %s", baseTimeout, currentTimeout),
			IntentName:  current.Name, IntentKind: "Endpoint",
		})
	}

	if !retriesEqual(baseSpec.Policies.Retries, currentSpec.Policies.Retries) {
		changes = append(changes, Change{
			Category: Policies, Severity: Medium, Description: "Retry policy changed",
			IntentName: current.Name, IntentKind: "Endpoint",
		})
	}

	baseKey, currentKey := strPtrString(baseSpec.IdempotencyKey), strPtrString(currentSpec.IdempotencyKey)
	if baseKey != currentKey {
		changes = append(changes, Change{
			Category: Concurrency, Severity: High,
			Description: fmt.Sprintf("Idempotency key changed from %s to %s", baseKey, currentKey),
			IntentName:  current.Name, IntentKind: "Endpoint",
		})
	}

	baseErrors := errorCodeSet(baseSpec.Errors)
	currentErrors := errorCodeSet(currentSpec.Errors)
	for _, code := range sortedSlice(currentErrors.Difference(baseErrors)) {
		changes = append(changes, Change{
			Category: ErrorSemantics, Severity: Medium,
			Description: fmt.Sprintf("Added error code '%s'", code),
			IntentName:  current.Name, IntentKind: "Endpoint",
		})
	}
	for _, code := range sortedSlice(baseErrors.Difference(currentErrors)) {
		changes = append(changes, Change{
			Category: ErrorSemantics, Severity: Medium,
			Description: fmt.Sprintf("Removed error code '%s'", code),
			IntentName:  current.Name, IntentKind: "Endpoint",
		})
	}

	return changes
}

func errorCodeSet(errs []model.ErrorDef) mapset.Set[string] {
	s := mapset.NewThreadUnsafeSet[string]()
	for _, e := range errs {
		s.Add(e.Code)
	}
	return s
}

func intPtrString(p *int) string {
	if p == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *p)
}

func strPtrString(p *string) string {
	if p == nil {
		return "none"
	}
	return *p
}

func retriesEqual(a, b *model.Retries) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Max == b.Max && a.Backoff == b.Backoff
}

type effectKey struct {
	kind      model.EffectKind
	service   string
	operation string
}

func diffWorkflow(base, current model.Document) []Change {
	baseSpec, err := base.AsWorkflow()
	if err != nil {
		return nil
	}
	currentSpec, err := current.AsWorkflow()
	if err != nil {
		return nil
	}

	baseEffects := effectKeys(baseSpec.Steps)
	currentEffects := effectKeys(currentSpec.Steps)

	var changes []Change
	for _, e := range currentEffects {
		if !containsEffect(baseEffects, e) {
			changes = append(changes, Change{
				Category: Effects, Severity: effectSeverity(e.kind),
				Description: fmt.Sprintf("Added %s effect", e.kind),
				IntentName:  current.Name, IntentKind: "Workflow",
			})
		}
	}
	for _, e := range baseEffects {
		if !containsEffect(currentEffects, e) {
			changes = append(changes, Change{
				Category: Effects, Severity: Medium,
				Description: fmt.Sprintf("Removed %s effect", e.kind),
				IntentName:  current.Name, IntentKind: "Workflow",
			})
		}
	}
	return changes
}

func effectKeys(steps []model.Step) []effectKey {
	var out []effectKey
	for _, step := range steps {
		if !step.IsEffect() {
			continue
		}
		out = append(out, effectKey{kind: step.Effect, service: step.Service, operation: step.Operation})
	}
	return out
}

func containsEffect(haystack []effectKey, needle effectKey) bool {
	for _, e := range haystack {
		if e == needle {
			return true
		}
	}
	return false
}

func diffService(base, current model.Document) []Change {
	baseSpec, err := base.AsService()
	if err != nil {
		return nil
	}
	currentSpec, err := current.AsService()
	if err != nil {
		return nil
	}

	var changes []Change
	if baseSpec.BaseURL != currentSpec.BaseURL {
		changes = append(changes, Change{
			Category: Effects, Severity: Medium,
			Description: fmt.Sprintf("Service base URL changed from '%s' to '%s'", baseSpec.BaseURL, currentSpec.BaseURL),
			IntentName:  current.Name, IntentKind: "Service",
		})
	}

	baseOps := mapset.NewThreadUnsafeSet(sortedKeys(baseSpec.Operations)...)
	currentOps := mapset.NewThreadUnsafeSet(sortedKeys(currentSpec.Operations)...)

	for _, op := range sortedSlice(currentOps.Difference(baseOps)) {
		changes = append(changes, Change{
			Category: Effects, Severity: Medium,
			Description: fmt.Sprintf("Added operation '%s'", op),
			IntentName:  current.Name, IntentKind: "Service",
		})
	}
	for _, op := range sortedSlice(baseOps.Difference(currentOps)) {
		changes = append(changes, Change{
			Category: Effects, Severity: High,
			Description: fmt.Sprintf("Removed operation '%s'", op),
			IntentName:  current.Name, IntentKind: "Service",
		})
	}

	return changes
}

func sortedSlice(s mapset.Set[string]) []string {
	out := s.ToSlice()
	sort.Strings(out)
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func canonicalJSON(doc model.Document) (string, error) {
	b, err := canonical.Marshal(doc.Spec)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
