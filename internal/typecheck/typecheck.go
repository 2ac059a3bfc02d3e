// Package typecheck implements the per-kind structural checks. It only runs
// once reference resolution has succeeded for the corpus as a whole;
// cascading errors from a dangling reference are the resolver's problem,
// not the type checker's.
package typecheck

import (
	"fmt"

	"github.com/mazharm/intent-engine/internal/diag"
	"github.com/mazharm/intent-engine/internal/model"
	"github.com/mazharm/intent-engine/internal/store"
	"github.com/mazharm/intent-engine/internal/typeref"
)

// Check runs structural checks over every document in s and returns the
// accumulated diagnostics. A resolution failure means typecheck should be
// skipped entirely by the caller (internal/verify / internal/pipeline) —
// Check itself assumes a resolved corpus.
func Check(s *store.Store) diag.Result {
	var result diag.Result
	for _, doc := range s.Iter() {
		checkDoc(s, doc, &result)
	}
	return result
}

func checkDoc(s *store.Store, doc model.Document, result *diag.Result) {
	switch doc.Kind {
	case model.Type:
		checkType(s, doc, result)
	case model.Workflow:
		checkWorkflow(s, doc, result)
	case model.Endpoint:
		checkEndpoint(s, doc, result)
	case model.Service:
		checkService(s, doc, result)
	case model.ContractTest:
		checkContractTest(s, doc, result)
	case model.Migration:
		checkMigration(doc, result)
	case model.Function, model.Pipeline, model.Template, model.Module:
		checkPresenceOnly(doc, result)
	case model.Enum:
		checkEnum(doc, result)
	case model.Command:
		checkCommand(doc, result)
	case model.Trait:
		checkTrait(doc, result)
	}
}

func loc(doc model.Document, path string) *diag.Location {
	return &diag.Location{File: doc.SourceFile, Path: path}
}

// resolvesType reports whether name resolves to a Type intent or is
// native/engine — the shared predicate every "must resolve to Type" check
// in this package uses.
func resolvesType(s *store.Store, name string) bool {
	if name == "" || model.IsNativeOrEngine(name) {
		return true
	}
	_, ok := s.GetByKindName(model.Type, name)
	return ok
}

func checkType(s *store.Store, doc model.Document, result *diag.Result) {
	spec, err := doc.AsType()
	if err != nil {
		result.AddError(diag.E002MissingField, fmt.Sprintf("Type %q: %v", doc.Name, err), loc(doc, "$.spec"))
		return
	}
	for name, field := range spec.Fields {
		for _, ref := range typeref.NamedRefs(field.FieldType) {
			if !resolvesType(s, ref) {
				result.AddError(diag.E005UnknownReference,
					fmt.Sprintf("Type %q field %q references unknown type %q", doc.Name, name, ref),
					loc(doc, "$.spec.fields."+name))
			}
		}
	}
}

func checkWorkflow(s *store.Store, doc model.Document, result *diag.Result) {
	spec, err := doc.AsWorkflow()
	if err != nil {
		result.AddError(diag.E002MissingField, fmt.Sprintf("Workflow %q: %v", doc.Name, err), loc(doc, "$.spec"))
		return
	}

	checkTypeResolvesOrError(s, doc, "$.spec.input", spec.Input, result)
	checkTypeResolvesOrError(s, doc, "$.spec.output", spec.Output, result)
	for name, t := range spec.Context {
		checkTypeResolvesOrError(s, doc, "$.spec.context."+name, t, result)
	}

	for i, step := range spec.Steps {
		if step.IsTransform() {
			if step.Name != "" {
				for target := range step.Assign {
					if _, ok := spec.Context[target]; !ok {
						result.AddWarning(diag.E009InvalidMapping,
							fmt.Sprintf("Workflow %q step %d assigns to %q, not declared in context", doc.Name, i, target),
							loc(doc, fmt.Sprintf("$.spec.steps[%d].assign", i)))
					}
				}
			}
			continue
		}
		// Effect step.
		if step.Effect == model.HTTPCall && step.Service == "" {
			result.AddError(diag.E002MissingField,
				fmt.Sprintf("Workflow %q step %d is an HttpCall effect with no service", doc.Name, i),
				loc(doc, fmt.Sprintf("$.spec.steps[%d].service", i)))
		} else if step.Effect == model.HTTPCall {
			if _, ok := s.GetByKindName(model.Service, step.Service); !ok {
				result.AddError(diag.E005UnknownReference,
					fmt.Sprintf("Workflow %q step %d references unknown service %q", doc.Name, i, step.Service),
					loc(doc, fmt.Sprintf("$.spec.steps[%d].service", i)))
			}
		}
		if step.OutputBinding != "" {
			if _, ok := spec.Context[step.OutputBinding]; !ok {
				result.AddWarning(diag.E009InvalidMapping,
					fmt.Sprintf("Workflow %q step %d output_binding %q not declared in context", doc.Name, i, step.OutputBinding),
					loc(doc, fmt.Sprintf("$.spec.steps[%d].output_binding", i)))
			}
		}
	}
}

func checkEndpoint(s *store.Store, doc model.Document, result *diag.Result) {
	spec, err := doc.AsEndpoint()
	if err != nil {
		result.AddError(diag.E002MissingField, fmt.Sprintf("Endpoint %q: %v", doc.Name, err), loc(doc, "$.spec"))
		return
	}

	checkTypeResolvesOrError(s, doc, "$.spec.input", spec.Input, result)
	checkTypeResolvesOrError(s, doc, "$.spec.output", spec.Output, result)

	if spec.Workflow == "" {
		result.AddError(diag.E002MissingField, fmt.Sprintf("Endpoint %q missing workflow", doc.Name), loc(doc, "$.spec.workflow"))
	} else if _, ok := s.GetByKindName(model.Workflow, spec.Workflow); !ok {
		result.AddError(diag.E005UnknownReference,
			fmt.Sprintf("Endpoint %q references unknown workflow %q", doc.Name, spec.Workflow),
			loc(doc, "$.spec.workflow"))
	}

	if spec.IdempotencyKey != nil {
		if inputType, ok := s.GetByKindName(model.Type, spec.Input.Name); ok {
			tspec, _ := inputType.AsType()
			if _, has := tspec.Fields[*spec.IdempotencyKey]; !has {
				result.AddError(diag.E009InvalidMapping,
					fmt.Sprintf("Endpoint %q idempotency_key %q does not name a field of its input type", doc.Name, *spec.IdempotencyKey),
					loc(doc, "$.spec.idempotency_key"))
			}
		}
	}
}

func checkService(s *store.Store, doc model.Document, result *diag.Result) {
	spec, err := doc.AsService()
	if err != nil {
		result.AddError(diag.E002MissingField, fmt.Sprintf("Service %q: %v", doc.Name, err), loc(doc, "$.spec"))
		return
	}
	for name, op := range spec.Operations {
		checkTypeResolvesOrError(s, doc, "$.spec.operations."+name+".input", op.Input, result)
		checkTypeResolvesOrError(s, doc, "$.spec.operations."+name+".output", op.Output, result)
	}
}

func checkContractTest(s *store.Store, doc model.Document, result *diag.Result) {
	spec, err := doc.AsContractTest()
	if err != nil {
		result.AddError(diag.E002MissingField, fmt.Sprintf("ContractTest %q: %v", doc.Name, err), loc(doc, "$.spec"))
		return
	}
	svc, ok := s.GetByKindName(model.Service, spec.Service)
	if !ok {
		result.AddError(diag.E005UnknownReference,
			fmt.Sprintf("ContractTest %q references unknown service %q", doc.Name, spec.Service),
			loc(doc, "$.spec.service"))
		return
	}
	svcSpec, err := svc.AsService()
	if err != nil {
		return
	}
	if _, ok := svcSpec.Operations[spec.Operation]; !ok {
		result.AddError(diag.E005UnknownReference,
			fmt.Sprintf("ContractTest %q references unknown operation %q on service %q", doc.Name, spec.Operation, spec.Service),
			loc(doc, "$.spec.operation"))
	}
}

func checkMigration(doc model.Document, result *diag.Result) {
	spec, err := doc.AsMigration()
	if err != nil {
		result.AddError(diag.E002MissingField, fmt.Sprintf("Migration %q: %v", doc.Name, err), loc(doc, "$.spec"))
		return
	}
	if spec.Version < 1 {
		result.AddError(diag.E002MissingField, fmt.Sprintf("Migration %q version must be >= 1", doc.Name), loc(doc, "$.spec.version"))
	}
	if spec.Table == "" {
		result.AddError(diag.E002MissingField, fmt.Sprintf("Migration %q table must be non-empty", doc.Name), loc(doc, "$.spec.table"))
	}
	if len(spec.Operations) == 0 {
		result.AddError(diag.E002MissingField, fmt.Sprintf("Migration %q operations must be non-empty", doc.Name), loc(doc, "$.spec.operations"))
	}
	for i, op := range spec.Operations {
		if !validMigrationOps[op.Op] {
			result.AddError(diag.E002MissingField,
				fmt.Sprintf("Migration %q operation[%d] has unknown op %q", doc.Name, i, op.Op),
				loc(doc, fmt.Sprintf("$.spec.operations[%d].op", i)))
		}
	}
}

var validMigrationOps = map[string]bool{
	"create_table": true, "add_column": true, "drop_column": true,
	"create_index": true, "drop_index": true,
}

func checkPresenceOnly(doc model.Document, result *diag.Result) {
	// Meta kinds bootstrap the system's own self-description; the middle-end
	// only asserts the spec decoded at all (presence of required scalars is
	// enforced structurally by the per-kind struct + schema, so a decode
	// failure here is the only failure mode worth reporting).
	switch doc.Kind {
	case model.Function:
		if _, err := doc.AsFunction(); err != nil {
			result.AddError(diag.E002MissingField, fmt.Sprintf("Function %q: %v", doc.Name, err), loc(doc, "$.spec"))
		}
	case model.Pipeline:
		if _, err := doc.AsPipeline(); err != nil {
			result.AddWarning(diag.E002MissingField, fmt.Sprintf("Pipeline %q: %v", doc.Name, err), loc(doc, "$.spec"))
		}
	case model.Template:
		if _, err := doc.AsTemplate(); err != nil {
			result.AddError(diag.E002MissingField, fmt.Sprintf("Template %q: %v", doc.Name, err), loc(doc, "$.spec"))
		}
	case model.Module:
		if _, err := doc.AsModule(); err != nil {
			result.AddError(diag.E002MissingField, fmt.Sprintf("Module %q: %v", doc.Name, err), loc(doc, "$.spec"))
		}
	}
}

func checkEnum(doc model.Document, result *diag.Result) {
	spec, err := doc.AsEnum()
	if err != nil {
		result.AddError(diag.E002MissingField, fmt.Sprintf("Enum %q: %v", doc.Name, err), loc(doc, "$.spec"))
		return
	}
	seen := map[string]bool{}
	for _, v := range spec.Variants {
		if seen[v] {
			result.AddError(diag.E010DuplicateName, fmt.Sprintf("Enum %q has duplicate variant %q", doc.Name, v), loc(doc, "$.spec.variants"))
		}
		seen[v] = true
	}
}

func checkCommand(doc model.Document, result *diag.Result) {
	spec, err := doc.AsCommand()
	if err != nil {
		result.AddError(diag.E002MissingField, fmt.Sprintf("Command %q: %v", doc.Name, err), loc(doc, "$.spec"))
		return
	}
	if spec.Handler == "" {
		// Meta-kinds bootstrap; an unresolved handler is a warning, not an error.
		result.AddWarning(diag.E005UnknownReference, fmt.Sprintf("Command %q has no handler", doc.Name), loc(doc, "$.spec.handler"))
	}
}

func checkTrait(doc model.Document, result *diag.Result) {
	spec, err := doc.AsTrait()
	if err != nil {
		result.AddError(diag.E002MissingField, fmt.Sprintf("Trait %q: %v", doc.Name, err), loc(doc, "$.spec"))
		return
	}
	seen := map[string]bool{}
	for _, m := range spec.Methods {
		if seen[m.Name] {
			result.AddError(diag.E010DuplicateName, fmt.Sprintf("Trait %q has duplicate method %q", doc.Name, m.Name), loc(doc, "$.spec.methods"))
		}
		seen[m.Name] = true
	}
}

func checkTypeResolvesOrError(s *store.Store, doc model.Document, path string, t typeref.TypeRef, result *diag.Result) {
	for _, name := range typeref.NamedRefs(t) {
		if !resolvesType(s, name) {
			result.AddError(diag.E005UnknownReference,
				fmt.Sprintf("%s %q: %s references unknown type %q", doc.Kind, doc.Name, path, name),
				loc(doc, path))
		}
	}
}
