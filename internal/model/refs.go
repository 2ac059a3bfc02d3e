package model

import (
	"sort"
	"strings"

	"github.com/mazharm/intent-engine/internal/typeref"
)

// nativeOrEngine is the fixed allowlist of names the resolver must treat as
// resolving outside the corpus: target-language primitives, container heads,
// and a handful of bootstrapping placeholders the v2
// meta-kinds use to describe themselves without an infinite regress of Type
// intents. This list is authoritative; document changes to it here.
var nativeOrEngine = map[string]bool{
	"string": true, "int": true, "float": true, "bool": true,
	"money": true, "datetime": true, "uuid": true, "bytes": true,
	"array": true, "optional": true, "map": true,
	// Meta-kind self-description placeholders (v2 kinds bootstrap off of
	// these rather than a corresponding Type intent).
	"self": true, "void": true, "any": true,
}

// IsNativeOrEngine reports whether name should be skipped by reference
// resolution: it's on the fixed allowlist, or it contains '<' or '::'
// (already-composite or namespaced, never a bare intent name).
func IsNativeOrEngine(name string) bool {
	if strings.ContainsAny(name, "<") || strings.Contains(name, "::") {
		return true
	}
	return nativeOrEngine[strings.ToLower(name)]
}

// TypeReferences returns the set of named types referenced by d's spec,
// per the per-kind rules for each intent kind. Errors decoding the spec
// (e.g. an Endpoint intent with a malformed policies block) are swallowed
// here — reference extraction only cares about type names, and the type
// checker reports the decode error properly.
func (d Document) TypeReferences() []string {
	switch d.Kind {
	case Type:
		spec, err := d.AsType()
		if err != nil {
			return nil
		}
		refs := make([]typeref.TypeRef, 0, len(spec.Fields))
		for _, f := range spec.Fields {
			refs = append(refs, f.FieldType)
		}
		return typeref.SortedUniqueNames(refs...)

	case Workflow:
		spec, err := d.AsWorkflow()
		if err != nil {
			return nil
		}
		refs := []typeref.TypeRef{spec.Input, spec.Output}
		for _, t := range spec.Context {
			refs = append(refs, t)
		}
		return typeref.SortedUniqueNames(refs...)

	case Endpoint:
		spec, err := d.AsEndpoint()
		if err != nil {
			return nil
		}
		return typeref.SortedUniqueNames(spec.Input, spec.Output)

	case Service:
		spec, err := d.AsService()
		if err != nil {
			return nil
		}
		refs := make([]typeref.TypeRef, 0, len(spec.Operations)*2)
		for _, op := range spec.Operations {
			refs = append(refs, op.Input, op.Output)
		}
		return typeref.SortedUniqueNames(refs...)

	case Function:
		spec, err := d.AsFunction()
		if err != nil {
			return nil
		}
		refs := []typeref.TypeRef{spec.Return}
		for _, t := range spec.Params {
			refs = append(refs, t)
		}
		return typeref.SortedUniqueNames(refs...)

	case Pipeline:
		spec, err := d.AsPipeline()
		if err != nil {
			return nil
		}
		return typeref.SortedUniqueNames(spec.Input, spec.Output)

	case Trait:
		spec, err := d.AsTrait()
		if err != nil {
			return nil
		}
		var refs []typeref.TypeRef
		for _, m := range spec.Methods {
			refs = append(refs, m.Return)
			for _, t := range m.Params {
				refs = append(refs, t)
			}
		}
		names := typeref.SortedUniqueNames(refs...)
		for _, impl := range spec.Implementors {
			if !contains(names, impl) {
				names = append(names, impl)
			}
		}
		sort.Strings(names)
		return names

	default:
		return nil
	}
}

// WorkflowReference returns the workflow name an Endpoint targets; every
// other kind returns "".
func (d Document) WorkflowReference() string {
	if d.Kind != Endpoint {
		return ""
	}
	spec, err := d.AsEndpoint()
	if err != nil {
		return ""
	}
	return spec.Workflow
}

// ServiceReferences returns the service names referenced by d: a Workflow
// yields the services named by its HttpCall steps; a ContractTest yields
// its single target service.
func (d Document) ServiceReferences() []string {
	switch d.Kind {
	case Workflow:
		spec, err := d.AsWorkflow()
		if err != nil {
			return nil
		}
		seen := map[string]bool{}
		var out []string
		for _, step := range spec.Steps {
			if step.Effect == HTTPCall && step.Service != "" && !seen[step.Service] {
				seen[step.Service] = true
				out = append(out, step.Service)
			}
		}
		sort.Strings(out)
		return out
	case ContractTest:
		spec, err := d.AsContractTest()
		if err != nil || spec.Service == "" {
			return nil
		}
		return []string{spec.Service}
	default:
		return nil
	}
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
