// Package resolve builds the intent-to-intent dependency graph and detects
// cycles in it. Complexity is O(N+E); traversal order is made deterministic
// by sorting ids before DFS.
package resolve

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/mazharm/intent-engine/internal/diag"
	"github.com/mazharm/intent-engine/internal/model"
	"github.com/mazharm/intent-engine/internal/store"
)

// Graph is the resolved dependency graph: edges point from a dependent
// intent to each of its dependencies.
type Graph struct {
	Dependencies map[uuid.UUID][]uuid.UUID
	Dependents   map[uuid.UUID][]uuid.UUID
}

// Resolve walks every document in s, resolves its type/workflow/service
// references against the store, and detects cycles. It returns the
// resulting graph and a diag.Result carrying one E005 per unresolved
// reference and one E006 per detected cycle.
func Resolve(s *store.Store) (Graph, diag.Result) {
	var result diag.Result
	var errs *multierror.Error

	graph := Graph{
		Dependencies: map[uuid.UUID][]uuid.UUID{},
		Dependents:   map[uuid.UUID][]uuid.UUID{},
	}

	for _, doc := range s.Iter() {
		deps, docErrs := resolveOne(s, doc)
		if docErrs != nil {
			errs = multierror.Append(errs, docErrs)
		}
		graph.Dependencies[doc.ID] = deps
		for _, dep := range deps {
			graph.Dependents[dep] = append(graph.Dependents[dep], doc.ID)
		}
	}

	if errs != nil {
		for _, e := range errs.Errors {
			if re, ok := e.(*refError); ok {
				result.Add(diag.Resolution, diag.Error, diag.E005UnknownReference, re.Error(), &diag.Location{
					File: re.file, Path: re.path,
				})
			}
		}
	}

	for _, dep := range graph.Dependents {
		sort.Slice(dep, func(i, j int) bool { return dep[i].String() < dep[j].String() })
	}

	cycles := detectCycles(graph)
	for _, cycle := range cycles {
		names := make([]string, 0, len(cycle))
		for _, id := range cycle {
			if d, ok := s.Get(id); ok {
				names = append(names, d.Name)
			}
		}
		result.AddError(diag.E006CircularReference,
			fmt.Sprintf("Circular reference detected: %s", joinArrow(names)), nil)
	}

	return graph, result
}

type refError struct {
	name string
	file string
	path string
}

func (e *refError) Error() string { return fmt.Sprintf("Unknown reference: %s", e.name) }

// resolveOne resolves doc's own references, returning the dependency id
// list and an aggregated error (possibly a *multierror.Error) for any
// unresolved reference.
func resolveOne(s *store.Store, doc model.Document) ([]uuid.UUID, error) {
	var deps []uuid.UUID
	var errs *multierror.Error

	for _, name := range doc.TypeReferences() {
		if model.IsNativeOrEngine(name) {
			continue
		}
		if d, ok := s.GetByKindName(model.Type, name); ok {
			deps = append(deps, d.ID)
			continue
		}
		errs = multierror.Append(errs, &refError{name: name, file: doc.SourceFile, path: "$.spec"})
	}

	if wf := doc.WorkflowReference(); wf != "" {
		if d, ok := s.GetByKindName(model.Workflow, wf); ok {
			deps = append(deps, d.ID)
		} else {
			errs = multierror.Append(errs, &refError{name: wf, file: doc.SourceFile, path: "$.spec.workflow"})
		}
	}

	for _, name := range doc.ServiceReferences() {
		if d, ok := s.GetByKindName(model.Service, name); ok {
			deps = append(deps, d.ID)
			continue
		}
		path := "$.spec"
		if doc.Kind == model.Workflow {
			path = stepPathFor(doc, name)
		}
		errs = multierror.Append(errs, &refError{name: name, file: doc.SourceFile, path: path})
	}

	sort.Slice(deps, func(i, j int) bool { return deps[i].String() < deps[j].String() })

	if errs == nil {
		return deps, nil
	}
	return deps, errs
}

// stepPathFor finds the step index of the first HttpCall step naming
// service, for a precise diagnostic location ($.spec.steps[N].service).
func stepPathFor(doc model.Document, service string) string {
	spec, err := doc.AsWorkflow()
	if err != nil {
		return "$.spec"
	}
	for i, step := range spec.Steps {
		if step.Effect == model.HTTPCall && step.Service == service {
			return fmt.Sprintf("$.spec.steps[%d].service", i)
		}
	}
	return "$.spec"
}

func joinArrow(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += " -> "
		}
		out += n
	}
	return out
}

// detectCycles runs standard DFS with a visited set and recursion stack
// over a deterministic (sorted) key order, returning one path per detected
// back-edge.
func detectCycles(g Graph) [][]uuid.UUID {
	ids := make([]uuid.UUID, 0, len(g.Dependencies))
	for id := range g.Dependencies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	visited := map[uuid.UUID]bool{}
	onStack := map[uuid.UUID]bool{}
	var path []uuid.UUID
	var cycles [][]uuid.UUID

	var dfs func(uuid.UUID)
	dfs = func(node uuid.UUID) {
		visited[node] = true
		onStack[node] = true
		path = append(path, node)

		for _, dep := range g.Dependencies[node] {
			if !visited[dep] {
				dfs(dep)
			} else if onStack[dep] {
				start := indexOf(path, dep)
				cycle := make([]uuid.UUID, len(path)-start)
				copy(cycle, path[start:])
				cycles = append(cycles, cycle)
			}
		}

		path = path[:len(path)-1]
		onStack[node] = false
	}

	for _, id := range ids {
		if !visited[id] {
			dfs(id)
		}
	}
	return cycles
}

func indexOf(path []uuid.UUID, id uuid.UUID) int {
	for i, p := range path {
		if p == id {
			return i
		}
	}
	return -1
}
