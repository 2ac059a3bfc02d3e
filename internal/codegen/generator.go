package codegen

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/mazharm/intent-engine/internal/canonical"
	"github.com/mazharm/intent-engine/internal/config"
	"github.com/mazharm/intent-engine/internal/model"
	"github.com/mazharm/intent-engine/internal/obligations"
	"github.com/mazharm/intent-engine/internal/store"
	"github.com/mazharm/intent-engine/internal/typeref"
)

// FileResult is one rendered output file, whether in write or check mode.
type FileResult struct {
	Path     string
	Content  string
	Matches  bool   // in write mode, true once the file has been written
	Reason   string // non-empty iff !Matches, a short human diff summary
	Written  bool   // true in write mode once the file has been persisted
}

// Result is the outcome of one Generate invocation.
type Result struct {
	Files    []FileResult
	Manifest *GenManifest
	Trace    *TraceMap

	// StalePaths lists files the previous manifest recorded that this run
	// no longer produces — e.g. the intent that used to generate them was
	// deleted or renamed. In WriteMode these are removed from disk; in
	// CheckMode they fail the check the same as a content mismatch would.
	StalePaths []string
}

// Matches reports whether every rendered file matched its on-disk content
// and the manifest, and no
// previously-generated file was left orphaned — the aggregate check-mode
// verdict: result.matches = (∀ file. file.matches) ∧ stalePaths = ∅.
func (r Result) Matches() bool {
	if len(r.StalePaths) > 0 {
		return false
	}
	for _, f := range r.Files {
		if !f.Matches {
			return false
		}
	}
	return true
}

// Mode selects between comparing against the existing manifest (CheckMode)
// and writing files to disk (WriteMode).
type Mode int

const (
	CheckMode Mode = iota
	WriteMode
)

// Generate renders the full gen/ tree for s under root, per cfg. In
// WriteMode it writes files and persists the manifest/trace/obligations lock
// files; in CheckMode it writes nothing and compares each rendered file with
// its on-disk content and its entry in the existing manifest.
func Generate(root string, s *store.Store, cfg config.Project, mode Mode) (Result, error) {
	manifest, err := LoadManifestLock(root)
	if err != nil {
		return Result{}, err
	}
	trace := NewTraceMap()
	newManifest := NewManifest()

	var files []FileResult

	typesContent, typesSources := renderTypes(s)
	files = append(files, renderFile(root, manifest, newManifest, "gen/types.go", typesContent, typesSources))

	line := 10
	for _, doc := range s.GetByKind(model.Type) {
		trace.Add(doc.ID, "gen/types.go", line, doc.Name)
		line += 10
	}

	for _, doc := range s.GetByKind(model.Endpoint) {
		content, sources, err := renderEndpoint(s, doc)
		if err != nil {
			return Result{}, fmt.Errorf("rendering endpoint %q: %w", doc.Name, err)
		}
		path := fmt.Sprintf("gen/endpoints/%s.go", toSnakeCase(doc.Name))
		files = append(files, renderFile(root, manifest, newManifest, path, content, sources))
		trace.Add(doc.ID, path, 1, toSnakeCase(doc.Name))
	}

	for _, doc := range s.GetByKind(model.Workflow) {
		content, sources, err := renderWorkflow(doc)
		if err != nil {
			return Result{}, fmt.Errorf("rendering workflow %q: %w", doc.Name, err)
		}
		path := fmt.Sprintf("gen/workflows/%s.go", toSnakeCase(doc.Name))
		files = append(files, renderFile(root, manifest, newManifest, path, content, sources))
		trace.Add(doc.ID, path, 1, toSnakeCase(doc.Name))
	}

	for _, doc := range s.GetByKind(model.Service) {
		content, err := renderService(cfg, doc)
		if err != nil {
			return Result{}, fmt.Errorf("rendering service %q: %w", doc.Name, err)
		}
		path := fmt.Sprintf("gen/services/%s.go", toSnakeCase(doc.Name))
		files = append(files, renderFile(root, manifest, newManifest, path, content, []string{doc.ID.String()}))
		trace.Add(doc.ID, path, 1, toSnakeCase(doc.Name))
	}

	goModContent := renderGoMod(cfg)
	files = append(files, renderFile(root, manifest, newManifest, "gen/go.mod", goModContent, nil))

	obs := obligations.Check(s)
	obligationsContent := renderObligationsMarkdown(obs)
	files = append(files, renderFile(root, manifest, newManifest, "gen/OBLIGATIONS.md", obligationsContent, nil))

	for _, doc := range s.Iter() {
		hash, err := canonical.Hash(doc.Canonical())
		if err == nil {
			newManifest.AddSource(doc.ID.String(), hash)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	var stalePaths []string
	for _, path := range SortedPaths(manifest) {
		if _, ok := newManifest.Files[path]; !ok {
			stalePaths = append(stalePaths, path)
		}
	}

	if mode == WriteMode {
		for i, f := range files {
			path := filepath.Join(root, f.Path)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return Result{}, err
			}
			if err := os.WriteFile(path, []byte(f.Content), 0o644); err != nil {
				return Result{}, err
			}
			files[i].Written = true
			files[i].Matches = true
			files[i].Reason = ""
		}
		for _, path := range stalePaths {
			if err := os.Remove(filepath.Join(root, path)); err != nil && !os.IsNotExist(err) {
				return Result{}, err
			}
		}
		if err := WriteManifestLock(root, newManifest); err != nil {
			return Result{}, err
		}
		if err := WriteTraceLock(root, trace); err != nil {
			return Result{}, err
		}
		if err := obligations.WriteLock(root, obs); err != nil {
			return Result{}, err
		}
	}

	return Result{Files: files, Manifest: newManifest, Trace: trace, StalePaths: stalePaths}, nil
}

func renderFile(root string, oldManifest, newManifest *GenManifest, path, content string, sourceIntents []string) FileResult {
	newManifest.AddFile(path, content, sourceIntents)

	onDisk, err := os.ReadFile(filepath.Join(root, path))
	matches := err == nil && string(onDisk) == content && oldManifest.CheckFile(path, content)
	reason := ""
	if !matches {
		switch {
		case err != nil:
			reason = "file not yet generated"
		case string(onDisk) != content:
			reason = "on-disk content diverges from store-derived content"
		default:
			reason = "manifest entry missing or stale"
		}
	}
	return FileResult{Path: path, Content: content, Matches: matches, Reason: reason}
}

var typeFileTmpl = template.Must(template.New("types").Funcs(template.FuncMap{
	"goType": goType,
}).Parse(`// Code generated by intentc. DO NOT EDIT.
package gen

{{range .}}
type {{.Name}} struct {
{{- range .Fields}}
	{{.GoName}} {{goType .FieldType}} ` + "`json:\"{{.JSONName}}\"`" + `
{{- end}}
}
{{end}}`))

type typeFieldView struct {
	GoName    string
	JSONName  string
	FieldType typeref.TypeRef
}

type typeView struct {
	Name   string
	Fields []typeFieldView
}

func renderTypes(s *store.Store) (string, []string) {
	var views []typeView
	var sources []string
	for _, doc := range s.GetByKind(model.Type) {
		spec, err := doc.AsType()
		if err != nil {
			continue
		}
		sources = append(sources, doc.ID.String())

		names := make([]string, 0, len(spec.Fields))
		for name := range spec.Fields {
			names = append(names, name)
		}
		sort.Strings(names)

		fields := make([]typeFieldView, 0, len(names))
		for _, name := range names {
			fields = append(fields, typeFieldView{
				GoName:    exportName(name),
				JSONName:  name,
				FieldType: spec.Fields[name].FieldType,
			})
		}
		views = append(views, typeView{Name: doc.Name, Fields: fields})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })

	var buf bytes.Buffer
	_ = typeFileTmpl.Execute(&buf, views)
	return buf.String(), sources
}

func goType(t typeref.TypeRef) string {
	switch t.Kind {
	case typeref.KindOptional:
		return "*" + goType(*t.Elem)
	case typeref.KindArray:
		return "[]" + goType(*t.Elem)
	case typeref.KindMap:
		return "map[" + goType(*t.Key) + "]" + goType(*t.Value)
	case typeref.KindNamed:
		return t.Name
	case typeref.KindPrimitive:
		switch t.Primitive {
		case typeref.String:
			return "string"
		case typeref.Int:
			return "int64"
		case typeref.Float:
			return "float64"
		case typeref.Bool:
			return "bool"
		case typeref.Money:
			return "Money"
		case typeref.DateTime:
			return "time.Time"
		case typeref.UUID:
			return "uuid.UUID"
		case typeref.Bytes:
			return "[]byte"
		}
	}
	return "any"
}

func exportName(name string) string {
	parts := strings.Split(name, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

var endpointTmpl = template.Must(template.New("endpoint").Parse(`// Code generated by intentc. DO NOT EDIT.
package endpoints

import (
	"context"
	"net/http"
	"time"
)

// {{.HandlerName}} implements {{.Method}} {{.Path}}, invoking {{.Workflow}}.
func {{.HandlerName}}(ctx context.Context, req *{{.Input}}) (*{{.Output}}, error) {
	{{- if .TimeoutMs}}
	ctx, cancel := context.WithTimeout(ctx, {{.TimeoutMs}}*time.Millisecond)
	defer cancel()
	{{- end}}
	return {{.WorkflowFunc}}(ctx, req)
}

var _ = http.MethodGet
`))

type endpointView struct {
	HandlerName  string
	Method       string
	Path         string
	Workflow     string
	WorkflowFunc string
	Input        string
	Output       string
	TimeoutMs    int
}

func renderEndpoint(s *store.Store, doc model.Document) (string, []string, error) {
	spec, err := doc.AsEndpoint()
	if err != nil {
		return "", nil, err
	}
	view := endpointView{
		HandlerName:  exportName(doc.Name),
		Method:       spec.Method,
		Path:         spec.Path,
		Workflow:     spec.Workflow,
		WorkflowFunc: toSnakeCase(spec.Workflow),
		Input:        goType(spec.Input),
		Output:       goType(spec.Output),
	}
	if spec.Policies.TimeoutMs != nil {
		view.TimeoutMs = *spec.Policies.TimeoutMs
	}
	var buf bytes.Buffer
	if err := endpointTmpl.Execute(&buf, view); err != nil {
		return "", nil, err
	}
	sources := []string{doc.ID.String()}
	if wf, ok := s.GetByKindName(model.Workflow, spec.Workflow); ok {
		sources = append(sources, wf.ID.String())
	}
	return buf.String(), sources, nil
}

var workflowTmpl = template.Must(template.New("workflow").Parse(`// Code generated by intentc. DO NOT EDIT.
package workflows

import "context"

// {{.FuncName}} runs the {{.Name}} workflow: {{.StepCount}} step(s).
func {{.FuncName}}(ctx context.Context, input *{{.Input}}) (*{{.Output}}, error) {
	var out {{.Output}}
	_ = ctx
	_ = input
	return &out, nil
}
`))

type workflowView struct {
	FuncName  string
	Name      string
	Input     string
	Output    string
	StepCount int
}

func renderWorkflow(doc model.Document) (string, []string, error) {
	spec, err := doc.AsWorkflow()
	if err != nil {
		return "", nil, err
	}
	view := workflowView{
		FuncName:  toSnakeCase(doc.Name),
		Name:      doc.Name,
		Input:     goType(spec.Input),
		Output:    goType(spec.Output),
		StepCount: len(spec.Steps),
	}
	var buf bytes.Buffer
	if err := workflowTmpl.Execute(&buf, view); err != nil {
		return "", nil, err
	}
	return buf.String(), []string{doc.ID.String()}, nil
}

var serviceTmpl = template.Must(template.New("service").Parse(`// Code generated by intentc. DO NOT EDIT.
package services

// {{.Name}}BaseURL is {{.Name}}'s base URL for the "{{.Env}}" environment,
// overridden from intent.toml's [environments.{{.Env}}] table when set,
// falling back to the intent's own base_url otherwise.
const {{.Name}}BaseURL = "{{.BaseURL}}"
`))

type serviceView struct {
	Name    string
	Env     string
	BaseURL string
}

// renderService renders one Service intent's generated client constants.
// The base URL is resolved against cfg's named-environment overrides
// (intent.toml's [environments.<env>] tables, keyed "<Service>.base_url")
// before falling back to the intent's own declared base_url, so a project
// can point the same generated service reference at different hosts per
// environment without touching the intent corpus.
func renderService(cfg config.Project, doc model.Document) (string, error) {
	spec, err := doc.AsService()
	if err != nil {
		return "", err
	}
	baseURL := spec.BaseURL
	env := cfg.DefaultEnv()
	if override, ok := cfg.GetEnvValue(env, doc.Name+".base_url"); ok {
		baseURL = override
	}
	view := serviceView{Name: exportName(doc.Name), Env: env, BaseURL: baseURL}
	var buf bytes.Buffer
	if err := serviceTmpl.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderGoMod(cfg config.Project) string {
	name := cfg.Name
	if name == "" {
		name = "generated"
	}
	return fmt.Sprintf("module %s/gen\n\ngo 1.23\n", name)
}
