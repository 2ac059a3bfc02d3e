// Package pipeline wires the compiler's stages into the operations the CLI
// surfaces: new, list, show, fmt, validate, gen, diff, verify, and patch
// apply. It is the one place that knows how to load a corpus from disk and
// thread a *slog.Logger and intent.toml config through every stage, keeping
// cmd/intentc itself a thin layer that only parses flags.
package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mazharm/intent-engine/internal/canonical"
	"github.com/mazharm/intent-engine/internal/codegen"
	"github.com/mazharm/intent-engine/internal/config"
	"github.com/mazharm/intent-engine/internal/diag"
	"github.com/mazharm/intent-engine/internal/model"
	"github.com/mazharm/intent-engine/internal/obligations"
	"github.com/mazharm/intent-engine/internal/patch"
	"github.com/mazharm/intent-engine/internal/policy"
	"github.com/mazharm/intent-engine/internal/resolve"
	"github.com/mazharm/intent-engine/internal/semdiff"
	"github.com/mazharm/intent-engine/internal/store"
	"github.com/mazharm/intent-engine/internal/typecheck"
	"github.com/mazharm/intent-engine/internal/vcsref"
	"github.com/mazharm/intent-engine/internal/verify"
)

// ModelDir is the default location of the intent corpus, relative to root.
const ModelDir = ".intent/model"

// Pipeline bundles the project root, loaded config, and logger every
// operation needs.
type Pipeline struct {
	Root   string
	Config config.Project
	Logger *slog.Logger
}

// New builds a Pipeline rooted at root, loading intent.toml if present.
func New(root string, logger *slog.Logger) (*Pipeline, error) {
	cfg, err := config.Load(filepath.Join(root, config.ConfigFile))
	if err != nil {
		return nil, err
	}
	return &Pipeline{Root: root, Config: cfg, Logger: logger}, nil
}

func (p *Pipeline) modelDir() string {
	return filepath.Join(p.Root, ModelDir)
}

func (p *Pipeline) load() (*store.Store, []store.LoadError) {
	return store.LoadFromPath(p.modelDir())
}

// NewIntent creates an empty intent document of the given kind and name on
// disk, returning the written path.
func (p *Pipeline) NewIntent(kind, name string) (string, error) {
	k, ok := model.ParseKind(kind)
	if !ok {
		return "", fmt.Errorf("invalid intent kind: %s", kind)
	}

	dir := p.modelDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	fileName := strings.ToLower(name) + ".intent.json"
	path := filepath.Join(dir, fileName)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("file already exists: %s", path)
	}

	doc := model.New(k, name)
	if k == model.Type {
		// The loader's Type schema requires a "fields" object, even an empty one.
		doc.Spec = map[string]any{"fields": map[string]any{}}
	}
	pretty, err := canonical.MarshalPretty(doc.Canonical())
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, pretty, 0o644); err != nil {
		return "", err
	}
	p.Logger.Info("created intent", "kind", kind, "name", name, "path", path)
	return path, nil
}

// List returns every intent's summary, optionally filtered by kind.
func (p *Pipeline) List(kindFilter string) ([]model.Summary, error) {
	s, loadErrs := p.load()
	if err := firstLoadError(loadErrs); err != nil {
		return nil, err
	}

	var kind *model.Kind
	if kindFilter != "" {
		k, ok := model.ParseKind(kindFilter)
		if !ok {
			return nil, fmt.Errorf("invalid intent kind: %s", kindFilter)
		}
		kind = &k
	}

	docs := s.List(kind)
	out := make([]model.Summary, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Summary())
	}
	return out, nil
}

// ShowResult is the detail view for one named intent.
type ShowResult struct {
	Document     model.Document
	Dependencies []model.Document
	Dependents   []model.Document
}

// Show finds name and reports its full document plus its immediate
// dependency/dependent edges.
func (p *Pipeline) Show(name string) (ShowResult, error) {
	s, loadErrs := p.load()
	if err := firstLoadError(loadErrs); err != nil {
		return ShowResult{}, err
	}

	docs := s.FindByName(name)
	if len(docs) == 0 {
		return ShowResult{}, fmt.Errorf("intent not found: %s", name)
	}
	doc := docs[0]

	return ShowResult{
		Document:     doc,
		Dependencies: s.GetDependencies(doc.ID),
		Dependents:   s.GetDependents(doc.ID),
	}, nil
}

// FormatResult reports one file's formatting state.
type FormatResult struct {
	Path    string
	Changed bool
}

// Format canonicalises every intent file under the model directory (or just
// `only`, if set), rewriting in place unless checkOnly is set.
func (p *Pipeline) Format(only string, checkOnly bool) ([]FormatResult, error) {
	var files []string
	if only != "" {
		files = []string{only}
	} else {
		discovered, err := discoverIntentFiles(p.modelDir())
		if err != nil {
			return nil, err
		}
		files = discovered
	}

	var results []FormatResult
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		decoded, err := canonical.Decode(content)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		pretty, err := canonical.MarshalPretty(decoded)
		if err != nil {
			return nil, err
		}
		changed := string(pretty) != string(content)
		if changed && !checkOnly {
			if err := os.WriteFile(path, pretty, 0o644); err != nil {
				return nil, err
			}
		}
		results = append(results, FormatResult{Path: path, Changed: changed})
	}
	return results, nil
}

func discoverIntentFiles(dir string) ([]string, error) {
	var files []string
	if _, err := os.Stat(dir); err != nil {
		return files, nil
	}
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".intent.json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Validate loads the corpus and runs resolve, then typecheck + policy only
// if resolve was clean (a dangling reference makes downstream checks
// cascading and unhelpful), merging diagnostics into a single result.
func (p *Pipeline) Validate() (*store.Store, diag.Result, error) {
	s, loadErrs := p.load()
	if err := firstLoadError(loadErrs); err != nil {
		return nil, diag.Result{}, err
	}

	var result diag.Result
	_, resolveResult := resolve.Resolve(s)
	result.Merge(resolveResult)
	if resolveResult.Valid() {
		result.Merge(typecheck.Check(s))
		result.Merge(policy.Check(s))
	}
	return s, result, nil
}

// Generate runs the code generation orchestrator in either write or check
// mode, short-circuiting if validation fails first.
func (p *Pipeline) Generate(checkOnly bool) (codegen.Result, diag.Result, error) {
	s, validation, err := p.Validate()
	if err != nil {
		return codegen.Result{}, diag.Result{}, err
	}
	if !validation.Valid() {
		return codegen.Result{}, validation, nil
	}

	mode := codegen.WriteMode
	if checkOnly {
		mode = codegen.CheckMode
	}
	result, err := codegen.Generate(p.Root, s, p.Config, mode)
	return result, validation, err
}

// Diff computes the semantic diff between baseRef (a git revision) and the
// current on-disk corpus.
func (p *Pipeline) Diff(baseRef string) (semdiff.Result, error) {
	current, loadErrs := p.load()
	if err := firstLoadError(loadErrs); err != nil {
		return semdiff.Result{}, err
	}

	base, err := vcsref.LoadAtRef(baseRef)
	if err != nil {
		return semdiff.Result{}, err
	}

	return semdiff.Compute(base, current), nil
}

// Verify runs the full fmt/validate/gen/obligations gate.
func (p *Pipeline) Verify() (verify.Report, error) {
	files, err := p.readIntentFileContents()
	if err != nil {
		return verify.Report{}, err
	}
	return verify.Run(p.Root, files, p.Config)
}

func (p *Pipeline) readIntentFileContents() (map[string]string, error) {
	paths, err := discoverIntentFiles(p.modelDir())
	if err != nil {
		return nil, err
	}
	out := map[string]string{}
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		out[path] = string(content)
	}
	return out, nil
}

// Obligations reports the current corpus's derived obligations.
func (p *Pipeline) Obligations() ([]obligations.Obligation, error) {
	s, loadErrs := p.load()
	if err := firstLoadError(loadErrs); err != nil {
		return nil, err
	}
	return obligations.Check(s), nil
}

// PatchApply parses and applies a patch file against the model directory.
// Targets are checked against the currently loaded corpus (not just the
// filesystem) before anything is written, so an update/delete aimed at a
// file the store never indexed is caught as a conflict up front.
func (p *Pipeline) PatchApply(patchFile string, dryRun bool) (patch.Result, error) {
	raw, err := os.ReadFile(patchFile)
	if err != nil {
		return patch.Result{}, err
	}
	f, err := patch.Parse(raw)
	if err != nil {
		return patch.Result{}, err
	}

	s, _ := p.load()
	if conflicts := patch.ValidateAgainstStore(s, p.modelDir(), f); len(conflicts) > 0 {
		return patch.Result{Conflicts: conflicts}, nil
	}

	return patch.Apply(p.modelDir(), f, dryRun)
}

func firstLoadError(errs []store.LoadError) error {
	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}
