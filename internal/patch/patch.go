// Package patch applies a batch patch file to the intent model directory
// for `patch apply`: create/update/delete operations against
// .intent/model/*.intent.json, canonicalised on write. Structural
// pre-validation (duplicate targets, unknown actions) runs before any file
// touches disk.
package patch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mazharm/intent-engine/internal/canonical"
	"github.com/mazharm/intent-engine/internal/store"
)

// Action is one of the three mutations a patch operation may perform.
type Action string

const (
	Create Action = "create"
	Update Action = "update"
	Delete Action = "delete"
)

// Operation is one entry of a patch file's "operations" array.
type Operation struct {
	Action  Action         `json:"action"`
	Target  string         `json:"target"`
	Content map[string]any `json:"content,omitempty"`
}

// File is the top-level shape of a patch file.
type File struct {
	Operations []Operation `json:"operations"`
}

// Result reports what was (or, under DryRun, would be) done, plus any
// conflicts that blocked individual operations.
type Result struct {
	Operations []Operation
	Conflicts  []string
}

// HasConflicts reports whether any operation could not be applied.
func (r Result) HasConflicts() bool { return len(r.Conflicts) > 0 }

// Parse decodes raw patch file bytes.
func Parse(raw []byte) (File, error) {
	decoded, err := canonical.Decode(raw)
	if err != nil {
		return File{}, err
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return File{}, fmt.Errorf("patch file must be a JSON object")
	}
	rawOps, _ := obj["operations"].([]any)
	ops := make([]Operation, 0, len(rawOps))
	for i, item := range rawOps {
		m, ok := item.(map[string]any)
		if !ok {
			return File{}, fmt.Errorf("operation %d must be an object", i)
		}
		action, _ := m["action"].(string)
		target, _ := m["target"].(string)
		content, _ := m["content"].(map[string]any)
		ops = append(ops, Operation{Action: Action(action), Target: target, Content: content})
	}
	return File{Operations: ops}, nil
}

// Validate performs structural pre-validation before any operation touches
// disk: unknown actions, missing targets, and duplicate targets (two
// operations racing to write or delete the same file) are all reported as
// conflicts up front rather than discovered mid-apply.
func Validate(f File) []string {
	var conflicts []string
	seen := map[string]bool{}
	for i, op := range f.Operations {
		if op.Target == "" {
			conflicts = append(conflicts, fmt.Sprintf("operation %d: missing target", i))
			continue
		}
		if seen[op.Target] {
			conflicts = append(conflicts, fmt.Sprintf("duplicate target in patch: %s", op.Target))
		}
		seen[op.Target] = true

		switch op.Action {
		case Create, Update, Delete:
		default:
			conflicts = append(conflicts, fmt.Sprintf("unknown action: %s", op.Action))
		}
	}
	sort.Strings(conflicts)
	return conflicts
}

// Apply applies f's operations against modelDir, in file order. When dryRun
// is true no file is touched; Result.Operations still reports what would
// happen. Structural conflicts found by Validate are applied-time: they
// short-circuit the whole patch before any file is written, since a patch
// with an internal inconsistency should never partially apply.
func Apply(modelDir string, f File, dryRun bool) (Result, error) {
	result := Result{}

	if conflicts := Validate(f); len(conflicts) > 0 {
		result.Conflicts = conflicts
		return result, nil
	}

	for _, op := range f.Operations {
		result.Operations = append(result.Operations, op)

		if dryRun {
			continue
		}

		path := filepath.Join(modelDir, op.Target)
		switch op.Action {
		case Create:
			if op.Content == nil {
				continue
			}
			if err := writeCanonical(path, op.Content); err != nil {
				return Result{}, fmt.Errorf("create %s: %w", op.Target, err)
			}
		case Update:
			if _, err := os.Stat(path); err != nil {
				result.Conflicts = append(result.Conflicts, fmt.Sprintf("file not found: %s", op.Target))
				continue
			}
			if op.Content == nil {
				continue
			}
			if err := writeCanonical(path, op.Content); err != nil {
				return Result{}, fmt.Errorf("update %s: %w", op.Target, err)
			}
		case Delete:
			if _, err := os.Stat(path); err == nil {
				if err := os.Remove(path); err != nil {
					return Result{}, fmt.Errorf("delete %s: %w", op.Target, err)
				}
			}
		}
	}

	return result, nil
}

func writeCanonical(path string, content map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	pretty, err := canonical.MarshalPretty(content)
	if err != nil {
		return err
	}
	return os.WriteFile(path, pretty, 0o644)
}

// ValidateAgainstStore checks a patch's targets against the loaded corpus,
// not just the filesystem: an update or delete targeting a file that isn't
// the source of any document s actually indexed (never existed, failed to
// parse, failed schema validation) is reported as a conflict, since the
// store's view is what resolution/typecheck/etc. will see after the patch
// lands — a stat-only check would miss a target that exists on disk but
// never made it into the corpus.
func ValidateAgainstStore(s *store.Store, modelDir string, f File) []string {
	loaded := map[string]bool{}
	for _, doc := range s.Iter() {
		loaded[doc.SourceFile] = true
	}

	var conflicts []string
	for _, op := range f.Operations {
		if op.Action != Update && op.Action != Delete {
			continue
		}
		path := filepath.Join(modelDir, op.Target)
		if !loaded[path] {
			conflicts = append(conflicts, fmt.Sprintf("%s targets a file not in the loaded corpus: %s", op.Action, op.Target))
		}
	}
	sort.Strings(conflicts)
	return conflicts
}
