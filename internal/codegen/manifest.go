// Package codegen implements the generation orchestrator: it renders a
// deterministic output tree under gen/, tracks it in a GenManifest keyed by
// content hash, and records a TraceMap from intent id to generated
// location.
package codegen

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mazharm/intent-engine/internal/canonical"
)

// FileEntry records one generated file's content hash and the intents that
// contributed to it.
type FileEntry struct {
	Hash          string   `json:"hash"`
	SourceIntents []string `json:"source_intents"`
}

// GenManifest tracks every file this orchestrator has written, keyed by
// path, plus the content hash of every source intent that fed generation.
// Keys are sorted on every persist so the on-disk form — and its git diffs —
// stay deterministic.
type GenManifest struct {
	Version      string               `json:"version"`
	Files        map[string]FileEntry `json:"files"`
	SourceHashes map[string]string    `json:"source_hashes"`
}

// NewManifest returns an empty manifest at the current format version.
func NewManifest() *GenManifest {
	return &GenManifest{
		Version:      "1.0",
		Files:        map[string]FileEntry{},
		SourceHashes: map[string]string{},
	}
}

// AddFile records path's generated content and the ids of the intents that
// produced it.
func (m *GenManifest) AddFile(path, content string, sourceIntents []string) {
	m.Files[path] = FileEntry{
		Hash:          contentHash(content),
		SourceIntents: sourceIntents,
	}
}

// AddSource records the canonical hash of one source intent, so a
// regeneration can tell whether any input actually changed.
func (m *GenManifest) AddSource(intentID, hash string) {
	m.SourceHashes[intentID] = hash
}

// CheckFile reports whether path's recorded hash matches content's hash —
// false (never panics) if path was never recorded.
func (m *GenManifest) CheckFile(path, content string) bool {
	entry, ok := m.Files[path]
	if !ok {
		return false
	}
	return entry.Hash == contentHash(content)
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

const manifestLockPath = ".intent/locks/gen-manifest.json"

// WriteManifestLock persists m to the lock file under root.
func WriteManifestLock(root string, m *GenManifest) error {
	path := filepath.Join(root, manifestLockPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := canonical.MarshalPretty(manifestToCanonical(m))
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

// LoadManifestLock loads the manifest lock file under root, returning a
// fresh empty manifest if it does not exist.
func LoadManifestLock(root string) (*GenManifest, error) {
	path := filepath.Join(root, manifestLockPath)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewManifest(), nil
		}
		return nil, err
	}
	decoded, err := canonical.Decode(raw)
	if err != nil {
		return nil, err
	}
	m, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("gen-manifest.json: unexpected shape")
	}
	return manifestFromCanonical(m), nil
}

func manifestToCanonical(m *GenManifest) map[string]any {
	files := make(map[string]any, len(m.Files))
	for path, entry := range m.Files {
		files[path] = map[string]any{
			"hash":           entry.Hash,
			"source_intents": toAnySlice(entry.SourceIntents),
		}
	}
	sources := make(map[string]any, len(m.SourceHashes))
	for id, hash := range m.SourceHashes {
		sources[id] = hash
	}
	return map[string]any{
		"version":       m.Version,
		"files":         files,
		"source_hashes": sources,
	}
}

func manifestFromCanonical(raw map[string]any) *GenManifest {
	m := NewManifest()
	if v, ok := raw["version"].(string); ok {
		m.Version = v
	}
	if files, ok := raw["files"].(map[string]any); ok {
		for path, v := range files {
			entry, ok := v.(map[string]any)
			if !ok {
				continue
			}
			hash, _ := entry["hash"].(string)
			var sourceIntents []string
			if ids, ok := entry["source_intents"].([]any); ok {
				for _, id := range ids {
					if s, ok := id.(string); ok {
						sourceIntents = append(sourceIntents, s)
					}
				}
			}
			m.Files[path] = FileEntry{Hash: hash, SourceIntents: sourceIntents}
		}
	}
	if sources, ok := raw["source_hashes"].(map[string]any); ok {
		for id, v := range sources {
			if s, ok := v.(string); ok {
				m.SourceHashes[id] = s
			}
		}
	}
	return m
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// SortedPaths returns m's file paths in sorted order, for any caller that
// needs a deterministic traversal (e.g. check-mode reporting).
func SortedPaths(m *GenManifest) []string {
	out := make([]string, 0, len(m.Files))
	for path := range m.Files {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}
