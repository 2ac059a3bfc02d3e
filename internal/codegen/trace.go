package codegen

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/mazharm/intent-engine/internal/canonical"
)

// TraceEntry points one generated source location back to its name.
type TraceEntry struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Symbol string `json:"symbol"`
}

// TraceMap is the bidirectional intent<->generated-code index. Both maps
// are keyed so a canonical marshal sorts them automatically; the dual index
// lets callers go from intent to generated locations or from a generated
// file straight back to the intent that produced it.
type TraceMap struct {
	IntentToCode map[string][]TraceEntry `json:"intent_to_code"`
	CodeToIntent map[string]string       `json:"code_to_intent"`
}

// NewTraceMap returns an empty trace map.
func NewTraceMap() *TraceMap {
	return &TraceMap{
		IntentToCode: map[string][]TraceEntry{},
		CodeToIntent: map[string]string{},
	}
}

// Add records that intentID's generation touched file:line under symbol.
func (t *TraceMap) Add(intentID uuid.UUID, file string, line int, symbol string) {
	id := intentID.String()
	t.IntentToCode[id] = append(t.IntentToCode[id], TraceEntry{File: file, Line: line, Symbol: symbol})
	t.CodeToIntent[fmt.Sprintf("%s:%d", file, line)] = id
}

const traceLockPath = ".intent/locks/trace-map.json"

// WriteTraceLock persists t to the lock file under root.
func WriteTraceLock(root string, t *TraceMap) error {
	path := filepath.Join(root, traceLockPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := canonical.MarshalPretty(traceToCanonical(t))
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

func traceToCanonical(t *TraceMap) map[string]any {
	intentToCode := make(map[string]any, len(t.IntentToCode))
	for id, entries := range t.IntentToCode {
		list := make([]any, len(entries))
		for i, e := range entries {
			list[i] = map[string]any{"file": e.File, "line": e.Line, "symbol": e.Symbol}
		}
		intentToCode[id] = list
	}
	codeToIntent := make(map[string]any, len(t.CodeToIntent))
	for k, v := range t.CodeToIntent {
		codeToIntent[k] = v
	}
	return map[string]any{
		"intent_to_code": intentToCode,
		"code_to_intent": codeToIntent,
	}
}

// toSnakeCase derives generated file names from an intent's PascalCase name.
func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
