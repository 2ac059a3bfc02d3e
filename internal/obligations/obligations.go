// Package obligations derives the set of ContractTest/Migration obligations
// implied by a corpus's effects and persists them to the obligations lock
// file.
package obligations

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/mazharm/intent-engine/internal/canonical"
	"github.com/mazharm/intent-engine/internal/effects"
	"github.com/mazharm/intent-engine/internal/model"
	"github.com/mazharm/intent-engine/internal/store"
)

// Severity mirrors the effect analyser's severity vocabulary. Every
// obligation derived here is High: an unwritten contract test or migration
// for an observed effect is always a gap worth blocking generation on.
type Severity string

const High Severity = "HIGH"

// Status reports whether an obligation has already been fulfilled by an
// existing intent in the corpus.
type Status string

const (
	Open     Status = "open"
	Resolved Status = "resolved"
)

// Type discriminates the two obligation kinds this engine derives.
type Type string

const (
	ContractTestObligation Type = "ContractTest"
	MigrationObligation    Type = "Migration"
)

// Obligation is one derived requirement: either "this service operation
// needs a contract test" or "this table needs a migration".
type Obligation struct {
	ID             uuid.UUID `json:"id"`
	ObligationType Type      `json:"type"`
	IntentID       *uuid.UUID `json:"intent_id,omitempty"`
	Status         Status    `json:"status"`
	Severity       Severity  `json:"severity"`
	Description    string    `json:"description"`
	Service        string    `json:"service,omitempty"`
	Operation      string    `json:"operation,omitempty"`
	Table          string    `json:"table,omitempty"`
}

// Check derives every obligation implied by s's effect profile, in a
// deterministic order: ContractTest obligations sorted by (service,
// operation), then Migration obligations sorted by table.
func Check(s *store.Store) []Obligation {
	analysis := effects.Analyze(s)
	var out []Obligation

	for _, call := range analysis.ServicesCalled {
		status, intentID := resolvingContractTest(s, call.Service, call.Operation)
		out = append(out, Obligation{
			ID:             uuid.New(),
			ObligationType: ContractTestObligation,
			IntentID:       intentID,
			Status:         status,
			Severity:       High,
			Description:    fmt.Sprintf("Add contract test for %s.%s", call.Service, call.Operation),
			Service:        call.Service,
			Operation:      call.Operation,
		})
	}

	for _, table := range analysis.TablesWritten {
		status, intentID := resolvingMigration(s, table)
		out = append(out, Obligation{
			ID:             uuid.New(),
			ObligationType: MigrationObligation,
			IntentID:       intentID,
			Status:         status,
			Severity:       High,
			Description:    fmt.Sprintf("Add migration for table '%s'", table),
			Table:          table,
		})
	}

	return out
}

func resolvingContractTest(s *store.Store, service, operation string) (Status, *uuid.UUID) {
	for _, doc := range s.GetByKind(model.ContractTest) {
		spec, err := doc.AsContractTest()
		if err != nil {
			continue
		}
		if spec.Service == service && spec.Operation == operation {
			id := doc.ID
			return Resolved, &id
		}
	}
	return Open, nil
}

func resolvingMigration(s *store.Store, table string) (Status, *uuid.UUID) {
	for _, doc := range s.GetByKind(model.Migration) {
		spec, err := doc.AsMigration()
		if err != nil {
			continue
		}
		if spec.Table == table {
			id := doc.ID
			return Resolved, &id
		}
	}
	return Open, nil
}

// OpenOnly returns only the unresolved obligations, in the same
// deterministic order as Check.
func OpenOnly(obligations []Obligation) []Obligation {
	var out []Obligation
	for _, o := range obligations {
		if o.Status == Open {
			out = append(out, o)
		}
	}
	return out
}

const lockPath = ".intent/locks/obligations.json"

// WriteLock persists obligations to the lock file at root/.intent/locks,
// canonicalised the same way every other on-disk artifact in this compiler
// is (internal/canonical), so the lock file diffs cleanly under VCS.
func WriteLock(root string, obligations []Obligation) error {
	sorted := make([]Obligation, len(obligations))
	copy(sorted, obligations)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ObligationType != sorted[j].ObligationType {
			return sorted[i].ObligationType < sorted[j].ObligationType
		}
		if sorted[i].Service != sorted[j].Service {
			return sorted[i].Service < sorted[j].Service
		}
		if sorted[i].Operation != sorted[j].Operation {
			return sorted[i].Operation < sorted[j].Operation
		}
		return sorted[i].Table < sorted[j].Table
	})

	path := filepath.Join(root, lockPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	payload := map[string]any{"obligations": toCanonical(sorted)}
	out, err := canonical.MarshalPretty(payload)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

// ReadLock loads the obligations lock file, returning an empty slice (not
// an error) if it does not exist yet.
func ReadLock(root string) ([]Obligation, error) {
	path := filepath.Join(root, lockPath)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	decoded, err := canonical.Decode(raw)
	if err != nil {
		return nil, err
	}
	m, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("obligations lock: unexpected shape")
	}
	items, _ := m["obligations"].([]any)
	out := make([]Obligation, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, fromCanonical(entry))
	}
	return out, nil
}

func toCanonical(obligations []Obligation) []map[string]any {
	out := make([]map[string]any, 0, len(obligations))
	for _, o := range obligations {
		m := map[string]any{
			"id":          o.ID.String(),
			"type":        string(o.ObligationType),
			"status":      string(o.Status),
			"severity":    string(o.Severity),
			"description": o.Description,
		}
		if o.IntentID != nil {
			m["intent_id"] = o.IntentID.String()
		}
		if o.Service != "" {
			m["service"] = o.Service
		}
		if o.Operation != "" {
			m["operation"] = o.Operation
		}
		if o.Table != "" {
			m["table"] = o.Table
		}
		out = append(out, m)
	}
	return out
}

func fromCanonical(m map[string]any) Obligation {
	o := Obligation{
		ObligationType: Type(stringField(m, "type")),
		Status:         Status(stringField(m, "status")),
		Severity:       Severity(stringField(m, "severity")),
		Description:    stringField(m, "description"),
		Service:        stringField(m, "service"),
		Operation:      stringField(m, "operation"),
		Table:          stringField(m, "table"),
	}
	if idStr := stringField(m, "id"); idStr != "" {
		if id, err := uuid.Parse(idStr); err == nil {
			o.ID = id
		}
	}
	if idStr := stringField(m, "intent_id"); idStr != "" {
		if id, err := uuid.Parse(idStr); err == nil {
			o.IntentID = &id
		}
	}
	return o
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
