// Package model defines the intent envelope, the closed set of kinds, the
// per-kind spec schemas, and the reference-extraction API (§4.3) that the
// resolver, type checker, and effect analyser all build on.
package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Document is the IntentDocument envelope. Spec holds the
// opaque per-kind JSON subtree as decoded by canonical.Decode (so numbers
// are json.Number and objects are map[string]any); callers decode it into a
// typed struct via AsType, AsEndpoint, etc.
type Document struct {
	SchemaVersion string         `json:"schema_version"`
	ID            uuid.UUID      `json:"id"`
	Kind          Kind           `json:"kind"`
	Name          string         `json:"name"`
	Spec          map[string]any `json:"spec"`

	// SourceFile is transient: populated by the loader, never persisted.
	SourceFile string `json:"-"`
}

// New creates an empty, canonical Document for `new <Kind> <Name>`.
func New(kind Kind, name string) Document {
	return Document{
		SchemaVersion: "1.0",
		ID:            uuid.New(),
		Kind:          kind,
		Name:          name,
		Spec:          map[string]any{},
	}
}

// Canonical renders the document as a plain map[string]any suitable for
// internal/canonical.Marshal / MarshalPretty — the pretty form is the
// on-disk form of every intent file.
func (d Document) Canonical() map[string]any {
	return map[string]any{
		"schema_version": d.SchemaVersion,
		"id":             d.ID.String(),
		"kind":           string(d.Kind),
		"name":           d.Name,
		"spec":           d.Spec,
	}
}

// FromCanonical reconstructs a Document from a decoded envelope map (as
// produced by canonical.Decode). sourceFile is attached for diagnostics.
func FromCanonical(raw any, sourceFile string) (Document, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Document{}, fmt.Errorf("intent document must be a JSON object")
	}

	schemaVersion, _ := obj["schema_version"].(string)

	idStr, ok := obj["id"].(string)
	if !ok || idStr == "" {
		return Document{}, fmt.Errorf("missing required field \"id\"")
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return Document{}, fmt.Errorf("invalid id %q: %w", idStr, err)
	}

	kindStr, ok := obj["kind"].(string)
	if !ok || kindStr == "" {
		return Document{}, fmt.Errorf("missing required field \"kind\"")
	}
	kind, ok := ParseKind(kindStr)
	if !ok {
		return Document{}, fmt.Errorf("invalid kind %q", kindStr)
	}

	name, ok := obj["name"].(string)
	if !ok || name == "" {
		return Document{}, fmt.Errorf("missing required field \"name\"")
	}

	spec, _ := obj["spec"].(map[string]any)
	if spec == nil {
		spec = map[string]any{}
	}

	return Document{
		SchemaVersion: schemaVersion,
		ID:            id,
		Kind:          kind,
		Name:          name,
		Spec:          spec,
		SourceFile:    sourceFile,
	}, nil
}

// Summary is the flattened view used by `list` / `show`.
type Summary struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Name string `json:"name"`
	File string `json:"file"`
}

func (d Document) Summary() Summary {
	return Summary{ID: d.ID.String(), Kind: string(d.Kind), Name: d.Name, File: d.SourceFile}
}
