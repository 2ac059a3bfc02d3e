package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewProducesCanonicalEnvelope(t *testing.T) {
	doc := New(Type, "Widget")
	require.Equal(t, "1.0", doc.SchemaVersion)
	require.Equal(t, Type, doc.Kind)
	require.Equal(t, "Widget", doc.Name)
	require.NotEqual(t, doc.ID.String(), "")
	require.Empty(t, doc.Spec)
}

func TestCanonicalFromCanonicalRoundTrip(t *testing.T) {
	doc := New(Service, "Payments")
	doc.Spec = map[string]any{"protocol": "http"}

	roundTripped, err := FromCanonical(doc.Canonical(), "payments.intent.json")
	require.NoError(t, err)
	require.Equal(t, doc.ID, roundTripped.ID)
	require.Equal(t, doc.Kind, roundTripped.Kind)
	require.Equal(t, doc.Name, roundTripped.Name)
	require.Equal(t, doc.Spec, roundTripped.Spec)
	require.Equal(t, "payments.intent.json", roundTripped.SourceFile)
}

func TestFromCanonicalRejectsMissingID(t *testing.T) {
	raw := map[string]any{
		"schema_version": "1.0",
		"kind":           "Type",
		"name":           "Widget",
		"spec":           map[string]any{},
	}
	_, err := FromCanonical(raw, "widget.intent.json")
	require.Error(t, err)
}

func TestFromCanonicalRejectsInvalidKind(t *testing.T) {
	raw := map[string]any{
		"schema_version": "1.0",
		"id":             "11111111-1111-1111-1111-111111111111",
		"kind":           "Bogus",
		"name":           "Widget",
		"spec":           map[string]any{},
	}
	_, err := FromCanonical(raw, "widget.intent.json")
	require.Error(t, err)
}

func TestFromCanonicalRejectsNonObject(t *testing.T) {
	_, err := FromCanonical([]any{1, 2, 3}, "widget.intent.json")
	require.Error(t, err)
}

func TestSummaryFlattensDocument(t *testing.T) {
	doc := New(Endpoint, "CreateRefund")
	doc.SourceFile = "createrefund.intent.json"
	summary := doc.Summary()
	require.Equal(t, doc.ID.String(), summary.ID)
	require.Equal(t, "Endpoint", summary.Kind)
	require.Equal(t, "CreateRefund", summary.Name)
	require.Equal(t, "createrefund.intent.json", summary.File)
}

func TestTypeReferencesForTypeIntent(t *testing.T) {
	doc := New(Type, "RefundRequest")
	doc.Spec = map[string]any{"fields": map[string]any{
		"order_id": map[string]any{"field_type": "uuid", "required": true},
		"customer": map[string]any{"field_type": "Customer", "required": true},
	}}
	refs := doc.TypeReferences()
	require.Equal(t, []string{"Customer"}, refs)
}

func TestTypeReferencesForEndpointIntent(t *testing.T) {
	doc := New(Endpoint, "CreateRefund")
	doc.Spec = map[string]any{
		"method":   "POST",
		"path":     "/refund",
		"input":    "RefundRequest",
		"output":   "RefundResponse",
		"workflow": "RefundWorkflow",
	}
	refs := doc.TypeReferences()
	require.ElementsMatch(t, []string{"RefundRequest", "RefundResponse"}, refs)
	require.Equal(t, "RefundWorkflow", doc.WorkflowReference())
}

func TestServiceReferencesForWorkflow(t *testing.T) {
	doc := New(Workflow, "RefundWorkflow")
	doc.Spec = map[string]any{"steps": []any{
		map[string]any{"step_kind": "effect", "name": "charge", "effect": "HttpCall", "service": "Payments", "operation": "charge"},
		map[string]any{"step_kind": "effect", "name": "charge_again", "effect": "HttpCall", "service": "Payments", "operation": "charge"},
	}}
	refs := doc.ServiceReferences()
	require.Equal(t, []string{"Payments"}, refs)
}

func TestIsNativeOrEngine(t *testing.T) {
	require.True(t, IsNativeOrEngine("string"))
	require.True(t, IsNativeOrEngine("UUID"))
	require.True(t, IsNativeOrEngine("array<string>"))
	require.True(t, IsNativeOrEngine("pkg::Thing"))
	require.False(t, IsNativeOrEngine("RefundRequest"))
}
