// Package policy implements the policy and security check phase: endpoint
// timeout/retry sanity, idempotency-on-write advisories, authorization
// presence/breadth, and PII field-name heuristics.
package policy

import (
	"fmt"
	"strings"

	"github.com/mazharm/intent-engine/internal/diag"
	"github.com/mazharm/intent-engine/internal/model"
	"github.com/mazharm/intent-engine/internal/store"
)

// piiPatterns are lower-cased substrings of a field name that hint at PII.
var piiPatterns = []string{
	"email", "phone", "ssn", "social_security", "address", "name",
	"first_name", "last_name", "date_of_birth", "dob", "credit_card",
	"card_number", "cvv", "password", "secret",
}

const maxReasonableTimeoutMs = 60000
const maxReasonableRetries = 10

// Check runs both the policy checks and the security checks over every
// document in s. Unlike internal/typecheck, these checks do not require a
// cycle-free corpus to run meaningfully on an individual endpoint — gating on
// clean resolution, when it's wanted, is the caller's job (internal/verify,
// internal/pipeline), not this function's.
func Check(s *store.Store) diag.Result {
	var result diag.Result
	checkPolicies(s, &result)
	checkSecurity(s, &result)
	return result
}

func checkPolicies(s *store.Store, result *diag.Result) {
	for _, doc := range s.Iter() {
		if doc.Kind != model.Endpoint {
			continue
		}
		spec, err := doc.AsEndpoint()
		if err != nil {
			continue
		}

		hasHTTP, hasWrite := workflowEffectProfile(s, spec.Workflow)

		if hasHTTP && spec.Policies.TimeoutMs == nil {
			result.AddWarning(diag.E008InvalidPolicy,
				fmt.Sprintf("Endpoint %q has HTTP effects but no timeout_ms policy", doc.Name),
				&diag.Location{File: doc.SourceFile, Path: "$.spec.policies"})
		}

		if spec.Policies.TimeoutMs != nil {
			timeout := *spec.Policies.TimeoutMs
			if timeout <= 0 {
				result.AddError(diag.E008InvalidPolicy, "timeout_ms must be > 0",
					&diag.Location{File: doc.SourceFile, Path: "$.spec.policies.timeout_ms"})
			} else if timeout > maxReasonableTimeoutMs {
				result.AddWarning(diag.E008InvalidPolicy,
					fmt.Sprintf("timeout_ms of %d is very high (> 60s)", timeout),
					&diag.Location{File: doc.SourceFile, Path: "$.spec.policies.timeout_ms"})
			}
		}

		if spec.Policies.Retries != nil {
			max := spec.Policies.Retries.Max
			if max == 0 {
				result.AddWarning(diag.E008InvalidPolicy, "retries.max of 0 means no retries",
					&diag.Location{File: doc.SourceFile, Path: "$.spec.policies.retries.max"})
			} else if max > maxReasonableRetries {
				result.AddWarning(diag.E008InvalidPolicy,
					fmt.Sprintf("retries.max of %d is very high", max),
					&diag.Location{File: doc.SourceFile, Path: "$.spec.policies.retries.max"})
			}
		}

		if hasWrite && spec.IdempotencyKey == nil {
			result.AddWarning(diag.E008InvalidPolicy,
				fmt.Sprintf("Endpoint %q has database writes but no idempotency_key", doc.Name),
				&diag.Location{File: doc.SourceFile, Path: "$.spec"})
		}
	}
}

// workflowEffectProfile reports whether the named workflow has at least one
// HttpCall step and at least one DbWrite/DbDelete step.
func workflowEffectProfile(s *store.Store, workflowName string) (hasHTTP, hasWrite bool) {
	wf, ok := s.GetByKindName(model.Workflow, workflowName)
	if !ok {
		return false, false
	}
	spec, err := wf.AsWorkflow()
	if err != nil {
		return false, false
	}
	for _, step := range spec.Steps {
		if !step.IsEffect() {
			continue
		}
		if step.Effect == model.HTTPCall {
			hasHTTP = true
		}
		if step.Effect == model.DBWrite || step.Effect == model.DBDelete {
			hasWrite = true
		}
	}
	return hasHTTP, hasWrite
}

func checkSecurity(s *store.Store, result *diag.Result) {
	for _, doc := range s.Iter() {
		switch doc.Kind {
		case model.Endpoint:
			checkEndpointSecurity(doc, result)
		case model.Type:
			checkTypePII(doc, result)
		}
	}
}

func checkEndpointSecurity(doc model.Document, result *diag.Result) {
	spec, err := doc.AsEndpoint()
	if err != nil {
		return
	}

	if spec.Authz == nil {
		result.AddWarning(diag.W001NoAuthz,
			fmt.Sprintf("Endpoint %q has no authorization configured", doc.Name),
			&diag.Location{File: doc.SourceFile, Path: "$.spec"})
		return
	}

	if spec.Authz.Scope == "*" || spec.Authz.Scope == "admin" {
		result.AddWarning(diag.W002BroadScope,
			fmt.Sprintf("Endpoint %q has broad authorization scope: %s", doc.Name, spec.Authz.Scope),
			&diag.Location{File: doc.SourceFile, Path: "$.spec.authz.scope"})
	}
}

func checkTypePII(doc model.Document, result *diag.Result) {
	spec, err := doc.AsType()
	if err != nil {
		return
	}
	for name := range spec.Fields {
		lower := strings.ToLower(name)
		for _, pattern := range piiPatterns {
			if strings.Contains(lower, pattern) {
				result.AddWarning(diag.W003PIIPattern,
					fmt.Sprintf("Field %q in type %q may contain PII (matches pattern %q)", name, doc.Name, pattern),
					&diag.Location{File: doc.SourceFile, Path: "$.spec.fields." + name})
				break
			}
		}
	}
}

// CheckAuthzWidening compares two revisions of the same Endpoint and reports
// whether authorization was weakened: scope removed entirely, or widened to
// "*"/"admin"/a write scope from a non-write one. Used by internal/semdiff
// to flag a security-relevant endpoint change at higher severity.
func CheckAuthzWidening(oldDoc, newDoc model.Document) (string, bool) {
	oldSpec, err := oldDoc.AsEndpoint()
	if err != nil {
		return "", false
	}
	newSpec, err := newDoc.AsEndpoint()
	if err != nil {
		return "", false
	}

	switch {
	case oldSpec.Authz != nil && newSpec.Authz != nil:
		oldScope, newScope := oldSpec.Authz.Scope, newSpec.Authz.Scope
		if oldScope == newScope {
			return "", false
		}
		widened := newScope == "*" || newScope == "admin" ||
			(strings.Contains(newScope, "write") && !strings.Contains(oldScope, "write"))
		if widened {
			return fmt.Sprintf("AuthZ scope widened from %q to %q", oldScope, newScope), true
		}
	case oldSpec.Authz != nil && newSpec.Authz == nil:
		return fmt.Sprintf("AuthZ removed (was scope %q)", oldSpec.Authz.Scope), true
	}
	return "", false
}
