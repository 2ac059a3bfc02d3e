// Package verify implements the `verify` command: the composite gate that
// chains format-check, validation, generation-check, and obligations,
// stopping at the first failing step. A clean verify is the bar a change
// must clear before it is considered done.
package verify

import (
	"fmt"
	"path/filepath"

	"github.com/mazharm/intent-engine/internal/canonical"
	"github.com/mazharm/intent-engine/internal/codegen"
	"github.com/mazharm/intent-engine/internal/config"
	"github.com/mazharm/intent-engine/internal/diag"
	"github.com/mazharm/intent-engine/internal/obligations"
	"github.com/mazharm/intent-engine/internal/policy"
	"github.com/mazharm/intent-engine/internal/resolve"
	"github.com/mazharm/intent-engine/internal/store"
	"github.com/mazharm/intent-engine/internal/typecheck"
)

// ExitCode is the CLI's stable exit code catalogue.
type ExitCode int

const (
	Success             ExitCode = 0
	GeneralError        ExitCode = 1
	ValidationError     ExitCode = 2
	GenerationMismatch  ExitCode = 3
	PatchConflict       ExitCode = 4
	OpenObligations     ExitCode = 5
)

// Step names the stage verify stopped at, for callers reporting which part
// of the gate failed.
type Step string

const (
	StepFormat      Step = "fmt"
	StepValidate    Step = "validate"
	StepGenerate    Step = "gen"
	StepObligations Step = "obligations"
	StepNone        Step = ""
)

// Report is the outcome of a verify run.
type Report struct {
	Success           bool
	FailedStep        Step
	ExitCode          ExitCode
	UnformattedFiles  []string
	ValidationResult  diag.Result
	GenResult         codegen.Result
	Obligations       []obligations.Obligation
	OpenObligations   []obligations.Obligation
	IntentsValidated  int
	FilesGenerated    int
}

// Run executes the four-step gate against root, short-circuiting on the
// first failure with its corresponding exit code.
func Run(root string, intentFiles map[string]string, cfg config.Project) (Report, error) {
	unformatted, err := checkFormatting(intentFiles)
	if err != nil {
		return Report{}, err
	}
	if len(unformatted) > 0 {
		return Report{
			FailedStep:       StepFormat,
			ExitCode:         GeneralError,
			UnformattedFiles: unformatted,
		}, nil
	}

	s, loadErrs := store.LoadFromPath(filepath.Join(root, ".intent", "model"))
	if len(loadErrs) > 0 {
		result := diag.Result{}
		for _, le := range loadErrs {
			result.AddError(diag.E001InvalidJSON, le.Error(), &diag.Location{File: le.File})
		}
		return Report{
			FailedStep:       StepValidate,
			ExitCode:         ValidationError,
			ValidationResult: result,
		}, nil
	}

	validation := validateAll(s)
	if !validation.Valid() {
		return Report{
			FailedStep:       StepValidate,
			ExitCode:         ValidationError,
			ValidationResult: validation,
		}, nil
	}

	genResult, err := codegen.Generate(root, s, cfg, codegen.CheckMode)
	if err != nil {
		return Report{}, err
	}
	if !genResult.Matches() {
		return Report{
			FailedStep: StepGenerate,
			ExitCode:   GenerationMismatch,
			GenResult:  genResult,
		}, nil
	}

	obs := obligations.Check(s)
	open := obligations.OpenOnly(obs)
	var highOpen []obligations.Obligation
	for _, o := range open {
		if o.Severity == obligations.High {
			highOpen = append(highOpen, o)
		}
	}
	if len(highOpen) > 0 {
		return Report{
			FailedStep:      StepObligations,
			ExitCode:        OpenObligations,
			Obligations:     obs,
			OpenObligations: highOpen,
		}, nil
	}

	return Report{
		Success:          true,
		ExitCode:         Success,
		Obligations:      obs,
		OpenObligations:  open,
		IntentsValidated: s.Len(),
		FilesGenerated:   len(genResult.Files),
	}, nil
}

// validateAll runs resolve first; typecheck and policy only run once the
// corpus resolves cleanly — a dangling reference makes both cascading and
// unhelpful.
func validateAll(s *store.Store) diag.Result {
	var result diag.Result
	_, resolveResult := resolve.Resolve(s)
	result.Merge(resolveResult)
	if resolveResult.Valid() {
		result.Merge(typecheck.Check(s))
		result.Merge(policy.Check(s))
	}
	return result
}

// checkFormatting reports the subset of intentFiles (path -> raw content)
// whose on-disk bytes don't match their canonical pretty-printed form.
func checkFormatting(intentFiles map[string]string) ([]string, error) {
	var unformatted []string
	for path, content := range intentFiles {
		decoded, err := canonical.Decode([]byte(content))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		pretty, err := canonical.MarshalPretty(decoded)
		if err != nil {
			return nil, fmt.Errorf("canonicalising %s: %w", path, err)
		}
		if string(pretty) != content {
			unformatted = append(unformatted, path)
		}
	}
	return unformatted, nil
}
