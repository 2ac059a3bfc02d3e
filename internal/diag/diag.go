// Package diag defines the diagnostic vocabulary shared by every validation
// stage of the compiler: a stable code, a severity, and a located message.
package diag

import "fmt"

// Severity indicates how a diagnostic affects the outcome of a pipeline step.
type Severity int

const (
	// Info is purely informational; it never affects an exit code.
	Info Severity = iota
	// Warning is advisory; the operation proceeds but the warning is reported.
	Warning
	// Error stops the current command from being considered successful.
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Kind classifies the diagnostic by the pipeline axis that produced it.
type Kind int

const (
	Parse Kind = iota
	Validation
	Resolution
	Type
	Codegen
	IO
)

func (k Kind) String() string {
	switch k {
	case Parse:
		return "Parse"
	case Validation:
		return "Validation"
	case Resolution:
		return "Resolution"
	case Type:
		return "Type"
	case Codegen:
		return "Codegen"
	case IO:
		return "IO"
	default:
		return "Unknown"
	}
}

// Code catalogue. Stable identifiers surfaced to callers.
const (
	E001InvalidJSON        = "E001"
	E002MissingField       = "E002"
	E003InvalidKind        = "E003"
	E004InvalidTypeExpr    = "E004"
	E005UnknownReference   = "E005"
	E006CircularReference  = "E006"
	E007TypeMismatch       = "E007"
	E008InvalidPolicy      = "E008"
	E009InvalidMapping     = "E009"
	E010DuplicateName      = "E010"
	W001NoAuthz            = "W001"
	W002BroadScope         = "W002"
	W003PIIPattern         = "W003"
)

// Location pinpoints a diagnostic to a file and a JSON Pointer-style path
// within that file (e.g. "$.spec.steps[0].service").
type Location struct {
	File string `json:"file"`
	Path string `json:"path"`
}

func (l Location) String() string {
	if l.File == "" && l.Path == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", l.File, l.Path)
}

// Diagnostic is a single coded, located, severity-tagged message.
type Diagnostic struct {
	Code     string    `json:"code"`
	Kind     Kind      `json:"kind"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	Location *Location `json:"location,omitempty"`
}

func (d Diagnostic) String() string {
	loc := ""
	if d.Location != nil {
		loc = " (" + d.Location.String() + ")"
	}
	return fmt.Sprintf("[%s] %s: %s%s", d.Severity, d.Code, d.Message, loc)
}

// Result accumulates diagnostics across a validation stage (or several
// stages chained together) and answers the only question the pipeline
// ultimately cares about: did anything reach Error severity.
type Result struct {
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// Add appends a diagnostic with an explicit kind/severity.
func (r *Result) Add(kind Kind, severity Severity, code, message string, loc *Location) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		Code:     code,
		Kind:     kind,
		Severity: severity,
		Message:  message,
		Location: loc,
	})
}

// AddError is a convenience wrapper for the common Validation+Error case.
func (r *Result) AddError(code, message string, loc *Location) {
	r.Add(Validation, Error, code, message, loc)
}

// AddWarning is a convenience wrapper for the common Validation+Warning case.
func (r *Result) AddWarning(code, message string, loc *Location) {
	r.Add(Validation, Warning, code, message, loc)
}

// Merge folds another Result's diagnostics into this one.
func (r *Result) Merge(other Result) {
	r.Diagnostics = append(r.Diagnostics, other.Diagnostics...)
}

// Errors returns only the Error-severity diagnostics.
func (r Result) Errors() []Diagnostic {
	return r.filter(Error)
}

// Warnings returns only the Warning-severity diagnostics.
func (r Result) Warnings() []Diagnostic {
	return r.filter(Warning)
}

func (r Result) filter(sev Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// Valid reports whether the result contains no Error-severity diagnostics.
func (r Result) Valid() bool {
	return len(r.Errors()) == 0
}
