package model

import "github.com/mazharm/intent-engine/internal/typeref"

// FieldDef is one field of a Type intent.
type FieldDef struct {
	FieldType typeref.TypeRef `mapstructure:"field_type"`
	Required  bool            `mapstructure:"required"`
}

// TypeSpec is the spec schema for kind Type.
type TypeSpec struct {
	Fields map[string]FieldDef `mapstructure:"fields"`
}

// OperationDef is one operation of a Service intent.
type OperationDef struct {
	Method string          `mapstructure:"method"`
	Path   string          `mapstructure:"path"`
	Input  typeref.TypeRef `mapstructure:"input"`
	Output typeref.TypeRef `mapstructure:"output"`
}

// ServiceSpec is the spec schema for kind Service.
type ServiceSpec struct {
	Protocol   string                  `mapstructure:"protocol"`
	BaseURL    string                  `mapstructure:"base_url"`
	Operations map[string]OperationDef `mapstructure:"operations"`
}

// EffectKind enumerates the observable side-effects a workflow step can
// perform.
type EffectKind string

const (
	HTTPCall  EffectKind = "HttpCall"
	DBRead    EffectKind = "DbRead"
	DBWrite   EffectKind = "DbWrite"
	DBDelete  EffectKind = "DbDelete"
	EmitEvent EffectKind = "EmitEvent"
)

// OnError enumerates how an Effect step handles failure.
type OnError string

const (
	Abort    OnError = "abort"
	Continue OnError = "continue"
	Retry    OnError = "retry"
)

// Step is one ordered entry in a Workflow's steps list. Exactly one of
// Transform or Effect is set; StepKind records which.
type Step struct {
	StepKind string `mapstructure:"-"`

	// Transform fields
	Name      string            `mapstructure:"name"`
	Assign    map[string]string `mapstructure:"assign"`
	RaiseIf   string            `mapstructure:"raise_if"`

	// Effect fields
	Effect        EffectKind     `mapstructure:"effect"`
	Service       string         `mapstructure:"service"`
	Operation     string         `mapstructure:"operation"`
	Table         string         `mapstructure:"table"`
	Topic         string         `mapstructure:"topic"`
	Query         string         `mapstructure:"query"`
	InputMapping  map[string]any `mapstructure:"input_mapping"`
	OutputBinding string         `mapstructure:"output_binding"`
	OnError       OnError        `mapstructure:"on_error"`
}

// IsEffect reports whether this step is an Effect step (has an effect kind).
func (s Step) IsEffect() bool { return s.Effect != "" }

// IsTransform reports whether this step is a Transform step.
func (s Step) IsTransform() bool { return !s.IsEffect() }

// WorkflowSpec is the spec schema for kind Workflow.
type WorkflowSpec struct {
	Input   typeref.TypeRef            `mapstructure:"input"`
	Output  typeref.TypeRef            `mapstructure:"output"`
	Context map[string]typeref.TypeRef `mapstructure:"context"`
	Steps   []Step                     `mapstructure:"-"`
}

// Retries describes an endpoint's retry policy.
type Retries struct {
	Max     int    `mapstructure:"max"`
	Backoff string `mapstructure:"backoff"` // constant, linear, exponential
}

// Policies holds an endpoint's timeout/retry policy.
type Policies struct {
	TimeoutMs *int     `mapstructure:"timeout_ms"`
	Retries   *Retries `mapstructure:"retries"`
}

// AuthZ holds an endpoint's authorization requirement.
type AuthZ struct {
	Principal string `mapstructure:"principal"`
	Scope     string `mapstructure:"scope"`
}

// ErrorDef is one declared error an endpoint may return.
type ErrorDef struct {
	Code      string `mapstructure:"code"`
	Status    int    `mapstructure:"status"`
	Retryable bool   `mapstructure:"retryable"`
}

// EndpointSpec is the spec schema for kind Endpoint.
type EndpointSpec struct {
	Method         string          `mapstructure:"method"`
	Path           string          `mapstructure:"path"`
	Input          typeref.TypeRef `mapstructure:"input"`
	Output         typeref.TypeRef `mapstructure:"output"`
	Workflow       string          `mapstructure:"workflow"`
	IdempotencyKey *string         `mapstructure:"idempotency_key"`
	Policies       Policies        `mapstructure:"policies"`
	Authz          *AuthZ          `mapstructure:"authz"`
	Errors         []ErrorDef      `mapstructure:"errors"`
}

// Scenario is one request/response pair exercised by a ContractTest.
type Scenario struct {
	Name     string         `mapstructure:"name"`
	Request  map[string]any `mapstructure:"request"`
	Response ScenarioResp   `mapstructure:"response"`
}

// ScenarioResp is the expected response of a contract test scenario.
type ScenarioResp struct {
	Status int            `mapstructure:"status"`
	Body   map[string]any `mapstructure:"body"`
}

// ContractTestSpec is the spec schema for kind ContractTest.
type ContractTestSpec struct {
	Service   string     `mapstructure:"service"`
	Operation string     `mapstructure:"operation"`
	Scenarios []Scenario `mapstructure:"scenarios"`
}

// MigrationOp is one tagged migration operation.
type MigrationOp struct {
	Op string `mapstructure:"op"` // create_table, add_column, drop_column, create_index, drop_index
}

// MigrationSpec is the spec schema for kind Migration.
type MigrationSpec struct {
	Version    int           `mapstructure:"version"`
	Table      string        `mapstructure:"table"`
	Operations []MigrationOp `mapstructure:"operations"`
}

// --- Meta-kind specs (v2): structurally checked, consumed by the generator ---

// FunctionSpec is the spec schema for kind Function.
type FunctionSpec struct {
	Params map[string]typeref.TypeRef `mapstructure:"params"`
	Return typeref.TypeRef            `mapstructure:"return"`
	Body   []any                      `mapstructure:"body"`
}

// PipelineSpec is the spec schema for kind Pipeline.
type PipelineSpec struct {
	Input  typeref.TypeRef `mapstructure:"input"`
	Output typeref.TypeRef `mapstructure:"output"`
	Stages []string        `mapstructure:"stages"`
}

// TemplateSpec is the spec schema for kind Template.
type TemplateSpec struct {
	Target string `mapstructure:"target"`
	Body   string `mapstructure:"body"`
}

// EnumSpec is the spec schema for kind Enum.
type EnumSpec struct {
	Variants []string `mapstructure:"variants"`
}

// ModuleSpec is the spec schema for kind Module.
type ModuleSpec struct {
	Intents []string `mapstructure:"intents"`
}

// CommandSpec is the spec schema for kind Command.
type CommandSpec struct {
	Handler string   `mapstructure:"handler"`
	Args    []string `mapstructure:"args"`
}

// MethodSig is one method signature declared by a Trait.
type MethodSig struct {
	Name   string                     `mapstructure:"name"`
	Params map[string]typeref.TypeRef `mapstructure:"params"`
	Return typeref.TypeRef            `mapstructure:"return"`
}

// TraitSpec is the spec schema for kind Trait.
type TraitSpec struct {
	Methods     []MethodSig `mapstructure:"methods"`
	Implementors []string   `mapstructure:"implementors"`
}
