package model

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"

	"github.com/mazharm/intent-engine/internal/typeref"
)

// decode converts the opaque spec map into a typed struct using
// mitchellh/mapstructure, with hooks that teach it about this domain's two
// JSON peculiarities: json.Number (produced by canonical.Decode) and the
// TypeRef string-encoded type grammar.
func decode(spec map[string]any, out any) error {
	hook := mapstructure.ComposeDecodeHookFunc(
		stringToTypeRefHook,
		numberToIntHook,
	)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       hook,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(spec)
}

func stringToTypeRefHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(typeref.TypeRef{}) {
		return data, nil
	}
	s, ok := data.(string)
	if !ok {
		return data, nil
	}
	tr, err := typeref.Parse(s)
	if err != nil {
		return nil, err
	}
	return tr, nil
}

func numberToIntHook(from, to reflect.Type, data any) (any, error) {
	n, ok := data.(json.Number)
	if !ok {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int32, reflect.Int64:
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("expected integer, got %q", n.String())
		}
		return i, nil
	case reflect.Float32, reflect.Float64:
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("expected number, got %q", n.String())
		}
		return f, nil
	default:
		return data, nil
	}
}

// AsType decodes d.Spec into a TypeSpec. Returns an error if d.Kind != Type.
func (d Document) AsType() (TypeSpec, error) {
	if d.Kind != Type {
		return TypeSpec{}, fmt.Errorf("intent %q is kind %s, not Type", d.Name, d.Kind)
	}
	var s TypeSpec
	err := decode(d.Spec, &s)
	return s, err
}

// AsService decodes d.Spec into a ServiceSpec.
func (d Document) AsService() (ServiceSpec, error) {
	if d.Kind != Service {
		return ServiceSpec{}, fmt.Errorf("intent %q is kind %s, not Service", d.Name, d.Kind)
	}
	var s ServiceSpec
	err := decode(d.Spec, &s)
	return s, err
}

// AsWorkflow decodes d.Spec into a WorkflowSpec, including manual decoding
// of the tagged-union steps list (mapstructure alone can't discriminate
// Transform vs Effect steps by shape).
func (d Document) AsWorkflow() (WorkflowSpec, error) {
	if d.Kind != Workflow {
		return WorkflowSpec{}, fmt.Errorf("intent %q is kind %s, not Workflow", d.Name, d.Kind)
	}
	var s WorkflowSpec
	if err := decode(d.Spec, &s); err != nil {
		return WorkflowSpec{}, err
	}
	steps, err := decodeSteps(d.Spec["steps"])
	if err != nil {
		return WorkflowSpec{}, err
	}
	s.Steps = steps
	return s, nil
}

func decodeSteps(raw any) ([]Step, error) {
	items, ok := raw.([]any)
	if !ok {
		if raw == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("steps must be an array")
	}
	out := make([]Step, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("step %d must be an object", i)
		}
		var st Step
		if err := decode(m, &st); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		if st.Effect != "" {
			st.StepKind = "Effect"
		} else {
			st.StepKind = "Transform"
		}
		out = append(out, st)
	}
	return out, nil
}

// AsEndpoint decodes d.Spec into an EndpointSpec.
func (d Document) AsEndpoint() (EndpointSpec, error) {
	if d.Kind != Endpoint {
		return EndpointSpec{}, fmt.Errorf("intent %q is kind %s, not Endpoint", d.Name, d.Kind)
	}
	var s EndpointSpec
	err := decode(d.Spec, &s)
	return s, err
}

// AsContractTest decodes d.Spec into a ContractTestSpec.
func (d Document) AsContractTest() (ContractTestSpec, error) {
	if d.Kind != ContractTest {
		return ContractTestSpec{}, fmt.Errorf("intent %q is kind %s, not ContractTest", d.Name, d.Kind)
	}
	var s ContractTestSpec
	err := decode(d.Spec, &s)
	return s, err
}

// AsMigration decodes d.Spec into a MigrationSpec.
func (d Document) AsMigration() (MigrationSpec, error) {
	if d.Kind != Migration {
		return MigrationSpec{}, fmt.Errorf("intent %q is kind %s, not Migration", d.Name, d.Kind)
	}
	var s MigrationSpec
	err := decode(d.Spec, &s)
	return s, err
}

// AsFunction decodes d.Spec into a FunctionSpec.
func (d Document) AsFunction() (FunctionSpec, error) {
	var s FunctionSpec
	err := decode(d.Spec, &s)
	return s, err
}

// AsPipeline decodes d.Spec into a PipelineSpec.
func (d Document) AsPipeline() (PipelineSpec, error) {
	var s PipelineSpec
	err := decode(d.Spec, &s)
	return s, err
}

// AsTemplate decodes d.Spec into a TemplateSpec.
func (d Document) AsTemplate() (TemplateSpec, error) {
	var s TemplateSpec
	err := decode(d.Spec, &s)
	return s, err
}

// AsEnum decodes d.Spec into an EnumSpec.
func (d Document) AsEnum() (EnumSpec, error) {
	var s EnumSpec
	err := decode(d.Spec, &s)
	return s, err
}

// AsModule decodes d.Spec into a ModuleSpec.
func (d Document) AsModule() (ModuleSpec, error) {
	var s ModuleSpec
	err := decode(d.Spec, &s)
	return s, err
}

// AsCommand decodes d.Spec into a CommandSpec.
func (d Document) AsCommand() (CommandSpec, error) {
	var s CommandSpec
	err := decode(d.Spec, &s)
	return s, err
}

// AsTrait decodes d.Spec into a TraitSpec.
func (d Document) AsTrait() (TraitSpec, error) {
	var s TraitSpec
	err := decode(d.Spec, &s)
	return s, err
}
