package model

import "strings"

// Kind is the closed set of intent kinds. v1 are domain kinds;
// v2 are meta kinds used for bootstrapped self-description. Polymorphism in
// the store is a switch over this closed set — adding a kind is an
// intentional source change, never an open extension point.
type Kind string

const (
	Type         Kind = "Type"
	Endpoint     Kind = "Endpoint"
	Workflow     Kind = "Workflow"
	Service      Kind = "Service"
	ContractTest Kind = "ContractTest"
	Migration    Kind = "Migration"

	Function Kind = "Function"
	Pipeline Kind = "Pipeline"
	Template Kind = "Template"
	Enum     Kind = "Enum"
	Module   Kind = "Module"
	Command  Kind = "Command"
	Trait    Kind = "Trait"
)

// AllKinds lists every member of the closed set, v1 kinds first.
func AllKinds() []Kind {
	return []Kind{
		Type, Endpoint, Workflow, Service, ContractTest, Migration,
		Function, Pipeline, Template, Enum, Module, Command, Trait,
	}
}

var kindByLower = func() map[string]Kind {
	m := make(map[string]Kind, len(AllKinds()))
	for _, k := range AllKinds() {
		m[strings.ToLower(string(k))] = k
	}
	m["contract_test"] = ContractTest
	return m
}()

// ParseKind parses a kind name case-insensitively, returning ok=false if the
// name is not in the closed set.
func ParseKind(s string) (Kind, bool) {
	k, ok := kindByLower[strings.ToLower(s)]
	return k, ok
}

// IsV1 reports whether k is a v1 domain kind.
func (k Kind) IsV1() bool {
	switch k {
	case Type, Endpoint, Workflow, Service, ContractTest, Migration:
		return true
	default:
		return false
	}
}

// IsV2 reports whether k is a v2 meta kind.
func (k Kind) IsV2() bool {
	return !k.IsV1()
}
