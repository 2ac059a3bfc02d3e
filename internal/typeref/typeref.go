// Package typeref implements the small recursive type grammar used
// throughout intent specs: primitives, containers (array/optional/map), and
// named references to Type intents.
package typeref

import (
	"fmt"
	"sort"
	"strings"
)

// Primitive is one of the eight scalar kinds.
type Primitive string

const (
	String   Primitive = "string"
	Int      Primitive = "int"
	Float    Primitive = "float"
	Bool     Primitive = "bool"
	Money    Primitive = "money"
	DateTime Primitive = "datetime"
	UUID     Primitive = "uuid"
	Bytes    Primitive = "bytes"
)

var primitives = map[Primitive]bool{
	String: true, Int: true, Float: true, Bool: true,
	Money: true, DateTime: true, UUID: true, Bytes: true,
}

// Kind discriminates the TypeRef sum.
type Kind int

const (
	KindPrimitive Kind = iota
	KindArray
	KindOptional
	KindMap
	KindNamed
)

// TypeRef is a recursive sum over primitive, array, optional, map, and named
// type references. Container arms box their children via pointers so the
// value can be held directly.
type TypeRef struct {
	Kind      Kind
	Primitive Primitive // valid when Kind == KindPrimitive
	Elem      *TypeRef  // valid when Kind == KindArray or KindOptional
	Key       *TypeRef  // valid when Kind == KindMap
	Value     *TypeRef  // valid when Kind == KindMap
	Name      string    // valid when Kind == KindNamed
}

// NewPrimitive builds a primitive TypeRef.
func NewPrimitive(p Primitive) TypeRef { return TypeRef{Kind: KindPrimitive, Primitive: p} }

// NewNamed builds a Named TypeRef.
func NewNamed(name string) TypeRef { return TypeRef{Kind: KindNamed, Name: name} }

// NewArray builds array<elem>.
func NewArray(elem TypeRef) TypeRef { return TypeRef{Kind: KindArray, Elem: &elem} }

// NewOptional builds optional<elem>.
func NewOptional(elem TypeRef) TypeRef { return TypeRef{Kind: KindOptional, Elem: &elem} }

// NewMap builds map<key,value>.
func NewMap(key, value TypeRef) TypeRef {
	return TypeRef{Kind: KindMap, Key: &key, Value: &value}
}

// IsValidMapKey reports whether t may be used as a map key (string, int, uuid).
func (t TypeRef) IsValidMapKey() bool {
	return t.Kind == KindPrimitive && (t.Primitive == String || t.Primitive == Int || t.Primitive == UUID)
}

// String prints t back into the sole serialised form. parse(print(t)) == t
// for every constructible t.
func (t TypeRef) String() string {
	switch t.Kind {
	case KindPrimitive:
		return string(t.Primitive)
	case KindArray:
		return "array<" + t.Elem.String() + ">"
	case KindOptional:
		return "optional<" + t.Elem.String() + ">"
	case KindMap:
		return "map<" + t.Key.String() + "," + t.Value.String() + ">"
	case KindNamed:
		return t.Name
	default:
		return "?"
	}
}

// MarshalJSON renders a TypeRef as its printed string form.
func (t TypeRef) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON parses a TypeRef from its printed string form.
func (t *TypeRef) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseError reports why a type expression failed to parse.
type ParseError struct {
	Expr   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid type expression %q: %s", e.Expr, e.Reason)
}

// Parse parses a type expression. It is whitespace-tolerant around
// container brackets and commas.
func Parse(s string) (TypeRef, error) {
	orig := s
	s = strings.TrimSpace(s)
	if s == "" {
		return TypeRef{}, &ParseError{Expr: orig, Reason: "empty type expression"}
	}

	if inner, ok := stripContainer(s, "array<"); ok {
		elem, err := Parse(inner)
		if err != nil {
			return TypeRef{}, err
		}
		return NewArray(elem), nil
	}
	if inner, ok := stripContainer(s, "optional<"); ok {
		elem, err := Parse(inner)
		if err != nil {
			return TypeRef{}, err
		}
		return NewOptional(elem), nil
	}
	if inner, ok := stripContainer(s, "map<"); ok {
		keyStr, valStr, err := splitMapArgs(inner)
		if err != nil {
			return TypeRef{}, &ParseError{Expr: orig, Reason: err.Error()}
		}
		key, err := Parse(keyStr)
		if err != nil {
			return TypeRef{}, err
		}
		value, err := Parse(valStr)
		if err != nil {
			return TypeRef{}, err
		}
		if !key.IsValidMapKey() {
			return TypeRef{}, &ParseError{Expr: orig, Reason: fmt.Sprintf("invalid map key type %q (must be string, int, or uuid)", keyStr)}
		}
		return NewMap(key, value), nil
	}

	if p := Primitive(s); primitives[p] {
		return NewPrimitive(p), nil
	}

	if strings.ContainsAny(s, "<>,") {
		return TypeRef{}, &ParseError{Expr: orig, Reason: "unknown container or unbalanced brackets"}
	}
	r := rune(s[0])
	if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
		return TypeRef{}, &ParseError{Expr: orig, Reason: "named type must start with a letter"}
	}
	return NewNamed(s), nil
}

// stripContainer strips a "head<" prefix and trailing ">" suffix, returning
// the inner expression. Whitespace around the prefix is tolerated.
func stripContainer(s, prefix string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(strings.ToLower(trimmed), prefix) {
		return "", false
	}
	if !strings.HasSuffix(trimmed, ">") {
		return "", false
	}
	inner := trimmed[len(prefix) : len(trimmed)-1]
	return inner, true
}

// splitMapArgs splits "K,V" at the top-level comma, tolerating nested
// containers in either argument.
func splitMapArgs(s string) (string, string, error) {
	depth := 0
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				key := strings.TrimSpace(s[:i])
				val := strings.TrimSpace(s[i+1:])
				if val == "" {
					return "", "", fmt.Errorf("missing map value type")
				}
				return key, val, nil
			}
		}
	}
	return "", "", fmt.Errorf("missing map value type")
}

// NamedRefs returns the Named type names reachable in t, in encounter order
// (depth-first, left to right), with duplicates preserved.
func NamedRefs(t TypeRef) []string {
	var out []string
	collectNamed(t, &out)
	return out
}

func collectNamed(t TypeRef, out *[]string) {
	switch t.Kind {
	case KindNamed:
		*out = append(*out, t.Name)
	case KindArray, KindOptional:
		collectNamed(*t.Elem, out)
	case KindMap:
		collectNamed(*t.Key, out)
		collectNamed(*t.Value, out)
	}
}

// SortedUniqueNames returns the deduplicated, sorted set of names from a
// slice of TypeRefs — a convenience used by reference-extraction callers
// that want a deterministic iteration order.
func SortedUniqueNames(refs ...TypeRef) []string {
	seen := map[string]bool{}
	for _, r := range refs {
		for _, n := range NamedRefs(r) {
			seen[n] = true
		}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
