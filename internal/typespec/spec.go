// Package typespec describes types in a serializable form and resolves those
// descriptions against a class table.
package typespec

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/typelattice/internal/typesystem"
)

// Spec kinds. The empty kind is a name, resolved by Resolve.
const (
	KindName     = ""
	KindTuple    = "tuple"
	KindCallable = "callable"
	KindVar      = "var"
	KindUnbound  = "unbound"
)

// Spec is a serializable type description. In YAML a plain scalar is
// shorthand for a name, so "A" and {name: A} are the same spec.
type Spec struct {
	Kind       string    `yaml:"kind,omitempty"`
	Name       string    `yaml:"name,omitempty"`
	Index      int       `yaml:"index,omitempty"`
	Args       []Spec    `yaml:"args,omitempty"`
	ArgKinds   []string  `yaml:"arg_kinds,omitempty"`
	Return     *Spec     `yaml:"return,omitempty"`
	TypeObject bool      `yaml:"type_object,omitempty"`
	Variables  []VarSpec `yaml:"variables,omitempty"`
}

// VarSpec declares a type variable, optionally restricted to value types.
type VarSpec struct {
	Name   string `yaml:"name"`
	Values []Spec `yaml:"values,omitempty"`
}

// Named returns a name spec.
func Named(name string, args ...Spec) Spec {
	return Spec{Name: name, Args: args}
}

// UnmarshalYAML accepts either a scalar name or the full mapping form.
func (s *Spec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var name string
		if err := node.Decode(&name); err != nil {
			return err
		}
		*s = Spec{Name: name}
		return nil
	}
	type plain Spec
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = Spec(p)
	return nil
}

// MarshalYAML writes a bare name spec as a scalar.
func (s Spec) MarshalYAML() (interface{}, error) {
	if s.isBareName() {
		return s.Name, nil
	}
	type plain Spec
	return plain(s), nil
}

// UnmarshalYAML accepts a scalar name for a variable without values.
func (v *VarSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&v.Name)
	}
	type plain VarSpec
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*v = VarSpec(p)
	return nil
}

func (s Spec) isBareName() bool {
	return s.Kind == KindName && s.Index == 0 && len(s.Args) == 0 &&
		len(s.ArgKinds) == 0 && s.Return == nil && !s.TypeObject && len(s.Variables) == 0
}

// String renders the spec in its compact YAML flow form.
func (s Spec) String() string {
	node := &yaml.Node{}
	if err := node.Encode(s); err != nil {
		return fmt.Sprintf("<invalid spec: %v>", err)
	}
	setFlow(node)
	out, err := yaml.Marshal(node)
	if err != nil {
		return fmt.Sprintf("<invalid spec: %v>", err)
	}
	if n := len(out); n > 0 && out[n-1] == '\n' {
		out = out[:n-1]
	}
	return string(out)
}

func setFlow(n *yaml.Node) {
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
		n.Style |= yaml.FlowStyle
	}
	for _, c := range n.Content {
		setFlow(c)
	}
}

// Parse decodes a spec from YAML text.
func Parse(text string) (Spec, error) {
	var s Spec
	if err := yaml.Unmarshal([]byte(text), &s); err != nil {
		return Spec{}, fmt.Errorf("invalid type spec %q: %w", text, err)
	}
	return s, nil
}

// FromType converts a type back to a spec. Type variables keep their name and
// index; their scope is not representable.
func FromType(t typesystem.Type) Spec {
	switch t := t.(type) {
	case typesystem.AnyType, typesystem.Void, typesystem.NoneType, typesystem.ErrorType:
		return Spec{Name: t.String()}
	case typesystem.UnboundType:
		return Spec{Kind: KindUnbound, Name: t.Name, Args: fromTypes(t.Args)}
	case typesystem.TypeVar:
		return Spec{Kind: KindVar, Name: t.Name, Index: t.ID.Index}
	case typesystem.Instance:
		name := ""
		if t.Class != nil {
			name = t.Class.Name
		}
		return Spec{Name: name, Args: fromTypes(t.Args)}
	case typesystem.TupleType:
		return Spec{Kind: KindTuple, Args: fromTypes(t.Items)}
	case typesystem.Callable:
		s := Spec{Kind: KindCallable, Args: fromTypes(t.ArgTypes), TypeObject: t.IsTypeObj}
		for _, k := range t.ArgKinds {
			if k != typesystem.ArgPos {
				s.ArgKinds = kindNames(t.ArgKinds)
				break
			}
		}
		if t.Ret != nil {
			if _, void := t.Ret.(typesystem.Void); !void {
				ret := FromType(t.Ret)
				s.Return = &ret
			}
		}
		for _, v := range t.Variables {
			s.Variables = append(s.Variables, VarSpec{Name: v.Name, Values: fromTypes(v.Values)})
		}
		return s
	default:
		return Spec{Kind: KindUnbound, Name: fmt.Sprintf("%v", t)}
	}
}

func fromTypes(ts []typesystem.Type) []Spec {
	if len(ts) == 0 {
		return nil
	}
	out := make([]Spec, len(ts))
	for i, t := range ts {
		out[i] = FromType(t)
	}
	return out
}

func kindNames(kinds []typesystem.ArgKind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = k.String()
	}
	return out
}
