package typesystem

import (
	"fmt"
	"strings"
)

// Type is the interface for all types in our system.
// The set of variants is closed; operations switch over them exhaustively.
type Type interface {
	String() string
	isType()
}

// UnboundType is a named reference that has not been resolved to a class
// (e.g. 'Foo' or 'Foo[T, Any]' in an annotation that failed to resolve).
type UnboundType struct {
	Name string
	Args []Type
}

func (UnboundType) isType() {}

func (t UnboundType) String() string {
	if len(t.Args) == 0 {
		return t.Name + "?"
	}
	return fmt.Sprintf("%s?[%s]", t.Name, joinTypes(t.Args))
}

// AnyType is the dynamic type.
type AnyType struct{}

func (AnyType) isType()        {}
func (AnyType) String() string { return "Any" }

// Void is the "no value" type of functions that return nothing.
type Void struct{}

func (Void) isType()        {}
func (Void) String() string { return "void" }

// NoneType is the type of None. It sits below every type except Void.
type NoneType struct{}

func (NoneType) isType()        {}
func (NoneType) String() string { return "None" }

// ErrorType marks an inconsistency that has already been reported.
type ErrorType struct{}

func (ErrorType) isType()        {}
func (ErrorType) String() string { return "<ERROR>" }

// TypeVar is a reference to a type variable.
type TypeVar struct {
	Name string
	ID   TypeVarID
}

func (TypeVar) isType() {}

func (t TypeVar) String() string {
	if t.Name == "" {
		return fmt.Sprintf("`%d", t.ID.Index)
	}
	return t.Name
}

// Instance is a nominal type: a class applied to type arguments.
type Instance struct {
	Class *ClassInfo
	Args  []Type
}

func (Instance) isType() {}

func (t Instance) String() string {
	name := "<nil>"
	if t.Class != nil {
		name = t.Class.Name
	}
	if len(t.Args) == 0 {
		return name
	}
	return fmt.Sprintf("%s[%s]", name, joinTypes(t.Args))
}

// TupleType is a fixed-arity tuple (e.g. Tuple[A, B]).
type TupleType struct {
	Items []Type
}

func (TupleType) isType() {}

func (t TupleType) String() string {
	return fmt.Sprintf("Tuple[%s]", joinTypes(t.Items))
}

// ArgKind classifies a callable parameter.
type ArgKind int

const (
	ArgPos  ArgKind = iota // positional
	ArgOpt                 // positional with a default
	ArgStar                // *args
)

func (k ArgKind) String() string {
	switch k {
	case ArgPos:
		return "pos"
	case ArgOpt:
		return "opt"
	case ArgStar:
		return "star"
	default:
		return fmt.Sprintf("ArgKind(%d)", int(k))
	}
}

// Callable is a function signature. When IsTypeObj is set it is the
// constructor signature of a class, i.e. the callable represents a type.
type Callable struct {
	ArgTypes  []Type
	ArgKinds  []ArgKind
	Defaults  []string // default expression placeholders, "" when absent
	Ret       Type
	IsTypeObj bool
	Name      string       // optional, for messages
	Variables []TypeVarDef // function-scoped type variables
}

func (Callable) isType() {}

// MinArgs returns the number of leading positional arguments.
func (t Callable) MinArgs() int {
	n := 0
	for _, k := range t.ArgKinds {
		if k != ArgPos {
			break
		}
		n++
	}
	return n
}

// IsVarArg reports whether the callable accepts *args.
func (t Callable) IsVarArg() bool {
	for _, k := range t.ArgKinds {
		if k == ArgStar {
			return true
		}
	}
	return false
}

func (t Callable) String() string {
	var sb strings.Builder
	sb.WriteString("def ")
	if len(t.Variables) > 0 {
		vars := make([]string, len(t.Variables))
		for i, v := range t.Variables {
			vars[i] = v.String()
		}
		fmt.Fprintf(&sb, "[%s] ", strings.Join(vars, ", "))
	}
	args := make([]string, len(t.ArgTypes))
	for i, a := range t.ArgTypes {
		kind := ArgPos
		if i < len(t.ArgKinds) {
			kind = t.ArgKinds[i]
		}
		switch kind {
		case ArgOpt:
			args[i] = a.String() + " ="
		case ArgStar:
			args[i] = "*" + a.String()
		default:
			args[i] = a.String()
		}
	}
	fmt.Fprintf(&sb, "(%s)", strings.Join(args, ", "))
	if _, ok := t.Ret.(Void); !ok && t.Ret != nil {
		sb.WriteString(" -> ")
		sb.WriteString(t.Ret.String())
	}
	return sb.String()
}

func joinTypes(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

// BasicTypes are the built-in classes the lattice operations need.
type BasicTypes struct {
	Object   Instance
	Type     Instance
	Tuple    Instance
	Function Instance
}
