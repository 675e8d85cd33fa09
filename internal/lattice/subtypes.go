package lattice

import (
	"github.com/funvibe/typelattice/internal/config"
	"github.com/funvibe/typelattice/internal/typesystem"
)

// IsSubtype reports whether left is a subtype of right. Any and unbound
// types are compatible with everything in both directions.
func IsSubtype(left, right typesystem.Type) bool {
	return isSubtype(left, right, false)
}

// IsProperSubtype is IsSubtype without the Any escape hatch: Any relates
// only to Any, and an unbound type only to an equal unbound type.
func IsProperSubtype(left, right typesystem.Type) bool {
	return isSubtype(left, right, true)
}

// IsEquivalent reports whether a and b are subtypes of each other.
func IsEquivalent(a, b typesystem.Type) bool {
	return isEquivalent(a, b, false)
}

// IsMorePrecise reports whether t carries at least as much information as s.
// Anything is more precise than Any; for instances this is proper
// subtyping, for all other types structural equality.
func IsMorePrecise(t, s typesystem.Type) bool {
	switch s := s.(type) {
	case typesystem.AnyType:
		return true
	case typesystem.Instance:
		return IsProperSubtype(t, s)
	default:
		return typesystem.Equal(t, s)
	}
}

func isEquivalent(a, b typesystem.Type, proper bool) bool {
	return isSubtype(a, b, proper) && isSubtype(b, a, proper)
}

func isSubtype(left, right typesystem.Type, proper bool) bool {
	switch r := right.(type) {
	case typesystem.AnyType:
		if !proper {
			return true
		}
		_, ok := left.(typesystem.AnyType)
		return ok
	case typesystem.UnboundType:
		if !proper {
			return true
		}
		return typesystem.Equal(left, r)
	}

	switch l := left.(type) {
	case typesystem.AnyType, typesystem.UnboundType:
		return !proper
	case typesystem.Void:
		_, ok := right.(typesystem.Void)
		return ok
	case typesystem.NoneType:
		switch right.(type) {
		case typesystem.Void, typesystem.ErrorType:
			return false
		}
		return true
	case typesystem.ErrorType:
		_, ok := right.(typesystem.ErrorType)
		return ok
	case typesystem.TypeVar:
		if r, ok := right.(typesystem.TypeVar); ok {
			return l.ID == r.ID
		}
		return isClass(right, config.ObjectClassName)
	case typesystem.Instance:
		r, ok := right.(typesystem.Instance)
		if !ok {
			return false
		}
		return isInstanceSubtype(l, r, proper)
	case typesystem.TupleType:
		if r, ok := right.(typesystem.TupleType); ok {
			return len(l.Items) == len(r.Items) && allSubtypes(l.Items, r.Items, proper)
		}
		return isClass(right, config.ObjectClassName)
	case typesystem.Callable:
		switch r := right.(type) {
		case typesystem.Callable:
			return isCallableSubtype(l, r, proper)
		case typesystem.Instance:
			if isClass(r, config.ObjectClassName) {
				return true
			}
			return l.IsTypeObj && isClass(r, config.TypeClassName)
		}
		return false
	default:
		return false
	}
}

func isInstanceSubtype(left, right typesystem.Instance, proper bool) bool {
	mapped, ok := typesystem.MapInstanceToSupertype(left, right.Class)
	if !ok {
		return false
	}
	want := right.Args
	if len(want) < len(mapped.Args) {
		want = padAny(want, len(mapped.Args))
	}
	for i, arg := range mapped.Args {
		if !isEquivalent(arg, want[i], proper) {
			return false
		}
	}
	return true
}

func isCallableSubtype(left, right typesystem.Callable, proper bool) bool {
	if len(left.ArgTypes) != len(right.ArgTypes) || !typesystem.SameArgKinds(left.ArgKinds, right.ArgKinds) {
		return false
	}
	// arguments are contravariant
	if !allSubtypes(right.ArgTypes, left.ArgTypes, proper) {
		return false
	}
	return isSubtype(retOf(left), retOf(right), proper)
}

func allSubtypes(left, right []typesystem.Type, proper bool) bool {
	for i := range left {
		if !isSubtype(left[i], right[i], proper) {
			return false
		}
	}
	return true
}

// isClass reports whether t is an instance of the class with the given
// qualified name.
func isClass(t typesystem.Type, name string) bool {
	inst, ok := t.(typesystem.Instance)
	return ok && inst.Class != nil && inst.Class.Name == name
}

func retOf(c typesystem.Callable) typesystem.Type {
	if c.Ret == nil {
		return typesystem.Void{}
	}
	return c.Ret
}

func padAny(args []typesystem.Type, n int) []typesystem.Type {
	out := make([]typesystem.Type, n)
	copy(out, args)
	for i := len(args); i < n; i++ {
		out[i] = typesystem.AnyType{}
	}
	return out
}
