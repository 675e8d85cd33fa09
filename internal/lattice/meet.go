package lattice

import (
	"github.com/funvibe/typelattice/internal/config"
	"github.com/funvibe/typelattice/internal/typesystem"
)

// Meet returns the greatest lower bound of s and t. Unlike Join, an Error
// operand wins even against Any.
func Meet(s, t typesystem.Type, basic typesystem.BasicTypes) typesystem.Type {
	if isError(s) || isError(t) {
		return typesystem.ErrorType{}
	}
	if isVoid(s) || isVoid(t) {
		if (isVoid(s) || isAny(s)) && (isVoid(t) || isAny(t)) {
			return typesystem.Void{}
		}
		return typesystem.ErrorType{}
	}
	if isAny(s) {
		return t
	}
	if isAny(t) {
		return s
	}
	if isNone(s) || isNone(t) {
		return typesystem.NoneType{}
	}
	if isUnbound(s) || isUnbound(t) {
		return typesystem.AnyType{}
	}
	if typesystem.Equal(s, t) {
		return s
	}

	switch s := s.(type) {
	case typesystem.TupleType:
		if t, ok := t.(typesystem.TupleType); ok {
			if len(s.Items) != len(t.Items) {
				return typesystem.NoneType{}
			}
			items := make([]typesystem.Type, len(s.Items))
			for i := range s.Items {
				items[i] = Meet(s.Items[i], t.Items[i], basic)
			}
			return typesystem.TupleType{Items: items}
		}
	case typesystem.Callable:
		if t, ok := t.(typesystem.Callable); ok {
			if !isSimilarCallables(s, t) {
				return typesystem.NoneType{}
			}
			return combineCallables(s, t, Join, Meet, basic)
		}
	case typesystem.Instance:
		if t, ok := t.(typesystem.Instance); ok {
			return meetInstances(s, t, basic)
		}
	}
	return meetStructural(s, t)
}

func meetInstances(s, t typesystem.Instance, basic typesystem.BasicTypes) typesystem.Type {
	if s.Class != nil && s.Class == t.Class {
		if !IsSubtype(s, t) && !IsSubtype(t, s) {
			return typesystem.NoneType{}
		}
		sargs := padAny(s.Args, len(s.Class.TypeParams))
		targs := padAny(t.Args, len(t.Class.TypeParams))
		args := make([]typesystem.Type, len(sargs))
		for i := range sargs {
			args[i] = Meet(sargs[i], targs[i], basic)
		}
		return typesystem.Instance{Class: s.Class, Args: args}
	}
	switch {
	case IsSubtype(s, t):
		return s
	case IsSubtype(t, s):
		return t
	default:
		return typesystem.NoneType{}
	}
}

// meetStructural handles a structural type against a nominal one: object
// is above every structural type and type is above every type object.
func meetStructural(s, t typesystem.Type) typesystem.Type {
	if r, ok := structuralBelow(s, t); ok {
		return r
	}
	if r, ok := structuralBelow(t, s); ok {
		return r
	}
	return typesystem.NoneType{}
}

func structuralBelow(structural, nominal typesystem.Type) (typesystem.Type, bool) {
	switch st := structural.(type) {
	case typesystem.TupleType, typesystem.TypeVar:
		return structural, isClass(nominal, config.ObjectClassName)
	case typesystem.Callable:
		if isClass(nominal, config.ObjectClassName) {
			return structural, true
		}
		return structural, st.IsTypeObj && isClass(nominal, config.TypeClassName)
	}
	return nil, false
}

func isNone(t typesystem.Type) bool {
	_, ok := t.(typesystem.NoneType)
	return ok
}
