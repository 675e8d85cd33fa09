package lattice

import (
	"github.com/funvibe/typelattice/internal/config"
	"github.com/funvibe/typelattice/internal/typesystem"
)

// Join returns the least upper bound of s and t. The result is independent
// of argument order.
func Join(s, t typesystem.Type, basic typesystem.BasicTypes) typesystem.Type {
	if isError(s) || isError(t) {
		if isAny(s) || isAny(t) {
			return typesystem.AnyType{}
		}
		return typesystem.ErrorType{}
	}
	if isVoid(s) || isVoid(t) {
		switch {
		case isVoid(s) && isVoid(t):
			return typesystem.Void{}
		case isAny(s) || isAny(t):
			return typesystem.AnyType{}
		default:
			return typesystem.ErrorType{}
		}
	}
	if isAny(s) || isAny(t) {
		return typesystem.AnyType{}
	}
	if _, ok := s.(typesystem.NoneType); ok {
		return t
	}
	if _, ok := t.(typesystem.NoneType); ok {
		return s
	}
	if isUnbound(s) || isUnbound(t) {
		return typesystem.AnyType{}
	}
	if typesystem.Equal(s, t) {
		return s
	}

	switch s := s.(type) {
	case typesystem.TupleType:
		if t, ok := t.(typesystem.TupleType); ok && len(s.Items) == len(t.Items) {
			items := make([]typesystem.Type, len(s.Items))
			for i := range s.Items {
				items[i] = Join(s.Items[i], t.Items[i], basic)
			}
			return typesystem.TupleType{Items: items}
		}
	case typesystem.Callable:
		return joinCallable(s, t, basic)
	case typesystem.Instance:
		switch t := t.(type) {
		case typesystem.Instance:
			return joinInstances(s, t, basic)
		case typesystem.Callable:
			return joinCallable(t, s, basic)
		}
	}
	return basic.Object
}

// joinCallable joins a callable with any other non-special type.
func joinCallable(s typesystem.Callable, other typesystem.Type, basic typesystem.BasicTypes) typesystem.Type {
	switch t := other.(type) {
	case typesystem.Callable:
		if s.IsTypeObj && t.IsTypeObj {
			return basic.Type
		}
		if isSimilarCallables(s, t) {
			return combineCallables(s, t, Meet, Join, basic)
		}
	case typesystem.Instance:
		if s.IsTypeObj && isClass(t, config.TypeClassName) {
			return basic.Type
		}
	}
	return basic.Object
}

// joinInstances searches the common ancestors of s and t for the minimal
// ones both sides agree on. Several incomparable minimal ancestors make the
// join ambiguous.
func joinInstances(s, t typesystem.Instance, basic typesystem.BasicTypes) typesystem.Type {
	if s.Class == nil || t.Class == nil {
		return basic.Object
	}
	var candidates []typesystem.Instance
	for _, c := range ancestors(s.Class) {
		if !t.Class.HasBase(c) {
			continue
		}
		ms, ok1 := typesystem.MapInstanceToSupertype(s, c)
		mt, ok2 := typesystem.MapInstanceToSupertype(t, c)
		if !ok1 || !ok2 || !equivalentArgs(ms.Args, mt.Args) {
			continue
		}
		args := make([]typesystem.Type, len(ms.Args))
		for i := range ms.Args {
			args[i] = Join(ms.Args[i], mt.Args[i], basic)
		}
		candidates = append(candidates, typesystem.Instance{Class: c, Args: args})
	}

	var minimal []typesystem.Instance
	for i, c := range candidates {
		dominated := false
		for j, d := range candidates {
			if i != j && d.Class != c.Class && d.Class.HasBase(c.Class) {
				dominated = true
				break
			}
		}
		if !dominated {
			minimal = append(minimal, c)
		}
	}
	switch len(minimal) {
	case 0:
		return basic.Object
	case 1:
		return minimal[0]
	default:
		return typesystem.ErrorType{}
	}
}

// ancestors lists c and its ancestors, in MRO order when c is linearized.
func ancestors(c *typesystem.ClassInfo) []*typesystem.ClassInfo {
	if c.MRO != nil {
		return c.MRO
	}
	var out []*typesystem.ClassInfo
	seen := map[*typesystem.ClassInfo]bool{}
	var walk func(*typesystem.ClassInfo)
	walk = func(c *typesystem.ClassInfo) {
		if c == nil || seen[c] {
			return
		}
		seen[c] = true
		out = append(out, c)
		for _, b := range c.Bases {
			walk(b.Class)
		}
	}
	walk(c)
	return out
}

func equivalentArgs(a, b []typesystem.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !IsEquivalent(a[i], b[i]) {
			return false
		}
	}
	return true
}

func isSimilarCallables(s, t typesystem.Callable) bool {
	return len(s.ArgTypes) == len(t.ArgTypes) &&
		typesystem.SameArgKinds(s.ArgKinds, t.ArgKinds) &&
		s.IsTypeObj == t.IsTypeObj
}

type binaryOp func(a, b typesystem.Type, basic typesystem.BasicTypes) typesystem.Type

// combineCallables merges two similar callables, applying argOp to each
// argument pair and retOp to the returns. Default placeholders survive only
// when both sides agree on them.
func combineCallables(s, t typesystem.Callable, argOp, retOp binaryOp, basic typesystem.BasicTypes) typesystem.Callable {
	args := make([]typesystem.Type, len(s.ArgTypes))
	for i := range s.ArgTypes {
		args[i] = argOp(s.ArgTypes[i], t.ArgTypes[i], basic)
	}
	return typesystem.Callable{
		ArgTypes:  args,
		ArgKinds:  s.ArgKinds,
		Defaults:  commonDefaults(s.Defaults, t.Defaults),
		Ret:       retOp(retOf(s), retOf(t), basic),
		IsTypeObj: s.IsTypeObj,
	}
}

func commonDefaults(a, b []string) []string {
	if len(a) != len(b) {
		return nil
	}
	for i := range a {
		if a[i] != b[i] {
			return nil
		}
	}
	return a
}

func isAny(t typesystem.Type) bool {
	_, ok := t.(typesystem.AnyType)
	return ok
}

func isVoid(t typesystem.Type) bool {
	_, ok := t.(typesystem.Void)
	return ok
}

func isError(t typesystem.Type) bool {
	_, ok := t.(typesystem.ErrorType)
	return ok
}

func isUnbound(t typesystem.Type) bool {
	_, ok := t.(typesystem.UnboundType)
	return ok
}
