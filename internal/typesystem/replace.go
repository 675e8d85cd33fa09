package typesystem

// Bindings maps type variable IDs to the types they stand for.
type Bindings map[TypeVarID]Type

// Expand replaces every type variable bound in b with its binding. Variables
// not in b are kept. The substitution is a single pass: a replacement is
// inserted as-is and is not expanded again.
func Expand(t Type, b Bindings) Type {
	if len(b) == 0 {
		return t
	}
	return mapTypeVars(t, func(v TypeVar) Type {
		if r, ok := b[v.ID]; ok {
			return r
		}
		return v
	})
}

// ReplaceTypeVars replaces every type variable reference with Any.
func ReplaceTypeVars(t Type) Type {
	return mapTypeVars(t, func(TypeVar) Type { return AnyType{} })
}

// CheckAcyclic reports a *CyclicBindingError when a bound variable can reach
// itself through the bindings.
func (b Bindings) CheckAcyclic() error {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[TypeVarID]int, len(b))
	var visit func(id TypeVarID) error
	visit = func(id TypeVarID) error {
		switch state[id] {
		case active:
			return &CyclicBindingError{Var: id}
		case done:
			return nil
		}
		state[id] = active
		for _, v := range FreeTypeVars(b[id]) {
			if _, bound := b[v.ID]; !bound {
				continue
			}
			if err := visit(v.ID); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}
	for id := range b {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

// FreeTypeVars lists the distinct type variables referenced by t, in order
// of first occurrence.
func FreeTypeVars(t Type) []TypeVar {
	var vars []TypeVar
	seen := map[TypeVarID]bool{}
	mapTypeVars(t, func(v TypeVar) Type {
		if !seen[v.ID] {
			seen[v.ID] = true
			vars = append(vars, v)
		}
		return v
	})
	return vars
}

// mapTypeVars rebuilds t with every TypeVar replaced by fn(v).
func mapTypeVars(t Type, fn func(TypeVar) Type) Type {
	if t == nil {
		return nil
	}
	switch typ := t.(type) {
	case TypeVar:
		return fn(typ)
	case Instance:
		return Instance{Class: typ.Class, Args: mapAll(typ.Args, fn)}
	case UnboundType:
		return UnboundType{Name: typ.Name, Args: mapAll(typ.Args, fn)}
	case TupleType:
		return TupleType{Items: mapAll(typ.Items, fn)}
	case Callable:
		return Callable{
			ArgTypes:  mapAll(typ.ArgTypes, fn),
			ArgKinds:  typ.ArgKinds,
			Defaults:  typ.Defaults,
			Ret:       mapTypeVars(typ.Ret, fn),
			IsTypeObj: typ.IsTypeObj,
			Name:      typ.Name,
			Variables: typ.Variables,
		}
	default:
		return t
	}
}

func mapAll(ts []Type, fn func(TypeVar) Type) []Type {
	if ts == nil {
		return nil
	}
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = mapTypeVars(t, fn)
	}
	return out
}
