package typesystem

// Equal reports whether two types are structurally identical. Classes are
// compared by identity, type variables by ID.
func Equal(a, b Type) bool {
	switch a := a.(type) {
	case AnyType:
		_, ok := b.(AnyType)
		return ok
	case Void:
		_, ok := b.(Void)
		return ok
	case NoneType:
		_, ok := b.(NoneType)
		return ok
	case ErrorType:
		_, ok := b.(ErrorType)
		return ok
	case UnboundType:
		o, ok := b.(UnboundType)
		return ok && a.Name == o.Name && equalAll(a.Args, o.Args)
	case TypeVar:
		o, ok := b.(TypeVar)
		return ok && a.ID == o.ID
	case Instance:
		o, ok := b.(Instance)
		return ok && a.Class == o.Class && equalAll(a.Args, o.Args)
	case TupleType:
		o, ok := b.(TupleType)
		return ok && equalAll(a.Items, o.Items)
	case Callable:
		o, ok := b.(Callable)
		if !ok || a.IsTypeObj != o.IsTypeObj || a.Name != o.Name {
			return false
		}
		if !equalAll(a.ArgTypes, o.ArgTypes) || !Equal(a.Ret, o.Ret) {
			return false
		}
		if !sameKinds(a.ArgKinds, o.ArgKinds) || !sameStrings(a.Defaults, o.Defaults) {
			return false
		}
		if len(a.Variables) != len(o.Variables) {
			return false
		}
		for i := range a.Variables {
			if a.Variables[i].ID != o.Variables[i].ID || !equalAll(a.Variables[i].Values, o.Variables[i].Values) {
				return false
			}
		}
		return true
	case nil:
		return b == nil
	default:
		return false
	}
}

func equalAll(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func sameKinds(a, b []ArgKind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SameArgKinds reports whether two kind sequences are identical.
func SameArgKinds(a, b []ArgKind) bool { return sameKinds(a, b) }

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		// nil and an all-empty placeholder list are the same thing
		return allEmpty(a) && allEmpty(b)
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func allEmpty(ss []string) bool {
	for _, s := range ss {
		if s != "" {
			return false
		}
	}
	return true
}
