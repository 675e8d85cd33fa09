package lattice

import "github.com/funvibe/typelattice/internal/typesystem"

// Erase returns the runtime-visible shape of t: instances lose their type
// arguments, tuples become the erased tuple class and callables collapse to
// a single representative signature.
func Erase(t typesystem.Type, basic typesystem.BasicTypes) typesystem.Type {
	switch t := t.(type) {
	case typesystem.Instance:
		args := make([]typesystem.Type, len(t.Args))
		for i := range args {
			args[i] = typesystem.AnyType{}
		}
		return typesystem.Instance{Class: t.Class, Args: args}
	case typesystem.TypeVar, typesystem.UnboundType:
		return typesystem.AnyType{}
	case typesystem.TupleType:
		return Erase(basic.Tuple, basic)
	case typesystem.Callable:
		return typesystem.Callable{Ret: typesystem.Void{}, IsTypeObj: t.IsTypeObj}
	default:
		return t
	}
}
