package typespec

import (
	"errors"
	"fmt"

	"github.com/funvibe/typelattice/internal/config"
	"github.com/funvibe/typelattice/internal/typesystem"
)

// ErrInvalidSpec is wrapped by every error Resolve returns.
var ErrInvalidSpec = errors.New("invalid type spec")

// Resolver looks up the names a spec refers to.
type Resolver interface {
	LookupClass(name string) (*typesystem.ClassInfo, bool)
	LookupTypeVar(name string) (typesystem.TypeVarDef, bool)
	// NewScope allocates a scope for type variables bound by a callable.
	NewScope(name string) typesystem.Scope
}

type scopedResolver struct {
	Resolver
	vars map[string]typesystem.TypeVarDef
}

// WithTypeVars layers type variable definitions over r. The layered
// variables shadow those of r.
func WithTypeVars(r Resolver, defs []typesystem.TypeVarDef) Resolver {
	if len(defs) == 0 {
		return r
	}
	vars := make(map[string]typesystem.TypeVarDef, len(defs))
	for _, d := range defs {
		vars[d.Name] = d
	}
	return &scopedResolver{Resolver: r, vars: vars}
}

func (r *scopedResolver) LookupTypeVar(name string) (typesystem.TypeVarDef, bool) {
	if d, ok := r.vars[name]; ok {
		return d, true
	}
	return r.Resolver.LookupTypeVar(name)
}

// DeclareVars resolves variable declarations into definitions of a fresh
// scope, numbered 1, 2, ... in order. Values are resolved against r.
func DeclareVars(r Resolver, scopeName string, specs []VarSpec) ([]typesystem.TypeVarDef, error) {
	return declareVars(r, scopeName, specs, 1)
}

func declareVars(r Resolver, scopeName string, specs []VarSpec, step int) ([]typesystem.TypeVarDef, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	scope := r.NewScope(scopeName)
	defs := make([]typesystem.TypeVarDef, len(specs))
	seen := make(map[string]bool, len(specs))
	for i, v := range specs {
		if v.Name == "" {
			return nil, fmt.Errorf("%w: type variable without a name", ErrInvalidSpec)
		}
		if seen[v.Name] {
			return nil, fmt.Errorf("%w: type variable %s declared twice", ErrInvalidSpec, v.Name)
		}
		seen[v.Name] = true
		values, err := resolveAll(v.Values, r)
		if err != nil {
			return nil, err
		}
		defs[i] = typesystem.TypeVarDef{
			Name:   v.Name,
			ID:     typesystem.TypeVarID{Scope: scope, Index: (i + 1) * step},
			Values: values,
		}
	}
	return defs, nil
}

// Resolve builds the type a spec describes. A bare name resolves to a
// keyword, then a type variable in scope, then a class; any other name
// becomes an unbound type.
func Resolve(s Spec, r Resolver) (typesystem.Type, error) {
	switch s.Kind {
	case KindName:
		return resolveName(s, r)
	case KindTuple:
		items, err := resolveAll(s.Args, r)
		if err != nil {
			return nil, err
		}
		return typesystem.TupleType{Items: items}, nil
	case KindUnbound:
		if s.Name == "" {
			return nil, fmt.Errorf("%w: unbound type without a name", ErrInvalidSpec)
		}
		args, err := resolveAll(s.Args, r)
		if err != nil {
			return nil, err
		}
		return typesystem.UnboundType{Name: s.Name, Args: args}, nil
	case KindVar:
		if s.Name != "" {
			if d, ok := r.LookupTypeVar(s.Name); ok {
				return d.Ref(), nil
			}
		}
		if s.Index != 0 {
			return typesystem.TypeVar{Name: s.Name, ID: typesystem.TypeVarID{Index: s.Index}}, nil
		}
		return nil, fmt.Errorf("%w: type variable %q is not in scope", ErrInvalidSpec, s.Name)
	case KindCallable:
		return resolveCallable(s, r)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidSpec, s.Kind)
	}
}

func resolveName(s Spec, r Resolver) (typesystem.Type, error) {
	if s.Name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidSpec)
	}
	if t, ok := keyword(s.Name); ok {
		if len(s.Args) > 0 {
			return nil, fmt.Errorf("%w: %s takes no type arguments", ErrInvalidSpec, s.Name)
		}
		return t, nil
	}
	if d, ok := r.LookupTypeVar(s.Name); ok {
		if len(s.Args) > 0 {
			return nil, fmt.Errorf("%w: type variable %s takes no type arguments", ErrInvalidSpec, s.Name)
		}
		return d.Ref(), nil
	}
	args, err := resolveAll(s.Args, r)
	if err != nil {
		return nil, err
	}
	c, ok := r.LookupClass(s.Name)
	if !ok {
		return typesystem.UnboundType{Name: s.Name, Args: args}, nil
	}
	switch {
	case len(args) == len(c.TypeParams):
	case len(args) == 0:
		args = make([]typesystem.Type, len(c.TypeParams))
		for i := range args {
			args[i] = typesystem.AnyType{}
		}
	default:
		return nil, fmt.Errorf("%w: %s expects %d type argument(s), got %d", ErrInvalidSpec, c.Name, len(c.TypeParams), len(args))
	}
	return typesystem.Instance{Class: c, Args: args}, nil
}

func keyword(name string) (typesystem.Type, bool) {
	switch name {
	case config.AnyKeyword:
		return typesystem.AnyType{}, true
	case config.VoidKeyword:
		return typesystem.Void{}, true
	case config.NoneKeyword:
		return typesystem.NoneType{}, true
	case config.ErrorKeyword:
		return typesystem.ErrorType{}, true
	}
	return nil, false
}

func resolveCallable(s Spec, r Resolver) (typesystem.Type, error) {
	kinds, err := parseArgKinds(s.ArgKinds, len(s.Args))
	if err != nil {
		return nil, err
	}
	vars, err := declareVars(r, "def", s.Variables, -1)
	if err != nil {
		return nil, err
	}
	inner := WithTypeVars(r, vars)

	args, err := resolveAll(s.Args, inner)
	if err != nil {
		return nil, err
	}
	var ret typesystem.Type = typesystem.Void{}
	if s.Return != nil {
		if ret, err = Resolve(*s.Return, inner); err != nil {
			return nil, err
		}
	}
	return typesystem.Callable{
		ArgTypes:  args,
		ArgKinds:  kinds,
		Defaults:  make([]string, len(args)),
		Ret:       ret,
		IsTypeObj: s.TypeObject,
		Variables: vars,
	}, nil
}

func parseArgKinds(names []string, n int) ([]typesystem.ArgKind, error) {
	kinds := make([]typesystem.ArgKind, n)
	if len(names) == 0 {
		return kinds, nil
	}
	if len(names) != n {
		return nil, fmt.Errorf("%w: %d argument kinds for %d arguments", ErrInvalidSpec, len(names), n)
	}
	for i, name := range names {
		switch name {
		case "pos":
			if i > 0 && kinds[i-1] != typesystem.ArgPos {
				return nil, fmt.Errorf("%w: positional argument after %s argument", ErrInvalidSpec, kinds[i-1])
			}
			kinds[i] = typesystem.ArgPos
		case "opt":
			if i > 0 && kinds[i-1] == typesystem.ArgStar {
				return nil, fmt.Errorf("%w: optional argument after star argument", ErrInvalidSpec)
			}
			kinds[i] = typesystem.ArgOpt
		case "star":
			if i != n-1 {
				return nil, fmt.Errorf("%w: star argument must be last", ErrInvalidSpec)
			}
			kinds[i] = typesystem.ArgStar
		default:
			return nil, fmt.Errorf("%w: unknown argument kind %q", ErrInvalidSpec, name)
		}
	}
	return kinds, nil
}

func resolveAll(specs []Spec, r Resolver) ([]typesystem.Type, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out := make([]typesystem.Type, len(specs))
	for i, s := range specs {
		t, err := Resolve(s, r)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
