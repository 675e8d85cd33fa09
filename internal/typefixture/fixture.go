// Package typefixture builds a small class hierarchy with ready-made types
// for exercising the lattice operations.
package typefixture

import (
	"github.com/funvibe/typelattice/internal/config"
	ts "github.com/funvibe/typelattice/internal/typesystem"
)

// Fixture holds the classes and instances used across lattice tests.
//
// Hierarchy:
//
//	object
//	  type, tuple, function
//	  A; B(A); C(A); D
//	  F; F2; F3(F); E(F); E2(F2, F); E3(F, F2)
//	  G[T]; G2[T]; H[S, T]; GS[T, S](G[S]); GS2[S](G[S])
type Fixture struct {
	Arena *ts.ScopeArena
	Basic ts.BasicTypes

	// Free type variables T (index 1) and S (index 2).
	T, S ts.TypeVar

	Any  ts.AnyType
	Void ts.Void
	None ts.NoneType
	Err  ts.ErrorType

	OI, TypeI, TupleI, FunctionI *ts.ClassInfo
	AI, BI, CI, DI               *ts.ClassInfo
	FI, F2I, F3I                 *ts.ClassInfo
	EI, E2I, E3I                 *ts.ClassInfo
	GI, G2I, HI, GSI, GS2I       *ts.ClassInfo

	O, TypeType, StdTuple, Function ts.Instance

	A, B, C, D     ts.Instance
	F, F2, F3      ts.Instance
	E, E2, E3      ts.Instance
	GA, GB, GT     ts.Instance
	GDyn, G2A      ts.Instance
	HAB, HAA, HBB  ts.Instance
	GSAB, GSBA     ts.Instance
	GS2A           ts.Instance
	classesInOrder []*ts.ClassInfo
}

// New builds and linearizes the fixture hierarchy.
func New() *Fixture {
	fx := &Fixture{Arena: ts.NewScopeArena()}
	free := fx.Arena.New("fixture")
	fx.T = ts.TypeVar{Name: "T", ID: ts.TypeVarID{Scope: free, Index: 1}}
	fx.S = ts.TypeVar{Name: "S", ID: ts.TypeVarID{Scope: free, Index: 2}}

	fx.OI = fx.class(config.ObjectClassName)
	o := ts.Instance{Class: fx.OI}
	fx.TypeI = fx.class(config.TypeClassName, o)
	fx.TupleI = fx.class(config.TupleClassName, o)
	fx.FunctionI = fx.class(config.FunctionClassName, o)

	fx.AI = fx.class("A", o)
	fx.BI = fx.class("B", ts.Instance{Class: fx.AI})
	fx.CI = fx.class("C", ts.Instance{Class: fx.AI})
	fx.DI = fx.class("D", o)

	fx.FI = fx.iface("F", o)
	fx.F2I = fx.iface("F2", o)
	fx.F3I = fx.iface("F3", ts.Instance{Class: fx.FI})
	fx.EI = fx.class("E", ts.Instance{Class: fx.FI})
	fx.E2I = fx.class("E2", ts.Instance{Class: fx.F2I}, ts.Instance{Class: fx.FI})
	fx.E3I = fx.class("E3", ts.Instance{Class: fx.FI}, ts.Instance{Class: fx.F2I})

	fx.GI = fx.generic("G", []string{"T"}, func(*ts.ClassInfo) []ts.Instance { return []ts.Instance{o} })
	fx.G2I = fx.generic("G2", []string{"T"}, func(*ts.ClassInfo) []ts.Instance { return []ts.Instance{o} })
	fx.HI = fx.generic("H", []string{"S", "T"}, func(*ts.ClassInfo) []ts.Instance { return []ts.Instance{o} })
	fx.GSI = fx.generic("GS", []string{"T", "S"}, func(c *ts.ClassInfo) []ts.Instance {
		return []ts.Instance{{Class: fx.GI, Args: []ts.Type{c.Param(1)}}}
	})
	fx.GS2I = fx.generic("GS2", []string{"S"}, func(c *ts.ClassInfo) []ts.Instance {
		return []ts.Instance{{Class: fx.GI, Args: []ts.Type{c.Param(0)}}}
	})

	for _, c := range fx.classesInOrder {
		if err := c.Linearize(); err != nil {
			panic(err)
		}
	}

	fx.O = o
	fx.TypeType = ts.Instance{Class: fx.TypeI}
	fx.StdTuple = ts.Instance{Class: fx.TupleI}
	fx.Function = ts.Instance{Class: fx.FunctionI}
	fx.Basic = ts.BasicTypes{Object: fx.O, Type: fx.TypeType, Tuple: fx.StdTuple, Function: fx.Function}

	fx.A = ts.Instance{Class: fx.AI}
	fx.B = ts.Instance{Class: fx.BI}
	fx.C = ts.Instance{Class: fx.CI}
	fx.D = ts.Instance{Class: fx.DI}
	fx.F = ts.Instance{Class: fx.FI}
	fx.F2 = ts.Instance{Class: fx.F2I}
	fx.F3 = ts.Instance{Class: fx.F3I}
	fx.E = ts.Instance{Class: fx.EI}
	fx.E2 = ts.Instance{Class: fx.E2I}
	fx.E3 = ts.Instance{Class: fx.E3I}

	fx.GA = fx.Inst(fx.GI, fx.A)
	fx.GB = fx.Inst(fx.GI, fx.B)
	fx.GT = fx.Inst(fx.GI, fx.T)
	fx.GDyn = fx.Inst(fx.GI, fx.Any)
	fx.G2A = fx.Inst(fx.G2I, fx.A)
	fx.HAB = fx.Inst(fx.HI, fx.A, fx.B)
	fx.HAA = fx.Inst(fx.HI, fx.A, fx.A)
	fx.HBB = fx.Inst(fx.HI, fx.B, fx.B)
	fx.GSAB = fx.Inst(fx.GSI, fx.A, fx.B)
	fx.GSBA = fx.Inst(fx.GSI, fx.B, fx.A)
	fx.GS2A = fx.Inst(fx.GS2I, fx.A)
	return fx
}

func (fx *Fixture) class(name string, bases ...ts.Instance) *ts.ClassInfo {
	c := ts.NewClassInfo(name, fx.Arena.New(name))
	c.Bases = bases
	fx.classesInOrder = append(fx.classesInOrder, c)
	return c
}

func (fx *Fixture) iface(name string, bases ...ts.Instance) *ts.ClassInfo {
	c := fx.class(name, bases...)
	c.IsAbstract = true
	return c
}

func (fx *Fixture) generic(name string, params []string, bases func(*ts.ClassInfo) []ts.Instance) *ts.ClassInfo {
	c := ts.NewClassInfo(name, fx.Arena.New(name), params...)
	c.Bases = bases(c)
	fx.classesInOrder = append(fx.classesInOrder, c)
	return c
}

// Classes returns every fixture class in declaration order.
func (fx *Fixture) Classes() []*ts.ClassInfo {
	return fx.classesInOrder
}

// Inst applies a class to type arguments.
func (fx *Fixture) Inst(c *ts.ClassInfo, args ...ts.Type) ts.Instance {
	return ts.Instance{Class: c, Args: args}
}

// Tuple builds a tuple type.
func (fx *Fixture) Tuple(items ...ts.Type) ts.TupleType {
	return ts.TupleType{Items: items}
}

// Callable builds def (a1, ..., an) -> r from Callable(a1, ..., an, r).
func (fx *Fixture) Callable(types ...ts.Type) ts.Callable {
	return makeCallable(types, false)
}

// CallableType is Callable for a type object.
func (fx *Fixture) CallableType(types ...ts.Type) ts.Callable {
	return makeCallable(types, true)
}

// CallableDefault builds a callable whose first min arguments are
// positional and the rest optional.
func (fx *Fixture) CallableDefault(min int, types ...ts.Type) ts.Callable {
	c := makeCallable(types, false)
	for i := min; i < len(c.ArgKinds); i++ {
		c.ArgKinds[i] = ts.ArgOpt
	}
	return c
}

// CallableVarArg builds a callable whose last argument is *args and whose
// arguments between min and the last are optional.
func (fx *Fixture) CallableVarArg(min int, types ...ts.Type) ts.Callable {
	c := fx.CallableDefault(min, types...)
	if n := len(c.ArgKinds); n > 0 {
		c.ArgKinds[n-1] = ts.ArgStar
	}
	return c
}

// GenericCallable is Callable with function-scoped type variables named vars,
// numbered -1, -2, ... in a fresh scope.
func (fx *Fixture) GenericCallable(vars []string, types ...ts.Type) ts.Callable {
	c := makeCallable(types, false)
	scope := fx.Arena.New("def")
	for i, v := range vars {
		c.Variables = append(c.Variables, ts.TypeVarDef{Name: v, ID: ts.TypeVarID{Scope: scope, Index: -(i + 1)}})
	}
	return c
}

func makeCallable(types []ts.Type, typeObj bool) ts.Callable {
	n := len(types) - 1
	kinds := make([]ts.ArgKind, n)
	for i := range kinds {
		kinds[i] = ts.ArgPos
	}
	return ts.Callable{
		ArgTypes:  append([]ts.Type(nil), types[:n]...),
		ArgKinds:  kinds,
		Defaults:  make([]string, n),
		Ret:       types[n],
		IsTypeObj: typeObj,
	}
}
