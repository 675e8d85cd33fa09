package typesystem_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	ts "github.com/funvibe/typelattice/internal/typesystem"
)

func TestTypeString(t *testing.T) {
	x := ts.UnboundType{Name: "X"}
	y := ts.UnboundType{Name: "Y"}
	pos, opt, star := ts.ArgPos, ts.ArgOpt, ts.ArgStar

	tests := []struct {
		name string
		typ  ts.Type
		want string
	}{
		{"any", ts.AnyType{}, "Any"},
		{"void", ts.Void{}, "void"},
		{"none", ts.NoneType{}, "None"},
		{"error", ts.ErrorType{}, "<ERROR>"},
		{"simple unbound", ts.UnboundType{Name: "Foo"}, "Foo?"},
		{"generic unbound", ts.UnboundType{Name: "Foo", Args: []ts.Type{ts.UnboundType{Name: "T"}, ts.AnyType{}}}, "Foo?[T?, Any]"},
		{"callable", ts.Callable{ArgTypes: []ts.Type{x, y}, ArgKinds: []ts.ArgKind{pos, pos}, Ret: ts.AnyType{}}, "def (X?, Y?) -> Any"},
		{"callable void", ts.Callable{Ret: ts.Void{}}, "def ()"},
		{"default arg", ts.Callable{ArgTypes: []ts.Type{x, y}, ArgKinds: []ts.ArgKind{pos, opt}, Ret: ts.AnyType{}}, "def (X?, Y? =) -> Any"},
		{"all default args", ts.Callable{ArgTypes: []ts.Type{x, y}, ArgKinds: []ts.ArgKind{opt, opt}, Ret: ts.AnyType{}}, "def (X? =, Y? =) -> Any"},
		{"star arg", ts.Callable{ArgTypes: []ts.Type{x}, ArgKinds: []ts.ArgKind{star}, Ret: ts.AnyType{}}, "def (*X?) -> Any"},
		{"pos and star", ts.Callable{ArgTypes: []ts.Type{x, y}, ArgKinds: []ts.ArgKind{pos, star}, Ret: ts.AnyType{}}, "def (X?, *Y?) -> Any"},
		{"opt and star", ts.Callable{ArgTypes: []ts.Type{x, y}, ArgKinds: []ts.ArgKind{opt, star}, Ret: ts.AnyType{}}, "def (X? =, *Y?) -> Any"},
		{"empty tuple", ts.TupleType{}, "Tuple[]"},
		{"tuple", ts.TupleType{Items: []ts.Type{x}}, "Tuple[X?]"},
		{"tuple with any", ts.TupleType{Items: []ts.Type{x, ts.AnyType{}}}, "Tuple[X?, Any]"},
		{
			"generic function",
			ts.Callable{
				ArgTypes:  []ts.Type{x, y},
				ArgKinds:  []ts.ArgKind{pos, pos},
				Ret:       y,
				Variables: []ts.TypeVarDef{{Name: "X", ID: ts.TypeVarID{Index: -1}}},
			},
			"def [X] (X?, Y?) -> Y?",
		},
		{
			"generic function without args",
			ts.Callable{
				Ret: ts.Void{},
				Variables: []ts.TypeVarDef{
					{Name: "Y", ID: ts.TypeVarID{Index: -1}},
					{Name: "X", ID: ts.TypeVarID{Index: -2}},
				},
			},
			"def [Y, X] ()",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.String())
		})
	}
}

func TestTypeVarDefString(t *testing.T) {
	x := ts.UnboundType{Name: "X"}
	y := ts.UnboundType{Name: "Y"}

	assert.Equal(t, "X", ts.TypeVarDef{Name: "X", ID: ts.TypeVarID{Index: 1}}.String())
	assert.Equal(t, "X in (X?, Y?)", ts.TypeVarDef{Name: "X", ID: ts.TypeVarID{Index: 1}, Values: []ts.Type{x, y}}.String())
}

func TestCallableArity(t *testing.T) {
	c := ts.Callable{
		ArgTypes: []ts.Type{ts.AnyType{}, ts.AnyType{}, ts.AnyType{}},
		ArgKinds: []ts.ArgKind{ts.ArgPos, ts.ArgOpt, ts.ArgStar},
		Ret:      ts.Void{},
	}
	assert.Equal(t, 1, c.MinArgs())
	assert.True(t, c.IsVarArg())

	plain := ts.Callable{ArgTypes: []ts.Type{ts.AnyType{}}, ArgKinds: []ts.ArgKind{ts.ArgPos}}
	assert.Equal(t, 1, plain.MinArgs())
	assert.False(t, plain.IsVarArg())
}

func TestScopeArena(t *testing.T) {
	arena := ts.NewScopeArena()
	a := arena.New("A")
	b := arena.New("B")

	assert.NotEqual(t, ts.NoScope, a)
	assert.NotEqual(t, a, b)
	assert.Equal(t, "A", arena.Name(a))
	assert.Equal(t, "B", arena.Name(b))
	assert.Equal(t, "", arena.Name(ts.NoScope))
	assert.Equal(t, 2, arena.Len())

	// same name, different scope: distinct variables
	ta := ts.TypeVar{Name: "T", ID: ts.TypeVarID{Scope: a, Index: 1}}
	tb := ts.TypeVar{Name: "T", ID: ts.TypeVarID{Scope: b, Index: 1}}
	assert.False(t, ts.Equal(ta, tb))
	assert.Equal(t, ta.String(), tb.String())
}

func TestScopeArenaChild(t *testing.T) {
	arena := ts.NewScopeArena()
	module := arena.New("module")

	child := arena.Child()
	a := child.New("request")
	b := child.New("def")
	other := arena.Child().New("request")

	assert.Equal(t, ts.Scope(2), a)
	assert.Equal(t, ts.Scope(3), b)
	assert.Equal(t, "module", child.Name(module))
	assert.Equal(t, "def", child.Name(b))
	assert.Equal(t, "", child.Name(ts.Scope(4)))
	assert.Equal(t, 3, child.Len())

	// the parent never sees what its children allocate
	assert.Equal(t, 1, arena.Len())
	assert.Equal(t, "", arena.Name(a))
	assert.Equal(t, a, other)
}
