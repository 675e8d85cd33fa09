package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/typelattice/internal/diagnostics"
	"github.com/funvibe/typelattice/internal/pipeline"
	"github.com/funvibe/typelattice/internal/typesystem"
)

func run(t *testing.T, source string) *pipeline.PipelineContext {
	t.Helper()
	ctx := pipeline.NewPipelineContext(source)
	ctx.FilePath = "cases.yaml"
	return pipeline.New(Processors()...).Run(ctx)
}

func codes(ctx *pipeline.PipelineContext) []diagnostics.ErrorCode {
	var out []diagnostics.ErrorCode
	for _, e := range ctx.Errors {
		out = append(out, e.Code)
	}
	return out
}

const passing = `
vars: [T, {name: U, values: [int, str]}]
classes:
  - {name: Animal}
  - {name: Dog, bases: [Animal]}
  - {name: Cat, bases: [Animal]}
  - {name: Box, params: [X], bases: [{name: typing.Iterable, args: [X]}]}
cases:
  - {op: join, left: Dog, right: Cat, want: Animal}
  - {op: meet, left: Dog, right: Animal, want: Dog}
  - {op: meet, left: Dog, right: Cat, want: None}
  - {op: subtype, left: bool, right: int, holds: true}
  - {op: subtype, left: {name: Box, args: [Dog]}, right: {name: typing.Iterable, args: [Dog]}, holds: true}
  - {op: proper_subtype, left: Dog, right: Any, holds: false}
  - {op: more_precise, left: Dog, right: Animal, holds: true}
  - {op: erase, left: {name: dict, args: [str, int]}, want: {name: dict, args: [Any, Any]}}
  - {op: expand, left: {name: Box, args: [T]}, bindings: {T: Dog}, want: {name: Box, args: [Dog]}}
  - {op: replace_vars, left: {kind: tuple, args: [T, int]}, want: {kind: tuple, args: [Any, int]}}
  - op: join
    left: {name: list, args: [int]}
    right: {name: typing.Iterator, args: [int]}
    want: {name: typing.Iterable, args: [int]}
  - op: join
    left: {kind: callable, args: [Animal], return: Dog}
    right: {kind: callable, args: [Dog], return: Cat}
    want: {kind: callable, args: [Dog], return: Animal}
  - op: erase
    left: {kind: callable, variables: [V], args: [V], return: V}
    want: {kind: callable}
`

func TestEvaluatePassingFile(t *testing.T) {
	ctx := run(t, passing)

	require.Empty(t, ctx.Errors)
	require.Len(t, ctx.Results, 13)
	for _, r := range ctx.Results {
		assert.True(t, r.Passed, "case %d %s: got %s, want %s", r.Index, r.Label, r.Got, r.Want)
	}
	assert.True(t, ctx.Passed())

	assert.Equal(t, "join(Dog, Cat)", ctx.Results[0].Label)
	assert.Equal(t, "Animal", ctx.Results[0].Got)
	assert.Equal(t, "true", ctx.Results[3].Got)

	u, ok := ctx.Table.LookupClass("Box")
	require.True(t, ok)
	assert.Equal(t, "Box", u.Name)
}

func TestEvaluateFailures(t *testing.T) {
	ctx := run(t, `
vars: [T, U]
cases:
  - {op: join, left: bool, right: int, want: bool}
  - {op: widen, left: int, want: int}
  - {op: join, left: int, want: int}
  - {op: erase, left: {name: list, args: [int, int]}, want: list}
  - {op: subtype, left: int, right: int}
  - {op: expand, left: T, bindings: {T: {name: list, args: [U]}, U: T}, want: T}
  - {op: subtype, left: int, right: object, holds: true}
`)

	assert.Equal(t, []diagnostics.ErrorCode{
		diagnostics.ErrR002, diagnostics.ErrR003, diagnostics.ErrR001, diagnostics.ErrR003,
		diagnostics.ErrE001, diagnostics.ErrE003,
	}, codes(ctx))
	assert.False(t, ctx.Passed())

	require.Len(t, ctx.Results, 3)
	assert.Equal(t, 1, ctx.Results[0].Index)
	assert.False(t, ctx.Results[0].Passed)
	assert.Equal(t, "builtins.int", ctx.Results[0].Got)
	assert.Equal(t, 6, ctx.Results[1].Index)
	assert.False(t, ctx.Results[1].Passed)
	assert.Contains(t, ctx.Results[1].Got, "cyclic binding")
	assert.True(t, ctx.Results[2].Passed)

	for _, e := range ctx.Errors {
		assert.Equal(t, "cases.yaml", e.File)
		assert.Positive(t, e.Line)
	}
	assert.Contains(t, ctx.Errors[4].Error(), "join(bool, int): got builtins.int, want builtins.bool")
}

func TestEvaluateFileErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   diagnostics.ErrorCode
	}{
		{"malformed yaml", "cases: [", diagnostics.ErrD001},
		{"duplicate class", "classes: [{name: builtins.int}]\ncases: []", diagnostics.ErrD002},
		{"unknown base", "classes: [{name: X, bases: [Nope]}]\ncases: []", diagnostics.ErrD002},
		{"duplicate variable", "vars: [T, T]\ncases: []", diagnostics.ErrR004},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := run(t, tt.source)
			assert.Equal(t, []diagnostics.ErrorCode{tt.want}, codes(ctx))
			assert.Empty(t, ctx.Results)
		})
	}
}

func TestResolveUsesExtraDeclarations(t *testing.T) {
	ctx := pipeline.NewPipelineContext("cases: [{op: subtype, left: bool, right: object, holds: true}]")
	ctx = pipeline.New(Processors("does-not-exist.yaml")...).Run(ctx)
	assert.Equal(t, []diagnostics.ErrorCode{diagnostics.ErrD002}, codes(ctx))
}

func TestSameType(t *testing.T) {
	arena := typesystem.NewScopeArena()
	generic := func() typesystem.Callable {
		v := typesystem.TypeVarDef{Name: "V", ID: typesystem.TypeVarID{Scope: arena.New("def"), Index: -1}}
		return typesystem.Callable{
			ArgTypes:  []typesystem.Type{v.Ref()},
			ArgKinds:  []typesystem.ArgKind{typesystem.ArgPos},
			Ret:       v.Ref(),
			Variables: []typesystem.TypeVarDef{v},
		}
	}
	t1 := typesystem.TypeVar{Name: "T", ID: typesystem.TypeVarID{Scope: arena.New("a"), Index: 1}}
	t2 := typesystem.TypeVar{Name: "T", ID: typesystem.TypeVarID{Scope: arena.New("b"), Index: 1}}
	f, g := generic(), generic()
	plain := typesystem.Callable{ArgTypes: []typesystem.Type{t1}, ArgKinds: []typesystem.ArgKind{typesystem.ArgPos}, Ret: t1}

	tests := []struct {
		name      string
		got, want typesystem.Type
		same      bool
	}{
		{"identical", t1, t1, true},
		{"variables from different scopes", t1, t2, false},
		{"generic callables from different scopes", f, g, true},
		{"generic against plain callable", f, plain, false},
		{"tuples of same-named variables", typesystem.TupleType{Items: []typesystem.Type{t1}}, typesystem.TupleType{Items: []typesystem.Type{t2}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.same, sameType(tt.got, tt.want))
		})
	}
}
