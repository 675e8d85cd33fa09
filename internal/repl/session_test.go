package repl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/typelattice/internal/symbols"
	"github.com/funvibe/typelattice/internal/typespec"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	table, err := symbols.NewPreludeTable()
	require.NoError(t, err)
	require.NoError(t, table.LoadDeclarations([]byte(`
classes:
  - {name: Animal}
  - {name: Dog, bases: [Animal]}
  - {name: Cat, bases: [Animal]}
`), "animals.yaml"))
	s, err := NewSession(table)
	require.NoError(t, err)
	return s
}

func TestEvalQueries(t *testing.T) {
	s := newSession(t)

	tests := []struct {
		line string
		want string
	}{
		{"", ""},
		{"join Dog, Cat", "Animal"},
		{"meet Dog, Cat", "None"},
		{"join bool, int", "builtins.int"},
		{"subtype Dog, Animal", "true"},
		{"proper_subtype Dog, Any", "false"},
		{"more_precise Dog, Any", "true"},
		{"join {name: list, args: [int]}, {name: typing.Iterator, args: [int]}", "typing.Iterable[builtins.int]"},
		{"erase {name: dict, args: [str, int]}", "builtins.dict[Any, Any]"},
		{"replace_vars {kind: tuple, args: [T, Dog]}", "Tuple[Any, Dog]"},
		{"  join Dog, Dog  ", "Dog"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := s.Eval(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalErrors(t *testing.T) {
	s := newSession(t)

	tests := []struct {
		line    string
		wantErr string
	}{
		{"widen Dog", "unknown operation"},
		{"join Dog", "takes 2 operand(s), got 1"},
		{"erase Dog, Cat", "takes 1 operand(s), got 2"},
		{"join Dog, {name: Dog, args: [Cat]}", typespec.ErrInvalidSpec.Error()},
		{"join Dog, Cat]", "invalid operands"},
		{"join Dog, Cat]]]", "unmatched ']' at column 14"},
		{"join Dog}, {name: Cat", "unmatched '}' at column 9"},
		{":mro int]", "invalid operands"},
		{":nope", "unknown command :nope"},
		{":mro Missing", "Missing"},
		{":bind {Nope: int}", "unknown type variable"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := s.Eval(tt.line)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	_, err := s.Eval("join {name: list, args: [int]")
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestVarsAndBindings(t *testing.T) {
	s := newSession(t)

	got, err := s.Eval(":vars")
	require.NoError(t, err)
	assert.Equal(t, "no type variables declared", got)

	got, err = s.Eval(":vars [X, {name: Y, values: [int, str]}]")
	require.NoError(t, err)
	assert.Equal(t, "X, Y in (builtins.int, builtins.str)", got)

	got, err = s.Eval(":vars")
	require.NoError(t, err)
	assert.Equal(t, "vars#1: X, Y in (builtins.int, builtins.str)", got)

	got, err = s.Eval(":bind {X: {name: list, args: [Y]}, Y: Dog}")
	require.NoError(t, err)
	assert.Equal(t, "2 binding(s)", got)

	got, err = s.Eval("expand {kind: tuple, args: [X, Y]}")
	require.NoError(t, err)
	// single pass: the replacement for X is not expanded again
	assert.Equal(t, "Tuple[builtins.list[Y], Dog]", got)

	// cyclic bindings are rejected at expansion
	_, err = s.Eval(":bind {X: {name: list, args: [Y]}, Y: X}")
	require.NoError(t, err)
	_, err = s.Eval("expand X")
	assert.ErrorContains(t, err, "cyclic binding")

	// redeclaring drops the bindings
	_, err = s.Eval(":vars [X]")
	require.NoError(t, err)
	got, err = s.Eval(":vars")
	require.NoError(t, err)
	assert.Equal(t, "vars#2: X", got)
	got, err = s.Eval("expand {name: list, args: [X]}")
	require.NoError(t, err)
	assert.Equal(t, "builtins.list[X]", got)
}

func TestCommands(t *testing.T) {
	s := newSession(t)

	got, err := s.Eval(":mro bool")
	require.NoError(t, err)
	assert.Equal(t, "builtins.bool -> builtins.int -> typing.SupportsInt -> typing.SupportsFloat -> typing.SupportsAbs -> typing.SupportsRound -> builtins.object", got)

	got, err = s.Eval(":classes")
	require.NoError(t, err)
	assert.Contains(t, got, "builtins.list[T]")
	assert.Contains(t, got, "Animal")

	got, err = s.Eval(":help")
	require.NoError(t, err)
	assert.Contains(t, got, "replace_vars")
}

func TestBalanced(t *testing.T) {
	tests := []struct {
		line     string
		complete bool
		wantErr  string
	}{
		{"join A, B", true, ""},
		{"join {name: G, args: [A]}, B", true, ""},
		{"join {name: G, args: [A", false, ""},
		{"join A, B]", false, "unmatched ']'"},
		{"join A], [B", false, "unmatched ']'"},
		{"} join A", false, "unmatched '}' at column 1"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			complete, err := balanced(tt.line)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.complete, complete)
		})
	}
}

func TestSessionKeepsTableScopes(t *testing.T) {
	s := newSession(t)
	scopes := s.table.Scratch().Arena().Len()

	_, err := s.Eval(":vars [X]")
	require.NoError(t, err)
	_, err = s.Eval("subtype {kind: callable, variables: [V], args: [V], return: X}, Dog")
	require.NoError(t, err)
	assert.Equal(t, scopes, s.table.Scratch().Arena().Len())
}
