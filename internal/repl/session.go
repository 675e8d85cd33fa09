// Package repl evaluates lattice queries typed at an interactive prompt.
//
// A query line is an operation followed by its comma-separated operands in
// YAML flow syntax:
//
//	join Dog, Cat
//	subtype {name: list, args: [int]}, typing.Sized
//	expand {name: list, args: [T]}
//
// Lines starting with a colon are commands (:vars, :bind, :classes, :mro,
// :help).
package repl

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/typelattice/internal/casefile"
	"github.com/funvibe/typelattice/internal/evaluator"
	"github.com/funvibe/typelattice/internal/symbols"
	"github.com/funvibe/typelattice/internal/typespec"
	"github.com/funvibe/typelattice/internal/typesystem"
)

// ErrIncomplete is returned for input with unclosed brackets; the caller
// should read another line and retry with both.
var ErrIncomplete = errors.New("incomplete input")

const help = `queries:  <op> <type>[, <type>]    ops: %s
commands: :vars [T, {name: S, values: [int, str]}]   declare free type variables
          :vars                                   show the declared variables
          :bind {T: int}                          bindings for expand
          :classes                                list classes
          :mro <name>                             print a class's MRO
          :help`

// Session holds the class table and the free type variables declared so far.
type Session struct {
	table    *symbols.ClassTable
	scratch  *symbols.Scratch
	basic    typesystem.BasicTypes
	resolver typespec.Resolver
	vars     []typesystem.TypeVarDef
	declared int
	bindings map[string]typespec.Spec
}

func NewSession(table *symbols.ClassTable) (*Session, error) {
	basic, err := table.Basic()
	if err != nil {
		return nil, err
	}
	scratch := table.Scratch()
	return &Session{table: table, scratch: scratch, basic: basic, resolver: scratch}, nil
}

// Eval runs one line and returns its printed result.
func (s *Session) Eval(line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}
	complete, err := balanced(line)
	if err != nil {
		return "", fmt.Errorf("invalid operands: %w", err)
	}
	if !complete {
		return "", ErrIncomplete
	}
	if strings.HasPrefix(line, ":") {
		return s.command(line[1:])
	}

	opName, rest, _ := strings.Cut(line, " ")
	op := casefile.Op(opName)
	if !op.Valid() {
		return "", fmt.Errorf("unknown operation %q", opName)
	}
	var specs []typespec.Spec
	if err := yaml.Unmarshal([]byte("["+rest+"]"), &specs); err != nil {
		return "", fmt.Errorf("invalid operands: %w", err)
	}
	want := 1
	if op.Binary() {
		want = 2
	}
	if len(specs) != want {
		return "", fmt.Errorf("%s takes %d operand(s), got %d", op, want, len(specs))
	}

	q := evaluator.Query{Op: op}
	if q.Left, err = typespec.Resolve(specs[0], s.resolver); err != nil {
		return "", err
	}
	if op.Binary() {
		if q.Right, err = typespec.Resolve(specs[1], s.resolver); err != nil {
			return "", err
		}
	}
	if op == casefile.OpExpand {
		if q.Bindings, err = s.resolveBindings(); err != nil {
			return "", err
		}
	}

	outcome, err := evaluator.Apply(q, s.basic)
	if err != nil && !evaluator.IsLawError(err) {
		return "", err
	}
	if err != nil {
		return outcome.String() + "  (" + err.Error() + ")", nil
	}
	return outcome.String(), nil
}

func (s *Session) command(line string) (string, error) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "vars":
		if arg == "" {
			return s.listVars(), nil
		}
		var vars []typespec.VarSpec
		if err := yaml.Unmarshal([]byte(arg), &vars); err != nil {
			return "", fmt.Errorf("invalid variables: %w", err)
		}
		defs, err := typespec.DeclareVars(s.scratch, fmt.Sprintf("vars#%d", s.declared+1), vars)
		if err != nil {
			return "", err
		}
		s.declared++
		s.vars = defs
		s.resolver = typespec.WithTypeVars(s.scratch, defs)
		s.bindings = nil
		return joinDefs(defs), nil
	case "bind":
		var bindings map[string]typespec.Spec
		if err := yaml.Unmarshal([]byte(arg), &bindings); err != nil {
			return "", fmt.Errorf("invalid bindings: %w", err)
		}
		s.bindings = bindings
		if _, err := s.resolveBindings(); err != nil {
			s.bindings = nil
			return "", err
		}
		return fmt.Sprintf("%d binding(s)", len(bindings)), nil
	case "classes":
		var names []string
		for _, c := range s.table.Classes() {
			names = append(names, c.Self().String())
		}
		return strings.Join(names, "\n"), nil
	case "mro":
		c, err := s.table.Class(arg)
		if err != nil {
			return "", err
		}
		names := make([]string, len(c.MRO))
		for i, m := range c.MRO {
			names[i] = m.Name
		}
		return strings.Join(names, " -> "), nil
	case "help":
		ops := make([]string, len(casefile.Ops))
		for i, op := range casefile.Ops {
			ops[i] = string(op)
		}
		return fmt.Sprintf(help, strings.Join(ops, ", ")), nil
	default:
		return "", fmt.Errorf("unknown command :%s", name)
	}
}

func (s *Session) listVars() string {
	if len(s.vars) == 0 {
		return "no type variables declared"
	}
	return s.scratch.Arena().Name(s.vars[0].ID.Scope) + ": " + joinDefs(s.vars)
}

func joinDefs(defs []typesystem.TypeVarDef) string {
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.String()
	}
	return strings.Join(names, ", ")
}

func (s *Session) resolveBindings() (typesystem.Bindings, error) {
	names := make([]string, 0, len(s.bindings))
	for name := range s.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	b := make(typesystem.Bindings, len(names))
	for _, name := range names {
		d, ok := s.resolver.LookupTypeVar(name)
		if !ok {
			return nil, fmt.Errorf("binding for unknown type variable %q", name)
		}
		t, err := typespec.Resolve(s.bindings[name], s.resolver)
		if err != nil {
			return nil, err
		}
		b[d.ID] = t
	}
	return b, nil
}

// balanced reports whether every bracket opened in line is closed. A
// closing bracket with nothing open is an error rather than complete input.
func balanced(line string) (bool, error) {
	depth := 0
	for i, r := range line {
		switch r {
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth < 0 {
				return false, fmt.Errorf("unmatched %q at column %d", r, i+1)
			}
		}
	}
	return depth == 0, nil
}
