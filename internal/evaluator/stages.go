package evaluator

import (
	"fmt"
	"sort"

	"github.com/funvibe/typelattice/internal/casefile"
	"github.com/funvibe/typelattice/internal/diagnostics"
	"github.com/funvibe/typelattice/internal/pipeline"
	"github.com/funvibe/typelattice/internal/symbols"
	"github.com/funvibe/typelattice/internal/typespec"
	"github.com/funvibe/typelattice/internal/typesystem"
)

// DecodeProcessor parses ctx.Source into ctx.File.
type DecodeProcessor struct{}

func (dp *DecodeProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.File != nil {
		return ctx
	}
	f, err := casefile.Parse([]byte(ctx.Source), ctx.FilePath)
	if err != nil {
		ctx.AddError(diagnostics.NewError(diagnostics.ErrD001, err))
		return ctx
	}
	ctx.File = f
	return ctx
}

// ResolveProcessor loads the file's classes and resolves every case. A case
// that fails to resolve is reported and skipped; the others still run.
type ResolveProcessor struct {
	// Declarations are extra declaration files loaded on top of the
	// prelude when ctx.Table is nil.
	Declarations []string
}

func (rp *ResolveProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.File == nil || len(ctx.Errors) > 0 {
		return ctx
	}

	if ctx.Table == nil {
		table, err := symbols.NewTable(rp.Declarations...)
		if err != nil {
			ctx.AddError(diagnostics.NewError(diagnostics.ErrD002, err))
			return ctx
		}
		ctx.Table = table
	}
	if decls := ctx.File.Declarations(); len(decls.Classes) > 0 || len(decls.TypeVars) > 0 {
		if err := ctx.Table.Load(decls); err != nil {
			ctx.AddError(diagnostics.NewError(diagnostics.ErrD002, err))
			return ctx
		}
	}
	basic, err := ctx.Table.Basic()
	if err != nil {
		ctx.AddError(diagnostics.NewError(diagnostics.ErrD002, err))
		return ctx
	}
	ctx.Basic = basic

	vars, err := typespec.DeclareVars(ctx.Table, "case", ctx.File.Vars)
	if err != nil {
		ctx.AddError(diagnostics.NewError(diagnostics.ErrR004, err))
		return ctx
	}
	scope := typespec.WithTypeVars(ctx.Table, vars)

	for i := range ctx.File.Cases {
		c := &ctx.File.Cases[i]
		r, derr := resolveCase(c, i+1, scope)
		if derr != nil {
			ctx.AddError(derr)
			continue
		}
		ctx.Cases = append(ctx.Cases, r)
	}
	return ctx
}

func resolveCase(c *casefile.Case, index int, r typespec.Resolver) (casefile.Resolved, *diagnostics.DiagnosticError) {
	fail := func(code diagnostics.ErrorCode, args ...interface{}) (casefile.Resolved, *diagnostics.DiagnosticError) {
		return casefile.Resolved{}, diagnostics.NewCaseError(code, index, c.Line, args...)
	}

	if !c.Op.Valid() {
		return fail(diagnostics.ErrR002, string(c.Op))
	}
	if c.Op.Binary() && c.Right == nil {
		return fail(diagnostics.ErrR003, c.Op, "a right operand")
	}
	if c.Op.Predicate() && c.Holds == nil {
		return fail(diagnostics.ErrR003, c.Op, "holds")
	}
	if !c.Op.Predicate() && c.Want == nil {
		return fail(diagnostics.ErrR003, c.Op, "want")
	}

	out := casefile.Resolved{Index: index, Case: c}
	var err error
	if out.Left, err = typespec.Resolve(c.Left, r); err != nil {
		return fail(diagnostics.ErrR001, err)
	}
	if c.Right != nil {
		if out.Right, err = typespec.Resolve(*c.Right, r); err != nil {
			return fail(diagnostics.ErrR001, err)
		}
	}
	if c.Want != nil {
		if out.Want, err = typespec.Resolve(*c.Want, r); err != nil {
			return fail(diagnostics.ErrR001, err)
		}
	}
	if len(c.Bindings) > 0 {
		names := make([]string, 0, len(c.Bindings))
		for name := range c.Bindings {
			names = append(names, name)
		}
		sort.Strings(names)

		out.Bindings = make(typesystem.Bindings, len(names))
		for _, name := range names {
			d, ok := r.LookupTypeVar(name)
			if !ok {
				return fail(diagnostics.ErrR001, fmt.Errorf("%w: binding for unknown type variable %s", typespec.ErrInvalidSpec, name))
			}
			t, err := typespec.Resolve(c.Bindings[name], r)
			if err != nil {
				return fail(diagnostics.ErrR001, err)
			}
			out.Bindings[d.ID] = t
		}
	}
	return out, nil
}

// EvaluateProcessor runs every resolved case and records its result. Join
// and meet cases are also checked for commutativity and for bounding their
// operands.
type EvaluateProcessor struct{}

func (ep *EvaluateProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	for _, r := range ctx.Cases {
		c := r.Case
		outcome, err := Apply(Query{Op: c.Op, Left: r.Left, Right: r.Right, Bindings: r.Bindings}, ctx.Basic)
		if err != nil && !IsLawError(err) {
			ctx.AddError(diagnostics.NewCaseError(diagnostics.ErrE003, r.Index, c.Line, err))
			ctx.Results = append(ctx.Results, casefile.Result{Index: r.Index, Label: c.Label(), Op: c.Op, Got: err.Error()})
			continue
		}
		if err != nil {
			ctx.AddError(diagnostics.NewCaseError(diagnostics.ErrE002, r.Index, c.Line, err))
		}

		res := casefile.Result{Index: r.Index, Label: c.Label(), Op: c.Op, Got: outcome.String()}
		if c.Op.Predicate() {
			res.Want = fmt.Sprint(*c.Holds)
			res.Passed = outcome.Holds == *c.Holds
		} else {
			res.Want = r.Want.String()
			res.Passed = sameType(outcome.Type, r.Want)
		}
		if err != nil {
			res.Passed = false
		}
		if !res.Passed && err == nil {
			ctx.AddError(diagnostics.NewCaseError(diagnostics.ErrE001, r.Index, c.Line, res.Label, res.Got, res.Want))
		}
		ctx.Results = append(ctx.Results, res)
	}
	return ctx
}

// sameType compares an outcome with the expected type. Callable type
// variables are bound in a fresh scope each time a spec is resolved, so two
// generic callables are compared by their printed form.
func sameType(got, want typesystem.Type) bool {
	if typesystem.Equal(got, want) {
		return true
	}
	return isGeneric(got) && isGeneric(want) && got.String() == want.String()
}

func isGeneric(t typesystem.Type) bool {
	c, ok := t.(typesystem.Callable)
	return ok && len(c.Variables) > 0
}

// Processors returns the stages that evaluate a case file.
func Processors(declarations ...string) []pipeline.Processor {
	return []pipeline.Processor{
		&DecodeProcessor{},
		&ResolveProcessor{Declarations: declarations},
		&EvaluateProcessor{},
	}
}
