package pipeline

import (
	"github.com/funvibe/typelattice/internal/casefile"
	"github.com/funvibe/typelattice/internal/diagnostics"
	"github.com/funvibe/typelattice/internal/symbols"
	"github.com/funvibe/typelattice/internal/typesystem"
)

// PipelineContext carries a case file through the processing stages.
type PipelineContext struct {
	Source   string
	FilePath string

	File  *casefile.File
	Table *symbols.ClassTable
	Basic typesystem.BasicTypes

	Cases   []casefile.Resolved
	Results []casefile.Result
	Errors  []*diagnostics.DiagnosticError
}

func NewPipelineContext(source string) *PipelineContext {
	return &PipelineContext{Source: source}
}

// AddError records a diagnostic, stamping it with the context's file.
func (ctx *PipelineContext) AddError(err *diagnostics.DiagnosticError) {
	if err.File == "" {
		err.File = ctx.FilePath
	}
	ctx.Errors = append(ctx.Errors, err)
}

// Passed reports whether every evaluated case passed and no stage failed.
func (ctx *PipelineContext) Passed() bool {
	if len(ctx.Errors) > 0 {
		return false
	}
	for _, r := range ctx.Results {
		if !r.Passed {
			return false
		}
	}
	return true
}
