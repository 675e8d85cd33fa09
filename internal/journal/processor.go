package journal

import (
	"context"

	"github.com/funvibe/typelattice/internal/diagnostics"
	"github.com/funvibe/typelattice/internal/pipeline"
)

// RecordProcessor writes every case result of the pipeline to the journal.
type RecordProcessor struct {
	Journal *Journal
}

func (rp *RecordProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if rp.Journal == nil {
		return ctx
	}
	for _, r := range ctx.Results {
		passed := r.Passed
		_, err := rp.Journal.Record(context.Background(), Entry{
			Source: ctx.FilePath,
			Op:     string(r.Op),
			Query:  r.Label,
			Result: r.Got,
			Passed: &passed,
		})
		if err != nil {
			ctx.AddError(diagnostics.NewError(diagnostics.ErrJ001, err))
			return ctx
		}
	}
	return ctx
}
