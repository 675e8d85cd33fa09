package evaluator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/typelattice/internal/pipeline"
)

func TestSampleCaseFiles(t *testing.T) {
	decls := filepath.Join("..", "..", "testdata", "animals.yaml")
	files, err := filepath.Glob(filepath.Join("..", "..", "testdata", "cases", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, path := range files {
		t.Run(filepath.Base(path), func(t *testing.T) {
			source, err := os.ReadFile(path)
			require.NoError(t, err)
			ctx := pipeline.NewPipelineContext(string(source))
			ctx.FilePath = path
			ctx = pipeline.New(Processors(decls)...).Run(ctx)

			require.Empty(t, ctx.Errors)
			require.NotEmpty(t, ctx.Results)
			for _, r := range ctx.Results {
				assert.True(t, r.Passed, "case %d %s: got %s, want %s", r.Index, r.Label, r.Got, r.Want)
			}
		})
	}
}
