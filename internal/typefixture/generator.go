package typefixture

import (
	"math/rand"

	ts "github.com/funvibe/typelattice/internal/typesystem"
)

// RandomSource abstracts the source of randomness.
type RandomSource interface {
	Intn(n int) int
}

// ByteSource uses a byte slice as a source of randomness. Once the data is
// exhausted it keeps returning 0.
type ByteSource struct {
	data []byte
	pos  int
}

func (s *ByteSource) Intn(n int) int {
	if n <= 0 || s.pos >= len(s.data) {
		return 0
	}
	v := int(s.data[s.pos])
	s.pos++
	return v % n
}

// MaxDepth bounds the nesting of generated types.
const MaxDepth = 3

// Generator produces random types over a fixture.
type Generator struct {
	fx    *Fixture
	src   RandomSource
	depth int
}

func NewGenerator(fx *Fixture, seed int64) *Generator {
	return &Generator{fx: fx, src: rand.New(rand.NewSource(seed))}
}

func NewFromData(fx *Fixture, data []byte) *Generator {
	return &Generator{fx: fx, src: &ByteSource{data: data}}
}

// Src returns the random source of the generator.
func (g *Generator) Src() RandomSource {
	return g.src
}

// Type generates an arbitrary type, including the special Any, Void, None,
// Error and unbound markers.
func (g *Generator) Type() ts.Type {
	switch g.src.Intn(8) {
	case 0:
		return g.fx.Any
	case 1:
		return g.fx.Void
	case 2:
		return g.fx.None
	case 3:
		return g.fx.Err
	case 4:
		return ts.UnboundType{Name: []string{"x", "y", "X"}[g.src.Intn(3)]}
	default:
		return g.ValueType()
	}
}

// ValueType generates a type without Void or Error, suitable as a tuple item
// or callable argument.
func (g *Generator) ValueType() ts.Type {
	if g.depth >= MaxDepth {
		return g.leaf()
	}
	g.depth++
	defer func() { g.depth-- }()

	switch g.src.Intn(10) {
	case 0, 1, 2, 3:
		return g.leaf()
	case 4:
		return g.fx.Any
	case 5:
		return g.fx.None
	case 6:
		n := g.src.Intn(3)
		items := make([]ts.Type, n)
		for i := range items {
			items[i] = g.ValueType()
		}
		return g.fx.Tuple(items...)
	case 7:
		n := g.src.Intn(3)
		types := make([]ts.Type, n+1)
		for i := range types {
			types[i] = g.ValueType()
		}
		if g.src.Intn(4) == 0 {
			return g.fx.CallableType(types...)
		}
		return g.fx.Callable(types...)
	default:
		return g.generic()
	}
}

func (g *Generator) leaf() ts.Type {
	leaves := []ts.Type{
		g.fx.O, g.fx.A, g.fx.B, g.fx.C, g.fx.D,
		g.fx.F, g.fx.F2, g.fx.F3, g.fx.E, g.fx.E2, g.fx.E3,
		g.fx.T, g.fx.S, g.fx.TypeType, g.fx.StdTuple,
	}
	return leaves[g.src.Intn(len(leaves))]
}

func (g *Generator) generic() ts.Type {
	switch g.src.Intn(5) {
	case 0:
		return g.fx.Inst(g.fx.GI, g.ValueType())
	case 1:
		return g.fx.Inst(g.fx.G2I, g.ValueType())
	case 2:
		return g.fx.Inst(g.fx.HI, g.ValueType(), g.ValueType())
	case 3:
		return g.fx.Inst(g.fx.GSI, g.ValueType(), g.ValueType())
	default:
		return g.fx.Inst(g.fx.GS2I, g.ValueType())
	}
}
