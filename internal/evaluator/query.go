// Package evaluator runs lattice queries: single queries through Apply and
// whole case files through the pipeline processors.
package evaluator

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/funvibe/typelattice/internal/casefile"
	"github.com/funvibe/typelattice/internal/lattice"
	"github.com/funvibe/typelattice/internal/typesystem"
)

// Query is one lattice operation on resolved operands. Right is used by the
// binary operations and Bindings by expand.
type Query struct {
	Op       casefile.Op
	Left     typesystem.Type
	Right    typesystem.Type
	Bindings typesystem.Bindings
}

// Outcome is the answer to a query: a type, or a truth value for the
// predicates.
type Outcome struct {
	Type  typesystem.Type
	Holds bool
}

func (o Outcome) String() string {
	if o.Type == nil {
		return strconv.FormatBool(o.Holds)
	}
	return o.Type.String()
}

// Apply evaluates q. Join and meet are checked against the lattice laws; a
// *lattice.LawError comes back together with a valid outcome. Any other
// error means there is no outcome.
func Apply(q Query, basic typesystem.BasicTypes) (Outcome, error) {
	if q.Left == nil {
		return Outcome{}, fmt.Errorf("%s: missing operand", q.Op)
	}
	if q.Op.Binary() && q.Right == nil {
		return Outcome{}, fmt.Errorf("%s: missing right operand", q.Op)
	}

	switch q.Op {
	case casefile.OpJoin:
		t, err := lattice.CheckedJoin(q.Left, q.Right, basic)
		return Outcome{Type: t}, err
	case casefile.OpMeet:
		t, err := lattice.CheckedMeet(q.Left, q.Right, basic)
		return Outcome{Type: t}, err
	case casefile.OpSubtype:
		return Outcome{Holds: lattice.IsSubtype(q.Left, q.Right)}, nil
	case casefile.OpProperSubtype:
		return Outcome{Holds: lattice.IsProperSubtype(q.Left, q.Right)}, nil
	case casefile.OpMorePrecise:
		return Outcome{Holds: lattice.IsMorePrecise(q.Left, q.Right)}, nil
	case casefile.OpErase:
		return Outcome{Type: lattice.Erase(q.Left, basic)}, nil
	case casefile.OpExpand:
		if err := q.Bindings.CheckAcyclic(); err != nil {
			return Outcome{}, err
		}
		return Outcome{Type: typesystem.Expand(q.Left, q.Bindings)}, nil
	case casefile.OpReplaceVars:
		return Outcome{Type: typesystem.ReplaceTypeVars(q.Left)}, nil
	default:
		return Outcome{}, fmt.Errorf("unknown operation %q", q.Op)
	}
}

// IsLawError reports whether err only flags a broken lattice law, leaving
// the outcome usable.
func IsLawError(err error) bool {
	var lerr *lattice.LawError
	return errors.As(err, &lerr)
}
