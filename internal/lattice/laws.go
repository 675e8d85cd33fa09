package lattice

import (
	"fmt"

	"github.com/funvibe/typelattice/internal/typesystem"
)

// LawError reports a join or meet that is not commutative or does not bound
// its operands.
type LawError struct {
	Op          string
	Left, Right typesystem.Type
	Result      typesystem.Type
	Reason      string
}

func (e *LawError) Error() string {
	return fmt.Sprintf("%s(%s, %s) = %s: %s", e.Op, e.Left, e.Right, e.Result, e.Reason)
}

// CheckedJoin computes Join(s, t) and verifies that the swapped join agrees
// and that both operands are subtypes of the result. Bounds are not checked
// when an operand or the result mentions ErrorType.
func CheckedJoin(s, t typesystem.Type, basic typesystem.BasicTypes) (typesystem.Type, error) {
	j := Join(s, t, basic)
	if swapped := Join(t, s, basic); !typesystem.Equal(j, swapped) {
		return j, &LawError{Op: "join", Left: s, Right: t, Result: j,
			Reason: fmt.Sprintf("swapped operands give %s", swapped)}
	}
	if ContainsError(s) || ContainsError(t) || ContainsError(j) {
		return j, nil
	}
	for _, operand := range []typesystem.Type{s, t} {
		if !IsSubtype(operand, j) {
			return j, &LawError{Op: "join", Left: s, Right: t, Result: j,
				Reason: fmt.Sprintf("%s is not a subtype of the result", operand)}
		}
	}
	return j, nil
}

// CheckedMeet is CheckedJoin for Meet: the result must be a subtype of both
// operands.
func CheckedMeet(s, t typesystem.Type, basic typesystem.BasicTypes) (typesystem.Type, error) {
	m := Meet(s, t, basic)
	if swapped := Meet(t, s, basic); !typesystem.Equal(m, swapped) {
		return m, &LawError{Op: "meet", Left: s, Right: t, Result: m,
			Reason: fmt.Sprintf("swapped operands give %s", swapped)}
	}
	if ContainsError(s) || ContainsError(t) || ContainsError(m) {
		return m, nil
	}
	for _, operand := range []typesystem.Type{s, t} {
		if !IsSubtype(m, operand) {
			return m, &LawError{Op: "meet", Left: s, Right: t, Result: m,
				Reason: fmt.Sprintf("the result is not a subtype of %s", operand)}
		}
	}
	return m, nil
}

// ContainsError reports whether t mentions ErrorType anywhere.
func ContainsError(t typesystem.Type) bool {
	switch t := t.(type) {
	case typesystem.ErrorType:
		return true
	case typesystem.Instance:
		return anyContainsError(t.Args)
	case typesystem.TupleType:
		return anyContainsError(t.Items)
	case typesystem.Callable:
		return anyContainsError(t.ArgTypes) || ContainsError(t.Ret)
	}
	return false
}

func anyContainsError(types []typesystem.Type) bool {
	for _, t := range types {
		if ContainsError(t) {
			return true
		}
	}
	return false
}
