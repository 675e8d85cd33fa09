// Package diagnostics defines the coded errors reported while evaluating
// case files.
package diagnostics

import (
	"fmt"
	"strings"
)

type ErrorCode string

const (
	// Decoding
	ErrD001 ErrorCode = "D001" // malformed case file
	ErrD002 ErrorCode = "D002" // class declarations rejected

	// Resolution
	ErrR001 ErrorCode = "R001" // invalid type spec
	ErrR002 ErrorCode = "R002" // unknown operation
	ErrR003 ErrorCode = "R003" // operand missing for the operation
	ErrR004 ErrorCode = "R004" // invalid type variable declaration

	// Evaluation
	ErrE001 ErrorCode = "E001" // result differs from the expected one
	ErrE002 ErrorCode = "E002" // join or meet breaks a lattice law
	ErrE003 ErrorCode = "E003" // cyclic bindings

	// Journal
	ErrJ001 ErrorCode = "J001"
)

var messages = map[ErrorCode]string{
	ErrD001: "malformed case file: %s",
	ErrD002: "class declarations rejected: %s",
	ErrR001: "invalid type: %s",
	ErrR002: "unknown operation %q",
	ErrR003: "operation %s requires %s",
	ErrR004: "invalid type variables: %s",
	ErrE001: "%s: got %s, want %s",
	ErrE002: "lattice law violated: %s",
	ErrE003: "%s",
	ErrJ001: "journal: %s",
}

// DiagnosticError is an error tied to a case file and, when Case is not
// zero, to one of its cases (1-based).
type DiagnosticError struct {
	Code ErrorCode
	File string
	Case int
	Line int
	Args []interface{}
	Err  error
}

// NewError builds a file-level diagnostic. Args fill the code's message; an
// error argument is also kept for Unwrap.
func NewError(code ErrorCode, args ...interface{}) *DiagnosticError {
	e := &DiagnosticError{Code: code, Args: args}
	for _, a := range args {
		if err, ok := a.(error); ok {
			e.Err = err
			break
		}
	}
	return e
}

// NewCaseError builds a diagnostic for the case at index (1-based) and line.
func NewCaseError(code ErrorCode, index, line int, args ...interface{}) *DiagnosticError {
	e := NewError(code, args...)
	e.Case = index
	e.Line = line
	return e
}

func (e *DiagnosticError) Message() string {
	format, ok := messages[e.Code]
	if !ok {
		return strings.TrimSpace(fmt.Sprintln(e.Args...))
	}
	return fmt.Sprintf(format, e.Args...)
}

func (e *DiagnosticError) Error() string {
	var sb strings.Builder
	if e.File != "" {
		sb.WriteString(e.File)
		if e.Line > 0 {
			fmt.Fprintf(&sb, ":%d", e.Line)
		}
		sb.WriteString(": ")
	}
	if e.Case > 0 {
		fmt.Fprintf(&sb, "case %d: ", e.Case)
	}
	fmt.Fprintf(&sb, "%s: %s", e.Code, e.Message())
	return sb.String()
}

func (e *DiagnosticError) Unwrap() error {
	return e.Err
}
