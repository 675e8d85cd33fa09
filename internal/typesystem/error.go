package typesystem

import "fmt"

// InconsistentHierarchyError indicates a class whose bases cannot be linearized
type InconsistentHierarchyError struct {
	Class  string
	Reason string
}

func (e *InconsistentHierarchyError) Error() string {
	return fmt.Sprintf("class %s: %s", e.Class, e.Reason)
}

func newHierarchyError(class, reason string) *InconsistentHierarchyError {
	return &InconsistentHierarchyError{Class: class, Reason: reason}
}

// CyclicBindingError indicates a binding map in which a variable reaches itself
type CyclicBindingError struct {
	Var TypeVarID
}

func (e *CyclicBindingError) Error() string {
	return fmt.Sprintf("cyclic binding for type variable %s", e.Var)
}
