package symbols

import "fmt"

// ClassNotFoundError indicates a reference to a class that is not declared
type ClassNotFoundError struct {
	Name string
}

func (e *ClassNotFoundError) Error() string {
	return fmt.Sprintf("class not found: %s", e.Name)
}

func NewClassNotFoundError(name string) *ClassNotFoundError {
	return &ClassNotFoundError{Name: name}
}

// DuplicateClassError indicates a second declaration of the same class
type DuplicateClassError struct {
	Name string
}

func (e *DuplicateClassError) Error() string {
	return fmt.Sprintf("class %s is already declared", e.Name)
}

// DuplicateBaseError indicates a class listing the same base twice
type DuplicateBaseError struct {
	Class string
	Base  string
}

func (e *DuplicateBaseError) Error() string {
	return fmt.Sprintf("class %s lists base %s more than once", e.Class, e.Base)
}
