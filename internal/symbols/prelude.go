package symbols

import (
	"embed"
	"fmt"
	"sync"
)

//go:embed prelude/*.yaml
var preludeFS embed.FS

// Loaded together so builtins and typing may refer to each other.
var preludeFiles = []string{"prelude/builtins.yaml", "prelude/typing.yaml"}

// The embedded declarations are parsed once and shared; every table built
// from them gets its own classes.
var (
	preludeDecls *Declarations
	preludeErr   error
	preludeOnce  sync.Once
)

func parsePrelude() (*Declarations, error) {
	preludeOnce.Do(func() {
		merged := &Declarations{}
		for _, name := range preludeFiles {
			data, err := preludeFS.ReadFile(name)
			if err != nil {
				preludeErr = err
				return
			}
			decls, err := ParseDeclarations(data, name)
			if err != nil {
				preludeErr = err
				return
			}
			merged.TypeVars = append(merged.TypeVars, decls.TypeVars...)
			merged.Classes = append(merged.Classes, decls.Classes...)
		}
		preludeDecls = merged
	})
	return preludeDecls, preludeErr
}

// NewPreludeTable returns a fresh table holding the built-in classes and the
// typing protocols.
func NewPreludeTable() (*ClassTable, error) {
	decls, err := parsePrelude()
	if err != nil {
		return nil, fmt.Errorf("prelude: %w", err)
	}
	ct := NewClassTable()
	if err := ct.Load(decls); err != nil {
		return nil, fmt.Errorf("prelude: %w", err)
	}
	return ct, nil
}

// NewTable builds a prelude table and loads the given declaration files
// into it, in order.
func NewTable(paths ...string) (*ClassTable, error) {
	ct, err := NewPreludeTable()
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		if err := ct.LoadFile(p); err != nil {
			return nil, err
		}
	}
	return ct, nil
}
