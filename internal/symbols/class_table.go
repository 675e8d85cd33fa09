package symbols

import (
	"sort"
	"strings"
	"sync"

	"github.com/funvibe/typelattice/internal/config"
	"github.com/funvibe/typelattice/internal/typesystem"
)

// Modules searched, in order, when a class is looked up by a short name.
var implicitModules = []string{"builtins", "typing"}

// ClassTable registers classes by qualified name together with the
// module-level type variables they are declared with.
//
// Loading is the only mutation; once loaded a table is safe to share
// between goroutines.
type ClassTable struct {
	mu       sync.RWMutex
	arena    *typesystem.ScopeArena
	module   typesystem.Scope
	classes  map[string]*typesystem.ClassInfo
	order    []*typesystem.ClassInfo
	typeVars map[string]typesystem.TypeVarDef
}

// NewClassTable creates an empty table. Most callers want NewPreludeTable.
func NewClassTable() *ClassTable {
	arena := typesystem.NewScopeArena()
	return &ClassTable{
		arena:    arena,
		module:   arena.New("module"),
		classes:  make(map[string]*typesystem.ClassInfo),
		typeVars: make(map[string]typesystem.TypeVarDef),
	}
}

func (ct *ClassTable) NewScope(name string) typesystem.Scope {
	return ct.arena.New(name)
}

// LookupClass finds a class by qualified name. A short name such as "int"
// also matches builtins.int and typing.int, in that order.
func (ct *ClassTable) LookupClass(name string) (*typesystem.ClassInfo, bool) {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return lookupQualified(name, ct.classes)
}

func lookupQualified(name string, classes map[string]*typesystem.ClassInfo) (*typesystem.ClassInfo, bool) {
	if c, ok := classes[name]; ok {
		return c, true
	}
	if strings.Contains(name, ".") {
		return nil, false
	}
	for _, m := range implicitModules {
		if c, ok := classes[m+"."+name]; ok {
			return c, true
		}
	}
	return nil, false
}

func (ct *ClassTable) LookupTypeVar(name string) (typesystem.TypeVarDef, bool) {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	d, ok := ct.typeVars[name]
	return d, ok
}

// Class is LookupClass returning a *ClassNotFoundError for unknown names.
func (ct *ClassTable) Class(name string) (*typesystem.ClassInfo, error) {
	if c, ok := ct.LookupClass(name); ok {
		return c, nil
	}
	return nil, NewClassNotFoundError(name)
}

// Classes returns every class in declaration order.
func (ct *ClassTable) Classes() []*typesystem.ClassInfo {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return append([]*typesystem.ClassInfo(nil), ct.order...)
}

// TypeVars returns the module-level type variables in declaration order.
func (ct *ClassTable) TypeVars() []typesystem.TypeVarDef {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	vars := make([]typesystem.TypeVarDef, 0, len(ct.typeVars))
	for _, d := range ct.typeVars {
		vars = append(vars, d)
	}
	// indices count down from -1
	sort.Slice(vars, func(i, j int) bool { return vars[i].ID.Index > vars[j].ID.Index })
	return vars
}

// Basic returns the built-in classes the lattice operations need.
func (ct *ClassTable) Basic() (typesystem.BasicTypes, error) {
	var basic typesystem.BasicTypes
	for _, b := range []struct {
		name string
		dst  *typesystem.Instance
	}{
		{config.ObjectClassName, &basic.Object},
		{config.TypeClassName, &basic.Type},
		{config.TupleClassName, &basic.Tuple},
		{config.FunctionClassName, &basic.Function},
	} {
		c, err := ct.Class(b.name)
		if err != nil {
			return typesystem.BasicTypes{}, err
		}
		*b.dst = typesystem.Instance{Class: c}
	}
	return basic, nil
}
