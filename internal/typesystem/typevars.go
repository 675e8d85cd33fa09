package typesystem

import (
	"fmt"
	"strings"
	"sync"
)

// Scope identifies the binding context (class, function, case file, request)
// that owns a type variable. It indexes into a ScopeArena.
type Scope uint32

// NoScope is the zero scope; variables built without an arena live here.
const NoScope Scope = 0

// TypeVarID is the identity of a type variable. Index > 0 is class-scoped
// (the 1-based position of the class parameter), Index < 0 is function-scoped.
type TypeVarID struct {
	Scope Scope
	Index int
}

func (id TypeVarID) IsClassScoped() bool    { return id.Index > 0 }
func (id TypeVarID) IsFunctionScoped() bool { return id.Index < 0 }

func (id TypeVarID) String() string {
	return fmt.Sprintf("%d:%d", id.Scope, id.Index)
}

// ScopeArena hands out scopes. Safe for concurrent use.
type ScopeArena struct {
	mu     sync.Mutex
	parent *ScopeArena
	base   int
	names  []string
}

func NewScopeArena() *ScopeArena {
	return &ScopeArena{}
}

// Child returns an arena whose scopes number on from those a has allocated
// so far. Scopes a allocates afterwards may collide with the child's, so a
// must stop allocating while the child is in use. Dropping the child frees
// everything it allocated.
func (a *ScopeArena) Child() *ScopeArena {
	return &ScopeArena{parent: a, base: a.Len()}
}

// New allocates a fresh scope. The name is informational only.
func (a *ScopeArena) New(name string) Scope {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.names = append(a.names, name)
	return Scope(a.base + len(a.names))
}

// Name returns the name a scope was allocated with.
func (a *ScopeArena) Name(s Scope) string {
	if s == NoScope {
		return ""
	}
	if int(s) <= a.base {
		return a.parent.Name(s)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if int(s)-a.base > len(a.names) {
		return ""
	}
	return a.names[int(s)-a.base-1]
}

// Len reports how many scopes are visible from a, its parent's included.
func (a *ScopeArena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.base + len(a.names)
}

// TypeVarDef declares a type variable, optionally restricted to a fixed set
// of value types (e.g. AnyStr in (str, bytes)).
type TypeVarDef struct {
	Name   string
	ID     TypeVarID
	Values []Type
}

// Ref returns a reference to the declared variable.
func (d TypeVarDef) Ref() TypeVar {
	return TypeVar{Name: d.Name, ID: d.ID}
}

func (d TypeVarDef) String() string {
	if len(d.Values) == 0 {
		return d.Name
	}
	values := make([]string, len(d.Values))
	for i, v := range d.Values {
		values[i] = v.String()
	}
	return fmt.Sprintf("%s in (%s)", d.Name, strings.Join(values, ", "))
}
