package symbols

import "github.com/funvibe/typelattice/internal/typesystem"

// Scratch resolves names against a class table but allocates new scopes from
// a private child of the table's arena. Queries resolved through a Scratch
// leave the table as it was, and their scopes go away with the Scratch.
//
// The table must not load more declarations while a Scratch is in use.
type Scratch struct {
	table *ClassTable
	arena *typesystem.ScopeArena
}

func (ct *ClassTable) Scratch() *Scratch {
	return &Scratch{table: ct, arena: ct.arena.Child()}
}

func (s *Scratch) LookupClass(name string) (*typesystem.ClassInfo, bool) {
	return s.table.LookupClass(name)
}

func (s *Scratch) LookupTypeVar(name string) (typesystem.TypeVarDef, bool) {
	return s.table.LookupTypeVar(name)
}

func (s *Scratch) NewScope(name string) typesystem.Scope {
	return s.arena.New(name)
}

// Arena returns the arena new scopes come from. Its parent is the table's.
func (s *Scratch) Arena() *typesystem.ScopeArena {
	return s.arena
}
