package typesystem

// ClassInfo describes a nominal class: its type parameters, its direct
// bases (written over its own parameters) and, once linearized, its MRO.
//
// A ClassInfo is built once and then treated as read-only; instances refer
// to it by pointer and class identity is pointer identity.
type ClassInfo struct {
	Name       string
	Scope      Scope
	TypeParams []TypeVarDef
	Bases      []Instance
	IsAbstract bool
	MRO        []*ClassInfo // starts with the class itself
}

// NewClassInfo creates a class whose parameters are class-scoped variables
// of the given scope, numbered from 1.
func NewClassInfo(name string, scope Scope, params ...string) *ClassInfo {
	c := &ClassInfo{Name: name, Scope: scope}
	for i, p := range params {
		c.TypeParams = append(c.TypeParams, TypeVarDef{
			Name: p,
			ID:   TypeVarID{Scope: scope, Index: i + 1},
		})
	}
	return c
}

// Param returns a reference to the i-th (0-based) type parameter.
func (c *ClassInfo) Param(i int) TypeVar {
	return c.TypeParams[i].Ref()
}

// Self returns the class applied to its own parameters.
func (c *ClassInfo) Self() Instance {
	args := make([]Type, len(c.TypeParams))
	for i, p := range c.TypeParams {
		args[i] = p.Ref()
	}
	return Instance{Class: c, Args: args}
}

// HasBase reports whether other is c or one of its ancestors.
func (c *ClassInfo) HasBase(other *ClassInfo) bool {
	if c == other {
		return true
	}
	if c.MRO != nil {
		for _, m := range c.MRO {
			if m == other {
				return true
			}
		}
		return false
	}
	for _, b := range c.Bases {
		if b.Class.HasBase(other) {
			return true
		}
	}
	return false
}

// Linearize computes the C3 linearization of c, linearizing bases first
// when needed.
func (c *ClassInfo) Linearize() error {
	return c.linearize(map[*ClassInfo]bool{})
}

func (c *ClassInfo) linearize(visiting map[*ClassInfo]bool) error {
	if c.MRO != nil {
		return nil
	}
	if visiting[c] {
		return newHierarchyError(c.Name, "cyclic inheritance")
	}
	visiting[c] = true
	defer delete(visiting, c)

	seen := make(map[*ClassInfo]bool, len(c.Bases))
	var seqs [][]*ClassInfo
	direct := make([]*ClassInfo, 0, len(c.Bases))
	for _, b := range c.Bases {
		if b.Class == nil {
			return newHierarchyError(c.Name, "nil base class")
		}
		if seen[b.Class] {
			return newHierarchyError(c.Name, "duplicate base class "+b.Class.Name)
		}
		seen[b.Class] = true
		if err := b.Class.linearize(visiting); err != nil {
			return err
		}
		seqs = append(seqs, append([]*ClassInfo(nil), b.Class.MRO...))
		direct = append(direct, b.Class)
	}
	seqs = append(seqs, direct)

	mro := []*ClassInfo{c}
	for {
		seqs = dropEmpty(seqs)
		if len(seqs) == 0 {
			break
		}
		var head *ClassInfo
		for _, seq := range seqs {
			if !inTail(seq[0], seqs) {
				head = seq[0]
				break
			}
		}
		if head == nil {
			return newHierarchyError(c.Name, "cannot create a consistent method resolution order")
		}
		mro = append(mro, head)
		for i, seq := range seqs {
			if seq[0] == head {
				seqs[i] = seq[1:]
			}
		}
	}
	c.MRO = mro
	return nil
}

func dropEmpty(seqs [][]*ClassInfo) [][]*ClassInfo {
	out := seqs[:0]
	for _, s := range seqs {
		if len(s) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func inTail(c *ClassInfo, seqs [][]*ClassInfo) bool {
	for _, seq := range seqs {
		for _, m := range seq[1:] {
			if m == c {
				return true
			}
		}
	}
	return false
}

// bindings maps the class's parameters to args; missing args become Any.
func (c *ClassInfo) bindings(args []Type) Bindings {
	b := make(Bindings, len(c.TypeParams))
	for i, p := range c.TypeParams {
		if i < len(args) {
			b[p.ID] = args[i]
		} else {
			b[p.ID] = AnyType{}
		}
	}
	return b
}

// MapInstanceToSupertype views inst as an instance of the ancestor class
// super, substituting type arguments along the base path. It reports false
// when super is not an ancestor. Missing type arguments are treated as Any.
func MapInstanceToSupertype(inst Instance, super *ClassInfo) (Instance, bool) {
	if inst.Class == nil || super == nil {
		return Instance{}, false
	}
	if inst.Class == super {
		return Instance{Class: super, Args: padArgs(super, inst.Args)}, true
	}
	if !inst.Class.HasBase(super) {
		return Instance{}, false
	}
	b := inst.Class.bindings(inst.Args)
	for _, base := range inst.Class.Bases {
		if base.Class.HasBase(super) {
			mapped := Expand(base, b).(Instance)
			return MapInstanceToSupertype(mapped, super)
		}
	}
	return Instance{}, false
}

func padArgs(c *ClassInfo, args []Type) []Type {
	if len(args) >= len(c.TypeParams) {
		return args
	}
	out := make([]Type, len(c.TypeParams))
	copy(out, args)
	for i := len(args); i < len(out); i++ {
		out[i] = AnyType{}
	}
	return out
}
