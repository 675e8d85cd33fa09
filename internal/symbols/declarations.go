package symbols

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/typelattice/internal/config"
	"github.com/funvibe/typelattice/internal/typespec"
	"github.com/funvibe/typelattice/internal/typesystem"
)

// Declarations is the YAML form of a set of classes and module-level type
// variables.
type Declarations struct {
	TypeVars []typespec.VarSpec `yaml:"type_vars"`
	Classes  []ClassDecl        `yaml:"classes"`
}

// ClassDecl declares one class. Bases may refer to the class's own
// parameters and to any class of the table or of the same declaration set.
type ClassDecl struct {
	Name     string          `yaml:"name"`
	Params   []string        `yaml:"params,omitempty"`
	Bases    []typespec.Spec `yaml:"bases,omitempty"`
	Abstract bool            `yaml:"abstract,omitempty"`
}

// ParseDeclarations decodes declarations from YAML.
func ParseDeclarations(data []byte, path string) (*Declarations, error) {
	var decls Declarations
	if err := yaml.Unmarshal(data, &decls); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &decls, nil
}

// LoadDeclarations parses and loads a declaration file's contents.
func (ct *ClassTable) LoadDeclarations(data []byte, path string) error {
	decls, err := ParseDeclarations(data, path)
	if err != nil {
		return err
	}
	if err := ct.Load(decls); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadFile reads and loads a declaration file.
func (ct *ClassTable) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read declarations: %w", err)
	}
	return ct.LoadDeclarations(data, path)
}

// Load adds a declaration set to the table. Every name is registered before
// any base is resolved, so classes may refer to each other in any order.
// On error the table is left unchanged.
func (ct *ClassTable) Load(decls *Declarations) error {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	l := &loader{
		table:   ct,
		classes: make(map[string]*typesystem.ClassInfo),
		vars:    make(map[string]typesystem.TypeVarDef),
	}
	if err := l.declare(decls); err != nil {
		return err
	}
	if err := l.resolve(decls); err != nil {
		return err
	}
	for _, c := range l.order {
		if err := c.Linearize(); err != nil {
			return err
		}
	}

	for name, c := range l.classes {
		ct.classes[name] = c
	}
	ct.order = append(ct.order, l.order...)
	for name, d := range l.vars {
		ct.typeVars[name] = d
	}
	return nil
}

// loader stages a declaration set on top of a table. It implements
// typespec.Resolver over both. The table lock is held by Load, so the
// loader reads the table maps directly.
type loader struct {
	table   *ClassTable
	classes map[string]*typesystem.ClassInfo
	order   []*typesystem.ClassInfo
	vars    map[string]typesystem.TypeVarDef
}

func (l *loader) LookupClass(name string) (*typesystem.ClassInfo, bool) {
	if c, ok := lookupQualified(name, l.classes); ok {
		return c, true
	}
	return lookupQualified(name, l.table.classes)
}

func (l *loader) LookupTypeVar(name string) (typesystem.TypeVarDef, bool) {
	if d, ok := l.vars[name]; ok {
		return d, true
	}
	d, ok := l.table.typeVars[name]
	return d, ok
}

func (l *loader) NewScope(name string) typesystem.Scope {
	return l.table.arena.New(name)
}

// declare registers every type variable and class name.
func (l *loader) declare(decls *Declarations) error {
	next := -len(l.table.typeVars) - 1
	for _, v := range decls.TypeVars {
		if v.Name == "" {
			return fmt.Errorf("type variable without a name")
		}
		if _, ok := l.LookupTypeVar(v.Name); ok {
			return fmt.Errorf("type variable %s is already declared", v.Name)
		}
		l.vars[v.Name] = typesystem.TypeVarDef{
			Name: v.Name,
			ID:   typesystem.TypeVarID{Scope: l.table.module, Index: next},
		}
		next--
	}

	for _, d := range decls.Classes {
		if d.Name == "" {
			return fmt.Errorf("class without a name")
		}
		if _, ok := l.classes[d.Name]; ok {
			return &DuplicateClassError{Name: d.Name}
		}
		if _, ok := l.table.classes[d.Name]; ok {
			return &DuplicateClassError{Name: d.Name}
		}
		seen := make(map[string]bool, len(d.Params))
		for _, p := range d.Params {
			if seen[p] {
				return fmt.Errorf("class %s: duplicate type parameter %s", d.Name, p)
			}
			seen[p] = true
		}
		c := typesystem.NewClassInfo(d.Name, l.table.arena.New(d.Name), d.Params...)
		c.IsAbstract = d.Abstract
		l.classes[d.Name] = c
		l.order = append(l.order, c)
	}
	return nil
}

// resolve fills in type variable values and class bases.
func (l *loader) resolve(decls *Declarations) error {
	for _, v := range decls.TypeVars {
		values := make([]typesystem.Type, 0, len(v.Values))
		for _, s := range v.Values {
			t, err := typespec.Resolve(s, l)
			if err != nil {
				return fmt.Errorf("type variable %s: %w", v.Name, err)
			}
			if u, ok := t.(typesystem.UnboundType); ok {
				return fmt.Errorf("type variable %s: %w", v.Name, NewClassNotFoundError(u.Name))
			}
			values = append(values, t)
		}
		d := l.vars[v.Name]
		d.Values = values
		l.vars[v.Name] = d
	}

	for i, d := range decls.Classes {
		c := l.order[i]
		// a parameter named after a restricted module variable inherits its values
		for j, p := range c.TypeParams {
			if mv, ok := l.LookupTypeVar(p.Name); ok {
				c.TypeParams[j].Values = mv.Values
			}
		}
		if err := l.resolveBases(c, d.Bases); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) resolveBases(c *typesystem.ClassInfo, specs []typespec.Spec) error {
	scope := typespec.WithTypeVars(l, c.TypeParams)
	seen := make(map[*typesystem.ClassInfo]bool, len(specs))
	for _, s := range specs {
		t, err := typespec.Resolve(s, scope)
		if err != nil {
			return fmt.Errorf("class %s: %w", c.Name, err)
		}
		switch base := t.(type) {
		case typesystem.Instance:
			if seen[base.Class] {
				return &DuplicateBaseError{Class: c.Name, Base: base.Class.Name}
			}
			seen[base.Class] = true
			c.Bases = append(c.Bases, base)
		case typesystem.UnboundType:
			return fmt.Errorf("class %s: %w", c.Name, NewClassNotFoundError(base.Name))
		default:
			return fmt.Errorf("class %s: base %s is not a class", c.Name, t)
		}
	}
	if len(c.Bases) == 0 && c.Name != config.ObjectClassName {
		if object, ok := l.LookupClass(config.ObjectClassName); ok {
			c.Bases = []typesystem.Instance{{Class: object}}
		}
	}
	return nil
}
