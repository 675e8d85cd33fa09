// Package casefile reads YAML files of lattice queries with their expected
// outcomes.
//
// A case file looks like:
//
//	vars: [T]
//	classes:
//	  - {name: Animal}
//	  - {name: Dog, bases: [Animal]}
//	cases:
//	  - {op: join, left: Dog, right: Animal, want: Animal}
//	  - {op: subtype, left: Dog, right: Animal, holds: true}
//	  - {op: expand, left: {name: list, args: [T]}, bindings: {T: int}, want: {name: list, args: [int]}}
package casefile

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/typelattice/internal/symbols"
	"github.com/funvibe/typelattice/internal/typespec"
	"github.com/funvibe/typelattice/internal/typesystem"
)

type Op string

const (
	OpJoin          Op = "join"
	OpMeet          Op = "meet"
	OpSubtype       Op = "subtype"
	OpProperSubtype Op = "proper_subtype"
	OpMorePrecise   Op = "more_precise"
	OpErase         Op = "erase"
	OpExpand        Op = "expand"
	OpReplaceVars   Op = "replace_vars"
)

// Ops lists every operation in a stable order.
var Ops = []Op{OpJoin, OpMeet, OpSubtype, OpProperSubtype, OpMorePrecise, OpErase, OpExpand, OpReplaceVars}

func (op Op) Valid() bool {
	for _, o := range Ops {
		if o == op {
			return true
		}
	}
	return false
}

// Binary reports whether the operation takes a right operand.
func (op Op) Binary() bool {
	switch op {
	case OpJoin, OpMeet, OpSubtype, OpProperSubtype, OpMorePrecise:
		return true
	}
	return false
}

// Predicate reports whether the operation yields a boolean.
func (op Op) Predicate() bool {
	switch op {
	case OpSubtype, OpProperSubtype, OpMorePrecise:
		return true
	}
	return false
}

// File is a decoded case file.
type File struct {
	// Vars are free type variables the cases may mention.
	Vars []typespec.VarSpec `yaml:"vars,omitempty"`
	// TypeVars and Classes are loaded into the class table before the
	// cases are resolved.
	TypeVars []typespec.VarSpec  `yaml:"type_vars,omitempty"`
	Classes  []symbols.ClassDecl `yaml:"classes,omitempty"`
	Cases    []Case              `yaml:"cases"`
}

// Case is one query. Predicates compare against Holds, every other
// operation against Want.
type Case struct {
	Name     string                   `yaml:"name,omitempty"`
	Op       Op                       `yaml:"op"`
	Left     typespec.Spec            `yaml:"left"`
	Right    *typespec.Spec           `yaml:"right,omitempty"`
	Bindings map[string]typespec.Spec `yaml:"bindings,omitempty"`
	Want     *typespec.Spec           `yaml:"want,omitempty"`
	Holds    *bool                    `yaml:"holds,omitempty"`

	// Line is the case's line in the source, 0 when unknown.
	Line int `yaml:"-"`
}

// Declarations returns the class declarations of the file.
func (f *File) Declarations() *symbols.Declarations {
	return &symbols.Declarations{TypeVars: f.TypeVars, Classes: f.Classes}
}

// Parse decodes a case file. Each case records its line.
func Parse(data []byte, path string) (*File, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	var f File
	if root.Kind == 0 {
		return &f, nil
	}
	if err := root.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cases := casesNode(&root); cases != nil && len(cases.Content) == len(f.Cases) {
		for i, n := range cases.Content {
			f.Cases[i].Line = n.Line
		}
	}
	return &f, nil
}

func casesNode(root *yaml.Node) *yaml.Node {
	doc := root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value == "cases" && doc.Content[i+1].Kind == yaml.SequenceNode {
			return doc.Content[i+1]
		}
	}
	return nil
}

// Label names a case for reports: its name when set, else the query.
func (c *Case) Label() string {
	if c.Name != "" {
		return c.Name
	}
	if c.Op.Binary() && c.Right != nil {
		return fmt.Sprintf("%s(%s, %s)", c.Op, c.Left, c.Right)
	}
	return fmt.Sprintf("%s(%s)", c.Op, c.Left)
}

// Result is the outcome of one case.
type Result struct {
	Index  int    `yaml:"index"`
	Label  string `yaml:"label"`
	Op     Op     `yaml:"op"`
	Got    string `yaml:"got"`
	Want   string `yaml:"want,omitempty"`
	Passed bool   `yaml:"passed"`
}

// Resolved is a case whose specs have been resolved against a class table.
// Right and Want are nil when the case has none.
type Resolved struct {
	Index    int // 1-based
	Case     *Case
	Left     typesystem.Type
	Right    typesystem.Type
	Want     typesystem.Type
	Bindings typesystem.Bindings
}
