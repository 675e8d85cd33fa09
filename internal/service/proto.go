package service

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/funvibe/typelattice/internal/casefile"
	"github.com/funvibe/typelattice/internal/config"
	"github.com/funvibe/typelattice/internal/typespec"
)

const protoFile = "typelattice/v1/lattice.proto"

//go:embed lattice.proto
var protoSource string

var (
	descOnce    sync.Once
	latticeDesc *desc.ServiceDescriptor
	descErr     error
)

// Descriptor returns the parsed Lattice service descriptor.
func Descriptor() (*desc.ServiceDescriptor, error) {
	descOnce.Do(func() {
		parser := protoparse.Parser{
			Accessor: protoparse.FileContentsFromMap(map[string]string{protoFile: protoSource}),
		}
		fds, err := parser.ParseFiles(protoFile)
		if err != nil {
			descErr = fmt.Errorf("failed to parse proto: %w", err)
			return
		}
		sd := fds[0].FindService(config.DefaultServiceName)
		if sd == nil {
			descErr = fmt.Errorf("service %s not found in %s", config.DefaultServiceName, protoFile)
			return
		}
		latticeDesc = sd
	})
	return latticeDesc, descErr
}

// Methods returns the service's RPC declarations in proto order.
func Methods() ([]*descriptorpb.MethodDescriptorProto, error) {
	sd, err := Descriptor()
	if err != nil {
		return nil, err
	}
	return sd.AsServiceDescriptorProto().GetMethod(), nil
}

// RPC method names by operation.
var methodNames = map[casefile.Op]string{
	casefile.OpJoin:          "Join",
	casefile.OpMeet:          "Meet",
	casefile.OpSubtype:       "IsSubtype",
	casefile.OpProperSubtype: "IsProperSubtype",
	casefile.OpMorePrecise:   "IsMorePrecise",
	casefile.OpErase:         "Erase",
	casefile.OpExpand:        "Expand",
	casefile.OpReplaceVars:   "ReplaceTypeVars",
}

func opForMethod(name string) (casefile.Op, bool) {
	for op, m := range methodNames {
		if m == name {
			return op, true
		}
	}
	return "", false
}

// specToMessage builds a Type message. md is the Type descriptor.
func specToMessage(md *desc.MessageDescriptor, s typespec.Spec) *dynamic.Message {
	m := dynamic.NewMessage(md)
	if s.Kind != "" {
		m.SetFieldByName("kind", s.Kind)
	}
	if s.Name != "" {
		m.SetFieldByName("name", s.Name)
	}
	if s.Index != 0 {
		m.SetFieldByName("index", int32(s.Index))
	}
	for _, a := range s.Args {
		m.AddRepeatedFieldByName("args", specToMessage(md, a))
	}
	for _, k := range s.ArgKinds {
		m.AddRepeatedFieldByName("arg_kinds", k)
	}
	if s.Return != nil {
		m.SetFieldByName("return_type", specToMessage(md, *s.Return))
	}
	if s.TypeObject {
		m.SetFieldByName("type_object", true)
	}
	if len(s.Variables) > 0 {
		vd := md.FindFieldByName("variables").GetMessageType()
		for _, v := range s.Variables {
			m.AddRepeatedFieldByName("variables", varToMessage(vd, md, v))
		}
	}
	return m
}

// varToMessage builds a TypeVar message; td is the Type descriptor.
func varToMessage(vd, td *desc.MessageDescriptor, v typespec.VarSpec) *dynamic.Message {
	m := dynamic.NewMessage(vd)
	m.SetFieldByName("name", v.Name)
	for _, val := range v.Values {
		m.AddRepeatedFieldByName("values", specToMessage(td, val))
	}
	return m
}

func messageToSpec(m *dynamic.Message) (typespec.Spec, error) {
	s := typespec.Spec{
		Kind:       stringField(m, "kind"),
		Name:       stringField(m, "name"),
		TypeObject: boolField(m, "type_object"),
	}
	if idx, ok := m.GetFieldByName("index").(int32); ok {
		s.Index = int(idx)
	}
	args, err := repeatedMessages(m, "args")
	if err != nil {
		return typespec.Spec{}, err
	}
	for _, a := range args {
		as, err := messageToSpec(a)
		if err != nil {
			return typespec.Spec{}, err
		}
		s.Args = append(s.Args, as)
	}
	for _, k := range repeatedValues(m, "arg_kinds") {
		name, ok := k.(string)
		if !ok {
			return typespec.Spec{}, fmt.Errorf("arg_kinds: unexpected %T", k)
		}
		s.ArgKinds = append(s.ArgKinds, name)
	}
	if ret := messageField(m, "return_type"); ret != nil {
		rs, err := messageToSpec(ret)
		if err != nil {
			return typespec.Spec{}, err
		}
		s.Return = &rs
	}
	if s.Variables, err = varsFromMessage(m, "variables"); err != nil {
		return typespec.Spec{}, err
	}
	return s, nil
}

func varsFromMessage(m *dynamic.Message, field string) ([]typespec.VarSpec, error) {
	msgs, err := repeatedMessages(m, field)
	if err != nil {
		return nil, err
	}
	var vars []typespec.VarSpec
	for _, vm := range msgs {
		v := typespec.VarSpec{Name: stringField(vm, "name")}
		values, err := repeatedMessages(vm, "values")
		if err != nil {
			return nil, err
		}
		for _, val := range values {
			vs, err := messageToSpec(val)
			if err != nil {
				return nil, err
			}
			v.Values = append(v.Values, vs)
		}
		vars = append(vars, v)
	}
	return vars, nil
}

func stringField(m *dynamic.Message, name string) string {
	s, _ := m.GetFieldByName(name).(string)
	return s
}

func boolField(m *dynamic.Message, name string) bool {
	b, _ := m.GetFieldByName(name).(bool)
	return b
}

// messageField returns a set message field, or nil.
func messageField(m *dynamic.Message, name string) *dynamic.Message {
	if !m.HasFieldName(name) {
		return nil
	}
	sub, _ := m.GetFieldByName(name).(*dynamic.Message)
	return sub
}

func repeatedValues(m *dynamic.Message, name string) []interface{} {
	vals, _ := m.GetFieldByName(name).([]interface{})
	return vals
}

func repeatedMessages(m *dynamic.Message, name string) ([]*dynamic.Message, error) {
	vals := repeatedValues(m, name)
	out := make([]*dynamic.Message, 0, len(vals))
	for _, v := range vals {
		sub, ok := v.(*dynamic.Message)
		if !ok {
			return nil, fmt.Errorf("%s: unexpected %T", name, v)
		}
		out = append(out, sub)
	}
	return out, nil
}
