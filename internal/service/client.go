package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/funvibe/typelattice/internal/casefile"
	"github.com/funvibe/typelattice/internal/typespec"
)

// Client invokes the Lattice service with dynamic messages.
type Client struct {
	conn  *grpc.ClientConn
	sd    *desc.ServiceDescriptor
	owned bool
}

// Dial connects to a service at addr without transport security.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	c, err := NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	c.owned = true
	return c, nil
}

// NewClient wraps an existing connection. Close does not close conn.
func NewClient(conn *grpc.ClientConn) (*Client, error) {
	sd, err := Descriptor()
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, sd: sd}, nil
}

func (c *Client) Close() error {
	if c.owned {
		return c.conn.Close()
	}
	return nil
}

// Request is one query. Right is used by the binary operations and
// Bindings by expand.
type Request struct {
	Op       casefile.Op
	Left     typespec.Spec
	Right    *typespec.Spec
	Bindings map[string]typespec.Spec
	Vars     []typespec.VarSpec
}

// Reply is the service's answer. Type and Text are set for type-valued
// operations, Holds for predicates.
type Reply struct {
	RequestID string
	Type      *typespec.Spec
	Text      string
	Holds     bool
}

func (r Reply) String() string {
	if r.Type == nil {
		return fmt.Sprint(r.Holds)
	}
	return r.Text
}

// Do sends req and waits for the reply.
func (c *Client) Do(ctx context.Context, req Request) (Reply, error) {
	name, ok := methodNames[req.Op]
	if !ok {
		return Reply{}, fmt.Errorf("unknown operation %q", req.Op)
	}
	md := c.sd.FindMethodByName(name)
	if md == nil {
		return Reply{}, fmt.Errorf("method %s not found", name)
	}

	in := dynamic.NewMessage(md.GetInputType())
	td := md.GetInputType().FindFieldByName("vars").GetMessageType().FindFieldByName("values").GetMessageType()
	if req.Op.Binary() {
		if req.Right == nil {
			return Reply{}, fmt.Errorf("%s requires a right operand", req.Op)
		}
		in.SetFieldByName("left", specToMessage(td, req.Left))
		in.SetFieldByName("right", specToMessage(td, *req.Right))
	} else {
		in.SetFieldByName("type", specToMessage(td, req.Left))
	}
	vd := md.GetInputType().FindFieldByName("vars").GetMessageType()
	for _, v := range req.Vars {
		in.AddRepeatedFieldByName("vars", varToMessage(vd, td, v))
	}
	if req.Op == casefile.OpExpand && len(req.Bindings) > 0 {
		bd := md.GetInputType().FindFieldByName("bindings").GetMessageType()
		names := make([]string, 0, len(req.Bindings))
		for name := range req.Bindings {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			b := dynamic.NewMessage(bd)
			b.SetFieldByName("var", name)
			b.SetFieldByName("value", specToMessage(td, req.Bindings[name]))
			in.AddRepeatedFieldByName("bindings", b)
		}
	}

	out := dynamic.NewMessage(md.GetOutputType())
	method := "/" + c.sd.GetFullyQualifiedName() + "/" + name
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		return Reply{}, err
	}

	reply := Reply{RequestID: stringField(out, "request_id")}
	if req.Op.Predicate() {
		reply.Holds = boolField(out, "holds")
		return reply, nil
	}
	if tm := messageField(out, "type"); tm != nil {
		spec, err := messageToSpec(tm)
		if err != nil {
			return Reply{}, err
		}
		reply.Type = &spec
	}
	reply.Text = stringField(out, "text")
	return reply, nil
}
