// Package service exposes the lattice operations over gRPC. Messages are
// dynamic, built from the embedded lattice.proto at start-up.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"

	"github.com/google/uuid"
	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/funvibe/typelattice/internal/casefile"
	"github.com/funvibe/typelattice/internal/evaluator"
	"github.com/funvibe/typelattice/internal/journal"
	"github.com/funvibe/typelattice/internal/symbols"
	"github.com/funvibe/typelattice/internal/typespec"
	"github.com/funvibe/typelattice/internal/typesystem"
)

// RequestIDHeader carries the request ID in the response header.
const RequestIDHeader = "x-request-id"

// Server answers lattice queries against a loaded class table.
type Server struct {
	table   *symbols.ClassTable
	basic   typesystem.BasicTypes
	sd      *desc.ServiceDescriptor
	journal *journal.Journal
	logger  *log.Logger
}

type Option func(*Server)

// WithJournal records every answered request.
func WithJournal(j *journal.Journal) Option {
	return func(s *Server) { s.journal = j }
}

// WithLogger sets the request logger. The default discards.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func NewServer(table *symbols.ClassTable, opts ...Option) (*Server, error) {
	sd, err := Descriptor()
	if err != nil {
		return nil, err
	}
	basic, err := table.Basic()
	if err != nil {
		return nil, err
	}
	s := &Server{
		table:  table,
		basic:  basic,
		sd:     sd,
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ServiceDesc builds the grpc.ServiceDesc of the Lattice service with a
// unary handler per method.
func (s *Server) ServiceDesc() *grpc.ServiceDesc {
	gsd := &grpc.ServiceDesc{
		ServiceName: s.sd.GetFullyQualifiedName(),
		HandlerType: (*interface{})(nil),
		Methods:     []grpc.MethodDesc{},
		Streams:     []grpc.StreamDesc{},
		Metadata:    s.sd.GetFile().GetName(),
	}
	for _, method := range s.sd.GetMethods() {
		md := method
		fullMethod := "/" + gsd.ServiceName + "/" + md.GetName()
		gsd.Methods = append(gsd.Methods, grpc.MethodDesc{
			MethodName: md.GetName(),
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				in := dynamic.NewMessage(md.GetInputType())
				if err := dec(in); err != nil {
					return nil, err
				}
				h := srv.(*Server)
				if interceptor == nil {
					return h.handleUnary(ctx, md, in)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
				return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
					return h.handleUnary(ctx, md, req.(*dynamic.Message))
				})
			},
		})
	}
	return gsd
}

// Register adds the service to a gRPC server.
func (s *Server) Register(r grpc.ServiceRegistrar) {
	r.RegisterService(s.ServiceDesc(), s)
}

// Serve runs a gRPC server on lis until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, lis net.Listener, opts ...grpc.ServerOption) error {
	gs := grpc.NewServer(opts...)
	s.Register(gs)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			gs.GracefulStop()
		case <-done:
		}
	}()

	s.logger.Printf("serving %s on %s", s.sd.GetFullyQualifiedName(), lis.Addr())
	if err := gs.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (s *Server) handleUnary(ctx context.Context, md *desc.MethodDescriptor, in *dynamic.Message) (interface{}, error) {
	id := uuid.NewString()
	if err := grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, id)); err != nil {
		s.logger.Printf("%s header: %v", id, err)
	}

	op, ok := opForMethod(md.GetName())
	if !ok {
		return nil, status.Errorf(codes.Unimplemented, "method %s is not implemented", md.GetName())
	}
	q, text, err := s.decodeQuery(op, in)
	if err != nil {
		s.logger.Printf("%s %s rejected: %v", id, md.GetName(), err)
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	outcome, err := evaluator.Apply(q, s.basic)
	switch {
	case err == nil:
	case evaluator.IsLawError(err):
		s.logger.Printf("%s %s: %v", id, md.GetName(), err)
	default:
		s.logger.Printf("%s %s rejected: %v", id, md.GetName(), err)
		var cyc *typesystem.CyclicBindingError
		if errors.As(err, &cyc) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	s.logger.Printf("%s %s -> %s", id, text, outcome)

	if s.journal != nil {
		_, jerr := s.journal.Record(ctx, journal.Entry{
			ID:     id,
			Source: "rpc",
			Op:     string(op),
			Query:  text,
			Result: outcome.String(),
		})
		if jerr != nil {
			s.logger.Printf("%s journal: %v", id, jerr)
		}
	}

	out := dynamic.NewMessage(md.GetOutputType())
	out.SetFieldByName("request_id", id)
	if op.Predicate() {
		out.SetFieldByName("holds", outcome.Holds)
		return out, nil
	}
	td := md.GetOutputType().FindFieldByName("type").GetMessageType()
	out.SetFieldByName("type", specToMessage(td, typespec.FromType(outcome.Type)))
	out.SetFieldByName("text", outcome.Type.String())
	return out, nil
}

// decodeQuery resolves the request operands. Scopes for the request's free
// variables and generic callables come from a scratch arena that is dropped
// with the request.
func (s *Server) decodeQuery(op casefile.Op, in *dynamic.Message) (evaluator.Query, string, error) {
	vars, err := varsFromMessage(in, "vars")
	if err != nil {
		return evaluator.Query{}, "", err
	}
	scratch := s.table.Scratch()
	defs, err := typespec.DeclareVars(scratch, "request", vars)
	if err != nil {
		return evaluator.Query{}, "", err
	}
	scope := typespec.WithTypeVars(scratch, defs)

	resolve := func(field string) (typesystem.Type, typespec.Spec, error) {
		m := messageField(in, field)
		if m == nil {
			return nil, typespec.Spec{}, fmt.Errorf("%w: %s is required", typespec.ErrInvalidSpec, field)
		}
		spec, err := messageToSpec(m)
		if err != nil {
			return nil, typespec.Spec{}, err
		}
		t, err := typespec.Resolve(spec, scope)
		return t, spec, err
	}

	q := evaluator.Query{Op: op}
	if op.Binary() {
		left, ls, err := resolve("left")
		if err != nil {
			return q, "", err
		}
		right, rs, err := resolve("right")
		if err != nil {
			return q, "", err
		}
		q.Left, q.Right = left, right
		return q, fmt.Sprintf("%s(%s, %s)", op, ls, rs), nil
	}

	t, spec, err := resolve("type")
	if err != nil {
		return q, "", err
	}
	q.Left = t
	if op == casefile.OpExpand {
		bindings, err := repeatedMessages(in, "bindings")
		if err != nil {
			return q, "", err
		}
		q.Bindings = make(typesystem.Bindings, len(bindings))
		for _, b := range bindings {
			name := stringField(b, "var")
			d, ok := scope.LookupTypeVar(name)
			if !ok {
				return q, "", fmt.Errorf("%w: binding for unknown type variable %q", typespec.ErrInvalidSpec, name)
			}
			value := messageField(b, "value")
			if value == nil {
				return q, "", fmt.Errorf("%w: binding for %s has no value", typespec.ErrInvalidSpec, name)
			}
			vs, err := messageToSpec(value)
			if err != nil {
				return q, "", err
			}
			if q.Bindings[d.ID], err = typespec.Resolve(vs, scope); err != nil {
				return q, "", err
			}
		}
	}
	return q, fmt.Sprintf("%s(%s)", op, spec), nil
}
