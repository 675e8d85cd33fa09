package service

import (
	"bytes"
	"context"
	"log"
	"net"
	"testing"

	"github.com/jhump/protoreflect/dynamic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/funvibe/typelattice/internal/casefile"
	"github.com/funvibe/typelattice/internal/journal"
	"github.com/funvibe/typelattice/internal/symbols"
	"github.com/funvibe/typelattice/internal/typespec"
)

const animals = `
classes:
  - {name: Animal}
  - {name: Dog, bases: [Animal]}
  - {name: Cat, bases: [Animal]}
  - {name: Box, params: [X], bases: [{name: typing.Iterable, args: [X]}]}
`

type harness struct {
	table   *symbols.ClassTable
	client  *Client
	conn    *grpc.ClientConn
	journal *journal.Journal
}

func newTable(t *testing.T) *symbols.ClassTable {
	t.Helper()
	table, err := symbols.NewPreludeTable()
	require.NoError(t, err)
	require.NoError(t, table.LoadDeclarations([]byte(animals), "animals.yaml"))
	return table
}

func startServer(t *testing.T) *harness {
	t.Helper()
	table := newTable(t)

	j, err := journal.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	srv, err := NewServer(table, WithJournal(j))
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx, lis) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-served)
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	client, err := NewClient(conn)
	require.NoError(t, err)
	return &harness{table: table, client: client, conn: conn, journal: j}
}

func spec(t *testing.T, text string) typespec.Spec {
	t.Helper()
	s, err := typespec.Parse(text)
	require.NoError(t, err)
	return s
}

func specPtr(t *testing.T, text string) *typespec.Spec {
	s := spec(t, text)
	return &s
}

func TestTypeQueries(t *testing.T) {
	h := startServer(t)

	tests := []struct {
		name     string
		req      Request
		wantText string
	}{
		{
			name:     "join siblings",
			req:      Request{Op: casefile.OpJoin, Left: spec(t, "Dog"), Right: specPtr(t, "Cat")},
			wantText: "Animal",
		},
		{
			name:     "join prelude",
			req:      Request{Op: casefile.OpJoin, Left: spec(t, "bool"), Right: specPtr(t, "int")},
			wantText: "builtins.int",
		},
		{
			name:     "meet unrelated",
			req:      Request{Op: casefile.OpMeet, Left: spec(t, "Dog"), Right: specPtr(t, "Cat")},
			wantText: "None",
		},
		{
			name:     "erase",
			req:      Request{Op: casefile.OpErase, Left: spec(t, "{name: Box, args: [Dog]}")},
			wantText: "Box[Any]",
		},
		{
			name: "expand",
			req: Request{
				Op:       casefile.OpExpand,
				Left:     spec(t, "{name: Box, args: [T]}"),
				Bindings: map[string]typespec.Spec{"T": spec(t, "Cat")},
				Vars:     []typespec.VarSpec{{Name: "T"}},
			},
			wantText: "Box[Cat]",
		},
		{
			name: "replace vars",
			req: Request{
				Op:   casefile.OpReplaceVars,
				Left: spec(t, "{kind: tuple, args: [T, Dog]}"),
				Vars: []typespec.VarSpec{{Name: "T"}},
			},
			wantText: "Tuple[Any, Dog]",
		},
		{
			name:     "unknown name",
			req:      Request{Op: casefile.OpReplaceVars, Left: spec(t, "{name: Box, args: [Foo]}")},
			wantText: "Box[Foo?]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, err := h.client.Do(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, reply.Text)
			assert.Equal(t, tt.wantText, reply.String())
			require.NotNil(t, reply.Type)
			assert.NotEmpty(t, reply.RequestID)
		})
	}
}

func TestPredicateQueries(t *testing.T) {
	h := startServer(t)

	tests := []struct {
		op          casefile.Op
		left, right string
		want        bool
	}{
		{casefile.OpSubtype, "Dog", "Animal", true},
		{casefile.OpSubtype, "Animal", "Dog", false},
		{casefile.OpSubtype, "{name: Box, args: [Dog]}", "{name: typing.Iterable, args: [Dog]}", true},
		{casefile.OpSubtype, "{name: Box, args: [Dog]}", "{name: typing.Iterable, args: [Animal]}", false},
		{casefile.OpProperSubtype, "Dog", "Dog", true},
		{casefile.OpProperSubtype, "Dog", "Any", false},
		{casefile.OpMorePrecise, "Dog", "Animal", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.op)+" "+tt.left+" "+tt.right, func(t *testing.T) {
			reply, err := h.client.Do(context.Background(), Request{Op: tt.op, Left: spec(t, tt.left), Right: specPtr(t, tt.right)})
			require.NoError(t, err)
			assert.Nil(t, reply.Type)
			assert.Equal(t, tt.want, reply.Holds)
		})
	}
}

func TestRejectedQueries(t *testing.T) {
	h := startServer(t)

	tests := []struct {
		name string
		req  Request
		code codes.Code
	}{
		{
			name: "cyclic bindings",
			req: Request{
				Op:   casefile.OpExpand,
				Left: spec(t, "{name: Box, args: [T]}"),
				Bindings: map[string]typespec.Spec{
					"T": spec(t, "{name: Box, args: [U]}"),
					"U": spec(t, "T"),
				},
				Vars: []typespec.VarSpec{{Name: "T"}, {Name: "U"}},
			},
			code: codes.InvalidArgument,
		},
		{
			name: "wrong arity",
			req:  Request{Op: casefile.OpJoin, Left: spec(t, "{name: Box, args: [Dog, Cat]}"), Right: specPtr(t, "Dog")},
			code: codes.InvalidArgument,
		},
		{
			name: "binding for undeclared variable",
			req: Request{
				Op:       casefile.OpExpand,
				Left:     spec(t, "Dog"),
				Bindings: map[string]typespec.Spec{"Q": spec(t, "Cat")},
			},
			code: codes.InvalidArgument,
		},
		{
			name: "duplicate variable",
			req: Request{
				Op:   casefile.OpErase,
				Left: spec(t, "Dog"),
				Vars: []typespec.VarSpec{{Name: "T"}, {Name: "T"}},
			},
			code: codes.InvalidArgument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.client.Do(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, status.Code(err))
		})
	}

	_, err := h.client.Do(context.Background(), Request{Op: "widen", Left: spec(t, "Dog")})
	assert.ErrorContains(t, err, "unknown operation")
	_, err = h.client.Do(context.Background(), Request{Op: casefile.OpJoin, Left: spec(t, "Dog")})
	assert.ErrorContains(t, err, "right operand")
}

func TestRequestsAreJournaled(t *testing.T) {
	h := startServer(t)
	ctx := context.Background()

	reply, err := h.client.Do(ctx, Request{Op: casefile.OpJoin, Left: spec(t, "Dog"), Right: specPtr(t, "Cat")})
	require.NoError(t, err)

	// rejected requests are not recorded
	_, err = h.client.Do(ctx, Request{Op: casefile.OpErase, Left: spec(t, "{name: Dog, args: [Cat]}")})
	require.Error(t, err)

	entries, err := h.journal.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, reply.RequestID, entries[0].ID)
	assert.Equal(t, "rpc", entries[0].Source)
	assert.Equal(t, "join", entries[0].Op)
	assert.Equal(t, "join(Dog, Cat)", entries[0].Query)
	assert.Equal(t, "Animal", entries[0].Result)
	assert.Nil(t, entries[0].Passed)
}

func TestRequestIDHeader(t *testing.T) {
	h := startServer(t)
	sd, err := Descriptor()
	require.NoError(t, err)
	md := sd.FindMethodByName("Erase")
	require.NotNil(t, md)

	in := dynamic.NewMessage(md.GetInputType())
	in.SetFieldByName("type", specToMessage(md.GetOutputType().FindFieldByName("type").GetMessageType(), spec(t, "Dog")))
	out := dynamic.NewMessage(md.GetOutputType())

	var header metadata.MD
	err = h.conn.Invoke(context.Background(), "/typelattice.v1.Lattice/Erase", in, out, grpc.Header(&header))
	require.NoError(t, err)
	require.Len(t, header.Get(RequestIDHeader), 1)
	assert.Equal(t, header.Get(RequestIDHeader)[0], stringField(out, "request_id"))
	assert.Equal(t, "Dog", stringField(out, "text"))
}

func TestSpecMessageRoundTrip(t *testing.T) {
	sd, err := Descriptor()
	require.NoError(t, err)
	td := sd.FindMethodByName("Join").GetInputType().FindFieldByName("left").GetMessageType()

	for _, text := range []string{
		"Dog",
		"{name: Box, args: [{kind: tuple, args: [A, B]}]}",
		"{kind: var, name: T, index: -2}",
		"{kind: callable, variables: [{name: V, values: [int, str]}], args: [V, int], arg_kinds: [pos, star], return: V}",
		"{kind: callable, type_object: true, return: Dog}",
	} {
		t.Run(text, func(t *testing.T) {
			want := spec(t, text)
			got, err := messageToSpec(specToMessage(td, want))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestOpForMethod(t *testing.T) {
	for _, op := range casefile.Ops {
		name, ok := methodNames[op]
		require.True(t, ok, "no method for %s", op)
		got, ok := opForMethod(name)
		require.True(t, ok)
		assert.Equal(t, op, got)
	}
	_, ok := opForMethod("Widen")
	assert.False(t, ok)
}

func TestMethods(t *testing.T) {
	methods, err := Methods()
	require.NoError(t, err)
	require.Len(t, methods, len(methodNames))
	assert.Equal(t, "Join", methods[0].GetName())
	assert.Equal(t, ".typelattice.v1.BinaryRequest", methods[0].GetInputType())
	assert.Equal(t, ".typelattice.v1.TypeReply", methods[0].GetOutputType())
}

func TestRequestScopesAreDropped(t *testing.T) {
	h := startServer(t)
	scopes := h.table.Scratch().Arena().Len()

	req := Request{
		Op:    casefile.OpSubtype,
		Left:  spec(t, "{kind: callable, variables: [V], args: [V], return: T}"),
		Right: specPtr(t, "Dog"),
		Vars:  []typespec.VarSpec{{Name: "T"}},
	}
	for i := 0; i < 5; i++ {
		reply, err := h.client.Do(context.Background(), req)
		require.NoError(t, err)
		assert.False(t, reply.Holds)
	}
	assert.Equal(t, scopes, h.table.Scratch().Arena().Len())
}

func TestHeaderErrorIsLogged(t *testing.T) {
	var logs bytes.Buffer
	srv, err := NewServer(newTable(t), WithLogger(log.New(&logs, "", 0)))
	require.NoError(t, err)
	sd, err := Descriptor()
	require.NoError(t, err)
	md := sd.FindMethodByName("Erase")
	require.NotNil(t, md)

	in := dynamic.NewMessage(md.GetInputType())
	in.SetFieldByName("type", specToMessage(md.GetOutputType().FindFieldByName("type").GetMessageType(), spec(t, "Dog")))

	// outside a gRPC stream there is nowhere to send the header
	out, err := srv.handleUnary(context.Background(), md, in)
	require.NoError(t, err)
	assert.Equal(t, "Dog", stringField(out.(*dynamic.Message), "text"))
	assert.Contains(t, logs.String(), " header: ")
}
