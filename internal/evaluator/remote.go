package evaluator

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// #region constants
const (
	serviceName    = "martis.evaluator.v1.Evaluator"
	evaluateMethod = "/" + serviceName + "/Evaluate"
)

// #endregion constants

// #region client
// Remote calls an Evaluator served over gRPC.
type Remote struct {
	cc   grpc.ClientConnInterface
	conn *grpc.ClientConn
}

// NewRemote dials addr without transport security.
func NewRemote(addr string) (*Remote, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &Remote{cc: conn, conn: conn}, nil
}

// NewRemoteWithConn wraps an existing connection. Close is a no-op for it.
func NewRemoteWithConn(cc grpc.ClientConnInterface) *Remote {
	return &Remote{cc: cc}
}

func (r *Remote) Evaluate(ctx context.Context, program string) (float64, error) {
	out := new(wrapperspb.DoubleValue)
	if err := r.cc.Invoke(ctx, evaluateMethod, wrapperspb.String(program), out); err != nil {
		if status.Code(err) == codes.OutOfRange {
			return 0, fmt.Errorf("%w: evaluate rpc: %v", ErrScoreOutOfRange, err)
		}
		return 0, fmt.Errorf("%w: evaluate rpc: %w", ErrEvaluatorFailure, err)
	}
	return out.GetValue(), nil
}

func (r *Remote) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}

// #endregion client

// #region server
// EvaluatorServer is the server side of the Evaluate RPC.
type EvaluatorServer interface {
	Evaluate(context.Context, *wrapperspb.StringValue) (*wrapperspb.DoubleValue, error)
}

type server struct {
	ev Evaluator
}

func (s *server) Evaluate(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.DoubleValue, error) {
	score, err := s.ev.Evaluate(ctx, in.GetValue())
	if err != nil {
		return nil, status.Error(codeFor(err), err.Error())
	}
	return wrapperspb.Double(score), nil
}

func codeFor(err error) codes.Code {
	switch {
	case errors.Is(err, ErrScoreOutOfRange):
		return codes.OutOfRange
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	default:
		return codes.Internal
	}
}

func evaluateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EvaluatorServer).Evaluate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: evaluateMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(EvaluatorServer).Evaluate(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*EvaluatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: evaluateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "martis/evaluator/v1/evaluator.proto",
}

// Register exposes ev on s.
func Register(s grpc.ServiceRegistrar, ev Evaluator) {
	s.RegisterService(&serviceDesc, &server{ev: ev})
}

// NewServer returns a gRPC server with ev registered.
func NewServer(ev Evaluator, opts ...grpc.ServerOption) *grpc.Server {
	s := grpc.NewServer(opts...)
	Register(s, ev)
	return s
}

// #endregion server
