package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/ltv-backend/internal/benchmark"
	"github.com/xtding233/ltv-backend/internal/tier"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "ltv.v1.Calculator"

// CalculatorServer is the gRPC surface. Requests and responses are
// google.protobuf.Struct values with the same field names as the JSON API.
type CalculatorServer interface {
	Basic(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Intermediate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Advanced(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Benchmark(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// CalculatorServiceDesc describes ltv.v1.Calculator for grpc.Server.
var CalculatorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CalculatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Basic", Handler: unaryHandler("Basic", CalculatorServer.Basic)},
		{MethodName: "Intermediate", Handler: unaryHandler("Intermediate", CalculatorServer.Intermediate)},
		{MethodName: "Advanced", Handler: unaryHandler("Advanced", CalculatorServer.Advanced)},
		{MethodName: "Benchmark", Handler: unaryHandler("Benchmark", CalculatorServer.Benchmark)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ltv/v1/calculator.proto",
}

// RegisterCalculatorServer registers srv on s.
func RegisterCalculatorServer(s grpc.ServiceRegistrar, srv CalculatorServer) {
	s.RegisterService(&CalculatorServiceDesc, srv)
}

type unaryMethod func(CalculatorServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call unaryMethod) grpc.MethodHandler {
	fullMethod := "/" + ServiceName + "/" + name
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CalculatorServer), ctx, req.(*structpb.Struct))
		}
		if interceptor == nil {
			return handler(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, handler)
	}
}

// calculator implements CalculatorServer on top of a Server's evaluator.
type calculator struct {
	s *Server
}

// NewGRPCServer creates a grpc.Server with the calculator registered and
// every call logged.
func NewGRPCServer(s *Server, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(logUnary(s.logger)))
	g := grpc.NewServer(opts...)
	RegisterCalculatorServer(g, &calculator{s: s})
	return g
}

func logUnary(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("grpc request",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration", time.Since(start),
		)
		return resp, err
	}
}

// fromStruct decodes a Struct into a Go input via its JSON form and validates it.
func fromStruct(in *structpb.Struct, out validator) error {
	b, err := protojson.Marshal(in)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	if err := out.Validate(); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

// toStruct encodes v as a Struct via its JSON form.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func reply(v any, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, status.Errorf(codes.Internal, "evaluation failed: %v", err)
	}
	return toStruct(v)
}

func (c *calculator) Basic(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in tier.BasicInput
	if err := fromStruct(req, &in); err != nil {
		return nil, err
	}
	return reply(c.s.Evaluator().Basic(in))
}

func (c *calculator) Intermediate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in tier.IntermediateInput
	if err := fromStruct(req, &in); err != nil {
		return nil, err
	}
	return reply(c.s.Evaluator().Intermediate(in))
}

func (c *calculator) Advanced(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in tier.AdvancedInput
	if err := fromStruct(req, &in); err != nil {
		return nil, err
	}
	return reply(c.s.Evaluator().Advanced(in))
}

type benchmarkRequest struct {
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
}

func (b benchmarkRequest) Validate() error {
	if b.Metric == "" {
		return errors.New("metric is required")
	}
	return nil
}

func (c *calculator) Benchmark(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in benchmarkRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, err
	}
	band, ok := benchmark.Classify(in.Metric, in.Value)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "unknown metric %q", in.Metric)
	}
	th, _ := benchmark.Lookup(in.Metric)
	return toStruct(map[string]any{
		"metric":     in.Metric,
		"value":      in.Value,
		"band":       band,
		"label":      band.Label(),
		"thresholds": th,
	})
}
