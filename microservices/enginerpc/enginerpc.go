// Package enginerpc is the wire contract of the engine microservice. Messages
// are google.protobuf.Struct values so the service needs no generated code.
package enginerpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
)

const (
	ServiceName    = "rookify.engine.v1.EngineService"
	EvaluateMethod = "/rookify.engine.v1.EngineService/Evaluate"
)

type EngineServiceServer interface {
	Evaluate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

type EngineServiceClient interface {
	Evaluate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

func RegisterEngineServiceServer(s grpc.ServiceRegistrar, srv EngineServiceServer) {
	s.RegisterService(&EngineService_ServiceDesc, srv)
}

func evaluateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EngineServiceServer).Evaluate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: EvaluateMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(EngineServiceServer).Evaluate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var EngineService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EngineServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Evaluate",
			Handler:    evaluateHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rookify/engine/v1/engine.proto",
}

type engineServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewEngineServiceClient(cc grpc.ClientConnInterface) EngineServiceClient {
	return &engineServiceClient{cc: cc}
}

func (c *engineServiceClient) Evaluate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, EvaluateMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// -----------------------------------------------------
// Message helpers
// -----------------------------------------------------

func NewEvaluateRequest(fen string, depth int) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"fen":   fen,
		"depth": depth,
	})
}

func ParseEvaluateRequest(in *structpb.Struct) (fen string, depth int, err error) {
	fields := in.GetFields()
	fen = fields["fen"].GetStringValue()
	depth = int(fields["depth"].GetNumberValue())
	if fen == "" {
		return "", 0, fmt.Errorf("fen is required")
	}
	if depth < 1 {
		return "", 0, fmt.Errorf("depth must be positive, got %d", depth)
	}
	return fen, depth, nil
}

func NewEvaluateResponse(raw analysis.RawEvaluation) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"best_move":   raw.BestMove,
		"score_type":  string(raw.ScoreType),
		"score_value": raw.ScoreValue,
		"depth":       raw.Depth,
	})
}

func ParseEvaluateResponse(out *structpb.Struct) (analysis.RawEvaluation, error) {
	fields := out.GetFields()
	raw := analysis.RawEvaluation{
		BestMove:   fields["best_move"].GetStringValue(),
		ScoreType:  analysis.ScoreType(fields["score_type"].GetStringValue()),
		ScoreValue: int(fields["score_value"].GetNumberValue()),
		Depth:      int(fields["depth"].GetNumberValue()),
	}
	switch raw.ScoreType {
	case analysis.ScoreCp, analysis.ScoreMate:
	default:
		return analysis.RawEvaluation{}, fmt.Errorf("unknown score type %q", raw.ScoreType)
	}
	return raw, nil
}
