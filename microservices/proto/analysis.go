// Package proto describes the remote analysis service. Messages are
// google.protobuf.Struct values, so no generated code is needed.
package proto

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"omega/internal/domain"
)

const (
	ServiceName = "omega.Analysis"

	heatmapMethod  = "/omega.Analysis/Heatmap"
	genmoveMethod  = "/omega.Analysis/GenerateMove"
	analysisSource = "analysis.proto"
)

type AnalysisServer interface {
	Heatmap(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	GenerateMove(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

type AnalysisClient interface {
	Heatmap(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GenerateMove(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type analysisClient struct {
	cc grpc.ClientConnInterface
}

func NewAnalysisClient(cc grpc.ClientConnInterface) AnalysisClient {
	return &analysisClient{cc: cc}
}

func (c *analysisClient) Heatmap(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, heatmapMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *analysisClient) GenerateMove(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, genmoveMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterAnalysisServer(s grpc.ServiceRegistrar, srv AnalysisServer) {
	s.RegisterService(&analysisServiceDesc, srv)
}

var analysisServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AnalysisServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Heatmap", Handler: unaryHandler(heatmapMethod, AnalysisServer.Heatmap)},
		{MethodName: "GenerateMove", Handler: unaryHandler(genmoveMethod, AnalysisServer.GenerateMove)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: analysisSource,
}

func unaryHandler(method string, call func(AnalysisServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AnalysisServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AnalysisServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Position is a request body: the moves leading to a position, each as
// "B Q16" or "W pass", and the color to generate a move for.
type Position struct {
	Moves []string
	Color string
}

func EncodePosition(p Position) (*structpb.Struct, error) {
	moves := make([]any, len(p.Moves))
	for i, m := range p.Moves {
		moves[i] = m
	}
	return structpb.NewStruct(map[string]any{
		"moves": moves,
		"color": p.Color,
	})
}

func DecodePosition(s *structpb.Struct) (Position, error) {
	var p Position
	for _, v := range s.GetFields()["moves"].GetListValue().GetValues() {
		m, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return Position{}, fmt.Errorf("move %v is not a string", v)
		}
		p.Moves = append(p.Moves, m.StringValue)
	}
	p.Color = s.GetFields()["color"].GetStringValue()
	return p, nil
}

func EncodeHeatmap(h *domain.Heatmap) (*structpb.Struct, error) {
	probs := make([]any, len(h.Probabilities))
	for i, v := range h.Probabilities {
		probs[i] = v
	}
	return structpb.NewStruct(map[string]any{
		"probabilities": probs,
		"pass":          h.PassProbability,
		"winrate":       h.Winrate,
	})
}

func DecodeHeatmap(s *structpb.Struct) *domain.Heatmap {
	f := s.GetFields()
	values := f["probabilities"].GetListValue().GetValues()
	h := &domain.Heatmap{
		Probabilities:   make([]float64, len(values)),
		PassProbability: f["pass"].GetNumberValue(),
		Winrate:         f["winrate"].GetNumberValue(),
	}
	for i, v := range values {
		h.Probabilities[i] = v.GetNumberValue()
	}
	return h
}

func EncodeMove(move string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"move": structpb.NewStringValue(move),
	}}
}

func DecodeMove(s *structpb.Struct) string {
	return s.GetFields()["move"].GetStringValue()
}
