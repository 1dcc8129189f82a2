package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"omega/internal/domain"
	"omega/internal/domain/stone"
	errs "omega/internal/errors"
	analysisRPC "omega/microservices/proto"
)

type EngineStore interface {
	ClearBoard() error
	PlayMove(color stone.Stone, move string) error
	Heatmap(ctx context.Context) (*domain.Heatmap, error)
	Genmove(color stone.Stone) (<-chan domain.GenmoveResult, error)
}

// AnalysisUseCase serves stateless requests: every call sets the engine up
// from the moves it carries. Calls are serialized since the engine holds a
// single position.
type AnalysisUseCase struct {
	mu    sync.Mutex
	log   *zap.SugaredLogger
	store EngineStore
}

func NewAnalysisUseCase(log *zap.SugaredLogger, store EngineStore) *AnalysisUseCase {
	return &AnalysisUseCase{log: log, store: store}
}

func (a *AnalysisUseCase) Heatmap(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	pos, err := analysisRPC.DecodePosition(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.setup(pos.Moves); err != nil {
		return nil, err
	}
	h, err := a.store.Heatmap(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return analysisRPC.EncodeHeatmap(h)
}

func (a *AnalysisUseCase) GenerateMove(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	pos, err := analysisRPC.DecodePosition(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	color, ok := stone.Parse(pos.Color)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "unknown color %q", pos.Color)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.setup(pos.Moves); err != nil {
		return nil, err
	}
	ch, err := a.store.Genmove(color)
	if err != nil {
		return nil, toStatus(err)
	}
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, toStatus(res.Err)
		}
		a.log.Infow("remote genmove", "color", res.Color, "move", res.Move)
		return analysisRPC.EncodeMove(res.Move), nil
	case <-ctx.Done():
		return nil, status.FromContextError(ctx.Err()).Err()
	}
}

// setup replays moves given as "B Q16" on a cleared engine.
func (a *AnalysisUseCase) setup(moves []string) error {
	if err := a.store.ClearBoard(); err != nil {
		return toStatus(err)
	}
	for _, m := range moves {
		letter, move, ok := strings.Cut(m, " ")
		color, okColor := stone.Parse(letter)
		if !ok || !okColor {
			return status.Errorf(codes.InvalidArgument, "malformed move %q", m)
		}
		if err := a.store.PlayMove(color, move); err != nil {
			return toStatus(err)
		}
	}
	return nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, errs.ErrEngineUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, errs.ErrHeatmapInFlight), errors.Is(err, errs.ErrGenmoveInFlight):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, errs.ErrHeatmapAborted):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return status.FromContextError(err).Err()
	}
	return status.Error(codes.Internal, err.Error())
}
