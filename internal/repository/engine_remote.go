package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"omega/internal/bootstrap"
	"omega/internal/domain"
	"omega/internal/domain/coord"
	"omega/internal/domain/stone"
	errs "omega/internal/errors"
	analysisRPC "omega/microservices/proto"
)

// RemoteEngine talks to an analysis service over gRPC. The service keeps no
// state between calls, so the position is kept here as a list of moves and
// sent with every request. Pondering is not available remotely.
type RemoteEngine struct {
	mu      sync.Mutex
	log     *zap.SugaredLogger
	conn    *grpc.ClientConn
	client  analysisRPC.AnalysisClient
	timeout time.Duration
	moves   []string
	genmove bool
}

func NewRemoteEngine(cfg *bootstrap.Config, log *zap.SugaredLogger) (*RemoteEngine, error) {
	conn, err := grpc.NewClient(cfg.EngineAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrEngineUnavailable, err)
	}
	log.Infow("using remote engine", "addr", cfg.EngineAddr)
	return newRemoteEngine(conn, log, cfg.RequestTimeout()), nil
}

func newRemoteEngine(conn *grpc.ClientConn, log *zap.SugaredLogger, timeout time.Duration) *RemoteEngine {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &RemoteEngine{
		log:     log,
		conn:    conn,
		client:  analysisRPC.NewAnalysisClient(conn),
		timeout: timeout,
	}
}

func (r *RemoteEngine) Close() error {
	return r.conn.Close()
}

func (r *RemoteEngine) PlayMove(color stone.Stone, move string) error {
	if !color.IsColor() {
		return fmt.Errorf("%w: color %v", errs.ErrIllegalMove, color)
	}
	r.mu.Lock()
	r.moves = append(r.moves, color.Letter()+" "+move)
	r.mu.Unlock()
	return nil
}

func (r *RemoteEngine) Undo() error {
	r.mu.Lock()
	if len(r.moves) > 0 {
		r.moves = r.moves[:len(r.moves)-1]
	}
	r.mu.Unlock()
	return nil
}

func (r *RemoteEngine) ClearBoard() error {
	r.mu.Lock()
	r.moves = nil
	r.mu.Unlock()
	return nil
}

func (r *RemoteEngine) TogglePonder() (bool, error) {
	return false, fmt.Errorf("%w: pondering needs a local engine", errs.ErrEngineUnavailable)
}

func (r *RemoteEngine) IsPondering() bool { return false }

func (r *RemoteEngine) BestMoves() []domain.MoveData { return nil }

func (r *RemoteEngine) position(color string) analysisRPC.Position {
	r.mu.Lock()
	defer r.mu.Unlock()
	return analysisRPC.Position{Moves: append([]string(nil), r.moves...), Color: color}
}

func (r *RemoteEngine) Heatmap(ctx context.Context) (*domain.Heatmap, error) {
	in, err := analysisRPC.EncodePosition(r.position(""))
	if err != nil {
		return nil, err
	}
	out, err := r.client.Heatmap(ctx, in)
	if err != nil {
		return nil, fromStatus(err)
	}
	h := analysisRPC.DecodeHeatmap(out)
	if len(h.Probabilities) != coord.Cells {
		return nil, fmt.Errorf("%w: remote heatmap has %d points", errs.ErrHeatmapAborted, len(h.Probabilities))
	}
	return h, nil
}

// Genmove asks the service for a move in the background. Once it arrives the
// move is added to the local line, the way the engine itself plays it.
func (r *RemoteEngine) Genmove(color stone.Stone) (<-chan domain.GenmoveResult, error) {
	r.mu.Lock()
	if r.genmove {
		r.mu.Unlock()
		return nil, errs.ErrGenmoveInFlight
	}
	r.genmove = true
	r.mu.Unlock()

	in, err := analysisRPC.EncodePosition(r.position(color.Letter()))
	if err != nil {
		r.mu.Lock()
		r.genmove = false
		r.mu.Unlock()
		return nil, err
	}

	ch := make(chan domain.GenmoveResult, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		res := domain.GenmoveResult{Color: color.Letter()}
		out, err := r.client.GenerateMove(ctx, in)
		r.mu.Lock()
		r.genmove = false
		if err != nil {
			res.Err = fromStatus(err)
		} else {
			res.Move = analysisRPC.DecodeMove(out)
			if res.Move != "resign" {
				r.moves = append(r.moves, color.Letter()+" "+res.Move)
			}
		}
		r.mu.Unlock()
		ch <- res
	}()
	return ch, nil
}

func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unavailable:
		return fmt.Errorf("%w: %s", errs.ErrEngineUnavailable, st.Message())
	case codes.ResourceExhausted:
		return fmt.Errorf("%w: %s", errs.ErrHeatmapInFlight, st.Message())
	case codes.Aborted:
		return fmt.Errorf("%w: %s", errs.ErrHeatmapAborted, st.Message())
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	case codes.Canceled:
		return context.Canceled
	}
	return fmt.Errorf("%w: %s", errs.ErrInternal, st.Message())
}
