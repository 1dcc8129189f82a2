package repository

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"omega/internal/bootstrap"
	"omega/internal/domain"
	"omega/internal/domain/coord"
	"omega/internal/domain/stone"
	errs "omega/internal/errors"
	analysisRPC "omega/microservices/proto"
	"omega/microservices/usecase"
)

// startRemote serves the engine behind f over an in-memory gRPC connection.
func startRemote(t *testing.T, f *fakeProcess) *RemoteEngine {
	t.Helper()
	log := zaptest.NewLogger(t).Sugar()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	analysisRPC.RegisterAnalysisServer(srv, usecase.NewAnalysisUseCase(log, f.client))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	r := newRemoteEngine(conn, log, waitTimeout)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRemoteHeatmapReplaysTheLine(t *testing.T) {
	f := startFakeProcess(t, 0)
	r := startRemote(t, f)

	r.PlayMove(stone.Black, "Q16")
	r.PlayMove(stone.White, "D4")
	r.Undo()
	r.PlayMove(stone.White, "C3")

	type result struct {
		h   *domain.Heatmap
		err error
	}
	done := make(chan result, 1)
	go func() {
		h, err := r.Heatmap(context.Background())
		done <- result{h, err}
	}()

	f.expect("clear_board")
	f.expect("play B Q16")
	f.expect("play W C3")
	f.expect("heatmap")
	f.emit("= ")
	f.emit(heatmapOutput(func(r, c int) int {
		if r == 0 && c == 0 {
			return 500
		}
		return 1
	}, 140, "0.47")...)

	select {
	case res := <-done:
		if res.err != nil {
			t.Fatal(res.err)
		}
		if res.h.Probabilities[coord.Index(0, coord.Size-1)] != 0.5 || res.h.Winrate != 0.47 {
			t.Fatalf("heatmap = %+v", res.h)
		}
	case <-time.After(waitTimeout):
		t.Fatal("remote heatmap never returned")
	}
}

func TestRemoteGenmoveExtendsTheLine(t *testing.T) {
	f := startFakeProcess(t, 0)
	r := startRemote(t, f)
	r.PlayMove(stone.Black, "Q16")

	ch, err := r.Genmove(stone.White)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Genmove(stone.White); !errors.Is(err, errs.ErrGenmoveInFlight) {
		t.Fatalf("err = %v, want ErrGenmoveInFlight", err)
	}
	f.expect("clear_board")
	f.expect("play B Q16")
	f.expect("genmove w")
	f.emit("= D4")

	select {
	case res := <-ch:
		if res.Err != nil || res.Move != "D4" {
			t.Fatalf("genmove = %+v", res)
		}
	case <-time.After(waitTimeout):
		t.Fatal("remote genmove never returned")
	}
	if got := r.position("").Moves; len(got) != 2 || got[1] != "W D4" {
		t.Fatalf("line = %q", got)
	}
}

func TestRemoteEngineHasNoPonder(t *testing.T) {
	f := startFakeProcess(t, 0)
	r := startRemote(t, f)
	if _, err := r.TogglePonder(); !errors.Is(err, errs.ErrEngineUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if r.IsPondering() || r.BestMoves() != nil {
		t.Fatal("remote engine reports pondering state")
	}
}

func TestRemoteGenmoveDeadlineIsRequestTimeout(t *testing.T) {
	cfg := &bootstrap.Config{
		EngineAddr:        "localhost:50051",
		MaxAnalyzeSeconds: 600,
		RequestTimeoutSec: 45,
	}
	r, err := NewRemoteEngine(cfg, zaptest.NewLogger(t).Sugar())
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if r.timeout != 45*time.Second {
		t.Fatalf("timeout = %v, want 45s", r.timeout)
	}
}
