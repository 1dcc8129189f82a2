package repository

import (
	"bufio"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"omega/internal/bootstrap"
	"omega/internal/domain"
	"omega/internal/domain/stone"
	errs "omega/internal/errors"
)

// EngineClient drives one Leela Zero process over its text protocol. Writes
// to the process and the state fed by the read loop share one mutex. The
// read loop never touches a board: it only stages results and hands them
// to callbacks and pending requests.
type EngineClient struct {
	mu  sync.Mutex
	log *zap.SugaredLogger

	cmd   *exec.Cmd
	stdin *bufio.Writer
	out   io.Reader
	exit  func(code int)
	now   func() time.Time

	readingPonder bool
	bestMoves     []domain.MoveData
	bestMovesTemp []domain.MoveData

	pondering   bool
	ponderStart time.Time
	maxAnalyze  time.Duration

	heatmap   *pendingHeatmap
	genmove   *pendingGenmove
	onUpdate  func([]domain.MoveData)
	closeOnce sync.Once
	stopping  atomic.Bool
	done      chan struct{}
}

type pendingHeatmap struct {
	id  string
	buf heatmapBuffer
	ch  chan domain.HeatmapResult
}

type pendingGenmove struct {
	color string
	ch    chan domain.GenmoveResult
}

// NewEngineClient starts the engine named by cfg in its own directory with
// stderr merged into stdout, and starts the read loop.
func NewEngineClient(cfg *bootstrap.Config, log *zap.SugaredLogger) (*EngineClient, error) {
	path, err := filepath.Abs(cfg.EnginePath)
	if err != nil {
		return nil, fmt.Errorf("resolve engine path: %w", err)
	}
	cmd := exec.Command(path, "-g", "-w"+cfg.EngineWeights, "-b0")
	cmd.Dir = filepath.Dir(path)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, fmt.Errorf("%w: %v", errs.ErrEngineUnavailable, err)
	}
	// The child holds its own copy of the write end.
	pw.Close()

	c := newEngineClient(stdin, pr, log, cfg.MaxAnalyzeTime())
	c.cmd = cmd
	log.Infow("engine started", "path", path, "weights", cfg.EngineWeights, "pid", cmd.Process.Pid)
	go c.readLoop()
	return c, nil
}

func newEngineClient(w io.Writer, r io.Reader, log *zap.SugaredLogger, maxAnalyze time.Duration) *EngineClient {
	c := &EngineClient{
		log:        log,
		stdin:      bufio.NewWriter(w),
		out:        r,
		exit:       os.Exit,
		now:        time.Now,
		maxAnalyze: maxAnalyze,
		done:       make(chan struct{}),
	}
	c.ponderStart = c.now()
	return c
}

// OnUpdate registers fn to receive every completed suggestion batch. fn runs
// on the read loop and must not block.
func (c *EngineClient) OnUpdate(fn func([]domain.MoveData)) {
	c.mu.Lock()
	c.onUpdate = fn
	c.mu.Unlock()
}

// Done is closed when the read loop ends.
func (c *EngineClient) Done() <-chan struct{} {
	return c.done
}

// readLoop accumulates output byte by byte and dispatches whole lines.
// End of stream is fatal for the hosting process.
func (c *EngineClient) readLoop() {
	r := bufio.NewReader(c.out)
	var line []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.log.Errorw("engine read failed", "error", err)
			}
			break
		}
		line = append(line, b)
		if b == '\n' {
			c.parseLine(string(line))
			line = line[:0]
		}
	}

	stopping := c.stopping.Load()
	if stopping {
		c.log.Infow("engine stopped")
	} else {
		c.log.Errorw("engine process ended")
	}
	c.failPending()
	close(c.done)
	if stopping {
		return
	}
	c.kill()
	c.exit(1)
}

func (c *EngineClient) parseLine(raw string) {
	line := strings.TrimSpace(raw)

	var (
		notify    func([]domain.MoveData)
		batch     []domain.MoveData
		heatmapCh chan domain.HeatmapResult
		heatmap   domain.HeatmapResult
		genmoveCh chan domain.GenmoveResult
		genmove   domain.GenmoveResult
	)

	c.mu.Lock()
	switch {
	case strings.HasPrefix(line, ponderBegin):
		if c.pondering && c.maxAnalyze > 0 && c.now().Sub(c.ponderStart) > c.maxAnalyze {
			c.log.Infow("max analyze time reached, pausing ponder", "limit", c.maxAnalyze)
			if err := c.togglePonder(); err != nil {
				c.log.Errorw("stop ponder", "error", err)
			}
		}
		c.readingPonder = true
		c.bestMovesTemp = nil

	case strings.HasPrefix(line, ponderEnd):
		c.readingPonder = false
		// Most visited first: index 0 is the engine's recommendation.
		slices.SortStableFunc(c.bestMovesTemp, func(a, b domain.MoveData) int {
			return cmp.Compare(b.Playouts, a.Playouts)
		})
		c.bestMoves = c.bestMovesTemp
		c.bestMovesTemp = nil
		notify, batch = c.onUpdate, c.bestMoves

	case c.readingPonder:
		if isSuggestionLine(line) {
			md, err := parseMoveData(line)
			if err != nil {
				c.log.Debugw("skip suggestion line", "line", line)
				break
			}
			c.bestMovesTemp = append(c.bestMovesTemp, md)
		}

	case c.genmove != nil && strings.HasPrefix(line, "="):
		if mv, ok := genmoveReply(line); ok {
			genmoveCh = c.genmove.ch
			genmove = domain.GenmoveResult{Color: c.genmove.color, Move: mv}
			c.genmove = nil
		}

	case c.heatmap != nil:
		if c.heatmap.buf.add(line) {
			if c.heatmap.buf.done {
				heatmapCh = c.heatmap.ch
				heatmap = domain.HeatmapResult{ID: c.heatmap.id, Heatmap: c.heatmap.buf.heatmap()}
				c.heatmap = nil
			}
		} else if c.heatmap.buf.exhausted() {
			c.log.Warnw("heatmap response abandoned", "id", c.heatmap.id, "lines", c.heatmap.buf.seen)
			heatmapCh = c.heatmap.ch
			heatmap = domain.HeatmapResult{ID: c.heatmap.id, Err: errs.ErrHeatmapAborted}
			c.heatmap = nil
		}

	default:
		if line != "" {
			c.log.Debugw("engine", "line", line)
		}
	}
	c.mu.Unlock()

	if notify != nil {
		notify(batch)
	}
	if heatmapCh != nil {
		heatmapCh <- heatmap
	}
	if genmoveCh != nil {
		genmoveCh <- genmove
	}
}

func (c *EngineClient) failPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.heatmap != nil {
		c.heatmap.ch <- domain.HeatmapResult{ID: c.heatmap.id, Err: errs.ErrEngineUnavailable}
		c.heatmap = nil
	}
	if c.genmove != nil {
		c.genmove.ch <- domain.GenmoveResult{Color: c.genmove.color, Err: errs.ErrEngineUnavailable}
		c.genmove = nil
	}
}

// send writes one command line. The caller holds c.mu.
func (c *EngineClient) send(command string) error {
	c.log.Debugw("engine command", "command", command)
	if _, err := c.stdin.WriteString(command + "\n"); err != nil {
		return fmt.Errorf("send %q: %w", command, err)
	}
	if err := c.stdin.Flush(); err != nil {
		return fmt.Errorf("send %q: %w", command, err)
	}
	return nil
}

// PlayMove tells the engine that color played move, a named coordinate or
// "pass". Pondering restarts on the new position.
func (c *EngineClient) PlayMove(color stone.Stone, move string) error {
	if !color.IsColor() {
		return fmt.Errorf("%w: color %v", errs.ErrIllegalMove, color)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.send("play " + color.Letter() + " " + move); err != nil {
		return err
	}
	c.bestMoves = nil
	if c.pondering {
		return c.ponder()
	}
	return nil
}

// Undo takes back the engine's last move.
func (c *EngineClient) Undo() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.send("undo"); err != nil {
		return err
	}
	c.bestMoves = nil
	if c.pondering {
		return c.ponder()
	}
	return nil
}

// ClearBoard resets the engine to the empty board.
func (c *EngineClient) ClearBoard() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.send("clear_board"); err != nil {
		return err
	}
	c.bestMoves = nil
	if c.pondering {
		return c.ponder()
	}
	return nil
}

// ponder starts analysis of the current position. The caller holds c.mu.
func (c *EngineClient) ponder() error {
	c.pondering = true
	c.ponderStart = c.now()
	return c.send("time_left b 0 0")
}

func (c *EngineClient) togglePonder() error {
	c.pondering = !c.pondering
	if c.pondering {
		return c.ponder()
	}
	return c.send("name")
}

// TogglePonder flips pondering and reports the new state.
func (c *EngineClient) TogglePonder() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.togglePonder()
	return c.pondering, err
}

func (c *EngineClient) IsPondering() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pondering
}

// BestMoves returns the last complete suggestion batch.
func (c *EngineClient) BestMoves() []domain.MoveData {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.MoveData, len(c.bestMoves))
	copy(out, c.bestMoves)
	return out
}

// RequestHeatmap asks for the policy heatmap of the current position. Only
// one request may be outstanding; a second one fails with
// ErrHeatmapInFlight. The returned channel receives exactly one result.
func (c *EngineClient) RequestHeatmap() (string, <-chan domain.HeatmapResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.heatmap != nil {
		return "", nil, errs.ErrHeatmapInFlight
	}
	select {
	case <-c.done:
		return "", nil, errs.ErrEngineUnavailable
	default:
	}
	p := &pendingHeatmap{id: uuid.New().String(), ch: make(chan domain.HeatmapResult, 1)}
	if err := c.send("heatmap"); err != nil {
		return "", nil, err
	}
	c.heatmap = p
	return p.id, p.ch, nil
}

// Heatmap requests a heatmap and waits for it.
func (c *EngineClient) Heatmap(ctx context.Context) (*domain.Heatmap, error) {
	id, ch, err := c.RequestHeatmap()
	if err != nil {
		return nil, err
	}
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("heatmap %s: %w", id, res.Err)
		}
		return res.Heatmap, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Genmove asks the engine to choose a move for color. The engine plays it
// on its own board; the caller is responsible for mirroring it locally.
func (c *EngineClient) Genmove(color stone.Stone) (<-chan domain.GenmoveResult, error) {
	if !color.IsColor() {
		return nil, fmt.Errorf("%w: color %v", errs.ErrIllegalMove, color)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.genmove != nil {
		return nil, errs.ErrGenmoveInFlight
	}
	select {
	case <-c.done:
		return nil, errs.ErrEngineUnavailable
	default:
	}
	if c.pondering {
		c.pondering = false
		if err := c.send("name"); err != nil {
			return nil, err
		}
	}
	p := &pendingGenmove{color: color.Letter(), ch: make(chan domain.GenmoveResult, 1)}
	if err := c.send("genmove " + strings.ToLower(color.Letter())); err != nil {
		return nil, err
	}
	c.genmove = p
	return p.ch, nil
}

// Shutdown kills the engine process. The read loop then ends without
// taking the hosting process down. It is safe to call more than once.
func (c *EngineClient) Shutdown() {
	c.stopping.Store(true)
	c.kill()
}

func (c *EngineClient) kill() {
	c.closeOnce.Do(func() {
		if c.cmd != nil && c.cmd.Process != nil {
			if err := c.cmd.Process.Kill(); err != nil {
				c.log.Debugw("engine kill", "error", err)
			}
			_ = c.cmd.Wait()
		}
	})
}
