// Package session owns the live board and the engine that mirrors it.
package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"omega/internal/board"
	"omega/internal/domain"
	"omega/internal/domain/coord"
	sgfdomain "omega/internal/domain/sgf"
	"omega/internal/domain/stone"
	errs "omega/internal/errors"
	"omega/internal/sgf"
)

// Engine is the analysis engine as seen by a session.
type Engine interface {
	PlayMove(color stone.Stone, move string) error
	Undo() error
	ClearBoard() error
	TogglePonder() (bool, error)
	IsPondering() bool
	BestMoves() []domain.MoveData
	Heatmap(ctx context.Context) (*domain.Heatmap, error)
	Genmove(color stone.Stone) (<-chan domain.GenmoveResult, error)
}

// State is what a viewer needs to draw the board.
type State struct {
	Stones      []stone.Stone      `json:"stones"`
	MoveNumbers []int              `json:"move_numbers"`
	LastMove    *coord.Point       `json:"last_move,omitempty"`
	LastColor   string             `json:"last_color,omitempty"`
	BlackToPlay bool               `json:"black_to_play"`
	MoveNumber  int                `json:"move_number"`
	Index       int                `json:"index"`
	Length      int                `json:"length"`
	Mode        string             `json:"mode"`
	Pondering   bool               `json:"pondering"`
	Info        sgfdomain.GameInfo `json:"info"`
}

// Session is the explicit owner of one board and one engine. After any
// mutating call returns, the engine's position equals the board's current
// position. The engine may be nil, in which case analysis calls fail with
// ErrEngineUnavailable and the board works on its own.
type Session struct {
	mu       sync.Mutex
	log      *zap.SugaredLogger
	board    *board.Board
	engine   Engine
	info     sgfdomain.GameInfo
	onChange func(State)
}

func New(log *zap.SugaredLogger, engine Engine) *Session {
	return &Session{
		log:    log,
		board:  board.New(),
		engine: engine,
	}
}

// OnChange registers fn to be called with the new state after every accepted
// mutation. fn runs under the session lock and must not call back into it.
func (s *Session) OnChange(fn func(State)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

func (s *Session) state() State {
	line, idx := s.board.Line()
	cur := line[idx]
	st := State{
		Stones:      cur.CopyStones(),
		MoveNumbers: append([]int(nil), cur.MoveNumberList...),
		LastMove:    cur.LastMove,
		LastColor:   cur.LastMoveColor.Letter(),
		BlackToPlay: cur.BlackToPlay,
		MoveNumber:  cur.MoveNumber,
		Index:       idx,
		Length:      len(line),
		Mode:        s.board.PlaceMode().String(),
		Info:        s.info,
	}
	if s.engine != nil {
		st.Pondering = s.engine.IsPondering()
	}
	return st
}

func (s *Session) changed() {
	if s.onChange != nil {
		s.onChange(s.state())
	}
}

// Place plays at (x, y) with the board's place mode.
func (s *Session) Place(x, y int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.board.Data()
	if !s.board.Play(x, y) {
		return false
	}
	s.mirror(before)
	return true
}

// PlayNamed plays a named coordinate or "pass".
func (s *Session) PlayNamed(name string) (bool, error) {
	if coord.IsPass(name) {
		return s.Pass(), nil
	}
	x, y, err := coord.Parse(name)
	if err != nil {
		return false, err
	}
	return s.Place(x, y), nil
}

// Pass passes for the side to move.
func (s *Session) Pass() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.board.Data()
	s.board.PassTurn()
	s.mirror(before)
	return true
}

func (s *Session) SetPlaceMode(m board.PlaceMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board.SetPlaceMode(m)
	s.changed()
}

// Undo steps back one snapshot.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	left := s.board.Data()
	if !s.board.PreviousMove() {
		return false
	}
	if s.engine != nil {
		if left.LastMoveColor.IsColor() {
			s.logEngineErr("undo", s.engine.Undo())
		} else {
			s.resync()
		}
	}
	s.changed()
	return true
}

// Redo replays the next recorded snapshot without branching.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.board.Data()
	if !s.board.NextMove() {
		return false
	}
	s.mirror(before)
	return true
}

func (s *Session) ToStart() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.board.ToStart()
	if n > 0 {
		s.resync()
		s.changed()
	}
	return n
}

func (s *Session) ToEnd() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.board.ToEnd()
	if n > 0 {
		s.resync()
		s.changed()
	}
	return n
}

// Clear starts a new empty game.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board.Clear()
	s.info = sgfdomain.GameInfo{}
	s.resync()
	s.changed()
}

// LoadSGF replaces the game with the main line of text, rewound to the start.
func (s *Session) LoadSGF(text string) (sgfdomain.GameInfo, error) {
	record, err := sgf.Parse(text)
	if err != nil {
		return sgfdomain.GameInfo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = sgf.Replay(record, s.board)
	s.resync()
	s.changed()
	s.log.Infow("game loaded", "black", s.info.PlayerBlack, "white", s.info.PlayerWhite)
	return s.info, nil
}

// SaveSGF serializes the whole line of play.
func (s *Session) SaveSGF() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sgf.Save(s.board, s.info)
}

// Influence is the territory estimate of the current position.
func (s *Session) Influence() []float64 {
	return s.board.Data().Influence(true)
}

// Line returns the line of play and the current index.
func (s *Session) Line() ([]*board.Position, int) {
	return s.board.Line()
}

func (s *Session) TogglePonder() (bool, error) {
	if s.engine == nil {
		return false, errs.ErrEngineUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	on, err := s.engine.TogglePonder()
	s.changed()
	return on, err
}

// Suggestions returns the engine's last complete batch of candidate moves.
func (s *Session) Suggestions() ([]domain.MoveData, error) {
	if s.engine == nil {
		return nil, errs.ErrEngineUnavailable
	}
	return s.engine.BestMoves(), nil
}

// Heatmap returns the engine's policy heatmap of the current position.
func (s *Session) Heatmap(ctx context.Context) (*domain.Heatmap, error) {
	if s.engine == nil {
		return nil, errs.ErrEngineUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Heatmap(ctx)
}

// AnalyzePosition sets the engine to line[index], collects its heatmap and
// puts the engine back on the live board.
func (s *Session) AnalyzePosition(ctx context.Context, line []*board.Position, index int) (*domain.Heatmap, error) {
	if s.engine == nil {
		return nil, errs.ErrEngineUnavailable
	}
	if index < 0 || index >= len(line) {
		return nil, fmt.Errorf("%w: position %d of %d", errs.ErrInternal, index, len(line))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.resync()

	s.replay(line, index)
	return s.engine.Heatmap(ctx)
}

// Genmove lets the engine choose a move for the side to move and plays it
// on the board. The engine has already played it on its own side.
func (s *Session) Genmove(ctx context.Context) (string, error) {
	if s.engine == nil {
		return "", errs.ErrEngineUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	color := s.board.Data().SideToMove()
	ch, err := s.engine.Genmove(color)
	if err != nil {
		return "", err
	}

	var res domain.GenmoveResult
	select {
	case res = <-ch:
	case <-ctx.Done():
		// The engine plays the move whenever it finishes; undo that then.
		go func() {
			<-ch
			s.mu.Lock()
			s.resync()
			s.mu.Unlock()
		}()
		return "", ctx.Err()
	}
	if res.Err != nil {
		return "", res.Err
	}

	switch {
	case coord.IsPass(res.Move):
		s.board.Pass(color)
	case res.Move == "resign":
		s.resync()
		return res.Move, nil
	default:
		x, y, err := coord.Parse(res.Move)
		if err != nil || !s.board.Place(x, y, color) {
			s.log.Warnw("engine move rejected locally", "move", res.Move)
			s.resync()
			return "", fmt.Errorf("%w: %s", errs.ErrIllegalMove, res.Move)
		}
	}
	s.changed()
	return res.Move, nil
}

// mirror sends the snapshot that replaced before to the engine.
func (s *Session) mirror(before *board.Position) {
	after := s.board.Data()
	if after == before {
		return
	}
	if s.engine != nil {
		if after.LastMoveColor.IsColor() {
			s.logEngineErr("play", s.engine.PlayMove(after.LastMoveColor, after.Move()))
		} else {
			s.resync()
		}
	}
	s.changed()
}

// resync rebuilds the engine's position from the board's current snapshot.
func (s *Session) resync() {
	if s.engine == nil {
		return
	}
	line, idx := s.board.Line()
	s.replay(line, idx)
}

// replay clears the engine and sets up line[index]. A line of moves and
// passes is replayed as played; a line with stone removals is set up stone
// by stone, which keeps every stone since no partial setup has a chain
// without liberties.
func (s *Session) replay(line []*board.Position, index int) {
	if err := s.engine.ClearBoard(); err != nil {
		s.logEngineErr("clear_board", err)
		return
	}

	moves := line[1 : index+1]
	replayable := true
	for _, p := range moves {
		if !p.LastMoveColor.IsColor() {
			replayable = false
			break
		}
	}
	if replayable {
		for _, p := range moves {
			if err := s.engine.PlayMove(p.LastMoveColor, p.Move()); err != nil {
				s.logEngineErr("play", err)
				return
			}
		}
		return
	}

	cur := line[index]
	next := stone.Black
	for i, st := range cur.Stones {
		if !st.IsColor() {
			continue
		}
		x, y := coord.FromIndex(i)
		if err := s.engine.PlayMove(st, coord.Name(x, y)); err != nil {
			s.logEngineErr("play", err)
			return
		}
		next = st.Opposite()
	}
	if next != cur.SideToMove() {
		s.logEngineErr("play", s.engine.PlayMove(next, coord.Pass))
	}
}

func (s *Session) logEngineErr(command string, err error) {
	if err != nil {
		s.log.Errorw("engine command failed", "command", command, "error", err)
	}
}
