package board

import (
	"omega/internal/domain/coord"
	"omega/internal/domain/stone"
	"omega/internal/zobrist"
)

// Position is an immutable snapshot of the board after one accepted move.
// Nothing may modify a Position once it has been added to a History.
type Position struct {
	Stones []stone.Stone
	// LastMove is nil for the initial position, passes and stone removals.
	LastMove      *coord.Point
	LastMoveColor stone.Stone
	BlackToPlay   bool
	Hash          zobrist.Hash
	MoveNumber    int
	// MoveNumberList holds, per cell, the move number that placed the current
	// occupant, or 0 for empty cells.
	MoveNumberList []int
}

// NewPosition returns the empty starting position, black to play.
func NewPosition() *Position {
	stones := make([]stone.Stone, coord.Cells)
	return &Position{
		Stones:         stones,
		LastMoveColor:  stone.Empty,
		BlackToPlay:    true,
		MoveNumberList: make([]int, coord.Cells),
	}
}

// At returns the stone at (x, y).
func (p *Position) At(x, y int) stone.Stone {
	return p.Stones[coord.Index(x, y)]
}

// SideToMove returns the color whose turn it is.
func (p *Position) SideToMove() stone.Stone {
	if p.BlackToPlay {
		return stone.Black
	}
	return stone.White
}

// IsPass reports whether this snapshot was produced by a pass.
func (p *Position) IsPass() bool {
	return p.LastMove == nil && p.LastMoveColor.IsColor()
}

// Move returns the protocol token of the move that produced p: a named
// coordinate, "pass", or "" for the initial position and removals.
func (p *Position) Move() string {
	if p.LastMove != nil {
		return p.LastMove.String()
	}
	if p.IsPass() {
		return coord.Pass
	}
	return ""
}

// CopyStones returns a private copy of the grid.
func (p *Position) CopyStones() []stone.Stone {
	out := make([]stone.Stone, len(p.Stones))
	copy(out, p.Stones)
	return out
}

func (p *Position) sameMove(o *Position) bool {
	if p.LastMoveColor != o.LastMoveColor || p.Hash != o.Hash {
		return false
	}
	if p.LastMove == nil || o.LastMove == nil {
		return p.LastMove == nil && o.LastMove == nil
	}
	return *p.LastMove == *o.LastMove
}
