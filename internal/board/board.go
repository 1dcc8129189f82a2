package board

import (
	"sync"

	"omega/internal/domain/coord"
	"omega/internal/domain/stone"
	"omega/internal/zobrist"
)

// PlaceMode selects the color used by Play when no color is given.
type PlaceMode int

const (
	Alternating PlaceMode = iota
	BlackOnly
	WhiteOnly
	Remove
)

func (m PlaceMode) String() string {
	switch m {
	case BlackOnly:
		return "black"
	case WhiteOnly:
		return "white"
	case Remove:
		return "remove"
	}
	return "alternating"
}

// ParsePlaceMode is the inverse of PlaceMode.String.
func ParsePlaceMode(s string) (PlaceMode, bool) {
	for _, m := range []PlaceMode{Alternating, BlackOnly, WhiteOnly, Remove} {
		if m.String() == s {
			return m, true
		}
	}
	return Alternating, false
}

// Board is the rules authority. Every exported method holds the board lock
// for its whole duration, so no caller ever sees a half-resolved capture.
// Illegal moves are rejected by returning false and leave the board untouched.
type Board struct {
	mu      sync.Mutex
	history *History
	mode    PlaceMode
}

// New returns an empty board, black to play.
func New() *Board {
	return &Board{history: NewHistory(NewPosition())}
}

// NewWithHistory wraps an existing line of play.
func NewWithHistory(h *History) *Board {
	return &Board{history: h}
}

func (b *Board) SetPlaceMode(m PlaceMode) {
	b.mu.Lock()
	b.mode = m
	b.mu.Unlock()
}

func (b *Board) PlaceMode() PlaceMode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mode
}

// Place puts a stone of color at (x, y), resolves captures and records the
// result. It returns false for an occupied or invalid point, suicide, or a
// positional superko violation. Replaying the next recorded move only
// advances the history pointer.
func (b *Board) Place(x, y int, color stone.Stone) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.place(x, y, color)
}

func (b *Board) place(x, y int, color stone.Stone) bool {
	if !color.IsColor() || !coord.IsValid(x, y) {
		return false
	}
	cur := b.history.Current()
	if cur.At(x, y) != stone.Empty {
		return false
	}

	if next := b.history.PeekNext(); next != nil && next.LastMove != nil &&
		next.LastMove.X == x && next.LastMove.Y == y && next.LastMoveColor == color {
		b.history.Next()
		return true
	}

	stones := cur.CopyStones()
	hash := cur.Hash
	moveNumber := cur.MoveNumber + 1
	moveNumbers := make([]int, len(cur.MoveNumberList))
	copy(moveNumbers, cur.MoveNumberList)
	moveNumbers[coord.Index(x, y)] = moveNumber

	stones[coord.Index(x, y)] = color
	hash = hash.Toggle(x, y, color)

	enemy := color.Opposite()
	removeDeadChain(x+1, y, enemy, stones, &hash)
	removeDeadChain(x, y+1, enemy, stones, &hash)
	removeDeadChain(x-1, y, enemy, stones, &hash)
	removeDeadChain(x, y-1, enemy, stones, &hash)

	if removeDeadChain(x, y, color, stones, &hash) {
		return false
	}

	for i, s := range stones {
		if s == stone.Empty {
			moveNumbers[i] = 0
		}
	}

	next := &Position{
		Stones:         stones,
		LastMove:       &coord.Point{X: x, Y: y},
		LastMoveColor:  color,
		BlackToPlay:    !cur.BlackToPlay,
		Hash:           hash,
		MoveNumber:     moveNumber,
		MoveNumberList: moveNumbers,
	}
	if b.history.ViolatesSuperko(next) {
		return false
	}
	b.history.Add(next)
	return true
}

// Play places a stone at (x, y) using the configured place mode.
func (b *Board) Play(x, y int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.mode {
	case Remove:
		return b.remove(x, y)
	case BlackOnly:
		return b.place(x, y, stone.Black)
	case WhiteOnly:
		return b.place(x, y, stone.White)
	default:
		return b.place(x, y, b.history.Current().SideToMove())
	}
}

// PlayNamed plays a named coordinate such as "Q16", or a pass, with the
// configured place mode.
func (b *Board) PlayNamed(name string) (bool, error) {
	if coord.IsPass(name) {
		return b.PassTurn(), nil
	}
	x, y, err := coord.Parse(name)
	if err != nil {
		return false, err
	}
	return b.Play(x, y), nil
}

// Pass records a pass by color. Passing is always legal.
func (b *Board) Pass(color stone.Stone) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pass(color)
}

// PassTurn passes for the side to move.
func (b *Board) PassTurn() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pass(b.history.Current().SideToMove())
}

func (b *Board) pass(color stone.Stone) bool {
	if next := b.history.PeekNext(); next != nil && next.IsPass() && next.LastMoveColor == color {
		b.history.Next()
		return true
	}

	cur := b.history.Current()
	moveNumbers := make([]int, len(cur.MoveNumberList))
	copy(moveNumbers, cur.MoveNumberList)
	b.history.Add(&Position{
		Stones:         cur.CopyStones(),
		LastMoveColor:  color,
		BlackToPlay:    !cur.BlackToPlay,
		Hash:           cur.Hash,
		MoveNumber:     cur.MoveNumber + 1,
		MoveNumberList: moveNumbers,
	})
	return true
}

// RemoveStone deletes the stone at (x, y) as an edit, not a move.
func (b *Board) RemoveStone(x, y int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remove(x, y)
}

func (b *Board) remove(x, y int) bool {
	if !coord.IsValid(x, y) {
		return false
	}
	cur := b.history.Current()
	if cur.At(x, y) == stone.Empty {
		return false
	}
	stones := cur.CopyStones()
	hash := cur.Hash
	deleteStone(x, y, stones, &hash)
	moveNumbers := make([]int, len(cur.MoveNumberList))
	copy(moveNumbers, cur.MoveNumberList)
	moveNumbers[coord.Index(x, y)] = 0

	b.history.Add(&Position{
		Stones:         stones,
		LastMoveColor:  stone.Empty,
		BlackToPlay:    !cur.BlackToPlay,
		Hash:           hash,
		MoveNumber:     cur.MoveNumber + 1,
		MoveNumberList: moveNumbers,
	})
	return true
}

// Clear discards all history and starts from an empty board.
func (b *Board) Clear() {
	b.mu.Lock()
	b.history = NewHistory(NewPosition())
	b.mu.Unlock()
}

// PreviousMove steps back one snapshot. It returns false at the start.
func (b *Board) PreviousMove() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.history.Previous() != nil
}

// NextMove steps forward one recorded snapshot. It returns false at the tip.
func (b *Board) NextMove() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.history.Next() != nil
}

// ToStart rewinds to the root and returns how many snapshots were skipped.
func (b *Board) ToStart() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.history.Index()
	b.history.ToStart()
	return n
}

// ToEnd fast-forwards to the tip and returns how many snapshots were replayed.
func (b *Board) ToEnd() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.history.Len() - 1 - b.history.Index()
	b.history.ToEnd()
	return n
}

// Goto moves the pointer to the i-th snapshot of the line.
func (b *Board) Goto(i int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= b.history.Len() {
		return false
	}
	b.history.current = i
	return true
}

// Data returns the current snapshot.
func (b *Board) Data() *Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.history.Current()
}

// Stones returns a copy of the current grid.
func (b *Board) Stones() []stone.Stone {
	return b.Data().CopyStones()
}

// LastMove returns the coordinate of the last move, or nil.
func (b *Board) LastMove() *coord.Point {
	return b.Data().LastMove
}

// Line returns the recorded line of play and the current index within it.
func (b *Board) Line() ([]*Position, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.history.Line(), b.history.Index()
}

// removeDeadChain removes the chain of color containing (x, y) if it has no
// liberties and reports whether it did.
func removeDeadChain(x, y int, color stone.Stone, stones []stone.Stone, hash *zobrist.Hash) bool {
	if !coord.IsValid(x, y) || stones[coord.Index(x, y)] != color {
		return false
	}
	hasLiberties := markChain(x, y, color, stones)
	cleanupChain(x, y, color.Recursed(), stones, hash, !hasLiberties)
	return !hasLiberties
}

var neighbours = [4][2]int{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

// markChain flood-fills the chain at (x, y), turning visited stones into
// their recursed marker, and stops as soon as a liberty is found. The marks
// form a connected set and must be undone with cleanupChain.
func markChain(x, y int, color stone.Stone, stones []stone.Stone) bool {
	stack := make([]int, 0, 32)
	start := coord.Index(x, y)
	stones[start] = color.Recursed()
	stack = append(stack, start)

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cx, cy := coord.FromIndex(i)
		for _, d := range neighbours {
			nx, ny := cx+d[0], cy+d[1]
			if !coord.IsValid(nx, ny) {
				continue
			}
			n := coord.Index(nx, ny)
			switch stones[n] {
			case stone.Empty:
				return true
			case color:
				stones[n] = color.Recursed()
				stack = append(stack, n)
			}
		}
	}
	return false
}

// cleanupChain walks the recursed cells connected to (x, y) and either
// deletes them or restores their color.
func cleanupChain(x, y int, marker stone.Stone, stones []stone.Stone, hash *zobrist.Hash, removeStones bool) {
	if stones[coord.Index(x, y)] != marker {
		return
	}
	stack := []int{coord.Index(x, y)}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if stones[i] != marker {
			continue
		}
		cx, cy := coord.FromIndex(i)
		if removeStones {
			deleteStone(cx, cy, stones, hash)
		} else {
			stones[i] = marker.Unrecursed()
		}
		for _, d := range neighbours {
			nx, ny := cx+d[0], cy+d[1]
			if coord.IsValid(nx, ny) && stones[coord.Index(nx, ny)] == marker {
				stack = append(stack, coord.Index(nx, ny))
			}
		}
	}
}

func deleteStone(x, y int, stones []stone.Stone, hash *zobrist.Hash) {
	i := coord.Index(x, y)
	*hash = hash.Toggle(x, y, stones[i].Unrecursed())
	stones[i] = stone.Empty
}
