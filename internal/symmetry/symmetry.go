// Package symmetry finds positions of a recorded line that match a partially
// specified query under the 8 dihedral transforms of the board.
package symmetry

import (
	"fmt"
	"iter"

	"omega/internal/board"
	"omega/internal/domain/coord"
	"omega/internal/domain/stone"
	errs "omega/internal/errors"
)

// Transforms is the size of the dihedral group of the square board.
const Transforms = 8

// Match is one hit of a query against a recorded position.
type Match struct {
	// Stones is the transformed query that matched.
	Stones []stone.Stone
	// Line is the recorded line the position belongs to.
	Line []*board.Position
	// Index is the position's index in Line, 0 for the initial position.
	Index      int
	MoveNumber int
	Transform  int
	Inverted   bool
}

// Position returns the matched recorded snapshot.
func (m Match) Position() *board.Position {
	return m.Line[m.Index]
}

// mapPoint sends (x, y) to its image under the given transform. Transforms
// 0-3 rotate clockwise by 90 degrees each; 4-7 reflect along x=y first.
func mapPoint(x, y, mode int) (int, int) {
	if mode >= 4 {
		x, y = y, x
		mode -= 4
	}
	for ; mode > 0; mode-- {
		x, y = y, coord.Size-1-x
	}
	return x, y
}

// Transform returns a new grid holding the image of grid under mode.
func Transform(grid []stone.Stone, mode int) []stone.Stone {
	out := make([]stone.Stone, len(grid))
	for i, s := range grid {
		x, y := coord.FromIndex(i)
		tx, ty := mapPoint(x, y, mode)
		out[coord.Index(tx, ty)] = s
	}
	return out
}

// MatchesAt reports whether every pinned cell of query equals the cell of
// stones. When the query pins anything, the cell of the last move is pinned
// too: a wildcard there never matches.
func MatchesAt(query, stones []stone.Stone, lastMove *coord.Point) bool {
	pinned := false
	for i, q := range query {
		if q == stone.Unspecified {
			continue
		}
		pinned = true
		if q != stones[i] {
			return false
		}
	}
	if pinned && lastMove != nil && query[lastMove.Index()] == stone.Unspecified {
		return false
	}
	return true
}

// IsWildcard reports whether query pins no cell at all.
func IsWildcard(query []stone.Stone) bool {
	for _, q := range query {
		if q != stone.Unspecified {
			return false
		}
	}
	return true
}

// variants returns the 16 transformed queries in report order: upright
// transforms 0..7, then the color-inverted ones.
func variants(query []stone.Stone) [2 * Transforms][]stone.Stone {
	var out [2 * Transforms][]stone.Stone
	inverted := stone.Invert(query)
	for mode := 0; mode < Transforms; mode++ {
		out[mode] = Transform(query, mode)
		out[Transforms+mode] = Transform(inverted, mode)
	}
	return out
}

// Matches lazily yields every match of query in line, in increasing line
// order and, at one position, in transform order with upright hits before
// inverted ones. Symmetric queries produce one entry per matching transform.
func Matches(query []stone.Stone, line []*board.Position) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		all := variants(query)
		for idx, p := range line {
			for k, q := range all {
				if !MatchesAt(q, p.Stones, p.LastMove) {
					continue
				}
				m := Match{
					Stones:     q,
					Line:       line,
					Index:      idx,
					MoveNumber: p.MoveNumber,
					Transform:  k % Transforms,
					Inverted:   k >= Transforms,
				}
				if !yield(m) {
					return
				}
			}
		}
	}
}

// FindMatches collects Matches for every position of b's line.
func FindMatches(query []stone.Stone, b *board.Board) []Match {
	line, _ := b.Line()
	var out []Match
	for m := range Matches(query, line) {
		out = append(out, m)
	}
	return out
}

// NewQuery returns a fully wildcard query grid.
func NewQuery() []stone.Stone {
	q := make([]stone.Stone, coord.Cells)
	for i := range q {
		q[i] = stone.Unspecified
	}
	return q
}

// ParseQuery reads a query drawn as Size rows, top row first. 'X' or 'B' is
// black, 'O' or 'W' is white, '.' is a required empty point and '?' matches
// anything.
func ParseQuery(rows []string) ([]stone.Stone, error) {
	if len(rows) != coord.Size {
		return nil, fmt.Errorf("%w: %d rows", errs.ErrInvalidQuery, len(rows))
	}
	q := make([]stone.Stone, coord.Cells)
	for r, row := range rows {
		if len(row) != coord.Size {
			return nil, fmt.Errorf("%w: row %d has %d points", errs.ErrInvalidQuery, r+1, len(row))
		}
		y := coord.Size - 1 - r
		for x := 0; x < coord.Size; x++ {
			var s stone.Stone
			switch row[x] {
			case 'X', 'x', 'B', 'b':
				s = stone.Black
			case 'O', 'o', 'W', 'w':
				s = stone.White
			case '.':
				s = stone.Empty
			case '?':
				s = stone.Unspecified
			default:
				return nil, fmt.Errorf("%w: %q at row %d", errs.ErrInvalidQuery, row[x], r+1)
			}
			q[coord.Index(x, y)] = s
		}
	}
	return q, nil
}
