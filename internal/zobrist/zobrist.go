package zobrist

import (
	"math/rand/v2"

	"omega/internal/domain/coord"
	"omega/internal/domain/stone"
)

// Hash is the Zobrist hash of a board arrangement.
type Hash uint64

// seed is fixed so hashes are stable across runs and can be persisted.
const seed = 0x6f6d656761

var keys [coord.Cells][2]Hash

func init() {
	rng := rand.New(rand.NewPCG(seed, seed>>8))
	for i := range keys {
		for c := range keys[i] {
			v := rng.Uint64()
			for v == 0 {
				v = rng.Uint64()
			}
			keys[i][c] = Hash(v)
		}
	}
}

func colorIndex(color stone.Stone) int {
	if color.IsWhite() {
		return 1
	}
	return 0
}

// Key returns the key for (x, y, color).
func Key(x, y int, color stone.Stone) Hash {
	return keys[coord.Index(x, y)][colorIndex(color)]
}

// Toggle XORs the key for (x, y, color) in or out. Toggling twice is a no-op.
// Non-colors leave the hash unchanged.
func (h Hash) Toggle(x, y int, color stone.Stone) Hash {
	if !color.IsBlack() && !color.IsWhite() {
		return h
	}
	return h ^ Key(x, y, color)
}

// FromStones computes the hash of a full grid from scratch.
func FromStones(stones []stone.Stone) Hash {
	var h Hash
	for i, s := range stones {
		if s.IsBlack() || s.IsWhite() {
			x, y := coord.FromIndex(i)
			h = h.Toggle(x, y, s)
		}
	}
	return h
}
