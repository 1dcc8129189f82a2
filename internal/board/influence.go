package board

import (
	"omega/internal/domain/coord"
	"omega/internal/domain/stone"
)

// stoneInfluence is how many points a stone's influence reaches before it
// fades out.
const stoneInfluence = 7

// Influence estimates territory on the current grid. Every stone spreads a
// fading value outwards until an enemy stone stops it: +1 for black and -1
// for white. The result is mapped into [0, 1], where 0.5 is neutral. With
// clampStones, occupied points never read stronger than their own color.
func (p *Position) Influence(clampStones bool) []float64 {
	heat := make([]float64, coord.Cells)
	for i, s := range p.Stones {
		if !s.IsColor() {
			continue
		}
		x, y := coord.FromIndex(i)
		initial := 1.0
		if s == stone.White {
			initial = -1
		}
		seen := make([]bool, coord.Cells)
		p.floodAdd(heat, seen, x, y, x, y, initial, 1.0/stoneInfluence)
	}

	if clampStones {
		for i, s := range p.Stones {
			switch s {
			case stone.Black:
				heat[i] = max(0, min(heat[i], 0.5))
			case stone.White:
				heat[i] = min(0, max(heat[i], -0.5))
			}
		}
	}

	for i, v := range heat {
		heat[i] = max(0, min(1, (v+1)/2))
	}
	return heat
}

// floodAdd only walks away from the origin on each axis.
func (p *Position) floodAdd(heat []float64, seen []bool, ox, oy, x, y int, value, degrade float64) {
	if !coord.IsValid(x, y) || seen[coord.Index(x, y)] {
		return
	}
	i := coord.Index(x, y)
	heat[i] += value
	seen[i] = true

	if value > 0 {
		if p.Stones[i] == stone.White {
			return
		}
		value = max(0, value-degrade)
	} else {
		if p.Stones[i] == stone.Black {
			return
		}
		value = min(0, value+degrade)
	}
	if value == 0 {
		return
	}
	if ox-x >= 0 {
		p.floodAdd(heat, seen, ox, oy, x-1, y, value, degrade)
	}
	if ox-x <= 0 {
		p.floodAdd(heat, seen, ox, oy, x+1, y, value, degrade)
	}
	if oy-y >= 0 {
		p.floodAdd(heat, seen, ox, oy, x, y-1, value, degrade)
	}
	if oy-y <= 0 {
		p.floodAdd(heat, seen, ox, oy, x, y+1, value, degrade)
	}
}
