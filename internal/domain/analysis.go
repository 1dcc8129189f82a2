package domain

// MoveData is one candidate move of the engine's current search.
type MoveData struct {
	Coordinate string   `json:"coordinate"`
	Playouts   int      `json:"playouts"`
	Winrate    float64  `json:"winrate"` // percent, side to move
	Policy     float64  `json:"policy"`  // percent, network prior
	Variation  []string `json:"variation"`
}

// Heatmap is the engine's normalized move-probability grid for one position.
// Probabilities is indexed like the board (coord.Index); together with
// PassProbability it sums to 1.
type Heatmap struct {
	Probabilities   []float64 `json:"probabilities"`
	PassProbability float64   `json:"pass_probability"`
	Winrate         float64   `json:"winrate"`
}

// HeatmapResult resolves a heatmap request exactly once.
type HeatmapResult struct {
	ID      string   `json:"id"`
	Heatmap *Heatmap `json:"heatmap,omitempty"`
	Err     error    `json:"-"`
}

// GenmoveResult resolves a genmove request with the engine's move token.
type GenmoveResult struct {
	Color string `json:"color"`
	Move  string `json:"move"`
	Err   error  `json:"-"`
}
