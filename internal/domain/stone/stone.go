package stone

// Stone is the content of a single board cell.
type Stone int8

const (
	Empty Stone = iota
	Black
	White
	// Unspecified is a wildcard used only in symmetry queries.
	Unspecified
	// BlackRecursed and WhiteRecursed mark visited cells during a liberty
	// search. They never survive the mutation that created them.
	BlackRecursed
	WhiteRecursed
)

// Opposite returns the other color. Empty and Unspecified map to themselves.
func (s Stone) Opposite() Stone {
	switch s {
	case Black:
		return White
	case White:
		return Black
	case BlackRecursed:
		return WhiteRecursed
	case WhiteRecursed:
		return BlackRecursed
	default:
		return s
	}
}

// Recursed returns the visited marker for a color.
func (s Stone) Recursed() Stone {
	switch s {
	case Black:
		return BlackRecursed
	case White:
		return WhiteRecursed
	default:
		return s
	}
}

// Unrecursed undoes Recursed.
func (s Stone) Unrecursed() Stone {
	switch s {
	case BlackRecursed:
		return Black
	case WhiteRecursed:
		return White
	default:
		return s
	}
}

func (s Stone) IsBlack() bool {
	return s == Black || s == BlackRecursed
}

func (s Stone) IsWhite() bool {
	return s == White || s == WhiteRecursed
}

// IsColor reports whether s is a real black or white stone.
func (s Stone) IsColor() bool {
	return s == Black || s == White
}

// Letter returns the protocol color letter, "B" or "W".
func (s Stone) Letter() string {
	if s.IsBlack() {
		return "B"
	}
	if s.IsWhite() {
		return "W"
	}
	return ""
}

func (s Stone) String() string {
	switch s {
	case Empty:
		return "empty"
	case Black:
		return "black"
	case White:
		return "white"
	case Unspecified:
		return "unspecified"
	case BlackRecursed:
		return "black_recursed"
	case WhiteRecursed:
		return "white_recursed"
	}
	return "unknown"
}

// Parse accepts "b", "black", "w", "white" in any case.
func Parse(s string) (Stone, bool) {
	switch s {
	case "b", "B", "black", "Black", "BLACK":
		return Black, true
	case "w", "W", "white", "White", "WHITE":
		return White, true
	}
	return Empty, false
}

// Invert returns a copy of grid with every stone replaced by its opposite.
func Invert(grid []Stone) []Stone {
	out := make([]Stone, len(grid))
	for i, s := range grid {
		out[i] = s.Opposite()
	}
	return out
}
