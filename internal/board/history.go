package board

import "iter"

// History is one line of play. Snapshots live in an arena whose order is the
// line order, so the parent of node i is i-1 and its successor is i+1.
// Playing a different move behind the tip truncates the arena at that point.
type History struct {
	nodes   []*Position
	current int
}

// NewHistory starts a line at the given root snapshot.
func NewHistory(root *Position) *History {
	return &History{nodes: []*Position{root}}
}

func (h *History) Current() *Position {
	return h.nodes[h.current]
}

// Index is the position of the current pointer in the line, 0 at the root.
func (h *History) Index() int {
	return h.current
}

// Len is the number of snapshots in the line, the root included.
func (h *History) Len() int {
	return len(h.nodes)
}

// At returns the i-th snapshot of the line or nil.
func (h *History) At(i int) *Position {
	if i < 0 || i >= len(h.nodes) {
		return nil
	}
	return h.nodes[i]
}

// PeekNext returns the snapshot after the current one without moving.
func (h *History) PeekNext() *Position {
	return h.At(h.current + 1)
}

// Next advances the pointer and returns the new current snapshot, or nil at the tip.
func (h *History) Next() *Position {
	if h.current+1 >= len(h.nodes) {
		return nil
	}
	h.current++
	return h.nodes[h.current]
}

// Previous moves the pointer back and returns the new current snapshot, or nil at the root.
func (h *History) Previous() *Position {
	if h.current == 0 {
		return nil
	}
	h.current--
	return h.nodes[h.current]
}

func (h *History) ToStart() {
	h.current = 0
}

func (h *History) ToEnd() {
	h.current = len(h.nodes) - 1
}

// Add records p after the current snapshot. If p is the move already recorded
// next, the pointer advances and the future is kept; otherwise the stale
// future is discarded and p becomes the new tip.
func (h *History) Add(p *Position) {
	if next := h.PeekNext(); next != nil && next.sameMove(p) {
		h.current++
		return
	}
	for i := h.current + 1; i < len(h.nodes); i++ {
		h.nodes[i] = nil
	}
	h.nodes = append(h.nodes[:h.current+1], p)
	h.current++
}

// Ancestors yields the current snapshot and every earlier one whose side to
// move matches blackToPlay, nearest first.
func (h *History) Ancestors(blackToPlay bool) iter.Seq[*Position] {
	return func(yield func(*Position) bool) {
		for i := h.current; i >= 0; i-- {
			p := h.nodes[i]
			if p.BlackToPlay != blackToPlay {
				continue
			}
			if !yield(p) {
				return
			}
		}
	}
}

// ViolatesSuperko reports whether p repeats an earlier position with the
// same side to move. Hash collisions are treated as impossible.
func (h *History) ViolatesSuperko(p *Position) bool {
	for a := range h.Ancestors(p.BlackToPlay) {
		if a.Hash == p.Hash {
			return true
		}
	}
	return false
}

// Line returns a copy of the snapshot slice, root first.
func (h *History) Line() []*Position {
	out := make([]*Position, len(h.nodes))
	copy(out, h.nodes)
	return out
}
