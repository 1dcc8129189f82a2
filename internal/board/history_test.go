package board

import (
	"testing"

	"omega/internal/domain/coord"
	"omega/internal/domain/stone"
	"omega/internal/zobrist"
)

func snapshot(n int, blackToPlay bool, hash zobrist.Hash) *Position {
	p := NewPosition()
	p.MoveNumber = n
	p.BlackToPlay = blackToPlay
	p.Hash = hash
	return p
}

func TestHistoryNavigationBounds(t *testing.T) {
	h := NewHistory(NewPosition())
	if h.Previous() != nil || h.Next() != nil {
		t.Fatal("a single-node history has nowhere to go")
	}
	h.Add(snapshot(1, false, 1))
	h.Add(snapshot(2, true, 2))
	if h.Len() != 3 || h.Index() != 2 {
		t.Fatalf("len=%d idx=%d", h.Len(), h.Index())
	}
	h.ToStart()
	if h.Current().MoveNumber != 0 || h.PeekNext().MoveNumber != 1 {
		t.Fatal("ToStart should land on the root")
	}
	h.ToEnd()
	if h.Current().MoveNumber != 2 || h.PeekNext() != nil {
		t.Fatal("ToEnd should land on the tip")
	}
}

func TestAncestorsFiltersBySideAndStopsEarly(t *testing.T) {
	h := NewHistory(NewPosition())
	for i := 1; i <= 6; i++ {
		h.Add(snapshot(i, i%2 == 0, zobrist.Hash(i)))
	}

	var seen []int
	for p := range h.Ancestors(true) {
		seen = append(seen, p.MoveNumber)
	}
	want := []int{6, 4, 2, 0}
	if len(seen) != len(want) {
		t.Fatalf("ancestors = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("ancestors = %v, want %v", seen, want)
		}
	}

	count := 0
	for range h.Ancestors(false) {
		count++
		break
	}
	if count != 1 {
		t.Fatal("iteration must stop when the consumer breaks")
	}
}

func TestViolatesSuperkoNeedsSameSide(t *testing.T) {
	h := NewHistory(NewPosition())
	h.Add(snapshot(1, false, 77))
	h.Add(snapshot(2, true, 5))

	if !h.ViolatesSuperko(snapshot(3, false, 77)) {
		t.Fatal("same hash and same side to move must violate superko")
	}
	if h.ViolatesSuperko(snapshot(3, true, 77)) {
		t.Fatal("same hash with the other side to move is not a repetition")
	}
}

func TestAddPrunesStaleFuture(t *testing.T) {
	h := NewHistory(NewPosition())
	h.Add(snapshot(1, false, 1))
	h.Add(snapshot(2, true, 2))
	h.Add(snapshot(3, false, 3))
	h.Previous()
	h.Previous()

	h.Add(snapshot(2, true, 99))
	if h.Len() != 3 || h.Index() != 2 {
		t.Fatalf("len=%d idx=%d after divergence", h.Len(), h.Index())
	}
	if h.Current().Hash != 99 {
		t.Fatal("new branch snapshot should be current")
	}
}

func TestInfluenceFavoursTheNearbyStone(t *testing.T) {
	b := New()
	mustPlace(t, b, 3, 3, stone.Black)
	mustPlace(t, b, 15, 15, stone.White)
	heat := b.Data().Influence(true)

	if heat[coord.Index(4, 4)] <= 0.5 {
		t.Fatalf("near the black stone = %v, want > 0.5", heat[coord.Index(4, 4)])
	}
	if heat[coord.Index(14, 14)] >= 0.5 {
		t.Fatalf("near the white stone = %v, want < 0.5", heat[coord.Index(14, 14)])
	}
	if heat[coord.Index(9, 9)] != 0.5 {
		t.Fatalf("centre = %v, want neutral", heat[coord.Index(9, 9)])
	}
	if heat[coord.Index(3, 3)] != 0.75 {
		t.Fatalf("clamped black stone = %v, want 0.75", heat[coord.Index(3, 3)])
	}
}
