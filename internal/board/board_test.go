package board

import (
	"testing"

	"omega/internal/domain/coord"
	"omega/internal/domain/stone"
	"omega/internal/zobrist"
)

func mustPlace(t *testing.T, b *Board, x, y int, color stone.Stone) {
	t.Helper()
	if !b.Place(x, y, color) {
		t.Fatalf("Place(%d,%d,%v) rejected", x, y, color)
	}
}

func countStones(p *Position) (black, white int) {
	for _, s := range p.Stones {
		switch s {
		case stone.Black:
			black++
		case stone.White:
			white++
		}
	}
	return black, white
}

func assertHashConsistent(t *testing.T, b *Board) {
	t.Helper()
	p := b.Data()
	if want := zobrist.FromStones(p.Stones); p.Hash != want {
		t.Fatalf("incremental hash %x != recomputed %x", p.Hash, want)
	}
	for _, s := range p.Stones {
		if s == stone.BlackRecursed || s == stone.WhiteRecursed {
			t.Fatal("recursed marker leaked into a recorded position")
		}
	}
}

func TestPlaceRejectsOccupiedAndInvalid(t *testing.T) {
	b := New()
	mustPlace(t, b, 3, 3, stone.Black)
	before := b.Data()

	if b.Place(3, 3, stone.White) {
		t.Error("placing on an occupied point must fail")
	}
	if b.Place(-1, 0, stone.White) || b.Place(0, coord.Size, stone.White) {
		t.Error("placing off the board must fail")
	}
	if b.Place(4, 4, stone.Empty) {
		t.Error("placing a non-color must fail")
	}
	if b.Data() != before {
		t.Error("rejected moves must not change the board")
	}
}

func TestSingleCaptureAndHash(t *testing.T) {
	b := New()
	mustPlace(t, b, 1, 0, stone.Black)
	mustPlace(t, b, 0, 0, stone.White)
	before := b.Data().Hash
	mustPlace(t, b, 0, 1, stone.Black)

	p := b.Data()
	if p.At(0, 0) != stone.Empty {
		t.Fatal("white corner stone should have been captured")
	}
	if p.MoveNumberList[coord.Index(0, 0)] != 0 {
		t.Error("move number of a captured cell must reset to 0")
	}
	if p.MoveNumberList[coord.Index(0, 1)] != 3 {
		t.Errorf("move number of new stone = %d, want 3", p.MoveNumberList[coord.Index(0, 1)])
	}
	want := before.Toggle(0, 1, stone.Black).Toggle(0, 0, stone.White)
	if p.Hash != want {
		t.Fatalf("hash %x, want %x", p.Hash, want)
	}
	assertHashConsistent(t, b)
}

func TestSelfAtariThenCaptureRestoresHash(t *testing.T) {
	b := New()
	mustPlace(t, b, 1, 0, stone.White)
	before := b.Data().Hash

	// Black plays into atari and white takes it straight away.
	mustPlace(t, b, 0, 0, stone.Black)
	mustPlace(t, b, 0, 1, stone.White)

	if b.Data().At(0, 0) != stone.Empty {
		t.Fatal("black stone in atari should have been captured")
	}
	if got := b.Data().Hash.Toggle(0, 1, stone.White); got != before {
		t.Fatalf("hash without the capturing stone = %x, want %x", got, before)
	}
	assertHashConsistent(t, b)
}

func TestFillingEyeCapturesSurroundingStones(t *testing.T) {
	b := New()
	// White eye at (0,0) surrounded by white at (1,0), (0,1); black has
	// surrounded those from outside except for one shared liberty.
	mustPlace(t, b, 1, 0, stone.White)
	mustPlace(t, b, 0, 1, stone.White)
	mustPlace(t, b, 2, 0, stone.Black)
	mustPlace(t, b, 1, 1, stone.Black)
	mustPlace(t, b, 0, 2, stone.Black)
	beforeSelfAtari := b.Data().Hash

	// Black fills the eye: no liberties for itself, but it captures the two
	// white stones, which makes it legal.
	mustPlace(t, b, 0, 0, stone.Black)
	black, white := countStones(b.Data())
	if white != 0 || black != 4 {
		t.Fatalf("after capture black=%d white=%d", black, white)
	}
	want := beforeSelfAtari.
		Toggle(0, 0, stone.Black).
		Toggle(1, 0, stone.White).
		Toggle(0, 1, stone.White)
	if b.Data().Hash != want {
		t.Fatalf("hash %x, want %x", b.Data().Hash, want)
	}

	// Undo restores the pre-placement hash exactly.
	if !b.PreviousMove() {
		t.Fatal("PreviousMove failed")
	}
	if b.Data().Hash != beforeSelfAtari {
		t.Fatal("undo did not restore the hash")
	}
}

func TestSimultaneousMultiGroupCapture(t *testing.T) {
	b := New()
	mustPlace(t, b, 0, 0, stone.White)
	mustPlace(t, b, 2, 0, stone.White)
	mustPlace(t, b, 0, 1, stone.Black)
	mustPlace(t, b, 3, 0, stone.Black)
	mustPlace(t, b, 2, 1, stone.Black)

	mustPlace(t, b, 1, 0, stone.Black)
	p := b.Data()
	if p.At(0, 0) != stone.Empty || p.At(2, 0) != stone.Empty {
		t.Fatal("both white stones should be captured by one move")
	}
	assertHashConsistent(t, b)
}

func TestSuicideRejected(t *testing.T) {
	b := New()
	mustPlace(t, b, 1, 0, stone.White)
	mustPlace(t, b, 0, 1, stone.White)
	before := b.Data()

	if b.Place(0, 0, stone.Black) {
		t.Fatal("suicide must be rejected")
	}
	if b.Data() != before {
		t.Fatal("suicide attempt changed the board")
	}
	if b.Data().At(0, 0) != stone.Empty {
		t.Fatal("suicide stone left on the board")
	}

	// Multi-stone suicide.
	mustPlace(t, b, 2, 0, stone.White)
	mustPlace(t, b, 1, 1, stone.White)
	mustPlace(t, b, 0, 2, stone.White)
	if !b.RemoveStone(1, 0) {
		t.Fatal("RemoveStone failed")
	}
	mustPlace(t, b, 1, 0, stone.Black)
	before = b.Data()
	if b.Place(0, 0, stone.Black) {
		t.Fatal("two-stone suicide must be rejected")
	}
	if b.Data() != before {
		t.Fatal("rejected suicide changed the board")
	}
	assertHashConsistent(t, b)
}

func setupKo(t *testing.T) *Board {
	t.Helper()
	b := New()
	mustPlace(t, b, 1, 0, stone.Black)
	mustPlace(t, b, 2, 0, stone.White)
	mustPlace(t, b, 0, 1, stone.Black)
	mustPlace(t, b, 3, 1, stone.White)
	mustPlace(t, b, 1, 2, stone.Black)
	mustPlace(t, b, 2, 2, stone.White)
	mustPlace(t, b, 1, 1, stone.White)
	return b
}

func TestKoRecaptureRejectedBySuperko(t *testing.T) {
	b := setupKo(t)

	mustPlace(t, b, 2, 1, stone.Black)
	if b.Data().At(1, 1) != stone.Empty {
		t.Fatal("black should capture the white stone in the ko")
	}

	taken := b.Data()
	if b.Place(1, 1, stone.White) {
		t.Fatal("immediate ko recapture must be rejected")
	}
	if b.Data() != taken {
		t.Fatal("rejected recapture changed the board")
	}

	// Exchange elsewhere, then the recapture is legal.
	mustPlace(t, b, 10, 10, stone.White)
	mustPlace(t, b, 12, 12, stone.Black)
	if !b.Place(1, 1, stone.White) {
		t.Fatal("recapture after a ko threat exchange should be legal")
	}
	if b.Data().At(2, 1) != stone.Empty {
		t.Fatal("white recapture should remove the black stone")
	}
	assertHashConsistent(t, b)
}

func TestPassIsAlwaysLegal(t *testing.T) {
	b := New()
	if !b.Pass(stone.Black) {
		t.Fatal("pass must be legal")
	}
	p := b.Data()
	if p.LastMove != nil || !p.IsPass() || p.BlackToPlay {
		t.Fatalf("unexpected pass snapshot: %+v", p)
	}
	if p.MoveNumber != 1 || p.Hash != 0 {
		t.Fatalf("pass snapshot move=%d hash=%x", p.MoveNumber, p.Hash)
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	b := New()
	start := b.Data()
	moves := [][2]int{{3, 3}, {15, 15}, {3, 15}, {15, 3}, {9, 9}}
	for _, m := range moves {
		if !b.Play(m[0], m[1]) {
			t.Fatalf("Play(%v) rejected", m)
		}
	}
	tip := b.Data()

	for range moves {
		if !b.PreviousMove() {
			t.Fatal("PreviousMove failed before reaching the start")
		}
	}
	if b.PreviousMove() {
		t.Fatal("PreviousMove at the start must fail")
	}
	got := b.Data()
	if got != start || got.Hash != start.Hash || got.MoveNumber != 0 {
		t.Fatal("undoing every move did not return to the start snapshot")
	}

	for range moves {
		if !b.NextMove() {
			t.Fatal("NextMove failed before reaching the tip")
		}
	}
	if b.NextMove() {
		t.Fatal("NextMove at the tip must fail")
	}
	if b.Data() != tip {
		t.Fatal("redo did not restore the recorded tip")
	}
}

func TestReplayingRecordedMoveKeepsFuture(t *testing.T) {
	b := New()
	b.Play(3, 3)
	b.Play(15, 15)
	b.Play(3, 15)
	line, _ := b.Line()

	b.PreviousMove()
	b.PreviousMove()
	// Same move as recorded: pointer advances, future is kept.
	if !b.Play(15, 15) {
		t.Fatal("replayed move rejected")
	}
	after, idx := b.Line()
	if len(after) != len(line) || idx != 2 {
		t.Fatalf("line len=%d idx=%d, want %d and 2", len(after), idx, len(line))
	}
	if after[2] != line[2] || after[3] != line[3] {
		t.Fatal("replay must reuse the recorded snapshots")
	}

	// Different move: stale future is pruned.
	b.PreviousMove()
	if !b.Play(16, 16) {
		t.Fatal("divergent move rejected")
	}
	pruned, idx := b.Line()
	if len(pruned) != 3 || idx != 2 {
		t.Fatalf("after divergence len=%d idx=%d, want 3 and 2", len(pruned), idx)
	}
	if b.NextMove() {
		t.Fatal("pruned future must not be reachable")
	}
}

func TestEndToEndQ16D4Pass(t *testing.T) {
	b := New()
	if ok, err := b.PlayNamed("Q16"); !ok || err != nil {
		t.Fatalf("Q16: %v %v", ok, err)
	}
	if ok, err := b.PlayNamed("D4"); !ok || err != nil {
		t.Fatalf("D4: %v %v", ok, err)
	}
	if ok, err := b.PlayNamed("pass"); !ok || err != nil {
		t.Fatalf("pass: %v %v", ok, err)
	}
	line, _ := b.Line()
	if len(line) != 4 {
		t.Fatalf("history has %d snapshots, want root + 3", len(line))
	}
	afterD4 := line[2]

	b.PreviousMove()
	if b.Data() != afterD4 {
		t.Fatal("one PreviousMove should return to the position after D4")
	}
	if b.Data().LastMove.String() != "D4" || b.Data().LastMoveColor != stone.White {
		t.Fatalf("last move = %v by %v", b.Data().LastMove, b.Data().LastMoveColor)
	}
	b.PreviousMove()
	b.NextMove()
	if b.Data() != afterD4 {
		t.Fatal("navigation did not land on the position after D4")
	}

	if !b.Pass(stone.Black) {
		t.Fatal("pass replay failed")
	}
	replayed, idx := b.Line()
	if len(replayed) != 4 || idx != 3 || replayed[3] != line[3] {
		t.Fatal("replaying the recorded pass must not branch")
	}
}

func TestPlaceModes(t *testing.T) {
	b := New()
	b.SetPlaceMode(BlackOnly)
	b.Play(0, 0)
	b.Play(1, 1)
	p := b.Data()
	if p.At(0, 0) != stone.Black || p.At(1, 1) != stone.Black {
		t.Fatal("BlackOnly mode must place black stones")
	}

	b.SetPlaceMode(WhiteOnly)
	b.Play(2, 2)
	if b.Data().At(2, 2) != stone.White {
		t.Fatal("WhiteOnly mode must place white stones")
	}

	b.SetPlaceMode(Remove)
	if !b.Play(1, 1) {
		t.Fatal("Remove mode should delete the stone")
	}
	p = b.Data()
	if p.At(1, 1) != stone.Empty || p.LastMove != nil || p.LastMoveColor != stone.Empty {
		t.Fatalf("unexpected removal snapshot %+v", p)
	}
	if b.Play(1, 1) {
		t.Fatal("removing from an empty point must fail")
	}
	assertHashConsistent(t, b)

	if m, ok := ParsePlaceMode("remove"); !ok || m != Remove {
		t.Fatal("ParsePlaceMode(remove) failed")
	}
}

func TestWholeBoardCaptureDoesNotOverflow(t *testing.T) {
	b := New()
	for x := 0; x < coord.Size; x++ {
		for y := 0; y < coord.Size; y++ {
			if x == coord.Size-1 && y == coord.Size-1 {
				continue
			}
			mustPlace(t, b, x, y, stone.Black)
		}
	}
	mustPlace(t, b, coord.Size-1, coord.Size-1, stone.White)
	black, white := countStones(b.Data())
	if black != 0 || white != 1 {
		t.Fatalf("black=%d white=%d after whole-board capture", black, white)
	}
	assertHashConsistent(t, b)
}

func TestHashOrderIndependentAcrossMoveOrders(t *testing.T) {
	a := New()
	a.Place(3, 3, stone.Black)
	a.Place(4, 4, stone.White)
	a.Place(5, 5, stone.Black)

	b := New()
	b.Place(5, 5, stone.Black)
	b.Place(4, 4, stone.White)
	b.Place(3, 3, stone.Black)

	if a.Data().Hash != b.Data().Hash {
		t.Fatal("same arrangement reached in different order must hash equal")
	}
}

func TestClearAndToStartToEnd(t *testing.T) {
	b := New()
	b.Play(3, 3)
	b.Play(4, 4)
	if n := b.ToStart(); n != 2 {
		t.Fatalf("ToStart skipped %d", n)
	}
	if n := b.ToEnd(); n != 2 {
		t.Fatalf("ToEnd replayed %d", n)
	}
	if !b.Goto(1) || b.Data().MoveNumber != 1 {
		t.Fatal("Goto(1) failed")
	}
	b.Clear()
	line, idx := b.Line()
	if len(line) != 1 || idx != 0 || !b.Data().BlackToPlay {
		t.Fatal("Clear must leave only an empty root, black to play")
	}
}
