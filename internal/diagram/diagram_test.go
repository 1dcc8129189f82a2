package diagram

import (
	"bytes"
	"testing"

	"omega/internal/board"
)

func line(t *testing.T, moves ...string) []*board.Position {
	t.Helper()
	b := board.New()
	for _, m := range moves {
		if ok, err := b.PlayNamed(m); !ok || err != nil {
			t.Fatalf("%s: %v %v", m, ok, err)
		}
	}
	l, _ := b.Line()
	return l
}

func TestRenderWritesPDF(t *testing.T) {
	l := line(t, "Q16", "D4", "pass")
	var buf bytes.Buffer
	heat := l[2].Influence(true)
	if err := Render(&buf, l[2], Options{Title: "test", Heat: heat}); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("not a pdf: %q", buf.Bytes()[:min(16, buf.Len())])
	}
}

func TestRenderLineOnePagePerPosition(t *testing.T) {
	l := line(t, "Q16", "D4", "C3")
	var one, three bytes.Buffer
	if err := RenderLine(&one, l, 3, 3, "game"); err != nil {
		t.Fatal(err)
	}
	if err := RenderLine(&three, l, 1, 3, "game"); err != nil {
		t.Fatal(err)
	}
	if three.Len() <= one.Len() {
		t.Fatalf("three pages (%d bytes) not larger than one (%d bytes)", three.Len(), one.Len())
	}
	if err := RenderLine(&one, l, 2, 9, "game"); err == nil {
		t.Fatal("out of range line accepted")
	}
}
