package coord

import (
	"errors"
	"testing"

	errs "omega/internal/errors"
)

func TestNameParseRoundTrip(t *testing.T) {
	for x := 0; x < Size; x++ {
		for y := 0; y < Size; y++ {
			name := Name(x, y)
			gx, gy, err := Parse(name)
			if err != nil {
				t.Fatalf("Parse(%q): %v", name, err)
			}
			if gx != x || gy != y {
				t.Fatalf("Parse(Name(%d,%d)) = (%d,%d)", x, y, gx, gy)
			}
		}
	}
}

func TestKnownNames(t *testing.T) {
	cases := []struct {
		name string
		x, y int
	}{
		{"A1", 0, 0},
		{"Q16", 15, 15},
		{"D4", 3, 3},
		{"T19", 18, 18},
		{"j10", 8, 9},
	}
	for _, c := range cases {
		x, y, err := Parse(c.name)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.name, err)
		}
		if x != c.x || y != c.y {
			t.Errorf("Parse(%q) = (%d,%d), want (%d,%d)", c.name, x, y, c.x, c.y)
		}
	}
}

func TestParseRejects(t *testing.T) {
	for _, name := range []string{"", "A", "I5", "A0", "A20", "Z3", "pass"} {
		if _, _, err := Parse(name); !errors.Is(err, errs.ErrInvalidCoordinate) {
			t.Errorf("Parse(%q) err = %v", name, err)
		}
	}
}

func TestSGFRoundTrip(t *testing.T) {
	x, y, ok := FromSGF("pd")
	if !ok || Name(x, y) != "Q16" {
		t.Fatalf("FromSGF(pd) = %s, %v", Name(x, y), ok)
	}
	if got := ToSGF(x, y); got != "pd" {
		t.Errorf("ToSGF = %q", got)
	}
	if _, _, ok := FromSGF("tt"); ok {
		t.Error("tt must be a pass")
	}
}

func TestIndex(t *testing.T) {
	i := Index(3, 7)
	x, y := FromIndex(i)
	if x != 3 || y != 7 {
		t.Fatalf("FromIndex(Index(3,7)) = (%d,%d)", x, y)
	}
}
