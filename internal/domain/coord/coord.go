package coord

import (
	"fmt"
	"strconv"
	"strings"

	errs "omega/internal/errors"
)

// Size is the side length of the regulation board.
const Size = 19

// Cells is the number of points on the board.
const Cells = Size * Size

// Pass is the reserved token for a pass move.
const Pass = "pass"

// letters skips I.
const letters = "ABCDEFGHJKLMNOPQRST"

// Point is a zero-based board coordinate. Y grows upwards: Y=0 is row "1".
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Index returns the flat array index of (x, y).
func Index(x, y int) int {
	return x*Size + y
}

// FromIndex is the inverse of Index.
func FromIndex(i int) (x, y int) {
	return i / Size, i % Size
}

func IsValid(x, y int) bool {
	return x >= 0 && x < Size && y >= 0 && y < Size
}

func (p Point) Index() int {
	return Index(p.X, p.Y)
}

func (p Point) String() string {
	return Name(p.X, p.Y)
}

// Name converts (x, y) to a named coordinate such as "Q16". The point must be valid.
func Name(x, y int) string {
	return string(letters[x]) + strconv.Itoa(y+1)
}

// Parse converts a named coordinate such as "Q16" or "c3" into (x, y).
func Parse(name string) (x, y int, err error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if len(name) < 2 {
		return 0, 0, fmt.Errorf("%w: %q", errs.ErrInvalidCoordinate, name)
	}
	x = strings.IndexByte(letters, name[0])
	if x < 0 {
		return 0, 0, fmt.Errorf("%w: %q", errs.ErrInvalidCoordinate, name)
	}
	row, err := strconv.Atoi(name[1:])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", errs.ErrInvalidCoordinate, name)
	}
	y = row - 1
	if !IsValid(x, y) {
		return 0, 0, fmt.Errorf("%w: %q", errs.ErrInvalidCoordinate, name)
	}
	return x, y, nil
}

// IsPass reports whether a token names a pass.
func IsPass(token string) bool {
	return strings.EqualFold(strings.TrimSpace(token), Pass)
}

// ToSGF converts (x, y) to SGF letters. SGF rows count from the top.
func ToSGF(x, y int) string {
	return string([]byte{byte('a' + x), byte('a' + (Size - 1 - y))})
}

// FromSGF converts SGF letters to (x, y). ok is false for a pass ("" or "tt").
func FromSGF(s string) (x, y int, ok bool) {
	if len(s) != 2 || s == "tt" {
		return 0, 0, false
	}
	x = int(s[0] - 'a')
	y = Size - 1 - int(s[1]-'a')
	if !IsValid(x, y) {
		return 0, 0, false
	}
	return x, y, true
}
