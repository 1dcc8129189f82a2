package sgf

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"omega/internal/domain/coord"
	"omega/internal/domain/sgf"
	"omega/internal/domain/stone"
	errs "omega/internal/errors"
)

// Mutator is the part of a board a record is replayed onto. Every call obeys
// the same legality rules as interactive play; rejected calls are skipped.
type Mutator interface {
	Clear()
	Place(x, y int, color stone.Stone) bool
	Pass(color stone.Stone) bool
	RemoveStone(x, y int) bool
	ToStart() int
}

// Load parses text and replays its main line onto m, then rewinds m to the
// start of the game.
func Load(text string, m Mutator) (sgf.GameInfo, error) {
	record, err := Parse(text)
	if err != nil {
		return sgf.GameInfo{}, err
	}
	return Replay(record, m), nil
}

// LoadFile is Load for a file on disk.
func LoadFile(path string, m Mutator) (sgf.GameInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sgf.GameInfo{}, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return sgf.GameInfo{}, fmt.Errorf("%w: %s is empty", errs.ErrMalformedRecord, path)
	}
	info, err := Load(string(data), m)
	if err != nil {
		return info, fmt.Errorf("%s: %w", path, err)
	}
	return info, nil
}

// Replay issues Clear, then the setup and move calls of the main line in
// file order, then ToStart.
func Replay(record *sgf.SGF, m Mutator) sgf.GameInfo {
	m.Clear()
	nodes := record.Root.MainLine()
	for _, n := range nodes {
		for _, p := range points(n.Properties["AE"]) {
			m.RemoveStone(p.X, p.Y)
		}
		for _, p := range points(n.Properties["AB"]) {
			m.Place(p.X, p.Y, stone.Black)
		}
		for _, p := range points(n.Properties["AW"]) {
			m.Place(p.X, p.Y, stone.White)
		}
		for _, key := range []string{"B", "W"} {
			v, ok := n.Get(key)
			if !ok {
				continue
			}
			color := stone.Black
			if key == "W" {
				color = stone.White
			}
			if x, y, ok := coord.FromSGF(v); ok {
				m.Place(x, y, color)
			} else {
				m.Pass(color)
			}
		}
	}
	m.ToStart()
	return Info(nodes[0])
}

// points expands a list of SGF points, including "aa:cc" rectangles.
func points(values []string) []coord.Point {
	var out []coord.Point
	for _, v := range values {
		from, to, isRect := strings.Cut(v, ":")
		x1, y1, ok := coord.FromSGF(from)
		if !ok {
			continue
		}
		if !isRect {
			out = append(out, coord.Point{X: x1, Y: y1})
			continue
		}
		x2, y2, ok := coord.FromSGF(to)
		if !ok {
			continue
		}
		for x := min(x1, x2); x <= max(x1, x2); x++ {
			for y := min(y1, y2); y <= max(y1, y2); y++ {
				out = append(out, coord.Point{X: x, Y: y})
			}
		}
	}
	return out
}

// Info reads the game information of a root node.
func Info(root sgf.Node) sgf.GameInfo {
	info := sgf.GameInfo{}
	info.PlayerBlack, _ = root.Get("PB")
	info.PlayerWhite, _ = root.Get("PW")
	info.Result, _ = root.Get("RE")
	info.Date, _ = root.Get("DT")
	info.Event, _ = root.Get("EV")
	if km, ok := root.Get("KM"); ok {
		if v, err := strconv.ParseFloat(strings.TrimSpace(km), 64); err == nil {
			info.Komi = v
		}
	}
	return info
}
