package repository

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"omega/internal/domain"
	"omega/internal/domain/coord"
	errs "omega/internal/errors"
)

const (
	ponderBegin = "~begin"
	ponderEnd   = "~end"

	heatmapRows  = coord.Size
	heatmapLines = heatmapRows + 2
	// maxHeatmapLines bounds how many unrelated lines may arrive before a
	// pending heatmap is given up.
	maxHeatmapLines = 4 * heatmapLines
)

// Q16 ->    1542 (V: 52.31%) (LCB: 51.02%) (N: 20.12%) PV: Q16 D4 Q3
var moveDataRe = regexp.MustCompile(
	`^(\S+)\s+->\s+(\d+)\s+\(V:\s*([-\d.]+)%\)\s+(?:\(LCB:\s*[-\d.]+%\)\s+)?\(N:\s*([-\d.]+)%\)\s*(?:PV:\s*(.*))?$`)

// isSuggestionLine reports whether a trimmed line inside a ponder block
// describes a candidate move.
func isSuggestionLine(line string) bool {
	if line == "" || strings.HasPrefix(line, coord.Pass) {
		return false
	}
	return unicode.IsLetter(rune(line[0]))
}

func parseMoveData(line string) (domain.MoveData, error) {
	m := moveDataRe.FindStringSubmatch(line)
	if m == nil {
		return domain.MoveData{}, fmt.Errorf("%w: suggestion %q", errs.ErrMalformedRecord, line)
	}
	playouts, err := strconv.Atoi(m[2])
	if err != nil {
		return domain.MoveData{}, fmt.Errorf("%w: playouts %q", errs.ErrMalformedRecord, m[2])
	}
	winrate, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return domain.MoveData{}, fmt.Errorf("%w: winrate %q", errs.ErrMalformedRecord, m[3])
	}
	policy, err := strconv.ParseFloat(m[4], 64)
	if err != nil {
		return domain.MoveData{}, fmt.Errorf("%w: policy %q", errs.ErrMalformedRecord, m[4])
	}
	return domain.MoveData{
		Coordinate: m[1],
		Playouts:   playouts,
		Winrate:    winrate,
		Policy:     policy,
		Variation:  strings.Fields(m[5]),
	}, nil
}

// heatmapRow parses a row of exactly 19 integers.
func heatmapRow(line string) ([]int, bool) {
	fields := strings.Fields(line)
	if len(fields) != coord.Size {
		return nil, false
	}
	row := make([]int, coord.Size)
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, false
		}
		row[i] = n
	}
	return row, true
}

// heatmapBuffer accumulates the 21 lines of a heatmap response: 19 rows,
// then "pass: N", then "winrate: F". Lines of any other shape are skipped.
type heatmapBuffer struct {
	rows    [][]int
	pass    int
	hasPass bool
	winrate float64
	done    bool
	seen    int
}

// add feeds one trimmed line and reports whether it belonged to the response.
func (b *heatmapBuffer) add(line string) bool {
	b.seen++
	switch {
	case len(b.rows) < heatmapRows:
		row, ok := heatmapRow(line)
		if !ok {
			return false
		}
		b.rows = append(b.rows, row)
	case !b.hasPass:
		v, ok := strings.CutPrefix(line, "pass:")
		if !ok {
			return false
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return false
		}
		b.pass, b.hasPass = n, true
	default:
		v, ok := strings.CutPrefix(line, "winrate:")
		if !ok {
			return false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return false
		}
		b.winrate, b.done = f, true
	}
	return true
}

func (b *heatmapBuffer) exhausted() bool {
	return !b.done && b.seen >= maxHeatmapLines
}

// heatmap normalizes the buffered weights. The engine prints the top row
// first, so input row k holds board row Size-1-k.
func (b *heatmapBuffer) heatmap() *domain.Heatmap {
	h := &domain.Heatmap{
		Probabilities: make([]float64, coord.Cells),
		Winrate:       b.winrate,
	}
	total := b.pass
	for k, row := range b.rows {
		y := coord.Size - 1 - k
		for x, w := range row {
			h.Probabilities[coord.Index(x, y)] = float64(w)
			total += w
		}
	}
	if total == 0 {
		return h
	}
	for i := range h.Probabilities {
		h.Probabilities[i] /= float64(total)
	}
	h.PassProbability = float64(b.pass) / float64(total)
	return h
}

// parseHeatmap converts a complete 21-line response.
func parseHeatmap(lines []string) (*domain.Heatmap, error) {
	var b heatmapBuffer
	for _, l := range lines {
		if !b.add(strings.TrimSpace(l)) {
			return nil, fmt.Errorf("%w: heatmap line %q", errs.ErrMalformedRecord, l)
		}
	}
	if !b.done {
		return nil, fmt.Errorf("%w: heatmap has %d of %d lines", errs.ErrHeatmapAborted, len(lines), heatmapLines)
	}
	return b.heatmap(), nil
}

// genmoveReply extracts the move from a "= Q16" reply. Replies to other
// commands, like "= Leela Zero", do not parse as moves.
func genmoveReply(line string) (string, bool) {
	v, ok := strings.CutPrefix(line, "=")
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	if coord.IsPass(v) || strings.EqualFold(v, "resign") {
		return strings.ToLower(v), true
	}
	if _, _, err := coord.Parse(v); err != nil {
		return "", false
	}
	return strings.ToUpper(v), true
}
