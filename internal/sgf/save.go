package sgf

import (
	"os"
	"sort"
	"strconv"
	"strings"

	"omega/internal/board"
	"omega/internal/domain/coord"
	"omega/internal/domain/sgf"
	"omega/internal/domain/stone"
)

const application = "omega"

// Record builds a single-line record of line. Root stones become AB/AW
// setup, moves become B/W nodes ("tt" for a pass) and removals AE nodes.
func Record(line []*board.Position, info sgf.GameInfo) *sgf.SGF {
	root := sgf.Node{}
	root.Add("FF", "4")
	root.Add("GM", "1")
	root.Add("SZ", strconv.Itoa(coord.Size))
	root.Add("KM", strconv.FormatFloat(info.Komi, 'f', 1, 64))
	root.Add("PB", info.PlayerBlack)
	root.Add("PW", info.PlayerWhite)
	root.Add("AP", application)
	if info.Date != "" {
		root.Add("DT", info.Date)
	}
	if info.Result != "" {
		root.Add("RE", info.Result)
	}
	if info.Event != "" {
		root.Add("EV", info.Event)
	}

	tree := &sgf.GameTree{}
	if len(line) > 0 {
		for i, s := range line[0].Stones {
			x, y := coord.FromIndex(i)
			switch s {
			case stone.Black:
				root.Add("AB", coord.ToSGF(x, y))
			case stone.White:
				root.Add("AW", coord.ToSGF(x, y))
			}
		}
	}
	tree.Nodes = append(tree.Nodes, root)

	for i := 1; i < len(line); i++ {
		p := line[i]
		n := sgf.Node{}
		switch {
		case p.LastMoveColor.IsColor() && p.LastMove != nil:
			n.Add(p.LastMoveColor.Letter(), coord.ToSGF(p.LastMove.X, p.LastMove.Y))
		case p.LastMoveColor.IsColor():
			n.Add(p.LastMoveColor.Letter(), "tt")
		default:
			prev := line[i-1]
			for j, s := range p.Stones {
				if s == stone.Empty && prev.Stones[j] != stone.Empty {
					n.Add("AE", coord.ToSGF(coord.FromIndex(j)))
				}
			}
		}
		tree.Nodes = append(tree.Nodes, n)
	}
	return &sgf.SGF{Root: tree}
}

// Save serializes the whole line of b, wherever its pointer is.
func Save(b *board.Board, info sgf.GameInfo) string {
	line, _ := b.Line()
	return Serialize(Record(line, info))
}

func SaveFile(path string, b *board.Board, info sgf.GameInfo) error {
	return os.WriteFile(path, []byte(Save(b, info)), 0o644)
}

func Serialize(s *sgf.SGF) string {
	var builder strings.Builder
	builder.WriteString("(")
	serializeGameTree(&builder, s.Root)
	builder.WriteString(")")
	return builder.String()
}

var orderedKeys = []string{"FF", "GM", "SZ", "PB", "PW", "DT", "EV", "RE", "KM", "RU", "AP", "C", "AE", "AB", "AW", "B", "W"}

func serializeGameTree(builder *strings.Builder, tree *sgf.GameTree) {
	for _, node := range tree.Nodes {
		builder.WriteString(";")

		used := make(map[string]bool)
		for _, key := range orderedKeys {
			if values, ok := node.Properties[key]; ok {
				used[key] = true
				writeProperty(builder, key, values)
			}
		}

		var rest []string
		for key := range node.Properties {
			if !used[key] {
				rest = append(rest, key)
			}
		}
		sort.Strings(rest)
		for _, key := range rest {
			writeProperty(builder, key, node.Properties[key])
		}
	}

	for _, child := range tree.Children {
		builder.WriteString("(")
		serializeGameTree(builder, child)
		builder.WriteString(")")
	}
}

func writeProperty(builder *strings.Builder, key string, values []string) {
	builder.WriteString(key)
	for _, v := range values {
		builder.WriteString("[")
		builder.WriteString(escape(v))
		builder.WriteString("]")
	}
}

func escape(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, "]", `\]`)
}
