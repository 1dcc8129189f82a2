package sgf

// GameTree is one SGF game tree: a run of nodes followed by variations.
// The main line continues through Children[0].
type GameTree struct {
	Nodes    []Node
	Children []*GameTree
}

// Node is one SGF node. Properties may repeat, e.g. AB[aa][bb].
type Node struct {
	Properties map[string][]string
}

// SGF is the root of a record.
type SGF struct {
	Root *GameTree
}

// Get returns the first value of key.
func (n Node) Get(key string) (string, bool) {
	v, ok := n.Properties[key]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

// Add appends values to key.
func (n *Node) Add(key string, values ...string) {
	if n.Properties == nil {
		n.Properties = make(map[string][]string)
	}
	n.Properties[key] = append(n.Properties[key], values...)
}

// MainLine returns the nodes of the first variation at every fork, root first.
func (t *GameTree) MainLine() []Node {
	var out []Node
	for cur := t; cur != nil; {
		out = append(out, cur.Nodes...)
		if len(cur.Children) == 0 {
			break
		}
		cur = cur.Children[0]
	}
	return out
}

// GameInfo holds the root properties a viewer cares about.
type GameInfo struct {
	PlayerBlack string  `json:"player_black" bson:"player_black"`
	PlayerWhite string  `json:"player_white" bson:"player_white"`
	Komi        float64 `json:"komi" bson:"komi"`
	Result      string  `json:"result" bson:"result"`
	Date        string  `json:"date" bson:"date"`
	Event       string  `json:"event" bson:"event"`
}
