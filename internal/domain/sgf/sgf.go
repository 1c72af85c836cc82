package sgf

// GameTree is one SGF tree: a run of nodes followed by its variations.
type GameTree struct {
	Nodes    []Node      `json:"nodes"`
	Children []*GameTree `json:"-"`
	Parent   *GameTree   `json:"-"`
}

// Node holds the properties of one SGF node, e.g. B[pd], AB[aa][bb].
type Node struct {
	Properties map[string][]string
}

// SGF is the parsed collection; Root is the first game.
type SGF struct {
	Root *GameTree
}

// Values returns the values of key, nil when absent.
func (n Node) Values(key string) []string {
	return n.Properties[key]
}

// First returns the first value of key or "".
func (n Node) First(key string) string {
	if v := n.Properties[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// PathNodes returns every node from the root of the tree down to the end
// of t, following the parent chain.
func (t *GameTree) PathNodes() []Node {
	if t == nil {
		return nil
	}
	return append(t.Parent.PathNodes(), t.Nodes...)
}

// ParentNodes returns the nodes of the ancestors of t only.
func (t *GameTree) ParentNodes() []Node {
	if t == nil {
		return nil
	}
	return t.Parent.PathNodes()
}

// MainLine flattens the first variation at every branch into one tree.
func (t *GameTree) MainLine() *GameTree {
	if t == nil {
		return nil
	}
	line := &GameTree{}
	for cur := t; cur != nil; {
		line.Nodes = append(line.Nodes, cur.Nodes...)
		if len(cur.Children) == 0 {
			break
		}
		cur = cur.Children[0]
	}
	return line
}
