// Package sgf converts between Histories and SGF game trees.
package sgf

import (
	"fmt"

	"lizboard/internal/domain/coord"
	"lizboard/internal/domain/game"
	sgfDomain "lizboard/internal/domain/sgf"
	"lizboard/internal/errors"
)

// Loaded is a parsed record ready to be merged into a History.
type Loaded struct {
	Tree    *sgfDomain.GameTree
	Clipped string
}

// Read clips and parses text and returns its main line.
func Read(text string) (Loaded, error) {
	clipped, err := Clip(text)
	if err != nil {
		return Loaded{}, err
	}
	parsed, err := Parse(clipped)
	if err != nil {
		return Loaded{}, err
	}
	line := parsed.Root.MainLine()
	if line == nil || len(line.Nodes) == 0 {
		return Loaded{}, fmt.Errorf("empty game tree: %w", errors.ErrMalformedRecord)
	}
	return Loaded{Tree: line, Clipped: clipped}, nil
}

// EntriesFromNodes expands AB, B and W of each node, in that order, into
// entries numbered from 1.
func EntriesFromNodes(nodes []sgfDomain.Node) []game.Entry {
	var entries []game.Entry
	add := func(positions []string, isBlack bool) {
		for _, pos := range positions {
			entries = append(entries, game.Entry{
				Move:      coord.FromSGF(pos),
				IsBlack:   isBlack,
				MoveCount: len(entries) + 1,
			})
		}
	}
	for _, n := range nodes {
		add(n.Values("AB"), true)
		add(n.Values("B"), true)
		add(n.Values("W"), false)
	}
	return entries
}

// Target describes a position inside a tree: every ancestor node plus the
// tree's own nodes up to index (inclusive). A negative index means all.
type Target struct {
	Tree  *sgfDomain.GameTree
	Index int
}

func (t Target) AllNodes() []sgfDomain.Node {
	return append(t.Tree.ParentNodes(), t.Tree.Nodes...)
}

func (t Target) NodesUntilIndex() []sgfDomain.Node {
	nodes := t.Tree.Nodes
	if t.Index >= 0 && t.Index+1 < len(nodes) {
		nodes = nodes[:t.Index+1]
	}
	return append(t.Tree.ParentNodes(), nodes...)
}

// Players reads PB and PW from the first node of the path.
func (t Target) Players() (black, white string) {
	nodes := t.NodesUntilIndex()
	if len(nodes) == 0 {
		return "", ""
	}
	return nodes[0].First("PB"), nodes[0].First("PW")
}
