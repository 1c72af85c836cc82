package sgf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"lizboard/internal/domain/coord"
	"lizboard/internal/domain/game"
	sgfDomain "lizboard/internal/domain/sgf"
)

const Komi = 7.5

// Fixed property order; anything else follows alphabetically.
var orderedKeys = []string{"FF", "GM", "SZ", "KM", "PW", "PB", "DT", "RE", "RU", "C", "AB", "AW", "B", "W"}

func SerializeSGF(s *sgfDomain.SGF) string {
	var builder strings.Builder
	builder.WriteString("(")
	serializeGameTree(&builder, s.Root)
	builder.WriteString(")")
	return builder.String()
}

func serializeGameTree(builder *strings.Builder, tree *sgfDomain.GameTree) {
	for _, node := range tree.Nodes {
		builder.WriteString(";")

		used := make(map[string]bool)
		for _, key := range orderedKeys {
			if values, ok := node.Properties[key]; ok {
				used[key] = true
				writeProperty(builder, key, values)
			}
		}

		rest := make([]string, 0, len(node.Properties))
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
		builder.WriteString(fmt.Sprintf("[%s]", Escape(v)))
	}
}

// Escape protects "]" and "\" inside a property value.
func Escape(v string) string {
	return strings.NewReplacer(`\`, `\\`, `]`, `\]`).Replace(v)
}

// TreeFromHistory builds the exported tree: one root node with komi and
// player names, then one node per entry.
func TreeFromHistory(h *game.History) *sgfDomain.SGF {
	root := &sgfDomain.GameTree{
		Nodes: []sgfDomain.Node{
			{
				Properties: map[string][]string{
					"KM": {strconv.FormatFloat(Komi, 'f', 1, 64)},
					"PW": {h.PlayerWhite},
					"PB": {h.PlayerBlack},
				},
			},
		},
	}
	AddMovesToTree(root, h.All())
	return &sgfDomain.SGF{Root: root}
}

func AddMovesToTree(tree *sgfDomain.GameTree, entries []game.Entry) {
	for _, e := range entries {
		node := sgfDomain.Node{
			Properties: map[string][]string{
				e.Color(): {coord.ToSGF(e.Move)},
			},
		}
		tree.Nodes = append(tree.Nodes, node)
	}
}

// Export renders h as SGF text, e.g. "(;KM[7.5]PW[]PB[];B[dd];W[pp])".
func Export(h *game.History) string {
	return SerializeSGF(TreeFromHistory(h))
}
