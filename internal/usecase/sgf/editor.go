package sgf

import (
	"encoding/json"
	"fmt"
	"regexp"

	sgfDomain "lizboard/internal/domain/sgf"
	"lizboard/internal/errors"
)

var dumpLine = regexp.MustCompile(`^sabaki_dump_state:\s*(.*)`)

type editorTree struct {
	Nodes  []map[string][]string `json:"nodes"`
	Parent *editorTree           `json:"parent"`
}

type editorState struct {
	TreePosition []json.RawMessage `json:"treePosition"`
}

// ReadEditorLine decodes a state dump of the attached editor. ok is false
// for lines that are not state dumps.
func ReadEditorLine(line string) (target Target, ok bool, err error) {
	m := dumpLine.FindStringSubmatch(line)
	if m == nil {
		return Target{}, false, nil
	}
	var state editorState
	if err := json.Unmarshal([]byte(m[1]), &state); err != nil {
		return Target{}, true, fmt.Errorf("editor state: %v: %w", err, errors.ErrMalformedRecord)
	}
	if len(state.TreePosition) == 0 {
		return Target{}, true, fmt.Errorf("editor state without tree position: %w", errors.ErrMalformedRecord)
	}
	var tree editorTree
	if err := json.Unmarshal(state.TreePosition[0], &tree); err != nil {
		return Target{}, true, fmt.Errorf("editor tree: %v: %w", err, errors.ErrMalformedRecord)
	}
	if len(tree.Nodes) == 0 {
		return Target{}, true, fmt.Errorf("editor tree without nodes: %w", errors.ErrMalformedRecord)
	}
	index := -1
	if len(state.TreePosition) > 1 {
		if err := json.Unmarshal(state.TreePosition[1], &index); err != nil {
			return Target{}, true, fmt.Errorf("editor index: %v: %w", err, errors.ErrMalformedRecord)
		}
	}
	return Target{Tree: tree.toDomain(), Index: index}, true, nil
}

func (t *editorTree) toDomain() *sgfDomain.GameTree {
	if t == nil {
		return nil
	}
	out := &sgfDomain.GameTree{Parent: t.Parent.toDomain()}
	for _, props := range t.Nodes {
		out.Nodes = append(out.Nodes, sgfDomain.Node{Properties: props})
	}
	return out
}
