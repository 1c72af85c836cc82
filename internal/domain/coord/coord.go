// Package coord maps board points to the engine's move notation ("D4",
// "Q16", "pass") and to SGF positions ("dd", "pd").
package coord

import (
	"fmt"
	"strconv"
	"strings"

	"lizboard/internal/errors"
)

const BoardSize = 19

// columns skips "I" as GTP does.
const columns = "ABCDEFGHJKLMNOPQRST"

// Move is a point in engine notation or Pass.
type Move string

const Pass Move = "pass"

func (m Move) IsPass() bool {
	return m == Pass
}

// Idx is a board point; I counts rows from the top edge, J columns from the left.
type Idx struct {
	I int `json:"i"`
	J int `json:"j"`
}

var PassIdx = Idx{I: -1, J: -1}

func (x Idx) IsPass() bool {
	return x == PassIdx
}

func (x Idx) InRange() bool {
	return x.I >= 0 && x.I < BoardSize && x.J >= 0 && x.J < BoardSize
}

// ToIdx decodes a move. Pass and anything malformed decode to PassIdx.
func ToIdx(m Move) Idx {
	s := string(m)
	if len(s) < 2 || len(s) > 3 {
		return PassIdx
	}
	j := strings.IndexByte(columns, upper(s[0]))
	if j < 0 {
		return PassIdx
	}
	row, err := strconv.Atoi(s[1:])
	if err != nil || row < 1 || row > BoardSize || s[1] == '0' {
		return PassIdx
	}
	return Idx{I: BoardSize - row, J: j}
}

// FromIdx encodes a point. Out-of-range points are rejected instead of
// being coerced to a pass.
func FromIdx(x Idx) (Move, error) {
	if x.IsPass() {
		return Pass, nil
	}
	if !x.InRange() {
		return "", fmt.Errorf("point (%d,%d) is off the board: %w", x.I, x.J, errors.ErrInvalidMove)
	}
	return Move(fmt.Sprintf("%c%d", columns[x.J], BoardSize-x.I)), nil
}

// Valid reports whether m is Pass or a canonical on-board point.
func Valid(m Move) bool {
	if m.IsPass() {
		return true
	}
	x := ToIdx(m)
	if x.IsPass() {
		return false
	}
	back, err := FromIdx(x)
	return err == nil && back == m
}

// FromSGF converts an SGF position. "" and "tt" are passes, and so is
// anything that does not name a point on the board.
func FromSGF(pos string) Move {
	if len(pos) != 2 {
		return Pass
	}
	col, row := pos[0], pos[1]
	if col < 'a' || row < 'a' {
		return Pass
	}
	m, err := FromIdx(Idx{I: int(row - 'a'), J: int(col - 'a')})
	if err != nil {
		return Pass
	}
	return m
}

// ToSGF converts a move to an SGF position. Passes become "".
func ToSGF(m Move) string {
	x := ToIdx(m)
	if x.IsPass() {
		return ""
	}
	return string([]byte{byte('a' + x.J), byte('a' + x.I)})
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}
