package game

import (
	"lizboard/internal/domain/coord"
)

// AnytimeStone records one move ever played on a point of this line.
type AnytimeStone struct {
	MoveCount int  `json:"move_count"`
	IsBlack   bool `json:"is_black"`
}

// Stone is the renderer's view of one board point.
type Stone struct {
	Stone         bool           `json:"stone,omitempty"`
	Black         bool           `json:"black,omitempty"`
	Maybe         bool           `json:"maybe,omitempty"`       // placed ahead of the engine's confirmation
	MaybeEmpty    bool           `json:"maybe_empty,omitempty"` // removed ahead of the engine's confirmation
	NextMove      bool           `json:"next_move,omitempty"`
	NextIsBlack   bool           `json:"next_is_black,omitempty"`
	Tag           string         `json:"tag,omitempty"`
	MoveCount     int            `json:"move_count,omitempty"`
	AnytimeStones []AnytimeStone `json:"anytime_stones,omitempty"`
}

type Stones [][]Stone

func NewStones() Stones {
	s := make(Stones, coord.BoardSize)
	for i := range s {
		s[i] = make([]Stone, coord.BoardSize)
	}
	return s
}

// Clone copies the grid and each point's move list.
func (s Stones) Clone() Stones {
	out := make(Stones, len(s))
	for i := range s {
		out[i] = make([]Stone, len(s[i]))
		copy(out[i], s[i])
		for j := range out[i] {
			out[i][j].AnytimeStones = append([]AnytimeStone(nil), s[i][j].AnytimeStones...)
		}
	}
	return out
}

// At returns nil for passes and points off the board.
func (s Stones) At(x coord.Idx) *Stone {
	if !x.InRange() || x.I >= len(s) || x.J >= len(s[x.I]) {
		return nil
	}
	return &s[x.I][x.J]
}

func (s Stones) Occupied(m coord.Move) bool {
	st := s.At(coord.ToIdx(m))
	return st != nil && st.Stone
}

// Replay plays entries on an empty board with captures and returns the
// resulting stones.
func Replay(entries []Entry) Stones {
	const (
		empty = iota
		black
		white
	)
	var grid [coord.BoardSize][coord.BoardSize]int
	neighbors := func(x coord.Idx) []coord.Idx {
		out := make([]coord.Idx, 0, 4)
		for _, d := range [...]coord.Idx{{I: -1}, {I: 1}, {J: -1}, {J: 1}} {
			n := coord.Idx{I: x.I + d.I, J: x.J + d.J}
			if n.InRange() {
				out = append(out, n)
			}
		}
		return out
	}
	// group flood-fills from x and reports whether it has a liberty.
	group := func(x coord.Idx) ([]coord.Idx, bool) {
		color := grid[x.I][x.J]
		seen := map[coord.Idx]bool{x: true}
		stack := []coord.Idx{x}
		var members []coord.Idx
		free := false
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			members = append(members, p)
			for _, n := range neighbors(p) {
				switch {
				case grid[n.I][n.J] == empty:
					free = true
				case grid[n.I][n.J] == color && !seen[n]:
					seen[n] = true
					stack = append(stack, n)
				}
			}
		}
		return members, free
	}
	remove := func(members []coord.Idx) {
		for _, p := range members {
			grid[p.I][p.J] = empty
		}
	}

	for _, e := range entries {
		x := coord.ToIdx(e.Move)
		if !x.InRange() {
			continue
		}
		me, other := white, black
		if e.IsBlack {
			me, other = black, white
		}
		grid[x.I][x.J] = me
		for _, n := range neighbors(x) {
			if grid[n.I][n.J] != other {
				continue
			}
			if members, free := group(n); !free {
				remove(members)
			}
		}
		if members, free := group(x); !free {
			remove(members)
		}
	}

	stones := NewStones()
	for i := range grid {
		for j := range grid[i] {
			if grid[i][j] != empty {
				stones[i][j] = Stone{Stone: true, Black: grid[i][j] == black}
			}
		}
	}
	return stones
}
