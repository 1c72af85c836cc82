package game

import (
	"lizboard/internal/domain/coord"
)

// @name Suggestion
type Suggestion struct {
	Move         coord.Move   `json:"move" bson:"move"`
	Winrate      float64      `json:"winrate" bson:"winrate"` // 0..100, side to move
	Visits       int          `json:"visits" bson:"visits"`
	Prior        float64      `json:"prior" bson:"prior"`
	Order        int          `json:"order" bson:"order"`
	WinrateOrder int          `json:"winrate_order" bson:"winrate_order"`
	PV           []coord.Move `json:"pv,omitempty" bson:"pv,omitempty"`
}

// Analysis is what the engine reported for one position.
type Analysis struct {
	Suggest  []Suggestion `json:"suggest,omitempty" bson:"suggest,omitempty"`
	BWinrate *float64     `json:"b_winrate,omitempty" bson:"b_winrate,omitempty"` // 0..100, black's view
}

// @name Entry
type Entry struct {
	Move      coord.Move `json:"move" bson:"move"`
	IsBlack   bool       `json:"is_black" bson:"is_black"`
	Tag       string     `json:"tag,omitempty" bson:"tag,omitempty"`
	MoveCount int        `json:"move_count" bson:"move_count"`
	// Suggest is attached once the engine reports on the position reached
	// by playing this entry; BWinrate is black's win-rate of that position.
	Suggest  []Suggestion `json:"suggest,omitempty" bson:"suggest,omitempty"`
	BWinrate *float64     `json:"b_winrate,omitempty" bson:"b_winrate,omitempty"`

	serial uint64
}

func (e Entry) Color() string {
	if e.IsBlack {
		return "B"
	}
	return "W"
}

// SameMove compares move and color only; analysis and tags are ignored.
func (e Entry) SameMove(o Entry) bool {
	return e.Move == o.Move && e.IsBlack == o.IsBlack
}

// CommonPrefixLength counts leading entries that agree on move and color.
func CommonPrefixLength(a, b []Entry) int {
	n := 0
	for n < len(a) && n < len(b) && a[n].SameMove(b[n]) {
		n++
	}
	return n
}

// Considerable drops candidates the engine never looked at and barely
// considered.
func Considerable(suggest []Suggestion) []Suggestion {
	const tooSmallPrior = 1e-3
	out := make([]Suggestion, 0, len(suggest))
	for _, s := range suggest {
		if s.Visits > 0 || s.Prior >= tooSmallPrior {
			out = append(out, s)
		}
	}
	return out
}
