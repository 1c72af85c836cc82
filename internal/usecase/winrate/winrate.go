// Package winrate derives the per-move evaluation series drawn in the
// win-rate graph.
package winrate

import (
	"lizboard/internal/domain/game"
)

// Point is one ply of the series. Index 0 is the position before any move.
type Point struct {
	Tag string `json:"tag,omitempty"`
	// R is black's win-rate after this ply.
	R *float64 `json:"r,omitempty"`
	// MoveBEval is the change of black's win-rate caused by this ply.
	MoveBEval *float64 `json:"move_b_eval,omitempty"`
	// MoveEval is MoveBEval from the mover's side.
	MoveEval *float64 `json:"move_eval,omitempty"`
	// Predict is what the engine expected of this move before it was
	// played, as black's win-rate. Omitted when Pass is set.
	Predict *float64 `json:"predict,omitempty"`
	// Pass is set when the mover did not alternate.
	Pass bool `json:"pass,omitempty"`
}

// Series is recomputed from h on every call.
func Series(h *game.History) []Point {
	entries := h.All()
	points := make([]Point, len(entries)+1)
	for s := range points {
		var p Point
		var cur game.Entry
		if s > 0 {
			cur = entries[s-1]
			p.Tag = cur.Tag
		}
		r, ok := h.Winrate(s)
		if !ok {
			points[s] = p
			continue
		}
		p.R = ptr(r)
		if prev, ok := h.Winrate(s - 1); ok && s > 0 {
			bEval := r - prev
			eval := bEval
			if !cur.IsBlack {
				eval = -bEval
			}
			p.MoveBEval, p.MoveEval = ptr(bEval), ptr(eval)
		}
		p.Pass = s >= 2 && cur.IsBlack == entries[s-2].IsBlack
		if !p.Pass && s > 0 {
			p.Predict = predicted(h, s, cur)
		}
		points[s] = p
	}
	return points
}

// predicted looks up the played move among the suggestions for the
// position it was played from.
func predicted(h *game.History, s int, played game.Entry) *float64 {
	if s < 1 {
		return nil
	}
	for _, sg := range h.SuggestAfter(s - 1) {
		if sg.Move != played.Move || sg.Visits <= 0 {
			continue
		}
		if played.IsBlack {
			return ptr(sg.Winrate)
		}
		return ptr(100 - sg.Winrate)
	}
	return nil
}

func ptr(v float64) *float64 {
	return &v
}
