// Package weak picks deliberately suboptimal moves for a handicapped
// engine: the position drifts toward a target win-rate that relaxes as
// the game gets longer, with an occasional strong move.
package weak

import (
	"math"
	"math/rand"
	"time"

	"lizboard/internal/domain/game"
	"lizboard/internal/errors"
)

// Rand is the uniform [0,1) source; *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

type Input struct {
	Suggest   []game.Suggestion
	MoveCount int
	BTurn     bool
	// BWinrate is black's win-rate of the current position, nil if unknown.
	BWinrate      *float64
	WeakenPercent float64
}

type Selector struct {
	rnd Rand
}

func NewSelector(rnd Rand) *Selector {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{rnd: rnd}
}

// Best is the engine's first-ranked candidate.
func Best(suggest []game.Suggestion) (game.Suggestion, error) {
	if len(suggest) == 0 {
		return game.Suggestion{}, errors.ErrNoSuggestion
	}
	return suggest[0], nil
}

// Target returns the win-rate the next move should aim at, for a given
// uniform sample.
func Target(in Input, sample float64) float64 {
	r := clip(in.WeakenPercent/100, 0, 1)
	initialTarget := 40 * math.Pow(10, -r)
	target := initialTarget * math.Pow(2, -float64(in.MoveCount)/100)
	current := currentWinrate(in)
	u := math.Pow(sample, 1-r) * r
	return current*(1-u) + target*u
}

// Weak picks the candidate nearest to the sampled target without going
// below it when it can.
func (s *Selector) Weak(in Input) (game.Suggestion, float64, error) {
	if len(in.Suggest) == 0 {
		return game.Suggestion{}, 0, errors.ErrNoSuggestion
	}
	if clip(in.WeakenPercent/100, 0, 1) == 0 {
		best := highest(in.Suggest)
		return best, best.Winrate, nil
	}
	next := Target(in, s.rnd.Float64())
	return Nearest(in.Suggest, next), next, nil
}

// Nearest prefers candidates at or above target; if none qualify it falls
// back to all of them. suggest must not be empty.
func Nearest(suggest []game.Suggestion, target float64) game.Suggestion {
	pool := make([]game.Suggestion, 0, len(suggest))
	for _, sg := range suggest {
		if sg.Winrate >= target {
			pool = append(pool, sg)
		}
	}
	if len(pool) == 0 {
		pool = suggest
	}
	best := pool[0]
	for _, sg := range pool[1:] {
		if math.Abs(sg.Winrate-target) < math.Abs(best.Winrate-target) {
			best = sg
		}
	}
	return best
}

// currentWinrate is the mover's win-rate before this ply. Without an
// evaluation the best candidate stands in for it.
func currentWinrate(in Input) float64 {
	if in.BWinrate == nil || math.IsNaN(*in.BWinrate) {
		return highest(in.Suggest).Winrate
	}
	if in.BTurn {
		return *in.BWinrate
	}
	return 100 - *in.BWinrate
}

func highest(suggest []game.Suggestion) game.Suggestion {
	var best game.Suggestion
	for i, sg := range suggest {
		if i == 0 || sg.Winrate > best.Winrate {
			best = sg
		}
	}
	return best
}

func clip(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
