package game

import (
	"fmt"
	"strings"

	"lizboard/internal/domain/coord"
	"lizboard/internal/domain/game"
	"lizboard/internal/errors"
	"lizboard/internal/metrics"
)

// Engine is one analysis process. SetBoard replaces its position; results
// come back through Handler.
type Engine interface {
	SetBoard(entries []game.Entry) error
	SetPondering(on bool)
	SendRequest(cmd string) error
	Args() []string
}

// Handler receives engine callbacks.
type Handler interface {
	HandleBoard(u BoardUpdate)
	HandleSuggest(u SuggestUpdate)
}

// Engines pairs the engine for black with an optional one for white.
type Engines struct {
	Black Engine
	White Engine
}

// For returns the engine serving the given side.
func (e Engines) For(bturn bool) Engine {
	if !bturn && e.White != nil {
		return e.White
	}
	return e.Black
}

func (e Engines) Each(f func(Engine)) {
	if e.Black != nil {
		f(e.Black)
	}
	if e.White != nil {
		f(e.White)
	}
}

// BoardUpdate is the engine's confirmation of a position.
type BoardUpdate struct {
	MoveCount   int
	LastMove    coord.Move
	LastIsBlack bool
	Stones      game.Stones
}

// SuggestUpdate is one batch of analysis for a position.
type SuggestUpdate struct {
	MoveCount   int
	LastMove    coord.Move
	LastIsBlack bool
	Suggest     []game.Suggestion
	BWinrate    *float64
}

// current reports whether a callback still describes the position under
// the cursor, entry for entry at the last move.
func (s *Session) current(moveCount int, last coord.Move, lastIsBlack bool) bool {
	if moveCount != s.moveCount {
		return false
	}
	if moveCount == 0 {
		return true
	}
	e, ok := s.History().At(moveCount)
	return ok && e.Move == last && e.IsBlack == lastIsBlack
}

func (s *Session) HandleBoard(u BoardUpdate) {
	if !s.current(u.MoveCount, u.LastMove, u.LastIsBlack) {
		s.log.Debugw("stale board dropped", "update", u.MoveCount, "move_count", s.moveCount)
		metrics.EngineUpdates.WithLabelValues("board", metrics.Stale).Inc()
		return
	}
	metrics.EngineUpdates.WithLabelValues("board", metrics.Applied).Inc()
	stones := game.NewStones()
	for i := range stones {
		if i < len(u.Stones) {
			copy(stones[i], u.Stones[i])
		}
	}
	s.stones = stones
	s.addNextMark()
	s.addInfoToStones()
	s.render()
}

func (s *Session) addNextMark() {
	next, ok := s.History().At(s.moveCount + 1)
	if !ok {
		return
	}
	if st := s.stones.At(coord.ToIdx(next.Move)); st != nil {
		st.NextMove = true
		st.NextIsBlack = next.IsBlack
	}
}

func (s *Session) addInfoToStones() {
	for _, e := range s.History().All() {
		st := s.stones.At(coord.ToIdx(e.Move))
		if st == nil {
			continue
		}
		st.Tag += e.Tag
		if st.Stone && e.MoveCount <= s.moveCount {
			st.MoveCount = e.MoveCount
		}
		st.AnytimeStones = append(st.AnytimeStones, game.AnytimeStone{MoveCount: e.MoveCount, IsBlack: e.IsBlack})
	}
}

// HandleSuggest attaches analysis to the entry under the cursor, or to the
// board's initial analysis at move 0.
func (s *Session) HandleSuggest(u SuggestUpdate) {
	if !s.current(u.MoveCount, u.LastMove, u.LastIsBlack) {
		s.log.Debugw("stale suggestion dropped", "update", u.MoveCount, "move_count", s.moveCount)
		metrics.EngineUpdates.WithLabelValues("suggest", metrics.Stale).Inc()
		return
	}
	metrics.EngineUpdates.WithLabelValues("suggest", metrics.Applied).Inc()
	suggest := game.Considerable(u.Suggest)
	h := s.History()
	if e, ok := h.At(s.moveCount); ok {
		e.Suggest, e.BWinrate = suggest, u.BWinrate
	} else {
		h.Initial = game.Analysis{Suggest: suggest, BWinrate: u.BWinrate}
	}
	s.suggest = suggest
	s.render()
	s.tryAuto()
}

// switchEngine makes the engine for the side to move active.
func (s *Session) switchEngine() {
	next := s.engines.For(s.bturn)
	if next != nil && next != s.active {
		s.active = next
	}
	s.updatePonder()
}

func (s *Session) updatePonder() {
	if s.engines.Black == nil {
		return
	}
	pondering := !s.paused && !s.busy
	isBlack := s.active == s.engines.Black
	s.engines.Black.SetPondering(pondering && isBlack)
	if s.engines.White != nil {
		s.engines.White.SetPondering(pondering && !isBlack)
	}
}

func (s *Session) Pause() {
	s.paused = true
	s.updatePonder()
	s.render()
}

func (s *Session) Resume() {
	s.paused = false
	s.updatePonder()
	s.render()
}

func (s *Session) TogglePause() {
	if s.paused {
		s.Resume()
	} else {
		s.Pause()
	}
}

// SetBusy suspends pondering while a caller holds the engine.
func (s *Session) SetBusy(busy bool) {
	s.busy = busy
	s.updatePonder()
}

// SwapEngines exchanges the black and white engines; a no-op without a
// white engine.
func (s *Session) SwapEngines() {
	if s.engines.White == nil {
		return
	}
	s.engines.Black, s.engines.White = s.engines.White, s.engines.Black
	s.active = nil
	s.switchEngine()
	s.render()
}

// SendToEngine forwards a raw command to the active engine.
func (s *Session) SendToEngine(cmd string) error {
	if s.active == nil {
		return fmt.Errorf("send %q: %w", cmd, errors.ErrEngineUnavailable)
	}
	return s.active.SendRequest(cmd)
}

// Info summarizes engine arguments and record provenance.
func (s *Session) Info() string {
	var b strings.Builder
	section := func(label, body string) {
		if body != "" {
			fmt.Fprintf(&b, "<%s>\n%s\n\n", label, body)
		}
	}
	args := func(e Engine) string {
		if e == nil {
			return ""
		}
		return strings.Join(e.Args(), " ")
	}
	if s.engines.White != nil {
		section("engine (black)", args(s.engines.Black))
		section("engine (white)", args(s.engines.White))
	} else {
		section("engine", args(s.engines.Black))
	}
	h := s.History()
	section("sgf file", h.SGFFile)
	section("sgf", h.SGFStr)
	return b.String()
}
