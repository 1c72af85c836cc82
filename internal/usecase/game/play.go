package game

import (
	"fmt"

	"lizboard/internal/domain/coord"
	"lizboard/internal/domain/game"
	"lizboard/internal/errors"
	"lizboard/internal/metrics"
	"lizboard/internal/usecase/tag"
)

type playOptions struct {
	force      bool
	defaultTag string
}

type PlayOption func(*playOptions)

// ForceBranch archives the current line even when the cursor is at the tip.
func ForceBranch() PlayOption {
	return func(o *playOptions) { o.force = true }
}

// WithDefaultTag labels the new entry when no branch tag applies.
func WithDefaultTag(t string) PlayOption {
	return func(o *playOptions) { o.defaultTag = t }
}

// Play puts move for the side to move. Occupied or off-board points are
// rejected with the state left untouched.
func (s *Session) Play(move coord.Move, opts ...PlayOption) error {
	var o playOptions
	for _, opt := range opts {
		opt(&o)
	}
	if !coord.Valid(move) {
		metrics.MovesRejected.Inc()
		return fmt.Errorf("play %q: %w", move, errors.ErrInvalidMove)
	}
	if !move.IsPass() && s.position().Occupied(move) {
		s.log.Debugw("play rejected", "move", move, "move_count", s.moveCount)
		metrics.MovesRejected.Inc()
		return fmt.Errorf("play %s: %w: %w", move, errors.ErrInvalidMove, errors.ErrOccupiedCell)
	}

	h := s.History()
	atImportTip := s.moveCount > 0 && h.IsLastLoaded(s.moveCount)
	var branchTag string
	archived := s.createSequenceMaybe(o.force)
	if archived != nil && s.moveCount > 0 && !atImportTip {
		// Tags on the archived line include the cut suffix, so the new
		// letter cannot clash with either board.
		branchTag = s.tags.Allocate(archived)
	}
	if archived != nil {
		metrics.Branches.Inc()
	}

	if st := s.stones.At(coord.ToIdx(move)); st != nil {
		*st = game.Stone{Stone: true, Black: s.bturn, Maybe: true}
	}

	t := o.defaultTag
	switch {
	case atImportTip:
		t = tag.LastLoaded
	case branchTag != "":
		t = branchTag
	}
	s.doPlay(move, s.bturn, t)
	s.markCaptured()
	kind := "move"
	if move.IsPass() {
		kind = "pass"
	}
	metrics.MovesPlayed.WithLabelValues(kind).Inc()
	s.render()
	return nil
}

// doPlay keeps at most one pass, at the tip: a pass before the new move is
// dropped, and a second pass only drops the first.
func (s *Session) doPlay(move coord.Move, isBlack bool, t string) {
	h := s.History()
	h.Truncate(s.moveCount)
	lastPass := h.IsLastMovePass()
	doublePass := lastPass && move.IsPass()
	if lastPass {
		h.Pop()
	}
	if !doublePass {
		h.Append(move, isBlack, t)
	}
	s.setBoard(h.Len())
}

// position replays the line up to the cursor. The displayed stones may
// still carry tentative marks, so legality is judged on this instead.
func (s *Session) position() game.Stones {
	return game.Replay(s.History().Entries(s.moveCount))
}

// markCaptured flags stones the last move removed until the engine
// confirms the board.
func (s *Session) markCaptured() {
	pos := s.position()
	for i := range s.stones {
		for j := range s.stones[i] {
			st := &s.stones[i][j]
			if st.Stone && !st.MaybeEmpty && !pos[i][j].Stone {
				*st = game.Stone{Stone: true, Black: st.Black, MaybeEmpty: true}
			}
		}
	}
}

func (s *Session) Pass() error {
	return s.Play(coord.Pass)
}

// Goto moves the cursor, saturating at both ends.
func (s *Session) Goto(count int) {
	c := max(0, min(count, s.History().Len()))
	if c == s.moveCount {
		return
	}
	s.tentative(c)
	s.setBoard(c)
	s.render()
}

// tentative marks the swept stones as placed or removed before the engine
// confirms the new board.
func (s *Session) tentative(count int) {
	h := s.History()
	forward := count > s.moveCount
	from, to := s.moveCount, count
	if !forward {
		from, to = count, s.moveCount
	}
	for _, e := range h.All()[from:to] {
		if st := s.stones.At(coord.ToIdx(e.Move)); st != nil {
			*st = game.Stone{Stone: true, Maybe: forward, MaybeEmpty: !forward, Black: e.IsBlack}
		}
	}
	if next, ok := h.At(s.moveCount + 1); ok {
		if st := s.stones.At(coord.ToIdx(next.Move)); st != nil {
			st.NextMove = false
		}
	}
	s.moveCount = count
	s.bturn = count%2 == 0
}

// Undo and Redo treat a negative n as zero.
func (s *Session) Undo(n int) {
	s.Goto(s.moveCount - min(max(n, 0), s.moveCount))
}

func (s *Session) Redo(n int) {
	s.Goto(s.moveCount + min(max(n, 0), s.History().Len()))
}

func (s *Session) UndoToStart() {
	s.Goto(0)
}

func (s *Session) RedoToEnd() {
	s.Goto(s.History().Len())
}

// ExplicitUndo steps back when a continuation exists and otherwise
// deletes the tip.
func (s *Session) ExplicitUndo() {
	if s.redoable() {
		s.Undo(1)
		return
	}
	h := s.History()
	if _, ok := h.Pop(); !ok {
		return
	}
	s.stones = game.Replay(h.All())
	s.setBoard(h.Len())
	s.render()
}
