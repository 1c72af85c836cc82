package game

import (
	"fmt"

	"lizboard/internal/domain/game"
	"lizboard/internal/errors"
)

// switchTo saves the outgoing cursor, activates board n (wrapped) and
// replays it up to its own saved cursor.
func (s *Session) switchTo(n int) {
	s.History().MoveCount = s.moveCount
	s.setBoard(0)
	h := s.seq.Select(n)
	s.moveCount = 0
	s.stones = game.NewStones()
	s.setBoard(min(h.MoveCount, h.Len()))
	s.stones = game.Replay(h.Entries(s.moveCount))
	s.render()
}

func (s *Session) NextSequence() {
	if s.seq.Len() > 1 {
		s.switchTo(s.seq.Cursor() + 1)
		s.slide(SlideNext)
	}
}

func (s *Session) PreviousSequence() {
	if s.seq.Len() > 1 {
		s.switchTo(s.seq.Cursor() - 1)
		s.slide(SlidePrevious)
	}
}

func (s *Session) NthSequence(n int) {
	old := s.seq.Cursor()
	if n == old {
		return
	}
	s.switchTo(n)
	if n < old {
		s.slide(SlidePrevious)
	} else {
		s.slide(SlideNext)
	}
}

// insert places h after the active board, or before it. With activate the
// board is entered through switchTo, otherwise it just becomes active
// without touching the cursor.
func (s *Session) insert(h *game.History, activate, before bool) {
	n := s.seq.Cursor()
	if !before {
		n++
	}
	n = s.seq.InsertAt(n, h)
	if activate {
		s.switchTo(n)
	} else {
		s.seq.Select(n)
	}
	s.slide(SlideNext)
}

// backupHistory keeps the current line as it is and continues on a copy
// placed right after it. It returns the line left behind, or nil for an
// empty board.
func (s *Session) backupHistory() *game.History {
	h := s.History()
	if h.Empty() {
		return nil
	}
	h.MoveCount = s.moveCount
	s.insert(s.seq.CopyActive(), false, false)
	return h
}

// createSequenceMaybe diverges when the cursor is behind the tip or force
// is set. The active board becomes a truncated copy; the full line is
// returned.
func (s *Session) createSequenceMaybe(force bool) *game.History {
	if !force && s.moveCount >= s.History().Len() {
		return nil
	}
	archived := s.backupHistory()
	h := s.History()
	h.Truncate(s.moveCount)
	h.Trial = s.moveCount > 0
	s.log.Debugw("diverged", "archived_id", idOf(archived), "id", h.ID, "move_count", s.moveCount)
	return archived
}

func (s *Session) NewEmptyBoard() {
	s.insert(s.seq.NewHistory(), true, false)
}

// DuplicateActive keeps working on a trial copy of the active board.
func (s *Session) DuplicateActive() {
	if s.History().Empty() {
		s.NewEmptyBoard()
		return
	}
	s.backupHistory()
	h := s.History()
	h.MarkLastLoaded()
	h.Trial = true
	s.render()
}

// DeleteActive moves the active board onto the deleted stack and returns
// it. Deleting the only board leaves a fresh empty one behind.
func (s *Session) DeleteActive() *game.History {
	s.cutFirst = s.seq.Cursor() == 0
	h := s.History()
	h.MoveCount = s.moveCount
	s.seq.Deleted().Push(h)

	if s.seq.Len() == 1 {
		s.seq.InsertAt(1, s.seq.NewHistory())
	}
	cur := s.seq.Cursor()
	s.seq.RemoveAt(cur)
	// The active History is gone, so the cursor must not be saved into
	// whichever board now sits at this index.
	s.seq.Select(max(cur-1, 0))
	s.moveCount = 0
	s.stones = game.NewStones()
	s.setBoard(min(s.History().MoveCount, s.History().Len()))
	s.stones = game.Replay(s.History().Entries(s.moveCount))
	s.render()
	if cur == 0 {
		s.slide(SlideNext)
	} else {
		s.slide(SlidePrevious)
	}
	s.log.Infow("sequence deleted", "id", h.ID, "remaining", s.seq.Len())
	return h
}

// Undelete restores the most recently deleted board.
func (s *Session) Undelete() error {
	h, ok := s.seq.Deleted().Pop()
	if !ok {
		return fmt.Errorf("undelete: %w", errors.ErrNoDeletedSequence)
	}
	before := s.cutFirst && s.seq.Cursor() == 0
	s.insert(h, true, before)
	s.log.Infow("sequence restored", "id", h.ID, "before", before)
	return nil
}

func (s *Session) ToggleTrial() {
	h := s.History()
	h.Trial = !h.Trial
	s.render()
}

func (s *Session) SetPlayers(black, white string) {
	h := s.History()
	h.PlayerBlack, h.PlayerWhite = black, white
	s.render()
}

func idOf(h *game.History) int {
	if h == nil {
		return -1
	}
	return h.ID
}
