package game

import (
	"lizboard/internal/domain/game"
	"lizboard/internal/usecase/sgf"
)

// ImportSGF parses text and merges its main line into a copy of the
// active board. A parse failure leaves every board untouched.
func (s *Session) ImportSGF(text string) error {
	loaded, err := sgf.Read(text)
	if err != nil {
		s.log.Warnw("sgf import failed", "error", err)
		return err
	}
	s.backupHistory()
	s.LoadTree(sgf.Target{Tree: loaded.Tree, Index: -1})
	s.History().SGFStr = loaded.Clipped
	return nil
}

// LoadSGFFile is ImportSGF with the file name kept as provenance.
func (s *Session) LoadSGFFile(name, text string) error {
	if err := s.ImportSGF(text); err != nil {
		return err
	}
	s.History().SGFFile = name
	return nil
}

// LoadTree replaces the active board's moves with those of target. Entries
// shared with the current line are kept as they are so their analysis
// survives; the cursor lands on target's index.
func (s *Session) LoadTree(target sgf.Target) {
	if target.Tree == nil || len(target.Tree.Nodes) == 0 {
		return
	}
	h := s.History()
	incoming := sgf.EntriesFromNodes(target.AllNodes())
	com := game.CommonPrefixLength(h.All(), incoming)
	h.Splice(com, incoming)
	h.MarkLastLoaded()

	until := len(sgf.EntriesFromNodes(target.NodesUntilIndex()))
	h.PlayerBlack, h.PlayerWhite = target.Players()
	h.Trial = false
	s.stones = game.Replay(h.Entries(until))
	s.setBoard(until)
	s.log.Infow("record loaded", "id", h.ID, "common", com, "len", h.Len(), "move_count", s.moveCount)
	s.render()
}

// ReadEditorLine applies a state dump of the attached editor to the active
// board. Other lines are ignored.
func (s *Session) ReadEditorLine(line string) error {
	if !s.attached {
		return nil
	}
	target, ok, err := sgf.ReadEditorLine(line)
	if err != nil {
		s.log.Warnw("editor line rejected", "error", err)
		return err
	}
	if ok {
		s.LoadTree(target)
	}
	return nil
}

// AttachEditor hands the active board to an external editor. The returned
// record and cursor are what the editor should open; later edits come back
// through ReadEditorLine on a backup copy.
func (s *Session) AttachEditor() (record string, moveCount int, ok bool) {
	if s.attached {
		return "", 0, false
	}
	s.StopAuto()
	record, moveCount = s.ExportSGF(), s.moveCount
	s.backupHistory()
	s.attached = true
	s.render()
	return record, moveCount, true
}

func (s *Session) DetachEditor() {
	if !s.attached {
		return
	}
	s.StopAuto()
	s.attached = false
	s.render()
}

func (s *Session) Attached() bool {
	return s.attached
}

func (s *Session) ExportSGF() string {
	return sgf.Export(s.History())
}
