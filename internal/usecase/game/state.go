package game

import (
	"lizboard/internal/domain/game"
	"lizboard/internal/usecase/tag"
	"lizboard/internal/usecase/winrate"
)

// State is the read-only projection pushed to renderers.
type State struct {
	HistoryLength   int               `json:"history_length"`
	SequenceCursor  int               `json:"sequence_cursor"`
	SequenceLength  int               `json:"sequence_length"`
	SequenceIDs     []int             `json:"sequence_ids"`
	HistoryTags     []game.Entry      `json:"history_tags"`
	MoveCount       int               `json:"move_count"`
	BTurn           bool              `json:"bturn"`
	PlayerBlack     string            `json:"player_black"`
	PlayerWhite     string            `json:"player_white"`
	Trial           bool              `json:"trial"`
	Attached        bool              `json:"attached"`
	Tags            tag.Projection    `json:"tags"`
	WinrateHistory  []winrate.Point   `json:"winrate_history"`
	PreviousSuggest *PreviousSuggest  `json:"previous_suggest,omitempty"`
	Suggest         []game.Suggestion `json:"suggest"`
	MaxVisits       int               `json:"max_visits"`
	Progress        float64           `json:"progress"`
	ProgressBTurn   bool              `json:"progress_bturn"`
	Stones          game.Stones       `json:"stones"`
	Availability    Availability      `json:"availability"`
}

// PreviousSuggest is the candidate the engine had listed for the move
// that was actually played last.
type PreviousSuggest struct {
	game.Suggestion
	BTurn bool `json:"bturn"`
}

type Availability struct {
	Undo             bool `json:"undo"`
	Redo             bool `json:"redo"`
	Attach           bool `json:"attach"`
	Detach           bool `json:"detach"`
	Pause            bool `json:"pause"`
	Resume           bool `json:"resume"`
	BTurn            bool `json:"bturn"`
	WTurn            bool `json:"wturn"`
	AutoAnalyze      bool `json:"auto_analyze"`
	StartAutoAnalyze bool `json:"start_auto_analyze"`
	StopAuto         bool `json:"stop_auto"`
	Trial            bool `json:"trial"`
}

func (s *Session) State() State {
	h := s.History()
	progress := s.Progress()
	suggest := s.suggest
	if !s.showSuggest() {
		suggest = nil
	}
	return State{
		HistoryLength:   h.Len(),
		SequenceCursor:  s.seq.Cursor(),
		SequenceLength:  s.seq.Len(),
		SequenceIDs:     s.seq.IDs(),
		HistoryTags:     h.TaggedEntries(),
		MoveCount:       s.moveCount,
		BTurn:           s.bturn,
		PlayerBlack:     h.PlayerBlack,
		PlayerWhite:     h.PlayerWhite,
		Trial:           h.Trial,
		Attached:        s.attached,
		Tags:            tag.Labels(),
		WinrateHistory:  winrate.Series(h),
		PreviousSuggest: s.previousSuggest(),
		Suggest:         suggest,
		MaxVisits:       s.maxVisits(),
		Progress:        progress,
		ProgressBTurn:   s.auto.bturn,
		Stones:          s.stones.Clone(),
		Availability: Availability{
			Undo:             s.moveCount > 0,
			Redo:             s.redoable(),
			Attach:           !s.attached,
			Detach:           s.attached,
			Pause:            !s.paused,
			Resume:           s.paused,
			BTurn:            s.bturn,
			WTurn:            !s.bturn,
			AutoAnalyze:      !h.Empty(),
			StartAutoAnalyze: !s.autoAnalyzing() && !s.autoPlaying(false),
			StopAuto:         progress >= 0,
			Trial:            h.Trial,
		},
	}
}

// showSuggest hides shallow analysis while auto-analysis is stepping.
func (s *Session) showSuggest() bool {
	return s.autoPlaying(false) || !s.autoAnalyzing() || s.auto.analyzeVisits >= 10
}

func (s *Session) previousSuggest() *PreviousSuggest {
	h := s.History()
	p1, ok1 := h.At(s.moveCount)
	p2, ok2 := h.At(s.moveCount - 1)
	if !ok1 || !ok2 {
		return nil
	}
	for _, sg := range p2.Suggest {
		if sg.Move == p1.Move {
			return &PreviousSuggest{Suggestion: sg, BTurn: !p2.IsBlack}
		}
	}
	return nil
}
