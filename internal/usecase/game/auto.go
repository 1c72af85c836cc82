package game

import (
	"math"
	"time"

	"lizboard/internal/domain/coord"
	"lizboard/internal/usecase/weak"
)

type autoState struct {
	analyzeVisits int // 0 when auto-analysis is off
	playCount     int
	forever       bool
	replaying     bool
	weak          bool
	weakenPercent float64
	interval      time.Duration
	lastPlay      time.Time
	bturn         bool
}

// tryAuto runs after every suggestion batch.
func (s *Session) tryAuto() {
	if s.autoPlaying(false) {
		s.tryAutoPlay()
	} else {
		s.tryAutoAnalyze()
	}
}

func (s *Session) maxVisits() int {
	m := 1
	for _, sg := range s.suggest {
		m = max(m, sg.Visits)
	}
	return m
}

// ToggleAutoAnalyze advances one move each time the analysis reaches
// visits, and pauses at the tip. The same visits again turns it off.
func (s *Session) ToggleAutoAnalyze(visits int) {
	if s.History().Empty() {
		return
	}
	if s.auto.analyzeVisits == visits {
		s.stopAutoAnalyze()
		s.render()
		return
	}
	s.rewindMaybe()
	s.auto.analyzeVisits = max(visits, 1)
	s.Resume()
}

func (s *Session) tryAutoAnalyze() {
	if !s.autoAnalyzing() {
		return
	}
	done := s.maxVisits() >= s.auto.analyzeVisits
	s.auto.bturn = s.bturn != done
	if !done {
		return
	}
	if s.redoable() {
		s.Redo(1)
		return
	}
	s.stopAutoAnalyze()
	s.Pause()
}

func (s *Session) stopAutoAnalyze() {
	s.auto.analyzeVisits = 0
}

func (s *Session) autoAnalyzing() bool {
	return s.auto.analyzeVisits > 0
}

func (s *Session) rewindMaybe() {
	if !s.redoable() {
		s.Goto(0)
	}
}

// AutoReplay redoes one move every interval until the tip.
func (s *Session) AutoReplay(interval time.Duration) {
	s.auto.replaying = true
	s.autoPlay(interval, false)
}

// PlayBest lets the engine play n moves for whichever side is to move.
func (s *Session) PlayBest(n int) {
	s.auto.weak = false
	s.startPlayBest(n)
}

// PlayWeak is PlayBest with moves picked by the weak selector.
func (s *Session) PlayWeak(n int, weakenPercent float64) {
	s.auto.weak = true
	s.auto.weakenPercent = weakenPercent
	s.startPlayBest(n)
}

func (s *Session) startPlayBest(n int) {
	s.autoPlay(0, true)
	if s.autoPlaying(true) {
		s.stopAutoPlay()
	}
	s.auto.playCount += max(n, 1)
	s.tryPlayBest()
}

func (s *Session) autoPlay(interval time.Duration, explicitBest bool) {
	if explicitBest {
		s.auto.replaying = false
	} else {
		s.auto.forever = true
	}
	if s.auto.replaying {
		s.rewindMaybe()
	}
	s.auto.interval = interval
	s.stopAutoAnalyze()
	s.updateAutoPlayTime()
	s.Resume()
}

func (s *Session) tryAutoPlay() {
	if len(s.suggest) == 0 || s.now().Sub(s.auto.lastPlay) < s.auto.interval {
		return
	}
	if s.auto.replaying {
		s.doAsAutoPlay(s.redoable(), func() { s.Redo(1) })
		return
	}
	s.tryPlayBest()
}

func (s *Session) tryPlayBest() {
	if len(s.suggest) == 0 {
		return
	}
	move := s.pickMove()
	s.doAsAutoPlay(!move.IsPass(), func() {
		s.auto.playCount--
		if err := s.Play(move); err != nil {
			s.log.Warnw("auto play rejected", "move", move, "error", err)
		}
	})
}

func (s *Session) pickMove() coord.Move {
	if !s.auto.weak {
		best, _ := weak.Best(s.suggest)
		return best.Move
	}
	var bw *float64
	if v, ok := s.History().Winrate(s.moveCount); ok {
		bw = &v
	}
	percent := s.auto.weakenPercent
	if percent == 0 {
		percent = s.weakenPercent
	}
	picked, target, _ := s.selector.Weak(weak.Input{
		Suggest:       s.suggest,
		MoveCount:     s.moveCount,
		BTurn:         s.bturn,
		BWinrate:      bw,
		WeakenPercent: percent,
	})
	s.log.Debugw("weak move", "move", picked.Move, "winrate", picked.Winrate, "target", target)
	return picked.Move
}

func (s *Session) doAsAutoPlay(playable bool, proc func()) {
	if !playable {
		s.stopAutoPlay()
		s.Pause()
		return
	}
	proc()
	s.updateAutoPlayTime()
}

func (s *Session) updateAutoPlayTime() {
	s.auto.lastPlay = s.now()
	s.auto.bturn = s.bturn
}

func (s *Session) stopAutoPlay() {
	s.auto.playCount = 0
	s.auto.forever = false
}

// autoPlaying reports a pending move; with forever only an unbounded
// replay or self-play counts.
func (s *Session) autoPlaying(forever bool) bool {
	if forever {
		return s.auto.forever
	}
	return s.auto.forever || s.auto.playCount >= 1
}

// StopAuto ends auto-analysis and auto-play.
func (s *Session) StopAuto() {
	s.stopAutoAnalyze()
	s.stopAutoPlay()
	s.render()
}

// Progress is the fraction of the current auto step done, -1 when idle.
func (s *Session) Progress() float64 {
	analysis, play := -1.0, -1.0
	if s.autoAnalyzing() {
		analysis = float64(s.maxVisits()) / float64(s.auto.analyzeVisits)
	}
	if s.auto.forever && s.auto.interval > 0 {
		play = float64(s.now().Sub(s.auto.lastPlay)) / float64(s.auto.interval)
	}
	return math.Max(analysis, play)
}
