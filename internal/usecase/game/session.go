package game

import (
	"time"

	"go.uber.org/zap"

	"lizboard/internal/domain/game"
	"lizboard/internal/usecase/tag"
	"lizboard/internal/usecase/weak"
)

// Notifier receives the projection after every change. Implementations
// must not call back into the Session.
type Notifier interface {
	Render(state State)
	SlideIn(direction string)
}

const (
	SlideNext     = "next"
	SlidePrevious = "previous"
)

type Options struct {
	DeletedCapacity int
	WeakenPercent   float64
	Rand            weak.Rand
	Now             func() time.Time
}

// Session owns the boards, the cursor and the engines. It is not safe for
// concurrent use; see Serialized.
type Session struct {
	log      *zap.SugaredLogger
	seq      *game.Collection
	tags     *tag.Allocator
	selector *weak.Selector
	engines  Engines
	active   Engine
	notifier Notifier
	now      func() time.Time

	moveCount int
	bturn     bool
	stones    game.Stones
	suggest   []game.Suggestion

	paused   bool
	busy     bool
	attached bool
	cutFirst bool

	weakenPercent float64
	auto          autoState
}

func NewSession(log *zap.SugaredLogger, engines Engines, notifier Notifier, opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Session{
		log:           log,
		seq:           game.NewCollection(opts.DeletedCapacity),
		tags:          tag.NewAllocator(),
		selector:      weak.NewSelector(opts.Rand),
		engines:       engines,
		notifier:      notifier,
		now:           opts.Now,
		bturn:         true,
		stones:        game.NewStones(),
		weakenPercent: opts.WeakenPercent,
	}
	s.active = engines.For(true)
	s.stopAutoAnalyze()
	return s
}

func (s *Session) History() *game.History {
	return s.seq.Active()
}

func (s *Session) Sequence() *game.Collection {
	return s.seq
}

func (s *Session) MoveCount() int {
	return s.moveCount
}

func (s *Session) BTurn() bool {
	return s.bturn
}

func (s *Session) Stones() game.Stones {
	return s.stones
}

func (s *Session) Suggest() []game.Suggestion {
	return s.suggest
}

func (s *Session) redoable() bool {
	return s.History().Len() > s.moveCount
}

// setBoard moves the cursor to n and then re-synchronizes the engines
// with the first n entries.
func (s *Session) setBoard(n int) {
	h := s.History()
	entries := h.Entries(n)
	s.moveCount = len(entries)
	s.bturn = len(entries) == 0 || !entries[len(entries)-1].IsBlack
	s.suggest = nil
	s.engines.Each(func(e Engine) {
		if err := e.SetBoard(entries); err != nil {
			s.log.Warnw("engine set_board failed", "move_count", s.moveCount, "error", err)
		}
	})
	s.switchEngine()
}

func (s *Session) render() {
	if s.notifier != nil {
		s.notifier.Render(s.State())
	}
}

func (s *Session) slide(direction string) {
	if s.notifier != nil {
		s.notifier.SlideIn(direction)
	}
}
