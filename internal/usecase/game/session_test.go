package game

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lizboard/internal/domain/coord"
	"lizboard/internal/domain/game"
	appErrors "lizboard/internal/errors"
	"lizboard/internal/metrics"
)

type fakeEngine struct {
	boards    [][]game.Entry
	pondering bool
	sent      []string
	args      []string
}

func (f *fakeEngine) SetBoard(entries []game.Entry) error {
	f.boards = append(f.boards, entries)
	return nil
}

func (f *fakeEngine) SetPondering(on bool) {
	f.pondering = on
}

func (f *fakeEngine) SendRequest(cmd string) error {
	f.sent = append(f.sent, cmd)
	return nil
}

func (f *fakeEngine) Args() []string {
	return f.args
}

func (f *fakeEngine) lastBoard() []game.Entry {
	if len(f.boards) == 0 {
		return nil
	}
	return f.boards[len(f.boards)-1]
}

type recorder struct {
	renders int
	last    State
	slides  []string
}

func (r *recorder) Render(state State) {
	r.renders++
	r.last = state
}

func (r *recorder) SlideIn(direction string) {
	r.slides = append(r.slides, direction)
}

type fixedRand float64

func (f fixedRand) Float64() float64 {
	return float64(f)
}

func newTestSession(t *testing.T) (*Session, *fakeEngine, *recorder) {
	t.Helper()
	engine := &fakeEngine{args: []string{"analysis", "-config", "a.cfg"}}
	rec := &recorder{}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewSession(zap.NewNop().Sugar(), Engines{Black: engine}, rec, Options{
		WeakenPercent: 30,
		Rand:          fixedRand(0.5),
		Now:           func() time.Time { return now },
	})
	return s, engine, rec
}

func playAll(t *testing.T, s *Session, moves ...coord.Move) {
	t.Helper()
	for _, m := range moves {
		require.NoError(t, s.Play(m))
	}
}

// suggestHere reports analysis for the position under the cursor the way
// an engine would.
func suggestHere(s *Session, suggest []game.Suggestion, bWinrate *float64) {
	u := SuggestUpdate{MoveCount: s.MoveCount(), Suggest: suggest, BWinrate: bWinrate}
	if e, ok := s.History().At(s.MoveCount()); ok {
		u.LastMove, u.LastIsBlack = e.Move, e.IsBlack
	}
	s.HandleSuggest(u)
}

func moves(entries []game.Entry) []coord.Move {
	out := make([]coord.Move, len(entries))
	for i, e := range entries {
		out[i] = e.Move
	}
	return out
}

func ptr(v float64) *float64 {
	return &v
}

func TestPlayAlternatesAndSyncsEngine(t *testing.T) {
	s, engine, rec := newTestSession(t)
	playAll(t, s, "D4", "Q16")

	assert.Equal(t, 2, s.MoveCount())
	assert.True(t, s.BTurn())
	entries := s.History().All()
	assert.True(t, entries[0].IsBlack)
	assert.False(t, entries[1].IsBlack)
	assert.Equal(t, []coord.Move{"D4", "Q16"}, moves(engine.lastBoard()))
	assert.True(t, engine.pondering)
	assert.Equal(t, 2, rec.last.MoveCount)
	assert.True(t, s.Stones().At(coord.ToIdx("Q16")).Maybe)
}

func TestPlayRejectsOccupiedAndInvalid(t *testing.T) {
	s, _, rec := newTestSession(t)
	playAll(t, s, "D4")
	renders := rec.renders
	rejected := testutil.ToFloat64(metrics.MovesRejected)

	err := s.Play("D4")
	assert.True(t, errors.Is(err, appErrors.ErrOccupiedCell))
	assert.True(t, errors.Is(err, appErrors.ErrInvalidMove))

	err = s.Play("Z99")
	assert.True(t, errors.Is(err, appErrors.ErrInvalidMove))

	assert.Equal(t, 1, s.History().Len())
	assert.Equal(t, 1, s.MoveCount())
	assert.Equal(t, 1, s.Sequence().Len())
	assert.Equal(t, renders, rec.renders)
	assert.Equal(t, rejected+2, testutil.ToFloat64(metrics.MovesRejected))
}

func TestDoublePassCollapses(t *testing.T) {
	s, _, _ := newTestSession(t)
	playAll(t, s, "D4")
	require.NoError(t, s.Pass())
	require.Equal(t, 2, s.History().Len())

	require.NoError(t, s.Pass())
	assert.Equal(t, []coord.Move{"D4"}, moves(s.History().All()))
	assert.Equal(t, 1, s.MoveCount())
}

func TestPlayAfterPassDropsThePass(t *testing.T) {
	s, _, _ := newTestSession(t)
	playAll(t, s, "D4")
	require.NoError(t, s.Pass())
	require.NoError(t, s.Play("Q16"))

	entries := s.History().All()
	assert.Equal(t, []coord.Move{"D4", "Q16"}, moves(entries))
	assert.True(t, entries[1].IsBlack, "black moves again after white's pass")
}

func TestPlayOnVacatedPointWithoutEngine(t *testing.T) {
	s, _, _ := newTestSession(t)
	playAll(t, s, "D4", "Q16")
	s.Undo(2)
	require.True(t, s.Stones().At(coord.ToIdx("Q16")).MaybeEmpty)

	require.NoError(t, s.Play("Q16"))
	assert.Equal(t, []coord.Move{"Q16"}, moves(s.History().All()))
	assert.True(t, s.History().All()[0].IsBlack)
}

func TestPlayOnCapturedPoint(t *testing.T) {
	s, _, _ := newTestSession(t)
	playAll(t, s, "A2", "A1", "B1")
	captured := s.Stones().At(coord.ToIdx("A1"))
	assert.True(t, captured.MaybeEmpty)
	assert.False(t, captured.Black)

	playAll(t, s, "Q16", "A1")
	assert.Equal(t, 5, s.MoveCount())
	last, _ := s.History().Last()
	assert.True(t, last.IsBlack)
}

func TestStateStonesAreACopy(t *testing.T) {
	s, _, _ := newTestSession(t)
	playAll(t, s, "D4")
	st := s.State()
	*st.Stones.At(coord.ToIdx("Q16")) = game.Stone{Stone: true}

	assert.False(t, s.Stones().Occupied("Q16"))
	require.NoError(t, s.Play("Q16"))
	assert.False(t, st.Stones.At(coord.ToIdx("Q16")).Maybe, "later plays do not reach an earlier snapshot")
}

func TestNegativeCountsDoNotMoveTheCursor(t *testing.T) {
	s, _, _ := newTestSession(t)
	playAll(t, s, "D4", "Q16", "C3")
	s.Undo(1)
	s.Undo(-2)
	assert.Equal(t, 2, s.MoveCount())
	s.Redo(-2)
	assert.Equal(t, 2, s.MoveCount())
}

func TestUndoRedoKeepsAnalysis(t *testing.T) {
	s, engine, _ := newTestSession(t)
	playAll(t, s, "D4", "Q16")
	suggestHere(s, []game.Suggestion{{Move: "C3", Visits: 4}}, ptr(45))

	s.Undo(1)
	assert.Equal(t, 1, s.MoveCount())
	assert.False(t, s.BTurn())
	assert.Equal(t, []coord.Move{"D4"}, moves(engine.lastBoard()))
	assert.True(t, s.Stones().At(coord.ToIdx("Q16")).MaybeEmpty)

	s.Redo(1)
	assert.Equal(t, 2, s.MoveCount())
	e, ok := s.History().At(2)
	require.True(t, ok)
	require.NotNil(t, e.BWinrate)
	assert.Equal(t, 45.0, *e.BWinrate)
	assert.Equal(t, 1, s.Sequence().Len())
}

func TestGotoSaturates(t *testing.T) {
	s, _, _ := newTestSession(t)
	playAll(t, s, "D4", "Q16", "C3")
	s.Undo(10)
	assert.Equal(t, 0, s.MoveCount())
	s.Redo(10)
	assert.Equal(t, 3, s.MoveCount())
	s.Goto(-4)
	assert.Equal(t, 0, s.MoveCount())
	s.RedoToEnd()
	assert.Equal(t, 3, s.MoveCount())
	s.UndoToStart()
	assert.Equal(t, 0, s.MoveCount())
}

func TestDivergingArchivesAndTagsTheOldLine(t *testing.T) {
	s, _, _ := newTestSession(t)
	playAll(t, s, "D4", "Q16", "R4")
	s.Undo(2)

	require.NoError(t, s.Play("C3"))

	seq := s.Sequence()
	require.Equal(t, 2, seq.Len())
	assert.Equal(t, 1, seq.Cursor())
	assert.Equal(t, []coord.Move{"D4", "Q16", "R4"}, moves(seq.At(0).All()))

	active := s.History()
	assert.Equal(t, []coord.Move{"D4", "C3"}, moves(active.All()))
	assert.True(t, active.Trial)
	last, _ := active.Last()
	assert.Equal(t, "b", last.Tag)
	assert.NotEqual(t, seq.At(0).ID, active.ID)
}

func TestForceBranchAtTip(t *testing.T) {
	s, _, _ := newTestSession(t)
	playAll(t, s, "D4")
	require.NoError(t, s.Play("Q16", ForceBranch(), WithDefaultTag("x")))

	require.Equal(t, 2, s.Sequence().Len())
	assert.Equal(t, 1, s.Sequence().At(0).Len())
	last, _ := s.History().Last()
	assert.Equal(t, "b", last.Tag, "the branch letter wins over the default")
}

func TestDivergingAtStartIsNotTrial(t *testing.T) {
	s, _, _ := newTestSession(t)
	playAll(t, s, "D4")
	s.UndoToStart()
	require.NoError(t, s.Play("Q16"))

	require.Equal(t, 2, s.Sequence().Len())
	h := s.History()
	assert.False(t, h.Trial)
	assert.Equal(t, []coord.Move{"Q16"}, moves(h.All()))
	assert.Empty(t, h.UsedTags())
}

func TestExplicitUndo(t *testing.T) {
	s, _, _ := newTestSession(t)
	playAll(t, s, "D4", "Q16")

	s.ExplicitUndo()
	assert.Equal(t, []coord.Move{"D4"}, moves(s.History().All()))
	assert.Equal(t, 1, s.MoveCount())
	assert.False(t, s.Stones().Occupied("Q16"))

	require.NoError(t, s.Play("C3"))
	s.Undo(1)
	s.ExplicitUndo()
	assert.Equal(t, 0, s.MoveCount())
	assert.Equal(t, 2, s.History().Len(), "with a continuation it only steps back")
}

func TestImportKeepsAnalysisOfCommonPrefix(t *testing.T) {
	s, _, _ := newTestSession(t)
	playAll(t, s, "D16", "Q4")
	suggestHere(s, nil, ptr(40))

	require.NoError(t, s.ImportSGF("(;PB[kim]PW[lee];B[dd];W[pp];B[cc])"))

	require.Equal(t, 2, s.Sequence().Len())
	h := s.History()
	assert.Equal(t, []coord.Move{"D16", "Q4", "C17"}, moves(h.All()))
	assert.Equal(t, 3, s.MoveCount())
	assert.Equal(t, "kim", h.PlayerBlack)
	assert.Equal(t, "lee", h.PlayerWhite)
	assert.False(t, h.Trial)
	assert.Equal(t, "(;PB[kim]PW[lee];B[dd];W[pp];B[cc])", h.SGFStr)
	assert.True(t, h.IsLastLoaded(3))

	e, _ := h.At(2)
	require.NotNil(t, e.BWinrate)
	assert.Equal(t, 40.0, *e.BWinrate)
	assert.Equal(t, 2, s.Sequence().At(0).Len(), "the old line is kept")
}

func TestPlayAtImportTipMarksIt(t *testing.T) {
	s, _, _ := newTestSession(t)
	require.NoError(t, s.ImportSGF("(;B[dd];W[pp])"))

	require.NoError(t, s.Play("C3"))
	last, _ := s.History().Last()
	assert.Equal(t, "C3", string(last.Move))
	assert.Equal(t, 3, s.History().Len())
	e, _ := s.History().At(3)
	assert.Equal(t, ".", e.Tag)
}

func TestImportTipBranchKeepsTagRotation(t *testing.T) {
	s, _, _ := newTestSession(t)
	require.NoError(t, s.ImportSGF("(;B[dd];W[pp])"))
	require.NoError(t, s.Play("C3"))
	s.Undo(1)

	require.NoError(t, s.Play("R4"))
	last, _ := s.History().Last()
	assert.Equal(t, ".", last.Tag)

	s.Undo(2)
	require.NoError(t, s.Play("K10"))
	last, _ = s.History().Last()
	assert.Equal(t, "b", last.Tag, "the import tip did not consume a letter")
}

func TestImportRejectsMalformedRecord(t *testing.T) {
	s, _, _ := newTestSession(t)
	playAll(t, s, "D4")

	err := s.ImportSGF("(;B[dd]")
	assert.True(t, errors.Is(err, appErrors.ErrMalformedRecord))
	assert.Equal(t, 1, s.Sequence().Len())
	assert.Equal(t, []coord.Move{"D4"}, moves(s.History().All()))
}

func TestLoadSGFFileKeepsName(t *testing.T) {
	s, _, _ := newTestSession(t)
	require.NoError(t, s.LoadSGFFile("game.sgf", "(;B[dd])"))
	assert.Equal(t, "game.sgf", s.History().SGFFile)
	assert.Contains(t, s.Info(), "<sgf file>\ngame.sgf")
	assert.Contains(t, s.Info(), "<engine>\nanalysis -config a.cfg")
}

func TestDeleteOnlyBoardThenUndelete(t *testing.T) {
	s, _, rec := newTestSession(t)
	playAll(t, s, "D4", "Q16")
	id := s.History().ID

	deleted := s.DeleteActive()
	assert.Equal(t, id, deleted.ID)
	assert.Equal(t, 1, s.Sequence().Len())
	assert.True(t, s.History().Empty())
	assert.NotEqual(t, id, s.History().ID)
	assert.Equal(t, 0, s.MoveCount())

	require.NoError(t, s.Undelete())
	assert.Equal(t, 2, s.Sequence().Len())
	assert.Equal(t, 0, s.Sequence().Cursor())
	assert.Equal(t, id, s.History().ID)
	assert.Equal(t, 2, s.MoveCount())
	assert.True(t, s.Stones().Occupied("Q16"))
	assert.NotEmpty(t, rec.slides)

	assert.True(t, errors.Is(s.Undelete(), appErrors.ErrNoDeletedSequence))
}

func TestSequenceNavigationRestoresCursor(t *testing.T) {
	s, _, rec := newTestSession(t)
	playAll(t, s, "D4", "Q16", "C3")
	s.Undo(1)

	s.NewEmptyBoard()
	require.Equal(t, 2, s.Sequence().Len())
	assert.Equal(t, 1, s.Sequence().Cursor())
	assert.Equal(t, 0, s.MoveCount())

	s.PreviousSequence()
	assert.Equal(t, 0, s.Sequence().Cursor())
	assert.Equal(t, 2, s.MoveCount())
	assert.True(t, s.Stones().Occupied("Q16"))
	assert.False(t, s.Stones().Occupied("C3"))

	s.NextSequence()
	s.NextSequence()
	assert.Equal(t, 0, s.Sequence().Cursor(), "navigation wraps")

	s.NthSequence(1)
	assert.Equal(t, 1, s.Sequence().Cursor())
	assert.Equal(t, SlideNext, rec.slides[len(rec.slides)-1])
}

func TestDuplicateActiveIsTrial(t *testing.T) {
	s, _, _ := newTestSession(t)
	playAll(t, s, "D4")
	s.DuplicateActive()

	require.Equal(t, 2, s.Sequence().Len())
	assert.True(t, s.History().Trial)
	assert.True(t, s.History().IsLastLoaded(1))
	assert.False(t, s.Sequence().At(0).Trial)

	s.ToggleTrial()
	assert.False(t, s.History().Trial)
	s.SetPlayers("a", "b")
	assert.Equal(t, "a", s.State().PlayerBlack)
}

func TestStaleSuggestionsAreDropped(t *testing.T) {
	s, _, _ := newTestSession(t)
	playAll(t, s, "D4")

	s.HandleSuggest(SuggestUpdate{MoveCount: 0, Suggest: []game.Suggestion{{Move: "Q16", Visits: 1}}})
	assert.Empty(t, s.Suggest())
	assert.Nil(t, s.History().Initial.Suggest)

	s.HandleSuggest(SuggestUpdate{MoveCount: 1, LastMove: "C3", LastIsBlack: true, Suggest: []game.Suggestion{{Move: "Q16", Visits: 1}}})
	assert.Empty(t, s.Suggest())

	s.HandleSuggest(SuggestUpdate{MoveCount: 1, LastMove: "D4", LastIsBlack: true, Suggest: []game.Suggestion{{Move: "Q16", Visits: 1}}})
	assert.Len(t, s.Suggest(), 1)
}

func TestBoardUpdateMarksNextMove(t *testing.T) {
	s, _, _ := newTestSession(t)
	playAll(t, s, "D4", "Q16")
	s.Undo(1)

	s.HandleBoard(BoardUpdate{
		MoveCount:   1,
		LastMove:    "D4",
		LastIsBlack: true,
		Stones:      game.Replay(s.History().Entries(1)),
	})
	next := s.Stones().At(coord.ToIdx("Q16"))
	assert.False(t, next.Stone)
	assert.True(t, next.NextMove)
	assert.False(t, next.NextIsBlack)
	played := s.Stones().At(coord.ToIdx("D4"))
	assert.Equal(t, 1, played.MoveCount)
	assert.Len(t, played.AnytimeStones, 1)
}

func TestPlayBestPlaysTheTopCandidate(t *testing.T) {
	s, _, _ := newTestSession(t)
	playAll(t, s, "D4")
	s.PlayBest(1)
	require.Equal(t, 1, s.History().Len(), "waits for analysis")

	suggestHere(s, []game.Suggestion{{Move: "Q16", Visits: 10}, {Move: "C3", Visits: 5}}, nil)
	assert.Equal(t, []coord.Move{"D4", "Q16"}, moves(s.History().All()))

	suggestHere(s, []game.Suggestion{{Move: "R4", Visits: 10}}, nil)
	assert.Equal(t, 2, s.History().Len(), "only one move was requested")
}

func TestPlayBestStopsOnPass(t *testing.T) {
	s, engine, _ := newTestSession(t)
	playAll(t, s, "D4")
	s.PlayBest(3)
	suggestHere(s, []game.Suggestion{{Move: coord.Pass, Visits: 10}}, nil)

	assert.Equal(t, 1, s.History().Len())
	assert.False(t, engine.pondering)
	assert.True(t, s.State().Availability.Resume)
}

func TestPlayWeakAimsAtTarget(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.PlayWeak(1, 100)
	suggestHere(s, []game.Suggestion{
		{Move: "D4", Winrate: 80, Visits: 10},
		{Move: "Q16", Winrate: 30, Visits: 10},
		{Move: "C3", Winrate: 10, Visits: 10},
	}, nil)
	assert.Equal(t, []coord.Move{"C3"}, moves(s.History().All()))
}

func TestAutoAnalyzeStepsToTheTip(t *testing.T) {
	s, engine, _ := newTestSession(t)
	playAll(t, s, "D4", "Q16")

	s.ToggleAutoAnalyze(5)
	assert.Equal(t, 0, s.MoveCount(), "rewinds when at the tip")

	suggestHere(s, []game.Suggestion{{Move: "D4", Visits: 5}}, nil)
	assert.Equal(t, 1, s.MoveCount())

	suggestHere(s, []game.Suggestion{{Move: "Q16", Visits: 3}}, nil)
	assert.Equal(t, 1, s.MoveCount())
	assert.InDelta(t, 0.6, s.Progress(), 1e-9)

	suggestHere(s, []game.Suggestion{{Move: "Q16", Visits: 5}}, nil)
	assert.Equal(t, 2, s.MoveCount())

	suggestHere(s, []game.Suggestion{{Move: "C3", Visits: 9}}, nil)
	assert.Equal(t, 2, s.MoveCount())
	assert.False(t, engine.pondering, "pauses at the tip")
	assert.Equal(t, -1.0, s.Progress())
	assert.True(t, s.State().Availability.StartAutoAnalyze)
}

func TestShallowAutoAnalysisHidesSuggestions(t *testing.T) {
	s, _, _ := newTestSession(t)
	playAll(t, s, "D4", "Q16", "C3")
	s.Goto(1)
	s.ToggleAutoAnalyze(5)
	suggestHere(s, []game.Suggestion{{Move: "Q16", Visits: 1}}, nil)
	assert.Nil(t, s.State().Suggest)

	s.ToggleAutoAnalyze(5)
	assert.Len(t, s.State().Suggest, 1)
}

func TestPreviousSuggest(t *testing.T) {
	s, _, _ := newTestSession(t)
	playAll(t, s, "D4")
	suggestHere(s, []game.Suggestion{{Move: "Q16", Winrate: 60, Visits: 9}}, nil)
	playAll(t, s, "Q16")

	prev := s.State().PreviousSuggest
	require.NotNil(t, prev)
	assert.Equal(t, coord.Move("Q16"), prev.Move)
	assert.False(t, prev.BTurn)
}

func TestEnginesPauseAndSwap(t *testing.T) {
	black := &fakeEngine{args: []string{"black"}}
	white := &fakeEngine{args: []string{"white"}}
	s := NewSession(zap.NewNop().Sugar(), Engines{Black: black, White: white}, nil, Options{})

	playAll(t, s, "D4")
	assert.True(t, white.pondering)
	assert.False(t, black.pondering)
	assert.Len(t, black.boards, len(white.boards), "both engines follow the board")

	require.NoError(t, s.SendToEngine("kata-raw"))
	assert.Equal(t, []string{"kata-raw"}, white.sent)

	s.Pause()
	assert.False(t, white.pondering)
	s.TogglePause()
	assert.True(t, white.pondering)

	s.SwapEngines()
	assert.True(t, black.pondering, "the former black engine now plays white")
	assert.Contains(t, s.Info(), "<engine (black)>\nwhite")
}

func TestSendWithoutEngine(t *testing.T) {
	s := NewSession(zap.NewNop().Sugar(), Engines{}, nil, Options{})
	assert.True(t, errors.Is(s.SendToEngine("x"), appErrors.ErrEngineUnavailable))
}

func TestEditorRoundTrip(t *testing.T) {
	s, _, _ := newTestSession(t)
	playAll(t, s, "D16")

	require.NoError(t, s.ReadEditorLine(`sabaki_dump_state: {"treePosition":[{"nodes":[{"B":["aa"]}]}]}`))
	assert.Equal(t, []coord.Move{"D16"}, moves(s.History().All()), "ignored while detached")

	record, moveCount, ok := s.AttachEditor()
	require.True(t, ok)
	assert.Equal(t, "(;KM[7.5]PW[]PB[];B[dd])", record)
	assert.Equal(t, 1, moveCount)
	assert.True(t, s.State().Availability.Detach)

	_, _, ok = s.AttachEditor()
	assert.False(t, ok)

	line := `sabaki_dump_state: {"treePosition":[{"nodes":[{"B":["dd"]},{"W":["pp"]},{"B":["cc"]}]},1]}`
	require.NoError(t, s.ReadEditorLine(line))
	assert.Equal(t, []coord.Move{"D16", "Q4", "C17"}, moves(s.History().All()))
	assert.Equal(t, 2, s.MoveCount())
	assert.Equal(t, 2, s.Sequence().Len())

	s.DetachEditor()
	assert.False(t, s.Attached())
}

func TestSerializedPassesErrorsThrough(t *testing.T) {
	s, _, _ := newTestSession(t)
	g := NewSerialized(s)
	err := g.Do(func(s *Session) error { return s.Play("D4") })
	require.NoError(t, err)
	err = g.Do(func(s *Session) error { return s.Play("D4") })
	assert.True(t, errors.Is(err, appErrors.ErrOccupiedCell))

	g.HandleSuggest(SuggestUpdate{MoveCount: 1, LastMove: "D4", LastIsBlack: true, Suggest: []game.Suggestion{{Move: "Q16", Visits: 2}}})
	assert.Equal(t, 2, g.Snapshot().MaxVisits)
}
