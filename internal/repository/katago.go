package repository

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lizboard/internal/bootstrap"
	"lizboard/internal/domain"
	"lizboard/internal/domain/coord"
	"lizboard/internal/domain/game"
	"lizboard/internal/errors"
	gameUsecase "lizboard/internal/usecase/game"
)

// query is one position sent to KataGo. Responses are matched by id and
// anything for an unknown id is dropped.
type query struct {
	id        string
	entries   []game.Entry
	boardSent bool
}

// KatagoEngine drives a KataGo analysis process over JSON lines and turns
// its reports into board and suggestion callbacks.
type KatagoEngine struct {
	cfg  *bootstrap.Config
	log  *zap.SugaredLogger
	args []string

	cmd    *exec.Cmd
	stdin  *bufio.Writer
	stdout *bufio.Scanner

	mu        sync.Mutex // guards stdin and the fields below
	entries   []game.Entry
	current   *query
	pondering bool

	queries sync.Map // map[id]*query
	handler gameUsecase.Handler
}

func NewKatagoEngine(cfg *bootstrap.Config, log *zap.SugaredLogger, args []string) *KatagoEngine {
	return &KatagoEngine{
		cfg:  cfg,
		log:  log.With("engine", cfg.KatagoCommand),
		args: args,
	}
}

// Attach sets the callback receiver; call before Start.
func (k *KatagoEngine) Attach(h gameUsecase.Handler) {
	k.handler = h
}

// Start launches the process and the reader goroutine, which stops when
// ctx is done or the process closes stdout.
func (k *KatagoEngine) Start(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, k.cfg.KatagoCommand, k.args...)
	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("katago stdin: %w", err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("katago stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %v: %w", k.cfg.KatagoCommand, err, errors.ErrEngineUnavailable)
	}
	k.run(cmd, stdinPipe, stdoutPipe)
	k.log.Infow("katago started", "args", k.args, "pid", cmd.Process.Pid)
	return nil
}

// run wires the pipes; split out so tests can use an in-memory process.
func (k *KatagoEngine) run(cmd *exec.Cmd, stdin io.Writer, stdout io.Reader) {
	k.cmd = cmd
	k.stdin = bufio.NewWriter(stdin)
	k.stdout = bufio.NewScanner(stdout)
	k.stdout.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	go k.listenForResponses()
}

func (k *KatagoEngine) Args() []string {
	return append([]string{k.cfg.KatagoCommand}, k.args...)
}

// SetBoard replaces the analysed position. Analysis of the previous one
// is terminated.
func (k *KatagoEngine) SetBoard(entries []game.Entry) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.entries = append([]game.Entry(nil), entries...)
	if err := k.terminateLocked(); err != nil {
		return err
	}
	if !k.pondering {
		return nil
	}
	return k.queryLocked()
}

func (k *KatagoEngine) SetPondering(on bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if on == k.pondering {
		return
	}
	k.pondering = on
	var err error
	if on {
		err = k.queryLocked()
	} else {
		err = k.terminateLocked()
	}
	if err != nil {
		k.log.Warnw("katago pondering switch failed", "on", on, "error", err)
	}
}

// SendRequest writes a raw JSON line, e.g. {"id":"v","action":"query_version"}.
func (k *KatagoEngine) SendRequest(cmd string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.writeLocked([]byte(cmd))
}

func (k *KatagoEngine) queryLocked() error {
	q := &query{id: uuid.New().String(), entries: k.entries}
	req := domain.AnalysisRequest{
		ID:                      q.id,
		Moves:                   movesOf(q.entries),
		Rules:                   k.cfg.Rules,
		Komi:                    k.cfg.Komi,
		BoardXSize:              coord.BoardSize,
		BoardYSize:              coord.BoardSize,
		AnalyzeTurns:            []int{len(q.entries)},
		MaxVisits:               k.cfg.MaxVisits,
		ReportDuringSearchEvery: k.cfg.ReportEverySeconds(),
	}
	line, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("katago query: %w", err)
	}
	k.queries.Store(q.id, q)
	if err := k.writeLocked(line); err != nil {
		k.queries.Delete(q.id)
		return err
	}
	k.current = q
	return nil
}

func (k *KatagoEngine) terminateLocked() error {
	if k.current == nil {
		return nil
	}
	old := k.current
	k.current = nil
	k.queries.Delete(old.id)
	line, err := json.Marshal(domain.AnalysisTerminate{
		ID:          uuid.New().String(),
		Action:      "terminate",
		TerminateID: old.id,
	})
	if err != nil {
		return fmt.Errorf("katago terminate: %w", err)
	}
	return k.writeLocked(line)
}

func (k *KatagoEngine) writeLocked(line []byte) error {
	if k.stdin == nil {
		return errors.ErrEngineUnavailable
	}
	if _, err := k.stdin.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("katago write: %w", err)
	}
	return k.stdin.Flush()
}

func (k *KatagoEngine) listenForResponses() {
	for k.stdout.Scan() {
		line := k.stdout.Bytes()

		var resp domain.AnalysisResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			k.log.Errorw("failed to unmarshal KataGo response", "error", err, "line", string(line))
			continue
		}
		if resp.Error != "" {
			k.log.Warnw("katago error", "id", resp.ID, "error", resp.Error)
			continue
		}

		v, ok := k.queries.Load(resp.ID)
		if !ok {
			continue
		}
		q := v.(*query)
		if !resp.IsDuringSearch {
			k.queries.CompareAndDelete(resp.ID, q)
		}
		k.deliver(q, resp)
	}
	if err := k.stdout.Err(); err != nil {
		k.log.Errorw("katago output closed", "error", err)
	}
}

// deliver runs on the reader goroutine, so the handler may take locks the
// caller of SetBoard holds.
func (k *KatagoEngine) deliver(q *query, resp domain.AnalysisResponse) {
	if k.handler == nil {
		return
	}
	moveCount := len(q.entries)
	var last game.Entry
	if moveCount > 0 {
		last = q.entries[moveCount-1]
	}
	if !q.boardSent {
		q.boardSent = true
		k.handler.HandleBoard(gameUsecase.BoardUpdate{
			MoveCount:   moveCount,
			LastMove:    last.Move,
			LastIsBlack: last.IsBlack,
			Stones:      game.Replay(q.entries),
		})
	}
	k.handler.HandleSuggest(SuggestUpdateFrom(resp, moveCount, last))
}

// SuggestUpdateFrom converts a KataGo report. KataGo reports win-rates for
// the side to move in [0,1]; suggestions use percent.
func SuggestUpdateFrom(resp domain.AnalysisResponse, moveCount int, last game.Entry) gameUsecase.SuggestUpdate {
	suggest := make([]game.Suggestion, 0, len(resp.MoveInfos))
	for _, mi := range resp.MoveInfos {
		pv := make([]coord.Move, len(mi.PV))
		for i, m := range mi.PV {
			pv[i] = coord.Move(m)
		}
		suggest = append(suggest, game.Suggestion{
			Move:    coord.Move(mi.Move),
			Winrate: mi.Winrate * 100,
			Visits:  mi.Visits,
			Prior:   mi.Prior,
			Order:   mi.Order,
			PV:      pv,
		})
	}
	rankByWinrate(suggest)

	var bWinrate *float64
	if resp.RootInfo.Visits > 0 || resp.RootInfo.Winrate > 0 {
		w := resp.RootInfo.Winrate * 100
		if resp.RootInfo.CurrentPlayer == "W" {
			w = 100 - w
		}
		bWinrate = &w
	}
	return gameUsecase.SuggestUpdate{
		MoveCount:   moveCount,
		LastMove:    last.Move,
		LastIsBlack: last.IsBlack,
		Suggest:     suggest,
		BWinrate:    bWinrate,
	}
}

// rankByWinrate fills WinrateOrder; Order stays the engine's ranking.
func rankByWinrate(suggest []game.Suggestion) {
	for i := range suggest {
		rank := 0
		for j := range suggest {
			if suggest[j].Winrate > suggest[i].Winrate || (suggest[j].Winrate == suggest[i].Winrate && j < i) {
				rank++
			}
		}
		suggest[i].WinrateOrder = rank
	}
}

func movesOf(entries []game.Entry) [][2]string {
	moves := make([][2]string, 0, len(entries))
	for _, e := range entries {
		moves = append(moves, [2]string{e.Color(), string(e.Move)})
	}
	return moves
}
