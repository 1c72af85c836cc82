package game

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"lizboard/internal/domain/coord"
	"lizboard/internal/httpresponse"
	gameUsecase "lizboard/internal/usecase/game"
	"lizboard/internal/usecase/record"
	"lizboard/internal/usecase/report"
	"lizboard/internal/utils"
)

type GameHandler struct {
	log     *zap.SugaredLogger
	session *gameUsecase.Serialized
	records *record.UseCase
	hub     *Hub
}

func NewGameHandler(log *zap.SugaredLogger, session *gameUsecase.Serialized, records *record.UseCase, hub *Hub) *GameHandler {
	return &GameHandler{
		log:     log,
		session: session,
		records: records,
		hub:     hub,
	}
}

type PlayRequest struct {
	Move  string `json:"move"`
	Force bool   `json:"force,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

type CountRequest struct {
	N int `json:"n"`
}

type WeakRequest struct {
	N       int     `json:"n"`
	Percent float64 `json:"percent"`
}

type ReplayRequest struct {
	Sec float64 `json:"sec"`
}

type PlayersRequest struct {
	Black string `json:"black"`
	White string `json:"white"`
}

type TextRequest struct {
	Name string `json:"name,omitempty"`
	Text string `json:"text"`
}

type JsonOKResponse struct {
	Text string `json:"text"`
}

// Routes mounts every session operation on r.
func (g *GameHandler) Routes(r chi.Router) {
	r.Get("/state", g.HandleState)
	r.Get("/info", g.HandleInfo)
	r.Get("/ws", g.HandleStream)

	r.Post("/play", g.HandlePlay)
	r.Post("/pass", g.simple(func(s *gameUsecase.Session) error { return s.Pass() }))
	r.Post("/undo", g.counted((*gameUsecase.Session).Undo))
	r.Post("/redo", g.counted((*gameUsecase.Session).Redo))
	r.Post("/goto", g.counted((*gameUsecase.Session).Goto))
	r.Post("/undo-to-start", g.simple(noErr((*gameUsecase.Session).UndoToStart)))
	r.Post("/redo-to-end", g.simple(noErr((*gameUsecase.Session).RedoToEnd)))
	r.Post("/explicit-undo", g.simple(noErr((*gameUsecase.Session).ExplicitUndo)))

	r.Route("/sequence", func(r chi.Router) {
		r.Post("/next", g.simple(noErr((*gameUsecase.Session).NextSequence)))
		r.Post("/previous", g.simple(noErr((*gameUsecase.Session).PreviousSequence)))
		r.Post("/nth", g.counted((*gameUsecase.Session).NthSequence))
		r.Post("/new", g.simple(noErr((*gameUsecase.Session).NewEmptyBoard)))
		r.Post("/duplicate", g.simple(noErr((*gameUsecase.Session).DuplicateActive)))
		r.Post("/undelete", g.simple((*gameUsecase.Session).Undelete))
		r.Post("/trial", g.simple(noErr((*gameUsecase.Session).ToggleTrial)))
		r.Post("/players", g.HandlePlayers)
		r.Delete("/", g.HandleDelete)
	})

	r.Route("/sgf", func(r chi.Router) {
		r.Post("/import", g.HandleImport)
		r.Get("/export", g.HandleExport)
		r.Post("/save", g.HandleSave)
		r.Post("/load/{key}", g.HandleLoad)
	})

	r.Route("/archive", func(r chi.Router) {
		r.Get("/", g.HandleListArchived)
		r.Post("/{key}/restore", g.HandleRestore)
	})

	r.Route("/editor", func(r chi.Router) {
		r.Post("/attach", g.HandleAttach)
		r.Post("/detach", g.simple(noErr((*gameUsecase.Session).DetachEditor)))
		r.Post("/line", g.HandleEditorLine)
	})

	r.Route("/engine", func(r chi.Router) {
		r.Post("/pause", g.simple(noErr((*gameUsecase.Session).TogglePause)))
		r.Post("/swap", g.simple(noErr((*gameUsecase.Session).SwapEngines)))
		r.Post("/send", g.HandleSend)
	})

	r.Route("/auto", func(r chi.Router) {
		r.Post("/analyze", g.counted((*gameUsecase.Session).ToggleAutoAnalyze))
		r.Post("/best", g.counted((*gameUsecase.Session).PlayBest))
		r.Post("/weak", g.HandlePlayWeak)
		r.Post("/replay", g.HandleAutoReplay)
		r.Post("/stop", g.simple(noErr((*gameUsecase.Session).StopAuto)))
	})

	r.Get("/report.pdf", g.HandleReport)
}

func noErr(f func(*gameUsecase.Session)) func(*gameUsecase.Session) error {
	return func(s *gameUsecase.Session) error {
		f(s)
		return nil
	}
}

// run applies f and answers with the resulting state.
func (g *GameHandler) run(w http.ResponseWriter, f func(s *gameUsecase.Session) error) {
	var state gameUsecase.State
	err := g.session.Do(func(s *gameUsecase.Session) error {
		if err := f(s); err != nil {
			return err
		}
		state = s.State()
		return nil
	})
	if err != nil {
		g.log.Infow("operation rejected", "error", err)
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, state)
}

func (g *GameHandler) simple(f func(s *gameUsecase.Session) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g.run(w, f)
	}
}

// counted reads {"n": ...}; an empty body means 1.
func (g *GameHandler) counted(f func(s *gameUsecase.Session, n int)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := CountRequest{N: 1}
		if err := utils.DecodeOptionalJSON(r, &req); err != nil {
			g.log.Error("JSON decode error:", err)
			httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
			return
		}
		g.run(w, func(s *gameUsecase.Session) error {
			f(s, req.N)
			return nil
		})
	}
}

func (g *GameHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := utils.DecodeJSONRequest(r, dst); err != nil {
		g.log.Error("JSON decode error:", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

func (g *GameHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, g.session.Snapshot())
}

func (g *GameHandler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	var info string
	_ = g.session.Do(func(s *gameUsecase.Session) error {
		info = s.Info()
		return nil
	})
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, JsonOKResponse{Text: info})
}

func (g *GameHandler) HandlePlay(w http.ResponseWriter, r *http.Request) {
	var req PlayRequest
	if !g.decode(w, r, &req) {
		return
	}
	var opts []gameUsecase.PlayOption
	if req.Force {
		opts = append(opts, gameUsecase.ForceBranch())
	}
	if req.Tag != "" {
		opts = append(opts, gameUsecase.WithDefaultTag(req.Tag))
	}
	g.run(w, func(s *gameUsecase.Session) error {
		return s.Play(coord.Move(req.Move), opts...)
	})
}

func (g *GameHandler) HandlePlayers(w http.ResponseWriter, r *http.Request) {
	var req PlayersRequest
	if !g.decode(w, r, &req) {
		return
	}
	g.run(w, func(s *gameUsecase.Session) error {
		s.SetPlayers(req.Black, req.White)
		return nil
	})
}

func (g *GameHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	board, err := g.records.DeleteActive(r.Context())
	if err != nil {
		// The board is gone from the session either way.
		g.log.Errorw("failed to archive deleted board", "board_id", board.BoardID, "error", err)
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, g.session.Snapshot())
}

func (g *GameHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !g.decode(w, r, &req) {
		return
	}
	g.run(w, func(s *gameUsecase.Session) error {
		if req.Name != "" {
			return s.LoadSGFFile(req.Name, req.Text)
		}
		return s.ImportSGF(req.Text)
	})
}

func (g *GameHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	var text string
	_ = g.session.Do(func(s *gameUsecase.Session) error {
		text = s.ExportSGF()
		return nil
	})
	w.Header().Set("Content-Type", "application/x-go-sgf")
	_, _ = w.Write([]byte(text))
}

func (g *GameHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	key, err := g.records.Save(r.Context())
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, JsonOKResponse{Text: key})
}

func (g *GameHandler) HandleLoad(w http.ResponseWriter, r *http.Request) {
	if err := g.records.Load(r.Context(), chi.URLParam(r, "key")); err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, g.session.Snapshot())
}

func (g *GameHandler) HandleListArchived(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	boards, err := g.records.ListArchived(r.Context(), limit)
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, boards)
}

func (g *GameHandler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	if err := g.records.Restore(r.Context(), chi.URLParam(r, "key")); err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, g.session.Snapshot())
}

type AttachResponse struct {
	SGF       string `json:"sgf"`
	MoveCount int    `json:"move_count"`
}

func (g *GameHandler) HandleAttach(w http.ResponseWriter, r *http.Request) {
	var resp AttachResponse
	var ok bool
	_ = g.session.Do(func(s *gameUsecase.Session) error {
		resp.SGF, resp.MoveCount, ok = s.AttachEditor()
		return nil
	})
	if !ok {
		httpresponse.WriteResponseWithStatus(w, http.StatusConflict, "editor already attached")
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, resp)
}

func (g *GameHandler) HandleEditorLine(w http.ResponseWriter, r *http.Request) {
	body, err := utils.ReadRequestBody(r)
	if err != nil {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	g.run(w, func(s *gameUsecase.Session) error {
		for _, line := range bytes.Split(body, []byte("\n")) {
			if err := s.ReadEditorLine(string(line)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (g *GameHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	body, err := utils.ReadRequestBody(r)
	if err != nil {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	g.run(w, func(s *gameUsecase.Session) error {
		return s.SendToEngine(string(bytes.TrimSpace(body)))
	})
}

func (g *GameHandler) HandlePlayWeak(w http.ResponseWriter, r *http.Request) {
	var req WeakRequest
	if !g.decode(w, r, &req) {
		return
	}
	g.run(w, func(s *gameUsecase.Session) error {
		s.PlayWeak(req.N, req.Percent)
		return nil
	})
}

func (g *GameHandler) HandleAutoReplay(w http.ResponseWriter, r *http.Request) {
	var req ReplayRequest
	if !g.decode(w, r, &req) {
		return
	}
	g.run(w, func(s *gameUsecase.Session) error {
		s.AutoReplay(time.Duration(req.Sec * float64(time.Second)))
		return nil
	})
}

func (g *GameHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := g.session.Do(func(s *gameUsecase.Session) error {
		return report.WinratePDF(&buf, s.History())
	})
	if err != nil {
		g.log.Errorw("failed to render report", "error", err)
		httpresponse.WriteInternalErrorResponse(w)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	_, _ = w.Write(buf.Bytes())
}

// HandleStream upgrades to a websocket that receives every render and
// slide signal, starting with the current state.
func (g *GameHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Error("upgrade error:", err)
		return
	}
	state := g.session.Snapshot()
	if err := conn.WriteJSON(Message{Type: "render", State: &state}); err != nil {
		g.log.Error("initial write error:", err)
		conn.Close()
		return
	}
	g.hub.add(conn)
	defer g.hub.remove(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.log.Error("read error:", err)
			}
			return
		}
	}
}
