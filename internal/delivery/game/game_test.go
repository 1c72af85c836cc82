package game

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lizboard/internal/domain/game"
	appErrors "lizboard/internal/errors"
	gameUsecase "lizboard/internal/usecase/game"
	"lizboard/internal/usecase/record"
)

type nopStore struct {
	saved map[string]string
}

func (n *nopStore) SaveSGF(_ context.Context, key string, text string) error {
	n.saved[key] = text
	return nil
}

func (n *nopStore) LoadSGF(_ context.Context, key string) (string, error) {
	text, ok := n.saved[key]
	if !ok {
		return "", appErrors.ErrRecordNotFound
	}
	return text, nil
}

func (n *nopStore) ArchiveBoard(context.Context, game.ArchivedBoard) error {
	return nil
}

func (n *nopStore) ListArchived(context.Context, int) ([]game.ArchivedBoard, error) {
	return nil, nil
}

func (n *nopStore) GetArchived(context.Context, string) (game.ArchivedBoard, error) {
	return game.ArchivedBoard{}, appErrors.ErrRecordNotFound
}

type stateResponse struct {
	Status int               `json:"Status"`
	Body   gameUsecase.State `json:"Body"`
}

func newTestServer(t *testing.T) (*httptest.Server, *Hub) {
	t.Helper()
	log := zap.NewNop().Sugar()
	hub := NewHub(log)
	session := gameUsecase.NewSerialized(gameUsecase.NewSession(log, gameUsecase.Engines{}, hub, gameUsecase.Options{}))
	records := record.NewUseCase(&nopStore{saved: map[string]string{}}, session, log)

	r := chi.NewRouter()
	NewGameHandler(log, session, records, hub).Routes(r)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts, hub
}

func post(t *testing.T, ts *httptest.Server, path, body string) (*http.Response, stateResponse) {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out stateResponse
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.Unmarshal(data, &out))
	}
	return resp, out
}

func TestPlayAndState(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, out := post(t, ts, "/play", `{"move":"D4"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, out.Body.MoveCount)
	assert.False(t, out.Body.BTurn)

	resp, _ = post(t, ts, "/play", `{"move":"D4"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = post(t, ts, "/play", `{"move":"Z9"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = post(t, ts, "/play", `{"mvoe":"Q16"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	get, err := http.Get(ts.URL + "/state")
	require.NoError(t, err)
	defer get.Body.Close()
	var state stateResponse
	require.NoError(t, json.NewDecoder(get.Body).Decode(&state))
	assert.Equal(t, 1, state.Body.HistoryLength)
	assert.Len(t, state.Body.WinrateHistory, 2)
}

func TestCountedDefaultsToOne(t *testing.T) {
	ts, _ := newTestServer(t)
	post(t, ts, "/play", `{"move":"D4"}`)
	post(t, ts, "/play", `{"move":"Q16"}`)
	post(t, ts, "/play", `{"move":"C3"}`)

	_, out := post(t, ts, "/undo", "")
	assert.Equal(t, 2, out.Body.MoveCount)
	_, out = post(t, ts, "/undo", `{"n":5}`)
	assert.Equal(t, 0, out.Body.MoveCount)
	_, out = post(t, ts, "/goto", `{"n":2}`)
	assert.Equal(t, 2, out.Body.MoveCount)
}

func TestSequenceRoutes(t *testing.T) {
	ts, _ := newTestServer(t)
	post(t, ts, "/play", `{"move":"D4"}`)

	_, out := post(t, ts, "/sequence/new", "")
	assert.Equal(t, 2, out.Body.SequenceLength)

	resp, _ := post(t, ts, "/sequence/undelete", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/sequence/", nil)
	require.NoError(t, err)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	assert.Equal(t, http.StatusOK, del.StatusCode)

	_, out = post(t, ts, "/sequence/undelete", "")
	assert.Equal(t, 2, out.Body.SequenceLength)
}

func TestImportExport(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := post(t, ts, "/sgf/import", `{"text":"nothing to see"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, out := post(t, ts, "/sgf/import", `{"name":"a.sgf","text":"(;B[dd];W[pp])"}`)
	assert.Equal(t, 2, out.Body.MoveCount)

	get, err := http.Get(ts.URL + "/sgf/export")
	require.NoError(t, err)
	defer get.Body.Close()
	body, _ := io.ReadAll(get.Body)
	assert.Equal(t, "(;KM[7.5]PW[]PB[];B[dd];W[pp])", string(body))

	resp, _ = post(t, ts, "/engine/send", `{"id":"v","action":"query_version"}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestReportRoute(t *testing.T) {
	ts, _ := newTestServer(t)
	get, err := http.Get(ts.URL + "/report.pdf")
	require.NoError(t, err)
	defer get.Body.Close()
	body, _ := io.ReadAll(get.Body)
	assert.Equal(t, "application/pdf", get.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(string(body), "%PDF"))
}

func TestStreamPushesRenders(t *testing.T) {
	ts, hub := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first Message
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "render", first.Type)
	require.NotNil(t, first.State)
	assert.Equal(t, 0, first.State.MoveCount)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)
	go hub.Run(ctx)

	post(t, ts, "/play", `{"move":"D4"}`)
	var next Message
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, "render", next.Type)
	assert.Equal(t, 1, next.State.MoveCount)
}
