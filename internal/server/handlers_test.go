package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payoffquiz/internal/broadcast"
	"payoffquiz/internal/events"
	"payoffquiz/internal/gamedata"
	"payoffquiz/internal/gameflow"
	"payoffquiz/internal/metrics"
	"payoffquiz/internal/questions"
	"payoffquiz/internal/scoring"
	"payoffquiz/internal/strategies"
	"payoffquiz/internal/timers"
	"payoffquiz/internal/wshub"
)

type fixedQuestions []questions.Question

func (f fixedQuestions) Draw(players, slots int) []questions.Question {
	return append([]questions.Question(nil), f...)
}

func groupingQuestion(id string) questions.Question {
	var opts []questions.Option
	for _, k := range []string{"1", "2", "3", "4", "5", "6"} {
		opts = append(opts, questions.Option{Key: k, Text: k})
	}
	return questions.Question{
		ID: id, Kind: questions.KindChoice, Options: opts,
		Strategy: strategies.NumberGrouping, DefaultChoice: "1",
		Params: map[string]int{"groupAMax": 3},
	}
}

func newTestServer(t *testing.T, burst int) (*Server, *httptest.Server) {
	t.Helper()
	reg := prometheus.NewRegistry()
	bus := events.NewBus(0)
	hub := wshub.NewHub()
	game := gameflow.New(gameflow.Config{QuestionTime: 30 * time.Second}, gameflow.Deps{
		Engine:    scoring.NewEngine(strategies.Default()),
		Questions: fixedQuestions{groupingQuestion("g1"), groupingQuestion("g2")},
		Publisher: bus,
		Clock:     timers.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		Metrics:   metrics.New(reg),
	})
	srv := New(game, broadcast.NewBroadcaster(bus, hub), hub, 0.01, burst)
	srv.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return srv, ts
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := http.Post(url, "application/json", &buf)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

type joinResponse struct {
	PlayerID string            `json:"playerId"`
	Room     gamedata.Snapshot `json:"room"`
}

func createRoom(t *testing.T, baseURL string) string {
	t.Helper()
	resp := post(t, baseURL+"/rooms", map[string]int{"maxPlayers": 4})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	snap := decodeBody[gamedata.Snapshot](t, resp)
	require.Len(t, snap.Code, 4)
	return snap.Code
}

func join(t *testing.T, baseURL, code, name string) string {
	t.Helper()
	resp := post(t, baseURL+"/rooms/"+code+"/join", map[string]string{"name": name})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeBody[joinResponse](t, resp)
	require.NotEmpty(t, out.PlayerID)
	return out.PlayerID
}

func TestCreateRoom(t *testing.T) {
	_, ts := newTestServer(t, 4)

	resp := post(t, ts.URL+"/rooms", nil)

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	snap := decodeBody[gamedata.Snapshot](t, resp)
	assert.Equal(t, gamedata.PhaseWaiting, snap.Phase)
	assert.Equal(t, 6, snap.MaxPlayers)
}

func TestFullGameOverHTTP(t *testing.T) {
	_, ts := newTestServer(t, 4)
	code := createRoom(t, ts.URL)
	alice := join(t, ts.URL, code, "Alice")
	bob := join(t, ts.URL, strings.ToLower(code), "Bob")

	resp := post(t, ts.URL+"/rooms/"+code+"/start", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = post(t, ts.URL+"/rooms/"+code+"/submit", submitRequest{PlayerID: alice, Choice: "2"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = post(t, ts.URL+"/rooms/"+code+"/submit", submitRequest{PlayerID: bob, Choice: "3"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decodeBody[gamedata.Snapshot](t, resp)
	assert.Equal(t, 1, snap.Index)

	resp = post(t, ts.URL+"/rooms/"+code+"/advance", map[string]bool{"fillDefaults": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap = decodeBody[gamedata.Snapshot](t, resp)
	assert.Equal(t, gamedata.PhaseFinished, snap.Phase)
	require.Len(t, snap.Leaderboard, 2)
	assert.Equal(t, bob, snap.Leaderboard[0].PlayerID)

	get, err := http.Get(ts.URL + "/rooms/" + code)
	require.NoError(t, err)
	defer get.Body.Close()
	assert.Equal(t, gamedata.PhaseFinished, decodeBody[gamedata.Snapshot](t, get).Phase)
}

func TestErrorStatuses(t *testing.T) {
	_, ts := newTestServer(t, 4)
	code := createRoom(t, ts.URL)
	alice := join(t, ts.URL, code, "Alice")

	tests := []struct {
		name string
		path string
		body any
		want int
		kind string
	}{
		{"unknown room", "/rooms/0000/join", map[string]string{"name": "Eve"}, http.StatusNotFound, "not-found"},
		{"not started", "/rooms/" + code + "/submit", submitRequest{PlayerID: alice, Choice: "1"}, http.StatusConflict, "conflict"},
		{"finish before start", "/rooms/" + code + "/finish", nil, http.StatusConflict, "conflict"},
		{"missing name", "/rooms/" + code + "/join", map[string]string{}, http.StatusBadRequest, "invalid-input"},
		{"unknown field", "/rooms/" + code + "/join", map[string]string{"nick": "x"}, http.StatusBadRequest, "invalid-input"},
		{"unknown player leaves", "/rooms/" + code + "/leave", playerRequest{PlayerID: "ghost"}, http.StatusNotFound, "not-found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+tt.path, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Equal(t, tt.kind, decodeBody[errorResponse](t, resp).Kind)
		})
	}

	t.Run("invalid choice", func(t *testing.T) {
		require.Equal(t, http.StatusOK, post(t, ts.URL+"/rooms/"+code+"/start", nil).StatusCode)
		resp := post(t, ts.URL+"/rooms/"+code+"/submit", submitRequest{PlayerID: alice, Choice: "9"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
	t.Run("second start", func(t *testing.T) {
		resp := post(t, ts.URL+"/rooms/"+code+"/start", nil)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

func TestSubmitRateLimited(t *testing.T) {
	srv, ts := newTestServer(t, 1)
	code := createRoom(t, ts.URL)
	alice := join(t, ts.URL, code, "Alice")
	join(t, ts.URL, code, "Bob")
	require.Equal(t, http.StatusOK, post(t, ts.URL+"/rooms/"+code+"/start", nil).StatusCode)

	first := post(t, ts.URL+"/rooms/"+code+"/submit", submitRequest{PlayerID: alice, Choice: "9"})
	assert.Equal(t, http.StatusBadRequest, first.StatusCode, "a rejected answer still spends a token")
	second := post(t, ts.URL+"/rooms/"+code+"/submit", submitRequest{PlayerID: alice, Choice: "2"})
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
	assert.Equal(t, 1, srv.limits.len())
}

func TestLeaveDissolvesRoom(t *testing.T) {
	srv, ts := newTestServer(t, 1)
	code := createRoom(t, ts.URL)
	alice := join(t, ts.URL, code, "Alice")
	require.Equal(t, http.StatusOK, post(t, ts.URL+"/rooms/"+code+"/start", nil).StatusCode)
	post(t, ts.URL+"/rooms/"+code+"/submit", submitRequest{PlayerID: alice, Choice: "9"})
	require.Equal(t, 1, srv.limits.len())

	resp := post(t, ts.URL+"/rooms/"+code+"/leave", playerRequest{PlayerID: alice})

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, srv.limits.len(), "limiters go with the room")
	get, err := http.Get(ts.URL + "/rooms/" + code)
	require.NoError(t, err)
	defer get.Body.Close()
	assert.Equal(t, http.StatusNotFound, get.StatusCode)
}

func TestResultsWithoutDatabase(t *testing.T) {
	_, ts := newTestServer(t, 1)
	resp, err := http.Get(ts.URL + "/results/ABCD")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	_, ts := newTestServer(t, 1)
	createRoom(t, ts.URL)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	health := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "ok", health["status"])
	assert.EqualValues(t, 1, health["rooms"])

	m, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer m.Body.Close()
	var body bytes.Buffer
	body.ReadFrom(m.Body)
	assert.Contains(t, body.String(), "payoffquiz_active_rooms 1")
}

func TestEventsStream(t *testing.T) {
	_, ts := newTestServer(t, 1)
	code := createRoom(t, ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/rooms/"+code+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	join(t, ts.URL, code, "Alice")

	scanner := bufio.NewScanner(resp.Body)
	var data string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(line, "data: ")
			var snap gamedata.Snapshot
			require.NoError(t, json.Unmarshal([]byte(data), &snap))
			if len(snap.Players) == 1 {
				break
			}
		}
	}
	assert.Contains(t, data, `"name":"Alice"`)
}

func TestEventsStreamUnknownRoom(t *testing.T) {
	_, ts := newTestServer(t, 1)
	resp, err := http.Get(ts.URL + "/rooms/0000/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebSocketSubmit(t *testing.T) {
	srv, ts := newTestServer(t, 4)
	code := createRoom(t, ts.URL)
	alice := join(t, ts.URL, code, "Alice")
	require.Equal(t, http.StatusOK, post(t, ts.URL+"/rooms/"+code+"/start", nil).StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/rooms/" + code + "/ws?player=" + alice
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	var first wshub.ServerMessage
	require.NoError(t, wsjson.Read(ctx, conn, &first))
	assert.Equal(t, "snapshot", first.Type)
	assert.Eventually(t, func() bool { return srv.Hub.Count(code) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, wsjson.Write(ctx, conn, wshub.ClientMessage{Type: "submit", Choice: "9"}))
	for {
		var msg wshub.ServerMessage
		require.NoError(t, wsjson.Read(ctx, conn, &msg))
		if msg.Type == "error" {
			assert.Contains(t, msg.Error, "invalid-input")
			break
		}
	}

	require.NoError(t, wsjson.Write(ctx, conn, wshub.ClientMessage{Type: "submit", Choice: "2"}))
	for {
		var msg wshub.ServerMessage
		require.NoError(t, wsjson.Read(ctx, conn, &msg))
		require.NotEqual(t, "error", msg.Type, msg.Error)
		if msg.Type != "snapshot" {
			continue
		}
		var snap gamedata.Snapshot
		require.NoError(t, json.Unmarshal(msg.Data, &snap))
		if snap.Index == 1 {
			break
		}
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
