package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomz197/typefall/internal/config"
	"github.com/tomz197/typefall/internal/score"
)

const (
	alice = "0x52908400098527886E0F7030069857D2E4169EE7"
	bob   = "0x8617E340B3D01FA5F11F306F4090FD50E238070D"
)

type testEnv struct {
	server *httptest.Server
	board  *Board
	feed   *Feed
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := log.New(io.Discard)
	board := NewBoard()
	feed := NewFeed(logger)
	webFS := fstest.MapFS{
		"index.html": {Data: []byte("<p>ssh {{.SSHHost}}</p>")},
	}
	cfg := config.WebConfig{Host: "127.0.0.1", Port: "0", SSHDisplayHost: "play.example -p 2222", Env: "production"}

	srv := NewServer(cfg, board, feed, logger, webFS)
	ts := httptest.NewServer(srv.Handler())

	ctx, cancel := context.WithCancel(context.Background())
	go feed.Run(ctx)
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})

	return &testEnv{server: ts, board: board, feed: feed}
}

func (e *testEnv) submit(t *testing.T, player string, points int) (string, error) {
	t.Helper()
	c := score.NewClient(e.server.URL, time.Second, log.New(io.Discard))
	return c.Submit(context.Background(), score.Request{Player: player, ScoreAmount: points, TransactionAmount: 1})
}

func TestSubmitScoreRecordsAndReturnsHash(t *testing.T) {
	env := newTestEnv(t)

	hash, err := env.submit(t, alice, 230)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "0x"))
	assert.Len(t, hash, 66)

	top := env.board.Top(10)
	require.Len(t, top, 1)
	assert.Equal(t, alice, top[0].Player)
	assert.Equal(t, 230, top[0].Score)
	assert.Equal(t, hash, top[0].TransactionHash)
}

func TestSubmitScoreValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", `{`, "Invalid request body"},
		{"unknown field", `{"player":"` + alice + `","scoreAmount":1,"transactionAmount":1,"cheat":true}`, "Invalid request body"},
		{"bad player", `{"player":"neo","scoreAmount":1,"transactionAmount":1}`, "Invalid player address"},
		{"negative score", `{"player":"` + alice + `","scoreAmount":-5,"transactionAmount":1}`, "Score must be a non-negative integer"},
		{"no transactions", `{"player":"` + alice + `","scoreAmount":5,"transactionAmount":0}`, "Transaction amount must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(env.server.URL+score.SubmitPath, "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var out score.Response
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
			assert.Equal(t, tt.want, out.Error)
			assert.Empty(t, out.TransactionHash)
		})
	}

	players, submissions := env.board.Stats()
	assert.Zero(t, players)
	assert.Zero(t, submissions)
}

func TestRejectionReachesScoreClient(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.submit(t, "0x123", 10)

	var rejected *score.RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, http.StatusBadRequest, rejected.Status)
	assert.Equal(t, "Invalid player address", rejected.Message)
}

func TestLeaderboard(t *testing.T) {
	env := newTestEnv(t)
	for _, s := range []struct {
		player string
		points int
	}{{alice, 100}, {bob, 300}, {alice, 50}} {
		_, err := env.submit(t, s.player, s.points)
		require.NoError(t, err)
	}

	resp, err := http.Get(env.server.URL + "/api/leaderboard?limit=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out LeaderboardResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Entries, 1)
	assert.Equal(t, bob, out.Entries[0].Player)
	assert.Equal(t, 2, out.Players)
	assert.Equal(t, 3, out.Submissions)

	assert.Equal(t, 100, env.board.Top(-1)[1].Score, "lower scores do not replace a best")
}

func TestLeaderboardRejectsBadLimit(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/api/leaderboard?limit=zero")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "ok", out.Status)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestIndexPage(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "ssh play.example -p 2222")

	resp, err = http.Get(env.server.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubmitScoreMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + score.SubmitPath)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestFeedStreamsSubmissions(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.submit(t, bob, 40)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws/leaderboard"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var snapshot FeedMessage
	require.NoError(t, conn.ReadJSON(&snapshot))
	assert.Equal(t, MsgSnapshot, snapshot.Type)
	require.Len(t, snapshot.Entries, 1)
	assert.Equal(t, bob, snapshot.Entries[0].Player)

	require.Eventually(t, func() bool { return env.feed.Watchers() == 1 }, time.Second, 5*time.Millisecond)

	hash, err := env.submit(t, alice, 70)
	require.NoError(t, err)

	var update FeedMessage
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, MsgScore, update.Type)
	require.NotNil(t, update.Entry)
	assert.Equal(t, alice, update.Entry.Player)
	assert.Equal(t, 70, update.Entry.Score)
	assert.Equal(t, hash, update.Entry.TransactionHash)
}

func TestFeedClosesWatchersOnShutdown(t *testing.T) {
	logger := log.New(io.Discard)
	board := NewBoard()
	feed := NewFeed(logger)
	srv := NewServer(config.WebConfig{}, board, feed, logger, fstest.MapFS{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- feed.Run(ctx) }()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/leaderboard", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var snapshot FeedMessage
	require.NoError(t, conn.ReadJSON(&snapshot))
	require.Eventually(t, func() bool { return feed.Watchers() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	require.Eventually(t, func() bool { return feed.Watchers() == 0 }, time.Second, 5*time.Millisecond)
}
