package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/exchangebot/internal/models"
	"github.com/m3rciful/exchangebot/internal/storage/memory"
)

const testToken = "secret"

func newTestServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	s := New(store, ":0", testToken)
	ts := httptest.NewServer(s.http.Handler)
	t.Cleanup(ts.Close)
	return ts, store
}

func get(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func seedGame(t *testing.T, store *memory.Store, chatTg int64, finish bool) *models.Game {
	t.Helper()
	ctx := context.Background()
	chat, err := store.CreateChat(ctx, chatTg)
	require.NoError(t, err)
	g, err := store.CreateGame(ctx, chat.ID, 1000_00, 3)
	require.NoError(t, err)
	if finish {
		require.NoError(t, store.FinishGame(ctx, g.ID, nil))
	}
	return g
}

func TestAuthRequired(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := get(t, ts.URL+"/api/games", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = get(t, ts.URL+"/api/games", "wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = get(t, ts.URL+"/api/games", testToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListGamesWithStateFilter(t *testing.T) {
	ts, store := newTestServer(t)
	seedGame(t, store, 100, true)
	seedGame(t, store, 101, false)

	resp := get(t, ts.URL+"/api/games?state=finished", testToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var games []models.Game
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&games))
	require.Len(t, games, 1)
	assert.Equal(t, models.GameStateFinished, games[0].State)

	resp = get(t, ts.URL+"/api/games?state=bogus", testToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListGamesByChat(t *testing.T) {
	ts, store := newTestServer(t)
	ctx := context.Background()

	chat, err := store.CreateChat(ctx, 100)
	require.NoError(t, err)
	g1, err := store.CreateGame(ctx, chat.ID, 1000_00, 3)
	require.NoError(t, err)
	require.NoError(t, store.FinishGame(ctx, g1.ID, nil))
	g2, err := store.CreateGame(ctx, chat.ID, 1000_00, 3)
	require.NoError(t, err)
	seedGame(t, store, 101, false) // other chat, must not appear

	resp := get(t, ts.URL+"/api/games?chat_id="+strconv.FormatInt(chat.ID, 10), testToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var games []models.Game
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&games))
	require.Len(t, games, 2)
	assert.Equal(t, g2.ID, games[0].ID)
	assert.Equal(t, g1.ID, games[1].ID)

	resp = get(t, ts.URL+"/api/games?chat_id=abc", testToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGameDetail(t *testing.T) {
	ts, store := newTestServer(t)
	ctx := context.Background()
	g := seedGame(t, store, 100, false)

	u, err := store.UpsertUser(ctx, 11, "Alice", "", "alice")
	require.NoError(t, err)
	_, err = store.CreatePlayer(ctx, g.ID, u.ID, models.PlayerStateGaming, 1000_00)
	require.NoError(t, err)

	resp := get(t, ts.URL+"/api/games/"+strconv.FormatInt(g.ID, 10), testToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var detail gameDetailResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
	assert.Equal(t, g.ID, detail.Game.ID)
	require.Len(t, detail.Players, 1)
	assert.Equal(t, "Alice", detail.Players[0].FirstName)
}

func TestGameDetailNotFound(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := get(t, ts.URL+"/api/games/9999", testToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = get(t, ts.URL+"/api/games/abc", testToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTopWinners(t *testing.T) {
	ts, store := newTestServer(t)
	ctx := context.Background()

	u, err := store.UpsertUser(ctx, 11, "Alice", "", "alice")
	require.NoError(t, err)
	chat, err := store.CreateChat(ctx, 100)
	require.NoError(t, err)
	g, err := store.CreateGame(ctx, chat.ID, 1000_00, 3)
	require.NoError(t, err)
	require.NoError(t, store.FinishGame(ctx, g.ID, &u.ID))

	resp := get(t, ts.URL+"/api/stats/winners", testToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats []models.WinnerStat
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	require.Len(t, stats, 1)
	assert.Equal(t, u.ID, stats[0].UserID)
	assert.Equal(t, 1, stats[0].Wins)
}
