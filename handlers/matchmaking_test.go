package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"winter-dragon/middleware"
	"winter-dragon/services"
	"winter-dragon/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testToken = "test-gateway-token"

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	db, txOptions, err := utils.OpenDatabase("sqlite", ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	logger := zap.NewNop()
	games := services.NewGameService(db, logger)
	h := NewMatchmakingHandler(
		services.NewMatchmakingService(db, games, logger, services.WithRand(rand.New(rand.NewSource(1)))),
		services.NewResultService(db, games, logger, txOptions),
		services.NewStatsService(db, logger),
		games,
		logger,
	)

	app := fiber.New()
	SetupPublicRoutes(app)
	app.Use(middleware.GatewayAuthMiddleware(testToken, logger))
	SetupMatchmakingRoutes(app, h)
	return app
}

func do(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testToken)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestCreateTeamsEndpoint(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, http.MethodPost, "/matchmaking/teams", map[string]interface{}{
		"game_name":  "chess",
		"player_ids": []int64{1, 2, 3, 4},
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "2v2", body["bracket_format"])
	assert.Equal(t, []interface{}{
		[]interface{}{1.0, 2.0},
		[]interface{}{3.0, 4.0},
	}, body["teams"])
}

func TestCreateTeamsEndpointErrors(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing game", map[string]interface{}{"player_ids": []int64{1, 2, 3, 4}}},
		{"wrong size", map[string]interface{}{"game_name": "chess", "player_ids": []int64{1, 2, 3}}},
		{"bad format", map[string]interface{}{"game_name": "chess", "player_ids": []int64{1, 2}, "bracket_format": "1x2"}},
		{"non-positive id", map[string]interface{}{"game_name": "chess", "player_ids": []int64{0, 2}, "bracket_format": "1v2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, app, http.MethodPost, "/matchmaking/teams", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestRecordResultAndReadBack(t *testing.T) {
	app := newTestApp(t)

	status, match := do(t, app, http.MethodPost, "/matchmaking/results", map[string]interface{}{
		"game_name":         "Winter Dragon",
		"teams":             [][]int64{{1, 2}, {3, 4}},
		"winning_team_idx":  1,
		"individual_scores": map[string]int{"3": 12},
		"team_scores":       []int{5, 9},
	})
	require.Equal(t, http.StatusCreated, status, match)
	assert.EqualValues(t, 2, match["winning_team_number"])
	id, _ := match["id"].(string)
	require.NotEmpty(t, id)

	status, body := do(t, app, http.MethodGet, "/matches/"+id, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["players"], 4)

	status, body = do(t, app, http.MethodGet, "/games/winter-dragon/players/3/stats", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1016, body["skill_rating"])
	assert.EqualValues(t, 12, body["avg_score"])

	status, body = do(t, app, http.MethodGet, "/games/winter-dragon/leaderboard?limit=2", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["count"])

	status, body = do(t, app, http.MethodGet, "/games/winter-dragon/players/1/synergy", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 3, body["count"])

	status, body = do(t, app, http.MethodGet, "/games/winter-dragon/compositions", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["count"])
}

func TestRecordResultEndpointErrors(t *testing.T) {
	app := newTestApp(t)

	status, _ := do(t, app, http.MethodPost, "/matchmaking/results", map[string]interface{}{
		"game_name":        "chess",
		"teams":            [][]int64{{1}, {2}},
		"winning_team_idx": 3,
	})
	assert.Equal(t, http.StatusBadRequest, status)

	req := httptest.NewRequest(http.MethodPost, "/matchmaking/results", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", testToken)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNotFoundAndBadParams(t *testing.T) {
	app := newTestApp(t)

	status, _ := do(t, app, http.MethodGet, "/games/unknown/leaderboard", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, app, http.MethodGet, "/matches/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, app, http.MethodGet, "/games/chess/players/abc/stats", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGatewayTokenRequired(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/games/chess/leaderboard", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/games/chess/leaderboard", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
