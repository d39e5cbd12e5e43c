package services

import (
	"context"
	"math/rand"
	"testing"

	"winter-dragon/models"
	"winter-dragon/utils"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, _, err := utils.OpenDatabase("sqlite", ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type testEngine struct {
	db          *gorm.DB
	games       *GameService
	matchmaking *MatchmakingService
	results     *ResultService
	stats       *StatsService
}

func newTestEngine(t *testing.T, opts ...MatchmakingOption) *testEngine {
	t.Helper()
	db := newTestDB(t)
	logger := zap.NewNop()
	games := NewGameService(db, logger)
	opts = append([]MatchmakingOption{WithRand(rand.New(rand.NewSource(42)))}, opts...)
	return &testEngine{
		db:          db,
		games:       games,
		matchmaking: NewMatchmakingService(db, games, logger, opts...),
		results:     NewResultService(db, games, logger, nil),
		stats:       NewStatsService(db, logger),
	}
}

// seedStat stores a stats row directly, bypassing result recording.
func (e *testEngine) seedStat(t *testing.T, game string, userID int64, rating float64) {
	t.Helper()
	g, err := e.games.FetchOrCreate(context.Background(), nil, game)
	require.NoError(t, err)
	require.NoError(t, e.db.Create(&models.PlayerGameStat{
		UserID:      userID,
		GameID:      g.ID,
		SkillRating: rating,
	}).Error)
}

// seedSynergy stores a teammate synergy value for a pair.
func (e *testEngine) seedSynergy(t *testing.T, game string, a, b int64, synergy float64) {
	t.Helper()
	g, err := e.games.FetchOrCreate(context.Background(), nil, game)
	require.NoError(t, err)
	pair := NewPlayerPair(a, b)
	require.NoError(t, e.db.Create(&models.PlayerSynergy{
		Player1ID:       pair.Low,
		Player2ID:       pair.High,
		GameID:          g.ID,
		TeammateSynergy: synergy,
	}).Error)
}

func (e *testEngine) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Count(&n).Error)
	return n
}

func (e *testEngine) stat(t *testing.T, game string, userID int64) models.PlayerGameStat {
	t.Helper()
	g, err := e.games.Lookup(context.Background(), game)
	require.NoError(t, err)
	st, err := e.stats.PlayerStat(context.Background(), g.ID, userID)
	require.NoError(t, err)
	return *st
}

func (e *testEngine) synergy(t *testing.T, game string, a, b int64) models.PlayerSynergy {
	t.Helper()
	g, err := e.games.Lookup(context.Background(), game)
	require.NoError(t, err)
	pair := NewPlayerPair(a, b)
	var row models.PlayerSynergy
	require.NoError(t, e.db.Where("game_id = ? AND player1_id = ? AND player2_id = ?", g.ID, pair.Low, pair.High).
		First(&row).Error)
	return row
}
