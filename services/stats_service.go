package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"winter-dragon/metrics"
	"winter-dragon/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// StatsService answers read queries over the derived statistics and keeps
// the derived ratio columns consistent with their counters.
type StatsService struct {
	DB     *gorm.DB
	logger *zap.Logger
}

func NewStatsService(db *gorm.DB, logger *zap.Logger) *StatsService {
	return &StatsService{DB: db, logger: logger}
}

// PlayerStat returns a player's stats for a game.
func (s *StatsService) PlayerStat(ctx context.Context, gameID string, userID int64) (*models.PlayerGameStat, error) {
	var st models.PlayerGameStat
	err := s.DB.WithContext(ctx).Where("game_id = ? AND user_id = ?", gameID, userID).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("stats for player %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch stats for player %d: %w", userID, err)
	}
	return &st, nil
}

// Leaderboard returns the highest rated players of a game.
func (s *StatsService) Leaderboard(ctx context.Context, gameID string, limit int) ([]models.PlayerGameStat, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}
	var stats []models.PlayerGameStat
	err := s.DB.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("skill_rating DESC").
		Order("total_wins DESC").
		Order("user_id ASC").
		Limit(limit).
		Find(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return stats, nil
}

// SynergyPartners returns every synergy row involving userID, strongest
// teammate synergy first.
func (s *StatsService) SynergyPartners(ctx context.Context, gameID string, userID int64) ([]models.PlayerSynergy, error) {
	var rows []models.PlayerSynergy
	err := s.DB.WithContext(ctx).
		Where("game_id = ? AND (player1_id = ? OR player2_id = ?)", gameID, userID, userID).
		Order("teammate_synergy DESC").
		Order("matches_as_teammates DESC").
		Order("player1_id ASC").
		Order("player2_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("synergy partners for %d: %w", userID, err)
	}
	return rows, nil
}

// Compositions lists a game's team compositions played at least minPlayed
// times, best win rate first.
func (s *StatsService) Compositions(ctx context.Context, gameID string, minPlayed int) ([]models.TeamComposition, error) {
	var comps []models.TeamComposition
	err := s.DB.WithContext(ctx).
		Preload("Players").
		Where("game_id = ? AND times_played >= ?", gameID, minPlayed).
		Order("win_rate DESC").
		Order("times_played DESC").
		Order("player_key ASC").
		Find(&comps).Error
	if err != nil {
		return nil, fmt.Errorf("compositions: %w", err)
	}
	return comps, nil
}

// Match returns a recorded match with its teams and players.
func (s *StatsService) Match(ctx context.Context, id string) (*models.GameMatch, error) {
	var match models.GameMatch
	err := s.DB.WithContext(ctx).
		Preload("Game").
		Preload("Teams", func(db *gorm.DB) *gorm.DB { return db.Order("team_number ASC") }).
		Preload("Players", func(db *gorm.DB) *gorm.DB { return db.Order("team_number ASC, user_id ASC") }).
		First(&match, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("match %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch match %s: %w", id, err)
	}
	return &match, nil
}

const ratioTolerance = 1e-9

func drifted(stored, want float64) bool {
	return math.Abs(stored-want) > ratioTolerance
}

// RecomputeDerived rewrites every win rate, teammate synergy and rivalry
// factor that no longer matches its counters. It returns the number of rows
// repaired.
func (s *StatsService) RecomputeDerived(ctx context.Context) (int, error) {
	repaired := 0
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stats []models.PlayerGameStat
		if err := tx.Find(&stats).Error; err != nil {
			return fmt.Errorf("load player stats: %w", err)
		}
		for i := range stats {
			st := &stats[i]
			want := ratio(st.TotalWins, st.TotalMatches)
			if st.TotalMatches == st.TotalWins+st.TotalLosses && !drifted(st.WinRate, want) {
				continue
			}
			st.TotalMatches = st.TotalWins + st.TotalLosses
			st.WinRate = ratio(st.TotalWins, st.TotalMatches)
			if err := tx.Save(st).Error; err != nil {
				return fmt.Errorf("repair stats for player %d: %w", st.UserID, err)
			}
			repaired++
		}

		var synergies []models.PlayerSynergy
		if err := tx.Find(&synergies).Error; err != nil {
			return fmt.Errorf("load synergy: %w", err)
		}
		for i := range synergies {
			r := &synergies[i]
			team := ratio(r.WinsAsTeammates, r.MatchesAsTeammates)
			rival := ratio(r.Player1WinsVsPlayer2, r.MatchesAsOpponents)
			if !drifted(r.TeammateSynergy, team) && !drifted(r.RivalryFactor, rival) {
				continue
			}
			r.TeammateSynergy, r.RivalryFactor = team, rival
			if err := tx.Save(r).Error; err != nil {
				return fmt.Errorf("repair synergy %d/%d: %w", r.Player1ID, r.Player2ID, err)
			}
			repaired++
		}

		var comps []models.TeamComposition
		if err := tx.Find(&comps).Error; err != nil {
			return fmt.Errorf("load compositions: %w", err)
		}
		for i := range comps {
			c := &comps[i]
			want := ratio(c.Wins, c.TimesPlayed)
			if c.TimesPlayed == c.Wins+c.Losses && !drifted(c.WinRate, want) {
				continue
			}
			c.TimesPlayed = c.Wins + c.Losses
			c.WinRate = ratio(c.Wins, c.TimesPlayed)
			if err := tx.Omit("Players").Save(c).Error; err != nil {
				return fmt.Errorf("repair composition %s: %w", c.ID, err)
			}
			repaired++
		}
		return nil
	})
	if err != nil {
		observeError("recompute_derived", err)
		return 0, err
	}
	metrics.StatsRepaired.Add(float64(repaired))
	return repaired, nil
}
