package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"winter-dragon/metrics"
	"winter-dragon/models"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RecordResultRequest describes a finished match.
type RecordResultRequest struct {
	GameName         string        `json:"game_name" validate:"required"`
	Teams            [][]int64     `json:"teams" validate:"required,min=1,dive,min=1,dive,gt=0"`
	WinningTeamIdx   int           `json:"winning_team_idx" validate:"gte=0"`
	BracketFormat    string        `json:"bracket_format"`
	IndividualScores map[int64]int `json:"individual_scores,omitempty"`
	TeamScores       []int         `json:"team_scores,omitempty"`
	DurationSeconds  *int          `json:"duration_seconds,omitempty" validate:"omitempty,gte=0"`
}

// ResultService records finished matches and folds them into the derived
// statistics used by the next matchmaking call.
type ResultService struct {
	DB        *gorm.DB
	games     GameIdentity
	logger    *zap.Logger
	txOptions *sql.TxOptions
	now       func() time.Time
}

func NewResultService(db *gorm.DB, games GameIdentity, logger *zap.Logger, txOptions *sql.TxOptions) *ResultService {
	return &ResultService{
		DB:        db,
		games:     games,
		logger:    logger,
		txOptions: txOptions,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RecordMatchResult stores the match and updates every statistic it touches
// in one transaction. Nothing is written when any step fails.
func (s *ResultService) RecordMatchResult(ctx context.Context, req RecordResultRequest) (*models.GameMatch, error) {
	match, err := s.recordMatchResult(ctx, req)
	if err != nil {
		observeError("record_match_result", err)
		return nil, err
	}
	metrics.ResultsRecorded.Inc()
	return match, nil
}

func (s *ResultService) recordMatchResult(ctx context.Context, req RecordResultRequest) (*models.GameMatch, error) {
	if err := validateResult(req); err != nil {
		return nil, err
	}
	format := req.BracketFormat
	if format == "" {
		format = DefaultBracketFormat
	}

	var match *models.GameMatch
	err := transaction(ctx, s.DB, s.txOptions, func(tx *gorm.DB) error {
		game, err := s.games.FetchOrCreate(ctx, tx, req.GameName)
		if err != nil {
			return err
		}
		match, err = s.createMatchRows(tx, game.ID, format, req)
		if err != nil {
			return err
		}
		if err := s.updatePlayerStats(tx, game.ID, req); err != nil {
			return err
		}
		if err := s.updateSynergy(tx, game.ID, req); err != nil {
			return err
		}
		return s.updateCompositions(tx, game.ID, req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("match result recorded",
		zap.String("match_id", match.ID),
		zap.String("game", req.GameName),
		zap.String("format", format),
		zap.Int("teams", len(req.Teams)),
		zap.Int("winning_team", match.WinningTeamNumber),
	)
	return match, nil
}

func validateResult(req RecordResultRequest) error {
	if err := validateGameName(req.GameName); err != nil {
		return err
	}
	if len(req.Teams) == 0 {
		return validationErrorf("teams", "at least one team is required")
	}
	if req.WinningTeamIdx < 0 || req.WinningTeamIdx >= len(req.Teams) {
		return validationErrorf("winning_team_idx", "%d is out of range for %d teams", req.WinningTeamIdx, len(req.Teams))
	}
	if len(req.TeamScores) > len(req.Teams) {
		return validationErrorf("team_scores", "%d scores for %d teams", len(req.TeamScores), len(req.Teams))
	}
	var all []int64
	for i, team := range req.Teams {
		if len(team) == 0 {
			return validationErrorf("teams", "team %d is empty", i+1)
		}
		all = append(all, team...)
	}
	if dups := lo.FindDuplicates(all); len(dups) > 0 {
		return validationErrorf("teams", "players listed more than once: %v", dups)
	}
	for id := range req.IndividualScores {
		if !lo.Contains(all, id) {
			return validationErrorf("individual_scores", "player %d did not play in this match", id)
		}
	}
	return nil
}

func (s *ResultService) createMatchRows(tx *gorm.DB, gameID, format string, req RecordResultRequest) (*models.GameMatch, error) {
	match := &models.GameMatch{
		ID:                uuid.NewString(),
		GameID:            gameID,
		MatchDate:         s.now(),
		DurationSeconds:   req.DurationSeconds,
		WinningTeamNumber: req.WinningTeamIdx + 1,
		BracketFormat:     format,
	}
	if err := tx.Omit("Game", "Teams", "Players").Create(match).Error; err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}

	teams := make([]models.MatchTeam, len(req.Teams))
	var players []models.MatchPlayer
	for i, team := range req.Teams {
		won := i == req.WinningTeamIdx
		teams[i] = models.MatchTeam{
			MatchID:    match.ID,
			TeamNumber: i + 1,
			Won:        won,
		}
		if i < len(req.TeamScores) {
			teams[i].TeamScore = lo.ToPtr(req.TeamScores[i])
		}
		for _, id := range team {
			p := models.MatchPlayer{
				MatchID:    match.ID,
				UserID:     id,
				TeamNumber: i + 1,
				Won:        won,
			}
			if score, ok := req.IndividualScores[id]; ok {
				p.IndividualScore = lo.ToPtr(score)
			}
			players = append(players, p)
		}
	}
	if err := tx.Create(&teams).Error; err != nil {
		return nil, fmt.Errorf("create match teams: %w", err)
	}
	if err := tx.Create(&players).Error; err != nil {
		return nil, fmt.Errorf("create match players: %w", err)
	}
	match.Teams = teams
	match.Players = players
	return match, nil
}

func (s *ResultService) updatePlayerStats(tx *gorm.DB, gameID string, req RecordResultRequest) error {
	ids := lo.Flatten(req.Teams)
	var existing []models.PlayerGameStat
	if err := tx.Where("game_id = ? AND user_id IN ?", gameID, ids).Find(&existing).Error; err != nil {
		return fmt.Errorf("load player stats: %w", err)
	}
	byUser := lo.KeyBy(existing, func(st models.PlayerGameStat) int64 { return st.UserID })

	for i, team := range req.Teams {
		won := i == req.WinningTeamIdx
		for _, id := range team {
			st, found := byUser[id]
			if !found {
				st = models.PlayerGameStat{UserID: id, GameID: gameID, SkillRating: models.DefaultSkillRating}
			}

			st.TotalMatches++
			if won {
				st.TotalWins++
			} else {
				st.TotalLosses++
			}
			st.WinRate = ratio(st.TotalWins, st.TotalMatches)
			if score, ok := req.IndividualScores[id]; ok {
				st.AvgScore = runningAverage(st.AvgScore, st.TotalMatches, float64(score))
			}
			st.SkillRating += RatingDelta(won)

			var err error
			if found {
				err = tx.Save(&st).Error
			} else {
				err = tx.Create(&st).Error
			}
			if err != nil {
				return fmt.Errorf("save stats for player %d: %w", id, err)
			}
		}
	}
	return nil
}

func (s *ResultService) updateSynergy(tx *gorm.DB, gameID string, req RecordResultRequest) error {
	ids := lo.Flatten(req.Teams)
	var existing []models.PlayerSynergy
	if err := tx.Where("game_id = ? AND player1_id IN ? AND player2_id IN ?", gameID, ids, ids).
		Find(&existing).Error; err != nil {
		return fmt.Errorf("load synergy: %w", err)
	}

	rows := make(map[PlayerPair]*models.PlayerSynergy, len(existing))
	stored := make(map[PlayerPair]bool, len(existing))
	for i := range existing {
		pair := NewPlayerPair(existing[i].Player1ID, existing[i].Player2ID)
		rows[pair] = &existing[i]
		stored[pair] = true
	}
	row := func(a, b int64) *models.PlayerSynergy {
		pair := NewPlayerPair(a, b)
		r, ok := rows[pair]
		if !ok {
			r = &models.PlayerSynergy{Player1ID: pair.Low, Player2ID: pair.High, GameID: gameID}
			rows[pair] = r
		}
		return r
	}

	teamOf := make(map[int64]int, len(ids))
	for i, team := range req.Teams {
		for _, id := range team {
			teamOf[id] = i
		}
	}

	// Teammates
	for i, team := range req.Teams {
		won := i == req.WinningTeamIdx
		for a := 0; a < len(team); a++ {
			for b := a + 1; b < len(team); b++ {
				r := row(team[a], team[b])
				r.MatchesAsTeammates++
				if won {
					r.WinsAsTeammates++
				}
				r.TeammateSynergy = ratio(r.WinsAsTeammates, r.MatchesAsTeammates)
			}
		}
	}

	// Opponents, over every pair of teams
	for i := 0; i < len(req.Teams); i++ {
		for j := i + 1; j < len(req.Teams); j++ {
			for _, p := range req.Teams[i] {
				for _, q := range req.Teams[j] {
					r := row(p, q)
					r.MatchesAsOpponents++
					if teamOf[r.Player1ID] == req.WinningTeamIdx {
						r.Player1WinsVsPlayer2++
					}
					r.RivalryFactor = ratio(r.Player1WinsVsPlayer2, r.MatchesAsOpponents)
				}
			}
		}
	}

	pairs := lo.Keys(rows)
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Low != pairs[j].Low {
			return pairs[i].Low < pairs[j].Low
		}
		return pairs[i].High < pairs[j].High
	})
	for _, pair := range pairs {
		var err error
		if stored[pair] {
			err = tx.Save(rows[pair]).Error
		} else {
			err = tx.Create(rows[pair]).Error
		}
		if err != nil {
			return fmt.Errorf("save synergy %d/%d: %w", pair.Low, pair.High, err)
		}
	}
	return nil
}

func (s *ResultService) updateCompositions(tx *gorm.DB, gameID string, req RecordResultRequest) error {
	for i, team := range req.Teams {
		won := i == req.WinningTeamIdx
		comp, err := fetchOrCreateComposition(tx, gameID, team)
		if err != nil {
			return err
		}

		comp.TimesPlayed++
		if won {
			comp.Wins++
		} else {
			comp.Losses++
		}
		comp.WinRate = ratio(comp.Wins, comp.TimesPlayed)
		if i < len(req.TeamScores) {
			comp.AvgTeamScore = runningAverage(comp.AvgTeamScore, comp.TimesPlayed, float64(req.TeamScores[i]))
		}
		if err := tx.Omit("Players").Save(comp).Error; err != nil {
			return fmt.Errorf("save composition %s: %w", comp.ID, err)
		}
	}
	return nil
}

// CompositionKey is the canonical identity of a set of teammates.
func CompositionKey(players []int64) string {
	sorted := append([]int64(nil), players...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// fetchOrCreateComposition finds the composition whose member set equals
// players exactly, creating it with its member rows when it is new.
func fetchOrCreateComposition(tx *gorm.DB, gameID string, players []int64) (*models.TeamComposition, error) {
	key := CompositionKey(players)
	var comp models.TeamComposition
	err := tx.Where("game_id = ? AND player_key = ?", gameID, key).First(&comp).Error
	if err == nil {
		return &comp, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("fetch composition %s: %w", key, err)
	}

	comp = models.TeamComposition{
		ID:        uuid.NewString(),
		GameID:    gameID,
		PlayerKey: key,
	}
	if err := tx.Omit("Players").Create(&comp).Error; err != nil {
		return nil, fmt.Errorf("create composition %s: %w", key, err)
	}
	members := lo.Map(players, func(id int64, _ int) models.TeamCompositionPlayer {
		return models.TeamCompositionPlayer{CompositionID: comp.ID, UserID: id}
	})
	if err := tx.Create(&members).Error; err != nil {
		return nil, fmt.Errorf("create composition members %s: %w", key, err)
	}
	return &comp, nil
}
