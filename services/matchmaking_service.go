package services

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"winter-dragon/metrics"
	"winter-dragon/models"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateTeamsRequest asks for a balanced split of a roster.
type CreateTeamsRequest struct {
	GameName      string  `json:"game_name" validate:"required"`
	PlayerIDs     []int64 `json:"player_ids" validate:"required,min=1,dive,gt=0"`
	BracketFormat string  `json:"bracket_format"`             // defaults to "2v2"
	AvoidSynergy  *bool   `json:"avoid_synergy,omitempty"`    // defaults to true
}

func (r CreateTeamsRequest) avoidSynergy() bool {
	return r.AvoidSynergy == nil || *r.AvoidSynergy
}

// MatchmakingService balances rosters into teams by skill while keeping
// players with a strong winning history together apart.
type MatchmakingService struct {
	DB        *gorm.DB
	games     GameIdentity
	logger    *zap.Logger
	evaluator Evaluator
	iters     int
	txOptions *sql.TxOptions

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// MatchmakingOption customises a MatchmakingService.
type MatchmakingOption func(*MatchmakingService)

// WithEvaluator overrides the balance weights.
func WithEvaluator(e Evaluator) MatchmakingOption {
	return func(s *MatchmakingService) { s.evaluator = e }
}

// WithIterations sets the randomized search budget.
func WithIterations(n int) MatchmakingOption {
	return func(s *MatchmakingService) {
		if n > 0 {
			s.iters = n
		}
	}
}

// WithRand makes randomized search reproducible.
func WithRand(r *rand.Rand) MatchmakingOption {
	return func(s *MatchmakingService) { s.rng = r }
}

// WithTxOptions sets the isolation used for the service's transactions.
func WithTxOptions(opts *sql.TxOptions) MatchmakingOption {
	return func(s *MatchmakingService) { s.txOptions = opts }
}

func NewMatchmakingService(db *gorm.DB, games GameIdentity, logger *zap.Logger, opts ...MatchmakingOption) *MatchmakingService {
	s := &MatchmakingService{
		DB:        db,
		games:     games,
		logger:    logger,
		evaluator: NewEvaluator(),
		iters:     DefaultIterations,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

// CreateBalancedTeams returns the roster split into teams, team 1 first.
// Roster and format problems are reported before the database is touched.
func (s *MatchmakingService) CreateBalancedTeams(ctx context.Context, req CreateTeamsRequest) ([][]int64, error) {
	teams, err := s.createBalancedTeams(ctx, req)
	if err != nil {
		observeError("create_balanced_teams", err)
		return nil, err
	}
	return teams, nil
}

func (s *MatchmakingService) createBalancedTeams(ctx context.Context, req CreateTeamsRequest) ([][]int64, error) {
	format := req.BracketFormat
	if format == "" {
		format = DefaultBracketFormat
	}
	bracket, err := ParseBracketFormat(format, len(req.PlayerIDs))
	if err != nil {
		return nil, err
	}
	if err := validateRoster(req.GameName, req.PlayerIDs, bracket); err != nil {
		return nil, err
	}

	var (
		profiles []PlayerProfile
		synergy  = SynergyMap{}
	)
	err = transaction(ctx, s.DB, s.txOptions, func(tx *gorm.DB) error {
		game, err := s.games.FetchOrCreate(ctx, tx, req.GameName)
		if err != nil {
			return err
		}
		profiles, err = LoadPlayerProfiles(ctx, tx, game.ID, req.PlayerIDs)
		if err != nil {
			return err
		}
		if req.avoidSynergy() {
			synergy, err = LoadSynergyMap(ctx, tx, game.ID, req.PlayerIDs)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	partitioner := Partitioner{Bracket: bracket, Iterations: s.iters}
	mode := partitioner.Mode(len(profiles))
	start := time.Now()
	best, score, evaluated := s.search(partitioner, profiles, synergy)
	metrics.SearchDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	metrics.CandidatesEvaluated.WithLabelValues(mode).Add(float64(evaluated))
	metrics.TeamsCreated.WithLabelValues(mode).Inc()

	teams := make([][]int64, len(best))
	for t, members := range best {
		teams[t] = make([]int64, len(members))
		for i, idx := range members {
			teams[t][i] = profiles[idx].UserID
		}
	}

	s.logger.Info("balanced teams created",
		zap.String("game", req.GameName),
		zap.String("format", bracket.Format),
		zap.Int("players", len(req.PlayerIDs)),
		zap.String("mode", mode),
		zap.Int("candidates", evaluated),
		zap.Float64("score", score),
		zap.Bool("avoid_synergy", req.avoidSynergy()),
	)
	return teams, nil
}

// search scores every candidate the partitioner yields and keeps the first
// one with the lowest score.
func (s *MatchmakingService) search(p Partitioner, profiles []PlayerProfile, synergy SynergyMap) (Partition, float64, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		best      Partition
		bestScore float64
		evaluated int
	)
	src := p.Source(len(profiles), s.rng)
	for part, ok := src.Next(); ok; part, ok = src.Next() {
		score := s.evaluator.Score(candidatesFor(profiles, part), synergy)
		evaluated++
		if best == nil || score < bestScore {
			best, bestScore = part, score
		}
	}
	return best, bestScore, evaluated
}

func candidatesFor(profiles []PlayerProfile, part Partition) []TeamCandidate {
	teams := make([]TeamCandidate, len(part))
	for t, members := range part {
		players := make([]PlayerProfile, len(members))
		for i, idx := range members {
			players[i] = profiles[idx]
		}
		teams[t] = NewTeamCandidate(players)
	}
	return teams
}

func validateRoster(gameName string, ids []int64, bracket Bracket) error {
	if err := validateGameName(gameName); err != nil {
		return err
	}
	if len(ids) == 0 {
		return validationErrorf("player_ids", "roster is empty")
	}
	if err := bracket.Validate(len(ids)); err != nil {
		return err
	}
	if dups := lo.FindDuplicates(ids); len(dups) > 0 {
		return validationErrorf("player_ids", "players listed more than once: %v", dups)
	}
	return nil
}

// LoadPlayerProfiles returns one profile per id in input order. Players
// without stats for the game get the default profile; nothing is written.
func LoadPlayerProfiles(ctx context.Context, tx *gorm.DB, gameID string, userIDs []int64) ([]PlayerProfile, error) {
	var stats []models.PlayerGameStat
	if err := tx.WithContext(ctx).
		Where("game_id = ? AND user_id IN ?", gameID, userIDs).
		Find(&stats).Error; err != nil {
		return nil, fmt.Errorf("load player stats: %w", err)
	}
	byUser := lo.KeyBy(stats, func(st models.PlayerGameStat) int64 { return st.UserID })

	profiles := make([]PlayerProfile, len(userIDs))
	for i, id := range userIDs {
		st, ok := byUser[id]
		if !ok {
			profiles[i] = PlayerProfile{UserID: id, SkillRating: models.DefaultSkillRating}
			continue
		}
		profiles[i] = PlayerProfile{
			UserID:       id,
			SkillRating:  st.SkillRating,
			WinRate:      st.WinRate,
			AvgScore:     st.AvgScore,
			TotalMatches: st.TotalMatches,
		}
	}
	return profiles, nil
}

// LoadSynergyMap returns the stored teammate synergy for every pair of the
// given players that has history in the game.
func LoadSynergyMap(ctx context.Context, tx *gorm.DB, gameID string, userIDs []int64) (SynergyMap, error) {
	var rows []models.PlayerSynergy
	if err := tx.WithContext(ctx).
		Where("game_id = ? AND player1_id IN ? AND player2_id IN ?", gameID, userIDs, userIDs).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load synergy: %w", err)
	}
	m := make(SynergyMap, len(rows))
	for _, r := range rows {
		m[NewPlayerPair(r.Player1ID, r.Player2ID)] = r.TeammateSynergy
	}
	return m, nil
}
