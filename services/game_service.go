package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"winter-dragon/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GameIdentity resolves a game by its unique name.
type GameIdentity interface {
	// FetchOrCreate returns the game called name, creating it inside tx if needed.
	FetchOrCreate(ctx context.Context, tx *gorm.DB, name string) (*models.Game, error)
}

type GameService struct {
	DB     *gorm.DB
	logger *zap.Logger
}

func NewGameService(db *gorm.DB, logger *zap.Logger) *GameService {
	return &GameService{DB: db, logger: logger}
}

// FetchOrCreate is idempotent: concurrent callers racing on the same name
// both end up with the single stored row.
func (s *GameService) FetchOrCreate(ctx context.Context, tx *gorm.DB, name string) (*models.Game, error) {
	name = strings.TrimSpace(name)
	if err := validateGameName(name); err != nil {
		return nil, err
	}
	if tx == nil {
		tx = s.DB
	}
	tx = tx.WithContext(ctx)

	var game models.Game
	err := tx.Where("name = ?", name).First(&game).Error
	if err == nil {
		return &game, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("fetch game %q: %w", name, err)
	}

	game = models.Game{
		ID:   uuid.NewString(),
		Name: name,
		Slug: slug.Make(name),
	}
	if game.Slug == "" {
		game.Slug = game.ID
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&game)
	if res.Error != nil {
		return nil, fmt.Errorf("create game %q: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		// Lost the race; read the winner's row.
		if err := tx.Where("name = ?", name).First(&game).Error; err != nil {
			return nil, fmt.Errorf("fetch game %q: %w", name, err)
		}
		return &game, nil
	}

	s.logger.Info("game registered", zap.String("game", game.Name), zap.String("game_id", game.ID))
	return &game, nil
}

func validateGameName(name string) error {
	if strings.TrimSpace(name) == "" {
		return validationErrorf("game_name", "must not be empty")
	}
	return nil
}

// Lookup finds a game by slug or exact name without creating it.
func (s *GameService) Lookup(ctx context.Context, key string) (*models.Game, error) {
	var game models.Game
	err := s.DB.WithContext(ctx).
		Where("slug = ? OR name = ?", key, key).
		Order("created_at ASC").
		First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("game %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup game %q: %w", key, err)
	}
	return &game, nil
}
