package handlers

import (
	"errors"
	"strconv"

	"winter-dragon/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// MatchmakingHandler exposes the matchmaking engine over HTTP.
type MatchmakingHandler struct {
	Matchmaking *services.MatchmakingService
	Results     *services.ResultService
	Stats       *services.StatsService
	Games       *services.GameService

	validate *validator.Validate
	logger   *zap.Logger
}

func NewMatchmakingHandler(mm *services.MatchmakingService, results *services.ResultService,
	stats *services.StatsService, games *services.GameService, logger *zap.Logger) *MatchmakingHandler {
	return &MatchmakingHandler{
		Matchmaking: mm,
		Results:     results,
		Stats:       stats,
		Games:       games,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger,
	}
}

func (h *MatchmakingHandler) CreateTeams(c *fiber.Ctx) error {
	var req services.CreateTeamsRequest
	if err := h.parse(c, &req); err != nil {
		return h.respondError(c, err)
	}

	teams, err := h.Matchmaking.CreateBalancedTeams(c.UserContext(), req)
	if err != nil {
		return h.respondError(c, err)
	}

	format := req.BracketFormat
	if format == "" {
		format = services.DefaultBracketFormat
	}
	return c.JSON(fiber.Map{
		"game_name":      req.GameName,
		"bracket_format": format,
		"teams":          teams,
	})
}

func (h *MatchmakingHandler) RecordResult(c *fiber.Ctx) error {
	var req services.RecordResultRequest
	if err := h.parse(c, &req); err != nil {
		return h.respondError(c, err)
	}

	match, err := h.Results.RecordMatchResult(c.UserContext(), req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(match)
}

func (h *MatchmakingHandler) GetMatch(c *fiber.Ctx) error {
	match, err := h.Stats.Match(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(match)
}

func (h *MatchmakingHandler) GetLeaderboard(c *fiber.Ctx) error {
	game, err := h.Games.Lookup(c.UserContext(), c.Params("game"))
	if err != nil {
		return h.respondError(c, err)
	}
	entries, err := h.Stats.Leaderboard(c.UserContext(), game.ID, c.QueryInt("limit", services.DefaultLeaderboardLimit))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"game":    game,
		"entries": entries,
		"count":   len(entries),
	})
}

func (h *MatchmakingHandler) GetCompositions(c *fiber.Ctx) error {
	game, err := h.Games.Lookup(c.UserContext(), c.Params("game"))
	if err != nil {
		return h.respondError(c, err)
	}
	comps, err := h.Stats.Compositions(c.UserContext(), game.ID, c.QueryInt("min_played", 1))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"game":         game,
		"compositions": comps,
		"count":        len(comps),
	})
}

func (h *MatchmakingHandler) GetPlayerStats(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("user_id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id must be an integer"})
	}
	game, err := h.Games.Lookup(c.UserContext(), c.Params("game"))
	if err != nil {
		return h.respondError(c, err)
	}
	st, err := h.Stats.PlayerStat(c.UserContext(), game.ID, userID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(st)
}

func (h *MatchmakingHandler) GetPlayerSynergy(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("user_id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id must be an integer"})
	}
	game, err := h.Games.Lookup(c.UserContext(), c.Params("game"))
	if err != nil {
		return h.respondError(c, err)
	}
	rows, err := h.Stats.SynergyPartners(c.UserContext(), game.ID, userID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"user_id":  userID,
		"partners": rows,
		"count":    len(rows),
	})
}

// parse decodes and validates a JSON body.
func (h *MatchmakingHandler) parse(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return &services.ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	if err := h.validate.Struct(out); err != nil {
		return &services.ValidationError{Field: "body", Message: err.Error()}
	}
	return nil
}

func (h *MatchmakingHandler) respondError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	var ferr *services.FormatError
	switch {
	case errors.As(err, &verr), errors.As(err, &ferr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	default:
		h.logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
