package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupPublicRoutes registers the routes served without gateway auth.
func SetupPublicRoutes(app *fiber.App) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

// SetupMatchmakingRoutes registers the matchmaking API. Callers attach the
// gateway middleware to router first.
func SetupMatchmakingRoutes(router fiber.Router, h *MatchmakingHandler) {
	router.Post("/matchmaking/teams", h.CreateTeams)
	router.Post("/matchmaking/results", h.RecordResult)
	router.Get("/matches/:id", h.GetMatch)

	games := router.Group("/games/:game")
	games.Get("/leaderboard", h.GetLeaderboard)
	games.Get("/compositions", h.GetCompositions)
	games.Get("/players/:user_id/stats", h.GetPlayerStats)
	games.Get("/players/:user_id/synergy", h.GetPlayerSynergy)
}
