package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"winter-dragon/config"
	"winter-dragon/discord"
	"winter-dragon/handlers"
	"winter-dragon/middleware"
	"winter-dragon/services"
	"winter-dragon/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := utils.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	db, txOptions, err := utils.OpenDatabase(cfg.Database.Driver, cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gameService := services.NewGameService(db, logger)
	matchmakingService := services.NewMatchmakingService(db, gameService, logger,
		services.WithEvaluator(services.Evaluator{
			SkillWeight:   cfg.Matchmaking.SkillWeight,
			SynergyWeight: cfg.Matchmaking.SynergyWeight,
		}),
		services.WithIterations(cfg.Matchmaking.Iterations),
		services.WithTxOptions(txOptions),
	)
	resultService := services.NewResultService(db, gameService, logger, txOptions)
	statsService := services.NewStatsService(db, logger)

	if cfg.StatsSweepInterval > 0 {
		sched, err := statsService.StartStatsSweep(ctx, cfg.StatsSweepInterval)
		if err != nil {
			logger.Fatal("failed to start stats sweep", zap.Error(err))
		}
		defer func() { _ = sched.Shutdown() }()
	}

	app := fiber.New(fiber.Config{
		AppName:               "winter-dragon",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID",
		MaxAge:       86400,
	}))
	app.Use(middleware.RequestLogger(logger))

	handlers.SetupPublicRoutes(app)

	// Everything below requires the Gateway token.
	app.Use(middleware.GatewayAuthMiddleware(cfg.GatewayToken, logger))
	handlers.SetupMatchmakingRoutes(app, handlers.NewMatchmakingHandler(
		matchmakingService, resultService, statsService, gameService, logger))

	if cfg.Discord.Token != "" {
		bot, err := discord.NewBot(cfg.Discord.Token, cfg.Discord.GuildID, matchmakingService, resultService, logger)
		if err != nil {
			logger.Fatal("failed to create discord bot", zap.Error(err))
		}
		if err := bot.Start(); err != nil {
			logger.Fatal("failed to start discord bot", zap.Error(err))
		}
		defer func() {
			if err := bot.Stop(); err != nil {
				logger.Warn("discord bot shutdown", zap.Error(err))
			}
		}()
	}

	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	logger.Info("server running",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("env", cfg.Environment),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("allowed_origins", cfg.AllowedOrigins),
		zap.Bool("discord", cfg.Discord.Token != ""),
	)

	<-ctx.Done()
	logger.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
}
