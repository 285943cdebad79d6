package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	_ "github.com/lib/pq"

	"airsense/internal/api"
	"airsense/internal/cache"
	"airsense/internal/config"
	"airsense/internal/recommend"
	"airsense/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = setupLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	products := postgres.NewProductStore(db)
	deps := api.Deps{
		DB:          db,
		Products:    products,
		Recommender: recommend.New(products, logger),
		Cities:      postgres.NewCityStore(db),
		Readings:    postgres.NewReadingStore(db),
		Articles:    postgres.NewArticleStore(db),
	}

	if cfg.Redis.Enabled {
		rc, err := cache.Connect(ctx, cache.Config{URL: cfg.Redis.URL, TTL: cfg.Redis.TTL})
		if err != nil {
			logger.Warn("news cache disabled", "error", err)
		} else {
			defer rc.Close()
			deps.News = rc
		}
	}

	e := echo.New()
	server := api.NewServer(e, api.Config{
		Port:        cfg.Server.Port,
		UseHTTP2:    cfg.Server.UseHTTP2,
		CorsOrigins: cfg.Server.CorsOrigins,
	}, logger)
	api.NewHandler(deps, logger).Register(e)

	if err := server.Start(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}
