package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"airsense/internal/cache"
	"airsense/internal/config"
	"airsense/internal/domain"
	"airsense/internal/publisher"
	"airsense/internal/scheduler"
	"airsense/internal/service"
	"airsense/internal/source/fetch"
	"airsense/internal/source/gdelt"
	"airsense/internal/source/openaq"
	"airsense/internal/source/serpapi"
	"airsense/internal/source/waqi"
	"airsense/internal/storage/postgres"
)

type flags struct {
	configPath  string
	jobs        string
	category    string
	refresh     bool
	clear       bool
	maxPerQuery int
	query       string
	max         int
	watch       bool
}

func main() {
	var f flags
	flag.StringVar(&f.configPath, "config", "config.yaml", "path to config file")
	flag.StringVar(&f.jobs, "job", "", "comma-separated jobs to run (openaq,waqi,products,news); defaults to sync.jobs")
	flag.StringVar(&f.category, "category", "", "products: only this product type")
	flag.BoolVar(&f.refresh, "refresh", false, "products: rewrite existing products")
	flag.BoolVar(&f.clear, "clear", false, "products: delete all products first")
	flag.IntVar(&f.maxPerQuery, "max-per-query", 0, "products: results per search query")
	flag.StringVar(&f.query, "query", "", "news: search query")
	flag.IntVar(&f.max, "max", 0, "news: max articles")
	flag.BoolVar(&f.watch, "watch", false, "keep running on sync.interval")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(f.configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = setupLogger(cfg.LogLevel)

	jobNames := cfg.Sync.Jobs
	if f.jobs != "" {
		jobNames = splitJobs(f.jobs)
	}
	for _, name := range jobNames {
		if !config.ValidJob(name) {
			logger.Error("unknown job", "job", name)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	var pub service.Publisher
	if cfg.RabbitMQ.Enabled {
		rmq, err := publisher.NewRabbitMQ(publisher.Config{
			URL:           cfg.RabbitMQ.URL,
			Exchange:      cfg.RabbitMQ.Exchange,
			RoutingPrefix: cfg.RabbitMQ.RoutingPrefix,
			QueueName:     cfg.RabbitMQ.QueueName,
			BindingKey:    cfg.RabbitMQ.BindingKey,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rmq.Close()
		pub = rmq
	}

	var newsCache service.NewsCache
	if cfg.Redis.Enabled {
		rc, err := cache.Connect(ctx, cache.Config{URL: cfg.Redis.URL, TTL: cfg.Redis.TTL})
		if err != nil {
			logger.Warn("news cache disabled", "error", err)
		} else {
			defer rc.Close()
			newsCache = rc
		}
	}

	st := stores{
		cities:    postgres.NewCityStore(db),
		stations:  postgres.NewStationStore(db),
		readings:  postgres.NewReadingStore(db),
		products:  postgres.NewProductStore(db),
		articles:  postgres.NewArticleStore(db),
		syncState: postgres.NewSyncStateStore(db),
		txManager: postgres.NewTransactionManager(db),
	}

	client := fetch.NewClient(fetch.Config{
		Timeout:        cfg.HTTP.Timeout,
		MaxAttempts:    cfg.HTTP.Retry.MaxAttempts,
		InitialBackoff: cfg.HTTP.Retry.InitialBackoff,
		MaxBackoff:     cfg.HTTP.Retry.MaxBackoff,
	}, logger)

	jobs := make([]scheduler.Job, 0, len(jobNames))
	for _, name := range jobNames {
		job, err := buildJob(name, cfg, f, client, st, pub, newsCache, logger)
		if err != nil {
			logger.Error("failed to build job", "job", name, "error", err)
			os.Exit(1)
		}
		jobs = append(jobs, job)
	}

	sched := scheduler.NewScheduler(jobs, cfg.Sync.Interval, cfg.Sync.RunTimeout, logger)

	if !f.watch {
		if failed := sched.RunOnce(ctx); failed > 0 {
			logger.Warn("some jobs failed", "failed", failed, "total", len(jobs))
		}
		return
	}

	logger.Info("starting airsense syncer", "jobs", jobNames, "interval", cfg.Sync.Interval)
	if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

type stores struct {
	cities    *postgres.CityStore
	stations  *postgres.StationStore
	readings  *postgres.ReadingStore
	products  *postgres.ProductStore
	articles  *postgres.ArticleStore
	syncState *postgres.SyncStateStore
	txManager *postgres.TransactionManager
}

func buildJob(
	name string,
	cfg *config.Config,
	f flags,
	client *fetch.Client,
	st stores,
	pub service.Publisher,
	newsCache service.NewsCache,
	logger *slog.Logger,
) (scheduler.Job, error) {
	switch name {
	case config.JobOpenAQ:
		src := openaq.New(openaq.Config{
			BaseURL: cfg.OpenAQ.BaseURL,
			Country: cfg.OpenAQ.Country,
			Limit:   cfg.OpenAQ.Limit,
			APIKey:  cfg.OpenAQ.APIKey,
		}, client, logger)
		svc := service.NewReadingSync(src, st.cities, st.stations, st.readings, st.syncState, st.txManager, pub, logger)
		return scheduler.Job{Name: name, Run: svc.Sync}, nil

	case config.JobWAQI:
		if cfg.WAQI.Token == "" {
			return scheduler.Job{}, errors.New("waqi.token is required")
		}
		b := cfg.WAQI.Bounds
		src := waqi.New(waqi.Config{
			BaseURL: cfg.WAQI.BaseURL,
			Token:   cfg.WAQI.Token,
			Bounds:  waqi.Bounds{MinLat: b.MinLat, MinLon: b.MinLon, MaxLat: b.MaxLat, MaxLon: b.MaxLon},
		}, client, logger)
		svc := service.NewReadingSync(src, st.cities, st.stations, st.readings, st.syncState, st.txManager, pub, logger)
		return scheduler.Job{Name: name, Run: svc.Sync}, nil

	case config.JobProducts:
		if cfg.SerpAPI.APIKey == "" {
			return scheduler.Job{}, errors.New("serpapi.api_key is required")
		}
		src := serpapi.New(serpapi.Config{
			BaseURL:  cfg.SerpAPI.BaseURL,
			APIKey:   cfg.SerpAPI.APIKey,
			Engine:   cfg.SerpAPI.Engine,
			Domain:   cfg.SerpAPI.Domain,
			Country:  cfg.SerpAPI.Country,
			Language: cfg.SerpAPI.Language,
		}, client, logger)
		svc := service.NewProductSync(src, st.products, st.syncState, pub, logger)

		opts := service.ProductOptions{
			Category:    domain.ProductType(f.category),
			Refresh:     f.refresh,
			Clear:       f.clear,
			MaxPerQuery: cfg.SerpAPI.MaxPerQuery,
		}
		if f.maxPerQuery > 0 {
			opts.MaxPerQuery = f.maxPerQuery
		}
		if opts.Category != "" && !opts.Category.Valid() {
			return scheduler.Job{}, fmt.Errorf("unknown category %q", f.category)
		}
		return scheduler.Job{Name: name, Run: func(ctx context.Context) (*domain.SyncStats, error) {
			stats, err := svc.Sync(ctx, opts)
			// -clear applies to the first run only.
			opts.Clear = false
			return stats, err
		}}, nil

	case config.JobNews:
		src := gdelt.New(gdelt.Config{BaseURL: cfg.GDELT.BaseURL}, client, logger)
		svc := service.NewNewsSync(src, st.articles, st.syncState, newsCache, pub, logger)

		opts := service.NewsOptions{Query: cfg.GDELT.Query, Max: cfg.GDELT.MaxRecords}
		if f.query != "" {
			opts.Query = f.query
		}
		if f.max > 0 {
			opts.Max = f.max
		}
		return scheduler.Job{Name: name, Run: func(ctx context.Context) (*domain.SyncStats, error) {
			return svc.Sync(ctx, opts)
		}}, nil
	}
	return scheduler.Job{}, fmt.Errorf("unknown job %q", name)
}

func splitJobs(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
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

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
