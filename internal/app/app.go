package app

import (
	"context"
	"fmt"

	"github.com/david/campus-events/internal/ai"
	"github.com/david/campus-events/internal/api"
	"github.com/david/campus-events/internal/colleges"
	"github.com/david/campus-events/internal/config"
	"github.com/david/campus-events/internal/db"
	"github.com/david/campus-events/internal/ingest"
	"github.com/david/campus-events/internal/metrics"
	"github.com/david/campus-events/internal/reviews"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// App owns every long-lived collaborator built from one Config.
type App struct {
	Config  *config.Config
	Log     logrus.FieldLogger
	Pool    *pgxpool.Pool
	Store   *db.Store
	Metrics *metrics.Metrics
	Redis   *redis.Client

	Coordinator *ingest.Coordinator
	Colleges    *colleges.Merger
	Summarizer  *reviews.Summarizer
}

// New connects to Postgres (and Redis when configured) and wires the three
// functions. Redis is optional: a failed dial is logged and search runs
// uncached.
func New(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	pool, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Log:     log,
		Pool:    pool,
		Store:   db.NewStore(pool),
		Metrics: metrics.New(),
	}

	if cfg.Redis.URL != "" {
		client, err := colleges.DialRedis(ctx, cfg.Redis.URL)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, directory cache disabled")
		} else {
			a.Redis = client
		}
	}

	registry, err := ingest.LoadRegistry(cfg.Ingest.RegistryPath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load source registry: %w", err)
	}

	coord := ingest.NewCoordinator(a.Store, registry, newFetcher(cfg, log), log)
	coord.Journal = a.Store
	coord.Metrics = a.Metrics
	a.Coordinator = coord

	directory := colleges.NewDirectoryClient(cfg.Directory.BaseURL, cfg.DirectoryTimeout(), cfg.Directory.MaxRetries, log)
	if a.Redis != nil {
		directory.Cache = colleges.NewRedisCache(a.Redis)
		directory.CacheTTL = cfg.RedisTTL()
	}
	merger := colleges.NewMerger(a.Store, directory, log)
	merger.Metrics = a.Metrics
	a.Colleges = merger

	var analyzer reviews.Analyzer
	if err := cfg.RequireAnalysis(); err != nil {
		log.WithError(err).Warn("review analysis disabled, written reviews get the placeholder summary")
	} else {
		analyzer = ai.NewChatClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model, cfg.AITimeout(), cfg.AI.MaxRetries)
	}
	summarizer := reviews.NewSummarizer(a.Store, analyzer, log)
	summarizer.Metrics = a.Metrics
	a.Summarizer = summarizer

	return a, nil
}

func newFetcher(cfg *config.Config, log logrus.FieldLogger) ingest.Fetcher {
	if cfg.Ingest.Fetcher == "direct" {
		return ingest.NewCollyFetcher(log)
	}
	return ingest.NewFirecrawlFetcher(cfg.Firecrawl.APIKey, cfg.Firecrawl.BaseURL, cfg.Firecrawl.WaitMS,
		cfg.FirecrawlTimeout(), cfg.Firecrawl.MaxRetries)
}

// APIDeps exposes the wired functions to the HTTP layer.
func (a *App) APIDeps() api.Deps {
	return api.Deps{
		Scraper:    a.Coordinator,
		Colleges:   a.Colleges,
		Summarizer: a.Summarizer,
		DB:         a.Pool,
		Metrics:    a.Metrics,
	}
}

func (a *App) Close() {
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}
