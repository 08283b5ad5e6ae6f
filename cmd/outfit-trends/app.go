package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jalshrestha/Outfit/internal/browser"
	"github.com/jalshrestha/Outfit/internal/classify"
	"github.com/jalshrestha/Outfit/internal/config"
	"github.com/jalshrestha/Outfit/internal/database"
	"github.com/jalshrestha/Outfit/internal/events"
	"github.com/jalshrestha/Outfit/internal/logging"
	"github.com/jalshrestha/Outfit/internal/scraper"
	"github.com/jalshrestha/Outfit/internal/storage"
	"github.com/jalshrestha/Outfit/internal/trending"
)

// app holds everything a command needs. Optional backends are nil when
// their configuration is empty or they could not be reached.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	cache      *storage.CacheStore
	pinterest  *scraper.PinterestScraper
	service    *trending.Service
	classifier *classify.Classifier
	closers    []func()
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.Setup(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	return cfg, logger, nil
}

// newApp builds the trending service. With backends set it also connects
// postgres, redis and Gemini when they are configured.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, backends bool) *app {
	a := &app{
		cfg:    cfg,
		logger: logger,
		cache:  storage.NewCacheStore(cfg.Cache.Path),
	}

	opts := cfg.ScraperOptions()
	a.pinterest = scraper.NewPinterest(newRenderer(cfg), opts)
	extractors := []scraper.Extractor{
		a.pinterest,
		scraper.NewHollister(opts),
		scraper.NewHM(opts),
	}

	serviceOpts := []trending.Option{trending.WithFreshFor(cfg.Cache.FreshFor)}

	if backends {
		if history := a.connectHistory(ctx); history != nil {
			serviceOpts = append(serviceOpts, trending.WithHistory(history))
		}
		if publisher := a.connectPublisher(ctx); publisher != nil {
			serviceOpts = append(serviceOpts, trending.WithPublisher(publisher))
		}
		a.classifier = a.connectClassifier(ctx)
	}

	a.service = trending.NewService(a.cache, extractors, serviceOpts...)
	return a
}

func newRenderer(cfg *config.Config) *browser.Renderer {
	launch := browser.DefaultOptions()
	launch.Headless = cfg.Browser.Headless
	launch.Timeout = cfg.Browser.Timeout
	launch.UserAgent = cfg.Scraper.UserAgent
	launch.ViewportWidth = cfg.Browser.ViewportWidth
	launch.ViewportHeight = cfg.Browser.ViewportHeight
	launch.Locale = cfg.Browser.Locale
	launch.ProxyServer = cfg.Browser.ProxyServer

	render := browser.DefaultRenderOptions()
	render.SettleDelay = cfg.Scraper.SettleDelay
	render.ScrollCount = cfg.Scraper.ScrollCount
	render.ScrollDelay = cfg.Scraper.ScrollDelay

	return browser.NewRenderer(launch, render)
}

func (a *app) connectHistory(ctx context.Context) *database.HistoryRepository {
	if a.cfg.Database.URL == "" {
		return nil
	}

	db, err := database.New(ctx, database.Config{
		URL:      a.cfg.Database.URL,
		MaxConns: a.cfg.Database.MaxConns,
	})
	if err != nil {
		a.logger.Warn("refresh history disabled", "error", err)
		return nil
	}

	history := database.NewHistoryRepository(db)
	if err := history.EnsureSchema(ctx); err != nil {
		a.logger.Warn("refresh history disabled", "error", err)
		db.Close()
		return nil
	}

	a.closers = append(a.closers, db.Close)
	a.logger.Info("refresh history enabled")
	return history
}

func (a *app) connectPublisher(ctx context.Context) *events.RedisPublisher {
	if a.cfg.Redis.Addr == "" {
		return nil
	}

	client, err := events.Connect(ctx, events.RedisConfig{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err != nil {
		a.logger.Warn("refresh events disabled", "error", err)
		return nil
	}

	publisher := events.NewRedisPublisher(client, a.cfg.Redis.Stream)
	a.closers = append(a.closers, func() {
		if err := publisher.Close(); err != nil {
			a.logger.Error("failed to close redis client", "error", err)
		}
	})
	a.logger.Info("refresh events enabled", "stream", a.cfg.Redis.Stream)
	return publisher
}

func (a *app) connectClassifier(ctx context.Context) *classify.Classifier {
	if a.cfg.Gemini.APIKey == "" {
		return nil
	}

	model, err := classify.NewGeminiModel(ctx, a.cfg.Gemini.APIKey, a.cfg.Gemini.Model)
	if err != nil {
		a.logger.Warn("image classification disabled", "error", err)
		return nil
	}

	a.closers = append(a.closers, func() {
		if err := model.Close(); err != nil {
			a.logger.Error("failed to close gemini client", "error", err)
		}
	})
	return classify.New(model, a.cfg.Scraper.HTTPTimeout)
}

// Close releases backends in reverse order of connection.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
