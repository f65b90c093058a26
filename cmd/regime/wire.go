package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	polymarket "github.com/GoPolymarket/polymarket-go-sdk"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/GoPolymarket/polymarket-regime/internal/app"
	"github.com/GoPolymarket/polymarket-regime/internal/config"
	"github.com/GoPolymarket/polymarket-regime/internal/feed"
	"github.com/GoPolymarket/polymarket-regime/internal/llm"
	"github.com/GoPolymarket/polymarket-regime/internal/logging"
	"github.com/GoPolymarket/polymarket-regime/internal/market"
	"github.com/GoPolymarket/polymarket-regime/internal/metrics"
	"github.com/GoPolymarket/polymarket-regime/internal/normalize"
	"github.com/GoPolymarket/polymarket-regime/internal/notify"
)

type deps struct {
	cfg      config.Config
	log      zerolog.Logger
	registry *prometheus.Registry
	app      *app.App
}

// loadConfig reads the config file over defaults and applies env overrides.
// A missing file is not an error.
func loadConfig(path string) (config.Config, bool, error) {
	cfg, err := config.LoadFile(path)
	missing := false
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return cfg, false, fmt.Errorf("config file %s: %w", path, err)
		}
		cfg = config.Default()
		missing = true
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, missing, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, missing, nil
}

func newDeps(ctx context.Context) (*deps, error) {
	cfg, missing, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	if missing {
		log.Warn().Str("path", configPath).Msg("config file not found, using defaults")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(reg)

	httpClient := &http.Client{}
	gamma := feed.NewGammaClient(feed.GammaOptions{
		BaseURL: cfg.Polymarket.GammaBaseURL,
		Timeout: cfg.Polymarket.EventTimeout,
		Retry: feed.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Base:        cfg.Retry.BackoffBase,
			Factor:      cfg.Retry.BackoffFactor,
			StatusCodes: cfg.Retry.StatusCodes,
		},
		ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
		OpenTimeout:         cfg.Breaker.OpenTimeout,
		HTTPClient:          httpClient,
		Logger:              logging.Component(log, "gamma"),
	})

	var prices normalize.PriceSource
	switch cfg.Polymarket.PriceSource {
	case "midpoint":
		prices = feed.NewMidpointClient(cfg.Polymarket.ClobBaseURL, cfg.Polymarket.PriceTimeout, httpClient)
	default:
		prices = feed.NewBookPricer(polymarket.NewClient().CLOB, cfg.Polymarket.PriceTimeout)
	}

	agg := market.NewAggregator(gamma, prices, market.Options{
		Catalog:  cfg.Events,
		Pacing:   cfg.Polymarket.EventPacing,
		Snapshot: market.NewSnapshot(cfg.Cache.Path, cfg.Cache.MaxAge),
		Logger:   logging.Component(log, "aggregator"),
		Metrics:  rec,
	})

	gen, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		if !errors.Is(err, llm.ErrMissingAPIKey) {
			return nil, fmt.Errorf("llm: %w", err)
		}
		log.Warn().Str("provider", cfg.LLM.Provider).Msg("llm api key not set, analyses will return a failure payload")
	}

	var notifier *notify.Notifier
	if cfg.Telegram.Enabled {
		notifier = notify.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	}

	a := app.New(cfg, agg, gen, notifier, rec, logging.Component(log, "app"))
	return &deps{cfg: cfg, log: log, registry: reg, app: a}, nil
}
