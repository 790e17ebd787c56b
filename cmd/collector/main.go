package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/esraeslem/hm-global-price-tracker/internal/browser"
	"github.com/esraeslem/hm-global-price-tracker/internal/config"
	"github.com/esraeslem/hm-global-price-tracker/internal/currency"
	"github.com/esraeslem/hm-global-price-tracker/internal/database"
	"github.com/esraeslem/hm-global-price-tracker/internal/events"
	"github.com/esraeslem/hm-global-price-tracker/internal/extractor"
	"github.com/esraeslem/hm-global-price-tracker/internal/fetcher"
	"github.com/esraeslem/hm-global-price-tracker/internal/parser"
	"github.com/esraeslem/hm-global-price-tracker/internal/ratelimit"
	"github.com/esraeslem/hm-global-price-tracker/internal/region"
	"github.com/esraeslem/hm-global-price-tracker/internal/scrape"
)

func main() {
	regionsFlag := flag.String("regions", "", "comma-separated region codes, overrides SCRAPER_REGIONS")
	strategyFlag := flag.String("strategy", "", "fetch strategy (http or browser), overrides SCRAPER_STRATEGY")
	maxProductsFlag := flag.Int("max-products", 0, "products per category page, overrides SCRAPER_MAX_PRODUCTS")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if *regionsFlag != "" {
		cfg.Scraper.Regions = strings.Split(*regionsFlag, ",")
	}
	if *strategyFlag != "" {
		cfg.Scraper.Strategy = config.FetchStrategy(*strategyFlag)
	}
	if *maxProductsFlag > 0 {
		cfg.Scraper.MaxProducts = *maxProductsFlag
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	regions, err := region.Resolve(cfg.Scraper.Regions)
	if err != nil {
		logger.Error("invalid region list", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.DBName,
		MaxConns: cfg.Database.MaxConns,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to migrate schema", "error", err)
		os.Exit(1)
	}

	f, cleanup, err := buildFetcher(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize fetcher", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	var publisher scrape.EventPublisher
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		publisher = events.NewPublisher(redisClient, cfg.Redis.Stream, logger)
	}

	converter := currency.NewConverter(currency.NewHTTPRateSource(currency.HTTPRateSourceOptions{
		BaseURL: cfg.Currency.RatesURL,
		Timeout: cfg.Currency.Timeout,
	}), logger)

	scraper := scrape.NewRegionScraper(
		f,
		extractor.New(logger),
		parser.NewPriceParser(),
		converter,
		ratelimit.NewAdaptive(cfg.Scraper.RateLimitMin, cfg.Scraper.RateLimitMax),
		cfg.Scraper.MaxProducts,
		logger,
	)

	runner := scrape.NewRunner(scraper, db, publisher, cfg.Scraper.ConcurrentLimit, logger)
	report := runner.Run(ctx, regions)

	for _, stats := range report.PerRegion {
		logger.Info("region report",
			"run_id", report.RunID,
			"region", stats.Region,
			"requests", stats.Requests,
			"successes", stats.Successes,
			"failures", stats.Failures,
			"products_found", stats.ProductsFound,
			"parse_skips", stats.ParseSkips)
	}
	logger.Info("collection finished",
		"run_id", report.RunID,
		"duration", report.Duration,
		"products", report.TotalProducts(),
		"persisted", report.Persisted,
		"persist_failures", report.PersistFailures,
		"publish_failures", report.PublishFailures,
		"degraded_conversions", converter.DegradedCount())

	if ctx.Err() != nil {
		os.Exit(1)
	}
}

// buildFetcher picks the configured fetch strategy. The returned cleanup
// closes the fetcher and, for the browser strategy, the browser behind it.
func buildFetcher(cfg *config.Config, logger *slog.Logger) (fetcher.Fetcher, func(), error) {
	switch cfg.Scraper.Strategy {
	case config.StrategyBrowser:
		b, err := browser.New(&browser.Options{
			Headless:       cfg.Browser.Headless,
			Timeout:        cfg.Browser.Timeout,
			UserAgent:      cfg.Scraper.UserAgent,
			ViewportWidth:  cfg.Browser.ViewportWidth,
			ViewportHeight: cfg.Browser.ViewportHeight,
		})
		if err != nil {
			return nil, nil, err
		}
		f := fetcher.NewBrowserFetcher(b, cfg.Scraper.FetchTimeout, logger)
		cleanup := func() {
			if err := f.Close(); err != nil {
				logger.Error("failed to close fetcher", "error", err)
			}
			if err := b.Close(); err != nil {
				logger.Error("failed to close browser", "error", err)
			}
		}
		return f, cleanup, nil

	default:
		f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent: cfg.Scraper.UserAgent,
			Timeout:   cfg.Scraper.FetchTimeout,
		}, logger)
		return f, func() { f.Close() }, nil
	}
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
