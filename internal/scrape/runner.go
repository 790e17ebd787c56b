package scrape

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/esraeslem/hm-global-price-tracker/internal/database"
	"github.com/esraeslem/hm-global-price-tracker/internal/events"
	"github.com/esraeslem/hm-global-price-tracker/internal/region"
)

// Store covers the persistence operations a run needs (for testing)
type Store interface {
	UpsertProduct(ctx context.Context, p *database.Product) error
	InsertPriceObservation(ctx context.Context, o *database.PriceObservation) error
}

// EventPublisher emits an event after an observation is persisted (for testing)
type EventPublisher interface {
	PublishObservation(ctx context.Context, event events.PriceObservationRecorded) error
}

// Report summarizes one complete run across all requested regions.
type Report struct {
	RunID           string
	StartedAt       time.Time
	Duration        time.Duration
	PerRegion       []Stats
	Persisted       int
	PersistFailures int
	PublishFailures int
}

// TotalProducts sums the products found across all regions.
func (r Report) TotalProducts() int {
	total := 0
	for _, s := range r.PerRegion {
		total += s.ProductsFound
	}
	return total
}

// Runner fans one scrape out over multiple regions with bounded concurrency
// and persists the results. The store's connection pool is the only shared
// mutable resource; everything else is owned per region task.
type Runner struct {
	scraper     *RegionScraper
	store       Store
	publisher   EventPublisher
	concurrency int
	logger      *slog.Logger
}

func NewRunner(scraper *RegionScraper, store Store, publisher EventPublisher, concurrency int, logger *slog.Logger) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		scraper:     scraper,
		store:       store,
		publisher:   publisher,
		concurrency: concurrency,
		logger:      logger.With("component", "runner"),
	}
}

// Run scrapes every requested region and persists what it finds. Region
// failures never abort the run; the report carries the full per-region
// breakdown.
func (r *Runner) Run(ctx context.Context, regions []region.Config) Report {
	report := Report{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}

	logger := r.logger.With("run_id", report.RunID)
	logger.Info("starting run", "regions", len(regions), "concurrency", r.concurrency)

	type regionResult struct {
		stats           Stats
		persisted       int
		persistFailures int
		publishFailures int
	}

	results := make([]regionResult, len(regions))
	sem := make(chan struct{}, r.concurrency)

	var wg sync.WaitGroup
	for i, reg := range regions {
		wg.Add(1)
		go func(i int, reg region.Config) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			observations, stats := r.scraper.Scrape(ctx, reg)
			persisted, persistFailures, publishFailures := r.persist(ctx, observations)

			results[i] = regionResult{
				stats:           stats,
				persisted:       persisted,
				persistFailures: persistFailures,
				publishFailures: publishFailures,
			}

			logger.Info("region complete",
				"region", reg.Code,
				"products_found", stats.ProductsFound,
				"requests", stats.Requests,
				"failures", stats.Failures,
				"persisted", persisted)
		}(i, reg)
	}
	wg.Wait()

	for _, res := range results {
		report.PerRegion = append(report.PerRegion, res.stats)
		report.Persisted += res.persisted
		report.PersistFailures += res.persistFailures
		report.PublishFailures += res.publishFailures
	}

	report.Duration = time.Since(report.StartedAt)
	logger.Info("run complete",
		"duration", report.Duration,
		"products", report.TotalProducts(),
		"persisted", report.Persisted)

	return report
}

// persist writes observations one by one. A failed write skips that
// observation and moves on; history stays append-only either way.
func (r *Runner) persist(ctx context.Context, observations []Observation) (persisted, persistFailures, publishFailures int) {
	for _, obs := range observations {
		product := &database.Product{
			ArticleCode: obs.ArticleCode,
			Name:        obs.Name,
			Category:    obs.Category,
			ImageURL:    obs.ImageURL,
		}
		if err := r.store.UpsertProduct(ctx, product); err != nil {
			persistFailures++
			r.logger.Error("failed to upsert product", "article_code", obs.ArticleCode, "error", err)
			continue
		}

		record := &database.PriceObservation{
			ArticleCode:        obs.ArticleCode,
			Region:             string(obs.Region),
			PriceOriginal:      obs.PriceOriginal,
			Currency:           obs.Currency,
			PriceInUSD:         obs.PriceInUSD,
			DiscountPercentage: obs.DiscountPercentage,
			InStock:            obs.InStock,
		}
		if err := r.store.InsertPriceObservation(ctx, record); err != nil {
			persistFailures++
			r.logger.Error("failed to insert observation",
				"article_code", obs.ArticleCode, "region", obs.Region, "error", err)
			continue
		}
		persisted++

		if r.publisher == nil {
			continue
		}
		event := events.PriceObservationRecorded{
			ObservationID:      record.ID,
			ArticleCode:        record.ArticleCode,
			Region:             record.Region,
			PriceOriginal:      record.PriceOriginal,
			Currency:           record.Currency,
			PriceInUSD:         record.PriceInUSD,
			DiscountPercentage: record.DiscountPercentage,
			ObservedAt:         record.ObservedAt,
		}
		if err := r.publisher.PublishObservation(ctx, event); err != nil {
			publishFailures++
			r.logger.Error("failed to publish observation event",
				"article_code", obs.ArticleCode, "region", obs.Region, "error", err)
		}
	}

	return persisted, persistFailures, publishFailures
}
