package scrape

import (
	"context"
	"log/slog"
	"math"
	"path"
	"strings"

	"github.com/esraeslem/hm-global-price-tracker/internal/currency"
	"github.com/esraeslem/hm-global-price-tracker/internal/extractor"
	"github.com/esraeslem/hm-global-price-tracker/internal/fetcher"
	"github.com/esraeslem/hm-global-price-tracker/internal/parser"
	"github.com/esraeslem/hm-global-price-tracker/internal/ratelimit"
	"github.com/esraeslem/hm-global-price-tracker/internal/region"
)

// Observation is one fully processed price sighting, ready to persist.
type Observation struct {
	ArticleCode        string
	Name               string
	Category           string
	ImageURL           string
	Region             region.Code
	PriceOriginal      float64
	Currency           string
	PriceInUSD         float64
	DiscountPercentage float64
	InStock            bool
}

// Stats counts what happened while scraping one region. Each region task
// owns its Stats exclusively; the runner merges them after the task is done,
// so no counter here needs synchronization.
type Stats struct {
	Region        region.Code
	Requests      int
	Successes     int
	Failures      int
	ProductsFound int
	ParseSkips    int
}

// RegionScraper runs the fetch, extract, parse, normalize pipeline for one
// region at a time.
type RegionScraper struct {
	fetcher     fetcher.Fetcher
	extractor   *extractor.Extractor
	parser      *parser.PriceParser
	converter   *currency.Converter
	limiter     *ratelimit.Adaptive
	maxProducts int
	logger      *slog.Logger
}

func NewRegionScraper(
	f fetcher.Fetcher,
	e *extractor.Extractor,
	p *parser.PriceParser,
	c *currency.Converter,
	limiter *ratelimit.Adaptive,
	maxProducts int,
	logger *slog.Logger,
) *RegionScraper {
	return &RegionScraper{
		fetcher:     f,
		extractor:   e,
		parser:      p,
		converter:   c,
		limiter:     limiter,
		maxProducts: maxProducts,
		logger:      logger.With("component", "region_scraper"),
	}
}

// Scrape walks every category page of one region. Fetch errors are counted
// and skipped; a region that fails every fetch still returns cleanly so its
// siblings are unaffected.
func (s *RegionScraper) Scrape(ctx context.Context, reg region.Config) ([]Observation, Stats) {
	stats := Stats{Region: reg.Code}
	logger := s.logger.With("region", reg.Code)

	var observations []Observation

	for _, categoryPath := range reg.CategoryPaths {
		if err := ctx.Err(); err != nil {
			logger.Warn("region scrape cancelled", "error", err)
			return observations, stats
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return observations, stats
		}

		stats.Requests++

		html, err := s.fetcher.FetchCategoryPage(ctx, reg, categoryPath)
		if err != nil {
			stats.Failures++
			s.limiter.RecordError()
			logger.Error("category fetch failed", "path", categoryPath, "error", err)
			continue
		}
		stats.Successes++
		s.limiter.RecordSuccess()

		candidates, err := s.extractor.Extract(html, s.maxProducts)
		if err != nil {
			// The page rendered but held nothing recognizable. Likely a
			// markup change rather than a transport problem.
			logger.Warn("no products extracted", "path", categoryPath, "error", err)
			continue
		}

		category := categoryLabel(categoryPath)
		for _, c := range candidates {
			obs, err := s.process(ctx, reg, category, c)
			if err != nil {
				stats.ParseSkips++
				logger.Debug("skipping product", "article_code", c.ArticleCode, "error", err)
				continue
			}
			observations = append(observations, obs)
			stats.ProductsFound++
		}
	}

	if stats.ProductsFound == 0 && stats.Failures == 0 && stats.Requests > 0 {
		logger.Warn("region yielded zero products despite successful fetches, markup may have changed")
	}

	return observations, stats
}

// process turns one raw candidate into a normalized observation.
func (s *RegionScraper) process(ctx context.Context, reg region.Config, category string, c extractor.Candidate) (Observation, error) {
	price, err := s.parser.Parse(c.PriceText)
	if err != nil {
		return Observation{}, err
	}

	discount := 0.0
	if c.OriginalPriceText != "" {
		if original, err := s.parser.Parse(c.OriginalPriceText); err == nil && original > price {
			discount = round2((original - price) / original * 100)
		}
	}

	return Observation{
		ArticleCode:        c.ArticleCode,
		Name:               c.Name,
		Category:           category,
		ImageURL:           c.ImageURL,
		Region:             reg.Code,
		PriceOriginal:      price,
		Currency:           reg.Currency,
		PriceInUSD:         round2(s.converter.ToUSD(ctx, price, reg.Currency)),
		DiscountPercentage: discount,
		InStock:            true,
	}, nil
}

func categoryLabel(categoryPath string) string {
	base := path.Base(categoryPath)
	return strings.TrimSuffix(base, ".html")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
