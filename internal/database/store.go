package database

import (
	"context"
	"fmt"
	"time"
)

// Product is the region-independent identity of a catalog item. The article
// code is stable across storefronts, which is what makes cross-region price
// comparison possible.
type Product struct {
	ArticleCode string    `db:"article_code" json:"article_code"`
	Name        string    `db:"name" json:"name"`
	Category    string    `db:"category" json:"category"`
	ImageURL    string    `db:"image_url" json:"image_url"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// PriceObservation is one sighting of a product's price in one region.
// Observations are append-only; history is never updated in place.
type PriceObservation struct {
	ID                 int64     `db:"id" json:"id"`
	ArticleCode        string    `db:"article_code" json:"article_code"`
	Region             string    `db:"region" json:"region"`
	PriceOriginal      float64   `db:"price_original" json:"price_original"`
	Currency           string    `db:"currency" json:"currency"`
	PriceInUSD         float64   `db:"price_in_usd" json:"price_in_usd"`
	DiscountPercentage float64   `db:"discount_percentage" json:"discount_percentage"`
	InStock            bool      `db:"in_stock" json:"in_stock"`
	ObservedAt         time.Time `db:"observed_at" json:"observed_at"`
}

// RegionSummary aggregates the most recent observations for one region.
type RegionSummary struct {
	Region          string    `db:"region" json:"region"`
	ProductCount    int64     `db:"product_count" json:"product_count"`
	AvgPriceUSD     float64   `db:"avg_price_usd" json:"avg_price_usd"`
	AvgDiscount     float64   `db:"avg_discount" json:"avg_discount"`
	DiscountedCount int64     `db:"discounted_count" json:"discounted_count"`
	LastObservedAt  time.Time `json:"last_observed_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS products (
	article_code TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	category     TEXT NOT NULL DEFAULT '',
	image_url    TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS price_observations (
	id                  BIGSERIAL PRIMARY KEY,
	article_code        TEXT NOT NULL REFERENCES products(article_code),
	region              TEXT NOT NULL,
	price_original      NUMERIC(12,2) NOT NULL,
	currency            TEXT NOT NULL,
	price_in_usd        NUMERIC(12,2) NOT NULL,
	discount_percentage NUMERIC(5,2) NOT NULL DEFAULT 0,
	in_stock            BOOLEAN NOT NULL DEFAULT TRUE,
	observed_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_observations_article_region
	ON price_observations (article_code, region, observed_at DESC);

CREATE INDEX IF NOT EXISTS idx_observations_region_time
	ON price_observations (region, observed_at DESC);
`

// Migrate creates the schema if it does not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// UpsertProduct registers a product identity. The first sighting wins;
// later sightings of the same article code leave the row untouched so that
// concurrent regional scrapes never fight over it.
func (db *DB) UpsertProduct(ctx context.Context, p *Product) error {
	query := `
		INSERT INTO products (article_code, name, category, image_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (article_code) DO NOTHING`

	if _, err := db.pool.Exec(ctx, query, p.ArticleCode, p.Name, p.Category, p.ImageURL); err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", p.ArticleCode, err)
	}

	return nil
}

// InsertPriceObservation appends one observation to a product's history.
// A zero ObservedAt means "now"; a preset one is kept, which backfill
// tooling relies on.
func (db *DB) InsertPriceObservation(ctx context.Context, o *PriceObservation) error {
	query := `
		INSERT INTO price_observations
			(article_code, region, price_original, currency, price_in_usd, discount_percentage, in_stock, observed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()))
		RETURNING id, observed_at`

	var observedAt *time.Time
	if !o.ObservedAt.IsZero() {
		observedAt = &o.ObservedAt
	}

	err := db.pool.QueryRow(ctx, query,
		o.ArticleCode, o.Region, o.PriceOriginal, o.Currency,
		o.PriceInUSD, o.DiscountPercentage, o.InStock, observedAt,
	).Scan(&o.ID, &o.ObservedAt)
	if err != nil {
		return fmt.Errorf("failed to insert observation for %s/%s: %w", o.ArticleCode, o.Region, err)
	}

	return nil
}

// LatestObservations returns the most recent observation per (article, region)
// pair, optionally filtered to one region.
func (db *DB) LatestObservations(ctx context.Context, regionFilter string, limit int) ([]PriceObservation, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT DISTINCT ON (article_code, region)
			id, article_code, region, price_original, currency,
			price_in_usd, discount_percentage, in_stock, observed_at
		FROM price_observations
		WHERE ($1 = '' OR region = $1)
		ORDER BY article_code, region, observed_at DESC
		LIMIT $2`

	rows, err := db.pool.Query(ctx, query, regionFilter, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest observations: %w", err)
	}
	defer rows.Close()

	var out []PriceObservation
	for rows.Next() {
		var o PriceObservation
		if err := rows.Scan(&o.ID, &o.ArticleCode, &o.Region, &o.PriceOriginal, &o.Currency,
			&o.PriceInUSD, &o.DiscountPercentage, &o.InStock, &o.ObservedAt); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		out = append(out, o)
	}

	return out, rows.Err()
}

// ProductHistory returns all observations for one article across all regions,
// newest first.
func (db *DB) ProductHistory(ctx context.Context, articleCode string, limit int) ([]PriceObservation, error) {
	if limit <= 0 {
		limit = 500
	}

	query := `
		SELECT id, article_code, region, price_original, currency,
			price_in_usd, discount_percentage, in_stock, observed_at
		FROM price_observations
		WHERE article_code = $1
		ORDER BY observed_at DESC
		LIMIT $2`

	rows, err := db.pool.Query(ctx, query, articleCode, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for %s: %w", articleCode, err)
	}
	defer rows.Close()

	var out []PriceObservation
	for rows.Next() {
		var o PriceObservation
		if err := rows.Scan(&o.ID, &o.ArticleCode, &o.Region, &o.PriceOriginal, &o.Currency,
			&o.PriceInUSD, &o.DiscountPercentage, &o.InStock, &o.ObservedAt); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		out = append(out, o)
	}

	return out, rows.Err()
}

// GetProduct returns one product identity by article code.
func (db *DB) GetProduct(ctx context.Context, articleCode string) (*Product, error) {
	query := `
		SELECT article_code, name, category, image_url, created_at
		FROM products
		WHERE article_code = $1`

	var p Product
	err := db.pool.QueryRow(ctx, query, articleCode).Scan(
		&p.ArticleCode, &p.Name, &p.Category, &p.ImageURL, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", articleCode, err)
	}

	return &p, nil
}

// RegionSummaries aggregates the latest observation per product for each
// region into dashboard-ready figures.
func (db *DB) RegionSummaries(ctx context.Context) ([]RegionSummary, error) {
	query := `
		SELECT region,
			COUNT(*) AS product_count,
			COALESCE(AVG(price_in_usd), 0) AS avg_price_usd,
			COALESCE(AVG(discount_percentage), 0) AS avg_discount,
			COUNT(*) FILTER (WHERE discount_percentage > 0) AS discounted_count,
			MAX(observed_at) AS last_observed_at
		FROM (
			SELECT DISTINCT ON (article_code, region)
				region, price_in_usd, discount_percentage, observed_at
			FROM price_observations
			ORDER BY article_code, region, observed_at DESC
		) latest
		GROUP BY region
		ORDER BY region`

	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query region summaries: %w", err)
	}
	defer rows.Close()

	var out []RegionSummary
	for rows.Next() {
		var s RegionSummary
		if err := rows.Scan(&s.Region, &s.ProductCount, &s.AvgPriceUSD, &s.AvgDiscount,
			&s.DiscountedCount, &s.LastObservedAt); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		out = append(out, s)
	}

	return out, rows.Err()
}
