package currency

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Static rates used when the live lookup is unavailable. Approximate values;
// good enough for cross-region comparison, not for accounting.
var fallbackRates = map[string]float64{
	"TRY": 0.028,
	"EUR": 1.08,
	"GBP": 1.26,
	"SEK": 0.096,
	"USD": 1.0,
}

// RateSource looks up a live exchange rate into USD. Implementations return
// an error for anything other than a usable numeric rate.
type RateSource interface {
	Rate(ctx context.Context, from string) (float64, error)
}

// Converter normalizes local-currency amounts to USD. It never fails: when
// the live source is unavailable it degrades to the static table, and an
// unknown currency maps to a zero rate. Callers should treat a zero result
// as suspect rather than silently trust it.
type Converter struct {
	source   RateSource
	logger   *slog.Logger
	degraded atomic.Int64
}

func NewConverter(source RateSource, logger *slog.Logger) *Converter {
	return &Converter{
		source: source,
		logger: logger.With("component", "currency_converter"),
	}
}

// ToUSD converts amount from the given ISO currency code into USD.
// USD input is returned unchanged without touching the rate source.
func (c *Converter) ToUSD(ctx context.Context, amount float64, currency string) float64 {
	if currency == "USD" {
		return amount
	}

	if c.source != nil {
		rate, err := c.source.Rate(ctx, currency)
		if err == nil && rate > 0 {
			return amount * rate
		}
		c.degraded.Add(1)
		c.logger.Warn("live rate unavailable, using static fallback",
			"currency", currency, "error", err)
	}

	rate, ok := fallbackRates[currency]
	if !ok {
		c.degraded.Add(1)
		c.logger.Warn("unknown currency, degrading to zero rate", "currency", currency)
		return 0
	}
	return amount * rate
}

// DegradedCount reports how many conversions fell back to the static table
// or to a zero rate since the converter was created.
func (c *Converter) DegradedCount() int64 {
	return c.degraded.Load()
}
