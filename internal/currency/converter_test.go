package currency

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRateSource struct {
	rate float64
	err  error
}

func (s *stubRateSource) Rate(ctx context.Context, from string) (float64, error) {
	return s.rate, s.err
}

func TestToUSD(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("usd is identity without touching the source", func(t *testing.T) {
		c := NewConverter(&stubRateSource{err: errors.New("must not be called")}, logger)

		for _, amount := range []float64{0, 29.99, 1299.99, 0.01} {
			assert.Equal(t, amount, c.ToUSD(ctx, amount, "USD"))
		}
		assert.Zero(t, c.DegradedCount())
	})

	t.Run("live rate is used when available", func(t *testing.T) {
		c := NewConverter(&stubRateSource{rate: 0.03}, logger)

		got := c.ToUSD(ctx, 100, "TRY")
		assert.InDelta(t, 3.0, got, 0.0001)
		assert.Zero(t, c.DegradedCount())
	})

	t.Run("falls back to static table on lookup failure", func(t *testing.T) {
		c := NewConverter(&stubRateSource{err: errors.New("timeout")}, logger)

		got := c.ToUSD(ctx, 100, "EUR")
		assert.InDelta(t, 108.0, got, 0.0001)
		assert.Equal(t, int64(1), c.DegradedCount())
	})

	t.Run("unknown currency degrades to zero", func(t *testing.T) {
		c := NewConverter(&stubRateSource{err: errors.New("unknown pair")}, logger)

		got := c.ToUSD(ctx, 100, "XXX")
		assert.Zero(t, got)
		assert.Equal(t, int64(2), c.DegradedCount()) // live failure + unknown currency
	})

	t.Run("nil source goes straight to the static table", func(t *testing.T) {
		c := NewConverter(nil, logger)

		got := c.ToUSD(ctx, 100, "GBP")
		assert.InDelta(t, 126.0, got, 0.0001)
	})

	t.Run("never panics or errors for any input", func(t *testing.T) {
		c := NewConverter(&stubRateSource{err: errors.New("down")}, logger)

		for _, cur := range []string{"", "usd", "???", "TRY", "SEK"} {
			assert.NotPanics(t, func() { c.ToUSD(ctx, 42, cur) })
		}
	})
}

func TestHTTPRateSource(t *testing.T) {
	t.Run("parses a successful rate response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "TRY", r.URL.Query().Get("base"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"base":"TRY","rates":{"USD":0.0295}}`))
		}))
		defer srv.Close()

		source := NewHTTPRateSource(HTTPRateSourceOptions{BaseURL: srv.URL})
		rate, err := source.Rate(context.Background(), "TRY")
		require.NoError(t, err)
		assert.InDelta(t, 0.0295, rate, 0.00001)
	})

	t.Run("non-200 status is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		source := NewHTTPRateSource(HTTPRateSourceOptions{BaseURL: srv.URL})
		_, err := source.Rate(context.Background(), "EUR")
		assert.Error(t, err)
	})

	t.Run("missing usd rate is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"base":"EUR","rates":{"SEK":11.2}}`))
		}))
		defer srv.Close()

		source := NewHTTPRateSource(HTTPRateSourceOptions{BaseURL: srv.URL})
		_, err := source.Rate(context.Background(), "EUR")
		assert.Error(t, err)
	})

	t.Run("malformed body is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		source := NewHTTPRateSource(HTTPRateSourceOptions{BaseURL: srv.URL})
		_, err := source.Rate(context.Background(), "SEK")
		assert.Error(t, err)
	})
}
