package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/esraeslem/hm-global-price-tracker/internal/region"
)

// HTTPFetcher retrieves category pages with plain HTTP requests. It sends the
// headers a real browser would so the storefront serves the full listing
// markup instead of a consent interstitial.
type HTTPFetcher struct {
	base    *colly.Collector
	timeout time.Duration
	logger  *slog.Logger
}

type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration
}

func NewHTTPFetcher(opts HTTPOptions, logger *slog.Logger) *HTTPFetcher {
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	base := colly.NewCollector(colly.UserAgent(userAgent))
	base.DisableCookies()
	base.SetRequestTimeout(timeout)

	return &HTTPFetcher{
		base:    base,
		timeout: timeout,
		logger:  logger.With("component", "http_fetcher"),
	}
}

func (f *HTTPFetcher) FetchCategoryPage(ctx context.Context, reg region.Config, categoryPath string) (string, error) {
	url := reg.BaseURL + categoryPath

	// Each fetch gets its own clone so response handlers never accumulate
	// across calls.
	c := f.base.Clone()

	var (
		body     []byte
		fetchErr error
	)

	c.OnRequest(func(r *colly.Request) {
		if err := ctx.Err(); err != nil {
			r.Abort()
			fetchErr = err
			return
		}
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
		r.Headers.Set("Accept-Language", reg.AcceptLanguage)
		r.Headers.Set("Referer", reg.BaseURL)
		r.Headers.Set("DNT", "1")
		r.Headers.Set("Upgrade-Insecure-Requests", "1")
	})

	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("request failed with status %d: %w", r.StatusCode, err)
	})

	f.logger.Debug("fetching category page", "region", reg.Code, "url", url)

	if err := c.Visit(url); err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	c.Wait()

	if fetchErr != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, fetchErr)
	}
	if len(body) == 0 {
		return "", fmt.Errorf("empty response from %s", url)
	}

	return string(body), nil
}

func (f *HTTPFetcher) Close() error {
	return nil
}
