package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/esraeslem/hm-global-price-tracker/internal/browser"
	"github.com/esraeslem/hm-global-price-tracker/internal/region"
)

// BrowserFetcher renders category pages in a real browser so that script
// driven listings and lazily loaded product cards are present in the returned
// HTML. Each region gets its own browser context keyed by region code.
type BrowserFetcher struct {
	browser *browser.Browser
	timeout time.Duration
	logger  *slog.Logger

	mu       sync.Mutex
	contexts map[region.Code]playwright.BrowserContext
}

func NewBrowserFetcher(b *browser.Browser, timeout time.Duration, logger *slog.Logger) *BrowserFetcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &BrowserFetcher{
		browser:  b,
		timeout:  timeout,
		logger:   logger.With("component", "browser_fetcher"),
		contexts: make(map[region.Code]playwright.BrowserContext),
	}
}

func (f *BrowserFetcher) regionContext(reg region.Config) (playwright.BrowserContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if ctx, ok := f.contexts[reg.Code]; ok {
		return ctx, nil
	}

	ctx, err := f.browser.NewContext(browser.ContextOptions{
		Locale:         reg.Locale,
		AcceptLanguage: reg.AcceptLanguage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create context for region %s: %w", reg.Code, err)
	}

	f.contexts[reg.Code] = ctx
	return ctx, nil
}

func (f *BrowserFetcher) FetchCategoryPage(ctx context.Context, reg region.Config, categoryPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	url := reg.BaseURL + categoryPath

	browserCtx, err := f.regionContext(reg)
	if err != nil {
		return "", err
	}

	page, err := f.browser.NewPage(browserCtx)
	if err != nil {
		return "", fmt.Errorf("failed to open page for %s: %w", url, err)
	}
	defer page.Close()

	f.logger.Debug("navigating to category page", "region", reg.Code, "url", url)

	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(f.timeout.Milliseconds())),
	}); err != nil {
		return "", fmt.Errorf("navigation to %s failed: %w", url, err)
	}

	if err := f.waitForGrid(page); err != nil {
		return "", fmt.Errorf("%w: %s", ErrGridNotFound, url)
	}

	// Lazily loaded cards only materialize once they scroll into view.
	f.scrollThrough(page)

	content, err := page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content for %s: %w", url, err)
	}

	return content, nil
}

// waitForGrid tries each known grid selector in turn, splitting the timeout
// budget across them.
func (f *BrowserFetcher) waitForGrid(page playwright.Page) error {
	perSelector := float64(f.timeout.Milliseconds()) / float64(len(gridSelectors))
	if perSelector < 2000 {
		perSelector = 2000
	}

	for _, selector := range gridSelectors {
		_, err := page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
			Timeout: playwright.Float(perSelector),
			State:   playwright.WaitForSelectorStateAttached,
		})
		if err == nil {
			return nil
		}
		f.logger.Debug("grid selector not present", "selector", selector)
	}

	return ErrGridNotFound
}

func (f *BrowserFetcher) scrollThrough(page playwright.Page) {
	for i := 0; i < 4; i++ {
		if _, err := page.Evaluate(`window.scrollBy(0, window.innerHeight)`); err != nil {
			f.logger.Debug("scroll failed", "error", err)
			return
		}
		page.WaitForTimeout(500)
	}
	page.Evaluate(`window.scrollTo(0, 0)`)
	page.WaitForTimeout(500)
}

func (f *BrowserFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for code, ctx := range f.contexts {
		if err := ctx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context for %s: %w", code, err))
		}
	}
	f.contexts = make(map[region.Code]playwright.BrowserContext)

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}
	return nil
}
