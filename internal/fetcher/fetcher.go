package fetcher

import (
	"context"
	"errors"

	"github.com/esraeslem/hm-global-price-tracker/internal/region"
)

// ErrGridNotFound signals that the page loaded but no product listing markup
// appeared. The affected fetch counts as a failure for its region without
// aborting the run.
var ErrGridNotFound = errors.New("product grid not found on page")

// Selectors that identify a rendered product grid. The storefronts ship two
// markup generations, so detection walks the chain until one matches.
var gridSelectors = []string{
	"li.product-item",
	"article.hm-product-item",
	"[data-articlecode]",
}

// Fetcher retrieves the rendered HTML of one category listing page. The two
// implementations trade fidelity for cost: the browser strategy executes
// scripts and sees lazily loaded items, the HTTP strategy is cheap but only
// sees server-rendered markup.
type Fetcher interface {
	FetchCategoryPage(ctx context.Context, reg region.Config, categoryPath string) (string, error)
	Close() error
}
