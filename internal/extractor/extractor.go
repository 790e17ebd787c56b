package extractor

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoProducts signals that the page parsed cleanly but contained no
// recognizable product cards.
var ErrNoProducts = errors.New("no product cards found in document")

// Candidate is one product card lifted out of the listing markup. Price
// fields stay raw text here; parsing and normalization happen downstream.
type Candidate struct {
	ArticleCode       string
	Name              string
	PriceText         string
	OriginalPriceText string
	ImageURL          string
	ProductURL        string
}

// The storefronts serve two markup generations. Item selectors are tried in
// order and the first one that matches anything wins for the whole page.
var itemSelectors = []string{
	"li.product-item",
	"article.hm-product-item",
	"[data-articlecode]",
}

var nameSelectors = []string{
	".item-heading",
	"h3.link",
	"a.link",
}

var priceSelectors = []string{
	".price",
	".ae-currency-price",
	"[class*=\"price\"]",
}

var originalPriceSelectors = []string{
	".price-old",
	".old-price",
	"[class*=\"original\"]",
}

// Extractor pulls product candidates out of rendered listing HTML.
type Extractor struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger.With("component", "extractor")}
}

// Extract returns the product candidates found in html, at most limit of
// them (limit <= 0 means no cap). A card missing its article code or price
// text is skipped and logged; one broken card never discards its neighbors.
func (e *Extractor) Extract(html string, limit int) ([]Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	items := e.selectItems(doc)
	if items == nil {
		return nil, ErrNoProducts
	}

	var candidates []Candidate
	items.EachWithBreak(func(i int, s *goquery.Selection) bool {
		if limit > 0 && len(candidates) >= limit {
			return false
		}

		c, err := e.extractOne(s)
		if err != nil {
			e.logger.Debug("skipping product card", "index", i, "error", err)
			return true
		}

		candidates = append(candidates, c)
		return true
	})

	if len(candidates) == 0 {
		return nil, ErrNoProducts
	}

	return candidates, nil
}

func (e *Extractor) selectItems(doc *goquery.Document) *goquery.Selection {
	for _, selector := range itemSelectors {
		if items := doc.Find(selector); items.Length() > 0 {
			return items
		}
	}
	return nil
}

func (e *Extractor) extractOne(s *goquery.Selection) (Candidate, error) {
	code := articleCode(s)
	if code == "" {
		return Candidate{}, errors.New("missing article code")
	}

	priceText := firstText(s, priceSelectors, originalPriceSelectors)
	if priceText == "" {
		return Candidate{}, fmt.Errorf("missing price text for article %s", code)
	}

	name := firstText(s, nameSelectors, nil)
	if name == "" {
		name = "Unknown Product"
	}

	return Candidate{
		ArticleCode:       code,
		Name:              name,
		PriceText:         priceText,
		OriginalPriceText: firstText(s, originalPriceSelectors, nil),
		ImageURL:          imageURL(s),
		ProductURL:        productURL(s),
	}, nil
}

func articleCode(s *goquery.Selection) string {
	if code, ok := s.Attr("data-articlecode"); ok && code != "" {
		return strings.TrimSpace(code)
	}
	if code, ok := s.Find("[data-articlecode]").First().Attr("data-articlecode"); ok {
		return strings.TrimSpace(code)
	}
	return ""
}

// firstText walks selectors in order and returns the first non-empty text it
// finds, skipping any node that also matches one of the exclude selectors.
// The exclusion keeps a struck-through original price from being read as the
// current price.
func firstText(s *goquery.Selection, selectors, exclude []string) string {
	for _, selector := range selectors {
		var text string
		s.Find(selector).EachWithBreak(func(_ int, node *goquery.Selection) bool {
			for _, ex := range exclude {
				if node.Is(ex) {
					return true
				}
			}
			if t := strings.TrimSpace(node.Text()); t != "" {
				text = t
				return false
			}
			return true
		})
		if text != "" {
			return text
		}
	}
	return ""
}

func imageURL(s *goquery.Selection) string {
	img := s.Find("img").First()
	for _, attr := range []string{"data-src", "data-altimage", "src"} {
		if src, ok := img.Attr(attr); ok && src != "" {
			return normalizeURL(src)
		}
	}
	return ""
}

func productURL(s *goquery.Selection) string {
	if href, ok := s.Find("a[href]").First().Attr("href"); ok {
		return strings.TrimSpace(href)
	}
	return ""
}

func normalizeURL(src string) string {
	src = strings.TrimSpace(src)
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	return src
}
