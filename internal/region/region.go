package region

import (
	"fmt"
)

// Code identifies one country storefront of the catalog.
type Code string

const (
	Turkey        Code = "tr"
	UnitedStates  Code = "us"
	UnitedKingdom Code = "gb"
	Germany       Code = "de"
	Sweden        Code = "se"
)

// Config describes a single regional storefront. Configs are immutable and
// loaded once at process start; the catalog below is the closed set of
// supported regions.
type Config struct {
	Code           Code
	Name           string
	BaseURL        string
	Currency       string
	Locale         string
	AcceptLanguage string
	CategoryPaths  []string
}

var catalog = map[Code]Config{
	Turkey: {
		Code:           Turkey,
		Name:           "Turkey",
		BaseURL:        "https://www2.hm.com/tr_tr",
		Currency:       "TRY",
		Locale:         "tr-TR",
		AcceptLanguage: "tr-TR,tr;q=0.9,en;q=0.8",
		CategoryPaths:  []string{"/kadin/urunler/elbiseler.html"},
	},
	UnitedStates: {
		Code:           UnitedStates,
		Name:           "United States",
		BaseURL:        "https://www2.hm.com/en_us",
		Currency:       "USD",
		Locale:         "en-US",
		AcceptLanguage: "en-US,en;q=0.9",
		CategoryPaths:  []string{"/women/products/dresses.html"},
	},
	UnitedKingdom: {
		Code:           UnitedKingdom,
		Name:           "United Kingdom",
		BaseURL:        "https://www2.hm.com/en_gb",
		Currency:       "GBP",
		Locale:         "en-GB",
		AcceptLanguage: "en-GB,en;q=0.9",
		CategoryPaths:  []string{"/ladies/products/dresses.html"},
	},
	Germany: {
		Code:           Germany,
		Name:           "Germany",
		BaseURL:        "https://www2.hm.com/de_de",
		Currency:       "EUR",
		Locale:         "de-DE",
		AcceptLanguage: "de-DE,de;q=0.9,en;q=0.8",
		CategoryPaths:  []string{"/damen/produkte/kleider.html"},
	},
	Sweden: {
		Code:           Sweden,
		Name:           "Sweden",
		BaseURL:        "https://www2.hm.com/sv_se",
		Currency:       "SEK",
		Locale:         "sv-SE",
		AcceptLanguage: "sv-SE,sv;q=0.9,en;q=0.8",
		CategoryPaths:  []string{"/dam/produkter/klanningar.html"},
	},
}

// aliases maps historical spellings to canonical codes.
var aliases = map[string]Code{
	"uk": UnitedKingdom,
}

// ErrUnknownRegion is returned for codes outside the supported catalog.
var ErrUnknownRegion = fmt.Errorf("unknown region code")

// Get resolves a region code (or alias) to its config. Requesting an
// unsupported region is a configuration error and must be surfaced before
// any network activity.
func Get(code string) (Config, error) {
	if canonical, ok := aliases[code]; ok {
		code = string(canonical)
	}
	cfg, ok := catalog[Code(code)]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownRegion, code)
	}
	return cfg, nil
}

// All returns every supported region config in a stable order.
func All() []Config {
	codes := []Code{Turkey, UnitedStates, UnitedKingdom, Germany, Sweden}
	configs := make([]Config, 0, len(codes))
	for _, c := range codes {
		configs = append(configs, catalog[c])
	}
	return configs
}

// Resolve maps a list of requested codes to configs, failing fast on the
// first unknown code. Duplicates (including via aliases) are collapsed.
func Resolve(codes []string) ([]Config, error) {
	seen := make(map[Code]bool, len(codes))
	configs := make([]Config, 0, len(codes))
	for _, code := range codes {
		cfg, err := Get(code)
		if err != nil {
			return nil, err
		}
		if seen[cfg.Code] {
			continue
		}
		seen[cfg.Code] = true
		configs = append(configs, cfg)
	}
	return configs, nil
}
