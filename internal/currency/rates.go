package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultRatesURL = "https://api.frankfurter.dev/v1/latest"

// HTTPRateSource fetches live exchange rates from a public rates API.
// Any response outside a successful numeric rate is an error; the Converter
// turns that into fallback behavior.
type HTTPRateSource struct {
	baseURL string
	client  *http.Client
}

type HTTPRateSourceOptions struct {
	BaseURL string
	Timeout time.Duration
}

func NewHTTPRateSource(opts HTTPRateSourceOptions) *HTTPRateSource {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultRatesURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPRateSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPRateSource) Rate(ctx context.Context, from string) (float64, error) {
	url := fmt.Sprintf("%s?base=%s&symbols=USD", s.baseURL, from)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("rate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rate request returned status %d", resp.StatusCode)
	}

	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("failed to decode rate response: %w", err)
	}

	rate, ok := payload.Rates["USD"]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("no usable USD rate for %s", from)
	}

	return rate, nil
}
