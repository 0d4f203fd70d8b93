package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const coinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGecko fetches the bitcoin spot price from the keyless CoinGecko
// simple-price endpoint.
type CoinGecko struct {
	baseURL    string
	httpClient *http.Client
}

func NewCoinGecko() *CoinGecko {
	return &CoinGecko{
		baseURL:    coinGeckoBaseURL,
		httpClient: newHTTPClient(),
	}
}

// NewCoinGeckoWithBaseURL exists for tests pointing at a local server.
func NewCoinGeckoWithBaseURL(baseURL string) *CoinGecko {
	c := NewCoinGecko()
	c.baseURL = baseURL
	return c
}

func (c *CoinGecko) CurrentPrice(ctx context.Context) (*Price, error) {
	query := url.Values{
		"ids":                 {"bitcoin"},
		"vs_currencies":       {"usd"},
		"include_24hr_change": {"true"},
	}
	endpoint := fmt.Sprintf("%s/simple/price?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build price request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price fetch returned status %d", resp.StatusCode)
	}

	var body struct {
		Bitcoin struct {
			USD       float64 `json:"usd"`
			Change24h float64 `json:"usd_24h_change"`
		} `json:"bitcoin"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode price response: %w", err)
	}

	return &Price{
		USD:       body.Bitcoin.USD,
		Change24h: body.Bitcoin.Change24h,
	}, nil
}
