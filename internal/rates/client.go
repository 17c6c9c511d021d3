// Package rates fetches GBP-to-crypto conversion rates from CoinGecko and
// serves them from a local cache. The oracle is external and flaky by
// nature: any failure degrades to the last good value, then to static
// fallbacks, never to an error on the checkout path.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

const defaultEndpoint = "https://api.coingecko.com/api/v3/simple/price"

// coin ids as CoinGecko names them, keyed by ticker
var coinIDs = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"LTC":  "litecoin",
	"USDT": "tether",
	"XMR":  "monero",
}

var fallbackRates = map[string]float64{
	"BTC":  0.000023,
	"ETH":  0.00058,
	"LTC":  0.014,
	"USDT": 1.27,
	"XMR":  0.006,
}

type ErrUnknownTicker struct {
	Ticker string
}

func (e *ErrUnknownTicker) Error() string {
	return fmt.Sprintf("no conversion rate for ticker %s", e.Ticker)
}

type gbpPrice struct {
	GBP float64 `json:"gbp"`
}

type Client struct {
	endpoint string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[map[string]gbpPrice]

	mu    sync.RWMutex
	rates map[string]float64
}

func NewClient() *Client {
	return NewClientWithEndpoint(defaultEndpoint)
}

func NewClientWithEndpoint(endpoint string) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 10 * time.Second},
		rates:    make(map[string]float64, len(fallbackRates)),
	}
	// An open breaker skips the fetch entirely; Rate keeps serving the last
	// good values in the meantime.
	c.breaker = gobreaker.NewCircuitBreaker[map[string]gbpPrice](gobreaker.Settings{
		Name:    "coingecko",
		Timeout: 2 * time.Minute,
	})
	for ticker, rate := range fallbackRates {
		c.rates[ticker] = rate
	}
	return c
}

// Rate returns the cached GBP-to-crypto multiplier for a ticker.
func (c *Client) Rate(ticker string) (float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rate, ok := c.rates[strings.ToUpper(ticker)]
	if !ok {
		return 0, &ErrUnknownTicker{Ticker: ticker}
	}
	return rate, nil
}

// Refresh fetches fresh rates. On any failure the cache keeps its previous
// values; the caller decides whether the error is worth more than a log line.
func (c *Client) Refresh(ctx context.Context) error {
	prices, err := c.breaker.Execute(func() (map[string]gbpPrice, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		return err
	}

	fresh := make(map[string]float64, len(coinIDs))
	for ticker, id := range coinIDs {
		price, ok := prices[id]
		if !ok || price.GBP == 0 {
			continue
		}
		// GBP -> crypto: 1 GBP buys 1/price units
		fresh[ticker] = 1 / price.GBP
	}
	if len(fresh) == 0 {
		return fmt.Errorf("rates response contained no usable prices")
	}

	c.mu.Lock()
	for ticker, rate := range fresh {
		c.rates[ticker] = rate
	}
	c.mu.Unlock()
	return nil
}

func (c *Client) fetch(ctx context.Context) (map[string]gbpPrice, error) {
	ids := make([]string, 0, len(coinIDs))
	for _, id := range coinIDs {
		ids = append(ids, id)
	}

	url := fmt.Sprintf("%s?ids=%s&vs_currencies=gbp", c.endpoint, strings.Join(ids, ","))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build rates request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates endpoint returned %s", resp.Status)
	}

	var prices map[string]gbpPrice
	if err := json.NewDecoder(resp.Body).Decode(&prices); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}
	return prices, nil
}

// Run refreshes on a ticker until the context ends. One refresh happens
// immediately so checkout does not start on fallback values.
func (c *Client) Run(ctx context.Context, interval time.Duration) {
	if err := c.Refresh(ctx); err != nil {
		log.Printf("initial rates refresh failed, serving fallbacks: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				log.Printf("rates refresh failed, keeping cached values: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
