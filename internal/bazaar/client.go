package bazaar

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"shard-profit-tracker/internal/config"
)

const (
	hypixelBaseURL = "https://api.hypixel.net/v2"
	coflnetBaseURL = "https://sky.coflnet.com/api"
)

// ClientInterface defines the interface for the upstream market APIs.
type ClientInterface interface {
	GetBazaarQuotes() (map[string]QuickStatus, error)
	GetProductHistory(productID string) ([]HistoryEntry, error)
}

// Client talks to the Hypixel bazaar API (current quotes) and the coflnet
// API (weekly price history). It implements ClientInterface.
type Client struct {
	bazaarClient  *resty.Client
	historyClient *resty.Client
	apiKey        string
	logger        *zap.Logger
	limiter       *rate.Limiter
}

// ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new bazaar API client.
func NewClient(cfg *config.Bazaar, logger *zap.Logger) *Client {
	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &Client{
		bazaarClient:  resty.New().SetBaseURL(hypixelBaseURL),
		historyClient: resty.New().SetBaseURL(coflnetBaseURL),
		apiKey:        cfg.ApiKey,
		logger:        logger,
		limiter:       limiter,
	}
}

// QuickStatus is the per-product quote summary the bazaar endpoint returns.
// buyPrice is the instant-buy price, sellPrice the instant-sell price.
type QuickStatus struct {
	ProductID      string  `json:"productId"`
	SellPrice      float64 `json:"sellPrice"`
	SellVolume     float64 `json:"sellVolume"`
	SellMovingWeek float64 `json:"sellMovingWeek"`
	SellOrders     int64   `json:"sellOrders"`
	BuyPrice       float64 `json:"buyPrice"`
	BuyVolume      float64 `json:"buyVolume"`
	BuyMovingWeek  float64 `json:"buyMovingWeek"`
	BuyOrders      int64   `json:"buyOrders"`
}

// bazaarResponse is the full response from the /skyblock/bazaar endpoint.
type bazaarResponse struct {
	Success  bool `json:"success"`
	Products map[string]struct {
		QuickStatus QuickStatus `json:"quick_status"`
	} `json:"products"`
}

// HistoryEntry is one sample from the coflnet weekly history endpoint.
// Buy and sell are pointers because the API emits nulls for thin markets;
// callers drop those entries.
type HistoryEntry struct {
	Buy       *float64 `json:"buy"`
	Sell      *float64 `json:"sell"`
	Timestamp string   `json:"timestamp"`
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *Client) doRequest(ctx context.Context, client *resty.Client, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", client.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 { // Server errors
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		// If we should retry, calculate wait time
		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

// GetBazaarQuotes fetches the current quote summary for every bazaar product.
func (c *Client) GetBazaarQuotes() (map[string]QuickStatus, error) {
	var result bazaarResponse

	req := c.bazaarClient.R().
		SetResult(&result).
		SetHeader("Content-Type", "application/json")
	if c.apiKey != "" {
		req.SetHeader("API-Key", c.apiKey)
	}
	ctx := context.Background()

	resp, err := c.doRequest(ctx, c.bazaarClient, "GET", "/skyblock/bazaar", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get bazaar quotes: %w", err)
	}

	parsed := resp.Result().(*bazaarResponse)
	if !parsed.Success {
		return nil, fmt.Errorf("bazaar endpoint reported success=false")
	}

	quotes := make(map[string]QuickStatus, len(parsed.Products))
	for productID, product := range parsed.Products {
		status := product.QuickStatus
		status.ProductID = productID
		quotes[productID] = status
	}

	return quotes, nil
}

// GetProductHistory fetches one week of price history for a single product.
func (c *Client) GetProductHistory(productID string) ([]HistoryEntry, error) {
	var entries []HistoryEntry

	req := c.historyClient.R().
		SetResult(&entries).
		SetHeader("accept", "text/plain")
	ctx := context.Background()

	url := fmt.Sprintf("/bazaar/%s/history/week", productID)
	resp, err := c.doRequest(ctx, c.historyClient, "GET", url, req)
	if err != nil {
		return nil, fmt.Errorf("failed to get price history for %s: %w", productID, err)
	}

	return *resp.Result().(*[]HistoryEntry), nil
}
