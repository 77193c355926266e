package binance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"auto-trade-bot-go/internal/config"
	"auto-trade-bot-go/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrUnavailable marks a failure of the upstream market data service.
// Callers treat it as a distinct "try again later" condition.
var ErrUnavailable = errors.New("binance: market data service unavailable")

// MarketDataInterface defines the market data operations the trading
// core consumes.
type MarketDataInterface interface {
	GetLivePrice(symbol string) (decimal.Decimal, error)
	GetHistoricalData(symbol, interval string, limit int) ([]models.BarData, error)
}

// RestClient is a read-only client for the Binance public REST API.
// It implements MarketDataInterface.
type RestClient struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure RestClient implements the interface
var _ MarketDataInterface = (*RestClient)(nil)

// NewRestClient creates a new Binance market data client.
func NewRestClient(cfg *config.Binance, logger *zap.Logger) *RestClient {
	client := resty.New().SetBaseURL(cfg.BaseURL)

	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &RestClient{
		client:  client,
		logger:  logger,
		limiter: limiter,
	}
}

// GetServerTime fetches the current server time from Binance.
// This is a good endpoint to test connectivity.
func (c *RestClient) GetServerTime() (int64, error) {
	type ServerTimeResponse struct {
		ServerTime int64 `json:"serverTime"`
	}

	req := c.client.R().
		SetResult(&ServerTimeResponse{})

	resp, err := c.doRequest(context.Background(), "GET", "/time", req)
	if err != nil {
		c.logger.Error("Failed to get server time", zap.Error(err))
		return 0, fmt.Errorf("failed to get server time: %w", err)
	}

	result := resp.Result().(*ServerTimeResponse)
	return result.ServerTime, nil
}

// TickerPrice represents the response for a single ticker price.
type TickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// GetLivePrice fetches the latest traded price for one symbol.
func (c *RestClient) GetLivePrice(symbol string) (decimal.Decimal, error) {
	var ticker TickerPrice

	req := c.client.R().
		SetQueryParam("symbol", symbol).
		SetResult(&ticker)

	resp, err := c.doRequest(context.Background(), "GET", "/ticker/price", req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get price for %s: %w", symbol, err)
	}

	result := resp.Result().(*TickerPrice)
	price, err := decimal.NewFromString(result.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: unparsable price %q for %s", ErrUnavailable, result.Price, symbol)
	}
	return price, nil
}

// GetHistoricalData fetches up to limit klines for (symbol, interval)
// and maps them to cached bar rows. The interval must be a supported
// kline interval code.
func (c *RestClient) GetHistoricalData(symbol, interval string, limit int) ([]models.BarData, error) {
	if !models.IsValidInterval(interval) {
		return nil, fmt.Errorf("invalid kline interval %q", interval)
	}

	// Each kline is a heterogenous JSON array:
	// [openTime, open, high, low, close, volume, closeTime, ...]
	var raw [][]interface{}

	req := c.client.R().
		SetQueryParams(map[string]string{
			"symbol":   symbol,
			"interval": interval,
			"limit":    strconv.Itoa(limit),
		}).
		SetResult(&raw)

	resp, err := c.doRequest(context.Background(), "GET", "/klines", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get klines for %s %s: %w", symbol, interval, err)
	}

	result := resp.Result().(*[][]interface{})
	bars := make([]models.BarData, 0, len(*result))
	for _, k := range *result {
		bar, err := parseKline(symbol, interval, k)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseKline(symbol, interval string, k []interface{}) (models.BarData, error) {
	if len(k) < 6 {
		return models.BarData{}, fmt.Errorf("malformed kline for %s: %d fields", symbol, len(k))
	}

	openMillis, ok := k[0].(float64)
	if !ok {
		return models.BarData{}, fmt.Errorf("malformed kline open time for %s", symbol)
	}

	fields := make([]decimal.Decimal, 5)
	for i := 1; i <= 5; i++ {
		s, ok := k[i].(string)
		if !ok {
			return models.BarData{}, fmt.Errorf("malformed kline field %d for %s", i, symbol)
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return models.BarData{}, fmt.Errorf("unparsable kline field %q for %s", s, symbol)
		}
		fields[i-1] = d
	}

	return models.BarData{
		Symbol:   symbol,
		Interval: interval,
		OpenTime: time.UnixMilli(int64(openMillis)),
		Open:     fields[0],
		High:     fields[1],
		Low:      fields[2],
		Close:    fields[3],
		Volume:   fields[4],
	}, nil
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *RestClient) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil && resp.StatusCode() != 0 {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests || statusCode == 418 { // HTTP 429 or 418
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
			return nil, fmt.Errorf("%w: request failed with status %s: %s", ErrUnavailable, resp.Status(), resp.String())
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

	return nil, fmt.Errorf("%w: request failed after %d attempts: %v", ErrUnavailable, maxRetries, err)
}
