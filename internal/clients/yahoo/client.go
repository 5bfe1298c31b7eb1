// Package yahoo provides market data, news and earnings fetching from the
// Yahoo Finance public endpoints, with persistent cache fallback.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/clientdata"
	"github.com/aristath/advisor/internal/domain"
)

// Client for the Yahoo Finance chart/search/quoteSummary endpoints.
type Client struct {
	chartBaseURL   string
	searchBaseURL  string
	summaryBaseURL string
	client         *http.Client
	log            zerolog.Logger
	cacheRepo      *clientdata.Repository
}

// NewClient creates a new Yahoo Finance client.
// cacheRepo is optional - if nil, the stale-data fallback is disabled.
func NewClient(cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		chartBaseURL:   "https://query1.finance.yahoo.com/v8/finance/chart",
		searchBaseURL:  "https://query1.finance.yahoo.com/v1/finance/search",
		summaryBaseURL: "https://query1.finance.yahoo.com/v10/finance/quoteSummary",
		client:         &http.Client{Timeout: 10 * time.Second},
		log:            log.With().Str("client", "yahoo").Logger(),
		cacheRepo:      cacheRepo,
	}
}

// chartResponse mirrors the subset of the chart payload we consume.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchSeries retrieves a historical price series for a symbol.
// If the API fails, returns stale cached data if available (stale data > no data).
func (c *Client) FetchSeries(ctx context.Context, symbol, period, interval string) (domain.PriceSeries, error) {
	cacheKey := fmt.Sprintf("%s_%s_%s", symbol, period, interval)

	reqURL := fmt.Sprintf("%s/%s?range=%s&interval=%s",
		c.chartBaseURL, url.PathEscape(symbol), url.QueryEscape(period), url.QueryEscape(interval))

	var parsed chartResponse
	if err := c.getJSON(ctx, reqURL, &parsed); err != nil {
		if series, ok := c.staleSeries(cacheKey); ok {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("API failed, using stale cached series")
			return series, nil
		}
		return domain.PriceSeries{}, fmt.Errorf("chart request for %s failed: %w", symbol, err)
	}

	if parsed.Chart.Error != nil {
		if series, ok := c.staleSeries(cacheKey); ok {
			c.log.Warn().
				Str("symbol", symbol).
				Str("code", parsed.Chart.Error.Code).
				Msg("API error, using stale cached series")
			return series, nil
		}
		return domain.PriceSeries{}, fmt.Errorf("chart API error for %s: %s", symbol, parsed.Chart.Error.Code)
	}

	series := domain.PriceSeries{Symbol: symbol}
	if len(parsed.Chart.Result) > 0 && len(parsed.Chart.Result[0].Indicators.Quote) > 0 {
		result := parsed.Chart.Result[0]
		quote := result.Indicators.Quote[0]
		for i, ts := range result.Timestamp {
			// Samples with a null close are holes in the series; skip them so
			// downstream return calculations only see defined endpoints.
			if i >= len(quote.Close) || quote.Close[i] == nil {
				continue
			}
			candle := domain.Candle{
				Timestamp: time.Unix(ts, 0).UTC(),
				Close:     *quote.Close[i],
			}
			if i < len(quote.Open) && quote.Open[i] != nil {
				candle.Open = *quote.Open[i]
			}
			if i < len(quote.High) && quote.High[i] != nil {
				candle.High = *quote.High[i]
			}
			if i < len(quote.Low) && quote.Low[i] != nil {
				candle.Low = *quote.Low[i]
			}
			if i < len(quote.Volume) && quote.Volume[i] != nil {
				candle.Volume = *quote.Volume[i]
			}
			series.Candles = append(series.Candles, candle)
		}
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("market_data", cacheKey, series, clientdata.TTLMarketData); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to persist series to cache")
		}
	}

	return series, nil
}

// searchResponse mirrors the subset of the search payload we consume.
type searchResponse struct {
	News []struct {
		Title               string `json:"title"`
		Link                string `json:"link"`
		Publisher           string `json:"publisher"`
		ProviderPublishTime int64  `json:"providerPublishTime"`
	} `json:"news"`
}

// FetchNews retrieves recent headlines for a symbol.
func (c *Client) FetchNews(ctx context.Context, symbol string) ([]domain.NewsItem, error) {
	cacheKey := symbol

	reqURL := fmt.Sprintf("%s?q=%s&newsCount=10", c.searchBaseURL, url.QueryEscape(symbol))

	var parsed searchResponse
	if err := c.getJSON(ctx, reqURL, &parsed); err != nil {
		if items, ok := c.staleNews(cacheKey); ok {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("API failed, using stale cached news")
			return items, nil
		}
		return nil, fmt.Errorf("news request for %s failed: %w", symbol, err)
	}

	items := make([]domain.NewsItem, 0, len(parsed.News))
	for _, n := range parsed.News {
		items = append(items, domain.NewsItem{
			Title:     n.Title,
			Link:      n.Link,
			Publisher: n.Publisher,
			Published: time.Unix(n.ProviderPublishTime, 0).UTC(),
		})
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("news", cacheKey, items, clientdata.TTLNews); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to persist news to cache")
		}
	}

	return items, nil
}

// summaryResponse mirrors the subset of the quoteSummary payload we consume.
type summaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			EarningsHistory struct {
				History []struct {
					EpsActual struct {
						Raw float64 `json:"raw"`
					} `json:"epsActual"`
					EpsEstimate struct {
						Raw float64 `json:"raw"`
					} `json:"epsEstimate"`
				} `json:"history"`
			} `json:"earningsHistory"`
		} `json:"result"`
	} `json:"quoteSummary"`
}

// FetchEarnings retrieves the latest reported earnings for a symbol.
func (c *Client) FetchEarnings(ctx context.Context, symbol string) (domain.EarningsReport, error) {
	cacheKey := symbol

	reqURL := fmt.Sprintf("%s/%s?modules=earningsHistory", c.summaryBaseURL, url.PathEscape(symbol))

	var parsed summaryResponse
	if err := c.getJSON(ctx, reqURL, &parsed); err != nil {
		if report, ok := c.staleEarnings(cacheKey); ok {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("API failed, using stale cached earnings")
			return report, nil
		}
		return domain.EarningsReport{}, fmt.Errorf("earnings request for %s failed: %w", symbol, err)
	}

	report := domain.EarningsReport{Symbol: symbol}
	if len(parsed.QuoteSummary.Result) > 0 {
		history := parsed.QuoteSummary.Result[0].EarningsHistory.History
		if len(history) > 0 {
			latest := history[len(history)-1]
			report.Actual = latest.EpsActual.Raw
			report.Estimate = latest.EpsEstimate.Raw
		}
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("earnings", cacheKey, report, clientdata.TTLEarnings); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to persist earnings to cache")
		}
	}

	return report, nil
}

// getJSON performs a GET request and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, reqURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "advisor/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// staleSeries attempts to load a series from the persistent cache,
// ignoring expiry.
func (c *Client) staleSeries(key string) (domain.PriceSeries, bool) {
	if c.cacheRepo == nil {
		return domain.PriceSeries{}, false
	}
	data, err := c.cacheRepo.Get("market_data", key)
	if err != nil || data == nil {
		return domain.PriceSeries{}, false
	}
	var series domain.PriceSeries
	if err := json.Unmarshal(data, &series); err != nil {
		return domain.PriceSeries{}, false
	}
	return series, true
}

func (c *Client) staleNews(key string) ([]domain.NewsItem, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}
	data, err := c.cacheRepo.Get("news", key)
	if err != nil || data == nil {
		return nil, false
	}
	var items []domain.NewsItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}
	return items, true
}

func (c *Client) staleEarnings(key string) (domain.EarningsReport, bool) {
	if c.cacheRepo == nil {
		return domain.EarningsReport{}, false
	}
	data, err := c.cacheRepo.Get("earnings", key)
	if err != nil || data == nil {
		return domain.EarningsReport{}, false
	}
	var report domain.EarningsReport
	if err := json.Unmarshal(data, &report); err != nil {
		return domain.EarningsReport{}, false
	}
	return report, true
}
