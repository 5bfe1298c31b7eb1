// Package domain defines the core types shared across the advisor modules.
// The domain layer is pure: no infrastructure dependencies.
package domain

import "time"

// Candle is a single OHLCV sample in a price series.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// PriceSeries is an ordered sequence of candles for one symbol, ascending by
// time with no duplicate timestamps.
type PriceSeries struct {
	Symbol  string   `json:"symbol"`
	Candles []Candle `json:"candles"`
}

// Empty reports whether the series holds no samples.
func (s PriceSeries) Empty() bool {
	return len(s.Candles) == 0
}

// Closes returns the closing prices in time order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		closes[i] = c.Close
	}
	return closes
}

// Timestamps returns the sample timestamps in time order.
func (s PriceSeries) Timestamps() []time.Time {
	ts := make([]time.Time, len(s.Candles))
	for i, c := range s.Candles {
		ts[i] = c.Timestamp
	}
	return ts
}

// LastClose returns the most recent close, or 0 for an empty series.
func (s PriceSeries) LastClose() float64 {
	if s.Empty() {
		return 0
	}
	return s.Candles[len(s.Candles)-1].Close
}

// PreviousClose returns the close before the most recent one. For a series
// with a single sample it returns that sample's close.
func (s PriceSeries) PreviousClose() float64 {
	if s.Empty() {
		return 0
	}
	if len(s.Candles) < 2 {
		return s.Candles[len(s.Candles)-1].Close
	}
	return s.Candles[len(s.Candles)-2].Close
}

// NewsItem is a single news headline for a symbol.
type NewsItem struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Publisher string    `json:"publisher"`
	Published time.Time `json:"published"`
}

// EarningsReport holds the latest reported and estimated earnings for a symbol.
type EarningsReport struct {
	Symbol   string  `json:"symbol"`
	Actual   float64 `json:"actual"`
	Estimate float64 `json:"estimate"`
}

// IntentKind is the primary category of a classified query.
type IntentKind string

const (
	IntentMarketInfo        IntentKind = "market_info"
	IntentPortfolioAnalysis IntentKind = "portfolio_analysis"
	IntentRiskAssessment    IntentKind = "risk_assessment"
	IntentStockSpecific     IntentKind = "stock_specific"
	IntentEconomicData      IntentKind = "economic_data"
	IntentUnknown           IntentKind = "unknown"
)

// Intent is the classified purpose of a user query. Created once per query
// and never mutated afterwards.
type Intent struct {
	PrimaryIntent       IntentKind `json:"primary_intent"`
	Entities            []string   `json:"entities"`
	Timeframe           string     `json:"timeframe"`
	RequiresNumericData bool       `json:"requires_numeric_data"`
	Confidence          float64    `json:"confidence"`
}

// UnknownIntent is the degraded classification used when no strategy can
// produce a better answer.
func UnknownIntent() Intent {
	return Intent{
		PrimaryIntent:       IntentUnknown,
		Entities:            []string{},
		Timeframe:           "current",
		RequiresNumericData: true,
		Confidence:          0.0,
	}
}

// ContextItem is one piece of context handed to the narration collaborator.
type ContextItem struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

// RoutedResponse is the final answer produced by the router for one query.
type RoutedResponse struct {
	RequestID string `json:"request_id"`
	Text      string `json:"text"`
	Data      any    `json:"data"`
	Error     string `json:"error,omitempty"`
}

// AssetMetrics is the per-ticker computed bundle. Volatility, MaxDrawdown and
// VaR95 are percentages; Beta and SharpeRatio are unitless.
type AssetMetrics struct {
	Volatility       float64 `json:"volatility"`
	Beta             float64 `json:"beta"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	DrawdownDuration int     `json:"drawdown_duration"`
	VaR95            float64 `json:"var_95"`
	Error            string  `json:"error,omitempty"`
}

// PortfolioAggregate is the portfolio-level metrics bundle.
type PortfolioAggregate struct {
	Volatility        float64                       `json:"volatility"`
	Beta              float64                       `json:"beta"`
	SharpeRatio       float64                       `json:"sharpe_ratio"`
	MaxDrawdown       float64                       `json:"max_drawdown"`
	DrawdownDuration  int                           `json:"drawdown_duration"`
	VaR95             float64                       `json:"var_95"`
	CorrelationMatrix map[string]map[string]float64 `json:"correlation_matrix"`
}

// PortfolioMetrics is the full output of a portfolio analysis.
// len(Tickers) == len(Weights) and the weights sum to 1.
type PortfolioMetrics struct {
	Tickers           []string                `json:"tickers"`
	Weights           []float64               `json:"weights"`
	IndividualMetrics map[string]AssetMetrics `json:"individual_metrics"`
	PortfolioMetrics  PortfolioAggregate      `json:"portfolio_metrics"`
	Error             string                  `json:"error,omitempty"`
}

// TickerRisk is the reduced metrics bundle used in exposure reports.
type TickerRisk struct {
	Volatility float64 `json:"volatility"`
	Beta       float64 `json:"beta"`
	VaR95      float64 `json:"var_95"`
}

// ExposureReport is the output of a region/sector risk exposure analysis.
type ExposureReport struct {
	Region            string                `json:"region"`
	Sector            string                `json:"sector,omitempty"`
	Tickers           []string              `json:"tickers"`
	Metrics           map[string]TickerRisk `json:"metrics"`
	AverageMetrics    TickerRisk            `json:"average_metrics"`
	RiskLevel         string                `json:"risk_level"`
	EarningsSurprises map[string]float64    `json:"earnings_surprises"`
	Sentiment         string                `json:"sentiment,omitempty"`
	Error             string                `json:"error,omitempty"`
}

// IndexQuote is the latest value of one market index.
type IndexQuote struct {
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
	Error         string  `json:"error,omitempty"`
}

// SectorQuote is the recent performance of one sector ETF.
type SectorQuote struct {
	PercentChange float64 `json:"percent_change"`
	Trend         string  `json:"trend,omitempty"`
}

// StockQuote is the latest price snapshot for one ticker.
type StockQuote struct {
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
}

// Allocation describes how portfolio exposure splits across regions and
// sectors, in percent of total value.
type Allocation struct {
	Regions map[string]float64 `json:"regions"`
	Sectors map[string]float64 `json:"sectors"`
}

// AsiaTechHolding is a per-ticker snapshot inside the asia-tech exposure.
type AsiaTechHolding struct {
	CurrentPrice  float64 `json:"current_price"`
	PreviousPrice float64 `json:"previous_price"`
	PercentChange float64 `json:"percent_change"`
}

// ExposureSummary describes the allocation shift of a tracked exposure.
type ExposureSummary struct {
	Percentage         float64 `json:"percentage"`
	PreviousPercentage float64 `json:"previous_percentage"`
	Change             float64 `json:"change"`
	MovementDirection  string  `json:"movement_direction"`
}

// AsiaTechExposure bundles the asia-tech allocation, its per-ticker holdings,
// significant earnings surprises and the derived sentiment label.
type AsiaTechExposure struct {
	Exposure          ExposureSummary            `json:"exposure"`
	Holdings          map[string]AsiaTechHolding `json:"holdings"`
	EarningsSurprises map[string]float64         `json:"earnings_surprises"`
	Sentiment         string                     `json:"sentiment"`
	AvgPriceChange    float64                    `json:"avg_price_change"`
}

// PortfolioSnapshot is the portfolio allocation overview served to clients.
type PortfolioSnapshot struct {
	TotalValue         float64          `json:"total_value"`
	DailyChangePercent float64          `json:"daily_change_percent"`
	Allocation         Allocation       `json:"allocation"`
	AsiaTech           AsiaTechExposure `json:"asia_tech"`
}

// MorningBrief bundles the data backing the daily market brief.
type MorningBrief struct {
	Date               string                `json:"date"`
	Indices            map[string]IndexQuote `json:"indices"`
	EconomicIndicators map[string]float64    `json:"economic_indicators"`
	RegionExposure     ExposureReport        `json:"region_exposure"`
	AsiaTech           AsiaTechExposure      `json:"asia_tech"`
}
