// Package portfolio aggregates per-asset analytics into portfolio and
// region/sector exposure reports, and assembles the daily morning brief.
package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/analytics"
	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/pkg/formulas"
)

// MarketSource is the slice of the market data service the aggregator needs.
type MarketSource interface {
	Series(ctx context.Context, symbol, period, interval string) (domain.PriceSeries, error)
	MarketIndices(ctx context.Context) map[string]domain.IndexQuote
	EconomicIndicators(ctx context.Context) map[string]float64
	AsiaTechExposure(ctx context.Context) domain.AsiaTechExposure
}

// Config carries the aggregator tunables.
type Config struct {
	// BenchmarkSymbol is the market proxy used for beta, "^GSPC" by default.
	BenchmarkSymbol string
	// RiskFreeRate is the annual risk-free rate for Sharpe ratios.
	RiskFreeRate float64
	// BriefRegion and BriefSector focus the morning brief's exposure block.
	BriefRegion string
	BriefSector string
}

// Aggregator computes portfolio-level and exposure-level risk reports.
type Aggregator struct {
	market MarketSource
	cfg    Config
	log    zerolog.Logger

	// now is swappable in tests.
	now func() time.Time
}

// NewAggregator creates an aggregator over the given market source.
func NewAggregator(market MarketSource, cfg Config, log zerolog.Logger) *Aggregator {
	if cfg.BenchmarkSymbol == "" {
		cfg.BenchmarkSymbol = "^GSPC"
	}
	if cfg.RiskFreeRate == 0 {
		cfg.RiskFreeRate = analytics.DefaultRiskFreeRate
	}
	return &Aggregator{
		market: market,
		cfg:    cfg,
		log:    log.With().Str("component", "portfolio").Logger(),
		now:    time.Now,
	}
}

// AnalyzePortfolio computes per-ticker and portfolio-level risk metrics over
// a one-year daily window. Nil weights mean equal weighting; any weights are
// re-normalized to sum to 1. A ticker whose data cannot be fetched gets an
// error entry but never fails the whole analysis; invalid input, a missing
// benchmark, or every ticker failing does, reported through the Error field.
func (a *Aggregator) AnalyzePortfolio(ctx context.Context, tickers []string, weights []float64) domain.PortfolioMetrics {
	if len(tickers) == 0 {
		return domain.PortfolioMetrics{Error: "no tickers provided"}
	}

	weights, err := normalizeWeights(tickers, weights)
	if err != nil {
		return domain.PortfolioMetrics{Error: err.Error()}
	}

	benchmark, err := a.market.Series(ctx, a.cfg.BenchmarkSymbol, "1y", "1d")
	if err != nil {
		a.log.Error().Err(err).Msg("Benchmark series unavailable")
		return domain.PortfolioMetrics{Error: fmt.Sprintf("benchmark data unavailable: %v", err)}
	}
	benchmarkCloses := benchmark.Closes()

	result := domain.PortfolioMetrics{
		Tickers:           tickers,
		Weights:           weights,
		IndividualMetrics: make(map[string]domain.AssetMetrics, len(tickers)),
	}

	returnsData := make(map[string][]float64, len(tickers))
	timestampsData := make(map[string][]time.Time, len(tickers))

	for _, ticker := range tickers {
		series, err := a.market.Series(ctx, ticker, "1y", "1d")
		if err != nil || series.Empty() {
			a.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to analyze ticker")
			msg := "no price data"
			if err != nil {
				msg = err.Error()
			}
			result.IndividualMetrics[ticker] = domain.AssetMetrics{Error: msg}
			continue
		}

		closes := series.Closes()
		returns := formulas.CalculateReturns(closes)
		returnsData[ticker] = returns
		timestampsData[ticker] = series.Timestamps()

		drawdown := analytics.MaxDrawdown(closes, series.Timestamps())
		result.IndividualMetrics[ticker] = domain.AssetMetrics{
			Volatility:       analytics.Volatility(closes, analytics.VolatilityWindow) * 100,
			Beta:             analytics.Beta(closes, benchmarkCloses, analytics.BetaWindow),
			SharpeRatio:      analytics.SharpeRatio(returns, a.cfg.RiskFreeRate, analytics.SharpeWindow),
			MaxDrawdown:      drawdown.MaxDrawdown,
			DrawdownDuration: drawdown.Duration,
			VaR95:            analytics.ValueAtRisk(returns, 0.95, analytics.VaRWindow),
		}
	}

	if len(returnsData) == 0 {
		a.log.Error().Strs("tickers", tickers).Msg("No ticker resolved any price data")
		result.Error = "no price data available for any ticker"
		return result
	}

	blended, blendedTimes := blendReturns(tickers, weights, returnsData, timestampsData)

	// Weighted sum of individual betas; failed tickers contribute zero.
	portfolioBeta := 0.0
	for i, ticker := range tickers {
		m, ok := result.IndividualMetrics[ticker]
		if ok && m.Error == "" {
			portfolioBeta += m.Beta * weights[i]
		}
	}

	// Synthetic value series compounding the blended returns from 1.0.
	values := make([]float64, len(blended))
	if len(values) > 0 {
		values[0] = 1.0
		for i := 1; i < len(values); i++ {
			values[i] = values[i-1] * (1 + blended[i])
		}
	}
	portfolioDrawdown := analytics.MaxDrawdown(values, blendedTimes)

	result.PortfolioMetrics = domain.PortfolioAggregate{
		Volatility:        formulas.AnnualizedVolatility(blended) * 100,
		Beta:              portfolioBeta,
		SharpeRatio:       analytics.SharpeRatio(blended, a.cfg.RiskFreeRate, analytics.SharpeWindow),
		MaxDrawdown:       portfolioDrawdown.MaxDrawdown,
		DrawdownDuration:  portfolioDrawdown.Duration,
		VaR95:             analytics.ValueAtRisk(blended, 0.95, analytics.VaRWindow),
		CorrelationMatrix: correlationMatrix(tickers, returnsData),
	}

	return result
}

// AnalyzeRiskExposure computes the risk profile of a region, optionally
// narrowed to one sector, over a one-month daily window. Unknown regions or
// sectors are rejected before any data is fetched.
func (a *Aggregator) AnalyzeRiskExposure(ctx context.Context, region, sector string) domain.ExposureReport {
	tickers, err := tickersFor(region, sector)
	if err != nil {
		return domain.ExposureReport{Error: err.Error()}
	}

	benchmark, err := a.market.Series(ctx, a.cfg.BenchmarkSymbol, "1mo", "1d")
	if err != nil {
		a.log.Error().Err(err).Msg("Benchmark series unavailable")
		return domain.ExposureReport{Error: fmt.Sprintf("benchmark data unavailable: %v", err)}
	}
	benchmarkCloses := benchmark.Closes()

	report := domain.ExposureReport{
		Region:  region,
		Sector:  sector,
		Tickers: tickers,
		Metrics: make(map[string]domain.TickerRisk, len(tickers)),
	}

	var volSum, betaSum, varSum float64
	for _, ticker := range tickers {
		series, err := a.market.Series(ctx, ticker, "1mo", "1d")
		if err != nil || series.Empty() {
			a.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to analyze exposure ticker")
			continue
		}

		closes := series.Closes()
		returns := formulas.CalculateReturns(closes)
		risk := domain.TickerRisk{
			Volatility: analytics.Volatility(closes, analytics.VolatilityWindow) * 100,
			Beta:       analytics.Beta(closes, benchmarkCloses, analytics.BetaWindow),
			VaR95:      analytics.ValueAtRisk(returns, 0.95, analytics.VaRWindow),
		}
		report.Metrics[ticker] = risk

		volSum += risk.Volatility
		betaSum += risk.Beta
		varSum += risk.VaR95
	}

	if n := float64(len(report.Metrics)); n > 0 {
		report.AverageMetrics = domain.TickerRisk{
			Volatility: volSum / n,
			Beta:       betaSum / n,
			VaR95:      varSum / n,
		}
	}
	report.RiskLevel = riskLevel(report.AverageMetrics.Volatility)

	asiaTech := a.market.AsiaTechExposure(ctx)
	report.EarningsSurprises = asiaTech.EarningsSurprises
	if region == "Asia" {
		report.Sentiment = asiaTech.Sentiment
	}

	return report
}

// MorningBrief assembles the data backing the daily brief: indices, the
// configured region/sector exposure, economic indicators and the asia-tech
// block.
func (a *Aggregator) MorningBrief(ctx context.Context) domain.MorningBrief {
	return domain.MorningBrief{
		Date:               a.now().Format("2006-01-02"),
		Indices:            a.market.MarketIndices(ctx),
		EconomicIndicators: a.market.EconomicIndicators(ctx),
		RegionExposure:     a.AnalyzeRiskExposure(ctx, a.cfg.BriefRegion, a.cfg.BriefSector),
		AsiaTech:           a.market.AsiaTechExposure(ctx),
	}
}

// normalizeWeights defaults to equal weights and scales any provided weights
// to sum to one.
func normalizeWeights(tickers []string, weights []float64) ([]float64, error) {
	if weights == nil {
		weights = make([]float64, len(tickers))
		for i := range weights {
			weights[i] = 1.0 / float64(len(tickers))
		}
		return weights, nil
	}

	if len(weights) != len(tickers) {
		return nil, fmt.Errorf("got %d weights for %d tickers", len(weights), len(tickers))
	}

	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum == 0 {
		return nil, fmt.Errorf("weights sum to zero")
	}

	normalized := make([]float64, len(weights))
	for i, w := range weights {
		normalized[i] = w / sum
	}
	return normalized, nil
}

// blendReturns builds the weighted portfolio return series. Series are
// aligned at their most recent sample; a ticker missing a day contributes
// zero for it. The returned timestamps come from the longest series.
func blendReturns(tickers []string, weights []float64, returnsData map[string][]float64, timestampsData map[string][]time.Time) ([]float64, []time.Time) {
	maxLen := 0
	var refTimes []time.Time
	for ticker, returns := range returnsData {
		if len(returns) > maxLen {
			maxLen = len(returns)
			ts := timestampsData[ticker]
			// Returns are one shorter than the price series; drop the
			// first timestamp to stay aligned.
			if len(ts) > len(returns) {
				ts = ts[len(ts)-len(returns):]
			}
			refTimes = ts
		}
	}
	if maxLen == 0 {
		return nil, nil
	}

	blended := make([]float64, maxLen)
	for i, ticker := range tickers {
		returns, ok := returnsData[ticker]
		if !ok {
			continue
		}
		offset := maxLen - len(returns)
		for j, r := range returns {
			blended[offset+j] += r * weights[i]
		}
	}
	return blended, refTimes
}

// correlationMatrix computes the pairwise correlation of ticker returns,
// rounded to two decimals. Pairs are tail-aligned to their common length.
func correlationMatrix(tickers []string, returnsData map[string][]float64) map[string]map[string]float64 {
	matrix := make(map[string]map[string]float64)
	for _, a := range tickers {
		ra, ok := returnsData[a]
		if !ok {
			continue
		}
		row := make(map[string]float64)
		for _, b := range tickers {
			rb, ok := returnsData[b]
			if !ok {
				continue
			}
			if a == b {
				row[b] = 1.0
				continue
			}
			n := len(ra)
			if len(rb) < n {
				n = len(rb)
			}
			row[b] = formulas.Round(formulas.Correlation(formulas.Tail(ra, n), formulas.Tail(rb, n)), 2)
		}
		matrix[a] = row
	}
	return matrix
}

// riskLevel maps average volatility in percent to a qualitative label.
func riskLevel(avgVolatility float64) string {
	switch {
	case avgVolatility > 30:
		return "Very High"
	case avgVolatility > 20:
		return "High"
	case avgVolatility > 15:
		return "Moderate to High"
	case avgVolatility > 10:
		return "Moderate"
	default:
		return "Low"
	}
}
