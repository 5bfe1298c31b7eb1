// Package analytics computes the risk metrics the advisor reports: annualized
// volatility, beta, Sharpe ratio, drawdown and historical Value at Risk. All
// functions are pure, take price or return series and degrade to documented
// defaults instead of failing.
package analytics

import (
	"time"

	"github.com/aristath/advisor/pkg/formulas"
)

// Default lookback windows in trading days.
const (
	VolatilityWindow = 20
	BetaWindow       = 60
	SharpeWindow     = 252
	VaRWindow        = 252
)

// DefaultRiskFreeRate is the annual risk-free rate used when the caller does
// not supply one.
const DefaultRiskFreeRate = 0.035

// Drawdown is the worst peak-to-trough decline of a price series.
type Drawdown struct {
	// MaxDrawdown is the decline in percent, zero or negative.
	MaxDrawdown float64
	// Duration is the peak-to-trough span in calendar days.
	Duration int
}

// Volatility returns the annualized volatility of a price series as a
// decimal (0.15 = 15%), computed over the last window daily returns. Series
// too short for the window use whatever is available; degenerate input
// yields 0.
func Volatility(prices []float64, window int) float64 {
	returns := formulas.CalculateReturns(prices)
	if len(returns) == 0 {
		return 0
	}
	if len(returns) >= window {
		returns = formulas.Tail(returns, window)
	}
	return formulas.AnnualizedVolatility(returns)
}

// Beta returns the beta of a stock against a market series over the last
// window aligned daily returns. When the market shows no variance, or either
// series is degenerate, beta defaults to 1.0 (the market itself).
func Beta(stockPrices, marketPrices []float64, window int) float64 {
	stockReturns := formulas.CalculateReturns(stockPrices)
	marketReturns := formulas.CalculateReturns(marketPrices)

	n := len(stockReturns)
	if len(marketReturns) < n {
		n = len(marketReturns)
	}
	if n < 2 {
		return 1.0
	}

	stockReturns = formulas.Tail(stockReturns[len(stockReturns)-n:], window)
	marketReturns = formulas.Tail(marketReturns[len(marketReturns)-n:], window)

	marketVariance := formulas.Variance(marketReturns)
	if marketVariance == 0 {
		return 1.0
	}
	return formulas.Covariance(stockReturns, marketReturns) / marketVariance
}

// SharpeRatio returns the annualized Sharpe ratio of a daily return series
// over the last window samples. Zero standard deviation yields 0.
func SharpeRatio(returns []float64, riskFreeRate float64, window int) float64 {
	returns = formulas.Tail(returns, window)
	if len(returns) == 0 {
		return 0
	}

	meanReturn := formulas.Mean(returns) * formulas.TradingDaysPerYear
	stdDev := formulas.AnnualizedVolatility(returns)
	if stdDev == 0 {
		return 0
	}
	return (meanReturn - riskFreeRate) / stdDev
}

// MaxDrawdown returns the deepest peak-to-trough decline of a price series in
// percent, with the peak-to-trough duration in calendar days. Timestamps may
// be nil or mismatched, in which case the duration is 0. Empty input yields
// the zero Drawdown.
func MaxDrawdown(prices []float64, timestamps []time.Time) Drawdown {
	if len(prices) == 0 {
		return Drawdown{}
	}

	runningMax := prices[0]
	maxDD := 0.0
	peakIdx, troughIdx := 0, 0
	currentPeak := 0

	for i, p := range prices {
		if p > runningMax {
			runningMax = p
			currentPeak = i
		}
		if runningMax == 0 {
			continue
		}
		dd := (p/runningMax - 1) * 100
		if dd < maxDD {
			maxDD = dd
			peakIdx = currentPeak
			troughIdx = i
		}
	}

	duration := 0
	if len(timestamps) == len(prices) && troughIdx > peakIdx {
		duration = int(timestamps[troughIdx].Sub(timestamps[peakIdx]).Hours() / 24)
	}

	return Drawdown{MaxDrawdown: maxDD, Duration: duration}
}

// ValueAtRisk returns the historical VaR of a daily return series at the
// given confidence level (0.95 for 95%), over the last window samples, as a
// percentage of investment. The result is the return quantile at
// 1-confidence, so losses come out negative. Empty input yields 0.
func ValueAtRisk(returns []float64, confidence float64, window int) float64 {
	returns = formulas.Tail(returns, window)
	if len(returns) == 0 {
		return 0
	}
	return formulas.Quantile(returns, 1-confidence) * 100
}
