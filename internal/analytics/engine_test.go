package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/advisor/pkg/formulas"
)

func TestVolatility(t *testing.T) {
	t.Run("constant prices have zero volatility", func(t *testing.T) {
		prices := []float64{100, 100, 100, 100, 100}
		assert.Zero(t, Volatility(prices, VolatilityWindow))
	})

	t.Run("empty and single-price series yield zero", func(t *testing.T) {
		assert.Zero(t, Volatility(nil, VolatilityWindow))
		assert.Zero(t, Volatility([]float64{100}, VolatilityWindow))
	})

	t.Run("matches annualized stdev of returns", func(t *testing.T) {
		prices := []float64{100, 102, 101, 103, 105, 104}
		returns := formulas.CalculateReturns(prices)
		want := formulas.StdDev(returns) * math.Sqrt(formulas.TradingDaysPerYear)
		assert.InDelta(t, want, Volatility(prices, VolatilityWindow), 1e-12)
	})

	t.Run("uses only the last window returns", func(t *testing.T) {
		// Wild swings outside the window must not affect the result.
		prices := []float64{100, 300, 50, 100}
		flat := make([]float64, 30)
		for i := range flat {
			flat[i] = 100
		}
		prices = append(prices, flat...)
		assert.Zero(t, Volatility(prices, 20))
	})
}

func TestBeta(t *testing.T) {
	t.Run("identical series have beta one", func(t *testing.T) {
		prices := []float64{100, 102, 99, 104, 103, 107}
		assert.InDelta(t, 1.0, Beta(prices, prices, BetaWindow), 1e-9)
	})

	t.Run("doubled moves have beta two", func(t *testing.T) {
		market := []float64{100, 101, 100, 102, 101}
		stock := make([]float64, len(market))
		for i, m := range market {
			// Stock return is exactly twice the market return each day.
			if i == 0 {
				stock[i] = 100
				continue
			}
			r := (m - market[i-1]) / market[i-1]
			stock[i] = stock[i-1] * (1 + 2*r)
		}
		assert.InDelta(t, 2.0, Beta(stock, market, BetaWindow), 1e-9)
	})

	t.Run("flat market defaults to one", func(t *testing.T) {
		stock := []float64{100, 102, 99, 104}
		market := []float64{100, 100, 100, 100}
		assert.InDelta(t, 1.0, Beta(stock, market, BetaWindow), 1e-9)
	})

	t.Run("degenerate input defaults to one", func(t *testing.T) {
		assert.InDelta(t, 1.0, Beta(nil, nil, BetaWindow), 1e-9)
		assert.InDelta(t, 1.0, Beta([]float64{100}, []float64{100}, BetaWindow), 1e-9)
	})
}

func TestSharpeRatio(t *testing.T) {
	t.Run("zero stdev yields zero", func(t *testing.T) {
		returns := []float64{0.01, 0.01, 0.01}
		assert.Zero(t, SharpeRatio(returns, DefaultRiskFreeRate, SharpeWindow))
	})

	t.Run("empty returns yield zero", func(t *testing.T) {
		assert.Zero(t, SharpeRatio(nil, DefaultRiskFreeRate, SharpeWindow))
	})

	t.Run("positive excess return gives positive ratio", func(t *testing.T) {
		returns := []float64{0.01, 0.02, -0.005, 0.015, 0.01}
		got := SharpeRatio(returns, DefaultRiskFreeRate, SharpeWindow)
		assert.Greater(t, got, 0.0)
	})

	t.Run("higher risk-free rate lowers the ratio", func(t *testing.T) {
		returns := []float64{0.01, 0.02, -0.005, 0.015, 0.01}
		low := SharpeRatio(returns, 0.01, SharpeWindow)
		high := SharpeRatio(returns, 0.05, SharpeWindow)
		assert.Greater(t, low, high)
	})
}

func TestMaxDrawdown(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	days := func(n int) []time.Time {
		ts := make([]time.Time, n)
		for i := range ts {
			ts[i] = base.AddDate(0, 0, i)
		}
		return ts
	}

	t.Run("monotonic rise has zero drawdown", func(t *testing.T) {
		prices := []float64{100, 101, 102, 103}
		dd := MaxDrawdown(prices, days(len(prices)))
		assert.Zero(t, dd.MaxDrawdown)
		assert.Zero(t, dd.Duration)
	})

	t.Run("single decline measured from peak", func(t *testing.T) {
		prices := []float64{100, 110, 99, 104}
		dd := MaxDrawdown(prices, days(len(prices)))
		assert.InDelta(t, -10.0, dd.MaxDrawdown, 1e-9)
		assert.Equal(t, 1, dd.Duration)
	})

	t.Run("drawdown is never positive", func(t *testing.T) {
		prices := []float64{100, 90, 120, 80, 150}
		dd := MaxDrawdown(prices, days(len(prices)))
		assert.LessOrEqual(t, dd.MaxDrawdown, 0.0)
	})

	t.Run("nil timestamps give zero duration", func(t *testing.T) {
		prices := []float64{100, 110, 90}
		dd := MaxDrawdown(prices, nil)
		assert.InDelta(t, -18.181818, dd.MaxDrawdown, 1e-4)
		assert.Zero(t, dd.Duration)
	})

	t.Run("empty series yields zero value", func(t *testing.T) {
		assert.Equal(t, Drawdown{}, MaxDrawdown(nil, nil))
	})
}

func TestValueAtRisk(t *testing.T) {
	t.Run("empty returns yield zero", func(t *testing.T) {
		assert.Zero(t, ValueAtRisk(nil, 0.95, VaRWindow))
	})

	t.Run("uniform losses report that loss", func(t *testing.T) {
		returns := []float64{-0.02, -0.02, -0.02, -0.02}
		assert.InDelta(t, -2.0, ValueAtRisk(returns, 0.95, VaRWindow), 1e-9)
	})

	t.Run("lower confidence is less severe", func(t *testing.T) {
		returns := []float64{-0.05, -0.01, 0.0, 0.01, 0.02, 0.03, -0.02, 0.015}
		var95 := ValueAtRisk(returns, 0.95, VaRWindow)
		var80 := ValueAtRisk(returns, 0.80, VaRWindow)
		assert.LessOrEqual(t, var95, var80)
	})
}
