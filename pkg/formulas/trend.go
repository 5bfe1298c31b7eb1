package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// CalculateSMA calculates the Simple Moving Average over the given length.
// Returns nil if there is not enough data.
func CalculateSMA(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length {
		return nil
	}

	sma := talib.Sma(closes, length)
	if len(sma) > 0 && !math.IsNaN(sma[len(sma)-1]) {
		result := sma[len(sma)-1]
		return &result
	}

	return nil
}

// TrendLabel classifies a price series as "up", "down" or "flat" by comparing
// the last close against its simple moving average. Returns "" when the
// series is too short to judge.
func TrendLabel(closes []float64, length int) string {
	sma := CalculateSMA(closes, length)
	if sma == nil || len(closes) == 0 {
		return ""
	}

	last := closes[len(closes)-1]
	switch {
	case last > *sma:
		return "up"
	case last < *sma:
		return "down"
	default:
		return "flat"
	}
}
