package quotes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/advisor/internal/domain"
)

type fakeNews struct {
	items []domain.NewsItem
	err   error
}

func (f *fakeNews) FetchNews(context.Context, string) ([]domain.NewsItem, error) {
	return f.items, f.err
}

type fakeEarnings struct {
	reports map[string]domain.EarningsReport
}

func (f *fakeEarnings) FetchEarnings(_ context.Context, symbol string) (domain.EarningsReport, error) {
	report, ok := f.reports[symbol]
	if !ok {
		return domain.EarningsReport{}, errors.New("no earnings data")
	}
	return report, nil
}

func newTestService(provider *fakeProvider, news *fakeNews, earnings *fakeEarnings) *Service {
	cache := NewCache(provider, 5*time.Minute, zerolog.Nop())
	cfg := ServiceConfig{
		AllocationPct:         22,
		PreviousAllocationPct: 18,
		SurpriseThresholdPct:  1.0,
	}
	return NewService(cache, news, earnings, cfg, zerolog.Nop())
}

func TestMarketIndices(t *testing.T) {
	provider := newFakeProvider()
	provider.series["^GSPC"] = seriesOf("^GSPC", 5000, 5100)
	provider.errs["^FTSE"] = errors.New("upstream down")

	svc := newTestService(provider, &fakeNews{}, &fakeEarnings{})
	result := svc.MarketIndices(context.Background())

	require.Contains(t, result, "S&P 500")
	sp := result["S&P 500"]
	assert.InDelta(t, 5100, sp.Price, 1e-9)
	assert.InDelta(t, 2.0, sp.ChangePercent, 1e-9)
	assert.Empty(t, sp.Error)

	require.Contains(t, result, "FTSE 100")
	ftse := result["FTSE 100"]
	assert.Zero(t, ftse.Price)
	assert.NotEmpty(t, ftse.Error)

	// Every tracked index has an entry even when its data is missing.
	assert.Len(t, result, 6)
}

func TestSectorPerformance(t *testing.T) {
	provider := newFakeProvider()
	// Rising series: +4% over the window, last close above its average.
	provider.series["XLK"] = seriesOf("XLK", 100, 101, 102, 103, 104)
	// Falling series.
	provider.series["XLE"] = seriesOf("XLE", 100, 98, 96, 94, 92)

	svc := newTestService(provider, &fakeNews{}, &fakeEarnings{})
	result := svc.SectorPerformance(context.Background())

	tech := result["Technology"]
	assert.InDelta(t, 4.0, tech.PercentChange, 1e-9)
	assert.Equal(t, "up", tech.Trend)

	energy := result["Energy"]
	assert.InDelta(t, -8.0, energy.PercentChange, 1e-9)
	assert.Equal(t, "down", energy.Trend)

	// Sectors with no data report zero change.
	assert.Zero(t, result["Utilities"].PercentChange)
	assert.Len(t, result, 10)
}

func TestEconomicIndicators(t *testing.T) {
	provider := newFakeProvider()
	provider.series["^TNX"] = seriesOf("^TNX", 4.12345)
	provider.series["GC=F"] = seriesOf("GC=F", 2315.7)

	svc := newTestService(provider, &fakeNews{}, &fakeEarnings{})
	result := svc.EconomicIndicators(context.Background())

	assert.InDelta(t, 4.1234, result["10-Year Treasury Yield"], 1e-9)
	assert.InDelta(t, 2315.7, result["Gold"], 1e-9)
	assert.Zero(t, result["Crude Oil"])
	assert.Len(t, result, 7)
}

func TestStockQuote(t *testing.T) {
	provider := newFakeProvider()
	provider.series["AAPL"] = seriesOf("AAPL", 200, 210)

	svc := newTestService(provider, &fakeNews{}, &fakeEarnings{})

	quote, err := svc.StockQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.InDelta(t, 210, quote.Price, 1e-9)
	assert.InDelta(t, 5.0, quote.ChangePercent, 1e-9)

	_, err = svc.StockQuote(context.Background(), "GHOST")
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestStockNewsCapsAtFive(t *testing.T) {
	items := make([]domain.NewsItem, 8)
	for i := range items {
		items[i] = domain.NewsItem{Title: "headline"}
	}
	svc := newTestService(newFakeProvider(), &fakeNews{items: items}, &fakeEarnings{})

	got := svc.StockNews(context.Background(), "AAPL")
	assert.Len(t, got, 5)
}

func TestStockNewsDegradesToEmpty(t *testing.T) {
	svc := newTestService(newFakeProvider(), &fakeNews{err: errors.New("feed down")}, &fakeEarnings{})

	got := svc.StockNews(context.Background(), "AAPL")
	assert.Empty(t, got)
}

func TestAsiaTechExposure(t *testing.T) {
	provider := newFakeProvider()
	provider.series["TSM"] = seriesOf("TSM", 100, 103) // +3%
	provider.series["BABA"] = seriesOf("BABA", 80, 82) // +2.5%
	earnings := &fakeEarnings{reports: map[string]domain.EarningsReport{
		"TSM":       {Symbol: "TSM", Actual: 2.10, Estimate: 2.00},  // +5% beats
		"005930.KS": {Symbol: "005930.KS", Actual: 1.005, Estimate: 1.0}, // +0.5%, below threshold
	}}

	svc := newTestService(provider, &fakeNews{}, earnings)
	exposure := svc.AsiaTechExposure(context.Background())

	assert.InDelta(t, 22, exposure.Exposure.Percentage, 1e-9)
	assert.InDelta(t, 18, exposure.Exposure.PreviousPercentage, 1e-9)
	assert.InDelta(t, 4, exposure.Exposure.Change, 1e-9)
	assert.Equal(t, "up", exposure.Exposure.MovementDirection)

	require.Len(t, exposure.Holdings, 2)
	assert.InDelta(t, 3.0, exposure.Holdings["TSM"].PercentChange, 1e-9)

	// Average change (3 + 2.5) / 2 = 2.75 crosses the bullish threshold.
	assert.InDelta(t, 2.75, exposure.AvgPriceChange, 1e-9)
	assert.Equal(t, "bullish", exposure.Sentiment)

	// Only the significant surprise survives, keyed by company name.
	require.Len(t, exposure.EarningsSurprises, 1)
	assert.InDelta(t, 5.0, exposure.EarningsSurprises["TSM"], 1e-9)
}

func TestSentimentLabel(t *testing.T) {
	tests := []struct {
		change float64
		want   string
	}{
		{3.0, "bullish"},
		{1.0, "slightly bullish"},
		{0.0, "neutral"},
		{-1.0, "slightly bearish"},
		{-3.0, "bearish"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sentimentLabel(tt.change), "change %.1f", tt.change)
	}
}

func TestPortfolioSnapshot(t *testing.T) {
	svc := newTestService(newFakeProvider(), &fakeNews{}, &fakeEarnings{})

	snap := svc.PortfolioSnapshot(context.Background())

	assert.InDelta(t, 1250000, snap.TotalValue, 1e-9)
	assert.InDelta(t, 22, snap.Allocation.Regions["Asia"], 1e-9)
	assert.InDelta(t, 35, snap.Allocation.Sectors["Technology"], 1e-9)
	assert.Equal(t, "neutral", snap.AsiaTech.Sentiment)
}
