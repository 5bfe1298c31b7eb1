package quotes

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/pkg/formulas"
)

// Tracked symbol tables. The advisor reports on a fixed universe, not an
// arbitrary one, so order matters for response stability.
var (
	marketIndices = []symbolName{
		{"^GSPC", "S&P 500"},
		{"^DJI", "Dow Jones"},
		{"^IXIC", "NASDAQ"},
		{"^FTSE", "FTSE 100"},
		{"^N225", "Nikkei 225"},
		{"^HSI", "Hang Seng"},
	}

	sectorETFs = []symbolName{
		{"XLF", "Financials"},
		{"XLK", "Technology"},
		{"XLV", "Healthcare"},
		{"XLE", "Energy"},
		{"XLY", "Consumer Discretionary"},
		{"XLP", "Consumer Staples"},
		{"XLI", "Industrials"},
		{"XLB", "Materials"},
		{"XLU", "Utilities"},
		{"XLRE", "Real Estate"},
	}

	economicIndicators = []symbolName{
		{"^TNX", "10-Year Treasury Yield"},
		{"^TYX", "30-Year Treasury Yield"},
		{"^FVX", "5-Year Treasury Yield"},
		{"GC=F", "Gold"},
		{"CL=F", "Crude Oil"},
		{"EURUSD=X", "EUR/USD"},
		{"JPY=X", "USD/JPY"},
	}

	// AsiaTechTickers is the tracked asia-tech universe, local listings and
	// their US-traded counterparts side by side.
	AsiaTechTickers = []string{
		"TSM", "2330.TW",
		"005930.KS",
		"9988.HK", "BABA",
		"9999.HK", "BIDU",
		"0700.HK", "TCEHY",
		"9618.HK", "JD",
		"6758.T", "SONY",
		"3690.HK", "MEITF",
	}
)

type symbolName struct {
	symbol string
	name   string
}

const sectorTrendWindow = 3

// ServiceConfig carries the tunables the service needs.
type ServiceConfig struct {
	// AllocationPct and PreviousAllocationPct describe the asia-tech share
	// of assets under management, in percent.
	AllocationPct         float64
	PreviousAllocationPct float64
	// SurpriseThresholdPct is the minimum absolute earnings surprise, in
	// percent, worth reporting.
	SurpriseThresholdPct float64
}

// Service answers the market data questions the router and the brief need,
// always through the quote cache.
type Service struct {
	cache    *Cache
	news     domain.NewsProvider
	earnings domain.EarningsProvider
	cfg      ServiceConfig
	log      zerolog.Logger
}

// NewService creates a market data service on top of the given cache and
// providers.
func NewService(cache *Cache, news domain.NewsProvider, earnings domain.EarningsProvider, cfg ServiceConfig, log zerolog.Logger) *Service {
	return &Service{
		cache:    cache,
		news:     news,
		earnings: earnings,
		cfg:      cfg,
		log:      log.With().Str("component", "quotes").Logger(),
	}
}

// Series exposes the cache to collaborators that need raw price series.
func (s *Service) Series(ctx context.Context, symbol, period, interval string) (domain.PriceSeries, error) {
	return s.cache.Get(ctx, symbol, period, interval)
}

// MarketIndices returns the latest value and day-over-day change of the
// tracked indices. A failed symbol yields a zero-valued entry carrying the
// error so one bad index never hides the rest.
func (s *Service) MarketIndices(ctx context.Context) map[string]domain.IndexQuote {
	result := make(map[string]domain.IndexQuote, len(marketIndices))

	for _, idx := range marketIndices {
		series, err := s.cache.Get(ctx, idx.symbol, "1d", "1d")
		if err != nil || series.Empty() {
			s.log.Error().Err(err).Str("index", idx.name).Msg("Failed to retrieve index")
			quote := domain.IndexQuote{}
			if err != nil {
				quote.Error = err.Error()
			}
			result[idx.name] = quote
			continue
		}

		last := series.LastClose()
		prev := series.PreviousClose()
		quote := domain.IndexQuote{Price: last}
		if prev != 0 {
			quote.ChangePercent = (last - prev) / prev * 100
		}
		result[idx.name] = quote
	}

	return result
}

// SectorPerformance returns the 5-day percent change of the tracked sector
// ETFs, tagged with a moving-average trend label. Failed sectors report zero.
func (s *Service) SectorPerformance(ctx context.Context) map[string]domain.SectorQuote {
	result := make(map[string]domain.SectorQuote, len(sectorETFs))

	for _, etf := range sectorETFs {
		series, err := s.cache.Get(ctx, etf.symbol, "5d", "1d")
		if err != nil || series.Empty() {
			s.log.Error().Err(err).Str("sector", etf.name).Msg("Failed to retrieve sector performance")
			result[etf.name] = domain.SectorQuote{}
			continue
		}

		closes := series.Closes()
		first := closes[0]
		last := closes[len(closes)-1]
		quote := domain.SectorQuote{Trend: formulas.TrendLabel(closes, sectorTrendWindow)}
		if first != 0 {
			quote.PercentChange = formulas.Round((last-first)/first*100, 2)
		}
		result[etf.name] = quote
	}

	return result
}

// EconomicIndicators returns the latest close of the tracked yields,
// commodities and currency pairs, rounded to four decimals. Failed symbols
// report zero.
func (s *Service) EconomicIndicators(ctx context.Context) map[string]float64 {
	result := make(map[string]float64, len(economicIndicators))

	for _, ind := range economicIndicators {
		series, err := s.cache.Get(ctx, ind.symbol, "1d", "1d")
		if err != nil || series.Empty() {
			s.log.Error().Err(err).Str("indicator", ind.name).Msg("Failed to retrieve economic indicator")
			result[ind.name] = 0
			continue
		}
		result[ind.name] = formulas.Round(series.LastClose(), 4)
	}

	return result
}

// StockQuote returns the latest price and day-over-day change for one ticker.
func (s *Service) StockQuote(ctx context.Context, symbol string) (domain.StockQuote, error) {
	series, err := s.cache.Get(ctx, symbol, "5d", "1d")
	if err != nil {
		return domain.StockQuote{}, err
	}
	if series.Empty() {
		return domain.StockQuote{}, domain.ErrDataUnavailable
	}

	last := series.LastClose()
	prev := series.PreviousClose()
	quote := domain.StockQuote{Price: last}
	if prev != 0 {
		quote.ChangePercent = (last - prev) / prev * 100
	}
	return quote, nil
}

// StockNews returns the most recent headlines for a ticker, capped at five.
// Failures degrade to an empty list.
func (s *Service) StockNews(ctx context.Context, symbol string) []domain.NewsItem {
	items, err := s.news.FetchNews(ctx, symbol)
	if err != nil {
		s.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to retrieve news")
		return []domain.NewsItem{}
	}
	if len(items) > 5 {
		items = items[:5]
	}
	return items
}

// AsiaTechExposure builds the asia-tech exposure block: per-ticker 5-day
// moves, the allocation shift, significant earnings surprises and a derived
// regional sentiment label.
func (s *Service) AsiaTechExposure(ctx context.Context) domain.AsiaTechExposure {
	holdings := make(map[string]domain.AsiaTechHolding)
	surprises := make(map[string]float64)

	for _, ticker := range AsiaTechTickers {
		series, err := s.cache.Get(ctx, ticker, "5d", "1d")
		if err != nil {
			s.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to retrieve asia-tech series")
			continue
		}
		if !series.Empty() {
			last := series.LastClose()
			prev := series.PreviousClose()
			holding := domain.AsiaTechHolding{CurrentPrice: last, PreviousPrice: prev}
			if len(series.Candles) > 1 && prev != 0 {
				holding.PercentChange = (last - prev) / prev * 100
			}
			holdings[ticker] = holding
		}

		report, err := s.earnings.FetchEarnings(ctx, ticker)
		if err != nil || report.Estimate <= 0 {
			continue
		}
		surprisePct := (report.Actual - report.Estimate) / report.Estimate * 100
		if abs(surprisePct) > s.cfg.SurpriseThresholdPct {
			surprises[companyName(ticker)] = formulas.Round(surprisePct, 2)
		}
	}

	avgChange := 0.0
	if len(holdings) > 0 {
		for _, h := range holdings {
			avgChange += h.PercentChange
		}
		avgChange /= float64(len(holdings))
	}

	change := s.cfg.AllocationPct - s.cfg.PreviousAllocationPct
	direction := "down"
	if change > 0 {
		direction = "up"
	}

	return domain.AsiaTechExposure{
		Exposure: domain.ExposureSummary{
			Percentage:         s.cfg.AllocationPct,
			PreviousPercentage: s.cfg.PreviousAllocationPct,
			Change:             change,
			MovementDirection:  direction,
		},
		Holdings:          holdings,
		EarningsSurprises: surprises,
		Sentiment:         sentimentLabel(avgChange),
		AvgPriceChange:    formulas.Round(avgChange, 2),
	}
}

// PortfolioSnapshot returns the portfolio allocation overview. Totals and
// allocations are the advisor's model portfolio; the asia-tech block is live.
func (s *Service) PortfolioSnapshot(ctx context.Context) domain.PortfolioSnapshot {
	return domain.PortfolioSnapshot{
		TotalValue:         1250000,
		DailyChangePercent: -0.32,
		Allocation: domain.Allocation{
			Regions: map[string]float64{
				"North America":    45,
				"Asia":             22,
				"Europe":           18,
				"Emerging Markets": 12,
				"Other":            3,
			},
			Sectors: map[string]float64{
				"Technology":             35,
				"Finance":                22,
				"Healthcare":             15,
				"Consumer Discretionary": 10,
				"Industrials":            8,
				"Energy":                 5,
				"Other":                  5,
			},
		},
		AsiaTech: s.AsiaTechExposure(ctx),
	}
}

// sentimentLabel maps the average asia-tech price change to a sentiment tag.
func sentimentLabel(avgChange float64) string {
	switch {
	case avgChange > 2:
		return "bullish"
	case avgChange > 0.5:
		return "slightly bullish"
	case avgChange > -0.5:
		return "neutral"
	case avgChange > -2:
		return "slightly bearish"
	default:
		return "bearish"
	}
}

// companyName strips the exchange suffix from a ticker ("0700.HK" -> "0700").
func companyName(ticker string) string {
	if idx := strings.Index(ticker, "."); idx >= 0 {
		return ticker[:idx]
	}
	return ticker
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
