// Package router dispatches classified queries to the market data and
// analytics services and funnels everything through the narration
// collaborator.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/domain"
)

// MarketService is the slice of the quotes service the router dispatches to.
type MarketService interface {
	MarketIndices(ctx context.Context) map[string]domain.IndexQuote
	SectorPerformance(ctx context.Context) map[string]domain.SectorQuote
	EconomicIndicators(ctx context.Context) map[string]float64
	AsiaTechExposure(ctx context.Context) domain.AsiaTechExposure
	StockQuote(ctx context.Context, symbol string) (domain.StockQuote, error)
	StockNews(ctx context.Context, symbol string) []domain.NewsItem
	PortfolioSnapshot(ctx context.Context) domain.PortfolioSnapshot
}

// RiskAnalyzer is the slice of the portfolio aggregator the router uses.
type RiskAnalyzer interface {
	AnalyzeRiskExposure(ctx context.Context, region, sector string) domain.ExposureReport
}

// commonStocks maps company names mentioned in plain text to tickers.
var commonStocks = []struct {
	name   string
	ticker string
}{
	{"apple", "AAPL"},
	{"microsoft", "MSFT"},
	{"google", "GOOGL"},
	{"amazon", "AMZN"},
	{"tesla", "TSLA"},
	{"facebook", "META"},
	{"nvidia", "NVDA"},
	{"tsmc", "TSM"},
	{"samsung", "005930.KS"},
	{"alibaba", "BABA"},
	{"tencent", "0700.HK"},
}

var knownRegions = map[string]bool{
	"asia":             true,
	"europe":           true,
	"north america":    true,
	"emerging markets": true,
}

var knownSectors = map[string]bool{
	"technology": true,
	"finance":    true,
	"healthcare": true,
	"consumer":   true,
	"energy":     true,
}

// Router routes a classified query to the right data sources and produces
// the final response.
type Router struct {
	market MarketService
	risk   RiskAnalyzer
	llm    domain.LanguageClient
	log    zerolog.Logger
}

// NewRouter creates a router. llm may be nil; responses then degrade to a
// fixed apology text.
func NewRouter(market MarketService, risk RiskAnalyzer, llm domain.LanguageClient, log zerolog.Logger) *Router {
	return &Router{
		market: market,
		risk:   risk,
		llm:    llm,
		log:    log.With().Str("component", "router").Logger(),
	}
}

// Route dispatches a query according to its intent and returns the final
// response. It never panics outward: any handler failure degrades to a
// narrative-only response carrying the error.
func (r *Router) Route(ctx context.Context, query string, intent domain.Intent) (resp domain.RoutedResponse) {
	requestID := uuid.New().String()

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Interface("panic", rec).Str("request_id", requestID).Msg("Handler panicked")
			resp = domain.RoutedResponse{
				RequestID: requestID,
				Text:      r.narrate(ctx, query, nil),
				Data:      map[string]any{},
				Error:     fmt.Sprintf("%v", rec),
			}
		}
	}()

	r.log.Info().
		Str("request_id", requestID).
		Str("intent", string(intent.PrimaryIntent)).
		Float64("confidence", intent.Confidence).
		Msg("Routing query")

	var (
		items []domain.ContextItem
		data  any
	)

	switch intent.PrimaryIntent {
	case domain.IntentMarketInfo:
		items, data = r.handleMarketInfo(ctx)
	case domain.IntentPortfolioAnalysis:
		items, data = r.handlePortfolioAnalysis(ctx)
	case domain.IntentRiskAssessment:
		items, data = r.handleRiskAssessment(ctx, query, intent.Entities)
	case domain.IntentStockSpecific:
		items, data = r.handleStockSpecific(ctx, query, intent.Entities)
	case domain.IntentEconomicData:
		items, data = r.handleEconomicData(ctx)
	default:
		data = map[string]any{}
	}

	return domain.RoutedResponse{
		RequestID: requestID,
		Text:      r.narrate(ctx, query, items),
		Data:      data,
	}
}

func (r *Router) handleMarketInfo(ctx context.Context) ([]domain.ContextItem, any) {
	indices := r.market.MarketIndices(ctx)
	sectors := r.market.SectorPerformance(ctx)

	items := []domain.ContextItem{
		jsonItem("Current market indices", indices, map[string]string{"type": "market_indices"}),
		jsonItem("Current sector performance", sectors, map[string]string{"type": "sector_performance"}),
	}
	return items, map[string]any{"indices": indices, "sectors": sectors}
}

func (r *Router) handlePortfolioAnalysis(ctx context.Context) ([]domain.ContextItem, any) {
	snapshot := r.market.PortfolioSnapshot(ctx)

	items := []domain.ContextItem{
		jsonItem("Portfolio data", snapshot, map[string]string{"type": "portfolio_data"}),
	}
	return items, snapshot
}

func (r *Router) handleRiskAssessment(ctx context.Context, query string, entities []string) ([]domain.ContextItem, any) {
	region, sector := regionSectorFrom(entities)
	lower := strings.ToLower(query)
	if region == "" {
		region = "Asia"
	}
	if sector == "" && strings.Contains(lower, "tech") {
		sector = "Technology"
	}

	exposure := r.risk.AnalyzeRiskExposure(ctx, region, sector)

	scope := sector
	if scope == "" {
		scope = "all sectors"
	}
	items := []domain.ContextItem{
		jsonItem(fmt.Sprintf("Risk exposure for %s/%s", region, scope), exposure, map[string]string{"type": "risk_exposure"}),
	}

	if strings.Contains(lower, "asia") && strings.Contains(lower, "tech") {
		asiaTech := r.market.AsiaTechExposure(ctx)
		items = append(items, jsonItem("Asia tech exposure", asiaTech, map[string]string{"type": "asia_tech_exposure"}))
	}

	return items, exposure
}

func (r *Router) handleStockSpecific(ctx context.Context, query string, entities []string) ([]domain.ContextItem, any) {
	tickers := tickersFrom(query, entities)

	var items []domain.ContextItem
	stocks := make(map[string]domain.StockQuote)

	for _, ticker := range tickers {
		quote, err := r.market.StockQuote(ctx, ticker)
		if err != nil {
			r.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to get stock data")
		} else {
			stocks[ticker] = quote
			items = append(items, domain.ContextItem{
				Content:  fmt.Sprintf("Stock data for %s: Price=$%.2f, Change=%.2f%%", ticker, quote.Price, quote.ChangePercent),
				Metadata: map[string]string{"type": "stock_data", "ticker": ticker},
			})
		}

		news := r.market.StockNews(ctx, ticker)
		if len(news) == 0 {
			continue
		}
		if len(news) > 3 {
			news = news[:3]
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "Recent news for %s:\n", ticker)
		for _, item := range news {
			fmt.Fprintf(&sb, "- %s (%s)\n", item.Title, item.Published.Format("2006-01-02 15:04"))
		}
		items = append(items, domain.ContextItem{
			Content:  sb.String(),
			Metadata: map[string]string{"type": "stock_news", "ticker": ticker},
		})
	}

	return items, map[string]any{"stocks": stocks}
}

func (r *Router) handleEconomicData(ctx context.Context) ([]domain.ContextItem, any) {
	indicators := r.market.EconomicIndicators(ctx)

	items := []domain.ContextItem{
		jsonItem("Economic indicators", indicators, map[string]string{"type": "economic_indicators"}),
	}
	return items, map[string]any{"indicators": indicators}
}

// narrate generates the response text. A missing or failing language model
// degrades to a fixed apology so the caller always gets non-empty text.
func (r *Router) narrate(ctx context.Context, query string, items []domain.ContextItem) string {
	if r.llm == nil {
		return "I apologize, but I encountered an error processing your request. Please try again later. Error: language model unavailable"
	}
	text, err := r.llm.GenerateNarrative(ctx, query, items)
	if err != nil {
		r.log.Error().Err(err).Msg("Narrative generation failed")
		return fmt.Sprintf("I apologize, but I encountered an error processing your request. Please try again later. Error: %v", err)
	}
	return text
}

// regionSectorFrom picks the first region and sector entity, preserving the
// entity's own casing.
func regionSectorFrom(entities []string) (region, sector string) {
	for _, entity := range entities {
		lower := strings.ToLower(entity)
		switch {
		case region == "" && knownRegions[lower]:
			region = entity
		case sector == "" && knownSectors[lower]:
			sector = entity
		}
	}
	return region, sector
}

// tickersFrom extracts tickers from the entities, then from company names
// mentioned in the query.
func tickersFrom(query string, entities []string) []string {
	var tickers []string
	seen := make(map[string]bool)

	for _, entity := range entities {
		if entity == strings.ToUpper(entity) && len(entity) <= 5 && entity != "" && !seen[entity] {
			tickers = append(tickers, entity)
			seen[entity] = true
		}
	}

	lower := strings.ToLower(query)
	for _, cs := range commonStocks {
		if strings.Contains(lower, cs.name) && !seen[cs.ticker] {
			tickers = append(tickers, cs.ticker)
			seen[cs.ticker] = true
		}
	}

	return tickers
}

// jsonItem renders a payload as an indented JSON context block.
func jsonItem(label string, payload any, metadata map[string]string) domain.ContextItem {
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		encoded = []byte("{}")
	}
	return domain.ContextItem{
		Content:  fmt.Sprintf("%s: %s", label, encoded),
		Metadata: metadata,
	}
}
