package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/advisor/internal/domain"
)

type fakeLLM struct {
	intent domain.Intent
	err    error
	calls  int
}

func (f *fakeLLM) ClassifyIntent(context.Context, string) (domain.Intent, error) {
	f.calls++
	return f.intent, f.err
}

func (f *fakeLLM) GenerateNarrative(context.Context, string, []domain.ContextItem) (string, error) {
	return "", nil
}

func (f *fakeLLM) MorningBriefNarrative(context.Context, domain.MorningBrief) (string, error) {
	return "", nil
}

func TestKeywordClassifyIntents(t *testing.T) {
	tests := []struct {
		query string
		want  domain.IntentKind
	}{
		{"How is my portfolio doing?", domain.IntentPortfolioAnalysis},
		{"What is our risk exposure in Asia?", domain.IntentRiskAssessment},
		{"Show me the market indices", domain.IntentMarketInfo},
		{"What's the stock price of AAPL?", domain.IntentStockSpecific},
		{"Where are treasury yields today?", domain.IntentEconomicData},
		{"Any earnings surprises?", domain.IntentStockSpecific},
		{"Good morning", domain.IntentUnknown},
	}

	for _, tt := range tests {
		got := KeywordClassify(tt.query)
		assert.Equal(t, tt.want, got.PrimaryIntent, "query %q", tt.query)
		assert.InDelta(t, 0.8, got.Confidence, 1e-9)
	}
}

func TestKeywordClassifyTieBreaksByTableOrder(t *testing.T) {
	// One hit each for "portfolio" and "market"; the earlier table entry wins.
	got := KeywordClassify("portfolio versus market")
	assert.Equal(t, domain.IntentPortfolioAnalysis, got.PrimaryIntent)
}

func TestKeywordClassifyHigherCountWins(t *testing.T) {
	got := KeywordClassify("market market versus portfolio")
	assert.Equal(t, domain.IntentMarketInfo, got.PrimaryIntent)
}

func TestKeywordClassifyEntities(t *testing.T) {
	got := KeywordClassify("What is our risk exposure in Asia tech stocks such as TSM")

	assert.Contains(t, got.Entities, "Asia")
	assert.Contains(t, got.Entities, "Technology")
	assert.Contains(t, got.Entities, "TSM")

	// "tech" and "technology" both map to Technology, deduplicated.
	count := 0
	for _, e := range got.Entities {
		if e == "Technology" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestKeywordClassifyTickerRule(t *testing.T) {
	got := KeywordClassify("Compare MSFT and GOOGL performance")
	assert.Contains(t, got.Entities, "MSFT")
	assert.Contains(t, got.Entities, "GOOGL")

	// Too long or mixed case words are not tickers.
	got = KeywordClassify("Compare MIXEDcase and TOOLONGG")
	assert.Empty(t, got.Entities)
}

func TestKeywordClassifyTimeframe(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"market today", "today"},
		{"performance this week", "week"},
		{"returns this month", "month"},
		{"gains this year", "year"},
		{"current exposure", "current"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KeywordClassify(tt.query).Timeframe, "query %q", tt.query)
	}
}

func TestKeywordClassifyNumericNeed(t *testing.T) {
	assert.True(t, KeywordClassify("what is the price change").RequiresNumericData)
	assert.True(t, KeywordClassify("how much did we gain").RequiresNumericData)
	assert.False(t, KeywordClassify("summarize the news").RequiresNumericData)
}

func TestClassifyPrefersModel(t *testing.T) {
	llm := &fakeLLM{intent: domain.Intent{
		PrimaryIntent: domain.IntentRiskAssessment,
		Entities:      []string{"Asia"},
		Timeframe:     "today",
		Confidence:    0.95,
	}}

	c := NewClassifier(llm, zerolog.Nop())
	got := c.Classify(context.Background(), "risk in asia today")

	require.Equal(t, 1, llm.calls)
	assert.Equal(t, domain.IntentRiskAssessment, got.PrimaryIntent)
	assert.InDelta(t, 0.95, got.Confidence, 1e-9)
}

func TestClassifyFallsBackOnModelFailure(t *testing.T) {
	llm := &fakeLLM{err: errors.New("api down")}

	c := NewClassifier(llm, zerolog.Nop())
	got := c.Classify(context.Background(), "show me the market indices")

	assert.Equal(t, domain.IntentMarketInfo, got.PrimaryIntent)
	assert.InDelta(t, 0.8, got.Confidence, 1e-9)
}

func TestClassifyWithoutModel(t *testing.T) {
	c := NewClassifier(nil, zerolog.Nop())
	got := c.Classify(context.Background(), "portfolio overview")
	assert.Equal(t, domain.IntentPortfolioAnalysis, got.PrimaryIntent)
}

func TestClassifyBlankQuery(t *testing.T) {
	llm := &fakeLLM{intent: domain.Intent{PrimaryIntent: domain.IntentMarketInfo}}
	c := NewClassifier(llm, zerolog.Nop())

	got := c.Classify(context.Background(), "   ")

	// Neither strategy runs on a blank query.
	assert.Zero(t, llm.calls)
	assert.Equal(t, domain.UnknownIntent(), got)
	assert.Equal(t, domain.IntentUnknown, got.PrimaryIntent)
	assert.Zero(t, got.Confidence)
	assert.Equal(t, "current", got.Timeframe)
	assert.True(t, got.RequiresNumericData)
}
