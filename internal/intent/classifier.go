// Package intent classifies user queries into the advisor's intent
// categories. The language model is the primary strategy; a local keyword
// scorer answers when the model is absent or failing.
package intent

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/domain"
)

// keywordIntents maps query keywords to intents. Order matters: on a tie in
// occurrence count the earliest entry wins.
var keywordIntents = []struct {
	keyword string
	intent  domain.IntentKind
}{
	{"portfolio", domain.IntentPortfolioAnalysis},
	{"risk", domain.IntentRiskAssessment},
	{"exposure", domain.IntentRiskAssessment},
	{"market", domain.IntentMarketInfo},
	{"indices", domain.IntentMarketInfo},
	{"sector", domain.IntentMarketInfo},
	{"stock", domain.IntentStockSpecific},
	{"price", domain.IntentStockSpecific},
	{"economic", domain.IntentEconomicData},
	{"treasury", domain.IntentEconomicData},
	{"yield", domain.IntentEconomicData},
	{"earnings", domain.IntentStockSpecific},
}

// keywordEntities maps query keywords to canonical entity names.
var keywordEntities = []struct {
	keyword string
	entity  string
}{
	{"asia", "Asia"},
	{"europe", "Europe"},
	{"america", "North America"},
	{"tech", "Technology"},
	{"technology", "Technology"},
	{"financial", "Finance"},
	{"finance", "Finance"},
	{"healthcare", "Healthcare"},
	{"consumer", "Consumer"},
	{"energy", "Energy"},
}

var numericWords = []string{"price", "percent", "change", "value", "number", "amount", "how much", "how many"}

// fallbackConfidence is the fixed confidence the keyword scorer reports.
const fallbackConfidence = 0.8

// Classifier resolves query intents, preferring the language model and
// degrading to keyword scoring.
type Classifier struct {
	llm domain.LanguageClient
	log zerolog.Logger
}

// NewClassifier creates a classifier. llm may be nil, in which case only the
// keyword strategy runs.
func NewClassifier(llm domain.LanguageClient, log zerolog.Logger) *Classifier {
	return &Classifier{
		llm: llm,
		log: log.With().Str("component", "intent").Logger(),
	}
}

// Classify determines the intent of a query. It never fails: when the model
// is unavailable the keyword scorer answers, and a query matching nothing
// comes back as the unknown intent with the fixed fallback confidence. A
// blank query short-circuits to the zero-confidence unknown intent without
// consulting either strategy.
func (c *Classifier) Classify(ctx context.Context, query string) domain.Intent {
	if strings.TrimSpace(query) == "" {
		return domain.UnknownIntent()
	}
	if c.llm != nil {
		intent, err := c.llm.ClassifyIntent(ctx, query)
		if err == nil {
			return intent
		}
		c.log.Warn().Err(err).Msg("Model classification failed, using keyword fallback")
	}
	return KeywordClassify(query)
}

// KeywordClassify scores a query against the keyword tables. The intent with
// the highest occurrence count wins; ties go to the earliest table entry.
func KeywordClassify(query string) domain.Intent {
	lower := strings.ToLower(query)

	primary := domain.IntentUnknown
	maxCount := 0
	for _, ki := range keywordIntents {
		count := strings.Count(lower, ki.keyword)
		if count > maxCount {
			maxCount = count
			primary = ki.intent
		}
	}

	entities := []string{}
	seen := make(map[string]bool)
	for _, ke := range keywordEntities {
		if strings.Contains(lower, ke.keyword) && !seen[ke.entity] {
			entities = append(entities, ke.entity)
			seen[ke.entity] = true
		}
	}

	// Uppercase words of one to five letters are treated as tickers.
	for _, word := range strings.Fields(query) {
		if looksLikeTicker(word) && !seen[word] {
			entities = append(entities, word)
			seen[word] = true
		}
	}

	timeframe := "current"
	switch {
	case strings.Contains(lower, "today"):
		timeframe = "today"
	case strings.Contains(lower, "week"):
		timeframe = "week"
	case strings.Contains(lower, "month"):
		timeframe = "month"
	case strings.Contains(lower, "year"):
		timeframe = "year"
	}

	numeric := false
	for _, w := range numericWords {
		if strings.Contains(lower, w) {
			numeric = true
			break
		}
	}

	return domain.Intent{
		PrimaryIntent:       primary,
		Entities:            entities,
		Timeframe:           timeframe,
		RequiresNumericData: numeric,
		Confidence:          fallbackConfidence,
	}
}

// looksLikeTicker reports whether a word is all uppercase letters, one to
// five characters long.
func looksLikeTicker(word string) bool {
	if len(word) < 1 || len(word) > 5 {
		return false
	}
	for _, r := range word {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
