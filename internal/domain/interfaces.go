package domain

import (
	"context"
	"errors"
)

// ErrDataUnavailable is returned when the upstream market data provider fails
// and no cached fallback exists. Callers treat it as "no data", not a crash.
var ErrDataUnavailable = errors.New("market data unavailable")

// MarketDataProvider fetches historical price series from an upstream source.
// Any failure mode (network, rate limit, invalid symbol) surfaces as an error;
// the core never distinguishes between them.
type MarketDataProvider interface {
	FetchSeries(ctx context.Context, symbol, period, interval string) (PriceSeries, error)
}

// NewsProvider fetches recent headlines for a symbol.
type NewsProvider interface {
	FetchNews(ctx context.Context, symbol string) ([]NewsItem, error)
}

// EarningsProvider fetches the latest earnings report for a symbol.
type EarningsProvider interface {
	FetchEarnings(ctx context.Context, symbol string) (EarningsReport, error)
}

// LanguageClient is the language-understanding and narration collaborator.
type LanguageClient interface {
	// ClassifyIntent maps a free-text query to an Intent.
	ClassifyIntent(ctx context.Context, query string) (Intent, error)
	// GenerateNarrative produces the narrative answer for a query given an
	// ordered list of context items.
	GenerateNarrative(ctx context.Context, query string, items []ContextItem) (string, error)
	// MorningBriefNarrative produces the spoken-style morning brief text.
	MorningBriefNarrative(ctx context.Context, brief MorningBrief) (string, error)
}

// SpeechClient is the speech-to-text / text-to-speech collaborator.
type SpeechClient interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
