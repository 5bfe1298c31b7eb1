// Package anthropic provides the language-understanding and narration
// collaborator backed by the Anthropic Claude API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/domain"
)

const (
	defaultMaxTokens = 2000
	defaultTimeout   = 30 * time.Second

	intentSystemPrompt = `You are a financial assistant that analyzes user queries to determine their intent.
Respond with a JSON object containing the following fields:
- primary_intent: The main category of the query (market_info, portfolio_analysis, risk_assessment, stock_specific, economic_data)
- entities: Any specific entities mentioned (e.g., company names, indices, regions, sectors)
- timeframe: The relevant timeframe for the query (e.g., today, week, month, year)
- requires_numeric_data: Boolean indicating if the query needs specific numeric data
- confidence: Your confidence in this analysis (0-1)`

	narrativeSystemPrompt = `You are a professional financial advisor who specializes in market analysis.
When responding to queries, use the provided context to give accurate and detailed information.
Always maintain a formal, professional tone. For financial data, provide specific numbers and percentages.
If answering questions about risk or investment advice, emphasize that these are analyses, not recommendations.
Format currency values with appropriate symbols and use two decimal places for percentages.
Keep responses concise, factual, and focused on the query.`

	briefSystemPrompt = `You are a professional financial advisor delivering a morning market brief.
Your briefing should sound like a professional financial analyst summarizing key market information.
Focus on being concise, informative, and insightful. Use a formal, authoritative tone.
Explain what the data means for the client in practical terms.`
)

// Client implements the language collaborator using Claude.
type Client struct {
	client    sdk.Client
	model     string
	maxTokens int
	timeout   time.Duration
	log       zerolog.Logger
}

// NewClient creates a new Claude language client.
func NewClient(apiKey, model string, log zerolog.Logger) *Client {
	return &Client{
		client:    sdk.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: defaultMaxTokens,
		timeout:   defaultTimeout,
		log:       log.With().Str("client", "anthropic").Logger(),
	}
}

// ClassifyIntent maps a free-text query to an Intent using the model's JSON
// response. Any failure surfaces as an error so the caller can fall back to
// the local keyword classifier.
func (c *Client) ClassifyIntent(ctx context.Context, query string) (domain.Intent, error) {
	prompt := fmt.Sprintf("Analyze the intent of this query: %s", query)

	raw, err := c.complete(ctx, intentSystemPrompt, prompt, 500)
	if err != nil {
		return domain.Intent{}, fmt.Errorf("intent classification failed: %w", err)
	}

	var parsed struct {
		PrimaryIntent       string   `json:"primary_intent"`
		Entities            []string `json:"entities"`
		Timeframe           string   `json:"timeframe"`
		RequiresNumericData bool     `json:"requires_numeric_data"`
		Confidence          float64  `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		return domain.Intent{}, fmt.Errorf("failed to parse intent response: %w", err)
	}

	intent := domain.Intent{
		PrimaryIntent:       normalizeIntent(parsed.PrimaryIntent),
		Entities:            parsed.Entities,
		Timeframe:           parsed.Timeframe,
		RequiresNumericData: parsed.RequiresNumericData,
		Confidence:          math.Max(0, math.Min(1, parsed.Confidence)),
	}
	if intent.Entities == nil {
		intent.Entities = []string{}
	}
	if intent.Timeframe == "" {
		intent.Timeframe = "current"
	}

	return intent, nil
}

// GenerateNarrative produces the narrative answer for a query given an
// ordered list of context items.
func (c *Client) GenerateNarrative(ctx context.Context, query string, items []domain.ContextItem) (string, error) {
	var prompt strings.Builder
	if len(items) > 0 {
		prompt.WriteString("Context information:\n")
		for i, item := range items {
			fmt.Fprintf(&prompt, "[%d] %s\n\n", i+1, item.Content)
		}
		fmt.Fprintf(&prompt, "Based on this context, please answer: %s", query)
	} else {
		prompt.WriteString(query)
	}

	text, err := c.complete(ctx, narrativeSystemPrompt, prompt.String(), c.maxTokens)
	if err != nil {
		return "", fmt.Errorf("narrative generation failed: %w", err)
	}
	return text, nil
}

// MorningBriefNarrative produces the spoken-style morning brief text.
func (c *Client) MorningBriefNarrative(ctx context.Context, brief domain.MorningBrief) (string, error) {
	var indices strings.Builder
	for name, quote := range brief.Indices {
		direction := "up"
		if quote.ChangePercent < 0 {
			direction = "down"
		}
		fmt.Fprintf(&indices, "The %s is at %.2f, %s %.2f%%. ", name, quote.Price, direction, math.Abs(quote.ChangePercent))
	}

	var surprises strings.Builder
	for company, surprise := range brief.AsiaTech.EarningsSurprises {
		verb := "beat"
		if surprise < 0 {
			verb = "missed"
		}
		fmt.Fprintf(&surprises, "%s %s estimates by %.1f%%. ", company, verb, math.Abs(surprise))
	}
	if surprises.Len() == 0 {
		surprises.WriteString("No significant earnings surprises to report. ")
	}

	exposure := brief.AsiaTech.Exposure
	prompt := fmt.Sprintf(`Generate a brief morning market update based on the following data:

Date: %s

Market Indices:
%s

Asia Tech Exposure:
- Current allocation: %.0f%% of AUM
- Previous allocation: %.0f%% of AUM
- Change: %s %.0f%%

Earnings Surprises:
%s

Market Sentiment:
- Regional sentiment: %s

Risk Assessment:
- Risk level: %s

Please create a concise, professional morning brief that a financial advisor would deliver to a client.
Focus specifically on the Asia tech stock exposure and any earnings surprises. Mention the change in allocation.
The brief should be about 3-4 sentences, direct and informative.`,
		brief.Date,
		indices.String(),
		exposure.Percentage,
		exposure.PreviousPercentage,
		exposure.MovementDirection,
		math.Abs(exposure.Change),
		surprises.String(),
		brief.AsiaTech.Sentiment,
		brief.RegionExposure.RiskLevel,
	)

	text, err := c.complete(ctx, briefSystemPrompt, prompt, 500)
	if err != nil {
		return "", fmt.Errorf("morning brief narration failed: %w", err)
	}
	return text, nil
}

// complete sends a single-turn prompt and returns the concatenated text blocks.
func (c *Client) complete(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := sdk.MessageNewParams{
		Model:       sdk.Model(c.model),
		MaxTokens:   int64(maxTokens),
		Temperature: sdk.Float(0.3),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}

	start := time.Now()
	resp, err := c.client.Messages.New(timeoutCtx, params)
	if err != nil {
		return "", fmt.Errorf("Claude API call failed: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("no response generated")
	}

	c.log.Debug().
		Dur("duration", time.Since(start)).
		Int("response_length", out.Len()).
		Msg("Completion finished")

	return out.String(), nil
}

// extractJSON strips markdown code fences some models wrap around JSON output.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

// normalizeIntent maps the model's intent string onto the known categories.
func normalizeIntent(s string) domain.IntentKind {
	switch domain.IntentKind(strings.ToLower(strings.TrimSpace(s))) {
	case domain.IntentMarketInfo:
		return domain.IntentMarketInfo
	case domain.IntentPortfolioAnalysis:
		return domain.IntentPortfolioAnalysis
	case domain.IntentRiskAssessment:
		return domain.IntentRiskAssessment
	case domain.IntentStockSpecific:
		return domain.IntentStockSpecific
	case domain.IntentEconomicData:
		return domain.IntentEconomicData
	default:
		return domain.IntentUnknown
	}
}
