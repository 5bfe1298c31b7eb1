package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/domain"
)

// maxAudioBytes caps uploaded audio payloads at 10 MB.
const maxAudioBytes = 10 << 20

// MarketData is the slice of the quotes service the handlers read.
type MarketData interface {
	MarketIndices(ctx context.Context) map[string]domain.IndexQuote
	SectorPerformance(ctx context.Context) map[string]domain.SectorQuote
	PortfolioSnapshot(ctx context.Context) domain.PortfolioSnapshot
	AsiaTechExposure(ctx context.Context) domain.AsiaTechExposure
}

// Briefer assembles the morning brief data.
type Briefer interface {
	MorningBrief(ctx context.Context) domain.MorningBrief
}

// QueryRouter resolves a classified query into a response.
type QueryRouter interface {
	Route(ctx context.Context, query string, intent domain.Intent) domain.RoutedResponse
}

// IntentClassifier maps a free-text query to an intent.
type IntentClassifier interface {
	Classify(ctx context.Context, query string) domain.Intent
}

// Handlers bundles the HTTP handlers and their collaborators.
type Handlers struct {
	classifier IntentClassifier
	dispatcher QueryRouter
	market     MarketData
	briefer    Briefer
	llm        domain.LanguageClient
	speech     domain.SpeechClient
	log        zerolog.Logger
}

// NewHandlers creates the handler set. llm and speech may be nil; the
// affected endpoints then degrade or report unavailability.
func NewHandlers(classifier IntentClassifier, dispatcher QueryRouter, market MarketData, briefer Briefer, llm domain.LanguageClient, speech domain.SpeechClient, log zerolog.Logger) *Handlers {
	return &Handlers{
		classifier: classifier,
		dispatcher: dispatcher,
		market:     market,
		briefer:    briefer,
		llm:        llm,
		speech:     speech,
		log:        log.With().Str("component", "handlers").Logger(),
	}
}

// Health reports service liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Process classifies and routes a text query.
func (h *Handlers) Process(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		respondError(w, http.StatusBadRequest, "query is required")
		return
	}

	intent := h.classifier.Classify(r.Context(), req.Query)
	resp := h.dispatcher.Route(r.Context(), req.Query, intent)

	respondJSON(w, http.StatusOK, resp)
}

// MorningBrief returns the daily brief data with its narration.
func (h *Handlers) MorningBrief(w http.ResponseWriter, r *http.Request) {
	brief := h.briefer.MorningBrief(r.Context())

	text := ""
	if h.llm != nil {
		narrated, err := h.llm.MorningBriefNarrative(r.Context(), brief)
		if err != nil {
			h.log.Error().Err(err).Msg("Morning brief narration failed")
		} else {
			text = narrated
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"brief": brief,
		"text":  text,
	})
}

// Transcribe converts uploaded audio to text.
func (h *Handlers) Transcribe(w http.ResponseWriter, r *http.Request) {
	if h.speech == nil {
		respondError(w, http.StatusServiceUnavailable, "speech service not configured")
		return
	}

	audio, err := io.ReadAll(io.LimitReader(r.Body, maxAudioBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read audio")
		return
	}
	if len(audio) == 0 {
		respondError(w, http.StatusBadRequest, "audio is required")
		return
	}

	text, err := h.speech.Transcribe(r.Context(), audio)
	if err != nil {
		h.log.Error().Err(err).Msg("Transcription failed")
		respondError(w, http.StatusBadGateway, "transcription failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"text": text})
}

// Synthesize converts text to spoken audio.
func (h *Handlers) Synthesize(w http.ResponseWriter, r *http.Request) {
	if h.speech == nil {
		respondError(w, http.StatusServiceUnavailable, "speech service not configured")
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		respondError(w, http.StatusBadRequest, "text is required")
		return
	}

	audio, err := h.speech.Synthesize(r.Context(), req.Text)
	if err != nil {
		h.log.Error().Err(err).Msg("Synthesis failed")
		respondError(w, http.StatusBadGateway, "synthesis failed")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		h.log.Error().Err(err).Msg("Failed to write audio response")
	}
}

// Indices returns the tracked market indices.
func (h *Handlers) Indices(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.market.MarketIndices(r.Context()))
}

// Sectors returns the tracked sector performance.
func (h *Handlers) Sectors(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.market.SectorPerformance(r.Context()))
}

// Portfolio returns the portfolio allocation snapshot.
func (h *Handlers) Portfolio(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.market.PortfolioSnapshot(r.Context()))
}

// AsiaTech returns the asia-tech exposure block.
func (h *Handlers) AsiaTech(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.market.AsiaTechExposure(r.Context()))
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already out; an encode failure can't be reported to the client.
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
