package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/advisor/internal/domain"
)

type stubMarket struct{}

func (stubMarket) MarketIndices(context.Context) map[string]domain.IndexQuote {
	return map[string]domain.IndexQuote{"S&P 500": {Price: 5100, ChangePercent: 0.4}}
}

func (stubMarket) SectorPerformance(context.Context) map[string]domain.SectorQuote {
	return map[string]domain.SectorQuote{"Technology": {PercentChange: 1.2, Trend: "up"}}
}

func (stubMarket) PortfolioSnapshot(context.Context) domain.PortfolioSnapshot {
	return domain.PortfolioSnapshot{TotalValue: 1250000}
}

func (stubMarket) AsiaTechExposure(context.Context) domain.AsiaTechExposure {
	return domain.AsiaTechExposure{Sentiment: "neutral"}
}

type stubBriefer struct{}

func (stubBriefer) MorningBrief(context.Context) domain.MorningBrief {
	return domain.MorningBrief{Date: "2025-06-02"}
}

type stubClassifier struct {
	lastQuery string
}

func (s *stubClassifier) Classify(_ context.Context, query string) domain.Intent {
	s.lastQuery = query
	return domain.Intent{PrimaryIntent: domain.IntentMarketInfo, Entities: []string{}, Timeframe: "current", Confidence: 0.8}
}

type stubRouter struct{}

func (stubRouter) Route(_ context.Context, query string, intent domain.Intent) domain.RoutedResponse {
	return domain.RoutedResponse{
		RequestID: "req-1",
		Text:      "answer to " + query,
		Data:      map[string]any{"intent": string(intent.PrimaryIntent)},
	}
}

type stubSpeech struct {
	transcript string
	audio      []byte
	err        error
}

func (s *stubSpeech) Transcribe(context.Context, []byte) (string, error) {
	return s.transcript, s.err
}

func (s *stubSpeech) Synthesize(context.Context, string) ([]byte, error) {
	return s.audio, s.err
}

type stubLLM struct{}

func (stubLLM) ClassifyIntent(context.Context, string) (domain.Intent, error) {
	return domain.Intent{}, errors.New("not used")
}

func (stubLLM) GenerateNarrative(context.Context, string, []domain.ContextItem) (string, error) {
	return "", errors.New("not used")
}

func (stubLLM) MorningBriefNarrative(context.Context, domain.MorningBrief) (string, error) {
	return "good morning", nil
}

func newTestServer(t *testing.T, speech domain.SpeechClient) (*Server, *stubClassifier) {
	t.Helper()
	classifier := &stubClassifier{}
	handlers := NewHandlers(classifier, stubRouter{}, stubMarket{}, stubBriefer{}, stubLLM{}, speech, zerolog.Nop())
	return New(Config{Log: zerolog.Nop(), Port: 0, DevMode: true, Handlers: handlers}), classifier
}

func doRequest(srv *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doRequest(srv, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestProcess(t *testing.T) {
	srv, classifier := newTestServer(t, nil)

	body := []byte(`{"query":"how are the markets"}`)
	rec := doRequest(srv, http.MethodPost, "/process", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "how are the markets", classifier.lastQuery)

	var resp domain.RoutedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "req-1", resp.RequestID)
	assert.Equal(t, "answer to how are the markets", resp.Text)
}

func TestProcessRejectsBadInput(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doRequest(srv, http.MethodPost, "/process", []byte(`not json`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(srv, http.MethodPost, "/process", []byte(`{"query":""}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMorningBrief(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doRequest(srv, http.MethodGet, "/morning-brief", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Brief domain.MorningBrief `json:"brief"`
		Text  string              `json:"text"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2025-06-02", resp.Brief.Date)
	assert.Equal(t, "good morning", resp.Text)
}

func TestDataEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	tests := []struct {
		path string
		want string
	}{
		{"/api/indices", "S&P 500"},
		{"/api/sectors", "Technology"},
		{"/api/portfolio", "total_value"},
		{"/api/asia-tech", "neutral"},
	}
	for _, tt := range tests {
		rec := doRequest(srv, http.MethodGet, tt.path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, tt.path)
		assert.Contains(t, rec.Body.String(), tt.want, tt.path)
	}
}

func TestTranscribe(t *testing.T) {
	srv, _ := newTestServer(t, &stubSpeech{transcript: "what is my risk"})

	rec := doRequest(srv, http.MethodPost, "/voice/transcribe", []byte("fake-audio"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "what is my risk")
}

func TestTranscribeWithoutSpeechService(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doRequest(srv, http.MethodPost, "/voice/transcribe", []byte("fake-audio"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTranscribeEmptyBody(t *testing.T) {
	srv, _ := newTestServer(t, &stubSpeech{})

	rec := doRequest(srv, http.MethodPost, "/voice/transcribe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSynthesize(t *testing.T) {
	srv, _ := newTestServer(t, &stubSpeech{audio: []byte("mp3-bytes")})

	rec := doRequest(srv, http.MethodPost, "/voice/synthesize", []byte(`{"text":"hello"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "mp3-bytes", rec.Body.String())
}

func TestSynthesizeFailure(t *testing.T) {
	srv, _ := newTestServer(t, &stubSpeech{err: errors.New("service down")})

	rec := doRequest(srv, http.MethodPost, "/voice/synthesize", []byte(`{"text":"hello"}`))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestUnknownRouteReturns404(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doRequest(srv, http.MethodGet, "/api/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProcessBodyTooLargeStillHandled(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	body := []byte(`{"query":"` + strings.Repeat("a", 1024) + `"}`)
	rec := doRequest(srv, http.MethodPost, "/process", body)
	assert.Equal(t, http.StatusOK, rec.Code)
}
