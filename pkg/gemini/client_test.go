package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heather-backend/internal/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{
		APIKey:          "test-key",
		BaseURL:         srv.URL,
		MaxElapsed:      2 * time.Second,
		InitialInterval: 5 * time.Millisecond,
	})
}

func candidate(text string) map[string]any {
	return map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	}
}

func TestAnalyzeDocumentRequestShape(t *testing.T) {
	pdf := []byte("%PDF-1.4 test")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req generateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if assert.Len(t, req.Contents, 1) && assert.Len(t, req.Contents[0].Parts, 2) {
			assert.Equal(t, "summarize", req.Contents[0].Parts[0].Text)
			inline := req.Contents[0].Parts[1].InlineData
			assert.Equal(t, "application/pdf", inline.MimeType)
			assert.Equal(t, base64.StdEncoding.EncodeToString(pdf), inline.Data)
		}
		assert.Equal(t, 0.3, req.GenerationConfig.Temperature)
		assert.Equal(t, 1024, req.GenerationConfig.MaxOutputTokens)

		_ = json.NewEncoder(w).Encode(candidate("looks fine"))
	})

	out, err := c.AnalyzeDocument(context.Background(), "summarize", pdf)
	require.NoError(t, err)
	assert.Equal(t, "looks fine", out)
}

func TestAnalyzeDocumentRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"quota"}}`))
		case 2:
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			_ = json.NewEncoder(w).Encode(candidate("ok"))
		}
	})

	out, err := c.AnalyzeDocument(context.Background(), "p", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestAnalyzeDocumentClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Request contains an invalid argument."}}`))
	})

	_, err := c.AnalyzeDocument(context.Background(), "p", []byte("x"))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Request contains an invalid argument.", apiErr.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAnalyzeDocumentEmptyCandidates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	})

	out, err := c.AnalyzeDocument(context.Background(), "p", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, domain.NoAnalysisAvailable, out)
}

func TestAnalyzeDocumentWithoutKey(t *testing.T) {
	c := New(Config{})

	_, err := c.AnalyzeDocument(context.Background(), "p", []byte("x"))

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{"GEMINI_API_KEY"}, cfgErr.Missing)
}

func TestAnalyzeDocumentStopsOnContextCancel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.AnalyzeDocument(ctx, "p", []byte("x"))
	assert.Error(t, err)
}

func TestChatRequestShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if assert.Len(t, req.Contents, 3) {
			assert.Equal(t, "user", req.Contents[0].Role)
			assert.Equal(t, "model", req.Contents[1].Role)
			assert.Equal(t, "user", req.Contents[2].Role)
			assert.Equal(t, "and now?", req.Contents[2].Parts[0].Text)
		}
		assert.Equal(t, 0.7, req.GenerationConfig.Temperature)
		assert.Equal(t, 40, req.GenerationConfig.TopK)
		assert.Equal(t, 0.95, req.GenerationConfig.TopP)
		assert.Equal(t, 1024, req.GenerationConfig.MaxOutputTokens)

		_ = json.NewEncoder(w).Encode(candidate("Drink water."))
	})

	history := []domain.ChatMessage{
		{Role: domain.ChatRoleUser, Content: "I feel dizzy"},
		{Role: domain.ChatRoleAI, Content: "Since when?"},
	}
	out, err := c.Chat(context.Background(), history, "and now?")
	require.NoError(t, err)
	assert.Equal(t, "Drink water.", out)
}

func TestChatEmptyCandidateFallsBack(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	})

	out, err := c.Chat(context.Background(), nil, "hello")
	require.NoError(t, err)
	assert.Equal(t, domain.ChatFallbackReply, out)
}

func TestChatWithoutKey(t *testing.T) {
	c := New(Config{})

	_, err := c.Chat(context.Background(), nil, "hello")
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}
