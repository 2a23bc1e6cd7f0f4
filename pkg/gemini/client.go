// Package gemini calls the Gemini generateContent REST endpoint.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"heather-backend/internal/domain"
	"heather-backend/pkg/logger"
	"heather-backend/pkg/metrics"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-1.5-flash"

	temperature     = 0.3
	maxOutputTokens = 1024

	chatTemperature = 0.7
	chatTopK        = 40
	chatTopP        = 0.95
)

// APIError is a non-2xx answer from Gemini.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini: %d %s", e.Status, e.Message)
}

// Retryable reports whether the request may succeed if repeated.
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// MaxElapsed bounds all attempts together.
	MaxElapsed time.Duration
	// InitialInterval is the first retry delay; zero uses the backoff default.
	InitialInterval time.Duration
	HTTPClient      *http.Client
}

type Client struct {
	cfg  Config
	http *http.Client
}

var (
	_ domain.DocumentAnalyzer = (*Client)(nil)
	_ domain.ChatModel        = (*Client)(nil)
)

func New(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = 45 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg, http: hc}
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// AnalyzeDocument sends prompt plus the PDF and returns the first candidate's
// text, or domain.NoAnalysisAvailable when there is none.
func (c *Client) AnalyzeDocument(ctx context.Context, prompt string, pdf []byte) (string, error) {
	text, err := c.call(ctx, generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: prompt},
				{InlineData: &inlineData{
					MimeType: "application/pdf",
					Data:     base64.StdEncoding.EncodeToString(pdf),
				}},
			},
		}},
		GenerationConfig: generationConfig{Temperature: temperature, MaxOutputTokens: maxOutputTokens},
	})
	if err != nil {
		return "", err
	}
	if text == "" {
		return domain.NoAnalysisAvailable, nil
	}
	return text, nil
}

// Chat continues a conversation. history holds earlier turns oldest first;
// prompt is the new user turn. An empty candidate yields
// domain.ChatFallbackReply.
func (c *Client) Chat(ctx context.Context, history []domain.ChatMessage, prompt string) (string, error) {
	contents := make([]content, 0, len(history)+1)
	for _, m := range history {
		role := "user"
		if m.Role == domain.ChatRoleAI {
			role = "model"
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: m.Content}}})
	}
	contents = append(contents, content{Role: "user", Parts: []part{{Text: prompt}}})

	text, err := c.call(ctx, generateRequest{
		Contents: contents,
		GenerationConfig: generationConfig{
			Temperature:     chatTemperature,
			TopK:            chatTopK,
			TopP:            chatTopP,
			MaxOutputTokens: maxOutputTokens,
		},
	})
	if err != nil {
		return "", err
	}
	if text == "" {
		return domain.ChatFallbackReply, nil
	}
	return text, nil
}

// call sends req with retries and returns the first candidate's text, which
// may be empty.
func (c *Client) call(ctx context.Context, req generateRequest) (string, error) {
	if c.cfg.APIKey == "" {
		return "", &domain.ConfigurationError{Missing: []string{"GEMINI_API_KEY"}}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("gemini: encode request: %w", err)
	}

	start := time.Now()
	defer func() { metrics.GeminiDuration.Observe(time.Since(start).Seconds()) }()

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.cfg.MaxElapsed
	if c.cfg.InitialInterval > 0 {
		b.InitialInterval = c.cfg.InitialInterval
	}

	var resp generateResponse
	attempt := 0
	op := func() error {
		attempt++
		err := c.generate(ctx, body, &resp)
		if err == nil {
			metrics.GeminiRequests.WithLabelValues("success").Inc()
			return nil
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			metrics.GeminiRequests.WithLabelValues("rejected").Inc()
			return backoff.Permanent(err)
		}
		metrics.GeminiRequests.WithLabelValues("retry").Inc()
		logger.Get().Warn("gemini request failed, retrying", "attempt", attempt, "error", err)
		return err
	}

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return "", err
	}

	if len(resp.Candidates) > 0 {
		if parts := resp.Candidates[0].Content.Parts; len(parts) > 0 {
			return parts[0].Text, nil
		}
	}
	return "", nil
}

func (c *Client) generate(ctx context.Context, body []byte, out *generateResponse) error {
	url := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.BaseURL, c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("gemini: build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return fmt.Errorf("gemini: request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("gemini: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(raw, &errBody)
		msg := errBody.Error.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	*out = generateResponse{}
	if err := json.Unmarshal(raw, out); err != nil {
		return backoff.Permanent(fmt.Errorf("gemini: decode response: %w", err))
	}
	return nil
}
