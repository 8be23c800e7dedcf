// Package gemini talks to the Generative Language REST API (generateContent and model listing).
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
	"github.com/Adda-Baaj/khobor-lekhok/internal/logger"
	"github.com/Adda-Baaj/khobor-lekhok/pkg/fallback"
	"github.com/Adda-Baaj/khobor-lekhok/pkg/httpclient"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1"
	apiKeyHeader   = "x-goog-api-key"

	msgUnknownAPIError = "Unknown API error"
	msgInvalidFormat   = "Invalid response format from Gemini API"
)

// DefaultModels is the fast, accurate, legacy ordering used when none is configured.
var DefaultModels = []string{"gemini-2.5-flash", "gemini-2.5-pro", "gemini-1.5-flash"}

// GenerationConfig mirrors the generationConfig object of the request body.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// Budget pairs a generation config with the per-call timeout.
type Budget struct {
	Config  GenerationConfig
	Timeout time.Duration
}

// APIError is an error object returned in the response body.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// Client issues blocking generateContent round trips.
type Client struct {
	http    httpclient.Client
	baseURL string
	apiKey  string
	log     logger.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if b := strings.TrimRight(strings.TrimSpace(base), "/"); b != "" {
			c.baseURL = b
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) { c.log = logger.Ensure(log) }
}

// New builds a Client. A nil http client gets a resty client with a 60s ceiling.
func New(client httpclient.Client, apiKey string, opts ...Option) *Client {
	if client == nil {
		client = httpclient.NewRestyClient(60 * time.Second)
	}
	c := &Client{
		http:    client,
		baseURL: DefaultBaseURL,
		apiKey:  strings.TrimSpace(apiKey),
		log:     logger.NopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HasKey reports whether an API key is configured.
func (c *Client) HasKey() bool { return c.apiKey != "" }

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateContent sends prompt to model and returns candidates[0].content.parts[0].text.
func (c *Client) GenerateContent(ctx context.Context, model, prompt string, budget Budget) (string, error) {
	if !c.HasKey() {
		return "", &domain.ConfigurationError{Field: "gemini.api_key", Reason: "API key not configured"}
	}
	if budget.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget.Timeout)
		defer cancel()
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(model))
	body := generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: budget.Config,
	}

	resp, err := c.http.PostJSON(ctx, endpoint, c.headers(), body)
	if err != nil {
		return "", fmt.Errorf("request %s: %w", model, err)
	}

	raw := resp.Body()
	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		if resp.StatusCode() != http.StatusOK {
			return "", &APIError{Status: resp.StatusCode(), Message: fmt.Sprintf("status %d: %s", resp.StatusCode(), responseSnippet(raw))}
		}
		return "", errors.New(msgInvalidFormat)
	}

	if decoded.Error != nil {
		msg := strings.TrimSpace(decoded.Error.Message)
		if msg == "" {
			msg = msgUnknownAPIError
		}
		return "", &APIError{Status: resp.StatusCode(), Code: decoded.Error.Code, Message: msg}
	}

	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 || decoded.Candidates[0].Content.Parts[0].Text == nil {
		return "", errors.New(msgInvalidFormat)
	}
	return *decoded.Candidates[0].Content.Parts[0].Text, nil
}

// Model is one entry of the models listing.
type Model struct {
	Name                       string   `json:"name"`
	DisplayName                string   `json:"displayName"`
	Description                string   `json:"description,omitempty"`
	InputTokenLimit            int      `json:"inputTokenLimit,omitempty"`
	OutputTokenLimit           int      `json:"outputTokenLimit,omitempty"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods,omitempty"`
}

// ListModels returns the models visible to the configured key.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	if !c.HasKey() {
		return nil, &domain.ConfigurationError{Field: "gemini.api_key", Reason: "API key not configured"}
	}

	resp, err := c.http.Get(ctx, c.baseURL+"/models", c.headers())
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}

	var decoded struct {
		Models []Model `json:"models"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		return nil, fmt.Errorf("decode models (status %d): %w", resp.StatusCode(), err)
	}
	if decoded.Error != nil {
		return nil, &APIError{Status: resp.StatusCode(), Message: decoded.Error.Message}
	}
	return decoded.Models, nil
}

func (c *Client) headers() map[string]string {
	return map[string]string{apiKeyHeader: c.apiKey}
}

// modelStrategy is one model in a fallback chain.
type modelStrategy struct {
	client *Client
	model  string
	budget Budget
}

func (s modelStrategy) Name() string { return s.model }

func (s modelStrategy) Attempt(ctx context.Context, prompt string) (string, error) {
	return s.client.GenerateContent(ctx, s.model, prompt, s.budget)
}

// Chain turns an ordered model list into fallback strategies sharing one budget.
func (c *Client) Chain(models []string, budget Budget) []fallback.Strategy[string, string] {
	chain := make([]fallback.Strategy[string, string], 0, len(models))
	for _, m := range models {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		chain = append(chain, modelStrategy{client: c, model: m, budget: budget})
	}
	return chain
}

// Ask runs prompt through the model chain and returns the first extractable text together with
// the model that produced it. Exhausting the chain yields a ProviderError with the last message.
func (c *Client) Ask(ctx context.Context, models []string, prompt string, budget Budget) (string, string, error) {
	res, err := fallback.Run(ctx, c.Chain(models, budget), prompt, func(model string, err error) {
		c.log.Warn("gemini model attempt failed", "model", model, "error", err)
	})
	if err != nil {
		if domain.IsConfiguration(err) {
			return "", "", err
		}
		return "", "", &domain.ProviderError{Provider: "gemini", Message: err.Error()}
	}
	return res.Value, res.Strategy, nil
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
