// Package textgen is the client for the Hugging Face Router text-generation
// endpoint. It performs one outbound call per invocation and maps every
// failure to the typed taxonomy in errors.go; retry policy belongs to the
// caller.
package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/versolabs/versobot/internal/prompt"
)

const (
	defaultBaseURL       = "https://router.huggingface.co"
	defaultModel         = "HuggingFaceH4/zephyr-7b-beta"
	defaultFallbackModel = "gpt2"
)

// Client talks to the text-generation endpoint.
type Client struct {
	baseURL       string
	token         string
	model         string
	fallbackModel string
	httpClient    *http.Client
}

// Config holds configuration for the Client.
type Config struct {
	BaseURL       string // endpoint base, overridable for tests
	Token         string // bearer credential; empty fails at call time
	Model         string
	FallbackModel string // tried once when the primary model returns 404
	Timeout       time.Duration
}

// Meta reports which model produced the text.
type Meta struct {
	Model        string
	UsedFallback bool
}

// New creates a Client.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	fallback := cfg.FallbackModel
	if fallback == "" {
		fallback = defaultFallbackModel
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &Client{
		baseURL:       baseURL,
		token:         cfg.Token,
		model:         model,
		fallbackModel: fallback,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// generateRequest is the Router payload: raw inputs plus pipeline kwargs.
type generateRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters generateParameters `json:"parameters"`
}

type generateParameters struct {
	MaxNewTokens   int      `json:"max_new_tokens"`
	Temperature    float64  `json:"temperature"`
	ReturnFullText bool     `json:"return_full_text"`
	Stop           []string `json:"stop,omitempty"`
}

// Generate sends the assembled prompt to the endpoint and returns the raw
// generated text. On a 404 for the primary model it retries once against the
// fallback model; every other failure maps to a typed error.
func (c *Client) Generate(ctx context.Context, req *prompt.Request) (string, Meta, error) {
	if c.token == "" {
		return "", Meta{}, fmt.Errorf("%w: configura HF_TOKEN", ErrAuthentication)
	}

	text, err := c.call(ctx, c.model, req)
	if err == nil {
		return text, Meta{Model: c.model}, nil
	}

	var notFound *modelNotFoundError
	if errors.As(err, &notFound) && c.fallbackModel != "" && c.fallbackModel != c.model {
		slog.Info("primary model unavailable, using fallback",
			"model", c.model, "fallback", c.fallbackModel)

		text, fbErr := c.call(ctx, c.fallbackModel, req)
		if fbErr != nil {
			return "", Meta{}, fbErr
		}
		return text, Meta{Model: c.fallbackModel, UsedFallback: true}, nil
	}

	return "", Meta{}, err
}

// modelNotFoundError marks a 404 so Generate can decide on fallback; it is
// surfaced as ErrService when no fallback applies.
type modelNotFoundError struct {
	model string
}

func (e *modelNotFoundError) Error() string {
	return fmt.Sprintf("model %s not available", e.model)
}

func (e *modelNotFoundError) Unwrap() error { return ErrService }

func (c *Client) call(ctx context.Context, model string, req *prompt.Request) (string, error) {
	body, err := json.Marshal(generateRequest{
		Inputs: req.Text,
		Parameters: generateParameters{
			MaxNewTokens:   req.MaxNewTokens,
			Temperature:    req.Temperature,
			ReturnFullText: false,
			Stop:           req.Stop,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s", c.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrService, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrService, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to parsing
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("%w (status %d)", ErrAuthentication, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("%w (status %d)", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return "", &modelNotFoundError{model: model}
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("%w (status %d): %s", ErrService, resp.StatusCode, snippet(respBody))
	default:
		return "", fmt.Errorf("%w (status %d): %s", ErrService, resp.StatusCode, snippet(respBody))
	}

	text, ok := parseGeneratedText(respBody)
	if !ok || text == "" {
		return "", fmt.Errorf("%w (model %s)", ErrEmptyResponse, model)
	}

	return text, nil
}

// parseGeneratedText accepts the Router's list and object response shapes.
// Providers keep "generated_text" for text-generation but some return
// "text" or "output_text" instead.
func parseGeneratedText(body []byte) (string, bool) {
	var asList []map[string]any
	if err := json.Unmarshal(body, &asList); err == nil {
		if len(asList) == 0 {
			return "", false
		}
		return textField(asList[0])
	}

	var asObject map[string]any
	if err := json.Unmarshal(body, &asObject); err == nil {
		return textField(asObject)
	}

	return "", false
}

func textField(m map[string]any) (string, bool) {
	for _, key := range []string{"generated_text", "text", "output_text"} {
		if v, ok := m[key].(string); ok {
			return v, true
		}
	}
	return "", false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func snippet(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
