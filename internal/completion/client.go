// Package completion provides the client for the hosted chat-completion
// backend that turns conversation history into assistant replies.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fluxobpm/fluxo/internal/config"
	"github.com/fluxobpm/fluxo/internal/domain"
)

// ErrNotConfigured is returned before any network call when the backend
// credential is missing or still holds the placeholder value.
var ErrNotConfigured = errors.New("completion backend credential not configured")

// UpstreamError reports a non-2xx response from the completion backend.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("completion backend returned %d: %s", e.Status, e.Body)
}

// TransportError reports a network-level failure reaching the backend.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("completion backend unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// maxErrorBody caps how much of an upstream error body is carried into the
// diagnostic.
const maxErrorBody = 500

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	cfg        config.CompletionConfig
	configured bool
	httpClient *http.Client
}

// NewClient creates a completion client from configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg:        cfg.Completion,
		configured: cfg.CompletionConfigured(),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Configured reports whether a usable credential is present.
func (c *Client) Configured() bool {
	return c.configured
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type wireResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the system instruction, the full history, and the current
// diagram to the backend and returns the raw reply text. It performs exactly
// one attempt; on failure the caller must resubmit.
func (c *Client) Complete(ctx context.Context, history []domain.Message, currentXML string) (string, error) {
	if !c.configured {
		return "", ErrNotConfigured
	}

	messages := make([]wireMessage, 0, len(history)+1)
	messages = append(messages, wireMessage{Role: "system", Content: SystemPrompt(currentXML)})
	for _, m := range history {
		messages = append(messages, wireMessage{Role: m.Role, Content: m.Content})
	}

	payload, err := json.Marshal(wireRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}

	url := c.cfg.BaseURL + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("failed to close completion response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	var wire wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(wire.Choices) == 0 {
		return "", fmt.Errorf("completion response has no choices")
	}
	return wire.Choices[0].Message.Content, nil
}
