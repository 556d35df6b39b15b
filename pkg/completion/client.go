// Package completion calls an OpenAI-compatible chat completion endpoint to
// rewrite source code.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/polisai/codeforge/pkg/domain"
)

// DefaultEndpoint is the OpenAI chat completions URL.
const DefaultEndpoint = "https://api.openai.com/v1/chat/completions"

// Config holds the completion request parameters.
type Config struct {
	Endpoint    string
	Model       string
	MaxTokens   int
	Temperature float64
	// Timeout bounds a single completion call.
	Timeout time.Duration
}

// Client sends prompts to the completion endpoint.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewClient creates a completion client. A nil httpClient gets an instrumented
// client with Config.Timeout.
func NewClient(config Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if config.Model == "" {
		config.Model = "gpt-4o"
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 4096
	}
	if config.Temperature < 0 {
		config.Temperature = 0
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   config.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Complete sends prompt as a single user message authorised by credential and
// returns choices[0].message.content. Non-2xx answers return a
// *domain.RemoteServiceError; a 401 additionally matches domain.ErrUnauthorized.
func (c *Client) Complete(ctx context.Context, credential domain.Credential, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	payload := chatRequest{
		Model:       c.config.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+credential.Value)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: completion request failed: %w", domain.ErrRemoteUnavailable, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &domain.RemoteServiceError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var completion chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", domain.ErrRemoteContentInvalid, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no completion choices returned", domain.ErrRemoteContentInvalid)
	}

	return completion.Choices[0].Message.Content, nil
}
