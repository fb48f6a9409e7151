package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"mail-digest/domain"
)

const systemPrompt = "You are a helpful email summarization assistant. Always respond with valid JSON only."

// RemoteChatClient talks to a hosted chat-completions API.
type RemoteChatClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
}

// NewRemoteChatClient builds a client for the given provider endpoint.
func NewRemoteChatClient(baseURL, apiKey, model string, timeout time.Duration, logger *slog.Logger) *RemoteChatClient {
	return &RemoteChatClient{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		timeout:    timeout,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends the prompt and returns the model's raw text answer.
// Transport failures, auth failures and non-200 statuses are reported as
// backend errors; the content of the answer is not interpreted here.
func (c *RemoteChatClient) Complete(ctx context.Context, prompt string) (string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.3,
		MaxTokens:   500,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		c.logger.ErrorContext(ctx, "chat API returned non-200 status",
			"status", resp.StatusCode,
			"body", string(respBody))
		return "", fmt.Errorf("%w: chat API status %d", domain.ErrBackendUnavailable, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: undecodable chat API envelope: %v", domain.ErrBackendUnavailable, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: chat API returned no choices", domain.ErrBackendUnavailable)
	}

	return parsed.Choices[0].Message.Content, nil
}

// Model returns the provider-qualified model identifier.
func (c *RemoteChatClient) Model() string {
	return c.model
}
