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

// LocalModelClient talks to a locally hosted generation server
// (Ollama-compatible /api/generate).
type LocalModelClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	model      string
	timeout    time.Duration
}

// NewLocalModelClient builds a client for a local inference server.
func NewLocalModelClient(baseURL, model string, timeout time.Duration, logger *slog.Logger) *LocalModelClient {
	return &LocalModelClient{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		baseURL:    baseURL,
		model:      model,
		timeout:    timeout,
	}
}

type generatePayload struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Complete sends the input text to the local model and returns its output.
func (c *LocalModelClient) Complete(ctx context.Context, input string) (string, error) {
	payload := generatePayload{
		Model:  c.model,
		Prompt: input,
		Stream: false,
		Options: generateOptions{
			Temperature: 0.0,
			NumPredict:  500,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

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
		c.logger.ErrorContext(ctx, "local model returned non-200 status",
			"status", resp.StatusCode,
			"body", string(respBody))
		return "", fmt.Errorf("%w: local model status %d", domain.ErrBackendUnavailable, resp.StatusCode)
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: undecodable local model response: %v", domain.ErrBackendUnavailable, err)
	}
	if !parsed.Done {
		c.logger.WarnContext(ctx, "received incomplete response from local model")
	}

	return parsed.Response, nil
}

// Model returns the local model identifier.
func (c *LocalModelClient) Model() string {
	return c.model
}
