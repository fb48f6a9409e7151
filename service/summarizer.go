// ABOUTME: Shared summarization building blocks: prompt assembly, input
// ABOUTME: truncation, and structured response parsing used by both engines
package service

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mail-digest/config"
	"mail-digest/domain"
	"mail-digest/metrics"
	"mail-digest/repository"
)

const promptTemplate = `You are an email summarization assistant. Analyze the following email and produce a JSON object with these keys:
- "summary": 1-3 sentences describing the email's purpose and any requested next steps
- "actions": array of short action strings (what the recipient should do)
- "deadlines": array of ISO date strings (YYYY-MM-DD) or empty array if no deadlines

Email Details:
Subject: %s
From: %s
Date: %s
Attachments: %s

Email Body:
%s

Output only valid JSON. No additional text.`

const truncationMarker = "\n\n[Email truncated...]"

// NewSummarizer builds the summarizer matching the configured engine.
func NewSummarizer(cfg config.SummarizerConfig, backend repository.LLMRepository, m *metrics.Metrics, logger *slog.Logger) (Summarizer, error) {
	switch cfg.Engine {
	case config.EngineRemote:
		return NewRemoteSummarizer(backend, cfg.MaxInputTokens, m, logger), nil
	case config.EngineLocal:
		return NewLocalSummarizer(backend, cfg.MaxInputTokens, m, logger), nil
	default:
		return nil, fmt.Errorf("unsupported summarizer engine: %q", cfg.Engine)
	}
}

// buildPrompt renders the structured summarization prompt for one email.
func buildPrompt(email *domain.CleanedEmail, maxInputTokens int) string {
	attachmentList := "None"
	if len(email.Attachments) > 0 {
		attachmentList = strings.Join(email.Attachments, ", ")
	}

	return fmt.Sprintf(promptTemplate,
		email.Subject,
		email.Sender,
		email.ReceivedAt.Format("2006-01-02 15:04"),
		attachmentList,
		truncateBody(email.CleanedBody, maxInputTokens),
	)
}

// truncateBody caps the body at roughly maxTokens worth of characters,
// preferring a sentence boundary when one falls close enough to the cap.
// The estimate is one token per four characters.
func truncateBody(body string, maxTokens int) string {
	maxChars := maxTokens * 4

	runes := []rune(body)
	if len(runes) <= maxChars {
		return body
	}

	truncated := runes[:maxChars]
	lastPeriod := -1
	for i := len(truncated) - 1; i >= 0; i-- {
		if truncated[i] == '.' {
			lastPeriod = i
			break
		}
	}
	if float64(lastPeriod) > float64(maxChars)*0.8 {
		truncated = truncated[:lastPeriod+1]
	}

	return string(truncated) + truncationMarker
}

// modelResponse is the JSON shape the prompt asks the backend to produce.
// Summary is a pointer so a missing key is distinguishable from an empty one.
type modelResponse struct {
	Summary   *string  `json:"summary"`
	Actions   []string `json:"actions"`
	Deadlines []string `json:"deadlines"`
}

// parseModelResponse extracts the JSON object from a backend response that
// may carry chatter around it, and validates the required summary field.
// All failure modes wrap domain.ErrMalformedResponse.
func parseModelResponse(text string) (*modelResponse, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("%w: no JSON object found", domain.ErrMalformedResponse)
	}

	var parsed modelResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	if parsed.Summary == nil {
		return nil, fmt.Errorf("%w: missing summary field", domain.ErrMalformedResponse)
	}

	if parsed.Actions == nil {
		parsed.Actions = []string{}
	}
	if parsed.Deadlines == nil {
		parsed.Deadlines = []string{}
	}

	return &parsed, nil
}

// observeBackend times one backend call and records it on the histogram.
func observeBackend(m *metrics.Metrics, start time.Time) {
	if m != nil {
		m.BackendDuration.Observe(time.Since(start).Seconds())
	}
}
