// ABOUTME: Remote summarizer: prompts a hosted chat backend for structured
// ABOUTME: JSON, with one repair round-trip and a deterministic fallback
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"mail-digest/domain"
	"mail-digest/metrics"
	"mail-digest/repository"
)

const repairPromptTemplate = `The previous response was not valid JSON:
%s

Please provide ONLY a valid JSON object with these exact keys:
- "summary": string (1-3 sentences)
- "actions": array of strings
- "deadlines": array of date strings in YYYY-MM-DD format

No additional text, just the JSON object.`

type remoteSummarizer struct {
	backend        repository.LLMRepository
	maxInputTokens int
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

// NewRemoteSummarizer creates the hosted-backend summarizer.
func NewRemoteSummarizer(backend repository.LLMRepository, maxInputTokens int, m *metrics.Metrics, logger *slog.Logger) Summarizer {
	return &remoteSummarizer{
		backend:        backend,
		maxInputTokens: maxInputTokens,
		metrics:        m,
		logger:         logger,
	}
}

func (s *remoteSummarizer) ModelID() string {
	return s.backend.ModelID()
}

func (s *remoteSummarizer) BuildInput(email *domain.CleanedEmail) string {
	return buildPrompt(email, s.maxInputTokens)
}

// Summarize asks the backend for a structured summary. A malformed response
// gets one repair round-trip; if that also fails, for any reason, the result
// degrades to a deterministic fallback summary instead of an error. Only
// backend failures on the first call surface to the caller.
func (s *remoteSummarizer) Summarize(ctx context.Context, email *domain.CleanedEmail) (*domain.EmailSummary, error) {
	start := time.Now()
	response, err := s.backend.Complete(ctx, s.BuildInput(email))
	observeBackend(s.metrics, start)
	if err != nil {
		return nil, err
	}

	parsed, err := parseModelResponse(response)
	if err != nil {
		s.logger.WarnContext(ctx, "response parsing failed, requesting repair",
			"message_id", email.MessageID,
			"error", err)
		return s.repair(ctx, email, response), nil
	}

	return s.assemble(ctx, email, parsed, s.backend.ModelID()), nil
}

// repair re-prompts the backend quoting the malformed response. Any failure
// here, backend or parse, falls back rather than erroring.
func (s *remoteSummarizer) repair(ctx context.Context, email *domain.CleanedEmail, previousResponse string) *domain.EmailSummary {
	start := time.Now()
	response, err := s.backend.Complete(ctx, fmt.Sprintf(repairPromptTemplate, previousResponse))
	observeBackend(s.metrics, start)
	if err == nil {
		var parsed *modelResponse
		if parsed, err = parseModelResponse(response); err == nil {
			return s.assemble(ctx, email, parsed, s.backend.ModelID())
		}
	}

	s.logger.WarnContext(ctx, "repair attempt failed, using fallback summary",
		"message_id", email.MessageID,
		"error", err)
	if s.metrics != nil {
		s.metrics.FallbackSummaries.Inc()
	}

	return &domain.EmailSummary{
		MessageID:  email.MessageID,
		Sender:     email.Sender,
		Subject:    email.Subject,
		ReceivedAt: email.ReceivedAt,
		Summary:    fmt.Sprintf("Email from %s regarding: %s", email.Sender, email.Subject),
		Actions:    []string{},
		Deadlines:  []time.Time{},
		CreatedAt:  time.Now(),
		ModelUsed:  s.backend.ModelID() + "/fallback",
	}
}

// assemble converts a parsed response into the domain summary, dropping
// deadline entries the backend formatted incorrectly. Deadlines come back
// in whatever order the model chose; the summary carries them ascending
// and deduplicated.
func (s *remoteSummarizer) assemble(ctx context.Context, email *domain.CleanedEmail, parsed *modelResponse, modelID string) *domain.EmailSummary {
	deadlines := make([]time.Time, 0, len(parsed.Deadlines))
	seen := make(map[string]bool, len(parsed.Deadlines))
	for _, raw := range parsed.Deadlines {
		deadline, err := time.Parse("2006-01-02", raw)
		if err != nil {
			s.logger.WarnContext(ctx, "invalid deadline format",
				"message_id", email.MessageID,
				"deadline", raw)
			continue
		}
		if seen[raw] {
			continue
		}
		seen[raw] = true
		deadlines = append(deadlines, deadline)
	}
	sort.Slice(deadlines, func(i, j int) bool { return deadlines[i].Before(deadlines[j]) })

	return &domain.EmailSummary{
		MessageID:  email.MessageID,
		Sender:     email.Sender,
		Subject:    email.Subject,
		ReceivedAt: email.ReceivedAt,
		Summary:    *parsed.Summary,
		Actions:    parsed.Actions,
		Deadlines:  deadlines,
		CreatedAt:  time.Now(),
		ModelUsed:  modelID,
	}
}
