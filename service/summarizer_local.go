// ABOUTME: Local summarizer: free-text summary from a local model plus
// ABOUTME: heuristic action and deadline extraction from the email body
package service

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"mail-digest/domain"
	"mail-digest/metrics"
	"mail-digest/repository"
)

const (
	maxExtractedActions   = 5
	maxExtractedDeadlines = 3
)

// actionKeywords mark a sentence as a likely action item.
var actionKeywords = []string{
	"please", "could you", "can you", "need to", "should", "must",
	"review", "send", "update",
}

var (
	sentenceSplitPattern = regexp.MustCompile(`[.!?]\s+`)

	deadlineDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
		regexp.MustCompile(`(?i)\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]* \d{1,2},? \d{4}\b`),
	}
)

type localSummarizer struct {
	backend        repository.LLMRepository
	maxInputTokens int
	metrics        *metrics.Metrics
	logger         *slog.Logger

	// now is swapped out in tests to pin the deadline cutoff.
	now func() time.Time
}

// NewLocalSummarizer creates the local-model summarizer. Local models do not
// reliably emit structured output, so actions and deadlines come from
// keyword and date heuristics over the cleaned body instead of the model.
func NewLocalSummarizer(backend repository.LLMRepository, maxInputTokens int, m *metrics.Metrics, logger *slog.Logger) Summarizer {
	return &localSummarizer{
		backend:        backend,
		maxInputTokens: maxInputTokens,
		metrics:        m,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *localSummarizer) ModelID() string {
	return s.backend.ModelID()
}

func (s *localSummarizer) BuildInput(email *domain.CleanedEmail) string {
	return "Subject: " + email.Subject + "\n\n" + truncateBody(email.CleanedBody, s.maxInputTokens)
}

func (s *localSummarizer) Summarize(ctx context.Context, email *domain.CleanedEmail) (*domain.EmailSummary, error) {
	start := time.Now()
	summaryText, err := s.backend.Complete(ctx, s.BuildInput(email))
	observeBackend(s.metrics, start)
	if err != nil {
		return nil, err
	}

	return &domain.EmailSummary{
		MessageID:  email.MessageID,
		Sender:     email.Sender,
		Subject:    email.Subject,
		ReceivedAt: email.ReceivedAt,
		Summary:    strings.TrimSpace(summaryText),
		Actions:    extractActions(email.CleanedBody),
		Deadlines:  s.extractDeadlines(email.CleanedBody),
		CreatedAt:  time.Now(),
		ModelUsed:  s.backend.ModelID(),
	}, nil
}

// extractActions collects sentences containing an action keyword, capped at
// five in document order.
func extractActions(text string) []string {
	actions := []string{}
	for _, sentence := range sentenceSplitPattern.Split(text, -1) {
		lower := strings.ToLower(sentence)
		for _, keyword := range actionKeywords {
			if strings.Contains(lower, keyword) {
				actions = append(actions, strings.TrimSpace(sentence))
				break
			}
		}
		if len(actions) == maxExtractedActions {
			break
		}
	}
	return actions
}

// extractDeadlines scans the body for recognizable date expressions and keeps
// those on or after today, deduplicated and ascending, capped at three.
func (s *localSummarizer) extractDeadlines(text string) []time.Time {
	today := domain.DateOnly(s.now())
	seen := map[time.Time]struct{}{}
	deadlines := []time.Time{}

	for _, pattern := range deadlineDatePatterns {
		for _, match := range pattern.FindAllString(text, -1) {
			parsed, err := dateparse.ParseAny(match)
			if err != nil {
				continue
			}
			deadline := domain.DateOnly(parsed)
			if deadline.Before(today) {
				continue
			}
			if _, dup := seen[deadline]; dup {
				continue
			}
			seen[deadline] = struct{}{}
			deadlines = append(deadlines, deadline)
		}
	}

	sort.Slice(deadlines, func(i, j int) bool { return deadlines[i].Before(deadlines[j]) })

	if len(deadlines) > maxExtractedDeadlines {
		deadlines = deadlines[:maxExtractedDeadlines]
	}
	return deadlines
}
