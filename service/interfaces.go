package service

import (
	"context"

	"mail-digest/domain"
)

// CleanerService normalizes a raw email into plain text. Cleaning never
// fails; the worst case is a placeholder body.
type CleanerService interface {
	Clean(ctx context.Context, raw *domain.RawEmail) *domain.CleanedEmail
}

// Summarizer turns a cleaned email into a structured summary. Implementations
// must only return errors for genuine backend failures; malformed model
// output is absorbed internally via repair and fallback.
type Summarizer interface {
	Summarize(ctx context.Context, email *domain.CleanedEmail) (*domain.EmailSummary, error)
	BuildInput(email *domain.CleanedEmail) string
	ModelID() string
}

// ProcessorService runs the fetch -> clean -> summarize -> store pipeline.
type ProcessorService interface {
	ProcessEmails(ctx context.Context, dryRun bool) (*domain.ProcessingResult, error)
	ProcessSingleEmail(ctx context.Context, messageID string) (*domain.EmailSummary, error)
}
