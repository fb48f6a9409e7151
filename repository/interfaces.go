package repository

import (
	"context"

	"mail-digest/domain"
)

// MailboxRepository is the fetch collaborator: it retrieves raw messages
// from the user's mailbox. Failures while fetching a batch are fatal to that
// batch; failures while re-fetching a single message are scoped to it.
type MailboxRepository interface {
	FetchEmails(ctx context.Context, rules domain.FetchRules, dryRun bool) ([]*domain.RawEmail, error)
	FetchByID(ctx context.Context, messageID string) (*domain.RawEmail, error)
}

// ListOptions filter and page a summary listing.
type ListOptions struct {
	HasActions   *bool
	HasDeadlines *bool
	Limit        int
	Offset       int
}

// SummaryRepository persists summaries. Save is idempotent on message ID: a
// re-save overwrites the previous row.
type SummaryRepository interface {
	Save(ctx context.Context, summary *domain.EmailSummary) error
	Get(ctx context.Context, messageID string) (*domain.EmailSummary, error)
	List(ctx context.Context, opts ListOptions) ([]*domain.EmailSummary, error)
	AttachFeedback(ctx context.Context, messageID string, feedback *domain.Feedback) error
	Delete(ctx context.Context, messageID string) error
	EraseAll(ctx context.Context) error
}

// LLMRepository is the summarization backend: text in, text out. The remote
// and local variants differ only in the driver wired behind this interface.
type LLMRepository interface {
	Complete(ctx context.Context, input string) (string, error)
	ModelID() string
}
