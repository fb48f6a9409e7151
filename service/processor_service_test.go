package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mail-digest/domain"
	"mail-digest/repository"
)

type stubMailbox struct {
	emails   []*domain.RawEmail
	fetchErr error
	byID     map[string]*domain.RawEmail
}

func (m *stubMailbox) FetchEmails(_ context.Context, _ domain.FetchRules, _ bool) ([]*domain.RawEmail, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.emails, nil
}

func (m *stubMailbox) FetchByID(_ context.Context, messageID string) (*domain.RawEmail, error) {
	raw, ok := m.byID[messageID]
	if !ok {
		return nil, domain.ErrEmailNotFound
	}
	return raw, nil
}

// stubSummarizer echoes the cleaned subject back as the summary, failing for
// message IDs listed in failFor.
type stubSummarizer struct {
	mu      sync.Mutex
	calls   []string
	failFor map[string]error
}

func (s *stubSummarizer) Summarize(_ context.Context, email *domain.CleanedEmail) (*domain.EmailSummary, error) {
	s.mu.Lock()
	s.calls = append(s.calls, email.MessageID)
	s.mu.Unlock()
	if err, ok := s.failFor[email.MessageID]; ok {
		return nil, err
	}
	return &domain.EmailSummary{
		MessageID:  email.MessageID,
		Sender:     email.Sender,
		Subject:    email.Subject,
		ReceivedAt: email.ReceivedAt,
		Summary:    "Summary of " + email.Subject,
		CreatedAt:  time.Now(),
		ModelUsed:  "test/model",
	}, nil
}

func (s *stubSummarizer) BuildInput(email *domain.CleanedEmail) string { return email.CleanedBody }

func (s *stubSummarizer) ModelID() string { return "test/model" }

type stubSummaryStore struct {
	repository.SummaryRepository

	mu      sync.Mutex
	saved   []*domain.EmailSummary
	failFor map[string]error
}

func (s *stubSummaryStore) Save(_ context.Context, summary *domain.EmailSummary) error {
	if err, ok := s.failFor[summary.MessageID]; ok {
		return err
	}
	s.mu.Lock()
	s.saved = append(s.saved, summary)
	s.mu.Unlock()
	return nil
}

func batchEmails(n int) []*domain.RawEmail {
	emails := make([]*domain.RawEmail, 0, n)
	for i := 0; i < n; i++ {
		emails = append(emails, &domain.RawEmail{
			MessageID:  fmt.Sprintf("msg-%d", i),
			Sender:     "alice@example.com",
			Subject:    fmt.Sprintf("Subject %d", i),
			ReceivedAt: time.Date(2026, 3, 10, 9, 0, i, 0, time.UTC),
			BodyText:   "Some body text with enough content.",
		})
	}
	return emails
}

func newTestProcessor(mailbox *stubMailbox, summarizer *stubSummarizer, store *stubSummaryStore, workers int) ProcessorService {
	return NewProcessorService(
		mailbox,
		NewCleanerService(testLogger()),
		summarizer,
		store,
		domain.FetchRules{Mode: domain.FetchModeUnread, MaxMessages: 20},
		workers,
		nil,
		testLogger(),
	)
}

func TestProcessorService_ProcessEmails(t *testing.T) {
	ctx := context.Background()

	t.Run("should process every fetched email", func(t *testing.T) {
		mailbox := &stubMailbox{emails: batchEmails(3)}
		summarizer := &stubSummarizer{}
		store := &stubSummaryStore{}
		processor := newTestProcessor(mailbox, summarizer, store, 1)

		result, err := processor.ProcessEmails(ctx, false)

		require.NoError(t, err)
		assert.Equal(t, 3, result.TotalFetched)
		assert.Equal(t, 3, result.TotalProcessed)
		assert.Equal(t, 0, result.TotalFailed)
		assert.Empty(t, result.Errors)
		assert.NotEmpty(t, result.BatchID)
		assert.Len(t, store.saved, 3)
	})

	t.Run("should count dry-run emails as processed without summarizing or storing", func(t *testing.T) {
		mailbox := &stubMailbox{emails: batchEmails(5)}
		summarizer := &stubSummarizer{}
		store := &stubSummaryStore{}
		processor := newTestProcessor(mailbox, summarizer, store, 1)

		result, err := processor.ProcessEmails(ctx, true)

		require.NoError(t, err)
		assert.True(t, result.DryRun)
		assert.Equal(t, 5, result.TotalFetched)
		assert.Equal(t, 5, result.TotalProcessed)
		assert.Equal(t, 0, result.TotalFailed)
		assert.Empty(t, summarizer.calls)
		assert.Empty(t, store.saved)
	})

	t.Run("should report fetch failure as single batch-fatal error", func(t *testing.T) {
		mailbox := &stubMailbox{fetchErr: fmt.Errorf("connect: %w", domain.ErrMailboxUnavailable)}
		processor := newTestProcessor(mailbox, &stubSummarizer{}, &stubSummaryStore{}, 1)

		result, err := processor.ProcessEmails(ctx, false)

		require.NoError(t, err)
		assert.Equal(t, 0, result.TotalFetched)
		assert.Equal(t, 0, result.TotalProcessed)
		assert.Equal(t, 0, result.TotalFailed)
		require.Len(t, result.Errors, 1)
		assert.Empty(t, result.Errors[0].MessageID)
		assert.Equal(t, domain.ErrorTypeFetch, result.Errors[0].ErrorType)
	})

	t.Run("should isolate a summarization failure to its message", func(t *testing.T) {
		mailbox := &stubMailbox{emails: batchEmails(3)}
		summarizer := &stubSummarizer{failFor: map[string]error{
			"msg-1": fmt.Errorf("request failed: %w", domain.ErrBackendUnavailable),
		}}
		store := &stubSummaryStore{}
		processor := newTestProcessor(mailbox, summarizer, store, 1)

		result, err := processor.ProcessEmails(ctx, false)

		require.NoError(t, err)
		assert.Equal(t, 3, result.TotalFetched)
		assert.Equal(t, 2, result.TotalProcessed)
		assert.Equal(t, 1, result.TotalFailed)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "msg-1", result.Errors[0].MessageID)
		assert.Equal(t, domain.ErrorTypeBackend, result.Errors[0].ErrorType)
		assert.Len(t, store.saved, 2)
	})

	t.Run("should tag storage failures as storage errors", func(t *testing.T) {
		mailbox := &stubMailbox{emails: batchEmails(2)}
		store := &stubSummaryStore{failFor: map[string]error{
			"msg-0": fmt.Errorf("insert failed"),
		}}
		processor := newTestProcessor(mailbox, &stubSummarizer{}, store, 1)

		result, err := processor.ProcessEmails(ctx, false)

		require.NoError(t, err)
		assert.Equal(t, 1, result.TotalProcessed)
		assert.Equal(t, 1, result.TotalFailed)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, domain.ErrorTypeStorage, result.Errors[0].ErrorType)
	})

	t.Run("should tag malformed-response failures as parse errors", func(t *testing.T) {
		mailbox := &stubMailbox{emails: batchEmails(1)}
		summarizer := &stubSummarizer{failFor: map[string]error{
			"msg-0": fmt.Errorf("bad output: %w", domain.ErrMalformedResponse),
		}}
		processor := newTestProcessor(mailbox, summarizer, &stubSummaryStore{}, 1)

		result, err := processor.ProcessEmails(ctx, false)

		require.NoError(t, err)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, domain.ErrorTypeParse, result.Errors[0].ErrorType)
	})

	t.Run("should produce identical counts with concurrent workers", func(t *testing.T) {
		mailbox := &stubMailbox{emails: batchEmails(10)}
		summarizer := &stubSummarizer{failFor: map[string]error{
			"msg-3": domain.ErrBackendUnavailable,
			"msg-7": domain.ErrBackendUnavailable,
		}}
		store := &stubSummaryStore{}
		processor := newTestProcessor(mailbox, summarizer, store, 4)

		result, err := processor.ProcessEmails(ctx, false)

		require.NoError(t, err)
		assert.Equal(t, 10, result.TotalFetched)
		assert.Equal(t, 8, result.TotalProcessed)
		assert.Equal(t, 2, result.TotalFailed)
		require.Len(t, result.Errors, 2)
		// Errors aggregate in input order regardless of worker interleaving.
		assert.Equal(t, "msg-3", result.Errors[0].MessageID)
		assert.Equal(t, "msg-7", result.Errors[1].MessageID)
	})

	t.Run("should handle empty mailbox", func(t *testing.T) {
		mailbox := &stubMailbox{}
		processor := newTestProcessor(mailbox, &stubSummarizer{}, &stubSummaryStore{}, 1)

		result, err := processor.ProcessEmails(ctx, false)

		require.NoError(t, err)
		assert.Equal(t, 0, result.TotalFetched)
		assert.Equal(t, 0, result.TotalProcessed)
		assert.Empty(t, result.Errors)
	})
}

func TestProcessorService_ProcessSingleEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("should process and store a single email", func(t *testing.T) {
		raw := batchEmails(1)[0]
		mailbox := &stubMailbox{byID: map[string]*domain.RawEmail{"msg-0": raw}}
		store := &stubSummaryStore{}
		processor := newTestProcessor(mailbox, &stubSummarizer{}, store, 1)

		summary, err := processor.ProcessSingleEmail(ctx, "msg-0")

		require.NoError(t, err)
		assert.Equal(t, "msg-0", summary.MessageID)
		assert.Len(t, store.saved, 1)
	})

	t.Run("should propagate not-found errors", func(t *testing.T) {
		mailbox := &stubMailbox{byID: map[string]*domain.RawEmail{}}
		processor := newTestProcessor(mailbox, &stubSummarizer{}, &stubSummaryStore{}, 1)

		_, err := processor.ProcessSingleEmail(ctx, "missing")

		assert.ErrorIs(t, err, domain.ErrEmailNotFound)
	})

	t.Run("should propagate summarizer failure", func(t *testing.T) {
		raw := batchEmails(1)[0]
		mailbox := &stubMailbox{byID: map[string]*domain.RawEmail{"msg-0": raw}}
		summarizer := &stubSummarizer{failFor: map[string]error{"msg-0": domain.ErrBackendUnavailable}}
		processor := newTestProcessor(mailbox, summarizer, &stubSummaryStore{}, 1)

		_, err := processor.ProcessSingleEmail(ctx, "msg-0")

		assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	})
}
