// ABOUTME: Batch orchestration: fetch, clean, summarize, and store with
// ABOUTME: per-message failure isolation and batch-fatal fetch handling
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mail-digest/domain"
	"mail-digest/metrics"
	"mail-digest/pipeline"
	"mail-digest/repository"
)

type processorService struct {
	mailbox    repository.MailboxRepository
	cleaner    CleanerService
	summarizer Summarizer
	summaries  repository.SummaryRepository
	rules      domain.FetchRules
	workers    int
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewProcessorService wires the pipeline stages into the batch orchestrator.
func NewProcessorService(
	mailbox repository.MailboxRepository,
	cleaner CleanerService,
	summarizer Summarizer,
	summaries repository.SummaryRepository,
	rules domain.FetchRules,
	workers int,
	m *metrics.Metrics,
	logger *slog.Logger,
) ProcessorService {
	if workers < 1 {
		workers = 1
	}
	return &processorService{
		mailbox:    mailbox,
		cleaner:    cleaner,
		summarizer: summarizer,
		summaries:  summaries,
		rules:      rules,
		workers:    workers,
		metrics:    m,
		logger:     logger,
	}
}

// ProcessEmails runs one batch. A fetch failure is batch-fatal: the result
// reports zero counters and a single unattributed error. Every later failure
// is scoped to its message and never stops the rest of the batch, so the
// returned error is always nil once fetching succeeded.
func (s *processorService) ProcessEmails(ctx context.Context, dryRun bool) (*domain.ProcessingResult, error) {
	batchID := uuid.New().String()
	s.logger.InfoContext(ctx, "starting email processing",
		"batch_id", batchID,
		"dry_run", dryRun)
	if s.metrics != nil {
		s.metrics.BatchesTotal.Inc()
	}

	result := &domain.ProcessingResult{
		BatchID: batchID,
		Errors:  []domain.ProcessingError{},
		DryRun:  dryRun,
	}

	rawEmails, err := s.mailbox.FetchEmails(ctx, s.rules, dryRun)
	if err != nil {
		s.logger.ErrorContext(ctx, "batch fetch failed",
			"batch_id", batchID,
			"error", err)
		result.Errors = append(result.Errors, domain.ProcessingError{
			Timestamp:    time.Now(),
			ErrorType:    ClassifyError(err, domain.ErrorTypeFetch),
			ErrorMessage: err.Error(),
		})
		return result, nil
	}

	result.TotalFetched = len(rawEmails)
	s.logger.InfoContext(ctx, "fetched emails",
		"batch_id", batchID,
		"count", result.TotalFetched)

	outcomes := pipeline.Run(ctx, s.workers, rawEmails,
		func(ctx context.Context, raw *domain.RawEmail) (*domain.EmailSummary, error) {
			return s.processOne(ctx, raw, dryRun)
		})

	for i, outcome := range outcomes {
		raw := rawEmails[i]
		if outcome.Err != nil {
			result.TotalFailed++
			result.Errors = append(result.Errors, domain.ProcessingError{
				Timestamp:    time.Now(),
				MessageID:    raw.MessageID,
				ErrorType:    errorTypeOf(outcome.Err),
				ErrorMessage: outcome.Err.Error(),
			})
			if s.metrics != nil {
				s.metrics.EmailsFailed.Inc()
			}
			s.logger.ErrorContext(ctx, "email processing failed",
				"batch_id", batchID,
				"message_id", raw.MessageID,
				"error", outcome.Err)
			continue
		}

		result.TotalProcessed++
		if s.metrics != nil {
			s.metrics.EmailsProcessed.Inc()
		}
	}

	s.logger.InfoContext(ctx, "processing complete",
		"batch_id", batchID,
		"processed", result.TotalProcessed,
		"failed", result.TotalFailed,
		"fetched", result.TotalFetched)

	return result, nil
}

// processOne runs a single message through clean, summarize, and store. Dry
// runs stop after cleaning and report success without a summary.
func (s *processorService) processOne(ctx context.Context, raw *domain.RawEmail, dryRun bool) (*domain.EmailSummary, error) {
	cleaned := s.cleaner.Clean(ctx, raw)

	if dryRun {
		s.logger.InfoContext(ctx, "dry run, skipping summarize and store",
			"message_id", cleaned.MessageID,
			"subject", cleaned.Subject)
		return nil, nil
	}

	summary, err := s.summarizer.Summarize(ctx, cleaned)
	if err != nil {
		return nil, newStageError(ClassifyError(err, domain.ErrorTypeBackend), err)
	}

	if err := s.summaries.Save(ctx, summary); err != nil {
		return nil, newStageError(domain.ErrorTypeStorage, err)
	}

	return summary, nil
}

// ProcessSingleEmail re-runs the pipeline for one message on demand. Unlike
// batch processing, failures here surface directly to the caller.
func (s *processorService) ProcessSingleEmail(ctx context.Context, messageID string) (*domain.EmailSummary, error) {
	s.logger.InfoContext(ctx, "processing single email", "message_id", messageID)

	raw, err := s.mailbox.FetchByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	cleaned := s.cleaner.Clean(ctx, raw)

	summary, err := s.summarizer.Summarize(ctx, cleaned)
	if err != nil {
		return nil, err
	}

	if err := s.summaries.Save(ctx, summary); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "single email processed", "message_id", messageID)
	return summary, nil
}
