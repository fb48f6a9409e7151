package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"mail-digest/crypto"
	"mail-digest/domain"
)

const deadlineLayout = "2006-01-02"

// summaryPayload is the encrypted part of a stored summary. Everything a
// reader of the database alone should not see lives here.
type summaryPayload struct {
	Summary   string   `json:"summary"`
	Actions   []string `json:"actions"`
	Deadlines []string `json:"deadlines"`
}

type summaryRepository struct {
	db     *pgxpool.Pool
	crypto *crypto.Service
	logger *slog.Logger
}

// NewSummaryRepository creates the Postgres-backed summary store. The crypto
// service encrypts the summary body, actions and deadlines at rest.
func NewSummaryRepository(db *pgxpool.Pool, cryptoSvc *crypto.Service, logger *slog.Logger) SummaryRepository {
	return &summaryRepository{
		db:     db,
		crypto: cryptoSvc,
		logger: logger,
	}
}

// Save upserts the summary keyed by message ID.
func (r *summaryRepository) Save(ctx context.Context, summary *domain.EmailSummary) error {
	if summary == nil {
		return fmt.Errorf("summary cannot be nil")
	}
	if summary.MessageID == "" {
		return domain.ErrMissingMessageID
	}

	payload, err := r.sealPayload(summary)
	if err != nil {
		return err
	}

	const query = `
INSERT INTO email_summaries
	(message_id, sender, subject, received_at, created_at, model_used, has_actions, has_deadlines, payload)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (message_id) DO UPDATE SET
	sender = EXCLUDED.sender,
	subject = EXCLUDED.subject,
	received_at = EXCLUDED.received_at,
	created_at = EXCLUDED.created_at,
	model_used = EXCLUDED.model_used,
	has_actions = EXCLUDED.has_actions,
	has_deadlines = EXCLUDED.has_deadlines,
	payload = EXCLUDED.payload`

	_, err = r.db.Exec(ctx, query,
		summary.MessageID,
		summary.Sender,
		summary.Subject,
		summary.ReceivedAt,
		summary.CreatedAt,
		summary.ModelUsed,
		summary.HasActions(),
		summary.HasDeadlines(),
		payload,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to save summary", "message_id", summary.MessageID, "error", err)
		return fmt.Errorf("failed to save summary: %w", err)
	}

	r.logger.InfoContext(ctx, "summary saved", "message_id", summary.MessageID)

	return nil
}

// Get loads one summary with its feedback, if any.
func (r *summaryRepository) Get(ctx context.Context, messageID string) (*domain.EmailSummary, error) {
	if messageID == "" {
		return nil, domain.ErrMissingMessageID
	}

	const query = `
SELECT s.message_id, s.sender, s.subject, s.received_at, s.created_at, s.model_used, s.payload,
	f.rating, f.comment, f.created_at
FROM email_summaries s
LEFT JOIN summary_feedback f ON f.message_id = s.message_id
WHERE s.message_id = $1`

	var (
		summary   domain.EmailSummary
		payload   []byte
		fbRating  *int
		fbComment *string
		fbCreated *time.Time
	)

	row := r.db.QueryRow(ctx, query, messageID)
	err := row.Scan(
		&summary.MessageID, &summary.Sender, &summary.Subject,
		&summary.ReceivedAt, &summary.CreatedAt, &summary.ModelUsed, &payload,
		&fbRating, &fbComment, &fbCreated,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrSummaryNotFound, messageID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load summary: %w", err)
	}

	if err := r.openPayload(payload, &summary); err != nil {
		return nil, err
	}

	if fbRating != nil {
		summary.Feedback = &domain.Feedback{Rating: *fbRating}
		if fbComment != nil {
			summary.Feedback.Comment = *fbComment
		}
		if fbCreated != nil {
			summary.Feedback.CreatedAt = *fbCreated
		}
	}

	return &summary, nil
}

// List returns summaries newest-received first.
func (r *summaryRepository) List(ctx context.Context, opts ListOptions) ([]*domain.EmailSummary, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	query := `
SELECT message_id, sender, subject, received_at, created_at, model_used, payload
FROM email_summaries`

	var conds []string
	var args []any
	if opts.HasActions != nil {
		args = append(args, *opts.HasActions)
		conds = append(conds, fmt.Sprintf("has_actions = $%d", len(args)))
	}
	if opts.HasDeadlines != nil {
		args = append(args, *opts.HasDeadlines)
		conds = append(conds, fmt.Sprintf("has_deadlines = $%d", len(args)))
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}

	args = append(args, opts.Limit)
	query += fmt.Sprintf(" ORDER BY received_at DESC LIMIT $%d", len(args))
	args = append(args, opts.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	defer rows.Close()

	var summaries []*domain.EmailSummary
	for rows.Next() {
		var summary domain.EmailSummary
		var payload []byte

		if err := rows.Scan(
			&summary.MessageID, &summary.Sender, &summary.Subject,
			&summary.ReceivedAt, &summary.CreatedAt, &summary.ModelUsed, &payload,
		); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}

		if err := r.openPayload(payload, &summary); err != nil {
			return nil, err
		}

		summaries = append(summaries, &summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate summaries: %w", err)
	}

	return summaries, nil
}

// AttachFeedback upserts the rating for a stored summary.
func (r *summaryRepository) AttachFeedback(ctx context.Context, messageID string, feedback *domain.Feedback) error {
	if messageID == "" {
		return domain.ErrMissingMessageID
	}
	if err := feedback.Validate(); err != nil {
		return err
	}

	const query = `
INSERT INTO summary_feedback (message_id, rating, comment, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (message_id) DO UPDATE SET
	rating = EXCLUDED.rating,
	comment = EXCLUDED.comment,
	created_at = EXCLUDED.created_at`

	createdAt := feedback.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.Exec(ctx, query, messageID, feedback.Rating, feedback.Comment, createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign key violation
			return fmt.Errorf("%w: %s", domain.ErrSummaryNotFound, messageID)
		}
		return fmt.Errorf("failed to attach feedback: %w", err)
	}

	r.logger.InfoContext(ctx, "feedback attached", "message_id", messageID, "rating", feedback.Rating)

	return nil
}

// Delete removes one summary; feedback goes with it via the cascade.
func (r *summaryRepository) Delete(ctx context.Context, messageID string) error {
	if messageID == "" {
		return domain.ErrMissingMessageID
	}

	tag, err := r.db.Exec(ctx, "DELETE FROM email_summaries WHERE message_id = $1", messageID)
	if err != nil {
		return fmt.Errorf("failed to delete summary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrSummaryNotFound, messageID)
	}

	r.logger.InfoContext(ctx, "summary deleted", "message_id", messageID)

	return nil
}

// EraseAll removes every stored summary and its feedback.
func (r *summaryRepository) EraseAll(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, "TRUNCATE email_summaries CASCADE"); err != nil {
		return fmt.Errorf("failed to erase summaries: %w", err)
	}

	r.logger.InfoContext(ctx, "all summaries erased")

	return nil
}

func (r *summaryRepository) sealPayload(summary *domain.EmailSummary) ([]byte, error) {
	payload := summaryPayload{
		Summary:   summary.Summary,
		Actions:   summary.Actions,
		Deadlines: make([]string, 0, len(summary.Deadlines)),
	}
	for _, d := range summary.Deadlines {
		payload.Deadlines = append(payload.Deadlines, d.Format(deadlineLayout))
	}

	plain, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary payload: %w", err)
	}

	sealed, err := r.crypto.Encrypt(plain)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt summary payload: %w", err)
	}

	return sealed, nil
}

func (r *summaryRepository) openPayload(sealed []byte, summary *domain.EmailSummary) error {
	plain, err := r.crypto.Decrypt(sealed)
	if err != nil {
		return fmt.Errorf("failed to decrypt summary payload: %w", err)
	}

	var payload summaryPayload
	if err := json.Unmarshal(plain, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal summary payload: %w", err)
	}

	summary.Summary = payload.Summary
	summary.Actions = payload.Actions
	summary.Deadlines = summary.Deadlines[:0]
	for _, raw := range payload.Deadlines {
		parsed, err := time.Parse(deadlineLayout, raw)
		if err != nil {
			r.logger.Warn("stored deadline is not a valid date, dropping", "deadline", raw)
			continue
		}
		summary.Deadlines = append(summary.Deadlines, parsed)
	}

	return nil
}
