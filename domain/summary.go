package domain

import (
	"time"
)

// EmailSummary is the pipeline's end product for one message. The message ID
// always equals the CleanedEmail's message ID that produced it.
type EmailSummary struct {
	ReceivedAt time.Time   `db:"received_at" json:"received_at"`
	CreatedAt  time.Time   `db:"created_at"  json:"created_at"`
	MessageID  string      `db:"message_id"  json:"message_id"`
	Sender     string      `db:"sender"      json:"sender"`
	Subject    string      `db:"subject"     json:"subject"`
	Summary    string      `db:"-"           json:"summary"`
	ModelUsed  string      `db:"model_used"  json:"model_used"`
	Actions    []string    `db:"-"           json:"actions"`
	Deadlines  []time.Time `db:"-"           json:"deadlines"`
	Feedback   *Feedback   `db:"-"           json:"feedback,omitempty"`
}

// HasActions reports whether the summary carries at least one action item.
func (s *EmailSummary) HasActions() bool { return len(s.Actions) > 0 }

// HasDeadlines reports whether the summary carries at least one deadline.
func (s *EmailSummary) HasDeadlines() bool { return len(s.Deadlines) > 0 }

// Feedback is a post-hoc user rating attached to a stored summary.
type Feedback struct {
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Comment   string    `db:"comment"    json:"comment,omitempty"`
	Rating    int       `db:"rating"     json:"rating"`
}

// Validate checks the rating is thumbs-up (1) or thumbs-down (-1).
func (f *Feedback) Validate() error {
	if f.Rating != 1 && f.Rating != -1 {
		return ErrInvalidRating
	}
	return nil
}

// DateOnly truncates a timestamp to its calendar date in UTC. Deadlines are
// calendar dates; comparing them through this keeps ordering and
// deduplication independent of the time-of-day the parser happened to fill.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
