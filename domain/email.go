package domain

import (
	"time"
)

// Attachment describes a file attached to a raw email.
type Attachment struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	MIMEType string `json:"mime_type"`
}

// RawEmail represents a message as fetched from the mailbox.
// It is immutable once fetched; the pipeline never mutates it.
type RawEmail struct {
	ReceivedAt  time.Time    `json:"received_at"`
	MessageID   string       `json:"message_id"`
	Sender      string       `json:"sender"`
	Subject     string       `json:"subject"`
	BodyHTML    string       `json:"body_html"`
	BodyText    string       `json:"body_text"`
	Attachments []Attachment `json:"attachments"`
	Labels      []string     `json:"labels"`
}

// CleanedEmail is the cleaner's output: normalized plain text plus the
// metadata the summarizer needs. Created by the cleaner, consumed by the
// summarizer, then discarded.
type CleanedEmail struct {
	ReceivedAt     time.Time `json:"received_at"`
	MessageID      string    `json:"message_id"`
	Sender         string    `json:"sender"`
	Subject        string    `json:"subject"`
	CleanedBody    string    `json:"cleaned_body"`
	Attachments    []string  `json:"attachments"`
	OriginalLength int       `json:"original_length"`
	CleanedLength  int       `json:"cleaned_length"`
}

// FetchMode selects which messages a batch fetch considers.
type FetchMode string

const (
	FetchModeUnread    FetchMode = "unread"
	FetchModeLastNDays FetchMode = "last_n_days"
	FetchModeAll       FetchMode = "all"
)

// FetchRules bound a batch fetch.
type FetchRules struct {
	Mode        FetchMode `json:"mode" yaml:"mode"`
	MaxMessages int       `json:"max_messages" yaml:"max_messages"`
	DaysBack    int       `json:"days_back" yaml:"days_back"`
}

// Validate returns every rule violation rather than stopping at the first.
func (r FetchRules) Validate() []string {
	var errs []string

	switch r.Mode {
	case FetchModeUnread, FetchModeLastNDays, FetchModeAll:
	default:
		errs = append(errs, "fetch mode must be one of unread, last_n_days, all")
	}

	if r.MaxMessages <= 0 {
		errs = append(errs, "max_messages must be positive")
	}

	if r.DaysBack <= 0 {
		errs = append(errs, "days_back must be positive")
	}

	return errs
}
