// ABOUTME: Domain-level sentinel errors for the mail-digest pipeline
// ABOUTME: These errors are used with errors.Is() for error type checking
package domain

import "errors"

// Fetch errors
var (
	// ErrEmailNotFound indicates the requested message does not exist in the mailbox
	ErrEmailNotFound = errors.New("email not found")

	// ErrMailboxUnavailable indicates the mailbox could not be reached or authenticated
	ErrMailboxUnavailable = errors.New("mailbox unavailable")
)

// Summarizer errors
var (
	// ErrBackendUnavailable indicates the summarization backend failed at the
	// transport level (network, auth, non-200 status). Propagates to the caller.
	ErrBackendUnavailable = errors.New("summarization backend unavailable")

	// ErrMalformedResponse indicates the backend answered but its output could
	// not be parsed into the structured contract. Never escapes the summarizer;
	// it drives the repair-then-fallback path.
	ErrMalformedResponse = errors.New("malformed backend response")
)

// Storage errors
var (
	// ErrSummaryNotFound indicates no stored summary exists for the message ID
	ErrSummaryNotFound = errors.New("summary not found")
)

// Validation errors
var (
	// ErrInvalidRating indicates a feedback rating outside {1, -1}
	ErrInvalidRating = errors.New("rating must be 1 or -1")

	// ErrMissingMessageID indicates a request without the required message ID
	ErrMissingMessageID = errors.New("message ID is required")
)
