package domain

import (
	"time"
)

// Error taxonomy tags recorded on ProcessingError. Fetch errors abort the
// whole batch; everything else is scoped to a single message.
const (
	ErrorTypeFetch   = "FetchError"
	ErrorTypeClean   = "CleanError"
	ErrorTypeParse   = "ParseError"
	ErrorTypeBackend = "BackendError"
	ErrorTypeStorage = "StorageError"
	ErrorTypeUnknown = "UnknownError"
)

// ProcessingError records one failure during batch processing. MessageID is
// empty only for batch-fatal errors, where there is no single message to
// attribute the failure to.
type ProcessingError struct {
	Timestamp    time.Time `json:"timestamp"`
	MessageID    string    `json:"message_id,omitempty"`
	ErrorType    string    `json:"error_type"`
	ErrorMessage string    `json:"error_message"`
}

// ProcessingResult aggregates one batch run. For per-item failures
// TotalProcessed+TotalFailed <= TotalFetched holds; a batch-fatal failure
// reports all counters as zero with a single error entry.
type ProcessingResult struct {
	BatchID        string            `json:"batch_id"`
	Errors         []ProcessingError `json:"errors"`
	TotalFetched   int               `json:"total_fetched"`
	TotalProcessed int               `json:"total_processed"`
	TotalFailed    int               `json:"total_failed"`
	DryRun         bool              `json:"dry_run"`
}
