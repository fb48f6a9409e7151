// ABOUTME: Maps pipeline failures onto the error taxonomy recorded in
// ABOUTME: ProcessingResult entries
package service

import (
	"errors"

	"mail-digest/domain"
)

// ClassifyError tags an error with its taxonomy type. Errors that do not
// wrap a known sentinel fall back to the stage's default tag; pass
// domain.ErrorTypeUnknown when the stage gives no hint.
func ClassifyError(err error, fallback string) string {
	switch {
	case errors.Is(err, domain.ErrMailboxUnavailable),
		errors.Is(err, domain.ErrEmailNotFound):
		return domain.ErrorTypeFetch
	case errors.Is(err, domain.ErrMalformedResponse):
		return domain.ErrorTypeParse
	case errors.Is(err, domain.ErrBackendUnavailable):
		return domain.ErrorTypeBackend
	default:
		return fallback
	}
}

// stageError carries the taxonomy tag of the pipeline stage that failed, so
// aggregation does not have to re-derive the stage from the error chain.
type stageError struct {
	errType string
	err     error
}

func (e *stageError) Error() string { return e.err.Error() }

func (e *stageError) Unwrap() error { return e.err }

func newStageError(errType string, err error) *stageError {
	return &stageError{errType: errType, err: err}
}

// errorTypeOf resolves the taxonomy tag for an aggregated pipeline error.
func errorTypeOf(err error) string {
	var staged *stageError
	if errors.As(err, &staged) {
		return staged.errType
	}
	return ClassifyError(err, domain.ErrorTypeUnknown)
}
