// ABOUTME: HTTP handlers that trigger batch and single-message processing
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"mail-digest/domain"
	"mail-digest/service"
)

// ProcessRequest is the body for triggering a batch run.
type ProcessRequest struct {
	DryRun bool `json:"dry_run"`
}

// ProcessHandler serves the processing endpoints.
type ProcessHandler struct {
	processor service.ProcessorService
	logger    *slog.Logger
}

// NewProcessHandler creates a new process handler.
func NewProcessHandler(processor service.ProcessorService, logger *slog.Logger) *ProcessHandler {
	return &ProcessHandler{
		processor: processor,
		logger:    logger,
	}
}

// HandleProcess handles POST /api/v1/process requests. The response carries
// the batch counters and per-message errors; partial failure is still a 200
// because the batch itself completed.
func (h *ProcessHandler) HandleProcess(c echo.Context) error {
	ctx := c.Request().Context()

	req := ProcessRequest{}
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			h.logger.WarnContext(ctx, "failed to bind process request", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
		}
	}

	h.logger.InfoContext(ctx, "processing triggered via API", "dry_run", req.DryRun)

	result, err := h.processor.ProcessEmails(ctx, req.DryRun)
	if err != nil {
		h.logger.ErrorContext(ctx, "processing failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to process emails")
	}

	return c.JSON(http.StatusOK, result)
}

// HandleProcessSingle handles POST /api/v1/process/:message_id requests.
func (h *ProcessHandler) HandleProcessSingle(c echo.Context) error {
	ctx := c.Request().Context()

	messageID := c.Param("message_id")
	if messageID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Message ID cannot be empty")
	}

	summary, err := h.processor.ProcessSingleEmail(ctx, messageID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmailNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Email not found")
		case errors.Is(err, domain.ErrBackendUnavailable):
			h.logger.ErrorContext(ctx, "summarization backend unavailable", "message_id", messageID, "error", err)
			return echo.NewHTTPError(http.StatusBadGateway, "Summarization backend unavailable")
		case errors.Is(err, domain.ErrMailboxUnavailable):
			h.logger.ErrorContext(ctx, "mailbox unavailable", "message_id", messageID, "error", err)
			return echo.NewHTTPError(http.StatusServiceUnavailable, "Mailbox unavailable")
		default:
			h.logger.ErrorContext(ctx, "failed to process email", "message_id", messageID, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to process email")
		}
	}

	return c.JSON(http.StatusOK, toSummaryResponse(summary))
}
