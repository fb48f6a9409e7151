// ABOUTME: HTTP handlers for reading stored summaries, attaching feedback,
// ABOUTME: and erasing all stored data
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"mail-digest/domain"
	"mail-digest/repository"
)

// SummaryResponse is the wire shape of one stored summary. Deadlines render
// as calendar dates, not timestamps.
type SummaryResponse struct {
	MessageID  string            `json:"message_id"`
	Sender     string            `json:"sender"`
	Subject    string            `json:"subject"`
	ReceivedAt string            `json:"received_at"`
	Summary    string            `json:"summary"`
	Actions    []string          `json:"actions"`
	Deadlines  []string          `json:"deadlines"`
	CreatedAt  string            `json:"created_at"`
	ModelUsed  string            `json:"model_used"`
	Feedback   *FeedbackResponse `json:"feedback,omitempty"`
}

// FeedbackResponse is the wire shape of feedback attached to a summary.
type FeedbackResponse struct {
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"created_at"`
}

// FeedbackRequest is the body for submitting feedback.
type FeedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// SummaryHandler serves the stored-summary endpoints.
type SummaryHandler struct {
	summaries repository.SummaryRepository
	logger    *slog.Logger
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(summaries repository.SummaryRepository, logger *slog.Logger) *SummaryHandler {
	return &SummaryHandler{
		summaries: summaries,
		logger:    logger,
	}
}

// HandleList handles GET /api/v1/summaries requests.
func (h *SummaryHandler) HandleList(c echo.Context) error {
	ctx := c.Request().Context()

	opts := repository.ListOptions{}
	if v := c.QueryParam("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid limit parameter")
		}
		opts.Limit = limit
	}
	if v := c.QueryParam("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid offset parameter")
		}
		opts.Offset = offset
	}
	var err error
	if opts.HasActions, err = boolFilter(c, "has_actions"); err != nil {
		return err
	}
	if opts.HasDeadlines, err = boolFilter(c, "has_deadlines"); err != nil {
		return err
	}

	summaries, err := h.summaries.List(ctx, opts)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list summaries", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list summaries")
	}

	response := make([]SummaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		response = append(response, toSummaryResponse(summary))
	}

	return c.JSON(http.StatusOK, response)
}

// HandleGet handles GET /api/v1/summaries/:message_id requests.
func (h *SummaryHandler) HandleGet(c echo.Context) error {
	ctx := c.Request().Context()

	messageID := c.Param("message_id")
	if messageID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Message ID cannot be empty")
	}

	summary, err := h.summaries.Get(ctx, messageID)
	if err != nil {
		if errors.Is(err, domain.ErrSummaryNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Summary not found")
		}
		h.logger.ErrorContext(ctx, "failed to get summary", "message_id", messageID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get summary")
	}

	return c.JSON(http.StatusOK, toSummaryResponse(summary))
}

// HandleFeedback handles POST /api/v1/summaries/:message_id/feedback requests.
func (h *SummaryHandler) HandleFeedback(c echo.Context) error {
	ctx := c.Request().Context()

	messageID := c.Param("message_id")
	if messageID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Message ID cannot be empty")
	}

	var req FeedbackRequest
	if err := c.Bind(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to bind feedback request", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	feedback := &domain.Feedback{
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: time.Now(),
	}
	if err := feedback.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Rating must be 1 or -1")
	}

	if err := h.summaries.AttachFeedback(ctx, messageID, feedback); err != nil {
		if errors.Is(err, domain.ErrSummaryNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Summary not found")
		}
		h.logger.ErrorContext(ctx, "failed to save feedback", "message_id", messageID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save feedback")
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// HandleDelete handles DELETE /api/v1/summaries/:message_id requests.
func (h *SummaryHandler) HandleDelete(c echo.Context) error {
	ctx := c.Request().Context()

	messageID := c.Param("message_id")
	if messageID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Message ID cannot be empty")
	}

	if err := h.summaries.Delete(ctx, messageID); err != nil {
		if errors.Is(err, domain.ErrSummaryNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Summary not found")
		}
		h.logger.ErrorContext(ctx, "failed to delete summary", "message_id", messageID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete summary")
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// HandleErase handles DELETE /api/v1/data requests.
func (h *SummaryHandler) HandleErase(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.summaries.EraseAll(ctx); err != nil {
		h.logger.ErrorContext(ctx, "failed to erase stored data", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to erase data")
	}

	h.logger.InfoContext(ctx, "all stored summaries erased")
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func boolFilter(c echo.Context, name string) (*bool, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name+" parameter")
	}
	return &parsed, nil
}

func toSummaryResponse(summary *domain.EmailSummary) SummaryResponse {
	deadlines := make([]string, 0, len(summary.Deadlines))
	for _, d := range summary.Deadlines {
		deadlines = append(deadlines, d.Format("2006-01-02"))
	}

	response := SummaryResponse{
		MessageID:  summary.MessageID,
		Sender:     summary.Sender,
		Subject:    summary.Subject,
		ReceivedAt: summary.ReceivedAt.Format(time.RFC3339),
		Summary:    summary.Summary,
		Actions:    summary.Actions,
		Deadlines:  deadlines,
		CreatedAt:  summary.CreatedAt.Format(time.RFC3339),
		ModelUsed:  summary.ModelUsed,
	}

	if summary.Feedback != nil {
		response.Feedback = &FeedbackResponse{
			Rating:    summary.Feedback.Rating,
			Comment:   summary.Feedback.Comment,
			CreatedAt: summary.Feedback.CreatedAt.Format(time.RFC3339),
		}
	}

	return response
}
