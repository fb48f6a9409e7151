package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// backendClient is the surface both driver clients expose.
type backendClient interface {
	Complete(ctx context.Context, input string) (string, error)
	Model() string
}

// llmRepository wraps a driver client with validation and request logging.
type llmRepository struct {
	client  backendClient
	logger  *slog.Logger
	modelID string
}

// NewRemoteLLMRepository exposes a hosted chat backend as an LLMRepository.
func NewRemoteLLMRepository(client backendClient, provider string, logger *slog.Logger) LLMRepository {
	return &llmRepository{
		client:  client,
		logger:  logger,
		modelID: provider + "/" + client.Model(),
	}
}

// NewLocalLLMRepository exposes a local inference backend as an LLMRepository.
func NewLocalLLMRepository(client backendClient, logger *slog.Logger) LLMRepository {
	return &llmRepository{
		client:  client,
		logger:  logger,
		modelID: "local/" + client.Model(),
	}
}

func (r *llmRepository) Complete(ctx context.Context, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("backend input cannot be empty")
	}

	start := time.Now()
	output, err := r.client.Complete(ctx, input)
	if err != nil {
		r.logger.ErrorContext(ctx, "backend request failed",
			"model", r.modelID,
			"elapsed", time.Since(start),
			"error", err)
		return "", err
	}

	r.logger.DebugContext(ctx, "backend request completed",
		"model", r.modelID,
		"elapsed", time.Since(start),
		"output_length", len(output))

	return output, nil
}

func (r *llmRepository) ModelID() string {
	return r.modelID
}
