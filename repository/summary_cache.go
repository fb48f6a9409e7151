package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"mail-digest/domain"
)

const cacheKeyPrefix = "maildigest:summary:"

// cachedSummaryRepository decorates a SummaryRepository with a Redis
// read-through cache on Get. Cache failures degrade to the wrapped store and
// never fail the request.
type cachedSummaryRepository struct {
	inner  SummaryRepository
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// NewCachedSummaryRepository wraps store with a Redis cache.
func NewCachedSummaryRepository(store SummaryRepository, client *redis.Client, ttl time.Duration, logger *slog.Logger) SummaryRepository {
	return &cachedSummaryRepository{
		inner:  store,
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

func (r *cachedSummaryRepository) Save(ctx context.Context, summary *domain.EmailSummary) error {
	if err := r.inner.Save(ctx, summary); err != nil {
		return err
	}
	r.invalidate(ctx, summary.MessageID)
	return nil
}

func (r *cachedSummaryRepository) Get(ctx context.Context, messageID string) (*domain.EmailSummary, error) {
	key := cacheKeyPrefix + messageID

	cached, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var summary domain.EmailSummary
		if unmarshalErr := json.Unmarshal(cached, &summary); unmarshalErr == nil {
			return &summary, nil
		}
		// Corrupt entry: drop it and fall through to the store.
		r.invalidate(ctx, messageID)
	} else if !errors.Is(err, redis.Nil) {
		r.logger.WarnContext(ctx, "cache read failed, falling back to store", "error", err)
	}

	summary, err := r.inner.Get(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if encoded, marshalErr := json.Marshal(summary); marshalErr == nil {
		if setErr := r.client.Set(ctx, key, encoded, r.ttl).Err(); setErr != nil {
			r.logger.WarnContext(ctx, "cache write failed", "error", setErr)
		}
	}

	return summary, nil
}

func (r *cachedSummaryRepository) List(ctx context.Context, opts ListOptions) ([]*domain.EmailSummary, error) {
	return r.inner.List(ctx, opts)
}

func (r *cachedSummaryRepository) AttachFeedback(ctx context.Context, messageID string, feedback *domain.Feedback) error {
	if err := r.inner.AttachFeedback(ctx, messageID, feedback); err != nil {
		return err
	}
	r.invalidate(ctx, messageID)
	return nil
}

func (r *cachedSummaryRepository) Delete(ctx context.Context, messageID string) error {
	if err := r.inner.Delete(ctx, messageID); err != nil {
		return err
	}
	r.invalidate(ctx, messageID)
	return nil
}

func (r *cachedSummaryRepository) EraseAll(ctx context.Context) error {
	if err := r.inner.EraseAll(ctx); err != nil {
		return err
	}

	iter := r.client.Scan(ctx, 0, cacheKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			r.logger.WarnContext(ctx, "cache delete failed", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		r.logger.WarnContext(ctx, "cache scan failed", "error", err)
	}

	return nil
}

func (r *cachedSummaryRepository) invalidate(ctx context.Context, messageID string) {
	if err := r.client.Del(ctx, cacheKeyPrefix+messageID).Err(); err != nil {
		r.logger.WarnContext(ctx, "cache invalidation failed", "message_id", messageID, "error", err)
	}
}
