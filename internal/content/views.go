package content

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mathservice-vn/platform/app/internal/database"
)

// ViewCounter batches article view increments in Redis and flushes them
// to Postgres periodically, so a hot article does not turn every read
// into a row update. With no Redis client it falls back to direct
// updates.
type ViewCounter struct {
	client  *redis.Client
	queries *database.Queries
	logger  *slog.Logger
}

func NewViewCounter(client *redis.Client, queries *database.Queries, logger *slog.Logger) *ViewCounter {
	return &ViewCounter{client: client, queries: queries, logger: logger}
}

func viewKey(articleID uuid.UUID) string {
	return "content:views:" + articleID.String()
}

// Record counts one view.
func (v *ViewCounter) Record(ctx context.Context, articleID uuid.UUID) {
	if v.client == nil {
		if err := v.queries.IncrementArticleViews(ctx, articleID, 1); err != nil {
			v.logger.Warn("failed to increment view count", slog.String("article_id", articleID.String()), slog.String("error", err.Error()))
		}
		return
	}
	if err := v.client.Incr(ctx, viewKey(articleID)).Err(); err != nil {
		v.logger.Warn("redis view counter unavailable", slog.String("error", err.Error()))
		if err := v.queries.IncrementArticleViews(ctx, articleID, 1); err != nil {
			v.logger.Warn("failed to increment view count", slog.String("error", err.Error()))
		}
	}
}

// Flush moves all pending counters to Postgres. It is called on a timer
// and at shutdown.
func (v *ViewCounter) Flush(ctx context.Context) error {
	if v.client == nil {
		return nil
	}

	iter := v.client.Scan(ctx, 0, "content:views:*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		count, err := v.client.GetDel(ctx, key).Result()
		if err != nil {
			continue
		}
		delta, err := strconv.ParseInt(count, 10, 64)
		if err != nil || delta == 0 {
			continue
		}
		articleID, err := uuid.Parse(key[len("content:views:"):])
		if err != nil {
			continue
		}
		if err := v.queries.IncrementArticleViews(ctx, articleID, delta); err != nil {
			return fmt.Errorf("flush views for %s: %w", articleID, err)
		}
	}
	return iter.Err()
}

// Run flushes on the given interval until the context is cancelled,
// then performs one final flush.
func (v *ViewCounter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := v.Flush(ctx); err != nil {
				v.logger.Warn("view counter flush failed", slog.String("error", err.Error()))
			}
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := v.Flush(flushCtx); err != nil {
				v.logger.Warn("final view counter flush failed", slog.String("error", err.Error()))
			}
			return
		}
	}
}
