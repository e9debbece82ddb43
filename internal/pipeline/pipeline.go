// Package pipeline walks the configured users in order, wiring fetcher,
// dedup store, and sink together.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/hmartens/skypulse/internal/dedup"
	"github.com/hmartens/skypulse/internal/models"
	"github.com/hmartens/skypulse/internal/retry"
	"github.com/hmartens/skypulse/internal/sink"
)

// Fetcher produces the candidate rows for one handle.
type Fetcher interface {
	PostsFor(ctx context.Context, handle string) []models.PostRow
}

type Pipeline struct {
	fetcher           Fetcher
	sink              sink.Sink
	store             *dedup.Store
	delayBetweenUsers time.Duration
}

func New(fetcher Fetcher, s sink.Sink, store *dedup.Store, delayBetweenUsers time.Duration) *Pipeline {
	return &Pipeline{
		fetcher:           fetcher,
		sink:              s,
		store:             store,
		delayBetweenUsers: delayBetweenUsers,
	}
}

// Run processes every user once. A failure on one user never aborts the run.
// The seen-set is adopted and persisted only after the sink confirms a batch;
// on a failed send those URIs stay unmarked and are retried next run
// (at-least-once delivery). A deferred save flushes the adopted set even when
// the run is cut short.
func (p *Pipeline) Run(ctx context.Context, users []string) {
	seen := p.store.Load()

	defer func() {
		if err := p.store.Save(seen); err != nil {
			slog.Error("[Pipeline] Final state flush failed",
				slog.String("error", err.Error()))
		}
	}()

	for _, user := range users {
		if ctx.Err() != nil {
			slog.Warn("[Pipeline] Run interrupted", slog.String("next_user", user))
			return
		}

		rows := p.fetcher.PostsFor(ctx, user)
		newRows, updated := dedup.FilterNew(rows, seen)

		if len(newRows) > 0 {
			slog.Info("[Pipeline] Sending new posts to sink",
				slog.String("user", user),
				slog.Int("count", len(newRows)))
			if p.sink.Append(ctx, newRows) {
				seen = updated
				if err := p.store.Save(seen); err != nil {
					slog.Error("[Pipeline] Failed to persist seen-set",
						slog.String("error", err.Error()))
				}
			} else {
				slog.Warn("[Pipeline] Sink append failed, rows stay unmarked for next run",
					slog.String("user", user),
					slog.Int("count", len(newRows)))
			}
		} else {
			slog.Info("[Pipeline] No new posts found", slog.String("user", user))
		}

		slog.Info("[Pipeline] Waiting before next user",
			slog.Duration("delay", p.delayBetweenUsers))
		if err := retry.Wait(ctx, p.delayBetweenUsers); err != nil {
			slog.Warn("[Pipeline] Run interrupted during pacing delay")
			return
		}
	}

	slog.Info("[Pipeline] Finished scraping all users", slog.Int("users", len(users)))
}
