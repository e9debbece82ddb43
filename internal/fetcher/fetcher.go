// Package fetcher turns a user handle into classified, normalized post rows.
package fetcher

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hmartens/skypulse/internal/models"
	"github.com/hmartens/skypulse/internal/retry"
	"github.com/hmartens/skypulse/internal/sanitize"
)

const captureTimeFormat = "2006-01-02 15:04:05"

// FeedSource is the slice of the Bluesky client the fetcher depends on.
type FeedSource interface {
	ResolveHandle(ctx context.Context, handle string) (string, error)
	GetAuthorFeed(ctx context.Context, actor string, limit int) ([]models.FeedItem, error)
}

// Classifier assigns a category and controversy score to post text.
type Classifier interface {
	Categorize(ctx context.Context, text string) (category string, controversy int)
}

type Fetcher struct {
	source     FeedSource
	classifier Classifier
	limit      int
	policy     retry.Policy
	now        func() time.Time
}

func New(source FeedSource, classifier Classifier, limit int, policy retry.Policy) *Fetcher {
	return &Fetcher{
		source:     source,
		classifier: classifier,
		limit:      limit,
		policy:     policy,
		now:        time.Now,
	}
}

// PostsFor resolves the handle, fetches its recent feed, and returns rows for
// the original text posts. Failures are non-fatal: resolution or feed errors
// yield an empty result, and a broken single post is skipped with its index
// logged.
func (f *Fetcher) PostsFor(ctx context.Context, handle string) []models.PostRow {
	did, ok := retry.Do(ctx, f.policy, "resolve_handle", func(ctx context.Context) (string, error) {
		return f.source.ResolveHandle(ctx, handle)
	})
	if !ok {
		slog.Error("[Fetcher] Could not resolve DID", slog.String("handle", handle))
		return nil
	}

	slog.Info("[Fetcher] Fetching posts",
		slog.String("handle", handle),
		slog.String("did", did))

	items, ok := retry.Do(ctx, f.policy, "get_author_feed", func(ctx context.Context) ([]models.FeedItem, error) {
		return f.source.GetAuthorFeed(ctx, did, f.limit)
	})
	if !ok {
		slog.Error("[Fetcher] Failed to fetch feed", slog.String("handle", handle))
		return nil
	}

	rows := make([]models.PostRow, 0, len(items))
	for idx, item := range items {
		row, keep := f.buildRow(ctx, handle, idx+1, item)
		if keep {
			rows = append(rows, row)
		}
	}
	return rows
}

// buildRow applies the inclusion filters and classifies one feed item. A
// panic while processing a single post is confined to that post.
func (f *Fetcher) buildRow(ctx context.Context, handle string, idx int, item models.FeedItem) (row models.PostRow, keep bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("[Fetcher] Error processing post",
				slog.Int("index", idx),
				slog.String("handle", handle),
				slog.Any("error", r))
			keep = false
		}
	}()

	if item.IsRepost() {
		return models.PostRow{}, false
	}
	if item.Post.Record.Reply != nil {
		return models.PostRow{}, false
	}
	if strings.TrimSpace(item.Post.Record.Text) == "" {
		return models.PostRow{}, false
	}

	text := sanitize.Clean(item.Post.Record.Text)
	category, controversy := f.classifier.Categorize(ctx, text)

	return models.PostRow{
		CapturedAt:  f.now().Format(captureTimeFormat),
		Text:        text,
		URI:         item.Post.URI,
		Handle:      handle,
		Category:    category,
		Controversy: controversy,
	}, true
}
