// Package service holds the microblog core: the user directory, the social
// graph, the post store and the feed composer. Every operation takes the
// acting user's ID explicitly.
package service

import (
	"context"
	"log/slog"

	"microblog/internal/events"
	"microblog/internal/middleware"
)

// Pagination holds the page size defaults shared by post listings and feeds.
type Pagination struct {
	PostsPerPage int
	MaxPageSize  int
}

// DefaultPagination matches the POSTS_PER_PAGE and MAX_PAGE_SIZE defaults.
var DefaultPagination = Pagination{PostsPerPage: 3, MaxPageSize: 50}

// Normalize clamps a requested page and page size. Pages start at 1; a non-positive
// size falls back to PostsPerPage; sizes above MaxPageSize are capped.
func (p Pagination) Normalize(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = p.PostsPerPage
	}
	if p.MaxPageSize > 0 && pageSize > p.MaxPageSize {
		pageSize = p.MaxPageSize
	}
	return page, pageSize
}

// publish sends e after the surrounding transaction has committed. Failures
// are logged and never fail the caller.
func publish(ctx context.Context, pub events.Publisher, e events.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, e); err != nil {
		middleware.Logger.WarnContext(ctx, "event publish failed",
			slog.String("event_type", e.Type),
			slog.String("error", err.Error()),
		)
	}
}
