package service

import (
	"context"
	"strings"
	"time"

	"microblog/internal/clock"
	"microblog/internal/events"
	"microblog/internal/models"
	"microblog/internal/observability"
	"microblog/internal/repository"
	"microblog/internal/validation"
)

// PostService is the post store.
type PostService struct {
	store      repository.Store
	publisher  events.Publisher
	clock      clock.Clock
	pagination Pagination
}

func NewPostService(store repository.Store, publisher events.Publisher, clk clock.Clock, pagination Pagination) *PostService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &PostService{store: store, publisher: publisher, clock: clk, pagination: pagination}
}

// CreatePost stores a post by authorID. The body is trimmed; a zero timestamp
// means now.
func (s *PostService) CreatePost(ctx context.Context, authorID uint, body string, timestamp time.Time) (*models.Post, error) {
	if r := validation.PostBody(body); !r.Valid {
		err := models.NewInvalidBodyError(r.Fields["body"])
		err.Fields = r.Fields
		return nil, err
	}
	if timestamp.IsZero() {
		timestamp = s.clock.NowUTC()
	}

	post := &models.Post{
		UserID:    authorID,
		Body:      strings.TrimSpace(body),
		Timestamp: timestamp.UTC(),
	}
	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		author, err := r.Users.FindByID(ctx, authorID)
		if err != nil {
			return err
		}
		if err := r.Posts.Create(ctx, post); err != nil {
			return err
		}
		post.Author = *author
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.PostsCreated.Inc()
	publish(ctx, s.publisher, events.New(events.PostCreated, authorID, s.clock.NowUTC(), map[string]any{
		"post_id":   post.ID,
		"timestamp": post.Timestamp,
	}))
	return post, nil
}

// ListByAuthor pages through authorID's posts, newest first.
func (s *PostService) ListByAuthor(ctx context.Context, authorID uint, page, pageSize int) (models.Page[models.Post], error) {
	page, pageSize = s.pagination.Normalize(page, pageSize)

	var (
		posts []models.Post
		total int64
	)
	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		if _, err := r.Users.FindByID(ctx, authorID); err != nil {
			return err
		}
		var err error
		posts, total, err = r.Posts.ListByAuthor(ctx, authorID, models.Offset(page, pageSize), pageSize)
		return err
	})
	if err != nil {
		return models.Page[models.Post]{}, err
	}
	return models.NewPage(posts, page, pageSize, total), nil
}
