package service

import (
	"context"

	"microblog/internal/models"
	"microblog/internal/repository"
)

// FeedService is the feed composer: posts by the user and everyone they follow,
// newest first, ties broken by descending post ID.
type FeedService struct {
	store      repository.Store
	pagination Pagination
}

func NewFeedService(store repository.Store, pagination Pagination) *FeedService {
	return &FeedService{store: store, pagination: pagination}
}

// FeedFor returns one page of userID's feed. Pages past the end are empty.
func (s *FeedService) FeedFor(ctx context.Context, userID uint, page, pageSize int) (models.Page[models.Post], error) {
	page, pageSize = s.pagination.Normalize(page, pageSize)

	var (
		posts []models.Post
		total int64
	)
	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		if _, err := r.Users.FindByID(ctx, userID); err != nil {
			return err
		}
		var err error
		posts, total, err = r.Posts.Feed(ctx, userID, models.Offset(page, pageSize), pageSize)
		return err
	})
	if err != nil {
		return models.Page[models.Post]{}, err
	}
	return models.NewPage(posts, page, pageSize, total), nil
}
