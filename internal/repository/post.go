package repository

import (
	"context"

	"microblog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository stores posts. Listings come back newest first with ties
// broken by descending ID, along with the total match count.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	ListByAuthor(ctx context.Context, authorID uint, offset, limit int) ([]models.Post, int64, error)
	// Feed lists posts by userID and everyone userID follows.
	Feed(ctx context.Context, userID uint, offset, limit int) ([]models.Post, int64, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		if isForeignKeyError(err) {
			return models.NewUserNotFoundError(post.UserID)
		}
		return storeError(err)
	}
	return nil
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID uint, offset, limit int) ([]models.Post, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", authorID)
	}
	return r.list(ctx, scope, offset, limit)
}

func (r *postRepository) Feed(ctx context.Context, userID uint, offset, limit int) ([]models.Post, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		followed := r.db.Model(&models.Follow{}).Select("followed_id").Where("follower_id = ?", userID)
		return db.Where("user_id IN (?) OR user_id = ?", followed, userID)
	}
	return r.list(ctx, scope, offset, limit)
}

func (r *postRepository) list(ctx context.Context, scope func(*gorm.DB) *gorm.DB, offset, limit int) ([]models.Post, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, storeError(err)
	}

	posts := []models.Post{}
	if total == 0 || int64(offset) >= total {
		return posts, total, nil
	}

	if err := r.db.WithContext(ctx).Model(&models.Post{}).
		Scopes(scope).
		Preload("Author").
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, 0, storeError(err)
	}
	return posts, total, nil
}
