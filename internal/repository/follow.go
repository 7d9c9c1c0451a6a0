package repository

import (
	"context"

	"microblog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository stores directed follow edges.
// Listings and counts leave out the self edge created at registration.
type FollowRepository interface {
	// Create inserts the edge and reports whether it was new.
	Create(ctx context.Context, followerID, followedID uint) (bool, error)
	// Delete removes the edge and reports whether one existed.
	Delete(ctx context.Context, followerID, followedID uint) (bool, error)
	Exists(ctx context.Context, followerID, followedID uint) (bool, error)
	ListFollowing(ctx context.Context, followerID uint) ([]uint, error)
	ListFollowers(ctx context.Context, followedID uint) ([]uint, error)
	Counts(ctx context.Context, userID uint) (following, followers int64, err error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Create(ctx context.Context, followerID, followedID uint) (bool, error) {
	edge := models.Follow{FollowerID: followerID, FollowedID: followedID}
	res := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&edge)
	if res.Error != nil {
		if isForeignKeyError(res.Error) {
			return false, models.NewUserNotFoundError(followedID)
		}
		return false, storeError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followedID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, storeError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followedID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, storeError(err)
	}
	return count > 0, nil
}

func (r *followRepository) ListFollowing(ctx context.Context, followerID uint) ([]uint, error) {
	ids := []uint{}
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id <> follower_id", followerID).
		Order("followed_id ASC").
		Pluck("followed_id", &ids).Error; err != nil {
		return nil, storeError(err)
	}
	return ids, nil
}

func (r *followRepository) ListFollowers(ctx context.Context, followedID uint) ([]uint, error) {
	ids := []uint{}
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("followed_id = ? AND follower_id <> followed_id", followedID).
		Order("follower_id ASC").
		Pluck("follower_id", &ids).Error; err != nil {
		return nil, storeError(err)
	}
	return ids, nil
}

func (r *followRepository) Counts(ctx context.Context, userID uint) (int64, int64, error) {
	var following, followers int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id <> follower_id", userID).
		Count(&following).Error; err != nil {
		return 0, 0, storeError(err)
	}
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("followed_id = ? AND follower_id <> followed_id", userID).
		Count(&followers).Error; err != nil {
		return 0, 0, storeError(err)
	}
	return following, followers, nil
}
