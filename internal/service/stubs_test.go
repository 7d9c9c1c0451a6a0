package service

import (
	"context"
	"time"

	"microblog/internal/models"
	"microblog/internal/repository"
)

type storeStub struct {
	repos   repository.Repositories
	txCalls int
	txErr   error
}

func (s *storeStub) Repos() repository.Repositories { return s.repos }

func (s *storeStub) WithinTx(_ context.Context, fn func(repository.Repositories) error) error {
	s.txCalls++
	if s.txErr != nil {
		return s.txErr
	}
	return fn(s.repos)
}

type userRepoStub struct {
	findByIDFn       func(context.Context, uint) (*models.User, error)
	findByEmailFn    func(context.Context, string) (*models.User, error)
	findByNicknameFn func(context.Context, string) (*models.User, error)
	findByIDsFn      func(context.Context, []uint) ([]models.User, error)
	nicknameExistsFn func(context.Context, string, uint) (bool, error)
	createFn         func(context.Context, *models.User) error
	updateFn         func(context.Context, *models.User) error
	touchLastSeenFn  func(context.Context, uint, time.Time) error
}

func (s *userRepoStub) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return s.findByIDFn(ctx, id)
}
func (s *userRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findByEmailFn(ctx, email)
}
func (s *userRepoStub) FindByNickname(ctx context.Context, nickname string) (*models.User, error) {
	return s.findByNicknameFn(ctx, nickname)
}
func (s *userRepoStub) FindByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	return s.findByIDsFn(ctx, ids)
}
func (s *userRepoStub) NicknameExists(ctx context.Context, nickname string, excludeID uint) (bool, error) {
	return s.nicknameExistsFn(ctx, nickname, excludeID)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) TouchLastSeen(ctx context.Context, id uint, at time.Time) error {
	return s.touchLastSeenFn(ctx, id, at)
}

type followRepoStub struct {
	createFn        func(context.Context, uint, uint) (bool, error)
	deleteFn        func(context.Context, uint, uint) (bool, error)
	existsFn        func(context.Context, uint, uint) (bool, error)
	listFollowingFn func(context.Context, uint) ([]uint, error)
	listFollowersFn func(context.Context, uint) ([]uint, error)
	countsFn        func(context.Context, uint) (int64, int64, error)
}

func (s *followRepoStub) Create(ctx context.Context, a, b uint) (bool, error) {
	return s.createFn(ctx, a, b)
}
func (s *followRepoStub) Delete(ctx context.Context, a, b uint) (bool, error) {
	return s.deleteFn(ctx, a, b)
}
func (s *followRepoStub) Exists(ctx context.Context, a, b uint) (bool, error) {
	return s.existsFn(ctx, a, b)
}
func (s *followRepoStub) ListFollowing(ctx context.Context, id uint) ([]uint, error) {
	return s.listFollowingFn(ctx, id)
}
func (s *followRepoStub) ListFollowers(ctx context.Context, id uint) ([]uint, error) {
	return s.listFollowersFn(ctx, id)
}
func (s *followRepoStub) Counts(ctx context.Context, id uint) (int64, int64, error) {
	return s.countsFn(ctx, id)
}

type postRepoStub struct {
	createFn       func(context.Context, *models.Post) error
	listByAuthorFn func(context.Context, uint, int, int) ([]models.Post, int64, error)
	feedFn         func(context.Context, uint, int, int) ([]models.Post, int64, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) ListByAuthor(ctx context.Context, id uint, offset, limit int) ([]models.Post, int64, error) {
	return s.listByAuthorFn(ctx, id, offset, limit)
}
func (s *postRepoStub) Feed(ctx context.Context, id uint, offset, limit int) ([]models.Post, int64, error) {
	return s.feedFn(ctx, id, offset, limit)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		findByIDFn: func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		findByEmailFn: func(_ context.Context, email string) (*models.User, error) {
			return nil, models.NewUserNotFoundError(email)
		},
		findByNicknameFn: func(_ context.Context, n string) (*models.User, error) {
			return nil, models.NewUserNotFoundError(n)
		},
		findByIDsFn:      func(context.Context, []uint) ([]models.User, error) { return nil, nil },
		nicknameExistsFn: func(context.Context, string, uint) (bool, error) { return false, nil },
		createFn:         func(context.Context, *models.User) error { return nil },
		updateFn:         func(context.Context, *models.User) error { return nil },
		touchLastSeenFn:  func(context.Context, uint, time.Time) error { return nil },
	}
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		createFn:        func(context.Context, uint, uint) (bool, error) { return true, nil },
		deleteFn:        func(context.Context, uint, uint) (bool, error) { return true, nil },
		existsFn:        func(context.Context, uint, uint) (bool, error) { return false, nil },
		listFollowingFn: func(context.Context, uint) ([]uint, error) { return []uint{}, nil },
		listFollowersFn: func(context.Context, uint) ([]uint, error) { return []uint{}, nil },
		countsFn:        func(context.Context, uint) (int64, int64, error) { return 0, 0, nil },
	}
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:       func(context.Context, *models.Post) error { return nil },
		listByAuthorFn: func(context.Context, uint, int, int) ([]models.Post, int64, error) { return nil, 0, nil },
		feedFn:         func(context.Context, uint, int, int) ([]models.Post, int64, error) { return nil, 0, nil },
	}
}

func newStoreStub(users *userRepoStub, follows *followRepoStub, posts *postRepoStub) *storeStub {
	return &storeStub{repos: repository.Repositories{Users: users, Follows: follows, Posts: posts}}
}
