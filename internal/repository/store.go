package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories groups the repositories bound to one connection or transaction.
type Repositories struct {
	Users   UserRepository
	Follows FollowRepository
	Posts   PostRepository
}

// NewRepositories binds every repository to db.
func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:   NewUserRepository(db),
		Follows: NewFollowRepository(db),
		Posts:   NewPostRepository(db),
	}
}

// Store runs units of work against the database.
type Store interface {
	// Repos returns repositories outside any transaction.
	Repos() Repositories
	// WithinTx runs fn in one transaction. fn must only use the repositories
	// it is given. A returned error rolls the transaction back.
	WithinTx(ctx context.Context, fn func(Repositories) error) error
}

type gormStore struct {
	db    *gorm.DB
	repos Repositories
}

// NewStore returns a Store backed by db.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db, repos: NewRepositories(db)}
}

func (s *gormStore) Repos() Repositories {
	return s.repos
}

func (s *gormStore) WithinTx(ctx context.Context, fn func(Repositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
	return storeError(err)
}
