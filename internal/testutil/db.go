// Package testutil provides shared fixtures for tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"microblog/internal/database"
	"microblog/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewDB opens a private in-memory SQLite database with the schema applied.
// The pool is pinned to one connection so every query sees the same memory database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb_%d?mode=memory&cache=shared&_foreign_keys=on", dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user row directly, bypassing the directory rules.
func CreateUser(t testing.TB, db *gorm.DB, nickname string) *models.User {
	t.Helper()
	u := &models.User{Nickname: nickname, Email: nickname + "@example.com"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", nickname, err)
	}
	return u
}
