package repository

import (
	"context"
	"testing"
	"time"

	"microblog/internal/models"
	"microblog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func createPost(t *testing.T, repo PostRepository, author uint, body string, at time.Time) *models.Post {
	t.Helper()
	p := &models.Post{UserID: author, Body: body, Timestamp: at}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func bodies(posts []models.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Body)
	}
	return out
}

func TestPostRepository_ListByAuthorOrdering(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")

	createPost(t, repo, a.ID, "old", base)
	createPost(t, repo, a.ID, "tie-first", base.Add(time.Hour))
	createPost(t, repo, a.ID, "tie-second", base.Add(time.Hour))
	createPost(t, repo, b.ID, "other", base.Add(2*time.Hour))

	posts, total, err := repo.ListByAuthor(ctx, a.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, []string{"tie-second", "tie-first", "old"}, bodies(posts))
	assert.Equal(t, "a", posts[0].Author.Nickname)
	assert.True(t, base.Equal(posts[2].Timestamp))
}

func TestPostRepository_FeedIncludesSelfAndFollowed(t *testing.T) {
	db := testutil.NewDB(t)
	posts := NewPostRepository(db)
	follows := NewFollowRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "u")
	f := testutil.CreateUser(t, db, "f")
	x := testutil.CreateUser(t, db, "x")

	_, err := follows.Create(ctx, u.ID, f.ID)
	require.NoError(t, err)

	createPost(t, posts, u.ID, "mine", base)
	createPost(t, posts, f.ID, "followed", base.Add(time.Minute))
	createPost(t, posts, x.ID, "stranger", base.Add(2*time.Minute))

	feed, total, err := posts.Feed(ctx, u.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, []string{"followed", "mine"}, bodies(feed))
}

func TestPostRepository_FeedPaging(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "u")

	for i := 0; i < 5; i++ {
		createPost(t, repo, u.ID, string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute))
	}

	page, total, err := repo.Feed(ctx, u.ID, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Equal(t, []string{"b", "a"}, bodies(page))

	page, total, err = repo.Feed(ctx, u.ID, 30, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.NotNil(t, page)
	assert.Empty(t, page)
}

func TestPostRepository_CreateUnknownAuthor(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostRepository(db)

	err := repo.Create(context.Background(), &models.Post{UserID: 42, Body: "x", Timestamp: base})
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}
