package server

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"microblog/internal/events"
	"microblog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t)
	alice, token := env.signup(t, "alice")

	tests := []struct {
		name           string
		body           any
		expectedStatus int
		expectedCode   string
	}{
		{"Success", map[string]string{"body": "  hello world  "}, http.StatusCreated, ""},
		{"Empty Body", map[string]string{"body": "   "}, http.StatusBadRequest, models.CodeInvalidBody},
		{"Too Long", map[string]string{"body": strings.Repeat("x", models.MaxPostBodyLength+1)}, http.StatusBadRequest, models.CodeInvalidBody},
		{"Malformed", "nope", http.StatusBadRequest, models.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.do(t, http.MethodPost, "/api/posts", token, tt.body)
			require.Equal(t, tt.expectedStatus, resp.StatusCode, string(body))
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decode[models.ErrorResponse](t, body).Code)
				return
			}
			post := decode[postResponse](t, body)
			assert.Equal(t, "hello world", post.Body)
			assert.Equal(t, alice.ID, post.Author.ID)
			assert.Equal(t, "alice", post.Author.Nickname)
			assert.True(t, post.Timestamp.Equal(env.clock.NowUTC()))
		})
	}

	assert.Contains(t, env.events.Types(), events.PostCreated)
}

func TestCreatePostRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, http.MethodPost, "/api/posts", "", map[string]string{"body": "hi"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestFeed(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.signup(t, "alice")
	_, bobToken := env.signup(t, "bob")
	_, carolToken := env.signup(t, "carol")

	post := func(token, body string) {
		t.Helper()
		env.clock.Advance(time.Minute)
		resp, raw := env.do(t, http.MethodPost, "/api/posts", token, map[string]string{"body": body})
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	}
	post(aliceToken, "a1")
	post(carolToken, "c1")
	post(aliceToken, "a2")
	post(bobToken, "b1")
	post(aliceToken, "a3")

	resp, _ := env.do(t, http.MethodPost, "/api/users/alice/follow", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	bodies := func(p models.Page[postResponse]) []string {
		out := make([]string, 0, len(p.Items))
		for _, item := range p.Items {
			out = append(out, item.Body)
		}
		return out
	}

	t.Run("Default Page Size", func(t *testing.T) {
		resp, raw := env.do(t, http.MethodGet, "/api/feed", bobToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		page := decode[models.Page[postResponse]](t, raw)
		assert.Equal(t, []string{"a3", "b1", "a2"}, bodies(page))
		assert.Equal(t, int64(4), page.Total)
		assert.True(t, page.HasNext)
		assert.False(t, page.HasPrev)
	})

	t.Run("Second Page", func(t *testing.T) {
		resp, raw := env.do(t, http.MethodGet, "/api/feed?page=2", bobToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		page := decode[models.Page[postResponse]](t, raw)
		assert.Equal(t, []string{"a1"}, bodies(page))
		assert.False(t, page.HasNext)
		assert.True(t, page.HasPrev)
	})

	t.Run("Past The End", func(t *testing.T) {
		resp, raw := env.do(t, http.MethodGet, "/api/feed?page=9", bobToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, decode[models.Page[postResponse]](t, raw).Items)
	})

	t.Run("Custom Page Size", func(t *testing.T) {
		resp, raw := env.do(t, http.MethodGet, "/api/feed?per_page=10", bobToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		page := decode[models.Page[postResponse]](t, raw)
		assert.Equal(t, []string{"a3", "b1", "a2", "a1"}, bodies(page))
		assert.Equal(t, 10, page.PageSize)
	})

	t.Run("Own Posts Page", func(t *testing.T) {
		resp, raw := env.do(t, http.MethodGet, "/api/users/alice/posts?per_page=2", bobToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		page := decode[models.Page[postResponse]](t, raw)
		assert.Equal(t, []string{"a3", "a2"}, bodies(page))
		assert.Equal(t, int64(3), page.Total)
		for _, item := range page.Items {
			assert.Equal(t, "alice", item.Author.Nickname)
		}
	})
}

func TestSignupScenario(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.signup(t, "alice")

	resp, _ := env.do(t, http.MethodPost, "/api/posts", aliceToken, map[string]string{"body": "hi"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	_, raw := env.do(t, http.MethodGet, "/api/feed", aliceToken, nil)
	feed := decode[models.Page[postResponse]](t, raw)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "hi", feed.Items[0].Body)

	second, secondToken := env.signup(t, "alice")
	assert.Equal(t, "alice2", second.Nickname)

	resp, _ = env.do(t, http.MethodPost, "/api/users/alice/follow", secondToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, raw = env.do(t, http.MethodGet, "/api/feed", secondToken, nil)
	feed = decode[models.Page[postResponse]](t, raw)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "hi", feed.Items[0].Body)
}
