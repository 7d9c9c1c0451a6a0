package server

import (
	"net/http"
	"testing"

	"microblog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateMyProfile(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup(t, "alice")
	env.signup(t, "bob")

	t.Run("Success", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPut, "/api/users/me", token, map[string]string{
			"nickname": "alice_w",
			"about_me": "down the rabbit hole",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		me := decode[userResponse](t, body)
		assert.Equal(t, "alice_w", me.Nickname)
		assert.Equal(t, "down the rabbit hole", me.AboutMe)
	})

	t.Run("Nickname Taken", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPut, "/api/users/me", token, map[string]string{"nickname": "bob"})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, models.CodeNicknameTaken, decode[models.ErrorResponse](t, body).Code)
	})

	t.Run("Invalid Nickname", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPut, "/api/users/me", token, map[string]string{"nickname": "no spaces"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, decode[models.ErrorResponse](t, body).Fields, "nickname")
	})

	t.Run("Malformed Body", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodPut, "/api/users/me", token, "not an object")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGetUserProfile(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.signup(t, "alice")
	_, bobToken := env.signup(t, "bob")

	resp, _ := env.do(t, http.MethodPost, "/api/users/alice/follow", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	tests := []struct {
		name           string
		path           string
		token          string
		expectedStatus int
		wantFollowing  bool
		wantFollowers  int64
		wantIsMe       bool
	}{
		{"Viewed By Follower", "/api/users/alice", bobToken, http.StatusOK, true, 1, false},
		{"Viewed By Self", "/api/users/alice", aliceToken, http.StatusOK, false, 1, true},
		{"Not Found", "/api/users/nobody", bobToken, http.StatusNotFound, false, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.do(t, http.MethodGet, tt.path, tt.token, nil)
			require.Equal(t, tt.expectedStatus, resp.StatusCode, string(body))
			if tt.expectedStatus != http.StatusOK {
				assert.Equal(t, models.CodeUserNotFound, decode[models.ErrorResponse](t, body).Code)
				return
			}
			profile := decode[profileResponse](t, body)
			assert.Equal(t, alice.ID, profile.ID)
			assert.Equal(t, tt.wantFollowing, profile.IsFollowing)
			assert.Equal(t, tt.wantFollowers, profile.Followers)
			assert.Equal(t, int64(0), profile.Following)
			assert.Equal(t, tt.wantIsMe, profile.IsMe)
			assert.Contains(t, profile.Avatar, "gravatar.com/avatar/")
		})
	}
}

func TestFollowAndUnfollow(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "alice")
	_, bobToken := env.signup(t, "bob")

	type followResponse struct {
		Result  models.FollowResult `json:"result"`
		Message string              `json:"message"`
	}

	steps := []struct {
		name   string
		method string
		path   string
		want   models.FollowResult
	}{
		{"Follow", http.MethodPost, "/api/users/alice/follow", models.FollowResultFollowed},
		{"Follow Again", http.MethodPost, "/api/users/alice/follow", models.FollowResultAlreadyFollowing},
		{"Follow Self", http.MethodPost, "/api/users/bob/follow", models.FollowResultSelfFollowIgnored},
		{"Unfollow", http.MethodDelete, "/api/users/alice/follow", models.FollowResultUnfollowed},
		{"Unfollow Again", http.MethodDelete, "/api/users/alice/follow", models.FollowResultNotFollowing},
		{"Unfollow Self", http.MethodDelete, "/api/users/bob/follow", models.FollowResultSelfUnfollowIgnored},
	}

	for _, step := range steps {
		resp, body := env.do(t, step.method, step.path, bobToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, step.name)
		out := decode[followResponse](t, body)
		assert.Equal(t, step.want, out.Result, step.name)
		assert.NotEmpty(t, out.Message, step.name)
	}

	resp, _ := env.do(t, http.MethodPost, "/api/users/ghost/follow", bobToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFollowingAndFollowersLists(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "alice")
	_, bobToken := env.signup(t, "bob")
	_, carolToken := env.signup(t, "carol")

	for _, token := range []string{bobToken, carolToken} {
		resp, _ := env.do(t, http.MethodPost, "/api/users/alice/follow", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	nicknames := func(path string) []string {
		resp, body := env.do(t, http.MethodGet, path, bobToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out []string
		for _, u := range decode[[]models.UserSummary](t, body) {
			out = append(out, u.Nickname)
		}
		return out
	}

	assert.Equal(t, []string{"bob", "carol"}, nicknames("/api/users/alice/followers"))
	assert.Equal(t, []string{"alice"}, nicknames("/api/users/bob/following"))
	assert.Empty(t, nicknames("/api/users/alice/following"))
}
