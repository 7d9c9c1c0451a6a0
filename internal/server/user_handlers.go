package server

import (
	"microblog/internal/models"
	"microblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

type profileResponse struct {
	userResponse
	Following   int64 `json:"following"`
	Followers   int64 `json:"followers"`
	IsFollowing bool  `json:"is_following"`
	IsMe        bool  `json:"is_me"`
}

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.FindByID(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(newUserResponse(user))
}

// UpdateMyProfile handles PUT /api/users/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Nickname string `json:"nickname"`
		AboutMe  string `json:"about_me"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:   currentUserID(c),
		Nickname: req.Nickname,
		AboutMe:  req.AboutMe,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(newUserResponse(user))
}

// GetUserProfile handles GET /api/users/:nickname
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user, err := s.userByNickname(c)
	if err != nil {
		return nil
	}

	counts, err := s.followService.Counts(ctx, user.ID)
	if err != nil {
		return respondServiceError(c, err)
	}

	viewer := currentUserID(c)
	following := false
	if viewer != user.ID {
		following, err = s.followService.IsFollowing(ctx, viewer, user.ID)
		if err != nil {
			return respondServiceError(c, err)
		}
	}

	return c.JSON(profileResponse{
		userResponse: newUserResponse(user),
		Following:    counts.Following,
		Followers:    counts.Followers,
		IsFollowing:  following,
		IsMe:         viewer == user.ID,
	})
}

// GetUserPosts handles GET /api/users/:nickname/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	user, err := s.userByNickname(c)
	if err != nil {
		return nil
	}

	q := parsePage(c)
	page, err := s.postService.ListByAuthor(c.UserContext(), user.ID, q.Page, q.PerPage)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(newPostPage(page))
}

// GetFollowing handles GET /api/users/:nickname/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	user, err := s.userByNickname(c)
	if err != nil {
		return nil
	}

	ids, err := s.followService.ListFollowing(c.UserContext(), user.ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return s.respondUserSummaries(c, ids)
}

// GetFollowers handles GET /api/users/:nickname/followers
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	user, err := s.userByNickname(c)
	if err != nil {
		return nil
	}

	ids, err := s.followService.ListFollowers(c.UserContext(), user.ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return s.respondUserSummaries(c, ids)
}

func (s *Server) respondUserSummaries(c *fiber.Ctx, ids []uint) error {
	users, err := s.userService.FindByIDs(c.UserContext(), ids)
	if err != nil {
		return respondServiceError(c, err)
	}
	out := make([]models.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return c.JSON(out)
}
