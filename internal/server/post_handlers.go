package server

import (
	"time"

	"microblog/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Body string `json:"body"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(c.UserContext(), currentUserID(c), req.Body, time.Time{})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(newPostResponse(post))
}

// GetFeed handles GET /api/feed
func (s *Server) GetFeed(c *fiber.Ctx) error {
	q := parsePage(c)
	page, err := s.feedService.FeedFor(c.UserContext(), currentUserID(c), q.Page, q.PerPage)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(newPostPage(page))
}
