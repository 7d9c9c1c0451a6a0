package server

import (
	"errors"
	"time"

	"microblog/internal/middleware"
	"microblog/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// pageQuery holds the raw page / per_page query parameters. Bounds are applied
// by the services.
type pageQuery struct {
	Page    int
	PerPage int
}

func parsePage(c *fiber.Ctx) pageQuery {
	return pageQuery{
		Page:    c.QueryInt("page", 1),
		PerPage: c.QueryInt("per_page", 0),
	}
}

// mapServiceError translates a core error code into an HTTP status.
func mapServiceError(err error) int {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case models.CodeDuplicateEmail, models.CodeNicknameTaken:
		return fiber.StatusConflict
	case models.CodeUserNotFound, models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeInvalidBody, models.CodeValidation:
		return fiber.StatusBadRequest
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeStoreUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// respondServiceError writes err with its mapped status, logging server faults.
func respondServiceError(c *fiber.Ctx, err error) error {
	status := mapServiceError(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"path", c.Path(), "error", err)
		var appErr *models.AppError
		if !errors.As(err, &appErr) {
			err = models.NewInternalError(err)
		}
	}
	return models.RespondWithError(c, status, err)
}

func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

// userByNickname resolves the :nickname route parameter.
// On failure it writes the error response and returns errResponseWritten.
func (s *Server) userByNickname(c *fiber.Ctx) (*models.User, error) {
	user, err := s.userService.FindByNickname(c.UserContext(), c.Params("nickname"))
	if err != nil {
		_ = respondServiceError(c, err)
		return nil, errResponseWritten
	}
	return user, nil
}

// userResponse is the public view of a user; the e-mail never leaves the server.
type userResponse struct {
	ID        uint       `json:"id"`
	Nickname  string     `json:"nickname"`
	AboutMe   string     `json:"about_me"`
	Avatar    string     `json:"avatar"`
	LastSeen  *time.Time `json:"last_seen,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Nickname:  u.Nickname,
		AboutMe:   u.AboutMe,
		Avatar:    u.AvatarURL(128),
		LastSeen:  u.LastSeen,
		CreatedAt: u.CreatedAt,
	}
}

type postResponse struct {
	ID        uint               `json:"id"`
	Body      string             `json:"body"`
	Timestamp time.Time          `json:"timestamp"`
	Author    models.UserSummary `json:"author"`
}

func newPostResponse(p *models.Post) postResponse {
	return postResponse{
		ID:        p.ID,
		Body:      p.Body,
		Timestamp: p.Timestamp,
		Author:    p.Author.Summary(),
	}
}

func newPostPage(p models.Page[models.Post]) models.Page[postResponse] {
	items := make([]postResponse, 0, len(p.Items))
	for i := range p.Items {
		items = append(items, newPostResponse(&p.Items[i]))
	}
	return models.NewPage(items, p.Page, p.PageSize, p.Total)
}
