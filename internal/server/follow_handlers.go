package server

import (
	"fmt"

	"microblog/internal/models"

	"github.com/gofiber/fiber/v2"
)

func followMessage(result models.FollowResult, nickname string) string {
	switch result {
	case models.FollowResultFollowed:
		return fmt.Sprintf("You are now following %s!", nickname)
	case models.FollowResultAlreadyFollowing:
		return fmt.Sprintf("You are already following %s.", nickname)
	case models.FollowResultSelfFollowIgnored:
		return "You can't follow yourself!"
	case models.FollowResultUnfollowed:
		return fmt.Sprintf("You have stopped following %s.", nickname)
	case models.FollowResultNotFollowing:
		return fmt.Sprintf("You are not following %s.", nickname)
	case models.FollowResultSelfUnfollowIgnored:
		return "You can't unfollow yourself!"
	default:
		return string(result)
	}
}

// FollowUser handles POST /api/users/:nickname/follow
func (s *Server) FollowUser(c *fiber.Ctx) error {
	target, err := s.userByNickname(c)
	if err != nil {
		return nil
	}

	result, err := s.followService.Follow(c.UserContext(), currentUserID(c), target.ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"result":  result,
		"message": followMessage(result, target.Nickname),
	})
}

// UnfollowUser handles DELETE /api/users/:nickname/follow
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	target, err := s.userByNickname(c)
	if err != nil {
		return nil
	}

	result, err := s.followService.Unfollow(c.UserContext(), currentUserID(c), target.ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"result":  result,
		"message": followMessage(result, target.Nickname),
	})
}
