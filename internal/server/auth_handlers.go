package server

import (
	"errors"
	"time"

	"microblog/internal/identity"
	"microblog/internal/middleware"
	"microblog/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Login handles GET /api/auth/login and redirects to the identity provider.
func (s *Server) Login(c *fiber.Ctx) error {
	if s.provider == nil || s.states == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			&models.AppError{Code: models.CodeStoreUnavailable, Message: "Login is not available"})
	}

	state, nonce, err := s.states.Begin(c.UserContext(), c.QueryBool("remember_me", false))
	if err != nil {
		return respondServiceError(c, models.NewStoreUnavailableError(err))
	}

	return c.Redirect(s.provider.AuthCodeURL(state, nonce), fiber.StatusFound)
}

// Callback handles GET /api/auth/callback, the provider's redirect back after
// the user authenticated. The first login for an e-mail creates the account.
func (s *Server) Callback(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if s.provider == nil || s.states == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			&models.AppError{Code: models.CodeStoreUnavailable, Message: "Login is not available"})
	}

	if reason := c.Query("error"); reason != "" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Login was cancelled: "+reason))
	}

	pending, err := s.states.Consume(ctx, c.Query("state"))
	if err != nil {
		if errors.Is(err, identity.ErrStateNotFound) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired login state"))
		}
		return respondServiceError(c, models.NewStoreUnavailableError(err))
	}

	code := c.Query("code")
	if code == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Missing authorization code"))
	}

	ident, err := s.provider.Exchange(ctx, code, pending.Nonce)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "identity exchange failed", "error", err)
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid login. Please try again."))
	}

	user, created, err := s.userService.ResolveIdentity(ctx, ident.Email, ident.Nickname)
	if err != nil {
		return respondServiceError(c, err)
	}

	token, err := s.generateToken(user.ID, s.config.SessionTTL(pending.RememberMe))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token":   token,
		"user":    newUserResponse(user),
		"created": created,
	})
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (s *Server) Logout(c *fiber.Ctx) error {
	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			&models.AppError{Code: models.CodeStoreUnavailable, Message: "Logout is not available"})
	}

	jti, _ := c.Locals("jti").(string)
	expiry, _ := c.Locals("tokenExpiry").(time.Time)
	ttl := expiry.Sub(s.clock.NowUTC())
	if jti != "" && ttl > 0 {
		if err := s.redis.Set(c.UserContext(), revocationKey(jti), "1", ttl).Err(); err != nil {
			return respondServiceError(c, models.NewStoreUnavailableError(err))
		}
	}

	return c.JSON(fiber.Map{"message": "Logged out"})
}
