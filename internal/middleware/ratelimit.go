package middleware

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"microblog/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy picks what a limiter does when Redis cannot be reached.
type FailPolicy int

const (
	FailOpen FailPolicy = iota
	FailClosed
)

// Limit is a fixed-window budget: at most Max hits per Window for each caller
// of Resource. An empty Resource falls back to the request path.
type Limit struct {
	Resource string
	Max      int
	Window   time.Duration
	Policy   FailPolicy
}

var errNoLimiterStore = errors.New("rate limiter has no redis client")

// limitsDisabled is true for local, test and load-test runs. An unset APP_ENV
// counts as local.
func limitsDisabled() bool {
	switch os.Getenv("APP_ENV") {
	case "", "development", "test", "stress":
		return true
	}
	return false
}

func rateLimitKey(resource, caller string) string {
	return "rl:" + resource + ":" + caller
}

// CheckRateLimit records one hit by caller against resource and reports
// whether the caller is still within limit for the current window.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, caller string, limit int, window time.Duration) (bool, error) {
	if limitsDisabled() {
		return true, nil
	}
	if rdb == nil {
		return false, errNoLimiterStore
	}

	key := rateLimitKey(resource, caller)
	hits, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	// The first hit opens the window.
	if hits == 1 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return hits <= int64(limit), nil
}

// RateLimit limits a route to limit hits per window, failing open. name, when
// given, is the Redis key namespace shared by every route using it.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	l := Limit{Max: limit, Window: window, Policy: policy}
	if len(name) > 0 {
		l.Resource = name[0]
	}
	return Limiter(rdb, l)
}

// Limiter enforces l. Signed-in requests are counted per user, the rest per IP.
func Limiter(rdb *redis.Client, l Limit) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resource := l.Resource
		if resource == "" {
			resource = c.Path()
		}

		allowed, err := CheckRateLimit(c.UserContext(), rdb, resource, callerKey(c), l.Max, l.Window)
		switch {
		case err != nil && l.Policy == FailClosed:
			Logger.WarnContext(c.UserContext(), "rate limiter unavailable, rejecting",
				"resource", resource, "path", c.Path(), "error", err)
			return models.RespondWithError(c, fiber.StatusServiceUnavailable, models.NewStoreUnavailableError(err))
		case err != nil:
			return c.Next()
		case !allowed:
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(l.Window.Seconds())))
			return models.RespondWithError(c, fiber.StatusTooManyRequests, models.NewRateLimitedError(resource))
		}
		return c.Next()
	}
}

func callerKey(c *fiber.Ctx) string {
	if id, ok := c.Locals("userID").(uint); ok {
		return "user:" + strconv.FormatUint(uint64(id), 10)
	}
	return "ip:" + c.IP()
}
