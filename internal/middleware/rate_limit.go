package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/peer-review-dashboard/internal/utils"
)

// RateLimit creates a per-actor rate limiter. Anonymous callers are keyed by IP.
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Second
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		LimitReached: func(c *fiber.Ctx) error {
			return utils.SendError(c, fiber.StatusTooManyRequests, "too many requests, slow down")
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			actor := ActorName(c)
			if actor == "" {
				actor = c.IP()
			}
			return fmt.Sprintf("%s:%s", identifier, actor)
		},
	})
}
