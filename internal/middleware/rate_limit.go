package middleware

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	goredis "github.com/redis/go-redis/v9"
)

// Counter increments a key and sets its expiry. RedisCounter is the
// production implementation.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// RedisCounter adapts a go-redis client to Counter.
type RedisCounter struct {
	Client *goredis.Client
}

func (r RedisCounter) Incr(ctx context.Context, key string) (int64, error) {
	return r.Client.Incr(ctx, key).Result()
}

func (r RedisCounter) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return r.Client.Expire(ctx, key, ttl).Err()
}

// RateLimiter allows limit requests per client IP in each window. A nil
// counter disables it, and counter failures let the request through.
func RateLimiter(counter Counter, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if counter == nil {
			return c.Next()
		}

		key := "rate_limit:" + c.IP()
		count, err := counter.Incr(c.UserContext(), key)
		if err != nil {
			log.Printf("Warning: rate limiter unavailable: %v", err)
			return c.Next()
		}
		if count == 1 {
			if err := counter.Expire(c.UserContext(), key, window); err != nil {
				log.Printf("Warning: failed to set rate limit window for %s: %v", key, err)
			}
		}

		if count > int64(limit) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"status":  "error",
				"message": "too many requests",
			})
		}
		return c.Next()
	}
}
