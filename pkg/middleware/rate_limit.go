package middleware

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/DRBagency/travel-agency-next-sub000/internal/http/response"
	"github.com/DRBagency/travel-agency-next-sub000/pkg/logger"
)

type RateLimitConfig struct {
	Requests int           // max requests per window
	Window   time.Duration
	Prefix   string
	KeyFunc  func(r *http.Request) string
}

// RateLimiter is a fixed-window counter kept in Redis. It fails open when
// Redis is unreachable.
type RateLimiter struct {
	client redis.Cmdable
	config RateLimitConfig
}

func NewRateLimiter(client redis.Cmdable, config RateLimitConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = ClientIP
	}
	if config.Prefix == "" {
		config.Prefix = "ratelimit"
	}
	return &RateLimiter{client: client, config: config}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.config.KeyFunc(r)
		if key != "" && !rl.allow(r.Context(), key) {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rl.config.Window.Seconds())))
			response.WriteError(w, http.StatusTooManyRequests, "Too many requests. Try again later.", response.CodeRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ctx context.Context, key string) bool {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	// Hash the key for privacy
	redisKey := fmt.Sprintf("%s:%x", rl.config.Prefix, sha256.Sum256([]byte(key)))

	// EXPIRE NX rides along with every INCR, so a window whose first
	// EXPIRE was lost still gets one on the next request.
	var incr *redis.IntCmd
	_, pipeErr := rl.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.ExpireNX(ctx, redisKey, rl.config.Window)
		return nil
	})
	count, err := incr.Result()
	if err != nil {
		logger.WarnContext(ctx, "Rate limiter unavailable", "error", err)
		return true
	}
	if pipeErr != nil {
		logger.WarnContext(ctx, "Failed to set rate limit window", "error", pipeErr)
	}
	return count <= int64(rl.config.Requests)
}

// ClientIP extracts the real client IP from the request.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take the first IP if there are multiple
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
