package http

import (
	"net/http"
	"strconv"
	"time"

	"voteaudit/internal/infra/ratelimit"

	"github.com/gin-gonic/gin"
)

// limitPerClient throttles a route per client IP. Without a limiter or with
// a zero budget the route is unthrottled.
func (s *Server) limitPerClient(route string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.rateLimiter == nil || s.rateLimitRequests <= 0 {
			c.Next()
			return
		}
		key := route + ":" + c.ClientIP()
		decision, err := s.rateLimiter.Allow(c.Request.Context(), key, s.rateLimitRequests, s.rateLimitWindow)
		if err != nil {
			s.logger.WithError(err).WithField("route", route).Warn("rate limiter unavailable")
			if s.rateLimitFailClosed {
				writeErrorCode(c, http.StatusServiceUnavailable, "RATE_LIMIT_UNAVAILABLE", "rate limiter unavailable")
				c.Abort()
				return
			}
			c.Next()
			return
		}
		setRateLimitHeaders(c.Writer.Header(), decision, time.Now())
		if !decision.Allowed {
			writeErrorCode(c, http.StatusTooManyRequests, "RATE_LIMITED", "too many verification requests")
			c.Abort()
			return
		}
		c.Next()
	}
}

func setRateLimitHeaders(h http.Header, d ratelimit.Decision, now time.Time) {
	h.Set("RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("RateLimit-Remaining", strconv.Itoa(max(d.Remaining, 0)))
	if d.ResetAt.IsZero() {
		return
	}
	wait := int(d.ResetAt.Sub(now).Round(time.Second) / time.Second)
	h.Set("RateLimit-Reset", strconv.Itoa(max(wait, 0)))
	if !d.Allowed {
		h.Set("Retry-After", strconv.Itoa(max(wait, 1)))
	}
}
