package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	apperrors "github.com/xrpl-farmer-api/internal/errors"
	"github.com/xrpl-farmer-api/internal/logging"
	"github.com/xrpl-farmer-api/internal/metrics"
	"github.com/xrpl-farmer-api/internal/ratelimit"
)

// RateLimitMiddleware creates a middleware that enforces a per-client-IP request budget.
// Requests are let through when the limiter itself fails.
func RateLimitMiddleware(limiter ratelimit.Limiter, logger *logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			decision, err := limiter.Allow(r.Context(), ip)
			if err != nil {
				metrics.IncLimiterErr()
				logging.FromContextOr(r.Context(), logger).WithError(err).WithField("remote_ip", ip).
					Warn("Rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("RateLimit-Limit", strconv.Itoa(decision.Limit))
			h.Set("RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			h.Set("RateLimit-Reset", strconv.Itoa(ceilSeconds(decision.ResetAfter)))

			if !decision.Allowed {
				metrics.IncRateLimited()
				retryAfter := max(ceilSeconds(decision.RetryAfter), 1)
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				respondError(w, r, apperrors.NewRateLimitError(retryAfter))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the connection's remote IP. Forwarding headers are not trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
