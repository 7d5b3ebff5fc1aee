package middleware

import (
	"net/http"
	"time"

	"github.com/ulule/limiter/v3"
	limiterhttp "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/JonMunkholm/gereecole/internal/logging"
)

// RateLimit returns middleware allowing perMinute requests per client IP.
// Each call has its own in-memory counters. The client IP is read from
// RemoteAddr, so TrustedRealIP must run first.
func RateLimit(perMinute int) func(http.Handler) http.Handler {
	rate := limiter.Rate{Period: time.Minute, Limit: int64(perMinute)}
	instance := limiter.New(memory.NewStore(), rate)

	mw := limiterhttp.NewMiddleware(instance,
		limiterhttp.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			logging.FromContext(r.Context()).Warn("rate limit exceeded",
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			w.Header().Set("Retry-After", "60")
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded", "RATE001")
		}),
	)
	return mw.Handler
}
