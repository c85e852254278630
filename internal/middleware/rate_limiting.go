package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/Ayooluwabami/Blogging-API/internal/telemetry/metrics"
	"github.com/Ayooluwabami/Blogging-API/pkg"

	"github.com/go-redis/redis_rate/v9"
	log "github.com/sirupsen/logrus"
)

type RequestRateLimiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// RateLimit allows allowedPerMin requests per minute per client IP on the
// wrapped route. keyPrefix separates the buckets of different routes.
func RateLimit(
	rateLimiter RequestRateLimiter,
	keyPrefix string,
	allowedPerMin int,
	metricsManager *metrics.Manager,
) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP, err := pkg.ReadUserIP(r)
			if err != nil {
				log.Warnf("rate limit: read client ip: %s", err)
				clientIP = "unknown"
			}

			res, err := rateLimiter.Allow(
				r.Context(),
				keyPrefix+":"+clientIP,
				redis_rate.PerMinute(allowedPerMin),
			)
			if err != nil {
				log.Errorf("rate limit [%s]: %s", keyPrefix, err)
				pkg.WriteInternalServerError(w)
				return
			}

			if res.Allowed > 0 {
				next.ServeHTTP(w, r)
				return
			}

			if metricsManager != nil {
				metricsManager.CounterRateLimitedRequests.Inc()
			}

			retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			pkg.WriteMessage(
				w,
				fmt.Sprintf("Too many requests, retry after %ds", retryAfter),
				http.StatusTooManyRequests,
			)
		})
	}
}
