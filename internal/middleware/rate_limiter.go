package middleware

import (
	"net/http"
	"strconv"

	"novaadm/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// LoginRate bounds login attempts per IP.
const LoginRate = "20-M"

// NewLimiter builds a per-IP limiter from a formatted rate such as "120-M".
// Counters live in redis when rdb is set so every replica shares them;
// otherwise they are kept in process memory.
func NewLimiter(rdb *redis.Client, formatted, prefix string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}

	opts := limiter.StoreOptions{Prefix: "novaadm:limiter:" + prefix}
	var store limiter.Store
	if rdb != nil {
		store, err = sredis.NewStoreWithOptions(rdb, opts)
		if err != nil {
			return nil, err
		}
	} else {
		store = memory.NewStoreWithOptions(opts)
	}
	return limiter.New(store, rate), nil
}

// RateLimit rejects requests once the client IP exceeds the limiter's rate.
// Store failures let the request through.
func RateLimit(l *limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		lc, err := l.Get(c.Request.Context(), ip)
		if err != nil {
			log.Warn().Err(err).Str("ip", ip).Msg("rate limiter: store unavailable")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(lc.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(lc.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(lc.Reset, 10))

		if lc.Reached {
			log.Warn().Str("ip", ip).Int64("limit", lc.Limit).Str("path", c.FullPath()).Msg("rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, &apierror.APIError{
				Code:   "DEMASIADAS_SOLICITUDES",
				Detail: "demasiadas solicitudes, intente nuevamente en un momento",
			})
			return
		}
		c.Next()
	}
}
