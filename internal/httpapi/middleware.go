package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// loggingMiddleware emits one structured log line per request, grounded on
// pkg/api/middleware.go's loggingMiddleware.
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(p gin.LogFormatterParams) string {
		s.logger.Info("http request",
			"method", p.Method,
			"path", p.Path,
			"status", p.StatusCode,
			"latency", p.Latency,
			"ip", p.ClientIP,
		)
		return ""
	})
}

// corsMiddleware configures gin-contrib/cors from cfg.Cors.
func (s *Server) corsMiddleware() gin.HandlerFunc {
	if !s.cfg.API.Cors.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	cfg := cors.Config{
		AllowOrigins:     s.cfg.API.Cors.AllowedOrigins,
		AllowMethods:     s.cfg.API.Cors.AllowedMethods,
		AllowHeaders:     s.cfg.API.Cors.AllowedHeaders,
		AllowCredentials: s.cfg.API.Cors.AllowCredentials,
		MaxAge:           time.Duration(s.cfg.API.Cors.MaxAgeSeconds) * time.Second,
	}
	if len(cfg.AllowOrigins) == 1 && cfg.AllowOrigins[0] == "*" {
		cfg.AllowAllOrigins = true
		cfg.AllowOrigins = nil
	}
	return cors.New(cfg)
}

// securityMiddleware adds the baseline response headers, grounded on
// pkg/api/middleware.go's securityMiddleware.
func (s *Server) securityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Server", "schedcheck")
		c.Next()
	}
}

// rateLimiterSet holds one rate.Limiter per bearer subject (or client IP
// when auth is disabled), mirroring pkg/api/middleware.go's per-IP map but
// keyed by the authenticated caller instead.
type rateLimiterSet struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	cfg      rateLimitParams
}

type rateLimitParams struct {
	requestsPer int
	duration    time.Duration
	burst       int
}

func newRateLimiterSet(p rateLimitParams) *rateLimiterSet {
	return &rateLimiterSet{limiters: make(map[string]*rate.Limiter), cfg: p}
}

func (r *rateLimiterSet) allow(key string) bool {
	r.mu.Lock()
	limiter, ok := r.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(r.cfg.requestsPer)/rate.Limit(r.cfg.duration.Seconds()), r.cfg.burst)
		r.limiters[key] = limiter
	}
	r.mu.Unlock()
	return limiter.Allow()
}

// rateLimitMiddleware throttles POST /runs per caller.
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	limiters := newRateLimiterSet(rateLimitParams{
		requestsPer: s.cfg.API.RateLimit.RequestsPer,
		duration:    s.cfg.API.RateLimit.Duration,
		burst:       s.cfg.API.RateLimit.BurstSize,
	})
	return func(c *gin.Context) {
		key := c.ClientIP()
		if subject, ok := c.Get("subject"); ok {
			if s, ok := subject.(string); ok {
				key = s
			}
		}
		if !limiters.allow(key) {
			c.JSON(http.StatusTooManyRequests, errorResponse{
				Error:   "rate_limit_exceeded",
				Message: "too many requests, slow down",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// bodySizeMiddleware caps request bodies at cfg.MaxBodySize.
func (s *Server) bodySizeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.API.MaxBodySize)
		c.Next()
	}
}
