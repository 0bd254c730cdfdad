package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mroshb/skill_swap/internal/metrics"
	"github.com/mroshb/skill_swap/internal/middleware"
	"github.com/mroshb/skill_swap/internal/models"
	"github.com/mroshb/skill_swap/internal/security"
	"github.com/mroshb/skill_swap/pkg/errors"
	"github.com/mroshb/skill_swap/pkg/logger"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"

	requestIDHeader = "X-Request-ID"
)

// AuthRequired accepts a bearer JWT and stores the caller in the context.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			abortWithError(c, errors.New(errors.ErrCodeUnauthorized, "missing token"))
			return
		}

		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortWithError(c, errors.New(errors.ErrCodeUnauthorized, "invalid token format"))
			return
		}

		claims, err := security.ValidateJWT(strings.TrimSpace(parts[1]), secret)
		if err != nil {
			abortWithError(c, errors.Wrap(err, errors.ErrCodeUnauthorized, "invalid or expired token"))
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)

		c.Next()
	}
}

// AdminOnly must run after AuthRequired.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxRole) != models.RoleAdmin {
			abortWithError(c, errors.New(errors.ErrCodeForbidden, "admin role required"))
			return
		}
		c.Next()
	}
}

// RateLimitByIP applies the per-IP window.
func RateLimitByIP(rl *middleware.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.CheckIPLimit(c.ClientIP()) {
			abortWithError(c, errors.New(errors.ErrCodeRateLimitExceeded, "too many requests"))
			return
		}
		c.Next()
	}
}

// RateLimitByUser applies the per-user window. It must run after AuthRequired.
func RateLimitByUser(rl *middleware.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint(ctxUserID)
		if !rl.CheckUserLimit(userID) {
			abortWithError(c, errors.New(errors.ErrCodeRateLimitExceeded, "too many requests"))
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(rl.GetUserRemaining(userID)))
		c.Next()
	}
}

// Monitor records request count and latency per route template.
func Monitor() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.ObserveRequest(path, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}

// RequestLogger tags each request with an id, echoed in X-Request-ID, and
// logs it through the application logger.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID, _ = security.GenerateRandomToken(12)
		}
		c.Header(requestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if userID, ok := c.Get(ctxUserID); ok {
			fields = append(fields, "user_id", userID)
		}

		if status >= http.StatusInternalServerError {
			logger.Error("HTTP request failed", fields...)
			return
		}
		logger.Debug("HTTP request", fields...)
	}
}

func abortWithError(c *gin.Context, err error) {
	status, body := MapErrorToHTTP(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request error", "path", c.Request.URL.Path, "error", err)
	}
	c.AbortWithStatusJSON(status, body)
}
