package studio

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"narrate/internal/logging"
	"narrate/internal/services"
)

func attachRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := strings.TrimSpace(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.New().String()
		}
		ctx := services.WithRequestID(c.Request.Context(), reqID)
		c.Request = c.Request.WithContext(ctx)
		c.Set(logging.FieldRequestID, reqID)
		c.Writer.Header().Set(headerRequestID, reqID)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		logger := logging.WithContext(c.Request.Context(), s.logger)
		attrs := logging.Args(
			logging.String("method", c.Request.Method),
			logging.String("path", path),
			logging.Int("status", status),
			logging.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		switch {
		case status >= 500:
			logger.Error("http request", attrs...)
		case status >= 400:
			logger.Warn("http request", attrs...)
		default:
			logger.Info("http request", attrs...)
		}
	}
}

// requireSecret passes every request through when no secret is configured.
func (s *Server) requireSecret() gin.HandlerFunc {
	secret := s.cfg.Secret
	return func(c *gin.Context) {
		if secret == "" || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		presented := c.GetHeader(headerStudioSecret)
		if subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
			respondStatus(c, http.StatusUnauthorized, "unauthorized", "invalid studio secret")
			c.Abort()
			return
		}
		c.Next()
	}
}
