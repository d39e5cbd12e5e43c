// middleware/request_logger.go
package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestLogger attaches the caller identity set by the Gateway (X-User-ID)
// to the request context and logs every request once it completes.
func RequestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		userID := c.Get("X-User-ID")
		c.Locals("user_id", userID)

		err := c.Next()

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
		}
		if userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}
		if err != nil {
			logger.Error("request failed", append(fields, zap.Error(err))...)
			return err
		}
		logger.Debug("request", fields...)
		return nil
	}
}
