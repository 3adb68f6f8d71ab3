package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hypernova-labs/client-service/internal/logging"
	"github.com/hypernova-labs/client-service/internal/metrics"
	"github.com/hypernova-labs/client-service/internal/models"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

// WindowCounter cuenta peticiones en una ventana fija
type WindowCounter interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RequestLogger asigna un request id y guarda un logger con sus campos en el contexto
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		entry := logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		})
		c.Request = c.Request.WithContext(logging.WithEntry(c.Request.Context(), entry))

		c.Next()

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.WithFields(fields).Error("Request completed")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.WithFields(fields).Warn("Request completed")
		default:
			entry.WithFields(fields).Info("Request completed")
		}
	}
}

// Recovery convierte un pánico en una respuesta 500 con el sobre común
func Recovery(logger *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.FromContext(c.Request.Context(), logger).
			WithField("panic", fmt.Sprint(recovered)).
			Error("Recovered from panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.NewInternalError(internalErrorMessage))
	})
}

// Metrics registra la latencia de cada petición por ruta, método y estado
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(route, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}

// RateLimit limita las peticiones por IP en ventanas fijas.
// Sin contador no limita; si el contador falla deja pasar la petición.
func RateLimit(counter WindowCounter, limit int, window time.Duration, m *metrics.Metrics, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if counter == nil || limit <= 0 {
			c.Next()
			return
		}

		now := time.Now()
		windowStart := now.Truncate(window)
		key := fmt.Sprintf("ratelimit:%s:%d", c.ClientIP(), windowStart.Unix())

		count, err := counter.IncrementWindow(c.Request.Context(), key, window)
		if err != nil {
			logging.FromContext(c.Request.Context(), logger).WithError(err).Warn("Rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(limit) {
			retryAfter := int(windowStart.Add(window).Sub(now).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			m.IncrementRateLimited()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.NewRateLimitedError("Too many requests. Please try again later."))
			return
		}

		c.Next()
	}
}
