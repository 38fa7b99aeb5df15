package logger

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Keys shared with the HTTP middleware through the gin context
const (
	ginLoggerKey    = "logger"
	ginRequestIDKey = "request_id"
	ginShopKey      = "shop_domain"
)

// OAuth callback parameters that must not reach the logs
var redactedQueryParams = []string{"code", "hmac", "state", "access_token"}

// GinMiddleware logs one entry per request and makes a request-scoped logger
// available to handlers (GetGinLogger) and services (FromContext, L).
func GinMiddleware(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetString(ginRequestIDKey)

		reqLog := base.With(
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		c.Set(ginLoggerKey, reqLog)
		ctx := WithContext(WithRequestID(c.Request.Context(), requestID), reqLog)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		if ce := reqLog.Check(levelForStatus(status), "HTTP Request"); ce != nil {
			ce.Write(requestFields(c, status, time.Since(start))...)
		}
	}
}

func levelForStatus(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

func requestFields(c *gin.Context, status int, latency time.Duration) []zap.Field {
	fields := []zap.Field{
		zap.Int("status", status),
		zap.Duration("latency", latency),
		zap.String("client_ip", c.ClientIP()),
		zap.Int("body_size", c.Writer.Size()),
	}
	if route := c.FullPath(); route != "" {
		fields = append(fields, zap.String("route", route))
	}
	if query := redactQuery(c.Request.URL.Query()); query != "" {
		fields = append(fields, zap.String("query", query))
	}
	if shop := c.GetString(ginShopKey); shop != "" {
		fields = append(fields, zap.String("shop", shop))
	}
	if ua := c.Request.UserAgent(); ua != "" {
		fields = append(fields, zap.String("user_agent", ua))
	}
	if len(c.Errors) > 0 {
		fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
	}
	return fields
}

func redactQuery(values url.Values) string {
	if len(values) == 0 {
		return ""
	}
	for _, key := range redactedQueryParams {
		if values.Has(key) {
			values.Set(key, "[REDACTED]")
		}
	}
	return values.Encode()
}

// Recovery turns a panic into a 500 JSON error and logs the stack
func Recovery(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			base.Error("Panic recovered",
				zap.String("request_id", c.GetString(ginRequestIDKey)),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Any("panic", rec),
				zap.Stack("stacktrace"),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ERR_INTERNAL",
					"message": "Internal server error",
				},
			})
		}()
		c.Next()
	}
}

// GetGinLogger returns the request logger set by GinMiddleware, or a no-op
// logger outside of it.
func GetGinLogger(c *gin.Context) *zap.Logger {
	if l, ok := c.Value(ginLoggerKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
