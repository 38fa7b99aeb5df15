// Package handler holds the gin handlers of the studio API.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/velvet/backend/internal/domain/integration"
	"github.com/velvet/backend/internal/domain/shared"
	"github.com/velvet/backend/internal/infrastructure/auth"
	"github.com/velvet/backend/internal/infrastructure/logger"
	"github.com/velvet/backend/internal/interfaces/http/dto"
	"github.com/velvet/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// errorCode classifies err into a response code and message
func errorCode(err error) (string, string) {
	var domainErr *shared.DomainError
	switch {
	case errors.As(err, &domainErr):
		return dto.NormalizeErrorCode(domainErr.Code), domainErr.Message
	case errors.Is(err, integration.ErrProductNotFound):
		return dto.ErrCodeNotFound, "Product not found"
	case errors.Is(err, integration.ErrPlatformNotConfigured):
		return dto.ErrCodeNotConfigured, "Integration is not configured"
	case errors.Is(err, integration.ErrPlatformRateLimited):
		return dto.ErrCodeUpstreamRateLimited, "Upstream service is rate limiting requests"
	case errors.Is(err, integration.ErrPlatformInvalidSignature):
		return dto.ErrCodeInvalidSignature, "Signature validation failed"
	case errors.Is(err, integration.ErrPlatformUnavailable),
		errors.Is(err, integration.ErrPlatformRequestFailed),
		errors.Is(err, integration.ErrPlatformInvalidResponse),
		errors.Is(err, integration.ErrPlatformAuthFailed),
		errors.Is(err, integration.ErrNoImageGenerated),
		errors.Is(err, integration.ErrEmptyCompletion):
		return dto.ErrCodeUpstream, "Upstream service request failed"
	case errors.Is(err, auth.ErrInvalidState),
		errors.Is(err, auth.ErrExpiredState),
		errors.Is(err, auth.ErrStateMismatch),
		errors.Is(err, auth.ErrStateReplayed):
		return dto.ErrCodeInvalidState, "Invalid OAuth state"
	case errors.Is(err, context.DeadlineExceeded):
		return dto.ErrCodeTimeout, "Request timed out"
	default:
		return dto.ErrCodeInternal, "An unexpected error occurred"
	}
}

// HandleError converts domain, integration and state errors into an HTTP response
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	code, message := errorCode(err)
	status := dto.GetHTTPStatus(code)
	if status >= http.StatusInternalServerError {
		logger.GetGinLogger(c).Error("Request failed", zap.String("code", code), zap.Error(err))
	}
	h.Error(c, status, code, message)
}

// bindJSON binds the request body and writes the 400 response on failure
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}
