package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/velvet/backend/internal/domain/integration"
	"github.com/velvet/backend/internal/domain/shared"
	"github.com/velvet/backend/internal/infrastructure/auth"
	"github.com/velvet/backend/internal/interfaces/http/dto"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"domain not found", shared.ErrNotFound, dto.ErrCodeNotFound, http.StatusNotFound},
		{"domain invalid input wrapped", fmt.Errorf("save: %w", shared.ErrInvalidInput), dto.ErrCodeInvalidInput, http.StatusBadRequest},
		{"domain conflict", shared.ErrConflict, dto.ErrCodeConflict, http.StatusConflict},
		{"product not found", integration.ErrProductNotFound, dto.ErrCodeNotFound, http.StatusNotFound},
		{"not configured", integration.ErrPlatformNotConfigured, dto.ErrCodeNotConfigured, http.StatusServiceUnavailable},
		{"rate limited", integration.ErrPlatformRateLimited, dto.ErrCodeUpstreamRateLimited, http.StatusTooManyRequests},
		{"signature", integration.ErrPlatformInvalidSignature, dto.ErrCodeInvalidSignature, http.StatusForbidden},
		{"upstream unavailable", integration.ErrPlatformUnavailable, dto.ErrCodeUpstream, http.StatusBadGateway},
		{"upstream auth", integration.ErrPlatformAuthFailed, dto.ErrCodeUpstream, http.StatusBadGateway},
		{"empty completion", integration.ErrEmptyCompletion, dto.ErrCodeUpstream, http.StatusBadGateway},
		{"expired state", auth.ErrExpiredState, dto.ErrCodeInvalidState, http.StatusForbidden},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), dto.ErrCodeTimeout, http.StatusGatewayTimeout},
		{"unknown", assert.AnError, dto.ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, message := errorCode(tt.err)
			assert.Equal(t, tt.code, code)
			assert.NotEmpty(t, message)
			assert.Equal(t, tt.status, dto.GetHTTPStatus(code))
		})
	}
}
