package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeTimeout is used when the request deadline passed before upstream answered
	ErrCodeTimeout = "ERR_TIMEOUT"
)

// Validation error codes
const (
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationFormat   = "ERR_VALIDATION_FORMAT"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	// ErrCodeInvalidSignature is used when a signed callback fails verification
	ErrCodeInvalidSignature = "ERR_INVALID_SIGNATURE"
	// ErrCodeInvalidState is used when an OAuth state is bad, expired or replayed
	ErrCodeInvalidState = "ERR_INVALID_STATE"
)

// Resource error codes
const (
	ErrCodeNotFound = "ERR_NOT_FOUND"
	ErrCodeConflict = "ERR_CONFLICT"
)

// Input error codes
const (
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeTooLarge     = "ERR_REQUEST_TOO_LARGE"
)

// Integration error codes
const (
	// ErrCodeNotConfigured is used when a required vendor credential is absent
	ErrCodeNotConfigured = "ERR_NOT_CONFIGURED"
	// ErrCodeUpstream is used when a vendor call failed or answered garbage
	ErrCodeUpstream = "ERR_UPSTREAM"
	// ErrCodeUpstreamRateLimited is used when a vendor kept answering 429
	ErrCodeUpstreamRateLimited = "ERR_UPSTREAM_RATE_LIMITED"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,
	ErrCodeTimeout:  http.StatusGatewayTimeout,

	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,

	ErrCodeUnauthorized:     http.StatusUnauthorized,
	ErrCodeForbidden:        http.StatusForbidden,
	ErrCodeInvalidSignature: http.StatusForbidden,
	ErrCodeInvalidState:     http.StatusForbidden,

	ErrCodeNotFound: http.StatusNotFound,
	ErrCodeConflict: http.StatusConflict,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,

	ErrCodeNotConfigured:       http.StatusServiceUnavailable,
	ErrCodeUpstream:            http.StatusBadGateway,
	ErrCodeUpstreamRateLimited: http.StatusTooManyRequests,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps shared.DomainError codes to response codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":        ErrCodeNotFound,
	"INVALID_INPUT":    ErrCodeInvalidInput,
	"UNAUTHORIZED":     ErrCodeUnauthorized,
	"FORBIDDEN":        ErrCodeForbidden,
	"CONFLICT":         ErrCodeConflict,
	"NOT_CONFIGURED":   ErrCodeNotConfigured,
	"UPSTREAM_FAILURE": ErrCodeUpstream,
	"INTERNAL":         ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the response format.
// Unknown codes are returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
