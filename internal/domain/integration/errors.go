package integration

import "errors"

var (
	// Platform errors
	ErrPlatformNotConfigured    = errors.New("integration: platform not configured")
	ErrPlatformUnavailable      = errors.New("integration: platform temporarily unavailable")
	ErrPlatformRequestFailed    = errors.New("integration: platform request failed")
	ErrPlatformInvalidResponse  = errors.New("integration: invalid platform response")
	ErrPlatformAuthFailed       = errors.New("integration: platform authentication failed")
	ErrPlatformRateLimited      = errors.New("integration: platform rate limited")
	ErrPlatformInvalidSignature = errors.New("integration: invalid platform signature")

	// Lookup errors
	ErrProductNotFound = errors.New("integration: product not found")

	// Generation errors
	ErrNoImageGenerated = errors.New("integration: no image generated")
	ErrEmptyCompletion  = errors.New("integration: empty model completion")
)
