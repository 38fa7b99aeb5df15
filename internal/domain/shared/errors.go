package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithMessage returns a copy of the error carrying a more specific message.
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{Code: e.Code, Message: message}
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is matches copies made by WithMessage.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Common domain errors
var (
	ErrNotFound        = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput    = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrUnauthorized    = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden       = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrConflict        = NewDomainError("CONFLICT", "Resource was already used")
	ErrNotConfigured   = NewDomainError("NOT_CONFIGURED", "Required integration is not configured")
	ErrUpstreamFailure = NewDomainError("UPSTREAM_FAILURE", "Upstream service request failed")
	ErrInternal        = NewDomainError("INTERNAL", "Internal error")
)
