package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/velvet/backend/internal/infrastructure/ecommerce"
	"github.com/velvet/backend/internal/interfaces/http/dto"
)

// SetupValidator configures gin's validator to report JSON field names and
// registers the custom tags used by request DTOs.
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	return v.RegisterValidation("shopdomain", func(fl validator.FieldLevel) bool {
		return ecommerce.IsValidShopDomain(fl.Field().String())
	})
}

// FormatValidationErrors converts validator errors into response details
func FormatValidationErrors(err error) []dto.ValidationDetail {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	details := make([]dto.ValidationDetail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, dto.ValidationDetail{
			Field:   fe.Field(),
			Message: validationMessage(fe),
		})
	}
	return details
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "shopdomain":
		return "Must be a valid *.myshopify.com domain"
	default:
		return fmt.Sprintf("Failed validation on '%s'", fe.Tag())
	}
}

// HandleValidationError writes a 400 response for a binding error. Bodies
// that are not valid JSON get INVALID_JSON, failed rules get VALIDATION_ERROR.
func HandleValidationError(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		abortTooLarge(c)
		return
	}

	if details := FormatValidationErrors(err); len(details) > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
			"Request validation failed", GetRequestID(c), details))
		return
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInvalidJSON, "Request body is not valid JSON", GetRequestID(c)))
}
