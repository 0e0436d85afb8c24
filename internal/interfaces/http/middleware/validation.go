package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/erp/progress-billing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Custom validation tags for decimal.Decimal fields
const (
	TagDecimalGTE0 = "decimal_gte0"
	TagRate        = "rate"
)

// SetupValidator configures gin's validator: JSON field names in errors and
// the decimal tags used by request DTOs.
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	RegisterValidations(v)
	return nil
}

// RegisterValidations installs the custom tags on v
func RegisterValidations(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	// validator does not run custom tags on struct kinds, so decimals are
	// validated through their string form
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation(TagDecimalGTE0, func(fl validator.FieldLevel) bool {
		d, ok := decimalValue(fl.Field())
		return ok && !d.IsNegative()
	})
	_ = v.RegisterValidation(TagRate, func(fl validator.FieldLevel) bool {
		d, ok := decimalValue(fl.Field())
		return ok && !d.IsNegative() && d.LessThanOrEqual(decimal.NewFromInt(1))
	})
}

func decimalValue(field reflect.Value) (decimal.Decimal, bool) {
	if field.Kind() != reflect.String {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(field.String())
	return d, err == nil
}

// FormatValidationErrors formats binding errors into the error envelope
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Message: validationMessage(e),
			})
		}
		return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
	}
	return dto.NewErrorResponse(dto.ErrCodeInvalidJSON, "Malformed request body", requestID)
}

// HandleValidationError returns a 400 validation error response
func HandleValidationError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "max":
		return "Must be at most " + e.Param() + " characters"
	case "len":
		return "Must be exactly " + e.Param() + " characters"
	case "gtefield":
		return "Must not be before " + e.Param()
	case TagDecimalGTE0:
		return "Must be zero or positive"
	case TagRate:
		return "Must be a fraction between 0 and 1"
	default:
		return "Invalid value"
	}
}
