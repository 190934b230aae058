package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yigit/bojio/internal/app/models/dto"
	"github.com/yigit/bojio/internal/pkg/validation"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := validation.Register(v); err != nil {
			panic(err)
		}
	}
}

// BindJSON binds and validates the request body. On failure it writes a 400
// with one entry per invalid field and returns false.
func BindJSON(c *gin.Context, obj interface{}) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Invalid request format")
		errorDetail = errorDetail.WithDetails(err.Error())
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return false
	}

	fields := dto.NewValidationErrors()
	for _, e := range verrs {
		fields.AddError(jsonName(e.Field()), formatValidationError(e))
	}

	errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, fields.Errors[0].Message)
	errorDetail = errorDetail.WithField(fields.Errors[0].Field).WithDetails(fields.Errors)
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
	return false
}

// jsonName lower-cases the first letter so "CommunityID" reads "communityID"
func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(e validator.FieldError) string {
	field := jsonName(e.Field())
	switch e.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must be at least " + e.Param()
	case "max":
		return field + " must be at most " + e.Param()
	case "url":
		return field + " must be a valid URL"
	case validation.TagUsername:
		return field + " may only contain letters, digits, dots and underscores"
	case validation.TagImage:
		return field + " must be an http(s) URL or an image data URI"
	case "oneof":
		return field + " must be one of: " + e.Param()
	default:
		return field + " validation failed: " + e.Tag()
	}
}
