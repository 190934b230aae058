package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/bojio/internal/app/models/dto"
	"github.com/yigit/bojio/internal/pkg/apperrors"
	"github.com/yigit/bojio/internal/pkg/logger"
)

// message prefers the human-readable text carried by the error chain
func message(err error, fallback string) string {
	var nf *apperrors.NotFoundError
	if errors.As(err, &nf) {
		return nf.Error()
	}
	var ce *apperrors.CustomError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return fallback
}

// HandleAPIError maps service errors onto status codes and the standard
// error body
func HandleAPIError(c *gin.Context, err error) {
	status, detail := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Request failed")
	}
	c.JSON(status, dto.NewErrorResponse(detail))
}

func classify(err error) (int, *dto.ErrorDetail) {
	var fo *apperrors.FanOutError

	switch {
	case errors.Is(err, apperrors.ErrOptionNotFound):
		return http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeOptionNotFound, message(err, "Option not found"))
	case errors.Is(err, apperrors.ErrResourceNotFound):
		detail := dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, message(err, "Resource not found"))
		var nf *apperrors.NotFoundError
		if errors.As(err, &nf) {
			detail = detail.WithDetails(map[string]string{"kind": nf.Kind, "key": nf.Key})
		}
		return http.StatusNotFound, detail
	case errors.Is(err, apperrors.ErrAlreadyVoted):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeAlreadyVoted, "You have already voted on this poll").
			WithSeverity(dto.ErrorSeverityWarning)
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrResourceAlreadyExists):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeConflict, message(err, "Conflict"))
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeForbidden, message(err, "Permission denied"))
	case errors.Is(err, apperrors.ErrValidationFailed), errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, message(err, "Validation failed"))
	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired")
	case errors.Is(err, apperrors.ErrTokenInvalid), errors.Is(err, apperrors.ErrInvalidFormat):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")
	case errors.As(err, &fo):
		detail := dto.NewErrorDetail(dto.ErrorCodePartialCascade, "The update could not be completed").
			WithSeverity(dto.ErrorSeverityCritical).
			WithDetails(map[string]interface{}{
				"step":       fo.Step,
				"completed":  fo.Completed,
				"rolledBack": fo.RolledBack,
			})
		return http.StatusInternalServerError, detail
	case errors.Is(err, apperrors.ErrThreadTooDeep):
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeResourceInvalid, "Thread is too deep to process")
	default:
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
	}
}
