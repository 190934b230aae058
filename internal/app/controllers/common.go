package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yigit/bojio/internal/app/models"
	"github.com/yigit/bojio/internal/app/models/dto"
	"github.com/yigit/bojio/internal/middleware"
	"github.com/yigit/bojio/internal/pkg/helpers"
)

// parseIDParam reads a uuid path parameter, answering 400 when malformed
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Invalid "+name).
			WithField(name).
			WithDetails("must be a UUID")
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return uuid.Nil, false
	}
	return id, true
}

// currentUser returns the onboarded caller. Routes using it sit behind RequireUser.
func currentUser(c *gin.Context) *models.User {
	user, ok := middleware.GetUser(c)
	if !ok {
		return nil
	}
	return user
}

// respondPage writes a page in the standard paginated envelope
func respondPage[T any](c *gin.Context, p helpers.Page[T], message string) {
	c.JSON(http.StatusOK, dto.NewStructuredResponse(dto.PaginatedResponse{
		Items:      p.Items,
		Pagination: helpers.NewPaginationInfo(p),
	}, message))
}
