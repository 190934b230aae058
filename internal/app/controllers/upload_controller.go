package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/bojio/internal/app/models/dto"
	"github.com/yigit/bojio/internal/middleware"
	"github.com/yigit/bojio/internal/pkg/apperrors"
	"github.com/yigit/bojio/internal/pkg/filestorage"
)

// UploadController stores images for profiles and communities, which only accept URLs
type UploadController struct {
	fileStorage filestorage.FileStorage
}

// NewUploadController creates a new UploadController
func NewUploadController(fileStorage filestorage.FileStorage) *UploadController {
	return &UploadController{fileStorage: fileStorage}
}

// UploadImage stores an uploaded image and returns its URL
// @Summary Upload image
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image (max 5MB)"
// @Success 201 {object} dto.StructuredResponse{data=dto.UploadResponse} "Image uploaded successfully"
// @Failure 400 {object} dto.ErrorResponse "Missing file or not an image"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /uploads/images [post]
func (c *UploadController) UploadImage(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Image file is required").WithField("file")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	url, err := c.fileStorage.SaveFileWithPath(file, "images")
	if err != nil {
		if errors.Is(err, filestorage.ErrNotAnImage) || errors.Is(err, filestorage.ErrTooLarge) {
			err = apperrors.NewValidationError(err.Error())
		}
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewStructuredResponse(dto.UploadResponse{URL: url}, "Image uploaded successfully"))
}
