package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/bojio/internal/app/models"
	"github.com/yigit/bojio/internal/app/models/dto"
	"github.com/yigit/bojio/internal/app/services"
	"github.com/yigit/bojio/internal/middleware"
	"github.com/yigit/bojio/internal/pkg/helpers"
)

// UserController handles user-related operations
type UserController struct {
	userService     services.UserService
	activityService services.ActivityService
}

// NewUserController creates a new user controller
func NewUserController(userService services.UserService, activityService services.ActivityService) *UserController {
	return &UserController{
		userService:     userService,
		activityService: activityService,
	}
}

// GetMe describes the caller
// @Summary Get current user
// @Description Returns the caller's profile, or needsOnboarding when no profile exists yet
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.StructuredResponse{data=dto.MeResponse} "Caller retrieved successfully"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Router /users/me [get]
func (c *UserController) GetMe(ctx *gin.Context) {
	identity, _ := middleware.GetIdentity(ctx)
	user, _ := middleware.GetUser(ctx)

	response := dto.MeResponse{
		ExternalID:      identity.ExternalID,
		NeedsOnboarding: user == nil || !user.Onboarded,
		User:            dto.FromUser(user),
	}
	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(response, "Caller retrieved successfully"))
}

// UpdateMe onboards the caller or edits their profile
// @Summary Update current user
// @Description Creates or updates the caller's profile and marks it onboarded
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateUserRequest true "Profile"
// @Success 200 {object} dto.StructuredResponse{data=dto.UserResponse} "Profile saved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format or validation error"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 409 {object} dto.ErrorResponse "Username already taken"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /users/me [put]
func (c *UserController) UpdateMe(ctx *gin.Context) {
	var req dto.UpdateUserRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	identity, _ := middleware.GetIdentity(ctx)
	user, err := c.userService.UpdateUser(ctx.Request.Context(), models.UserProfile{
		ExternalID: identity.ExternalID,
		Username:   req.Username,
		Name:       req.Name,
		Bio:        req.Bio,
		Image:      req.Image,
	}, req.Path)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	middleware.SetUser(ctx, user)
	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(dto.FromUser(user), "Profile saved successfully"))
}

// GetUsers searches users other than the caller
// @Summary List users
// @Description Lists users by creation time (newest first unless sort=asc), excluding the caller. Search matches username or name.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search by username or name"
// @Param sort query string false "Creation order" Enums(asc, desc) default(desc)
// @Param page query int false "Page number (1-based)" default(1) minimum(1)
// @Param size query int false "Page size (max 100)" default(20) minimum(1) maximum(100)
// @Success 200 {object} dto.StructuredResponse{data=dto.PaginatedResponse{items=[]dto.UserResponse}} "Users retrieved successfully"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /users [get]
func (c *UserController) GetUsers(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)

	result, err := c.userService.FetchUsers(ctx.Request.Context(), &currentUser(ctx).ID, ctx.Query("search"), ctx.Query("sort"), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondPage(ctx, helpers.MapPage(result, dto.FromUsers(result.Items)), "Users retrieved successfully")
}

// GetUserByID retrieves user information by ID
// @Summary Get user by ID
// @Description Retrieves a specific user by their ID
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID" Format(uuid)
// @Success 200 {object} dto.StructuredResponse{data=dto.UserResponse} "User retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid user ID format"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{id} [get]
func (c *UserController) GetUserByID(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	user, err := c.userService.GetUser(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(dto.FromUser(user), "User retrieved successfully"))
}

// GetUserPosts lists a user's root posts
// @Summary Get user posts
// @Description Lists the root posts of a user with their direct replies resolved
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID" Format(uuid)
// @Param page query int false "Page number (1-based)" default(1) minimum(1)
// @Param size query int false "Page size (max 100)" default(20) minimum(1) maximum(100)
// @Success 200 {object} dto.StructuredResponse{data=dto.PaginatedResponse{items=[]models.PostWithAuthor}} "Posts retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid user ID format"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{id}/posts [get]
func (c *UserController) GetUserPosts(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	result, err := c.userService.FetchUserPosts(ctx.Request.Context(), id, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondPage(ctx, result, "Posts retrieved successfully")
}

// GetUserEvents lists a user's root events
// @Summary Get user events
// @Description Lists the root events of a user with replies and polls resolved
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID" Format(uuid)
// @Param page query int false "Page number (1-based)" default(1) minimum(1)
// @Param size query int false "Page size (max 100)" default(20) minimum(1) maximum(100)
// @Success 200 {object} dto.StructuredResponse{data=dto.PaginatedResponse{items=[]models.EventDetail}} "Events retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid user ID format"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{id}/events [get]
func (c *UserController) GetUserEvents(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	result, err := c.userService.FetchUserEvents(ctx.Request.Context(), id, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondPage(ctx, result, "Events retrieved successfully")
}

// GetUserActivity lists replies other users left on a user's content
// @Summary Get user activity
// @Description Replies by others to the user's posts and events, newest first. kind narrows the feed to post or event replies.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID" Format(uuid)
// @Param kind query string false "post or event" Enums(post, event)
// @Success 200 {object} dto.StructuredResponse{data=[]models.ActivityItem} "Activity retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid user ID or kind"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /users/{id}/activity [get]
func (c *UserController) GetUserActivity(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var (
		items []models.ActivityItem
		err   error
	)
	if kind := ctx.Query("kind"); kind != "" {
		items, err = c.activityService.GetReplyActivity(ctx.Request.Context(), id, models.EntityKind(kind))
	} else {
		items, err = c.activityService.GetActivityFeed(ctx.Request.Context(), id)
	}
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(items, "Activity retrieved successfully"))
}
