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

// CommunityController handles community related operations
type CommunityController struct {
	communityService services.CommunityService
}

// NewCommunityController creates a new CommunityController
func NewCommunityController(communityService services.CommunityService) *CommunityController {
	return &CommunityController{communityService: communityService}
}

// GetAllCommunities handles retrieving communities with optional search
// @Summary Get all communities
// @Description Retrieves communities, newest first. Search matches username or name.
// @Tags communities
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search by username or name"
// @Param page query int false "Page number (1-based)" default(1) minimum(1)
// @Param size query int false "Page size (max 100)" default(20) minimum(1) maximum(100)
// @Success 200 {object} dto.StructuredResponse{data=dto.PaginatedResponse{items=[]models.Community}} "Communities retrieved successfully"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: token missing or invalid"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /communities [get]
func (c *CommunityController) GetAllCommunities(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)

	result, err := c.communityService.FetchCommunities(ctx.Request.Context(), ctx.Query("search"), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondPage(ctx, result, "Communities retrieved successfully")
}

// GetCommunityByID handles retrieving a community with its creator and members
// @Summary Get community by ID
// @Tags communities
// @Produce json
// @Security BearerAuth
// @Param id path string true "Community ID" Format(uuid)
// @Success 200 {object} dto.StructuredResponse{data=models.CommunityDetail} "Community retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid community ID"
// @Failure 404 {object} dto.ErrorResponse "Community not found"
// @Router /communities/{id} [get]
func (c *CommunityController) GetCommunityByID(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	community, err := c.communityService.FetchCommunityDetails(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(community, "Community retrieved successfully"))
}

// CreateCommunity registers a community with the caller as creator and first member
// @Summary Create community
// @Tags communities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateCommunityRequest true "Community"
// @Success 201 {object} dto.StructuredResponse{data=models.Community} "Community created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format or validation error"
// @Failure 409 {object} dto.ErrorResponse "Community id or username already taken"
// @Router /communities [post]
func (c *CommunityController) CreateCommunity(ctx *gin.Context) {
	var req dto.CreateCommunityRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	community, err := c.communityService.CreateCommunity(ctx.Request.Context(), currentUser(ctx).ID, req.ExternalID, models.CommunityFields{
		Username: req.Username,
		Name:     req.Name,
		Image:    req.Image,
		Bio:      req.Bio,
	}, req.Path)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewStructuredResponse(community, "Community created successfully"))
}

// UpdateCommunity edits the community profile; creator only
// @Summary Update community
// @Tags communities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Community ID" Format(uuid)
// @Param request body dto.UpdateCommunityRequest true "Community"
// @Success 200 {object} dto.StructuredResponse{data=models.Community} "Community updated successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format or validation error"
// @Failure 403 {object} dto.ErrorResponse "Not the creator"
// @Failure 404 {object} dto.ErrorResponse "Community not found"
// @Failure 409 {object} dto.ErrorResponse "Username already taken"
// @Router /communities/{id} [put]
func (c *CommunityController) UpdateCommunity(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateCommunityRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	community, err := c.communityService.UpdateCommunityInfo(ctx.Request.Context(), id, currentUser(ctx).ID, models.CommunityFields{
		Username: req.Username,
		Name:     req.Name,
		Image:    req.Image,
		Bio:      req.Bio,
	}, req.Path)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(community, "Community updated successfully"))
}

// DeleteCommunity deletes a community with all its posts and events; creator only
// @Summary Delete community
// @Tags communities
// @Produce json
// @Security BearerAuth
// @Param id path string true "Community ID" Format(uuid)
// @Param path query string false "Revalidation path token"
// @Success 200 {object} dto.StructuredResponse{data=dto.DeleteCommunityResponse} "Community deleted successfully"
// @Failure 403 {object} dto.ErrorResponse "Not the creator"
// @Failure 404 {object} dto.ErrorResponse "Community not found"
// @Failure 500 {object} dto.ErrorResponse "Cascade failed and was rolled back"
// @Router /communities/{id} [delete]
func (c *CommunityController) DeleteCommunity(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	removed, err := c.communityService.DeleteCommunity(ctx.Request.Context(), id, currentUser(ctx).ID, ctx.Query("path"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(dto.DeleteCommunityResponse{Removed: removed}, "Community deleted successfully"))
}

// JoinCommunity adds the caller to the members
// @Summary Join community
// @Tags communities
// @Produce json
// @Security BearerAuth
// @Param id path string true "Community ID" Format(uuid)
// @Param path query string false "Revalidation path token"
// @Success 200 {object} dto.StructuredResponse{data=dto.MembershipResponse} "Joined community"
// @Failure 404 {object} dto.ErrorResponse "Community not found"
// @Router /communities/{id}/members [post]
func (c *CommunityController) JoinCommunity(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.communityService.JoinCommunity(ctx.Request.Context(), id, currentUser(ctx).ID, ctx.Query("path")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(dto.MembershipResponse{IsMember: true}, "Joined community"))
}

// LeaveCommunity removes the caller from the members
// @Summary Leave community
// @Tags communities
// @Produce json
// @Security BearerAuth
// @Param id path string true "Community ID" Format(uuid)
// @Param path query string false "Revalidation path token"
// @Success 200 {object} dto.StructuredResponse{data=dto.MembershipResponse} "Left community"
// @Failure 404 {object} dto.ErrorResponse "Community not found"
// @Router /communities/{id}/members [delete]
func (c *CommunityController) LeaveCommunity(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.communityService.LeaveCommunity(ctx.Request.Context(), id, currentUser(ctx).ID, ctx.Query("path")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(dto.MembershipResponse{IsMember: false}, "Left community"))
}

// GetMembership answers whether the caller is a member
// @Summary Check membership
// @Tags communities
// @Produce json
// @Security BearerAuth
// @Param id path string true "Community ID" Format(uuid)
// @Success 200 {object} dto.StructuredResponse{data=dto.MembershipResponse} "Membership retrieved"
// @Router /communities/{id}/membership [get]
func (c *CommunityController) GetMembership(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	member, err := c.communityService.IsMember(ctx.Request.Context(), id, currentUser(ctx).ID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(dto.MembershipResponse{IsMember: member}, "Membership retrieved"))
}

// GetCommunityPosts lists the community's root posts
// @Summary Get community posts
// @Tags communities
// @Produce json
// @Security BearerAuth
// @Param id path string true "Community ID" Format(uuid)
// @Param page query int false "Page number (1-based)" default(1) minimum(1)
// @Param size query int false "Page size (max 100)" default(20) minimum(1) maximum(100)
// @Success 200 {object} dto.StructuredResponse{data=dto.PaginatedResponse{items=[]models.PostWithAuthor}} "Posts retrieved successfully"
// @Failure 404 {object} dto.ErrorResponse "Community not found"
// @Router /communities/{id}/posts [get]
func (c *CommunityController) GetCommunityPosts(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	result, err := c.communityService.FetchCommunityPosts(ctx.Request.Context(), id, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondPage(ctx, result, "Posts retrieved successfully")
}

// GetCommunityEvents lists the community's root events
// @Summary Get community events
// @Tags communities
// @Produce json
// @Security BearerAuth
// @Param id path string true "Community ID" Format(uuid)
// @Param page query int false "Page number (1-based)" default(1) minimum(1)
// @Param size query int false "Page size (max 100)" default(20) minimum(1) maximum(100)
// @Success 200 {object} dto.StructuredResponse{data=dto.PaginatedResponse{items=[]models.EventDetail}} "Events retrieved successfully"
// @Failure 404 {object} dto.ErrorResponse "Community not found"
// @Router /communities/{id}/events [get]
func (c *CommunityController) GetCommunityEvents(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	result, err := c.communityService.FetchCommunityEvents(ctx.Request.Context(), id, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondPage(ctx, result, "Events retrieved successfully")
}
